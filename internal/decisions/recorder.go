package decisions

import (
	"errors"
	"time"

	"neurohire/pipeline/internal/models"
	"neurohire/pipeline/internal/repositories"
	"neurohire/pipeline/internal/scoring"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Recorder writes the recruiter's terminal call on an application. A hiring
// decision is a one-way event: exactly one row per application, immutable
// once written.
type Recorder struct {
	db *gorm.DB
}

func NewRecorder(db *gorm.DB) *Recorder {
	return &Recorder{db: db}
}

// Record computes the override flag against the recommendation tier as it
// stands at decision time. An application still mid-analysis has no tier;
// the conservative baseline is then "interview", so an accept or reject
// recorded early is flagged as an override.
func (r *Recorder) Record(applicationID uint, recruiterID, outcome, comment string) (*models.Decision, error) {
	if !models.ValidOutcomes[outcome] {
		return nil, errors.New("invalid decision outcome: " + outcome)
	}

	decision := &models.Decision{
		Reference:     uuid.NewString(),
		ApplicationID: applicationID,
		Outcome:       outcome,
		Comment:       comment,
		RecruiterID:   recruiterID,
		DecidedAt:     time.Now(),
	}

	err := r.db.Transaction(func(tx *gorm.DB) error {
		var app models.Application
		if err := tx.First(&app, applicationID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return repositories.ErrApplicationNotFound
			}
			return err
		}

		var existing models.Decision
		err := tx.Where("application_id = ?", applicationID).First(&existing).Error
		if err == nil {
			return repositories.ErrAlreadyDecided
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		// The tier is recomputed from the stage rows inside this transaction,
		// not read from the materialized assessment: a weight update after the
		// last stage transition leaves the materialized row stale.
		baseline := models.TierInterview
		tier, err := scoring.RecommendationAt(tx, applicationID)
		if err != nil {
			return err
		}
		if tier != "" {
			baseline = tier
		}

		decision.Override = outcome != baseline

		if err := tx.Create(decision).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return repositories.ErrAlreadyDecided
			}
			return err
		}

		return tx.Model(&app).Update("status", models.StatusForOutcome(outcome)).Error
	})
	if err != nil {
		return nil, err
	}
	return decision, nil
}
