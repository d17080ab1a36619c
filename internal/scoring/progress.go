package scoring

import (
	"math"

	"neurohire/pipeline/internal/models"

	"gorm.io/gorm"
)

// ProgressEstimator computes the 0-100 completion signal the client polls.
// Always derived from the stage rows at query time; there is no counter that
// could drift from them.
type ProgressEstimator struct {
	db *gorm.DB
}

func NewProgressEstimator(db *gorm.DB) *ProgressEstimator {
	return &ProgressEstimator{db: db}
}

// ComputeProgress counts terminal stages against the expected count frozen at
// application creation. A failed stage still counts as completed so the UI
// never hangs on a permanently broken artifact.
func (p *ProgressEstimator) ComputeProgress(applicationID uint) (*models.Progress, error) {
	var progress *models.Progress

	err := p.db.Transaction(func(tx *gorm.DB) error {
		snap, err := loadSnapshot(tx, applicationID)
		if err != nil {
			return err
		}
		progress = FromSnapshot(*snap)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return progress, nil
}

// FromSnapshot is the pure half of ComputeProgress.
func FromSnapshot(snap Snapshot) *models.Progress {
	completed := countTerminal(snap.Resume, snap.Videos)
	expected := snap.ExpectedStages
	if expected < 1 {
		expected = 1
	}
	// Rows beyond the frozen stage count must not push the signal past
	// completion.
	if completed > expected {
		completed = expected
	}

	return &models.Progress{
		ApplicationID: snap.ApplicationID,
		Percent:       int(math.Round(100 * float64(completed) / float64(expected))),
		Complete:      completed >= snap.ExpectedStages,
	}
}
