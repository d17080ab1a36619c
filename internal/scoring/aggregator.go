package scoring

import (
	"errors"
	"math"

	"neurohire/pipeline/internal/models"
	"neurohire/pipeline/internal/repositories"

	"gorm.io/gorm"
)

// Snapshot is one consistent view of an application's stage rows plus the
// job's weights, read under a single transaction. Compute is pure over it.
type Snapshot struct {
	ApplicationID  uint
	ExpectedStages int
	Weights        models.ScoringWeights
	Resume         *models.ResumeAnalysis
	Videos         []models.VideoSubmission
}

// Aggregator recomputes the materialized AggregateAssessment for an
// application. Safe to call redundantly after every stage transition: given
// the same rows it always writes the same assessment.
type Aggregator struct {
	db *gorm.DB
}

func NewAggregator(db *gorm.DB) *Aggregator {
	return &Aggregator{db: db}
}

func (a *Aggregator) Recompute(applicationID uint) (*models.AggregateAssessment, error) {
	var assessment models.AggregateAssessment

	err := a.db.Transaction(func(tx *gorm.DB) error {
		snap, err := loadSnapshot(tx, applicationID)
		if err != nil {
			return err
		}

		assessment = Compute(*snap)

		var existing models.AggregateAssessment
		err = tx.Where("application_id = ?", applicationID).First(&existing).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return tx.Create(&assessment).Error
		}
		if err != nil {
			return err
		}

		assessment.ID = existing.ID
		assessment.CreatedAt = existing.CreatedAt
		return tx.Save(&assessment).Error
	})
	if err != nil {
		return nil, err
	}
	return &assessment, nil
}

// RecommendationAt derives the tier from the stage rows and weights as they
// stand, bypassing the materialized assessment. Empty while the total is
// still unresolved.
func RecommendationAt(tx *gorm.DB, applicationID uint) (string, error) {
	snap, err := loadSnapshot(tx, applicationID)
	if err != nil {
		return "", err
	}
	return Compute(*snap).Recommendation, nil
}

func loadSnapshot(tx *gorm.DB, applicationID uint) (*Snapshot, error) {
	var app models.Application
	if err := tx.First(&app, applicationID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repositories.ErrApplicationNotFound
		}
		return nil, err
	}

	var job models.Job
	if err := tx.Select("resume_weight", "video_weight", "title").First(&job, app.JobID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repositories.ErrJobNotFound
		}
		return nil, err
	}

	snap := &Snapshot{
		ApplicationID:  applicationID,
		ExpectedStages: app.ExpectedStages,
		Weights:        models.ScoringWeights{Resume: job.ResumeWeight, Video: job.VideoWeight},
	}

	var resume models.ResumeAnalysis
	err := tx.Where("application_id = ?", applicationID).Order("id DESC").First(&resume).Error
	if err == nil {
		snap.Resume = &resume
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	if err := tx.Where("application_id = ?", applicationID).
		Order("question_index ASC").
		Find(&snap.Videos).Error; err != nil {
		return nil, err
	}

	return snap, nil
}

// Compute derives the assessment from a snapshot.
//
// The video component is the mean over succeeded submissions while stages are
// still outstanding; failed stages are excluded rather than dragged in as
// zeros. Once every expected stage is terminal, the divisor becomes the
// expected question count, so a skipped or failed answer counts as 0 and
// cannot inflate the average. No partial totals: the total stays null until
// both components resolve.
func Compute(snap Snapshot) models.AggregateAssessment {
	assessment := models.AggregateAssessment{
		ApplicationID: snap.ApplicationID,
		Complete:      countTerminal(snap.Resume, snap.Videos) == snap.ExpectedStages,
	}

	if snap.Resume != nil {
		switch snap.Resume.Status {
		case models.StageSucceeded:
			score := 0
			if snap.Resume.Score != nil {
				score = *snap.Resume.Score
			}
			assessment.ResumeScore = &score
		case models.StageFailed:
			// Degraded, not blocked: a permanently failed resume scores 0
			// and the partial flag surfaces it to the recruiter.
			zero := 0
			assessment.ResumeScore = &zero
			assessment.Partial = true
		}
	}

	expectedVideos := snap.ExpectedStages - 1
	sum, succeeded := 0, 0
	for _, v := range snap.Videos {
		if v.Status == models.StageSucceeded && v.Score != nil {
			sum += *v.Score
			succeeded++
		}
		if v.Status == models.StageFailed {
			assessment.Partial = true
		}
	}

	switch {
	case expectedVideos <= 0:
		// Job with no interview questions: the resume carries the full total.
		if assessment.ResumeScore != nil {
			total := *assessment.ResumeScore
			assessment.TotalScore = &total
			assessment.Recommendation = models.RecommendationTier(total)
		}
		return assessment
	case assessment.Complete:
		video := roundDiv(sum, expectedVideos)
		assessment.VideoScore = &video
	case succeeded > 0:
		video := roundDiv(sum, succeeded)
		assessment.VideoScore = &video
	}

	if assessment.ResumeScore != nil && assessment.VideoScore != nil {
		weighted := float64(*assessment.ResumeScore)*float64(snap.Weights.Resume)/100 +
			float64(*assessment.VideoScore)*float64(snap.Weights.Video)/100
		total := int(math.Round(weighted))
		assessment.TotalScore = &total
		assessment.Recommendation = models.RecommendationTier(total)
	}

	return assessment
}

func countTerminal(resume *models.ResumeAnalysis, videos []models.VideoSubmission) int {
	count := 0
	if resume != nil && models.TerminalStage(resume.Status) {
		count++
	}
	for _, v := range videos {
		if models.TerminalStage(v.Status) {
			count++
		}
	}
	return count
}

func roundDiv(sum, n int) int {
	return int(math.Round(float64(sum) / float64(n)))
}
