package repositories

import (
	"errors"
	"time"

	"neurohire/pipeline/internal/models"

	"gorm.io/gorm"
)

type ApplicationRepository struct {
	DB *gorm.DB
}

// Create inserts an application, freezing the expected stage count at
// 1 (resume) + the job's current question count.
func (r *ApplicationRepository) Create(candidateID, jobID uint) (*models.Application, error) {
	var job models.Job
	if err := r.DB.First(&job, jobID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrJobNotFound
		}
		return nil, err
	}

	var questions int64
	if err := r.DB.Model(&models.JobQuestion{}).Where("job_id = ?", jobID).Count(&questions).Error; err != nil {
		return nil, err
	}

	app := &models.Application{
		CandidateID:    candidateID,
		JobID:          jobID,
		Status:         models.ApplicationPending,
		ExpectedStages: 1 + int(questions),
	}
	if err := r.DB.Create(app).Error; err != nil {
		return nil, err
	}
	return app, nil
}

func (r *ApplicationRepository) GetByID(applicationID uint) (*models.Application, error) {
	var app models.Application
	err := r.DB.First(&app, applicationID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrApplicationNotFound
	}
	return &app, err
}

// Exists is the cheap check the orchestrator runs before persisting a scorer
// result, so a result for a withdrawn application is discarded rather than
// resurrected.
func (r *ApplicationRepository) Exists(applicationID uint) (bool, error) {
	var count int64
	err := r.DB.Model(&models.Application{}).Where("id = ?", applicationID).Count(&count).Error
	return count > 0, err
}

func (r *ApplicationRepository) UpdateStatus(applicationID uint, status string) error {
	result := r.DB.Model(&models.Application{}).Where("id = ?", applicationID).Update("status", status)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrApplicationNotFound
	}
	return nil
}

func (r *ApplicationRepository) SetNeedsReview(applicationID uint) error {
	return r.DB.Model(&models.Application{}).Where("id = ?", applicationID).Update("needs_review", true).Error
}

// ListExpiredPending returns undecided applications created before the
// cutoff, for the sweeper's answer-deadline expiry.
func (r *ApplicationRepository) ListExpiredPending(cutoff time.Time) ([]models.Application, error) {
	apps := []models.Application{}
	err := r.DB.Where("status = ? AND created_at < ?", models.ApplicationPending, cutoff).
		Find(&apps).Error
	return apps, err
}

// Delete removes an application and its dependent rows (withdrawal).
func (r *ApplicationRepository) Delete(applicationID uint) error {
	return r.DB.Transaction(func(tx *gorm.DB) error {
		for _, m := range []interface{}{
			&models.ResumeAnalysis{},
			&models.VideoSubmission{},
			&models.AggregateAssessment{},
			&models.Decision{},
		} {
			if err := tx.Where("application_id = ?", applicationID).Delete(m).Error; err != nil {
				return err
			}
		}
		result := tx.Delete(&models.Application{}, applicationID)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrApplicationNotFound
		}
		return nil
	})
}
