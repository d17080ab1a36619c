package repositories

import (
	"errors"

	"neurohire/pipeline/internal/models"

	"gorm.io/gorm"
)

type JobRepository struct {
	DB *gorm.DB
}

func (r *JobRepository) CreateJob(job *models.Job) error {
	w := models.ScoringWeights{Resume: job.ResumeWeight, Video: job.VideoWeight}
	if !w.Valid() {
		return ErrWeightInvariant
	}
	return r.DB.Create(job).Error
}

func (r *JobRepository) GetJobByID(jobID uint) (*models.Job, error) {
	var job models.Job
	err := r.DB.Preload("Questions").First(&job, jobID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrJobNotFound
	}
	return &job, err
}

// GetWeights loads the job's weight pair as an immutable value. Aggregation
// fetches this once per recompute and passes it by value, so a concurrent
// weight edit cannot race a computation already in flight.
func (r *JobRepository) GetWeights(jobID uint) (models.ScoringWeights, error) {
	var job models.Job
	err := r.DB.Select("resume_weight", "video_weight").First(&job, jobID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.ScoringWeights{}, ErrJobNotFound
	}
	if err != nil {
		return models.ScoringWeights{}, err
	}
	return models.ScoringWeights{Resume: job.ResumeWeight, Video: job.VideoWeight}, nil
}

// UpdateWeights replaces the job's weight pair. A pair that does not sum to
// 100 is rejected before any write, leaving the stored weights intact; the
// CHECK constraint backs this up at the database level.
func (r *JobRepository) UpdateWeights(jobID uint, weights models.ScoringWeights) (*models.Job, error) {
	if !weights.Valid() {
		return nil, ErrWeightInvariant
	}

	var job models.Job
	if err := r.DB.First(&job, jobID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrJobNotFound
		}
		return nil, err
	}

	err := r.DB.Model(&job).Updates(map[string]interface{}{
		"resume_weight": weights.Resume,
		"video_weight":  weights.Video,
	}).Error
	if err != nil {
		return nil, err
	}
	return &job, nil
}

// QuestionCount returns how many interview questions the job currently has.
// Captured onto the application at creation time; never re-read for an
// in-flight application.
func (r *JobRepository) QuestionCount(jobID uint) (int, error) {
	var count int64
	err := r.DB.Model(&models.JobQuestion{}).Where("job_id = ?", jobID).Count(&count).Error
	return int(count), err
}
