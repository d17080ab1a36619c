package repositories

import (
	"errors"

	"neurohire/pipeline/internal/models"

	"gorm.io/gorm"
)

type DecisionRepository struct {
	DB *gorm.DB
}

// Create writes the decision row. The unique index on application_id backs
// up the existence check, so a concurrent double-submit cannot produce two
// rows either way.
func (r *DecisionRepository) Create(decision *models.Decision) error {
	err := r.DB.Create(decision).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrAlreadyDecided
	}
	return err
}

func (r *DecisionRepository) GetByApplication(applicationID uint) (*models.Decision, error) {
	var decision models.Decision
	err := r.DB.Where("application_id = ?", applicationID).First(&decision).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &decision, nil
}
