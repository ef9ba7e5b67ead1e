package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/l33tdawg/cfp-directory-plugins/internal/models"
)

// SubmissionRepository exposes read access to CFP submissions.
type SubmissionRepository interface {
	GetByID(ctx context.Context, id uint) (models.Submission, error)
	ListByEvent(ctx context.Context, eventID uint, limit int) ([]models.Submission, error)
}

// NewSubmissionRepository constructs a submission repository.
func NewSubmissionRepository(db *gorm.DB) SubmissionRepository {
	return &submissionRepository{db: db}
}

type submissionRepository struct {
	db *gorm.DB
}

func (r *submissionRepository) GetByID(ctx context.Context, id uint) (models.Submission, error) {
	var submission models.Submission
	err := r.db.WithContext(ctx).Preload("Event").First(&submission, id).Error
	if err != nil {
		return models.Submission{}, err
	}
	return submission, nil
}

func (r *submissionRepository) ListByEvent(ctx context.Context, eventID uint, limit int) ([]models.Submission, error) {
	query := r.db.WithContext(ctx).
		Where("event_id = ?", eventID).
		Order("created_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var submissions []models.Submission
	if err := query.Find(&submissions).Error; err != nil {
		return nil, err
	}
	return submissions, nil
}
