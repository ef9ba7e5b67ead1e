package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/l33tdawg/cfp-directory-plugins/internal/models"
)

// ReviewRepository exposes persistence helpers for submission reviews.
type ReviewRepository interface {
	Create(ctx context.Context, review *models.Review) error
	Update(ctx context.Context, review *models.Review) error
	GetByID(ctx context.Context, id uint) (models.Review, error)
	GetBySubmissionAndReviewer(ctx context.Context, submissionID, reviewerID uint) (models.Review, error)
	ListBySubmission(ctx context.Context, submissionID uint) ([]models.Review, error)
}

// NewReviewRepository constructs a review repository.
func NewReviewRepository(db *gorm.DB) ReviewRepository {
	return &reviewRepository{db: db}
}

type reviewRepository struct {
	db *gorm.DB
}

func (r *reviewRepository) Create(ctx context.Context, review *models.Review) error {
	return r.db.WithContext(ctx).Create(review).Error
}

func (r *reviewRepository) Update(ctx context.Context, review *models.Review) error {
	return r.db.WithContext(ctx).Save(review).Error
}

func (r *reviewRepository) GetByID(ctx context.Context, id uint) (models.Review, error) {
	var review models.Review
	if err := r.db.WithContext(ctx).First(&review, id).Error; err != nil {
		return models.Review{}, err
	}
	return review, nil
}

func (r *reviewRepository) GetBySubmissionAndReviewer(ctx context.Context, submissionID, reviewerID uint) (models.Review, error) {
	var review models.Review
	err := r.db.WithContext(ctx).
		Where("submission_id = ? AND reviewer_id = ?", submissionID, reviewerID).
		First(&review).Error
	if err != nil {
		return models.Review{}, err
	}
	return review, nil
}

func (r *reviewRepository) ListBySubmission(ctx context.Context, submissionID uint) ([]models.Review, error) {
	var reviews []models.Review
	err := r.db.WithContext(ctx).
		Where("submission_id = ?", submissionID).
		Order("created_at ASC").
		Find(&reviews).Error
	if err != nil {
		return nil, err
	}
	return reviews, nil
}
