package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/l33tdawg/cfp-directory-plugins/internal/models"
)

// EventRepository exposes read access to events and their review criteria.
type EventRepository interface {
	GetWithCriteria(ctx context.Context, id uint) (models.Event, error)
}

// NewEventRepository constructs an event repository.
func NewEventRepository(db *gorm.DB) EventRepository {
	return &eventRepository{db: db}
}

type eventRepository struct {
	db *gorm.DB
}

func (r *eventRepository) GetWithCriteria(ctx context.Context, id uint) (models.Event, error) {
	var event models.Event
	err := r.db.WithContext(ctx).
		Preload("Criteria", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		First(&event, id).Error
	if err != nil {
		return models.Event{}, err
	}
	return event, nil
}
