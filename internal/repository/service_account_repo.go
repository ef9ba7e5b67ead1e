package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/l33tdawg/cfp-directory-plugins/internal/models"
)

// ServiceAccountRepository provisions and looks up service reviewer accounts.
type ServiceAccountRepository interface {
	GetOrCreate(ctx context.Context, name, image string) (models.ServiceAccount, error)
}

// NewServiceAccountRepository constructs a service account repository.
func NewServiceAccountRepository(db *gorm.DB) ServiceAccountRepository {
	return &serviceAccountRepository{db: db}
}

type serviceAccountRepository struct {
	db *gorm.DB
}

func (r *serviceAccountRepository) GetOrCreate(ctx context.Context, name, image string) (models.ServiceAccount, error) {
	account := models.ServiceAccount{Name: name, Image: image}
	err := r.db.WithContext(ctx).
		Where(models.ServiceAccount{Name: name}).
		FirstOrCreate(&account).Error
	if err != nil {
		return models.ServiceAccount{}, err
	}
	return account, nil
}
