package registration

import (
	"context"
	"time"

	"github.com/CruzR/inventorymgr/internal/repo"
	"github.com/CruzR/inventorymgr/pkg/db/models"
	"gorm.io/gorm"
)

// Repository exposes persistence for registration tokens.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, token *models.RegistrationToken) error
	FindByToken(ctx context.Context, token string) (*models.RegistrationToken, error)
	List(ctx context.Context) ([]models.RegistrationToken, error)
	Delete(ctx context.Context, token *models.RegistrationToken) error
	DeleteExpired(ctx context.Context, cutoff time.Time) (int64, error)
}

type repository struct {
	base repo.Base
}

// NewRepository builds a registration token repository backed by the provided DB.
func NewRepository(db *gorm.DB) Repository {
	if db == nil {
		return nil
	}
	return &repository{base: repo.NewBase(db)}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{base: repo.NewBase(tx)}
}

func (r *repository) Create(ctx context.Context, token *models.RegistrationToken) error {
	return r.base.DB(ctx).Create(token).Error
}

func (r *repository) FindByToken(ctx context.Context, token string) (*models.RegistrationToken, error) {
	var record models.RegistrationToken
	err := r.base.DB(ctx).Where("token = ?", token).First(&record).Error
	if err != nil {
		return nil, err
	}
	return &record, nil
}

func (r *repository) List(ctx context.Context) ([]models.RegistrationToken, error) {
	var out []models.RegistrationToken
	err := r.base.DB(ctx).Order("id asc").Find(&out).Error
	return out, err
}

func (r *repository) Delete(ctx context.Context, token *models.RegistrationToken) error {
	return r.base.DB(ctx).Delete(token).Error
}

func (r *repository) DeleteExpired(ctx context.Context, cutoff time.Time) (int64, error) {
	result := r.base.DB(ctx).
		Where("expires_at < ?", cutoff).
		Delete(&models.RegistrationToken{})
	return result.RowsAffected, result.Error
}
