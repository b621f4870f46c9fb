package qualifications

import (
	"context"

	"github.com/CruzR/inventorymgr/internal/repo"
	"github.com/CruzR/inventorymgr/pkg/db/models"
	"gorm.io/gorm"
)

// Repository exposes persistence for qualification tags.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, qual *models.Qualification) error
	FindByID(ctx context.Context, id uint) (*models.Qualification, error)
	FindByIDs(ctx context.Context, ids []uint) ([]models.Qualification, error)
	List(ctx context.Context) ([]models.Qualification, error)
	Update(ctx context.Context, qual *models.Qualification) error
	Delete(ctx context.Context, qual *models.Qualification) error
}

type repository struct {
	base repo.Base
}

// NewRepository builds a qualifications repository backed by the provided DB.
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

func (r *repository) Create(ctx context.Context, qual *models.Qualification) error {
	return r.base.DB(ctx).Create(qual).Error
}

func (r *repository) FindByID(ctx context.Context, id uint) (*models.Qualification, error) {
	var qual models.Qualification
	if err := r.base.DB(ctx).First(&qual, id).Error; err != nil {
		return nil, err
	}
	return &qual, nil
}

func (r *repository) FindByIDs(ctx context.Context, ids []uint) ([]models.Qualification, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var out []models.Qualification
	err := r.base.DB(ctx).Where("id IN ?", ids).Order("id asc").Find(&out).Error
	return out, err
}

func (r *repository) List(ctx context.Context) ([]models.Qualification, error) {
	var out []models.Qualification
	err := r.base.DB(ctx).Order("id asc").Find(&out).Error
	return out, err
}

func (r *repository) Update(ctx context.Context, qual *models.Qualification) error {
	return r.base.DB(ctx).Save(qual).Error
}

func (r *repository) Delete(ctx context.Context, qual *models.Qualification) error {
	return r.base.DB(ctx).Delete(qual).Error
}
