package users

import (
	"context"

	"github.com/CruzR/inventorymgr/internal/repo"
	"github.com/CruzR/inventorymgr/pkg/db/models"
	"gorm.io/gorm"
)

// Repository exposes persistence for users and their qualification links.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, user *models.User) error
	FindByID(ctx context.Context, id uint) (*models.User, error)
	FindByUsername(ctx context.Context, username string) (*models.User, error)
	List(ctx context.Context) ([]models.User, error)
	Update(ctx context.Context, user *models.User) error
	ReplaceQualifications(ctx context.Context, user *models.User, quals []models.Qualification) error
	Delete(ctx context.Context, user *models.User) error
}

type repository struct {
	base repo.Base
}

// NewRepository builds a users repository backed by the provided DB.
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

func (r *repository) Create(ctx context.Context, user *models.User) error {
	return r.base.DB(ctx).Create(user).Error
}

func (r *repository) FindByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	err := r.base.DB(ctx).Preload("Qualifications").First(&user, id).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *repository) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	err := r.base.DB(ctx).Preload("Qualifications").Where("username = ?", username).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *repository) List(ctx context.Context) ([]models.User, error) {
	var out []models.User
	err := r.base.DB(ctx).Preload("Qualifications").Order("id asc").Find(&out).Error
	return out, err
}

func (r *repository) Update(ctx context.Context, user *models.User) error {
	return r.base.DB(ctx).Save(user).Error
}

func (r *repository) ReplaceQualifications(ctx context.Context, user *models.User, quals []models.Qualification) error {
	return r.base.DB(ctx).Model(user).Association("Qualifications").Replace(quals)
}

func (r *repository) Delete(ctx context.Context, user *models.User) error {
	return r.base.DB(ctx).Select("Qualifications").Delete(user).Error
}
