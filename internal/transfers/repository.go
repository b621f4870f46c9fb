package transfers

import (
	"context"

	"github.com/CruzR/inventorymgr/internal/repo"
	"github.com/CruzR/inventorymgr/pkg/db/models"
	"gorm.io/gorm"
)

// Repository exposes persistence for custody transfer requests.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, req *models.TransferRequest) error
	FindByID(ctx context.Context, id uint) (*models.TransferRequest, error)
	ListByTarget(ctx context.Context, userID uint) ([]models.TransferRequest, error)
	ListByIssuer(ctx context.Context, userID uint) ([]models.TransferRequest, error)
	Delete(ctx context.Context, req *models.TransferRequest) error
}

type repository struct {
	base repo.Base
}

// NewRepository builds a transfer request repository backed by the provided DB.
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

func (r *repository) Create(ctx context.Context, req *models.TransferRequest) error {
	return r.base.DB(ctx).Create(req).Error
}

func (r *repository) FindByID(ctx context.Context, id uint) (*models.TransferRequest, error) {
	var req models.TransferRequest
	err := r.base.DB(ctx).
		Preload("IssuingUser").
		Preload("TargetUser").
		Preload("TargetUser.Qualifications").
		Preload("BorrowState").
		Preload("BorrowState.BorrowedItem").
		Preload("BorrowState.BorrowedItem.RequiredQualifications").
		First(&req, id).Error
	if err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *repository) ListByTarget(ctx context.Context, userID uint) ([]models.TransferRequest, error) {
	var out []models.TransferRequest
	err := r.base.DB(ctx).
		Preload("BorrowState").
		Where("target_user_id = ?", userID).
		Order("id asc").
		Find(&out).Error
	return out, err
}

func (r *repository) ListByIssuer(ctx context.Context, userID uint) ([]models.TransferRequest, error) {
	var out []models.TransferRequest
	err := r.base.DB(ctx).
		Preload("BorrowState").
		Where("issuing_user_id = ?", userID).
		Order("id asc").
		Find(&out).Error
	return out, err
}

func (r *repository) Delete(ctx context.Context, req *models.TransferRequest) error {
	return r.base.DB(ctx).Delete(req).Error
}
