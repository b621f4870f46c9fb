package borrow

import (
	"context"

	"github.com/CruzR/inventorymgr/internal/repo"
	"github.com/CruzR/inventorymgr/pkg/db/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository exposes persistence for borrow states and the transfer-request
// cleanup that checkin performs when it closes a loan.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, state *models.BorrowState) error
	FindByID(ctx context.Context, id uint) (*models.BorrowState, error)
	List(ctx context.Context) ([]models.BorrowState, error)
	ListByUser(ctx context.Context, userID uint) ([]models.BorrowState, error)

	// ListOpenByItem returns open loans for the item, oldest received_at
	// first with id as the tie break. Checkin consumes candidates in this
	// order.
	ListOpenByItem(ctx context.Context, itemID uint) ([]models.BorrowState, error)

	Update(ctx context.Context, state *models.BorrowState) error
	DeleteTransferRequestsByBorrowStateIDs(ctx context.Context, ids []uint) error
}

type repository struct {
	base repo.Base
}

// NewRepository builds a borrow repository backed by the provided DB.
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

func (r *repository) Create(ctx context.Context, state *models.BorrowState) error {
	return r.base.DB(ctx).Create(state).Error
}

func (r *repository) FindByID(ctx context.Context, id uint) (*models.BorrowState, error) {
	var state models.BorrowState
	err := r.base.DB(ctx).
		Preload("BorrowingUser").
		Preload("BorrowedItem").
		Preload("BorrowedItem.RequiredQualifications").
		First(&state, id).Error
	if err != nil {
		return nil, err
	}
	return &state, nil
}

func (r *repository) List(ctx context.Context) ([]models.BorrowState, error) {
	var out []models.BorrowState
	err := r.base.DB(ctx).
		Preload("BorrowingUser").
		Preload("BorrowedItem").
		Order("received_at asc, id asc").
		Find(&out).Error
	return out, err
}

func (r *repository) ListByUser(ctx context.Context, userID uint) ([]models.BorrowState, error) {
	var out []models.BorrowState
	err := r.base.DB(ctx).
		Preload("BorrowingUser").
		Preload("BorrowedItem").
		Where("borrowing_user_id = ?", userID).
		Order("received_at asc, id asc").
		Find(&out).Error
	return out, err
}

func (r *repository) ListOpenByItem(ctx context.Context, itemID uint) ([]models.BorrowState, error) {
	var out []models.BorrowState
	err := r.base.DB(ctx).
		Preload("BorrowingUser").
		Preload("BorrowedItem").
		Where("borrowed_item_id = ? AND returned_at IS NULL", itemID).
		Order("received_at asc, id asc").
		Find(&out).Error
	return out, err
}

func (r *repository) Update(ctx context.Context, state *models.BorrowState) error {
	return r.base.DB(ctx).Omit(clause.Associations).Save(state).Error
}

func (r *repository) DeleteTransferRequestsByBorrowStateIDs(ctx context.Context, ids []uint) error {
	if len(ids) == 0 {
		return nil
	}
	return r.base.DB(ctx).
		Where("borrow_state_id IN ?", ids).
		Delete(&models.TransferRequest{}).Error
}
