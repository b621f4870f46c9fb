package items

import (
	"context"

	"github.com/CruzR/inventorymgr/internal/repo"
	"github.com/CruzR/inventorymgr/pkg/db/models"
	"gorm.io/gorm"
)

// Repository exposes persistence for borrowable items.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, item *models.BorrowableItem) error
	FindByID(ctx context.Context, id uint) (*models.BorrowableItem, error)
	FindByIDs(ctx context.Context, ids []uint) ([]models.BorrowableItem, error)
	List(ctx context.Context) ([]models.BorrowableItem, error)
	Update(ctx context.Context, item *models.BorrowableItem) error
	ReplaceRequiredQualifications(ctx context.Context, item *models.BorrowableItem, quals []models.Qualification) error
	Delete(ctx context.Context, item *models.BorrowableItem) error

	// DecrementStock atomically takes count units out of stock. Returns false
	// when the row no longer has count units available.
	DecrementStock(ctx context.Context, itemID uint, count int) (bool, error)
	Restock(ctx context.Context, itemID uint, count int) error
	AddUnmatchedReturns(ctx context.Context, itemID uint, count int) error
}

type repository struct {
	base repo.Base
}

// NewRepository builds an items repository backed by the provided DB.
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

func (r *repository) Create(ctx context.Context, item *models.BorrowableItem) error {
	return r.base.DB(ctx).Create(item).Error
}

func (r *repository) FindByID(ctx context.Context, id uint) (*models.BorrowableItem, error) {
	var item models.BorrowableItem
	err := r.base.DB(ctx).Preload("RequiredQualifications").First(&item, id).Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *repository) FindByIDs(ctx context.Context, ids []uint) ([]models.BorrowableItem, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var out []models.BorrowableItem
	err := r.base.DB(ctx).Preload("RequiredQualifications").Where("id IN ?", ids).Order("id asc").Find(&out).Error
	return out, err
}

func (r *repository) List(ctx context.Context) ([]models.BorrowableItem, error) {
	var out []models.BorrowableItem
	err := r.base.DB(ctx).Preload("RequiredQualifications").Order("id asc").Find(&out).Error
	return out, err
}

func (r *repository) Update(ctx context.Context, item *models.BorrowableItem) error {
	return r.base.DB(ctx).Save(item).Error
}

func (r *repository) ReplaceRequiredQualifications(ctx context.Context, item *models.BorrowableItem, quals []models.Qualification) error {
	return r.base.DB(ctx).Model(item).Association("RequiredQualifications").Replace(quals)
}

func (r *repository) Delete(ctx context.Context, item *models.BorrowableItem) error {
	return r.base.DB(ctx).Select("RequiredQualifications").Delete(item).Error
}

func (r *repository) DecrementStock(ctx context.Context, itemID uint, count int) (bool, error) {
	result := r.base.DB(ctx).
		Model(&models.BorrowableItem{}).
		Where("id = ? AND quantity_in_stock >= ?", itemID, count).
		UpdateColumn("quantity_in_stock", gorm.Expr("quantity_in_stock - ?", count))
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (r *repository) Restock(ctx context.Context, itemID uint, count int) error {
	return r.base.DB(ctx).
		Model(&models.BorrowableItem{}).
		Where("id = ?", itemID).
		UpdateColumn("quantity_in_stock", gorm.Expr("quantity_in_stock + ?", count)).Error
}

func (r *repository) AddUnmatchedReturns(ctx context.Context, itemID uint, count int) error {
	return r.base.DB(ctx).
		Model(&models.BorrowableItem{}).
		Where("id = ?", itemID).
		UpdateColumn("unmatched_returns", gorm.Expr("unmatched_returns + ?", count)).Error
}
