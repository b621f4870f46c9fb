package models

import "time"

// BorrowableItem tracks lendable stock. UnmatchedReturns counts units handed
// back without a corresponding open loan.
type BorrowableItem struct {
	ID               uint   `gorm:"primaryKey;autoIncrement"`
	Name             string `gorm:"type:text;not null;uniqueIndex"`
	Barcode          *string `gorm:"type:text"`
	QuantityTotal    int    `gorm:"column:quantity_total;not null;default:0"`
	QuantityInStock  int    `gorm:"column:quantity_in_stock;not null;default:0"`
	UnmatchedReturns int    `gorm:"column:unmatched_returns;not null;default:0"`

	RequiredQualifications []Qualification `gorm:"many2many:item_required_qualifications;constraint:OnDelete:CASCADE"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
