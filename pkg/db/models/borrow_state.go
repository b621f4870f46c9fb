package models

import "time"

// BorrowState is one open or closed loan of a quantity of an item to a user.
// A loan is open while ReturnedAt is null.
type BorrowState struct {
	ID              uint `gorm:"primaryKey;autoIncrement"`
	BorrowingUserID uint `gorm:"column:borrowing_user_id;not null;index"`
	BorrowedItemID  uint `gorm:"column:borrowed_item_id;not null;index"`
	Quantity        int  `gorm:"column:quantity;not null"`

	BorrowingUser *User           `gorm:"foreignKey:BorrowingUserID;constraint:OnDelete:CASCADE"`
	BorrowedItem  *BorrowableItem `gorm:"foreignKey:BorrowedItemID;constraint:OnDelete:CASCADE"`

	ReceivedAt time.Time  `gorm:"column:received_at;not null"`
	ReturnedAt *time.Time `gorm:"column:returned_at"`
}
