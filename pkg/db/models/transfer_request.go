package models

import "time"

// TransferRequest offers custody of an open BorrowState to another user. A
// request only stays meaningful while the referenced loan is open and still
// held by the issuing user; checkin deletes requests whose loan it closes.
type TransferRequest struct {
	ID            uint `gorm:"primaryKey;autoIncrement"`
	IssuingUserID uint `gorm:"column:issuing_user_id;not null;index"`
	TargetUserID  uint `gorm:"column:target_user_id;not null;index"`
	BorrowStateID uint `gorm:"column:borrow_state_id;not null;index"`

	IssuingUser *User        `gorm:"foreignKey:IssuingUserID;constraint:OnDelete:CASCADE"`
	TargetUser  *User        `gorm:"foreignKey:TargetUserID;constraint:OnDelete:CASCADE"`
	BorrowState *BorrowState `gorm:"foreignKey:BorrowStateID;constraint:OnDelete:CASCADE"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}
