package models

import (
	"time"

	"github.com/CruzR/inventorymgr/pkg/enums"
)

// LogEntry is an append-only audit record of a borrowing lifecycle action.
// Secondary is only set for transfers and names the receiving user.
type LogEntry struct {
	ID          uint            `gorm:"primaryKey;autoIncrement"`
	Action      enums.LogAction `gorm:"column:action;type:text;not null"`
	SubjectID   uint            `gorm:"column:subject_id;not null;index"`
	SecondaryID *uint           `gorm:"column:secondary_id"`

	Subject   *User `gorm:"foreignKey:SubjectID;constraint:OnDelete:CASCADE"`
	Secondary *User `gorm:"foreignKey:SecondaryID;constraint:OnDelete:SET NULL"`

	Items []BorrowableItem `gorm:"many2many:log_entry_items;constraint:OnDelete:CASCADE"`

	Timestamp time.Time `gorm:"column:timestamp;not null"`
}
