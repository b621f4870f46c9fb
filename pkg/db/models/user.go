package models

import "time"

// User is the canonical identity entity. Permission flags are stored as
// dedicated columns so they can be updated independently.
type User struct {
	ID           uint   `gorm:"primaryKey;autoIncrement"`
	Username     string `gorm:"type:text;not null;uniqueIndex"`
	PasswordHash string `gorm:"column:password_hash;not null"`

	CreateUsers        bool `gorm:"column:create_users;not null;default:false"`
	ViewUsers          bool `gorm:"column:view_users;not null;default:false"`
	UpdateUsers        bool `gorm:"column:update_users;not null;default:false"`
	EditQualifications bool `gorm:"column:edit_qualifications;not null;default:false"`
	CreateItems        bool `gorm:"column:create_items;not null;default:false"`
	ManageCheckouts    bool `gorm:"column:manage_checkouts;not null;default:false"`

	Qualifications []Qualification `gorm:"many2many:user_qualifications;constraint:OnDelete:CASCADE"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
