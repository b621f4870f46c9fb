package repo

import (
	"context"

	"gorm.io/gorm"
)

// Base holds the GORM handle every feature repository embeds. It may wrap
// either the shared pool or a transaction.
type Base struct {
	db *gorm.DB
}

// NewBase wraps the provided GORM connection.
func NewBase(db *gorm.DB) Base {
	return Base{db: db}
}

// DB returns the connection bound to the supplied context (if any).
func (b Base) DB(ctx context.Context) *gorm.DB {
	if ctx == nil {
		return b.db
	}
	return b.db.WithContext(ctx)
}
