package auditlog

import (
	"context"
	"time"

	"github.com/CruzR/inventorymgr/internal/repo"
	"github.com/CruzR/inventorymgr/pkg/db/models"
	"github.com/CruzR/inventorymgr/pkg/enums"
	"gorm.io/gorm"
)

// Repository appends and reads the borrowing audit trail. Entries are never
// mutated after creation.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Append(ctx context.Context, entry *models.LogEntry) error
	List(ctx context.Context) ([]models.LogEntry, error)
}

type repository struct {
	base repo.Base
}

// NewRepository builds an audit log repository backed by the provided DB.
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

func (r *repository) Append(ctx context.Context, entry *models.LogEntry) error {
	return r.base.DB(ctx).Create(entry).Error
}

func (r *repository) List(ctx context.Context) ([]models.LogEntry, error) {
	var out []models.LogEntry
	err := r.base.DB(ctx).
		Preload("Subject").
		Preload("Secondary").
		Preload("Items").
		Order("timestamp asc, id asc").
		Find(&out).Error
	return out, err
}

// NewEntry assembles an audit record for the given action.
func NewEntry(action enums.LogAction, subjectID uint, secondaryID *uint, items []models.BorrowableItem, at time.Time) *models.LogEntry {
	return &models.LogEntry{
		Action:      action,
		SubjectID:   subjectID,
		SecondaryID: secondaryID,
		Items:       items,
		Timestamp:   at,
	}
}
