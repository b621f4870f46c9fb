package items

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/CruzR/inventorymgr/pkg/db"
	"github.com/CruzR/inventorymgr/pkg/db/models"
	pkgerrors "github.com/CruzR/inventorymgr/pkg/errors"
	"gorm.io/gorm"
)

// ItemDTO is the transport shape of a borrowable item.
type ItemDTO struct {
	ID                       uint   `json:"id"`
	Name                     string `json:"name"`
	Barcode                  string `json:"barcode"`
	QuantityTotal            int    `json:"quantity_total"`
	QuantityInStock          int    `json:"quantity_in_stock"`
	UnmatchedReturns         int    `json:"unmatched_returns"`
	RequiredQualificationIDs []uint `json:"required_qualification_ids"`
}

// CreateItemRequest carries the fields accepted when creating an item.
type CreateItemRequest struct {
	Name                     string  `json:"name" validate:"required,min=1,max=256"`
	Barcode                  *string `json:"barcode" validate:"omitempty,max=256"`
	QuantityTotal            int     `json:"quantity_total" validate:"gte=0"`
	RequiredQualificationIDs []uint  `json:"required_qualification_ids"`
}

// UpdateItemRequest carries the optional fields accepted on update.
type UpdateItemRequest struct {
	Name                     *string `json:"name" validate:"omitempty,min=1,max=256"`
	Barcode                  *string `json:"barcode" validate:"omitempty,max=256"`
	QuantityTotal            *int    `json:"quantity_total" validate:"omitempty,gte=0"`
	RequiredQualificationIDs *[]uint `json:"required_qualification_ids"`
}

// Service defines the behavior needed by the items controller.
type Service interface {
	List(ctx context.Context) ([]ItemDTO, error)
	Get(ctx context.Context, id uint) (*ItemDTO, error)
	Create(ctx context.Context, req CreateItemRequest) (*ItemDTO, error)
	Update(ctx context.Context, id uint, req UpdateItemRequest) (*ItemDTO, error)
	Delete(ctx context.Context, id uint) error
}

type qualificationLookup interface {
	FindByIDs(ctx context.Context, ids []uint) ([]models.Qualification, error)
}

type service struct {
	client *db.Client
	items  Repository
	quals  qualificationLookup
}

// ServiceParams bundles the dependencies required to build an items service.
type ServiceParams struct {
	Client         *db.Client
	ItemRepo       Repository
	Qualifications qualificationLookup
}

// NewService constructs an items service.
func NewService(params ServiceParams) (Service, error) {
	if params.Client == nil {
		return nil, fmt.Errorf("db client is required")
	}
	if params.ItemRepo == nil {
		return nil, fmt.Errorf("item repository is required")
	}
	if params.Qualifications == nil {
		return nil, fmt.Errorf("qualification lookup is required")
	}
	return &service{client: params.Client, items: params.ItemRepo, quals: params.Qualifications}, nil
}

// FromModel converts a stored item into its transport shape.
func FromModel(item *models.BorrowableItem) *ItemDTO {
	if item == nil {
		return nil
	}
	dto := &ItemDTO{
		ID:               item.ID,
		Name:             item.Name,
		Barcode:          item.BarcodeValue(),
		QuantityTotal:    item.QuantityTotal,
		QuantityInStock:  item.QuantityInStock,
		UnmatchedReturns: item.UnmatchedReturns,
	}
	dto.RequiredQualificationIDs = make([]uint, 0, len(item.RequiredQualifications))
	for _, q := range item.RequiredQualifications {
		dto.RequiredQualificationIDs = append(dto.RequiredQualificationIDs, q.ID)
	}
	return dto
}

func (s *service) List(ctx context.Context) ([]ItemDTO, error) {
	rows, err := s.items.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.ReasonInternal, err, "list items")
	}
	out := make([]ItemDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *FromModel(&rows[i]))
	}
	return out, nil
}

func (s *service) Get(ctx context.Context, id uint) (*ItemDTO, error) {
	item, err := s.items.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.ReasonNonexistentItem, "item does not exist")
		}
		return nil, pkgerrors.Wrap(pkgerrors.ReasonInternal, err, "lookup item")
	}
	return FromModel(item), nil
}

func (s *service) Create(ctx context.Context, req CreateItemRequest) (*ItemDTO, error) {
	item := &models.BorrowableItem{
		Name:            strings.TrimSpace(req.Name),
		Barcode:         req.Barcode,
		QuantityTotal:   req.QuantityTotal,
		QuantityInStock: req.QuantityTotal,
	}
	err := s.client.WithTx(ctx, func(tx *gorm.DB) error {
		txItems := s.items.WithTx(tx)
		if err := txItems.Create(ctx, item); err != nil {
			if db.IsUniqueViolation(err, "") {
				return pkgerrors.New(pkgerrors.ReasonItemExists, "item name is taken")
			}
			return pkgerrors.Wrap(pkgerrors.ReasonInternal, err, "create item")
		}
		if len(req.RequiredQualificationIDs) > 0 {
			quals, err := s.resolveQualifications(ctx, req.RequiredQualificationIDs)
			if err != nil {
				return err
			}
			if err := txItems.ReplaceRequiredQualifications(ctx, item, quals); err != nil {
				return pkgerrors.Wrap(pkgerrors.ReasonInternal, err, "assign required qualifications")
			}
			item.RequiredQualifications = quals
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return FromModel(item), nil
}

func (s *service) Update(ctx context.Context, id uint, req UpdateItemRequest) (*ItemDTO, error) {
	var updated *models.BorrowableItem
	err := s.client.WithTx(ctx, func(tx *gorm.DB) error {
		txItems := s.items.WithTx(tx)
		item, err := txItems.FindByID(ctx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.ReasonNonexistentItem, "item does not exist")
			}
			return pkgerrors.Wrap(pkgerrors.ReasonInternal, err, "lookup item")
		}

		if req.Name != nil {
			item.Name = strings.TrimSpace(*req.Name)
		}
		if req.Barcode != nil {
			item.Barcode = req.Barcode
		}
		if req.QuantityTotal != nil {
			// lent-out units stay lent out; only the free pool shifts
			delta := *req.QuantityTotal - item.QuantityTotal
			item.QuantityTotal = *req.QuantityTotal
			item.QuantityInStock += delta
			if item.QuantityInStock < 0 {
				item.QuantityInStock = 0
			}
		}

		if err := txItems.Update(ctx, item); err != nil {
			if db.IsUniqueViolation(err, "") {
				return pkgerrors.New(pkgerrors.ReasonItemExists, "item name is taken")
			}
			return pkgerrors.Wrap(pkgerrors.ReasonInternal, err, "update item")
		}

		if req.RequiredQualificationIDs != nil {
			quals, err := s.resolveQualifications(ctx, *req.RequiredQualificationIDs)
			if err != nil {
				return err
			}
			if err := txItems.ReplaceRequiredQualifications(ctx, item, quals); err != nil {
				return pkgerrors.Wrap(pkgerrors.ReasonInternal, err, "replace required qualifications")
			}
			item.RequiredQualifications = quals
		}

		updated = item
		return nil
	})
	if err != nil {
		return nil, err
	}
	return FromModel(updated), nil
}

func (s *service) Delete(ctx context.Context, id uint) error {
	return s.client.WithTx(ctx, func(tx *gorm.DB) error {
		txItems := s.items.WithTx(tx)
		item, err := txItems.FindByID(ctx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.ReasonNonexistentItem, "item does not exist")
			}
			return pkgerrors.Wrap(pkgerrors.ReasonInternal, err, "lookup item")
		}
		if err := txItems.Delete(ctx, item); err != nil {
			return pkgerrors.Wrap(pkgerrors.ReasonInternal, err, "delete item")
		}
		return nil
	})
}

func (s *service) resolveQualifications(ctx context.Context, ids []uint) ([]models.Qualification, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	seen := make(map[uint]bool, len(ids))
	unique := 0
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			unique++
		}
	}
	quals, err := s.quals.FindByIDs(ctx, ids)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.ReasonInternal, err, "lookup qualifications")
	}
	if len(quals) != unique {
		return nil, pkgerrors.New(pkgerrors.ReasonUnknownQualification, "one or more qualifications do not exist")
	}
	return quals, nil
}
