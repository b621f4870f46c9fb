package qualifications

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

// QualificationDTO is the transport shape of a qualification tag.
type QualificationDTO struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
}

// UpsertQualificationRequest carries the writable fields.
type UpsertQualificationRequest struct {
	Name string `json:"name" validate:"required,min=1,max=128"`
}

// Service defines the behavior needed by the qualifications controller.
type Service interface {
	List(ctx context.Context) ([]QualificationDTO, error)
	Get(ctx context.Context, id uint) (*QualificationDTO, error)
	Create(ctx context.Context, req UpsertQualificationRequest) (*QualificationDTO, error)
	Update(ctx context.Context, id uint, req UpsertQualificationRequest) (*QualificationDTO, error)
	Delete(ctx context.Context, id uint) error
}

type service struct {
	client *db.Client
	repo   Repository
}

// NewService constructs a qualifications service.
func NewService(client *db.Client, repo Repository) (Service, error) {
	if client == nil {
		return nil, fmt.Errorf("db client is required")
	}
	if repo == nil {
		return nil, fmt.Errorf("qualification repository is required")
	}
	return &service{client: client, repo: repo}, nil
}

func (s *service) List(ctx context.Context) ([]QualificationDTO, error) {
	rows, err := s.repo.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.ReasonInternal, err, "list qualifications")
	}
	out := make([]QualificationDTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, QualificationDTO{ID: row.ID, Name: row.Name})
	}
	return out, nil
}

func (s *service) Get(ctx context.Context, id uint) (*QualificationDTO, error) {
	qual, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.ReasonUnknownQualification, "no such qualification")
		}
		return nil, pkgerrors.Wrap(pkgerrors.ReasonInternal, err, "lookup qualification")
	}
	return &QualificationDTO{ID: qual.ID, Name: qual.Name}, nil
}

func (s *service) Create(ctx context.Context, req UpsertQualificationRequest) (*QualificationDTO, error) {
	qual := &models.Qualification{Name: strings.TrimSpace(req.Name)}
	err := s.client.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).Create(ctx, qual); err != nil {
			if db.IsUniqueViolation(err, "") {
				return pkgerrors.New(pkgerrors.ReasonQualificationExists, "qualification name is taken")
			}
			return pkgerrors.Wrap(pkgerrors.ReasonInternal, err, "create qualification")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &QualificationDTO{ID: qual.ID, Name: qual.Name}, nil
}

func (s *service) Update(ctx context.Context, id uint, req UpsertQualificationRequest) (*QualificationDTO, error) {
	var updated *models.Qualification
	err := s.client.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		qual, err := txRepo.FindByID(ctx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.ReasonUnknownQualification, "no such qualification")
			}
			return pkgerrors.Wrap(pkgerrors.ReasonInternal, err, "lookup qualification")
		}
		qual.Name = strings.TrimSpace(req.Name)
		if err := txRepo.Update(ctx, qual); err != nil {
			if db.IsUniqueViolation(err, "") {
				return pkgerrors.New(pkgerrors.ReasonQualificationExists, "qualification name is taken")
			}
			return pkgerrors.Wrap(pkgerrors.ReasonInternal, err, "update qualification")
		}
		updated = qual
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &QualificationDTO{ID: updated.ID, Name: updated.Name}, nil
}

func (s *service) Delete(ctx context.Context, id uint) error {
	return s.client.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		qual, err := txRepo.FindByID(ctx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.ReasonUnknownQualification, "no such qualification")
			}
			return pkgerrors.Wrap(pkgerrors.ReasonInternal, err, "lookup qualification")
		}
		if err := txRepo.Delete(ctx, qual); err != nil {
			return pkgerrors.Wrap(pkgerrors.ReasonInternal, err, "delete qualification")
		}
		return nil
	})
}
