package auditlog

import (
	"context"
	"fmt"
	"time"

	pkgerrors "github.com/CruzR/inventorymgr/pkg/errors"
)

// ItemRef identifies an affected item by id and barcode.
type ItemRef struct {
	ID      uint   `json:"id"`
	Barcode string `json:"barcode"`
}

// EntryDTO is the transport shape of one audit record.
type EntryDTO struct {
	ID          uint      `json:"id"`
	Action      string    `json:"action"`
	SubjectID   uint      `json:"subject_id"`
	Subject     string    `json:"subject"`
	SecondaryID *uint     `json:"secondary_id,omitempty"`
	Secondary   *string   `json:"secondary,omitempty"`
	Items       []ItemRef `json:"items"`
	Timestamp   time.Time `json:"timestamp"`
}

// Service defines the read surface exposed by the logs controller.
type Service interface {
	List(ctx context.Context) ([]EntryDTO, error)
}

type service struct {
	repo Repository
}

// NewService constructs an audit log read service.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("audit log repository is required")
	}
	return &service{repo: repo}, nil
}

func (s *service) List(ctx context.Context) ([]EntryDTO, error) {
	rows, err := s.repo.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.ReasonInternal, err, "list log entries")
	}

	out := make([]EntryDTO, 0, len(rows))
	for _, row := range rows {
		dto := EntryDTO{
			ID:          row.ID,
			Action:      row.Action.String(),
			SubjectID:   row.SubjectID,
			SecondaryID: row.SecondaryID,
			Timestamp:   row.Timestamp,
		}
		if row.Subject != nil {
			dto.Subject = row.Subject.Username
		}
		if row.Secondary != nil {
			name := row.Secondary.Username
			dto.Secondary = &name
		}
		dto.Items = make([]ItemRef, 0, len(row.Items))
		for i := range row.Items {
			dto.Items = append(dto.Items, ItemRef{
				ID:      row.Items[i].ID,
				Barcode: row.Items[i].BarcodeValue(),
			})
		}
		out = append(out, dto)
	}
	return out, nil
}
