package transfers

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/CruzR/inventorymgr/internal/auditlog"
	"github.com/CruzR/inventorymgr/internal/authctx"
	"github.com/CruzR/inventorymgr/internal/borrow"
	"github.com/CruzR/inventorymgr/internal/eligibility"
	"github.com/CruzR/inventorymgr/internal/users"
	"github.com/CruzR/inventorymgr/pkg/db"
	"github.com/CruzR/inventorymgr/pkg/db/models"
	"github.com/CruzR/inventorymgr/pkg/enums"
	pkgerrors "github.com/CruzR/inventorymgr/pkg/errors"
	"gorm.io/gorm"
)

const (
	ActionAccept  = "accept"
	ActionDecline = "decline"
)

// CreateRequest offers one of the caller's open loans to another user.
type CreateRequest struct {
	TargetUserID  uint `json:"target_user_id" validate:"required"`
	BorrowStateID uint `json:"borrowstate_id" validate:"required"`
}

// RespondRequest resolves a pending request from the target user's side.
type RespondRequest struct {
	Action string `json:"action" validate:"required"`
}

// RequestDTO is the transport shape of a pending transfer request.
type RequestDTO struct {
	ID            uint `json:"id"`
	IssuingUserID uint `json:"issuing_user_id"`
	TargetUserID  uint `json:"target_user_id"`
	BorrowStateID uint `json:"borrowstate_id"`
}

// Service coordinates peer-to-peer custody transfers of open loans.
type Service interface {
	Create(ctx context.Context, ac *authctx.Context, req CreateRequest) error
	Respond(ctx context.Context, ac *authctx.Context, requestID uint, req RespondRequest) error
	ListForUser(ctx context.Context, userID uint) ([]RequestDTO, error)
}

type service struct {
	client   *db.Client
	requests Repository
	states   borrow.Repository
	users    users.Repository
	audit    auditlog.Repository
	now      func() time.Time
}

// ServiceParams bundles the dependencies required to build a transfers service.
type ServiceParams struct {
	Client      *db.Client
	RequestRepo Repository
	StateRepo   borrow.Repository
	UserRepo    users.Repository
	AuditRepo   auditlog.Repository

	// Now overrides the clock, mainly for tests.
	Now func() time.Time
}

// NewService constructs the transfer coordinator.
func NewService(params ServiceParams) (Service, error) {
	if params.Client == nil {
		return nil, fmt.Errorf("db client is required")
	}
	if params.RequestRepo == nil {
		return nil, fmt.Errorf("transfer request repository is required")
	}
	if params.StateRepo == nil {
		return nil, fmt.Errorf("borrow state repository is required")
	}
	if params.UserRepo == nil {
		return nil, fmt.Errorf("user repository is required")
	}
	if params.AuditRepo == nil {
		return nil, fmt.Errorf("audit log repository is required")
	}
	now := params.Now
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &service{
		client:   params.Client,
		requests: params.RequestRepo,
		states:   params.StateRepo,
		users:    params.UserRepo,
		audit:    params.AuditRepo,
		now:      now,
	}, nil
}

// Create validates the loan is open and held by the caller, and that the
// target user could borrow the item, before persisting the request.
func (s *service) Create(ctx context.Context, ac *authctx.Context, req CreateRequest) error {
	if ac == nil {
		return pkgerrors.New(pkgerrors.ReasonAuthenticationRequired, "authentication required")
	}

	return s.client.WithTx(ctx, func(tx *gorm.DB) error {
		txRequests := s.requests.WithTx(tx)
		txStates := s.states.WithTx(tx)
		txUsers := s.users.WithTx(tx)

		state, err := txStates.FindByID(ctx, req.BorrowStateID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.ReasonUnknownBorrowState, "unknown borrow state")
			}
			return pkgerrors.Wrap(pkgerrors.ReasonInternal, err, "lookup borrow state")
		}
		if state.BorrowingUserID != ac.UserID {
			return pkgerrors.New(pkgerrors.ReasonInsufficientPermissions, "loan is not held by you")
		}
		if state.ReturnedAt != nil {
			return pkgerrors.New(pkgerrors.ReasonItemNotBorrowed, "loan is already returned")
		}

		target, err := txUsers.FindByID(ctx, req.TargetUserID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.ReasonNoSuchUser, "no such user")
			}
			return pkgerrors.Wrap(pkgerrors.ReasonInternal, err, "lookup target user")
		}

		if !eligibility.IsEligible(target, state.BorrowedItem) {
			missing := eligibility.MissingFor(state.BorrowedItem, users.QualificationIDSet(target))
			return pkgerrors.New(pkgerrors.ReasonMissingQualifications, "target user lacks required qualifications").
				WithDetail("missing", missing)
		}

		record := &models.TransferRequest{
			IssuingUserID: ac.UserID,
			TargetUserID:  target.ID,
			BorrowStateID: state.ID,
		}
		if err := txRequests.Create(ctx, record); err != nil {
			return pkgerrors.Wrap(pkgerrors.ReasonInternal, err, "create transfer request")
		}
		return nil
	})
}

// Respond accepts or declines a pending request. A request whose underlying
// loan changed hands or closed since it was issued is deleted and rejected.
// An accept that fails the eligibility re-check leaves the request pending.
func (s *service) Respond(ctx context.Context, ac *authctx.Context, requestID uint, req RespondRequest) error {
	if ac == nil {
		return pkgerrors.New(pkgerrors.ReasonAuthenticationRequired, "authentication required")
	}

	// The stale-request path must both delete the request and fail the call,
	// so its error is carried past the commit instead of aborting it.
	var staleErr error

	err := s.client.WithTx(ctx, func(tx *gorm.DB) error {
		txRequests := s.requests.WithTx(tx)
		txStates := s.states.WithTx(tx)
		txAudit := s.audit.WithTx(tx)

		record, err := txRequests.FindByID(ctx, requestID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.ReasonUnknownTransferRequest, "unknown transfer request")
			}
			return pkgerrors.Wrap(pkgerrors.ReasonInternal, err, "lookup transfer request")
		}
		if record.TargetUserID != ac.UserID {
			return pkgerrors.New(pkgerrors.ReasonInsufficientPermissions, "request is not addressed to you")
		}

		state := record.BorrowState
		if state == nil || state.ReturnedAt != nil || state.BorrowingUserID != record.IssuingUserID {
			// the loan moved on since the request was issued
			if err := txRequests.Delete(ctx, record); err != nil {
				return pkgerrors.Wrap(pkgerrors.ReasonInternal, err, "delete stale transfer request")
			}
			staleErr = pkgerrors.New(pkgerrors.ReasonInsufficientPermissions, "transfer request is no longer valid")
			return nil
		}

		// the action value is only inspected once the request itself checks
		// out: a bad action on a missing or stale request never masks the
		// not-found or permission error
		if req.Action != ActionAccept && req.Action != ActionDecline {
			return pkgerrors.New(pkgerrors.ReasonUnknownTransferAction, "unknown transfer request action")
		}

		if req.Action == ActionDecline {
			if err := txRequests.Delete(ctx, record); err != nil {
				return pkgerrors.Wrap(pkgerrors.ReasonInternal, err, "delete transfer request")
			}
			return nil
		}

		target := record.TargetUser
		if !eligibility.IsEligible(target, state.BorrowedItem) {
			missing := eligibility.MissingFor(state.BorrowedItem, users.QualificationIDSet(target))
			return pkgerrors.New(pkgerrors.ReasonMissingQualifications, "you lack the required qualifications").
				WithDetail("missing", missing)
		}

		entry := auditlog.NewEntry(
			enums.LogActionTransfer,
			record.IssuingUserID,
			&record.TargetUserID,
			[]models.BorrowableItem{*state.BorrowedItem},
			s.now(),
		)
		if err := txAudit.Append(ctx, entry); err != nil {
			return pkgerrors.Wrap(pkgerrors.ReasonInternal, err, "append log entry")
		}

		state.BorrowingUserID = record.TargetUserID
		state.BorrowingUser = nil
		state.BorrowedItem = nil
		if err := txStates.Update(ctx, state); err != nil {
			return pkgerrors.Wrap(pkgerrors.ReasonInternal, err, "reassign loan")
		}

		if err := txRequests.Delete(ctx, record); err != nil {
			return pkgerrors.Wrap(pkgerrors.ReasonInternal, err, "delete transfer request")
		}
		return nil
	})
	if err != nil {
		return err
	}
	return staleErr
}

func (s *service) ListForUser(ctx context.Context, userID uint) ([]RequestDTO, error) {
	rows, err := s.requests.ListByTarget(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.ReasonInternal, err, "list transfer requests")
	}
	out := make([]RequestDTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, RequestDTO{
			ID:            row.ID,
			IssuingUserID: row.IssuingUserID,
			TargetUserID:  row.TargetUserID,
			BorrowStateID: row.BorrowStateID,
		})
	}
	return out, nil
}
