package borrow

import (
	"context"
	"fmt"
	"time"

	"github.com/CruzR/inventorymgr/internal/auditlog"
	"github.com/CruzR/inventorymgr/internal/eligibility"
	"github.com/CruzR/inventorymgr/internal/items"
	"github.com/CruzR/inventorymgr/internal/users"
	"github.com/CruzR/inventorymgr/pkg/db"
	"github.com/CruzR/inventorymgr/pkg/db/models"
	"github.com/CruzR/inventorymgr/pkg/enums"
	pkgerrors "github.com/CruzR/inventorymgr/pkg/errors"
	"gorm.io/gorm"
)

// Service is the borrowing ledger: checkout allocates stock into loans,
// checkin matches returned quantities back against open loans.
type Service interface {
	Checkout(ctx context.Context, req CheckoutRequest) ([]BorrowStateDTO, error)
	Checkin(ctx context.Context, req CheckinRequest) ([]BorrowStateDTO, error)
	List(ctx context.Context) ([]BorrowStateDTO, error)
	ListByUser(ctx context.Context, userID uint) ([]BorrowStateDTO, error)
}

type service struct {
	client *db.Client
	states Repository
	users  users.Repository
	items  items.Repository
	audit  auditlog.Repository
	now    func() time.Time
}

// ServiceParams bundles the dependencies required to build a borrow service.
type ServiceParams struct {
	Client    *db.Client
	StateRepo Repository
	UserRepo  users.Repository
	ItemRepo  items.Repository
	AuditRepo auditlog.Repository

	// Now overrides the clock, mainly for tests.
	Now func() time.Time
}

// NewService constructs the borrowing ledger service.
func NewService(params ServiceParams) (Service, error) {
	if params.Client == nil {
		return nil, fmt.Errorf("db client is required")
	}
	if params.StateRepo == nil {
		return nil, fmt.Errorf("borrow state repository is required")
	}
	if params.UserRepo == nil {
		return nil, fmt.Errorf("user repository is required")
	}
	if params.ItemRepo == nil {
		return nil, fmt.Errorf("item repository is required")
	}
	if params.AuditRepo == nil {
		return nil, fmt.Errorf("audit log repository is required")
	}
	now := params.Now
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &service{
		client: params.Client,
		states: params.StateRepo,
		users:  params.UserRepo,
		items:  params.ItemRepo,
		audit:  params.AuditRepo,
		now:    now,
	}, nil
}

// Checkout validates the whole request before touching any row: unknown user,
// unknown item, missing qualification, or insufficient stock each abort with
// nothing written.
func (s *service) Checkout(ctx context.Context, req CheckoutRequest) ([]BorrowStateDTO, error) {
	var created []models.BorrowState

	err := s.client.WithTx(ctx, func(tx *gorm.DB) error {
		txStates := s.states.WithTx(tx)
		txUsers := s.users.WithTx(tx)
		txItems := s.items.WithTx(tx)
		txAudit := s.audit.WithTx(tx)

		user, err := findUser(ctx, txUsers, req.BorrowingUserID)
		if err != nil {
			return err
		}

		loaded, err := loadItems(ctx, txItems, itemIDs(req.BorrowedItemIDs))
		if err != nil {
			return err
		}

		qualIDs := users.QualificationIDSet(user)
		var missing []string
		for _, item := range loaded {
			missing = append(missing, eligibility.MissingFor(item, qualIDs)...)
		}
		if len(missing) > 0 {
			return pkgerrors.New(pkgerrors.ReasonMissingQualifications, "user lacks required qualifications").
				WithDetail("missing", missing)
		}

		var short []map[string]any
		for _, pair := range req.BorrowedItemIDs {
			if item := loaded[pair.ID]; item.QuantityInStock < pair.Count {
				short = append(short, map[string]any{"id": item.ID, "count": item.QuantityInStock})
			}
		}
		if len(short) > 0 {
			return pkgerrors.New(pkgerrors.ReasonAlreadyBorrowed, "insufficient stock").
				WithDetail("items", short)
		}

		now := s.now()
		for _, pair := range req.BorrowedItemIDs {
			ok, err := txItems.DecrementStock(ctx, pair.ID, pair.Count)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.ReasonInternal, err, "decrement stock")
			}
			if !ok {
				// lost a race since the pre-check; report what is left now
				current, err := txItems.FindByID(ctx, pair.ID)
				if err != nil {
					return pkgerrors.Wrap(pkgerrors.ReasonInternal, err, "reread stock")
				}
				return pkgerrors.New(pkgerrors.ReasonAlreadyBorrowed, "insufficient stock").
					WithDetail("items", []map[string]any{{"id": current.ID, "count": current.QuantityInStock}})
			}

			state := models.BorrowState{
				BorrowingUserID: user.ID,
				BorrowedItemID:  pair.ID,
				Quantity:        pair.Count,
				ReceivedAt:      now,
			}
			if err := txStates.Create(ctx, &state); err != nil {
				return pkgerrors.Wrap(pkgerrors.ReasonInternal, err, "create borrow state")
			}
			state.BorrowingUser = user
			state.BorrowedItem = loaded[pair.ID]
			created = append(created, state)
		}

		entry := auditlog.NewEntry(enums.LogActionCheckout, user.ID, nil, itemValues(loaded, req.BorrowedItemIDs), now)
		if err := txAudit.Append(ctx, entry); err != nil {
			return pkgerrors.Wrap(pkgerrors.ReasonInternal, err, "append log entry")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return fromModels(created), nil
}

// Checkin matches each returned quantity against open loans for the item and
// returns the loans that were fully closed. Stock is restocked by the full
// returned amount whether or not a match was found.
func (s *service) Checkin(ctx context.Context, req CheckinRequest) ([]BorrowStateDTO, error) {
	var closed []models.BorrowState

	err := s.client.WithTx(ctx, func(tx *gorm.DB) error {
		txStates := s.states.WithTx(tx)
		txUsers := s.users.WithTx(tx)
		txItems := s.items.WithTx(tx)
		txAudit := s.audit.WithTx(tx)

		user, err := findUser(ctx, txUsers, req.UserID)
		if err != nil {
			return err
		}

		loaded, err := loadItems(ctx, txItems, itemIDs(req.ItemIDs))
		if err != nil {
			return err
		}

		now := s.now()
		var closedIDs []uint

		for _, pair := range req.ItemIDs {
			item := loaded[pair.ID]

			candidates, err := txStates.ListOpenByItem(ctx, item.ID)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.ReasonInternal, err, "list open loans")
			}
			candidates = identifyCandidates(candidates, user.ID, pair.Count)

			if len(candidates) == 0 {
				if err := txItems.AddUnmatchedReturns(ctx, item.ID, pair.Count); err != nil {
					return pkgerrors.Wrap(pkgerrors.ReasonInternal, err, "record unmatched return")
				}
			}

			qty := pair.Count
			for i := range candidates {
				if qty == 0 {
					break
				}
				candidate := &candidates[i]
				if qty >= candidate.Quantity {
					qty -= candidate.Quantity
					returnedAt := now
					candidate.ReturnedAt = &returnedAt
					closed = append(closed, *candidate)
					closedIDs = append(closedIDs, candidate.ID)
				} else {
					candidate.Quantity -= qty
					qty = 0
				}
				if err := txStates.Update(ctx, candidate); err != nil {
					return pkgerrors.Wrap(pkgerrors.ReasonInternal, err, "update borrow state")
				}
			}

			if err := txItems.Restock(ctx, item.ID, pair.Count); err != nil {
				return pkgerrors.Wrap(pkgerrors.ReasonInternal, err, "restock item")
			}
		}

		entry := auditlog.NewEntry(enums.LogActionCheckin, user.ID, nil, itemValues(loaded, req.ItemIDs), now)
		if err := txAudit.Append(ctx, entry); err != nil {
			return pkgerrors.Wrap(pkgerrors.ReasonInternal, err, "append log entry")
		}

		if err := txStates.DeleteTransferRequestsByBorrowStateIDs(ctx, closedIDs); err != nil {
			return pkgerrors.Wrap(pkgerrors.ReasonInternal, err, "drop stale transfer requests")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return fromModels(closed), nil
}

func (s *service) List(ctx context.Context) ([]BorrowStateDTO, error) {
	rows, err := s.states.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.ReasonInternal, err, "list borrow states")
	}
	return fromModels(rows), nil
}

func (s *service) ListByUser(ctx context.Context, userID uint) ([]BorrowStateDTO, error) {
	rows, err := s.states.ListByUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.ReasonInternal, err, "list borrow states")
	}
	return fromModels(rows), nil
}

// identifyCandidates picks which open loans a return may close. When the
// returned quantity exhausts every open loan, or only one user holds open
// loans, the return is unambiguous and all open loans are candidates. In the
// ambiguous case only the returning user's own loans are credited.
func identifyCandidates(open []models.BorrowState, returningUserID uint, returnedCount int) []models.BorrowState {
	openTotal := 0
	borrowers := map[uint]bool{}
	for _, state := range open {
		openTotal += state.Quantity
		borrowers[state.BorrowingUserID] = true
	}

	if openTotal == returnedCount || len(borrowers) == 1 {
		return open
	}

	own := open[:0:0]
	for _, state := range open {
		if state.BorrowingUserID == returningUserID {
			own = append(own, state)
		}
	}
	return own
}

func findUser(ctx context.Context, repo users.Repository, id uint) (*models.User, error) {
	user, err := repo.FindByID(ctx, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.ReasonNoSuchUser, "no such user")
		}
		return nil, pkgerrors.Wrap(pkgerrors.ReasonInternal, err, "lookup user")
	}
	return user, nil
}

func loadItems(ctx context.Context, repo items.Repository, ids []uint) (map[uint]*models.BorrowableItem, error) {
	rows, err := repo.FindByIDs(ctx, ids)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.ReasonInternal, err, "lookup items")
	}
	loaded := make(map[uint]*models.BorrowableItem, len(rows))
	for i := range rows {
		loaded[rows[i].ID] = &rows[i]
	}
	for _, id := range ids {
		if loaded[id] == nil {
			return nil, pkgerrors.New(pkgerrors.ReasonNonexistentItem, "item does not exist").
				WithDetail("item_id", id)
		}
	}
	return loaded, nil
}

func itemIDs(pairs []ItemCount) []uint {
	seen := make(map[uint]bool, len(pairs))
	ids := make([]uint, 0, len(pairs))
	for _, pair := range pairs {
		if !seen[pair.ID] {
			seen[pair.ID] = true
			ids = append(ids, pair.ID)
		}
	}
	return ids
}

func itemValues(loaded map[uint]*models.BorrowableItem, pairs []ItemCount) []models.BorrowableItem {
	out := make([]models.BorrowableItem, 0, len(pairs))
	seen := make(map[uint]bool, len(pairs))
	for _, pair := range pairs {
		if seen[pair.ID] {
			continue
		}
		seen[pair.ID] = true
		if item := loaded[pair.ID]; item != nil {
			out = append(out, *item)
		}
	}
	return out
}
