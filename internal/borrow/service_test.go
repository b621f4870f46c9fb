package borrow

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/CruzR/inventorymgr/internal/auditlog"
	"github.com/CruzR/inventorymgr/internal/items"
	"github.com/CruzR/inventorymgr/internal/users"
	"github.com/CruzR/inventorymgr/pkg/db"
	"github.com/CruzR/inventorymgr/pkg/db/models"
	"github.com/CruzR/inventorymgr/pkg/enums"
	pkgerrors "github.com/CruzR/inventorymgr/pkg/errors"
)

func setupBorrowTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, conn.AutoMigrate(
		&models.User{},
		&models.Qualification{},
		&models.BorrowableItem{},
		&models.BorrowState{},
		&models.LogEntry{},
		&models.TransferRequest{},
	))
	return conn
}

func newBorrowService(t *testing.T, conn *gorm.DB, now time.Time) Service {
	t.Helper()

	svc, err := NewService(ServiceParams{
		Client:    db.FromGorm(conn),
		StateRepo: NewRepository(conn),
		UserRepo:  users.NewRepository(conn),
		ItemRepo:  items.NewRepository(conn),
		AuditRepo: auditlog.NewRepository(conn),
		Now:       func() time.Time { return now },
	})
	require.NoError(t, err)
	return svc
}

func seedUser(t *testing.T, conn *gorm.DB, username string, quals ...models.Qualification) *models.User {
	t.Helper()

	user := &models.User{
		Username:       username,
		PasswordHash:   "x",
		Qualifications: quals,
	}
	require.NoError(t, conn.Create(user).Error)
	return user
}

func seedItem(t *testing.T, conn *gorm.DB, name string, stock int, required ...models.Qualification) *models.BorrowableItem {
	t.Helper()

	item := &models.BorrowableItem{
		Name:                   name,
		QuantityTotal:          stock,
		QuantityInStock:        stock,
		RequiredQualifications: required,
	}
	require.NoError(t, conn.Create(item).Error)
	return item
}

func itemByID(t *testing.T, conn *gorm.DB, id uint) *models.BorrowableItem {
	t.Helper()

	var item models.BorrowableItem
	require.NoError(t, conn.First(&item, id).Error)
	return &item
}

func TestCheckoutCreatesLoanAndDecrementsStock(t *testing.T) {
	conn := setupBorrowTestDB(t)
	now := time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)
	svc := newBorrowService(t, conn, now)

	user := seedUser(t, conn, "alice")
	item := seedItem(t, conn, "drill", 5)

	states, err := svc.Checkout(context.Background(), CheckoutRequest{
		BorrowingUserID: user.ID,
		BorrowedItemIDs: []ItemCount{{ID: item.ID, Count: 2}},
	})
	require.NoError(t, err)
	require.Len(t, states, 1)
	assert.Equal(t, user.ID, states[0].BorrowingUser.ID)
	assert.Equal(t, "alice", states[0].BorrowingUser.Username)
	assert.Equal(t, item.ID, states[0].BorrowedItem.ID)
	assert.Equal(t, "drill", states[0].BorrowedItem.Name)
	assert.Equal(t, models.BarcodeFor(item.ID), states[0].BorrowedItem.Barcode)
	assert.Equal(t, 2, states[0].Quantity)
	assert.True(t, states[0].ReceivedAt.Equal(now))
	assert.Nil(t, states[0].ReturnedAt)

	assert.Equal(t, 3, itemByID(t, conn, item.ID).QuantityInStock)

	var entries []models.LogEntry
	require.NoError(t, conn.Find(&entries).Error)
	require.Len(t, entries, 1)
	assert.Equal(t, enums.LogActionCheckout, entries[0].Action)
	assert.Equal(t, user.ID, entries[0].SubjectID)
}

func TestCheckoutUnknownUser(t *testing.T) {
	conn := setupBorrowTestDB(t)
	svc := newBorrowService(t, conn, time.Now().UTC())
	item := seedItem(t, conn, "drill", 1)

	_, err := svc.Checkout(context.Background(), CheckoutRequest{
		BorrowingUserID: 999,
		BorrowedItemIDs: []ItemCount{{ID: item.ID, Count: 1}},
	})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.ReasonNoSuchUser, pkgerrors.As(err).Reason())
}

func TestCheckoutUnknownItem(t *testing.T) {
	conn := setupBorrowTestDB(t)
	svc := newBorrowService(t, conn, time.Now().UTC())
	user := seedUser(t, conn, "alice")

	_, err := svc.Checkout(context.Background(), CheckoutRequest{
		BorrowingUserID: user.ID,
		BorrowedItemIDs: []ItemCount{{ID: 42, Count: 1}},
	})
	require.Error(t, err)
	typed := pkgerrors.As(err)
	assert.Equal(t, pkgerrors.ReasonNonexistentItem, typed.Reason())
	assert.Equal(t, uint(42), typed.Details()["item_id"])
}

func TestCheckoutMissingQualification(t *testing.T) {
	conn := setupBorrowTestDB(t)
	svc := newBorrowService(t, conn, time.Now().UTC())

	forklift := models.Qualification{Name: "forklift"}
	require.NoError(t, conn.Create(&forklift).Error)

	user := seedUser(t, conn, "alice")
	item := seedItem(t, conn, "forklift-key", 1, forklift)

	_, err := svc.Checkout(context.Background(), CheckoutRequest{
		BorrowingUserID: user.ID,
		BorrowedItemIDs: []ItemCount{{ID: item.ID, Count: 1}},
	})
	require.Error(t, err)
	typed := pkgerrors.As(err)
	assert.Equal(t, pkgerrors.ReasonMissingQualifications, typed.Reason())
	assert.Equal(t, []string{"forklift"}, typed.Details()["missing"])

	// nothing was written
	assert.Equal(t, 1, itemByID(t, conn, item.ID).QuantityInStock)
	var count int64
	require.NoError(t, conn.Model(&models.BorrowState{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestCheckoutQualifiedUserSucceeds(t *testing.T) {
	conn := setupBorrowTestDB(t)
	svc := newBorrowService(t, conn, time.Now().UTC())

	forklift := models.Qualification{Name: "forklift"}
	require.NoError(t, conn.Create(&forklift).Error)

	user := seedUser(t, conn, "alice", forklift)
	item := seedItem(t, conn, "forklift-key", 1, forklift)

	states, err := svc.Checkout(context.Background(), CheckoutRequest{
		BorrowingUserID: user.ID,
		BorrowedItemIDs: []ItemCount{{ID: item.ID, Count: 1}},
	})
	require.NoError(t, err)
	assert.Len(t, states, 1)
}

func TestCheckoutInsufficientStockAbortsWholeRequest(t *testing.T) {
	conn := setupBorrowTestDB(t)
	svc := newBorrowService(t, conn, time.Now().UTC())

	user := seedUser(t, conn, "alice")
	plenty := seedItem(t, conn, "hammer", 10)
	scarce := seedItem(t, conn, "laser-level", 1)

	_, err := svc.Checkout(context.Background(), CheckoutRequest{
		BorrowingUserID: user.ID,
		BorrowedItemIDs: []ItemCount{
			{ID: plenty.ID, Count: 3},
			{ID: scarce.ID, Count: 2},
		},
	})
	require.Error(t, err)
	typed := pkgerrors.As(err)
	assert.Equal(t, pkgerrors.ReasonAlreadyBorrowed, typed.Reason())
	shorts, ok := typed.Details()["items"].([]map[string]any)
	require.True(t, ok)
	require.Len(t, shorts, 1)
	assert.Equal(t, scarce.ID, shorts[0]["id"])
	assert.Equal(t, 1, shorts[0]["count"])

	// all-or-nothing: the in-stock item was not touched either
	assert.Equal(t, 10, itemByID(t, conn, plenty.ID).QuantityInStock)
	var count int64
	require.NoError(t, conn.Model(&models.BorrowState{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestCheckinClosesFullReturn(t *testing.T) {
	conn := setupBorrowTestDB(t)
	now := time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)
	svc := newBorrowService(t, conn, now)

	user := seedUser(t, conn, "alice")
	item := seedItem(t, conn, "drill", 5)

	_, err := svc.Checkout(context.Background(), CheckoutRequest{
		BorrowingUserID: user.ID,
		BorrowedItemIDs: []ItemCount{{ID: item.ID, Count: 2}},
	})
	require.NoError(t, err)

	closed, err := svc.Checkin(context.Background(), CheckinRequest{
		UserID:  user.ID,
		ItemIDs: []ItemCount{{ID: item.ID, Count: 2}},
	})
	require.NoError(t, err)
	require.Len(t, closed, 1)
	require.NotNil(t, closed[0].ReturnedAt)

	after := itemByID(t, conn, item.ID)
	assert.Equal(t, 5, after.QuantityInStock)
	assert.Zero(t, after.UnmatchedReturns)

	var entries []models.LogEntry
	require.NoError(t, conn.Order("id asc").Find(&entries).Error)
	require.Len(t, entries, 2)
	assert.Equal(t, enums.LogActionCheckin, entries[1].Action)
}

func TestCheckinPartialReturnReducesLoan(t *testing.T) {
	conn := setupBorrowTestDB(t)
	svc := newBorrowService(t, conn, time.Now().UTC())

	user := seedUser(t, conn, "alice")
	item := seedItem(t, conn, "drill", 5)

	_, err := svc.Checkout(context.Background(), CheckoutRequest{
		BorrowingUserID: user.ID,
		BorrowedItemIDs: []ItemCount{{ID: item.ID, Count: 3}},
	})
	require.NoError(t, err)

	closed, err := svc.Checkin(context.Background(), CheckinRequest{
		UserID:  user.ID,
		ItemIDs: []ItemCount{{ID: item.ID, Count: 1}},
	})
	require.NoError(t, err)
	assert.Empty(t, closed)

	var open models.BorrowState
	require.NoError(t, conn.Where("returned_at IS NULL").First(&open).Error)
	assert.Equal(t, 2, open.Quantity)
	assert.Equal(t, 3, itemByID(t, conn, item.ID).QuantityInStock)
}

func TestCheckinWithoutOpenLoanRecordsUnmatchedReturn(t *testing.T) {
	conn := setupBorrowTestDB(t)
	svc := newBorrowService(t, conn, time.Now().UTC())

	user := seedUser(t, conn, "alice")
	item := seedItem(t, conn, "drill", 5)

	closed, err := svc.Checkin(context.Background(), CheckinRequest{
		UserID:  user.ID,
		ItemIDs: []ItemCount{{ID: item.ID, Count: 2}},
	})
	require.NoError(t, err)
	assert.Empty(t, closed)

	after := itemByID(t, conn, item.ID)
	assert.Equal(t, 7, after.QuantityInStock)
	assert.Equal(t, 2, after.UnmatchedReturns)
}

func TestCheckinExactTotalClosesOtherBorrowersLoans(t *testing.T) {
	conn := setupBorrowTestDB(t)
	svc := newBorrowService(t, conn, time.Now().UTC())

	alice := seedUser(t, conn, "alice")
	bob := seedUser(t, conn, "bob")
	item := seedItem(t, conn, "drill", 5)

	_, err := svc.Checkout(context.Background(), CheckoutRequest{
		BorrowingUserID: alice.ID,
		BorrowedItemIDs: []ItemCount{{ID: item.ID, Count: 2}},
	})
	require.NoError(t, err)
	_, err = svc.Checkout(context.Background(), CheckoutRequest{
		BorrowingUserID: bob.ID,
		BorrowedItemIDs: []ItemCount{{ID: item.ID, Count: 1}},
	})
	require.NoError(t, err)

	// alice hands back everything that is out, her loan and bob's both close
	closed, err := svc.Checkin(context.Background(), CheckinRequest{
		UserID:  alice.ID,
		ItemIDs: []ItemCount{{ID: item.ID, Count: 3}},
	})
	require.NoError(t, err)
	assert.Len(t, closed, 2)

	var openCount int64
	require.NoError(t, conn.Model(&models.BorrowState{}).Where("returned_at IS NULL").Count(&openCount).Error)
	assert.Zero(t, openCount)
	assert.Equal(t, 5, itemByID(t, conn, item.ID).QuantityInStock)
}

func TestCheckinAmbiguousReturnOnlyCreditsOwnLoans(t *testing.T) {
	conn := setupBorrowTestDB(t)
	svc := newBorrowService(t, conn, time.Now().UTC())

	alice := seedUser(t, conn, "alice")
	bob := seedUser(t, conn, "bob")
	item := seedItem(t, conn, "drill", 10)

	_, err := svc.Checkout(context.Background(), CheckoutRequest{
		BorrowingUserID: alice.ID,
		BorrowedItemIDs: []ItemCount{{ID: item.ID, Count: 2}},
	})
	require.NoError(t, err)
	_, err = svc.Checkout(context.Background(), CheckoutRequest{
		BorrowingUserID: bob.ID,
		BorrowedItemIDs: []ItemCount{{ID: item.ID, Count: 4}},
	})
	require.NoError(t, err)

	// two units cannot be matched to either total, so only alice's loan closes
	closed, err := svc.Checkin(context.Background(), CheckinRequest{
		UserID:  alice.ID,
		ItemIDs: []ItemCount{{ID: item.ID, Count: 2}},
	})
	require.NoError(t, err)
	require.Len(t, closed, 1)
	assert.Equal(t, alice.ID, closed[0].BorrowingUser.ID)

	var open models.BorrowState
	require.NoError(t, conn.Where("returned_at IS NULL").First(&open).Error)
	assert.Equal(t, bob.ID, open.BorrowingUserID)
	assert.Equal(t, 4, open.Quantity)
}

func TestCheckinConsumesOldestLoanFirst(t *testing.T) {
	conn := setupBorrowTestDB(t)
	early := time.Date(2026, 1, 1, 8, 0, 0, 0, time.UTC)
	late := time.Date(2026, 1, 2, 8, 0, 0, 0, time.UTC)

	user := seedUser(t, conn, "alice")
	item := seedItem(t, conn, "drill", 10)

	svcEarly := newBorrowService(t, conn, early)
	_, err := svcEarly.Checkout(context.Background(), CheckoutRequest{
		BorrowingUserID: user.ID,
		BorrowedItemIDs: []ItemCount{{ID: item.ID, Count: 2}},
	})
	require.NoError(t, err)

	svcLate := newBorrowService(t, conn, late)
	_, err = svcLate.Checkout(context.Background(), CheckoutRequest{
		BorrowingUserID: user.ID,
		BorrowedItemIDs: []ItemCount{{ID: item.ID, Count: 3}},
	})
	require.NoError(t, err)

	closed, err := svcLate.Checkin(context.Background(), CheckinRequest{
		UserID:  user.ID,
		ItemIDs: []ItemCount{{ID: item.ID, Count: 2}},
	})
	require.NoError(t, err)
	require.Len(t, closed, 1)
	assert.True(t, closed[0].ReceivedAt.Equal(early))

	var open models.BorrowState
	require.NoError(t, conn.Where("returned_at IS NULL").First(&open).Error)
	assert.Equal(t, 3, open.Quantity)
}

func TestCheckinDeletesTransferRequestsOfClosedLoans(t *testing.T) {
	conn := setupBorrowTestDB(t)
	svc := newBorrowService(t, conn, time.Now().UTC())

	alice := seedUser(t, conn, "alice")
	bob := seedUser(t, conn, "bob")
	item := seedItem(t, conn, "drill", 5)

	states, err := svc.Checkout(context.Background(), CheckoutRequest{
		BorrowingUserID: alice.ID,
		BorrowedItemIDs: []ItemCount{{ID: item.ID, Count: 2}},
	})
	require.NoError(t, err)

	request := models.TransferRequest{
		IssuingUserID: alice.ID,
		TargetUserID:  bob.ID,
		BorrowStateID: states[0].ID,
	}
	require.NoError(t, conn.Create(&request).Error)

	_, err = svc.Checkin(context.Background(), CheckinRequest{
		UserID:  alice.ID,
		ItemIDs: []ItemCount{{ID: item.ID, Count: 2}},
	})
	require.NoError(t, err)

	var count int64
	require.NoError(t, conn.Model(&models.TransferRequest{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestIdentifyCandidates(t *testing.T) {
	open := []models.BorrowState{
		{ID: 1, BorrowingUserID: 1, Quantity: 2},
		{ID: 2, BorrowingUserID: 2, Quantity: 3},
	}

	t.Run("exact total matches all", func(t *testing.T) {
		got := identifyCandidates(open, 1, 5)
		assert.Len(t, got, 2)
	})

	t.Run("single borrower matches all", func(t *testing.T) {
		single := []models.BorrowState{
			{ID: 1, BorrowingUserID: 1, Quantity: 2},
			{ID: 2, BorrowingUserID: 1, Quantity: 3},
		}
		got := identifyCandidates(single, 2, 1)
		assert.Len(t, got, 2)
	})

	t.Run("ambiguous keeps own loans only", func(t *testing.T) {
		got := identifyCandidates(open, 1, 1)
		require.Len(t, got, 1)
		assert.Equal(t, uint(1), got[0].ID)
	})

	t.Run("ambiguous with no own loans matches nothing", func(t *testing.T) {
		got := identifyCandidates(open, 3, 1)
		assert.Empty(t, got)
	})
}
