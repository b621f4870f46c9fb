package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CruzR/inventorymgr/internal/authctx"
	"github.com/CruzR/inventorymgr/internal/borrow"
	"github.com/CruzR/inventorymgr/internal/transfers"
	"github.com/CruzR/inventorymgr/internal/users"
	pkgerrors "github.com/CruzR/inventorymgr/pkg/errors"
)

type stubBorrowService struct {
	checkoutReq *borrow.CheckoutRequest
	checkinReq  *borrow.CheckinRequest
	states      []borrow.BorrowStateDTO
	err         error
}

func (s *stubBorrowService) Checkout(_ context.Context, req borrow.CheckoutRequest) ([]borrow.BorrowStateDTO, error) {
	s.checkoutReq = &req
	return s.states, s.err
}

func (s *stubBorrowService) Checkin(_ context.Context, req borrow.CheckinRequest) ([]borrow.BorrowStateDTO, error) {
	s.checkinReq = &req
	return s.states, s.err
}

func (s *stubBorrowService) List(context.Context) ([]borrow.BorrowStateDTO, error) {
	return s.states, s.err
}

func (s *stubBorrowService) ListByUser(context.Context, uint) ([]borrow.BorrowStateDTO, error) {
	return s.states, s.err
}

type stubTransferService struct {
	respondID     uint
	respondAction string
	listed        []transfers.RequestDTO
	err           error
}

func (s *stubTransferService) Create(context.Context, *authctx.Context, transfers.CreateRequest) error {
	return s.err
}

func (s *stubTransferService) Respond(_ context.Context, _ *authctx.Context, requestID uint, req transfers.RespondRequest) error {
	s.respondID = requestID
	s.respondAction = req.Action
	return s.err
}

func (s *stubTransferService) ListForUser(context.Context, uint) ([]transfers.RequestDTO, error) {
	return s.listed, s.err
}

type stubUserService struct {
	users []*users.UserDTO
	err   error
}

func (s *stubUserService) List(context.Context) ([]*users.UserDTO, error) { return s.users, s.err }

func (s *stubUserService) Get(context.Context, uint) (*users.UserDTO, error) {
	if len(s.users) == 0 {
		return nil, s.err
	}
	return s.users[0], s.err
}

func (s *stubUserService) Create(context.Context, *authctx.Context, users.CreateUserRequest) (*users.UserDTO, error) {
	return nil, s.err
}

func (s *stubUserService) Update(context.Context, *authctx.Context, uint, users.UpdateUserRequest) (*users.UserDTO, error) {
	return nil, s.err
}

func (s *stubUserService) Delete(context.Context, uint) error { return s.err }

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func sampleLoan() borrow.BorrowStateDTO {
	return borrow.BorrowStateDTO{
		ID:            1,
		BorrowingUser: borrow.UserInfo{ID: 7, Username: "alice", Barcode: "0000000000007"},
		BorrowedItem:  borrow.ItemInfo{ID: 3, Name: "drill", Barcode: "0000000000003"},
		Quantity:      2,
		ReceivedAt:    time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
	}
}

func TestCheckoutKeysResponseByBorrowstates(t *testing.T) {
	svc := &stubBorrowService{states: []borrow.BorrowStateDTO{sampleLoan()}}
	handler := Checkout(svc, nil)

	payload := `{"borrowing_user_id": 7, "borrowed_item_ids": [{"id": 3, "count": 2}]}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/borrowstates/checkout", bytes.NewBufferString(payload))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, svc.checkoutReq)
	assert.Equal(t, uint(7), svc.checkoutReq.BorrowingUserID)
	require.Len(t, svc.checkoutReq.BorrowedItemIDs, 1)
	assert.Equal(t, 2, svc.checkoutReq.BorrowedItemIDs[0].Count)

	body := decodeBody(t, rec)
	states, ok := body["borrowstates"].([]any)
	require.True(t, ok)
	require.Len(t, states, 1)
	loan := states[0].(map[string]any)
	user := loan["borrowing_user"].(map[string]any)
	assert.Equal(t, "alice", user["username"])
	assert.Equal(t, "0000000000007", user["barcode"])
	item := loan["borrowed_item"].(map[string]any)
	assert.Equal(t, "drill", item["name"])
	assert.Nil(t, loan["returned_at"])
}

func TestCheckoutRejectsInvalidBody(t *testing.T) {
	svc := &stubBorrowService{}
	handler := Checkout(svc, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/borrowstates/checkout", bytes.NewBufferString(`{"borrowed_item_ids": []}`))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, string(pkgerrors.ReasonMissingFields), decodeBody(t, rec)["reason"])
	assert.Nil(t, svc.checkoutReq)
}

func TestCheckinSurfacesServiceError(t *testing.T) {
	svc := &stubBorrowService{err: pkgerrors.New(pkgerrors.ReasonNoSuchUser, "no such user")}
	handler := Checkin(svc, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/borrowstates/checkin", bytes.NewBufferString(`{"user_id": 9, "item_ids": [{"id": 1, "count": 1}]}`))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, string(pkgerrors.ReasonNoSuchUser), decodeBody(t, rec)["reason"])
}

func TestBorrowStateListKeysResponse(t *testing.T) {
	svc := &stubBorrowService{states: []borrow.BorrowStateDTO{sampleLoan()}}
	handler := BorrowStateList(svc, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/borrowstates", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	states, ok := decodeBody(t, rec)["borrowstates"].([]any)
	require.True(t, ok)
	assert.Len(t, states, 1)
}

func respondVia(t *testing.T, svc transfers.Service, target string, body string, ac *authctx.Context) *httptest.ResponseRecorder {
	t.Helper()
	router := chi.NewRouter()
	router.Delete("/transferrequests/{requestId}", TransferRequestRespond(svc, nil))

	req := httptest.NewRequest(http.MethodDelete, target, bytes.NewBufferString(body))
	if ac != nil {
		req = req.WithContext(authctx.Into(req.Context(), ac))
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestTransferRespondParsesPathAndAction(t *testing.T) {
	svc := &stubTransferService{}
	caller := &authctx.Context{UserID: 5, Username: "bob"}

	rec := respondVia(t, svc, "/transferrequests/12", `{"action": "accept"}`, caller)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, decodeBody(t, rec)["success"])
	assert.Equal(t, uint(12), svc.respondID)
	assert.Equal(t, transfers.ActionAccept, svc.respondAction)
}

func TestTransferRespondRejectsMalformedID(t *testing.T) {
	svc := &stubTransferService{}

	rec := respondVia(t, svc, "/transferrequests/abc", `{"action": "decline"}`, &authctx.Context{UserID: 5})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, string(pkgerrors.ReasonIncorrectID), body["reason"])
	assert.Equal(t, "requestId", body["param"])
	assert.Zero(t, svc.respondID)
}

func TestTransferListRequiresCaller(t *testing.T) {
	handler := TransferRequestList(&stubTransferService{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/transferrequests", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, string(pkgerrors.ReasonAuthenticationRequired), decodeBody(t, rec)["reason"])
}

func TestUserListKeysResponse(t *testing.T) {
	svc := &stubUserService{users: []*users.UserDTO{{ID: 1, Username: "alice", Barcode: "0000000000001"}}}
	handler := UserList(svc, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/users", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	list, ok := decodeBody(t, rec)["users"].([]any)
	require.True(t, ok)
	require.Len(t, list, 1)
	assert.Equal(t, "alice", list[0].(map[string]any)["username"])
}

func TestUserGetRejectsZeroID(t *testing.T) {
	router := chi.NewRouter()
	router.Get("/users/{userId}", UserGet(&stubUserService{}, nil))

	req := httptest.NewRequest(http.MethodGet, "/users/0", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, string(pkgerrors.ReasonIncorrectID), decodeBody(t, rec)["reason"])
}
