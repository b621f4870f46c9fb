package borrow

import (
	"time"

	"github.com/CruzR/inventorymgr/pkg/db/models"
)

// ItemCount pairs an item id with a unit count on the wire.
type ItemCount struct {
	ID    uint `json:"id" validate:"required"`
	Count int  `json:"count" validate:"required,gte=1"`
}

// CheckoutRequest lends items to a user.
type CheckoutRequest struct {
	BorrowingUserID uint        `json:"borrowing_user_id" validate:"required"`
	BorrowedItemIDs []ItemCount `json:"borrowed_item_ids" validate:"required,min=1,dive"`
}

// CheckinRequest hands borrowed items back.
type CheckinRequest struct {
	UserID  uint        `json:"user_id" validate:"required"`
	ItemIDs []ItemCount `json:"item_ids" validate:"required,min=1,dive"`
}

// UserInfo is the borrower summary embedded in a loan record.
type UserInfo struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
	Barcode  string `json:"barcode"`
}

// ItemInfo is the item summary embedded in a loan record.
type ItemInfo struct {
	ID      uint   `json:"id"`
	Name    string `json:"name"`
	Barcode string `json:"barcode"`
}

// BorrowStateDTO is the transport shape of a loan record. ReturnedAt is null
// while the loan is open.
type BorrowStateDTO struct {
	ID            uint       `json:"id"`
	BorrowingUser UserInfo   `json:"borrowing_user"`
	BorrowedItem  ItemInfo   `json:"borrowed_item"`
	Quantity      int        `json:"quantity"`
	ReceivedAt    time.Time  `json:"received_at"`
	ReturnedAt    *time.Time `json:"returned_at"`
}

// FromModel converts a stored loan into its transport shape. The borrower and
// item summaries come from the preloaded associations; barcodes fall back to
// the id-derived form when no association is present.
func FromModel(state *models.BorrowState) *BorrowStateDTO {
	if state == nil {
		return nil
	}
	dto := &BorrowStateDTO{
		ID: state.ID,
		BorrowingUser: UserInfo{
			ID:      state.BorrowingUserID,
			Barcode: models.BarcodeFor(state.BorrowingUserID),
		},
		BorrowedItem: ItemInfo{
			ID:      state.BorrowedItemID,
			Barcode: models.BarcodeFor(state.BorrowedItemID),
		},
		Quantity:   state.Quantity,
		ReceivedAt: state.ReceivedAt,
		ReturnedAt: state.ReturnedAt,
	}
	if state.BorrowingUser != nil {
		dto.BorrowingUser.Username = state.BorrowingUser.Username
		dto.BorrowingUser.Barcode = state.BorrowingUser.BarcodeValue()
	}
	if state.BorrowedItem != nil {
		dto.BorrowedItem.Name = state.BorrowedItem.Name
		dto.BorrowedItem.Barcode = state.BorrowedItem.BarcodeValue()
	}
	return dto
}

func fromModels(states []models.BorrowState) []BorrowStateDTO {
	out := make([]BorrowStateDTO, 0, len(states))
	for i := range states {
		out = append(out, *FromModel(&states[i]))
	}
	return out
}
