package models

import "fmt"

// BarcodeFor renders the canonical 13 digit barcode derived from a row id.
// Printed labels and membership cards use this value unless an explicit
// barcode was assigned.
func BarcodeFor(id uint) string {
	return fmt.Sprintf("%013d", id)
}

// BarcodeValue returns the stored barcode, or the derived default when none
// was assigned.
func (i *BorrowableItem) BarcodeValue() string {
	if i.Barcode != nil && *i.Barcode != "" {
		return *i.Barcode
	}
	return BarcodeFor(i.ID)
}

// BarcodeValue returns the barcode identifying the user at the checkout desk.
func (u *User) BarcodeValue() string {
	return BarcodeFor(u.ID)
}
