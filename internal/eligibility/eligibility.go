// Package eligibility decides whether a user may borrow an item. An item is
// borrowable by a user iff every qualification the item requires is held by
// the user. Qualifications compare by id, never by name.
package eligibility

import "github.com/CruzR/inventorymgr/pkg/db/models"

// IsEligible reports whether the user's qualification set covers every
// qualification required by the item.
func IsEligible(user *models.User, item *models.BorrowableItem) bool {
	if item == nil {
		return false
	}
	if len(item.RequiredQualifications) == 0 {
		return true
	}
	if user == nil {
		return false
	}
	held := make(map[uint]bool, len(user.Qualifications))
	for _, q := range user.Qualifications {
		held[q.ID] = true
	}
	return CoveredBy(item, held)
}

// CoveredBy reports whether the given qualification id set covers the item's
// requirements. Used when the caller already holds a snapshot of ids.
func CoveredBy(item *models.BorrowableItem, qualificationIDs map[uint]bool) bool {
	if item == nil {
		return false
	}
	for _, required := range item.RequiredQualifications {
		if !qualificationIDs[required.ID] {
			return false
		}
	}
	return true
}

// MissingFor returns the names of required qualifications the user does not
// hold, in the item's qualification order.
func MissingFor(item *models.BorrowableItem, qualificationIDs map[uint]bool) []string {
	if item == nil {
		return nil
	}
	var missing []string
	for _, required := range item.RequiredQualifications {
		if !qualificationIDs[required.ID] {
			missing = append(missing, required.Name)
		}
	}
	return missing
}
