package eligibility

import (
	"testing"

	"github.com/CruzR/inventorymgr/pkg/db/models"
)

func TestIsEligibleNoRequirements(t *testing.T) {
	item := &models.BorrowableItem{ID: 1, Name: "ladder"}
	user := &models.User{ID: 1, Username: "alice"}

	if !IsEligible(user, item) {
		t.Fatal("expected item without requirements to be borrowable by anyone")
	}
	if !IsEligible(nil, item) {
		t.Fatal("expected item without requirements to be borrowable without a user")
	}
}

func TestIsEligibleRequirementsCovered(t *testing.T) {
	forklift := models.Qualification{ID: 3, Name: "forklift license"}
	item := &models.BorrowableItem{
		ID:                     1,
		Name:                   "forklift",
		RequiredQualifications: []models.Qualification{forklift},
	}

	qualified := &models.User{ID: 1, Qualifications: []models.Qualification{forklift}}
	unqualified := &models.User{ID: 2}

	if !IsEligible(qualified, item) {
		t.Fatal("expected qualified user to be eligible")
	}
	if IsEligible(unqualified, item) {
		t.Fatal("expected unqualified user to be rejected")
	}
}

func TestIsEligibleComparesByID(t *testing.T) {
	item := &models.BorrowableItem{
		ID:                     1,
		RequiredQualifications: []models.Qualification{{ID: 3, Name: "forklift license"}},
	}
	// same name, different id: must not count
	impostor := &models.User{ID: 1, Qualifications: []models.Qualification{{ID: 9, Name: "forklift license"}}}

	if IsEligible(impostor, item) {
		t.Fatal("expected qualification comparison by id, not name")
	}
}

func TestMissingFor(t *testing.T) {
	item := &models.BorrowableItem{
		ID: 1,
		RequiredQualifications: []models.Qualification{
			{ID: 1, Name: "crane license"},
			{ID: 2, Name: "safety training"},
		},
	}

	missing := MissingFor(item, map[uint]bool{1: true})
	if len(missing) != 1 || missing[0] != "safety training" {
		t.Fatalf("unexpected missing set %v", missing)
	}

	if got := MissingFor(item, map[uint]bool{1: true, 2: true}); got != nil {
		t.Fatalf("expected no missing qualifications, got %v", got)
	}
}
