package users

import (
	"github.com/CruzR/inventorymgr/pkg/db/models"
	"github.com/CruzR/inventorymgr/pkg/enums"
)

// UserDTO is the transport shape that omits credentials.
type UserDTO struct {
	ID             uint     `json:"id"`
	Username       string   `json:"username"`
	Barcode        string   `json:"barcode"`
	Permissions    []string `json:"permissions"`
	Qualifications []uint   `json:"qualification_ids"`
}

// FromModel converts a stored user into its transport shape.
func FromModel(u *models.User) *UserDTO {
	if u == nil {
		return nil
	}

	dto := &UserDTO{
		ID:          u.ID,
		Username:    u.Username,
		Barcode:     u.BarcodeValue(),
		Permissions: []string{},
	}
	for _, perm := range enums.AllPermissions() {
		if HasPermission(u, perm) {
			dto.Permissions = append(dto.Permissions, perm.String())
		}
	}
	dto.Qualifications = make([]uint, 0, len(u.Qualifications))
	for _, q := range u.Qualifications {
		dto.Qualifications = append(dto.Qualifications, q.ID)
	}
	return dto
}

// HasPermission checks a single flag column on the user row.
func HasPermission(u *models.User, perm enums.Permission) bool {
	if u == nil {
		return false
	}
	switch perm {
	case enums.PermissionCreateUsers:
		return u.CreateUsers
	case enums.PermissionViewUsers:
		return u.ViewUsers
	case enums.PermissionUpdateUsers:
		return u.UpdateUsers
	case enums.PermissionEditQualifications:
		return u.EditQualifications
	case enums.PermissionCreateItems:
		return u.CreateItems
	case enums.PermissionManageCheckouts:
		return u.ManageCheckouts
	}
	return false
}

// SetPermission writes a single flag column on the user row.
func SetPermission(u *models.User, perm enums.Permission, value bool) {
	if u == nil {
		return
	}
	switch perm {
	case enums.PermissionCreateUsers:
		u.CreateUsers = value
	case enums.PermissionViewUsers:
		u.ViewUsers = value
	case enums.PermissionUpdateUsers:
		u.UpdateUsers = value
	case enums.PermissionEditQualifications:
		u.EditQualifications = value
	case enums.PermissionCreateItems:
		u.CreateItems = value
	case enums.PermissionManageCheckouts:
		u.ManageCheckouts = value
	}
}

// PermissionSet snapshots the user's flags into a lookup map.
func PermissionSet(u *models.User) map[enums.Permission]bool {
	set := make(map[enums.Permission]bool)
	for _, perm := range enums.AllPermissions() {
		if HasPermission(u, perm) {
			set[perm] = true
		}
	}
	return set
}

// QualificationIDSet snapshots the user's qualification ids into a lookup map.
func QualificationIDSet(u *models.User) map[uint]bool {
	set := make(map[uint]bool, len(u.Qualifications))
	for _, q := range u.Qualifications {
		set[q.ID] = true
	}
	return set
}
