package users

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/CruzR/inventorymgr/internal/authctx"
	"github.com/CruzR/inventorymgr/internal/qualifications"
	"github.com/CruzR/inventorymgr/pkg/config"
	"github.com/CruzR/inventorymgr/pkg/db"
	"github.com/CruzR/inventorymgr/pkg/db/models"
	"github.com/CruzR/inventorymgr/pkg/enums"
	pkgerrors "github.com/CruzR/inventorymgr/pkg/errors"
)

var testPasswordCfg = config.PasswordConfig{
	ArgonMemoryKB:    8 * 1024,
	ArgonTime:        1,
	ArgonParallelism: 1,
	ArgonSaltLen:     16,
	ArgonKeyLen:      32,
}

func setupUsersTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, conn.AutoMigrate(
		&models.User{},
		&models.Qualification{},
	))
	return conn
}

func newUsersService(t *testing.T, conn *gorm.DB) Service {
	t.Helper()

	svc, err := NewService(ServiceParams{
		Client:         db.FromGorm(conn),
		UserRepo:       NewRepository(conn),
		Qualifications: qualifications.NewRepository(conn),
		PasswordConfig: testPasswordCfg,
	})
	require.NoError(t, err)
	return svc
}

func adminCaller() *authctx.Context {
	perms := map[enums.Permission]bool{}
	for _, perm := range enums.AllPermissions() {
		perms[perm] = true
	}
	return &authctx.Context{UserID: 1, Username: "admin", Permissions: perms}
}

func TestCreateUserWithPermissions(t *testing.T) {
	conn := setupUsersTestDB(t)
	svc := newUsersService(t, conn)

	created, err := svc.Create(context.Background(), adminCaller(), CreateUserRequest{
		Username:    "alice",
		Password:    "hunter2hunter2",
		Permissions: []string{"view_users", "manage_checkouts"},
	})
	require.NoError(t, err)
	assert.Equal(t, "alice", created.Username)
	assert.ElementsMatch(t, []string{"view_users", "manage_checkouts"}, created.Permissions)

	var stored models.User
	require.NoError(t, conn.Where("username = ?", "alice").First(&stored).Error)
	assert.True(t, stored.ViewUsers)
	assert.True(t, stored.ManageCheckouts)
	assert.False(t, stored.CreateUsers)
}

func TestCreateUserRejectsPermissionsCallerLacks(t *testing.T) {
	conn := setupUsersTestDB(t)
	svc := newUsersService(t, conn)

	caller := &authctx.Context{
		UserID:      1,
		Username:    "limited",
		Permissions: map[enums.Permission]bool{enums.PermissionCreateUsers: true},
	}

	_, err := svc.Create(context.Background(), caller, CreateUserRequest{
		Username:    "alice",
		Password:    "hunter2hunter2",
		Permissions: []string{"manage_checkouts"},
	})
	require.Error(t, err)
	typed := pkgerrors.As(err)
	assert.Equal(t, pkgerrors.ReasonPermissionsNotSubset, typed.Reason())
	assert.Equal(t, "manage_checkouts", typed.Details()["permission"])
}

func TestCreateUserUnknownPermission(t *testing.T) {
	conn := setupUsersTestDB(t)
	svc := newUsersService(t, conn)

	_, err := svc.Create(context.Background(), adminCaller(), CreateUserRequest{
		Username:    "alice",
		Password:    "hunter2hunter2",
		Permissions: []string{"rule_the_world"},
	})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.ReasonValidationFailed, pkgerrors.As(err).Reason())
}

func TestCreateUserDuplicateUsername(t *testing.T) {
	conn := setupUsersTestDB(t)
	svc := newUsersService(t, conn)

	_, err := svc.Create(context.Background(), adminCaller(), CreateUserRequest{
		Username: "alice",
		Password: "hunter2hunter2",
	})
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), adminCaller(), CreateUserRequest{
		Username: "alice",
		Password: "hunter2hunter2",
	})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.ReasonUserExists, pkgerrors.As(err).Reason())
}

func TestCreateUserAssignsQualifications(t *testing.T) {
	conn := setupUsersTestDB(t)
	svc := newUsersService(t, conn)

	forklift := models.Qualification{Name: "forklift"}
	require.NoError(t, conn.Create(&forklift).Error)

	created, err := svc.Create(context.Background(), adminCaller(), CreateUserRequest{
		Username:         "alice",
		Password:         "hunter2hunter2",
		QualificationIDs: []uint{forklift.ID},
	})
	require.NoError(t, err)
	assert.Equal(t, []uint{forklift.ID}, created.Qualifications)
}

func TestCreateUserUnknownQualification(t *testing.T) {
	conn := setupUsersTestDB(t)
	svc := newUsersService(t, conn)

	_, err := svc.Create(context.Background(), adminCaller(), CreateUserRequest{
		Username:         "alice",
		Password:         "hunter2hunter2",
		QualificationIDs: []uint{42},
	})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.ReasonUnknownQualification, pkgerrors.As(err).Reason())
}

func TestUpdateUserReplacesPermissions(t *testing.T) {
	conn := setupUsersTestDB(t)
	svc := newUsersService(t, conn)

	created, err := svc.Create(context.Background(), adminCaller(), CreateUserRequest{
		Username:    "alice",
		Password:    "hunter2hunter2",
		Permissions: []string{"view_users"},
	})
	require.NoError(t, err)

	newPerms := []string{"create_items"}
	updated, err := svc.Update(context.Background(), adminCaller(), created.ID, UpdateUserRequest{
		Permissions: &newPerms,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"create_items"}, updated.Permissions)

	var stored models.User
	require.NoError(t, conn.First(&stored, created.ID).Error)
	assert.False(t, stored.ViewUsers)
	assert.True(t, stored.CreateItems)
}

func TestUpdateUserQualificationEditRequiresPermission(t *testing.T) {
	conn := setupUsersTestDB(t)
	svc := newUsersService(t, conn)

	created, err := svc.Create(context.Background(), adminCaller(), CreateUserRequest{
		Username: "alice",
		Password: "hunter2hunter2",
	})
	require.NoError(t, err)

	caller := &authctx.Context{
		UserID:      1,
		Username:    "limited",
		Permissions: map[enums.Permission]bool{enums.PermissionUpdateUsers: true},
	}

	ids := []uint{}
	_, err = svc.Update(context.Background(), caller, created.ID, UpdateUserRequest{
		QualificationIDs: &ids,
	})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.ReasonInsufficientPermissions, pkgerrors.As(err).Reason())
}

func TestDeleteUser(t *testing.T) {
	conn := setupUsersTestDB(t)
	svc := newUsersService(t, conn)

	created, err := svc.Create(context.Background(), adminCaller(), CreateUserRequest{
		Username: "alice",
		Password: "hunter2hunter2",
	})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(context.Background(), created.ID))

	err = svc.Delete(context.Background(), created.ID)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.ReasonNoSuchUser, pkgerrors.As(err).Reason())
}
