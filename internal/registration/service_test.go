package registration

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/CruzR/inventorymgr/internal/users"
	"github.com/CruzR/inventorymgr/pkg/config"
	"github.com/CruzR/inventorymgr/pkg/db"
	"github.com/CruzR/inventorymgr/pkg/db/models"
	pkgerrors "github.com/CruzR/inventorymgr/pkg/errors"
	"github.com/CruzR/inventorymgr/pkg/security"
)

var testPasswordCfg = config.PasswordConfig{
	ArgonMemoryKB:    8 * 1024,
	ArgonTime:        1,
	ArgonParallelism: 1,
	ArgonSaltLen:     16,
	ArgonKeyLen:      32,
}

func setupRegistrationTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, conn.AutoMigrate(
		&models.User{},
		&models.Qualification{},
		&models.RegistrationToken{},
	))
	return conn
}

func newRegistrationService(t *testing.T, conn *gorm.DB, now time.Time) Service {
	t.Helper()

	svc, err := NewService(ServiceParams{
		Client:         db.FromGorm(conn),
		TokenRepo:      NewRepository(conn),
		UserRepo:       users.NewRepository(conn),
		PasswordConfig: testPasswordCfg,
		TokenTTL:       7 * 24 * time.Hour,
		Now:            func() time.Time { return now },
	})
	require.NoError(t, err)
	return svc
}

func TestIssueTokenSetsExpiry(t *testing.T) {
	conn := setupRegistrationTestDB(t)
	now := time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)
	svc := newRegistrationService(t, conn, now)

	token, err := svc.IssueToken(context.Background())
	require.NoError(t, err)
	assert.NotZero(t, token.ID)
	assert.NotEmpty(t, token.Token)
	assert.True(t, token.ExpiresAt.Equal(now.Add(7*24*time.Hour)))
}

func TestRegisterCreatesUserWithoutPermissions(t *testing.T) {
	conn := setupRegistrationTestDB(t)
	now := time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)
	svc := newRegistrationService(t, conn, now)

	token, err := svc.IssueToken(context.Background())
	require.NoError(t, err)

	err = svc.Register(context.Background(), token.Token, RegisterRequest{
		Username:       "newbie",
		Password:       "hunter2hunter2",
		RepeatPassword: "hunter2hunter2",
	})
	require.NoError(t, err)

	var user models.User
	require.NoError(t, conn.Where("username = ?", "newbie").First(&user).Error)
	assert.False(t, user.CreateUsers)
	assert.False(t, user.ManageCheckouts)

	ok, err := security.VerifyPassword("hunter2hunter2", user.PasswordHash)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRegisterPasswordMismatch(t *testing.T) {
	conn := setupRegistrationTestDB(t)
	svc := newRegistrationService(t, conn, time.Now().UTC())

	err := svc.Register(context.Background(), "whatever", RegisterRequest{
		Username:       "newbie",
		Password:       "one",
		RepeatPassword: "two",
	})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.ReasonPasswordMismatch, pkgerrors.As(err).Reason())
}

func TestRegisterInvalidToken(t *testing.T) {
	conn := setupRegistrationTestDB(t)
	svc := newRegistrationService(t, conn, time.Now().UTC())

	err := svc.Register(context.Background(), "bogus", RegisterRequest{
		Username:       "newbie",
		Password:       "hunter2hunter2",
		RepeatPassword: "hunter2hunter2",
	})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.ReasonInvalidToken, pkgerrors.As(err).Reason())
}

func TestRegisterExpiredToken(t *testing.T) {
	conn := setupRegistrationTestDB(t)
	issuedAt := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	svc := newRegistrationService(t, conn, issuedAt)

	token, err := svc.IssueToken(context.Background())
	require.NoError(t, err)

	later := newRegistrationService(t, conn, issuedAt.Add(8*24*time.Hour))
	err = later.Register(context.Background(), token.Token, RegisterRequest{
		Username:       "newbie",
		Password:       "hunter2hunter2",
		RepeatPassword: "hunter2hunter2",
	})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.ReasonExpiredToken, pkgerrors.As(err).Reason())
}

func TestRegisterDuplicateUsernameReportsSuccess(t *testing.T) {
	conn := setupRegistrationTestDB(t)
	now := time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)
	svc := newRegistrationService(t, conn, now)

	require.NoError(t, conn.Create(&models.User{Username: "taken", PasswordHash: "x"}).Error)

	token, err := svc.IssueToken(context.Background())
	require.NoError(t, err)

	// collision is indistinguishable from success on the public endpoint
	err = svc.Register(context.Background(), token.Token, RegisterRequest{
		Username:       "taken",
		Password:       "hunter2hunter2",
		RepeatPassword: "hunter2hunter2",
	})
	require.NoError(t, err)

	var count int64
	require.NoError(t, conn.Model(&models.User{}).Where("username = ?", "taken").Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestTokenRemainsValidUntilExpiry(t *testing.T) {
	conn := setupRegistrationTestDB(t)
	now := time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)
	svc := newRegistrationService(t, conn, now)

	token, err := svc.IssueToken(context.Background())
	require.NoError(t, err)

	for _, username := range []string{"first", "second"} {
		err = svc.Register(context.Background(), token.Token, RegisterRequest{
			Username:       username,
			Password:       "hunter2hunter2",
			RepeatPassword: "hunter2hunter2",
		})
		require.NoError(t, err)
	}

	var count int64
	require.NoError(t, conn.Model(&models.User{}).Count(&count).Error)
	assert.Equal(t, int64(2), count)
}

func TestPurgeExpiredDropsOnlyStaleTokens(t *testing.T) {
	conn := setupRegistrationTestDB(t)
	now := time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)
	svc := newRegistrationService(t, conn, now)

	require.NoError(t, conn.Create(&models.RegistrationToken{Token: "stale", ExpiresAt: now.Add(-time.Hour)}).Error)
	require.NoError(t, conn.Create(&models.RegistrationToken{Token: "fresh", ExpiresAt: now.Add(time.Hour)}).Error)

	removed, err := svc.PurgeExpired(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)

	var remaining []models.RegistrationToken
	require.NoError(t, conn.Find(&remaining).Error)
	require.Len(t, remaining, 1)
	assert.Equal(t, "fresh", remaining[0].Token)
}

func TestDeleteTokenUnknownID(t *testing.T) {
	conn := setupRegistrationTestDB(t)
	svc := newRegistrationService(t, conn, time.Now().UTC())

	err := svc.DeleteToken(context.Background(), 42)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.ReasonNoSuchObject, pkgerrors.As(err).Reason())
}
