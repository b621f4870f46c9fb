package registration

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/CruzR/inventorymgr/internal/users"
	"github.com/CruzR/inventorymgr/pkg/config"
	"github.com/CruzR/inventorymgr/pkg/db"
	"github.com/CruzR/inventorymgr/pkg/db/models"
	pkgerrors "github.com/CruzR/inventorymgr/pkg/errors"
	"github.com/CruzR/inventorymgr/pkg/security"
	"gorm.io/gorm"
)

const tokenLength = 32

// TokenDTO is the transport shape of an issued registration token.
type TokenDTO struct {
	ID        uint      `json:"id"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// RegisterRequest redeems a token for a new account.
type RegisterRequest struct {
	Username       string `json:"username" validate:"required,min=1,max=128"`
	Password       string `json:"password" validate:"required,min=1"`
	RepeatPassword string `json:"repeat_password" validate:"required,min=1"`
}

// Service issues invite tokens and redeems them into accounts.
type Service interface {
	IssueToken(ctx context.Context) (*TokenDTO, error)
	ListTokens(ctx context.Context) ([]TokenDTO, error)
	DeleteToken(ctx context.Context, id uint) error
	Register(ctx context.Context, token string, req RegisterRequest) error
	PurgeExpired(ctx context.Context) (int64, error)
}

type service struct {
	client      *db.Client
	tokens      Repository
	users       users.Repository
	passwordCfg config.PasswordConfig
	tokenTTL    time.Duration
	now         func() time.Time
}

// ServiceParams bundles the dependencies required to build a registration service.
type ServiceParams struct {
	Client         *db.Client
	TokenRepo      Repository
	UserRepo       users.Repository
	PasswordConfig config.PasswordConfig
	TokenTTL       time.Duration

	// Now overrides the clock, mainly for tests.
	Now func() time.Time
}

// NewService constructs a registration service.
func NewService(params ServiceParams) (Service, error) {
	if params.Client == nil {
		return nil, fmt.Errorf("db client is required")
	}
	if params.TokenRepo == nil {
		return nil, fmt.Errorf("token repository is required")
	}
	if params.UserRepo == nil {
		return nil, fmt.Errorf("user repository is required")
	}
	if params.TokenTTL <= 0 {
		return nil, fmt.Errorf("token ttl must be positive")
	}
	now := params.Now
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &service{
		client:      params.Client,
		tokens:      params.TokenRepo,
		users:       params.UserRepo,
		passwordCfg: params.PasswordConfig,
		tokenTTL:    params.TokenTTL,
		now:         now,
	}, nil
}

func (s *service) IssueToken(ctx context.Context) (*TokenDTO, error) {
	raw, err := security.GenerateInviteToken(tokenLength)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.ReasonInternal, err, "generate token")
	}
	record := &models.RegistrationToken{
		Token:     raw,
		ExpiresAt: s.now().Add(s.tokenTTL),
	}
	if err := s.tokens.Create(ctx, record); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.ReasonInternal, err, "store token")
	}
	return &TokenDTO{ID: record.ID, Token: record.Token, ExpiresAt: record.ExpiresAt}, nil
}

func (s *service) ListTokens(ctx context.Context) ([]TokenDTO, error) {
	rows, err := s.tokens.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.ReasonInternal, err, "list tokens")
	}
	out := make([]TokenDTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, TokenDTO{ID: row.ID, Token: row.Token, ExpiresAt: row.ExpiresAt})
	}
	return out, nil
}

func (s *service) DeleteToken(ctx context.Context, id uint) error {
	return s.client.WithTx(ctx, func(tx *gorm.DB) error {
		txTokens := s.tokens.WithTx(tx)
		var record models.RegistrationToken
		if err := tx.First(&record, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.ReasonNoSuchObject, "no such token")
			}
			return pkgerrors.Wrap(pkgerrors.ReasonInternal, err, "lookup token")
		}
		if err := txTokens.Delete(ctx, &record); err != nil {
			return pkgerrors.Wrap(pkgerrors.ReasonInternal, err, "delete token")
		}
		return nil
	})
}

// Register redeems a valid token for a fresh account with no permission
// flags. A username collision reports success without creating anything so
// the public endpoint cannot be used to probe which usernames exist.
func (s *service) Register(ctx context.Context, token string, req RegisterRequest) error {
	if req.Password != req.RepeatPassword {
		return pkgerrors.New(pkgerrors.ReasonPasswordMismatch, "passwords do not match")
	}

	record, err := s.tokens.FindByToken(ctx, strings.TrimSpace(token))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.ReasonInvalidToken, "invalid registration token")
		}
		return pkgerrors.Wrap(pkgerrors.ReasonInternal, err, "lookup token")
	}
	if record.ExpiresAt.Before(s.now()) {
		return pkgerrors.New(pkgerrors.ReasonExpiredToken, "registration token expired")
	}

	hash, err := security.HashPassword(req.Password, s.passwordCfg)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.ReasonInternal, err, "hash password")
	}

	err = s.client.WithTx(ctx, func(tx *gorm.DB) error {
		txUsers := s.users.WithTx(tx)
		user := &models.User{
			Username:     strings.TrimSpace(req.Username),
			PasswordHash: hash,
		}
		return txUsers.Create(ctx, user)
	})
	if err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil
		}
		return pkgerrors.Wrap(pkgerrors.ReasonInternal, err, "create user")
	}
	return nil
}

func (s *service) PurgeExpired(ctx context.Context) (int64, error) {
	removed, err := s.tokens.DeleteExpired(ctx, s.now())
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.ReasonInternal, err, "purge expired tokens")
	}
	return removed, nil
}
