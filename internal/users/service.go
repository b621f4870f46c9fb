package users

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/CruzR/inventorymgr/internal/authctx"
	"github.com/CruzR/inventorymgr/pkg/config"
	"github.com/CruzR/inventorymgr/pkg/db"
	"github.com/CruzR/inventorymgr/pkg/db/models"
	"github.com/CruzR/inventorymgr/pkg/enums"
	pkgerrors "github.com/CruzR/inventorymgr/pkg/errors"
	"github.com/CruzR/inventorymgr/pkg/security"
	"gorm.io/gorm"
)

// Service defines the behavior needed by the users controller.
type Service interface {
	List(ctx context.Context) ([]*UserDTO, error)
	Get(ctx context.Context, id uint) (*UserDTO, error)
	Create(ctx context.Context, ac *authctx.Context, req CreateUserRequest) (*UserDTO, error)
	Update(ctx context.Context, ac *authctx.Context, id uint, req UpdateUserRequest) (*UserDTO, error)
	Delete(ctx context.Context, id uint) error
}

// CreateUserRequest carries the fields accepted when creating a user.
type CreateUserRequest struct {
	Username         string   `json:"username" validate:"required,min=1,max=128"`
	Password         string   `json:"password" validate:"required,min=1"`
	Permissions      []string `json:"permissions" validate:"omitempty,dive,min=1"`
	QualificationIDs []uint   `json:"qualification_ids"`
}

// UpdateUserRequest carries the optional fields accepted on update.
type UpdateUserRequest struct {
	Password         *string   `json:"password" validate:"omitempty,min=1"`
	Permissions      *[]string `json:"permissions"`
	QualificationIDs *[]uint   `json:"qualification_ids"`
}

type qualificationLookup interface {
	FindByIDs(ctx context.Context, ids []uint) ([]models.Qualification, error)
}

type service struct {
	client      *db.Client
	users       Repository
	quals       qualificationLookup
	passwordCfg config.PasswordConfig
}

// ServiceParams bundles the dependencies required to build a users service.
type ServiceParams struct {
	Client         *db.Client
	UserRepo       Repository
	Qualifications qualificationLookup
	PasswordConfig config.PasswordConfig
}

// NewService constructs a users service with the provided dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Client == nil {
		return nil, fmt.Errorf("db client is required")
	}
	if params.UserRepo == nil {
		return nil, fmt.Errorf("user repository is required")
	}
	if params.Qualifications == nil {
		return nil, fmt.Errorf("qualification lookup is required")
	}
	return &service{
		client:      params.Client,
		users:       params.UserRepo,
		quals:       params.Qualifications,
		passwordCfg: params.PasswordConfig,
	}, nil
}

func (s *service) List(ctx context.Context) ([]*UserDTO, error) {
	rows, err := s.users.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.ReasonInternal, err, "list users")
	}
	out := make([]*UserDTO, 0, len(rows))
	for i := range rows {
		out = append(out, FromModel(&rows[i]))
	}
	return out, nil
}

func (s *service) Get(ctx context.Context, id uint) (*UserDTO, error) {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.ReasonNoSuchUser, "no such user")
		}
		return nil, pkgerrors.Wrap(pkgerrors.ReasonInternal, err, "lookup user")
	}
	return FromModel(user), nil
}

func (s *service) Create(ctx context.Context, ac *authctx.Context, req CreateUserRequest) (*UserDTO, error) {
	perms, err := parsePermissions(req.Permissions)
	if err != nil {
		return nil, err
	}
	if err := requireSubset(ac, perms); err != nil {
		return nil, err
	}

	hash, err := security.HashPassword(req.Password, s.passwordCfg)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.ReasonInternal, err, "hash password")
	}

	user := &models.User{
		Username:     strings.TrimSpace(req.Username),
		PasswordHash: hash,
	}
	for _, perm := range perms {
		SetPermission(user, perm, true)
	}

	err = s.client.WithTx(ctx, func(tx *gorm.DB) error {
		txUsers := s.users.WithTx(tx)
		if err := txUsers.Create(ctx, user); err != nil {
			if db.IsUniqueViolation(err, "") {
				return pkgerrors.New(pkgerrors.ReasonUserExists, "username is taken")
			}
			return pkgerrors.Wrap(pkgerrors.ReasonInternal, err, "create user")
		}
		if len(req.QualificationIDs) > 0 {
			quals, err := s.resolveQualifications(ctx, req.QualificationIDs)
			if err != nil {
				return err
			}
			if err := txUsers.ReplaceQualifications(ctx, user, quals); err != nil {
				return pkgerrors.Wrap(pkgerrors.ReasonInternal, err, "assign qualifications")
			}
			user.Qualifications = quals
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return FromModel(user), nil
}

func (s *service) Update(ctx context.Context, ac *authctx.Context, id uint, req UpdateUserRequest) (*UserDTO, error) {
	var updated *models.User
	err := s.client.WithTx(ctx, func(tx *gorm.DB) error {
		txUsers := s.users.WithTx(tx)

		user, err := txUsers.FindByID(ctx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.ReasonNoSuchUser, "no such user")
			}
			return pkgerrors.Wrap(pkgerrors.ReasonInternal, err, "lookup user")
		}

		if req.Password != nil {
			hash, err := security.HashPassword(*req.Password, s.passwordCfg)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.ReasonInternal, err, "hash password")
			}
			user.PasswordHash = hash
		}

		if req.Permissions != nil {
			perms, err := parsePermissions(*req.Permissions)
			if err != nil {
				return err
			}
			if err := requireSubset(ac, perms); err != nil {
				return err
			}
			for _, perm := range enums.AllPermissions() {
				SetPermission(user, perm, false)
			}
			for _, perm := range perms {
				SetPermission(user, perm, true)
			}
		}

		if err := txUsers.Update(ctx, user); err != nil {
			return pkgerrors.Wrap(pkgerrors.ReasonInternal, err, "update user")
		}

		if req.QualificationIDs != nil {
			if ac != nil && !ac.Has(enums.PermissionEditQualifications) {
				return pkgerrors.New(pkgerrors.ReasonInsufficientPermissions, "editing qualifications requires edit_qualifications")
			}
			quals, err := s.resolveQualifications(ctx, *req.QualificationIDs)
			if err != nil {
				return err
			}
			if err := txUsers.ReplaceQualifications(ctx, user, quals); err != nil {
				return pkgerrors.Wrap(pkgerrors.ReasonInternal, err, "replace qualifications")
			}
			user.Qualifications = quals
		}

		updated = user
		return nil
	})
	if err != nil {
		return nil, err
	}
	return FromModel(updated), nil
}

func (s *service) Delete(ctx context.Context, id uint) error {
	return s.client.WithTx(ctx, func(tx *gorm.DB) error {
		txUsers := s.users.WithTx(tx)
		user, err := txUsers.FindByID(ctx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.ReasonNoSuchUser, "no such user")
			}
			return pkgerrors.Wrap(pkgerrors.ReasonInternal, err, "lookup user")
		}
		if err := txUsers.Delete(ctx, user); err != nil {
			return pkgerrors.Wrap(pkgerrors.ReasonInternal, err, "delete user")
		}
		return nil
	})
}

func (s *service) resolveQualifications(ctx context.Context, ids []uint) ([]models.Qualification, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	quals, err := s.quals.FindByIDs(ctx, ids)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.ReasonInternal, err, "lookup qualifications")
	}
	if len(quals) != len(dedupe(ids)) {
		return nil, pkgerrors.New(pkgerrors.ReasonUnknownQualification, "one or more qualifications do not exist")
	}
	return quals, nil
}

func parsePermissions(raw []string) ([]enums.Permission, error) {
	perms := make([]enums.Permission, 0, len(raw))
	for _, value := range raw {
		perm, err := enums.ParsePermission(value)
		if err != nil {
			return nil, pkgerrors.New(pkgerrors.ReasonValidationFailed, err.Error())
		}
		perms = append(perms, perm)
	}
	return perms, nil
}

// requireSubset rejects granting a permission flag the caller does not hold.
func requireSubset(ac *authctx.Context, perms []enums.Permission) error {
	if ac == nil {
		return nil
	}
	for _, perm := range perms {
		if !ac.Has(perm) {
			return pkgerrors.New(pkgerrors.ReasonPermissionsNotSubset, "cannot grant permissions you do not hold").
				WithDetail("permission", perm.String())
		}
	}
	return nil
}

func dedupe(ids []uint) []uint {
	seen := make(map[uint]bool, len(ids))
	out := ids[:0:0]
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}
