package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/CruzR/inventorymgr/api/responses"
	"github.com/CruzR/inventorymgr/internal/authctx"
	"github.com/CruzR/inventorymgr/internal/users"
	pkgAuth "github.com/CruzR/inventorymgr/pkg/auth"
	"github.com/CruzR/inventorymgr/pkg/config"
	"github.com/CruzR/inventorymgr/pkg/db/models"
	pkgerrors "github.com/CruzR/inventorymgr/pkg/errors"
	"github.com/CruzR/inventorymgr/pkg/logger"
)

// SessionChecker reports whether the access token's session is still live.
type SessionChecker interface {
	HasSession(ctx context.Context, accessID string) (bool, error)
}

type userLoader interface {
	FindByID(ctx context.Context, id uint) (*models.User, error)
}

// Auth validates a bearer token, confirms the session, and seeds the request
// context with the caller's identity, permission flags, and qualifications.
func Auth(cfg config.JWTConfig, sessions SessionChecker, loader userLoader, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := strings.TrimSpace(r.Header.Get("Authorization"))
			if raw == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.ReasonAuthenticationRequired, "missing credentials"))
				return
			}

			token := raw
			if strings.HasPrefix(strings.ToLower(token), "bearer ") {
				token = strings.TrimSpace(token[7:])
			}
			if token == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.ReasonAuthenticationRequired, "missing credentials"))
				return
			}

			claims, err := pkgAuth.ParseAccessToken(cfg, token)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.ReasonAuthenticationRequired, err, "invalid token"))
				return
			}

			if claims.ID == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.ReasonAuthenticationRequired, "missing session id"))
				return
			}

			if sessions != nil {
				ok, err := sessions.HasSession(r.Context(), claims.ID)
				if err != nil {
					responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.ReasonDependencyUnavailable, err, "validate session"))
					return
				}
				if !ok {
					responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.ReasonAuthenticationRequired, "session unavailable"))
					return
				}
			}

			user, err := loader.FindByID(r.Context(), claims.UserID)
			if err != nil || user == nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.ReasonAuthenticationRequired, err, "unknown session user"))
				return
			}

			ac := &authctx.Context{
				UserID:           user.ID,
				Username:         user.Username,
				Permissions:      users.PermissionSet(user),
				QualificationIDs: users.QualificationIDSet(user),
			}

			ctx := authctx.Into(r.Context(), ac)
			ctx = context.WithValue(ctx, ctxAccessID, claims.ID)
			if logg != nil {
				ctx = logg.WithUserID(ctx, user.ID)
				ctx = logg.WithUsername(ctx, user.Username)
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
