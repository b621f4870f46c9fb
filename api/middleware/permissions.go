package middleware

import (
	"net/http"

	"github.com/CruzR/inventorymgr/api/responses"
	"github.com/CruzR/inventorymgr/internal/authctx"
	"github.com/CruzR/inventorymgr/pkg/enums"
	pkgerrors "github.com/CruzR/inventorymgr/pkg/errors"
	"github.com/CruzR/inventorymgr/pkg/logger"
)

// RequirePermission rejects callers missing the given permission flag.
func RequirePermission(perm enums.Permission, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ac := authctx.From(r.Context())
			if ac == nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.ReasonAuthenticationRequired, "missing credentials"))
				return
			}
			if !ac.Has(perm) {
				responses.WriteError(r.Context(), logg, w,
					pkgerrors.New(pkgerrors.ReasonInsufficientPermissions, "insufficient permissions").
						WithDetail("permission", string(perm)))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
