package controllers

import (
	"net/http"

	"github.com/CruzR/inventorymgr/api/responses"
	"github.com/CruzR/inventorymgr/internal/auditlog"
	pkgerrors "github.com/CruzR/inventorymgr/pkg/errors"
	"github.com/CruzR/inventorymgr/pkg/logger"
)

// LogList returns the append-only audit log, oldest first.
func LogList(svc auditlog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.ReasonInternal, "audit log service unavailable"))
			return
		}

		list, err := svc.List(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]any{"logs": list})
	}
}
