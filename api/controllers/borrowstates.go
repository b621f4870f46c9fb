package controllers

import (
	"net/http"

	"github.com/CruzR/inventorymgr/api/responses"
	"github.com/CruzR/inventorymgr/api/validators"
	"github.com/CruzR/inventorymgr/internal/borrow"
	pkgerrors "github.com/CruzR/inventorymgr/pkg/errors"
	"github.com/CruzR/inventorymgr/pkg/logger"
)

// BorrowStateList returns every loan record, open and closed.
func BorrowStateList(svc borrow.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.ReasonInternal, "borrow service unavailable"))
			return
		}

		list, err := svc.List(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]any{"borrowstates": list})
	}
}

// Checkout lends the requested item quantities to a user.
func Checkout(svc borrow.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.ReasonInternal, "borrow service unavailable"))
			return
		}

		var body borrow.CheckoutRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		states, err := svc.Checkout(r.Context(), body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]any{"borrowstates": states})
	}
}

// Checkin returns item quantities and reports the loans it closed.
func Checkin(svc borrow.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.ReasonInternal, "borrow service unavailable"))
			return
		}

		var body borrow.CheckinRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		states, err := svc.Checkin(r.Context(), body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]any{"borrowstates": states})
	}
}
