package controllers

import (
	"net/http"

	"github.com/CruzR/inventorymgr/api/responses"
	"github.com/CruzR/inventorymgr/api/validators"
	"github.com/CruzR/inventorymgr/internal/qualifications"
	pkgerrors "github.com/CruzR/inventorymgr/pkg/errors"
	"github.com/CruzR/inventorymgr/pkg/logger"
)

// QualificationList returns every qualification.
func QualificationList(svc qualifications.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.ReasonInternal, "qualification service unavailable"))
			return
		}

		list, err := svc.List(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]any{"qualifications": list})
	}
}

// QualificationCreate adds a new named qualification.
func QualificationCreate(svc qualifications.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.ReasonInternal, "qualification service unavailable"))
			return
		}

		var body qualifications.UpsertQualificationRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		created, err := svc.Create(r.Context(), body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, created)
	}
}

// QualificationUpdate renames an existing qualification.
func QualificationUpdate(svc qualifications.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.ReasonInternal, "qualification service unavailable"))
			return
		}

		id, err := pathID(r, "qualificationId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body qualifications.UpsertQualificationRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		updated, err := svc.Update(r.Context(), id, body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, updated)
	}
}

// QualificationDelete removes a qualification and its assignments.
func QualificationDelete(svc qualifications.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.ReasonInternal, "qualification service unavailable"))
			return
		}

		id, err := pathID(r, "qualificationId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Delete(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteOK(w)
	}
}
