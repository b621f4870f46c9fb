package controllers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	pkgerrors "github.com/CruzR/inventorymgr/pkg/errors"
)

// pathID parses a numeric id out of the route pattern.
func pathID(r *http.Request, name string) (uint, error) {
	raw := chi.URLParam(r, name)
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		return 0, pkgerrors.Wrap(pkgerrors.ReasonIncorrectID, err, "invalid id").WithDetail("param", name)
	}
	return uint(id), nil
}
