// Package handler implements the HTTP API handlers.
package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/planforge/api/internal/infra/http/middleware"
	"github.com/planforge/api/pkg/apierror"
	"github.com/planforge/api/pkg/domain/session"
	"github.com/planforge/api/pkg/domain/shared"
	"github.com/planforge/api/pkg/validator"
)

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		_ = json.NewEncoder(w).Encode(payload)
	}
}

func respondError(w http.ResponseWriter, r *http.Request, err error) {
	apiErr := apierror.FromDomain(err)

	var verr *validator.Error
	if ok := asValidatorError(err, &verr); ok {
		apiErr = apierror.Validation("request validation failed", verr.Fields)
	}
	apiErr.WriteJSON(w, chimw.GetReqID(r.Context()))
}

func asValidatorError(err error, target **validator.Error) bool {
	v, ok := err.(*validator.Error)
	if ok {
		*target = v
	}
	return ok
}

func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return apierror.BadRequest("malformed JSON body")
	}
	return nil
}

// viewFrom pulls the request's view context; handlers behind Auth can
// rely on it being present.
func viewFrom(r *http.Request) (*session.ViewContext, error) {
	view, ok := middleware.ViewContextFrom(r.Context())
	if !ok {
		return nil, apierror.Unauthorized("not authenticated")
	}
	return view, nil
}

func identityFrom(r *http.Request) (session.Identity, error) {
	ident, ok := middleware.IdentityFrom(r.Context())
	if !ok {
		return session.Identity{}, apierror.Unauthorized("not authenticated")
	}
	return ident, nil
}

func pathID(r *http.Request, param string) (shared.ID, error) {
	raw := chi.URLParam(r, param)
	id, err := shared.IDFromString(raw)
	if err != nil {
		return shared.ID{}, apierror.BadRequest("invalid " + param)
	}
	return id, nil
}
