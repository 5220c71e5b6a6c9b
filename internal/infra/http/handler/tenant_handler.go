package handler

import (
	"net/http"

	"github.com/planforge/api/internal/app"
	"github.com/planforge/api/pkg/validator"
)

// TenantHandler serves tenant management and population.
type TenantHandler struct {
	tenants  *app.TenantService
	validate *validator.Validator
}

// NewTenantHandler creates a new TenantHandler.
func NewTenantHandler(tenants *app.TenantService, validate *validator.Validator) *TenantHandler {
	return &TenantHandler{tenants: tenants, validate: validate}
}

type createTenantRequest struct {
	Name     string `json:"name" validate:"required,max=255"`
	Code     string `json:"code" validate:"required,tenantcode"`
	Populate bool   `json:"populate"`
}

type createTenantResponse struct {
	Tenant     TenantResponse `json:"tenant"`
	Population *app.RunReport `json:"population,omitempty"`
}

// Create handles POST /api/v1/tenants.
func (h *TenantHandler) Create(w http.ResponseWriter, r *http.Request) {
	view, err := viewFrom(r)
	if err != nil {
		respondError(w, r, err)
		return
	}

	var req createTenantRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		respondError(w, r, err)
		return
	}

	t, report, err := h.tenants.Create(r.Context(), view, app.CreateTenantInput{
		Name:     req.Name,
		Code:     req.Code,
		Populate: req.Populate,
	})
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, createTenantResponse{
		Tenant:     toTenantResponse(t),
		Population: report,
	})
}

// List handles GET /api/v1/tenants.
func (h *TenantHandler) List(w http.ResponseWriter, r *http.Request) {
	view, err := viewFrom(r)
	if err != nil {
		respondError(w, r, err)
		return
	}

	tenants, err := h.tenants.ListActive(r.Context(), view)
	if err != nil {
		respondError(w, r, err)
		return
	}

	out := make([]TenantResponse, len(tenants))
	for i, t := range tenants {
		out[i] = toTenantResponse(t)
	}
	respondJSON(w, http.StatusOK, out)
}

// Get handles GET /api/v1/tenants/{id}.
func (h *TenantHandler) Get(w http.ResponseWriter, r *http.Request) {
	view, err := viewFrom(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, r, err)
		return
	}

	t, err := h.tenants.Get(r.Context(), view, id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toTenantResponse(t))
}

type renameTenantRequest struct {
	Name string `json:"name" validate:"required,max=255"`
}

// Rename handles PATCH /api/v1/tenants/{id}.
func (h *TenantHandler) Rename(w http.ResponseWriter, r *http.Request) {
	view, err := viewFrom(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, r, err)
		return
	}

	var req renameTenantRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		respondError(w, r, err)
		return
	}

	t, err := h.tenants.Rename(r.Context(), view, id, req.Name)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toTenantResponse(t))
}

// Deactivate handles DELETE /api/v1/tenants/{id}.
func (h *TenantHandler) Deactivate(w http.ResponseWriter, r *http.Request) {
	view, err := viewFrom(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, r, err)
		return
	}

	if err := h.tenants.Deactivate(r.Context(), view, id); err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusNoContent, nil)
}

// Populate handles POST /api/v1/tenants/{id}/populate.
func (h *TenantHandler) Populate(w http.ResponseWriter, r *http.Request) {
	view, err := viewFrom(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, r, err)
		return
	}

	report, err := h.tenants.Populate(r.Context(), view, id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, report)
}
