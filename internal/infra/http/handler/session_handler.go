package handler

import (
	"net/http"
	"time"

	"github.com/planforge/api/internal/app"
	"github.com/planforge/api/pkg/apierror"
	"github.com/planforge/api/pkg/domain/role"
	"github.com/planforge/api/pkg/domain/session"
	"github.com/planforge/api/pkg/domain/shared"
	"github.com/planforge/api/pkg/validator"
)

// SessionHandler serves login and the simulation endpoints.
type SessionHandler struct {
	sessions *app.SessionService
	validate *validator.Validator
}

// NewSessionHandler creates a new SessionHandler.
func NewSessionHandler(sessions *app.SessionService, validate *validator.Validator) *SessionHandler {
	return &SessionHandler{sessions: sessions, validate: validate}
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type loginResponse struct {
	Token     string          `json:"token"`
	ExpiresAt time.Time       `json:"expires_at"`
	Session   SessionResponse `json:"session"`
}

// Login handles POST /api/v1/auth/login.
func (h *SessionHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		respondError(w, r, err)
		return
	}

	result, err := h.sessions.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		respondError(w, r, err)
		return
	}

	view := h.sessions.ViewContextFor(r.Context(), result.Identity)
	respondJSON(w, http.StatusOK, loginResponse{
		Token:     result.Token,
		ExpiresAt: result.ExpiresAt,
		Session:   toSessionResponse(view),
	})
}

// GetSession handles GET /api/v1/session.
func (h *SessionHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	view, err := viewFrom(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toSessionResponse(view))
}

type simulationRequest struct {
	ActiveRole     *string `json:"active_role" validate:"omitempty,rolename"`
	ActiveTenantID *string `json:"active_tenant_id" validate:"omitempty,uuid4"`
}

// UpdateSimulation handles PUT /api/v1/simulation. Partial updates:
// absent fields keep their current value.
func (h *SessionHandler) UpdateSimulation(w http.ResponseWriter, r *http.Request) {
	ident, err := identityFrom(r)
	if err != nil {
		respondError(w, r, err)
		return
	}

	var req simulationRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		respondError(w, r, err)
		return
	}

	var sim session.Simulation
	if req.ActiveRole != nil {
		parsed, ok := role.Parse(*req.ActiveRole)
		if !ok {
			respondError(w, r, apierror.BadRequest("unknown role"))
			return
		}
		sim.ActiveRole = &parsed
	}
	if req.ActiveTenantID != nil {
		id, err := shared.IDFromString(*req.ActiveTenantID)
		if err != nil {
			respondError(w, r, err)
			return
		}
		sim.ActiveTenantID = &id
	}

	view, err := h.sessions.Simulate(r.Context(), ident, sim)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toSessionResponse(view))
}

// ResetSimulation handles DELETE /api/v1/simulation.
func (h *SessionHandler) ResetSimulation(w http.ResponseWriter, r *http.Request) {
	ident, err := identityFrom(r)
	if err != nil {
		respondError(w, r, err)
		return
	}

	view, err := h.sessions.Reset(r.Context(), ident)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toSessionResponse(view))
}
