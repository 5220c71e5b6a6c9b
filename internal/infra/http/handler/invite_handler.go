package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/planforge/api/internal/app"
	"github.com/planforge/api/pkg/domain/role"
	"github.com/planforge/api/pkg/domain/shared"
	"github.com/planforge/api/pkg/validator"
)

// InviteHandler serves invite management, checking and signup.
type InviteHandler struct {
	invites  *app.InviteService
	validate *validator.Validator
}

// NewInviteHandler creates a new InviteHandler.
func NewInviteHandler(invites *app.InviteService, validate *validator.Validator) *InviteHandler {
	return &InviteHandler{invites: invites, validate: validate}
}

type createInviteRequest struct {
	Role              string   `json:"role" validate:"required,rolename"`
	ProjectIDs        []string `json:"project_ids" validate:"omitempty,dive,uuid4"`
	RecipientEmail    string   `json:"recipient_email" validate:"omitempty,email"`
	ConfirmSuperadmin bool     `json:"confirm_superadmin"`
}

// Create handles POST /api/v1/invites.
func (h *InviteHandler) Create(w http.ResponseWriter, r *http.Request) {
	view, err := viewFrom(r)
	if err != nil {
		respondError(w, r, err)
		return
	}

	var req createInviteRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		respondError(w, r, err)
		return
	}

	parsedRole, _ := role.Parse(req.Role)
	inv, err := h.invites.Create(r.Context(), view, app.CreateInviteInput{
		Role:              parsedRole,
		ProjectIDs:        shared.IDsFromStrings(req.ProjectIDs),
		RecipientEmail:    req.RecipientEmail,
		ConfirmSuperadmin: req.ConfirmSuperadmin,
	})
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, toInviteResponse(inv))
}

// List handles GET /api/v1/invites.
func (h *InviteHandler) List(w http.ResponseWriter, r *http.Request) {
	view, err := viewFrom(r)
	if err != nil {
		respondError(w, r, err)
		return
	}

	invites, err := h.invites.ListByTenant(r.Context(), view)
	if err != nil {
		respondError(w, r, err)
		return
	}

	out := make([]InviteResponse, len(invites))
	for i, inv := range invites {
		out[i] = toInviteResponse(inv)
	}
	respondJSON(w, http.StatusOK, out)
}

// Revoke handles DELETE /api/v1/invites/{code}.
func (h *InviteHandler) Revoke(w http.ResponseWriter, r *http.Request) {
	view, err := viewFrom(r)
	if err != nil {
		respondError(w, r, err)
		return
	}

	if err := h.invites.Revoke(r.Context(), view, chi.URLParam(r, "code")); err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusNoContent, nil)
}

// Check handles GET /api/v1/invites/{code}/check. Public: prospective
// users check their code before signing up.
func (h *InviteHandler) Check(w http.ResponseWriter, r *http.Request) {
	result := h.invites.Check(r.Context(), chi.URLParam(r, "code"))
	respondJSON(w, http.StatusOK, result)
}

type signupRequest struct {
	Email      string `json:"email" validate:"required,email"`
	Name       string `json:"name" validate:"required,max=255"`
	Password   string `json:"password" validate:"required"`
	InviteCode string `json:"invite_code" validate:"omitempty,invitecode"`
}

// Signup handles POST /api/v1/auth/signup. Public.
func (h *InviteHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		respondError(w, r, err)
		return
	}

	profile, err := h.invites.Signup(r.Context(), app.SignupInput{
		Email:      req.Email,
		Name:       req.Name,
		Password:   req.Password,
		InviteCode: req.InviteCode,
	})
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, toUserResponse(profile))
}
