package handler

import (
	"net/http"

	"github.com/planforge/api/internal/app"
	"github.com/planforge/api/pkg/apierror"
	"github.com/planforge/api/pkg/domain/role"
	"github.com/planforge/api/pkg/domain/shared"
	"github.com/planforge/api/pkg/validator"
)

// UserHandler serves user profile management.
type UserHandler struct {
	users    *app.UserService
	validate *validator.Validator
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(users *app.UserService, validate *validator.Validator) *UserHandler {
	return &UserHandler{users: users, validate: validate}
}

// Me handles GET /api/v1/me.
func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	ident, err := identityFrom(r)
	if err != nil {
		respondError(w, r, err)
		return
	}

	profile, err := h.users.Me(r.Context(), ident)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toUserResponse(profile))
}

// List handles GET /api/v1/users.
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	view, err := viewFrom(r)
	if err != nil {
		respondError(w, r, err)
		return
	}

	profiles, err := h.users.ListByTenant(r.Context(), view)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toUserResponses(profiles))
}

// Get handles GET /api/v1/users/{id}.
func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
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

	profile, err := h.users.Get(r.Context(), view, id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toUserResponse(profile))
}

type changeRoleRequest struct {
	Role string `json:"role" validate:"required,rolename"`
}

// ChangeRole handles PUT /api/v1/users/{id}/role.
func (h *UserHandler) ChangeRole(w http.ResponseWriter, r *http.Request) {
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

	var req changeRoleRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		respondError(w, r, err)
		return
	}

	parsedRole, ok := role.Parse(req.Role)
	if !ok {
		respondError(w, r, apierror.BadRequest("unknown role"))
		return
	}

	profile, err := h.users.ChangeRole(r.Context(), view, id, parsedRole)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toUserResponse(profile))
}

type setGroupRequest struct {
	// Null clears the link.
	GroupID *string `json:"group_id" validate:"omitempty,uuid4"`
}

// SetGroup handles PUT /api/v1/users/{id}/permission-group.
func (h *UserHandler) SetGroup(w http.ResponseWriter, r *http.Request) {
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

	var req setGroupRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		respondError(w, r, err)
		return
	}

	var groupID *shared.ID
	if req.GroupID != nil {
		gid, err := shared.IDFromString(*req.GroupID)
		if err != nil {
			respondError(w, r, apierror.BadRequest("invalid group_id"))
			return
		}
		groupID = &gid
	}

	profile, err := h.users.SetGroup(r.Context(), view, id, groupID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toUserResponse(profile))
}

// Approve handles POST /api/v1/users/{id}/approve.
func (h *UserHandler) Approve(w http.ResponseWriter, r *http.Request) {
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

	profile, err := h.users.Approve(r.Context(), view, id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toUserResponse(profile))
}

// Delete handles DELETE /api/v1/users/{id}.
func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
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

	if err := h.users.Delete(r.Context(), view, id); err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusNoContent, nil)
}
