package handler

import (
	"net/http"

	"github.com/planforge/api/internal/app"
	"github.com/planforge/api/pkg/domain/permissiongroup"
	"github.com/planforge/api/pkg/validator"
)

// GroupHandler serves permission group CRUD.
type GroupHandler struct {
	groups   *app.PermissionGroupService
	validate *validator.Validator
}

// NewGroupHandler creates a new GroupHandler.
func NewGroupHandler(groups *app.PermissionGroupService, validate *validator.Validator) *GroupHandler {
	return &GroupHandler{groups: groups, validate: validate}
}

type groupFlagsRequest struct {
	ProjectAccess      string   `json:"project_access" validate:"required,accesslevel"`
	TaskAccess         string   `json:"task_access" validate:"required,accesslevel"`
	ViewAccess         string   `json:"view_access" validate:"required,accesslevel"`
	ExportAccess       string   `json:"export_access" validate:"required,accesslevel"`
	SpecialPermissions []string `json:"special_permissions"`
}

func (req groupFlagsRequest) toFlags() permissiongroup.Flags {
	return permissiongroup.Flags{
		ProjectAccess:      permissiongroup.AccessLevel(req.ProjectAccess),
		TaskAccess:         permissiongroup.AccessLevel(req.TaskAccess),
		ViewAccess:         permissiongroup.AccessLevel(req.ViewAccess),
		ExportAccess:       permissiongroup.AccessLevel(req.ExportAccess),
		SpecialPermissions: req.SpecialPermissions,
	}
}

type createGroupRequest struct {
	Name  string            `json:"name" validate:"required,max=100"`
	Flags groupFlagsRequest `json:"flags" validate:"required"`
	Color string            `json:"color" validate:"omitempty,hexcolor"`
}

// Create handles POST /api/v1/permission-groups.
func (h *GroupHandler) Create(w http.ResponseWriter, r *http.Request) {
	view, err := viewFrom(r)
	if err != nil {
		respondError(w, r, err)
		return
	}

	var req createGroupRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		respondError(w, r, err)
		return
	}

	g, err := h.groups.Create(r.Context(), view, app.CreateGroupInput{
		Name:  req.Name,
		Flags: req.Flags.toFlags(),
		Color: req.Color,
	})
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, toGroupResponse(g))
}

// List handles GET /api/v1/permission-groups.
func (h *GroupHandler) List(w http.ResponseWriter, r *http.Request) {
	view, err := viewFrom(r)
	if err != nil {
		respondError(w, r, err)
		return
	}

	groups, err := h.groups.List(r.Context(), view)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toGroupResponses(groups))
}

// Get handles GET /api/v1/permission-groups/{id}.
func (h *GroupHandler) Get(w http.ResponseWriter, r *http.Request) {
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

	g, err := h.groups.Get(r.Context(), view, id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toGroupResponse(g))
}

type updateGroupRequest struct {
	Name  *string            `json:"name" validate:"omitempty,max=100"`
	Flags *groupFlagsRequest `json:"flags"`
	Color *string            `json:"color" validate:"omitempty,hexcolor"`
}

// Update handles PATCH /api/v1/permission-groups/{id}.
func (h *GroupHandler) Update(w http.ResponseWriter, r *http.Request) {
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

	var req updateGroupRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		respondError(w, r, err)
		return
	}

	in := app.UpdateGroupInput{Name: req.Name, Color: req.Color}
	if req.Flags != nil {
		flags := req.Flags.toFlags()
		in.Flags = &flags
	}

	g, err := h.groups.Update(r.Context(), view, id, in)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toGroupResponse(g))
}

// Delete handles DELETE /api/v1/permission-groups/{id}.
func (h *GroupHandler) Delete(w http.ResponseWriter, r *http.Request) {
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

	if err := h.groups.Delete(r.Context(), view, id); err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusNoContent, nil)
}
