package handler

import (
	"time"

	"github.com/planforge/api/pkg/domain/invite"
	"github.com/planforge/api/pkg/domain/permissiongroup"
	"github.com/planforge/api/pkg/domain/session"
	"github.com/planforge/api/pkg/domain/shared"
	"github.com/planforge/api/pkg/domain/tenant"
	"github.com/planforge/api/pkg/domain/user"
)

// SessionResponse is the wire shape of the caller's session state.
type SessionResponse struct {
	UID            string `json:"uid"`
	Email          string `json:"email"`
	RealRole       string `json:"real_role"`
	RealTenantID   string `json:"real_tenant_id"`
	ActiveRole     string `json:"active_role"`
	ActiveTenantID string `json:"active_tenant_id"`
	IsMasquerading bool   `json:"is_masquerading"`
	Operator       bool   `json:"operator"`
}

func toSessionResponse(view *session.ViewContext) SessionResponse {
	ident := view.Identity()
	return SessionResponse{
		UID:            ident.UID().String(),
		Email:          ident.Email(),
		RealRole:       string(ident.RealRole()),
		RealTenantID:   ident.RealTenantID().String(),
		ActiveRole:     string(view.ActiveRole()),
		ActiveTenantID: view.ActiveTenantID().String(),
		IsMasquerading: view.IsMasquerading(),
		Operator:       ident.IsOperator(),
	}
}

// UserResponse is the wire shape of a user profile.
type UserResponse struct {
	ID                 string    `json:"id"`
	TenantID           string    `json:"tenant_id"`
	Email              string    `json:"email"`
	Name               string    `json:"name"`
	Role               string    `json:"role"`
	PermissionGroupID  *string   `json:"permission_group_id,omitempty"`
	AssignedProjectIDs []string  `json:"assigned_project_ids"`
	Status             string    `json:"status"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

func toUserResponse(p *user.Profile) UserResponse {
	var groupID *string
	if gid := p.PermissionGroupID(); gid != nil {
		s := gid.String()
		groupID = &s
	}
	return UserResponse{
		ID:                 p.ID().String(),
		TenantID:           p.TenantID().String(),
		Email:              p.Email(),
		Name:               p.Name(),
		Role:               string(p.Role()),
		PermissionGroupID:  groupID,
		AssignedProjectIDs: shared.IDsToStrings(p.AssignedProjectIDs()),
		Status:             string(p.Status()),
		CreatedAt:          p.CreatedAt(),
		UpdatedAt:          p.UpdatedAt(),
	}
}

func toUserResponses(profiles []*user.Profile) []UserResponse {
	out := make([]UserResponse, len(profiles))
	for i, p := range profiles {
		out[i] = toUserResponse(p)
	}
	return out
}

// GroupResponse is the wire shape of a permission group.
type GroupResponse struct {
	ID                 string    `json:"id"`
	TenantID           string    `json:"tenant_id"`
	Name               string    `json:"name"`
	ProjectAccess      string    `json:"project_access"`
	TaskAccess         string    `json:"task_access"`
	ViewAccess         string    `json:"view_access"`
	ExportAccess       string    `json:"export_access"`
	SpecialPermissions []string  `json:"special_permissions"`
	Color              string    `json:"color"`
	Version            int       `json:"version"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

func toGroupResponse(g *permissiongroup.Group) GroupResponse {
	return GroupResponse{
		ID:                 g.ID().String(),
		TenantID:           g.TenantID().String(),
		Name:               g.Name(),
		ProjectAccess:      string(g.ProjectAccess()),
		TaskAccess:         string(g.TaskAccess()),
		ViewAccess:         string(g.ViewAccess()),
		ExportAccess:       string(g.ExportAccess()),
		SpecialPermissions: g.SpecialPermissions(),
		Color:              g.Color(),
		Version:            g.Version(),
		CreatedAt:          g.CreatedAt(),
		UpdatedAt:          g.UpdatedAt(),
	}
}

func toGroupResponses(groups []*permissiongroup.Group) []GroupResponse {
	out := make([]GroupResponse, len(groups))
	for i, g := range groups {
		out[i] = toGroupResponse(g)
	}
	return out
}

// TenantResponse is the wire shape of a tenant.
type TenantResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Code      string    `json:"code"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

func toTenantResponse(t *tenant.Tenant) TenantResponse {
	return TenantResponse{
		ID:        t.ID().String(),
		Name:      t.Name(),
		Code:      t.Code(),
		IsActive:  t.IsActive(),
		CreatedAt: t.CreatedAt(),
	}
}

// InviteResponse is the wire shape of an invite.
type InviteResponse struct {
	Code       string     `json:"code"`
	TenantID   string     `json:"tenant_id"`
	Role       string     `json:"role"`
	ProjectIDs []string   `json:"project_ids"`
	IsUsed     bool       `json:"is_used"`
	ExpiresAt  time.Time  `json:"expires_at"`
	CreatedAt  time.Time  `json:"created_at"`
	UsedAt     *time.Time `json:"used_at,omitempty"`
}

func toInviteResponse(inv *invite.Invite) InviteResponse {
	return InviteResponse{
		Code:       inv.Code(),
		TenantID:   inv.TenantID().String(),
		Role:       string(inv.Role()),
		ProjectIDs: shared.IDsToStrings(inv.ProjectIDs()),
		IsUsed:     inv.IsUsed(),
		ExpiresAt:  inv.ExpiresAt(),
		CreatedAt:  inv.CreatedAt(),
		UsedAt:     inv.UsedAt(),
	}
}
