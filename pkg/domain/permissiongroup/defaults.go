package permissiongroup

import "github.com/planforge/api/pkg/domain/role"

// Template describes a permission group to create during tenant
// population when the template tenant carries no groups of its own.
type Template struct {
	Name  string
	Flags Flags
	Color string
}

// DefaultTemplates returns the built-in group set used as a fallback
// when the template tenant is empty.
func DefaultTemplates() []Template {
	return []Template{
		{
			Name: "Administrators",
			Flags: Flags{
				ProjectAccess: AccessManage,
				TaskAccess:    AccessManage,
				ViewAccess:    AccessManage,
				ExportAccess:  AccessManage,
				SpecialPermissions: []string{
					SpecialManageUsers,
					SpecialManageInvites,
					SpecialManageGroups,
					SpecialManageTenant,
				},
			},
			Color: "#d32f2f",
		},
		{
			Name: "Project Managers",
			Flags: Flags{
				ProjectAccess:      AccessManage,
				TaskAccess:         AccessManage,
				ViewAccess:         AccessWrite,
				ExportAccess:       AccessWrite,
				SpecialPermissions: []string{SpecialManageInvites},
			},
			Color: "#1976d2",
		},
		{
			Name: "Consultants",
			Flags: Flags{
				ProjectAccess: AccessRead,
				TaskAccess:    AccessWrite,
				ViewAccess:    AccessWrite,
				ExportAccess:  AccessRead,
			},
			Color: "#7b1fa2",
		},
		{
			Name: "Team Members",
			Flags: Flags{
				ProjectAccess: AccessRead,
				TaskAccess:    AccessWrite,
				ViewAccess:    AccessRead,
				ExportAccess:  AccessRead,
			},
			Color: "#388e3c",
		},
		{
			Name: "Clients",
			Flags: Flags{
				ProjectAccess: AccessRead,
				TaskAccess:    AccessRead,
				ViewAccess:    AccessRead,
				ExportAccess:  AccessNone,
			},
			Color: "#f57c00",
		},
	}
}

// RoleGroupMappingVersion identifies the role→group linking table in use.
// Bump it whenever the mapping below changes so population runs are
// attributable to a table version.
const RoleGroupMappingVersion = 1

// roleGroupMapping links legacy roles to default group names. Versioned
// and fixed: changing an entry requires a version bump, never an in-place
// redefinition.
var roleGroupMapping = map[role.Role]string{
	role.RoleAdmin:          "Administrators",
	role.RoleProjectManager: "Project Managers",
	role.RoleConsultant:     "Consultants",
	role.RoleTeamMember:     "Team Members",
	role.RoleClient:         "Clients",
}

// GroupNameForRole returns the default group name for a legacy role.
// Superadmins are intentionally absent: platform operators are governed
// by role weight, never by tenant policy.
func GroupNameForRole(r role.Role) (string, bool) {
	name, ok := roleGroupMapping[r]
	return name, ok
}
