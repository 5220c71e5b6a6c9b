package accesscontrol

import (
	"github.com/planforge/api/pkg/domain/permissiongroup"
	"github.com/planforge/api/pkg/domain/role"
	"github.com/planforge/api/pkg/domain/session"
	"github.com/planforge/api/pkg/domain/shared"
	"github.com/planforge/api/pkg/domain/user"
)

// Subject bundles what is known about the acting user when resolving a
// permission: the profile and, when the profile references one, the
// loaded permission group.
type Subject struct {
	Profile *user.Profile
	// Group is the resolved permission group the profile references.
	// Nil when the profile has no group reference, or when the
	// reference is dangling (deleted or cross-tenant).
	Group *permissiongroup.Group
}

// hasDanglingGroupRef reports whether the profile references a group
// that could not be resolved within its own tenant.
func (s Subject) hasDanglingGroupRef() bool {
	if s.Profile == nil {
		return false
	}
	refID := s.Profile.PermissionGroupID()
	if refID == nil {
		return false
	}
	if s.Group == nil {
		return true
	}
	return !s.Group.ID().Equals(*refID) ||
		!s.Group.TenantID().Equals(s.Profile.TenantID())
}

// TargetRef identifies the resource instance a check applies to, for
// resource-scoped resolution.
type TargetRef struct {
	TenantID  shared.ID
	ProjectID *shared.ID
}

// DiagnosticSink receives resolver diagnostics. The resolver itself never
// errors; broken references fail closed and are reported here instead.
type DiagnosticSink interface {
	// DanglingGroupRef is emitted once per resolution that denied
	// because the profile's permission group reference is broken.
	DanglingGroupRef(profileID shared.ID, groupID shared.ID, tenantID shared.ID)
}

// Resolver is the pure permission decision engine. It is side-effect-free
// (apart from diagnostics), never errors, and denies on any ambiguity.
type Resolver struct {
	diagnostics DiagnosticSink
}

// NewResolver creates a Resolver. The sink may be nil.
func NewResolver(sink DiagnosticSink) *Resolver {
	return &Resolver{diagnostics: sink}
}

// Can decides whether the acting user may perform act on res. It uses
// the *effective* role from the view context, so operator simulations
// visibly change what is permitted on read paths.
func (r *Resolver) Can(view *session.ViewContext, subject Subject, act Action, res Resource) bool {
	if view == nil {
		return false
	}

	// Non-bypassable actions are gated on the distinguished operator
	// flag of the real identity, never on role weight.
	if IsNonBypassable(act, res) {
		return view.Identity().IsOperator()
	}

	if view.ActiveRole().Level() >= role.WeightSuperadmin {
		return true
	}

	if subject.Profile == nil || !subject.Profile.IsActive() {
		return false
	}

	// A dangling group reference fails closed: the (possibly more
	// permissive) legacy table must never silently take over.
	if subject.hasDanglingGroupRef() {
		r.reportDangling(subject)
		return false
	}

	if subject.Group != nil && subject.Group.TenantID().Equals(subject.Profile.TenantID()) {
		return groupAllows(subject.Group, act, res)
	}

	return legacyAllows(view.ActiveRole(), act, res)
}

// CanTarget decides a resource-scoped check: on top of Can, the target
// must live in the effective tenant, and principals below tenant-wide
// weight must be assigned to the target's parent project.
func (r *Resolver) CanTarget(view *session.ViewContext, subject Subject, act Action, res Resource, target TargetRef) bool {
	if !r.Can(view, subject, act, res) {
		return false
	}
	if view.ActiveRole().Level() >= role.WeightSuperadmin {
		return true
	}

	if target.TenantID.IsZero() || !target.TenantID.Equals(view.ActiveTenantID()) {
		return false
	}

	if isProjectScoped(view.ActiveRole()) && target.ProjectID != nil {
		if subject.Profile == nil {
			return false
		}
		return subject.Profile.IsAssignedToProject(*target.ProjectID)
	}
	return true
}

func (r *Resolver) reportDangling(subject Subject) {
	if r.diagnostics == nil || subject.Profile == nil {
		return
	}
	refID := subject.Profile.PermissionGroupID()
	if refID == nil {
		return
	}
	r.diagnostics.DanglingGroupRef(subject.Profile.ID(), *refID, subject.Profile.TenantID())
}

// isProjectScoped reports whether the role only sees its assigned
// projects rather than the whole tenant.
func isProjectScoped(r role.Role) bool {
	return r.Level() < role.WeightProjectManager
}

// groupAllows evaluates a permission group's flag for (res, act).
func groupAllows(g *permissiongroup.Group, act Action, res Resource) bool {
	if act == ActionExport {
		return g.ExportAccess().AtLeast(permissiongroup.AccessRead)
	}

	switch res {
	case ResourceProject:
		return levelAllows(g.ProjectAccess(), act)
	case ResourceTask:
		return levelAllows(g.TaskAccess(), act)
	case ResourceView:
		return levelAllows(g.ViewAccess(), act)
	case ResourceUser:
		if act == ActionView {
			return g.ViewAccess().AtLeast(permissiongroup.AccessRead)
		}
		return g.HasSpecial(permissiongroup.SpecialManageUsers)
	case ResourceInvite:
		return g.HasSpecial(permissiongroup.SpecialManageInvites)
	case ResourcePermissionGroup:
		if act == ActionView {
			return g.ViewAccess().AtLeast(permissiongroup.AccessRead)
		}
		return g.HasSpecial(permissiongroup.SpecialManageGroups)
	case ResourceTenant:
		if act == ActionView {
			return true
		}
		return g.HasSpecial(permissiongroup.SpecialManageTenant)
	}
	return false
}

// levelAllows maps an action onto the minimum access level required.
func levelAllows(level permissiongroup.AccessLevel, act Action) bool {
	switch act {
	case ActionView:
		return level.AtLeast(permissiongroup.AccessRead)
	case ActionCreate, ActionEdit:
		return level.AtLeast(permissiongroup.AccessWrite)
	case ActionDelete:
		return level.AtLeast(permissiongroup.AccessManage)
	}
	return false
}

// legacyCapabilities is the static legacy-role capability table,
// consulted only for users without a governing permission group.
var legacyCapabilities = map[role.Role]map[Resource][]Action{
	role.RoleAdmin: {
		ResourceProject:         {ActionView, ActionCreate, ActionEdit, ActionDelete, ActionExport},
		ResourceTask:            {ActionView, ActionCreate, ActionEdit, ActionDelete, ActionExport},
		ResourceView:            {ActionView, ActionCreate, ActionEdit, ActionDelete, ActionExport},
		ResourceUser:            {ActionView, ActionCreate, ActionEdit},
		ResourceTenant:          {ActionView, ActionEdit},
		ResourcePermissionGroup: {ActionView, ActionCreate, ActionEdit, ActionDelete},
		ResourceInvite:          {ActionView, ActionCreate, ActionEdit, ActionDelete},
	},
	role.RoleProjectManager: {
		ResourceProject: {ActionView, ActionCreate, ActionEdit, ActionDelete, ActionExport},
		ResourceTask:    {ActionView, ActionCreate, ActionEdit, ActionDelete, ActionExport},
		ResourceView:    {ActionView, ActionCreate, ActionEdit, ActionExport},
		ResourceUser:    {ActionView},
		ResourceTenant:  {ActionView},
	},
	role.RoleConsultant: {
		ResourceProject: {ActionView},
		ResourceTask:    {ActionView, ActionCreate, ActionEdit},
		ResourceView:    {ActionView, ActionExport},
		ResourceUser:    {ActionView},
	},
	role.RoleTeamMember: {
		ResourceProject: {ActionView},
		ResourceTask:    {ActionView, ActionCreate, ActionEdit},
		ResourceView:    {ActionView},
		ResourceUser:    {ActionView},
	},
	role.RoleClient: {
		ResourceProject: {ActionView},
		ResourceTask:    {ActionView},
		ResourceView:    {ActionView},
	},
}

// legacyAllows consults the static legacy-role capability table.
func legacyAllows(r role.Role, act Action, res Resource) bool {
	caps, ok := legacyCapabilities[r]
	if !ok {
		return false
	}
	for _, allowed := range caps[res] {
		if allowed == act {
			return true
		}
	}
	return false
}
