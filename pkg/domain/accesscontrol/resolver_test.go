package accesscontrol

import (
	"testing"
	"time"

	"github.com/planforge/api/pkg/domain/permissiongroup"
	"github.com/planforge/api/pkg/domain/role"
	"github.com/planforge/api/pkg/domain/session"
	"github.com/planforge/api/pkg/domain/shared"
	"github.com/planforge/api/pkg/domain/user"
)

type recordingSink struct {
	dangling int
}

func (s *recordingSink) DanglingGroupRef(shared.ID, shared.ID, shared.ID) {
	s.dangling++
}

func testProfile(t *testing.T, tenantID shared.ID, r role.Role, groupID *shared.ID, projectIDs ...shared.ID) *user.Profile {
	t.Helper()
	now := time.Now().UTC()
	return user.Reconstitute(
		shared.NewID(), tenantID,
		"user@example.com", "Test User", "",
		r, groupID, projectIDs,
		user.StatusActive,
		now, now,
	)
}

func testGroup(t *testing.T, tenantID shared.ID, flags permissiongroup.Flags) *permissiongroup.Group {
	t.Helper()
	now := time.Now().UTC()
	return permissiongroup.Reconstitute(
		shared.NewID(), tenantID, "Test Group", flags, "#000000", 1, now, now,
	)
}

func viewFor(t *testing.T, r role.Role, tenantID shared.ID) *session.ViewContext {
	t.Helper()
	ident, err := session.NewIdentity(shared.NewID(), "user@example.com", r, tenantID, false)
	if err != nil {
		t.Fatalf("NewIdentity: %v", err)
	}
	return session.NewViewContext(ident)
}

func TestCanClientCannotEditProject(t *testing.T) {
	tenantID := shared.NewID()
	resolver := NewResolver(nil)
	subject := Subject{Profile: testProfile(t, tenantID, role.RoleClient, nil)}

	if resolver.Can(viewFor(t, role.RoleClient, tenantID), subject, ActionEdit, ResourceProject) {
		t.Error("client without a group must not edit projects")
	}
	if !resolver.Can(viewFor(t, role.RoleClient, tenantID), subject, ActionView, ResourceProject) {
		t.Error("client should still view projects")
	}
}

func TestCanGroupOverridesLegacyTable(t *testing.T) {
	tenantID := shared.NewID()
	resolver := NewResolver(nil)

	// The legacy table allows admins to delete projects; the group
	// forbids everything beyond reads. The group must win.
	group := testGroup(t, tenantID, permissiongroup.Flags{
		ProjectAccess: permissiongroup.AccessRead,
		TaskAccess:    permissiongroup.AccessRead,
		ViewAccess:    permissiongroup.AccessRead,
		ExportAccess:  permissiongroup.AccessNone,
	})
	groupID := group.ID()
	subject := Subject{
		Profile: testProfile(t, tenantID, role.RoleAdmin, &groupID),
		Group:   group,
	}
	view := viewFor(t, role.RoleAdmin, tenantID)

	if resolver.Can(view, subject, ActionDelete, ResourceProject) {
		t.Error("group flag must override the more permissive legacy table")
	}
	if resolver.Can(view, subject, ActionExport, ResourceTask) {
		t.Error("export denied by group must stay denied")
	}
	if !resolver.Can(view, subject, ActionView, ResourceProject) {
		t.Error("group read flag should allow viewing")
	}

	// And the other direction: a generous group must widen a weak role.
	wideGroup := testGroup(t, tenantID, permissiongroup.Flags{
		ProjectAccess: permissiongroup.AccessManage,
		TaskAccess:    permissiongroup.AccessManage,
		ViewAccess:    permissiongroup.AccessManage,
		ExportAccess:  permissiongroup.AccessManage,
	})
	wideID := wideGroup.ID()
	clientSubject := Subject{
		Profile: testProfile(t, tenantID, role.RoleClient, &wideID),
		Group:   wideGroup,
	}
	if !resolver.Can(viewFor(t, role.RoleClient, tenantID), clientSubject, ActionDelete, ResourceProject) {
		t.Error("group manage flag must override the read-only legacy client role")
	}
}

func TestCanDanglingGroupFailsClosed(t *testing.T) {
	tenantID := shared.NewID()
	sink := &recordingSink{}
	resolver := NewResolver(sink)

	// Group reference points at a deleted group.
	missing := shared.NewID()
	subject := Subject{Profile: testProfile(t, tenantID, role.RoleAdmin, &missing)}
	view := viewFor(t, role.RoleAdmin, tenantID)

	if resolver.Can(view, subject, ActionEdit, ResourceProject) {
		t.Error("dangling group reference must deny, not fall back to the legacy table")
	}
	if sink.dangling != 1 {
		t.Errorf("expected 1 dangling diagnostic, got %d", sink.dangling)
	}

	// A cross-tenant group is equally dangling.
	foreign := testGroup(t, shared.NewID(), permissiongroup.Flags{
		ProjectAccess: permissiongroup.AccessManage,
		TaskAccess:    permissiongroup.AccessManage,
		ViewAccess:    permissiongroup.AccessManage,
		ExportAccess:  permissiongroup.AccessManage,
	})
	foreignID := foreign.ID()
	crossSubject := Subject{
		Profile: testProfile(t, tenantID, role.RoleAdmin, &foreignID),
		Group:   foreign,
	}
	if resolver.Can(view, crossSubject, ActionEdit, ResourceProject) {
		t.Error("cross-tenant group reference must deny")
	}
}

func TestCanSuperadminBypass(t *testing.T) {
	tenantID := shared.NewID()
	resolver := NewResolver(nil)
	view := viewFor(t, role.RoleSuperadmin, tenantID)

	// No profile at all: superadmin weight still allows ordinary actions.
	if !resolver.Can(view, Subject{}, ActionDelete, ResourceProject) {
		t.Error("superadmin weight should bypass ordinary checks")
	}

	// Non-bypassable actions need the operator flag, not weight.
	if resolver.Can(view, Subject{}, ActionDelete, ResourceUser) {
		t.Error("irreversible user deletion must not be granted by weight alone")
	}

	operator, err := session.NewIdentity(shared.NewID(), "op@example.com", role.RoleSuperadmin, tenantID, true)
	if err != nil {
		t.Fatalf("NewIdentity: %v", err)
	}
	if !resolver.Can(session.NewViewContext(operator), Subject{}, ActionDelete, ResourceUser) {
		t.Error("distinguished operators may perform non-bypassable actions")
	}
}

func TestCanSimulatedRoleGovernsReads(t *testing.T) {
	tenantID := shared.NewID()
	resolver := NewResolver(nil)

	ident, err := session.NewIdentity(shared.NewID(), "op@example.com", role.RoleSuperadmin, tenantID, false)
	if err != nil {
		t.Fatalf("NewIdentity: %v", err)
	}
	view := session.NewViewContext(ident)
	lower := role.RoleClient
	if err := view.Simulate(session.Simulation{ActiveRole: &lower}); err != nil {
		t.Fatalf("Simulate: %v", err)
	}

	subject := Subject{Profile: testProfile(t, tenantID, role.RoleClient, nil)}
	if resolver.Can(view, subject, ActionEdit, ResourceProject) {
		t.Error("simulated client must lose the superadmin bypass on read paths")
	}
}

func TestCanInactiveProfileDenied(t *testing.T) {
	tenantID := shared.NewID()
	resolver := NewResolver(nil)
	now := time.Now().UTC()
	pending := user.Reconstitute(
		shared.NewID(), tenantID, "p@example.com", "Pending", "",
		role.RoleAdmin, nil, nil, user.StatusPending, now, now,
	)

	if resolver.Can(viewFor(t, role.RoleAdmin, tenantID), Subject{Profile: pending}, ActionView, ResourceProject) {
		t.Error("pending profiles hold no access")
	}
}

func TestCanTargetTenantScoping(t *testing.T) {
	tenantID := shared.NewID()
	otherTenant := shared.NewID()
	resolver := NewResolver(nil)
	subject := Subject{Profile: testProfile(t, tenantID, role.RoleAdmin, nil)}
	view := viewFor(t, role.RoleAdmin, tenantID)

	if !resolver.CanTarget(view, subject, ActionEdit, ResourceProject, TargetRef{TenantID: tenantID}) {
		t.Error("same-tenant target should be allowed")
	}
	if resolver.CanTarget(view, subject, ActionEdit, ResourceProject, TargetRef{TenantID: otherTenant}) {
		t.Error("cross-tenant target must be denied for non-superadmins")
	}
	if resolver.CanTarget(view, subject, ActionEdit, ResourceProject, TargetRef{}) {
		t.Error("missing target tenant is ambiguous and must deny")
	}
}

func TestCanTargetProjectAssignment(t *testing.T) {
	tenantID := shared.NewID()
	assigned := shared.NewID()
	unassigned := shared.NewID()
	resolver := NewResolver(nil)
	subject := Subject{Profile: testProfile(t, tenantID, role.RoleTeamMember, nil, assigned)}
	view := viewFor(t, role.RoleTeamMember, tenantID)

	if !resolver.CanTarget(view, subject, ActionEdit, ResourceTask, TargetRef{TenantID: tenantID, ProjectID: &assigned}) {
		t.Error("team member should edit tasks in an assigned project")
	}
	if resolver.CanTarget(view, subject, ActionEdit, ResourceTask, TargetRef{TenantID: tenantID, ProjectID: &unassigned}) {
		t.Error("team member must not reach unassigned projects")
	}

	// Tenant-wide roles are not project-scoped.
	pm := Subject{Profile: testProfile(t, tenantID, role.RoleProjectManager, nil)}
	if !resolver.CanTarget(viewFor(t, role.RoleProjectManager, tenantID), pm, ActionEdit, ResourceTask, TargetRef{TenantID: tenantID, ProjectID: &unassigned}) {
		t.Error("project managers operate tenant-wide")
	}
}

func TestCanNilInputsDeny(t *testing.T) {
	resolver := NewResolver(nil)
	if resolver.Can(nil, Subject{}, ActionView, ResourceProject) {
		t.Error("nil view context must deny")
	}
	tenantID := shared.NewID()
	if resolver.Can(viewFor(t, role.RoleAdmin, tenantID), Subject{}, ActionView, ResourceProject) {
		t.Error("missing profile must deny below superadmin weight")
	}
}
