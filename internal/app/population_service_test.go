package app

import (
	"context"
	"fmt"
	"testing"

	"github.com/planforge/api/pkg/domain/permissiongroup"
	"github.com/planforge/api/pkg/domain/role"
	"github.com/planforge/api/pkg/domain/session"
	"github.com/planforge/api/pkg/domain/shared"
	"github.com/planforge/api/pkg/domain/tenant"
	"github.com/planforge/api/pkg/domain/user"
	"github.com/planforge/api/pkg/logger"
)

type populationFixture struct {
	svc     *PopulationService
	tenants *memTenants
	groups  *memGroups
	users   *memUsers
	system  *tenant.Tenant
}

func newPopulationFixture(t *testing.T) *populationFixture {
	t.Helper()
	tenants := newMemTenants()
	groups := newMemGroups()
	users := newMemUsers()
	log := logger.NewNop()

	access := NewAccessService(users, groups, NewAuditService(&memAudits{}, log), log)
	svc := NewPopulationService(tenants, groups, users, access, log)

	system, err := tenant.NewTenant("System", tenant.SystemTenantCode, shared.NewID())
	if err != nil {
		t.Fatalf("NewTenant: %v", err)
	}
	if err := tenants.Create(context.Background(), system); err != nil {
		t.Fatalf("seed system tenant: %v", err)
	}
	return &populationFixture{svc: svc, tenants: tenants, groups: groups, users: users, system: system}
}

func (f *populationFixture) seedTenant(t *testing.T, code string) *tenant.Tenant {
	t.Helper()
	tn, err := tenant.NewTenant("Tenant "+code, code, shared.NewID())
	if err != nil {
		t.Fatalf("NewTenant: %v", err)
	}
	if err := f.tenants.Create(context.Background(), tn); err != nil {
		t.Fatalf("seed tenant: %v", err)
	}
	return tn
}

func (f *populationFixture) seedUser(t *testing.T, tenantID shared.ID, r role.Role) *user.Profile {
	t.Helper()
	email := fmt.Sprintf("%s-%s@example.com", r, shared.NewID())
	p, err := user.NewProvisionedProfile(tenantID, email, "Seeded", "x", r, nil)
	if err != nil {
		t.Fatalf("NewProvisionedProfile: %v", err)
	}
	if err := f.users.Create(context.Background(), p); err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return p
}

func superadminView(t *testing.T, tenantID shared.ID) *session.ViewContext {
	t.Helper()
	ident, err := session.NewIdentity(shared.NewID(), "op@example.com", role.RoleSuperadmin, tenantID, true)
	if err != nil {
		t.Fatalf("NewIdentity: %v", err)
	}
	return session.NewViewContext(ident)
}

func TestPopulateCreatesDefaultGroupsAndLinksUsers(t *testing.T) {
	f := newPopulationFixture(t)
	target := f.seedTenant(t, "acme")
	admin := f.seedUser(t, target.ID(), role.RoleAdmin)
	member := f.seedUser(t, target.ID(), role.RoleTeamMember)
	f.seedUser(t, target.ID(), role.RoleSuperadmin) // deliberately unmapped

	report, err := f.svc.Populate(context.Background(), superadminView(t, f.system.ID()), target.ID())
	if err != nil {
		t.Fatalf("Populate: %v", err)
	}

	if got, want := len(report.GroupsCreated), len(permissiongroup.DefaultTemplates()); got != want {
		t.Errorf("groups created = %d, want %d", got, want)
	}
	// The superadmin has no mapped group and must stay unlinked.
	if report.UsersLinked != 2 {
		t.Errorf("users linked = %d, want 2", report.UsersLinked)
	}

	adminAfter, err := f.users.GetByID(context.Background(), admin.ID())
	if err != nil {
		t.Fatalf("reload admin: %v", err)
	}
	if adminAfter.PermissionGroupID() == nil {
		t.Fatal("admin must be linked to a group")
	}
	linked, err := f.groups.GetByID(context.Background(), *adminAfter.PermissionGroupID())
	if err != nil {
		t.Fatalf("load linked group: %v", err)
	}
	if linked.Name() != "Administrators" {
		t.Errorf("admin linked to %q, want Administrators", linked.Name())
	}
	if !linked.TenantID().Equals(target.ID()) {
		t.Error("linked group must live in the target tenant")
	}

	memberAfter, _ := f.users.GetByID(context.Background(), member.ID())
	if memberAfter.PermissionGroupID() == nil {
		t.Error("team member must be linked to a group")
	}
}

func TestPopulateIsIdempotent(t *testing.T) {
	f := newPopulationFixture(t)
	target := f.seedTenant(t, "acme")
	f.seedUser(t, target.ID(), role.RoleAdmin)
	f.seedUser(t, target.ID(), role.RoleClient)

	view := superadminView(t, f.system.ID())
	first, err := f.svc.Populate(context.Background(), view, target.ID())
	if err != nil {
		t.Fatalf("first Populate: %v", err)
	}
	if len(first.GroupsCreated) == 0 || first.UsersLinked != 2 {
		t.Fatalf("first run: created=%d linked=%d", len(first.GroupsCreated), first.UsersLinked)
	}

	second, err := f.svc.Populate(context.Background(), view, target.ID())
	if err != nil {
		t.Fatalf("second Populate: %v", err)
	}
	if len(second.GroupsCreated) != 0 {
		t.Errorf("second run created %d groups, want 0", len(second.GroupsCreated))
	}
	if len(second.GroupsSkipped) != len(first.GroupsCreated) {
		t.Errorf("second run skipped %d groups, want %d", len(second.GroupsSkipped), len(first.GroupsCreated))
	}
	if second.UsersLinked != 0 {
		t.Errorf("second run linked %d users, want 0", second.UsersLinked)
	}
	if second.UsersSkipped != 2 {
		t.Errorf("second run skipped %d users, want 2", second.UsersSkipped)
	}
}

func TestPopulateClonesTemplateTenantGroups(t *testing.T) {
	f := newPopulationFixture(t)

	// The template tenant carries a customized group set; clones must
	// mirror it, not the built-ins.
	custom, err := permissiongroup.NewGroup(f.system.ID(), "Field Agents", permissiongroup.Flags{
		ProjectAccess: permissiongroup.AccessRead,
		TaskAccess:    permissiongroup.AccessWrite,
		ViewAccess:    permissiongroup.AccessRead,
		ExportAccess:  permissiongroup.AccessNone,
	}, "#123456")
	if err != nil {
		t.Fatalf("NewGroup: %v", err)
	}
	if err := f.groups.Create(context.Background(), custom); err != nil {
		t.Fatalf("seed template group: %v", err)
	}

	target := f.seedTenant(t, "acme")
	report, err := f.svc.Populate(context.Background(), superadminView(t, f.system.ID()), target.ID())
	if err != nil {
		t.Fatalf("Populate: %v", err)
	}
	if len(report.GroupsCreated) != 1 || report.GroupsCreated[0] != "Field Agents" {
		t.Fatalf("groups created = %v, want [Field Agents]", report.GroupsCreated)
	}

	clone, err := f.groups.GetByTenantAndName(context.Background(), target.ID(), "Field Agents")
	if err != nil {
		t.Fatalf("load clone: %v", err)
	}
	if clone.ID().Equals(custom.ID()) {
		t.Error("clone must get its own identity")
	}
	if clone.TaskAccess() != permissiongroup.AccessWrite {
		t.Error("clone must carry the template's flags")
	}
}

func TestPopulateRequiresSuperadmin(t *testing.T) {
	f := newPopulationFixture(t)
	target := f.seedTenant(t, "acme")

	ident, err := session.NewIdentity(shared.NewID(), "admin@example.com", role.RoleAdmin, target.ID(), false)
	if err != nil {
		t.Fatalf("NewIdentity: %v", err)
	}
	if _, err := f.svc.Populate(context.Background(), session.NewViewContext(ident), target.ID()); !shared.IsForbidden(err) {
		t.Fatalf("expected forbidden, got %v", err)
	}
}

func TestPopulateCollectsGroupCreateFailures(t *testing.T) {
	// Scenario: the store fails transiently while creating one group.
	// The run keeps going, reports the failure, and the next run heals
	// the gap.
	f := newPopulationFixture(t)
	target := f.seedTenant(t, "acme")
	f.groups.failCreate["Administrators"] = fmt.Errorf("connection reset")

	view := superadminView(t, f.system.ID())
	report, err := f.svc.Populate(context.Background(), view, target.ID())
	if err != nil {
		t.Fatalf("Populate: %v", err)
	}

	want := len(permissiongroup.DefaultTemplates()) - 1
	if len(report.GroupsCreated) != want {
		t.Errorf("groups created = %d, want %d", len(report.GroupsCreated), want)
	}
	if len(report.Errors) != 1 {
		t.Fatalf("errors collected = %v, want exactly one", report.Errors)
	}
	if _, err := f.groups.GetByTenantAndName(context.Background(), target.ID(), "Administrators"); err == nil {
		t.Fatal("failed group must not exist after the run")
	}

	second, err := f.svc.Populate(context.Background(), view, target.ID())
	if err != nil {
		t.Fatalf("second Populate: %v", err)
	}
	if len(second.Errors) != 0 {
		t.Errorf("second run errors = %v, want none", second.Errors)
	}
	if len(second.GroupsCreated) != 1 || second.GroupsCreated[0] != "Administrators" {
		t.Errorf("second run created %v, want [Administrators]", second.GroupsCreated)
	}
}

func TestPopulateCollectsLinkFailures(t *testing.T) {
	f := newPopulationFixture(t)
	target := f.seedTenant(t, "acme")
	f.seedUser(t, target.ID(), role.RoleAdmin)
	f.users.failLink = fmt.Errorf("connection reset")

	view := superadminView(t, f.system.ID())
	report, err := f.svc.Populate(context.Background(), view, target.ID())
	if err != nil {
		t.Fatalf("Populate: %v", err)
	}

	// Group creation succeeded; only the link pass failed, and the
	// report says so instead of the run aborting.
	if got, want := len(report.GroupsCreated), len(permissiongroup.DefaultTemplates()); got != want {
		t.Errorf("groups created = %d, want %d", got, want)
	}
	if report.UsersLinked != 0 {
		t.Errorf("users linked = %d, want 0", report.UsersLinked)
	}
	if len(report.Errors) != 1 {
		t.Fatalf("errors collected = %v, want exactly one", report.Errors)
	}

	second, err := f.svc.Populate(context.Background(), view, target.ID())
	if err != nil {
		t.Fatalf("second Populate: %v", err)
	}
	if second.UsersLinked != 1 {
		t.Errorf("second run linked %d users, want 1", second.UsersLinked)
	}
}

func TestPopulateSimulatedRoleCannotBlockRun(t *testing.T) {
	// Scenario: a superadmin simulating a low-weight role still holds the
	// real superadmin role; population keys off the real role.
	f := newPopulationFixture(t)
	target := f.seedTenant(t, "acme")

	view := superadminView(t, f.system.ID())
	lower := role.RoleClient
	if err := view.Simulate(session.Simulation{ActiveRole: &lower}); err != nil {
		t.Fatalf("Simulate: %v", err)
	}
	if _, err := f.svc.Populate(context.Background(), view, target.ID()); err != nil {
		t.Fatalf("Populate under simulation: %v", err)
	}
}
