package session

import (
	"errors"
	"testing"

	"github.com/planforge/api/pkg/domain/role"
	"github.com/planforge/api/pkg/domain/shared"
)

func testIdentity(t *testing.T, r role.Role) Identity {
	t.Helper()
	ident, err := NewIdentity(shared.NewID(), "user@example.com", r, shared.NewID(), false)
	if err != nil {
		t.Fatalf("NewIdentity: %v", err)
	}
	return ident
}

func TestNewViewContextIsNormal(t *testing.T) {
	ident := testIdentity(t, role.RoleAdmin)
	vc := NewViewContext(ident)

	if vc.IsMasquerading() {
		t.Error("fresh view context should not be masquerading")
	}
	if vc.ActiveRole() != ident.RealRole() {
		t.Errorf("active role = %s, want %s", vc.ActiveRole(), ident.RealRole())
	}
	if !vc.ActiveTenantID().Equals(ident.RealTenantID()) {
		t.Error("active tenant should default to real tenant")
	}
}

func TestSimulateRequiresSuperadmin(t *testing.T) {
	for _, r := range []role.Role{role.RoleClient, role.RoleTeamMember, role.RoleConsultant, role.RoleProjectManager, role.RoleAdmin} {
		vc := NewViewContext(testIdentity(t, r))
		target := role.RoleClient
		err := vc.Simulate(Simulation{ActiveRole: &target})
		if !errors.Is(err, ErrMasqueradeForbidden) {
			t.Errorf("role %s: expected ErrMasqueradeForbidden, got %v", r, err)
		}
		if vc.IsMasquerading() {
			t.Errorf("role %s: context must stay NORMAL after rejected simulation", r)
		}
	}
}

func TestSimulatePartialUpdate(t *testing.T) {
	ident := testIdentity(t, role.RoleSuperadmin)
	vc := NewViewContext(ident)

	otherTenant := shared.NewID()
	if err := vc.Simulate(Simulation{ActiveTenantID: &otherTenant}); err != nil {
		t.Fatalf("Simulate: %v", err)
	}

	if !vc.IsMasquerading() {
		t.Error("context should be SIMULATING after tenant change")
	}
	if vc.ActiveRole() != ident.RealRole() {
		t.Error("unsupplied field must keep its current value")
	}
	if !vc.ActiveTenantID().Equals(otherTenant) {
		t.Error("active tenant should be the simulated one")
	}

	// Second partial update changes only the role.
	lower := role.RoleTeamMember
	if err := vc.Simulate(Simulation{ActiveRole: &lower}); err != nil {
		t.Fatalf("Simulate: %v", err)
	}
	if vc.ActiveRole() != lower || !vc.ActiveTenantID().Equals(otherTenant) {
		t.Error("partial update must preserve the earlier overlay")
	}
}

func TestSimulateRejectsInvalidRole(t *testing.T) {
	vc := NewViewContext(testIdentity(t, role.RoleSuperadmin))
	bogus := role.Role("root")
	if err := vc.Simulate(Simulation{ActiveRole: &bogus}); err == nil {
		t.Error("expected validation error for unknown role")
	}
	if vc.IsMasquerading() {
		t.Error("failed simulation must not change state")
	}
}

func TestResetRoundTrip(t *testing.T) {
	ident := testIdentity(t, role.RoleSuperadmin)
	vc := NewViewContext(ident)

	for _, tenantID := range []shared.ID{shared.NewID(), shared.NewID(), shared.NewID()} {
		id := tenantID
		lower := role.RoleClient
		if err := vc.Simulate(Simulation{ActiveRole: &lower, ActiveTenantID: &id}); err != nil {
			t.Fatalf("Simulate: %v", err)
		}

		vc.Reset()

		if vc.IsMasquerading() {
			t.Error("reset must return to NORMAL")
		}
		if vc.ActiveRole() != ident.RealRole() {
			t.Errorf("reset role = %s, want %s", vc.ActiveRole(), ident.RealRole())
		}
		if !vc.ActiveTenantID().Equals(ident.RealTenantID()) {
			t.Error("reset must restore the exact real tenant")
		}
	}
}

func TestOverlayRoundTrip(t *testing.T) {
	ident := testIdentity(t, role.RoleSuperadmin)
	vc := NewViewContext(ident)
	lower := role.RoleConsultant
	otherTenant := shared.NewID()
	if err := vc.Simulate(Simulation{ActiveRole: &lower, ActiveTenantID: &otherTenant}); err != nil {
		t.Fatalf("Simulate: %v", err)
	}

	restored := NewViewContext(ident)
	restored.ApplyOverlay(vc.Overlay())

	if restored.ActiveRole() != lower || !restored.ActiveTenantID().Equals(otherTenant) {
		t.Error("overlay round-trip lost simulation state")
	}
	if !restored.IsMasquerading() {
		t.Error("restored context should be SIMULATING")
	}
}

func TestApplyOverlayIgnoredBelowSuperadmin(t *testing.T) {
	ident := testIdentity(t, role.RoleAdmin)
	vc := NewViewContext(ident)
	vc.ApplyOverlay(Overlay{ActiveRole: role.RoleSuperadmin, ActiveTenantID: shared.NewID()})

	if vc.IsMasquerading() {
		t.Error("stored overlays must never elevate a non-superadmin context")
	}
}
