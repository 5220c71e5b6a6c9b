package role

import "testing"

func TestLevelOrdering(t *testing.T) {
	ordered := All()
	for i := 1; i < len(ordered); i++ {
		lower, higher := ordered[i-1], ordered[i]
		if lower.Level() >= higher.Level() {
			t.Errorf("expected %s (%d) < %s (%d)", lower, lower.Level(), higher, higher.Level())
		}
	}
}

func TestLevelOf(t *testing.T) {
	tests := []struct {
		input string
		want  int
	}{
		{"client", WeightClient},
		{"team_member", WeightTeamMember},
		{"consultant", WeightConsultant},
		{"pm", WeightProjectManager},
		{"admin", WeightAdmin},
		{"superadmin", WeightSuperadmin},
		// Deprecated synonyms resolve to canonical weights.
		{"app_admin", WeightAdmin},
		{"project_manager", WeightProjectManager},
		{"super_admin", WeightSuperadmin},
		{"customer", WeightClient},
		{"member", WeightTeamMember},
		// Unknown or absent roles grant nothing.
		{"", WeightNone},
		{"root", WeightNone},
		{"ADMIN", WeightNone},
	}

	for _, tt := range tests {
		if got := LevelOf(tt.input); got != tt.want {
			t.Errorf("LevelOf(%q) = %d, want %d", tt.input, got, tt.want)
		}
	}
}

func TestLevelOfStable(t *testing.T) {
	for _, r := range All() {
		first := LevelOf(r.String())
		for i := 0; i < 3; i++ {
			if got := LevelOf(r.String()); got != first {
				t.Fatalf("LevelOf(%q) not stable: %d then %d", r, first, got)
			}
		}
	}
}

func TestParse(t *testing.T) {
	if r, ok := Parse("app_admin"); !ok || r != RoleAdmin {
		t.Errorf("Parse(app_admin) = %v, %v; want admin, true", r, ok)
	}
	if _, ok := Parse("nonsense"); ok {
		t.Error("Parse(nonsense) should fail")
	}
}

func TestCanGrant(t *testing.T) {
	tests := []struct {
		granter Role
		target  Role
		want    bool
	}{
		{RoleAdmin, RoleProjectManager, true},
		{RoleAdmin, RoleAdmin, false},
		{RoleAdmin, RoleSuperadmin, false},
		{RoleProjectManager, RoleTeamMember, true},
		{RoleProjectManager, RoleProjectManager, false},
		{RoleTeamMember, RoleClient, true},
		{RoleClient, RoleClient, false},
		// Superadmin may grant anything, including superadmin.
		{RoleSuperadmin, RoleSuperadmin, true},
		{RoleSuperadmin, RoleAdmin, true},
		// Unknown targets are never grantable.
		{RoleSuperadmin, Role("root"), false},
	}

	for _, tt := range tests {
		if got := tt.granter.CanGrant(tt.target); got != tt.want {
			t.Errorf("%s.CanGrant(%s) = %v, want %v", tt.granter, tt.target, got, tt.want)
		}
	}
}

func TestIsSuperadmin(t *testing.T) {
	if !RoleSuperadmin.IsSuperadmin() {
		t.Error("superadmin should be superadmin weight")
	}
	if RoleAdmin.IsSuperadmin() {
		t.Error("admin is below superadmin weight")
	}
}
