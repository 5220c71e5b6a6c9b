// Package role defines the legacy role enum and its numeric weight scale.
//
// Every role maps to a fixed weight used for hierarchy comparisons
// (who may grant what, who may masquerade). The weight table is
// append-only: existing weights are never renumbered, and new roles
// may only occupy unused gaps.
package role

// Role represents a user's legacy role within a tenant.
type Role string

const (
	RoleClient         Role = "client"
	RoleTeamMember     Role = "team_member"
	RoleConsultant     Role = "consultant"
	RoleProjectManager Role = "pm"
	RoleAdmin          Role = "admin"
	RoleSuperadmin     Role = "superadmin"
)

// Weight constants for the role scale. Gaps are reserved for future roles.
const (
	WeightNone           = 0
	WeightClient         = 10
	WeightTeamMember     = 20
	WeightConsultant     = 40
	WeightProjectManager = 60
	WeightAdmin          = 80
	WeightSuperadmin     = 100
)

// roleWeights is the canonical, append-only weight table.
// Never renumber an existing entry.
var roleWeights = map[Role]int{
	RoleClient:         WeightClient,
	RoleTeamMember:     WeightTeamMember,
	RoleConsultant:     WeightConsultant,
	RoleProjectManager: WeightProjectManager,
	RoleAdmin:          WeightAdmin,
	RoleSuperadmin:     WeightSuperadmin,
}

// synonyms maps deprecated role identifiers still present in older user
// records to their canonical role. Append-only: entries are never removed
// while any stored profile may still carry them.
var synonyms = map[string]Role{
	"customer":        RoleClient,
	"member":          RoleTeamMember,
	"staff":           RoleTeamMember,
	"contractor":      RoleConsultant,
	"project_manager": RoleProjectManager,
	"app_admin":       RoleAdmin,
	"super_admin":     RoleSuperadmin,
}

// Parse resolves a stored role string (canonical or deprecated synonym)
// to its canonical Role. Returns false for unknown identifiers.
func Parse(s string) (Role, bool) {
	r := Role(s)
	if _, ok := roleWeights[r]; ok {
		return r, true
	}
	if canonical, ok := synonyms[s]; ok {
		return canonical, true
	}
	return "", false
}

// LevelOf returns the numeric weight for a stored role string.
// Unknown or absent roles weigh 0 and therefore grant no access.
func LevelOf(s string) int {
	r, ok := Parse(s)
	if !ok {
		return WeightNone
	}
	return roleWeights[r]
}

// Level returns the numeric weight of the role, 0 if unknown.
func (r Role) Level() int {
	return roleWeights[r]
}

// IsValid checks if the role is a canonical role.
func (r Role) IsValid() bool {
	_, ok := roleWeights[r]
	return ok
}

// String returns the string representation of the role.
func (r Role) String() string {
	return string(r)
}

// IsSuperadmin reports whether the role sits at superadmin weight or above.
func (r Role) IsSuperadmin() bool {
	return r.Level() >= WeightSuperadmin
}

// IsAdmin reports whether the role sits at admin weight or above.
func (r Role) IsAdmin() bool {
	return r.Level() >= WeightAdmin
}

// CanGrant reports whether a principal holding this role may grant the
// target role. Grants are restricted to roles strictly below the
// principal's own weight. Superadmins may grant any role, including
// superadmin itself; callers must require an explicit step-up
// confirmation before granting at superadmin weight.
func (r Role) CanGrant(target Role) bool {
	if !target.IsValid() {
		return false
	}
	if r.IsSuperadmin() {
		return true
	}
	return target.Level() < r.Level()
}

// All returns all canonical roles ordered by ascending weight.
func All() []Role {
	return []Role{
		RoleClient,
		RoleTeamMember,
		RoleConsultant,
		RoleProjectManager,
		RoleAdmin,
		RoleSuperadmin,
	}
}
