package permissiongroup

// AccessLevel represents the level of access a group grants on one
// capability axis (projects, tasks, views, exports).
type AccessLevel string

const (
	AccessNone   AccessLevel = "none"
	AccessRead   AccessLevel = "read"
	AccessWrite  AccessLevel = "write"
	AccessManage AccessLevel = "manage"
)

// accessRanks orders access levels. Append-only.
var accessRanks = map[AccessLevel]int{
	AccessNone:   0,
	AccessRead:   1,
	AccessWrite:  2,
	AccessManage: 3,
}

// IsValid checks if the access level is valid.
func (l AccessLevel) IsValid() bool {
	_, ok := accessRanks[l]
	return ok
}

// Rank returns the numeric rank of the access level, 0 if unknown.
func (l AccessLevel) Rank() int {
	return accessRanks[l]
}

// AtLeast reports whether this level grants at least the other level.
// Unknown levels rank as none and never satisfy a real requirement.
func (l AccessLevel) AtLeast(other AccessLevel) bool {
	if !l.IsValid() || !other.IsValid() {
		return false
	}
	return l.Rank() >= other.Rank()
}

// String returns the string representation of the access level.
func (l AccessLevel) String() string {
	return string(l)
}

// ParseAccessLevel parses a string to an AccessLevel.
func ParseAccessLevel(s string) (AccessLevel, bool) {
	l := AccessLevel(s)
	return l, l.IsValid()
}

// Special permissions grantable on top of the four access axes.
const (
	SpecialManageUsers   = "users:manage"
	SpecialManageInvites = "invites:manage"
	SpecialManageGroups  = "groups:manage"
	SpecialManageTenant  = "tenant:settings"
)

// KnownSpecialPermissions returns all defined special permissions.
func KnownSpecialPermissions() []string {
	return []string{
		SpecialManageUsers,
		SpecialManageInvites,
		SpecialManageGroups,
		SpecialManageTenant,
	}
}
