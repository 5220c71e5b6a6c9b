// Package accesscontrol implements the permission resolution engine and
// the tenant write guard. Resolution (read-side) works on the effective
// view context; the guard (write-side) consults only the real identity.
package accesscontrol

// Action represents an operation a principal wants to perform.
type Action string

const (
	ActionView   Action = "view"
	ActionCreate Action = "create"
	ActionEdit   Action = "edit"
	ActionDelete Action = "delete"
	ActionExport Action = "export"
)

// Resource represents the kind of entity an action targets.
type Resource string

const (
	ResourceProject         Resource = "project"
	ResourceTask            Resource = "task"
	ResourceView            Resource = "view"
	ResourceUser            Resource = "user"
	ResourceTenant          Resource = "tenant"
	ResourcePermissionGroup Resource = "permission_group"
	ResourceInvite          Resource = "invite"
)

// nonBypassable lists (action, resource) pairs that even superadmin
// weight does not grant. They require the distinguished operator flag
// on the identity, never role weight alone.
var nonBypassable = map[Resource]map[Action]bool{
	ResourceUser: {
		// Irreversible user deletion.
		ActionDelete: true,
	},
	ResourceTenant: {
		// Tenant deletion destroys the isolation boundary itself.
		ActionDelete: true,
	},
}

// IsNonBypassable reports whether the pair is excluded from the
// superadmin bypass.
func IsNonBypassable(act Action, res Resource) bool {
	return nonBypassable[res][act]
}
