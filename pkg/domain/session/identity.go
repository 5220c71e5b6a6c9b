// Package session defines the per-session security context: the trusted,
// immutable Identity of the authenticated principal and the mutable
// ViewContext overlay used for operator masquerading.
package session

import (
	"fmt"

	"github.com/planforge/api/pkg/domain/role"
	"github.com/planforge/api/pkg/domain/shared"
)

// Identity is the trusted snapshot of the authenticated principal.
// It is created once per authenticated session and never mutated; all
// write-time authorization decisions consult it exclusively.
type Identity struct {
	uid          shared.ID
	email        string
	realRole     role.Role
	realTenantID shared.ID
	operator     bool
}

// NewIdentity creates an Identity from the authenticated principal.
// The operator flag distinguishes platform operators allowed to perform
// non-bypassable actions; it is never derivable from role weight alone.
func NewIdentity(uid shared.ID, email string, realRole role.Role, realTenantID shared.ID, operator bool) (Identity, error) {
	if uid.IsZero() {
		return Identity{}, fmt.Errorf("%w: uid is required", shared.ErrValidation)
	}
	if !realRole.IsValid() {
		return Identity{}, fmt.Errorf("%w: invalid role %q", shared.ErrValidation, realRole)
	}
	if realTenantID.IsZero() {
		return Identity{}, fmt.Errorf("%w: realTenantID is required", shared.ErrValidation)
	}
	return Identity{
		uid:          uid,
		email:        email,
		realRole:     realRole,
		realTenantID: realTenantID,
		operator:     operator,
	}, nil
}

// UID returns the principal's user ID.
func (i Identity) UID() shared.ID {
	return i.uid
}

// Email returns the principal's email.
func (i Identity) Email() string {
	return i.email
}

// RealRole returns the principal's real role.
func (i Identity) RealRole() role.Role {
	return i.realRole
}

// RealTenantID returns the principal's real tenant.
func (i Identity) RealTenantID() shared.ID {
	return i.realTenantID
}

// IsOperator reports whether the principal carries the distinguished
// platform-operator flag.
func (i Identity) IsOperator() bool {
	return i.operator
}

// IsSuperadmin reports whether the real role sits at superadmin weight.
func (i Identity) IsSuperadmin() bool {
	return i.realRole.IsSuperadmin()
}

// IsZero reports whether the identity is unset.
func (i Identity) IsZero() bool {
	return i.uid.IsZero()
}
