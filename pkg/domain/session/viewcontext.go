package session

import (
	"fmt"

	"github.com/planforge/api/pkg/domain/role"
	"github.com/planforge/api/pkg/domain/shared"
)

// ViewContext is the session-local simulation overlay. It determines what
// the session *sees* (query scoping, UI affordances) but never what it may
// *write*: write-time authorization consults the Identity alone.
//
// The context is in one of two states: NORMAL, where the active values
// equal the real ones, and SIMULATING, where a superadmin has overlaid a
// different role and/or tenant.
type ViewContext struct {
	identity       Identity
	activeRole     role.Role
	activeTenantID shared.ID
}

// Simulation is a partial update to the view context. Nil fields keep
// their current value.
type Simulation struct {
	ActiveRole     *role.Role `json:"active_role,omitempty"`
	ActiveTenantID *shared.ID `json:"active_tenant_id,omitempty"`
}

// IsEmpty reports whether the simulation changes nothing.
func (s Simulation) IsEmpty() bool {
	return s.ActiveRole == nil && s.ActiveTenantID == nil
}

// NewViewContext creates a ViewContext in the NORMAL state for an
// identity.
func NewViewContext(identity Identity) *ViewContext {
	return &ViewContext{
		identity:       identity,
		activeRole:     identity.RealRole(),
		activeTenantID: identity.RealTenantID(),
	}
}

// Identity returns the underlying trusted identity.
func (v *ViewContext) Identity() Identity {
	return v.identity
}

// ActiveRole returns the effective role for read paths.
func (v *ViewContext) ActiveRole() role.Role {
	return v.activeRole
}

// ActiveTenantID returns the effective tenant for read paths.
func (v *ViewContext) ActiveTenantID() shared.ID {
	return v.activeTenantID
}

// IsMasquerading reports whether the context is in the SIMULATING state.
// It holds exactly when an active value differs from its real value.
func (v *ViewContext) IsMasquerading() bool {
	return v.activeRole != v.identity.RealRole() ||
		!v.activeTenantID.Equals(v.identity.RealTenantID())
}

// Simulate applies a partial simulation update. Only identities at
// superadmin weight may enter or modify a simulation; everyone else is
// rejected and the context stays NORMAL.
func (v *ViewContext) Simulate(sim Simulation) error {
	if !v.identity.IsSuperadmin() {
		return ErrMasqueradeForbidden
	}
	if sim.ActiveRole != nil {
		if !sim.ActiveRole.IsValid() {
			return fmt.Errorf("%w: invalid role %q", shared.ErrValidation, *sim.ActiveRole)
		}
		v.activeRole = *sim.ActiveRole
	}
	if sim.ActiveTenantID != nil {
		if sim.ActiveTenantID.IsZero() {
			return fmt.Errorf("%w: activeTenantID cannot be empty", shared.ErrValidation)
		}
		v.activeTenantID = *sim.ActiveTenantID
	}
	return nil
}

// Reset restores the exact real values, returning to NORMAL. Always
// available, regardless of role.
func (v *ViewContext) Reset() {
	v.activeRole = v.identity.RealRole()
	v.activeTenantID = v.identity.RealTenantID()
}

// Overlay is the persistable simulation state of a view context. Only
// the overlay is ever stored; the identity is rebuilt from the token on
// every request.
type Overlay struct {
	ActiveRole     role.Role `json:"active_role"`
	ActiveTenantID shared.ID `json:"active_tenant_id"`
}

// Overlay captures the current active values.
func (v *ViewContext) Overlay() Overlay {
	return Overlay{
		ActiveRole:     v.activeRole,
		ActiveTenantID: v.activeTenantID,
	}
}

// ApplyOverlay restores a stored overlay onto a fresh context. Overlays
// recorded for a non-superadmin identity are ignored: the context stays
// NORMAL rather than trusting stored state over the weight rule.
func (v *ViewContext) ApplyOverlay(o Overlay) {
	if !v.identity.IsSuperadmin() {
		return
	}
	if o.ActiveRole.IsValid() {
		v.activeRole = o.ActiveRole
	}
	if !o.ActiveTenantID.IsZero() {
		v.activeTenantID = o.ActiveTenantID
	}
}
