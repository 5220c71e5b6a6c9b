package accesscontrol

import (
	"context"

	"github.com/planforge/api/pkg/domain/role"
	"github.com/planforge/api/pkg/domain/session"
)

// TenantMismatchIncident carries the full context of a tripwire hit for
// the incident record.
type TenantMismatchIncident struct {
	Violation *SecurityViolation
	Email     string
}

// IncidentRecorder receives tripwire incidents. Recording happens before
// the violation is returned; it must not block the abort.
type IncidentRecorder interface {
	RecordTenantMismatch(ctx context.Context, incident TenantMismatchIncident)
}

// Guard is the tenant write tripwire. Every mutating persistence call
// goes through one of its four primitives, which validate the payload's
// tenant scope against the principal's *real* identity before the write
// reaches storage. The view context never participates: it is
// client-presentable state and must not influence authorization.
type Guard struct {
	incidents IncidentRecorder
}

// NewGuard creates a Guard. The recorder may be nil.
func NewGuard(incidents IncidentRecorder) *Guard {
	return &Guard{incidents: incidents}
}

// ValidateWrite checks a write's tenant scope against the real identity.
// Unscoped writes pass through unchanged. Principals at superadmin
// weight pass unconditionally, so records can be migrated across
// tenants. Everyone else must match their real tenant exactly.
func (g *Guard) ValidateWrite(ctx context.Context, ident session.Identity, op Op, w Write) error {
	tenantID, scoped := w.Scope()
	if !scoped {
		return nil
	}
	if ident.RealRole().Level() >= role.WeightSuperadmin {
		return nil
	}
	if tenantID.Equals(ident.RealTenantID()) {
		return nil
	}

	violation := &SecurityViolation{
		Principal:         ident.UID(),
		RealTenantID:      ident.RealTenantID(),
		AttemptedTenantID: tenantID,
		Collection:        w.Collection(),
		Op:                op,
	}
	if g.incidents != nil {
		g.incidents.RecordTenantMismatch(ctx, TenantMismatchIncident{
			Violation: violation,
			Email:     ident.Email(),
		})
	}
	return violation
}

// Create validates and then commits a create.
func (g *Guard) Create(ctx context.Context, ident session.Identity, w Write, commit func(context.Context) error) error {
	return g.run(ctx, ident, OpCreate, w, commit)
}

// Upsert validates and then commits an upsert.
func (g *Guard) Upsert(ctx context.Context, ident session.Identity, w Write, commit func(context.Context) error) error {
	return g.run(ctx, ident, OpUpsert, w, commit)
}

// Update validates and then commits an update.
func (g *Guard) Update(ctx context.Context, ident session.Identity, w Write, commit func(context.Context) error) error {
	return g.run(ctx, ident, OpUpdate, w, commit)
}

// Delete validates and then commits a delete. Deletes are not
// payload-inspectable, so call sites usually pass an UnscopedWrite;
// target-ownership verification is deliberately deferred to the backend
// authorization layer.
func (g *Guard) Delete(ctx context.Context, ident session.Identity, w Write, commit func(context.Context) error) error {
	return g.run(ctx, ident, OpDelete, w, commit)
}

func (g *Guard) run(ctx context.Context, ident session.Identity, op Op, w Write, commit func(context.Context) error) error {
	if err := g.ValidateWrite(ctx, ident, op, w); err != nil {
		return err
	}
	return commit(ctx)
}
