package accesscontrol

import "github.com/planforge/api/pkg/domain/shared"

// Op identifies which guarded write primitive is being performed.
type Op string

const (
	OpCreate Op = "create"
	OpUpsert Op = "upsert"
	OpUpdate Op = "update"
	OpDelete Op = "delete"
)

// Write describes a mutating persistence call for guard validation.
// It is a closed union: a write either carries a tenant scope
// (ScopedWrite) or explicitly does not (UnscopedWrite). The call site
// decides which, so the guard never has to probe payloads for optional
// scoping fields.
type Write interface {
	// Collection names the logical collection the write targets.
	Collection() string

	// Scope returns the tenant the write is scoped to. ok is false for
	// unscoped writes.
	Scope() (tenantID shared.ID, ok bool)
}

// ScopedWrite is a write whose payload carries a tenant-scoping field.
type ScopedWrite struct {
	collection string
	tenantID   shared.ID
}

// Scoped builds a ScopedWrite.
func Scoped(collection string, tenantID shared.ID) ScopedWrite {
	return ScopedWrite{collection: collection, tenantID: tenantID}
}

// Collection implements Write.
func (w ScopedWrite) Collection() string {
	return w.collection
}

// Scope implements Write.
func (w ScopedWrite) Scope() (shared.ID, bool) {
	return w.tenantID, true
}

// UnscopedWrite is a write without any tenant-scoping field. The guard
// passes it through unchanged; ownership verification is the backend
// authorization layer's responsibility.
type UnscopedWrite struct {
	collection string
}

// Unscoped builds an UnscopedWrite.
func Unscoped(collection string) UnscopedWrite {
	return UnscopedWrite{collection: collection}
}

// Collection implements Write.
func (w UnscopedWrite) Collection() string {
	return w.collection
}

// Scope implements Write.
func (w UnscopedWrite) Scope() (shared.ID, bool) {
	return shared.ID{}, false
}
