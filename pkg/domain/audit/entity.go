// Package audit defines durable security incident records.
package audit

import (
	"fmt"
	"time"

	"github.com/planforge/api/pkg/domain/shared"
)

// IncidentKind classifies a security incident.
type IncidentKind string

const (
	// KindTenantMismatch records a tripwire hit: a write scoped to a
	// foreign tenant by a non-superadmin principal.
	KindTenantMismatch IncidentKind = "tenant_mismatch"
	// KindMasqueradeStart records a superadmin entering a simulation.
	KindMasqueradeStart IncidentKind = "masquerade_start"
	// KindMasqueradeStop records a simulation reset.
	KindMasqueradeStop IncidentKind = "masquerade_stop"
)

// IsValid checks if the incident kind is valid.
func (k IncidentKind) IsValid() bool {
	switch k {
	case KindTenantMismatch, KindMasqueradeStart, KindMasqueradeStop:
		return true
	}
	return false
}

// Incident is one durable security incident record.
type Incident struct {
	id           shared.ID
	kind         IncidentKind
	actorUID     shared.ID
	actorEmail   string
	realTenantID shared.ID
	details      map[string]any
	createdAt    time.Time
}

// NewIncident creates a new Incident.
func NewIncident(kind IncidentKind, actorUID shared.ID, actorEmail string, realTenantID shared.ID, details map[string]any) (*Incident, error) {
	if !kind.IsValid() {
		return nil, fmt.Errorf("%w: invalid incident kind %q", shared.ErrValidation, kind)
	}
	if actorUID.IsZero() {
		return nil, fmt.Errorf("%w: actorUID is required", shared.ErrValidation)
	}
	if details == nil {
		details = make(map[string]any)
	}
	return &Incident{
		id:           shared.NewID(),
		kind:         kind,
		actorUID:     actorUID,
		actorEmail:   actorEmail,
		realTenantID: realTenantID,
		details:      details,
		createdAt:    time.Now().UTC(),
	}, nil
}

// Reconstitute recreates an Incident from persistence.
func Reconstitute(
	id shared.ID,
	kind IncidentKind,
	actorUID shared.ID,
	actorEmail string,
	realTenantID shared.ID,
	details map[string]any,
	createdAt time.Time,
) *Incident {
	if details == nil {
		details = make(map[string]any)
	}
	return &Incident{
		id:           id,
		kind:         kind,
		actorUID:     actorUID,
		actorEmail:   actorEmail,
		realTenantID: realTenantID,
		details:      details,
		createdAt:    createdAt,
	}
}

// ID returns the incident ID.
func (i *Incident) ID() shared.ID {
	return i.id
}

// Kind returns the incident kind.
func (i *Incident) Kind() IncidentKind {
	return i.kind
}

// ActorUID returns the acting principal's user ID.
func (i *Incident) ActorUID() shared.ID {
	return i.actorUID
}

// ActorEmail returns the acting principal's email.
func (i *Incident) ActorEmail() string {
	return i.actorEmail
}

// RealTenantID returns the principal's real tenant at the time.
func (i *Incident) RealTenantID() shared.ID {
	return i.realTenantID
}

// Details returns the incident payload shape and context.
func (i *Incident) Details() map[string]any {
	out := make(map[string]any, len(i.details))
	for k, v := range i.details {
		out[k] = v
	}
	return out
}

// CreatedAt returns when the incident happened.
func (i *Incident) CreatedAt() time.Time {
	return i.createdAt
}
