package audit

import (
	"context"
	"time"

	"github.com/planforge/api/pkg/domain/shared"
)

// Filter narrows incident listings.
type Filter struct {
	Kind     *IncidentKind
	ActorUID *shared.ID
	Since    *time.Time
	Limit    int
	Offset   int
}

// Repository defines the interface for incident persistence.
type Repository interface {
	Create(ctx context.Context, incident *Incident) error
	GetByID(ctx context.Context, id shared.ID) (*Incident, error)
	List(ctx context.Context, filter Filter) ([]*Incident, error)
	Count(ctx context.Context, filter Filter) (int64, error)
}
