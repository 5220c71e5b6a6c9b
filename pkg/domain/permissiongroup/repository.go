package permissiongroup

import (
	"context"

	"github.com/planforge/api/pkg/domain/shared"
)

// Repository defines the interface for permission group persistence.
type Repository interface {
	Create(ctx context.Context, g *Group) error
	GetByID(ctx context.Context, id shared.ID) (*Group, error)
	GetByTenantAndName(ctx context.Context, tenantID shared.ID, name string) (*Group, error)
	Update(ctx context.Context, g *Group) error
	Delete(ctx context.Context, id shared.ID) error

	// ListByTenant returns all groups owned by a tenant.
	ListByTenant(ctx context.Context, tenantID shared.ID) ([]*Group, error)

	// ExistingNames returns the set of group names already present in a
	// tenant, used by the idempotent population pass.
	ExistingNames(ctx context.Context, tenantID shared.ID) (map[string]shared.ID, error)
}
