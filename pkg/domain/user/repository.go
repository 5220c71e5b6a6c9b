package user

import (
	"context"

	"github.com/planforge/api/pkg/domain/role"
	"github.com/planforge/api/pkg/domain/shared"
)

// Repository defines the interface for user profile persistence.
type Repository interface {
	Create(ctx context.Context, p *Profile) error
	GetByID(ctx context.Context, id shared.ID) (*Profile, error)
	GetByEmail(ctx context.Context, email string) (*Profile, error)
	Update(ctx context.Context, p *Profile) error
	Delete(ctx context.Context, id shared.ID) error
	ExistsByEmail(ctx context.Context, email string) (bool, error)

	// ListByTenant returns all profiles in a tenant.
	ListByTenant(ctx context.Context, tenantID shared.ID) ([]*Profile, error)

	// ListByTenantAndRole returns profiles in a tenant holding a legacy role.
	ListByTenantAndRole(ctx context.Context, tenantID shared.ID, r role.Role) ([]*Profile, error)

	// LinkPermissionGroups sets permission_group_id for the given profiles
	// in one batched write. Implementations must chunk batches exceeding
	// the store's per-transaction mutation cap.
	LinkPermissionGroups(ctx context.Context, links []GroupLink) error
}

// GroupLink is a single user→group link in a batched linking pass.
type GroupLink struct {
	UserID  shared.ID
	GroupID shared.ID
}
