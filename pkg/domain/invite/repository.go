package invite

import (
	"context"
	"time"

	"github.com/planforge/api/pkg/domain/shared"
)

// Repository defines the interface for invite persistence.
type Repository interface {
	Create(ctx context.Context, inv *Invite) error
	GetByCode(ctx context.Context, code string) (*Invite, error)
	Delete(ctx context.Context, code string) error

	// ListByTenant returns all invites created for a tenant.
	ListByTenant(ctx context.Context, tenantID shared.ID) ([]*Invite, error)

	// Consume atomically marks the code used by uid. The read of
	// is_used and the write happen in one transaction (or one
	// compare-and-swap statement); under concurrent attempts exactly
	// one caller succeeds and the rest get ErrInviteAlreadyUsed.
	// Contention is retried by the store's transaction mechanism,
	// never with relaxed checks.
	Consume(ctx context.Context, code string, uid shared.ID) (*Invite, error)

	// DeleteExpiredBefore removes used and expired invites older than
	// the cutoff. Returns the number of rows removed.
	DeleteExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error)
}
