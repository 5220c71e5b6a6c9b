package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/planforge/api/pkg/domain/invite"
	"github.com/planforge/api/pkg/domain/role"
	"github.com/planforge/api/pkg/domain/shared"
)

// InviteRepository implements invite.Repository using PostgreSQL.
type InviteRepository struct {
	db *DB
}

// NewInviteRepository creates a new InviteRepository.
func NewInviteRepository(db *DB) *InviteRepository {
	return &InviteRepository{db: db}
}

const inviteColumns = `code, tenant_id, role, project_ids, created_by,
	is_used, used_by, expires_at, created_at, used_at`

// Create persists a new invite.
func (r *InviteRepository) Create(ctx context.Context, inv *invite.Invite) error {
	query := `
		INSERT INTO invites (code, tenant_id, role, project_ids, created_by,
			is_used, used_by, expires_at, created_at, used_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := r.db.ExecContext(ctx, query,
		inv.Code(),
		inv.TenantID(),
		string(inv.Role()),
		pq.Array(shared.IDsToStrings(inv.ProjectIDs())),
		inv.CreatedBy(),
		inv.IsUsed(),
		usedByValue(inv.UsedBy()),
		inv.ExpiresAt(),
		inv.CreatedAt(),
		inv.UsedAt(),
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return fmt.Errorf("invite code %w", shared.ErrAlreadyExists)
		}
		return fmt.Errorf("failed to create invite: %w", err)
	}
	return nil
}

// GetByCode retrieves an invite by its code.
func (r *InviteRepository) GetByCode(ctx context.Context, code string) (*invite.Invite, error) {
	query := `SELECT ` + inviteColumns + ` FROM invites WHERE code = $1`
	inv, err := r.scanInviteRow(r.db.QueryRowContext(ctx, query, code))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, invite.ErrInviteNotFound
	}
	return inv, err
}

// Delete removes an invite.
func (r *InviteRepository) Delete(ctx context.Context, code string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM invites WHERE code = $1`, code)
	if err != nil {
		return fmt.Errorf("failed to delete invite: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return invite.ErrInviteNotFound
	}
	return nil
}

// ListByTenant returns all invites created for a tenant.
func (r *InviteRepository) ListByTenant(ctx context.Context, tenantID shared.ID) ([]*invite.Invite, error) {
	query := `SELECT ` + inviteColumns + ` FROM invites WHERE tenant_id = $1 ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to list invites: %w", err)
	}
	defer rows.Close()

	var out []*invite.Invite
	for rows.Next() {
		inv, err := r.scanInviteRow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, inv)
	}
	return out, rows.Err()
}

// Consume atomically marks the code used by uid. The WHERE clause
// carries the is_used check, so under concurrent attempts exactly one
// UPDATE matches; everyone else sees zero rows and gets the precise
// failure reason from a follow-up read.
func (r *InviteRepository) Consume(ctx context.Context, code string, uid shared.ID) (*invite.Invite, error) {
	query := `
		UPDATE invites
		SET is_used = true, used_by = $2, used_at = NOW()
		WHERE code = $1 AND is_used = false AND expires_at > NOW()
		RETURNING ` + inviteColumns

	inv, err := r.scanInviteRow(r.db.QueryRowContext(ctx, query, code, uid))
	if err == nil {
		return inv, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("failed to consume invite: %w", err)
	}

	// The CAS missed. Classify why.
	existing, err := r.GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if existing.IsUsed() {
		return nil, invite.ErrInviteAlreadyUsed
	}
	return nil, invite.ErrInviteExpired
}

// DeleteExpiredBefore removes used and expired invites older than the
// cutoff.
func (r *InviteRepository) DeleteExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM invites WHERE (is_used = true OR expires_at < NOW()) AND created_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to purge invites: %w", err)
	}
	return result.RowsAffected()
}

func (r *InviteRepository) scanInviteRow(row rowScanner) (*invite.Invite, error) {
	var (
		code, rl             string
		tenantID, createdBy  shared.ID
		projectIDs           pq.StringArray
		isUsed               bool
		usedBy               sql.NullString
		expiresAt, createdAt time.Time
		usedAt               sql.NullTime
	)
	err := row.Scan(&code, &tenantID, &rl, &projectIDs, &createdBy,
		&isUsed, &usedBy, &expiresAt, &createdAt, &usedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan invite: %w", err)
	}

	var usedByID *shared.ID
	if usedBy.Valid {
		id, err := shared.IDFromString(usedBy.String)
		if err != nil {
			return nil, fmt.Errorf("failed to parse used_by: %w", err)
		}
		usedByID = &id
	}
	var usedAtTime *time.Time
	if usedAt.Valid {
		usedAtTime = &usedAt.Time
	}

	return invite.Reconstitute(code, tenantID, role.Role(rl),
		shared.IDsFromStrings(projectIDs), createdBy,
		isUsed, usedByID, expiresAt, createdAt, usedAtTime), nil
}

func usedByValue(id *shared.ID) any {
	if id == nil {
		return nil
	}
	return *id
}
