package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/planforge/api/pkg/domain/shared"
	"github.com/planforge/api/pkg/domain/tenant"
)

// TenantRepository implements tenant.Repository using PostgreSQL.
type TenantRepository struct {
	db *DB
}

// NewTenantRepository creates a new TenantRepository.
func NewTenantRepository(db *DB) *TenantRepository {
	return &TenantRepository{db: db}
}

// Create persists a new tenant.
func (r *TenantRepository) Create(ctx context.Context, t *tenant.Tenant) error {
	query := `
		INSERT INTO tenants (id, name, code, is_active, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.db.ExecContext(ctx, query,
		t.ID(),
		t.Name(),
		t.Code(),
		t.IsActive(),
		t.CreatedBy(),
		t.CreatedAt(),
		t.UpdatedAt(),
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return fmt.Errorf("tenant code %q %w", t.Code(), shared.ErrAlreadyExists)
		}
		return fmt.Errorf("failed to create tenant: %w", err)
	}
	return nil
}

// GetByID retrieves a tenant by ID.
func (r *TenantRepository) GetByID(ctx context.Context, id shared.ID) (*tenant.Tenant, error) {
	query := `
		SELECT id, name, code, is_active, created_by, created_at, updated_at
		FROM tenants
		WHERE id = $1
	`
	return r.scanTenant(r.db.QueryRowContext(ctx, query, id))
}

// GetByCode retrieves a tenant by its short code.
func (r *TenantRepository) GetByCode(ctx context.Context, code string) (*tenant.Tenant, error) {
	query := `
		SELECT id, name, code, is_active, created_by, created_at, updated_at
		FROM tenants
		WHERE code = $1
	`
	return r.scanTenant(r.db.QueryRowContext(ctx, query, code))
}

// Update updates an existing tenant.
func (r *TenantRepository) Update(ctx context.Context, t *tenant.Tenant) error {
	query := `
		UPDATE tenants
		SET name = $2, is_active = $3, updated_at = $4
		WHERE id = $1
	`

	result, err := r.db.ExecContext(ctx, query, t.ID(), t.Name(), t.IsActive(), t.UpdatedAt())
	if err != nil {
		return fmt.Errorf("failed to update tenant: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return tenant.ErrTenantNotFound
	}
	return nil
}

// Delete removes a tenant.
func (r *TenantRepository) Delete(ctx context.Context, id shared.ID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM tenants WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete tenant: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return tenant.ErrTenantNotFound
	}
	return nil
}

// ExistsByCode checks whether a tenant code is taken.
func (r *TenantRepository) ExistsByCode(ctx context.Context, code string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM tenants WHERE code = $1)`, code).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check tenant code: %w", err)
	}
	return exists, nil
}

// ListActive returns all active tenants.
func (r *TenantRepository) ListActive(ctx context.Context) ([]*tenant.Tenant, error) {
	query := `
		SELECT id, name, code, is_active, created_by, created_at, updated_at
		FROM tenants
		WHERE is_active = true
		ORDER BY created_at
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list tenants: %w", err)
	}
	defer rows.Close()

	var out []*tenant.Tenant
	for rows.Next() {
		t, err := r.scanTenantRow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *TenantRepository) scanTenant(row *sql.Row) (*tenant.Tenant, error) {
	t, err := r.scanTenantRow(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, tenant.ErrTenantNotFound
	}
	return t, err
}

func (r *TenantRepository) scanTenantRow(row rowScanner) (*tenant.Tenant, error) {
	var (
		id, createdBy        shared.ID
		name, code           string
		isActive             bool
		createdAt, updatedAt sql.NullTime
	)
	if err := row.Scan(&id, &name, &code, &isActive, &createdBy, &createdAt, &updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan tenant: %w", err)
	}
	return tenant.Reconstitute(id, name, code, isActive, createdBy, createdAt.Time, updatedAt.Time), nil
}
