package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/planforge/api/pkg/domain/permissiongroup"
	"github.com/planforge/api/pkg/domain/shared"
)

// PermissionGroupRepository implements permissiongroup.Repository using
// PostgreSQL.
type PermissionGroupRepository struct {
	db *DB
}

// NewPermissionGroupRepository creates a new PermissionGroupRepository.
func NewPermissionGroupRepository(db *DB) *PermissionGroupRepository {
	return &PermissionGroupRepository{db: db}
}

const groupColumns = `id, tenant_id, name, project_access, task_access,
	view_access, export_access, special_permissions, color, version, created_at, updated_at`

// Create persists a new permission group.
func (r *PermissionGroupRepository) Create(ctx context.Context, g *permissiongroup.Group) error {
	query := `
		INSERT INTO permission_groups (id, tenant_id, name, project_access, task_access,
			view_access, export_access, special_permissions, color, version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	_, err := r.db.ExecContext(ctx, query,
		g.ID(),
		g.TenantID(),
		g.Name(),
		string(g.ProjectAccess()),
		string(g.TaskAccess()),
		string(g.ViewAccess()),
		string(g.ExportAccess()),
		pq.Array(g.SpecialPermissions()),
		g.Color(),
		g.Version(),
		g.CreatedAt(),
		g.UpdatedAt(),
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return permissiongroup.AlreadyExistsError(g.TenantID(), g.Name())
		}
		return fmt.Errorf("failed to create permission group: %w", err)
	}
	return nil
}

// GetByID retrieves a group by ID.
func (r *PermissionGroupRepository) GetByID(ctx context.Context, id shared.ID) (*permissiongroup.Group, error) {
	query := `SELECT ` + groupColumns + ` FROM permission_groups WHERE id = $1`
	return r.scanGroup(r.db.QueryRowContext(ctx, query, id))
}

// GetByTenantAndName retrieves a group by its tenant-unique name.
func (r *PermissionGroupRepository) GetByTenantAndName(ctx context.Context, tenantID shared.ID, name string) (*permissiongroup.Group, error) {
	query := `SELECT ` + groupColumns + ` FROM permission_groups WHERE tenant_id = $1 AND name = $2`
	return r.scanGroup(r.db.QueryRowContext(ctx, query, tenantID, name))
}

// Update updates an existing group.
func (r *PermissionGroupRepository) Update(ctx context.Context, g *permissiongroup.Group) error {
	query := `
		UPDATE permission_groups
		SET name = $2, project_access = $3, task_access = $4, view_access = $5,
			export_access = $6, special_permissions = $7, color = $8, version = $9, updated_at = $10
		WHERE id = $1
	`

	result, err := r.db.ExecContext(ctx, query,
		g.ID(),
		g.Name(),
		string(g.ProjectAccess()),
		string(g.TaskAccess()),
		string(g.ViewAccess()),
		string(g.ExportAccess()),
		pq.Array(g.SpecialPermissions()),
		g.Color(),
		g.Version(),
		g.UpdatedAt(),
	)
	if err != nil {
		return fmt.Errorf("failed to update permission group: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return permissiongroup.ErrGroupNotFound
	}
	return nil
}

// Delete removes a group.
func (r *PermissionGroupRepository) Delete(ctx context.Context, id shared.ID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM permission_groups WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete permission group: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return permissiongroup.ErrGroupNotFound
	}
	return nil
}

// ListByTenant returns all groups owned by a tenant.
func (r *PermissionGroupRepository) ListByTenant(ctx context.Context, tenantID shared.ID) ([]*permissiongroup.Group, error) {
	query := `SELECT ` + groupColumns + ` FROM permission_groups WHERE tenant_id = $1 ORDER BY name`

	rows, err := r.db.QueryContext(ctx, query, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to list permission groups: %w", err)
	}
	defer rows.Close()

	var out []*permissiongroup.Group
	for rows.Next() {
		g, err := r.scanGroupRow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

// ExistingNames returns the group names already present in a tenant.
func (r *PermissionGroupRepository) ExistingNames(ctx context.Context, tenantID shared.ID) (map[string]shared.ID, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name FROM permission_groups WHERE tenant_id = $1`, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to list group names: %w", err)
	}
	defer rows.Close()

	names := make(map[string]shared.ID)
	for rows.Next() {
		var (
			id   shared.ID
			name string
		)
		if err := rows.Scan(&id, &name); err != nil {
			return nil, fmt.Errorf("failed to scan group name: %w", err)
		}
		names[name] = id
	}
	return names, rows.Err()
}

func (r *PermissionGroupRepository) scanGroup(row *sql.Row) (*permissiongroup.Group, error) {
	g, err := r.scanGroupRow(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, permissiongroup.ErrGroupNotFound
	}
	return g, err
}

func (r *PermissionGroupRepository) scanGroupRow(row rowScanner) (*permissiongroup.Group, error) {
	var (
		id, tenantID                               shared.ID
		name, project, task, view, export, color   string
		specials                                   pq.StringArray
		version                                    int
		createdAt, updatedAt                       sql.NullTime
	)
	err := row.Scan(&id, &tenantID, &name, &project, &task, &view, &export,
		&specials, &color, &version, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan permission group: %w", err)
	}

	flags := permissiongroup.Flags{
		ProjectAccess:      permissiongroup.AccessLevel(project),
		TaskAccess:         permissiongroup.AccessLevel(task),
		ViewAccess:         permissiongroup.AccessLevel(view),
		ExportAccess:       permissiongroup.AccessLevel(export),
		SpecialPermissions: specials,
	}
	return permissiongroup.Reconstitute(id, tenantID, name, flags, color, version,
		createdAt.Time, updatedAt.Time), nil
}
