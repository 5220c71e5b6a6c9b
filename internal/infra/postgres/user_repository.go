package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/planforge/api/pkg/domain/role"
	"github.com/planforge/api/pkg/domain/shared"
	"github.com/planforge/api/pkg/domain/user"
)

// linkChunkSize caps how many user→group links go into one statement.
const linkChunkSize = 500

// UserRepository implements user.Repository using PostgreSQL.
type UserRepository struct {
	db *DB
}

// NewUserRepository creates a new UserRepository.
func NewUserRepository(db *DB) *UserRepository {
	return &UserRepository{db: db}
}

// Create persists a new user profile.
func (r *UserRepository) Create(ctx context.Context, p *user.Profile) error {
	query := `
		INSERT INTO users (id, tenant_id, email, name, password_hash, role,
			permission_group_id, assigned_project_ids, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err := r.db.ExecContext(ctx, query,
		p.ID(),
		p.TenantID(),
		p.Email(),
		p.Name(),
		p.PasswordHash(),
		string(p.Role()),
		groupIDValue(p.PermissionGroupID()),
		pq.Array(shared.IDsToStrings(p.AssignedProjectIDs())),
		string(p.Status()),
		p.CreatedAt(),
		p.UpdatedAt(),
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return fmt.Errorf("user email %q %w", p.Email(), shared.ErrAlreadyExists)
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

const userColumns = `id, tenant_id, email, name, password_hash, role,
	permission_group_id, assigned_project_ids, status, created_at, updated_at`

// GetByID retrieves a profile by ID.
func (r *UserRepository) GetByID(ctx context.Context, id shared.ID) (*user.Profile, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return r.scanUser(r.db.QueryRowContext(ctx, query, id))
}

// GetByEmail retrieves a profile by email.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*user.Profile, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return r.scanUser(r.db.QueryRowContext(ctx, query, email))
}

// Update updates an existing profile.
func (r *UserRepository) Update(ctx context.Context, p *user.Profile) error {
	query := `
		UPDATE users
		SET name = $2, password_hash = $3, role = $4, permission_group_id = $5,
			assigned_project_ids = $6, status = $7, updated_at = $8
		WHERE id = $1
	`

	result, err := r.db.ExecContext(ctx, query,
		p.ID(),
		p.Name(),
		p.PasswordHash(),
		string(p.Role()),
		groupIDValue(p.PermissionGroupID()),
		pq.Array(shared.IDsToStrings(p.AssignedProjectIDs())),
		string(p.Status()),
		p.UpdatedAt(),
	)
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return user.ErrUserNotFound
	}
	return nil
}

// Delete removes a profile.
func (r *UserRepository) Delete(ctx context.Context, id shared.ID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return user.ErrUserNotFound
	}
	return nil
}

// ExistsByEmail checks whether an email is taken.
func (r *UserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM users WHERE email = $1)`, email).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check user email: %w", err)
	}
	return exists, nil
}

// ListByTenant returns all profiles in a tenant.
func (r *UserRepository) ListByTenant(ctx context.Context, tenantID shared.ID) ([]*user.Profile, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE tenant_id = $1 ORDER BY created_at`
	return r.queryUsers(ctx, query, tenantID)
}

// ListByTenantAndRole returns profiles in a tenant holding a legacy role.
func (r *UserRepository) ListByTenantAndRole(ctx context.Context, tenantID shared.ID, rl role.Role) ([]*user.Profile, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE tenant_id = $1 AND role = $2 ORDER BY created_at`
	return r.queryUsers(ctx, query, tenantID, string(rl))
}

// LinkPermissionGroups sets permission_group_id for the given profiles,
// chunked so one oversized batch cannot blow a single transaction.
func (r *UserRepository) LinkPermissionGroups(ctx context.Context, links []user.GroupLink) error {
	for start := 0; start < len(links); start += linkChunkSize {
		end := min(start+linkChunkSize, len(links))
		if err := r.linkChunk(ctx, links[start:end]); err != nil {
			return fmt.Errorf("link users to groups (chunk at %d): %w", start, err)
		}
	}
	return nil
}

func (r *UserRepository) linkChunk(ctx context.Context, links []user.GroupLink) error {
	userIDs := make([]string, len(links))
	groupIDs := make([]string, len(links))
	for i, l := range links {
		userIDs[i] = l.UserID.String()
		groupIDs[i] = l.GroupID.String()
	}

	query := `
		UPDATE users AS u
		SET permission_group_id = v.group_id::uuid, updated_at = NOW()
		FROM (SELECT unnest($1::uuid[]) AS user_id, unnest($2::text[]) AS group_id) AS v
		WHERE u.id = v.user_id
	`
	_, err := r.db.ExecContext(ctx, query, pq.Array(userIDs), pq.Array(groupIDs))
	return err
}

func (r *UserRepository) queryUsers(ctx context.Context, query string, args ...any) ([]*user.Profile, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	var out []*user.Profile
	for rows.Next() {
		p, err := r.scanUserRow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *UserRepository) scanUser(row *sql.Row) (*user.Profile, error) {
	p, err := r.scanUserRow(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, user.ErrUserNotFound
	}
	return p, err
}

func (r *UserRepository) scanUserRow(row rowScanner) (*user.Profile, error) {
	var (
		id, tenantID             shared.ID
		email, name, hash, rl    string
		groupID                  sql.NullString
		projectIDs               pq.StringArray
		status                   string
		createdAt, updatedAt     sql.NullTime
	)
	err := row.Scan(&id, &tenantID, &email, &name, &hash, &rl,
		&groupID, &projectIDs, &status, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan user: %w", err)
	}

	var permGroupID *shared.ID
	if groupID.Valid {
		gid, err := shared.IDFromString(groupID.String)
		if err != nil {
			return nil, fmt.Errorf("failed to parse permission_group_id: %w", err)
		}
		permGroupID = &gid
	}
	assigned := shared.IDsFromStrings(projectIDs)

	return user.Reconstitute(id, tenantID, email, name, hash, role.Role(rl),
		permGroupID, assigned, user.Status(status), createdAt.Time, updatedAt.Time), nil
}

func groupIDValue(id *shared.ID) any {
	if id == nil {
		return nil
	}
	return *id
}
