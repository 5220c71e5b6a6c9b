package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/planforge/api/pkg/domain/audit"
	"github.com/planforge/api/pkg/domain/shared"
)

// AuditRepository implements audit.Repository using PostgreSQL.
type AuditRepository struct {
	db *DB
}

// NewAuditRepository creates a new AuditRepository.
func NewAuditRepository(db *DB) *AuditRepository {
	return &AuditRepository{db: db}
}

// Create persists a security incident.
func (r *AuditRepository) Create(ctx context.Context, incident *audit.Incident) error {
	details, err := json.Marshal(incident.Details())
	if err != nil {
		return fmt.Errorf("failed to marshal incident details: %w", err)
	}

	query := `
		INSERT INTO security_incidents (id, kind, actor_uid, actor_email, real_tenant_id, details, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err = r.db.ExecContext(ctx, query,
		incident.ID(),
		string(incident.Kind()),
		incident.ActorUID(),
		incident.ActorEmail(),
		incident.RealTenantID(),
		details,
		incident.CreatedAt(),
	)
	if err != nil {
		return fmt.Errorf("failed to create incident: %w", err)
	}
	return nil
}

// GetByID retrieves an incident by ID.
func (r *AuditRepository) GetByID(ctx context.Context, id shared.ID) (*audit.Incident, error) {
	query := `
		SELECT id, kind, actor_uid, actor_email, real_tenant_id, details, created_at
		FROM security_incidents
		WHERE id = $1
	`
	incident, err := r.scanIncident(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("incident %w", shared.ErrNotFound)
	}
	return incident, err
}

// List returns incidents matching the filter, newest first.
func (r *AuditRepository) List(ctx context.Context, filter audit.Filter) ([]*audit.Incident, error) {
	where, args := buildIncidentFilter(filter)

	query := `
		SELECT id, kind, actor_uid, actor_email, real_tenant_id, details, created_at
		FROM security_incidents
	` + where + ` ORDER BY created_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	args = append(args, limit)
	query += fmt.Sprintf(" LIMIT $%d", len(args))
	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list incidents: %w", err)
	}
	defer rows.Close()

	var out []*audit.Incident
	for rows.Next() {
		incident, err := r.scanIncident(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, incident)
	}
	return out, rows.Err()
}

// Count returns the number of incidents matching the filter.
func (r *AuditRepository) Count(ctx context.Context, filter audit.Filter) (int64, error) {
	where, args := buildIncidentFilter(filter)

	var count int64
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM security_incidents`+where, args...).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count incidents: %w", err)
	}
	return count, nil
}

func buildIncidentFilter(filter audit.Filter) (string, []any) {
	var (
		conds []string
		args  []any
	)
	if filter.Kind != nil {
		args = append(args, string(*filter.Kind))
		conds = append(conds, fmt.Sprintf("kind = $%d", len(args)))
	}
	if filter.ActorUID != nil {
		args = append(args, *filter.ActorUID)
		conds = append(conds, fmt.Sprintf("actor_uid = $%d", len(args)))
	}
	if filter.Since != nil {
		args = append(args, *filter.Since)
		conds = append(conds, fmt.Sprintf("created_at >= $%d", len(args)))
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func (r *AuditRepository) scanIncident(row rowScanner) (*audit.Incident, error) {
	var (
		id, actorUID, realTenantID shared.ID
		kind, actorEmail           string
		rawDetails                 []byte
		createdAt                  time.Time
	)
	err := row.Scan(&id, &kind, &actorUID, &actorEmail, &realTenantID, &rawDetails, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan incident: %w", err)
	}

	var details map[string]any
	if len(rawDetails) > 0 {
		if err := json.Unmarshal(rawDetails, &details); err != nil {
			return nil, fmt.Errorf("failed to unmarshal incident details: %w", err)
		}
	}

	return audit.Reconstitute(id, audit.IncidentKind(kind), actorUID, actorEmail,
		realTenantID, details, createdAt), nil
}
