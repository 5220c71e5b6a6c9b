// Package app contains the application services that wire the domain
// to storage, caching, jobs and transport.
package app

import (
	"context"

	"github.com/planforge/api/internal/metrics"
	"github.com/planforge/api/pkg/domain/accesscontrol"
	"github.com/planforge/api/pkg/domain/audit"
	"github.com/planforge/api/pkg/domain/session"
	"github.com/planforge/api/pkg/domain/shared"
	"github.com/planforge/api/pkg/logger"
)

// AuditService records durable security incidents and serves the
// incident listing used by operators.
type AuditService struct {
	repo   audit.Repository
	logger *logger.Logger
}

// NewAuditService creates a new AuditService.
func NewAuditService(repo audit.Repository, log *logger.Logger) *AuditService {
	return &AuditService{
		repo:   repo,
		logger: log.With("service", "audit"),
	}
}

// RecordTenantMismatch implements accesscontrol.IncidentRecorder. It
// logs at error level and persists the incident. Persistence failures
// are logged and swallowed: the tripwire abort must not depend on the
// audit store being up.
func (s *AuditService) RecordTenantMismatch(ctx context.Context, in accesscontrol.TenantMismatchIncident) {
	v := in.Violation

	metrics.SecurityViolationsTotal.WithLabelValues(v.Collection, string(v.Op)).Inc()
	s.logger.Error("cross-tenant write rejected",
		"actor_uid", v.Principal,
		"actor_email", in.Email,
		"real_tenant_id", v.RealTenantID,
		"attempted_tenant_id", v.AttemptedTenantID,
		"collection", v.Collection,
		"op", v.Op,
	)

	incident, err := audit.NewIncident(audit.KindTenantMismatch, v.Principal, in.Email, v.RealTenantID,
		map[string]any{
			"attempted_tenant_id": v.AttemptedTenantID.String(),
			"collection":          v.Collection,
			"op":                  string(v.Op),
		})
	if err != nil {
		s.logger.Error("failed to build incident record", "error", err)
		return
	}
	if err := s.repo.Create(ctx, incident); err != nil {
		s.logger.Error("failed to persist incident record", "error", err)
	}
}

// RecordMasquerade persists a masquerade start or stop for the
// superadmin activity trail.
func (s *AuditService) RecordMasquerade(ctx context.Context, kind audit.IncidentKind, ident session.Identity, details map[string]any) {
	incident, err := audit.NewIncident(kind, ident.UID(), ident.Email(), ident.RealTenantID(), details)
	if err != nil {
		s.logger.Error("failed to build masquerade record", "error", err)
		return
	}
	if err := s.repo.Create(ctx, incident); err != nil {
		s.logger.Error("failed to persist masquerade record", "error", err)
	}
}

// ListIncidents returns incidents matching the filter plus the total
// count for pagination.
func (s *AuditService) ListIncidents(ctx context.Context, filter audit.Filter) ([]*audit.Incident, int64, error) {
	incidents, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.repo.Count(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	return incidents, total, nil
}

// GetIncident returns one incident by ID.
func (s *AuditService) GetIncident(ctx context.Context, id shared.ID) (*audit.Incident, error) {
	return s.repo.GetByID(ctx, id)
}
