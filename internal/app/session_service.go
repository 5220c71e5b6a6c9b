package app

import (
	"context"
	"fmt"
	"time"

	"github.com/planforge/api/internal/metrics"
	"github.com/planforge/api/pkg/domain/audit"
	"github.com/planforge/api/pkg/domain/session"
	"github.com/planforge/api/pkg/domain/shared"
	"github.com/planforge/api/pkg/domain/tenant"
	"github.com/planforge/api/pkg/domain/user"
	"github.com/planforge/api/pkg/jwt"
	"github.com/planforge/api/pkg/logger"
	"github.com/planforge/api/pkg/password"
)

// OverlayStore persists masquerade overlays between requests.
type OverlayStore interface {
	SaveOverlay(ctx context.Context, uid shared.ID, o session.Overlay) error
	GetOverlay(ctx context.Context, uid shared.ID) (session.Overlay, bool, error)
	DeleteOverlay(ctx context.Context, uid shared.ID) error
	CountOverlays(ctx context.Context) (int, error)
}

// SessionService handles login and masquerade state.
type SessionService struct {
	users    user.Repository
	tenants  tenant.Repository
	overlays OverlayStore
	tokens   *jwt.Manager
	hasher   *password.Hasher
	audit    *AuditService
	logger   *logger.Logger
}

// NewSessionService creates a new SessionService.
func NewSessionService(
	users user.Repository,
	tenants tenant.Repository,
	overlays OverlayStore,
	tokens *jwt.Manager,
	hasher *password.Hasher,
	auditSvc *AuditService,
	log *logger.Logger,
) *SessionService {
	return &SessionService{
		users:    users,
		tenants:  tenants,
		overlays: overlays,
		tokens:   tokens,
		hasher:   hasher,
		audit:    auditSvc,
		logger:   log.With("service", "session"),
	}
}

// LoginResult carries the issued token and the authenticated identity.
type LoginResult struct {
	Token     string
	ExpiresAt time.Time
	Identity  session.Identity
}

// Login authenticates by email and password and issues an access token.
// Failures deliberately collapse into one credential error.
func (s *SessionService) Login(ctx context.Context, email, plaintext string) (*LoginResult, error) {
	profile, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		metrics.LoginsTotal.WithLabelValues("unknown_user").Inc()
		return nil, user.ErrInvalidCredentials
	}
	if err := s.hasher.Verify(plaintext, profile.PasswordHash()); err != nil {
		metrics.LoginsTotal.WithLabelValues("bad_password").Inc()
		return nil, user.ErrInvalidCredentials
	}
	if !profile.IsActive() {
		metrics.LoginsTotal.WithLabelValues("inactive").Inc()
		if profile.Status() == user.StatusPending {
			return nil, user.ErrUserPending
		}
		return nil, user.ErrUserDisabled
	}

	t, err := s.tenants.GetByID(ctx, profile.TenantID())
	if err != nil {
		return nil, fmt.Errorf("load tenant: %w", err)
	}
	if !t.IsActive() {
		metrics.LoginsTotal.WithLabelValues("tenant_inactive").Inc()
		return nil, tenant.ErrTenantInactive
	}

	// Operator standing comes from holding the superadmin role on the
	// real profile, never from session state.
	ident, err := session.NewIdentity(profile.ID(), profile.Email(), profile.Role(),
		profile.TenantID(), profile.Role().IsSuperadmin())
	if err != nil {
		return nil, err
	}

	token, expiresAt, err := s.tokens.Generate(ident)
	if err != nil {
		return nil, err
	}

	metrics.LoginsTotal.WithLabelValues("success").Inc()
	s.logger.Info("login", "uid", ident.UID(), "role", ident.RealRole())
	return &LoginResult{Token: token, ExpiresAt: expiresAt, Identity: ident}, nil
}

// ViewContextFor rebuilds the per-request view context: a fresh NORMAL
// context for the identity, plus any stored masquerade overlay. Overlay
// store failures degrade to NORMAL rather than failing the request.
func (s *SessionService) ViewContextFor(ctx context.Context, ident session.Identity) *session.ViewContext {
	view := session.NewViewContext(ident)

	if ident.IsSuperadmin() {
		overlay, found, err := s.overlays.GetOverlay(ctx, ident.UID())
		if err != nil {
			s.logger.Warn("overlay load failed, using NORMAL context", "uid", ident.UID(), "error", err)
			return view
		}
		if found {
			view.ApplyOverlay(overlay)
		}
	}
	return view
}

// Simulate applies a partial simulation update to the caller's session.
// The identity itself never changes; only the stored overlay does.
func (s *SessionService) Simulate(ctx context.Context, ident session.Identity, sim session.Simulation) (*session.ViewContext, error) {
	// Reject before touching the target tenant so a non-superadmin
	// caller cannot probe tenant existence through error responses.
	if !ident.IsSuperadmin() {
		return nil, session.ErrMasqueradeForbidden
	}

	if sim.ActiveTenantID != nil {
		t, err := s.tenants.GetByID(ctx, *sim.ActiveTenantID)
		if err != nil {
			return nil, err
		}
		if !t.IsActive() {
			return nil, tenant.ErrTenantInactive
		}
	}

	view := s.ViewContextFor(ctx, ident)
	if err := view.Simulate(sim); err != nil {
		return nil, err
	}

	if err := s.overlays.SaveOverlay(ctx, ident.UID(), view.Overlay()); err != nil {
		return nil, fmt.Errorf("save overlay: %w", err)
	}

	s.syncMasqueradeGauge(ctx)
	s.audit.RecordMasquerade(ctx, audit.KindMasqueradeStart, ident, map[string]any{
		"active_role":      string(view.ActiveRole()),
		"active_tenant_id": view.ActiveTenantID().String(),
	})
	s.logger.Info("simulation updated",
		"uid", ident.UID(),
		"active_role", view.ActiveRole(),
		"active_tenant_id", view.ActiveTenantID(),
	)
	return view, nil
}

// Reset returns the session to the NORMAL state.
func (s *SessionService) Reset(ctx context.Context, ident session.Identity) (*session.ViewContext, error) {
	view := s.ViewContextFor(ctx, ident)
	wasMasquerading := view.IsMasquerading()
	view.Reset()

	if err := s.overlays.DeleteOverlay(ctx, ident.UID()); err != nil {
		return nil, fmt.Errorf("delete overlay: %w", err)
	}

	s.syncMasqueradeGauge(ctx)
	if wasMasquerading {
		s.audit.RecordMasquerade(ctx, audit.KindMasqueradeStop, ident, nil)
		s.logger.Info("simulation reset", "uid", ident.UID())
	}
	return view, nil
}

// syncMasqueradeGauge re-derives the active-masquerade gauge from the
// overlay store. Overlays expire by TTL without a Reset call, so the
// gauge is set from the store count instead of incremented in place.
func (s *SessionService) syncMasqueradeGauge(ctx context.Context) {
	n, err := s.overlays.CountOverlays(ctx)
	if err != nil {
		s.logger.Warn("overlay count failed, gauge left unchanged", "error", err)
		return
	}
	metrics.MasqueradeSessionsActive.Set(float64(n))
}
