package app

import (
	"context"

	"github.com/planforge/api/internal/metrics"
	"github.com/planforge/api/pkg/domain/accesscontrol"
	"github.com/planforge/api/pkg/domain/permissiongroup"
	"github.com/planforge/api/pkg/domain/session"
	"github.com/planforge/api/pkg/domain/shared"
	"github.com/planforge/api/pkg/domain/user"
	"github.com/planforge/api/pkg/logger"
)

// GroupCache is a read-through cache for permission groups.
type GroupCache interface {
	Get(ctx context.Context, id shared.ID) (*permissiongroup.Group, error)
	Set(ctx context.Context, g *permissiongroup.Group) error
	Invalidate(ctx context.Context, id shared.ID) error
}

// AccessService wires the permission resolver and the tenant write
// guard to storage.
type AccessService struct {
	users    user.Repository
	groups   permissiongroup.Repository
	cache    GroupCache
	resolver *accesscontrol.Resolver
	guard    *accesscontrol.Guard
	logger   *logger.Logger
}

// AccessServiceOption is a functional option for AccessService.
type AccessServiceOption func(*AccessService)

// WithGroupCache sets the permission group cache.
func WithGroupCache(cache GroupCache) AccessServiceOption {
	return func(s *AccessService) {
		s.cache = cache
	}
}

// NewAccessService creates a new AccessService. incidents receives
// guard tripwire hits.
func NewAccessService(
	users user.Repository,
	groups permissiongroup.Repository,
	incidents accesscontrol.IncidentRecorder,
	log *logger.Logger,
	opts ...AccessServiceOption,
) *AccessService {
	s := &AccessService{
		users:  users,
		groups: groups,
		logger: log.With("service", "access"),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.resolver = accesscontrol.NewResolver(&diagnosticSink{logger: s.logger})
	s.guard = accesscontrol.NewGuard(incidents)
	return s
}

// Guard returns the tenant write guard all mutating services share.
func (s *AccessService) Guard() *accesscontrol.Guard {
	return s.guard
}

// Resolver returns the permission resolver.
func (s *AccessService) Resolver() *accesscontrol.Resolver {
	return s.resolver
}

// SubjectFor loads the resolver subject for a user: the profile plus
// its permission group, if resolvable within the profile's tenant. A
// broken reference yields a nil Group, which the resolver treats as
// deny. Load errors also yield a nil Group rather than propagating: the
// permission path never errors.
func (s *AccessService) SubjectFor(ctx context.Context, uid shared.ID) accesscontrol.Subject {
	profile, err := s.users.GetByID(ctx, uid)
	if err != nil {
		s.logger.Warn("subject profile load failed", "uid", uid, "error", err)
		return accesscontrol.Subject{}
	}
	return accesscontrol.Subject{
		Profile: profile,
		Group:   s.loadGroup(ctx, profile),
	}
}

// Can decides whether the acting user may perform act on res, using the
// effective role from the view context.
func (s *AccessService) Can(ctx context.Context, view *session.ViewContext, act accesscontrol.Action, res accesscontrol.Resource) bool {
	var subject accesscontrol.Subject
	if view != nil {
		subject = s.SubjectFor(ctx, view.Identity().UID())
	}
	allowed := s.resolver.Can(view, subject, act, res)
	recordCheck(act, res, allowed)
	return allowed
}

// CanTarget is Can plus tenant and project scoping against a concrete
// target.
func (s *AccessService) CanTarget(ctx context.Context, view *session.ViewContext, act accesscontrol.Action, res accesscontrol.Resource, target accesscontrol.TargetRef) bool {
	var subject accesscontrol.Subject
	if view != nil {
		subject = s.SubjectFor(ctx, view.Identity().UID())
	}
	allowed := s.resolver.CanTarget(view, subject, act, res, target)
	recordCheck(act, res, allowed)
	return allowed
}

func (s *AccessService) loadGroup(ctx context.Context, profile *user.Profile) *permissiongroup.Group {
	refID := profile.PermissionGroupID()
	if refID == nil {
		return nil
	}

	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, *refID); err == nil && cached != nil {
			return cached
		}
	}

	g, err := s.groups.GetByID(ctx, *refID)
	if err != nil {
		if !shared.IsNotFound(err) {
			s.logger.Warn("permission group load failed", "group_id", refID, "error", err)
		}
		return nil
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, g); err != nil {
			s.logger.Warn("permission group cache write failed", "group_id", g.ID(), "error", err)
		}
	}
	return g
}

func recordCheck(act accesscontrol.Action, res accesscontrol.Resource, allowed bool) {
	outcome := "deny"
	if allowed {
		outcome = "allow"
	}
	metrics.PermissionChecksTotal.WithLabelValues(string(act), string(res), outcome).Inc()
}

// diagnosticSink surfaces resolver diagnostics as logs and metrics.
type diagnosticSink struct {
	logger *logger.Logger
}

func (d *diagnosticSink) DanglingGroupRef(profileID, groupID, tenantID shared.ID) {
	metrics.DanglingGroupRefsTotal.Inc()
	d.logger.Warn("dangling permission group reference, denying",
		"profile_id", profileID,
		"group_id", groupID,
		"tenant_id", tenantID,
	)
}
