package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/planforge/api/internal/metrics"
	"github.com/planforge/api/pkg/domain/accesscontrol"
	"github.com/planforge/api/pkg/domain/invite"
	"github.com/planforge/api/pkg/domain/role"
	"github.com/planforge/api/pkg/domain/session"
	"github.com/planforge/api/pkg/domain/shared"
	"github.com/planforge/api/pkg/domain/tenant"
	"github.com/planforge/api/pkg/domain/user"
	"github.com/planforge/api/pkg/logger"
	"github.com/planforge/api/pkg/password"
)

// ErrStepUpRequired is returned when creating a superadmin invite
// without the explicit confirmation flag.
var ErrStepUpRequired = fmt.Errorf("%w: superadmin invite requires step-up confirmation", shared.ErrForbidden)

// InviteEmailEnqueuer enqueues invite delivery jobs.
type InviteEmailEnqueuer interface {
	EnqueueInviteEmail(ctx context.Context, payload InviteEmailJobPayload) error
}

// InviteEmailJobPayload carries what the invite email needs.
type InviteEmailJobPayload struct {
	RecipientEmail string
	InviteCode     string
	TenantName     string
	Role           string
	InviterName    string
}

// InviteService issues, checks and consumes invite codes.
type InviteService struct {
	invites invite.Repository
	users   user.Repository
	tenants tenant.Repository
	access  *AccessService
	hasher  *password.Hasher
	emails  InviteEmailEnqueuer
	logger  *logger.Logger
}

// InviteServiceOption is a functional option for InviteService.
type InviteServiceOption func(*InviteService)

// WithInviteEmailEnqueuer sets the email enqueuer.
func WithInviteEmailEnqueuer(enqueuer InviteEmailEnqueuer) InviteServiceOption {
	return func(s *InviteService) {
		s.emails = enqueuer
	}
}

// NewInviteService creates a new InviteService.
func NewInviteService(
	invites invite.Repository,
	users user.Repository,
	tenants tenant.Repository,
	access *AccessService,
	hasher *password.Hasher,
	log *logger.Logger,
	opts ...InviteServiceOption,
) *InviteService {
	s := &InviteService{
		invites: invites,
		users:   users,
		tenants: tenants,
		access:  access,
		hasher:  hasher,
		logger:  log.With("service", "invite"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateInviteInput carries the parameters for a new invite.
type CreateInviteInput struct {
	Role           role.Role
	ProjectIDs     []shared.ID
	RecipientEmail string
	// ConfirmSuperadmin is the step-up flag required when the granted
	// role is superadmin.
	ConfirmSuperadmin bool
}

// Create issues a single-use invite bound to the creator's real tenant.
// The creator can only grant roles strictly below their own weight;
// superadmins can grant anything but must confirm superadmin grants.
func (s *InviteService) Create(ctx context.Context, view *session.ViewContext, in CreateInviteInput) (*invite.Invite, error) {
	ident := view.Identity()

	if !s.access.Can(ctx, view, accesscontrol.ActionCreate, accesscontrol.ResourceInvite) {
		return nil, fmt.Errorf("%w: not allowed to create invites", shared.ErrForbidden)
	}
	creator, err := s.users.GetByID(ctx, ident.UID())
	if err != nil {
		return nil, err
	}
	if !creator.Role().CanGrant(in.Role) {
		return nil, fmt.Errorf("%w: cannot grant role %q", shared.ErrForbidden, in.Role)
	}
	if in.Role.IsSuperadmin() && !in.ConfirmSuperadmin {
		return nil, ErrStepUpRequired
	}

	// Invites bind to the real tenant even while masquerading.
	inv, err := invite.NewInvite(ident.RealTenantID(), in.Role, in.ProjectIDs, ident.UID())
	if err != nil {
		return nil, err
	}

	err = s.access.Guard().Create(ctx, ident,
		accesscontrol.Scoped("invites", inv.TenantID()),
		func(ctx context.Context) error {
			return s.invites.Create(ctx, inv)
		})
	if err != nil {
		return nil, err
	}

	s.logger.Info("invite created",
		"tenant_id", inv.TenantID(),
		"role", inv.Role(),
		"created_by", ident.UID(),
	)

	if s.emails != nil && in.RecipientEmail != "" {
		t, err := s.tenants.GetByID(ctx, inv.TenantID())
		if err != nil {
			s.logger.Warn("tenant load for invite email failed", "error", err)
			return inv, nil
		}
		err = s.emails.EnqueueInviteEmail(ctx, InviteEmailJobPayload{
			RecipientEmail: in.RecipientEmail,
			InviteCode:     inv.Code(),
			TenantName:     t.Name(),
			Role:           string(inv.Role()),
			InviterName:    creator.Name(),
		})
		if err != nil {
			s.logger.Warn("invite email enqueue failed", "error", err)
		}
	}
	return inv, nil
}

// Check evaluates a code without consuming it. Safe to call repeatedly.
func (s *InviteService) Check(ctx context.Context, code string) invite.CheckResult {
	inv, err := s.invites.GetByCode(ctx, code)
	if err != nil {
		return invite.CheckResult{Status: invite.StatusNotFound}
	}
	return inv.Check()
}

// SignupInput carries the self-registration parameters.
type SignupInput struct {
	Email    string
	Name     string
	Password string
	// InviteCode is optional. Without one the profile lands in the
	// default tenant as a pending client awaiting manual approval.
	InviteCode string
}

// Signup registers a profile. With a valid invite code the consume is
// atomic: of N concurrent signups on one code exactly one wins, and the
// profile is provisioned active with the invite's tenant, role and
// project scope.
func (s *InviteService) Signup(ctx context.Context, in SignupInput) (*user.Profile, error) {
	taken, err := s.users.ExistsByEmail(ctx, in.Email)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, user.AlreadyExistsError(in.Email)
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrValidation, err)
	}

	if in.InviteCode == "" {
		return s.signupPending(ctx, in, hash)
	}
	return s.signupWithInvite(ctx, in, hash)
}

func (s *InviteService) signupPending(ctx context.Context, in SignupInput, hash string) (*user.Profile, error) {
	t, err := s.tenants.GetByCode(ctx, tenant.SystemTenantCode)
	if err != nil {
		return nil, fmt.Errorf("load default tenant: %w", err)
	}

	profile, err := user.NewProfile(t.ID(), in.Email, in.Name, hash, role.RoleClient)
	if err != nil {
		return nil, err
	}
	if err := s.users.Create(ctx, profile); err != nil {
		return nil, err
	}

	s.logger.Info("pending signup registered", "uid", profile.ID(), "tenant_id", t.ID())
	return profile, nil
}

func (s *InviteService) signupWithInvite(ctx context.Context, in SignupInput, hash string) (*user.Profile, error) {
	profileID := shared.NewID()

	inv, err := s.invites.Consume(ctx, in.InviteCode, profileID)
	if err != nil {
		switch {
		case errors.Is(err, invite.ErrInviteAlreadyUsed):
			metrics.InvitesConsumedTotal.WithLabelValues("already_used").Inc()
		case errors.Is(err, invite.ErrInviteExpired):
			metrics.InvitesConsumedTotal.WithLabelValues("expired").Inc()
		case errors.Is(err, invite.ErrInviteNotFound):
			metrics.InvitesConsumedTotal.WithLabelValues("not_found").Inc()
		}
		return nil, err
	}

	profile, err := user.NewProvisionedProfile(inv.TenantID(), in.Email, in.Name, hash, inv.Role(), inv.ProjectIDs())
	if err != nil {
		return nil, err
	}
	if err := s.users.Create(ctx, profile); err != nil {
		// The code is burned but the profile write failed. Surface the
		// error; the operator resolves it by issuing a fresh invite.
		s.logger.Error("profile create after consume failed",
			"email", in.Email,
			"tenant_id", inv.TenantID(),
			"error", err,
		)
		return nil, err
	}

	metrics.InvitesConsumedTotal.WithLabelValues("success").Inc()
	s.logger.Info("invite signup provisioned",
		"uid", profile.ID(),
		"tenant_id", inv.TenantID(),
		"role", inv.Role(),
	)
	return profile, nil
}

// ListByTenant returns the invites of the caller's effective tenant.
func (s *InviteService) ListByTenant(ctx context.Context, view *session.ViewContext) ([]*invite.Invite, error) {
	if !s.access.Can(ctx, view, accesscontrol.ActionView, accesscontrol.ResourceInvite) {
		return nil, fmt.Errorf("%w: not allowed to list invites", shared.ErrForbidden)
	}
	return s.invites.ListByTenant(ctx, view.ActiveTenantID())
}

// Revoke deletes an unused invite.
func (s *InviteService) Revoke(ctx context.Context, view *session.ViewContext, code string) error {
	ident := view.Identity()
	if !s.access.Can(ctx, view, accesscontrol.ActionDelete, accesscontrol.ResourceInvite) {
		return fmt.Errorf("%w: not allowed to revoke invites", shared.ErrForbidden)
	}

	inv, err := s.invites.GetByCode(ctx, code)
	if err != nil {
		return err
	}
	return s.access.Guard().Delete(ctx, ident,
		accesscontrol.Scoped("invites", inv.TenantID()),
		func(ctx context.Context) error {
			return s.invites.Delete(ctx, code)
		})
}
