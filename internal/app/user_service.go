package app

import (
	"context"
	"fmt"

	"github.com/planforge/api/pkg/domain/accesscontrol"
	"github.com/planforge/api/pkg/domain/permissiongroup"
	"github.com/planforge/api/pkg/domain/role"
	"github.com/planforge/api/pkg/domain/session"
	"github.com/planforge/api/pkg/domain/shared"
	"github.com/planforge/api/pkg/domain/user"
	"github.com/planforge/api/pkg/logger"
)

// UserService manages user profiles within a tenant.
type UserService struct {
	users  user.Repository
	groups permissiongroup.Repository
	access *AccessService
	logger *logger.Logger
}

// NewUserService creates a new UserService.
func NewUserService(users user.Repository, groups permissiongroup.Repository, access *AccessService, log *logger.Logger) *UserService {
	return &UserService{
		users:  users,
		groups: groups,
		access: access,
		logger: log.With("service", "user"),
	}
}

// Me returns the caller's own profile.
func (s *UserService) Me(ctx context.Context, ident session.Identity) (*user.Profile, error) {
	return s.users.GetByID(ctx, ident.UID())
}

// ListByTenant returns the profiles of the caller's effective tenant.
func (s *UserService) ListByTenant(ctx context.Context, view *session.ViewContext) ([]*user.Profile, error) {
	if !s.access.Can(ctx, view, accesscontrol.ActionView, accesscontrol.ResourceUser) {
		return nil, fmt.Errorf("%w: not allowed to list users", shared.ErrForbidden)
	}
	return s.users.ListByTenant(ctx, view.ActiveTenantID())
}

// Get returns one profile, tenant-scoped to the caller's view.
func (s *UserService) Get(ctx context.Context, view *session.ViewContext, id shared.ID) (*user.Profile, error) {
	if !s.access.Can(ctx, view, accesscontrol.ActionView, accesscontrol.ResourceUser) {
		return nil, fmt.Errorf("%w: not allowed to view users", shared.ErrForbidden)
	}
	p, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !p.TenantID().Equals(view.ActiveTenantID()) && !view.Identity().IsSuperadmin() {
		return nil, user.ErrUserNotFound
	}
	return p, nil
}

// ChangeRole moves a profile to another legacy role. The caller can
// only grant roles strictly below their own weight.
func (s *UserService) ChangeRole(ctx context.Context, view *session.ViewContext, id shared.ID, newRole role.Role) (*user.Profile, error) {
	ident := view.Identity()
	if !s.access.Can(ctx, view, accesscontrol.ActionEdit, accesscontrol.ResourceUser) {
		return nil, fmt.Errorf("%w: not allowed to edit users", shared.ErrForbidden)
	}
	if !ident.RealRole().CanGrant(newRole) {
		return nil, fmt.Errorf("%w: cannot grant role %q", shared.ErrForbidden, newRole)
	}

	p, err := s.Get(ctx, view, id)
	if err != nil {
		return nil, err
	}
	if err := p.ChangeRole(newRole); err != nil {
		return nil, err
	}

	err = s.access.Guard().Update(ctx, ident,
		accesscontrol.Scoped("users", p.TenantID()),
		func(ctx context.Context) error {
			return s.users.Update(ctx, p)
		})
	if err != nil {
		return nil, err
	}

	s.logger.Info("user role changed", "uid", id, "role", newRole, "by", ident.UID())
	return p, nil
}

// SetGroup links a profile to a permission group in its own tenant, or
// clears the link with a nil groupID.
func (s *UserService) SetGroup(ctx context.Context, view *session.ViewContext, id shared.ID, groupID *shared.ID) (*user.Profile, error) {
	ident := view.Identity()
	if !s.access.Can(ctx, view, accesscontrol.ActionEdit, accesscontrol.ResourceUser) {
		return nil, fmt.Errorf("%w: not allowed to edit users", shared.ErrForbidden)
	}

	p, err := s.Get(ctx, view, id)
	if err != nil {
		return nil, err
	}

	if groupID == nil {
		p.ClearPermissionGroup()
	} else {
		g, err := s.groups.GetByID(ctx, *groupID)
		if err != nil {
			return nil, err
		}
		if err := p.SetPermissionGroup(g.ID(), g.TenantID()); err != nil {
			return nil, err
		}
	}

	err = s.access.Guard().Update(ctx, ident,
		accesscontrol.Scoped("users", p.TenantID()),
		func(ctx context.Context) error {
			return s.users.Update(ctx, p)
		})
	if err != nil {
		return nil, err
	}
	return p, nil
}

// Approve activates a pending profile.
func (s *UserService) Approve(ctx context.Context, view *session.ViewContext, id shared.ID) (*user.Profile, error) {
	ident := view.Identity()
	if !s.access.Can(ctx, view, accesscontrol.ActionEdit, accesscontrol.ResourceUser) {
		return nil, fmt.Errorf("%w: not allowed to approve users", shared.ErrForbidden)
	}

	p, err := s.Get(ctx, view, id)
	if err != nil {
		return nil, err
	}
	p.Activate()

	err = s.access.Guard().Update(ctx, ident,
		accesscontrol.Scoped("users", p.TenantID()),
		func(ctx context.Context) error {
			return s.users.Update(ctx, p)
		})
	if err != nil {
		return nil, err
	}

	s.logger.Info("user approved", "uid", id, "by", ident.UID())
	return p, nil
}

// Delete removes a profile. Non-bypassable: requires operator standing.
func (s *UserService) Delete(ctx context.Context, view *session.ViewContext, id shared.ID) error {
	ident := view.Identity()
	if !s.access.Can(ctx, view, accesscontrol.ActionDelete, accesscontrol.ResourceUser) {
		return fmt.Errorf("%w: user deletion requires operator standing", shared.ErrForbidden)
	}

	p, err := s.users.GetByID(ctx, id)
	if err != nil {
		return err
	}

	err = s.access.Guard().Delete(ctx, ident,
		accesscontrol.Scoped("users", p.TenantID()),
		func(ctx context.Context) error {
			return s.users.Delete(ctx, id)
		})
	if err != nil {
		return err
	}

	s.logger.Info("user deleted", "uid", id, "by", ident.UID())
	return nil
}
