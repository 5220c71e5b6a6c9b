package app

import (
	"context"
	"fmt"

	"github.com/planforge/api/pkg/domain/accesscontrol"
	"github.com/planforge/api/pkg/domain/session"
	"github.com/planforge/api/pkg/domain/shared"
	"github.com/planforge/api/pkg/domain/tenant"
	"github.com/planforge/api/pkg/logger"
)

// TenantService manages tenants. Creation and deletion are operator
// surface; tenant admins can only touch their own tenant's settings.
type TenantService struct {
	tenants    tenant.Repository
	access     *AccessService
	population *PopulationService
	logger     *logger.Logger
}

// NewTenantService creates a new TenantService.
func NewTenantService(
	tenants tenant.Repository,
	access *AccessService,
	population *PopulationService,
	log *logger.Logger,
) *TenantService {
	return &TenantService{
		tenants:    tenants,
		access:     access,
		population: population,
		logger:     log.With("service", "tenant"),
	}
}

// CreateTenantInput carries the parameters for a new tenant.
type CreateTenantInput struct {
	Name string
	Code string
	// Populate runs the group provisioning pass right after creation.
	Populate bool
}

// Create provisions a new tenant. Superadmin only.
func (s *TenantService) Create(ctx context.Context, view *session.ViewContext, in CreateTenantInput) (*tenant.Tenant, *RunReport, error) {
	ident := view.Identity()
	if !ident.RealRole().IsSuperadmin() {
		return nil, nil, fmt.Errorf("%w: tenant creation is a superadmin operation", shared.ErrForbidden)
	}

	t, err := tenant.NewTenant(in.Name, in.Code, ident.UID())
	if err != nil {
		return nil, nil, err
	}

	// Tenant rows are not themselves tenant-scoped documents.
	err = s.access.Guard().Create(ctx, ident,
		accesscontrol.Unscoped("tenants"),
		func(ctx context.Context) error {
			return s.tenants.Create(ctx, t)
		})
	if err != nil {
		return nil, nil, err
	}
	s.logger.Info("tenant created", "tenant_id", t.ID(), "code", t.Code())

	var report *RunReport
	if in.Populate {
		report, err = s.population.Populate(ctx, view, t.ID())
		if err != nil {
			// The tenant exists; population can be retried on its own.
			s.logger.Error("post-create population failed", "tenant_id", t.ID(), "error", err)
			return t, nil, err
		}
	}
	return t, report, nil
}

// Get returns a tenant visible to the caller.
func (s *TenantService) Get(ctx context.Context, view *session.ViewContext, id shared.ID) (*tenant.Tenant, error) {
	if !view.Identity().IsSuperadmin() && !view.ActiveTenantID().Equals(id) {
		return nil, tenant.ErrTenantNotFound
	}
	return s.tenants.GetByID(ctx, id)
}

// ListActive returns all active tenants. Superadmin only.
func (s *TenantService) ListActive(ctx context.Context, view *session.ViewContext) ([]*tenant.Tenant, error) {
	if !view.Identity().IsSuperadmin() {
		return nil, fmt.Errorf("%w: tenant listing is a superadmin operation", shared.ErrForbidden)
	}
	return s.tenants.ListActive(ctx)
}

// Rename updates a tenant's display name.
func (s *TenantService) Rename(ctx context.Context, view *session.ViewContext, id shared.ID, name string) (*tenant.Tenant, error) {
	ident := view.Identity()
	if !s.access.Can(ctx, view, accesscontrol.ActionEdit, accesscontrol.ResourceTenant) {
		return nil, fmt.Errorf("%w: not allowed to edit tenant settings", shared.ErrForbidden)
	}

	t, err := s.tenants.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := t.UpdateName(name); err != nil {
		return nil, err
	}

	err = s.access.Guard().Update(ctx, ident,
		accesscontrol.Scoped("tenants", t.ID()),
		func(ctx context.Context) error {
			return s.tenants.Update(ctx, t)
		})
	if err != nil {
		return nil, err
	}
	return t, nil
}

// Deactivate disables a tenant. The system tenant refuses. This is one
// of the non-bypassable operator actions.
func (s *TenantService) Deactivate(ctx context.Context, view *session.ViewContext, id shared.ID) error {
	ident := view.Identity()
	if !s.access.Can(ctx, view, accesscontrol.ActionDelete, accesscontrol.ResourceTenant) {
		return fmt.Errorf("%w: tenant deactivation requires operator standing", shared.ErrForbidden)
	}

	t, err := s.tenants.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := t.Deactivate(); err != nil {
		return err
	}

	err = s.access.Guard().Update(ctx, ident,
		accesscontrol.Scoped("tenants", t.ID()),
		func(ctx context.Context) error {
			return s.tenants.Update(ctx, t)
		})
	if err != nil {
		return err
	}

	s.logger.Info("tenant deactivated", "tenant_id", id, "by", ident.UID())
	return nil
}

// Populate runs the provisioning pass for an existing tenant.
func (s *TenantService) Populate(ctx context.Context, view *session.ViewContext, id shared.ID) (*RunReport, error) {
	return s.population.Populate(ctx, view, id)
}
