package app

import (
	"context"
	"fmt"
	"time"

	"github.com/planforge/api/internal/metrics"
	"github.com/planforge/api/pkg/domain/accesscontrol"
	"github.com/planforge/api/pkg/domain/permissiongroup"
	"github.com/planforge/api/pkg/domain/role"
	"github.com/planforge/api/pkg/domain/session"
	"github.com/planforge/api/pkg/domain/shared"
	"github.com/planforge/api/pkg/domain/tenant"
	"github.com/planforge/api/pkg/domain/user"
	"github.com/planforge/api/pkg/logger"
)

// PopulationService provisions a tenant's permission groups from the
// template tenant and links existing users to them by legacy role. Both
// passes are idempotent: groups already present are skipped, users
// already linked keep their link.
type PopulationService struct {
	tenants tenant.Repository
	groups  permissiongroup.Repository
	users   user.Repository
	access  *AccessService
	logger  *logger.Logger
}

// NewPopulationService creates a new PopulationService.
func NewPopulationService(
	tenants tenant.Repository,
	groups permissiongroup.Repository,
	users user.Repository,
	access *AccessService,
	log *logger.Logger,
) *PopulationService {
	return &PopulationService{
		tenants: tenants,
		groups:  groups,
		users:   users,
		access:  access,
		logger:  log.With("service", "population"),
	}
}

// RunReport is the human-readable outcome of one population run.
type RunReport struct {
	TenantID       shared.ID `json:"tenant_id"`
	MappingVersion int       `json:"mapping_version"`
	GroupsCreated  []string  `json:"groups_created"`
	GroupsSkipped  []string  `json:"groups_skipped"`
	UsersLinked    int       `json:"users_linked"`
	UsersSkipped   int       `json:"users_skipped"`
	Errors         []string  `json:"errors,omitempty"`
	Duration       string    `json:"duration"`
}

// Summary renders the report as log lines, one decision per line.
func (r *RunReport) Summary() []string {
	lines := []string{
		fmt.Sprintf("population run for tenant %s (mapping v%d) took %s", r.TenantID, r.MappingVersion, r.Duration),
	}
	for _, name := range r.GroupsCreated {
		lines = append(lines, fmt.Sprintf("created group %q", name))
	}
	for _, name := range r.GroupsSkipped {
		lines = append(lines, fmt.Sprintf("skipped group %q (already present)", name))
	}
	lines = append(lines,
		fmt.Sprintf("linked %d users, skipped %d already linked", r.UsersLinked, r.UsersSkipped))
	for _, msg := range r.Errors {
		lines = append(lines, "error: "+msg)
	}
	return lines
}

// Populate clones the template tenant's groups into the target tenant
// and links its users to groups by legacy role. Safe to run repeatedly.
func (s *PopulationService) Populate(ctx context.Context, view *session.ViewContext, tenantID shared.ID) (*RunReport, error) {
	ident := view.Identity()
	if !ident.RealRole().IsSuperadmin() {
		return nil, fmt.Errorf("%w: tenant population is a superadmin operation", shared.ErrForbidden)
	}

	start := time.Now()
	report := &RunReport{
		TenantID:       tenantID,
		MappingVersion: permissiongroup.RoleGroupMappingVersion,
	}

	target, err := s.tenants.GetByID(ctx, tenantID)
	if err != nil {
		metrics.PopulationRunsTotal.WithLabelValues("error").Inc()
		return nil, err
	}

	nameToID, err := s.cloneGroups(ctx, ident, target, report)
	if err != nil {
		metrics.PopulationRunsTotal.WithLabelValues("error").Inc()
		return nil, err
	}

	s.linkUsers(ctx, target.ID(), nameToID, report)

	report.Duration = time.Since(start).Round(time.Millisecond).String()
	status := "success"
	if len(report.Errors) > 0 {
		status = "partial"
	}
	metrics.PopulationRunsTotal.WithLabelValues(status).Inc()
	metrics.PopulationRunDuration.Observe(time.Since(start).Seconds())
	metrics.PopulationGroupsCreated.Add(float64(len(report.GroupsCreated)))
	metrics.PopulationUsersLinked.Add(float64(report.UsersLinked))

	for _, line := range report.Summary() {
		s.logger.Info(line, "tenant_id", tenantID)
	}
	return report, nil
}

// cloneGroups copies the template tenant's groups into the target,
// skipping names already present. Falls back to the built-in templates
// when the template tenant has no groups yet. Per-group failures are
// collected into the report; only the initial loads abort the run.
func (s *PopulationService) cloneGroups(ctx context.Context, ident session.Identity, target *tenant.Tenant, report *RunReport) (map[string]shared.ID, error) {
	existing, err := s.groups.ExistingNames(ctx, target.ID())
	if err != nil {
		return nil, err
	}

	sources, err := s.templateGroups(ctx, target)
	if err != nil {
		return nil, err
	}

	nameToID := make(map[string]shared.ID, len(sources))
	for name, id := range existing {
		nameToID[name] = id
	}

	for _, src := range sources {
		if id, ok := existing[src.Name()]; ok {
			report.GroupsSkipped = append(report.GroupsSkipped, src.Name())
			nameToID[src.Name()] = id
			continue
		}

		clone, err := src.CloneInto(target.ID())
		if err != nil {
			report.Errors = append(report.Errors, fmt.Sprintf("clone group %q: %v", src.Name(), err))
			continue
		}
		err = s.access.Guard().Create(ctx, ident,
			accesscontrol.Scoped("permission_groups", target.ID()),
			func(ctx context.Context) error {
				return s.groups.Create(ctx, clone)
			})
		if err != nil {
			if shared.IsAlreadyExists(err) {
				// Concurrent run won the insert. Treat as skipped.
				report.GroupsSkipped = append(report.GroupsSkipped, src.Name())
				continue
			}
			report.Errors = append(report.Errors, fmt.Sprintf("create group %q: %v", src.Name(), err))
			continue
		}
		report.GroupsCreated = append(report.GroupsCreated, clone.Name())
		nameToID[clone.Name()] = clone.ID()
	}
	return nameToID, nil
}

func (s *PopulationService) templateGroups(ctx context.Context, target *tenant.Tenant) ([]*permissiongroup.Group, error) {
	system, err := s.tenants.GetByCode(ctx, tenant.SystemTenantCode)
	if err != nil {
		return nil, fmt.Errorf("load template tenant: %w", err)
	}

	// Populating the template tenant itself seeds from the built-ins.
	if !target.ID().Equals(system.ID()) {
		groups, err := s.groups.ListByTenant(ctx, system.ID())
		if err != nil {
			return nil, err
		}
		if len(groups) > 0 {
			return groups, nil
		}
		s.logger.Warn("template tenant has no groups, using built-in templates")
	}

	var out []*permissiongroup.Group
	for _, tmpl := range permissiongroup.DefaultTemplates() {
		g, err := permissiongroup.NewGroup(system.ID(), tmpl.Name, tmpl.Flags, tmpl.Color)
		if err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, nil
}

// linkUsers assigns a group to every user whose legacy role maps to one
// and who has no group yet. Writes go out in chunked batches. Failures
// are collected into the report, never aborting the run.
func (s *PopulationService) linkUsers(ctx context.Context, tenantID shared.ID, nameToID map[string]shared.ID, report *RunReport) {
	var links []user.GroupLink

	for _, r := range role.All() {
		groupName, ok := permissiongroup.GroupNameForRole(r)
		if !ok {
			continue
		}
		groupID, ok := nameToID[groupName]
		if !ok {
			s.logger.Warn("no group for mapped role, skipping", "role", r, "group", groupName)
			continue
		}

		profiles, err := s.users.ListByTenantAndRole(ctx, tenantID, r)
		if err != nil {
			report.Errors = append(report.Errors, fmt.Sprintf("list users for role %q: %v", r, err))
			continue
		}
		for _, p := range profiles {
			if p.PermissionGroupID() != nil {
				report.UsersSkipped++
				continue
			}
			links = append(links, user.GroupLink{UserID: p.ID(), GroupID: groupID})
		}
	}

	if len(links) == 0 {
		return
	}
	if err := s.users.LinkPermissionGroups(ctx, links); err != nil {
		report.Errors = append(report.Errors, fmt.Sprintf("link %d users: %v", len(links), err))
		return
	}
	report.UsersLinked = len(links)
}
