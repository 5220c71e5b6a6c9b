// Package permissiongroup defines tenant-owned bundles of fine-grained
// capability flags. A profile referencing a group is governed by the
// group's flags instead of the legacy role table.
package permissiongroup

import (
	"fmt"
	"slices"
	"time"

	"github.com/planforge/api/pkg/domain/shared"
)

// Group represents a named, tenant-scoped permission policy.
type Group struct {
	id                 shared.ID
	tenantID           shared.ID
	name               string
	projectAccess      AccessLevel
	taskAccess         AccessLevel
	viewAccess         AccessLevel
	exportAccess       AccessLevel
	specialPermissions []string
	color              string
	version            int
	createdAt          time.Time
	updatedAt          time.Time
}

// Flags bundles the capability flags of a group for construction and
// updates.
type Flags struct {
	ProjectAccess      AccessLevel
	TaskAccess         AccessLevel
	ViewAccess         AccessLevel
	ExportAccess       AccessLevel
	SpecialPermissions []string
}

func (f Flags) validate() error {
	for _, l := range []AccessLevel{f.ProjectAccess, f.TaskAccess, f.ViewAccess, f.ExportAccess} {
		if !l.IsValid() {
			return fmt.Errorf("%w: invalid access level %q", shared.ErrValidation, l)
		}
	}
	known := KnownSpecialPermissions()
	for _, s := range f.SpecialPermissions {
		if !slices.Contains(known, s) {
			return fmt.Errorf("%w: unknown special permission %q", shared.ErrValidation, s)
		}
	}
	return nil
}

// NewGroup creates a new Group owned by a tenant.
func NewGroup(tenantID shared.ID, name string, flags Flags, color string) (*Group, error) {
	if tenantID.IsZero() {
		return nil, fmt.Errorf("%w: tenantID is required", shared.ErrValidation)
	}
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", shared.ErrValidation)
	}
	if err := flags.validate(); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	return &Group{
		id:                 shared.NewID(),
		tenantID:           tenantID,
		name:               name,
		projectAccess:      flags.ProjectAccess,
		taskAccess:         flags.TaskAccess,
		viewAccess:         flags.ViewAccess,
		exportAccess:       flags.ExportAccess,
		specialPermissions: slices.Clone(flags.SpecialPermissions),
		color:              color,
		version:            1,
		createdAt:          now,
		updatedAt:          now,
	}, nil
}

// Reconstitute recreates a Group from persistence.
func Reconstitute(
	id shared.ID,
	tenantID shared.ID,
	name string,
	flags Flags,
	color string,
	version int,
	createdAt, updatedAt time.Time,
) *Group {
	return &Group{
		id:                 id,
		tenantID:           tenantID,
		name:               name,
		projectAccess:      flags.ProjectAccess,
		taskAccess:         flags.TaskAccess,
		viewAccess:         flags.ViewAccess,
		exportAccess:       flags.ExportAccess,
		specialPermissions: flags.SpecialPermissions,
		color:              color,
		version:            version,
		createdAt:          createdAt,
		updatedAt:          updatedAt,
	}
}

// ID returns the group ID.
func (g *Group) ID() shared.ID {
	return g.id
}

// TenantID returns the owning tenant ID.
func (g *Group) TenantID() shared.ID {
	return g.tenantID
}

// Name returns the group name.
func (g *Group) Name() string {
	return g.name
}

// ProjectAccess returns the project capability flag.
func (g *Group) ProjectAccess() AccessLevel {
	return g.projectAccess
}

// TaskAccess returns the task capability flag.
func (g *Group) TaskAccess() AccessLevel {
	return g.taskAccess
}

// ViewAccess returns the view capability flag.
func (g *Group) ViewAccess() AccessLevel {
	return g.viewAccess
}

// ExportAccess returns the export capability flag.
func (g *Group) ExportAccess() AccessLevel {
	return g.exportAccess
}

// SpecialPermissions returns the extra grants beyond the four axes.
func (g *Group) SpecialPermissions() []string {
	return slices.Clone(g.specialPermissions)
}

// HasSpecial checks if the group carries a special permission.
func (g *Group) HasSpecial(perm string) bool {
	return slices.Contains(g.specialPermissions, perm)
}

// Color returns the display color.
func (g *Group) Color() string {
	return g.color
}

// Version returns the policy version, bumped on every flag change.
// Cached resolutions are keyed on it so stale entries can never widen
// access.
func (g *Group) Version() int {
	return g.version
}

// CreatedAt returns the creation timestamp.
func (g *Group) CreatedAt() time.Time {
	return g.createdAt
}

// UpdatedAt returns the last update timestamp.
func (g *Group) UpdatedAt() time.Time {
	return g.updatedAt
}

// Flags returns the current capability flags.
func (g *Group) Flags() Flags {
	return Flags{
		ProjectAccess:      g.projectAccess,
		TaskAccess:         g.taskAccess,
		ViewAccess:         g.viewAccess,
		ExportAccess:       g.exportAccess,
		SpecialPermissions: slices.Clone(g.specialPermissions),
	}
}

// Rename updates the group name.
func (g *Group) Rename(name string) error {
	if name == "" {
		return fmt.Errorf("%w: name is required", shared.ErrValidation)
	}
	g.name = name
	g.updatedAt = time.Now().UTC()
	return nil
}

// UpdateFlags replaces the capability flags and bumps the version.
func (g *Group) UpdateFlags(flags Flags) error {
	if err := flags.validate(); err != nil {
		return err
	}
	g.projectAccess = flags.ProjectAccess
	g.taskAccess = flags.TaskAccess
	g.viewAccess = flags.ViewAccess
	g.exportAccess = flags.ExportAccess
	g.specialPermissions = slices.Clone(flags.SpecialPermissions)
	g.version++
	g.updatedAt = time.Now().UTC()
	return nil
}

// UpdateColor updates the display color.
func (g *Group) UpdateColor(color string) {
	g.color = color
	g.updatedAt = time.Now().UTC()
}

// CloneInto creates a copy of this group owned by another tenant. The
// clone starts at version 1 with a fresh ID.
func (g *Group) CloneInto(tenantID shared.ID) (*Group, error) {
	return NewGroup(tenantID, g.name, g.Flags(), g.color)
}
