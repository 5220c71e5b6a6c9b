// Package user defines the user profile entity, one per authenticated
// principal.
package user

import (
	"fmt"
	"slices"
	"time"

	"github.com/planforge/api/pkg/domain/role"
	"github.com/planforge/api/pkg/domain/shared"
)

// Status represents the lifecycle state of a user profile.
type Status string

const (
	// StatusPending is the default state for un-invited self-registrations.
	// Pending users hold no access until approved.
	StatusPending Status = "pending"
	// StatusActive is the state of a provisioned, usable profile.
	StatusActive Status = "active"
	// StatusDisabled is the state of a deactivated profile.
	StatusDisabled Status = "disabled"
)

// IsValid checks if the status is valid.
func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusActive, StatusDisabled:
		return true
	}
	return false
}

// Profile represents a user's profile within a tenant.
type Profile struct {
	id                 shared.ID
	tenantID           shared.ID
	email              string
	name               string
	passwordHash       string
	role               role.Role
	permissionGroupID  *shared.ID
	assignedProjectIDs []shared.ID
	status             Status
	createdAt          time.Time
	updatedAt          time.Time
}

// NewProfile creates a new pending Profile. Un-invited signups start in
// the pending state and must be approved before gaining access.
func NewProfile(tenantID shared.ID, email, name, passwordHash string, r role.Role) (*Profile, error) {
	return newProfile(tenantID, email, name, passwordHash, r, StatusPending)
}

// NewProvisionedProfile creates an active Profile, used when signup was
// authorized by a consumed invite code.
func NewProvisionedProfile(tenantID shared.ID, email, name, passwordHash string, r role.Role, projectIDs []shared.ID) (*Profile, error) {
	p, err := newProfile(tenantID, email, name, passwordHash, r, StatusActive)
	if err != nil {
		return nil, err
	}
	p.assignedProjectIDs = slices.Clone(projectIDs)
	return p, nil
}

func newProfile(tenantID shared.ID, email, name, passwordHash string, r role.Role, status Status) (*Profile, error) {
	if tenantID.IsZero() {
		return nil, fmt.Errorf("%w: tenantID is required", shared.ErrValidation)
	}
	if email == "" {
		return nil, fmt.Errorf("%w: email is required", shared.ErrValidation)
	}
	if !r.IsValid() {
		return nil, fmt.Errorf("%w: invalid role %q", shared.ErrValidation, r)
	}

	now := time.Now().UTC()
	return &Profile{
		id:           shared.NewID(),
		tenantID:     tenantID,
		email:        email,
		name:         name,
		passwordHash: passwordHash,
		role:         r,
		status:       status,
		createdAt:    now,
		updatedAt:    now,
	}, nil
}

// Reconstitute recreates a Profile from persistence.
func Reconstitute(
	id shared.ID,
	tenantID shared.ID,
	email, name, passwordHash string,
	r role.Role,
	permissionGroupID *shared.ID,
	assignedProjectIDs []shared.ID,
	status Status,
	createdAt, updatedAt time.Time,
) *Profile {
	return &Profile{
		id:                 id,
		tenantID:           tenantID,
		email:              email,
		name:               name,
		passwordHash:       passwordHash,
		role:               r,
		permissionGroupID:  permissionGroupID,
		assignedProjectIDs: assignedProjectIDs,
		status:             status,
		createdAt:          createdAt,
		updatedAt:          updatedAt,
	}
}

// ID returns the profile ID.
func (p *Profile) ID() shared.ID {
	return p.id
}

// TenantID returns the tenant ID.
func (p *Profile) TenantID() shared.ID {
	return p.tenantID
}

// Email returns the user's email.
func (p *Profile) Email() string {
	return p.email
}

// Name returns the user's display name.
func (p *Profile) Name() string {
	return p.name
}

// PasswordHash returns the bcrypt password hash.
func (p *Profile) PasswordHash() string {
	return p.passwordHash
}

// Role returns the legacy role.
func (p *Profile) Role() role.Role {
	return p.role
}

// PermissionGroupID returns the referenced permission group, nil if the
// legacy role table governs this user.
func (p *Profile) PermissionGroupID() *shared.ID {
	return p.permissionGroupID
}

// AssignedProjectIDs returns the projects this user is scoped to.
func (p *Profile) AssignedProjectIDs() []shared.ID {
	return slices.Clone(p.assignedProjectIDs)
}

// Status returns the profile status.
func (p *Profile) Status() Status {
	return p.status
}

// IsActive reports whether the profile is active.
func (p *Profile) IsActive() bool {
	return p.status == StatusActive
}

// CreatedAt returns the creation timestamp.
func (p *Profile) CreatedAt() time.Time {
	return p.createdAt
}

// UpdatedAt returns the last update timestamp.
func (p *Profile) UpdatedAt() time.Time {
	return p.updatedAt
}

// IsAssignedToProject checks if the user is assigned to a project.
func (p *Profile) IsAssignedToProject(projectID shared.ID) bool {
	return slices.ContainsFunc(p.assignedProjectIDs, projectID.Equals)
}

// AssignProject adds a project to the user's scope.
func (p *Profile) AssignProject(projectID shared.ID) error {
	if projectID.IsZero() {
		return fmt.Errorf("%w: projectID is required", shared.ErrValidation)
	}
	if p.IsAssignedToProject(projectID) {
		return nil
	}
	p.assignedProjectIDs = append(p.assignedProjectIDs, projectID)
	p.updatedAt = time.Now().UTC()
	return nil
}

// UnassignProject removes a project from the user's scope.
func (p *Profile) UnassignProject(projectID shared.ID) {
	p.assignedProjectIDs = slices.DeleteFunc(p.assignedProjectIDs, projectID.Equals)
	p.updatedAt = time.Now().UTC()
}

// SetPermissionGroup links the profile to a permission group. The group
// must belong to the same tenant as the profile.
func (p *Profile) SetPermissionGroup(groupID, groupTenantID shared.ID) error {
	if groupID.IsZero() {
		return fmt.Errorf("%w: groupID is required", shared.ErrValidation)
	}
	if !groupTenantID.Equals(p.tenantID) {
		return fmt.Errorf("%w: permission group belongs to another tenant", shared.ErrValidation)
	}
	p.permissionGroupID = &groupID
	p.updatedAt = time.Now().UTC()
	return nil
}

// ClearPermissionGroup removes the group link, returning the user to
// legacy role governance.
func (p *Profile) ClearPermissionGroup() {
	p.permissionGroupID = nil
	p.updatedAt = time.Now().UTC()
}

// ChangeRole updates the legacy role. Grant-weight checks are the
// caller's responsibility.
func (p *Profile) ChangeRole(r role.Role) error {
	if !r.IsValid() {
		return fmt.Errorf("%w: invalid role %q", shared.ErrValidation, r)
	}
	p.role = r
	p.updatedAt = time.Now().UTC()
	return nil
}

// UpdateName updates the display name.
func (p *Profile) UpdateName(name string) {
	p.name = name
	p.updatedAt = time.Now().UTC()
}

// Activate approves the profile.
func (p *Profile) Activate() {
	p.status = StatusActive
	p.updatedAt = time.Now().UTC()
}

// Disable deactivates the profile.
func (p *Profile) Disable() {
	p.status = StatusDisabled
	p.updatedAt = time.Now().UTC()
}
