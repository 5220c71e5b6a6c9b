// Package tenant defines the tenant entity, the root isolation boundary
// for all customer data.
package tenant

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/planforge/api/pkg/domain/shared"
)

// SystemTenantCode is the reserved code of the default/system tenant.
// It doubles as the historical template source for tenant population.
const SystemTenantCode = "1"

var codeRegex = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

// Tenant represents a customer organization.
type Tenant struct {
	id        shared.ID
	name      string
	code      string
	isActive  bool
	createdBy shared.ID
	createdAt time.Time
	updatedAt time.Time
}

// NewTenant creates a new Tenant entity.
func NewTenant(name, code string, createdBy shared.ID) (*Tenant, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", shared.ErrValidation)
	}
	if code == "" {
		return nil, fmt.Errorf("%w: code is required", shared.ErrValidation)
	}
	if !IsValidCode(code) {
		return nil, fmt.Errorf("%w: invalid code format (use lowercase letters, numbers, and hyphens)", shared.ErrValidation)
	}
	if createdBy.IsZero() {
		return nil, fmt.Errorf("%w: createdBy is required", shared.ErrValidation)
	}

	now := time.Now().UTC()
	return &Tenant{
		id:        shared.NewID(),
		name:      name,
		code:      strings.ToLower(code),
		isActive:  true,
		createdBy: createdBy,
		createdAt: now,
		updatedAt: now,
	}, nil
}

// Reconstitute recreates a Tenant from persistence.
func Reconstitute(
	id shared.ID,
	name, code string,
	isActive bool,
	createdBy shared.ID,
	createdAt, updatedAt time.Time,
) *Tenant {
	return &Tenant{
		id:        id,
		name:      name,
		code:      code,
		isActive:  isActive,
		createdBy: createdBy,
		createdAt: createdAt,
		updatedAt: updatedAt,
	}
}

// ID returns the tenant ID.
func (t *Tenant) ID() shared.ID {
	return t.id
}

// Name returns the tenant name.
func (t *Tenant) Name() string {
	return t.name
}

// Code returns the short human-readable tenant code.
func (t *Tenant) Code() string {
	return t.code
}

// IsActive returns whether the tenant is active.
func (t *Tenant) IsActive() bool {
	return t.isActive
}

// IsSystem reports whether this is the reserved default/system tenant.
func (t *Tenant) IsSystem() bool {
	return t.code == SystemTenantCode
}

// CreatedBy returns the user ID who created this tenant.
func (t *Tenant) CreatedBy() shared.ID {
	return t.createdBy
}

// CreatedAt returns the creation timestamp.
func (t *Tenant) CreatedAt() time.Time {
	return t.createdAt
}

// UpdatedAt returns the last update timestamp.
func (t *Tenant) UpdatedAt() time.Time {
	return t.updatedAt
}

// UpdateName updates the tenant name.
func (t *Tenant) UpdateName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: name is required", shared.ErrValidation)
	}
	t.name = name
	t.updatedAt = time.Now().UTC()
	return nil
}

// Activate marks the tenant as active.
func (t *Tenant) Activate() {
	t.isActive = true
	t.updatedAt = time.Now().UTC()
}

// Deactivate marks the tenant as inactive. The system tenant cannot be
// deactivated.
func (t *Tenant) Deactivate() error {
	if t.IsSystem() {
		return fmt.Errorf("%w: the system tenant cannot be deactivated", shared.ErrForbidden)
	}
	t.isActive = false
	t.updatedAt = time.Now().UTC()
	return nil
}

// IsValidCode checks if a tenant code is valid. The reserved system code
// is always valid.
func IsValidCode(code string) bool {
	if code == SystemTenantCode {
		return true
	}
	if len(code) < 2 || len(code) > 40 {
		return false
	}
	return codeRegex.MatchString(code)
}
