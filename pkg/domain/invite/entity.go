// Package invite defines single-use provisioning codes binding a new
// user to a tenant, role, and project scope.
package invite

import (
	"fmt"
	"slices"
	"time"

	"github.com/planforge/api/pkg/domain/role"
	"github.com/planforge/api/pkg/domain/shared"
)

// DefaultExpiry is how long a fresh invite code stays consumable.
const DefaultExpiry = 14 * 24 * time.Hour

// Invite represents a one-time invite code.
type Invite struct {
	code       string
	tenantID   shared.ID
	role       role.Role
	projectIDs []shared.ID
	createdBy  shared.ID
	isUsed     bool
	usedBy     *shared.ID
	expiresAt  time.Time
	createdAt  time.Time
	usedAt     *time.Time
}

// NewInvite creates a fresh, unused Invite.
func NewInvite(tenantID shared.ID, r role.Role, projectIDs []shared.ID, createdBy shared.ID) (*Invite, error) {
	if tenantID.IsZero() {
		return nil, fmt.Errorf("%w: tenantID is required", shared.ErrValidation)
	}
	if !r.IsValid() {
		return nil, fmt.Errorf("%w: invalid role %q", shared.ErrValidation, r)
	}
	if createdBy.IsZero() {
		return nil, fmt.Errorf("%w: createdBy is required", shared.ErrValidation)
	}

	code, err := GenerateCode()
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	return &Invite{
		code:       code,
		tenantID:   tenantID,
		role:       r,
		projectIDs: slices.Clone(projectIDs),
		createdBy:  createdBy,
		expiresAt:  now.Add(DefaultExpiry),
		createdAt:  now,
	}, nil
}

// Reconstitute recreates an Invite from persistence.
func Reconstitute(
	code string,
	tenantID shared.ID,
	r role.Role,
	projectIDs []shared.ID,
	createdBy shared.ID,
	isUsed bool,
	usedBy *shared.ID,
	expiresAt, createdAt time.Time,
	usedAt *time.Time,
) *Invite {
	return &Invite{
		code:       code,
		tenantID:   tenantID,
		role:       r,
		projectIDs: projectIDs,
		createdBy:  createdBy,
		isUsed:     isUsed,
		usedBy:     usedBy,
		expiresAt:  expiresAt,
		createdAt:  createdAt,
		usedAt:     usedAt,
	}
}

// Code returns the human-enterable invite code.
func (i *Invite) Code() string {
	return i.code
}

// TenantID returns the tenant the invite binds to.
func (i *Invite) TenantID() shared.ID {
	return i.tenantID
}

// Role returns the role the invite grants.
func (i *Invite) Role() role.Role {
	return i.role
}

// ProjectIDs returns the project scope the invite grants.
func (i *Invite) ProjectIDs() []shared.ID {
	return slices.Clone(i.projectIDs)
}

// CreatedBy returns who created the invite.
func (i *Invite) CreatedBy() shared.ID {
	return i.createdBy
}

// IsUsed reports whether the invite has been consumed.
func (i *Invite) IsUsed() bool {
	return i.isUsed
}

// UsedBy returns who consumed the invite, nil if unconsumed.
func (i *Invite) UsedBy() *shared.ID {
	return i.usedBy
}

// ExpiresAt returns when the invite stops being consumable.
func (i *Invite) ExpiresAt() time.Time {
	return i.expiresAt
}

// CreatedAt returns when the invite was created.
func (i *Invite) CreatedAt() time.Time {
	return i.createdAt
}

// UsedAt returns when the invite was consumed, nil if unconsumed.
func (i *Invite) UsedAt() *time.Time {
	return i.usedAt
}

// IsExpired checks if the invite has expired.
func (i *Invite) IsExpired() bool {
	return time.Now().UTC().After(i.expiresAt)
}

// Check evaluates the invite without mutating it. Callable repeatedly.
func (i *Invite) Check() CheckResult {
	switch {
	case i.isUsed:
		return CheckResult{Status: StatusAlreadyUsed}
	case i.IsExpired():
		return CheckResult{Status: StatusExpired}
	default:
		return CheckResult{Status: StatusValid}
	}
}

// CheckStatus classifies the consumability of an invite code.
type CheckStatus string

const (
	StatusValid       CheckStatus = "valid"
	StatusNotFound    CheckStatus = "not_found"
	StatusAlreadyUsed CheckStatus = "already_used"
	StatusExpired     CheckStatus = "expired"
)

// CheckResult is the typed outcome of a checkInvite call.
type CheckResult struct {
	Status CheckStatus `json:"status"`
}

// Valid reports whether the invite may be consumed.
func (r CheckResult) Valid() bool {
	return r.Status == StatusValid
}

// Reason returns a user-facing reason for invalid results, empty when
// valid.
func (r CheckResult) Reason() string {
	switch r.Status {
	case StatusNotFound:
		return "invite code not found"
	case StatusAlreadyUsed:
		return "invite code has already been used"
	case StatusExpired:
		return "invite code has expired"
	}
	return ""
}
