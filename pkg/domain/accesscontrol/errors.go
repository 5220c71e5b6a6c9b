package accesscontrol

import (
	"errors"
	"fmt"

	"github.com/planforge/api/pkg/domain/shared"
)

// ErrSecurityViolation is the sentinel all tripwire violations wrap.
var ErrSecurityViolation = errors.New("security violation")

// SecurityViolation is raised by the write guard when a payload's tenant
// scope does not match the principal's real tenant. It aborts the
// enclosing action entirely and is never retried.
type SecurityViolation struct {
	Principal         shared.ID
	RealTenantID      shared.ID
	AttemptedTenantID shared.ID
	Collection        string
	Op                Op
}

// Error implements the error interface.
func (e *SecurityViolation) Error() string {
	return fmt.Sprintf(
		"security violation: principal %s (tenant %s) attempted %s on %s scoped to tenant %s",
		e.Principal, e.RealTenantID, e.Op, e.Collection, e.AttemptedTenantID,
	)
}

// Unwrap lets errors.Is match ErrSecurityViolation.
func (e *SecurityViolation) Unwrap() error {
	return ErrSecurityViolation
}

// IsSecurityViolation checks if the error is a tripwire violation.
func IsSecurityViolation(err error) bool {
	return errors.Is(err, ErrSecurityViolation)
}
