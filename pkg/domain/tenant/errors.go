package tenant

import (
	"fmt"

	"github.com/planforge/api/pkg/domain/shared"
)

// Domain errors for tenant operations.
var (
	ErrTenantNotFound      = fmt.Errorf("tenant %w", shared.ErrNotFound)
	ErrTenantAlreadyExists = fmt.Errorf("tenant %w", shared.ErrAlreadyExists)
	ErrTenantInactive      = fmt.Errorf("%w: tenant is inactive", shared.ErrForbidden)
)

// NotFoundError creates a not found error for a specific tenant.
func NotFoundError(tenantID shared.ID) error {
	return fmt.Errorf("tenant with id %s %w", tenantID, shared.ErrNotFound)
}

// AlreadyExistsError creates an already exists error for a specific code.
func AlreadyExistsError(code string) error {
	return fmt.Errorf("tenant with code %s %w", code, shared.ErrAlreadyExists)
}
