package permissiongroup

import (
	"fmt"

	"github.com/planforge/api/pkg/domain/shared"
)

// Domain errors for permission group operations.
var (
	ErrGroupNotFound      = fmt.Errorf("permission group %w", shared.ErrNotFound)
	ErrGroupAlreadyExists = fmt.Errorf("permission group %w", shared.ErrAlreadyExists)
)

// NotFoundError creates a not found error for a specific group.
func NotFoundError(groupID shared.ID) error {
	return fmt.Errorf("permission group with id %s %w", groupID, shared.ErrNotFound)
}

// AlreadyExistsError creates an already exists error for a group name
// within a tenant.
func AlreadyExistsError(tenantID shared.ID, name string) error {
	return fmt.Errorf("permission group %q in tenant %s %w", name, tenantID, shared.ErrAlreadyExists)
}
