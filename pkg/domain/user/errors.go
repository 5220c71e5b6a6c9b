package user

import (
	"errors"
	"fmt"

	"github.com/planforge/api/pkg/domain/shared"
)

// Domain errors for user operations.
var (
	ErrUserNotFound       = fmt.Errorf("user %w", shared.ErrNotFound)
	ErrUserAlreadyExists  = fmt.Errorf("user %w", shared.ErrAlreadyExists)
	ErrUserPending        = errors.New("user is pending approval")
	ErrUserDisabled       = errors.New("user is disabled")
	ErrInvalidCredentials = errors.New("invalid email or password")
)

// NotFoundError creates a not found error for a specific user.
func NotFoundError(userID shared.ID) error {
	return fmt.Errorf("user with id %s %w", userID, shared.ErrNotFound)
}

// AlreadyExistsError creates an already exists error for a specific email.
func AlreadyExistsError(email string) error {
	return fmt.Errorf("user with email %s %w", email, shared.ErrAlreadyExists)
}
