package invite

import (
	"errors"
	"fmt"

	"github.com/planforge/api/pkg/domain/shared"
)

// Domain errors for invite operations.
var (
	ErrInviteNotFound = fmt.Errorf("invite %w", shared.ErrNotFound)

	// ErrInviteAlreadyUsed is returned by consumption when the
	// single-use transition has already happened. Exactly one consumer
	// ever succeeds; every other attempt observes this error.
	ErrInviteAlreadyUsed = errors.New("invite code has already been used")

	// ErrInviteExpired is returned when consuming an expired code.
	ErrInviteExpired = errors.New("invite code has expired")
)
