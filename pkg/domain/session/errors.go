package session

import (
	"fmt"

	"github.com/planforge/api/pkg/domain/shared"
)

// Domain errors for session operations.
var (
	// ErrMasqueradeForbidden is returned when a principal below
	// superadmin weight attempts to enter a simulation.
	ErrMasqueradeForbidden = fmt.Errorf("%w: masquerading requires superadmin weight", shared.ErrForbidden)
)
