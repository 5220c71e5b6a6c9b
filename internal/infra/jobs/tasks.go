// Package jobs enqueues and processes background work with Asynq, plus
// the cron schedule for invite purging.
package jobs

import (
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
)

// Task type names.
const (
	TypeInviteEmail = "email:invite"
)

// InviteEmailPayload is the payload for an invite email task.
type InviteEmailPayload struct {
	RecipientEmail string `json:"recipient_email"`
	InviteCode     string `json:"invite_code"`
	TenantName     string `json:"tenant_name"`
	Role           string `json:"role"`
	InviterName    string `json:"inviter_name"`
}

// NewInviteEmailTask creates an invite email task.
func NewInviteEmailTask(payload InviteEmailPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal invite email payload: %w", err)
	}
	return asynq.NewTask(TypeInviteEmail, data), nil
}
