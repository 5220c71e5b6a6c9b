package jobs

import (
	"context"

	"github.com/planforge/api/internal/app"
)

// AppAdapter bridges the app layer's enqueuer interfaces to the Asynq
// client.
type AppAdapter struct {
	client *Client
}

// NewAppAdapter creates an adapter around the job client.
func NewAppAdapter(client *Client) *AppAdapter {
	return &AppAdapter{client: client}
}

// EnqueueInviteEmail implements app.InviteEmailEnqueuer.
func (a *AppAdapter) EnqueueInviteEmail(ctx context.Context, payload app.InviteEmailJobPayload) error {
	return a.client.EnqueueInviteEmail(ctx, InviteEmailPayload{
		RecipientEmail: payload.RecipientEmail,
		InviteCode:     payload.InviteCode,
		TenantName:     payload.TenantName,
		Role:           payload.Role,
		InviterName:    payload.InviterName,
	})
}
