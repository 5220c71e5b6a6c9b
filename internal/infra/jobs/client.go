package jobs

import (
	"context"
	"fmt"

	"github.com/hibiken/asynq"

	"github.com/planforge/api/pkg/logger"
)

// Client enqueues background jobs.
type Client struct {
	client *asynq.Client
	logger *logger.Logger
}

// ClientConfig contains configuration for the job client.
type ClientConfig struct {
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	Queue         string
	MaxRetry      int
}

// NewClient creates a new job client.
func NewClient(cfg ClientConfig, log *logger.Logger) *Client {
	client := asynq.NewClient(asynq.RedisClientOpt{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	return &Client{
		client: client,
		logger: log.With("component", "job_client"),
	}
}

// Close closes the client connection.
func (c *Client) Close() error {
	return c.client.Close()
}

// EnqueueInviteEmail enqueues an invite email job.
func (c *Client) EnqueueInviteEmail(ctx context.Context, payload InviteEmailPayload) error {
	task, err := NewInviteEmailTask(payload)
	if err != nil {
		return err
	}

	info, err := c.client.EnqueueContext(ctx, task)
	if err != nil {
		c.logger.Error("failed to enqueue invite email",
			"email", payload.RecipientEmail,
			"error", err,
		)
		return fmt.Errorf("enqueue invite email: %w", err)
	}

	c.logger.Info("invite email enqueued",
		"task_id", info.ID,
		"queue", info.Queue,
		"email", payload.RecipientEmail,
	)
	return nil
}
