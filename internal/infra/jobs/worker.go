package jobs

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"

	"github.com/planforge/api/pkg/logger"
)

// WorkerConfig contains configuration for the background worker.
type WorkerConfig struct {
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	Concurrency   int
}

// EmailSender delivers outbound mail. Implemented by the SMTP adapter
// in production and faked in tests.
type EmailSender interface {
	SendInvite(ctx context.Context, payload InviteEmailPayload) error
}

// Worker processes background jobs.
type Worker struct {
	server *asynq.Server
	mux    *asynq.ServeMux
	logger *logger.Logger
}

// NewWorker creates a worker with all task handlers registered.
func NewWorker(cfg WorkerConfig, sender EmailSender, log *logger.Logger) *Worker {
	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = 10
	}

	server := asynq.NewServer(
		asynq.RedisClientOpt{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		},
		asynq.Config{Concurrency: concurrency},
	)

	workerLog := log.With("component", "job_worker")
	mux := asynq.NewServeMux()
	mux.HandleFunc(TypeInviteEmail, func(ctx context.Context, t *asynq.Task) error {
		var payload InviteEmailPayload
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return fmt.Errorf("unmarshal invite email payload: %v: %w", err, asynq.SkipRetry)
		}
		if err := sender.SendInvite(ctx, payload); err != nil {
			workerLog.Error("invite email delivery failed",
				"email", payload.RecipientEmail,
				"error", err,
			)
			return err
		}
		workerLog.Info("invite email delivered", "email", payload.RecipientEmail)
		return nil
	})

	return &Worker{server: server, mux: mux, logger: workerLog}
}

// Run starts processing jobs and blocks until Shutdown.
func (w *Worker) Run() error {
	w.logger.Info("job worker starting")
	return w.server.Run(w.mux)
}

// Shutdown stops the worker gracefully.
func (w *Worker) Shutdown() {
	w.logger.Info("job worker stopping")
	w.server.Shutdown()
}
