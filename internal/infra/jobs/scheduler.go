package jobs

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/planforge/api/internal/metrics"
	"github.com/planforge/api/pkg/domain/invite"
	"github.com/planforge/api/pkg/logger"
)

// Scheduler runs periodic maintenance jobs.
type Scheduler struct {
	cron    *cron.Cron
	invites invite.Repository
	keep    time.Duration
	logger  *logger.Logger
}

// NewScheduler creates the cron scheduler. keep is how long used and
// expired invites stay around before the purge removes them.
func NewScheduler(invites invite.Repository, keep time.Duration, log *logger.Logger) *Scheduler {
	return &Scheduler{
		cron:    cron.New(),
		invites: invites,
		keep:    keep,
		logger:  log.With("component", "scheduler"),
	}
}

// Start registers the jobs and starts the cron loop.
func (s *Scheduler) Start(purgeSpec string) error {
	if _, err := s.cron.AddFunc(purgeSpec, s.purgeInvites); err != nil {
		return err
	}
	s.cron.Start()
	s.logger.Info("scheduler started", "invite_purge", purgeSpec)
	return nil
}

// Stop stops the cron loop and waits for running jobs.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("scheduler stopped")
}

func (s *Scheduler) purgeInvites() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	cutoff := time.Now().UTC().Add(-s.keep)
	removed, err := s.invites.DeleteExpiredBefore(ctx, cutoff)
	if err != nil {
		s.logger.Error("invite purge failed", "error", err)
		return
	}
	if removed > 0 {
		metrics.InvitesPurgedTotal.Add(float64(removed))
		s.logger.Info("expired invites purged", "removed", removed, "cutoff", cutoff)
	}
}
