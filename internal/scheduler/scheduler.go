// Package scheduler runs periodic jobs on a cron schedule.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/yukikurage/taskflow-api/internal/notify"
)

// DigestRunner is the job the scheduler fires.
type DigestRunner interface {
	Run(ctx context.Context) (notify.DigestReport, error)
}

// DigestScheduler fires the overdue digest on a cron spec.
type DigestScheduler struct {
	cron    *cron.Cron
	runner  DigestRunner
	log     *slog.Logger
	timeout time.Duration
}

// NewDigestScheduler registers runner under spec, evaluated in loc.
func NewDigestScheduler(spec string, loc *time.Location, runner DigestRunner, log *slog.Logger) (*DigestScheduler, error) {
	if loc == nil {
		loc = time.UTC
	}
	s := &DigestScheduler{
		cron:    cron.New(cron.WithLocation(loc)),
		runner:  runner,
		log:     log,
		timeout: 10 * time.Minute,
	}

	if _, err := s.cron.AddFunc(spec, s.runOnce); err != nil {
		return nil, fmt.Errorf("invalid digest schedule %q: %w", spec, err)
	}
	return s, nil
}

func (s *DigestScheduler) runOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	job := notify.Safe(s.log, "overdue digest", func(ctx context.Context) error {
		_, err := s.runner.Run(ctx)
		return err
	})
	job(ctx)
}

// Next returns when the digest fires next.
func (s *DigestScheduler) Next() time.Time {
	entries := s.cron.Entries()
	if len(entries) == 0 {
		return time.Time{}
	}
	return entries[0].Next
}

// Start begins firing in the background.
func (s *DigestScheduler) Start() {
	s.cron.Start()
	s.log.Info("digest scheduler started", "next_run", s.Next())
}

// Stop prevents further runs and waits for a running digest to finish or ctx to expire.
func (s *DigestScheduler) Stop(ctx context.Context) error {
	done := s.cron.Stop().Done()
	select {
	case <-done:
		s.log.Info("digest scheduler stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
