package worker

import (
	"context"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/BuzzLyutic/things/internal/repo"
)

const DefaultSchedule = "@every 1h"

// Sweeper periodically purges expired sessions.
type Sweeper struct {
	sessions repo.SessionRepository
	logger   *zap.Logger
	schedule string
	timeout  time.Duration
	now      func() time.Time

	mu   sync.Mutex
	cron *cron.Cron
	wg   sync.WaitGroup
}

func NewSweeper(sessions repo.SessionRepository, logger *zap.Logger, schedule string) *Sweeper {
	if schedule == "" {
		schedule = DefaultSchedule
	}
	return &Sweeper{
		sessions: sessions,
		logger:   logger,
		schedule: schedule,
		timeout:  30 * time.Second,
		now:      time.Now,
	}
}

// Start registers the sweep on the schedule and runs one sweep straight away. Sweeps stop when ctx
// is cancelled or Stop is called.
func (s *Sweeper) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cronLogger := cron.PrintfLogger(zap.NewStdLog(s.logger.Named("cron")))
	c := cron.New(
		cron.WithLogger(cronLogger),
		cron.WithChain(cron.Recover(cronLogger), cron.SkipIfStillRunning(cronLogger)),
	)
	if _, err := c.AddFunc(s.schedule, func() { s.run(ctx) }); err != nil {
		return err
	}

	s.cron = c
	s.logger.Info("Starting session sweeper", zap.String("schedule", s.schedule))
	c.Start()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.run(ctx)
	}()
	return nil
}

// Stop waits for running sweeps, scheduled or initial, to finish or ctx to expire.
func (s *Sweeper) Stop(ctx context.Context) error {
	s.mu.Lock()
	c := s.cron
	s.cron = nil
	s.mu.Unlock()

	if c == nil {
		return nil
	}
	s.logger.Info("Stopping session sweeper...")

	done := make(chan struct{})
	go func() {
		<-c.Stop().Done()
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		s.logger.Info("Session sweeper stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Sweep deletes every session that has expired by now.
func (s *Sweeper) Sweep(ctx context.Context) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.sessions.DeleteExpired(ctx, s.now())
}

func (s *Sweeper) run(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	n, err := s.Sweep(ctx)
	if err != nil {
		s.logger.Error("session sweep failed", zap.Error(err))
		return
	}
	if n > 0 {
		s.logger.Info("Purged expired sessions", zap.Int64("count", n))
	}
}
