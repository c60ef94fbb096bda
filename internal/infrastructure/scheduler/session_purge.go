// Package scheduler runs periodic maintenance jobs.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jasonlvhit/gocron"
	"go.uber.org/zap"
)

// ExpiredSessionDeleter removes sessions that ended before a cutoff
type ExpiredSessionDeleter interface {
	DeleteExpired(ctx context.Context, before time.Time) (int64, error)
}

// SessionPurgeConfig holds configuration for the session purge job
type SessionPurgeConfig struct {
	Enabled bool
	// IntervalMinutes is how often the job runs
	IntervalMinutes uint64
	// Retention keeps ended sessions around for this long before deletion
	Retention time.Duration
	// Timeout bounds a single run
	Timeout time.Duration
}

// DefaultSessionPurgeConfig returns default configuration
func DefaultSessionPurgeConfig() SessionPurgeConfig {
	return SessionPurgeConfig{
		Enabled:         true,
		IntervalMinutes: 60,
		Retention:       24 * time.Hour,
		Timeout:         time.Minute,
	}
}

// SessionPurgeScheduler deletes expired and revoked sessions on an interval
type SessionPurgeScheduler struct {
	sessions ExpiredSessionDeleter
	logger   *zap.Logger
	config   SessionPurgeConfig
	now      func() time.Time

	cron      *gocron.Scheduler
	stopped   chan bool
	ctx       context.Context
	cancel    context.CancelFunc
	runMu     sync.Mutex
	mu        sync.Mutex
	isRunning bool
}

// NewSessionPurgeScheduler creates a new session purge scheduler
func NewSessionPurgeScheduler(sessions ExpiredSessionDeleter, logger *zap.Logger, config SessionPurgeConfig) *SessionPurgeScheduler {
	return &SessionPurgeScheduler{
		sessions: sessions,
		logger:   logger,
		config:   config,
		now:      time.Now,
	}
}

// Start registers the job and starts ticking. Calling Start twice is a no-op.
func (s *SessionPurgeScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return nil
	}
	if !s.config.Enabled {
		s.logger.Info("Session purge scheduler is disabled")
		return nil
	}
	if s.config.IntervalMinutes == 0 {
		return fmt.Errorf("%w: session purge interval must be positive", ErrInvalidConfig)
	}

	s.ctx, s.cancel = context.WithCancel(ctx)
	s.cron = gocron.NewScheduler()
	s.cron.Every(s.config.IntervalMinutes).Minutes().Do(s.tick)
	s.stopped = s.cron.Start()
	s.isRunning = true

	s.logger.Info("Session purge scheduler started",
		zap.Uint64("interval_minutes", s.config.IntervalMinutes),
		zap.Duration("retention", s.config.Retention),
	)
	return nil
}

// Stop halts the ticker and waits for a running purge to finish
func (s *SessionPurgeScheduler) Stop(_ context.Context) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = false
	s.stopped <- true
	s.cron.Clear()
	s.cancel()
	s.mu.Unlock()

	s.runMu.Lock()
	defer s.runMu.Unlock()
	s.logger.Info("Session purge scheduler stopped")
	return nil
}

// IsRunning reports whether the scheduler is ticking
func (s *SessionPurgeScheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isRunning
}

func (s *SessionPurgeScheduler) tick() {
	if _, err := s.RunOnce(s.ctx); err != nil {
		s.logger.Error("Session purge failed", zap.Error(err))
	}
}

// RunOnce deletes sessions that ended before now minus the retention period
func (s *SessionPurgeScheduler) RunOnce(ctx context.Context) (int64, error) {
	s.runMu.Lock()
	defer s.runMu.Unlock()

	if ctx.Err() != nil {
		return 0, ctx.Err()
	}
	timeout := s.config.Timeout
	if timeout <= 0 {
		timeout = time.Minute
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cutoff := s.now().Add(-s.config.Retention)
	start := time.Now()
	deleted, err := s.sessions.DeleteExpired(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("delete expired sessions: %w", err)
	}

	s.logger.Info("Expired sessions purged",
		zap.Int64("deleted", deleted),
		zap.Time("cutoff", cutoff),
		zap.Duration("duration", time.Since(start)),
	)
	return deleted, nil
}
