package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type fakeSessionDeleter struct {
	mu      sync.Mutex
	cutoffs []time.Time
	deleted int64
	err     error
}

func (f *fakeSessionDeleter) DeleteExpired(_ context.Context, before time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cutoffs = append(f.cutoffs, before)
	return f.deleted, f.err
}

func TestSessionPurgeScheduler_RunOnce(t *testing.T) {
	fixed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	deleter := &fakeSessionDeleter{deleted: 4}
	s := NewSessionPurgeScheduler(deleter, zaptest.NewLogger(t), SessionPurgeConfig{
		Enabled:         true,
		IntervalMinutes: 5,
		Retention:       2 * time.Hour,
	})
	s.now = func() time.Time { return fixed }

	n, err := s.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(4), n)
	require.Len(t, deleter.cutoffs, 1)
	assert.Equal(t, fixed.Add(-2*time.Hour), deleter.cutoffs[0])
}

func TestSessionPurgeScheduler_RunOnceError(t *testing.T) {
	deleter := &fakeSessionDeleter{err: errors.New("db down")}
	s := NewSessionPurgeScheduler(deleter, zaptest.NewLogger(t), DefaultSessionPurgeConfig())

	_, err := s.RunOnce(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "db down")
}

func TestSessionPurgeScheduler_RunOnceCanceled(t *testing.T) {
	deleter := &fakeSessionDeleter{}
	s := NewSessionPurgeScheduler(deleter, zaptest.NewLogger(t), DefaultSessionPurgeConfig())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := s.RunOnce(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, deleter.cutoffs)
}

func TestSessionPurgeScheduler_Lifecycle(t *testing.T) {
	s := NewSessionPurgeScheduler(&fakeSessionDeleter{}, zaptest.NewLogger(t), DefaultSessionPurgeConfig())
	ctx := context.Background()

	require.NoError(t, s.Start(ctx))
	assert.True(t, s.IsRunning())
	require.NoError(t, s.Start(ctx))

	require.NoError(t, s.Stop(ctx))
	assert.False(t, s.IsRunning())
	require.NoError(t, s.Stop(ctx))
}

func TestSessionPurgeScheduler_Disabled(t *testing.T) {
	cfg := DefaultSessionPurgeConfig()
	cfg.Enabled = false
	s := NewSessionPurgeScheduler(&fakeSessionDeleter{}, zaptest.NewLogger(t), cfg)

	require.NoError(t, s.Start(context.Background()))
	assert.False(t, s.IsRunning())
}

func TestSessionPurgeScheduler_InvalidInterval(t *testing.T) {
	cfg := DefaultSessionPurgeConfig()
	cfg.IntervalMinutes = 0
	s := NewSessionPurgeScheduler(&fakeSessionDeleter{}, zaptest.NewLogger(t), cfg)

	err := s.Start(context.Background())
	assert.ErrorIs(t, err, ErrInvalidConfig)
}
