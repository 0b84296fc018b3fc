package scheduler

import (
	"bytes"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvery_RejectsNonPositiveInterval(t *testing.T) {
	s := New(time.UTC, nil)
	assert.Error(t, s.Every("bad", 0, func() {}))
	assert.Error(t, s.Heartbeat(-time.Second, func() int { return 0 }))
	assert.Equal(t, 0, s.Len())
}

func TestHeartbeat_Runs(t *testing.T) {
	s := New(time.UTC, nil)
	var calls atomic.Int32
	require.NoError(t, s.Heartbeat(time.Second, func() int {
		calls.Add(1)
		return 1
	}))
	assert.Equal(t, 1, s.Len())

	s.Start()
	defer s.Stop()
	require.Eventually(t, func() bool { return calls.Load() >= 1 }, 3*time.Second, 20*time.Millisecond)
}

func TestEvery_RecoversPanics(t *testing.T) {
	s := New(time.UTC, nil)
	var calls atomic.Int32
	require.NoError(t, s.Every("flaky", time.Second, func() {
		if calls.Add(1) == 1 {
			panic("boom")
		}
	}))

	s.Start()
	defer s.Stop()
	require.Eventually(t, func() bool { return calls.Load() >= 2 }, 4*time.Second, 20*time.Millisecond)
}

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestHeartbeat_LogsOnlyDrops(t *testing.T) {
	var out syncBuffer
	logger := slog.New(slog.NewTextHandler(&out, &slog.HandlerOptions{Level: slog.LevelInfo}))
	s := New(time.UTC, logger)

	var calls atomic.Int32
	require.NoError(t, s.Heartbeat(time.Second, func() int {
		if calls.Add(1) == 2 {
			return 2
		}
		return 0
	}))

	s.Start()
	defer s.Stop()
	require.Eventually(t, func() bool { return calls.Load() >= 2 }, 4*time.Second, 20*time.Millisecond)
	require.Eventually(t, func() bool {
		return strings.Contains(out.String(), "count=2")
	}, time.Second, 10*time.Millisecond)
	assert.Equal(t, 1, strings.Count(out.String(), "dropped idle monitor sessions"))
}
