package sync

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/asaskevich/EventBus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMonitorCachesVerdict(t *testing.T) {
	var calls atomic.Int32
	probe := func(ctx context.Context) error {
		calls.Add(1)
		return nil
	}
	m := NewMonitor(probe, time.Minute, time.Second, nil)

	assert.True(t, m.Online())
	assert.True(t, m.Online())
	assert.True(t, m.Online())
	assert.EqualValues(t, 1, calls.Load(), "verdict must be served from cache within the TTL")

	m.Invalidate()
	assert.True(t, m.Online())
	assert.EqualValues(t, 2, calls.Load())
}

func TestMonitorProbeFailureMeansOffline(t *testing.T) {
	m := NewMonitor(func(ctx context.Context) error {
		return errors.New("no route to host")
	}, time.Minute, time.Second, nil)
	assert.False(t, m.Online())
}

func TestMonitorMarkOfflineShortCircuits(t *testing.T) {
	var calls atomic.Int32
	m := NewMonitor(func(ctx context.Context) error {
		calls.Add(1)
		return nil
	}, time.Minute, time.Second, nil)

	require.True(t, m.Online())
	m.MarkOffline()
	assert.False(t, m.Online(), "an observed failure overrides the cached verdict")
	assert.EqualValues(t, 1, calls.Load(), "MarkOffline must not trigger a probe")
}

func TestMonitorPublishesTransitions(t *testing.T) {
	var up atomic.Bool
	bus := EventBus.New()
	m := NewMonitor(func(ctx context.Context) error {
		if up.Load() {
			return nil
		}
		return errors.New("down")
	}, time.Minute, time.Second, bus)

	var online, offline atomic.Int32
	require.NoError(t, bus.Subscribe(TopicOnline, func() { online.Add(1) }))
	require.NoError(t, bus.Subscribe(TopicOffline, func() { offline.Add(1) }))

	assert.False(t, m.Online())
	assert.EqualValues(t, 1, offline.Load(), "the first verdict is published")

	up.Store(true)
	m.Invalidate()
	assert.True(t, m.Online())
	assert.EqualValues(t, 1, online.Load())

	// same verdict again, no extra event
	m.Invalidate()
	assert.True(t, m.Online())
	assert.EqualValues(t, 1, online.Load())

	m.MarkOffline()
	assert.EqualValues(t, 2, offline.Load())
}

func TestMonitorProbeTimeout(t *testing.T) {
	m := NewMonitor(func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	}, time.Minute, 10*time.Millisecond, nil)

	start := time.Now()
	assert.False(t, m.Online(), "a hanging probe counts as offline")
	assert.Less(t, time.Since(start), time.Second)
}

func TestAllProbesFailsFast(t *testing.T) {
	var second atomic.Bool
	probe := AllProbes(
		func(ctx context.Context) error { return errors.New("first down") },
		func(ctx context.Context) error { second.Store(true); return nil },
	)
	assert.Error(t, probe(context.Background()))
	assert.False(t, second.Load())

	probe = AllProbes(
		func(ctx context.Context) error { return nil },
		func(ctx context.Context) error { return nil },
	)
	assert.NoError(t, probe(context.Background()))
}
