package sync

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/asaskevich/EventBus"
	"github.com/guonaihong/gout"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
	"gorm.io/gorm"
)

// EventBus topics published on connectivity transitions.
const (
	TopicOnline  = "connectivity.online"
	TopicOffline = "connectivity.offline"
)

// ProbeFunc checks reachability of the remote endpoint. A non-nil error
// means offline, never a fatal condition.
type ProbeFunc func(ctx context.Context) error

// Monitor answers "are we online" with a short-lived cached verdict so
// request paths do not hammer the remote endpoint. Probe failures within
// the bounded timeout count as offline.
type Monitor struct {
	probe   ProbeFunc
	ttl     time.Duration
	timeout time.Duration
	bus     EventBus.Bus

	sf singleflight.Group

	mu        sync.Mutex
	online    bool
	probed    bool
	checkedAt time.Time
}

func NewMonitor(probe ProbeFunc, ttl, timeout time.Duration, bus EventBus.Bus) *Monitor {
	if ttl <= 0 {
		ttl = 5 * time.Second
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Monitor{probe: probe, ttl: ttl, timeout: timeout, bus: bus}
}

// Online returns the current connectivity verdict, re-probing when the
// cached one expired. Concurrent callers share a single probe.
func (m *Monitor) Online() bool {
	m.mu.Lock()
	if !m.checkedAt.IsZero() && time.Since(m.checkedAt) < m.ttl {
		v := m.online
		m.mu.Unlock()
		return v
	}
	m.mu.Unlock()

	v, _, _ := m.sf.Do("probe", func() (interface{}, error) {
		ctx, cancel := context.WithTimeout(context.Background(), m.timeout)
		defer cancel()
		err := m.probe(ctx)
		if err != nil {
			zap.L().Debug("connectivity probe failed", zap.Error(err))
		}
		return m.set(err == nil), nil
	})
	return v.(bool)
}

// MarkOffline records an observed remote failure so subsequent calls
// short-circuit to the local store until the cache expires.
func (m *Monitor) MarkOffline() {
	m.set(false)
}

// Invalidate drops the cached verdict, forcing a probe on the next call.
func (m *Monitor) Invalidate() {
	m.mu.Lock()
	m.checkedAt = time.Time{}
	m.mu.Unlock()
}

func (m *Monitor) set(online bool) bool {
	m.mu.Lock()
	// Invalidate zeroes checkedAt, so "ever probed" needs its own flag
	// or an unchanged verdict would re-publish after every invalidation.
	prev, first := m.online, !m.probed
	m.online = online
	m.probed = true
	m.checkedAt = time.Now()
	m.mu.Unlock()

	if m.bus != nil && (first || prev != online) {
		if online {
			zap.L().Info("connectivity restored")
			m.bus.Publish(TopicOnline)
		} else {
			zap.L().Warn("connectivity lost, serving from local store")
			m.bus.Publish(TopicOffline)
		}
	}
	return online
}

// DatabaseProbe pings the remote store's underlying connection.
func DatabaseProbe(db *gorm.DB) ProbeFunc {
	return func(ctx context.Context) error {
		sqlDB, err := db.DB()
		if err != nil {
			return err
		}
		return sqlDB.PingContext(ctx)
	}
}

// HealthProbe checks an HTTP health endpoint.
func HealthProbe(url string) ProbeFunc {
	return func(ctx context.Context) error {
		var code int
		if err := gout.GET(url).WithContext(ctx).Code(&code).Do(); err != nil {
			return err
		}
		if code >= 400 {
			return fmt.Errorf("health endpoint returned %d", code)
		}
		return nil
	}
}

// AllProbes succeeds only when every probe succeeds.
func AllProbes(probes ...ProbeFunc) ProbeFunc {
	return func(ctx context.Context) error {
		for _, p := range probes {
			if err := p(ctx); err != nil {
				return err
			}
		}
		return nil
	}
}
