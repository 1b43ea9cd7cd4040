// Package cache holds derived read models (category summaries, chart
// shares) keyed by snapshot version so they are computed once per change.
package cache

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Cache is the read/write surface handlers depend on.
type Cache[T any] interface {
	Get(key string) (T, bool)
	Set(key string, data T)
	Delete(key string)
	Size() int
}

// Cleaner is implemented by caches that can drop expired entries.
type Cleaner interface {
	CleanExpired() int
}

// Manager periodically sweeps registered caches.
type Manager struct {
	mu     sync.Mutex
	caches []Cleaner
	cancel context.CancelFunc
	done   chan struct{}
}

func NewManager() *Manager {
	return &Manager{}
}

func (m *Manager) Register(c Cleaner) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.caches = append(m.caches, c)
}

// Sweep cleans every registered cache once and returns the number of
// entries removed.
func (m *Manager) Sweep() int {
	m.mu.Lock()
	caches := append([]Cleaner(nil), m.caches...)
	m.mu.Unlock()

	total := 0
	for _, c := range caches {
		total += c.CleanExpired()
	}
	return total
}

// StartCleanup sweeps every interval until Stop or ctx is done.
func (m *Manager) StartCleanup(ctx context.Context, interval time.Duration) {
	ctx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.done = make(chan struct{})

	go func() {
		defer close(m.done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if n := m.Sweep(); n > 0 {
					slog.DebugContext(ctx, "Expired cache entries removed", "count", n)
				}
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Stop ends the cleanup loop and waits for it to exit.
func (m *Manager) Stop() {
	if m.cancel == nil {
		return
	}
	m.cancel()
	<-m.done
	m.cancel = nil
}
