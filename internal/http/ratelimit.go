package http

import (
	"sync"
	"time"
)

// writeLimitPerMinute caps mutating requests per client.
const writeLimitPerMinute = 60

// rateLimiter counts requests per client IP in fixed one-minute windows.
type rateLimiter struct {
	mu           sync.Mutex
	limit        int
	clients      map[string]*clientWindow
	now          func() time.Time
	stopCleanup  chan struct{}
	shutdownOnce sync.Once
}

type clientWindow struct {
	start    time.Time
	requests int
}

func newRateLimiter(limit int) *rateLimiter {
	rl := &rateLimiter{
		limit:       limit,
		clients:     make(map[string]*clientWindow),
		now:         time.Now,
		stopCleanup: make(chan struct{}),
	}
	go rl.cleanupLoop()
	return rl
}

func (rl *rateLimiter) cleanupLoop() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			rl.dropStale()
		case <-rl.stopCleanup:
			return
		}
	}
}

// dropStale forgets clients idle for more than ten minutes.
func (rl *rateLimiter) dropStale() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := rl.now().Add(-10 * time.Minute)
	dropped := 0
	for ip, c := range rl.clients {
		if c.start.Before(cutoff) {
			delete(rl.clients, ip)
			dropped++
		}
	}
	return dropped
}

func (rl *rateLimiter) stop() {
	rl.shutdownOnce.Do(func() { close(rl.stopCleanup) })
}

// allow records one request from clientIP and reports whether it fits in
// the current window.
func (rl *rateLimiter) allow(clientIP string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	c, ok := rl.clients[clientIP]
	if !ok || now.Sub(c.start) >= time.Minute {
		rl.clients[clientIP] = &clientWindow{start: now, requests: 1}
		return true
	}
	c.requests++
	return c.requests <= rl.limit
}
