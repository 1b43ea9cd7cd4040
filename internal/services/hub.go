package services

import (
	"context"
	"sync"
	"time"

	"dailyexpense/internal/core"
)

// Snapshot is an immutable view of the whole store at one version.
// Consumers must not modify the slices.
type Snapshot struct {
	Version      uint64
	Transactions []core.Transaction // newest first
	Notes        []core.Note        // highest id first
	TakenAt      time.Time
}

// Hub fans snapshots out to subscribers. Every subscriber sees the current
// snapshot on subscription and the newest one after each change; a slow
// subscriber skips intermediate versions instead of blocking publishers.
type Hub struct {
	mu      sync.Mutex
	current Snapshot
	subs    map[chan Snapshot]struct{}
}

func NewHub() *Hub {
	return &Hub{subs: make(map[chan Snapshot]struct{})}
}

// Current returns the latest published snapshot.
func (h *Hub) Current() Snapshot {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.current
}

// Publish installs a new snapshot built from txs and notes and notifies
// subscribers. The returned snapshot carries the new version.
func (h *Hub) Publish(txs []core.Transaction, notes []core.Note) Snapshot {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.current = Snapshot{
		Version:      h.current.Version + 1,
		Transactions: txs,
		Notes:        notes,
		TakenAt:      time.Now(),
	}
	for ch := range h.subs {
		offer(ch, h.current)
	}
	return h.current
}

// Subscribe returns a channel receiving snapshots until ctx is done, at
// which point the channel is closed.
func (h *Hub) Subscribe(ctx context.Context) <-chan Snapshot {
	ch := make(chan Snapshot, 1)

	h.mu.Lock()
	h.subs[ch] = struct{}{}
	ch <- h.current
	h.mu.Unlock()

	go func() {
		<-ctx.Done()
		h.mu.Lock()
		delete(h.subs, ch)
		close(ch)
		h.mu.Unlock()
	}()
	return ch
}

// offer replaces any undelivered snapshot in ch with s. Callers hold h.mu,
// so no other sender races for the freed slot.
func offer(ch chan Snapshot, s Snapshot) {
	select {
	case ch <- s:
		return
	default:
	}
	select {
	case <-ch:
	default:
	}
	ch <- s
}
