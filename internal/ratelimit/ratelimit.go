// Package ratelimit implements a best-effort, in-process sliding-window
// request limiter keyed by client address.
//
// The limiter is per-process: it does not coordinate across multiple server
// instances. For a single-instance deployment this bounds abusive clients;
// a multi-instance deployment would need a shared counter in the backing
// store instead.
package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Defaults match the public API contract: at most 100 accepted operations
// per client per 60-second window.
const (
	DefaultWindow      = 60 * time.Second
	DefaultMaxRequests = 100
)

type window struct {
	count   int
	resetAt time.Time
}

// Limiter tracks per-client request counts over a sliding window.
// It is safe for concurrent use; requests are served on OS threads, so the
// client map is guarded by a mutex.
type Limiter struct {
	mu          sync.Mutex
	windowLen   time.Duration
	maxRequests int
	clients     map[string]*window

	now func() time.Time // overridable for tests
}

// New creates a limiter allowing maxRequests per client per windowLen.
// Non-positive arguments fall back to the defaults.
func New(windowLen time.Duration, maxRequests int) *Limiter {
	if windowLen <= 0 {
		windowLen = DefaultWindow
	}
	if maxRequests <= 0 {
		maxRequests = DefaultMaxRequests
	}
	return &Limiter{
		windowLen:   windowLen,
		maxRequests: maxRequests,
		clients:     make(map[string]*window),
		now:         time.Now,
	}
}

// Allow records one operation for clientID and reports whether it is within
// the quota. When the stored window has expired the count resets to 1 and the
// window extends; otherwise the count increments and is compared against the
// cap.
func (l *Limiter) Allow(clientID string) bool {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	w, ok := l.clients[clientID]
	if !ok {
		w = &window{}
		l.clients[clientID] = w
	}

	if now.After(w.resetAt) {
		w.count = 1
		w.resetAt = now.Add(l.windowLen)
	} else {
		w.count++
	}

	return w.count <= l.maxRequests
}

// Sweep periodically evicts clients whose window has expired, bounding memory
// to the number of distinct recently-seen clients. Blocks until ctx is done;
// run it in its own goroutine.
func (l *Limiter) Sweep(ctx context.Context) {
	ticker := time.NewTicker(l.windowLen)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			l.sweepOnce()
		}
	}
}

func (l *Limiter) sweepOnce() {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	for clientID, w := range l.clients {
		if now.After(w.resetAt) {
			delete(l.clients, clientID)
		}
	}
}

// Len returns the number of tracked clients.
func (l *Limiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.clients)
}
