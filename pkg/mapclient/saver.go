package mapclient

import (
	"context"
	"sync"
	"time"

	"github.com/mapboard/mapboard/pkg/mapstore"
)

// DefaultSaveDelay is the debounce window between a local edit and the flush
// to the server.
const DefaultSaveDelay = 2 * time.Second

// Saver debounces writes: every Update replaces the pending set and re-arms
// the timer, so a burst of edits produces a single Save once the user goes
// quiet. Close flushes whatever is still pending.
type Saver struct {
	client *Client
	delay  time.Duration

	// OnError, when set, receives failures from timer-driven flushes,
	// which have no caller to return an error to.
	OnError func(error)

	mu      sync.Mutex
	pending mapstore.MapSet
	timer   *time.Timer
	closed  bool
}

// NewSaver creates a Saver flushing through client after delay of quiet.
// A non-positive delay uses DefaultSaveDelay.
func NewSaver(client *Client, delay time.Duration) *Saver {
	if delay <= 0 {
		delay = DefaultSaveDelay
	}
	return &Saver{client: client, delay: delay}
}

// Update records the latest local state and (re)arms the debounce timer.
// Calls after Close are dropped.
func (s *Saver) Update(set mapstore.MapSet) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	s.pending = set
	if s.timer == nil {
		s.timer = time.AfterFunc(s.delay, s.timerFlush)
	} else {
		s.timer.Reset(s.delay)
	}
}

// Flush immediately saves the pending set, if any.
func (s *Saver) Flush(ctx context.Context) error {
	s.mu.Lock()
	set := s.pending
	s.pending = nil
	if s.timer != nil {
		s.timer.Stop()
	}
	s.mu.Unlock()

	if set == nil {
		return nil
	}
	return s.client.Save(ctx, set)
}

// Close stops the timer and flushes any pending state. Implements io.Closer.
func (s *Saver) Close() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return s.Flush(ctx)
}

func (s *Saver) timerFlush() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.Flush(ctx); err != nil && s.OnError != nil {
		s.OnError(err)
	}
}
