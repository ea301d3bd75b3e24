package mapclient

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/mapboard/mapboard/pkg/mapstore"
)

// Event types pushed by the server's sync stream.
const (
	eventConnected   = "connected"
	eventMapsUpdated = "market_maps_updated"
	eventPing        = "ping"
)

type syncEvent struct {
	Type string          `json:"type"`
	Data mapstore.MapSet `json:"data,omitempty"`
}

// Watcher delivers server-pushed map set updates. It owns the stream
// connection and its reconnection policy; callers just drain Events().
type Watcher struct {
	events chan mapstore.MapSet
	errors chan error
	cancel func()
	once   sync.Once
}

// Events returns the channel of map set updates. Closed when the watcher
// stops.
func (w *Watcher) Events() <-chan mapstore.MapSet {
	return w.events
}

// Errors returns the channel of non-fatal watcher errors (stream drops,
// malformed events). The watcher keeps running after reporting one.
func (w *Watcher) Errors() <-chan error {
	return w.errors
}

// Close stops the watcher. Safe to call multiple times.
func (w *Watcher) Close() error {
	w.once.Do(w.cancel)
	return nil
}

// Watch subscribes to live updates from the server. It consumes the SSE
// stream, reconnecting with exponential backoff; after MaxStreamRetries
// consecutive failures it falls back to polling Fetch every PollInterval,
// emitting only when the set actually changes. Context cancellation or
// Close stops it.
func (c *Client) Watch(ctx context.Context) *Watcher {
	wCtx, cancel := context.WithCancel(ctx)
	w := &Watcher{
		events: make(chan mapstore.MapSet, 10),
		errors: make(chan error, 10),
		cancel: cancel,
	}
	go w.run(wCtx, c)
	return w
}

func (w *Watcher) run(ctx context.Context, c *Client) {
	defer close(w.events)
	defer close(w.errors)

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = c.RetryInterval
	bo.MaxInterval = 30 * time.Second
	bo.MaxElapsedTime = 0

	failures := 0
	for {
		connected, err := w.stream(ctx, c)
		if ctx.Err() != nil {
			return
		}
		if connected {
			// The stream was established before it broke; start the
			// failure count over.
			failures = 0
			bo.Reset()
		}
		failures++
		w.report(ctx, fmt.Errorf("sync stream failed: %w", err))

		if failures >= c.MaxStreamRetries {
			w.report(ctx, fmt.Errorf("sync stream failed %d times, falling back to polling", failures))
			w.poll(ctx, c)
			return
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(bo.NextBackOff()):
		}
	}
}

// stream consumes one SSE connection until it breaks. Returns whether the
// server acknowledged the connection before the failure.
func (w *Watcher) stream(ctx context.Context, c *Client) (connected bool, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/sync", nil)
	if err != nil {
		return false, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "text/event-stream")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return false, fmt.Errorf("failed to open sync stream: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return false, fmt.Errorf("sync stream returned %s", resp.Status)
	}

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if !strings.HasPrefix(line, "data: ") {
			continue
		}

		var ev syncEvent
		if err := json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &ev); err != nil {
			w.report(ctx, fmt.Errorf("malformed sync event: %w", err))
			continue
		}

		switch ev.Type {
		case eventConnected:
			connected = true
		case eventPing:
			// Keep-alive, nothing to deliver.
		case eventMapsUpdated:
			select {
			case w.events <- ev.Data:
			case <-ctx.Done():
				return connected, ctx.Err()
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return connected, fmt.Errorf("sync stream read failed: %w", err)
	}
	return connected, fmt.Errorf("sync stream closed by server")
}

// poll is the degraded mode: fetch the whole set on a timer and emit it when
// it differs from the last delivered state.
func (w *Watcher) poll(ctx context.Context, c *Client) {
	ticker := time.NewTicker(c.PollInterval)
	defer ticker.Stop()

	var last mapstore.MapSet
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			set, err := c.Fetch(ctx)
			if err != nil {
				w.report(ctx, fmt.Errorf("poll failed: %w", err))
				continue
			}
			if reflect.DeepEqual(set, last) {
				continue
			}
			last = set
			select {
			case w.events <- set:
			case <-ctx.Done():
				return
			}
		}
	}
}

// report delivers an error without ever blocking the watcher.
func (w *Watcher) report(_ context.Context, err error) {
	select {
	case w.errors <- err:
	default:
	}
}
