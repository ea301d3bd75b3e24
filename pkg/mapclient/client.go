// Package mapclient is the Go client for the mapboard API. It mirrors what a
// browser session does: fetch the whole map set, flush local edits back after
// a debounce, and reconcile whenever the server pushes an update — falling
// back to periodic polling when the stream keeps failing.
package mapclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/mapboard/mapboard/pkg/mapstore"
)

// ErrRateLimited is returned when the server answers 429; the caller should
// back off and retry rather than treat it as a hard failure.
var ErrRateLimited = errors.New("rate limited by server")

// Client talks to one mapboard server.
type Client struct {
	baseURL string
	httpc   *http.Client

	// PollInterval is the cadence of the polling fallback used by Watch
	// once the stream has failed MaxStreamRetries times in a row.
	PollInterval time.Duration

	// MaxStreamRetries is the number of consecutive stream failures
	// tolerated before Watch falls back to polling.
	MaxStreamRetries int

	// RetryInterval seeds the exponential backoff between stream
	// reconnection attempts.
	RetryInterval time.Duration
}

// New creates a client for the server at baseURL (scheme and host, no
// trailing slash required).
func New(baseURL string) *Client {
	return &Client{
		baseURL:          strings.TrimRight(baseURL, "/"),
		httpc:            &http.Client{},
		PollInterval:     10 * time.Second,
		MaxStreamRetries: 5,
		RetryInterval:    500 * time.Millisecond,
	}
}

// Fetch retrieves the entire map set.
func (c *Client) Fetch(ctx context.Context) (mapstore.MapSet, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/data", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch map set: %w", err)
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return nil, err
	}

	var set mapstore.MapSet
	if err := json.NewDecoder(resp.Body).Decode(&set); err != nil {
		return nil, fmt.Errorf("failed to decode map set: %w", err)
	}
	return set, nil
}

// Save posts the full map set. A 400 comes back as a
// *mapstore.ValidationError carrying the server's reason; a 429 as
// ErrRateLimited.
func (c *Client) Save(ctx context.Context, set mapstore.MapSet) error {
	payload, err := json.Marshal(set)
	if err != nil {
		return fmt.Errorf("failed to serialize map set: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/data", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("failed to save map set: %w", err)
	}
	defer resp.Body.Close()

	return checkStatus(resp)
}

// checkStatus maps error responses onto the client error taxonomy.
func checkStatus(resp *http.Response) error {
	switch {
	case resp.StatusCode == http.StatusOK:
		return nil
	case resp.StatusCode == http.StatusTooManyRequests:
		return ErrRateLimited
	case resp.StatusCode == http.StatusBadRequest:
		return &mapstore.ValidationError{Reason: errorReason(resp)}
	default:
		return fmt.Errorf("server returned %s: %s", resp.Status, errorReason(resp))
	}
}

func errorReason(resp *http.Response) string {
	var body struct {
		Error string `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil || body.Error == "" {
		return "unexpected response"
	}
	return body.Error
}
