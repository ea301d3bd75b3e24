package mapstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"
)

// Store provides instance-scoped access to the persisted MapSet.
// All keys and channels are automatically namespaced with the instance name.
// The store is thread-safe and can be used concurrently from multiple goroutines.
type Store struct {
	rdb          *redis.Client
	instanceName string
	defaults     MapSet
}

// NewStore creates a store for the specified instance.
//
// Parameters:
//   - redisOpts: Redis connection options (address, password, DB, etc.)
//   - instanceName: deployment instance identifier (must not be empty)
//   - defaults: MapSet served for first-touch initialization and degraded
//     reads; pass nil to use the built-in Seed() data
//
// Returns an error if instanceName is empty.
func NewStore(redisOpts *redis.Options, instanceName string, defaults MapSet) (*Store, error) {
	if instanceName == "" {
		return nil, fmt.Errorf("instance name cannot be empty")
	}
	if defaults == nil {
		defaults = Seed()
	}

	return &Store{
		rdb:          redis.NewClient(redisOpts),
		instanceName: instanceName,
		defaults:     defaults,
	}, nil
}

// Close closes the Redis connection. Implements io.Closer.
// After calling Close(), the store should not be used.
func (s *Store) Close() error {
	return s.rdb.Close()
}

// Ping verifies Redis connectivity. Useful for health checks.
func (s *Store) Ping(ctx context.Context) error {
	return s.rdb.Ping(ctx).Err()
}

// Get retrieves the full MapSet.
//
// An empty or uninitialized backing key is seeded with the default set, which
// is durably written (and published) before being returned. If Redis is
// unreachable, Get degrades to returning a copy of the in-process defaults
// without raising an error, so reads stay available through broker outages.
// A present but unparseable value is an error: it means the stored state is
// corrupt, not missing.
func (s *Store) Get(ctx context.Context) (MapSet, error) {
	key := MapSetKey(s.instanceName)

	data, err := s.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		seeded := s.defaults.Clone()
		if err := s.Set(ctx, seeded); err != nil {
			return nil, fmt.Errorf("failed to initialize store with defaults: %w", err)
		}
		return seeded, nil
	}
	if err != nil {
		// Reads are optimistically resilient: serve the defaults.
		return s.defaults.Clone(), nil
	}

	var set MapSet
	if err := json.Unmarshal(data, &set); err != nil {
		return nil, fmt.Errorf("failed to deserialize map set: %w", err)
	}
	return set, nil
}

// Set validates, sanitizes and persists the full MapSet, then publishes the
// new set on the updates channel. The candidate is sanitized in place before
// serialization. Exactly one publish happens per accepted write; a rejected
// candidate leaves the stored state untouched and publishes nothing.
//
// Unlike Get, write failures are always surfaced to the caller.
func (s *Store) Set(ctx context.Context, set MapSet) error {
	if err := Validate(set); err != nil {
		return err
	}
	Sanitize(set)

	payload, err := json.Marshal(set)
	if err != nil {
		return fmt.Errorf("failed to serialize map set: %w", err)
	}

	key := MapSetKey(s.instanceName)
	if err := s.rdb.Set(ctx, key, payload, 0).Err(); err != nil {
		return fmt.Errorf("failed to write map set to Redis: %w", err)
	}

	channel := UpdatesChannel(s.instanceName)
	if err := s.rdb.Publish(ctx, channel, payload).Err(); err != nil {
		return fmt.Errorf("failed to publish map set update: %w", err)
	}

	return nil
}

// Subscription represents an active Pub/Sub subscription to map set updates.
// Each Subscription holds its own dedicated Pub/Sub connection, so one slow
// or disconnecting consumer cannot affect another. Caller must call Close()
// when done to release the connection.
type Subscription struct {
	events <-chan MapSet
	errors <-chan error
	cancel func()
	once   sync.Once
}

// Events returns the channel of map set updates.
// The channel is closed when the subscription is closed or the context is
// cancelled.
func (s *Subscription) Events() <-chan MapSet {
	return s.events
}

// Errors returns the channel of subscription errors. Errors are non-fatal:
// a malformed message is reported here and skipped, and the subscription
// continues.
func (s *Subscription) Errors() <-chan error {
	return s.errors
}

// Close stops the subscription and releases its broker connection.
// Implements io.Closer. Safe to call multiple times.
func (s *Subscription) Close() error {
	s.once.Do(s.cancel)
	return nil
}

// Subscribe opens a new subscription to map set updates for this instance.
// It returns only once the broker has acknowledged the subscription, so an
// update published after Subscribe returns will be observed.
// Every call establishes its own Pub/Sub connection; streaming endpoints
// subscribe per client connection so that delivery and teardown are isolated.
// Caller must call subscription.Close() when done. Context cancellation also
// stops the subscription.
//
// Events are delivered on a buffered channel (size 10). If the subscriber is
// too slow, messages may be dropped by Redis Pub/Sub (at-most-once delivery).
func (s *Store) Subscribe(ctx context.Context) (*Subscription, error) {
	channel := UpdatesChannel(s.instanceName)
	pubsub := s.rdb.Subscribe(ctx, channel)

	// Wait for the broker to confirm the SUBSCRIBE before returning, so a
	// write racing a fresh subscription cannot slip past it.
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return nil, fmt.Errorf("failed to confirm subscription: %w", err)
	}

	eventsChan := make(chan MapSet, 10)
	errorsChan := make(chan error, 10)

	subCtx, cancelFunc := context.WithCancel(ctx)

	go func() {
		defer close(eventsChan)
		defer close(errorsChan)
		defer pubsub.Close()

		ch := pubsub.Channel()

		for {
			select {
			case <-subCtx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}

				var set MapSet
				if err := json.Unmarshal([]byte(msg.Payload), &set); err != nil {
					select {
					case errorsChan <- fmt.Errorf("failed to unmarshal map set update: %w", err):
					case <-subCtx.Done():
						return
					}
					continue
				}

				select {
				case eventsChan <- set:
				case <-subCtx.Done():
					return
				}
			}
		}
	}()

	return &Subscription{
		events: eventsChan,
		errors: errorsChan,
		cancel: cancelFunc,
	}, nil
}

// IsValidationError returns the *ValidationError wrapped in err, if any.
func IsValidationError(err error) (*ValidationError, bool) {
	var verr *ValidationError
	if errors.As(err, &verr) {
		return verr, true
	}
	return nil, false
}
