// Package mapstore provides the data model, validation rules and Redis-backed
// persistence for market map documents.
//
// # Overview
//
// The unit of persistence is the MapSet: the full collection of market maps,
// keyed by map identifier. Every write replaces the whole set under a single
// Redis key, and every accepted write publishes the new set on a Pub/Sub
// channel so that other connected clients can reconcile their local copy.
// There is no per-field patching and no optimistic concurrency: the last
// write to complete wins.
//
// # Namespacing
//
// All Redis keys and channels are namespaced by instance name so that
// multiple mapboard deployments can share a Redis server. See schema.go for
// the key and channel patterns.
//
// # Usage Example
//
//	store, err := mapstore.NewStore(&redis.Options{Addr: "localhost:6379"}, "prod", nil)
//	if err != nil {
//		return err
//	}
//	defer store.Close()
//
//	set, err := store.Get(ctx)        // first touch seeds the default data
//	set["CUAS"] = updatedMap
//	err = store.Set(ctx, set)         // validates, persists, publishes
//
//	sub, err := store.Subscribe(ctx)  // dedicated Pub/Sub connection
//	defer sub.Close()
//	for set := range sub.Events() {
//		// reconcile
//	}
package mapstore
