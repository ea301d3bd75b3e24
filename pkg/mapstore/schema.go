package mapstore

import "fmt"

// Redis key and channel pattern helpers
//
// All keys and Pub/Sub channels are namespaced by instance name so multiple
// mapboard instances can safely share a Redis server.
//
// Key pattern: mapboard:{instance_name}:maps
// Channel pattern: mapboard:{instance_name}:maps_updated

// MapSetKey returns the Redis key holding the JSON-serialized MapSet.
// Pattern: mapboard:{instance_name}:maps
func MapSetKey(instanceName string) string {
	return fmt.Sprintf("mapboard:%s:maps", instanceName)
}

// UpdatesChannel returns the Pub/Sub channel carrying the full MapSet on
// every accepted write.
// Pattern: mapboard:{instance_name}:maps_updated
func UpdatesChannel(instanceName string) string {
	return fmt.Sprintf("mapboard:%s:maps_updated", instanceName)
}
