package datastore

import (
	"context"
	"time"
)

// Datastore defines the minimal operations the signaling proxy needs from
// a backing key/value store. Implementations own expiry: an entry written
// with a positive ttl must stop being visible to Get and List once the ttl
// elapses. A ttl of 0 means the entry never expires.
type Datastore interface {
	// Get returns the value stored under key. ok is false when the key is
	// absent or expired.
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	// Put stores value under key, replacing any previous value and
	// refreshing its expiry.
	Put(ctx context.Context, key, value string, ttl time.Duration) error
	// Delete removes key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error
	// List returns the names of all live keys.
	List(ctx context.Context) ([]string, error)
	Close() error
}
