package config

import "time"

// Default values for optional configuration fields.
const (
	DefaultAddress         = ":8080"
	DefaultMaxBodyBytes    = 1 << 20
	DefaultShutdownTimeout = 5 * time.Second
	DefaultBackend         = "memory"
	DefaultTTL             = 3600 * time.Second
	DefaultRocksDBPath     = "./kvdb"
	DefaultBoltPath        = "./signaling.bolt"
	DefaultBoltBucket      = "signaling"
	DefaultRedisAddress    = "127.0.0.1:6379"
	DefaultRedisConns      = 10
	DefaultRedisTimeout    = 3 * time.Second
	DefaultRedisPrefix     = "signal:"
	DefaultMemoryPurge     = time.Minute
	DefaultUpstreamTimeout = 5 * time.Second
	DefaultLogLevel        = "info"
	DefaultLogFormat       = "text"
)

func defaults() map[string]any {
	return map[string]any{
		"http.address":          DefaultAddress,
		"http.socket":           "",
		"http.max_body_bytes":   DefaultMaxBodyBytes,
		"http.shutdown_timeout": DefaultShutdownTimeout,

		"store.backend": DefaultBackend,
		"store.ttl":     DefaultTTL,

		"store.memory.purge_interval": DefaultMemoryPurge,
		"store.rocksdb.path":          DefaultRocksDBPath,
		"store.bolt.path":             DefaultBoltPath,
		"store.bolt.bucket":           DefaultBoltBucket,
		"store.redis.address":         DefaultRedisAddress,
		"store.redis.active_conns":    DefaultRedisConns,
		"store.redis.idle_conns":      DefaultRedisConns,
		"store.redis.timeout":         DefaultRedisTimeout,
		"store.redis.prefix":          DefaultRedisPrefix,

		"cleanup.interval": time.Duration(0),

		"upstream.url":     "",
		"upstream.timeout": DefaultUpstreamTimeout,

		"log.level":  DefaultLogLevel,
		"log.format": DefaultLogFormat,
	}
}
