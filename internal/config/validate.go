package config

import (
	"fmt"
	"net/url"
	"time"
)

// Backends lists the accepted store.backend values.
var Backends = []string{"memory", "rocksdb", "bolt", "redis"}

// Validate checks the configuration for required fields and valid values.
func (c *Config) Validate() error {
	if c.HTTP.Address == "" && c.HTTP.Socket == "" {
		return fmt.Errorf("http.address or http.socket is required")
	}
	if c.HTTP.MaxBodyBytes <= 0 {
		return fmt.Errorf("http.max_body_bytes must be positive")
	}
	if !oneOf(c.Store.Backend, Backends...) {
		return fmt.Errorf("store.backend must be one of memory|rocksdb|bolt|redis, got %q", c.Store.Backend)
	}
	// Every write must expire.
	if c.Store.TTL < time.Second {
		return fmt.Errorf("store.ttl must be at least 1s, got %v", c.Store.TTL)
	}
	if c.Cleanup.Interval < 0 {
		return fmt.Errorf("cleanup.interval cannot be negative")
	}
	if c.Upstream.URL != "" {
		u, err := url.Parse(c.Upstream.URL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("upstream.url %q is not an absolute URL", c.Upstream.URL)
		}
	}
	if !oneOf(c.Log.Level, "debug", "info", "warn", "error") {
		return fmt.Errorf("log.level must be one of debug|info|warn|error, got %q", c.Log.Level)
	}
	if !oneOf(c.Log.Format, "text", "json") {
		return fmt.Errorf("log.format must be text or json, got %q", c.Log.Format)
	}
	return nil
}

func oneOf(v string, options ...string) bool {
	for _, o := range options {
		if v == o {
			return true
		}
	}
	return false
}
