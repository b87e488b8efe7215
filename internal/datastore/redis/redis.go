package redis

import (
	"context"
	"strings"
	"time"

	"github.com/gomodule/redigo/redis"
	"github.com/pkg/errors"
)

// Config represents the Redis store config structure.
type Config struct {
	Address     string        `koanf:"address"`
	Password    string        `koanf:"password"`
	DB          int           `koanf:"db"`
	ActiveConns int           `koanf:"active_conns"`
	IdleConns   int           `koanf:"idle_conns"`
	Timeout     time.Duration `koanf:"timeout"`

	// Prefix namespaces every key this proxy writes.
	Prefix string `koanf:"prefix"`
}

// Redis represents the Redis implementation of the Datastore interface.
// Expiry is delegated to Redis itself.
type Redis struct {
	cfg  *Config
	pool *redis.Pool
}

// New returns a new Redis store.
func New(cfg Config) (*Redis, error) {
	pool := &redis.Pool{
		Wait:      true,
		MaxActive: cfg.ActiveConns,
		MaxIdle:   cfg.IdleConns,
		Dial: func() (redis.Conn, error) {
			return redis.Dial(
				"tcp",
				cfg.Address,
				redis.DialPassword(cfg.Password),
				redis.DialConnectTimeout(cfg.Timeout),
				redis.DialReadTimeout(cfg.Timeout),
				redis.DialWriteTimeout(cfg.Timeout),
				redis.DialDatabase(cfg.DB),
			)
		},
	}

	// Test connection.
	c := pool.Get()
	defer c.Close()

	if err := c.Err(); err != nil {
		return nil, errors.Wrapf(err, "connect redis at %q", cfg.Address)
	}
	return &Redis{cfg: &cfg, pool: pool}, nil
}

func (r *Redis) conn(ctx context.Context) (redis.Conn, error) {
	c, err := r.pool.GetContext(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "redis conn")
	}
	return c, nil
}

// Get value from a key.
func (r *Redis) Get(ctx context.Context, key string) (string, bool, error) {
	c, err := r.conn(ctx)
	if err != nil {
		return "", false, err
	}
	defer c.Close()

	v, err := redis.String(c.Do("GET", r.cfg.Prefix+key))
	if err == redis.ErrNil {
		return "", false, nil
	}
	if err != nil {
		return "", false, errors.Wrap(err, "redis get")
	}
	return v, true, nil
}

// Put a value with an optional expiry in milliseconds. A positive ttl
// always sets an expiry, however short.
func (r *Redis) Put(ctx context.Context, key, value string, ttl time.Duration) error {
	c, err := r.conn(ctx)
	if err != nil {
		return err
	}
	defer c.Close()

	args := redis.Args{}.Add(r.cfg.Prefix+key, value)
	if ttl > 0 {
		ms := ttl.Milliseconds()
		if ms < 1 {
			ms = 1
		}
		args = args.Add("PX", ms)
	}
	_, err = c.Do("SET", args...)
	return errors.Wrap(err, "redis set")
}

// Delete a value.
func (r *Redis) Delete(ctx context.Context, key string) error {
	c, err := r.conn(ctx)
	if err != nil {
		return err
	}
	defer c.Close()

	_, err = c.Do("DEL", r.cfg.Prefix+key)
	return errors.Wrap(err, "redis del")
}

// List scans the keyspace under the configured prefix.
func (r *Redis) List(ctx context.Context) ([]string, error) {
	c, err := r.conn(ctx)
	if err != nil {
		return nil, err
	}
	defer c.Close()

	var (
		out    []string
		cursor = 0
	)
	for {
		res, err := redis.Values(c.Do("SCAN", cursor, "MATCH", matchPrefix(r.cfg.Prefix), "COUNT", 100))
		if err != nil {
			return nil, errors.Wrap(err, "redis scan")
		}
		var keys []string
		if _, err := redis.Scan(res, &cursor, &keys); err != nil {
			return nil, errors.Wrap(err, "redis scan reply")
		}
		for _, k := range keys {
			out = append(out, strings.TrimPrefix(k, r.cfg.Prefix))
		}
		if cursor == 0 {
			return out, nil
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
	}
}

// matchPrefix builds a SCAN MATCH pattern selecting keys that start with
// the literal prefix.
func matchPrefix(prefix string) string {
	var b strings.Builder
	for _, c := range prefix {
		switch c {
		case '*', '?', '[', ']', '\\':
			b.WriteByte('\\')
		}
		b.WriteRune(c)
	}
	b.WriteByte('*')
	return b.String()
}

// Close the connection pool.
func (r *Redis) Close() error {
	return r.pool.Close()
}
