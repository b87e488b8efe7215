package bolt

import (
	"context"
	"encoding/binary"
	"time"

	"github.com/pkg/errors"
	bolt "go.etcd.io/bbolt"
)

// Config represents the Bolt store config structure.
type Config struct {
	Path   string `koanf:"path"`
	Bucket string `koanf:"bucket"`
}

const headerLen = 8

// Store is a single-bucket bbolt database. Each value is laid out as an
// 8 byte big endian expiry (unix nanoseconds, 0 = never) followed by the
// raw value.
type Store struct {
	db     *bolt.DB
	bucket []byte
	now    func() time.Time
}

// New opens or creates the database at cfg.Path.
func New(cfg Config) (*Store, error) {
	db, err := bolt.Open(cfg.Path, 0o600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, errors.Wrapf(err, "open bolt at %q", cfg.Path)
	}
	bucket := []byte("signaling")
	if cfg.Bucket != "" {
		bucket = []byte(cfg.Bucket)
	}
	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucket)
		return err
	}); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "create bucket")
	}
	return &Store{db: db, bucket: bucket, now: time.Now}, nil
}

func (s *Store) expired(v []byte, now int64) bool {
	if len(v) < headerLen {
		return true
	}
	exp := int64(binary.BigEndian.Uint64(v[:headerLen]))
	return exp > 0 && now > exp
}

// Get returns the value if present and not expired.
func (s *Store) Get(_ context.Context, key string) (string, bool, error) {
	var (
		out   string
		found bool
	)
	err := s.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(s.bucket).Get([]byte(key))
		if v == nil || s.expired(v, s.now().UnixNano()) {
			return nil
		}
		out = string(v[headerLen:])
		found = true
		return nil
	})
	if err != nil {
		return "", false, errors.Wrap(err, "bolt get")
	}
	return out, found, nil
}

// Put stores value with an absolute expiration of now+ttl.
func (s *Store) Put(_ context.Context, key, value string, ttl time.Duration) error {
	var exp int64
	if ttl > 0 {
		exp = s.now().Add(ttl).UnixNano()
	}
	buf := make([]byte, headerLen+len(value))
	binary.BigEndian.PutUint64(buf[:headerLen], uint64(exp))
	copy(buf[headerLen:], value)

	return errors.Wrap(s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(s.bucket).Put([]byte(key), buf)
	}), "bolt put")
}

// Delete removes a key.
func (s *Store) Delete(_ context.Context, key string) error {
	return errors.Wrap(s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(s.bucket).Delete([]byte(key))
	}), "bolt delete")
}

// List returns unexpired keys in bucket order.
func (s *Store) List(_ context.Context) ([]string, error) {
	var out []string
	now := s.now().UnixNano()
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(s.bucket).ForEach(func(k, v []byte) error {
			if !s.expired(v, now) {
				out = append(out, string(k))
			}
			return nil
		})
	})
	if err != nil {
		return nil, errors.Wrap(err, "bolt list")
	}
	return out, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}
