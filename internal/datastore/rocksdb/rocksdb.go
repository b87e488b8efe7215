package rocksdb

import (
	"context"
	"encoding/json"
	"math"
	"time"

	"github.com/linxGnu/grocksdb"
	"github.com/pkg/errors"
)

// Config represents the RocksDB store config structure.
type Config struct {
	Path string `koanf:"path"`
}

// DBEntry is the on-disk wrapper around every stored value.
type DBEntry struct {
	Expiry int64  `json:"expiry"`
	Value  string `json:"value"`
}

func (e DBEntry) expired(now int64) bool {
	return e.Expiry != math.MaxInt64 && now > e.Expiry
}

type RocksDB struct {
	db        *grocksdb.DB
	readOpts  *grocksdb.ReadOptions
	writeOpts *grocksdb.WriteOptions
}

func New(cfg Config) (*RocksDB, error) {
	opts := grocksdb.NewDefaultOptions()
	opts.SetCreateIfMissing(true)
	db, err := grocksdb.OpenDb(opts, cfg.Path)
	if err != nil {
		return nil, errors.Wrapf(err, "open rocksdb at %q", cfg.Path)
	}
	return &RocksDB{
		db:        db,
		readOpts:  grocksdb.NewDefaultReadOptions(),
		writeOpts: grocksdb.NewDefaultWriteOptions(),
	}, nil
}

func (r *RocksDB) Get(_ context.Context, key string) (string, bool, error) {
	v, err := r.db.Get(r.readOpts, []byte(key))
	if err != nil {
		return "", false, errors.Wrap(err, "rocksdb get")
	}
	defer v.Free()
	if !v.Exists() {
		return "", false, nil
	}
	var e DBEntry
	if err := json.Unmarshal(v.Data(), &e); err != nil {
		return "", false, errors.Wrapf(err, "decode entry %q", key)
	}
	if e.expired(time.Now().UnixNano()) {
		_ = r.db.Delete(r.writeOpts, []byte(key))
		return "", false, nil
	}
	return e.Value, true, nil
}

func (r *RocksDB) Put(_ context.Context, key, value string, ttl time.Duration) error {
	e := DBEntry{Value: value}
	if ttl == 0 {
		e.Expiry = math.MaxInt64
	} else {
		e.Expiry = time.Now().Add(ttl).UnixNano()
	}
	data, err := json.Marshal(&e)
	if err != nil {
		return errors.Wrap(err, "encode entry")
	}
	return errors.Wrap(r.db.Put(r.writeOpts, []byte(key), data), "rocksdb put")
}

func (r *RocksDB) Delete(_ context.Context, key string) error {
	return errors.Wrap(r.db.Delete(r.writeOpts, []byte(key)), "rocksdb delete")
}

// List walks the whole keyspace and returns unexpired key names.
func (r *RocksDB) List(ctx context.Context) ([]string, error) {
	var out []string
	it := r.db.NewIterator(r.readOpts)
	defer it.Close()
	now := time.Now().UnixNano()
	for it.SeekToFirst(); it.Valid(); it.Next() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		k, v := it.Key(), it.Value()
		var e DBEntry
		if err := json.Unmarshal(v.Data(), &e); err == nil && !e.expired(now) {
			out = append(out, string(k.Data()))
		}
		k.Free()
		v.Free()
	}
	if err := it.Err(); err != nil {
		return nil, errors.Wrap(err, "rocksdb iterate")
	}
	return out, nil
}

func (r *RocksDB) Close() error {
	r.readOpts.Destroy()
	r.writeOpts.Destroy()
	r.db.Close()
	return nil
}
