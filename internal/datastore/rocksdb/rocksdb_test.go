package rocksdb

import (
	"context"
	"math"
	"path/filepath"
	"testing"
	"time"
)

func TestRocksDBRoundTrip(t *testing.T) {
	ctx := context.Background()
	db, err := New(Config{Path: filepath.Join(t.TempDir(), "kvdb")})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer db.Close()

	if err := db.Put(ctx, "connection_x", "not even json", time.Hour); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	v, ok, err := db.Get(ctx, "connection_x")
	if err != nil || !ok || v != "not even json" {
		t.Errorf("Get = (%q, %v, %v), want (%q, true, nil)", v, ok, err, "not even json")
	}

	keys, err := db.List(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(keys) != 1 || keys[0] != "connection_x" {
		t.Errorf("List = %v, want [connection_x]", keys)
	}

	if err := db.Delete(ctx, "connection_x"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, ok, _ := db.Get(ctx, "connection_x"); ok {
		t.Error("Get after Delete returned a value")
	}
}

func TestDBEntryExpired(t *testing.T) {
	now := time.Now().UnixNano()
	tests := []struct {
		name  string
		entry DBEntry
		want  bool
	}{
		{"never", DBEntry{Expiry: math.MaxInt64}, false},
		{"future", DBEntry{Expiry: now + int64(time.Minute)}, false},
		{"past", DBEntry{Expiry: now - 1}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.entry.expired(now); got != tt.want {
				t.Errorf("expired() = %v, want %v", got, tt.want)
			}
		})
	}
}
