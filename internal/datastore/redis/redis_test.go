package redis

import (
	"context"
	"os"
	"sort"
	"testing"
	"time"
)

// These tests need a live server; set SIGNAL_TEST_REDIS=host:port to run them.
func newTestStore(t *testing.T) *Redis {
	t.Helper()
	addr := os.Getenv("SIGNAL_TEST_REDIS")
	if addr == "" {
		t.Skip("SIGNAL_TEST_REDIS not set")
	}
	r, err := New(Config{
		Address:     addr,
		ActiveConns: 4,
		IdleConns:   2,
		Timeout:     2 * time.Second,
		Prefix:      "signaltest:" + t.Name() + ":",
	})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	t.Cleanup(func() {
		keys, _ := r.List(context.Background())
		for _, k := range keys {
			_ = r.Delete(context.Background(), k)
		}
		r.Close()
	})
	return r
}

func TestRedisRoundTrip(t *testing.T) {
	ctx := context.Background()
	r := newTestStore(t)

	if err := r.Put(ctx, "connection_1", "offer", time.Minute); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	v, ok, err := r.Get(ctx, "connection_1")
	if err != nil || !ok || v != "offer" {
		t.Errorf("Get = (%q, %v, %v), want (%q, true, nil)", v, ok, err, "offer")
	}
	if err := r.Delete(ctx, "connection_1"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, ok, _ := r.Get(ctx, "connection_1"); ok {
		t.Error("Get after Delete returned a value")
	}
}

func TestRedisListStripsPrefix(t *testing.T) {
	ctx := context.Background()
	r := newTestStore(t)

	_ = r.Put(ctx, "ice_a", "1", time.Minute)
	_ = r.Put(ctx, "ice_b", "2", time.Minute)

	keys, err := r.List(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	sort.Strings(keys)
	if len(keys) != 2 || keys[0] != "ice_a" || keys[1] != "ice_b" {
		t.Errorf("List = %v, want [ice_a ice_b]", keys)
	}
}

func TestMatchPrefix(t *testing.T) {
	tests := []struct {
		prefix string
		want   string
	}{
		{"", "*"},
		{"signal:", "signal:*"},
		{"a*b", `a\*b*`},
		{"q?", `q\?*`},
		{"[ns]", `\[ns\]*`},
		{`back\slash`, `back\\slash*`},
	}
	for _, tt := range tests {
		if got := matchPrefix(tt.prefix); got != tt.want {
			t.Errorf("matchPrefix(%q) = %q, want %q", tt.prefix, got, tt.want)
		}
	}
}

func TestRedisListIgnoresOtherNamespaces(t *testing.T) {
	ctx := context.Background()
	r := newTestStore(t)
	r.cfg.Prefix = "signaltest:[ns]*:"

	other, err := New(Config{Address: r.cfg.Address, Timeout: time.Second, Prefix: "signaltest:n-other:"})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer func() {
		_ = other.Delete(ctx, "ice_foreign")
		other.Close()
	}()

	_ = r.Put(ctx, "ice_mine", "1", time.Minute)
	_ = other.Put(ctx, "ice_foreign", "2", time.Minute)

	keys, err := r.List(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(keys) != 1 || keys[0] != "ice_mine" {
		t.Errorf("List = %v, want [ice_mine]", keys)
	}
}

func TestRedisSubSecondTTLExpires(t *testing.T) {
	ctx := context.Background()
	r := newTestStore(t)

	if err := r.Put(ctx, "connection_short", "x", 200*time.Millisecond); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	time.Sleep(400 * time.Millisecond)
	if _, ok, _ := r.Get(ctx, "connection_short"); ok {
		t.Error("key with sub-second ttl never expired")
	}
}
