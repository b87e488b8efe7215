package cleaner

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/UltraSive/p2p-signaling/internal/datastore/memory"
)

// flakyStore fails Get or Delete for chosen keys.
type flakyStore struct {
	*memory.InMemory
	failGet    map[string]bool
	failDelete map[string]bool
}

func (f *flakyStore) Get(ctx context.Context, key string) (string, bool, error) {
	if f.failGet[key] {
		return "", false, errors.New("get exploded")
	}
	return f.InMemory.Get(ctx, key)
}

func (f *flakyStore) Delete(ctx context.Context, key string) error {
	if f.failDelete[key] {
		return errors.New("delete exploded")
	}
	return f.InMemory.Delete(ctx, key)
}

type listFailStore struct{ *memory.InMemory }

func (listFailStore) List(context.Context) ([]string, error) {
	return nil, errors.New("list exploded")
}

func put(t *testing.T, s *memory.InMemory, key, value string) {
	t.Helper()
	if err := s.Put(context.Background(), key, value, time.Hour); err != nil {
		t.Fatalf("Put(%q) failed: %v", key, err)
	}
}

func exists(s *memory.InMemory, key string) bool {
	_, ok, _ := s.Get(context.Background(), key)
	return ok
}

func TestEligible(t *testing.T) {
	tests := []struct {
		key  string
		want bool
	}{
		{"connection_abc", true},
		{"ice_1", true},
		{"other_C", false},
		{"connection", false},
		{"xconnection_1", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := Eligible(tt.key); got != tt.want {
			t.Errorf("Eligible(%q) = %v, want %v", tt.key, got, tt.want)
		}
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		kind Kind
		ts   float64
	}{
		{"timestamped", `{"type":"offer","timestamp":1700000000000}`, Timestamped, 1700000000000},
		{"string timestamp", `{"timestamp":"yesterday"}`, Untimed, 0},
		{"no timestamp", `{"sdp":"v=0"}`, Untimed, 0},
		{"json string", `"irrelevant"`, Untimed, 0},
		{"json array", `[1,2,3]`, Untimed, 0},
		{"not json", `not json`, Corrupt, 0},
		{"empty", ``, Corrupt, 0},
		{"trailing garbage", `{"timestamp":1} x`, Corrupt, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := Classify(tt.raw)
			if rec.Kind != tt.kind {
				t.Errorf("Kind = %v, want %v", rec.Kind, tt.kind)
			}
			if rec.Timestamp != tt.ts {
				t.Errorf("Timestamp = %v, want %v", rec.Timestamp, tt.ts)
			}
		})
	}
}

func TestRecordStale(t *testing.T) {
	now := int64(10_000_000)
	tests := []struct {
		name string
		rec  Record
		want bool
	}{
		{"exactly max age", Record{Kind: Timestamped, Timestamp: float64(now - 3600000)}, false},
		{"one ms past max age", Record{Kind: Timestamped, Timestamp: float64(now - 3600001)}, true},
		{"fresh", Record{Kind: Timestamped, Timestamp: float64(now)}, false},
		{"untimed", Record{Kind: Untimed}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.rec.Stale(now); got != tt.want {
				t.Errorf("Stale() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSweepStaleAndFresh(t *testing.T) {
	s := memory.New(memory.Config{})
	defer s.Close()

	now := time.Now()
	nowMs := now.UnixMilli()
	put(t, s, "connection_A", fmt.Sprintf(`{"timestamp": %d}`, nowMs-7200000))
	put(t, s, "connection_B", fmt.Sprintf(`{"timestamp": %d}`, nowMs))
	put(t, s, "other_C", "irrelevant")

	res, err := Sweep(context.Background(), s, now)
	if err != nil {
		t.Fatalf("Sweep failed: %v", err)
	}
	if res.Deleted() != 1 {
		t.Errorf("Deleted() = %d, want 1", res.Deleted())
	}
	if res.Scanned != 2 {
		t.Errorf("Scanned = %d, want 2", res.Scanned)
	}
	if exists(s, "connection_A") {
		t.Error("connection_A should have been deleted")
	}
	if !exists(s, "connection_B") {
		t.Error("connection_B should remain")
	}
	if !exists(s, "other_C") {
		t.Error("other_C should remain")
	}
}

func TestSweepCorrupt(t *testing.T) {
	s := memory.New(memory.Config{})
	defer s.Close()

	put(t, s, "ice_X", "not json")
	put(t, s, "ice_Y", `{"candidate":"c"}`)

	res, err := Sweep(context.Background(), s, time.Now())
	if err != nil {
		t.Fatalf("Sweep failed: %v", err)
	}
	if res.Corrupt != 1 || res.Stale != 0 {
		t.Errorf("Corrupt, Stale = %d, %d, want 1, 0", res.Corrupt, res.Stale)
	}
	if exists(s, "ice_X") {
		t.Error("ice_X should have been deleted")
	}
	if !exists(s, "ice_Y") {
		t.Error("ice_Y has no timestamp and should remain")
	}
}

func TestSweepContinuesPastKeyErrors(t *testing.T) {
	mem := memory.New(memory.Config{})
	defer mem.Close()

	old := fmt.Sprintf(`{"timestamp": %d}`, time.Now().UnixMilli()-7200000)
	put(t, mem, "connection_1", old)
	put(t, mem, "connection_2", old)
	put(t, mem, "connection_3", old)

	s := &flakyStore{
		InMemory:   mem,
		failGet:    map[string]bool{"connection_1": true},
		failDelete: map[string]bool{"connection_2": true},
	}

	res, err := Sweep(context.Background(), s, time.Now())
	if err != nil {
		t.Fatalf("Sweep failed: %v", err)
	}
	if res.Deleted() != 1 {
		t.Errorf("Deleted() = %d, want 1", res.Deleted())
	}
	if res.Errors == nil || len(res.Errors.Errors) != 2 {
		t.Fatalf("Errors = %v, want 2 errors", res.Errors)
	}
	if exists(mem, "connection_3") {
		t.Error("connection_3 should have been deleted despite earlier failures")
	}
}

func TestSweepListFailure(t *testing.T) {
	mem := memory.New(memory.Config{})
	defer mem.Close()

	_, err := Sweep(context.Background(), listFailStore{mem}, time.Now())
	if err == nil {
		t.Fatal("Sweep expected error when List fails")
	}
}
