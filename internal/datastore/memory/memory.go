package memory

import (
	"context"
	"sort"
	"sync"
	"time"
)

// Config represents the InMemory store config structure.
type Config struct {
	// PurgeInterval is how often expired items are dropped from memory.
	// Zero disables the background purge; expired items are still hidden.
	PurgeInterval time.Duration `koanf:"purge_interval"`
}

type item struct {
	value  string
	expiry time.Time // zero means no expiry
}

func (it item) expired(now time.Time) bool {
	return !it.expiry.IsZero() && now.After(it.expiry)
}

// InMemory represents the in-memory implementation of the Datastore interface.
type InMemory struct {
	cfg  *Config
	data map[string]item
	mu   sync.Mutex
	now  func() time.Time

	stop chan struct{}
	once sync.Once
}

// New returns a new in-memory store.
func New(cfg Config) *InMemory {
	m := &InMemory{
		cfg:  &cfg,
		data: map[string]item{},
		now:  time.Now,
		stop: make(chan struct{}),
	}
	if cfg.PurgeInterval > 0 {
		go m.watch(cfg.PurgeInterval)
	}
	return m
}

// watch the store to clean it up.
func (m *InMemory) watch(interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-t.C:
			m.purge()
		case <-m.stop:
			return
		}
	}
}

// purge removes expired items.
func (m *InMemory) purge() {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	for k, it := range m.data {
		if it.expired(now) {
			delete(m.data, k)
		}
	}
}

// Get value from a key.
func (m *InMemory) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	it, ok := m.data[key]
	if !ok {
		return "", false, nil
	}
	if it.expired(m.now()) {
		delete(m.data, key)
		return "", false, nil
	}
	return it.value, true, nil
}

// Put a value.
func (m *InMemory) Put(_ context.Context, key, value string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	it := item{value: value}
	if ttl > 0 {
		it.expiry = m.now().Add(ttl)
	}
	m.data[key] = it
	return nil
}

// Delete a value.
func (m *InMemory) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

// List returns live keys in lexical order.
func (m *InMemory) List(_ context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	out := make([]string, 0, len(m.data))
	for k, it := range m.data {
		if !it.expired(now) {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out, nil
}

// Close stops the background purge.
func (m *InMemory) Close() error {
	m.once.Do(func() { close(m.stop) })
	return nil
}
