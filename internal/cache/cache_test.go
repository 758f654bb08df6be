// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/pdiddy/topicsmith/pkg/types"
)

// mapKV is an in-memory persistent tier for tests.
type mapKV struct {
	mu   sync.Mutex
	data map[string][]byte

	getErr error
}

func newMapKV() *mapKV {
	return &mapKV{data: make(map[string][]byte)}
}

func (m *mapKV) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	v, ok := m.data[key]
	if !ok {
		return nil, ErrKeyNotFound
	}
	return v, nil
}

func (m *mapKV) Set(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = append([]byte(nil), value...)
	return nil
}

func (m *mapKV) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

func (m *mapKV) Keys(context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	keys := make([]string, 0, len(m.data))
	for k := range m.data {
		keys = append(keys, k)
	}
	return keys, nil
}

func (m *mapKV) Len(context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.data), nil
}

func result(topic string) types.TopicResearchResult {
	return types.TopicResearchResult{Topic: topic, CacheKey: types.CacheKey(topic, types.DefaultUserLevel)}
}

func TestCacheRoundTrip(t *testing.T) {
	kv := newMapKV()
	c := New(kv, types.CacheConfig{}, nil, nil)
	ctx := context.Background()

	key := types.CacheKey("machine learning", types.DefaultUserLevel)
	if err := c.Set(ctx, key, result("machine learning")); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	entry, ok := c.Get(ctx, key)
	if !ok {
		t.Fatal("Get() miss after Set()")
	}
	if entry.Data.Topic != "machine learning" {
		t.Errorf("entry topic = %q", entry.Data.Topic)
	}
	if entry.AccessCount != 1 {
		t.Errorf("access count = %d, want 1", entry.AccessCount)
	}

	if _, ok := c.Get(ctx, "absent-key"); ok {
		t.Error("Get() hit for absent key")
	}

	stats := c.Stats(ctx)
	if stats.Hits != 1 || stats.Misses != 1 {
		t.Errorf("stats = %+v, want one hit and one miss", stats)
	}
}

func TestCacheTTLExpiry(t *testing.T) {
	kv := newMapKV()
	c := New(kv, types.CacheConfig{TTL: 7 * 24 * time.Hour}, nil, nil)
	ctx := context.Background()

	base := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return base }

	key := types.CacheKey("databases", types.DefaultUserLevel)
	if err := c.Set(ctx, key, result("databases")); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	c.now = func() time.Time { return base.Add(6 * 24 * time.Hour) }
	if _, ok := c.Get(ctx, key); !ok {
		t.Error("entry expired before its TTL")
	}

	// An eight-day-old entry is stale in both tiers.
	c.now = func() time.Time { return base.Add(8 * 24 * time.Hour) }
	if _, ok := c.Get(ctx, key); ok {
		t.Error("expired entry served from cache")
	}
}

func TestCachePromoteOnPersistentHit(t *testing.T) {
	kv := newMapKV()
	c := New(kv, types.CacheConfig{}, nil, nil)
	ctx := context.Background()

	key := types.CacheKey("compilers", types.DefaultUserLevel)
	if err := c.Set(ctx, key, result("compilers")); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	// Drop the memory tier; the next read must come from the
	// persistent tier and promote back into memory.
	c.mu.Lock()
	c.memory = make(map[string]*memEntry)
	c.mu.Unlock()

	if _, ok := c.Get(ctx, key); !ok {
		t.Fatal("persistent-tier entry not served")
	}
	c.WaitDetached()

	c.mu.Lock()
	_, promoted := c.memory[key]
	c.mu.Unlock()
	if !promoted {
		t.Error("persistent hit not promoted into memory")
	}
}

func TestCacheLRUEviction(t *testing.T) {
	kv := newMapKV()
	c := New(kv, types.CacheConfig{MemoryEntries: 2}, nil, nil)
	ctx := context.Background()

	for _, topic := range []string{"alpha", "beta"} {
		if err := c.Set(ctx, types.CacheKey(topic, types.DefaultUserLevel), result(topic)); err != nil {
			t.Fatalf("Set(%q) error = %v", topic, err)
		}
	}

	// Touch alpha so beta becomes least recently used.
	if _, ok := c.Get(ctx, types.CacheKey("alpha", types.DefaultUserLevel)); !ok {
		t.Fatal("alpha missing")
	}

	if err := c.Set(ctx, types.CacheKey("gamma", types.DefaultUserLevel), result("gamma")); err != nil {
		t.Fatalf("Set(gamma) error = %v", err)
	}

	c.mu.Lock()
	_, betaInMemory := c.memory[types.CacheKey("beta", types.DefaultUserLevel)]
	_, alphaInMemory := c.memory[types.CacheKey("alpha", types.DefaultUserLevel)]
	c.mu.Unlock()
	if betaInMemory {
		t.Error("least recently used entry survived eviction")
	}
	if !alphaInMemory {
		t.Error("recently used entry evicted")
	}

	if stats := c.Stats(ctx); stats.Evictions != 1 {
		t.Errorf("evictions = %d, want 1", stats.Evictions)
	}

	// Eviction only touches the memory tier.
	if _, ok := c.Get(ctx, types.CacheKey("beta", types.DefaultUserLevel)); !ok {
		t.Error("evicted entry lost from persistent tier")
	}
}

func TestCacheInvalidate(t *testing.T) {
	kv := newMapKV()
	c := New(kv, types.CacheConfig{}, nil, nil)
	ctx := context.Background()

	key := types.CacheKey("graphs", types.DefaultUserLevel)
	if err := c.Set(ctx, key, result("graphs")); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if err := c.Invalidate(ctx, key); err != nil {
		t.Fatalf("Invalidate() error = %v", err)
	}
	if _, ok := c.Get(ctx, key); ok {
		t.Error("invalidated entry still served")
	}
}

func TestCacheCleanup(t *testing.T) {
	kv := newMapKV()
	c := New(kv, types.CacheConfig{TTL: 24 * time.Hour, PersistentCap: 2}, nil, nil)
	ctx := context.Background()

	base := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)

	// Seed the persistent tier directly: one stale entry, then three
	// fresh ones over the cap.
	seedEntry := func(key string, ts time.Time) {
		t.Helper()
		raw, err := json.Marshal(types.CacheEntry{Key: key, Data: result(key), Timestamp: ts, LastAccess: ts})
		if err != nil {
			t.Fatal(err)
		}
		if err := kv.Set(ctx, key, raw); err != nil {
			t.Fatal(err)
		}
	}
	seedEntry("stale", base.Add(-48*time.Hour))
	for i := 0; i < 3; i++ {
		seedEntry(fmt.Sprintf("fresh-%d", i), base.Add(time.Duration(i)*time.Minute))
	}

	c.now = func() time.Time { return base.Add(time.Hour) }
	removed, err := c.Cleanup(ctx)
	if err != nil {
		t.Fatalf("Cleanup() error = %v", err)
	}
	// The stale entry plus the oldest fresh one beyond the cap.
	if removed != 2 {
		t.Errorf("removed = %d, want 2", removed)
	}
	if stats := c.Stats(ctx); stats.Evictions != int64(removed) {
		t.Errorf("evictions = %d, want %d removed entries counted", stats.Evictions, removed)
	}

	n, _ := kv.Len(ctx)
	if n != 2 {
		t.Errorf("persistent entries = %d, want cap 2", n)
	}
	if _, err := kv.Get(ctx, "stale"); !errors.Is(err, ErrKeyNotFound) {
		t.Error("stale entry survived cleanup")
	}
	if _, err := kv.Get(ctx, "fresh-0"); !errors.Is(err, ErrKeyNotFound) {
		t.Error("oldest over-cap entry survived cleanup")
	}
}

func TestCacheDetachedCleanupOnSet(t *testing.T) {
	kv := newMapKV()
	c := New(kv, types.CacheConfig{TTL: 24 * time.Hour, PersistentCap: 1}, nil, nil)
	ctx := context.Background()

	base := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return base }
	if err := c.Set(ctx, "first", result("first")); err != nil {
		t.Fatal(err)
	}
	c.now = func() time.Time { return base.Add(time.Minute) }
	if err := c.Set(ctx, "second", result("second")); err != nil {
		t.Fatal(err)
	}
	c.WaitDetached()

	n, _ := kv.Len(ctx)
	if n != 1 {
		t.Errorf("persistent entries = %d after detached cleanup, want 1", n)
	}
	if _, err := kv.Get(ctx, "second"); err != nil {
		t.Error("newest entry removed by detached cleanup")
	}
}

func TestCacheWarm(t *testing.T) {
	kv := newMapKV()
	seed := New(kv, types.CacheConfig{}, nil, nil)
	ctx := context.Background()

	base := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 4; i++ {
		seed.now = func() time.Time { return base.Add(time.Duration(i) * time.Minute) }
		if err := seed.Set(ctx, fmt.Sprintf("k%d", i), result("warm")); err != nil {
			t.Fatal(err)
		}
	}

	fresh := New(kv, types.CacheConfig{}, nil, nil)
	fresh.now = func() time.Time { return base.Add(time.Hour) }
	if err := fresh.Warm(ctx, 2); err != nil {
		t.Fatalf("Warm() error = %v", err)
	}

	fresh.mu.Lock()
	defer fresh.mu.Unlock()
	if len(fresh.memory) != 2 {
		t.Fatalf("memory entries = %d, want 2", len(fresh.memory))
	}
	for _, key := range []string{"k2", "k3"} {
		if _, ok := fresh.memory[key]; !ok {
			t.Errorf("most recently accessed entry %q not warmed", key)
		}
	}
}

func TestCacheKVReadFailure(t *testing.T) {
	kv := newMapKV()
	c := New(kv, types.CacheConfig{}, nil, nil)
	ctx := context.Background()

	kv.getErr = errors.New("disk gone")
	if _, ok := c.Get(ctx, "anything"); ok {
		t.Error("Get() hit despite persistent tier failure")
	}
	if stats := c.Stats(ctx); stats.Misses != 1 {
		t.Errorf("misses = %d, want 1", stats.Misses)
	}
}
