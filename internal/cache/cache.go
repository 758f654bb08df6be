// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package cache

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/pdiddy/topicsmith/pkg/types"
)

const (
	defaultTTL           = 7 * 24 * time.Hour
	defaultMemoryEntries = 100
	defaultPersistentCap = 10000
)

// memEntry wraps a cached entry with its LRU recency sequence.
type memEntry struct {
	entry types.CacheEntry
	seq   int64
}

// Cache is the two-tier research cache. Reads check the memory LRU
// first and promote persistent-tier hits into it; writes land in the
// persistent tier first, then memory. TTL-expired entries are treated
// as misses and removed lazily by cleanup, never on the read path.
type Cache struct {
	mu     sync.Mutex
	memory map[string]*memEntry
	seq    int64

	kv     KV
	cfg    types.CacheConfig
	logger *zap.Logger

	// lookups is a CounterVec with label "result" (hit/miss/eviction),
	// passed explicitly; nil disables metrics.
	lookups *prometheus.CounterVec

	hits, misses, evictions int64

	// now is the clock, injected for TTL tests.
	now func() time.Time

	// cleanups tracks detached cleanup goroutines so tests and
	// shutdown can wait for them.
	cleanups sync.WaitGroup
}

// New creates a Cache over the given persistent tier. A nil logger
// uses a nop logger; a nil counter disables metrics.
func New(kv KV, cfg types.CacheConfig, lookups *prometheus.CounterVec, logger *zap.Logger) *Cache {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.TTL <= 0 {
		cfg.TTL = defaultTTL
	}
	if cfg.MemoryEntries <= 0 {
		cfg.MemoryEntries = defaultMemoryEntries
	}
	if cfg.PersistentCap <= 0 {
		cfg.PersistentCap = defaultPersistentCap
	}
	return &Cache{
		memory:  make(map[string]*memEntry),
		kv:      kv,
		cfg:     cfg,
		logger:  logger,
		lookups: lookups,
		now:     time.Now,
	}
}

// TTL returns the configured entry validity window.
func (c *Cache) TTL() time.Duration {
	return c.cfg.TTL
}

// Get returns the cached result for key if a valid entry exists in
// either tier. Persistent-tier hits are promoted into memory. Expired
// entries count as misses but are left for cleanup.
func (c *Cache) Get(ctx context.Context, key string) (types.CacheEntry, bool) {
	now := c.now()

	c.mu.Lock()
	if me, ok := c.memory[key]; ok {
		if me.entry.Valid(now, c.cfg.TTL) {
			c.seq++
			me.seq = c.seq
			me.entry.AccessCount++
			me.entry.LastAccess = now
			entry := me.entry
			c.hits++
			c.mu.Unlock()
			c.count("hit")
			return entry, true
		}
		delete(c.memory, key)
	}
	c.mu.Unlock()

	data, err := c.kv.Get(ctx, key)
	if err != nil {
		if err != ErrKeyNotFound {
			c.logger.Warn("persistent cache read failed", zap.String("key", key), zap.Error(err))
		}
		c.miss()
		return types.CacheEntry{}, false
	}

	var entry types.CacheEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		c.logger.Warn("corrupt cache entry", zap.String("key", key), zap.Error(err))
		c.miss()
		return types.CacheEntry{}, false
	}
	if !entry.Valid(now, c.cfg.TTL) {
		c.miss()
		return types.CacheEntry{}, false
	}

	entry.AccessCount++
	entry.LastAccess = now
	c.promote(key, entry)

	// Refresh access bookkeeping in the persistent tier off the read
	// path; a failure only loses statistics.
	c.cleanups.Add(1)
	go func() {
		defer c.cleanups.Done()
		if data, err := json.Marshal(entry); err == nil {
			if err := c.kv.Set(context.Background(), key, data); err != nil {
				c.logger.Warn("access refresh failed", zap.String("key", key), zap.Error(err))
			}
		}
	}()

	c.mu.Lock()
	c.hits++
	c.mu.Unlock()
	c.count("hit")
	return entry, true
}

// Set stores a research result under key in both tiers and triggers a
// detached cleanup when the persistent tier has outgrown its cap. The
// calling request path never blocks on eviction.
func (c *Cache) Set(ctx context.Context, key string, data types.TopicResearchResult) error {
	now := c.now()
	entry := types.CacheEntry{
		Key:         key,
		Data:        data,
		Timestamp:   now,
		AccessCount: 0,
		LastAccess:  now,
	}

	raw, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	if err := c.kv.Set(ctx, key, raw); err != nil {
		return err
	}

	c.promote(key, entry)

	if n, err := c.kv.Len(ctx); err == nil && n > c.cfg.PersistentCap {
		c.cleanups.Add(1)
		go func() {
			defer c.cleanups.Done()
			if _, err := c.Cleanup(context.Background()); err != nil {
				c.logger.Warn("detached cache cleanup failed", zap.Error(err))
			}
		}()
	}
	return nil
}

// Invalidate removes key from both tiers.
func (c *Cache) Invalidate(ctx context.Context, key string) error {
	c.mu.Lock()
	delete(c.memory, key)
	c.mu.Unlock()
	return c.kv.Delete(ctx, key)
}

// Cleanup purges TTL-expired entries from the persistent tier and, if
// still above the cap, removes the oldest remaining entries. Returns
// the number of entries removed.
func (c *Cache) Cleanup(ctx context.Context) (int, error) {
	keys, err := c.kv.Keys(ctx)
	if err != nil {
		return 0, err
	}

	now := c.now()
	removed := 0
	type aged struct {
		key string
		ts  time.Time
	}
	var remaining []aged

	for _, key := range keys {
		data, err := c.kv.Get(ctx, key)
		if err != nil {
			continue
		}
		var entry types.CacheEntry
		if err := json.Unmarshal(data, &entry); err != nil || !entry.Valid(now, c.cfg.TTL) {
			if err := c.kv.Delete(ctx, key); err == nil {
				removed++
				c.evict(key)
			}
			continue
		}
		remaining = append(remaining, aged{key: key, ts: entry.Timestamp})
	}

	if over := len(remaining) - c.cfg.PersistentCap; over > 0 {
		sort.Slice(remaining, func(i, j int) bool {
			return remaining[i].ts.Before(remaining[j].ts)
		})
		for _, a := range remaining[:over] {
			if err := c.kv.Delete(ctx, a.key); err == nil {
				removed++
				c.evict(a.key)
			}
		}
	}

	c.logger.Info("cache cleanup finished", zap.Int("removed", removed))
	return removed, nil
}

// Warm preloads up to n most-recently-accessed valid entries from the
// persistent tier into memory.
func (c *Cache) Warm(ctx context.Context, n int) error {
	keys, err := c.kv.Keys(ctx)
	if err != nil {
		return err
	}

	now := c.now()
	var entries []types.CacheEntry
	for _, key := range keys {
		data, err := c.kv.Get(ctx, key)
		if err != nil {
			continue
		}
		var entry types.CacheEntry
		if err := json.Unmarshal(data, &entry); err != nil || !entry.Valid(now, c.cfg.TTL) {
			continue
		}
		entries = append(entries, entry)
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].LastAccess.After(entries[j].LastAccess)
	})
	if len(entries) > n {
		entries = entries[:n]
	}
	for i := len(entries) - 1; i >= 0; i-- {
		c.promote(entries[i].Key, entries[i])
	}

	c.logger.Info("cache warmed", zap.Int("entries", len(entries)))
	return nil
}

// Stats returns cache behavior counters and tier sizes.
func (c *Cache) Stats(ctx context.Context) types.CacheStats {
	persistent, err := c.kv.Len(ctx)
	if err != nil {
		c.logger.Warn("persistent tier size unavailable", zap.Error(err))
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	return types.CacheStats{
		MemoryEntries:     len(c.memory),
		PersistentEntries: persistent,
		Hits:              c.hits,
		Misses:            c.misses,
		Evictions:         c.evictions,
	}
}

// WaitDetached blocks until all detached cleanup work has finished.
// Used by tests and shutdown.
func (c *Cache) WaitDetached() {
	c.cleanups.Wait()
}

// promote inserts an entry into the memory tier, evicting the least
// recently used entry when full.
func (c *Cache) promote(key string, entry types.CacheEntry) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.seq++
	if me, ok := c.memory[key]; ok {
		me.entry = entry
		me.seq = c.seq
		return
	}

	if len(c.memory) >= c.cfg.MemoryEntries {
		var lruKey string
		var lruSeq int64 = -1
		for k, me := range c.memory {
			if lruSeq == -1 || me.seq < lruSeq {
				lruKey, lruSeq = k, me.seq
			}
		}
		delete(c.memory, lruKey)
		c.evictions++
		c.count("eviction")
	}
	c.memory[key] = &memEntry{entry: entry, seq: c.seq}
}

// evict records a cleanup-driven removal so Stats counts both LRU
// pressure and cleanup purges as evictions.
func (c *Cache) evict(key string) {
	c.mu.Lock()
	delete(c.memory, key)
	c.evictions++
	c.mu.Unlock()
	c.count("eviction")
}

func (c *Cache) miss() {
	c.mu.Lock()
	c.misses++
	c.mu.Unlock()
	c.count("miss")
}

func (c *Cache) count(result string) {
	if c.lookups != nil {
		c.lookups.WithLabelValues(result).Inc()
	}
}
