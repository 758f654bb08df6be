// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"strings"
	"time"
)

// CacheEntry wraps one cached TopicResearchResult with its access
// bookkeeping. Entries are created on first successful research,
// refreshed on forced re-research, evicted by TTL expiry or LRU
// pressure, and promoted into the memory tier on read.
type CacheEntry struct {
	Key         string              `json:"key" yaml:"key"`
	Data        TopicResearchResult `json:"data" yaml:"data"`
	Timestamp   time.Time           `json:"timestamp" yaml:"timestamp"`
	AccessCount int                 `json:"access_count" yaml:"access_count"`
	LastAccess  time.Time           `json:"last_access" yaml:"last_access"`
}

// Valid reports whether the entry is still within its TTL at now.
func (e CacheEntry) Valid(now time.Time, ttl time.Duration) bool {
	return now.Sub(e.Timestamp) < ttl
}

// CacheStats summarizes cache behavior for the operation surface.
type CacheStats struct {
	MemoryEntries     int   `json:"memory_entries" yaml:"memory_entries"`
	PersistentEntries int   `json:"persistent_entries" yaml:"persistent_entries"`
	Hits              int64 `json:"hits" yaml:"hits"`
	Misses            int64 `json:"misses" yaml:"misses"`
	Evictions         int64 `json:"evictions" yaml:"evictions"`
}

// DefaultUserLevel is the user level used in cache keys when none is
// supplied.
const DefaultUserLevel = "general"

// CacheKey derives the deterministic cache key for a topic and user
// level. Read and write paths use the same derivation.
func CacheKey(topic, userLevel string) string {
	if userLevel == "" {
		userLevel = DefaultUserLevel
	}
	return Slugify(topic) + "-" + userLevel
}

// Slugify lowercases a topic, strips punctuation, and joins its words
// with hyphens.
func Slugify(topic string) string {
	fields := strings.Fields(strings.ToLower(topic))
	var clean []string
	for _, f := range fields {
		var b strings.Builder
		for _, r := range f {
			if r >= 'a' && r <= 'z' || r >= '0' && r <= '9' {
				b.WriteRune(r)
			}
		}
		if b.Len() > 0 {
			clean = append(clean, b.String())
		}
	}
	return strings.Join(clean, "-")
}
