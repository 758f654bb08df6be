// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package orchestrator

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/pdiddy/topicsmith/internal/store"
	"github.com/pdiddy/topicsmith/pkg/types"
)

// StartResearch is the inbound entry point for a root topic. It is
// ResearchAndGenerate with the topic given as free text or slug.
func (o *Orchestrator) StartResearch(ctx context.Context, topic string, opts Options) (types.TopicResearchResult, error) {
	return o.ResearchAndGenerate(ctx, topic, opts)
}

// ExpansionResult reports what ExpandDepth researched.
type ExpansionResult struct {
	TopicSlug   string   `json:"topic_slug" yaml:"topic_slug"`
	TargetDepth int      `json:"target_depth" yaml:"target_depth"`
	Researched  []string `json:"researched" yaml:"researched"`
}

// ExpandDepth researches the unexpanded frontier below an existing
// topic until its hierarchy reaches targetDepth levels. Topics that
// already have researched children are left alone. Frontier topics
// are researched synchronously with their own subtopic passes
// suppressed, so expansion depth stays exactly as requested.
func (o *Orchestrator) ExpandDepth(ctx context.Context, topicSlug string, targetDepth int, userContext string) (ExpansionResult, error) {
	if targetDepth > o.cfg.MaxDepth {
		targetDepth = o.cfg.MaxDepth
	}
	result := ExpansionResult{TopicSlug: topicSlug, TargetDepth: targetDepth}

	root, err := o.adapter.FindTopicBySlug(ctx, topicSlug)
	if err != nil {
		return result, fmt.Errorf("expanding %s: %w", topicSlug, err)
	}

	frontier := []store.TopicRecord{root}
	for depth := root.Depth; depth < targetDepth-1 && len(frontier) > 0; depth++ {
		var next []store.TopicRecord
		for _, parent := range frontier {
			children, err := o.expandTopic(ctx, parent, userContext)
			if err != nil {
				o.logger.Warn("expansion of topic failed",
					zap.String("topic", parent.Slug), zap.Error(err))
				continue
			}
			for _, child := range children {
				result.Researched = append(result.Researched, child.Slug)
			}
			next = append(next, children...)
		}
		frontier = next
	}
	return result, nil
}

// expandTopic ensures one topic's direct children exist, researching
// its recorded subtopics when none do. Already-expanded topics return
// their existing children.
func (o *Orchestrator) expandTopic(ctx context.Context, parent store.TopicRecord, userContext string) ([]store.TopicRecord, error) {
	children, err := o.adapter.FindTopicsByParent(ctx, parent.Slug)
	if err != nil {
		return nil, err
	}
	if len(children) > 0 {
		return children, nil
	}

	subtopics, _, err := o.GenerateSubtopicsFor(ctx, parent.Slug, userContext)
	if err != nil {
		return nil, err
	}

	opts := Options{UserContext: userContext, SkipSubtopics: true}
	for _, sub := range subtopics {
		if _, err := o.runTopic(ctx, sub.Title, opts, parent.Depth+1, parent.Slug); err != nil {
			o.logger.Warn("frontier subtopic research failed",
				zap.String("parent", parent.Slug),
				zap.String("subtopic", sub.Title),
				zap.Error(err),
			)
		}
	}
	return o.adapter.FindTopicsByParent(ctx, parent.Slug)
}

// GenerateSubtopicsFor returns subtopic candidates for a topic. A
// persisted result's synthesis is reused when available; otherwise
// the topic is researched first and that fresh result is returned
// alongside the subtopics.
func (o *Orchestrator) GenerateSubtopicsFor(ctx context.Context, topicSlug, userContext string) ([]types.SubtopicInfo, *types.TopicResearchResult, error) {
	rec, err := o.adapter.FindContent(ctx, topicSlug, contentTypeResearch, types.DefaultUserLevel, styleDefault)
	if err == nil {
		if len(rec.Result.Subtopics) > 0 {
			return rec.Result.Subtopics, nil, nil
		}
		subs := o.synth.IdentifySubtopics(ctx, rec.Result.Topic, rec.Result.Synthesis)
		return subs, nil, nil
	}
	if err != store.ErrNotFound {
		return nil, nil, fmt.Errorf("looking up content for %s: %w", topicSlug, err)
	}

	result, err := o.runTopic(ctx, topicSlug, Options{UserContext: userContext, SkipSubtopics: true}, 0, "")
	if err != nil {
		return nil, nil, err
	}
	return result.Subtopics, &result, nil
}

// GetHierarchy returns the researched topic tree rooted at topicSlug.
func (o *Orchestrator) GetHierarchy(ctx context.Context, topicSlug string, maxDepth int) (store.TopicNode, error) {
	if maxDepth <= 0 || maxDepth > o.cfg.MaxDepth {
		maxDepth = o.cfg.MaxDepth
	}
	return o.adapter.Hierarchy(ctx, topicSlug, maxDepth)
}

// ResearchStats merges the persisted view of a topic with its live
// progress entry, when one exists.
type ResearchStats struct {
	Topic         store.TopicRecord           `json:"topic" yaml:"topic"`
	SubtopicCount int                         `json:"subtopic_count" yaml:"subtopic_count"`
	HasContent    bool                        `json:"has_content" yaml:"has_content"`
	SectionCount  int                         `json:"section_count" yaml:"section_count"`
	SourceCount   int                         `json:"source_count" yaml:"source_count"`
	LiveProgress  *types.ResearchProgressData `json:"live_progress,omitempty" yaml:"live_progress,omitempty"`
}

// GetStats reports a topic's persisted state merged with live
// progress.
func (o *Orchestrator) GetStats(ctx context.Context, topicSlug string) (ResearchStats, error) {
	rec, err := o.adapter.FindTopicBySlug(ctx, topicSlug)
	if err != nil {
		return ResearchStats{}, fmt.Errorf("stats for %s: %w", topicSlug, err)
	}
	stats := ResearchStats{Topic: rec}

	children, err := o.adapter.FindTopicsByParent(ctx, topicSlug)
	if err == nil {
		stats.SubtopicCount = len(children)
	}

	if content, err := o.adapter.FindContent(ctx, topicSlug, contentTypeResearch, types.DefaultUserLevel, styleDefault); err == nil {
		stats.HasContent = true
		stats.SectionCount = len(content.Result.Content.Sections)
		stats.SourceCount = content.Result.Metadata.TotalSources
	}

	if live, ok := o.tracker.Get(topicSlug); ok {
		stats.LiveProgress = &live
	}
	return stats, nil
}

// Freshness reports whether a topic's research is stale.
type Freshness struct {
	NeedsUpdate    bool      `json:"needs_update" yaml:"needs_update"`
	LastResearched time.Time `json:"last_researched" yaml:"last_researched"`
	CacheStatus    string    `json:"cache_status" yaml:"cache_status"`
}

// CheckFreshness reports whether a topic needs re-research against a
// caller-chosen TTL in days (zero uses the cache TTL).
func (o *Orchestrator) CheckFreshness(ctx context.Context, topicSlug string, ttlDays int) (Freshness, error) {
	ttl := o.cache.TTL()
	if ttlDays > 0 {
		ttl = time.Duration(ttlDays) * 24 * time.Hour
	}

	f := Freshness{NeedsUpdate: true, CacheStatus: "miss"}
	key := types.CacheKey(topicSlug, types.DefaultUserLevel)
	if entry, ok := o.cache.Get(ctx, key); ok {
		f.CacheStatus = "hit"
		f.LastResearched = entry.Timestamp
		f.NeedsUpdate = o.now().Sub(entry.Timestamp) >= ttl
		return f, nil
	}

	rec, err := o.adapter.FindTopicBySlug(ctx, topicSlug)
	if err == store.ErrNotFound {
		return f, nil
	}
	if err != nil {
		return f, fmt.Errorf("freshness for %s: %w", topicSlug, err)
	}

	f.LastResearched = rec.LastResearched
	f.NeedsUpdate = rec.LastResearched.IsZero() || o.now().Sub(rec.LastResearched) >= ttl
	return f, nil
}

// GetCacheStats reports cache tier sizes and counters.
func (o *Orchestrator) GetCacheStats(ctx context.Context) types.CacheStats {
	return o.cache.Stats(ctx)
}

// CleanupCache purges expired and over-cap cache entries, returning
// the number removed.
func (o *Orchestrator) CleanupCache(ctx context.Context) (int, error) {
	return o.cache.Cleanup(ctx)
}
