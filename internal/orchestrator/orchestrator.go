// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package orchestrator drives the research pipeline for a topic and
// its subtopics: understanding, planning, execution, synthesis,
// content generation, subtopic discovery. It owns the state machine
// idle → researching_main → main_completed → processing_subtopics →
// completed | error, returns the main-topic result as soon as it is
// ready, and continues subtopic research on detached tasks tracked
// through the progress tracker.
package orchestrator

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/pdiddy/topicsmith/internal/cache"
	"github.com/pdiddy/topicsmith/internal/engine"
	"github.com/pdiddy/topicsmith/internal/executor"
	"github.com/pdiddy/topicsmith/internal/planner"
	"github.com/pdiddy/topicsmith/internal/progress"
	"github.com/pdiddy/topicsmith/internal/store"
	"github.com/pdiddy/topicsmith/internal/synthesis"
	"github.com/pdiddy/topicsmith/pkg/types"
)

const (
	defaultMaxDepth     = 3
	defaultBatchSize    = 5
	maxResultSources    = 10
	contentTypeResearch = "research"
	styleDefault        = "default"
)

// Options control one research run.
type Options struct {
	// UserLevel selects the audience for cache keying and content
	// records. Empty means types.DefaultUserLevel.
	UserLevel string

	// UserContext is free text passed to the planner about the
	// requester's goals.
	UserContext string

	// ForceRefresh bypasses cache and persisted-content short
	// circuits.
	ForceRefresh bool

	// Understanding, when non-nil, skips understanding derivation.
	Understanding *types.TopicUnderstanding

	// SkipSubtopics suppresses the detached subtopic pass. Subtopic
	// discovery still runs so the result lists candidates.
	SkipSubtopics bool
}

func (o Options) userLevel() string {
	if o.UserLevel == "" {
		return types.DefaultUserLevel
	}
	return o.UserLevel
}

// run is one in-flight research execution. Duplicate requests for
// the same cache key wait on done instead of starting a second run.
type run struct {
	done   chan struct{}
	result types.TopicResearchResult
	err    error
}

// Orchestrator wires the pipeline components together.
type Orchestrator struct {
	planner  *planner.Planner
	executor *executor.Executor
	synth    *synthesis.Synthesizer
	cache    *cache.Cache
	tracker  *progress.Tracker
	adapter  store.Adapter
	docs     planner.DocumentIndex
	registry *engine.Registry
	cfg      types.OrchestratorConfig
	logger   *zap.Logger
	now      func() time.Time

	mu       sync.Mutex
	inflight map[string]*run

	detached sync.WaitGroup
}

// New assembles an Orchestrator from explicitly constructed
// components. Nothing here owns global state; lifecycle belongs to
// the caller.
func New(
	p *planner.Planner,
	exec *executor.Executor,
	synth *synthesis.Synthesizer,
	c *cache.Cache,
	tracker *progress.Tracker,
	adapter store.Adapter,
	docs planner.DocumentIndex,
	registry *engine.Registry,
	cfg types.OrchestratorConfig,
	logger *zap.Logger,
) *Orchestrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.MaxDepth <= 0 {
		cfg.MaxDepth = defaultMaxDepth
	}
	if cfg.MaxParallelSubtopics <= 0 {
		cfg.MaxParallelSubtopics = defaultBatchSize
	}
	return &Orchestrator{
		planner:  p,
		executor: exec,
		synth:    synth,
		cache:    c,
		tracker:  tracker,
		adapter:  adapter,
		docs:     docs,
		registry: registry,
		cfg:      cfg,
		logger:   logger,
		now:      time.Now,
		inflight: make(map[string]*run),
	}
}

// ResearchAndGenerate researches a root topic and returns its result
// as soon as the main pipeline finishes. Subtopic research continues
// on a detached task observable through the progress tracker.
func (o *Orchestrator) ResearchAndGenerate(ctx context.Context, topic string, opts Options) (types.TopicResearchResult, error) {
	return o.runTopic(ctx, topic, opts, 0, "")
}

// WaitDetached blocks until all detached subtopic tasks have
// finished. Tests and shutdown paths use it.
func (o *Orchestrator) WaitDetached() {
	o.detached.Wait()
	o.cache.WaitDetached()
}

// runTopic executes the pipeline for one topic at the given recursion
// depth, joining any in-flight run for the same cache key.
func (o *Orchestrator) runTopic(ctx context.Context, topic string, opts Options, depth int, parentSlug string) (types.TopicResearchResult, error) {
	key := types.CacheKey(topic, opts.userLevel())

	o.mu.Lock()
	if existing, ok := o.inflight[key]; ok {
		o.mu.Unlock()
		select {
		case <-existing.done:
			return existing.result, existing.err
		case <-ctx.Done():
			return types.TopicResearchResult{}, ctx.Err()
		}
	}
	r := &run{done: make(chan struct{})}
	o.inflight[key] = r
	o.mu.Unlock()

	result, err := o.research(ctx, topic, opts, depth, parentSlug)

	o.mu.Lock()
	delete(o.inflight, key)
	o.mu.Unlock()

	r.result, r.err = result, err
	close(r.done)
	return result, err
}

// research is the pipeline body: short circuits, then
// understanding → plan → execute → synthesize → content → subtopics.
func (o *Orchestrator) research(ctx context.Context, topic string, opts Options, depth int, parentSlug string) (types.TopicResearchResult, error) {
	slug := types.Slugify(topic)
	key := types.CacheKey(topic, opts.userLevel())
	runID := uuid.NewString()
	log := o.logger.With(
		zap.String("run_id", runID),
		zap.String("topic", topic),
		zap.Int("depth", depth),
	)
	started := o.now()

	o.tracker.Init(slug)
	o.tracker.UpdatePhase(slug, types.StatusResearchingMain, "researching "+topic)

	if !opts.ForceRefresh {
		if cached, ok := o.shortCircuit(ctx, key, slug, opts); ok {
			log.Info("returning existing result", zap.String("cache_key", key))
			o.tracker.Complete(slug)
			return cached, nil
		}
	}

	understanding := o.deriveUnderstanding(ctx, topic, opts)

	plan, err := o.planner.Plan(ctx, topic, understanding, opts.UserContext)
	if err != nil {
		o.tracker.SetError(slug, err.Error())
		return types.TopicResearchResult{}, &StageError{Stage: StagePlanning, Topic: topic, Err: err}
	}

	execOutcome := o.executor.Execute(ctx, plan)
	results, ok := execOutcome.Value()
	if !ok {
		err := execOutcome.Err()
		o.tracker.SetError(slug, err.Error())
		return types.TopicResearchResult{}, &StageError{Stage: StageExecution, Topic: topic, Err: err}
	}
	for _, w := range execOutcome.Warnings() {
		log.Warn("degraded execution", zap.String("warning", w))
	}

	syn := o.synth.Synthesize(ctx, topic, results)
	o.indexResearchNotes(ctx, slug, topic, syn, log)

	content, err := o.synth.GenerateContent(ctx, topic, syn)
	if err != nil {
		o.tracker.SetError(slug, err.Error())
		return types.TopicResearchResult{}, &StageError{Stage: StageContent, Topic: topic, Err: err}
	}

	subtopics := o.synth.IdentifySubtopics(ctx, topic, syn)

	result := types.TopicResearchResult{
		Topic:         topic,
		Understanding: understanding,
		Plan:          plan,
		Synthesis:     syn,
		Content:       content,
		Subtopics:     subtopics,
		Sources:       attributeSources(results),
		Metadata:      buildMetadata(results, started, o.now()),
		CacheKey:      key,
		Timestamp:     o.now(),
	}

	o.persist(ctx, result, slug, parentSlug, depth, opts, log)
	o.tracker.UpdatePhase(slug, types.StatusMainCompleted, "main topic research complete")

	if !opts.SkipSubtopics && depth < o.cfg.MaxDepth-1 && len(subtopics) > 0 {
		o.tracker.UpdatePhase(slug, types.StatusProcessingSubtopics,
			fmt.Sprintf("processing %d subtopics", len(subtopics)))
		o.spawnSubtopics(ctx, slug, subtopics, opts, depth+1)
	} else {
		o.tracker.Complete(slug)
	}

	log.Info("research complete",
		zap.Int("sources", len(results)),
		zap.Int("sections", len(content.Sections)),
		zap.Int("subtopics", len(subtopics)),
	)
	return result, nil
}

// shortCircuit checks the cache, then persisted per-user content,
// for an existing fresh result. A persisted hit is promoted into the
// cache so the next lookup stays cheap.
func (o *Orchestrator) shortCircuit(ctx context.Context, key, slug string, opts Options) (types.TopicResearchResult, bool) {
	if entry, ok := o.cache.Get(ctx, key); ok {
		return entry.Data, true
	}

	rec, err := o.adapter.FindContent(ctx, slug, contentTypeResearch, opts.userLevel(), styleDefault)
	if err != nil {
		if err != store.ErrNotFound {
			o.logger.Warn("persisted content lookup failed", zap.String("topic", slug), zap.Error(err))
		}
		return types.TopicResearchResult{}, false
	}
	if !o.fresh(rec.UpdatedAt) {
		return types.TopicResearchResult{}, false
	}

	if err := o.cache.Set(ctx, key, rec.Result); err != nil {
		o.logger.Warn("cache promote of persisted content failed", zap.String("cache_key", key), zap.Error(err))
	}
	return rec.Result, true
}

func (o *Orchestrator) fresh(updatedAt time.Time) bool {
	ttl := o.cache.TTL()
	return !updatedAt.IsZero() && o.now().Sub(updatedAt) < ttl
}

// deriveUnderstanding uses the supplied understanding, or grounds a
// new one with a search plus prior indexed notes. Derivation never
// fails; the planner falls back to a conservative default.
func (o *Orchestrator) deriveUnderstanding(ctx context.Context, topic string, opts Options) types.TopicUnderstanding {
	if opts.Understanding != nil {
		return *opts.Understanding
	}
	return o.planner.DeriveUnderstanding(ctx, o.registry.General(), o.docs, topic)
}

// indexResearchNotes stores the synthesis insights in the document
// index so later understanding derivations for related topics can
// retrieve them. Failures are logged only.
func (o *Orchestrator) indexResearchNotes(ctx context.Context, slug, topic string, syn types.Synthesis, log *zap.Logger) {
	if o.docs == nil || len(syn.KeyInsights) == 0 {
		return
	}
	note := strings.Join(syn.KeyInsights, "\n")
	if err := o.docs.StoreDocument(ctx, slug, topic, note); err != nil {
		log.Warn("indexing research notes failed", zap.Error(err))
	}
}

// persist writes the result to the cache and the persistence
// adapter. Storage failures never fail the research result.
func (o *Orchestrator) persist(ctx context.Context, result types.TopicResearchResult, slug, parentSlug string, depth int, opts Options, log *zap.Logger) {
	if err := o.cache.Set(ctx, result.CacheKey, result); err != nil {
		log.Warn("cache write failed", zap.Error(err))
	}

	if err := o.adapter.UpsertTopic(ctx, store.TopicRecord{
		Slug:           slug,
		Title:          result.Topic,
		ParentSlug:     parentSlug,
		Depth:          depth,
		Status:         types.StatusCompleted,
		LastResearched: result.Timestamp,
	}); err != nil {
		log.Warn("topic upsert failed", zap.Error(err))
		return
	}

	if err := o.adapter.UpsertContent(ctx, store.ContentRecord{
		TopicSlug:   slug,
		ContentType: contentTypeResearch,
		UserLevel:   opts.userLevel(),
		Style:       styleDefault,
		Result:      result,
		UpdatedAt:   result.Timestamp,
	}); err != nil {
		log.Warn("content upsert failed", zap.Error(err))
	}
}

// attributeSources records where the top-ranked results came from.
func attributeSources(results []types.SearchResult) []types.SourceAttribution {
	n := len(results)
	if n > maxResultSources {
		n = maxResultSources
	}
	sources := make([]types.SourceAttribution, 0, n)
	for _, r := range results[:n] {
		sources = append(sources, types.SourceAttribution{
			Title:  r.Title,
			URL:    r.URL,
			Engine: r.Engine,
		})
	}
	return sources
}

// buildMetadata summarizes the research cycle. Confidence is the mean
// practical weight across all ranked results.
func buildMetadata(results []types.SearchResult, started, finished time.Time) types.ResultMetadata {
	enginesSeen := make(map[string]bool)
	var confidence float64
	for _, r := range results {
		enginesSeen[r.Engine] = true
		confidence += executor.PracticalWeight(r)
	}
	if len(results) > 0 {
		confidence /= float64(len(results))
	}

	engines := make([]string, 0, len(enginesSeen))
	for name := range enginesSeen {
		engines = append(engines, name)
	}
	sort.Strings(engines)

	return types.ResultMetadata{
		TotalSources:    len(results),
		DurationMS:      finished.Sub(started).Milliseconds(),
		EnginesUsed:     engines,
		ConfidenceScore: confidence,
		LastUpdated:     finished,
	}
}
