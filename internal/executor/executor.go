// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package executor runs a research plan's queries concurrently against
// the engine registry, recovers per-query engine failures through the
// general-engine fallback chain, and ranks deduplicated results by
// practical weight.
package executor

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/panjf2000/ants/v2"
	"go.uber.org/zap"

	"github.com/pdiddy/topicsmith/internal/engine"
	"github.com/pdiddy/topicsmith/pkg/outcome"
	"github.com/pdiddy/topicsmith/pkg/types"
)

const (
	// minGeneralSuccesses and minTotalResults gate execution success.
	minGeneralSuccesses = 3
	minTotalResults     = 5

	// maxFallbackResults caps results recovered through the
	// specialized-to-general fallback.
	maxFallbackResults = 3

	// fallbackPenalty scales relevance of fallback-recovered results.
	fallbackPenalty = 0.6

	defaultMaxResults = 30
	defaultPoolSize   = 16
)

// engineBoosts weight results toward practically useful engines.
var engineBoosts = map[string]float64{
	types.EngineGeneral:   1.3,
	types.EngineCommunity: 1.2,
	types.EngineAcademic:  1.1,
}

// practicalIndicators boost results whose title or snippet suggests
// hands-on material.
var practicalIndicators = []string{
	"how to", "tutorial", "guide", "example", "practical",
	"step by step", "tips", "getting started", "use case",
}

// ValidationError reports a research cycle whose execution produced too
// little signal to synthesize from.
type ValidationError struct {
	GeneralSucceeded int
	TotalResults     int
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("execution validation failed: %d general queries succeeded (need %d), %d results collected (need %d)",
		e.GeneralSucceeded, minGeneralSuccesses, e.TotalResults, minTotalResults)
}

// Executor runs plans on a shared worker pool.
type Executor struct {
	registry *engine.Registry
	pool     *ants.Pool
	cfg      types.ExecutorConfig
	logger   *zap.Logger
}

// New creates an Executor with its own worker pool. Close releases the
// pool.
func New(registry *engine.Registry, cfg types.ExecutorConfig, logger *zap.Logger) (*Executor, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	size := cfg.PoolSize
	if size <= 0 {
		size = defaultPoolSize
	}
	pool, err := ants.NewPool(size)
	if err != nil {
		return nil, fmt.Errorf("creating worker pool: %w", err)
	}
	return &Executor{registry: registry, pool: pool, cfg: cfg, logger: logger}, nil
}

// Close releases the worker pool.
func (e *Executor) Close() {
	e.pool.Release()
}

// queryOutcome is the per-query task result.
type queryOutcome struct {
	query   types.PlannedQuery
	results []types.SearchResult
	warning string
	ok      bool
}

// Execute runs every planned query concurrently, one pool task per
// query, and returns the deduplicated, practically weighted top
// results. It fails hard when fewer than three general queries
// succeeded or fewer than five results were collected; recovered
// specialized-engine failures surface as warnings on a degraded
// outcome.
func (e *Executor) Execute(ctx context.Context, plan types.ResearchPlan) outcome.Outcome[[]types.SearchResult] {
	ch := make(chan queryOutcome, len(plan.Queries))
	var wg sync.WaitGroup

	for _, q := range plan.Queries {
		q := q
		wg.Add(1)
		if err := e.pool.Submit(func() {
			defer wg.Done()
			ch <- e.runQuery(ctx, q)
		}); err != nil {
			wg.Done()
			ch <- queryOutcome{query: q, warning: fmt.Sprintf("%s: pool submit: %v", q.Query, err)}
		}
	}

	go func() {
		wg.Wait()
		close(ch)
	}()

	var all []types.SearchResult
	var warnings []string
	generalSucceeded := 0
	for qo := range ch {
		if qo.warning != "" {
			warnings = append(warnings, qo.warning)
		}
		if !qo.ok {
			continue
		}
		if qo.query.Engine == types.EngineGeneral {
			generalSucceeded++
		}
		all = append(all, qo.results...)
	}

	deduped := deduplicate(all)
	ranked := rankByPracticalWeight(deduped)

	maxResults := e.cfg.MaxResults
	if maxResults <= 0 {
		maxResults = defaultMaxResults
	}
	if len(ranked) > maxResults {
		ranked = ranked[:maxResults]
	}

	if generalSucceeded < minGeneralSuccesses || len(ranked) < minTotalResults {
		return outcome.Fail[[]types.SearchResult](&ValidationError{
			GeneralSucceeded: generalSucceeded,
			TotalResults:     len(ranked),
		}).WithWarnings(warnings...)
	}

	if len(warnings) > 0 {
		return outcome.Degraded(ranked, warnings...)
	}
	return outcome.Ok(ranked)
}

// runQuery executes one planned query with its fallback chain. A
// general query retries up to three rewrites on the general engine; a
// specialized query falls back once to a generalized query on the
// general engine, capped and penalized.
func (e *Executor) runQuery(ctx context.Context, q types.PlannedQuery) queryOutcome {
	eng, err := e.registry.Get(q.Engine)
	if err != nil {
		eng = e.registry.General()
		q.Engine = types.EngineGeneral
	}

	raw, err := eng.Search(ctx, q.Query)
	if err == nil {
		return queryOutcome{query: q, results: convert(raw, q), ok: true}
	}

	e.logger.Debug("query failed, entering fallback",
		zap.String("engine", q.Engine), zap.String("query", q.Query), zap.Error(err))

	if q.Engine == types.EngineGeneral {
		return e.generalFallback(ctx, q, err)
	}
	return e.specializedFallback(ctx, q, err)
}

// generalFallback rewrites a failed general query up to three times:
// keyword softening, truncation to the first three words, and an
// appended accessibility suffix.
func (e *Executor) generalFallback(ctx context.Context, q types.PlannedQuery, cause error) queryOutcome {
	rewrites := []string{
		softenQuery(q.Query),
		firstWords(q.Query, 3),
		q.Query + " beginner guide overview",
	}
	general := e.registry.General()
	for _, rewrite := range rewrites {
		if strings.TrimSpace(rewrite) == "" || rewrite == q.Query {
			continue
		}
		raw, err := general.Search(ctx, rewrite)
		if err != nil {
			continue
		}
		rq := q
		rq.Query = rewrite
		return queryOutcome{
			query:   q,
			results: convert(raw, rq),
			warning: fmt.Sprintf("general query %q recovered via rewrite %q", q.Query, rewrite),
			ok:      true,
		}
	}
	return queryOutcome{
		query:   q,
		warning: fmt.Sprintf("general query %q failed: %v", q.Query, cause),
	}
}

// specializedFallback runs exactly one generalized query on the general
// engine, caps the recovered results at three, penalizes their
// relevance, and relabels them "general".
func (e *Executor) specializedFallback(ctx context.Context, q types.PlannedQuery, cause error) queryOutcome {
	generalized := firstWords(q.Query, 4)
	raw, err := e.registry.General().Search(ctx, generalized)
	if err != nil {
		return queryOutcome{
			query:   q,
			warning: fmt.Sprintf("%s query %q failed and fallback failed: %v", q.Engine, q.Query, cause),
		}
	}

	if len(raw) > maxFallbackResults {
		raw = raw[:maxFallbackResults]
	}
	rq := q
	rq.Engine = types.EngineGeneral
	results := convert(raw, rq)
	for i := range results {
		results[i].RelevanceScore *= fallbackPenalty
	}
	return queryOutcome{
		query:   q,
		results: results,
		warning: fmt.Sprintf("%s query %q recovered via general fallback", q.Engine, q.Query),
		ok:      true,
	}
}

// convert maps raw engine results onto SearchResults carrying the
// query's engine label and reasoning.
func convert(raw []engine.RawResult, q types.PlannedQuery) []types.SearchResult {
	results := make([]types.SearchResult, 0, len(raw))
	for _, r := range raw {
		snippet := r.Content
		if len(snippet) > 500 {
			snippet = snippet[:500]
		}
		results = append(results, types.SearchResult{
			Title:          r.Title,
			URL:            r.URL,
			Snippet:        snippet,
			Engine:         q.Engine,
			RelevanceScore: r.Score,
			Reasoning:      q.Reasoning,
		})
	}
	return results
}

// deduplicate collapses results sharing (lower(title), url), keeping
// the higher-relevance copy.
func deduplicate(results []types.SearchResult) []types.SearchResult {
	seen := make(map[string]int)
	var deduped []types.SearchResult
	for _, r := range results {
		key := strings.ToLower(r.Title) + "|" + r.URL
		if idx, ok := seen[key]; ok {
			if r.RelevanceScore > deduped[idx].RelevanceScore {
				deduped[idx].RelevanceScore = r.RelevanceScore
			}
			continue
		}
		seen[key] = len(deduped)
		deduped = append(deduped, r)
	}
	return deduped
}

// PracticalWeight computes the ranking score: base relevance times an
// engine boost, plus a cumulative boost per practical-indicator match
// in title or snippet, capped at 1.0.
func PracticalWeight(r types.SearchResult) float64 {
	boost, ok := engineBoosts[r.Engine]
	if !ok {
		boost = 1.0
	}
	weight := r.RelevanceScore * boost

	haystack := strings.ToLower(r.Title + " " + r.Snippet)
	for _, indicator := range practicalIndicators {
		if strings.Contains(haystack, indicator) {
			weight += 0.05
		}
	}

	if weight > 1.0 {
		weight = 1.0
	}
	return weight
}

// rankByPracticalWeight sorts results by descending practical weight,
// breaking ties by title then URL so the output is deterministic.
func rankByPracticalWeight(results []types.SearchResult) []types.SearchResult {
	sort.SliceStable(results, func(i, j int) bool {
		wi, wj := PracticalWeight(results[i]), PracticalWeight(results[j])
		if wi != wj {
			return wi > wj
		}
		if results[i].Title != results[j].Title {
			return results[i].Title < results[j].Title
		}
		return results[i].URL < results[j].URL
	})
	return results
}

// softenQuery strips specialized qualifiers so a failed query lands on
// broader material.
func softenQuery(query string) string {
	hard := []string{"advanced", "technical", "research", "in depth", "detailed", "comprehensive"}
	soft := strings.ToLower(query)
	for _, term := range hard {
		soft = strings.ReplaceAll(soft, term, "")
	}
	return strings.Join(strings.Fields(soft), " ")
}

// firstWords truncates a query to its first n words.
func firstWords(query string, n int) string {
	fields := strings.Fields(query)
	if len(fields) > n {
		fields = fields[:n]
	}
	return strings.Join(fields, " ")
}
