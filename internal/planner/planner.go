// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package planner builds diversified multi-engine query plans from a
// topic understanding, enforcing the general-engine minimum and
// repairing or replacing invalid provider output.
package planner

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/pdiddy/topicsmith/internal/llm"
	"github.com/pdiddy/topicsmith/pkg/types"
)

// minGeneralQueries is the mandatory minimum of general-engine queries
// in every plan.
const minGeneralQueries = 5

// maxPlanQueries caps the plan size.
const maxPlanQueries = 12

// repairPasses is how many times an inconsistent provider plan is
// repaired before the deterministic fallback replaces it.
const repairPasses = 2

// accessibleTerms and specializedTerms drive the diversity heuristic.
var (
	accessibleTerms  = []string{"basics", "beginner", "overview", "introduction", "guide", "simple"}
	specializedTerms = []string{"research", "technical", "advanced", "analysis", "theory", "paper"}
)

// Planner generates research plans via the language-model provider.
type Planner struct {
	provider llm.Provider
	logger   *zap.Logger
}

// New creates a Planner. A nil logger uses a nop logger.
func New(provider llm.Provider, logger *zap.Logger) *Planner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Planner{provider: provider, logger: logger}
}

// Plan builds a research plan for a topic. Provider failures never
// propagate: a structurally unusable plan is replaced by the
// deterministic template plan. The returned plan always satisfies the
// general-engine minimum and carries an engine distribution matching
// its actual query counts.
func (p *Planner) Plan(ctx context.Context, topic string, u types.TopicUnderstanding, userContext string) (types.ResearchPlan, error) {
	prompt, err := renderPlanPrompt(topic, u, userContext)
	if err != nil {
		return types.ResearchPlan{}, fmt.Errorf("rendering plan prompt: %w", err)
	}

	var plan types.ResearchPlan
	if err := p.provider.GenerateJSON(ctx, prompt, &plan); err != nil {
		p.logger.Warn("plan generation failed, using deterministic fallback",
			zap.String("topic", topic), zap.Error(err))
		return p.fallbackPlan(topic, u), nil
	}

	plan = p.repair(topic, plan)

	for pass := 0; pass < repairPasses && !planValid(plan); pass++ {
		plan = p.repair(topic, plan)
	}
	if !planValid(plan) {
		p.logger.Warn("plan invalid after repair, using deterministic fallback",
			zap.String("topic", topic))
		return p.fallbackPlan(topic, u), nil
	}

	if !queriesDiverse(plan.Queries) {
		p.logger.Warn("plan lacks query diversity", zap.String("topic", topic))
	}

	return plan, nil
}

// repair normalizes unknown engines to general, tops up the
// general-engine minimum from the template library, trims oversized
// plans, and recomputes the engine distribution from the actual
// queries.
func (p *Planner) repair(topic string, plan types.ResearchPlan) types.ResearchPlan {
	known := make(map[string]bool, len(types.KnownEngines))
	for _, name := range types.KnownEngines {
		known[name] = true
	}

	queries := plan.Queries[:0:0]
	for _, q := range plan.Queries {
		if strings.TrimSpace(q.Query) == "" {
			continue
		}
		if !known[q.Engine] {
			q.Engine = types.EngineGeneral
		}
		queries = append(queries, q)
	}
	plan.Queries = queries

	seen := make(map[string]bool, len(plan.Queries))
	for _, q := range plan.Queries {
		seen[strings.ToLower(q.Query)] = true
	}
	for _, tmpl := range generalTemplates {
		if generalCount(plan.Queries) >= minGeneralQueries {
			break
		}
		query := fmt.Sprintf(tmpl.format, topic)
		if seen[strings.ToLower(query)] {
			continue
		}
		plan.Queries = append(plan.Queries, types.PlannedQuery{
			Query:     query,
			Engine:    types.EngineGeneral,
			Reasoning: tmpl.reasoning,
		})
		seen[strings.ToLower(query)] = true
	}

	// Trim from the tail, dropping specialized queries before general
	// ones so the cap never undoes the general minimum.
	for len(plan.Queries) > maxPlanQueries {
		i := len(plan.Queries) - 1
		for i >= 0 && plan.Queries[i].Engine == types.EngineGeneral {
			i--
		}
		if i < 0 {
			i = len(plan.Queries) - 1
		}
		plan.Queries = append(plan.Queries[:i], plan.Queries[i+1:]...)
	}

	if plan.Strategy == "" {
		plan.Strategy = fmt.Sprintf("multi-engine research on %s", topic)
	}
	plan.EngineDistribution = plan.CountByEngine()
	return plan
}

// fallbackPlan is the fully deterministic plan used when the provider
// fails or produces an unrepairable plan: the general template queries
// plus up to two queries per recommended specialized engine.
func (p *Planner) fallbackPlan(topic string, u types.TopicUnderstanding) types.ResearchPlan {
	plan := types.ResearchPlan{
		Strategy: fmt.Sprintf("deterministic template research on %s", topic),
		ExpectedOutcomes: []string{
			"broad overview of the topic",
			"practical entry points for learners",
		},
	}

	for i, tmpl := range generalTemplates {
		if i == minGeneralQueries+1 {
			break
		}
		plan.Queries = append(plan.Queries, types.PlannedQuery{
			Query:     fmt.Sprintf(tmpl.format, topic),
			Engine:    types.EngineGeneral,
			Reasoning: tmpl.reasoning,
		})
	}

	type rec struct {
		engine  string
		flag    bool
		queries []string
	}
	recs := []rec{
		{types.EngineAcademic, u.EngineRecommendations.Academic,
			[]string{"%s research papers", "%s state of the art"}},
		{types.EngineVideo, u.EngineRecommendations.Video,
			[]string{"%s video tutorial"}},
		{types.EngineCommunity, u.EngineRecommendations.Community,
			[]string{"%s community discussion", "%s common questions"}},
		{types.EngineComputational, u.EngineRecommendations.Computational,
			[]string{"%s data and statistics"}},
	}
	for _, r := range recs {
		if !r.flag {
			continue
		}
		for _, format := range r.queries {
			if len(plan.Queries) == maxPlanQueries {
				break
			}
			plan.Queries = append(plan.Queries, types.PlannedQuery{
				Query:     fmt.Sprintf(format, topic),
				Engine:    r.engine,
				Reasoning: fmt.Sprintf("recommended %s coverage", r.engine),
			})
		}
	}

	plan.EngineDistribution = plan.CountByEngine()
	return plan
}

// planValid reports whether a plan meets the structural invariants:
// general minimum and distribution consistency.
func planValid(plan types.ResearchPlan) bool {
	return plan.GeneralCount() >= minGeneralQueries &&
		len(plan.Queries) <= maxPlanQueries &&
		plan.DistributionMatches()
}

// queriesDiverse reports whether the plan mixes accessible and
// specialized phrasing.
func queriesDiverse(queries []types.PlannedQuery) bool {
	var accessible, specialized bool
	for _, q := range queries {
		lower := strings.ToLower(q.Query)
		for _, term := range accessibleTerms {
			if strings.Contains(lower, term) {
				accessible = true
			}
		}
		for _, term := range specializedTerms {
			if strings.Contains(lower, term) {
				specialized = true
			}
		}
	}
	return accessible && specialized
}

func generalCount(queries []types.PlannedQuery) int {
	n := 0
	for _, q := range queries {
		if q.Engine == types.EngineGeneral {
			n++
		}
	}
	return n
}

func renderPlanPrompt(topic string, u types.TopicUnderstanding, userContext string) (string, error) {
	recommended := recommendedEngines(u.EngineRecommendations)
	var buf bytes.Buffer
	err := planPromptTmpl.Execute(&buf, struct {
		Topic, Definition, Category, Complexity, Approach, Domains, UserContext, Recommended string
	}{
		Topic:       topic,
		Definition:  u.Definition,
		Category:    string(u.Category),
		Complexity:  string(u.ComplexityLevel),
		Approach:    string(u.ResearchApproach),
		Domains:     strings.Join(u.RelevantDomains, ", "),
		UserContext: userContext,
		Recommended: strings.Join(recommended, ", "),
	})
	if err != nil {
		return "", err
	}
	return buf.String(), nil
}

func recommendedEngines(r types.EngineRecommendations) []string {
	var names []string
	if r.Academic {
		names = append(names, types.EngineAcademic)
	}
	if r.Video {
		names = append(names, types.EngineVideo)
	}
	if r.Community {
		names = append(names, types.EngineCommunity)
	}
	if r.Computational {
		names = append(names, types.EngineComputational)
	}
	if len(names) == 0 {
		names = append(names, "none")
	}
	return names
}
