// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package planner

import (
	"bytes"
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/pdiddy/topicsmith/internal/engine"
	"github.com/pdiddy/topicsmith/pkg/types"
)

// DocumentIndex is the consumer interface for the retrieval store used
// to ground topic analysis with previously indexed material.
type DocumentIndex interface {
	StoreDocument(ctx context.Context, id, title, content string) error
	SearchSimilar(ctx context.Context, query string, limit int) ([]string, error)
}

// DeriveUnderstanding analyzes a topic from real search results: one
// grounding query against the general engine, prior notes from the
// document index, then a structured analysis call. Every failure path
// degrades to a conservative default understanding; the method never
// returns an error.
func (p *Planner) DeriveUnderstanding(ctx context.Context, general engine.Engine, docs DocumentIndex, topic string) types.TopicUnderstanding {
	results, err := general.Search(ctx, topic)
	if err != nil {
		p.logger.Warn("grounding search failed, using default understanding",
			zap.String("topic", topic), zap.Error(err))
		return DefaultUnderstanding(topic)
	}
	if len(results) > 8 {
		results = results[:8]
	}

	var prior []string
	if docs != nil {
		prior, err = docs.SearchSimilar(ctx, topic, 3)
		if err != nil {
			p.logger.Warn("document index lookup failed",
				zap.String("topic", topic), zap.Error(err))
			prior = nil
		}
	}

	prompt, err := renderUnderstandingPrompt(topic, results, prior)
	if err != nil {
		p.logger.Warn("understanding prompt failed", zap.Error(err))
		return DefaultUnderstanding(topic)
	}

	var u types.TopicUnderstanding
	if err := p.provider.GenerateJSON(ctx, prompt, &u); err != nil {
		p.logger.Warn("understanding analysis failed, using default",
			zap.String("topic", topic), zap.Error(err))
		return DefaultUnderstanding(topic)
	}
	u = normalizeUnderstanding(topic, u)

	if docs != nil && u.Definition != "" {
		if err := docs.StoreDocument(ctx, "understanding:"+types.Slugify(topic), topic, u.Definition); err != nil {
			p.logger.Warn("storing understanding note failed", zap.Error(err))
		}
	}
	return u
}

// DefaultUnderstanding is the conservative fallback used when grounding
// or analysis fails: intermediate complexity, broad survey, only the
// community engine recommended beyond general.
func DefaultUnderstanding(topic string) types.TopicUnderstanding {
	return types.TopicUnderstanding{
		Definition:      fmt.Sprintf("%s is a topic requiring broad research.", topic),
		Category:        types.CategoryTechnology,
		ComplexityLevel: types.ComplexityIntermediate,
		RelevantDomains: []string{topic},
		EngineRecommendations: types.EngineRecommendations{
			Community: true,
		},
		ResearchApproach: types.ApproachBroadSurvey,
	}
}

// normalizeUnderstanding fills gaps the provider left so downstream
// components never see empty enums.
func normalizeUnderstanding(topic string, u types.TopicUnderstanding) types.TopicUnderstanding {
	def := DefaultUnderstanding(topic)
	if u.Definition == "" {
		u.Definition = def.Definition
	}
	if !validCategory(u.Category) {
		u.Category = def.Category
	}
	switch u.ComplexityLevel {
	case types.ComplexityBeginner, types.ComplexityIntermediate, types.ComplexityAdvanced:
	default:
		u.ComplexityLevel = def.ComplexityLevel
	}
	switch u.ResearchApproach {
	case types.ApproachBroadSurvey, types.ApproachDeepDive, types.ApproachPracticalFirst, types.ApproachAcademicGrounded:
	default:
		u.ResearchApproach = def.ResearchApproach
	}
	if len(u.RelevantDomains) == 0 {
		u.RelevantDomains = def.RelevantDomains
	}
	return u
}

func validCategory(c types.TopicCategory) bool {
	switch c {
	case types.CategoryTechnology, types.CategoryScience, types.CategoryMathematics,
		types.CategoryHistory, types.CategoryArts, types.CategoryBusiness,
		types.CategoryHealth, types.CategorySociety, types.CategoryPhilosophy,
		types.CategoryPracticalSkill:
		return true
	}
	return false
}

func renderUnderstandingPrompt(topic string, results []engine.RawResult, prior []string) (string, error) {
	type resultView struct{ Title, Snippet string }
	views := make([]resultView, 0, len(results))
	for _, r := range results {
		snippet := r.Content
		if len(snippet) > 300 {
			snippet = snippet[:300]
		}
		views = append(views, resultView{Title: r.Title, Snippet: snippet})
	}

	var buf bytes.Buffer
	err := understandingPromptTmpl.Execute(&buf, struct {
		Topic   string
		Results []resultView
		Prior   []string
	}{Topic: topic, Results: views, Prior: prior})
	if err != nil {
		return "", err
	}
	return buf.String(), nil
}
