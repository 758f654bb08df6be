// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package planner

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/pdiddy/topicsmith/internal/engine"
	"github.com/pdiddy/topicsmith/pkg/types"
)

type stubEngine struct {
	results []engine.RawResult
	err     error
}

func (s *stubEngine) Name() string { return types.EngineGeneral }

func (s *stubEngine) Search(context.Context, string) ([]engine.RawResult, error) {
	return s.results, s.err
}

type stubIndex struct {
	notes     []string
	searchErr error
	stored    map[string]string
}

func (s *stubIndex) StoreDocument(_ context.Context, id, _, content string) error {
	if s.stored == nil {
		s.stored = make(map[string]string)
	}
	s.stored[id] = content
	return nil
}

func (s *stubIndex) SearchSimilar(context.Context, string, int) ([]string, error) {
	return s.notes, s.searchErr
}

func understandingJSON(u types.TopicUnderstanding) string {
	b, _ := json.Marshal(u)
	return string(b)
}

func TestDeriveUnderstandingDefaultsOnSearchFailure(t *testing.T) {
	provider := &mockProvider{}
	p := New(provider, nil)
	eng := &stubEngine{err: errors.New("engine down")}

	got := p.DeriveUnderstanding(context.Background(), eng, nil, "graph theory")
	want := DefaultUnderstanding("graph theory")
	if got.Definition != want.Definition {
		t.Errorf("definition = %q, want %q", got.Definition, want.Definition)
	}
	if !got.EngineRecommendations.Community {
		t.Error("default understanding should recommend the community engine")
	}
	if provider.jsonCalls != 0 {
		t.Errorf("provider called %d times after search failure, want 0", provider.jsonCalls)
	}
}

func TestDeriveUnderstandingDefaultsOnProviderFailure(t *testing.T) {
	provider := &mockProvider{jsonErr: errors.New("api down")}
	p := New(provider, nil)
	eng := &stubEngine{results: []engine.RawResult{{Title: "Graphs", Content: "vertices and edges"}}}

	got := p.DeriveUnderstanding(context.Background(), eng, nil, "graph theory")
	if got.ResearchApproach != types.ApproachBroadSurvey {
		t.Errorf("approach = %q, want %q", got.ResearchApproach, types.ApproachBroadSurvey)
	}
}

func TestDeriveUnderstandingNormalizesAndStores(t *testing.T) {
	provider := &mockProvider{jsonResponse: understandingJSON(types.TopicUnderstanding{
		Definition:      "Graph theory studies pairwise relations between objects.",
		Category:        "unheard-of",
		ComplexityLevel: "cosmic",
	})}
	p := New(provider, nil)
	eng := &stubEngine{results: []engine.RawResult{{Title: "Graphs", Content: "vertices and edges"}}}
	docs := &stubIndex{notes: []string{"prior note"}}

	got := p.DeriveUnderstanding(context.Background(), eng, docs, "graph theory")
	if got.Category != types.CategoryTechnology {
		t.Errorf("category = %q, want normalized %q", got.Category, types.CategoryTechnology)
	}
	if got.ComplexityLevel != types.ComplexityIntermediate {
		t.Errorf("complexity = %q, want normalized %q", got.ComplexityLevel, types.ComplexityIntermediate)
	}
	if len(got.RelevantDomains) == 0 {
		t.Error("relevant domains not filled")
	}

	stored, ok := docs.stored["understanding:graph-theory"]
	if !ok {
		t.Fatalf("understanding note not stored, have %v", docs.stored)
	}
	if stored != got.Definition {
		t.Errorf("stored note = %q, want definition %q", stored, got.Definition)
	}
}

func TestDeriveUnderstandingSurvivesIndexFailure(t *testing.T) {
	provider := &mockProvider{jsonResponse: understandingJSON(types.TopicUnderstanding{
		Definition: "Graph theory studies pairwise relations between objects.",
		Category:   types.CategoryMathematics,
	})}
	p := New(provider, nil)
	eng := &stubEngine{results: []engine.RawResult{{Title: "Graphs"}}}
	docs := &stubIndex{searchErr: errors.New("fts offline")}

	got := p.DeriveUnderstanding(context.Background(), eng, docs, "graph theory")
	if got.Category != types.CategoryMathematics {
		t.Errorf("category = %q, want %q", got.Category, types.CategoryMathematics)
	}
}
