// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package synthesis

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/pdiddy/topicsmith/pkg/types"
)

// mockProvider scripts both the structured and free-text calls.
type mockProvider struct {
	jsonResponse string
	jsonErr      error
	textResponse string
	textErr      error
}

func (m *mockProvider) Generate(context.Context, string) (string, error) {
	return m.textResponse, m.textErr
}

func (m *mockProvider) GenerateJSON(_ context.Context, _ string, out any) error {
	if m.jsonErr != nil {
		return m.jsonErr
	}
	return json.Unmarshal([]byte(m.jsonResponse), out)
}

func sampleResults() []types.SearchResult {
	return []types.SearchResult{
		{
			Title:          "Compiler tutorial",
			URL:            "https://example.com/compilers",
			Snippet:        "Compilers translate source code. They run in phases.",
			Engine:         types.EngineGeneral,
			RelevanceScore: 0.8,
		},
		{
			Title:          "Parsing theory",
			URL:            "https://cs.stanford.edu/parsing",
			Snippet:        "Parsing builds syntax trees from token streams.",
			Engine:         types.EngineAcademic,
			RelevanceScore: 0.7,
		},
	}
}

func TestSynthesizeUsesProviderOutput(t *testing.T) {
	provider := &mockProvider{
		jsonResponse: `{"key_insights":["Compilers run in phases."],"content_themes":["parsing","codegen"]}`,
	}
	syn := New(provider, nil).Synthesize(context.Background(), "compilers", sampleResults())

	if len(syn.KeyInsights) != 1 || syn.KeyInsights[0] != "Compilers run in phases." {
		t.Errorf("insights = %v", syn.KeyInsights)
	}
	if len(syn.ContentThemes) != 2 {
		t.Errorf("themes = %v", syn.ContentThemes)
	}
	if syn.SourceQuality == "" || syn.PracticalFocus == "" {
		t.Error("local quality grades missing")
	}
}

func TestSynthesizeExtractiveFallback(t *testing.T) {
	provider := &mockProvider{jsonErr: errors.New("api down")}
	syn := New(provider, nil).Synthesize(context.Background(), "compilers", sampleResults())

	if len(syn.KeyInsights) != 2 {
		t.Fatalf("insights = %v, want one first sentence per result", syn.KeyInsights)
	}
	if syn.KeyInsights[0] != "Compilers translate source code." {
		t.Errorf("insight[0] = %q", syn.KeyInsights[0])
	}
	if len(syn.ContentThemes) == 0 {
		t.Error("keyword themes missing")
	}
}

func TestSynthesizeEmptyResults(t *testing.T) {
	provider := &mockProvider{jsonErr: errors.New("api down")}
	syn := New(provider, nil).Synthesize(context.Background(), "compilers", nil)

	if len(syn.KeyInsights) != 1 {
		t.Fatalf("insights = %v, want placeholder", syn.KeyInsights)
	}
	if syn.SourceQuality != types.QualityLow {
		t.Errorf("source quality = %q, want low", syn.SourceQuality)
	}
}

func TestSourceQuality(t *testing.T) {
	tests := []struct {
		name    string
		results []types.SearchResult
		want    types.QualityLevel
	}{
		{
			name: "high",
			results: []types.SearchResult{
				{URL: "https://arxiv.org/abs/1", Engine: types.EngineGeneral, RelevanceScore: 0.9},
				{URL: "https://mit.edu/x", Engine: types.EngineCommunity, RelevanceScore: 0.8},
			},
			want: types.QualityHigh,
		},
		{
			name: "medium",
			results: []types.SearchResult{
				{URL: "https://blog.example.com", Engine: types.EngineVideo, RelevanceScore: 0.8},
			},
			want: types.QualityMedium,
		},
		{
			name: "low",
			results: []types.SearchResult{
				{URL: "https://blog.example.com", Engine: types.EngineVideo, RelevanceScore: 0.2},
			},
			want: types.QualityLow,
		},
		{
			name: "empty",
			want: types.QualityLow,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := sourceQuality(tt.results); got != tt.want {
				t.Errorf("sourceQuality() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestPracticalFocus(t *testing.T) {
	practical := types.SearchResult{Title: "A tutorial", Snippet: "worked example"}
	theoretical := types.SearchResult{Title: "Formal semantics", Snippet: "denotational models"}

	tests := []struct {
		name    string
		results []types.SearchResult
		want    types.QualityLevel
	}{
		{"high ratio", []types.SearchResult{practical, practical}, types.QualityHigh},
		{"medium ratio", []types.SearchResult{practical, theoretical, theoretical, theoretical}, types.QualityMedium},
		{"low ratio", []types.SearchResult{theoretical, theoretical}, types.QualityLow},
		{"empty", nil, types.QualityLow},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := practicalFocus(tt.results); got != tt.want {
				t.Errorf("practicalFocus() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestKeywordThemes(t *testing.T) {
	results := []types.SearchResult{
		{Title: "parsing parsing parsing", Snippet: "tokens"},
		{Title: "tokens tokens", Snippet: "grammar"},
	}
	themes := keywordThemes(results, 2)
	if len(themes) != 2 {
		t.Fatalf("themes = %v, want 2", themes)
	}
	if themes[0] != "parsing" || themes[1] != "tokens" {
		t.Errorf("themes = %v, want frequency order [parsing tokens]", themes)
	}
}

func TestFirstSentence(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"One. Two.", "One."},
		{"No terminator here", "No terminator here"},
		{"  padded! rest", "padded!"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := firstSentence(tt.in); got != tt.want {
			t.Errorf("firstSentence(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
