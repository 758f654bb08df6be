// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package synthesis turns ranked search results into thematically
// grouped insights and a progressively structured, validated learning
// document, and discovers candidate subtopics for recursion.
package synthesis

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/pdiddy/topicsmith/internal/llm"
	"github.com/pdiddy/topicsmith/pkg/types"
)

// synthesisInputCap bounds how many results feed the synthesis prompt.
const synthesisInputCap = 20

// academicMarkers identify credible academic sources by URL pattern.
var academicMarkers = []string{".edu", ".gov", "arxiv.org", "doi.org", "jstor.org", "journal"}

// practicalTerms bias theme ranking toward hands-on vocabulary.
var practicalTerms = map[string]bool{
	"tutorial": true, "guide": true, "example": true, "practice": true,
	"tool": true, "application": true, "project": true, "workflow": true,
}

// stopwords are excluded from theme extraction.
var stopwords = map[string]bool{
	"the": true, "and": true, "for": true, "with": true, "that": true,
	"this": true, "from": true, "are": true, "was": true, "what": true,
	"how": true, "your": true, "you": true, "can": true, "its": true,
	"about": true, "into": true, "more": true, "when": true, "why": true,
}

// Synthesizer generates insights, content, and subtopics via the
// language-model provider.
type Synthesizer struct {
	provider llm.Provider
	logger   *zap.Logger
}

// New creates a Synthesizer. A nil logger uses a nop logger.
func New(provider llm.Provider, logger *zap.Logger) *Synthesizer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Synthesizer{provider: provider, logger: logger}
}

// aiSynthesis is the provider's synthesis response shape.
type aiSynthesis struct {
	KeyInsights   []string `json:"key_insights"`
	ContentThemes []string `json:"content_themes"`
}

// Synthesize distills the top results into insights and themes. It
// never fails: a provider error degrades to extractive insights and
// frequency-ranked keyword themes. Source quality and practical focus
// are always derived locally from the results.
func (s *Synthesizer) Synthesize(ctx context.Context, topic string, results []types.SearchResult) types.Synthesis {
	top := results
	if len(top) > synthesisInputCap {
		top = top[:synthesisInputCap]
	}

	syn := types.Synthesis{
		SourceQuality:  sourceQuality(top),
		PracticalFocus: practicalFocus(top),
	}

	prompt, err := renderSynthesisPrompt(topic, top)
	if err == nil {
		var ai aiSynthesis
		if err := s.provider.GenerateJSON(ctx, prompt, &ai); err == nil &&
			len(ai.KeyInsights) > 0 && len(ai.ContentThemes) > 0 {
			syn.KeyInsights = ai.KeyInsights
			syn.ContentThemes = ai.ContentThemes
			return syn
		}
		s.logger.Warn("synthesis call failed, using extractive fallback",
			zap.String("topic", topic))
	}

	syn.KeyInsights = extractiveInsights(top)
	syn.ContentThemes = keywordThemes(top, 5)
	return syn
}

// extractiveInsights builds bullet insights directly from the highest
// weighted snippets.
func extractiveInsights(results []types.SearchResult) []string {
	var insights []string
	for _, r := range results {
		sentence := firstSentence(r.Snippet)
		if sentence == "" {
			continue
		}
		insights = append(insights, sentence)
		if len(insights) == 5 {
			break
		}
	}
	if len(insights) == 0 {
		insights = []string{"No substantive findings were recovered from the search results."}
	}
	return insights
}

// keywordThemes returns the top-n frequency-ranked keywords across
// titles and snippets, with practical vocabulary ranked first at equal
// frequency.
func keywordThemes(results []types.SearchResult, n int) []string {
	freq := make(map[string]int)
	for _, r := range results {
		for _, word := range strings.Fields(strings.ToLower(r.Title + " " + r.Snippet)) {
			word = strings.Trim(word, ".,;:!?()[]\"'")
			if len(word) < 4 || stopwords[word] {
				continue
			}
			freq[word]++
		}
	}

	words := make([]string, 0, len(freq))
	for w := range freq {
		words = append(words, w)
	}
	sort.Slice(words, func(i, j int) bool {
		fi, fj := freq[words[i]], freq[words[j]]
		if fi != fj {
			return fi > fj
		}
		pi, pj := practicalTerms[words[i]], practicalTerms[words[j]]
		if pi != pj {
			return pi
		}
		return words[i] < words[j]
	})

	if len(words) > n {
		words = words[:n]
	}
	return words
}

// sourceQuality combines mean relevance, academic-credibility markers,
// and the accessibility-source ratio into one balanced grade.
func sourceQuality(results []types.SearchResult) types.QualityLevel {
	if len(results) == 0 {
		return types.QualityLow
	}

	var relevanceSum float64
	academic, accessible := 0, 0
	for _, r := range results {
		relevanceSum += r.RelevanceScore
		if hasAcademicMarker(r.URL) {
			academic++
		}
		if r.Engine == types.EngineGeneral || r.Engine == types.EngineCommunity {
			accessible++
		}
	}

	n := float64(len(results))
	score := 0.5*(relevanceSum/n) +
		0.25*(float64(academic)/n) +
		0.25*(float64(accessible)/n)

	switch {
	case score >= 0.6:
		return types.QualityHigh
	case score >= 0.35:
		return types.QualityMedium
	default:
		return types.QualityLow
	}
}

// practicalFocus grades how hands-on the result set is by indicator
// density.
func practicalFocus(results []types.SearchResult) types.QualityLevel {
	if len(results) == 0 {
		return types.QualityLow
	}
	matches := 0
	for _, r := range results {
		haystack := strings.ToLower(r.Title + " " + r.Snippet)
		for term := range practicalTerms {
			if strings.Contains(haystack, term) {
				matches++
				break
			}
		}
	}
	ratio := float64(matches) / float64(len(results))
	switch {
	case ratio >= 0.5:
		return types.QualityHigh
	case ratio >= 0.2:
		return types.QualityMedium
	default:
		return types.QualityLow
	}
}

func hasAcademicMarker(url string) bool {
	lower := strings.ToLower(url)
	for _, marker := range academicMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

// firstSentence returns the first sentence of text, or the whole text
// when no terminator is present.
func firstSentence(text string) string {
	text = strings.TrimSpace(text)
	for i, r := range text {
		if r == '.' || r == '!' || r == '?' {
			return text[:i+1]
		}
	}
	return text
}

func renderSynthesisPrompt(topic string, results []types.SearchResult) (string, error) {
	type view struct{ Engine, Title, Snippet string }
	views := make([]view, 0, len(results))
	for _, r := range results {
		snippet := r.Snippet
		if len(snippet) > 250 {
			snippet = snippet[:250]
		}
		views = append(views, view{Engine: r.Engine, Title: r.Title, Snippet: snippet})
	}

	var buf bytes.Buffer
	err := synthesisPromptTmpl.Execute(&buf, struct {
		Topic   string
		Results []view
	}{Topic: topic, Results: views})
	if err != nil {
		return "", fmt.Errorf("rendering synthesis prompt: %w", err)
	}
	return buf.String(), nil
}
