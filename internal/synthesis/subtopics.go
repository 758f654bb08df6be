// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package synthesis

import (
	"bytes"
	"context"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/pdiddy/topicsmith/pkg/types"
)

// subtopicCount is the exact number of subtopics every discovery
// returns.
const subtopicCount = 5

// aiSubtopics is the provider's subtopic response shape.
type aiSubtopics struct {
	Subtopics []types.SubtopicInfo `json:"subtopics"`
}

// IdentifySubtopics infers exactly five subtopics grounded in the
// synthesis, with unique priorities 1 through 5. A provider failure or
// invalid response degrades to theme-derived subtopics padded with
// generically named aspects; the method never fails.
func (s *Synthesizer) IdentifySubtopics(ctx context.Context, topic string, syn types.Synthesis) []types.SubtopicInfo {
	prompt, err := renderSubtopicsPrompt(topic, syn)
	if err == nil {
		var ai aiSubtopics
		if err := s.provider.GenerateJSON(ctx, prompt, &ai); err == nil {
			if subs, ok := normalizeSubtopics(ai.Subtopics); ok {
				return subs
			}
			s.logger.Warn("subtopic response invalid, deriving from themes",
				zap.String("topic", topic))
		} else {
			s.logger.Warn("subtopic discovery failed, deriving from themes",
				zap.String("topic", topic), zap.Error(err))
		}
	}
	return themeSubtopics(topic, syn)
}

// normalizeSubtopics validates the provider's subtopics: exactly five,
// unique priorities 1-5 (reassigned in order when broken), known
// complexity levels.
func normalizeSubtopics(subs []types.SubtopicInfo) ([]types.SubtopicInfo, bool) {
	if len(subs) != subtopicCount {
		return nil, false
	}

	for i := range subs {
		if subs[i].Title == "" {
			return nil, false
		}
		switch subs[i].ComplexityLevel {
		case types.ComplexityBeginner, types.ComplexityIntermediate, types.ComplexityAdvanced:
		default:
			subs[i].ComplexityLevel = types.ComplexityIntermediate
		}
		if subs[i].EstimatedReadMinutes <= 0 {
			subs[i].EstimatedReadMinutes = 8
		}
	}

	seen := make(map[int]bool, subtopicCount)
	valid := true
	for _, sub := range subs {
		if sub.Priority < 1 || sub.Priority > subtopicCount || seen[sub.Priority] {
			valid = false
			break
		}
		seen[sub.Priority] = true
	}
	if !valid {
		// Keep the provider's ordering, reassign priorities 1..5.
		for i := range subs {
			subs[i].Priority = i + 1
		}
	}

	sort.Slice(subs, func(i, j int) bool { return subs[i].Priority < subs[j].Priority })
	return subs, true
}

// themeSubtopics derives subtopics from content themes, one per theme,
// padded with generically named aspects to exactly five.
func themeSubtopics(topic string, syn types.Synthesis) []types.SubtopicInfo {
	subs := make([]types.SubtopicInfo, 0, subtopicCount)
	for _, theme := range syn.ContentThemes {
		if len(subs) == subtopicCount {
			break
		}
		subs = append(subs, types.SubtopicInfo{
			Title:                fmt.Sprintf("%s: %s", topic, theme),
			Description:          fmt.Sprintf("The %s theme within %s.", theme, topic),
			Priority:             len(subs) + 1,
			ComplexityLevel:      types.ComplexityIntermediate,
			EstimatedReadMinutes: 8,
		})
	}
	for n := len(subs) + 1; len(subs) < subtopicCount; n++ {
		subs = append(subs, types.SubtopicInfo{
			Title:                fmt.Sprintf("%s: Aspect %d", topic, n),
			Description:          fmt.Sprintf("An additional aspect of %s worth independent research.", topic),
			Priority:             len(subs) + 1,
			ComplexityLevel:      types.ComplexityIntermediate,
			EstimatedReadMinutes: 8,
		})
	}
	return subs
}

func renderSubtopicsPrompt(topic string, syn types.Synthesis) (string, error) {
	var buf bytes.Buffer
	err := subtopicsPromptTmpl.Execute(&buf, struct {
		Topic    string
		Insights []string
		Themes   []string
	}{Topic: topic, Insights: syn.KeyInsights, Themes: syn.ContentThemes})
	if err != nil {
		return "", err
	}
	return buf.String(), nil
}
