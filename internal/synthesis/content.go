// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package synthesis

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/pdiddy/topicsmith/pkg/types"
)

// GenerateContent produces the structured learning document for a
// topic. The generation ladder is: schema-constrained call, one
// unstructured retry with manual JSON recovery, then the deterministic
// three-section template built from the synthesis. Validation and
// auto-repair always run on whatever rung succeeded, so the returned
// document meets the structural bounds. Generation itself never fails;
// the error return covers only an empty synthesis with no usable
// material at all.
func (s *Synthesizer) GenerateContent(ctx context.Context, topic string, syn types.Synthesis) (types.GeneratedContent, error) {
	if len(syn.KeyInsights) == 0 && len(syn.ContentThemes) == 0 {
		return types.GeneratedContent{}, fmt.Errorf("generating content for %q: synthesis carries no insights or themes", topic)
	}

	prompt, err := renderContentPrompt(topic, syn)
	if err != nil {
		return types.GeneratedContent{}, fmt.Errorf("rendering content prompt: %w", err)
	}

	var content types.GeneratedContent
	if err := s.provider.GenerateJSON(ctx, prompt, &content); err != nil {
		s.logger.Warn("structured content generation failed, retrying unstructured",
			zap.String("topic", topic), zap.Error(err))
		content, err = s.unstructuredRetry(ctx, prompt)
		if err != nil {
			s.logger.Warn("unstructured retry failed, using deterministic template",
				zap.String("topic", topic), zap.Error(err))
			content = templateContent(topic, syn)
		}
	}

	if content.Title == "" {
		content.Title = fmt.Sprintf("Understanding %s", topic)
	}

	content = s.repairContent(topic, syn, content)
	return content, nil
}

// unstructuredRetry asks for free text and recovers the first JSON
// object embedded in it.
func (s *Synthesizer) unstructuredRetry(ctx context.Context, prompt string) (types.GeneratedContent, error) {
	text, err := s.provider.Generate(ctx, prompt)
	if err != nil {
		return types.GeneratedContent{}, err
	}

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return types.GeneratedContent{}, fmt.Errorf("no JSON object in unstructured response")
	}

	var content types.GeneratedContent
	if err := json.Unmarshal([]byte(text[start:end+1]), &content); err != nil {
		return types.GeneratedContent{}, fmt.Errorf("parsing recovered JSON: %w", err)
	}
	if len(content.Sections) == 0 {
		return types.GeneratedContent{}, fmt.Errorf("recovered JSON has no sections")
	}
	return content, nil
}

// templateContent is the deterministic fallback: one section per
// complexity tier, built directly from the synthesis insights and
// themes.
func templateContent(topic string, syn types.Synthesis) types.GeneratedContent {
	insightText := func(from, to int) string {
		if len(syn.KeyInsights) == 0 {
			return fmt.Sprintf("Research on %s surfaced the themes %s.",
				topic, strings.Join(syn.ContentThemes, ", "))
		}
		if to > len(syn.KeyInsights) {
			to = len(syn.KeyInsights)
		}
		if from >= to {
			from = 0
			to = len(syn.KeyInsights)
		}
		return strings.Join(syn.KeyInsights[from:to], " ")
	}

	third := (len(syn.KeyInsights) + 2) / 3
	sections := []types.ContentSection{
		{
			Title:             fmt.Sprintf("%s: The Foundations", topic),
			Content:           fmt.Sprintf("This section introduces %s from the ground up. For example, the research highlights: %s", topic, insightText(0, third)),
			ComplexityTier:    types.TierFoundation,
			LearningObjective: fmt.Sprintf("Explain what %s is in plain language.", topic),
		},
		{
			Title:             fmt.Sprintf("Building On the Basics of %s", topic),
			Content:           fmt.Sprintf("Building on the foundations above, this section connects the main themes of %s: %s. %s", topic, strings.Join(syn.ContentThemes, ", "), insightText(third, 2*third)),
			ComplexityTier:    types.TierBuilding,
			LearningObjective: fmt.Sprintf("Relate the main themes of %s to each other.", topic),
		},
		{
			Title:             fmt.Sprintf("Applying %s in Practice", topic),
			Content:           fmt.Sprintf("With the earlier sections in hand, this section turns to practical application of %s. For example: %s", topic, insightText(2*third, len(syn.KeyInsights))),
			ComplexityTier:    types.TierApplication,
			LearningObjective: fmt.Sprintf("Apply %s to a concrete problem.", topic),
		},
	}

	return types.GeneratedContent{
		Title:    fmt.Sprintf("Understanding %s", topic),
		Sections: sections,
		KeyTakeaways: append([]string(nil),
			firstN(syn.KeyInsights, types.MaxTakeaways)...),
		NextSteps: []string{
			fmt.Sprintf("Explore an introductory resource on %s.", topic),
			fmt.Sprintf("Try a small hands-on exercise involving %s.", topic),
		},
		EstimatedReadMinutes: 3 * len(sections),
	}
}

func firstN(items []string, n int) []string {
	if len(items) > n {
		return items[:n]
	}
	return items
}

func renderContentPrompt(topic string, syn types.Synthesis) (string, error) {
	var buf bytes.Buffer
	err := contentPromptTmpl.Execute(&buf, struct {
		Topic    string
		Insights []string
		Themes   []string
	}{Topic: topic, Insights: syn.KeyInsights, Themes: syn.ContentThemes})
	if err != nil {
		return "", err
	}
	return buf.String(), nil
}
