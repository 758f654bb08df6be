// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package synthesis

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/pdiddy/topicsmith/pkg/types"
)

// Validation thresholds for accessibility and structure checks.
const (
	longSentenceWords    = 25
	longSentenceRatioMax = 0.2
	sectionLengthMinPct  = 0.3
	sectionLengthMaxPct  = 3.0
)

// transitionPhrases mark a section that references prior material.
var transitionPhrases = []string{
	"building on", "as we saw", "with the earlier", "now that",
	"having covered", "from the previous", "based on the above",
}

// exampleIndicators mark concrete, example-driven language.
var exampleIndicators = []string{
	"for example", "for instance", "such as", "consider", "imagine", "e.g.",
}

// actionVerbs open a well-formed next step.
var actionVerbs = []string{
	"explore", "try", "build", "read", "practice", "watch",
	"write", "join", "review", "implement", "experiment", "study",
}

// repairContent validates the generated document and applies low-risk
// repairs: re-tiering out-of-order sections, injecting missing
// learning objectives and transitions, and padding counts with
// topic-scoped filler. Repairs never remove section content. Remaining
// advisory findings are logged, not surfaced.
func (s *Synthesizer) repairContent(topic string, syn types.Synthesis, content types.GeneratedContent) types.GeneratedContent {
	var issues []string

	content, issues = repairSectionCount(topic, syn, content, issues)
	content, issues = repairTiers(content, issues)
	content, issues = repairObjectives(topic, content, issues)
	content, issues = repairFlow(content, issues)
	content, issues = repairCounts(topic, content, issues)
	issues = append(issues, accessibilityFindings(content)...)
	issues = append(issues, balanceFindings(content)...)

	if content.EstimatedReadMinutes <= 0 {
		words := 0
		for _, sec := range content.Sections {
			words += len(strings.Fields(sec.Content))
		}
		content.EstimatedReadMinutes = words/200 + 1
	}

	if len(issues) > 0 {
		s.logger.Info("content repaired",
			zap.String("topic", topic), zap.Strings("issues", issues))
	}
	return content
}

// repairSectionCount pads a document below the section minimum from
// the synthesis and merges overflow sections beyond the maximum into
// the last kept one.
func repairSectionCount(topic string, syn types.Synthesis, content types.GeneratedContent, issues []string) (types.GeneratedContent, []string) {
	for len(content.Sections) < types.MinSections {
		issues = append(issues, "section count below minimum, padded")
		tier := types.TierFoundation
		switch len(content.Sections) {
		case 1:
			tier = types.TierBuilding
		case 2:
			tier = types.TierApplication
		}
		content.Sections = append(content.Sections, types.ContentSection{
			Title:             fmt.Sprintf("More on %s", topic),
			Content:           fmt.Sprintf("Building on the above, this section revisits %s through its main themes: %s. For example, each theme points at a practical angle worth exploring.", topic, strings.Join(syn.ContentThemes, ", ")),
			ComplexityTier:    tier,
			LearningObjective: fmt.Sprintf("Deepen your working knowledge of %s.", topic),
		})
	}

	if len(content.Sections) > types.MaxSections {
		issues = append(issues, "section count above maximum, merged overflow")
		last := types.MaxSections - 1
		for _, extra := range content.Sections[types.MaxSections:] {
			content.Sections[last].Content += "\n\n" + extra.Title + ". " + extra.Content
		}
		content.Sections = content.Sections[:types.MaxSections]
	}
	return content, issues
}

// repairTiers anchors the document's progressive shape: the first
// section at foundation, the last at application, and no regression of
// more than one tier between neighbors.
func repairTiers(content types.GeneratedContent, issues []string) (types.GeneratedContent, []string) {
	n := len(content.Sections)
	if n == 0 {
		return content, issues
	}

	for i := range content.Sections {
		switch content.Sections[i].ComplexityTier {
		case types.TierFoundation, types.TierBuilding, types.TierApplication:
		default:
			issues = append(issues, fmt.Sprintf("section %d: unknown tier, reset to foundation", i))
			content.Sections[i].ComplexityTier = types.TierFoundation
		}
	}

	if content.Sections[0].ComplexityTier != types.TierFoundation {
		issues = append(issues, "first section re-tiered to foundation")
		content.Sections[0].ComplexityTier = types.TierFoundation
	}
	if n >= types.MinSections && content.Sections[n-1].ComplexityTier != types.TierApplication {
		issues = append(issues, "last section re-tiered to application")
		content.Sections[n-1].ComplexityTier = types.TierApplication
	}

	// Walk forward clamping any regression bigger than one step.
	tiers := []types.ComplexityTier{types.TierFoundation, types.TierBuilding, types.TierApplication}
	for i := 1; i < n; i++ {
		prev := types.TierRank(content.Sections[i-1].ComplexityTier)
		cur := types.TierRank(content.Sections[i].ComplexityTier)
		if prev-cur > 1 {
			issues = append(issues, fmt.Sprintf("section %d: tier regressed too far, clamped", i))
			content.Sections[i].ComplexityTier = tiers[prev-1]
		}
	}
	return content, issues
}

// repairObjectives injects a learning objective into any section
// missing one.
func repairObjectives(topic string, content types.GeneratedContent, issues []string) (types.GeneratedContent, []string) {
	for i := range content.Sections {
		if strings.TrimSpace(content.Sections[i].LearningObjective) != "" {
			continue
		}
		issues = append(issues, fmt.Sprintf("section %d: injected learning objective", i))
		content.Sections[i].LearningObjective = fmt.Sprintf(
			"Understand %s as it relates to %s.", content.Sections[i].Title, topic)
	}
	return content, issues
}

// repairFlow ensures at least one section after the first opens with a
// transition phrase referencing prior material.
func repairFlow(content types.GeneratedContent, issues []string) (types.GeneratedContent, []string) {
	if len(content.Sections) < 2 {
		return content, issues
	}
	for _, sec := range content.Sections[1:] {
		if hasTransition(sec.Content) {
			return content, issues
		}
	}
	issues = append(issues, "no transition phrase found, injected one")
	content.Sections[1].Content = "Building on the previous section, " +
		lowerFirst(content.Sections[1].Content)
	return content, issues
}

// repairCounts pads takeaways and next steps to their minimums with
// topic-scoped filler, trims beyond the maximums, and prefixes next
// steps lacking an action verb.
func repairCounts(topic string, content types.GeneratedContent, issues []string) (types.GeneratedContent, []string) {
	fillerTakeaways := []string{
		fmt.Sprintf("%s rewards a progressive approach: foundations before applications.", topic),
		fmt.Sprintf("Multiple perspectives on %s exist; compare sources before settling.", topic),
		fmt.Sprintf("Practical experimentation is the fastest way to internalize %s.", topic),
	}
	for i := 0; len(content.KeyTakeaways) < types.MinTakeaways; i++ {
		issues = append(issues, "padded key takeaways")
		content.KeyTakeaways = append(content.KeyTakeaways, fillerTakeaways[i%len(fillerTakeaways)])
	}
	if len(content.KeyTakeaways) > types.MaxTakeaways {
		issues = append(issues, "trimmed key takeaways to maximum")
		content.KeyTakeaways = content.KeyTakeaways[:types.MaxTakeaways]
	}

	fillerSteps := []string{
		fmt.Sprintf("Explore an introductory resource on %s.", topic),
		fmt.Sprintf("Try a small hands-on exercise involving %s.", topic),
	}
	for i := 0; len(content.NextSteps) < types.MinNextSteps; i++ {
		issues = append(issues, "padded next steps")
		content.NextSteps = append(content.NextSteps, fillerSteps[i%len(fillerSteps)])
	}
	if len(content.NextSteps) > types.MaxNextSteps {
		issues = append(issues, "trimmed next steps to maximum")
		content.NextSteps = content.NextSteps[:types.MaxNextSteps]
	}

	for i, step := range content.NextSteps {
		if !startsWithActionVerb(step) {
			issues = append(issues, fmt.Sprintf("next step %d: prefixed action verb", i))
			content.NextSteps[i] = "Explore: " + step
		}
	}
	return content, issues
}

// accessibilityFindings flags long-sentence density, unexplained
// technical terms, and missing example language. These are advisory;
// rewriting prose is not a low-risk repair.
func accessibilityFindings(content types.GeneratedContent) []string {
	var findings []string

	var total, long int
	var hasExample bool
	for _, sec := range content.Sections {
		for _, sentence := range splitSentences(sec.Content) {
			total++
			if len(strings.Fields(sentence)) > longSentenceWords {
				long++
			}
		}
		if containsAny(strings.ToLower(sec.Content), exampleIndicators) {
			hasExample = true
		}
	}

	if total > 0 && float64(long)/float64(total) > longSentenceRatioMax {
		findings = append(findings, fmt.Sprintf("accessibility: %d of %d sentences exceed %d words", long, total, longSentenceWords))
	}
	if !hasExample {
		findings = append(findings, "accessibility: no example-indicator language found")
	}
	for i, sec := range content.Sections {
		if term, ok := unexplainedTechnicalTerm(sec.Content); ok {
			findings = append(findings, fmt.Sprintf("accessibility: section %d uses %q without a nearby explanation", i, term))
		}
	}
	return findings
}

// balanceFindings flags wildly imbalanced section lengths.
func balanceFindings(content types.GeneratedContent) []string {
	if len(content.Sections) == 0 {
		return nil
	}
	total := 0
	for _, sec := range content.Sections {
		total += len(strings.Fields(sec.Content))
	}
	mean := float64(total) / float64(len(content.Sections))
	if mean == 0 {
		return nil
	}

	var findings []string
	for i, sec := range content.Sections {
		words := float64(len(strings.Fields(sec.Content)))
		if words < sectionLengthMinPct*mean || words > sectionLengthMaxPct*mean {
			findings = append(findings, fmt.Sprintf("structure: section %d length is %0.f words against a mean of %.0f", i, words, mean))
		}
	}
	return findings
}

// unexplainedTechnicalTerm looks for an all-caps acronym with no
// explanation pattern (parenthetical or "is/means/refers to") nearby.
func unexplainedTechnicalTerm(text string) (string, bool) {
	words := strings.Fields(text)
	for i, word := range words {
		trimmed := strings.Trim(word, ".,;:!?()[]\"'")
		if len(trimmed) < 3 || len(trimmed) > 8 || trimmed != strings.ToUpper(trimmed) {
			continue
		}
		if !isAlpha(trimmed) {
			continue
		}
		window := strings.ToLower(strings.Join(words[max(0, i-10):min(len(words), i+10)], " "))
		if strings.Contains(window, "(") || strings.Contains(window, " is ") ||
			strings.Contains(window, " means ") || strings.Contains(window, " refers to ") ||
			strings.Contains(window, "stands for") {
			continue
		}
		return trimmed, true
	}
	return "", false
}

func hasTransition(text string) bool {
	return containsAny(strings.ToLower(text), transitionPhrases)
}

func startsWithActionVerb(step string) bool {
	fields := strings.Fields(strings.ToLower(step))
	if len(fields) == 0 {
		return false
	}
	first := strings.Trim(fields[0], ".,;:")
	for _, verb := range actionVerbs {
		if first == verb {
			return true
		}
	}
	return false
}

func containsAny(haystack string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(haystack, n) {
			return true
		}
	}
	return false
}

func splitSentences(text string) []string {
	var sentences []string
	start := 0
	for i, r := range text {
		if r == '.' || r == '!' || r == '?' {
			s := strings.TrimSpace(text[start : i+1])
			if s != "" {
				sentences = append(sentences, s)
			}
			start = i + 1
		}
	}
	if tail := strings.TrimSpace(text[start:]); tail != "" {
		sentences = append(sentences, tail)
	}
	return sentences
}

func isAlpha(s string) bool {
	for _, r := range s {
		if r < 'A' || r > 'Z' {
			return false
		}
	}
	return true
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}
