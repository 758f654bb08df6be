// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// ComplexityTier places a content section on the progressive-learning
// ladder: foundation, then building, then application.
type ComplexityTier string

const (
	TierFoundation  ComplexityTier = "foundation"
	TierBuilding    ComplexityTier = "building"
	TierApplication ComplexityTier = "application"
)

// TierRank returns the ordinal position of a tier (foundation 0,
// building 1, application 2). Unknown tiers rank as foundation.
func TierRank(t ComplexityTier) int {
	switch t {
	case TierBuilding:
		return 1
	case TierApplication:
		return 2
	default:
		return 0
	}
}

// ContentSection is one ordered section of generated content. Across a
// document the first third skews toward foundation, the last third
// toward application, and the tier never regresses by more than one
// step between adjacent sections.
type ContentSection struct {
	Title   string   `json:"title" yaml:"title"`
	Content string   `json:"content" yaml:"content"`
	Sources []string `json:"sources" yaml:"sources"`

	// ComplexityTier is one of foundation, building, application.
	ComplexityTier ComplexityTier `json:"complexity_tier" yaml:"complexity_tier"`

	// LearningObjective states what the reader should be able to do
	// after the section.
	LearningObjective string `json:"learning_objective" yaml:"learning_objective"`
}

// GeneratedContent is the structured educational document produced for
// one topic per research cycle. It carries 3 to 6 sections, 3 to 7 key
// takeaways, and 2 to 5 next steps. A refresh supersedes the document;
// it is never mutated in place.
type GeneratedContent struct {
	Title                string           `json:"title" yaml:"title"`
	Sections             []ContentSection `json:"sections" yaml:"sections"`
	KeyTakeaways         []string         `json:"key_takeaways" yaml:"key_takeaways"`
	NextSteps            []string         `json:"next_steps" yaml:"next_steps"`
	EstimatedReadMinutes int              `json:"estimated_read_minutes" yaml:"estimated_read_minutes"`
}

// SectionBounds holds the allowed section, takeaway, and next-step
// counts.
const (
	MinSections  = 3
	MaxSections  = 6
	MinTakeaways = 3
	MaxTakeaways = 7
	MinNextSteps = 2
	MaxNextSteps = 5
)
