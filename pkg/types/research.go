// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the topicsmith
// research pipeline: topic understanding, research plans, search
// results, synthesized content, and progress records.
package types

import "time"

// ComplexityLevel grades a topic or learner level.
type ComplexityLevel string

const (
	ComplexityBeginner     ComplexityLevel = "beginner"
	ComplexityIntermediate ComplexityLevel = "intermediate"
	ComplexityAdvanced     ComplexityLevel = "advanced"
)

// TopicCategory classifies a topic into one of ten broad domains.
type TopicCategory string

const (
	CategoryTechnology     TopicCategory = "technology"
	CategoryScience        TopicCategory = "science"
	CategoryMathematics    TopicCategory = "mathematics"
	CategoryHistory        TopicCategory = "history"
	CategoryArts           TopicCategory = "arts"
	CategoryBusiness       TopicCategory = "business"
	CategoryHealth         TopicCategory = "health"
	CategorySociety        TopicCategory = "society"
	CategoryPhilosophy     TopicCategory = "philosophy"
	CategoryPracticalSkill TopicCategory = "practical_skill"
)

// ResearchApproach selects the overall research strategy for a topic.
type ResearchApproach string

const (
	ApproachBroadSurvey      ResearchApproach = "broad_survey"
	ApproachDeepDive         ResearchApproach = "deep_dive"
	ApproachPracticalFirst   ResearchApproach = "practical_first"
	ApproachAcademicGrounded ResearchApproach = "academic_grounded"
)

// EngineRecommendations flags which specialized engines are worth
// querying for a topic, beyond the always-used general engine.
type EngineRecommendations struct {
	Academic      bool `json:"academic" yaml:"academic"`
	Video         bool `json:"video" yaml:"video"`
	Community     bool `json:"community" yaml:"community"`
	Computational bool `json:"computational" yaml:"computational"`
}

// TopicUnderstanding is a research-grounded structured summary of what
// a topic is. It is derived once per root topic from real search
// results and passed down to subtopics; it is not stored long-term.
type TopicUnderstanding struct {
	// Definition is a one-paragraph description of the topic.
	Definition string `json:"definition" yaml:"definition"`

	// Category places the topic in one of ten broad domains.
	Category TopicCategory `json:"category" yaml:"category"`

	// ComplexityLevel estimates how demanding the topic is for a newcomer.
	ComplexityLevel ComplexityLevel `json:"complexity_level" yaml:"complexity_level"`

	// RelevantDomains lists adjacent fields the topic touches.
	RelevantDomains []string `json:"relevant_domains" yaml:"relevant_domains"`

	// EngineRecommendations flags specialized engines worth querying.
	EngineRecommendations EngineRecommendations `json:"engine_recommendations" yaml:"engine_recommendations"`

	// ResearchApproach selects the overall strategy for this topic.
	ResearchApproach ResearchApproach `json:"research_approach" yaml:"research_approach"`
}

// Engine names. "general" is mandatory; the rest are optional
// specialized backends.
const (
	EngineGeneral       = "general"
	EngineAcademic      = "academic"
	EngineVideo         = "video"
	EngineCommunity     = "community"
	EngineComputational = "computational"
)

// KnownEngines lists every engine name the planner may emit.
var KnownEngines = []string{
	EngineGeneral, EngineAcademic, EngineVideo, EngineCommunity, EngineComputational,
}

// PlannedQuery is a single query in a ResearchPlan, bound to an engine.
type PlannedQuery struct {
	// Query is the search string to issue.
	Query string `json:"query" yaml:"query"`

	// Engine names the backend the query targets.
	Engine string `json:"engine" yaml:"engine"`

	// Reasoning explains why this query was chosen.
	Reasoning string `json:"reasoning" yaml:"reasoning"`
}

// ResearchPlan is a diversified multi-engine query plan for a topic.
// It is mutable only during planning; once executed it is never
// modified. Every valid plan carries at least five general-engine
// queries, and EngineDistribution exactly matches the per-engine
// counts of Queries.
type ResearchPlan struct {
	Queries          []PlannedQuery `json:"queries" yaml:"queries"`
	Strategy         string         `json:"strategy" yaml:"strategy"`
	ExpectedOutcomes []string       `json:"expected_outcomes" yaml:"expected_outcomes"`

	// EngineDistribution maps engine name to the number of queries
	// targeting it.
	EngineDistribution map[string]int `json:"engine_distribution" yaml:"engine_distribution"`
}

// CountByEngine returns the actual per-engine query counts.
func (p ResearchPlan) CountByEngine() map[string]int {
	counts := make(map[string]int)
	for _, q := range p.Queries {
		counts[q.Engine]++
	}
	return counts
}

// GeneralCount returns the number of general-engine queries.
func (p ResearchPlan) GeneralCount() int {
	return p.CountByEngine()[EngineGeneral]
}

// DistributionMatches reports whether EngineDistribution equals the
// actual per-engine counts of Queries.
func (p ResearchPlan) DistributionMatches() bool {
	actual := p.CountByEngine()
	if len(actual) != len(p.EngineDistribution) {
		return false
	}
	for engine, n := range actual {
		if p.EngineDistribution[engine] != n {
			return false
		}
	}
	return true
}

// SearchResult is one deduplicated result from an engine query. Results
// are ephemeral; they feed synthesis and are not persisted standalone.
type SearchResult struct {
	Title   string `json:"title" yaml:"title"`
	URL     string `json:"url" yaml:"url"`
	Snippet string `json:"snippet" yaml:"snippet"`

	// Engine names the backend that produced the result. Results
	// recovered via the general-engine fallback are relabeled "general".
	Engine string `json:"engine" yaml:"engine"`

	// RelevanceScore is in [0,1].
	RelevanceScore float64 `json:"relevance_score" yaml:"relevance_score"`

	// Reasoning explains what the result contributes.
	Reasoning string `json:"reasoning" yaml:"reasoning"`
}

// QualityLevel grades source quality or practical focus.
type QualityLevel string

const (
	QualityHigh   QualityLevel = "high"
	QualityMedium QualityLevel = "medium"
	QualityLow    QualityLevel = "low"
)

// Synthesis holds thematically grouped findings distilled from weighted
// search results. Ephemeral.
type Synthesis struct {
	KeyInsights    []string     `json:"key_insights" yaml:"key_insights"`
	ContentThemes  []string     `json:"content_themes" yaml:"content_themes"`
	SourceQuality  QualityLevel `json:"source_quality" yaml:"source_quality"`
	PracticalFocus QualityLevel `json:"practical_focus" yaml:"practical_focus"`
}

// SubtopicInfo describes one candidate subtopic for recursive research.
// A successful discovery yields exactly five, with unique priorities
// 1 through 5 (1 = processed first).
type SubtopicInfo struct {
	Title                string          `json:"title" yaml:"title"`
	Description          string          `json:"description" yaml:"description"`
	Priority             int             `json:"priority" yaml:"priority"`
	ComplexityLevel      ComplexityLevel `json:"complexity_level" yaml:"complexity_level"`
	EstimatedReadMinutes int             `json:"estimated_read_minutes" yaml:"estimated_read_minutes"`
}

// SourceAttribution records where a piece of content came from.
type SourceAttribution struct {
	Title  string `json:"title" yaml:"title"`
	URL    string `json:"url" yaml:"url"`
	Engine string `json:"engine" yaml:"engine"`
}

// ResultMetadata summarizes a research cycle.
type ResultMetadata struct {
	TotalSources    int       `json:"total_sources" yaml:"total_sources"`
	DurationMS      int64     `json:"duration_ms" yaml:"duration_ms"`
	EnginesUsed     []string  `json:"engines_used" yaml:"engines_used"`
	ConfidenceScore float64   `json:"confidence_score" yaml:"confidence_score"`
	LastUpdated     time.Time `json:"last_updated" yaml:"last_updated"`
}

// TopicResearchResult is the unit stored in cache and persistence: one
// topic's plan, synthesis, generated content, subtopics, and sources.
// The orchestrator exclusively owns its lifecycle during a run; the
// cache and persistence layers hold independent, non-authoritative
// copies.
type TopicResearchResult struct {
	Topic         string              `json:"topic" yaml:"topic"`
	Understanding TopicUnderstanding  `json:"understanding" yaml:"understanding"`
	Plan          ResearchPlan        `json:"plan" yaml:"plan"`
	Synthesis     Synthesis           `json:"synthesis" yaml:"synthesis"`
	Content       GeneratedContent    `json:"content" yaml:"content"`
	Subtopics     []SubtopicInfo      `json:"subtopics" yaml:"subtopics"`
	Sources       []SourceAttribution `json:"sources" yaml:"sources"`
	Metadata      ResultMetadata      `json:"metadata" yaml:"metadata"`
	CacheKey      string              `json:"cache_key" yaml:"cache_key"`
	Timestamp     time.Time           `json:"timestamp" yaml:"timestamp"`
}
