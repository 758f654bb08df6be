// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package planner

import "text/template"

// planPromptTmpl asks the provider for a diversified multi-engine query
// plan grounded in the topic understanding.
var planPromptTmpl = template.Must(template.New("plan").Parse(`You are a research planning system. Build a search query plan for the topic below.

Topic: {{.Topic}}
Definition: {{.Definition}}
Category: {{.Category}}
Complexity: {{.Complexity}}
Research approach: {{.Approach}}
Relevant domains: {{.Domains}}
{{if .UserContext}}Learner context: {{.UserContext}}
{{end}}
Available engines: general, academic, video, community, computational.
Recommended specialized engines for this topic: {{.Recommended}}.

Produce 8 to 12 queries distributed across at most 5 engines. At least 5 queries must target the "general" engine. Mix accessible queries (basics, beginner, overview) with specialized ones (research, technical, advanced).

Respond with a JSON object:
{"queries": [{"query": "...", "engine": "general", "reasoning": "..."}], "strategy": "...", "expected_outcomes": ["..."], "engine_distribution": {"general": 5}}
`))

// understandingPromptTmpl asks the provider to analyze grounding search
// results into a structured topic understanding.
var understandingPromptTmpl = template.Must(template.New("understanding").Parse(`You are a topic analysis system. Using the search results below, describe what the topic "{{.Topic}}" is.

Search results:
{{range .Results}}- {{.Title}}: {{.Snippet}}
{{end}}
{{if .Prior}}Previously indexed notes:
{{range .Prior}}- {{.}}
{{end}}{{end}}
Respond with a JSON object:
{"definition": "...", "category": "technology|science|mathematics|history|arts|business|health|society|philosophy|practical_skill", "complexity_level": "beginner|intermediate|advanced", "relevant_domains": ["..."], "engine_recommendations": {"academic": false, "video": false, "community": false, "computational": false}, "research_approach": "broad_survey|deep_dive|practical_first|academic_grounded"}
`))

// generalTemplates are topic-parameterized general-engine queries used
// to top up plans below the general-engine minimum and to build the
// deterministic fallback plan.
var generalTemplates = []struct {
	format    string
	reasoning string
}{
	{"%s overview", "broad orientation on the topic"},
	{"%s practical applications", "how the topic is used in practice"},
	{"%s beginner guide", "accessible entry point for newcomers"},
	{"%s advantages and disadvantages", "balanced view of trade-offs"},
	{"%s history and development", "how the topic evolved"},
	{"%s best practices", "established ways of working with the topic"},
	{"%s real world examples", "concrete cases grounding the topic"},
}
