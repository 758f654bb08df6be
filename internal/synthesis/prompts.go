// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package synthesis

import "text/template"

// synthesisPromptTmpl asks the provider for key insights and themes
// from the practically weighted search results.
var synthesisPromptTmpl = template.Must(template.New("synthesis").Parse(`You are a research synthesis system. Distill the search results below about "{{.Topic}}" into key insights and content themes.

Search results:
{{range .Results}}- [{{.Engine}}] {{.Title}}: {{.Snippet}}
{{end}}
Favor practical, hands-on findings over purely theoretical ones.

Respond with a JSON object:
{"key_insights": ["..."], "content_themes": ["..."]}
`))

// contentPromptTmpl asks the provider for a progressively structured
// educational document.
var contentPromptTmpl = template.Must(template.New("content").Parse(`You are an educational content writer. Write a structured learning document about "{{.Topic}}".

Key insights:
{{range .Insights}}- {{.}}
{{end}}
Content themes:
{{range .Themes}}- {{.}}
{{end}}
Requirements:
- 4 to 6 sections, each with a title, body, learning objective, and a complexity tier: "foundation", "building", or "application".
- Order sections so complexity progresses: foundation first, application last, never jumping back more than one tier.
- Use short sentences, explain technical terms in plain language, and include concrete examples.
- 3 to 7 key takeaways and 2 to 5 next steps starting with an action verb.

Respond with a JSON object:
{"title": "...", "sections": [{"title": "...", "content": "...", "complexity_tier": "foundation", "learning_objective": "...", "sources": []}], "key_takeaways": ["..."], "next_steps": ["..."], "estimated_read_minutes": 10}
`))

// subtopicsPromptTmpl asks the provider for exactly five subtopics
// grounded in the synthesis.
var subtopicsPromptTmpl = template.Must(template.New("subtopics").Parse(`You are a curriculum planner. Based strictly on the insights and themes below about "{{.Topic}}", identify exactly 5 subtopics worth researching next.

Key insights:
{{range .Insights}}- {{.}}
{{end}}
Content themes:
{{range .Themes}}- {{.}}
{{end}}
Each subtopic needs a title, a one-sentence description, a unique priority from 1 (most important) to 5, a complexity level (beginner, intermediate, advanced), and estimated read minutes.

Respond with a JSON object:
{"subtopics": [{"title": "...", "description": "...", "priority": 1, "complexity_level": "beginner", "estimated_read_minutes": 8}]}
`))
