// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package insight

import (
	"bytes"
	"fmt"
	"text/template"
)

// SchemaVersion identifies the schema descriptions embedded in the prompts.
// Bump it whenever paperSchema or comparisonSchema changes.
const SchemaVersion = "2026-01"

// paperSchema describes PaperInsight to the model. Field order matches the
// JSON encoding of types.PaperInsight.
const paperSchema = `{
  "type": "object",
  "properties": {
    "background": {"type": "string", "description": "The context and motivation for the study."},
    "methods": {"type": "string", "description": "The experimental design, data, and techniques used."},
    "results": {"type": "string", "description": "The main quantitative and qualitative outcomes."},
    "conclusions": {"type": "string", "description": "What the authors conclude from the results."},
    "key_findings": {"type": "array", "items": {"type": "string"}, "description": "3 to 5 key takeaways as short bullet points."},
    "methodology_score": {"type": "integer", "minimum": 1, "maximum": 10, "description": "Rating of methodological rigor from 1 (weak) to 10 (excellent)."},
    "methodology_critique": {"type": "string", "description": "A brief critique justifying the methodology score."}
  },
  "required": ["background", "methods", "results", "conclusions", "key_findings", "methodology_score", "methodology_critique"]
}`

// comparisonSchema describes ComparisonInsight to the model.
const comparisonSchema = `{
  "type": "object",
  "properties": {
    "title": {"type": "string", "description": "A title for the comparative analysis."},
    "hypothesis": {"type": "string", "description": "The shared or contrasting hypotheses of the papers."},
    "methodology": {"type": "string", "description": "How the methodologies of the papers compare."},
    "tabular_data": {"type": "string", "description": "A Markdown table comparing the papers side by side."},
    "conclusion": {"type": "string", "description": "The overall conclusion drawn from the comparison."},
    "key_findings": {"type": "array", "items": {"type": "string"}, "description": "Key findings of the comparison."}
  },
  "required": ["title", "hypothesis", "methodology", "tabular_data", "conclusion", "key_findings"]
}`

// systemPromptTmpl is the system prompt for both generators. Task carries the
// per-output instruction, Schema the static schema description.
var systemPromptTmpl = template.Must(template.New("system").Parse(
	`{{.Task}} You MUST return the output as a valid JSON object matching this schema exactly:
{{.Schema}}
{{- if .Extra}}
{{.Extra}}
{{- end}}
Do not add any markdown formatting or explanation text outside the JSON.`))

type promptData struct {
	Task   string
	Schema string
	Extra  string
}

var (
	paperPrompt = promptData{
		Task:   "You are a scientific analyst. Analyze the provided text.",
		Schema: paperSchema,
	}
	comparisonPrompt = promptData{
		Task:   "Compare the provided scientific papers.",
		Schema: comparisonSchema,
		Extra:  "For 'tabular_data', return a string formatted as a Markdown table.",
	}
)

// User prompt prefixes.
const (
	paperUserPrefix      = "Text to analyze:\n"
	comparisonUserPrefix = "Papers Content:\n"
)

func renderSystemPrompt(d promptData) (string, error) {
	var buf bytes.Buffer
	if err := systemPromptTmpl.Execute(&buf, d); err != nil {
		return "", fmt.Errorf("rendering system prompt: %w", err)
	}
	return buf.String(), nil
}
