// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package chat assembles the context string for question answering and
// answers questions against it.
package chat

import (
	"encoding/json"
	"strings"

	"github.com/pdiddy/research-assistant/pkg/types"
)

// Item is one analyzed paper contributing to the chat context.
type Item struct {
	Title   string
	Text    string
	Insight *types.PaperInsight
}

// ItemFromRecord builds an Item from a paper record and its attached insight.
func ItemFromRecord(p types.PaperRecord) Item {
	return Item{Title: p.Title, Text: p.AnalysisText(), Insight: p.Insight}
}

// BuildContext concatenates items in order. Each item contributes a
// "=== PAPER: <title> ===" header, its text, and, when analyzed, the
// insight as compact JSON. No truncation happens here.
func BuildContext(items []Item) string {
	var sb strings.Builder
	for _, it := range items {
		sb.WriteString("\n\n=== PAPER: ")
		sb.WriteString(it.Title)
		sb.WriteString(" ===\n")
		sb.WriteString(it.Text)
		if it.Insight != nil {
			sb.WriteString("\nAnalysis: ")
			sb.WriteString(compactJSON(it.Insight))
		}
	}
	return sb.String()
}

// WithComparison prefixes the papers context with a comparison insight.
func WithComparison(cmp types.ComparisonInsight, papersContext string) string {
	return "Comparative Analysis:\n" + compactJSON(cmp) + "\n\nPapers Data:\n" + papersContext
}

// JoinDocuments joins document contents with blank lines, skipping
// documents without text.
func JoinDocuments(docs []types.Document) string {
	parts := make([]string, 0, len(docs))
	for _, d := range docs {
		if strings.TrimSpace(d.Content) == "" {
			continue
		}
		parts = append(parts, d.Content)
	}
	return strings.Join(parts, "\n\n")
}

func compactJSON(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return "{}"
	}
	return string(data)
}
