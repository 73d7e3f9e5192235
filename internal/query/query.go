// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package query turns a user's request into provider search strings: an
// LLM-backed keyword refiner and the arXiv field-query heuristic.
package query

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/pdiddy/research-assistant/internal/llm"
)

// refinePrompt instructs the fast model to return bare keywords.
const refinePrompt = "You are a Scientific Search Optimizer. Convert the user's natural language request " +
	"into a precise, keyword-based search query. Return ONLY the keywords. Do not add quotes or prefixes."

// refineTemperature keeps keyword output close to deterministic.
const refineTemperature = 0.1

// Refiner rewrites natural-language requests into keyword queries.
type Refiner struct {
	LLM    llm.Completer
	Model  string
	Logger *zap.Logger
}

// Refine returns a keyword query for userText. It is best-effort: on any
// completion error, or an empty answer, userText is returned unchanged.
func (r *Refiner) Refine(ctx context.Context, userText string) string {
	if r == nil || r.LLM == nil || strings.TrimSpace(userText) == "" {
		return userText
	}
	out, err := r.LLM.Complete(ctx, llm.Request{
		Model:       r.Model,
		Messages:    []llm.Message{llm.System(refinePrompt), llm.User(userText)},
		Temperature: refineTemperature,
	})
	refined := strings.TrimSpace(out)
	if err != nil || refined == "" {
		r.logger().Debug("query refinement skipped", zap.String("query", userText), zap.Error(err))
		return userText
	}
	return refined
}

func (r *Refiner) logger() *zap.Logger {
	if r.Logger == nil {
		return zap.NewNop()
	}
	return r.Logger
}

// BuildArxivQuery builds an arXiv search_query value. More than three
// whitespace-separated tokens are searched as a title (ti:), shorter input
// is grouped in parentheses. A non-empty author adds an au: clause.
func BuildArxivQuery(text, author string) string {
	var q string
	if len(strings.Fields(text)) > 3 {
		q = "ti:" + text
	} else {
		q = "(" + text + ")"
	}
	if author != "" {
		q += " AND au:" + author
	}
	return q
}
