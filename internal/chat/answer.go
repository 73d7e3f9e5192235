// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package chat

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/pdiddy/research-assistant/internal/insight"
	"github.com/pdiddy/research-assistant/internal/llm"
	"github.com/pdiddy/research-assistant/pkg/types"
)

// DefaultMaxContextChars bounds the context included in a prompt.
// Larger settings are capped at MaxContextCharsLimit.
const (
	DefaultMaxContextChars = 30000
	MaxContextCharsLimit   = 40000
)

// Messages returned instead of an answer.
const (
	NoContextMessage  = "No papers have been analyzed yet. Search, select, and analyze papers before asking questions."
	NoDocumentMessage = "Error: No document data available. Please process your documents first."
	errorPrefix       = "Error generating response: "
)

const systemPrompt = "You are a research assistant. Answer the user's question based ONLY on the provided context."

// Answerer answers questions against an assembled context.
type Answerer struct {
	LLM   llm.Streamer
	Model string

	// MaxContextChars truncates the context when the prompt is built.
	// Zero selects DefaultMaxContextChars.
	MaxContextChars int
	Logger          *zap.Logger
}

// Answer returns the model's answer, or a user-visible error message.
// It never fails.
func (a *Answerer) Answer(ctx context.Context, chatContext, question string) string {
	return a.Stream(ctx, chatContext, question, nil)
}

// Stream is Answer with incremental delivery: onToken receives each text
// fragment as it arrives. The full answer is returned.
func (a *Answerer) Stream(ctx context.Context, chatContext, question string, onToken func(string)) string {
	if strings.TrimSpace(chatContext) == "" {
		return NoContextMessage
	}
	prompt := "Context:\n" + insight.Truncate(chatContext, a.maxContext()) + "\n\nUser Question: " + question
	return a.run(ctx, []llm.Message{llm.System(systemPrompt), llm.User(prompt)}, onToken)
}

// AnswerDocuments answers a question over extracted documents.
func (a *Answerer) AnswerDocuments(ctx context.Context, docs []types.Document, question string, onToken func(string)) string {
	joined := JoinDocuments(docs)
	if joined == "" {
		return NoDocumentMessage
	}
	prompt := "I have parts of several documents:\n\n" + insight.Truncate(joined, a.maxContext()) +
		"\n\nAnswer this question based on the documents:\n" + question
	return a.run(ctx, []llm.Message{llm.User(prompt)}, onToken)
}

func (a *Answerer) run(ctx context.Context, msgs []llm.Message, onToken func(string)) string {
	if a.LLM == nil {
		return errorPrefix + "no completion client configured"
	}
	req := llm.Request{Model: a.Model, Messages: msgs}

	var (
		out string
		err error
	)
	if onToken != nil {
		out, err = a.LLM.Stream(ctx, req, onToken)
	} else {
		out, err = a.LLM.Complete(ctx, req)
	}
	if err != nil {
		a.logger().Warn("answer generation failed", zap.Error(err))
		return errorPrefix + err.Error()
	}
	return out
}

func (a *Answerer) maxContext() int {
	switch {
	case a.MaxContextChars <= 0:
		return DefaultMaxContextChars
	case a.MaxContextChars > MaxContextCharsLimit:
		return MaxContextCharsLimit
	}
	return a.MaxContextChars
}

// IsError reports whether answer is a generation failure message rather
// than model output. A stream that fails partway returns such a message
// even though some tokens were already delivered.
func IsError(answer string) bool {
	return strings.HasPrefix(answer, errorPrefix)
}

func (a *Answerer) logger() *zap.Logger {
	if a.Logger == nil {
		return zap.NewNop()
	}
	return a.Logger
}
