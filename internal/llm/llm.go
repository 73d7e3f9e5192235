// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package llm is the chat completion service used by query refinement,
// insight generation, and question answering. It hides the provider SDKs
// (OpenAI-compatible gateways, Anthropic, Gemini) behind one request shape.
package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/pdiddy/research-assistant/pkg/types"
)

const (
	// DefaultTemperature is used when a request leaves Temperature at zero.
	DefaultTemperature = 0.2

	// DefaultMaxTokens is used when a request leaves MaxTokens at zero.
	DefaultMaxTokens = 4096
)

// ErrEmptyResponse is returned when the provider answers without text.
var ErrEmptyResponse = errors.New("empty completion")

// Role is the author of a chat message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one entry of a completion request.
type Message struct {
	Role    Role
	Content string
}

// Request is a single chat completion call. Zero Temperature and MaxTokens
// select the package defaults.
type Request struct {
	Model       string
	Messages    []Message
	Temperature float64
	MaxTokens   int

	// JSON asks the provider to constrain output to a JSON object.
	JSON bool
}

// System returns a system message.
func System(content string) Message { return Message{Role: RoleSystem, Content: content} }

// User returns a user message.
func User(content string) Message { return Message{Role: RoleUser, Content: content} }

// Assistant returns an assistant message.
func Assistant(content string) Message { return Message{Role: RoleAssistant, Content: content} }

func (r Request) temperature() float64 {
	if r.Temperature == 0 {
		return DefaultTemperature
	}
	return r.Temperature
}

func (r Request) maxTokens() int {
	if r.MaxTokens <= 0 {
		return DefaultMaxTokens
	}
	return r.MaxTokens
}

// systemPrompt joins all system messages and returns the rest in order.
// Anthropic and Gemini carry the system prompt outside the message list.
func (r Request) systemPrompt() (string, []Message) {
	var sys []string
	rest := make([]Message, 0, len(r.Messages))
	for _, m := range r.Messages {
		if m.Role == RoleSystem {
			sys = append(sys, m.Content)
			continue
		}
		rest = append(rest, m)
	}
	return strings.Join(sys, "\n\n"), rest
}

// Completer returns the full text of one completion.
type Completer interface {
	Complete(ctx context.Context, req Request) (string, error)
}

// Streamer delivers a completion incrementally. onToken receives each text
// fragment as it arrives; the concatenated text is also returned.
type Streamer interface {
	Completer
	Stream(ctx context.Context, req Request, onToken func(string)) (string, error)
}

// New builds the client selected by cfg.Provider, wrapped with debug logging.
func New(ctx context.Context, cfg types.LLMConfig, logger *zap.Logger) (Streamer, error) {
	var (
		c   Streamer
		err error
	)
	switch cfg.Provider {
	case types.ProviderOpenAI, "":
		c, err = NewOpenAI(cfg)
	case types.ProviderAnthropic:
		c, err = NewAnthropic(cfg)
	case types.ProviderGemini:
		c, err = NewGemini(ctx, cfg)
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.Provider)
	}
	if err != nil {
		return nil, err
	}
	if cfg.Temperature != 0 || cfg.MaxTokens > 0 {
		c = &defaultsStreamer{next: c, temperature: cfg.Temperature, maxTokens: cfg.MaxTokens}
	}
	return WithLogging(c, logger), nil
}

// defaultsStreamer fills zero Temperature and MaxTokens from configuration.
type defaultsStreamer struct {
	next        Streamer
	temperature float64
	maxTokens   int
}

func (d *defaultsStreamer) apply(req Request) Request {
	if req.Temperature == 0 {
		req.Temperature = d.temperature
	}
	if req.MaxTokens <= 0 {
		req.MaxTokens = d.maxTokens
	}
	return req
}

func (d *defaultsStreamer) Complete(ctx context.Context, req Request) (string, error) {
	return d.next.Complete(ctx, d.apply(req))
}

func (d *defaultsStreamer) Stream(ctx context.Context, req Request, onToken func(string)) (string, error) {
	return d.next.Stream(ctx, d.apply(req), onToken)
}

// WithLogging logs model, duration, and outcome of every call at debug level.
func WithLogging(s Streamer, logger *zap.Logger) Streamer {
	if logger == nil {
		return s
	}
	return &loggingStreamer{next: s, log: logger.Named("llm")}
}

type loggingStreamer struct {
	next Streamer
	log  *zap.Logger
}

func (l *loggingStreamer) Complete(ctx context.Context, req Request) (string, error) {
	start := time.Now()
	out, err := l.next.Complete(ctx, req)
	l.done("complete", req, start, out, err)
	return out, err
}

func (l *loggingStreamer) Stream(ctx context.Context, req Request, onToken func(string)) (string, error) {
	start := time.Now()
	out, err := l.next.Stream(ctx, req, onToken)
	l.done("stream", req, start, out, err)
	return out, err
}

func (l *loggingStreamer) done(op string, req Request, start time.Time, out string, err error) {
	fields := []zap.Field{
		zap.String("op", op),
		zap.String("model", req.Model),
		zap.Bool("json", req.JSON),
		zap.Duration("elapsed", time.Since(start)),
		zap.Int("response_chars", len(out)),
	}
	if err != nil {
		l.log.Debug("completion failed", append(fields, zap.Error(err))...)
		return
	}
	l.log.Debug("completion", fields...)
}
