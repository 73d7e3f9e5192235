// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package llm

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/pdiddy/research-assistant/pkg/types"
)

// GeminiClient talks to the Gemini API through the genai SDK.
type GeminiClient struct {
	client *genai.Client
}

// NewGemini builds a Gemini client.
func NewGemini(ctx context.Context, cfg types.LLMConfig) (*GeminiClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini: api key is required")
	}
	cc := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("creating genai client: %w", err)
	}
	return &GeminiClient{client: client}, nil
}

func (c *GeminiClient) content(req Request) ([]*genai.Content, *genai.GenerateContentConfig) {
	system, rest := req.systemPrompt()
	contents := make([]*genai.Content, 0, len(rest))
	for _, m := range rest {
		role := genai.Role(genai.RoleUser)
		if m.Role == RoleAssistant {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(m.Content, role))
	}
	cfg := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(float32(req.temperature())),
		MaxOutputTokens: int32(req.maxTokens()),
	}
	if system != "" {
		cfg.SystemInstruction = genai.NewContentFromText(system, genai.RoleUser)
	}
	if req.JSON {
		cfg.ResponseMIMEType = "application/json"
	}
	return contents, cfg
}

// Complete generates content and returns the concatenated candidate text.
func (c *GeminiClient) Complete(ctx context.Context, req Request) (string, error) {
	contents, cfg := c.content(req)
	resp, err := c.client.Models.GenerateContent(ctx, req.Model, contents, cfg)
	if err != nil {
		return "", fmt.Errorf("gemini generate content: %w", err)
	}
	text := resp.Text()
	if text == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}

// Stream generates content incrementally.
func (c *GeminiClient) Stream(ctx context.Context, req Request, onToken func(string)) (string, error) {
	contents, cfg := c.content(req)
	var sb strings.Builder
	for resp, err := range c.client.Models.GenerateContentStream(ctx, req.Model, contents, cfg) {
		if err != nil {
			return sb.String(), fmt.Errorf("gemini stream: %w", err)
		}
		text := resp.Text()
		if text == "" {
			continue
		}
		sb.WriteString(text)
		if onToken != nil {
			onToken(text)
		}
	}
	if sb.Len() == 0 {
		return "", ErrEmptyResponse
	}
	return sb.String(), nil
}
