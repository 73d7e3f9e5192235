// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"net/http"

	"github.com/pdiddy/research-assistant/internal/chat"
	"github.com/pdiddy/research-assistant/internal/httputil"
	"github.com/pdiddy/research-assistant/internal/insight"
	"github.com/pdiddy/research-assistant/internal/llm"
	"github.com/pdiddy/research-assistant/internal/metrics"
	"github.com/pdiddy/research-assistant/internal/query"
	"github.com/pdiddy/research-assistant/internal/search"
	"github.com/pdiddy/research-assistant/internal/session"
	"github.com/pdiddy/research-assistant/pkg/types"
)

// newFetchers returns the arXiv and PubMed fetchers in merge order.
func newFetchers(cfg types.Config) []search.Fetcher {
	client := httputil.NewClient(cfg.Search.HTTPConfig)
	return []search.Fetcher{
		newArxivFetcher(cfg, client),
		&search.PubMedFetcher{
			Client:    client,
			UserAgent: cfg.Search.UserAgent,
			APIKey:    cfg.PMC.APIKey,
			Logger:    logger,
		},
	}
}

func newArxivFetcher(cfg types.Config, client *http.Client) *search.ArxivFetcher {
	return &search.ArxivFetcher{
		Client:    client,
		UserAgent: cfg.Search.UserAgent,
		Sort:      cfg.Search.ArxivSort,
		Logger:    logger,
	}
}

func chatModel(cfg types.LLMConfig) string {
	if cfg.ChatModel != "" {
		return cfg.ChatModel
	}
	return cfg.ReasoningModel
}

// newPipeline builds the session pipeline. The LLM client is created
// eagerly so that a missing API key fails before any search runs.
func newPipeline(ctx context.Context, cfg types.Config, m *metrics.Metrics) (*session.Pipeline, error) {
	client, err := llm.New(ctx, cfg.LLM, logger)
	if err != nil {
		return nil, err
	}

	p := &session.Pipeline{
		Fetchers:  newFetchers(cfg),
		Limit:     cfg.Search.Limit,
		Parallel:  cfg.Search.Parallel,
		Generator: &insight.Generator{LLM: client, Model: cfg.LLM.ReasoningModel, Logger: logger},
		Answerer: &chat.Answerer{
			LLM:             client,
			Model:           chatModel(cfg.LLM),
			MaxContextChars: cfg.Chat.MaxContextChars,
			Logger:          logger,
		},
		Metrics: m,
		Logger:  logger,
	}
	if cfg.Search.Refine {
		p.Refiner = &query.Refiner{LLM: client, Model: cfg.LLM.FastModel, Logger: logger}
	}
	return p, nil
}
