// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package session

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/pdiddy/research-assistant/internal/chat"
	"github.com/pdiddy/research-assistant/internal/insight"
	"github.com/pdiddy/research-assistant/internal/metrics"
	"github.com/pdiddy/research-assistant/internal/query"
	"github.com/pdiddy/research-assistant/internal/search"
	"github.com/pdiddy/research-assistant/pkg/types"
)

// Pipeline wires the components that advance a session: refine and fetch,
// analyze the selection, answer questions.
type Pipeline struct {
	// Refiner is optional; without it the query is sent as typed.
	Refiner  *query.Refiner
	Fetchers []search.Fetcher
	Limit    int
	Parallel bool

	Generator *insight.Generator
	Answerer  *chat.Answerer

	Metrics *metrics.Metrics
	Logger  *zap.Logger
}

// Search refines the query, fetches from every provider, and replaces the
// session state with the merged results. Provider failures only shrink
// the result list.
func (p *Pipeline) Search(ctx context.Context, s *Session, userQuery string) error {
	if strings.TrimSpace(userQuery) == "" {
		return ErrEmptyQuery
	}
	refined := userQuery
	if p.Refiner != nil {
		refined = p.Refiner.Refine(ctx, userQuery)
	}

	found := search.FetchAll(ctx, p.Fetchers, refined, p.Limit, p.Parallel)

	s.reset()
	s.Query = userQuery
	s.RefinedQuery = refined
	s.Found = found

	perSource := make(map[string]int, len(p.Fetchers))
	for _, f := range p.Fetchers {
		perSource[f.Name()] = 0
	}
	for _, r := range found {
		perSource[string(r.Source)]++
	}
	p.Metrics.ObserveSearch(perSource)
	p.logger().Info("search complete",
		zap.String("query", userQuery), zap.String("refined", refined), zap.Int("results", len(found)))
	return nil
}

// Analyze generates an insight for every selected paper, a comparison when
// more than one is selected, and rebuilds the chat context. Chat history
// is cleared because it referred to the previous context.
func (p *Pipeline) Analyze(ctx context.Context, s *Session) error {
	if len(s.Selected) < MinSelections {
		return ErrNoSelection
	}
	if len(s.Selected) > MaxSelections {
		return ErrTooManySelections
	}

	items := make([]chat.Item, 0, len(s.Selected))
	for _, key := range s.Selected {
		i := s.indexOf(key)
		if i < 0 {
			return ErrUnknownPaper
		}
		ins := p.Generator.GenerateInsight(ctx, s.Found[i].AnalysisText())
		p.Metrics.ObserveInsight("paper", ins.Failed())
		s.Found[i].Insight = &ins
		items = append(items, chat.ItemFromRecord(s.Found[i]))
	}

	combined := chat.BuildContext(items)
	s.Comparison = nil
	s.ChatContext = combined
	if len(items) > 1 {
		cmp := p.Generator.GenerateComparison(ctx, combined)
		p.Metrics.ObserveInsight("comparison", insight.ComparisonFailed(cmp))
		s.Comparison = &cmp
		s.ChatContext = chat.WithComparison(cmp, combined)
	}
	s.Messages = nil

	p.logger().Info("analysis complete", zap.Int("papers", len(items)), zap.Bool("comparison", s.Comparison != nil))
	return nil
}

// Ask answers a question against the session's chat context and appends
// the exchange to the history. onToken may be nil.
func (p *Pipeline) Ask(ctx context.Context, s *Session, question string, onToken func(string)) (string, error) {
	if strings.TrimSpace(question) == "" {
		return "", ErrEmptyQuestion
	}
	if s.ChatContext == "" {
		return "", ErrNotAnalyzed
	}
	answer := p.Answerer.Stream(ctx, s.ChatContext, question, onToken)
	s.Messages = append(s.Messages,
		types.ChatMessage{Role: types.RoleUser, Content: question},
		types.ChatMessage{Role: types.RoleAssistant, Content: answer},
	)
	p.Metrics.ObserveQuestion()
	return answer, nil
}

func (p *Pipeline) logger() *zap.Logger {
	if p.Logger == nil {
		return zap.NewNop()
	}
	return p.Logger
}
