// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package session

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/research-assistant/internal/chat"
	"github.com/pdiddy/research-assistant/internal/insight"
	"github.com/pdiddy/research-assistant/internal/llm"
	"github.com/pdiddy/research-assistant/internal/metrics"
	"github.com/pdiddy/research-assistant/internal/query"
	"github.com/pdiddy/research-assistant/internal/search"
	"github.com/pdiddy/research-assistant/pkg/types"
)

// --- mocks ---

type stubFetcher struct {
	name    string
	results []types.PaperRecord
	gotQ    string
}

func (f *stubFetcher) Name() string { return f.name }

func (f *stubFetcher) Fetch(_ context.Context, q string, _ int) []types.PaperRecord {
	f.gotQ = q
	return f.results
}

// scriptedLLM answers refinement, insight, comparison, and chat requests
// based on the prompt it receives.
type scriptedLLM struct {
	refineOut string
	insight   string
	compare   string
	answer    string
	reqs      []llm.Request
}

func (s *scriptedLLM) Complete(_ context.Context, req llm.Request) (string, error) {
	s.reqs = append(s.reqs, req)
	sys := ""
	if len(req.Messages) > 0 && req.Messages[0].Role == llm.RoleSystem {
		sys = req.Messages[0].Content
	}
	switch {
	case strings.Contains(sys, "Search Optimizer"):
		return s.refineOut, nil
	case strings.Contains(sys, "scientific analyst"):
		return s.insight, nil
	case strings.Contains(sys, "Compare the provided"):
		return s.compare, nil
	default:
		if s.answer == "" {
			return "", errors.New("no answer scripted")
		}
		return s.answer, nil
	}
}

func (s *scriptedLLM) Stream(ctx context.Context, req llm.Request, onToken func(string)) (string, error) {
	out, err := s.Complete(ctx, req)
	if err == nil && onToken != nil {
		onToken(out)
	}
	return out, err
}

const goodInsight = `{"background":"b","methods":"m","results":"r","conclusions":"c",` +
	`"key_findings":["k1","k2","k3"],"methodology_score":9,"methodology_critique":"solid"}`

const goodComparison = `{"title":"Cmp","hypothesis":"h","methodology":"m",` +
	`"tabular_data":"| a | b |","conclusion":"c","key_findings":["x"]}`

func fixture() (*Pipeline, *scriptedLLM, *stubFetcher, *stubFetcher) {
	model := &scriptedLLM{refineOut: "sleep memory consolidation", insight: goodInsight, compare: goodComparison, answer: "42"}
	ax := &stubFetcher{name: "arxiv", results: []types.PaperRecord{
		{ID: "2301.1", Title: "A", Summary: "abs A", Source: types.SourceArxiv},
		{ID: "2301.2", Title: "B", Summary: "abs B", Source: types.SourceArxiv},
	}}
	pm := &stubFetcher{name: "pubmed", results: []types.PaperRecord{
		{ID: "2301.1", Title: "C", Summary: "C", Source: types.SourcePubMed},
	}}
	p := &Pipeline{
		Refiner:   &query.Refiner{LLM: model, Model: "fast"},
		Fetchers:  []search.Fetcher{ax, pm},
		Limit:     3,
		Generator: &insight.Generator{LLM: model, Model: "reasoning"},
		Answerer:  &chat.Answerer{LLM: model, Model: "chat"},
		Metrics:   metrics.New(),
	}
	return p, model, ax, pm
}

// --- Search ---

func TestSearch(t *testing.T) {
	p, _, ax, pm := fixture()
	s := New()

	require.NoError(t, p.Search(context.Background(), s, "how does sleep help memory"))
	assert.Equal(t, "how does sleep help memory", s.Query)
	assert.Equal(t, "sleep memory consolidation", s.RefinedQuery)
	assert.Equal(t, "sleep memory consolidation", ax.gotQ)
	assert.Equal(t, "sleep memory consolidation", pm.gotQ)

	require.Len(t, s.Found, 3)
	assert.Equal(t, "arxiv:2301.1", s.Found[0].Key())
	assert.Equal(t, "pubmed:2301.1", s.Found[2].Key())
}

func TestSearchEmptyQuery(t *testing.T) {
	p, _, _, _ := fixture()
	assert.ErrorIs(t, p.Search(context.Background(), New(), "   "), ErrEmptyQuery)
}

func TestSearchWithoutRefiner(t *testing.T) {
	p, _, ax, _ := fixture()
	p.Refiner = nil
	require.NoError(t, p.Search(context.Background(), New(), "raw text"))
	assert.Equal(t, "raw text", ax.gotQ)
}

func TestSearchResetsPreviousState(t *testing.T) {
	p, _, _, _ := fixture()
	s := New()
	require.NoError(t, p.Search(context.Background(), s, "q"))
	require.NoError(t, s.SelectIndexes([]int{1}))
	require.NoError(t, p.Analyze(context.Background(), s))
	_, err := p.Ask(context.Background(), s, "why?", nil)
	require.NoError(t, err)

	require.NoError(t, p.Search(context.Background(), s, "new topic"))
	assert.Empty(t, s.Selected)
	assert.Empty(t, s.ChatContext)
	assert.Empty(t, s.Messages)
	assert.Nil(t, s.Comparison)
	for _, r := range s.Found {
		assert.Nil(t, r.Insight)
	}
}

// --- Selection ---

func TestSelect(t *testing.T) {
	p, _, _, _ := fixture()
	s := New()
	require.NoError(t, p.Search(context.Background(), s, "q"))

	tests := []struct {
		name string
		keys []string
		err  error
	}{
		{"none", nil, ErrNoSelection},
		{"too many", []string{"arxiv:2301.1", "arxiv:2301.2", "pubmed:2301.1", "arxiv:2301.1"}, ErrTooManySelections},
		{"duplicate", []string{"arxiv:2301.1", "arxiv:2301.1"}, ErrDuplicateSelection},
		{"unknown", []string{"arxiv:9999"}, ErrUnknownPaper},
		{"same id different source is fine", []string{"arxiv:2301.1", "pubmed:2301.1"}, nil},
		{"three", []string{"arxiv:2301.1", "arxiv:2301.2", "pubmed:2301.1"}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := s.Select(tt.keys)
			if tt.err != nil {
				assert.ErrorIs(t, err, tt.err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.keys, s.Selected)
		})
	}
}

func TestSelectIndexes(t *testing.T) {
	p, _, _, _ := fixture()
	s := New()
	require.NoError(t, p.Search(context.Background(), s, "q"))

	require.NoError(t, s.SelectIndexes([]int{3, 1}))
	assert.Equal(t, []string{"pubmed:2301.1", "arxiv:2301.1"}, s.Selected)

	assert.ErrorIs(t, s.SelectIndexes([]int{0}), ErrUnknownPaper)
	assert.ErrorIs(t, s.SelectIndexes([]int{4}), ErrUnknownPaper)
	assert.ErrorIs(t, s.SelectIndexes([]int{2, 2}), ErrDuplicateSelection)
}

// --- Analyze ---

func TestAnalyzeSinglePaper(t *testing.T) {
	p, model, _, _ := fixture()
	s := New()
	require.NoError(t, p.Search(context.Background(), s, "q"))
	require.NoError(t, s.SelectIndexes([]int{2}))

	require.NoError(t, p.Analyze(context.Background(), s))

	rec, ok := s.Record("arxiv:2301.2")
	require.True(t, ok)
	require.NotNil(t, rec.Insight)
	assert.Equal(t, 9, rec.Insight.MethodologyScore)
	assert.Nil(t, s.Comparison)
	assert.True(t, strings.HasPrefix(s.ChatContext, "\n\n=== PAPER: B ===\nTitle: B\nAbstract: abs B\nAnalysis: {"))

	for _, r := range model.reqs {
		assert.NotContains(t, r.Messages[0].Content, "Compare the provided")
	}
}

func TestAnalyzeMultiplePapersAddsComparison(t *testing.T) {
	p, model, _, _ := fixture()
	s := New()
	require.NoError(t, p.Search(context.Background(), s, "q"))
	require.NoError(t, s.SelectIndexes([]int{1, 3}))

	require.NoError(t, p.Analyze(context.Background(), s))

	require.NotNil(t, s.Comparison)
	assert.Equal(t, "Cmp", s.Comparison.Title)
	assert.True(t, strings.HasPrefix(s.ChatContext, "Comparative Analysis:\n{\"title\":\"Cmp\""))
	assert.Contains(t, s.ChatContext, "\n\nPapers Data:\n\n\n=== PAPER: A ===")
	assert.Contains(t, s.ChatContext, "=== PAPER: C ===")

	// The comparison sees the combined context including both analyses.
	last := model.reqs[len(model.reqs)-1]
	assert.Contains(t, last.Messages[1].Content, "=== PAPER: A ===")
	assert.Contains(t, last.Messages[1].Content, "=== PAPER: C ===")
	assert.Contains(t, last.Messages[1].Content, "Analysis: ")
}

func TestAnalyzeFallbackStillBuildsContext(t *testing.T) {
	p, model, _, _ := fixture()
	model.insight = "garbage"
	s := New()
	require.NoError(t, p.Search(context.Background(), s, "q"))
	require.NoError(t, s.SelectIndexes([]int{1}))

	require.NoError(t, p.Analyze(context.Background(), s))
	rec, _ := s.Record("arxiv:2301.1")
	require.NotNil(t, rec.Insight)
	assert.Equal(t, 0, rec.Insight.MethodologyScore)
	assert.Contains(t, s.ChatContext, "Error parsing model response")
}

func TestAnalyzeRequiresSelection(t *testing.T) {
	p, _, _, _ := fixture()
	s := New()
	require.NoError(t, p.Search(context.Background(), s, "q"))
	assert.ErrorIs(t, p.Analyze(context.Background(), s), ErrNoSelection)
}

// --- Ask ---

func TestAsk(t *testing.T) {
	p, model, _, _ := fixture()
	s := New()
	require.NoError(t, p.Search(context.Background(), s, "q"))
	require.NoError(t, s.SelectIndexes([]int{1}))
	require.NoError(t, p.Analyze(context.Background(), s))

	var streamed []string
	answer, err := p.Ask(context.Background(), s, "What is the answer?", func(tok string) { streamed = append(streamed, tok) })
	require.NoError(t, err)
	assert.Equal(t, "42", answer)
	assert.Equal(t, []string{"42"}, streamed)
	assert.Equal(t, []types.ChatMessage{
		{Role: types.RoleUser, Content: "What is the answer?"},
		{Role: types.RoleAssistant, Content: "42"},
	}, s.Messages)

	last := model.reqs[len(model.reqs)-1]
	assert.Equal(t, "chat", last.Model)
	assert.Contains(t, last.Messages[1].Content, "User Question: What is the answer?")
}

func TestAskValidation(t *testing.T) {
	p, _, _, _ := fixture()
	s := New()
	_, err := p.Ask(context.Background(), s, " ", nil)
	assert.ErrorIs(t, err, ErrEmptyQuestion)
	_, err = p.Ask(context.Background(), s, "why?", nil)
	assert.ErrorIs(t, err, ErrNotAnalyzed)
}

func TestAskErrorSentinelRecorded(t *testing.T) {
	p, model, _, _ := fixture()
	model.answer = ""
	s := New()
	require.NoError(t, p.Search(context.Background(), s, "q"))
	require.NoError(t, s.SelectIndexes([]int{1}))
	require.NoError(t, p.Analyze(context.Background(), s))

	answer, err := p.Ask(context.Background(), s, "why?", nil)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(answer, "Error generating response: "))
	require.Len(t, s.Messages, 2)
}

func TestReport(t *testing.T) {
	p, _, _, _ := fixture()
	s := New()
	require.NoError(t, p.Search(context.Background(), s, "raw"))
	require.NoError(t, s.SelectIndexes([]int{1, 2}))
	require.NoError(t, p.Analyze(context.Background(), s))

	r := s.Report()
	assert.Equal(t, "sleep memory consolidation", r.Query)
	require.Len(t, r.Papers, 2)
	assert.NotNil(t, r.Papers[0].Insight)
	assert.NotNil(t, r.Comparison)
}
