// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package session holds the state of one research session (search
// results, selection, insights, chat history) and the pipeline that
// advances it. A Session is not safe for concurrent use; callers that
// share one across goroutines serialize access.
package session

import (
	"errors"
	"fmt"
	"strings"

	"github.com/pdiddy/research-assistant/pkg/types"
)

// Selection bounds.
const (
	MinSelections = 1
	MaxSelections = 3
)

// Validation errors returned at the session boundary.
var (
	ErrEmptyQuery         = errors.New("query is empty")
	ErrEmptyQuestion      = errors.New("question is empty")
	ErrNoSelection        = errors.New("select at least one paper")
	ErrTooManySelections  = fmt.Errorf("select at most %d papers", MaxSelections)
	ErrDuplicateSelection = errors.New("paper selected more than once")
	ErrUnknownPaper       = errors.New("paper not in search results")
	ErrNotAnalyzed        = errors.New("no papers analyzed yet")
)

// Session is the per-user research state.
type Session struct {
	// Query is the text the user typed; RefinedQuery is what was sent to
	// the providers.
	Query        string
	RefinedQuery string

	// Found holds the merged search results. Insights are attached to the
	// records in place.
	Found []types.PaperRecord

	// Selected holds the keys (PaperRecord.Key) of the selected records in
	// selection order.
	Selected []string

	// Comparison is set when two or more papers were analyzed together.
	Comparison *types.ComparisonInsight

	// ChatContext is the text questions are answered against.
	ChatContext string

	Messages []types.ChatMessage
}

// New returns an empty session.
func New() *Session {
	return &Session{}
}

// reset clears everything derived from a previous search.
func (s *Session) reset() {
	*s = Session{}
}

// Select replaces the selection with the given record keys.
func (s *Session) Select(keys []string) error {
	if len(keys) < MinSelections {
		return ErrNoSelection
	}
	if len(keys) > MaxSelections {
		return ErrTooManySelections
	}
	seen := make(map[string]bool, len(keys))
	for _, k := range keys {
		if seen[k] {
			return fmt.Errorf("%w: %s", ErrDuplicateSelection, k)
		}
		seen[k] = true
		if s.indexOf(k) < 0 {
			return fmt.Errorf("%w: %s", ErrUnknownPaper, k)
		}
	}
	s.Selected = append([]string(nil), keys...)
	return nil
}

// SelectIndexes selects records by 1-based position in Found.
func (s *Session) SelectIndexes(positions []int) error {
	keys := make([]string, 0, len(positions))
	for _, pos := range positions {
		if pos < 1 || pos > len(s.Found) {
			return fmt.Errorf("%w: position %d of %d", ErrUnknownPaper, pos, len(s.Found))
		}
		keys = append(keys, s.Found[pos-1].Key())
	}
	return s.Select(keys)
}

// SelectedRecords returns copies of the selected records in selection order.
func (s *Session) SelectedRecords() []types.PaperRecord {
	out := make([]types.PaperRecord, 0, len(s.Selected))
	for _, k := range s.Selected {
		if i := s.indexOf(k); i >= 0 {
			out = append(out, s.Found[i])
		}
	}
	return out
}

// Record returns the record with the given key.
func (s *Session) Record(key string) (types.PaperRecord, bool) {
	i := s.indexOf(key)
	if i < 0 {
		return types.PaperRecord{}, false
	}
	return s.Found[i], true
}

func (s *Session) indexOf(key string) int {
	for i, p := range s.Found {
		if p.Key() == key {
			return i
		}
	}
	return -1
}

// Report is the exportable summary of an analyzed session.
type Report struct {
	Query      string                   `json:"query" yaml:"query"`
	Papers     []types.PaperRecord      `json:"papers" yaml:"papers"`
	Comparison *types.ComparisonInsight `json:"comparison,omitempty" yaml:"comparison,omitempty"`
}

// Report returns the selected papers with their insights.
func (s *Session) Report() Report {
	q := s.RefinedQuery
	if q == "" {
		q = s.Query
	}
	return Report{Query: strings.TrimSpace(q), Papers: s.SelectedRecords(), Comparison: s.Comparison}
}
