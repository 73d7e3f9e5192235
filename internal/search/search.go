// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package search queries academic repositories (arXiv, PubMed) and merges
// their results into one ordered list of paper records.
package search

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/pdiddy/research-assistant/pkg/types"
)

// DefaultLimit is the per-source result count used when a caller passes
// a non-positive limit.
const DefaultLimit = 3

// Fetcher retrieves paper records from one provider. Fetch never fails:
// network, HTTP, and parse errors are logged and yield an empty slice.
type Fetcher interface {
	Name() string
	Fetch(ctx context.Context, query string, limit int) []types.PaperRecord
}

// Merge concatenates result lists in argument order. Records are not
// deduplicated: the same paper found by two providers appears twice.
func Merge(results ...[]types.PaperRecord) []types.PaperRecord {
	n := 0
	for _, r := range results {
		n += len(r)
	}
	merged := make([]types.PaperRecord, 0, n)
	for _, r := range results {
		merged = append(merged, r...)
	}
	return merged
}

// FetchAll runs every fetcher with the same query and limit and merges the
// results in fetcher order. With parallel set the fetchers run
// concurrently; each writes into its own slot so the merged order matches
// the sequential order.
func FetchAll(ctx context.Context, fetchers []Fetcher, query string, limit int, parallel bool) []types.PaperRecord {
	slots := make([][]types.PaperRecord, len(fetchers))
	if !parallel {
		for i, f := range fetchers {
			slots[i] = f.Fetch(ctx, query, limit)
		}
		return Merge(slots...)
	}

	var g errgroup.Group
	for i, f := range fetchers {
		g.Go(func() error {
			slots[i] = f.Fetch(ctx, query, limit)
			return nil
		})
	}
	g.Wait()
	return Merge(slots...)
}

func effectiveLimit(limit int) int {
	if limit <= 0 {
		return DefaultLimit
	}
	return limit
}

func nopIfNil(l *zap.Logger) *zap.Logger {
	if l == nil {
		return zap.NewNop()
	}
	return l
}
