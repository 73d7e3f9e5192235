// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/goleak"

	"github.com/pdiddy/research-assistant/pkg/types"
)

// --- mock fetcher ---

type mockFetcher struct {
	name    string
	results []types.PaperRecord
	delay   time.Duration
	calls   int32
	gotQ    string
	gotN    int
}

func (m *mockFetcher) Name() string { return m.name }

func (m *mockFetcher) Fetch(_ context.Context, query string, limit int) []types.PaperRecord {
	atomic.AddInt32(&m.calls, 1)
	m.gotQ, m.gotN = query, limit
	if m.delay > 0 {
		time.Sleep(m.delay)
	}
	return m.results
}

func records(source types.Source, ids ...string) []types.PaperRecord {
	out := make([]types.PaperRecord, len(ids))
	for i, id := range ids {
		out[i] = types.PaperRecord{ID: id, Title: "Paper " + id, Source: source}
	}
	return out
}

// --- Merge ---

func TestMergeConcatenatesInOrder(t *testing.T) {
	a := records(types.SourceArxiv, "a1", "a2")
	p := records(types.SourcePubMed, "p1")

	merged := Merge(a, p)
	assert.Equal(t, append(append([]types.PaperRecord{}, a...), p...), merged)
}

func TestMergeKeepsDuplicates(t *testing.T) {
	a := records(types.SourceArxiv, "x")
	b := records(types.SourceArxiv, "x")
	assert.Len(t, Merge(a, b), 2)
}

func TestMergeEmpty(t *testing.T) {
	assert.Empty(t, Merge())
	assert.Empty(t, Merge(nil, []types.PaperRecord{}))
	assert.Equal(t, records(types.SourcePubMed, "p1"), Merge(nil, records(types.SourcePubMed, "p1")))
}

// --- FetchAll ---

func TestFetchAllSequential(t *testing.T) {
	ax := &mockFetcher{name: "arxiv", results: records(types.SourceArxiv, "a1", "a2")}
	pm := &mockFetcher{name: "pubmed", results: records(types.SourcePubMed, "p1")}

	got := FetchAll(context.Background(), []Fetcher{ax, pm}, "crispr", 3, false)
	assert.Equal(t, []string{"a1", "a2", "p1"}, ids(got))
	assert.Equal(t, "crispr", ax.gotQ)
	assert.Equal(t, 3, pm.gotN)
}

func TestFetchAllParallelPreservesOrder(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	// The first fetcher finishes last; its results must still lead.
	slow := &mockFetcher{name: "arxiv", results: records(types.SourceArxiv, "a1"), delay: 30 * time.Millisecond}
	fast := &mockFetcher{name: "pubmed", results: records(types.SourcePubMed, "p1", "p2")}

	got := FetchAll(context.Background(), []Fetcher{slow, fast}, "q", 3, true)
	assert.Equal(t, []string{"a1", "p1", "p2"}, ids(got))
	assert.Equal(t, int32(1), atomic.LoadInt32(&slow.calls))
	assert.Equal(t, int32(1), atomic.LoadInt32(&fast.calls))
}

func TestFetchAllOneSourceEmpty(t *testing.T) {
	ax := &mockFetcher{name: "arxiv"}
	pm := &mockFetcher{name: "pubmed", results: records(types.SourcePubMed, "p1")}

	for _, parallel := range []bool{false, true} {
		t.Run(fmt.Sprintf("parallel=%v", parallel), func(t *testing.T) {
			got := FetchAll(context.Background(), []Fetcher{ax, pm}, "q", 3, parallel)
			assert.Equal(t, []string{"p1"}, ids(got))
		})
	}
}

func TestEffectiveLimit(t *testing.T) {
	assert.Equal(t, DefaultLimit, effectiveLimit(0))
	assert.Equal(t, DefaultLimit, effectiveLimit(-1))
	assert.Equal(t, 7, effectiveLimit(7))
}

func ids(rs []types.PaperRecord) []string {
	out := make([]string, len(rs))
	for i, r := range rs {
		out[i] = r.ID
	}
	return out
}
