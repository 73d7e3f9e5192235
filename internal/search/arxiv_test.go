// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/pdiddy/research-assistant/pkg/types"
)

const arxivFeedXML = `<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns="http://www.w3.org/2005/Atom">
  <entry>
    <id>http://arxiv.org/abs/2301.07041v2</id>
    <published>2023-01-17T18:58:01Z</published>
    <title>Attention Is
  All You Need</title>
    <summary>  We propose a new
architecture.  </summary>
    <link href="http://arxiv.org/abs/2301.07041v2" rel="alternate" type="text/html"/>
    <link title="pdf" href="http://arxiv.org/pdf/2301.07041v2" rel="related" type="application/pdf"/>
  </entry>
  <entry>
    <id>http://arxiv.org/abs/2405.00001v1</id>
    <published>2024-05-01T00:00:00Z</published>
    <title>Second</title>
    <summary>Abstract two.</summary>
  </entry>
</feed>`

func withArxivServer(t *testing.T, h http.HandlerFunc) {
	t.Helper()
	ts := httptest.NewServer(h)
	orig := arxivAPIBase
	arxivAPIBase = ts.URL
	t.Cleanup(func() {
		arxivAPIBase = orig
		ts.Close()
	})
}

func TestArxivFetch(t *testing.T) {
	var got url.Values
	withArxivServer(t, func(w http.ResponseWriter, r *http.Request) {
		got = r.URL.Query()
		fmt.Fprint(w, arxivFeedXML)
	})

	f := &ArxivFetcher{Client: http.DefaultClient}
	rs := f.Fetch(context.Background(), "transformer models", 2)
	require.Len(t, rs, 2)

	assert.Equal(t, "all:transformer models", got.Get("search_query"))
	assert.Equal(t, "0", got.Get("start"))
	assert.Equal(t, "2", got.Get("max_results"))
	assert.Equal(t, "relevance", got.Get("sortBy"))
	assert.Equal(t, "descending", got.Get("sortOrder"))

	first := rs[0]
	assert.Equal(t, "2301.07041", first.ID)
	assert.Equal(t, "Attention Is   All You Need", first.Title)
	assert.Equal(t, "We propose a new architecture.", first.Summary)
	assert.Equal(t, "2023-01-17", first.Published)
	assert.Equal(t, "http://arxiv.org/pdf/2301.07041v2", first.PDFURL)
	assert.Equal(t, types.SourceArxiv, first.Source)
	assert.Nil(t, first.Insight)

	assert.Equal(t, "2405.00001", rs[1].ID)
	assert.Empty(t, rs[1].PDFURL)
}

func TestArxivFetchSortAndFieldQuery(t *testing.T) {
	var got url.Values
	withArxivServer(t, func(w http.ResponseWriter, r *http.Request) {
		got = r.URL.Query()
		fmt.Fprint(w, `<feed xmlns="http://www.w3.org/2005/Atom"></feed>`)
	})

	f := &ArxivFetcher{Sort: ArxivSortSubmittedDate}
	rs := f.Fetch(context.Background(), "(transformers) AND au:Vaswani", 0)
	assert.Empty(t, rs)
	assert.NotNil(t, rs)
	assert.Equal(t, "(transformers) AND au:Vaswani", got.Get("search_query"))
	assert.Equal(t, "submittedDate", got.Get("sortBy"))
	assert.Equal(t, "3", got.Get("max_results"))
}

func TestArxivFetchFailuresReturnEmpty(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"http error", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusServiceUnavailable) }},
		{"malformed xml", func(w http.ResponseWriter, _ *http.Request) { fmt.Fprint(w, "<feed><entry>") }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			withArxivServer(t, tt.handler)
			core, logs := observer.New(zapcore.WarnLevel)

			f := &ArxivFetcher{Logger: zap.New(core)}
			rs := f.Fetch(context.Background(), "q", 3)
			assert.NotNil(t, rs)
			assert.Empty(t, rs)

			entries := logs.All()
			require.Len(t, entries, 1)
			assert.Equal(t, "arxiv", entries[0].ContextMap()["source"])
			assert.Equal(t, "q", entries[0].ContextMap()["query"])
		})
	}
}

func TestArxivFetchByID(t *testing.T) {
	var got url.Values
	withArxivServer(t, func(w http.ResponseWriter, r *http.Request) {
		got = r.URL.Query()
		fmt.Fprint(w, arxivFeedXML)
	})

	f := &ArxivFetcher{}
	rs := f.FetchByID(context.Background(), []string{"2301.07041", "2405.00001"})
	assert.Len(t, rs, 2)
	assert.Equal(t, "2301.07041,2405.00001", got.Get("id_list"))
	assert.Empty(t, f.FetchByID(context.Background(), nil))
}

func TestExtractArxivID(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"http://arxiv.org/abs/2301.07041v1", "2301.07041"},
		{"http://arxiv.org/abs/2301.07041v12", "2301.07041"},
		{"http://arxiv.org/abs/2301.07041", "2301.07041"},
		{"http://arxiv.org/abs/hep-th/9901001v1", "9901001"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, extractArxivID(tt.in))
		})
	}
}

func TestArxivSearchQuery(t *testing.T) {
	assert.Equal(t, "all:graph networks", arxivSearchQuery("graph networks"))
	assert.Equal(t, "ti:deep learning", arxivSearchQuery("ti:deep learning"))
	assert.Equal(t, "(bert)", arxivSearchQuery("(bert)"))
	assert.Equal(t, "au:Hinton", arxivSearchQuery("au:Hinton"))
}
