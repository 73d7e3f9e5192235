// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"context"
	"encoding/xml"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/pdiddy/research-assistant/internal/httputil"
	"github.com/pdiddy/research-assistant/pkg/types"
)

// arxivAPIBase is the arXiv search endpoint. Declared as a var so tests
// can substitute an httptest server.
var arxivAPIBase = "http://export.arxiv.org/api/query"

// arXiv sort orders accepted by the sortBy parameter.
const (
	ArxivSortRelevance     = "relevance"
	ArxivSortSubmittedDate = "submittedDate"
)

// ArxivFetcher queries the arXiv Atom API.
type ArxivFetcher struct {
	Client    *http.Client
	UserAgent string

	// Sort is ArxivSortRelevance (default) or ArxivSortSubmittedDate.
	Sort   string
	Logger *zap.Logger
}

// Name returns the provider identifier.
func (f *ArxivFetcher) Name() string { return string(types.SourceArxiv) }

// Fetch searches arXiv. Plain text is searched across all fields
// (all:<query>); text already in arXiv field syntax is sent verbatim.
func (f *ArxivFetcher) Fetch(ctx context.Context, query string, limit int) []types.PaperRecord {
	params := url.Values{}
	params.Set("search_query", arxivSearchQuery(query))
	params.Set("start", "0")
	params.Set("max_results", strconv.Itoa(effectiveLimit(limit)))
	params.Set("sortBy", f.sortBy())
	params.Set("sortOrder", "descending")

	records, err := f.get(ctx, params)
	if err != nil {
		nopIfNil(f.Logger).Warn("arxiv fetch failed",
			zap.String("source", f.Name()), zap.String("query", query), zap.Error(err))
		return []types.PaperRecord{}
	}
	return records
}

// FetchByID looks up papers by arXiv identifier.
func (f *ArxivFetcher) FetchByID(ctx context.Context, ids []string) []types.PaperRecord {
	if len(ids) == 0 {
		return []types.PaperRecord{}
	}
	params := url.Values{}
	params.Set("id_list", strings.Join(ids, ","))
	params.Set("max_results", strconv.Itoa(len(ids)))

	records, err := f.get(ctx, params)
	if err != nil {
		nopIfNil(f.Logger).Warn("arxiv id lookup failed",
			zap.String("source", f.Name()), zap.Strings("ids", ids), zap.Error(err))
		return []types.PaperRecord{}
	}
	return records
}

func (f *ArxivFetcher) sortBy() string {
	if f.Sort == ArxivSortSubmittedDate {
		return ArxivSortSubmittedDate
	}
	return ArxivSortRelevance
}

func (f *ArxivFetcher) client() *http.Client {
	if f.Client == nil {
		return http.DefaultClient
	}
	return f.Client
}

func (f *ArxivFetcher) get(ctx context.Context, params url.Values) ([]types.PaperRecord, error) {
	body, err := httputil.Get(ctx, f.client(), arxivAPIBase+"?"+params.Encode(), f.UserAgent)
	if err != nil {
		return nil, err
	}

	var feed arxivFeed
	if err := xml.Unmarshal(body, &feed); err != nil {
		return nil, fmt.Errorf("parsing arXiv response: %w", err)
	}

	records := make([]types.PaperRecord, 0, len(feed.Entries))
	for _, entry := range feed.Entries {
		records = append(records, entry.record())
	}
	return records, nil
}

// arxivFieldPrefixes are the arXiv query field names.
var arxivFieldPrefixes = []string{"ti:", "au:", "abs:", "co:", "jr:", "cat:", "rn:", "id:", "all:"}

// arxivSearchQuery wraps plain text as all:<text>. Queries built by
// query.BuildArxivQuery already carry a field prefix or a group.
func arxivSearchQuery(q string) string {
	trimmed := strings.TrimSpace(q)
	if strings.HasPrefix(trimmed, "(") {
		return trimmed
	}
	for _, p := range arxivFieldPrefixes {
		if strings.HasPrefix(trimmed, p) {
			return trimmed
		}
	}
	return "all:" + q
}

// arXiv Atom feed XML structures.
type arxivFeed struct {
	Entries []arxivEntry `xml:"entry"`
}

type arxivEntry struct {
	ID        string      `xml:"id"`
	Title     string      `xml:"title"`
	Summary   string      `xml:"summary"`
	Published string      `xml:"published"`
	Links     []arxivLink `xml:"link"`
}

type arxivLink struct {
	Href  string `xml:"href,attr"`
	Title string `xml:"title,attr"`
	Type  string `xml:"type,attr"`
}

func (e arxivEntry) record() types.PaperRecord {
	r := types.PaperRecord{
		ID:        extractArxivID(e.ID),
		Title:     flatten(e.Title),
		Summary:   flatten(e.Summary),
		Published: e.Published,
		Source:    types.SourceArxiv,
	}
	if len(r.Published) > 10 {
		r.Published = r.Published[:10]
	}
	for _, l := range e.Links {
		if l.Title == "pdf" || l.Type == "application/pdf" {
			r.PDFURL = l.Href
			break
		}
	}
	return r
}

// extractArxivID takes the last path segment of the entry id URL and drops
// everything from the first "v" ("http://arxiv.org/abs/2301.07041v2" becomes
// "2301.07041").
func extractArxivID(idURL string) string {
	id := strings.TrimRight(idURL, "/")
	if i := strings.LastIndex(id, "/"); i >= 0 {
		id = id[i+1:]
	}
	if i := strings.Index(id, "v"); i >= 0 {
		id = id[:i]
	}
	return id
}

// flatten replaces newlines with spaces and trims the result.
func flatten(s string) string {
	return strings.TrimSpace(strings.ReplaceAll(s, "\n", " "))
}
