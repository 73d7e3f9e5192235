// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/pdiddy/research-assistant/internal/httputil"
	"github.com/pdiddy/research-assistant/pkg/types"
)

// E-utilities endpoints. Declared as vars so tests can substitute an
// httptest server.
var (
	pubmedESearchURL  = "https://eutils.ncbi.nlm.nih.gov/entrez/eutils/esearch.fcgi"
	pubmedESummaryURL = "https://eutils.ncbi.nlm.nih.gov/entrez/eutils/esummary.fcgi"
)

// Placeholders for fields esummary leaves out.
const (
	pubmedNoTitle    = "No Title"
	pubmedNoAbstract = "No Abstract"
	pubmedNoDate     = "Unknown"
)

// PubMedFetcher queries PubMed through NCBI E-utilities: esearch for ids,
// then esummary for metadata. esummary has no abstracts, so Summary holds
// the title.
type PubMedFetcher struct {
	Client    *http.Client
	UserAgent string

	// APIKey is an optional NCBI key for higher rate limits.
	APIKey string
	Logger *zap.Logger
}

// Name returns the provider identifier.
func (f *PubMedFetcher) Name() string { return string(types.SourcePubMed) }

// Fetch searches PubMed and returns records in esummary uid order.
func (f *PubMedFetcher) Fetch(ctx context.Context, query string, limit int) []types.PaperRecord {
	log := nopIfNil(f.Logger).With(zap.String("source", f.Name()), zap.String("query", query))

	ids, err := f.searchIDs(ctx, query, effectiveLimit(limit))
	if err != nil {
		log.Warn("pubmed esearch failed", zap.Error(err))
		return []types.PaperRecord{}
	}
	if len(ids) == 0 {
		log.Debug("pubmed esearch returned no ids")
		return []types.PaperRecord{}
	}

	records, err := f.summaries(ctx, ids)
	if err != nil {
		log.Warn("pubmed esummary failed", zap.Error(err))
		return []types.PaperRecord{}
	}
	return records
}

// eSearchResponse is the JSON body of an esearch call.
type eSearchResponse struct {
	ESearchResult struct {
		IdList []string `json:"idlist"`
	} `json:"esearchresult"`
}

// eSummaryDoc is one entry of an esummary result. Pointer fields tell a
// missing key apart from an empty value.
type eSummaryDoc struct {
	Title   *string `json:"title"`
	PubDate *string `json:"pubdate"`
}

func (f *PubMedFetcher) client() *http.Client {
	if f.Client == nil {
		return http.DefaultClient
	}
	return f.Client
}

func (f *PubMedFetcher) params() url.Values {
	params := url.Values{}
	params.Set("db", "pubmed")
	params.Set("retmode", "json")
	if f.APIKey != "" {
		params.Set("api_key", f.APIKey)
	}
	return params
}

func (f *PubMedFetcher) searchIDs(ctx context.Context, query string, limit int) ([]string, error) {
	params := f.params()
	params.Set("term", query)
	params.Set("retmax", strconv.Itoa(limit))

	body, err := httputil.Get(ctx, f.client(), pubmedESearchURL+"?"+params.Encode(), f.UserAgent)
	if err != nil {
		return nil, err
	}
	var resp eSearchResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("parsing esearch response: %w", err)
	}
	return resp.ESearchResult.IdList, nil
}

func (f *PubMedFetcher) summaries(ctx context.Context, ids []string) ([]types.PaperRecord, error) {
	params := f.params()
	params.Set("id", strings.Join(ids, ","))

	body, err := httputil.Get(ctx, f.client(), pubmedESummaryURL+"?"+params.Encode(), f.UserAgent)
	if err != nil {
		return nil, err
	}

	var resp struct {
		Result map[string]json.RawMessage `json:"result"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("parsing esummary response: %w", err)
	}

	var uids []string
	if raw, ok := resp.Result["uids"]; ok {
		if err := json.Unmarshal(raw, &uids); err != nil {
			return nil, fmt.Errorf("parsing esummary uids: %w", err)
		}
	}

	records := make([]types.PaperRecord, 0, len(uids))
	for _, uid := range uids {
		raw, ok := resp.Result[uid]
		if !ok {
			continue
		}
		var doc eSummaryDoc
		if err := json.Unmarshal(raw, &doc); err != nil {
			return nil, fmt.Errorf("parsing esummary entry %s: %w", uid, err)
		}
		records = append(records, doc.record(uid))
	}
	return records, nil
}

func (d eSummaryDoc) record(uid string) types.PaperRecord {
	r := types.PaperRecord{
		ID:        uid,
		Title:     pubmedNoTitle,
		Summary:   pubmedNoAbstract,
		Published: pubmedNoDate,
		Source:    types.SourcePubMed,
	}
	if d.Title != nil {
		r.Title = *d.Title
		r.Summary = *d.Title
	}
	if d.PubDate != nil {
		r.Published = *d.PubDate
	}
	return r
}
