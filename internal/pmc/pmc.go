// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pmc downloads open-access articles from PubMed Central: the BioC
// JSON full text (required) and the PDF (when the OA service offers one).
// Files are cached under a data directory and optionally mirrored to S3.
package pmc

import (
	"context"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/pdiddy/research-assistant/internal/httputil"
	"github.com/pdiddy/research-assistant/pkg/types"
)

// NCBI endpoints. Declared as vars so tests can substitute an httptest
// server.
var (
	esearchURL = "https://eutils.ncbi.nlm.nih.gov/entrez/eutils/esearch.fcgi"
	biocBase   = "https://www.ncbi.nlm.nih.gov/research/bionlp/RESTful/pmcoa.cgi/BioC_json"
	oaURL      = "https://www.ncbi.nlm.nih.gov/pmc/utils/oa/oa.fcgi"
)

const (
	jsonDir = "json"
	pdfDir  = "pdfs"

	// DefaultLimit is the number of articles requested when limit <= 0.
	DefaultLimit = 1
)

// Sink receives a copy of every downloaded file.
type Sink interface {
	Put(ctx context.Context, key, path string) error
}

// Loader fetches open-access articles for a query.
type Loader struct {
	Client    *http.Client
	UserAgent string

	// DataDir receives json/ and pdfs/.
	DataDir string

	// Email, Tool, and APIKey are passed to E-utilities when set.
	Email  string
	Tool   string
	APIKey string

	// Sink mirrors downloads; nil disables mirroring.
	Sink   Sink
	Logger *zap.Logger
}

// NewLoader builds a Loader from configuration.
func NewLoader(cfg types.PMCConfig, sink Sink, logger *zap.Logger) *Loader {
	dir := cfg.DataDir
	if dir == "" {
		dir = "data"
	}
	return &Loader{
		Client:    httputil.NewClient(cfg.HTTPConfig),
		UserAgent: cfg.UserAgent,
		DataDir:   dir,
		Email:     cfg.Email,
		Tool:      cfg.Tool,
		APIKey:    cfg.APIKey,
		Sink:      sink,
		Logger:    logger,
	}
}

// Fetch searches PMC for open-access articles and downloads each one.
// Articles whose BioC JSON cannot be retrieved are dropped even if their
// PDF downloaded. Network failures are logged, never returned; the error
// result only reports local directory setup failures.
func (l *Loader) Fetch(ctx context.Context, query string, limit int) ([]types.PMCArticle, error) {
	if err := l.ensureDirs(); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = DefaultLimit
	}
	log := l.logger().With(zap.String("query", query))

	ids, err := l.search(ctx, query, limit)
	if err != nil {
		log.Warn("pmc esearch failed", zap.Error(err))
		return []types.PMCArticle{}, nil
	}
	log.Info("pmc esearch complete", zap.Int("ids", len(ids)))

	articles := make([]types.PMCArticle, 0, len(ids))
	for _, raw := range ids {
		id := NormalizeID(raw)
		a, ok := l.download(ctx, id)
		if ok {
			articles = append(articles, a)
		}
	}
	return articles, nil
}

// NormalizeID prefixes a bare numeric id with "PMC".
func NormalizeID(id string) string {
	id = strings.TrimSpace(id)
	if strings.HasPrefix(strings.ToUpper(id), "PMC") {
		return "PMC" + id[3:]
	}
	return "PMC" + id
}

func (l *Loader) download(ctx context.Context, id string) (types.PMCArticle, bool) {
	log := l.logger().With(zap.String("pmcid", id))

	jsonPath, err := l.fetchBioC(ctx, id)
	if err != nil {
		log.Warn("bioc json unavailable, dropping article", zap.Error(err))
		return types.PMCArticle{}, false
	}
	l.mirror(ctx, jsonDir+"/"+filepath.Base(jsonPath), jsonPath)

	a := types.PMCArticle{ID: id, JSONPath: jsonPath}
	pdfPath, err := l.fetchPDF(ctx, id)
	if err != nil {
		log.Info("pdf unavailable", zap.Error(err))
		return a, true
	}
	a.PDFPath = pdfPath
	l.mirror(ctx, pdfDir+"/"+filepath.Base(pdfPath), pdfPath)
	return a, true
}

func (l *Loader) ensureDirs() error {
	for _, d := range []string{jsonDir, pdfDir} {
		if err := os.MkdirAll(filepath.Join(l.DataDir, d), 0o755); err != nil {
			return fmt.Errorf("creating %s directory: %w", d, err)
		}
	}
	return nil
}

func (l *Loader) search(ctx context.Context, query string, limit int) ([]string, error) {
	params := l.eutilsParams()
	params.Set("db", "pmc")
	params.Set("term", query+" AND open access[filter]")
	params.Set("retmode", "json")
	params.Set("retmax", strconv.Itoa(limit))
	params.Set("sort", "relevance")

	body, err := httputil.Get(ctx, l.client(), esearchURL+"?"+params.Encode(), l.UserAgent)
	if err != nil {
		return nil, err
	}
	var resp struct {
		ESearchResult struct {
			IdList []string `json:"idlist"`
		} `json:"esearchresult"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("parsing esearch response: %w", err)
	}
	return resp.ESearchResult.IdList, nil
}

func (l *Loader) eutilsParams() url.Values {
	params := url.Values{}
	if l.Email != "" {
		params.Set("email", l.Email)
	}
	if l.Tool != "" {
		params.Set("tool", l.Tool)
	}
	if l.APIKey != "" {
		params.Set("api_key", l.APIKey)
	}
	return params
}

// fetchBioC downloads the BioC JSON rendition. The body must be valid JSON.
func (l *Loader) fetchBioC(ctx context.Context, id string) (string, error) {
	body, err := httputil.Get(ctx, l.client(), biocBase+"/"+id+"/unicode", l.UserAgent)
	if err != nil {
		return "", err
	}
	if !json.Valid(body) {
		return "", fmt.Errorf("bioc response for %s is not valid JSON", id)
	}
	path := filepath.Join(l.DataDir, jsonDir, id+".json")
	if err := os.WriteFile(path, body, 0o644); err != nil {
		return "", fmt.Errorf("writing %s: %w", path, err)
	}
	return path, nil
}

// oaResponse is the XML body of the PMC OA web service.
type oaResponse struct {
	XMLName xml.Name   `xml:"OA"`
	Error   string     `xml:"error"`
	Records []oaRecord `xml:"records>record"`
}

type oaRecord struct {
	Links []oaLink `xml:"link"`
}

type oaLink struct {
	Format string `xml:"format,attr"`
	Href   string `xml:"href,attr"`
}

// pdfLink returns the first PDF link in the response.
func (r oaResponse) pdfLink() string {
	for _, rec := range r.Records {
		for _, link := range rec.Links {
			if link.Format == "pdf" && link.Href != "" {
				return link.Href
			}
		}
	}
	return ""
}

func (l *Loader) fetchPDF(ctx context.Context, id string) (string, error) {
	body, err := httputil.Get(ctx, l.client(), oaURL+"?id="+url.QueryEscape(id), l.UserAgent)
	if err != nil {
		return "", err
	}
	var oa oaResponse
	if err := xml.Unmarshal(body, &oa); err != nil {
		return "", fmt.Errorf("parsing OA response: %w", err)
	}
	if oa.Error != "" {
		return "", fmt.Errorf("OA service: %s", oa.Error)
	}
	link := oa.pdfLink()
	if link == "" {
		return "", fmt.Errorf("no PDF link for %s", id)
	}

	path := filepath.Join(l.DataDir, pdfDir, id+".pdf")
	if err := httputil.Download(ctx, l.client(), normalizeURL(link), l.UserAgent, path); err != nil {
		return "", err
	}
	return path, nil
}

// normalizeURL rewrites ftp:// links, which the OA service still emits,
// to https://.
func normalizeURL(u string) string {
	if strings.HasPrefix(u, "ftp://") {
		return "https://" + strings.TrimPrefix(u, "ftp://")
	}
	return u
}

func (l *Loader) mirror(ctx context.Context, key, path string) {
	if l.Sink == nil {
		return
	}
	if err := l.Sink.Put(ctx, key, path); err != nil {
		l.logger().Warn("mirror upload failed", zap.String("key", key), zap.Error(err))
	}
}

func (l *Loader) client() *http.Client {
	if l.Client == nil {
		return http.DefaultClient
	}
	return l.Client
}

func (l *Loader) logger() *zap.Logger {
	if l.Logger == nil {
		return zap.NewNop()
	}
	return l.Logger
}
