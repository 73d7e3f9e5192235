// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package docs

import (
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/pdiddy/research-assistant/internal/httputil"
	"github.com/pdiddy/research-assistant/pkg/types"
)

const grobidFulltextPath = "/api/processFulltextDocument"

// GrobidExtractor sends PDFs to a GROBID service and flattens the TEI
// response into text.
type GrobidExtractor struct {
	URL       string
	Client    *http.Client
	UserAgent string
}

// NewGrobidExtractor builds an extractor from configuration.
func NewGrobidExtractor(cfg types.GrobidConfig) *GrobidExtractor {
	return &GrobidExtractor{
		URL:       strings.TrimRight(cfg.URL, "/"),
		Client:    httputil.NewClient(cfg.HTTPConfig),
		UserAgent: cfg.UserAgent,
	}
}

// teiDocument is the subset of GROBID's TEI output used for chat.
type teiDocument struct {
	Title    string       `xml:"teiHeader>fileDesc>titleStmt>title"`
	Abstract []string     `xml:"teiHeader>profileDesc>abstract>div>p"`
	Sections []teiSection `xml:"text>body>div"`
}

type teiSection struct {
	Head string   `xml:"head"`
	P    []string `xml:"p"`
}

// Extract uploads the PDF and returns its title, abstract, and body text.
func (g *GrobidExtractor) Extract(ctx context.Context, path string) (types.Document, error) {
	body, contentType, err := multipartPDF(path)
	if err != nil {
		return types.Document{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.URL+grobidFulltextPath, body)
	if err != nil {
		return types.Document{}, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/xml")
	if g.UserAgent != "" {
		req.Header.Set("User-Agent", g.UserAgent)
	}

	client := g.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return types.Document{}, fmt.Errorf("GROBID request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return types.Document{}, fmt.Errorf("GROBID returned HTTP %d for %s", resp.StatusCode, path)
	}

	var tei teiDocument
	if err := xml.NewDecoder(resp.Body).Decode(&tei); err != nil {
		return types.Document{}, fmt.Errorf("parsing TEI for %s: %w", path, err)
	}
	return tei.document(path), nil
}

func multipartPDF(path string) (io.Reader, string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, "", fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("input", filepath.Base(path))
	if err != nil {
		return nil, "", fmt.Errorf("creating form file: %w", err)
	}
	if _, err := io.Copy(part, f); err != nil {
		return nil, "", fmt.Errorf("copying %s: %w", path, err)
	}
	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("closing multipart writer: %w", err)
	}
	return &buf, w.FormDataContentType(), nil
}

func (t teiDocument) document(path string) types.Document {
	title := strings.TrimSpace(t.Title)
	var parts []string
	if title != "" {
		parts = append(parts, title)
	} else {
		title = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	for _, p := range t.Abstract {
		if s := strings.TrimSpace(p); s != "" {
			parts = append(parts, s)
		}
	}
	for _, sec := range t.Sections {
		if h := strings.TrimSpace(sec.Head); h != "" {
			parts = append(parts, h)
		}
		for _, p := range sec.P {
			if s := strings.TrimSpace(p); s != "" {
				parts = append(parts, s)
			}
		}
	}
	return types.Document{
		Kind:    types.DocumentPDF,
		Path:    path,
		Title:   title,
		Content: strings.Join(parts, "\n\n"),
	}
}
