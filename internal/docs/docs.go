// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package docs extracts plain text from local documents for document chat:
// PDFs through a GROBID service, PMC BioC JSON files, and plain text.
package docs

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/pdiddy/research-assistant/pkg/types"
)

// Extractor turns one file into a Document. Backends (GROBID, BioC,
// plain text) implement this interface.
type Extractor interface {
	Extract(ctx context.Context, path string) (types.Document, error)
}

// Loader picks an extractor by file extension.
type Loader struct {
	// PDF handles .pdf files; nil means PDFs are rejected.
	PDF    Extractor
	BioC   Extractor
	Text   Extractor
	Logger *zap.Logger
}

// NewLoader returns a Loader with the BioC and text extractors and, when
// pdf is non-nil, PDF support.
func NewLoader(pdf Extractor, logger *zap.Logger) *Loader {
	return &Loader{PDF: pdf, BioC: BioCExtractor{}, Text: TextExtractor{}, Logger: logger}
}

// Extract dispatches path to the matching extractor.
func (l *Loader) Extract(ctx context.Context, path string) (types.Document, error) {
	var ex Extractor
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		ex = l.PDF
	case ".json":
		ex = l.BioC
	case ".txt", ".md":
		ex = l.Text
	}
	if ex == nil {
		return types.Document{}, fmt.Errorf("no extractor for %s", path)
	}
	return ex.Extract(ctx, path)
}

// LoadAll extracts every path, skipping failures. Directories are expanded
// one level deep.
func (l *Loader) LoadAll(ctx context.Context, paths []string) []types.Document {
	log := l.Logger
	if log == nil {
		log = zap.NewNop()
	}

	var docs []types.Document
	for _, p := range expand(paths) {
		doc, err := l.Extract(ctx, p)
		if err != nil {
			log.Warn("document skipped", zap.String("path", p), zap.Error(err))
			continue
		}
		if strings.TrimSpace(doc.Content) == "" {
			log.Warn("document has no text", zap.String("path", p))
			continue
		}
		docs = append(docs, doc)
	}
	return docs
}

func expand(paths []string) []string {
	var out []string
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil || !info.IsDir() {
			out = append(out, p)
			continue
		}
		entries, err := os.ReadDir(p)
		if err != nil {
			out = append(out, p)
			continue
		}
		for _, e := range entries {
			if !e.IsDir() && !strings.HasPrefix(e.Name(), ".") {
				out = append(out, filepath.Join(p, e.Name()))
			}
		}
	}
	return out
}

// TextExtractor reads plain text and Markdown files verbatim.
type TextExtractor struct{}

// Extract reads the file.
func (TextExtractor) Extract(_ context.Context, path string) (types.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return types.Document{}, fmt.Errorf("reading %s: %w", path, err)
	}
	return types.Document{
		Kind:    types.DocumentText,
		Path:    path,
		Title:   strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)),
		Content: string(data),
	}, nil
}
