// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package archive

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.yaml.in/yaml/v3"
)

// Export is the document written by ExportYAML and ExportJSON.
type Export struct {
	ExportedAt  string        `json:"exported_at" yaml:"exported_at"`
	Papers      []ExportPaper `json:"papers" yaml:"papers"`
	Comparisons []Comparison  `json:"comparisons" yaml:"comparisons"`
}

// ExportPaper flattens a paper and its insight for export.
type ExportPaper struct {
	Key       string   `json:"key" yaml:"key"`
	Title     string   `json:"title" yaml:"title"`
	Published string   `json:"published" yaml:"published"`
	PDFURL    string   `json:"pdf_url,omitempty" yaml:"pdf_url,omitempty"`
	Rigor     string   `json:"rigor,omitempty" yaml:"rigor,omitempty"`
	Score     int      `json:"methodology_score,omitempty" yaml:"methodology_score,omitempty"`
	Findings  []string `json:"key_findings,omitempty" yaml:"key_findings,omitempty"`
	Critique  string   `json:"methodology_critique,omitempty" yaml:"methodology_critique,omitempty"`
	Summary   string   `json:"summary" yaml:"summary"`
}

// ExportYAML writes the archive to exportDir/export.yaml and returns the path.
// It supports the same filters as List.
func (s *Store) ExportYAML(ctx context.Context, opts ListOptions) (string, error) {
	doc, err := s.export(ctx, opts)
	if err != nil {
		return "", err
	}

	data, err := yaml.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("marshaling YAML: %w", err)
	}
	return s.writeExport("export.yaml", data)
}

// ExportJSON writes the archive to exportDir/export.json and returns the path.
// It supports the same filters as List.
func (s *Store) ExportJSON(ctx context.Context, opts ListOptions) (string, error) {
	doc, err := s.export(ctx, opts)
	if err != nil {
		return "", err
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshaling JSON: %w", err)
	}
	return s.writeExport("export.json", data)
}

func (s *Store) writeExport(name string, data []byte) (string, error) {
	if err := os.MkdirAll(s.exportDir, 0o755); err != nil {
		return "", fmt.Errorf("creating export directory: %w", err)
	}
	path := filepath.Join(s.exportDir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("writing %s: %w", path, err)
	}
	return path, nil
}

func (s *Store) export(ctx context.Context, opts ListOptions) (*Export, error) {
	papers, err := s.List(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("querying for export: %w", err)
	}
	comparisons, err := s.Comparisons(ctx)
	if err != nil {
		return nil, fmt.Errorf("querying for export: %w", err)
	}

	doc := &Export{
		ExportedAt:  s.now().UTC().Format(time.RFC3339),
		Papers:      make([]ExportPaper, len(papers)),
		Comparisons: comparisons,
	}
	for i, p := range papers {
		e := ExportPaper{
			Key:       p.Key(),
			Title:     p.Title,
			Published: p.Published,
			PDFURL:    p.PDFURL,
			Summary:   p.Summary,
		}
		if p.Insight != nil {
			e.Rigor = string(p.Insight.Rigor())
			e.Score = p.Insight.MethodologyScore
			e.Findings = p.Insight.KeyFindings
			e.Critique = p.Insight.MethodologyCritique
		}
		doc.Papers[i] = e
	}
	return doc, nil
}
