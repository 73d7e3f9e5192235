// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types holds the data model shared by the research-assistant
// packages: paper records, generated insights, documents, and configuration.
package types

// Source identifies the repository a paper record was fetched from.
type Source string

const (
	SourceArxiv  Source = "arxiv"
	SourcePubMed Source = "pubmed"
)

// PaperRecord is one search result. Records are created by the fetchers and
// are immutable afterwards except for Insight, which is set once the paper
// has been analyzed.
type PaperRecord struct {
	// ID is the provider-local identifier: an arXiv id without version
	// suffix (e.g. "2301.07041") or a PubMed uid.
	ID string `json:"id" yaml:"id"`

	// Title is the paper title with newlines collapsed.
	Title string `json:"title" yaml:"title"`

	// Summary is the abstract for arXiv. PubMed records carry the title
	// here because esummary does not return abstracts.
	Summary string `json:"summary" yaml:"summary"`

	// PDFURL links to the full text when the provider offers one.
	PDFURL string `json:"pdf_url,omitempty" yaml:"pdf_url,omitempty"`

	// Published is a provider-formatted date string ("2023-01-17" for
	// arXiv, "2023 Jan" style for PubMed, "Unknown" when absent).
	Published string `json:"published" yaml:"published"`

	// Source names the originating provider.
	Source Source `json:"source" yaml:"source"`

	// Insight is attached after analysis.
	Insight *PaperInsight `json:"insight,omitempty" yaml:"insight,omitempty"`
}

// Key returns an identifier unique across providers. Raw IDs may collide
// between arXiv and PubMed.
func (p PaperRecord) Key() string {
	return string(p.Source) + ":" + p.ID
}

// AnalysisText is the text handed to the insight generator for this record.
func (p PaperRecord) AnalysisText() string {
	return "Title: " + p.Title + "\nAbstract: " + p.Summary
}
