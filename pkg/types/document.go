// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// PMCArticle is an open-access article downloaded from PubMed Central.
// JSONPath always points at a BioC JSON file; PDFPath is empty when no PDF
// could be retrieved.
type PMCArticle struct {
	ID       string `json:"id" yaml:"id"`
	JSONPath string `json:"json_path" yaml:"json_path"`
	PDFPath  string `json:"pdf_path,omitempty" yaml:"pdf_path,omitempty"`
}

// DocumentKind identifies the format a document was extracted from.
type DocumentKind string

const (
	DocumentPDF  DocumentKind = "pdf"
	DocumentBioC DocumentKind = "bioc"
	DocumentText DocumentKind = "text"
)

// Document is plain text extracted from a local file for document chat.
type Document struct {
	Kind    DocumentKind `json:"kind" yaml:"kind"`
	Path    string       `json:"path" yaml:"path"`
	Title   string       `json:"title" yaml:"title"`
	Content string       `json:"content" yaml:"content"`
}

// ChatRole is the author of a chat message.
type ChatRole string

const (
	RoleUser      ChatRole = "user"
	RoleAssistant ChatRole = "assistant"
)

// ChatMessage is one turn of a session's chat history.
type ChatMessage struct {
	Role    ChatRole `json:"role" yaml:"role"`
	Content string   `json:"content" yaml:"content"`
}
