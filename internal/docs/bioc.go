// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package docs

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pdiddy/research-assistant/pkg/types"
)

// BioCExtractor reads BioC JSON as served by the PMC open-access BioC API.
// Reference passages are left out.
type BioCExtractor struct{}

type biocCollection struct {
	Documents []biocDocument `json:"documents"`
}

type biocDocument struct {
	ID       string        `json:"id"`
	Passages []biocPassage `json:"passages"`
}

type biocPassage struct {
	Infons map[string]any `json:"infons"`
	Text   string         `json:"text"`
}

func (p biocPassage) infon(key string) string {
	v, _ := p.Infons[key].(string)
	return v
}

// Extract parses the file. The BioC API returns either one collection or
// a list of them.
func (BioCExtractor) Extract(_ context.Context, path string) (types.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return types.Document{}, fmt.Errorf("reading %s: %w", path, err)
	}

	var collections []biocCollection
	trimmed := bytes.TrimSpace(data)
	if bytes.HasPrefix(trimmed, []byte("[")) {
		err = json.Unmarshal(trimmed, &collections)
	} else {
		var c biocCollection
		err = json.Unmarshal(trimmed, &c)
		collections = []biocCollection{c}
	}
	if err != nil {
		return types.Document{}, fmt.Errorf("parsing BioC %s: %w", path, err)
	}

	doc := types.Document{
		Kind:  types.DocumentBioC,
		Path:  path,
		Title: strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)),
	}
	var (
		parts    []string
		titleSet bool
	)
	for _, c := range collections {
		for _, d := range c.Documents {
			for _, p := range d.Passages {
				text := strings.TrimSpace(p.Text)
				if text == "" || p.infon("section_type") == "REF" {
					continue
				}
				if !titleSet && p.infon("section_type") == "TITLE" {
					doc.Title = text
					titleSet = true
				}
				parts = append(parts, text)
			}
		}
	}
	doc.Content = strings.Join(parts, "\n\n")
	return doc, nil
}
