// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pdiddy/research-assistant/internal/session"
	"github.com/pdiddy/research-assistant/pkg/types"
)

const comparisonFile = "comparison_insight.json"

func printResults(w io.Writer, results []types.PaperRecord, jsonOutput bool) error {
	if jsonOutput {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	}

	if len(results) == 0 {
		fmt.Fprintln(w, "No papers found.")
		return nil
	}

	fmt.Fprintf(w, "%-3s  %-7s  %-20s  %-10s  %s\n", "#", "Source", "ID", "Published", "Title")
	fmt.Fprintln(w, strings.Repeat("-", 100))
	for i, r := range results {
		fmt.Fprintf(w, "%-3d  %-7s  %-20s  %-10s  %s\n",
			i+1, r.Source, clip(r.ID, 20), clip(r.Published, 10), clip(r.Title, 60))
	}
	fmt.Fprintf(w, "\n%d results\n", len(results))
	return nil
}

func printReport(w io.Writer, report session.Report) {
	for _, p := range report.Papers {
		fmt.Fprintf(w, "\n== %s (%s)\n", p.Title, p.Key())
		if p.Insight == nil {
			continue
		}
		in := p.Insight
		fmt.Fprintf(w, "Rigor: %s (%d/10)\n", in.Rigor(), in.MethodologyScore)
		fmt.Fprintf(w, "Background:  %s\n", in.Background)
		fmt.Fprintf(w, "Methods:     %s\n", in.Methods)
		fmt.Fprintf(w, "Results:     %s\n", in.Results)
		fmt.Fprintf(w, "Conclusions: %s\n", in.Conclusions)
		fmt.Fprintln(w, "Key findings:")
		for _, f := range in.KeyFindings {
			fmt.Fprintf(w, "  - %s\n", f)
		}
		fmt.Fprintf(w, "Critique: %s\n", in.MethodologyCritique)
	}

	if c := report.Comparison; c != nil {
		fmt.Fprintf(w, "\n== Comparison: %s\n", c.Title)
		fmt.Fprintf(w, "Hypothesis:  %s\n", c.Hypothesis)
		fmt.Fprintf(w, "Methodology: %s\n", c.Methodology)
		fmt.Fprintf(w, "\n%s\n\n", c.TabularData)
		fmt.Fprintf(w, "Conclusion:  %s\n", c.Conclusion)
		fmt.Fprintln(w, "Key findings:")
		for _, f := range c.KeyFindings {
			fmt.Fprintf(w, "  - %s\n", f)
		}
	}
}

// writeInsightFiles writes insight_<id>.json for every analyzed paper and
// comparison_insight.json when a comparison exists. It returns the paths
// written.
func writeInsightFiles(dir string, report session.Report) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	var paths []string
	write := func(name string, v any) error {
		data, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return fmt.Errorf("marshaling %s: %w", name, err)
		}
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", path, err)
		}
		paths = append(paths, path)
		return nil
	}

	for _, p := range report.Papers {
		if p.Insight == nil {
			continue
		}
		if err := write(insightFileName(p.ID), p.Insight); err != nil {
			return paths, err
		}
	}
	if report.Comparison != nil {
		if err := write(comparisonFile, report.Comparison); err != nil {
			return paths, err
		}
	}
	return paths, nil
}

// insightFileName keeps ids with slashes (old-style arXiv ids) on one path
// segment.
func insightFileName(id string) string {
	return "insight_" + strings.ReplaceAll(id, "/", "_") + ".json"
}

func clip(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

// parseSelection turns "1,3" or "1 3" into positions.
func parseSelection(s string) ([]int, error) {
	fields := strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == ' ' })
	out := make([]int, 0, len(fields))
	for _, f := range fields {
		n, err := strconv.Atoi(f)
		if err != nil {
			return nil, fmt.Errorf("invalid selection %q", f)
		}
		out = append(out, n)
	}
	return out, nil
}
