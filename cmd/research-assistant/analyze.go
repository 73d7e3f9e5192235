// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/research-assistant/internal/archive"
	"github.com/pdiddy/research-assistant/internal/session"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze [question...]",
	Short: "Search, then generate insights for the selected papers",
	Long: `Analyze runs a search, selects one to three results by position, and
generates a structured insight for each. When more than one paper is selected
it also generates a comparison. Insights can be written as
insight_<id>.json files and saved to the archive.`,
	RunE: runAnalyze,
}

func init() {
	analyzeCmd.Flags().String("select", "1", "result positions to analyze, e.g. 1,3 (at most 3)")
	analyzeCmd.Flags().String("sort", "", "arXiv sort order: relevance or submittedDate")
	analyzeCmd.Flags().Int("limit", 0, "results per source (default from config, 3)")
	analyzeCmd.Flags().Bool("no-refine", false, "skip keyword refinement")
	analyzeCmd.Flags().String("output-dir", "", "write insight_<id>.json and comparison_insight.json here")
	analyzeCmd.Flags().String("format", "text", "output format: text, json, or yaml")
	analyzeCmd.Flags().Bool("archive", false, "save the insights to the archive database")

	rootCmd.AddCommand(analyzeCmd)
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	text := strings.TrimSpace(strings.Join(args, " "))
	if text == "" {
		return fmt.Errorf("provide a research question")
	}
	selection, _ := cmd.Flags().GetString("select")
	positions, err := parseSelection(selection)
	if err != nil {
		return err
	}
	format, _ := cmd.Flags().GetString("format")
	if format != "text" && format != "json" && format != "yaml" {
		return fmt.Errorf("unsupported format %q: use text, json, or yaml", format)
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	applySearchFlags(cmd, &cfg)

	ctx := context.Background()
	p, err := newPipeline(ctx, cfg, nil)
	if err != nil {
		return err
	}

	s := session.New()
	if err := p.Search(ctx, s, text); err != nil {
		return err
	}
	if len(s.Found) == 0 {
		fmt.Fprintln(os.Stdout, "No papers found.")
		return nil
	}
	if err := s.SelectIndexes(positions); err != nil {
		return err
	}
	if err := p.Analyze(ctx, s); err != nil {
		return err
	}
	report := s.Report()

	switch format {
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(report); err != nil {
			return err
		}
	case "yaml":
		data, err := yaml.Marshal(report)
		if err != nil {
			return fmt.Errorf("marshaling YAML: %w", err)
		}
		os.Stdout.Write(data)
	default:
		printReport(os.Stdout, report)
	}

	if dir, _ := cmd.Flags().GetString("output-dir"); dir != "" {
		paths, err := writeInsightFiles(dir, report)
		if err != nil {
			return err
		}
		for _, path := range paths {
			fmt.Fprintf(os.Stderr, "wrote %s\n", path)
		}
	}

	if save, _ := cmd.Flags().GetBool("archive"); save {
		store, err := archive.Open(cfg.Archive)
		if err != nil {
			return err
		}
		defer store.Close()
		err = store.Save(ctx, archive.Analysis{Query: report.Query, Papers: report.Papers, Comparison: report.Comparison})
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "saved %d paper(s) to %s\n", len(report.Papers), cfg.Archive.Path)
	}
	return nil
}
