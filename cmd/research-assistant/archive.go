// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/research-assistant/internal/archive"
	"github.com/pdiddy/research-assistant/pkg/types"
)

var archiveCmd = &cobra.Command{
	Use:   "archive",
	Short: "List and export saved insights",
	Long: `Archive manages the local SQLite database of analyzed papers and
comparisons. Analyses are saved with "analyze --archive" and by the HTTP
server.`,
}

// --- list subcommand ---

var archiveListCmd = &cobra.Command{
	Use:   "list [text]",
	Short: "List archived papers, highest methodology score first",
	RunE:  runArchiveList,
}

func runArchiveList(cmd *cobra.Command, args []string) error {
	store, err := openArchive(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	papers, err := store.List(context.Background(), listOptsFromFlags(cmd, args))
	if err != nil {
		return err
	}

	jsonOutput, _ := cmd.Flags().GetBool("json")
	return formatArchiveList(os.Stdout, papers, jsonOutput)
}

func formatArchiveList(w io.Writer, papers []types.PaperRecord, jsonOutput bool) error {
	if jsonOutput {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(papers)
	}

	if len(papers) == 0 {
		fmt.Fprintln(w, "No archived papers.")
		return nil
	}

	fmt.Fprintf(w, "%-28s  %-6s  %-5s  %s\n", "Key", "Rigor", "Score", "Title")
	fmt.Fprintln(w, strings.Repeat("-", 100))
	for _, p := range papers {
		rigor, score := "-", "-"
		if p.Insight != nil {
			rigor = string(p.Insight.Rigor())
			score = fmt.Sprintf("%d", p.Insight.MethodologyScore)
		}
		fmt.Fprintf(w, "%-28s  %-6s  %-5s  %s\n", clip(p.Key(), 28), rigor, score, clip(p.Title, 60))
	}
	fmt.Fprintf(w, "\n%d papers\n", len(papers))
	return nil
}

// --- export subcommand ---

var archiveExportCmd = &cobra.Command{
	Use:   "export [text]",
	Short: "Export the archive to YAML or JSON",
	Long: `Export writes archived papers (or a filtered subset) and all comparisons
to export.yaml or export.json in archive.export_dir. Supports the same filter
flags as list.`,
	RunE: runArchiveExport,
}

func runArchiveExport(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("format")

	store, err := openArchive(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	opts := listOptsFromFlags(cmd, args)
	opts.Limit = 0

	var path string
	switch format {
	case "yaml", "":
		path, err = store.ExportYAML(context.Background(), opts)
	case "json":
		path, err = store.ExportJSON(context.Background(), opts)
	default:
		return fmt.Errorf("unsupported format %q: use yaml or json", format)
	}
	if err != nil {
		return err
	}
	fmt.Println("Exported to", path)
	return nil
}

// --- shared helpers ---

func openArchive(cmd *cobra.Command) (*archive.Store, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	if db, _ := cmd.Flags().GetString("db"); db != "" {
		cfg.Archive.Path = db
	}
	return archive.Open(cfg.Archive)
}

func listOptsFromFlags(cmd *cobra.Command, args []string) archive.ListOptions {
	source, _ := cmd.Flags().GetString("source")
	minScore, _ := cmd.Flags().GetInt("min-score")
	limit, _ := cmd.Flags().GetInt("limit")
	return archive.ListOptions{
		Source:   types.Source(source),
		MinScore: minScore,
		Contains: strings.Join(args, " "),
		Limit:    limit,
	}
}

func init() {
	// Shared flags on the parent command, inherited by subcommands.
	archiveCmd.PersistentFlags().String("db", "", "archive database (default from config)")
	archiveCmd.PersistentFlags().String("source", "", "filter by source: arxiv or pubmed")
	archiveCmd.PersistentFlags().Int("min-score", 0, "minimum methodology score")

	archiveListCmd.Flags().Int("limit", 0, "maximum papers (0 = all)")
	archiveListCmd.Flags().Bool("json", false, "output results as JSON")

	archiveExportCmd.Flags().String("format", "yaml", "export format: yaml or json")

	archiveCmd.AddCommand(archiveListCmd)
	archiveCmd.AddCommand(archiveExportCmd)

	rootCmd.AddCommand(archiveCmd)
}
