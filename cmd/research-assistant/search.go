// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/research-assistant/internal/httputil"
	"github.com/pdiddy/research-assistant/internal/llm"
	"github.com/pdiddy/research-assistant/internal/query"
	"github.com/pdiddy/research-assistant/internal/search"
	"github.com/pdiddy/research-assistant/pkg/types"
)

var searchCmd = &cobra.Command{
	Use:   "search [question...]",
	Short: "Search arXiv and PubMed for papers",
	Long: `Search rewrites a research question into search keywords with the fast
model, queries arXiv and PubMed, and prints the merged results with arXiv
first. Use --no-refine to send the question as typed and --author to
restrict the arXiv query to an author. With --id, arXiv papers are looked
up directly by identifier.`,
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().String("author", "", "restrict arXiv results to an author")
	searchCmd.Flags().String("sort", "", "arXiv sort order: relevance or submittedDate")
	searchCmd.Flags().Int("limit", 0, "results per source (default from config, 3)")
	searchCmd.Flags().Bool("no-refine", false, "skip keyword refinement")
	searchCmd.Flags().StringSlice("id", nil, "look up arXiv papers by identifier instead of searching")
	searchCmd.Flags().Bool("json", false, "output results as JSON")

	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	text := strings.TrimSpace(strings.Join(args, " "))
	ids, _ := cmd.Flags().GetStringSlice("id")
	if text == "" && len(ids) == 0 {
		return fmt.Errorf("provide a research question or --id")
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	applySearchFlags(cmd, &cfg)
	author, _ := cmd.Flags().GetString("author")
	jsonOutput, _ := cmd.Flags().GetBool("json")

	ctx := context.Background()
	if len(ids) > 0 {
		arxiv := newArxivFetcher(cfg, httputil.NewClient(cfg.Search.HTTPConfig))
		return printResults(os.Stdout, arxiv.FetchByID(ctx, ids), jsonOutput)
	}

	refined := text
	if cfg.Search.Refine {
		client, err := llm.New(ctx, cfg.LLM, logger)
		if err != nil {
			return err
		}
		refiner := &query.Refiner{LLM: client, Model: cfg.LLM.FastModel, Logger: logger}
		refined = refiner.Refine(ctx, text)
		fmt.Fprintf(os.Stderr, "Searching for: %s\n", refined)
	}

	results := searchRecords(ctx, cfg, refined, author)
	return printResults(os.Stdout, results, jsonOutput)
}

// searchRecords fetches from both providers. The author filter only
// applies to arXiv, whose query language supports it.
func searchRecords(ctx context.Context, cfg types.Config, refined, author string) []types.PaperRecord {
	fetchers := newFetchers(cfg)
	if author == "" {
		return search.FetchAll(ctx, fetchers, refined, cfg.Search.Limit, cfg.Search.Parallel)
	}
	arxiv := fetchers[0].Fetch(ctx, query.BuildArxivQuery(refined, author), cfg.Search.Limit)
	pubmed := fetchers[1].Fetch(ctx, refined, cfg.Search.Limit)
	return search.Merge(arxiv, pubmed)
}

// applySearchFlags lets command flags override the search config.
func applySearchFlags(cmd *cobra.Command, cfg *types.Config) {
	if sort, _ := cmd.Flags().GetString("sort"); sort != "" {
		cfg.Search.ArxivSort = sort
	}
	if limit, _ := cmd.Flags().GetInt("limit"); limit > 0 {
		cfg.Search.Limit = limit
	}
	if noRefine, _ := cmd.Flags().GetBool("no-refine"); noRefine {
		cfg.Search.Refine = false
	}
}
