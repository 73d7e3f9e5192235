// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/research-assistant/internal/pmc"
)

var pmcCmd = &cobra.Command{
	Use:   "pmc [query...]",
	Short: "Download open-access articles from PubMed Central",
	Long: `PMC searches the PubMed Central open-access subset and downloads each
article's BioC JSON to <data-dir>/json/ and, when available, its PDF to
<data-dir>/pdfs/. Articles without BioC JSON are skipped. When pmc.s3.bucket
is configured, downloads are mirrored to S3.`,
	RunE: runPMC,
}

func init() {
	pmcCmd.Flags().Int("limit", 0, "number of articles (default from config, 1)")
	pmcCmd.Flags().String("data-dir", "", "download directory (default from config, data)")

	rootCmd.AddCommand(pmcCmd)
}

func runPMC(cmd *cobra.Command, args []string) error {
	q := strings.TrimSpace(strings.Join(args, " "))
	if q == "" {
		return fmt.Errorf("provide a search query")
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if dir, _ := cmd.Flags().GetString("data-dir"); dir != "" {
		cfg.PMC.DataDir = dir
	}
	limit, _ := cmd.Flags().GetInt("limit")
	if limit <= 0 {
		limit = cfg.PMC.Limit
	}

	ctx := context.Background()
	var sink pmc.Sink
	if cfg.PMC.S3.Bucket != "" {
		s3sink, err := pmc.NewS3Sink(ctx, cfg.PMC.S3)
		if err != nil {
			return err
		}
		sink = s3sink
	}

	loader := pmc.NewLoader(cfg.PMC, sink, logger)
	articles, err := loader.Fetch(ctx, q, limit)
	if err != nil {
		return err
	}
	if len(articles) == 0 {
		fmt.Fprintln(os.Stdout, "No open-access articles downloaded.")
		return nil
	}
	for _, a := range articles {
		fmt.Fprintf(os.Stdout, "%-12s  %s", a.ID, a.JSONPath)
		if a.PDFPath != "" {
			fmt.Fprintf(os.Stdout, "  %s", a.PDFPath)
		}
		fmt.Fprintln(os.Stdout)
	}
	fmt.Fprintf(os.Stdout, "\n%d article(s) downloaded\n", len(articles))
	return nil
}
