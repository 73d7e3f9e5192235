// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/research-assistant/internal/chat"
	"github.com/pdiddy/research-assistant/internal/docs"
	"github.com/pdiddy/research-assistant/internal/llm"
)

var docchatCmd = &cobra.Command{
	Use:   "docchat [files or directories...]",
	Short: "Ask questions about local PDFs and PMC downloads",
	Long: `Docchat extracts text from PDFs (through a GROBID service), PMC BioC JSON
files, and plain-text files, then answers questions over the combined text.
Directories are expanded one level. With --question the answer is printed
once; otherwise questions are read interactively until EOF.`,
	RunE: runDocchat,
}

func init() {
	docchatCmd.Flags().String("question", "", "answer a single question and exit")
	docchatCmd.Flags().String("grobid-url", "", "GROBID base URL (default from config)")
	docchatCmd.Flags().Bool("no-pdf", false, "skip PDFs instead of sending them to GROBID")

	rootCmd.AddCommand(docchatCmd)
}

func runDocchat(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	paths := args
	if len(paths) == 0 {
		paths = []string{filepath.Join(cfg.PMC.DataDir, "json")}
	}
	if u, _ := cmd.Flags().GetString("grobid-url"); u != "" {
		cfg.Grobid.URL = u
	}

	ctx := context.Background()
	client, err := llm.New(ctx, cfg.LLM, logger)
	if err != nil {
		return err
	}
	answerer := &chat.Answerer{
		LLM:             client,
		Model:           chatModel(cfg.LLM),
		MaxContextChars: cfg.Chat.MaxContextChars,
		Logger:          logger,
	}

	var pdf docs.Extractor
	if noPDF, _ := cmd.Flags().GetBool("no-pdf"); !noPDF && cfg.Grobid.URL != "" {
		pdf = docs.NewGrobidExtractor(cfg.Grobid)
	}
	documents := docs.NewLoader(pdf, logger).LoadAll(ctx, paths)
	fmt.Fprintf(os.Stderr, "Loaded %d document(s)\n", len(documents))

	if q, _ := cmd.Flags().GetString("question"); q != "" {
		fmt.Fprintln(os.Stdout, answerer.AnswerDocuments(ctx, documents, q, nil))
		return nil
	}
	return docchatLoop(func(q string, onToken func(string)) string {
		return answerer.AnswerDocuments(ctx, documents, q, onToken)
	}, os.Stdin, os.Stdout)
}

func docchatLoop(ask func(string, func(string)) string, in io.Reader, out io.Writer) error {
	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "Question: ")
		if !scanner.Scan() {
			return scanner.Err()
		}
		q := strings.TrimSpace(scanner.Text())
		switch q {
		case "":
			continue
		case "/quit":
			return nil
		}
		printStreamed(out, func(onToken func(string)) string { return ask(q, onToken) })
	}
}
