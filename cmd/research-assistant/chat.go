// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/research-assistant/internal/chat"
	"github.com/pdiddy/research-assistant/internal/session"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Interactive search, analysis, and question answering",
	Long: `Chat runs the full workflow interactively: enter a research question,
pick up to three papers from the results, read their insights, then ask
questions answered from those insights. Answers stream as they are generated.

Commands at the question prompt:
  /search <question>   start over with a new search
  /select <positions>  analyze a different selection from the last results
  /quit                exit`,
	RunE: runChat,
}

func init() {
	chatCmd.Flags().Int("limit", 0, "results per source (default from config, 3)")
	chatCmd.Flags().String("sort", "", "arXiv sort order: relevance or submittedDate")
	chatCmd.Flags().Bool("no-refine", false, "skip keyword refinement")

	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, args []string) error {
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
	return chatLoop(ctx, p, os.Stdin, os.Stdout)
}

// chatLoop drives a session from line-oriented input until EOF or /quit.
func chatLoop(ctx context.Context, p *session.Pipeline, in io.Reader, out io.Writer) error {
	s := session.New()
	scanner := bufio.NewScanner(in)
	prompt := func(label string) (string, bool) {
		fmt.Fprint(out, label)
		if !scanner.Scan() {
			return "", false
		}
		return strings.TrimSpace(scanner.Text()), true
	}

	for {
		if len(s.Found) == 0 {
			line, ok := prompt("Research question: ")
			if !ok || line == "/quit" {
				return scanner.Err()
			}
			if !chatSearch(ctx, p, s, line, out) {
				continue
			}
		}

		if s.ChatContext == "" {
			line, ok := prompt("Select papers (e.g. 1,3): ")
			if !ok || line == "/quit" {
				return scanner.Err()
			}
			chatAnalyze(ctx, p, s, line, out)
			continue
		}

		line, ok := prompt("\nQuestion: ")
		if !ok || line == "/quit" {
			return scanner.Err()
		}
		switch {
		case line == "":
		case strings.HasPrefix(line, "/search "):
			chatSearch(ctx, p, s, strings.TrimPrefix(line, "/search "), out)
		case strings.HasPrefix(line, "/select "):
			chatAnalyze(ctx, p, s, strings.TrimPrefix(line, "/select "), out)
		default:
			var askErr error
			printStreamed(out, func(onToken func(string)) string {
				answer, err := p.Ask(ctx, s, line, onToken)
				askErr = err
				return answer
			})
			if askErr != nil {
				fmt.Fprintf(out, "error: %v\n", askErr)
			}
		}
	}
}

func chatSearch(ctx context.Context, p *session.Pipeline, s *session.Session, text string, out io.Writer) bool {
	if err := p.Search(ctx, s, text); err != nil {
		fmt.Fprintf(out, "error: %v\n", err)
		return false
	}
	if s.RefinedQuery != s.Query {
		fmt.Fprintf(out, "Searching for: %s\n", s.RefinedQuery)
	}
	_ = printResults(out, s.Found, false)
	return len(s.Found) > 0
}

func chatAnalyze(ctx context.Context, p *session.Pipeline, s *session.Session, selection string, out io.Writer) {
	positions, err := parseSelection(selection)
	if err == nil {
		err = s.SelectIndexes(positions)
	}
	if err == nil {
		err = p.Analyze(ctx, s)
	}
	if err != nil {
		fmt.Fprintf(out, "error: %v\n", err)
		return
	}
	printReport(out, s.Report())
}

// printStreamed writes tokens as they arrive. Answers that were never
// streamed, such as error messages, are printed whole. An error after a
// partial stream goes on its own line.
func printStreamed(out io.Writer, run func(onToken func(string)) string) {
	streamed := false
	answer := run(func(tok string) {
		streamed = true
		fmt.Fprint(out, tok)
	})
	switch {
	case !streamed:
		fmt.Fprint(out, answer)
	case chat.IsError(answer):
		fmt.Fprintln(out)
		fmt.Fprint(out, answer)
	}
	fmt.Fprintln(out)
}
