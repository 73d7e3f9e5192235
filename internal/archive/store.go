// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package archive persists analyzed papers, their insights, and comparison
// results in a SQLite database so they outlive a session.
package archive

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/research-assistant/internal/insight"
	"github.com/pdiddy/research-assistant/pkg/types"
)

// DefaultPath is the database file used when ArchiveConfig.Path is empty.
const DefaultPath = "research-assistant.db"

// Store manages the archive database.
type Store struct {
	db        *sql.DB
	exportDir string
	now       func() time.Time
}

// Open opens or creates the archive database at cfg.Path and ensures the
// schema exists.
func Open(cfg types.ArchiveConfig) (*Store, error) {
	path := cfg.Path
	if path == "" {
		path = DefaultPath
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating archive directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	exportDir := cfg.ExportDir
	if exportDir == "" {
		exportDir = filepath.Dir(path)
	}

	s := &Store{db: db, exportDir: exportDir, now: time.Now}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS papers (
			key TEXT PRIMARY KEY,
			id TEXT NOT NULL,
			source TEXT NOT NULL,
			title TEXT,
			summary TEXT,
			pdf_url TEXT,
			published TEXT,
			query TEXT,
			saved_at TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS insights (
			paper_key TEXT PRIMARY KEY REFERENCES papers(key) ON DELETE CASCADE,
			background TEXT,
			methods TEXT,
			results TEXT,
			conclusions TEXT,
			key_findings TEXT,
			methodology_score INTEGER,
			methodology_critique TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_papers_source ON papers(source)`,
		`CREATE INDEX IF NOT EXISTS idx_insights_score ON insights(methodology_score)`,
		`CREATE TABLE IF NOT EXISTS comparisons (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			query TEXT,
			paper_keys TEXT NOT NULL,
			title TEXT,
			hypothesis TEXT,
			methodology TEXT,
			tabular_data TEXT,
			conclusion TEXT,
			key_findings TEXT,
			saved_at TEXT
		)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// Analysis is one analyze step: the query it answered, the papers with
// their insights, and the comparison when more than one paper was selected.
type Analysis struct {
	Query      string
	Papers     []types.PaperRecord
	Comparison *types.ComparisonInsight
}

// Save writes an analysis in a single transaction. Papers already in the
// archive are replaced, so the newest insight wins. Papers whose insight
// generation failed are stored without an insight row, and a failed
// comparison is not stored at all.
func (s *Store) Save(ctx context.Context, a Analysis) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	savedAt := s.now().UTC().Format(time.RFC3339)

	for _, p := range a.Papers {
		if err := savePaper(ctx, tx, a.Query, p, savedAt); err != nil {
			return err
		}
	}

	if a.Comparison != nil && !insight.ComparisonFailed(*a.Comparison) {
		keys := make([]string, len(a.Papers))
		for i, p := range a.Papers {
			keys[i] = p.Key()
		}
		keysJSON, _ := json.Marshal(keys)
		findingsJSON, _ := json.Marshal(a.Comparison.KeyFindings)
		_, err := tx.ExecContext(ctx,
			`INSERT INTO comparisons (query, paper_keys, title, hypothesis, methodology, tabular_data, conclusion, key_findings, saved_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			a.Query, string(keysJSON), a.Comparison.Title, a.Comparison.Hypothesis,
			a.Comparison.Methodology, a.Comparison.TabularData, a.Comparison.Conclusion,
			string(findingsJSON), savedAt,
		)
		if err != nil {
			return fmt.Errorf("inserting comparison: %w", err)
		}
	}

	return tx.Commit()
}

func savePaper(ctx context.Context, tx *sql.Tx, query string, p types.PaperRecord, savedAt string) error {
	key := p.Key()
	_, err := tx.ExecContext(ctx,
		`INSERT INTO papers (key, id, source, title, summary, pdf_url, published, query, saved_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET
			title=excluded.title, summary=excluded.summary, pdf_url=excluded.pdf_url,
			published=excluded.published, query=excluded.query, saved_at=excluded.saved_at`,
		key, p.ID, string(p.Source), p.Title, p.Summary, p.PDFURL, p.Published, query, savedAt,
	)
	if err != nil {
		return fmt.Errorf("upserting paper %s: %w", key, err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM insights WHERE paper_key = ?`, key); err != nil {
		return fmt.Errorf("deleting old insight %s: %w", key, err)
	}
	if p.Insight == nil || p.Insight.Failed() {
		return nil
	}

	in := p.Insight
	findingsJSON, _ := json.Marshal(in.KeyFindings)
	_, err = tx.ExecContext(ctx,
		`INSERT INTO insights (paper_key, background, methods, results, conclusions, key_findings, methodology_score, methodology_critique)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		key, in.Background, in.Methods, in.Results, in.Conclusions,
		string(findingsJSON), in.MethodologyScore, in.MethodologyCritique,
	)
	if err != nil {
		return fmt.Errorf("inserting insight %s: %w", key, err)
	}
	return nil
}

// ListOptions filters archived papers.
type ListOptions struct {
	// Source restricts results to one provider.
	Source types.Source

	// MinScore keeps papers whose methodology score is at least this value.
	// Papers without an insight are excluded when MinScore > 0.
	MinScore int

	// Contains matches a case-insensitive substring of the title or summary.
	Contains string

	// Limit caps the number of rows (0 means no limit).
	Limit int
}

// List returns archived papers, highest methodology score first.
func (s *Store) List(ctx context.Context, opts ListOptions) ([]types.PaperRecord, error) {
	var (
		where []string
		args  []any
	)
	if opts.Source != "" {
		where = append(where, "p.source = ?")
		args = append(args, string(opts.Source))
	}
	if opts.MinScore > 0 {
		where = append(where, "i.methodology_score >= ?")
		args = append(args, opts.MinScore)
	}
	if opts.Contains != "" {
		where = append(where, "(LOWER(p.title) LIKE ? OR LOWER(p.summary) LIKE ?)")
		pattern := "%" + strings.ToLower(opts.Contains) + "%"
		args = append(args, pattern, pattern)
	}

	q := `SELECT p.id, p.source, p.title, p.summary, p.pdf_url, p.published,
			i.background, i.methods, i.results, i.conclusions, i.key_findings,
			i.methodology_score, i.methodology_critique
		FROM papers p LEFT JOIN insights i ON i.paper_key = p.key`
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY COALESCE(i.methodology_score, 0) DESC, p.key"
	if opts.Limit > 0 {
		q += " LIMIT ?"
		args = append(args, opts.Limit)
	}

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("querying papers: %w", err)
	}
	defer rows.Close()

	var papers []types.PaperRecord
	for rows.Next() {
		var (
			p        types.PaperRecord
			source   string
			score    sql.NullInt64
			pdfURL   sql.NullString
			findings sql.NullString
		)
		var published, background, methods, results, concl, critique sql.NullString
		if err := rows.Scan(&p.ID, &source, &p.Title, &p.Summary, &pdfURL, &published,
			&background, &methods, &results, &concl, &findings, &score, &critique); err != nil {
			return nil, fmt.Errorf("scanning paper: %w", err)
		}
		p.Source = types.Source(source)
		p.PDFURL = pdfURL.String
		p.Published = published.String
		if score.Valid {
			in := &types.PaperInsight{
				Background:          background.String,
				Methods:             methods.String,
				Results:             results.String,
				Conclusions:         concl.String,
				MethodologyScore:    int(score.Int64),
				MethodologyCritique: critique.String,
			}
			if findings.Valid {
				_ = json.Unmarshal([]byte(findings.String), &in.KeyFindings)
			}
			p.Insight = in
		}
		papers = append(papers, p)
	}
	return papers, rows.Err()
}

// Comparison is an archived comparison with the papers it covered.
type Comparison struct {
	ID        int64                   `json:"id" yaml:"id"`
	Query     string                  `json:"query" yaml:"query"`
	PaperKeys []string                `json:"paper_keys" yaml:"paper_keys"`
	SavedAt   string                  `json:"saved_at" yaml:"saved_at"`
	Insight   types.ComparisonInsight `json:"insight" yaml:"insight"`
}

// Comparisons returns archived comparisons, newest first.
func (s *Store) Comparisons(ctx context.Context) ([]Comparison, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, query, paper_keys, title, hypothesis, methodology, tabular_data, conclusion, key_findings, saved_at
		 FROM comparisons ORDER BY id DESC`)
	if err != nil {
		return nil, fmt.Errorf("querying comparisons: %w", err)
	}
	defer rows.Close()

	var out []Comparison
	for rows.Next() {
		var (
			c                  Comparison
			keysJSON, findings string
		)
		if err := rows.Scan(&c.ID, &c.Query, &keysJSON, &c.Insight.Title, &c.Insight.Hypothesis,
			&c.Insight.Methodology, &c.Insight.TabularData, &c.Insight.Conclusion,
			&findings, &c.SavedAt); err != nil {
			return nil, fmt.Errorf("scanning comparison: %w", err)
		}
		_ = json.Unmarshal([]byte(keysJSON), &c.PaperKeys)
		_ = json.Unmarshal([]byte(findings), &c.Insight.KeyFindings)
		out = append(out, c)
	}
	return out, rows.Err()
}
