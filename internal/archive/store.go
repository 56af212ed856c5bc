// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package archive persists completed research runs and their findings in a
// SQLite database with a full-text index, so past research stays searchable
// after the report files are written.
package archive

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/deep-research/pkg/types"
)

const (
	indexDir = "index"
	dbFile   = "research.db"
)

// Store manages the research archive SQLite database.
type Store struct {
	db         *sql.DB
	archiveDir string
	maxResults int
}

// NewStore opens or creates the archive database at
// archiveDir/index/research.db, creating the schema if it does not exist.
func NewStore(cfg types.ArchiveConfig) (*Store, error) {
	dbDir := filepath.Join(cfg.ArchiveDir, indexDir)
	if err := os.MkdirAll(dbDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating index directory: %w", err)
	}

	dbPath := filepath.Join(dbDir, dbFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = 20
	}

	s := &Store{
		db:         db,
		archiveDir: cfg.ArchiveDir,
		maxResults: maxResults,
	}

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
		`CREATE TABLE IF NOT EXISTS runs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			query TEXT NOT NULL,
			subcomponents TEXT,
			report_path TEXT,
			created_at TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS findings (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id INTEGER NOT NULL REFERENCES runs(id),
			subcomponent TEXT NOT NULL,
			url TEXT NOT NULL,
			summary TEXT,
			relevant_info TEXT,
			relevance REAL,
			search_query TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_findings_run_id ON findings(run_id)`,
		`CREATE INDEX IF NOT EXISTS idx_findings_url ON findings(url)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}

	// FTS5 virtual table with triggers for sync.
	var ftsExists int
	if err := s.db.QueryRow(
		`SELECT count(*) FROM sqlite_master WHERE type='table' AND name='findings_fts'`,
	).Scan(&ftsExists); err != nil {
		return fmt.Errorf("checking FTS table: %w", err)
	}

	if ftsExists == 0 {
		ftsStatements := []string{
			`CREATE VIRTUAL TABLE findings_fts USING fts5(summary, relevant_info, content=findings, content_rowid=rowid)`,
			`CREATE TRIGGER findings_ai AFTER INSERT ON findings BEGIN
				INSERT INTO findings_fts(rowid, summary, relevant_info) VALUES (new.rowid, new.summary, new.relevant_info);
			END`,
			`CREATE TRIGGER findings_ad AFTER DELETE ON findings BEGIN
				INSERT INTO findings_fts(findings_fts, rowid, summary, relevant_info) VALUES('delete', old.rowid, old.summary, old.relevant_info);
			END`,
			`CREATE TRIGGER findings_au AFTER UPDATE ON findings BEGIN
				INSERT INTO findings_fts(findings_fts, rowid, summary, relevant_info) VALUES('delete', old.rowid, old.summary, old.relevant_info);
				INSERT INTO findings_fts(rowid, summary, relevant_info) VALUES (new.rowid, new.summary, new.relevant_info);
			END`,
		}
		for _, stmt := range ftsStatements {
			if _, err := s.db.Exec(stmt); err != nil {
				return fmt.Errorf("creating FTS infrastructure: %w", err)
			}
		}
	}

	return nil
}

// IngestRun records a completed research run and its findings. reportPath
// points at the saved markdown file. Returns the new run ID.
func (s *Store) IngestRun(ctx context.Context, rep *types.ResearchReport, reportPath string) (int64, error) {
	if rep == nil {
		return 0, fmt.Errorf("report is nil")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	subsJSON, _ := json.Marshal(rep.Subcomponents)
	created := rep.Timestamp
	if created.IsZero() {
		created = time.Now()
	}

	res, err := tx.ExecContext(ctx,
		`INSERT INTO runs (query, subcomponents, report_path, created_at) VALUES (?, ?, ?, ?)`,
		rep.Query, string(subsJSON), reportPath, created.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return 0, fmt.Errorf("inserting run: %w", err)
	}
	runID, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("reading run id: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO findings (run_id, subcomponent, url, summary, relevant_info, relevance, search_query)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for _, f := range rep.Findings {
		for _, r := range f.Reports {
			_, err := stmt.ExecContext(ctx,
				runID, f.Subcomponent, r.URL, r.Summary, r.RelevantInfo, r.RelevanceScore, r.SearchQuery,
			)
			if err != nil {
				return 0, fmt.Errorf("inserting finding %s: %w", r.URL, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing run: %w", err)
	}
	return runID, nil
}
