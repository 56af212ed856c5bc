// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package archive

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"
)

// QueryOptions holds parameters for archive queries.
type QueryOptions struct {
	// Query is the FTS5 full-text search string, matched against finding
	// summaries and extracted information.
	Query string

	// RunID filters by research run. Zero means all runs.
	RunID int64

	// Subcomponent filters by the subcomponent a finding was gathered for.
	Subcomponent string

	// MinRelevance drops findings below the given score.
	MinRelevance float64

	// MaxResults limits result count. Zero uses the store default.
	MaxResults int
}

// IsEmpty reports whether the query has no search terms or filters.
func (q QueryOptions) IsEmpty() bool {
	return q.Query == "" && q.RunID == 0 && q.Subcomponent == "" && q.MinRelevance == 0
}

// QueryResult is an archived finding with its run context.
type QueryResult struct {
	RunID        int64     `json:"run_id" yaml:"run_id"`
	RunQuery     string    `json:"run_query" yaml:"run_query"`
	CreatedAt    time.Time `json:"created_at" yaml:"created_at"`
	Subcomponent string    `json:"subcomponent" yaml:"subcomponent"`
	URL          string    `json:"url" yaml:"url"`
	Summary      string    `json:"summary" yaml:"summary"`
	RelevantInfo string    `json:"relevant_info" yaml:"relevant_info"`
	Relevance    float64   `json:"relevance" yaml:"relevance"`
	SearchQuery  string    `json:"search_query,omitempty" yaml:"search_query,omitempty"`
}

// Retrieve queries the archive with optional full-text search and
// structured filters. Full-text queries are ranked by relevance of the
// match; structured-only queries sort newest run first.
func (s *Store) Retrieve(ctx context.Context, opts QueryOptions) ([]QueryResult, error) {
	maxResults := opts.MaxResults
	if maxResults <= 0 {
		maxResults = s.maxResults
	}

	var (
		qb     strings.Builder
		args   []any
		useFTS = opts.Query != ""
	)

	if useFTS {
		qb.WriteString(
			`SELECT f.run_id, r.query, r.created_at, f.subcomponent, f.url,
				f.summary, f.relevant_info, f.relevance, f.search_query
			FROM findings_fts
			JOIN findings f ON f.rowid = findings_fts.rowid
			JOIN runs r ON f.run_id = r.id
			WHERE findings_fts MATCH ?`)
		args = append(args, opts.Query)
	} else {
		qb.WriteString(
			`SELECT f.run_id, r.query, r.created_at, f.subcomponent, f.url,
				f.summary, f.relevant_info, f.relevance, f.search_query
			FROM findings f
			JOIN runs r ON f.run_id = r.id
			WHERE 1=1`)
	}

	if opts.RunID != 0 {
		qb.WriteString(` AND f.run_id = ?`)
		args = append(args, opts.RunID)
	}

	if opts.Subcomponent != "" {
		qb.WriteString(` AND f.subcomponent = ?`)
		args = append(args, opts.Subcomponent)
	}

	if opts.MinRelevance > 0 {
		qb.WriteString(` AND f.relevance >= ?`)
		args = append(args, opts.MinRelevance)
	}

	if useFTS {
		qb.WriteString(` ORDER BY findings_fts.rank`)
	} else {
		qb.WriteString(` ORDER BY f.run_id DESC, f.relevance DESC`)
	}

	qb.WriteString(` LIMIT ?`)
	args = append(args, maxResults)

	rows, err := s.db.QueryContext(ctx, qb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("querying archive: %w", err)
	}
	defer rows.Close()

	var results []QueryResult
	for rows.Next() {
		var (
			qr        QueryResult
			createdAt string
			summary   sql.NullString
			info      sql.NullString
			searchQ   sql.NullString
		)

		if err := rows.Scan(
			&qr.RunID, &qr.RunQuery, &createdAt, &qr.Subcomponent, &qr.URL,
			&summary, &info, &qr.Relevance, &searchQ,
		); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}

		if t, err := time.Parse(time.RFC3339, createdAt); err == nil {
			qr.CreatedAt = t
		}
		qr.Summary = summary.String
		qr.RelevantInfo = info.String
		qr.SearchQuery = searchQ.String

		results = append(results, qr)
	}

	return results, rows.Err()
}

// Run holds the run-level metadata stored for one research invocation.
type Run struct {
	ID            int64     `json:"id" yaml:"id"`
	Query         string    `json:"query" yaml:"query"`
	Subcomponents []string  `json:"subcomponents" yaml:"subcomponents"`
	ReportPath    string    `json:"report_path" yaml:"report_path"`
	CreatedAt     time.Time `json:"created_at" yaml:"created_at"`
	Findings      int       `json:"findings" yaml:"findings"`
}

// Runs lists archived runs, newest first.
func (s *Store) Runs(ctx context.Context) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT r.id, r.query, r.subcomponents, r.report_path, r.created_at,
			(SELECT count(*) FROM findings f WHERE f.run_id = r.id)
		FROM runs r ORDER BY r.id DESC`)
	if err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var (
			run       Run
			subsJSON  sql.NullString
			path      sql.NullString
			createdAt string
		)
		if err := rows.Scan(&run.ID, &run.Query, &subsJSON, &path, &createdAt, &run.Findings); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		if subsJSON.Valid {
			parseJSONList(subsJSON.String, &run.Subcomponents)
		}
		run.ReportPath = path.String
		if t, err := time.Parse(time.RFC3339, createdAt); err == nil {
			run.CreatedAt = t
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}
