// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package index

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
)

// QueryOptions holds parameters for note searches.
type QueryOptions struct {
	// Query is the FTS5 full-text search string.
	Query string

	// Label restricts results to notes carrying the label.
	Label string

	// MaxResults limits result count. Zero uses the store default.
	MaxResults int
}

// IsEmpty reports whether the query has no search terms or filters.
func (q QueryOptions) IsEmpty() bool {
	return q.Query == "" && q.Label == ""
}

// Result is one matching note with a snippet of the matched content.
type Result struct {
	File    string   `json:"file"`
	Title   string   `json:"title"`
	Labels  []string `json:"labels"`
	Snippet string   `json:"snippet"`
}

// Search queries the index. Full-text queries are ranked by relevance
// with match snippets; label-only queries list matching notes by title.
func (s *Store) Search(ctx context.Context, opts QueryOptions) ([]Result, error) {
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
			`SELECT n.file, n.title, n.labels,
				snippet(notes_fts, 2, '[', ']', '…', 12)
			FROM notes_fts
			JOIN notes n ON n.rowid = notes_fts.rowid
			WHERE notes_fts MATCH ?`)
		args = append(args, opts.Query)
	} else {
		qb.WriteString(
			`SELECT n.file, n.title, n.labels, substr(n.content, 1, 80)
			FROM notes n
			WHERE 1=1`)
	}

	if opts.Label != "" {
		qb.WriteString(` AND EXISTS (SELECT 1 FROM json_each(n.labels) WHERE value = ?)`)
		args = append(args, opts.Label)
	}

	if useFTS {
		qb.WriteString(` ORDER BY notes_fts.rank`)
	} else {
		qb.WriteString(` ORDER BY n.title, n.file`)
	}

	qb.WriteString(` LIMIT ?`)
	args = append(args, maxResults)

	rows, err := s.db.QueryContext(ctx, qb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("querying note index: %w", err)
	}
	defer rows.Close()

	var results []Result
	for rows.Next() {
		var (
			r          Result
			labelsJSON sql.NullString
		)
		if err := rows.Scan(&r.File, &r.Title, &labelsJSON, &r.Snippet); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		if labelsJSON.Valid {
			json.Unmarshal([]byte(labelsJSON.String), &r.Labels)
		}
		results = append(results, r)
	}

	return results, rows.Err()
}
