// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package index maintains a full-text search index over converted notes.
//
// The index lives in a SQLite database with an FTS5 virtual table kept in
// sync by triggers. Ingestion is incremental: a note file whose
// modification time has not changed since the last ingest is skipped.
package index

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/keepconv/internal/cache"
	"github.com/pdiddy/keepconv/internal/keep"
	"github.com/pdiddy/keepconv/pkg/types"
)

const dbFile = "keepconv.db"

// Store manages the note index database.
type Store struct {
	db         *sql.DB
	maxResults int
}

// NewStore opens or creates the index database under cfg.IndexDir,
// creating the schema if it does not exist.
func NewStore(cfg types.IndexConfig) (*Store, error) {
	dir := cfg.IndexDir
	if dir == "" {
		dir = "index"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating index directory: %w", err)
	}

	db, err := sql.Open("sqlite3", filepath.Join(dir, dbFile)+"?_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = 20
	}

	s := &Store{db: db, maxResults: maxResults}
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
		`CREATE TABLE IF NOT EXISTS notes (
			file TEXT NOT NULL UNIQUE,
			title TEXT,
			labels TEXT,
			created TEXT,
			edited TEXT,
			content TEXT,
			file_mod_time TEXT
		)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}

	// FTS5 virtual table with triggers for sync.
	var ftsExists int
	if err := s.db.QueryRow(
		`SELECT count(*) FROM sqlite_master WHERE type='table' AND name='notes_fts'`,
	).Scan(&ftsExists); err != nil {
		return fmt.Errorf("checking FTS table: %w", err)
	}

	if ftsExists == 0 {
		ftsStatements := []string{
			`CREATE VIRTUAL TABLE notes_fts USING fts5(title, labels, content, content=notes, content_rowid=rowid)`,
			`CREATE TRIGGER notes_ai AFTER INSERT ON notes BEGIN
				INSERT INTO notes_fts(rowid, title, labels, content)
				VALUES (new.rowid, new.title, new.labels, new.content);
			END`,
			`CREATE TRIGGER notes_ad AFTER DELETE ON notes BEGIN
				INSERT INTO notes_fts(notes_fts, rowid, title, labels, content)
				VALUES('delete', old.rowid, old.title, old.labels, old.content);
			END`,
			`CREATE TRIGGER notes_au AFTER UPDATE ON notes BEGIN
				INSERT INTO notes_fts(notes_fts, rowid, title, labels, content)
				VALUES('delete', old.rowid, old.title, old.labels, old.content);
				INSERT INTO notes_fts(rowid, title, labels, content)
				VALUES (new.rowid, new.title, new.labels, new.content);
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

// IngestSummary holds counts from an indexing run.
type IngestSummary struct {
	Indexed int
	Updated int
	Skipped int
	Failed  int
}

// Total returns the number of note files processed.
func (s IngestSummary) Total() int {
	return s.Indexed + s.Updated + s.Skipped + s.Failed
}

// Ingest reads every note file in inputDir into the index. Attachment
// text comes from the OCR cache, so a conversion run should precede
// indexing; attachments never converted simply contribute nothing.
// Unchanged files are skipped by modification time.
func (s *Store) Ingest(ctx context.Context, inputDir string, ocrCache *cache.Cache, w io.Writer) (IngestSummary, error) {
	files, err := keep.Discover(inputDir)
	if err != nil {
		return IngestSummary{}, err
	}

	var summary IngestSummary
	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		base := filepath.Base(path)
		info, err := os.Stat(path)
		if err != nil {
			fmt.Fprintf(w, "failed  %s: %v\n", base, err)
			summary.Failed++
			continue
		}
		modTime := info.ModTime().UTC().Format(time.RFC3339Nano)

		var storedModTime string
		err = s.db.QueryRowContext(ctx,
			`SELECT file_mod_time FROM notes WHERE file = ?`, base,
		).Scan(&storedModTime)
		if err == nil && storedModTime == modTime {
			fmt.Fprintf(w, "skipped %s\n", base)
			summary.Skipped++
			continue
		}
		isUpdate := err == nil

		note, err := keep.Load(path)
		if err != nil {
			fmt.Fprintf(w, "failed  %s: %v\n", base, err)
			summary.Failed++
			continue
		}
		if note.IsTrashed {
			fmt.Fprintf(w, "skipped %s (trashed)\n", base)
			summary.Skipped++
			continue
		}

		if err := s.ingestNote(ctx, base, note, ocrCache, modTime); err != nil {
			fmt.Fprintf(w, "failed  %s: %v\n", base, err)
			summary.Failed++
			continue
		}

		if isUpdate {
			fmt.Fprintf(w, "updated %s\n", base)
			summary.Updated++
		} else {
			fmt.Fprintf(w, "indexed %s\n", base)
			summary.Indexed++
		}
	}

	fmt.Fprintf(w, "\nindexed: %d, updated: %d, skipped: %d, failed: %d\n",
		summary.Indexed, summary.Updated, summary.Skipped, summary.Failed)
	return summary, nil
}

func (s *Store) ingestNote(ctx context.Context, file string, note *types.Note, ocrCache *cache.Cache, modTime string) error {
	labelsJSON, err := json.Marshal(note.LabelNames())
	if err != nil {
		return fmt.Errorf("encoding labels: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO notes (file, title, labels, created, edited, content, file_mod_time)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(file) DO UPDATE SET
			title=excluded.title, labels=excluded.labels, created=excluded.created,
			edited=excluded.edited, content=excluded.content,
			file_mod_time=excluded.file_mod_time`,
		file, note.Title, string(labelsJSON),
		keep.FormatTimestamp(note.CreatedTimestampUsec),
		keep.FormatTimestamp(note.UserEditedTimestampUsec),
		noteContent(note, ocrCache), modTime,
	)
	if err != nil {
		return fmt.Errorf("upserting note: %w", err)
	}
	return nil
}

// noteContent assembles the searchable text of a note: its body, its
// checklist items, and the cached OCR text of its attachments.
func noteContent(note *types.Note, ocrCache *cache.Cache) string {
	var parts []string
	if t := strings.TrimSpace(note.TextContent); t != "" {
		parts = append(parts, t)
	}
	for _, item := range note.ListContent {
		if t := strings.TrimSpace(item.Text); t != "" {
			parts = append(parts, t)
		}
	}
	for _, att := range note.Attachments {
		if att.FilePath == "" {
			continue
		}
		if text, ok := ocrCache.Get(cache.Key(att.FilePath)); ok {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, "\n")
}
