// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package index

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pdiddy/keepconv/internal/cache"
	"github.com/pdiddy/keepconv/pkg/types"
)

func testSetup(t *testing.T) (*Store, *cache.Cache, string) {
	t.Helper()
	tmpDir := t.TempDir()

	notesDir := filepath.Join(tmpDir, "notes")
	if err := os.MkdirAll(notesDir, 0o755); err != nil {
		t.Fatal(err)
	}

	ocrCache, err := cache.New(filepath.Join(tmpDir, "cache", "ocr"))
	if err != nil {
		t.Fatal(err)
	}

	store, err := NewStore(types.IndexConfig{IndexDir: filepath.Join(tmpDir, "index"), MaxResults: 20})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { store.Close() })

	return store, ocrCache, notesDir
}

func writeNote(t *testing.T, notesDir, name string, note types.Note) string {
	t.Helper()
	data, err := json.Marshal(&note)
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(notesDir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func ingest(t *testing.T, store *Store, notesDir string, ocrCache *cache.Cache) IngestSummary {
	t.Helper()
	summary, err := store.Ingest(context.Background(), notesDir, ocrCache, &bytes.Buffer{})
	if err != nil {
		t.Fatal(err)
	}
	return summary
}

func TestIngestAndSearch(t *testing.T) {
	store, ocrCache, notesDir := testSetup(t)

	writeNote(t, notesDir, "shopping.json", types.Note{
		Title:       "Shopping",
		TextContent: "buy milk and eggs",
		Labels:      []types.Label{{Name: "errands"}},
	})
	writeNote(t, notesDir, "wifi.json", types.Note{
		Title:       "Router",
		TextContent: "wifi password is on the receipt",
	})

	summary := ingest(t, store, notesDir, ocrCache)
	if summary.Indexed != 2 || summary.Failed != 0 {
		t.Fatalf("summary = %+v, want 2 indexed", summary)
	}

	results, err := store.Search(context.Background(), QueryOptions{Query: "milk"})
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 || results[0].Title != "Shopping" {
		t.Fatalf("Search(milk) = %+v, want the Shopping note", results)
	}
	if !strings.Contains(results[0].Snippet, "[milk]") {
		t.Errorf("snippet = %q, want highlighted match", results[0].Snippet)
	}
	if len(results[0].Labels) != 1 || results[0].Labels[0] != "errands" {
		t.Errorf("labels = %v, want [errands]", results[0].Labels)
	}
}

func TestIngestIncludesCachedOCRText(t *testing.T) {
	store, ocrCache, notesDir := testSetup(t)

	if err := ocrCache.Put(cache.Key("receipt.png"), "TOTAL 12.50 EUR"); err != nil {
		t.Fatal(err)
	}
	writeNote(t, notesDir, "receipt.json", types.Note{
		Title:       "Lunch",
		Attachments: []types.Attachment{{FilePath: "receipt.png", Mimetype: "image/png"}},
	})

	ingest(t, store, notesDir, ocrCache)

	results, err := store.Search(context.Background(), QueryOptions{Query: "12.50"})
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 || results[0].Title != "Lunch" {
		t.Fatalf("Search(12.50) = %+v, want the Lunch note via OCR text", results)
	}
}

func TestIngestSkipsUnchangedAndUpdatesChanged(t *testing.T) {
	store, ocrCache, notesDir := testSetup(t)

	path := writeNote(t, notesDir, "note.json", types.Note{Title: "First", TextContent: "original body"})
	stamp := time.Now().Add(-time.Hour)
	if err := os.Chtimes(path, stamp, stamp); err != nil {
		t.Fatal(err)
	}

	if summary := ingest(t, store, notesDir, ocrCache); summary.Indexed != 1 {
		t.Fatalf("first ingest = %+v, want 1 indexed", summary)
	}
	if summary := ingest(t, store, notesDir, ocrCache); summary.Skipped != 1 || summary.Indexed != 0 {
		t.Fatalf("second ingest = %+v, want 1 skipped", summary)
	}

	writeNote(t, notesDir, "note.json", types.Note{Title: "First", TextContent: "rewritten body"})
	if summary := ingest(t, store, notesDir, ocrCache); summary.Updated != 1 {
		t.Fatalf("third ingest = %+v, want 1 updated", summary)
	}

	results, err := store.Search(context.Background(), QueryOptions{Query: "rewritten"})
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 {
		t.Fatalf("Search(rewritten) = %+v, want the updated note", results)
	}
	stale, err := store.Search(context.Background(), QueryOptions{Query: "original"})
	if err != nil {
		t.Fatal(err)
	}
	if len(stale) != 0 {
		t.Errorf("Search(original) = %+v, want old content gone", stale)
	}
}

func TestIngestSkipsTrashedNotes(t *testing.T) {
	store, ocrCache, notesDir := testSetup(t)
	writeNote(t, notesDir, "gone.json", types.Note{Title: "Gone", TextContent: "deleted", IsTrashed: true})

	if summary := ingest(t, store, notesDir, ocrCache); summary.Skipped != 1 || summary.Indexed != 0 {
		t.Fatalf("summary = %+v, want 1 skipped", summary)
	}
}

func TestSearchLabelFilter(t *testing.T) {
	store, ocrCache, notesDir := testSetup(t)

	writeNote(t, notesDir, "a.json", types.Note{
		Title: "Recipe", TextContent: "pasta with garlic",
		Labels: []types.Label{{Name: "cooking"}},
	})
	writeNote(t, notesDir, "b.json", types.Note{
		Title: "Garden", TextContent: "plant garlic in autumn",
	})
	ingest(t, store, notesDir, ocrCache)

	results, err := store.Search(context.Background(), QueryOptions{Query: "garlic", Label: "cooking"})
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 || results[0].Title != "Recipe" {
		t.Fatalf("filtered search = %+v, want only the labeled note", results)
	}

	// Label-only query lists the labeled notes without FTS.
	listed, err := store.Search(context.Background(), QueryOptions{Label: "cooking"})
	if err != nil {
		t.Fatal(err)
	}
	if len(listed) != 1 || listed[0].Title != "Recipe" {
		t.Fatalf("label listing = %+v, want only the labeled note", listed)
	}
}

func TestSearchMaxResults(t *testing.T) {
	store, ocrCache, notesDir := testSetup(t)

	for _, name := range []string{"a.json", "b.json", "c.json"} {
		writeNote(t, notesDir, name, types.Note{Title: name, TextContent: "shared keyword banana"})
	}
	ingest(t, store, notesDir, ocrCache)

	results, err := store.Search(context.Background(), QueryOptions{Query: "banana", MaxResults: 2})
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 2 {
		t.Errorf("results = %d, want 2 with the cap applied", len(results))
	}
}
