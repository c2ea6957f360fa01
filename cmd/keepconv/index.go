// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/pdiddy/keepconv/internal/cache"
	"github.com/pdiddy/keepconv/internal/index"
	"github.com/pdiddy/keepconv/pkg/types"
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Build the full-text search index over converted notes",
	Long: `Index ingests note files into a SQLite FTS5 database: titles, labels,
note bodies, and the cached OCR text of attachments. Run it after a
conversion so the OCR cache is populated. Notes unchanged since the last
ingest are skipped.`,
	RunE: runIndex,
}

func runIndex(cmd *cobra.Command, args []string) error {
	inputDir := stringSetting(cmd, "input-dir", "convert.input_dir")
	cacheDir := stringSetting(cmd, "cache-dir", "convert.cache_dir")
	cfg := types.IndexConfig{
		IndexDir:   stringSetting(cmd, "index-dir", "index.index_dir"),
		MaxResults: intSetting(cmd, "max-results", "index.max_results"),
	}

	ocrCache, err := cache.New(filepath.Join(cacheDir, "ocr"))
	if err != nil {
		return err
	}

	store, err := index.NewStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	summary, err := store.Ingest(cmd.Context(), inputDir, ocrCache, os.Stdout)
	if err != nil {
		return err
	}
	if summary.Failed > 0 {
		return fmt.Errorf("%d note(s) failed indexing", summary.Failed)
	}
	return nil
}

func init() {
	indexCmd.Flags().String("input-dir", "notes", "directory of exported note JSON files")
	indexCmd.Flags().String("cache-dir", "cache", "root of the OCR and formatting caches")
	indexCmd.Flags().String("index-dir", "index", "directory holding the index database")
	indexCmd.Flags().Int("max-results", 20, "default result cap for searches")

	rootCmd.AddCommand(indexCmd)
}
