// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package keep loads note records exported by Google Takeout and derives
// the filesystem names used for cache entries and generated documents.
package keep

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pdiddy/keepconv/pkg/types"
)

// Load reads a single exported note record from a JSON file.
func Load(path string) (*types.Note, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading note %s: %w", path, err)
	}

	var note types.Note
	if err := json.Unmarshal(data, &note); err != nil {
		return nil, fmt.Errorf("parsing note %s: %w", path, err)
	}
	return &note, nil
}

// Discover returns the note record files (*.json) directly under inputDir,
// sorted by name so runs and debug subsets are deterministic.
func Discover(inputDir string) ([]string, error) {
	entries, err := os.ReadDir(inputDir)
	if err != nil {
		return nil, fmt.Errorf("reading input dir %s: %w", inputDir, err)
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		files = append(files, filepath.Join(inputDir, e.Name()))
	}
	sort.Strings(files)
	return files, nil
}

// Resolve maps a note's attachment references to paths under attachmentsDir.
// Takeout exports occasionally reference files that were never written, so
// missing attachments are reported separately rather than treated as errors.
func Resolve(attachmentsDir string, note *types.Note) (existing, missing []string) {
	for _, att := range note.Attachments {
		if att.FilePath == "" {
			continue
		}
		path := filepath.Join(attachmentsDir, att.FilePath)
		if _, err := os.Stat(path); err != nil {
			missing = append(missing, att.FilePath)
			continue
		}
		existing = append(existing, path)
	}
	return existing, missing
}
