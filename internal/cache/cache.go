// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package cache persists per-attachment pipeline artifacts between runs.
//
// A cache instance owns one directory and stores one text artifact per key
// as a plain file. Entries survive crashes, can be inspected and deleted
// with standard tools, and tolerate concurrent writers because every write
// lands via an atomic rename.
package cache

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pdiddy/keepconv/internal/keep"
)

const (
	// maxKeyRunes bounds keys so the backing filename stays under common
	// filesystem name limits once the entry suffix is added.
	maxKeyRunes = 200

	// entryExt is the on-disk suffix for cache entries.
	entryExt = ".txt"
)

// Cache is a directory-backed text store keyed by attachment identity.
type Cache struct {
	dir string
}

// New opens a cache rooted at dir, creating the directory if needed.
func New(dir string) (*Cache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating cache dir %s: %w", dir, err)
	}
	return &Cache{dir: dir}, nil
}

// Dir returns the cache's backing directory.
func (c *Cache) Dir() string {
	return c.dir
}

// Key derives the cache key for an attachment: its base filename with
// unsafe characters replaced and the length bounded. Equal paths always
// derive equal keys, so reruns hit the entries earlier runs wrote.
func Key(filePath string) string {
	k := keep.SanitizeFileName(filepath.Base(filePath))
	if r := []rune(k); len(r) > maxKeyRunes {
		k = string(r[:maxKeyRunes])
	}
	return k
}

func (c *Cache) entryPath(key string) string {
	return filepath.Join(c.dir, key+entryExt)
}

// Get returns the cached text for key, trimmed of surrounding whitespace.
// Entries that are missing or hold only whitespace count as misses, so
// blank results are re-attempted on later runs.
func (c *Cache) Get(key string) (string, bool) {
	data, err := os.ReadFile(c.entryPath(key))
	if err != nil {
		return "", false
	}
	text := strings.TrimSpace(string(data))
	if text == "" {
		return "", false
	}
	return text, true
}

// Put stores text under key, replacing any previous entry. The write goes
// through a temp file and rename so a crash or a concurrent writer never
// leaves a torn entry behind.
func (c *Cache) Put(key, text string) error {
	tmp, err := os.CreateTemp(c.dir, ".cache-*.tmp")
	if err != nil {
		return fmt.Errorf("creating cache temp file: %w", err)
	}
	tmpPath := tmp.Name()

	_, writeErr := tmp.WriteString(text)
	closeErr := tmp.Close()
	if writeErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("writing cache entry %s: %w", key, writeErr)
	}
	if closeErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("writing cache entry %s: %w", key, closeErr)
	}

	if err := os.Rename(tmpPath, c.entryPath(key)); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("storing cache entry %s: %w", key, err)
	}
	return nil
}

// Stats reports how many entries the cache holds and, when failurePrefix
// is non-empty, how many of them record a failure.
func (c *Cache) Stats(failurePrefix string) (entries, failures int, err error) {
	names, err := c.entryNames()
	if err != nil {
		return 0, 0, err
	}
	entries = len(names)
	if failurePrefix == "" {
		return entries, 0, nil
	}
	for _, name := range names {
		data, err := os.ReadFile(filepath.Join(c.dir, name))
		if err != nil {
			continue
		}
		if strings.HasPrefix(strings.TrimSpace(string(data)), failurePrefix) {
			failures++
		}
	}
	return entries, failures, nil
}

// Clear removes cache entries and reports how many were removed. With
// failuresOnly set, only entries whose content starts with failurePrefix
// are removed, which forces those attachments to be retried next run.
func (c *Cache) Clear(failuresOnly bool, failurePrefix string) (int, error) {
	names, err := c.entryNames()
	if err != nil {
		return 0, err
	}
	removed := 0
	for _, name := range names {
		path := filepath.Join(c.dir, name)
		if failuresOnly {
			data, err := os.ReadFile(path)
			if err != nil {
				continue
			}
			if !strings.HasPrefix(strings.TrimSpace(string(data)), failurePrefix) {
				continue
			}
		}
		if err := os.Remove(path); err != nil {
			return removed, fmt.Errorf("removing cache entry %s: %w", name, err)
		}
		removed++
	}
	return removed, nil
}

// entryNames lists the cache's entry files, ignoring temp files and
// anything else that wandered into the directory.
func (c *Cache) entryNames() ([]string, error) {
	dirents, err := os.ReadDir(c.dir)
	if err != nil {
		return nil, fmt.Errorf("reading cache dir %s: %w", c.dir, err)
	}
	var names []string
	for _, e := range dirents {
		if e.IsDir() || !strings.HasSuffix(e.Name(), entryExt) {
			continue
		}
		names = append(names, e.Name())
	}
	return names, nil
}
