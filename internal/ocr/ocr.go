// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package ocr extracts text from note attachments.
//
// The stage is cache-first: an attachment whose text is already on disk is
// never re-read, so repeated runs over a large export only pay for new
// images. Recognition itself runs under a counting semaphore because each
// recognition pins a native thread and significant memory.
package ocr

import (
	"context"
	"log/slog"
	"strings"

	"golang.org/x/sync/semaphore"

	"github.com/pdiddy/keepconv/internal/cache"
	"github.com/pdiddy/keepconv/pkg/types"
)

// Engine recognizes text in an encoded image. Implementations must be safe
// for concurrent use.
type Engine interface {
	// Recognize returns the text found in img (an encoded image, e.g.
	// PNG). An image with no discernible text yields "" and no error.
	Recognize(ctx context.Context, img []byte, languages []string) (string, error)
}

// Stage runs cache-aware, concurrency-bounded text extraction.
type Stage struct {
	cache     *cache.Cache
	engine    Engine
	sem       *semaphore.Weighted
	languages []string
}

// NewStage builds an extraction stage. Results are cached in c keyed by
// attachment filename; at most cfg.Concurrency recognitions run at once.
func NewStage(c *cache.Cache, engine Engine, cfg types.OCRConfig) *Stage {
	n := cfg.Concurrency
	if n < 1 {
		n = 1
	}
	return &Stage{
		cache:     c,
		engine:    engine,
		sem:       semaphore.NewWeighted(int64(n)),
		languages: cfg.Languages,
	}
}

// ExtractText returns the text content of the image at path. Extraction
// failures degrade to "" so one unreadable attachment never sinks its
// note; genuine results, including empty ones, are cached so the image is
// not re-read next run. The cache probe happens before the semaphore so
// warm entries cost no slot.
func (s *Stage) ExtractText(ctx context.Context, path string) string {
	key := cache.Key(path)
	if text, ok := s.cache.Get(key); ok {
		return text
	}

	if err := s.sem.Acquire(ctx, 1); err != nil {
		slog.Warn("ocr: canceled before extraction", "image", path, "error", err)
		return ""
	}
	defer s.sem.Release(1)

	img, err := Preprocess(path)
	if err != nil {
		slog.Warn("ocr: preprocessing failed", "image", path, "error", err)
		return ""
	}

	text, err := s.engine.Recognize(ctx, img, s.languages)
	if err != nil {
		slog.Warn("ocr: recognition failed", "image", path, "error", err)
		return ""
	}
	text = strings.TrimSpace(text)
	if text == "" {
		slog.Warn("ocr: no text extracted", "image", path)
	}

	// Cache even empty results so the run is recorded; the cache reads
	// blanks back as misses, which keeps them retryable.
	if err := s.cache.Put(key, text); err != nil {
		slog.Warn("ocr: caching result failed", "image", path, "error", err)
	}
	return text
}
