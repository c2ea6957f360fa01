// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package format cleans up OCR output through an external text-correction
// service, with caching, bounded retries, and visible failure sentinels.
package format

import (
	"context"
	"log/slog"
	"math"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/pdiddy/keepconv/internal/cache"
	"github.com/pdiddy/keepconv/pkg/types"
)

const (
	// FailureMarker prefixes every correction failure so downstream
	// documents and cache tooling can recognize one at a glance.
	FailureMarker = "[format-error]"

	// TooShortSentinel is returned for input below the length floor.
	TooShortSentinel = FailureMarker + " text too short to correct"

	// minCorrectRunes is the shortest input worth a service call.
	minCorrectRunes = 10
)

// IsFailure reports whether text is a correction failure sentinel.
func IsFailure(text string) bool {
	return strings.HasPrefix(text, FailureMarker)
}

// Stage runs cache-aware, retry-capable text correction.
type Stage struct {
	cache       *cache.Cache
	backend     Backend
	maxAttempts int
	baseDelay   time.Duration
}

// NewStage builds a correction stage. Results, including failure
// sentinels, are cached in c keyed by attachment filename.
func NewStage(c *cache.Cache, backend Backend, cfg types.FormatConfig) *Stage {
	attempts := cfg.MaxRetries
	if attempts <= 0 {
		attempts = 3
	}
	delay := cfg.RetryBaseDelay
	if delay <= 0 {
		delay = 500 * time.Millisecond
	}
	return &Stage{
		cache:       c,
		backend:     backend,
		maxAttempts: attempts,
		baseDelay:   delay,
	}
}

// Format returns the corrected form of text, which belongs to the
// attachment at path. Input below the length floor short-circuits to a
// sentinel without touching the network or the cache. A cached value is
// returned as-is, sentinels included: a failure recorded by an earlier
// run is not retried until the operator clears it. Otherwise the backend
// is called with bounded attempts and exponential backoff, and the
// outcome, success or sentinel, is persisted for the next run.
func (s *Stage) Format(ctx context.Context, path, text string) string {
	if utf8.RuneCountInString(strings.TrimSpace(text)) < minCorrectRunes {
		return TooShortSentinel
	}

	key := cache.Key(path)
	if cached, ok := s.cache.Get(key); ok {
		return cached
	}

	result, err := s.correct(ctx, path, text)
	if err != nil {
		// Interrupted mid-run. Surface a sentinel but keep it out of the
		// cache so the next run retries instead of trusting an artifact
		// of the interrupt.
		return FailureMarker + " " + err.Error()
	}

	if err := s.cache.Put(key, result); err != nil {
		slog.Warn("format: caching result failed", "attachment", path, "error", err)
	}
	return result
}

// correct runs the retry loop. It returns an error only when ctx ends;
// exhausting all attempts yields a sentinel string and a nil error.
func (s *Stage) correct(ctx context.Context, path, text string) (string, error) {
	var lastErr error
	for attempt := 0; attempt < s.maxAttempts; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(math.Pow(2, float64(attempt-1))) * s.baseDelay
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(backoff):
			}
		}

		corrected, err := s.backend.Correct(ctx, text)
		if err == nil {
			return corrected, nil
		}
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		lastErr = err
		slog.Warn("format: correction attempt failed",
			"attachment", path, "attempt", attempt+1, "max", s.maxAttempts, "error", err)
	}
	return FailureMarker + " " + lastErr.Error(), nil
}
