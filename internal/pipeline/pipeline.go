// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pipeline composes the extraction and correction stages into
// per-attachment, per-note, and whole-run processing.
//
// A Pipeline owns no concurrency bounds of its own: attachments fan out
// unbounded within a note and rely on the OCR semaphore and the
// correction client's connection cap, while the run itself caps how many
// notes are in flight at once.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/pdiddy/keepconv/internal/cache"
	"github.com/pdiddy/keepconv/internal/format"
	"github.com/pdiddy/keepconv/internal/keep"
	"github.com/pdiddy/keepconv/internal/ocr"
	"github.com/pdiddy/keepconv/internal/render"
	"github.com/pdiddy/keepconv/pkg/types"
)

// Pipeline converts exported notes into Markdown and HTML documents.
type Pipeline struct {
	ocr         *ocr.Stage
	format      *format.Stage
	formatCache *cache.Cache
	cfg         types.ConvertConfig
	formatOn    bool

	mu        sync.Mutex
	usedStems map[string]int
}

// New builds a pipeline over already-constructed stages. formatCache is
// the correction stage's cache, probed directly by the attachment
// processor; formatOn gates the correction pass for the whole run.
func New(ocrStage *ocr.Stage, formatStage *format.Stage, formatCache *cache.Cache, cfg types.ConvertConfig, formatOn bool) *Pipeline {
	if cfg.AttachmentsDir == "" {
		cfg.AttachmentsDir = cfg.InputDir
	}
	if cfg.MarkdownDir == "" {
		cfg.MarkdownDir = "output_markdown"
	}
	if cfg.HTMLDir == "" {
		cfg.HTMLDir = "output_html"
	}
	if cfg.DebugCount <= 0 {
		cfg.DebugCount = 15
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 10
	}
	return &Pipeline{
		ocr:         ocrStage,
		format:      formatStage,
		formatCache: formatCache,
		cfg:         cfg,
		formatOn:    formatOn,
		usedStems:   make(map[string]int),
	}
}

// ProcessAttachment extracts and, when enabled, corrects the text of one
// attachment. Correction is skipped entirely for empty extractions, and a
// prior run's cached correction is reused without re-entering the stage
// unless it recorded a failure.
func (p *Pipeline) ProcessAttachment(ctx context.Context, path string) types.AttachmentResult {
	raw := p.ocr.ExtractText(ctx, path)

	if !p.formatOn {
		return types.AttachmentResult{Raw: raw, Formatted: raw}
	}

	if cached, ok := p.formatCache.Get(cache.Key(path)); ok && !format.IsFailure(cached) {
		return types.AttachmentResult{Raw: raw, Formatted: cached}
	}

	if raw == "" {
		return types.AttachmentResult{Raw: raw, Formatted: raw}
	}

	return types.AttachmentResult{Raw: raw, Formatted: p.format.Format(ctx, path, raw)}
}

// NoteStatus records the outcome for one note, both for progress lines
// and for the run manifest.
type NoteStatus struct {
	File        string                 `yaml:"file"`
	Status      types.ConversionStatus `yaml:"status"`
	Detail      string                 `yaml:"detail,omitempty"`
	Attachments int                    `yaml:"attachments"`
}

// ProcessNote converts one exported note file into its Markdown and HTML
// documents. Attachments run concurrently and their results are gathered
// in attachment order; one attachment failing degrades to empty or
// sentinel text without affecting its siblings.
func (p *Pipeline) ProcessNote(ctx context.Context, notePath string) NoteStatus {
	base := filepath.Base(notePath)
	st := NoteStatus{File: base}

	note, err := keep.Load(notePath)
	if err != nil {
		st.Status = types.ConversionFailed
		st.Detail = err.Error()
		return st
	}

	if note.IsTrashed {
		st.Status = types.ConversionSkipped
		st.Detail = "trashed"
		return st
	}
	if !note.HasContent() {
		st.Status = types.ConversionSkipped
		st.Detail = "empty"
		return st
	}

	paths, missing := keep.Resolve(p.cfg.AttachmentsDir, note)
	for _, m := range missing {
		slog.Warn("pipeline: attachment file missing", "note", base, "attachment", m)
	}
	st.Attachments = len(paths)

	// Fan out over the attachments and gather by index so documents list
	// them in export order no matter which finished first.
	results := make([]types.AttachmentResult, len(paths))
	g, gctx := errgroup.WithContext(ctx)
	for i, path := range paths {
		g.Go(func() error {
			results[i] = p.ProcessAttachment(gctx, path)
			return nil
		})
	}
	g.Wait()

	if err := p.writeDocuments(note, paths, results); err != nil {
		st.Status = types.ConversionFailed
		st.Detail = err.Error()
		return st
	}

	st.Status = types.ConversionDone
	return st
}

// writeDocuments renders and writes both output documents for a note.
func (p *Pipeline) writeDocuments(note *types.Note, paths []string, results []types.AttachmentResult) error {
	folder := keep.LabelFolder(note)
	stem := p.reserveStem(folder, keep.DocumentStem(note))

	md := render.Markdown(note, results, p.formatOn)
	if err := writeDocument(filepath.Join(p.cfg.MarkdownDir, folder, stem+".md"), md); err != nil {
		return err
	}

	html, err := render.HTML(note, paths, results, p.formatOn)
	if err != nil {
		return fmt.Errorf("rendering HTML: %w", err)
	}
	return writeDocument(filepath.Join(p.cfg.HTMLDir, folder, stem+".html"), html)
}

// reserveStem claims an output filename stem within a label folder for
// this run. Notes sharing a sanitized title get numbered suffixes instead
// of overwriting each other.
func (p *Pipeline) reserveStem(folder, stem string) string {
	p.mu.Lock()
	defer p.mu.Unlock()
	key := folder + "/" + stem
	n := p.usedStems[key]
	p.usedStems[key] = n + 1
	if n == 0 {
		return stem
	}
	return fmt.Sprintf("%s_%d", stem, n+1)
}

func writeDocument(path, content string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating output dir: %w", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// Summary holds the outcome counts of a conversion run.
type Summary struct {
	Converted int
	Skipped   int
	Failed    int
}

// Total returns the number of notes processed.
func (s Summary) Total() int {
	return s.Converted + s.Skipped + s.Failed
}

// HasFailures reports whether any notes failed conversion.
func (s Summary) HasFailures() bool {
	return s.Failed > 0
}

// Run converts every note file in the input directory, printing per-note
// progress to w. Debug mode walks the first DebugCount notes one at a
// time; otherwise notes run concurrently with at most BatchSize in
// flight, which also bounds how many attachments can compete for the
// shared OCR and correction slots. A manifest for the run is written to
// the Markdown output root.
func (p *Pipeline) Run(ctx context.Context, w io.Writer) (Summary, error) {
	files, err := keep.Discover(p.cfg.InputDir)
	if err != nil {
		return Summary{}, err
	}
	if len(files) == 0 {
		fmt.Fprintf(w, "no note files found in %s\n", p.cfg.InputDir)
		return Summary{}, nil
	}

	man := newManifest()

	if p.cfg.Debug {
		if len(files) > p.cfg.DebugCount {
			files = files[:p.cfg.DebugCount]
		}
		fmt.Fprintf(w, "debug mode: processing %d note(s)\n", len(files))
	}

	statuses := make([]NoteStatus, len(files))

	if p.cfg.Debug {
		for i, f := range files {
			if err := ctx.Err(); err != nil {
				return man.summary(), err
			}
			statuses[i] = p.ProcessNote(ctx, f)
			fmt.Fprintf(w, "[%d/%d] %s\n", i+1, len(files), statusLine(statuses[i]))
		}
	} else {
		var mu sync.Mutex
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(p.cfg.BatchSize)
		for i, f := range files {
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				st := p.ProcessNote(gctx, f)
				mu.Lock()
				statuses[i] = st
				fmt.Fprintf(w, "%s\n", statusLine(st))
				mu.Unlock()
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return man.summary(), err
		}
	}

	man.finish(statuses)
	sum := man.summary()
	fmt.Fprintf(w, "\nRun summary: %d converted, %d skipped, %d failed (total: %d)\n",
		sum.Converted, sum.Skipped, sum.Failed, sum.Total())

	if err := man.write(p.cfg.MarkdownDir); err != nil {
		slog.Warn("pipeline: writing run manifest failed", "error", err)
	}
	return sum, nil
}

// statusLine renders one per-note progress line.
func statusLine(st NoteStatus) string {
	switch st.Status {
	case types.ConversionDone:
		return fmt.Sprintf("converted: %s (%d attachments)", st.File, st.Attachments)
	case types.ConversionSkipped:
		return fmt.Sprintf("skipped: %s (%s)", st.File, st.Detail)
	default:
		return fmt.Sprintf("failed:  %s (%s)", st.File, st.Detail)
	}
}
