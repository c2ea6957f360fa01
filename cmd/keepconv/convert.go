// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/pdiddy/keepconv/internal/cache"
	"github.com/pdiddy/keepconv/internal/format"
	"github.com/pdiddy/keepconv/internal/ocr"
	"github.com/pdiddy/keepconv/internal/pipeline"
	"github.com/pdiddy/keepconv/pkg/types"
)

var convertCmd = &cobra.Command{
	Use:   "convert",
	Short: "Convert exported notes to Markdown and HTML documents",
	Long: `Convert reads every note JSON file in the input directory, runs OCR on
image attachments, optionally corrects the extracted text through the
configured language model, and writes one Markdown and one HTML document
per note, grouped into label subfolders.

OCR and correction results are cached on disk, so re-running a
conversion only pays for notes and attachments it has not seen before.`,
	RunE: runConvert,
}

func runConvert(cmd *cobra.Command, args []string) error {
	convertCfg := types.ConvertConfig{
		InputDir:       stringSetting(cmd, "input-dir", "convert.input_dir"),
		AttachmentsDir: stringSetting(cmd, "attachments-dir", "convert.attachments_dir"),
		MarkdownDir:    stringSetting(cmd, "markdown-dir", "convert.markdown_dir"),
		HTMLDir:        stringSetting(cmd, "html-dir", "convert.html_dir"),
		CacheDir:       stringSetting(cmd, "cache-dir", "convert.cache_dir"),
		Debug:          boolSetting(cmd, "debug", "convert.debug"),
		DebugCount:     intSetting(cmd, "count", "convert.debug_count"),
		BatchSize:      intSetting(cmd, "batch-size", "convert.batch_size"),
	}
	ocrCfg := types.OCRConfig{
		Concurrency: intSetting(cmd, "ocr-concurrency", "ocr.concurrency"),
	}
	if lang := stringSetting(cmd, "lang", "ocr.lang"); lang != "" {
		ocrCfg.Languages = []string{lang}
	}
	formatCfg := types.FormatConfig{
		Enabled:        !boolSetting(cmd, "ocr-only", "format.disabled"),
		Model:          stringSetting(cmd, "model", "format.model"),
		BaseURL:        stringSetting(cmd, "base-url", "format.base_url"),
		MaxRetries:     intSetting(cmd, "retries", "format.max_retries"),
		RetryBaseDelay: time.Duration(intSetting(cmd, "retry-delay-ms", "format.retry_delay_ms")) * time.Millisecond,
		Timeout:        time.Duration(intSetting(cmd, "timeout-sec", "format.timeout_sec")) * time.Second,
		MaxConns:       intSetting(cmd, "max-conns", "format.max_conns"),
	}
	apiKey, _ := cmd.Flags().GetString("api-key")
	formatCfg.APIKey = resolveAPIKey(apiKey)

	// Fatal pre-checks: nothing is processed with a broken setup.
	if _, err := os.ReadDir(convertCfg.InputDir); err != nil {
		return fmt.Errorf("input directory not readable: %w", err)
	}
	if formatCfg.Enabled && formatCfg.APIKey == "" {
		return fmt.Errorf("text correction is enabled but no API key is configured; " +
			"set OPENAI_API_KEY, .secrets/openai-api-key, or --api-key, or pass --ocr-only")
	}

	cacheDir := convertCfg.CacheDir
	if cacheDir == "" {
		cacheDir = "cache"
	}
	ocrCache, err := cache.New(filepath.Join(cacheDir, "ocr"))
	if err != nil {
		return err
	}
	formatCache, err := cache.New(filepath.Join(cacheDir, "formatting"))
	if err != nil {
		return err
	}

	ocrStage := ocr.NewStage(ocrCache, ocr.NewTesseractEngine(), ocrCfg)
	formatStage := format.NewStage(formatCache, format.NewOpenAIBackend(formatCfg), formatCfg)
	p := pipeline.New(ocrStage, formatStage, formatCache, convertCfg, formatCfg.Enabled)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	summary, err := p.Run(ctx, os.Stdout)
	if err != nil {
		return err
	}
	if summary.HasFailures() {
		return fmt.Errorf("%d note(s) failed conversion", summary.Failed)
	}
	return nil
}

func init() {
	convertCmd.Flags().String("input-dir", "notes", "directory of exported note JSON files")
	convertCmd.Flags().String("attachments-dir", "", "directory of attachment files (default: input dir)")
	convertCmd.Flags().String("markdown-dir", "output_markdown", "output root for Markdown documents")
	convertCmd.Flags().String("html-dir", "output_html", "output root for HTML documents")
	convertCmd.Flags().String("cache-dir", "cache", "root for the OCR and formatting caches")
	convertCmd.Flags().Bool("debug", false, "process only the first --count notes, one at a time")
	convertCmd.Flags().Int("count", 15, "number of notes to process in debug mode")
	convertCmd.Flags().Int("batch-size", 10, "maximum notes in flight at once")
	convertCmd.Flags().Bool("ocr-only", false, "skip the text-correction pass")
	convertCmd.Flags().Int("ocr-concurrency", 4, "maximum simultaneous OCR extractions")
	convertCmd.Flags().String("lang", "", "Tesseract language hint (default: eng)")
	convertCmd.Flags().String("model", "gpt-4o-mini", "chat model for text correction")
	convertCmd.Flags().String("base-url", "", "correction API root (default: https://api.openai.com/v1)")
	convertCmd.Flags().String("api-key", "", "correction API key (overrides env and .secrets)")
	convertCmd.Flags().Int("retries", 3, "attempts per correction call")
	convertCmd.Flags().Int("retry-delay-ms", 500, "base backoff delay between correction attempts")
	convertCmd.Flags().Int("timeout-sec", 30, "per-request correction timeout")
	convertCmd.Flags().Int("max-conns", 5, "maximum connections to the correction endpoint")

	rootCmd.AddCommand(convertCmd)
}
