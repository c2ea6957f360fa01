package types

import "time"

// OCRConfig holds settings for the text-extraction stage.
type OCRConfig struct {
	// Languages lists Tesseract language hints (default ["eng"]).
	Languages []string `json:"languages" yaml:"languages"`

	// Concurrency caps simultaneous OCR computations across the whole
	// run (default 4). Cache hits do not consume a slot.
	Concurrency int `json:"concurrency" yaml:"concurrency"`
}

// FormatConfig holds settings for the text-correction stage.
type FormatConfig struct {
	// Enabled toggles the correction pass. When false every attachment
	// yields (raw, raw).
	Enabled bool `json:"enabled" yaml:"enabled"`

	// Model is the chat model identifier (default "gpt-4o-mini").
	Model string `json:"model" yaml:"model"`

	// APIKey authenticates against the correction endpoint. Required
	// when Enabled is true.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// BaseURL is the API root (default "https://api.openai.com/v1").
	BaseURL string `json:"base_url" yaml:"base_url"`

	// MaxRetries is the number of attempts per correction call
	// (default 3).
	MaxRetries int `json:"max_retries" yaml:"max_retries"`

	// RetryBaseDelay is the first backoff delay; it doubles each
	// attempt (default 500ms).
	RetryBaseDelay time.Duration `json:"retry_base_delay" yaml:"retry_base_delay"`

	// Timeout bounds each individual request (default 30s).
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// MaxConns caps simultaneous connections to the endpoint
	// (default 5).
	MaxConns int `json:"max_conns" yaml:"max_conns"`
}

// ConvertConfig holds settings for the batch conversion run.
type ConvertConfig struct {
	// InputDir contains the exported note JSON files.
	InputDir string `json:"input_dir" yaml:"input_dir"`

	// AttachmentsDir contains the attachment files the notes reference.
	// Takeout keeps both in the same folder; defaults to InputDir.
	AttachmentsDir string `json:"attachments_dir" yaml:"attachments_dir"`

	// MarkdownDir is the root for generated Markdown (default "output_markdown").
	MarkdownDir string `json:"markdown_dir" yaml:"markdown_dir"`

	// HTMLDir is the root for generated HTML (default "output_html").
	HTMLDir string `json:"html_dir" yaml:"html_dir"`

	// CacheDir is the root for the OCR and formatting caches (default "cache").
	CacheDir string `json:"cache_dir" yaml:"cache_dir"`

	// Debug limits the run to the first DebugCount notes, processed one
	// at a time.
	Debug bool `json:"debug" yaml:"debug"`

	// DebugCount is the number of notes processed in debug mode
	// (default 15).
	DebugCount int `json:"debug_count" yaml:"debug_count"`

	// BatchSize caps the number of notes in flight at once (default 10).
	BatchSize int `json:"batch_size" yaml:"batch_size"`
}

// IndexConfig holds settings for the note search index.
type IndexConfig struct {
	// IndexDir is the directory holding the SQLite database (default "index").
	IndexDir string `json:"index_dir" yaml:"index_dir"`

	// MaxResults is the default result cap for searches (default 20).
	MaxResults int `json:"max_results" yaml:"max_results"`
}

// PreviewConfig holds settings for the local preview server.
type PreviewConfig struct {
	// Addr is the listen address (default "127.0.0.1:8675").
	Addr string `json:"addr" yaml:"addr"`
}

// PipelineConfig groups all stage configurations.
type PipelineConfig struct {
	OCR     OCRConfig     `json:"ocr" yaml:"ocr"`
	Format  FormatConfig  `json:"format" yaml:"format"`
	Convert ConvertConfig `json:"convert" yaml:"convert"`
	Index   IndexConfig   `json:"index" yaml:"index"`
	Preview PreviewConfig `json:"preview" yaml:"preview"`
}
