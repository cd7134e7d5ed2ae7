// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// Defaults for PipelineConfig. Zero values in a loaded config are replaced
// by these in WithDefaults.
const (
	DefaultPDFTextMinChars      = 50
	DefaultAudioSizeThresholdMB = 10
	DefaultAudioChunkDuration   = 30 * time.Second
	DefaultMaxRetries           = 3
	DefaultMaxTotalRetries      = 10
	DefaultWorkers              = 1
	DefaultOCRDPI               = 200
)

// NoRetries is the MaxRetries value that disables retrying. Zero means
// "unset" like every other field and takes DefaultMaxRetries.
const NoRetries = -1

// PipelineConfig holds the thresholds consumed by the routing engine. It is
// passed to the router at construction so that files processed concurrently
// can use different settings.
type PipelineConfig struct {
	// PDFTextMinChars is the per-page character count at or above which the
	// native text layer is used instead of OCR (default 50).
	PDFTextMinChars int `json:"pdf_text_min_chars" yaml:"pdf_text_min_chars" mapstructure:"pdf_text_min_chars"`

	// AudioSizeThresholdMB is the audio size in MiB above which audio is
	// processed in chunks (default 10).
	AudioSizeThresholdMB int `json:"audio_size_threshold_mb" yaml:"audio_size_threshold_mb" mapstructure:"audio_size_threshold_mb"`

	// AudioChunkDuration is the nominal segment length for chunked audio
	// (default 30s). Smaller values lower peak memory.
	AudioChunkDuration time.Duration `json:"audio_chunk_duration" yaml:"audio_chunk_duration" mapstructure:"audio_chunk_duration"`

	// MaxRetries is the number of additional attempts per unit (default 3).
	// A unit that always fails is attempted 1+MaxRetries times. Any negative
	// value, such as NoRetries, means a single attempt.
	MaxRetries int `json:"max_retries" yaml:"max_retries" mapstructure:"max_retries"`

	// MaxTotalRetries bounds whole-pipeline re-runs in the self-test driver
	// (default 10). The file-processing path never reads it.
	MaxTotalRetries int `json:"max_total_retries" yaml:"max_total_retries" mapstructure:"max_total_retries"`

	// RetryDelay is an optional pause between unit attempts (default 0).
	RetryDelay time.Duration `json:"retry_delay" yaml:"retry_delay" mapstructure:"retry_delay"`

	// Workers bounds how many pages or segments of one file run at once
	// (default 1, sequential).
	Workers int `json:"workers" yaml:"workers" mapstructure:"workers"`

	// OCRDPI is the rasterisation resolution for OCR'd PDF pages (default 200).
	OCRDPI int `json:"ocr_dpi" yaml:"ocr_dpi" mapstructure:"ocr_dpi"`
}

// WithDefaults returns a copy of c with every unset field filled in.
func (c PipelineConfig) WithDefaults() PipelineConfig {
	if c.PDFTextMinChars <= 0 {
		c.PDFTextMinChars = DefaultPDFTextMinChars
	}
	if c.AudioSizeThresholdMB <= 0 {
		c.AudioSizeThresholdMB = DefaultAudioSizeThresholdMB
	}
	if c.AudioChunkDuration <= 0 {
		c.AudioChunkDuration = DefaultAudioChunkDuration
	}
	if c.MaxRetries == 0 {
		c.MaxRetries = DefaultMaxRetries
	}
	if c.MaxTotalRetries <= 0 {
		c.MaxTotalRetries = DefaultMaxTotalRetries
	}
	if c.RetryDelay < 0 {
		c.RetryDelay = 0
	}
	if c.Workers <= 0 {
		c.Workers = DefaultWorkers
	}
	if c.OCRDPI <= 0 {
		c.OCRDPI = DefaultOCRDPI
	}
	return c
}

// Retries returns the number of additional attempts per unit, with
// negative values folded to zero.
func (c PipelineConfig) Retries() int {
	return max(c.MaxRetries, 0)
}

// AudioSizeThresholdBytes returns the chunking threshold in bytes (MiB × 2^20).
func (c PipelineConfig) AudioSizeThresholdBytes() int64 {
	return int64(c.AudioSizeThresholdMB) << 20
}

// DefaultPipelineConfig returns the documented defaults.
func DefaultPipelineConfig() PipelineConfig {
	return PipelineConfig{}.WithDefaults()
}

// ASRBackend identifies the speech recognition engine.
type ASRBackend string

const (
	ASROpenAI     ASRBackend = "openai"
	ASRWhisperCPP ASRBackend = "whispercpp"
)

// ASRConfig selects and configures the speech recognition backend.
type ASRConfig struct {
	// Backend is openai or whispercpp.
	Backend ASRBackend `json:"backend" yaml:"backend" mapstructure:"backend"`

	// Model is the OpenAI model name ("whisper-1") or the whisper.cpp model path.
	Model string `json:"model" yaml:"model" mapstructure:"model"`

	// BaseURL overrides the OpenAI-compatible endpoint.
	BaseURL string `json:"base_url,omitempty" yaml:"base_url,omitempty" mapstructure:"base_url"`

	// APIKey authenticates against the OpenAI-compatible endpoint.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty" mapstructure:"api_key"`

	// Language is an optional ISO-639-1 hint.
	Language string `json:"language,omitempty" yaml:"language,omitempty" mapstructure:"language"`

	// Binary is the whisper.cpp CLI name or path.
	Binary string `json:"binary,omitempty" yaml:"binary,omitempty" mapstructure:"binary"`
}

// OCRLayout selects how OCR output is shaped.
type OCRLayout string

const (
	OCRLayoutPlain OCRLayout = "plain"
	OCRLayoutHOCR  OCRLayout = "hocr"
)

// OCRConfig configures the tesseract OCR backend.
type OCRConfig struct {
	// Languages are tesseract language codes (default "eng").
	Languages []string `json:"languages" yaml:"languages" mapstructure:"languages"`

	// Layout is plain (default) or hocr.
	Layout OCRLayout `json:"layout" yaml:"layout" mapstructure:"layout"`
}

// ToolsConfig names the external binaries used by the media and raster backends.
type ToolsConfig struct {
	FFmpeg   string `json:"ffmpeg" yaml:"ffmpeg" mapstructure:"ffmpeg"`
	FFprobe  string `json:"ffprobe" yaml:"ffprobe" mapstructure:"ffprobe"`
	Pdftoppm string `json:"pdftoppm" yaml:"pdftoppm" mapstructure:"pdftoppm"`
}

// Config groups everything the CLI assembles from flags, env and file.
type Config struct {
	Pipeline PipelineConfig `json:"pipeline" yaml:"pipeline" mapstructure:"pipeline"`
	ASR      ASRConfig      `json:"asr" yaml:"asr" mapstructure:"asr"`
	OCR      OCRConfig      `json:"ocr" yaml:"ocr" mapstructure:"ocr"`
	Tools    ToolsConfig    `json:"tools" yaml:"tools" mapstructure:"tools"`

	// OutputDir receives Markdown files and batch reports.
	OutputDir string `json:"output_dir" yaml:"output_dir" mapstructure:"output_dir"`

	// LedgerPath is the SQLite processing ledger (default <output>/docpipe.db).
	LedgerPath string `json:"ledger_path" yaml:"ledger_path" mapstructure:"ledger_path"`
}
