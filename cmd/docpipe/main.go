// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the docpipe CLI.
// Subcommands: process, batch, export, ledger, selftest, doctor, version.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/docpipe/internal/secrets"
	"github.com/pdiddy/docpipe/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// loadedSecrets holds credentials resolved from .secrets/ and the
// environment at startup.
var loadedSecrets *secrets.Store

// rootCmd is the base command for the docpipe CLI.
var rootCmd = &cobra.Command{
	Use:   "docpipe",
	Short: "Convert PDFs, images, audio and video into Markdown",
	Long: `docpipe turns heterogeneous input files into Markdown. PDFs are read page
by page, using the embedded text layer where it is dense enough and OCR where
it is not. Images are OCR'd. Audio and video are transcribed, in fixed-length
segments when the audio is large, so that a failing segment leaves a gap
instead of failing the whole file.

Every run is recorded in a SQLite ledger; batches skip files whose content
already converted.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		verbose, _ := cmd.Flags().GetBool("verbose")
		setupLogging(verbose)

		s, err := secrets.Load(secrets.DefaultDir, os.Getenv, log.Logger)
		if err != nil {
			return err
		}
		loadedSecrets = s
		for _, k := range secrets.Known {
			if src := s.Source(k); src != secrets.SourceNone {
				log.Debug().Str("secret", k.File).Str("source", string(src)).Msg("resolved secret")
			}
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	pf := rootCmd.PersistentFlags()
	pf.String("config", "", "config file (default: ./docpipe.yaml or ~/.config/docpipe/docpipe.yaml)")
	pf.BoolP("verbose", "v", false, "debug logging")
	pf.StringP("out", "o", "output", "output directory for Markdown and reports")
	pf.String("ledger", "", "processing ledger database (default: <out>/docpipe.db)")
	pf.Int("workers", types.DefaultWorkers, "pages or segments of one file processed in parallel")
	pf.Int("max-retries", types.DefaultMaxRetries, "additional attempts per page or segment (-1 disables retries)")
	pf.Duration("chunk-duration", types.DefaultAudioChunkDuration, "segment length for large audio")
	pf.String("asr", string(types.ASROpenAI), "speech recognition backend: openai or whispercpp")

	bind := map[string]string{
		"output_dir":                    "out",
		"ledger_path":                   "ledger",
		"pipeline.workers":              "workers",
		"pipeline.max_retries":          "max-retries",
		"pipeline.audio_chunk_duration": "chunk-duration",
		"asr.backend":                   "asr",
	}
	for key, flag := range bind {
		_ = viper.BindPFlag(key, pf.Lookup(flag))
	}
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("docpipe")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "docpipe"))
		}
	}

	setDefaults(viper.GetViper())
	bindEnv(viper.GetViper())

	if err := viper.ReadInConfig(); err == nil {
		log.Debug().Str("file", viper.ConfigFileUsed()).Msg("using config file")
	}
}

var pipelineKeys = []string{
	"pdf_text_min_chars",
	"audio_size_threshold_mb",
	"audio_chunk_duration",
	"max_retries",
	"max_total_retries",
	"retry_delay",
	"workers",
	"ocr_dpi",
}

// bindEnv maps DOCPIPE_<SECTION>_<KEY> variables onto config keys.
// Pipeline thresholds are also reachable without the section prefix,
// e.g. DOCPIPE_MAX_RETRIES.
func bindEnv(v *viper.Viper) {
	v.SetEnvPrefix("DOCPIPE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for _, key := range pipelineKeys {
		_ = v.BindEnv("pipeline."+key, "DOCPIPE_PIPELINE_"+strings.ToUpper(key), "DOCPIPE_"+strings.ToUpper(key))
	}
}

// setDefaults registers every config key so that env overrides apply.
func setDefaults(v *viper.Viper) {
	d := types.DefaultPipelineConfig()
	v.SetDefault("pipeline.pdf_text_min_chars", d.PDFTextMinChars)
	v.SetDefault("pipeline.audio_size_threshold_mb", d.AudioSizeThresholdMB)
	v.SetDefault("pipeline.audio_chunk_duration", d.AudioChunkDuration)
	v.SetDefault("pipeline.max_retries", d.MaxRetries)
	v.SetDefault("pipeline.max_total_retries", d.MaxTotalRetries)
	v.SetDefault("pipeline.retry_delay", d.RetryDelay)
	v.SetDefault("pipeline.workers", d.Workers)
	v.SetDefault("pipeline.ocr_dpi", d.OCRDPI)

	v.SetDefault("asr.backend", string(types.ASROpenAI))
	v.SetDefault("asr.model", "")
	v.SetDefault("asr.base_url", "")
	v.SetDefault("asr.api_key", "")
	v.SetDefault("asr.language", "")
	v.SetDefault("asr.binary", "")

	v.SetDefault("ocr.languages", []string{"eng"})
	v.SetDefault("ocr.layout", string(types.OCRLayoutPlain))

	v.SetDefault("tools.ffmpeg", "ffmpeg")
	v.SetDefault("tools.ffprobe", "ffprobe")
	v.SetDefault("tools.pdftoppm", "pdftoppm")

	v.SetDefault("output_dir", "output")
	v.SetDefault("ledger_path", "")
}

// loadConfig assembles the effective configuration from defaults, config
// file, environment, flags and secrets.
func loadConfig(v *viper.Viper) (types.Config, error) {
	var cfg types.Config
	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("decoding config: %w", err)
	}
	cfg.Pipeline = cfg.Pipeline.WithDefaults()
	if cfg.ASR.APIKey == "" {
		cfg.ASR.APIKey = loadedSecrets.Get(secrets.OpenAI)
	}
	if cfg.LedgerPath == "" {
		cfg.LedgerPath = filepath.Join(cfg.OutputDir, "docpipe.db")
	}
	return cfg, nil
}

func setupLogging(verbose bool) {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	if verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}
