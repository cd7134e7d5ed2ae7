// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/docpipe/internal/asr"
	"github.com/pdiddy/docpipe/internal/ffmpeg"
	"github.com/pdiddy/docpipe/internal/ocr"
	"github.com/pdiddy/docpipe/internal/poppler"
	"github.com/pdiddy/docpipe/internal/tool"
	"github.com/pdiddy/docpipe/pkg/types"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check external tools and backend configuration",
	Long: `Doctor reports whether ffmpeg, ffprobe and pdftoppm are on PATH, which
tesseract library is linked, and whether the speech recognition backend is
usable. It exits non-zero when a required piece is missing.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(viper.GetViper())
		if err != nil {
			return err
		}
		return doctor(cfg, tool.NewExecutor(log.Logger), os.Stdout)
	},
}

func doctor(cfg types.Config, exec tool.Executor, w io.Writer) error {
	reqs := ffmpeg.New(exec, cfg.Tools).Requirements()
	reqs = append(reqs, poppler.NewRenderer(exec, cfg.Tools.Pdftoppm).Requirement())

	_, asrErr := asr.New(cfg.ASR, exec, log.Logger)
	if cfg.ASR.Backend == types.ASRWhisperCPP && asrErr == nil {
		wc, _ := asr.NewWhisperCPP(cfg.ASR, exec)
		reqs = append(reqs, wc.Requirement())
	}

	statuses := tool.Detect(exec, reqs...)
	for _, s := range statuses {
		switch {
		case s.Found():
			fmt.Fprintf(w, "ok:      %-10s %s\n", s.Name, s.Path)
		case s.Required:
			fmt.Fprintf(w, "missing: %-10s (required)\n", s.Name)
		default:
			fmt.Fprintf(w, "missing: %-10s (optional)\n", s.Name)
		}
	}
	fmt.Fprintf(w, "ok:      %-10s %s\n", "tesseract", ocr.Version())

	backend := cfg.ASR.Backend
	if backend == "" {
		backend = types.ASROpenAI
	}
	if asrErr != nil {
		fmt.Fprintf(w, "missing: %-10s %v\n", "asr", asrErr)
	} else {
		fmt.Fprintf(w, "ok:      %-10s %s\n", "asr", backend)
	}

	if err := tool.Missing(statuses); err != nil {
		return err
	}
	return asrErr
}

func init() {
	rootCmd.AddCommand(doctorCmd)
}
