// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/docpipe/internal/convert"
	"github.com/pdiddy/docpipe/internal/pipeline"
	"github.com/pdiddy/docpipe/internal/report"
)

var batchCmd = &cobra.Command{
	Use:   "batch [input-dir]",
	Short: "Convert every supported file in a directory",
	Long: `Batch scans the input directory (not recursively) for supported files,
converts PDFs first, then images, audio and video, smallest first within each
kind. Files whose content already converted are skipped unless --force is set.
A report is written to the output directory as batch_report_<timestamp> in
JSON, YAML and XLSX.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runBatch,
}

func runBatch(cmd *cobra.Command, args []string) error {
	input := "input"
	if len(args) == 1 {
		input = args[0]
	}
	force, _ := cmd.Flags().GetBool("force")
	formats, err := reportFormats(cmd)
	if err != nil {
		return err
	}

	cfg, err := loadConfig(viper.GetViper())
	if err != nil {
		return err
	}

	if _, err := os.Stat(input); os.IsNotExist(err) {
		if err := os.MkdirAll(input, 0o755); err != nil {
			return err
		}
		fmt.Printf("Created input directory %s; add files and run again.\n", input)
		return nil
	}

	files, err := convert.Scan(input)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		fmt.Printf("No supported files in %s (supported: %s)\n", input, strings.Join(pipeline.SupportedExtensions(), " "))
		return nil
	}
	log.Info().Str("input", input).Int("files", len(files)).Msg("batch starting")

	conv, store, err := newConverter(cfg, force, log.Logger)
	if err != nil {
		return err
	}
	defer store.Close()

	abs, _ := filepath.Abs(input)
	result := conv.ConvertBatch(cmd.Context(), convert.Paths(files), abs, os.Stdout)

	paths, err := report.Write(result.Report, cfg.OutputDir, formats...)
	if err != nil {
		return err
	}
	for _, p := range paths {
		fmt.Printf("Report: %s\n", p)
	}
	if result.HasFailures() {
		return fmt.Errorf("%d file(s) failed", result.Failed)
	}
	return nil
}

func reportFormats(cmd *cobra.Command) ([]report.Format, error) {
	names, _ := cmd.Flags().GetStringSlice("report")
	var formats []report.Format
	for _, n := range names {
		f := report.Format(strings.ToLower(strings.TrimSpace(n)))
		switch f {
		case report.FormatJSON, report.FormatYAML, report.FormatXLSX:
			formats = append(formats, f)
		default:
			return nil, fmt.Errorf("unknown report format %q", n)
		}
	}
	return formats, nil
}

func init() {
	batchCmd.Flags().Bool("force", false, "reconvert files that already succeeded")
	batchCmd.Flags().StringSlice("report", []string{"json", "yaml", "xlsx"}, "report formats to write")

	rootCmd.AddCommand(batchCmd)
}
