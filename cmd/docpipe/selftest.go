// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"errors"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/docpipe/internal/selftest"
)

var selftestCmd = &cobra.Command{
	Use:   "selftest <dir>",
	Short: "Run the pipeline end to end on sample files",
	Long: `Selftest picks the smallest PDF, audio or video, and image in dir and runs
each through the full pipeline, repeating a failed kind up to
pipeline.max_total_retries times with --wait between runs.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(viper.GetViper())
		if err != nil {
			return err
		}
		wait, _ := cmd.Flags().GetDuration("wait")
		if runs, _ := cmd.Flags().GetInt("max-runs"); runs > 0 {
			cfg.Pipeline.MaxTotalRetries = runs
		}

		conv, store, err := newConverter(cfg, true, log.Logger)
		if err != nil {
			return err
		}
		defer store.Close()

		d := selftest.New(conv, cfg.Pipeline.MaxTotalRetries, wait, log.Logger)
		results, err := d.Run(cmd.Context(), args[0], os.Stdout)
		if err != nil {
			return err
		}
		if !selftest.AllPassed(results) {
			return errors.New("self-test failed")
		}
		return nil
	},
}

func init() {
	selftestCmd.Flags().Duration("wait", selftest.DefaultWait, "pause between runs of a failing kind")
	selftestCmd.Flags().Int("max-runs", 0, "runs per kind (default: pipeline.max_total_retries)")

	rootCmd.AddCommand(selftestCmd)
}
