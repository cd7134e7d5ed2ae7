// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/docpipe/internal/report"
)

var processCmd = &cobra.Command{
	Use:   "process <file>",
	Short: "Convert one file to Markdown",
	Long: `Process classifies one file, picks an extraction strategy and writes
<out>/<name>.md with YAML frontmatter (source, format, strategy, run_id,
converted_at, partial). The run is recorded in the ledger. The command exits
non-zero when the file fails.`,
	Args: cobra.ExactArgs(1),
	RunE: runProcess,
}

func runProcess(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(viper.GetViper())
	if err != nil {
		return err
	}
	conv, store, err := newConverter(cfg, true, log.Logger)
	if err != nil {
		return err
	}
	defer store.Close()

	res := conv.ConvertFile(cmd.Context(), args[0], os.Stdout)
	if res.Status != report.StatusConverted {
		return fmt.Errorf("processing %s failed", args[0])
	}
	return nil
}

func init() {
	rootCmd.AddCommand(processCmd)
}
