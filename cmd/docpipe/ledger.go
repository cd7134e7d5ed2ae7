// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/docpipe/internal/ledger"
)

var ledgerCmd = &cobra.Command{
	Use:   "ledger",
	Short: "Inspect and export the processing ledger",
}

var ledgerListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recorded runs, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, opts, err := openLedger(cmd)
		if err != nil {
			return err
		}
		defer store.Close()

		entries, err := store.List(cmd.Context(), opts)
		if err != nil {
			return err
		}
		if len(entries) == 0 {
			fmt.Println("No runs recorded.")
			return nil
		}
		fmt.Printf("%-20s  %-8s  %-14s  %-7s  %8s  %s\n", "Processed", "Status", "Strategy", "Units", "Seconds", "File")
		fmt.Println(strings.Repeat("-", 90))
		for _, e := range entries {
			status := "ok"
			switch {
			case !e.Success:
				status = "failed"
			case e.Partial:
				status = "partial"
			}
			fmt.Printf("%-20s  %-8s  %-14s  %-7d  %8.1f  %s\n",
				e.ProcessedAt.Local().Format(time.DateTime), status, e.Strategy, e.Units, e.Duration.Seconds(), e.Name)
		}
		return nil
	},
}

var ledgerExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export recorded runs as YAML or JSON",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, opts, err := openLedger(cmd)
		if err != nil {
			return err
		}
		defer store.Close()

		var w io.Writer = os.Stdout
		if path, _ := cmd.Flags().GetString("file"); path != "" {
			f, err := os.Create(path)
			if err != nil {
				return err
			}
			defer f.Close()
			w = f
		}

		format, _ := cmd.Flags().GetString("format")
		switch strings.ToLower(format) {
		case "yaml", "yml":
			return store.ExportYAML(cmd.Context(), w, opts)
		case "json":
			return store.ExportJSON(cmd.Context(), w, opts)
		}
		return fmt.Errorf("unknown export format %q (want yaml or json)", format)
	},
}

func openLedger(cmd *cobra.Command) (*ledger.Store, ledger.ListOptions, error) {
	cfg, err := loadConfig(viper.GetViper())
	if err != nil {
		return nil, ledger.ListOptions{}, err
	}
	failed, _ := cmd.Flags().GetBool("failed")
	limit, _ := cmd.Flags().GetInt("limit")
	store, err := ledger.Open(cfg.LedgerPath)
	if err != nil {
		return nil, ledger.ListOptions{}, err
	}
	return store, ledger.ListOptions{Limit: limit, FailedOnly: failed}, nil
}

func init() {
	ledgerCmd.PersistentFlags().Bool("failed", false, "only unsuccessful runs")
	ledgerCmd.PersistentFlags().Int("limit", 0, "maximum number of runs (0 for all)")
	ledgerExportCmd.Flags().String("format", "yaml", "yaml or json")
	ledgerExportCmd.Flags().String("file", "", "write to a file instead of stdout")

	ledgerCmd.AddCommand(ledgerListCmd)
	ledgerCmd.AddCommand(ledgerExportCmd)
	rootCmd.AddCommand(ledgerCmd)
}
