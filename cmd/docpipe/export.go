// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pdiddy/docpipe/internal/transcript"
)

var exportCmd = &cobra.Command{
	Use:   "export <file.md>",
	Short: "Export a Markdown transcript as SRT, VTT, JSON or plain text",
	Long: `Export reads a Markdown file written by process or batch and renders its
timestamped lines as subtitles or structured data. Documents without
timestamps become a single cue.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name, _ := cmd.Flags().GetString("format")
		f, err := transcript.ParseFormat(name)
		if err != nil {
			return err
		}
		out, _ := cmd.Flags().GetString("output")
		path, err := transcript.ExportFile(args[0], f, out)
		if err != nil {
			return err
		}
		fmt.Printf("exported: %s\n", path)
		return nil
	},
}

func init() {
	exportCmd.Flags().StringP("format", "f", string(transcript.FormatSRT), "srt, vtt, json or txt")
	exportCmd.Flags().String("output", "", "output path (default: next to the input)")

	rootCmd.AddCommand(exportCmd)
}
