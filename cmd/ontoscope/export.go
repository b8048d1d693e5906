package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var exportCmd = &cobra.Command{
	Use:   "export <url>",
	Short: "Export the summary, hierarchy, properties and sample triples",
	Args:  cobra.ExactArgs(1),
	RunE:  runExport,
}

func init() {
	exportCmd.Flags().String("format", "json", "report format: json or yaml")
	exportCmd.Flags().StringP("output", "o", "", "write the report to this file instead of stdout")

	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("format")
	output, _ := cmd.Flags().GetString("output")

	cfg, _, err := loadConfig()
	if err != nil {
		return err
	}
	explorer := newExplorer(cfg, nil)
	ont, err := explorer.Load(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	defer ont.Close()

	if output == "" {
		return explorer.Export(cmd.Context(), ont, format, cmd.OutOrStdout())
	}

	f, err := os.Create(output)
	if err != nil {
		return fmt.Errorf("create %s: %w", output, err)
	}
	if err := explorer.Export(cmd.Context(), ont, format, f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
