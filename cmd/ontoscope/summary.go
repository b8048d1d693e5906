package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var summaryCmd = &cobra.Command{
	Use:   "summary <url>",
	Short: "Print the class and property counts of an ontology",
	Args:  cobra.ExactArgs(1),
	RunE:  runSummary,
}

func init() {
	summaryCmd.Flags().String("format", "text", "output format: text, json or yaml")

	rootCmd.AddCommand(summaryCmd)
}

func runSummary(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("format")
	if format != "text" && format != "json" && format != "yaml" {
		return fmt.Errorf("unsupported format %q", format)
	}

	cfg, _, err := loadConfig()
	if err != nil {
		return err
	}
	ont, err := newExplorer(cfg, nil).Load(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	defer ont.Close()

	s := ont.Summary()
	out := cmd.OutOrStdout()
	switch format {
	case "json":
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(s)
	case "yaml":
		enc := yaml.NewEncoder(out)
		defer enc.Close()
		return enc.Encode(s)
	}

	fmt.Fprintf(out, "Ontology: %s\n", s.URL)
	fmt.Fprintf(out, "Total Classes: %d\n", s.ClassCount)
	fmt.Fprintf(out, "Total Properties: %d\n", s.PropertyCount)
	fmt.Fprintf(out, "Total Triples: %d\n", s.TripleCount)
	if len(s.Classes) > 0 {
		fmt.Fprintln(out, "\nClasses:")
		for _, c := range s.Classes {
			fmt.Fprintf(out, "  %s\n", c)
		}
	}
	if len(s.Properties) > 0 {
		fmt.Fprintln(out, "\nProperties:")
		for _, p := range s.Properties {
			fmt.Fprintf(out, "  %s\n", p)
		}
	}
	return nil
}
