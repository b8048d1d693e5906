package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var hierarchyCmd = &cobra.Command{
	Use:   "hierarchy <url>",
	Short: "Print the class hierarchy of an ontology",
	Long: `Print every superclass -> subclass edge of the ontology at url. With
--html the interactive network is also written to a standalone HTML file.`,
	Args: cobra.ExactArgs(1),
	RunE: runHierarchy,
}

func init() {
	hierarchyCmd.Flags().String("html", "", "write the network visualization to this file")

	rootCmd.AddCommand(hierarchyCmd)
}

func runHierarchy(cmd *cobra.Command, args []string) error {
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

	h := ont.Hierarchy(cfg.Explorer.SkipBlankParents)
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Nodes: %d, Edges: %d\n", h.NodeCount(), h.EdgeCount())
	for _, e := range h.Edges() {
		fmt.Fprintf(out, "%s -> %s\n", e.Parent, e.Child)
	}

	path, _ := cmd.Flags().GetString("html")
	if path == "" {
		return nil
	}
	_, doc, err := explorer.RenderGraph(ont)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, doc, 0644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	fmt.Fprintf(os.Stderr, "Wrote %s\n", path)
	return nil
}
