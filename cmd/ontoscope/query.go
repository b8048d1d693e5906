package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"ontoscope/internal/domain"
)

var queryCmd = &cobra.Command{
	Use:   "query <url> <sparql>",
	Short: "Run a SPARQL query against an ontology",
	Long: `Run a SELECT or ASK query against the ontology at url. Pass "-" as the
query to read it from standard input.`,
	Args: cobra.ExactArgs(2),
	RunE: runQuery,
}

func init() {
	queryCmd.Flags().Bool("json", false, "output results as JSON")

	rootCmd.AddCommand(queryCmd)
}

func runQuery(cmd *cobra.Command, args []string) error {
	src := args[1]
	if src == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return fmt.Errorf("read query: %w", err)
		}
		src = string(data)
	}

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

	result, err := explorer.Query(cmd.Context(), ont, src)
	if err != nil {
		return fmt.Errorf("SPARQL Query Error: %w", err)
	}

	out := cmd.OutOrStdout()
	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}
	if err := writeResult(out, result); err != nil {
		return err
	}
	if result.Truncated {
		fmt.Fprintf(os.Stderr, "Results truncated to %d rows\n", len(result.Rows))
	}
	return nil
}

// writeResult prints a query result as an aligned table
func writeResult(w io.Writer, result *domain.QueryResult) error {
	if result.Form == domain.QueryFormAsk {
		_, err := fmt.Fprintln(w, result.Boolean)
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	header := make([]string, len(result.Vars))
	for i, v := range result.Vars {
		header[i] = "?" + v
	}
	fmt.Fprintln(tw, strings.Join(header, "\t"))
	for _, row := range result.Rows {
		cells := make([]string, len(row))
		for i, t := range row {
			cells[i] = t.String()
		}
		fmt.Fprintln(tw, strings.Join(cells, "\t"))
	}
	return tw.Flush()
}
