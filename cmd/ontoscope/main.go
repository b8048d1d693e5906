// Package main is the entry point for the ontoscope CLI and server.
package main

import (
	"log"
	"os"

	"github.com/spf13/cobra"

	"ontoscope/internal/config"
	"ontoscope/internal/fetch"
	"ontoscope/internal/metrics"
	"ontoscope/internal/render"
	"ontoscope/internal/service"
	"ontoscope/internal/sparql"
)

// version is set at build time via ldflags.
var version = "dev"

// rootCmd is the base command for the ontoscope CLI.
var rootCmd = &cobra.Command{
	Use:   "ontoscope",
	Short: "Explore OWL and RDF ontologies",
	Long: `ontoscope loads an ontology from a URL and shows its classes, properties,
class hierarchy and sample triples, and runs SPARQL queries against it.

Run "ontoscope serve" for the web explorer, or use the summary, query,
hierarchy and export subcommands from the shell.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "config file (default: $ONTOSCOPE_CONFIG, ./ontoscope.yaml or ~/.config/ontoscope/config.yaml)")
}

// loadConfig reads the --config file or discovers one. The returned path
// is empty when the defaults are used.
func loadConfig() (*config.Config, string, error) {
	path, _ := rootCmd.PersistentFlags().GetString("config")
	cfg, found, err := config.LoadOrDiscover(path)
	if err != nil {
		return nil, found, err
	}
	if found != "" {
		log.Printf("Using config file: %s", found)
	}
	return cfg, found, nil
}

// newExplorer wires an explorer from configuration
func newExplorer(cfg *config.Config, m *metrics.Metrics) *service.Explorer {
	fetcher := fetch.New(fetch.Options{
		Timeout:        cfg.Fetch.Timeout.Duration(),
		UserAgent:      cfg.Fetch.UserAgent,
		MaxContentSize: cfg.Fetch.MaxBytes,
		MaxRetries:     cfg.Fetch.MaxRetries,
		BlockPrivate:   cfg.Fetch.BlockPrivate,
	})
	renderer := render.New(render.Options{
		Height:    cfg.Render.Height,
		Width:     cfg.Render.Width,
		ScriptURL: cfg.Render.VisNetworkURL,
	})

	return service.NewExplorer(fetcher, renderer, m, service.Options{
		DefaultQuery:     cfg.Explorer.DefaultQuery,
		SampleLimit:      cfg.Explorer.SampleLimit,
		PropertyTypes:    cfg.Explorer.PropertyTypes,
		SkipBlankParents: cfg.Explorer.SkipBlankParents,
		Limits: sparql.Limits{
			MaxScan: cfg.Explorer.MaxScan,
			MaxRows: cfg.Explorer.MaxRows,
		},
		LoadTimeout: fetcher.MaxDuration(),
	})
}

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
