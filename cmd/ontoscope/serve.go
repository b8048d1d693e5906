package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"ontoscope/internal/config"
	"ontoscope/internal/handler"
	"ontoscope/internal/metrics"
	"ontoscope/internal/watcher"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the web explorer",
	Long: `Serve the explorer page at / together with the JSON API under /api,
Prometheus metrics at /metrics and a health check at /healthz.

With --watch the config file is reloaded when it changes. Listen address
and server timeouts only change on restart.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().String("addr", "", "HTTP listen address (overrides server.addr)")
	serveCmd.Flags().Bool("watch", false, "reload the config file when it changes")

	rootCmd.AddCommand(serveCmd)
}

// buildHandler wires the routes and middleware for cfg
func buildHandler(cfg *config.Config, m *metrics.Metrics) http.Handler {
	explorer := newExplorer(cfg, m)

	// Setup routes
	mux := http.NewServeMux()
	handler.NewExplorerHandler(explorer, cfg.Explorer.DefaultURL).Register(mux)
	mux.Handle("GET /metrics", m.Handler())

	// Apply middleware
	return handler.Chain(mux,
		handler.Recover,
		handler.CORS(cfg.Server.AllowedOrigins),
		handler.Logger(m),
	)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, cfgPath, err := loadConfig()
	if err != nil {
		return err
	}
	addr, _ := cmd.Flags().GetString("addr")
	if addr != "" {
		cfg.Server.Addr = addr
	}

	log.Println("Starting Ontoscope server...")
	log.Printf("Config: %s", cfg.Summary())

	m := metrics.New()
	root := handler.NewReloadable(buildHandler(cfg, m))

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	if watch, _ := cmd.Flags().GetBool("watch"); watch {
		if cfgPath == "" {
			log.Printf("No config file to watch, using defaults")
		} else {
			w := watcher.New(cfgPath, func() {
				next, _, err := config.LoadFromPath(cfgPath)
				if err != nil {
					log.Printf("Keeping current config, reload failed: %v", err)
					return
				}
				if addr != "" {
					next.Server.Addr = addr
				}
				if next.Server.Addr != cfg.Server.Addr {
					log.Printf("server.addr changed to %s, restart to apply", next.Server.Addr)
				}
				root.Store(buildHandler(next, m))
				log.Printf("Config reloaded: %s", next.Summary())
			})
			go func() {
				if err := w.Watch(ctx); err != nil && ctx.Err() == nil {
					log.Printf("Config watcher stopped: %v", err)
				}
			}()
		}
	}

	// Create server
	server := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      root,
		ReadTimeout:  cfg.Server.ReadTimeout.Duration(),
		WriteTimeout: cfg.Server.WriteTimeout.Duration(),
		IdleTimeout:  cfg.Server.IdleTimeout.Duration(),
	}

	// Start server in goroutine
	serveErr := make(chan error, 1)
	go func() {
		log.Printf("Server listening on %s", cfg.Server.Addr)
		if err := server.ListenAndServe(); err != http.ErrServerClosed {
			serveErr <- err
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-serveErr:
		return err
	case <-quit:
	}

	log.Println("Shutting down server...")
	cancel()

	// Graceful shutdown with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout.Duration())
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}

	log.Println("Server stopped")
	return nil
}
