package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"bandcamp-dashboard/internal/config"
	"bandcamp-dashboard/internal/middleware"
	"bandcamp-dashboard/internal/observability"
	"bandcamp-dashboard/internal/server"
	"bandcamp-dashboard/internal/services"
	"bandcamp-dashboard/internal/ui/templates"
)

const (
	version       = "1.0.0"
	renderTimeout = 10 * time.Second
	cacheMaxAge   = "public, max-age=300"
)

// Template handler functions that can access the template functions
func handleDashboard(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), renderTimeout)
	defer cancel()

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", cacheMaxAge)
	if err := templates.Dashboard().Render(ctx, w); err != nil {
		http.Error(w, "render error", http.StatusInternalServerError)
	}
}

// app carries what every subcommand needs once configuration is loaded.
type app struct {
	cfg    *config.Config
	logger *slog.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}
	var dataFile, snapshotFile string

	root := &cobra.Command{
		Use:           "bandcamp-dashboard",
		Short:         "Explore one million Bandcamp sales in the browser or the terminal",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load configuration: %w", err)
			}
			if cmd.Flags().Changed("data") {
				cfg.Data.File = dataFile
			}
			if cmd.Flags().Changed("snapshot") {
				cfg.Data.SnapshotFile = snapshotFile
			}

			a.cfg = cfg
			a.logger = observability.NewLogger(cfg.Logger)
			slog.SetDefault(a.logger)
			return nil
		},
	}
	root.PersistentFlags().StringVar(&dataFile, "data", "", "sales dataset (.csv or .parquet), overrides DATA_FILE")
	root.PersistentFlags().StringVar(&snapshotFile, "snapshot", "", "parquet snapshot to reuse between runs, overrides SNAPSHOT_FILE")

	serve := newServeCmd(a)
	root.RunE = serve.RunE
	root.AddCommand(serve, newReportCmd(a), newConvertCmd(a))
	return root
}

func newServeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Load the dataset and serve the dashboard",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.serve(cmd.Context())
		},
	}
}

// loadAnalytics reads the configured dataset with the configured timeout.
func (a *app) loadAnalytics(ctx context.Context) (*services.Analytics, error) {
	analytics := services.NewAnalytics(services.Options{
		TopN:          a.cfg.Dashboard.TopN,
		MinGroupSize:  a.cfg.Dashboard.MinGroupSize,
		HistogramBins: a.cfg.Dashboard.HistogramBins,
		SnapshotPath:  a.cfg.Data.SnapshotFile,
	})

	ctx, cancel := context.WithTimeout(ctx, a.cfg.Data.LoadTimeout)
	defer cancel()

	start := time.Now()
	if err := analytics.LoadFromFile(ctx, a.cfg.Data.File); err != nil {
		return nil, err
	}
	a.logger.Info("dataset loaded successfully", "duration", time.Since(start))
	return analytics, nil
}

func (a *app) serve(ctx context.Context) error {
	cfg, logger := a.cfg, a.logger

	logger.Info("starting application",
		"version", version,
		"addr", cfg.Address(),
		"data_file", cfg.Data.File,
	)

	shutdownTracing, err := observability.SetupTracing(ctx, cfg.Tracing.Endpoint)
	if err != nil {
		return fmt.Errorf("setup tracing: %w", err)
	}

	analytics, err := a.loadAnalytics(ctx)
	if err != nil {
		_ = shutdownTracing(context.Background())
		return fmt.Errorf("load dataset: %w", err)
	}

	templateHandlers := &server.TemplateHandlers{
		Dashboard: handleDashboard,
	}

	srv := server.NewServer(analytics, logger, templateHandlers)

	rateLimiter := middleware.NewRateLimiter(cfg.Security)

	middlewareChain := middleware.Chain(
		middleware.Recovery(logger),
		middleware.RequestID(),
		middleware.Logger(logger),
		middleware.Tracing(),
		middleware.SecurityHeaders(),
		middleware.CORS(cfg.Security),
		middleware.TrustedProxy(cfg.Security),
		middleware.RateLimit(rateLimiter, logger),
	)

	httpServer := &http.Server{
		Addr:         cfg.Address(),
		Handler:      middlewareChain(srv),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	gracefulServer := server.NewGracefulServer(httpServer, logger, cfg.Server)
	gracefulServer.RegisterShutdownHook(func(ctx context.Context) error {
		logger.Info("flushing traces")
		return shutdownTracing(ctx)
	})

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := gracefulServer.Run(ctx); err != nil {
		return err
	}

	logger.Info("application stopped gracefully")
	return nil
}

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		slog.Error("command failed", "error", err)
		os.Exit(1)
	}
}
