package main

import (
	"fmt"
	"log/slog"

	"github.com/Veraticus/geospice/internal/metrics"
	"github.com/Veraticus/geospice/internal/server"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the suggestion HTTP API",
		Long: `Serve the suggestion API:

  POST /api/suggest-category  suggest from precomputed nearby expenses
  POST /api/suggest           filter caller history by distance, then suggest
  GET  /api/categories        the category vocabulary
  GET  /healthz               liveness
  GET  /metrics               Prometheus metrics`,
		RunE: runServe,
	}

	cmd.Flags().String("addr", "", "listen address (default :8080)")
	cmd.Flags().Int("rate-limit", 0, "requests per minute across all clients (default 60)")
	_ = viper.BindPFlag("server.addr", cmd.Flags().Lookup("addr"))
	_ = viper.BindPFlag("server.rate_limit", cmd.Flags().Lookup("rate-limit"))

	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	engine, err := newEngine()
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	collector := metrics.New()
	if err := collector.Register(reg); err != nil {
		return fmt.Errorf("failed to register metrics: %w", err)
	}

	srv := server.New(engine, server.Options{
		Logger:       slog.Default(),
		Metrics:      collector,
		Gatherer:     reg,
		Version:      version,
		RateLimit:    viper.GetInt("server.rate_limit"),
		ReadTimeout:  viper.GetDuration("server.read_timeout"),
		WriteTimeout: viper.GetDuration("server.write_timeout"),
	})

	slog.Info("Starting suggestion server",
		"addr", viper.GetString("server.addr"),
		"max_steps", engine.MaxSteps(),
		"version", version)
	return srv.Run(cmd.Context(), viper.GetString("server.addr"))
}
