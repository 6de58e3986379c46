package main

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Veraticus/geospice/internal/config"
	"github.com/Veraticus/geospice/internal/geo"
	"github.com/Veraticus/geospice/internal/llm"
	"github.com/Veraticus/geospice/internal/model"
	"github.com/Veraticus/geospice/internal/storage"
	"github.com/Veraticus/geospice/internal/suggest"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func setDefaults() {
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	viper.SetDefault("llm.provider", "openai")
	viper.SetDefault("llm.max_tokens", 1024)
	viper.SetDefault("llm.timeout", 30*time.Second)

	viper.SetDefault("suggest.temperature", suggest.DefaultTemperature)
	viper.SetDefault("suggest.max_steps", suggest.DefaultMaxSteps)
	viper.SetDefault("suggest.radius_meters", geo.DefaultRadiusMeters)
	viper.SetDefault("suggest.currency", suggest.DefaultCurrency)

	viper.SetDefault("server.addr", ":8080")
	viper.SetDefault("server.rate_limit", 60)
	viper.SetDefault("server.read_timeout", 10*time.Second)
	viper.SetDefault("server.write_timeout", 60*time.Second)
}

// initStorage opens the history database and brings its schema up to date.
func initStorage(ctx context.Context) (*storage.SQLiteStorage, error) {
	dbPath := viper.GetString("database.path")
	if dbPath == "" {
		dbPath = config.DefaultDatabasePath()
	}
	dbPath = config.ExpandPath(dbPath)

	store, err := storage.NewSQLiteStorage(dbPath)
	if err != nil {
		return nil, err
	}

	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return store, nil
}

func engineOptions() suggest.Options {
	opts := suggest.DefaultOptions()
	opts.Logger = slog.Default()
	opts.Currency = viper.GetString("suggest.currency")
	opts.MaxSteps = viper.GetInt("suggest.max_steps")
	opts.Temperature = viper.GetFloat64("suggest.temperature")
	opts.RadiusMeters = viper.GetFloat64("suggest.radius_meters")
	return opts
}

// newEngine wires the configured provider into a suggestion engine.
func newEngine() (*suggest.Engine, error) {
	client, err := createChatClient()
	if err != nil {
		return nil, err
	}
	return newEngineWithClient(client)
}

func newEngineWithClient(client llm.ChatClient) (*suggest.Engine, error) {
	engine, err := suggest.NewEngine(client, engineOptions())
	if err != nil {
		return nil, fmt.Errorf("failed to create suggestion engine: %w", err)
	}
	return engine, nil
}

// addQueryFlags registers the flags describing the expense being entered.
func addQueryFlags(cmd *cobra.Command) {
	cmd.Flags().Float64("lat", 0, "latitude in decimal degrees (required)")
	cmd.Flags().Float64("lng", 0, "longitude in decimal degrees (required)")
	cmd.Flags().Float64("amount", 0, "expense amount (required)")
	cmd.Flags().String("at", "", "expense time as RFC 3339 (default: now)")
	_ = cmd.MarkFlagRequired("lat")
	_ = cmd.MarkFlagRequired("lng")
	_ = cmd.MarkFlagRequired("amount")
}

func queryFromFlags(cmd *cobra.Command) (model.Query, error) {
	var q model.Query
	var err error
	if q.Latitude, err = cmd.Flags().GetFloat64("lat"); err != nil {
		return q, err
	}
	if q.Longitude, err = cmd.Flags().GetFloat64("lng"); err != nil {
		return q, err
	}
	if q.Amount, err = cmd.Flags().GetFloat64("amount"); err != nil {
		return q, err
	}
	if q.DateTime, err = cmd.Flags().GetString("at"); err != nil {
		return q, err
	}
	if q.DateTime != "" {
		if _, err := time.Parse(time.RFC3339, q.DateTime); err != nil {
			return q, fmt.Errorf("%w: --at must be RFC 3339: %w", model.ErrInvalidInput, err)
		}
	}
	return q, q.Point().Validate()
}
