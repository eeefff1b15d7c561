package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/verigraph/verigraph/internal/config"
	"github.com/verigraph/verigraph/internal/embedding"
	neo4jstore "github.com/verigraph/verigraph/internal/graph/neo4j"
	"github.com/verigraph/verigraph/internal/observability"
	"github.com/verigraph/verigraph/internal/vector"
	"github.com/verigraph/verigraph/internal/vector/qdrant"
	"github.com/verigraph/verigraph/internal/verify"
)

func main() {
	var (
		configPath string
		outputPath string
		jsonOutput bool
	)

	rootCmd := &cobra.Command{
		Use:           "verigraph",
		Short:         "Round-trip verification harness for hybrid vector + graph retrieval",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Run the verification sequence against a live store",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVerification(configPath, outputPath, jsonOutput)
		},
	}
	runCmd.Flags().StringVar(&configPath, "config", "", "Config file path (optional; env vars apply regardless)")
	runCmd.Flags().StringVar(&outputPath, "output", "", "Report artifact path (overrides config)")
	runCmd.Flags().BoolVar(&jsonOutput, "json", false, "Print the summary as JSON instead of markdown")

	rootCmd.AddCommand(runCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runVerification(configPath, outputPath string, jsonOutput bool) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	log := newLogger(cfg.Log)
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	tp, err := observability.InitTracing(ctx, &observability.TracingConfig{
		ServiceName:    "verigraph",
		ServiceVersion: "0.1.0",
		Environment:    cfg.Tracing.Environment,
		OTLPEndpoint:   cfg.Tracing.OTLPEndpoint,
		SampleRate:     cfg.Tracing.SampleRate,
	})
	if err != nil {
		return fmt.Errorf("tracing: %w", err)
	}
	defer tp.Shutdown(context.Background())

	// Gateway construction failure aborts the whole run before any
	// check executes.
	store, err := neo4jstore.New(ctx, neo4jstore.Config{
		URI:                   cfg.Graph.URI,
		Username:              cfg.Graph.Username,
		Password:              cfg.Graph.Password,
		MaxConnectionPoolSize: cfg.Graph.MaxConnectionPoolSize,
		MaxConnectionLifetime: cfg.Graph.MaxConnectionLifetime,
		ConnectionTimeout:     cfg.Graph.ConnectionTimeout,
		MaxTransactionRetry:   cfg.Graph.MaxTransactionRetry,
		Index:                 cfg.Index.Name,
	}, log)
	if err != nil {
		return fmt.Errorf("session gateway: %w", err)
	}
	defer store.Close(ctx)

	gen := embedding.NewGenerator(cfg.Index.Dimension)
	opts := verify.Options{
		IndexName:    cfg.Index.Name,
		Dimension:    cfg.Index.Dimension,
		Similarity:   cfg.Index.Similarity,
		TopK:         cfg.Verify.TopK,
		IndexTimeout: cfg.Verify.IndexTimeout,
		Logger:       log,
	}

	if cfg.MirrorEnabled() {
		repo, err := qdrant.NewQdrant(ctx, cfg.Mirror.Host, cfg.Mirror.Port, cfg.Mirror.Collection)
		if err != nil {
			return fmt.Errorf("shadow store: %w", err)
		}
		defer repo.Close()
		if err := repo.EnsureCollection(ctx, cfg.Index.Dimension); err != nil {
			return fmt.Errorf("shadow collection: %w", err)
		}
		opts.Mirror = vector.NewMirror(repo, log)
	}

	outcomes := verify.NewRunner(store, gen, opts).Run(ctx)
	summary := verify.Summarize(outcomes)

	if jsonOutput {
		data, err := summary.JSON()
		if err != nil {
			return err
		}
		fmt.Println(string(data))
	} else {
		fmt.Println(summary.Markdown())
	}

	reportPath := outputPath
	if reportPath == "" {
		reportPath = cfg.Verify.ReportPath
	}
	if err := summary.WriteReport(reportPath); err != nil {
		return err
	}
	log.Info("report written", "path", reportPath)

	// Exit code is the authoritative pass/fail signal for automation.
	if !summary.AllPassed {
		return fmt.Errorf("%d of %d checks failed", summary.Failed, summary.Total)
	}
	return nil
}

func newLogger(cfg config.LogConfig) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	if cfg.Format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}
