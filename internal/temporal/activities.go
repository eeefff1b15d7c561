package temporal

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/verigraph/verigraph/internal/config"
	"github.com/verigraph/verigraph/internal/embedding"
	neo4jstore "github.com/verigraph/verigraph/internal/graph/neo4j"
	"github.com/verigraph/verigraph/internal/vector"
	"github.com/verigraph/verigraph/internal/vector/qdrant"
	"github.com/verigraph/verigraph/internal/verify"
)

// Dependencies holds shared resources injected into activities.
type Dependencies struct {
	Config *config.Config
	Logger *slog.Logger
}

var deps *Dependencies

// SetDependencies injects shared resources (called during worker setup).
func SetDependencies(d *Dependencies) {
	deps = d
}

// VerificationActivity runs one full verification sequence against the
// configured store. A fresh gateway is built per run; construction
// failure fails the activity before any check executes.
func VerificationActivity(ctx context.Context, input VerificationInput) (VerificationResult, error) {
	cfg := deps.Config
	log := deps.Logger
	if log == nil {
		log = slog.Default()
	}

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
		return VerificationResult{}, fmt.Errorf("session gateway: %w", err)
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
			return VerificationResult{}, fmt.Errorf("shadow store: %w", err)
		}
		defer repo.Close()
		if err := repo.EnsureCollection(ctx, cfg.Index.Dimension); err != nil {
			return VerificationResult{}, fmt.Errorf("shadow collection: %w", err)
		}
		opts.Mirror = vector.NewMirror(repo, log)
	}

	outcomes := verify.NewRunner(store, gen, opts).Run(ctx)
	summary := verify.Summarize(outcomes)

	reportPath := input.ReportPath
	if reportPath == "" {
		reportPath = cfg.Verify.ReportPath
	}
	if err := summary.WriteReport(reportPath); err != nil {
		log.Error("report artifact not written", "path", reportPath, "error", err)
	}

	return VerificationResult{
		AllPassed:  summary.AllPassed,
		Passed:     summary.Passed,
		Failed:     summary.Failed,
		ReportPath: reportPath,
		Outcomes:   outcomes,
	}, nil
}
