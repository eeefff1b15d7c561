package verify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/verigraph/verigraph/internal/embedding"
	"github.com/verigraph/verigraph/internal/graph"
	"github.com/verigraph/verigraph/internal/observability"
)

// ShadowMirror cross-checks top-hit agreement against a secondary
// vector store. Optional; a nil mirror skips the agreement check.
type ShadowMirror interface {
	// Load upserts the entity embeddings into the shadow store.
	Load(ctx context.Context, entities []graph.Entity) error
	// TopMatch returns the name and score of the closest stored vector.
	TopMatch(ctx context.Context, vector []float32) (string, float32, error)
}

// Options configures a Runner.
type Options struct {
	IndexName    string
	Dimension    int
	Similarity   string
	TopK         int
	IndexTimeout time.Duration
	Mirror       ShadowMirror
	Logger       *slog.Logger
}

// Runner drives the ordered verification checks against a live store.
// Checks run strictly sequentially: each depends on the store state the
// previous one left behind. The runner never retries a check; re-running
// the whole sequence is the caller's retry unit.
type Runner struct {
	store   graph.Store
	gen     *embedding.Generator
	dataset Dataset
	opts    Options
	log     *slog.Logger
}

// NewRunner builds a Runner over the given store and embedding generator.
func NewRunner(store graph.Store, gen *embedding.Generator, opts Options) *Runner {
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	if opts.TopK < 1 {
		opts.TopK = 3
	}
	if opts.IndexTimeout <= 0 {
		opts.IndexTimeout = 60 * time.Second
	}
	if opts.Similarity == "" {
		opts.Similarity = "cosine"
	}
	return &Runner{
		store:   store,
		gen:     gen,
		dataset: SampleDataset(gen),
		opts:    opts,
		log:     log,
	}
}

// Run executes the check sequence and returns one outcome per attempted
// check, in order. A failing fatal check appends its outcome and returns
// the partial list immediately; non-fatal failures are recorded and the
// run continues.
func (r *Runner) Run(ctx context.Context) []Outcome {
	var outcomes []Outcome

	type check struct {
		name  string
		fatal bool
		fn    func(context.Context) (string, error)
	}

	checks := []check{
		{CheckConnectivity, true, r.checkConnectivity},
		{CheckInit, true, r.checkInitialization},
		{CheckIngestion, true, r.checkIngestion},
		{CheckSearch, false, r.checkHybridSearch},
		{CheckConsistency, false, r.checkConsistency},
	}
	if r.opts.Mirror != nil {
		checks = append(checks, check{CheckMirror, false, r.checkMirrorAgreement})
	}

	for _, c := range checks {
		spanCtx, span := observability.StartCheckSpan(ctx, c.name)
		start := time.Now()
		detail, err := c.fn(spanCtx)
		latency := time.Since(start)
		observability.EndCheckSpan(span, err)

		outcome := Outcome{
			Name:      c.name,
			Status:    StatusPass,
			LatencyMS: roundMS(latency),
			Detail:    detail,
			Timestamp: time.Now().UTC(),
		}
		if err != nil {
			outcome.Status = StatusFail
			outcome.Detail = err.Error()
		}
		outcomes = append(outcomes, outcome)

		if err != nil {
			r.log.Error("check failed", "check", c.name, "fatal", c.fatal, "latency_ms", outcome.LatencyMS, "error", err)
			if c.fatal {
				return outcomes
			}
			continue
		}
		r.log.Info("check passed", "check", c.name, "latency_ms", outcome.LatencyMS, "detail", detail)
	}

	return outcomes
}

func (r *Runner) checkConnectivity(ctx context.Context) (string, error) {
	if !r.store.VerifyConnectivity(ctx) {
		return "", errors.New("connectivity probe returned false")
	}
	return "store reachable and responding", nil
}

func (r *Runner) checkInitialization(ctx context.Context) (string, error) {
	// Best-effort: the index may not exist on a fresh store.
	if err := r.store.DropIndexIfExists(ctx, r.opts.IndexName); err != nil {
		r.log.Warn("index drop failed", "index", r.opts.IndexName, "error", err)
	}

	if err := r.store.ClearAll(ctx); err != nil {
		return "", fmt.Errorf("clearing store: %w", err)
	}
	if err := r.store.CreateVectorIndex(ctx, r.opts.IndexName, r.opts.Dimension, r.opts.Similarity); err != nil {
		return "", fmt.Errorf("creating index: %w", err)
	}
	if err := r.store.AwaitIndexOnline(ctx, r.opts.IndexName, r.opts.IndexTimeout); err != nil {
		return "", fmt.Errorf("waiting for index: %w", err)
	}
	return fmt.Sprintf("store cleared, index %s online", r.opts.IndexName), nil
}

func (r *Runner) checkIngestion(ctx context.Context) (string, error) {
	inserted, err := r.store.InsertEntities(ctx, r.dataset.Entities)
	if err != nil {
		return "", fmt.Errorf("inserting entities: %w", err)
	}
	linked, err := r.store.LinkEntities(ctx, r.dataset.Links)
	if err != nil {
		return "", fmt.Errorf("linking entities: %w", err)
	}
	return fmt.Sprintf("ingested %d entities and %d relationships (%s strategy)",
		inserted, linked.Created, linked.Strategy), nil
}

func (r *Runner) checkHybridSearch(ctx context.Context) (string, error) {
	queryVector := r.gen.Generate(r.dataset.QuerySeed)

	hits, err := r.store.HybridSearch(ctx, queryVector, r.opts.TopK)
	if err != nil {
		return "", fmt.Errorf("hybrid search: %w", err)
	}
	if len(hits) == 0 {
		return "", errors.New("hybrid search returned no results")
	}

	top := hits[0]
	if top.Name != r.dataset.ExpectedTopHit {
		return "", fmt.Errorf("unexpected top hit %q (expected %q)", top.Name, r.dataset.ExpectedTopHit)
	}
	if len(top.Related) == 0 {
		return "", fmt.Errorf("top hit %q has no graph relationships", top.Name)
	}
	return fmt.Sprintf("top hit %q with %d relationships (score %.4f)",
		top.Name, len(top.Related), top.Score), nil
}

func (r *Runner) checkConsistency(ctx context.Context) (string, error) {
	counts, err := r.store.CollectCounts(ctx)
	if err != nil {
		return "", fmt.Errorf("collecting counts: %w", err)
	}

	expected := r.dataset.ExpectedCounts()
	var mismatches []string
	if counts.Entities != expected.Entities {
		mismatches = append(mismatches, fmt.Sprintf("entity count %d (expected %d)", counts.Entities, expected.Entities))
	}
	if counts.Relationships != expected.Relationships {
		mismatches = append(mismatches, fmt.Sprintf("relationship count %d (expected %d)", counts.Relationships, expected.Relationships))
	}
	if counts.Embedded != expected.Embedded {
		mismatches = append(mismatches, fmt.Sprintf("embedded count %d (expected %d)", counts.Embedded, expected.Embedded))
	}
	if len(mismatches) > 0 {
		return "", fmt.Errorf("data inconsistency: %s", strings.Join(mismatches, ", "))
	}
	return fmt.Sprintf("verified %d entities, %d relationships, %d with embeddings",
		counts.Entities, counts.Relationships, counts.Embedded), nil
}

func (r *Runner) checkMirrorAgreement(ctx context.Context) (string, error) {
	if err := r.opts.Mirror.Load(ctx, r.dataset.Entities); err != nil {
		return "", fmt.Errorf("loading shadow store: %w", err)
	}

	queryVector := r.gen.Generate(r.dataset.QuerySeed)
	name, score, err := r.opts.Mirror.TopMatch(ctx, queryVector)
	if err != nil {
		return "", fmt.Errorf("shadow search: %w", err)
	}
	if name != r.dataset.ExpectedTopHit {
		return "", fmt.Errorf("shadow store disagrees on top hit: %q (expected %q)", name, r.dataset.ExpectedTopHit)
	}
	return fmt.Sprintf("shadow store agrees on top hit %q (score %.4f)", name, score), nil
}

func roundMS(d time.Duration) float64 {
	ms := float64(d.Microseconds()) / 1000.0
	return float64(int64(ms*100+0.5)) / 100
}
