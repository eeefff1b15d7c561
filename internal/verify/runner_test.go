package verify

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/verigraph/verigraph/internal/embedding"
	"github.com/verigraph/verigraph/internal/graph"
)

// fakeStore implements graph.Store with configurable behavior and
// records the order of operations.
type fakeStore struct {
	connectivity bool
	dropErr      error
	clearErr     error
	createErr    error
	awaitErr     error
	insertErr    error
	linkErr      error
	linkResult   graph.LinkResult
	hits         []graph.QueryHit
	searchErr    error
	counts       graph.Counts
	countsErr    error

	calls []string
}

func (f *fakeStore) VerifyConnectivity(ctx context.Context) bool {
	f.calls = append(f.calls, "connectivity")
	return f.connectivity
}

func (f *fakeStore) DropIndexIfExists(ctx context.Context, name string) error {
	f.calls = append(f.calls, "drop")
	return f.dropErr
}

func (f *fakeStore) ClearAll(ctx context.Context) error {
	f.calls = append(f.calls, "clear")
	return f.clearErr
}

func (f *fakeStore) CreateVectorIndex(ctx context.Context, name string, dimension int, similarity string) error {
	f.calls = append(f.calls, "create")
	return f.createErr
}

func (f *fakeStore) AwaitIndexOnline(ctx context.Context, name string, timeout time.Duration) error {
	f.calls = append(f.calls, "await")
	return f.awaitErr
}

func (f *fakeStore) InsertEntities(ctx context.Context, entities []graph.Entity) (int64, error) {
	f.calls = append(f.calls, "insert")
	if f.insertErr != nil {
		return 0, f.insertErr
	}
	return int64(len(entities)), nil
}

func (f *fakeStore) LinkEntities(ctx context.Context, links []graph.Link) (graph.LinkResult, error) {
	f.calls = append(f.calls, "link")
	if f.linkErr != nil {
		return graph.LinkResult{}, f.linkErr
	}
	if f.linkResult == (graph.LinkResult{}) {
		return graph.LinkResult{Created: int64(len(links)), Strategy: graph.LinkDynamic}, nil
	}
	return f.linkResult, nil
}

func (f *fakeStore) HybridSearch(ctx context.Context, vector []float32, topK int) ([]graph.QueryHit, error) {
	f.calls = append(f.calls, "search")
	return f.hits, f.searchErr
}

func (f *fakeStore) CollectCounts(ctx context.Context) (graph.Counts, error) {
	f.calls = append(f.calls, "counts")
	return f.counts, f.countsErr
}

func (f *fakeStore) Close(ctx context.Context) error {
	f.calls = append(f.calls, "close")
	return nil
}

// healthyStore simulates a store where the full scenario succeeds.
func healthyStore() *fakeStore {
	return &fakeStore{
		connectivity: true,
		hits: []graph.QueryHit{
			{
				Name: "Arrhythmia", Kind: "Symptom", Score: 0.9993,
				Related: []graph.Relation{
					{Type: "TREATED_BY", TargetName: "Beta-Blocker", TargetKind: "Drug"},
					{Type: "MANIFESTS_AS", TargetName: "Atrial Fibrillation", TargetKind: "Diagnosis"},
				},
			},
			{Name: "Atrial Fibrillation", Kind: "Diagnosis", Score: 0.41, Related: []graph.Relation{}},
			{Name: "Beta-Blocker", Kind: "Drug", Score: 0.17, Related: []graph.Relation{}},
		},
		counts: graph.Counts{Entities: 3, Relationships: 3, Embedded: 3},
	}
}

func newTestRunner(store graph.Store, mirror ShadowMirror) *Runner {
	gen := embedding.NewGenerator(8)
	return NewRunner(store, gen, Options{
		IndexName:    "health_vector_index",
		Dimension:    8,
		Similarity:   "cosine",
		TopK:         3,
		IndexTimeout: time.Second,
		Mirror:       mirror,
	})
}

func TestRun_AllChecksPass(t *testing.T) {
	store := healthyStore()
	outcomes := newTestRunner(store, nil).Run(context.Background())

	if len(outcomes) != 5 {
		t.Fatalf("expected 5 outcomes, got %d", len(outcomes))
	}

	wantNames := []string{CheckConnectivity, CheckInit, CheckIngestion, CheckSearch, CheckConsistency}
	for i, name := range wantNames {
		if outcomes[i].Name != name {
			t.Errorf("outcome %d: got %q, want %q", i, outcomes[i].Name, name)
		}
		if !outcomes[i].Passed() {
			t.Errorf("outcome %d (%s) failed: %s", i, name, outcomes[i].Detail)
		}
		if outcomes[i].Timestamp.IsZero() {
			t.Errorf("outcome %d missing timestamp", i)
		}
		if outcomes[i].LatencyMS < 0 {
			t.Errorf("outcome %d negative latency", i)
		}
	}

	if !strings.Contains(outcomes[3].Detail, "Arrhythmia") {
		t.Errorf("search detail should name the top hit, got %q", outcomes[3].Detail)
	}
	if !strings.Contains(outcomes[2].Detail, "dynamic") {
		t.Errorf("ingestion detail should report the link strategy, got %q", outcomes[2].Detail)
	}
}

func TestRun_ConnectivityFailureHaltsRun(t *testing.T) {
	store := healthyStore()
	store.connectivity = false

	outcomes := newTestRunner(store, nil).Run(context.Background())

	if len(outcomes) != 1 {
		t.Fatalf("expected exactly 1 outcome, got %d", len(outcomes))
	}
	if outcomes[0].Name != CheckConnectivity || outcomes[0].Passed() {
		t.Errorf("unexpected outcome: %+v", outcomes[0])
	}
	for _, call := range store.calls {
		if call != "connectivity" {
			t.Errorf("no store operation should run after failed connectivity, saw %q", call)
		}
	}
}

func TestRun_InitializationFailureHaltsRun(t *testing.T) {
	store := healthyStore()
	store.awaitErr = errors.New("vector index not ready within 1s")

	outcomes := newTestRunner(store, nil).Run(context.Background())

	if len(outcomes) != 2 {
		t.Fatalf("expected 2 outcomes, got %d", len(outcomes))
	}
	if outcomes[1].Passed() {
		t.Error("initialization should have failed")
	}
	if !strings.Contains(outcomes[1].Detail, "not ready") {
		t.Errorf("detail should carry the cause, got %q", outcomes[1].Detail)
	}
	for _, call := range store.calls {
		if call == "insert" || call == "search" {
			t.Errorf("ingestion must not run after failed initialization, saw %q", call)
		}
	}
}

func TestRun_IngestionFailureHaltsRun(t *testing.T) {
	store := healthyStore()
	store.insertErr = errors.New("deadlock detected")

	outcomes := newTestRunner(store, nil).Run(context.Background())

	if len(outcomes) != 3 {
		t.Fatalf("expected 3 outcomes, got %d", len(outcomes))
	}
	if outcomes[2].Passed() {
		t.Error("ingestion should have failed")
	}
}

func TestRun_DropFailureIsNonFatal(t *testing.T) {
	store := healthyStore()
	store.dropErr = errors.New("index does not exist")

	outcomes := newTestRunner(store, nil).Run(context.Background())

	if len(outcomes) != 5 {
		t.Fatalf("expected 5 outcomes, got %d", len(outcomes))
	}
	if !outcomes[1].Passed() {
		t.Errorf("best-effort drop failure must not fail initialization: %s", outcomes[1].Detail)
	}
}

func TestRun_SearchFailureContinues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*fakeStore)
		detail string
	}{
		{"no_results", func(s *fakeStore) { s.hits = nil }, "no results"},
		{"wrong_top_hit", func(s *fakeStore) {
			s.hits = []graph.QueryHit{{Name: "Beta-Blocker", Score: 0.9, Related: []graph.Relation{{Type: "X", TargetName: "Y"}}}}
		}, "unexpected top hit"},
		{"no_relationships", func(s *fakeStore) {
			s.hits = []graph.QueryHit{{Name: "Arrhythmia", Score: 0.9, Related: []graph.Relation{}}}
		}, "no graph relationships"},
		{"transport_error", func(s *fakeStore) { s.searchErr = errors.New("connection reset") }, "connection reset"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := healthyStore()
			tt.mutate(store)

			outcomes := newTestRunner(store, nil).Run(context.Background())

			if len(outcomes) != 5 {
				t.Fatalf("search failure is non-fatal, expected 5 outcomes, got %d", len(outcomes))
			}
			if outcomes[3].Passed() {
				t.Error("search check should have failed")
			}
			if !strings.Contains(outcomes[3].Detail, tt.detail) {
				t.Errorf("detail %q should contain %q", outcomes[3].Detail, tt.detail)
			}
			if !outcomes[4].Passed() {
				t.Errorf("consistency should still pass: %s", outcomes[4].Detail)
			}
		})
	}
}

func TestRun_ConsistencyMismatchNamesCount(t *testing.T) {
	tests := []struct {
		name   string
		counts graph.Counts
		detail string
	}{
		{"entities", graph.Counts{Entities: 2, Relationships: 3, Embedded: 3}, "entity count 2"},
		{"relationships", graph.Counts{Entities: 3, Relationships: 4, Embedded: 3}, "relationship count 4"},
		{"embedded", graph.Counts{Entities: 3, Relationships: 3, Embedded: 2}, "embedded count 2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := healthyStore()
			store.counts = tt.counts

			outcomes := newTestRunner(store, nil).Run(context.Background())

			if len(outcomes) != 5 {
				t.Fatalf("expected 5 outcomes, got %d", len(outcomes))
			}
			if outcomes[4].Passed() {
				t.Fatal("consistency check should have failed")
			}
			if !strings.Contains(outcomes[4].Detail, tt.detail) {
				t.Errorf("detail %q should name the mismatch %q", outcomes[4].Detail, tt.detail)
			}
		})
	}
}

type fakeMirror struct {
	loadErr  error
	topName  string
	topScore float32
	topErr   error
	loaded   int
}

func (f *fakeMirror) Load(ctx context.Context, entities []graph.Entity) error {
	f.loaded = len(entities)
	return f.loadErr
}

func (f *fakeMirror) TopMatch(ctx context.Context, vector []float32) (string, float32, error) {
	return f.topName, f.topScore, f.topErr
}

func TestRun_MirrorAgreement(t *testing.T) {
	mirror := &fakeMirror{topName: "Arrhythmia", topScore: 0.98}
	outcomes := newTestRunner(healthyStore(), mirror).Run(context.Background())

	if len(outcomes) != 6 {
		t.Fatalf("expected 6 outcomes with mirror enabled, got %d", len(outcomes))
	}
	if outcomes[5].Name != CheckMirror || !outcomes[5].Passed() {
		t.Errorf("unexpected mirror outcome: %+v", outcomes[5])
	}
	if mirror.loaded != 3 {
		t.Errorf("mirror should have loaded 3 entities, got %d", mirror.loaded)
	}
}

func TestRun_MirrorDisagreementIsNonFatalFailure(t *testing.T) {
	mirror := &fakeMirror{topName: "Beta-Blocker", topScore: 0.5}
	outcomes := newTestRunner(healthyStore(), mirror).Run(context.Background())

	if len(outcomes) != 6 {
		t.Fatalf("expected 6 outcomes, got %d", len(outcomes))
	}
	if outcomes[5].Passed() {
		t.Error("mirror disagreement should fail the agreement check")
	}
	if !strings.Contains(outcomes[5].Detail, "disagrees") {
		t.Errorf("unexpected detail: %q", outcomes[5].Detail)
	}
}
