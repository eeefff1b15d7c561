package vector

import (
	"context"
	"errors"
	"testing"

	"github.com/verigraph/verigraph/internal/graph"
)

type fakeRepo struct {
	docs      []Document
	results   []SearchResult
	upsertErr error
	searchErr error
}

func (f *fakeRepo) Upsert(ctx context.Context, docs []Document) error {
	if f.upsertErr != nil {
		return f.upsertErr
	}
	f.docs = append(f.docs, docs...)
	return nil
}

func (f *fakeRepo) Search(ctx context.Context, vector []float32, topK int) ([]SearchResult, error) {
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	if topK < len(f.results) {
		return f.results[:topK], nil
	}
	return f.results, nil
}

func (f *fakeRepo) Close() error { return nil }

func sampleEntities() []graph.Entity {
	return []graph.Entity{
		{Kind: "Symptom", Name: "Arrhythmia", Embedding: []float32{1, 0}},
		{Kind: "Drug", Name: "Beta-Blocker", Embedding: []float32{0, 1}},
	}
}

func TestMirror_Load(t *testing.T) {
	repo := &fakeRepo{}
	m := NewMirror(repo, nil)

	if err := m.Load(context.Background(), sampleEntities()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(repo.docs) != 2 {
		t.Fatalf("expected 2 docs, got %d", len(repo.docs))
	}
	if repo.docs[0].Name != "Arrhythmia" || repo.docs[0].Metadata["kind"] != "Symptom" {
		t.Errorf("unexpected doc: %+v", repo.docs[0])
	}
	if repo.docs[0].ID == repo.docs[1].ID {
		t.Error("distinct names must map to distinct ids")
	}
}

func TestMirror_LoadIDsDeterministic(t *testing.T) {
	repo := &fakeRepo{}
	m := NewMirror(repo, nil)

	_ = m.Load(context.Background(), sampleEntities())
	_ = m.Load(context.Background(), sampleEntities())

	if repo.docs[0].ID != repo.docs[2].ID {
		t.Error("reloading the same entity must reuse its id")
	}
}

func TestMirror_TopMatch(t *testing.T) {
	repo := &fakeRepo{results: []SearchResult{
		{Name: "Arrhythmia", Score: 0.99},
		{Name: "Atrial Fibrillation", Score: 0.75},
	}}
	m := NewMirror(repo, nil)

	name, score, err := m.TopMatch(context.Background(), []float32{1, 0})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if name != "Arrhythmia" {
		t.Errorf("expected Arrhythmia, got %s", name)
	}
	if score != 0.99 {
		t.Errorf("expected score 0.99, got %v", score)
	}
}

func TestMirror_TopMatchEmpty(t *testing.T) {
	m := NewMirror(&fakeRepo{}, nil)
	if _, _, err := m.TopMatch(context.Background(), []float32{1, 0}); err == nil {
		t.Fatal("expected error for empty shadow store")
	}
}

func TestMirror_ErrorsPropagate(t *testing.T) {
	boom := errors.New("unavailable")

	m := NewMirror(&fakeRepo{upsertErr: boom}, nil)
	if err := m.Load(context.Background(), sampleEntities()); !errors.Is(err, boom) {
		t.Errorf("expected upsert error, got %v", err)
	}

	m = NewMirror(&fakeRepo{searchErr: boom}, nil)
	if _, _, err := m.TopMatch(context.Background(), []float32{1}); !errors.Is(err, boom) {
		t.Errorf("expected search error, got %v", err)
	}
}
