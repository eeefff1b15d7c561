package vector

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"log/slog"

	"github.com/verigraph/verigraph/internal/graph"
)

// Mirror shadows entity embeddings into a secondary vector store so a
// run can assert that two independent indexes agree on the top hit.
type Mirror struct {
	repo Repository
	log  *slog.Logger
}

// NewMirror creates a Mirror over the given repository.
func NewMirror(repo Repository, log *slog.Logger) *Mirror {
	if log == nil {
		log = slog.Default()
	}
	return &Mirror{repo: repo, log: log}
}

// Load upserts the entity embeddings. Document IDs derive from entity
// names, so reloading the same dataset overwrites rather than grows.
func (m *Mirror) Load(ctx context.Context, entities []graph.Entity) error {
	docs := make([]Document, len(entities))
	for i, e := range entities {
		docs[i] = Document{
			ID:     nameID(e.Name),
			Name:   e.Name,
			Vector: e.Embedding,
			Metadata: map[string]string{
				"kind": e.Kind,
			},
		}
	}
	if err := m.repo.Upsert(ctx, docs); err != nil {
		return fmt.Errorf("mirror upsert: %w", err)
	}
	m.log.Info("shadow store loaded", "count", len(docs))
	return nil
}

// TopMatch returns the name and score of the closest stored vector.
func (m *Mirror) TopMatch(ctx context.Context, vector []float32) (string, float32, error) {
	results, err := m.repo.Search(ctx, vector, 1)
	if err != nil {
		return "", 0, fmt.Errorf("mirror search: %w", err)
	}
	if len(results) == 0 {
		return "", 0, errors.New("shadow store returned no results")
	}
	return results[0].Name, results[0].Score, nil
}

// Close releases the underlying repository.
func (m *Mirror) Close() error {
	return m.repo.Close()
}

func nameID(name string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(name))
	return h.Sum64()
}
