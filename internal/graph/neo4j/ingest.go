package neo4j

import (
	"context"
	"errors"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/verigraph/verigraph/internal/graph"
)

const insertQuery = `
UNWIND $rows AS row
CREATE (n:` + entityLabel + `)
SET n.kind = row.kind,
    n.name = row.name,
    n.description = row.description,
    n.embedding = row.embedding,
    n.created_at = datetime(),
    n += row.properties
RETURN count(n) AS inserted`

// dynamicLinkQuery takes the relationship label from the data. Requires
// APOC on the server.
const dynamicLinkQuery = `
UNWIND $rels AS rel
MATCH (source:` + entityLabel + ` {name: rel.source})
MATCH (target:` + entityLabel + ` {name: rel.target})
CALL apoc.create.relationship(source, rel.type, {}, target) YIELD rel AS created
RETURN count(created) AS created`

// staticLinkQuery is the fallback: a fixed label with the original type
// carried as a property.
const staticLinkQuery = `
UNWIND $rels AS rel
MATCH (source:` + entityLabel + ` {name: rel.source})
MATCH (target:` + entityLabel + ` {name: rel.target})
CREATE (source)-[r:RELATED_TO {type: rel.type}]->(target)
RETURN count(r) AS created`

// InsertEntities writes the batch in a single transaction and returns
// the inserted count. Duplicate names create duplicate entities.
func (s *Store) InsertEntities(ctx context.Context, entities []graph.Entity) (int64, error) {
	rows := make([]map[string]any, len(entities))
	for i, e := range entities {
		rows[i] = map[string]any{
			"kind":        e.Kind,
			"name":        e.Name,
			"description": e.Description,
			"embedding":   toFloat64(e.Embedding),
			"properties":  e.Properties,
		}
	}

	session := s.driver.NewSession(ctx, neo4j.SessionConfig{})
	defer session.Close(ctx)

	out, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, insertQuery, map[string]any{"rows": rows})
		if err != nil {
			return nil, err
		}
		rec, err := res.Single(ctx)
		if err != nil {
			return nil, err
		}
		v, _ := rec.Get("inserted")
		n, _ := v.(int64)
		return n, nil
	})
	if err != nil {
		return 0, fmt.Errorf("insert entities: %w", err)
	}

	inserted := out.(int64)
	s.log.Info("entities inserted", "count", inserted)
	return inserted, nil
}

// LinkEntities creates the relationship batch, trying the dynamic-label
// strategy first and transparently falling back to the static strategy
// when the server lacks the capability. Triples whose endpoints do not
// resolve silently contribute nothing to the created count.
func (s *Store) LinkEntities(ctx context.Context, links []graph.Link) (graph.LinkResult, error) {
	rels := make([]map[string]any, len(links))
	for i, l := range links {
		rels[i] = map[string]any{
			"source": l.Source,
			"type":   l.Type,
			"target": l.Target,
		}
	}

	created, err := s.createLinks(ctx, dynamicLinkQuery, rels)
	if err == nil {
		s.log.Info("relationships created", "count", created, "strategy", graph.LinkDynamic)
		return graph.LinkResult{Created: created, Strategy: graph.LinkDynamic}, nil
	}
	if !isCapabilityError(err) {
		return graph.LinkResult{}, fmt.Errorf("dynamic link strategy: %w", err)
	}

	s.log.Warn("dynamic relationship typing unavailable, using static fallback", "error", err)
	created, ferr := s.createLinks(ctx, staticLinkQuery, rels)
	if ferr != nil {
		return graph.LinkResult{}, fmt.Errorf("static link fallback: %w", ferr)
	}
	s.log.Info("relationships created", "count", created, "strategy", graph.LinkStatic)
	return graph.LinkResult{Created: created, Strategy: graph.LinkStatic}, nil
}

func (s *Store) createLinks(ctx context.Context, query string, rels []map[string]any) (int64, error) {
	session := s.driver.NewSession(ctx, neo4j.SessionConfig{})
	defer session.Close(ctx)

	out, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, query, map[string]any{"rels": rels})
		if err != nil {
			return nil, err
		}
		rec, err := res.Single(ctx)
		if err != nil {
			return nil, err
		}
		v, _ := rec.Get("created")
		n, _ := v.(int64)
		return n, nil
	})
	if err != nil {
		return 0, err
	}
	return out.(int64), nil
}

// isCapabilityError classifies a dynamic-strategy failure as recoverable.
// A missing APOC installation surfaces as a server-side error (unknown
// procedure); transport and cancellation errors are not capability
// problems and must propagate.
func isCapabilityError(err error) bool {
	var dbErr *neo4j.Neo4jError
	return errors.As(err, &dbErr)
}

func toFloat64(vec []float32) []float64 {
	out := make([]float64, len(vec))
	for i, v := range vec {
		out[i] = float64(v)
	}
	return out
}
