package neo4j

import (
	"context"
	"fmt"
	"sort"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/verigraph/verigraph/internal/graph"
)

// hybridQuery runs the similarity search and joins each hit to its
// outgoing relationships. OPTIONAL MATCH keeps hits without edges in
// the result (they collect null-target rows, filtered client-side).
const hybridQuery = `
CALL db.index.vector.queryNodes($index, $topK, $vector) YIELD node, score
OPTIONAL MATCH (node)-[r]->(related:` + entityLabel + `)
RETURN node.name AS name,
       node.kind AS kind,
       node.description AS description,
       score,
       collect({type: type(r), target_name: related.name, target_kind: related.kind}) AS related
ORDER BY score DESC`

// HybridSearch returns up to topK hits ordered by descending similarity
// score. The server leaves equal scores in undefined order, so results
// are re-sorted client-side with name as the deterministic tie-break.
// An empty result is not an error.
func (s *Store) HybridSearch(ctx context.Context, vector []float32, topK int) ([]graph.QueryHit, error) {
	session := s.driver.NewSession(ctx, neo4j.SessionConfig{})
	defer session.Close(ctx)

	out, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, hybridQuery, map[string]any{
			"index":  s.index,
			"topK":   topK,
			"vector": toFloat64(vector),
		})
		if err != nil {
			return nil, err
		}

		var hits []graph.QueryHit
		for res.Next(ctx) {
			rec := res.Record()
			name, _ := rec.Get("name")
			kind, _ := rec.Get("kind")
			description, _ := rec.Get("description")
			score, _ := rec.Get("score")
			related, _ := rec.Get("related")

			hit := graph.QueryHit{
				Score:   score.(float64),
				Related: collectRelations(related),
			}
			hit.Name, _ = name.(string)
			hit.Kind, _ = kind.(string)
			hit.Description, _ = description.(string)
			hits = append(hits, hit)
		}
		if err := res.Err(); err != nil {
			return nil, err
		}
		return hits, nil
	})
	if err != nil {
		return nil, fmt.Errorf("hybrid search: %w", err)
	}

	hits := out.([]graph.QueryHit)
	sortHits(hits)
	return hits, nil
}

// CollectCounts gathers the aggregate totals in one read session.
func (s *Store) CollectCounts(ctx context.Context) (graph.Counts, error) {
	session := s.driver.NewSession(ctx, neo4j.SessionConfig{})
	defer session.Close(ctx)

	out, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		counts := graph.Counts{}

		queries := []struct {
			cypher string
			dest   *int64
		}{
			{"MATCH (n:" + entityLabel + ") RETURN count(n) AS c", &counts.Entities},
			{"MATCH ()-[r]->() RETURN count(r) AS c", &counts.Relationships},
			{"MATCH (n:" + entityLabel + ") WHERE n.embedding IS NOT NULL RETURN count(n) AS c", &counts.Embedded},
		}
		for _, q := range queries {
			res, err := tx.Run(ctx, q.cypher, nil)
			if err != nil {
				return nil, err
			}
			rec, err := res.Single(ctx)
			if err != nil {
				return nil, err
			}
			v, _ := rec.Get("c")
			*q.dest, _ = v.(int64)
		}
		return counts, nil
	})
	if err != nil {
		return graph.Counts{}, fmt.Errorf("collect counts: %w", err)
	}
	return out.(graph.Counts), nil
}

// collectRelations converts the collected join rows into relations,
// dropping null-target entries produced by hits without outgoing edges.
func collectRelations(raw any) []graph.Relation {
	rows, ok := raw.([]any)
	if !ok {
		return []graph.Relation{}
	}

	relations := make([]graph.Relation, 0, len(rows))
	for _, row := range rows {
		m, ok := row.(map[string]any)
		if !ok {
			continue
		}
		targetName, ok := m["target_name"].(string)
		if !ok {
			continue
		}
		rel := graph.Relation{TargetName: targetName}
		rel.Type, _ = m["type"].(string)
		rel.TargetKind, _ = m["target_kind"].(string)
		relations = append(relations, rel)
	}
	return relations
}

// sortHits orders by descending score; equal scores order by name so
// results are deterministic regardless of server return order.
func sortHits(hits []graph.QueryHit) {
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].Name < hits[j].Name
	})
}
