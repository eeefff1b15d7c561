package neo4j

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// ErrIndexNotReady reports that the vector index never reached the
// online state within the allowed wait.
var ErrIndexNotReady = errors.New("vector index not ready")

// pollInterval is the fixed delay between index state probes. Index
// builds are asynchronous server-side; querying before the index is
// online races a not-yet-built structure.
const pollInterval = 2 * time.Second

// DropIndexIfExists removes the named index. Best-effort: callers treat
// failures as warnings since the index may simply not exist yet.
func (s *Store) DropIndexIfExists(ctx context.Context, name string) error {
	session := s.driver.NewSession(ctx, neo4j.SessionConfig{})
	defer session.Close(ctx)

	// Index names cannot be parameterized in Cypher.
	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		return tx.Run(ctx, fmt.Sprintf("DROP INDEX %s IF EXISTS", name), nil)
	})
	if err != nil {
		return fmt.Errorf("drop index %s: %w", name, err)
	}
	return nil
}

// ClearAll removes every entity and relationship. Subsequent steps
// assume an empty store, so callers escalate any failure.
func (s *Store) ClearAll(ctx context.Context) error {
	session := s.driver.NewSession(ctx, neo4j.SessionConfig{})
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		return tx.Run(ctx, "MATCH (n) DETACH DELETE n", nil)
	})
	if err != nil {
		return fmt.Errorf("clear database: %w", err)
	}
	s.log.Info("database cleared")
	return nil
}

// CreateVectorIndex issues a create-if-absent request for a vector index
// over entity embeddings. The index is not necessarily usable on return;
// callers must AwaitIndexOnline before querying it.
func (s *Store) CreateVectorIndex(ctx context.Context, name string, dimension int, similarity string) error {
	query := fmt.Sprintf(`CREATE VECTOR INDEX %s IF NOT EXISTS
FOR (n:%s)
ON n.embedding
OPTIONS {
    indexConfig: {
        `+"`vector.dimensions`"+`: %d,
        `+"`vector.similarity_function`"+`: '%s'
    }
}`, name, entityLabel, dimension, similarity)

	session := s.driver.NewSession(ctx, neo4j.SessionConfig{})
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		return tx.Run(ctx, query, nil)
	})
	if err != nil {
		return fmt.Errorf("create vector index %s: %w", name, err)
	}
	s.log.Info("vector index created", "index", name, "dimension", dimension, "similarity", similarity)
	return nil
}

// AwaitIndexOnline polls the index state every pollInterval until it is
// online or the timeout elapses. The wait is cancellable through ctx so
// an enclosing caller can enforce an overall deadline.
func (s *Store) AwaitIndexOnline(ctx context.Context, name string, timeout time.Duration) error {
	err := waitForOnline(ctx, timeout, pollInterval, func(ctx context.Context) (string, error) {
		return s.indexState(ctx, name)
	})
	if err != nil {
		return err
	}
	s.log.Info("vector index online", "index", name)
	return nil
}

// indexState returns the server-reported state of the named index, or
// "" when the index does not exist.
func (s *Store) indexState(ctx context.Context, name string) (string, error) {
	session := s.driver.NewSession(ctx, neo4j.SessionConfig{})
	defer session.Close(ctx)

	out, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx,
			"SHOW INDEXES YIELD name, state WHERE name = $name RETURN state",
			map[string]any{"name": name})
		if err != nil {
			return "", err
		}
		records, err := res.Collect(ctx)
		if err != nil {
			return "", err
		}
		if len(records) == 0 {
			return "", nil
		}
		v, _ := records[0].Get("state")
		state, _ := v.(string)
		return state, nil
	})
	if err != nil {
		return "", err
	}
	return out.(string), nil
}

// waitForOnline polls source until it reports ONLINE, the deadline
// passes, or ctx is cancelled. Factored out so both branches are
// testable against a fake status source.
func waitForOnline(ctx context.Context, timeout, interval time.Duration, source func(context.Context) (string, error)) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var lastState string
	for {
		state, err := source(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return fmt.Errorf("%w within %s (last state %q)", ErrIndexNotReady, timeout, lastState)
			}
			return fmt.Errorf("index state probe: %w", err)
		}
		if state == "ONLINE" {
			return nil
		}
		lastState = state

		select {
		case <-ctx.Done():
			return fmt.Errorf("%w within %s (last state %q)", ErrIndexNotReady, timeout, lastState)
		case <-time.After(interval):
		}
	}
}
