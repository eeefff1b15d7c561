// Package neo4j implements graph.Store over the official v5 driver.
package neo4j

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j/config"

	"github.com/verigraph/verigraph/internal/graph"
)

// entityLabel is the node label the vector index covers. All entities
// created by a run carry it.
const entityLabel = "HealthEntity"

// Config holds the connection settings for the store.
type Config struct {
	URI      string
	Username string
	Password string

	// Pool settings. Zero values leave the driver defaults in place.
	MaxConnectionPoolSize int
	MaxConnectionLifetime time.Duration
	ConnectionTimeout     time.Duration
	MaxTransactionRetry   time.Duration

	// Index is the reserved vector index name used by HybridSearch.
	Index string
}

// Store is the session gateway: it owns the one connection pool and all
// other components issue operations through it.
type Store struct {
	driver neo4j.DriverWithContext
	index  string
	log    *slog.Logger
}

// New builds the driver and verifies connectivity. A failure here is
// fatal for the whole run: no checks execute against a gateway that
// never came up.
func New(ctx context.Context, cfg Config, log *slog.Logger) (*Store, error) {
	if log == nil {
		log = slog.Default()
	}

	driver, err := neo4j.NewDriverWithContext(
		cfg.URI,
		neo4j.BasicAuth(cfg.Username, cfg.Password, ""),
		func(c *config.Config) {
			if cfg.MaxConnectionPoolSize > 0 {
				c.MaxConnectionPoolSize = cfg.MaxConnectionPoolSize
			}
			if cfg.MaxConnectionLifetime > 0 {
				c.MaxConnectionLifetime = cfg.MaxConnectionLifetime
			}
			if cfg.ConnectionTimeout > 0 {
				c.SocketConnectTimeout = cfg.ConnectionTimeout
			}
			if cfg.MaxTransactionRetry > 0 {
				c.MaxTransactionRetryTime = cfg.MaxTransactionRetry
			}
		},
	)
	if err != nil {
		return nil, fmt.Errorf("neo4j driver: %w", err)
	}
	if err := driver.VerifyConnectivity(ctx); err != nil {
		_ = driver.Close(ctx)
		return nil, fmt.Errorf("neo4j connectivity: %w", err)
	}

	log.Info("connected to graph store", "uri", cfg.URI)
	return &Store{driver: driver, index: cfg.Index, log: log}, nil
}

// VerifyConnectivity probes the store with a trivial read. Any failure
// reports false rather than an error.
func (s *Store) VerifyConnectivity(ctx context.Context) bool {
	session := s.driver.NewSession(ctx, neo4j.SessionConfig{})
	defer session.Close(ctx)

	out, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, "RETURN 1 AS ok", nil)
		if err != nil {
			return false, err
		}
		rec, err := res.Single(ctx)
		if err != nil {
			return false, err
		}
		v, _ := rec.Get("ok")
		n, isInt := v.(int64)
		return isInt && n == 1, nil
	})
	if err != nil {
		s.log.Error("connectivity probe failed", "error", err)
		return false
	}
	ok, _ := out.(bool)
	return ok
}

// Close releases the connection pool. Safe to call more than once.
func (s *Store) Close(ctx context.Context) error {
	return s.driver.Close(ctx)
}

var _ graph.Store = (*Store)(nil)
