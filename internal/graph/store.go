// Package graph defines the domain model and the store contract for the
// hybrid vector + graph verification harness.
package graph

import (
	"context"
	"time"
)

// Entity is a stored domain object carrying a similarity embedding.
// Name is the join key for relationship creation and must be unique
// among entities created by one run; the store does not deduplicate.
type Entity struct {
	Kind        string
	Name        string
	Description string
	Embedding   []float32
	Properties  map[string]any
}

// Link is a directed, typed edge between two entities, identified by
// endpoint names. Endpoints must already exist when the link is created.
type Link struct {
	Source string
	Type   string
	Target string
}

// Relation is one outgoing edge attached to a query hit.
type Relation struct {
	Type       string
	TargetName string
	TargetKind string
}

// QueryHit is one ranked result from a hybrid search. Related holds the
// hit's outgoing edges; a hit without relationships has an empty slice.
type QueryHit struct {
	Name        string
	Kind        string
	Description string
	Score       float64
	Related     []Relation
}

// Counts holds the aggregate totals used by the consistency check.
type Counts struct {
	Entities      int64
	Relationships int64
	Embedded      int64
}

// LinkStrategy identifies which relationship-creation strategy succeeded.
type LinkStrategy int

const (
	// LinkDynamic creates relationships with the label taken from data.
	LinkDynamic LinkStrategy = iota
	// LinkStatic creates relationships under a fixed label, carrying the
	// original type as a property. Used when the server lacks dynamic
	// relationship typing.
	LinkStatic
)

func (s LinkStrategy) String() string {
	switch s {
	case LinkDynamic:
		return "dynamic"
	case LinkStatic:
		return "static"
	default:
		return "unknown"
	}
}

// LinkResult reports a relationship batch: how many edges were created
// and under which strategy. Triples whose endpoints did not resolve
// contribute nothing to Created; that is not an error here. Callers
// verify expected totals separately.
type LinkResult struct {
	Created  int64
	Strategy LinkStrategy
}

// Store is the session gateway to the external graph store. Every
// operation runs inside a managed session that is released on all exit
// paths. Implementations serialize all access to the store; the harness
// holds no other shared mutable state.
type Store interface {
	// VerifyConnectivity probes the store. It never returns an error;
	// any failure reports false.
	VerifyConnectivity(ctx context.Context) bool

	// DropIndexIfExists removes the named index. Best-effort: the index
	// may not exist, so failures are for the caller to log, not escalate.
	DropIndexIfExists(ctx context.Context, name string) error

	// ClearAll removes every entity and relationship.
	ClearAll(ctx context.Context) error

	// CreateVectorIndex issues a create-if-absent request for a vector
	// index over entity embeddings.
	CreateVectorIndex(ctx context.Context, name string, dimension int, similarity string) error

	// AwaitIndexOnline polls the index state until it is online or the
	// timeout elapses, returning ErrIndexNotReady on timeout. The wait
	// honors ctx cancellation.
	AwaitIndexOnline(ctx context.Context, name string, timeout time.Duration) error

	// InsertEntities writes the batch as one unit and returns the count
	// inserted. Duplicate names create duplicate entities.
	InsertEntities(ctx context.Context, entities []Entity) (int64, error)

	// LinkEntities creates the relationship batch, falling back from the
	// dynamic to the static strategy when the server lacks the capability.
	LinkEntities(ctx context.Context, links []Link) (LinkResult, error)

	// HybridSearch runs a similarity query bounded by topK and joins each
	// hit to its outgoing relationships. An empty result is not an error.
	HybridSearch(ctx context.Context, vector []float32, topK int) ([]QueryHit, error)

	// CollectCounts returns the aggregate totals for the consistency check.
	CollectCounts(ctx context.Context) (Counts, error)

	// Close releases pooled resources. Idempotent.
	Close(ctx context.Context) error
}
