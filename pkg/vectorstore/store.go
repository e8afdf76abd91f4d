package vectorstore

import (
	"context"
	"errors"
)

// ErrNamespaceNotFound signals that a namespace holds no vectors.
// Retrieval callers treat it as a valid-empty probe; namespace-level
// deletes surface it so the API can answer not-found.
var ErrNamespaceNotFound = errors.New("namespace not found")

// Record is one indexed chunk. VectorID follows the
// <session-date>-<chunk-index>-<uuid> scheme so a calendar day's chunks
// can be listed by prefix.
type Record struct {
	VectorID     string
	Namespace    string
	SessionDate  string
	ChunkSummary string
	ChunkText    string
	Embedding    []float32
}

// Match is a Record found by similarity search, with its score.
type Match struct {
	Record
	Score float64
}

// Store is a namespaced vector collection.
type Store interface {
	// UpsertBatch inserts or replaces records by VectorID.
	UpsertBatch(ctx context.Context, records []Record) error

	// Query returns the topK most similar records in the namespace.
	Query(ctx context.Context, namespace string, vector []float32, topK int) ([]Match, error)

	// ListIDs returns all vector ids in the namespace starting with prefix.
	ListIDs(ctx context.Context, namespace, prefix string) ([]string, error)

	// Fetch loads records by id. Missing ids are silently omitted.
	Fetch(ctx context.Context, namespace string, ids []string) ([]Record, error)

	// DeleteIDs removes records by id.
	DeleteIDs(ctx context.Context, namespace string, ids []string) error

	// DeleteNamespace removes every record in the namespace.
	DeleteNamespace(ctx context.Context, namespace string) error

	// NamespaceExists reports whether the namespace holds any vectors.
	NamespaceExists(ctx context.Context, namespace string) (bool, error)
}
