package memory

import (
	"context"
	"math"
	"sort"
	"strings"
	"sync"

	"chartnotes-be/pkg/vectorstore"
)

// Store is an in-memory vector store for tests and local development.
type Store struct {
	mu         sync.RWMutex
	namespaces map[string]map[string]vectorstore.Record
}

var _ vectorstore.Store = &Store{}

func NewStore() *Store {
	return &Store{
		namespaces: make(map[string]map[string]vectorstore.Record),
	}
}

func (s *Store) UpsertBatch(_ context.Context, records []vectorstore.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range records {
		ns, ok := s.namespaces[r.Namespace]
		if !ok {
			ns = make(map[string]vectorstore.Record)
			s.namespaces[r.Namespace] = ns
		}
		ns[r.VectorID] = r
	}
	return nil
}

func (s *Store) Query(_ context.Context, namespace string, vector []float32, topK int) ([]vectorstore.Match, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ns := s.namespaces[namespace]
	if len(ns) == 0 || topK <= 0 {
		return nil, nil
	}

	matches := make([]vectorstore.Match, 0, len(ns))
	for _, r := range ns {
		matches = append(matches, vectorstore.Match{
			Record: r,
			Score:  cosineSimilarity(vector, r.Embedding),
		})
	}
	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Score != matches[j].Score {
			return matches[i].Score > matches[j].Score
		}
		return matches[i].VectorID < matches[j].VectorID
	})
	if len(matches) > topK {
		matches = matches[:topK]
	}
	return matches, nil
}

func (s *Store) ListIDs(_ context.Context, namespace, prefix string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var ids []string
	for id := range s.namespaces[namespace] {
		if prefix == "" || strings.HasPrefix(id, prefix) {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

func (s *Store) Fetch(_ context.Context, namespace string, ids []string) ([]vectorstore.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ns := s.namespaces[namespace]
	var records []vectorstore.Record
	for _, id := range ids {
		if r, ok := ns[id]; ok {
			records = append(records, r)
		}
	}
	sort.Slice(records, func(i, j int) bool { return records[i].VectorID < records[j].VectorID })
	return records, nil
}

func (s *Store) DeleteIDs(_ context.Context, namespace string, ids []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ns := s.namespaces[namespace]
	for _, id := range ids {
		delete(ns, id)
	}
	if len(ns) == 0 {
		delete(s.namespaces, namespace)
	}
	return nil
}

func (s *Store) DeleteNamespace(_ context.Context, namespace string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.namespaces, namespace)
	return nil
}

func (s *Store) NamespaceExists(_ context.Context, namespace string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.namespaces[namespace]) > 0, nil
}

func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
