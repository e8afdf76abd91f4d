package rerank

import "context"

// Result is one reranked document with its relevance to the query.
type Result struct {
	Index          int
	RelevanceScore float64
}

// Provider reorders candidate documents by relevance to a query and
// returns the topN best, most relevant first.
type Provider interface {
	Rerank(ctx context.Context, query string, documents []string, topN int) ([]Result, error)
}
