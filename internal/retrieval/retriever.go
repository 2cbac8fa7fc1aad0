// Package retrieval turns a question into the k most relevant chunks.
package retrieval

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"docqa/internal/chunker"
	"docqa/internal/embedding"
	"docqa/internal/vectorindex"
)

// DefaultTopK is the number of chunks returned per query.
const DefaultTopK = 4

var ErrEmptyQuery = errors.New("query is empty")

// Searcher is the read side of the vector index.
type Searcher interface {
	Search(ctx context.Context, vec []float32, k int) ([]vectorindex.Hit, error)
}

type Retriever struct {
	embedder embedding.Embedder
	index    Searcher
	k        int
	timeout  time.Duration
}

type Option func(*Retriever)

// WithTopK sets how many chunks are returned. Non-positive values are ignored.
func WithTopK(k int) Option {
	return func(r *Retriever) {
		if k > 0 {
			r.k = k
		}
	}
}

// WithTimeout bounds the query embedding plus the index lookup.
func WithTimeout(d time.Duration) Option {
	return func(r *Retriever) { r.timeout = d }
}

func New(e embedding.Embedder, index Searcher, opts ...Option) *Retriever {
	r := &Retriever{embedder: e, index: index, k: DefaultTopK}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// K returns the configured number of results.
func (r *Retriever) K() int { return r.k }

// Search embeds the query with the same embedder used at indexing time and
// returns scored hits, most similar first.
func (r *Retriever) Search(ctx context.Context, query string) ([]vectorindex.Hit, error) {
	if strings.TrimSpace(query) == "" {
		return nil, ErrEmptyQuery
	}
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	vec, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	hits, err := r.index.Search(ctx, vec, r.k)
	if err != nil {
		return nil, fmt.Errorf("search index: %w", err)
	}
	return hits, nil
}

// Retrieve is Search without the scores.
func (r *Retriever) Retrieve(ctx context.Context, query string) ([]chunker.Chunk, error) {
	hits, err := r.Search(ctx, query)
	if err != nil {
		return nil, err
	}
	chunks := make([]chunker.Chunk, len(hits))
	for i, h := range hits {
		chunks[i] = h.Chunk
	}
	return chunks, nil
}
