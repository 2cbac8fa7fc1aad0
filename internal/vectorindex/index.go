// Package vectorindex holds the chunk embeddings of the loaded corpus in an
// in-memory chromem-go collection and answers nearest-neighbour queries.
// The index is built once and is read-only afterwards.
package vectorindex

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"strconv"

	"docqa/internal/chunker"
	"docqa/internal/embedding"

	"github.com/philippgille/chromem-go"
	"golang.org/x/sync/errgroup"
)

const collectionName = "docs"

var (
	// ErrNoChunks is returned by Build when there is nothing to index.
	ErrNoChunks = errors.New("no chunks to index")
	// ErrIndexBuild wraps any embedding or storage failure during Build.
	ErrIndexBuild = errors.New("index build failed")
	// ErrEmptyIndex is returned by Search on an index without entries.
	ErrEmptyIndex = errors.New("index is empty")
	// ErrDimensionMismatch is returned for vectors of the wrong length.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")
)

// Hit is a single search result.
type Hit struct {
	Chunk      chunker.Chunk
	Similarity float32
}

// Options tunes Build.
type Options struct {
	// Concurrency limits parallel embedding calls. Zero means 1.
	Concurrency int
	Logger      *slog.Logger
}

// Index is safe for concurrent Search calls.
type Index struct {
	coll   *chromem.Collection
	chunks map[string]chunker.Chunk
	dim    int
}

// Build embeds every chunk and stores it. Either all chunks are indexed or
// an error is returned.
func Build(ctx context.Context, chunks []chunker.Chunk, emb embedding.Embedder, opts Options) (*Index, error) {
	if len(chunks) == 0 {
		return nil, fmt.Errorf("%w: %w", ErrIndexBuild, ErrNoChunks)
	}
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	concurrency := max(opts.Concurrency, 1)

	vectors := make([][]float32, len(chunks))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for i, ch := range chunks {
		g.Go(func() error {
			vec, err := emb.Embed(gctx, ch.Text)
			if err != nil {
				return fmt.Errorf("embed chunk %s (%s p.%d): %w", ch.ID, ch.Metadata.Source, ch.Metadata.Page, err)
			}
			if len(vec) == 0 {
				return fmt.Errorf("embed chunk %s: empty vector", ch.ID)
			}
			vectors[i] = vec
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrIndexBuild, err)
	}

	dim := len(vectors[0])
	docs := make([]chromem.Document, len(chunks))
	byID := make(map[string]chunker.Chunk, len(chunks))
	for i, ch := range chunks {
		if len(vectors[i]) != dim {
			return nil, fmt.Errorf("%w: %w: chunk %s has %d, want %d",
				ErrIndexBuild, ErrDimensionMismatch, ch.ID, len(vectors[i]), dim)
		}
		if _, dup := byID[ch.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate chunk id %s", ErrIndexBuild, ch.ID)
		}
		byID[ch.ID] = ch
		docs[i] = chromem.Document{
			ID:        ch.ID,
			Content:   ch.Text,
			Embedding: vectors[i],
			Metadata: map[string]string{
				"source": ch.Metadata.Source,
				"page":   strconv.Itoa(ch.Metadata.Page),
			},
		}
	}

	db := chromem.NewDB()
	coll, err := db.CreateCollection(collectionName, nil, embedding.ChromemFunc(emb))
	if err != nil {
		return nil, fmt.Errorf("%w: create collection: %w", ErrIndexBuild, err)
	}
	if err := coll.AddDocuments(ctx, docs, runtime.NumCPU()); err != nil {
		return nil, fmt.Errorf("%w: add documents: %w", ErrIndexBuild, err)
	}

	log.Info("vector index built", "chunks", coll.Count(), "dimension", dim)

	return &Index{coll: coll, chunks: byID, dim: dim}, nil
}

// Len reports the number of indexed chunks.
func (ix *Index) Len() int {
	if ix == nil || ix.coll == nil {
		return 0
	}
	return ix.coll.Count()
}

// Dimension reports the vector length shared by all entries.
func (ix *Index) Dimension() int {
	if ix == nil {
		return 0
	}
	return ix.dim
}

// Search returns up to k chunks ordered by descending cosine similarity.
// k larger than the index is clamped; k <= 0 yields no hits.
func (ix *Index) Search(ctx context.Context, vec []float32, k int) ([]Hit, error) {
	n := ix.Len()
	if n == 0 {
		return nil, ErrEmptyIndex
	}
	if len(vec) != ix.dim {
		return nil, fmt.Errorf("%w: query has %d, index has %d", ErrDimensionMismatch, len(vec), ix.dim)
	}
	if k <= 0 {
		return []Hit{}, nil
	}
	k = min(k, n)

	// chromem may normalize the vector in place
	query := make([]float32, len(vec))
	copy(query, vec)

	results, err := ix.coll.QueryEmbedding(ctx, query, k, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}

	hits := make([]Hit, 0, len(results))
	for _, r := range results {
		ch, ok := ix.chunks[r.ID]
		if !ok {
			return nil, fmt.Errorf("query returned unknown chunk %s", r.ID)
		}
		hits = append(hits, Hit{Chunk: ch, Similarity: r.Similarity})
	}
	return hits, nil
}
