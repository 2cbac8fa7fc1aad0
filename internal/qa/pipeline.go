// Package qa answers a question from retrieved document chunks.
package qa

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"docqa/internal/chunker"
	"docqa/internal/llm"
)

const DefaultTemperature = 0.7

var (
	// ErrInvalidQuery is a client error: the query is empty or whitespace.
	ErrInvalidQuery = errors.New("query cannot be empty")
	// ErrRetrieval wraps failures to embed the query or search the index.
	ErrRetrieval = errors.New("retrieval failed")
	// ErrGeneration wraps failures of the answer generator.
	ErrGeneration = errors.New("generation failed")
)

// Retriever returns the chunks most relevant to a query.
type Retriever interface {
	Retrieve(ctx context.Context, query string) ([]chunker.Chunk, error)
}

// Response is the result of one question.
type Response struct {
	Question        string          `json:"question"`
	Answer          string          `json:"answer"`
	SourceDocuments []chunker.Chunk `json:"source_documents"`
}

// SourceDocument is the wire form of a context chunk.
type SourceDocument struct {
	ID          string           `json:"id"`
	PageContent string           `json:"page_content"`
	Metadata    chunker.Metadata `json:"metadata"`
}

// NewSourceDocuments converts chunks to their wire form. It never returns nil.
func NewSourceDocuments(chunks []chunker.Chunk) []SourceDocument {
	docs := make([]SourceDocument, 0, len(chunks))
	for _, ch := range chunks {
		docs = append(docs, SourceDocument{ID: ch.ID, PageContent: ch.Text, Metadata: ch.Metadata})
	}
	return docs
}

// MarshalJSON encodes source documents as {id, page_content, metadata} so the
// HTTP API and the CLI print the same shape.
func (r Response) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Question        string           `json:"question"`
		Answer          string           `json:"answer"`
		SourceDocuments []SourceDocument `json:"source_documents"`
	}{r.Question, r.Answer, NewSourceDocuments(r.SourceDocuments)})
}

type Pipeline struct {
	retriever       Retriever
	generator       llm.Generator
	instructions    string
	temperature     float64
	timeout         time.Duration
	maxContextChars int
	log             *slog.Logger
}

type Option func(*Pipeline)

func WithInstructions(s string) Option {
	return func(p *Pipeline) { p.instructions = s }
}

func WithTemperature(t float64) Option {
	return func(p *Pipeline) { p.temperature = t }
}

// WithTimeout bounds each Generator call.
func WithTimeout(d time.Duration) Option {
	return func(p *Pipeline) { p.timeout = d }
}

// WithMaxContextChars caps the total context text put into the prompt.
// Zero means no cap.
func WithMaxContextChars(n int) Option {
	return func(p *Pipeline) { p.maxContextChars = n }
}

func WithLogger(l *slog.Logger) Option {
	return func(p *Pipeline) { p.log = l }
}

func New(r Retriever, g llm.Generator, opts ...Option) *Pipeline {
	p := &Pipeline{
		retriever:   r,
		generator:   g,
		temperature: DefaultTemperature,
		log:         slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Answer retrieves context for query and asks the generator. The pipeline
// holds no per-request state, so a failed call does not affect the next one.
func (p *Pipeline) Answer(ctx context.Context, query string) (*Response, error) {
	if strings.TrimSpace(query) == "" {
		return nil, ErrInvalidQuery
	}

	chunks, err := p.retriever.Retrieve(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRetrieval, err)
	}
	p.log.Debug("retrieved context", "query", query, "chunks", len(chunks))

	genCtx := ctx
	if p.timeout > 0 {
		var cancel context.CancelFunc
		genCtx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	answer, err := p.generator.Generate(genCtx, llm.Request{
		System:      p.instructions,
		Prompt:      BuildPrompt(query, chunks, p.maxContextChars),
		Temperature: p.temperature,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrGeneration, err)
	}
	answer = strings.TrimSpace(answer)
	if answer == "" {
		return nil, fmt.Errorf("%w: %w", ErrGeneration, llm.ErrEmptyResponse)
	}

	if chunks == nil {
		chunks = []chunker.Chunk{}
	}
	return &Response{
		Question:        query,
		Answer:          answer,
		SourceDocuments: chunks,
	}, nil
}
