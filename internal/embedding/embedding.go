// Package embedding maps text to vectors. Concrete providers come from
// chromem-go embedding functions; decorators add timeouts and rate limiting.
package embedding

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/philippgille/chromem-go"
	"golang.org/x/time/rate"
)

// Embedder converts free text into a numeric vector representation.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Func adapts a chromem embedding function to Embedder.
type Func chromem.EmbeddingFunc

func (f Func) Embed(ctx context.Context, text string) ([]float32, error) {
	return f(ctx, text)
}

// ChromemFunc exposes an Embedder as a chromem embedding function, so a
// collection embeds through the same provider and decorators.
func ChromemFunc(e Embedder) chromem.EmbeddingFunc {
	return e.Embed
}

// Config selects and configures the provider.
type Config struct {
	Provider  string // "openai" or "ollama"
	APIKey    string
	Model     string
	BaseURL   string // OpenAI-compatible API root, e.g. https://api.openai.com/v1
	OllamaURL string
}

// New returns the embedder for cfg.Provider.
func New(cfg Config) (Embedder, error) {
	switch strings.ToLower(cfg.Provider) {
	case "openai", "":
		if cfg.APIKey == "" {
			return nil, errors.New("openai embeddings: API key is required")
		}
		model := chromem.EmbeddingModelOpenAI(cfg.Model)
		if model == "" {
			model = chromem.EmbeddingModelOpenAI3Small
		}
		baseURL := strings.TrimRight(cfg.BaseURL, "/")
		if baseURL == "" || baseURL == chromem.BaseURLOpenAI {
			return Func(chromem.NewEmbeddingFuncOpenAI(cfg.APIKey, model)), nil
		}
		// proxies and compatible servers may not normalize, chromem checks the first vector
		return Func(chromem.NewEmbeddingFuncOpenAICompat(baseURL, cfg.APIKey, string(model), nil)), nil
	case "ollama":
		if cfg.Model == "" {
			return nil, errors.New("ollama embeddings: model is required")
		}
		baseURL := "" // chromem falls back to the local default
		if cfg.OllamaURL != "" {
			baseURL = strings.TrimRight(cfg.OllamaURL, "/") + "/api"
		}
		return Func(chromem.NewEmbeddingFuncOllama(cfg.Model, baseURL)), nil
	default:
		return nil, fmt.Errorf("unknown embedding provider: %s", cfg.Provider)
	}
}

type timeoutEmbedder struct {
	next    Embedder
	timeout time.Duration
}

// WithTimeout bounds every Embed call by d. A non-positive d returns e unchanged.
func WithTimeout(e Embedder, d time.Duration) Embedder {
	if d <= 0 {
		return e
	}
	return &timeoutEmbedder{next: e, timeout: d}
}

func (t *timeoutEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()
	return t.next.Embed(ctx, text)
}

type limitedEmbedder struct {
	next    Embedder
	limiter *rate.Limiter
}

// WithRateLimit allows at most perSecond calls per second (burst 1).
// A non-positive rate returns e unchanged.
func WithRateLimit(e Embedder, perSecond float64) Embedder {
	if perSecond <= 0 {
		return e
	}
	return &limitedEmbedder{next: e, limiter: rate.NewLimiter(rate.Limit(perSecond), 1)}
}

func (l *limitedEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := l.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("embedding rate limit: %w", err)
	}
	return l.next.Embed(ctx, text)
}
