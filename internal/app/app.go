package app

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"docqa/internal/config"
	"docqa/internal/embedding"
	"docqa/internal/llm"
	"docqa/internal/loader"
	"docqa/internal/qa"
	"docqa/internal/retrieval"
	"docqa/internal/server"
	"docqa/internal/vectorindex"
)

// Стадии запуска, на которых может упасть Init
const (
	StageConfig   = "config"
	StageProvider = "provider"
	StageLoad     = "load"
	StageSplit    = "split"
	StageIndex    = "index"
)

// StartupError означает, что сервис не может начать обслуживать запросы
type StartupError struct {
	Stage string
	Err   error
}

func (e *StartupError) Error() string {
	return fmt.Sprintf("startup failed at %s stage: %v", e.Stage, e.Err)
}

func (e *StartupError) Unwrap() error { return e.Err }

type App struct {
	cfg     *config.Config
	prompts *config.Prompts
	log     *slog.Logger

	loader    loader.Loader
	embedder  embedding.Embedder
	generator llm.Generator

	index     *vectorindex.Index
	retriever *retrieval.Retriever
	pipeline  *qa.Pipeline

	mu       sync.RWMutex
	metadata *Metadata
}

// Metadata is the manifest of what the index was built from.
type Metadata struct {
	Files    []FileInfo `json:"files"`
	DataPath string     `json:"data_path"`
}

type FileInfo = server.DocumentInfo

type Option func(*App)

func WithLogger(l *slog.Logger) Option {
	return func(a *App) { a.log = l }
}

// WithLoader replaces the PDF directory loader.
func WithLoader(l loader.Loader) Option {
	return func(a *App) { a.loader = l }
}

// WithEmbedder replaces the configured embedding provider.
func WithEmbedder(e embedding.Embedder) Option {
	return func(a *App) { a.embedder = e }
}

// WithGenerator replaces the configured chat model.
func WithGenerator(g llm.Generator) Option {
	return func(a *App) { a.generator = g }
}

func New(cfg *config.Config, prompts *config.Prompts, opts ...Option) *App {
	if prompts == nil {
		prompts = &config.Prompts{SystemInstructions: config.DefaultSystemInstructions}
	}
	a := &App{
		cfg:      cfg,
		prompts:  prompts,
		log:      slog.Default(),
		metadata: &Metadata{},
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.loader == nil {
		a.loader = &loader.DirLoader{
			Dir:         cfg.DataDir,
			Recursive:   cfg.DataRecursive,
			Concurrency: cfg.LoadConcurrency,
			Logger:      a.log,
		}
	}
	return a
}

// Init проверяет конфиг и провайдера, загружает PDF, режет на чанки и
// строит индекс. Любая ошибка возвращается как *StartupError.
func (a *App) Init(ctx context.Context) error {
	if err := a.cfg.Validate(); err != nil {
		return &StartupError{Stage: StageConfig, Err: err}
	}

	if a.embedder == nil || a.generator == nil {
		if err := a.ensureProvider(ctx); err != nil {
			return &StartupError{Stage: StageProvider, Err: err}
		}
		if err := a.initModels(); err != nil {
			return &StartupError{Stage: StageProvider, Err: err}
		}
	}

	emb := embedding.WithTimeout(
		embedding.WithRateLimit(a.embedder, a.cfg.EmbedRateLimit),
		a.cfg.EmbedTimeout,
	)

	if err := a.indexDocuments(ctx, emb); err != nil {
		return err
	}

	a.retriever = retrieval.New(emb, a.index, retrieval.WithTopK(a.cfg.TopK))
	a.pipeline = qa.New(a.retriever, a.generator,
		qa.WithInstructions(a.prompts.SystemInstructions),
		qa.WithTemperature(a.cfg.Temperature),
		qa.WithTimeout(a.cfg.GenerateTimeout),
		qa.WithMaxContextChars(a.cfg.MaxContextChars),
		qa.WithLogger(a.log),
	)

	a.log.Info("application initialized",
		"documents", len(a.Documents()),
		"chunks", a.index.Len(),
		"provider", a.cfg.Provider,
	)
	return nil
}

// Documents returns a copy of the ingestion manifest.
func (a *App) Documents() []FileInfo {
	a.mu.RLock()
	defer a.mu.RUnlock()
	out := make([]FileInfo, len(a.metadata.Files))
	copy(out, a.metadata.Files)
	return out
}

// Helper to print address nicely in logs
func trimHostPrefix(addr string) string {
	if addr == "" {
		return "localhost"
	}
	if addr[0] == ':' {
		return "127.0.0.1" + addr
	}
	return addr
}
