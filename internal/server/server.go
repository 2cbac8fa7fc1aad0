// Package server exposes the question-answering pipeline over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"docqa/internal/qa"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

// Answerer answers a single question.
type Answerer interface {
	Answer(ctx context.Context, query string) (*qa.Response, error)
}

// DocumentInfo describes one ingested PDF.
type DocumentInfo struct {
	Path         string    `json:"path"`
	Size         int64     `json:"size"`
	LastModified time.Time `json:"last_modified"`
	Pages        int       `json:"pages"`
	Chunks       int       `json:"chunks"`
}

// Catalog lists what the index was built from.
type Catalog interface {
	Documents() []DocumentInfo
}

type Server struct {
	answerer Answerer
	catalog  Catalog
	log      *slog.Logger
	md       goldmark.Markdown
	http     *http.Server
}

// New wires the handlers. catalog may be nil, in which case /documents is
// not registered.
func New(a Answerer, catalog Catalog, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	return &Server{
		answerer: a,
		catalog:  catalog,
		log:      log,
		md:       goldmark.New(goldmark.WithExtensions(extension.GFM)),
	}
}

// Handler returns the routed handler with middleware applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /ask", s.handleAsk)
	mux.HandleFunc("GET /healthcheck", s.handleHealth)
	if s.catalog != nil {
		mux.HandleFunc("GET /documents", s.handleDocuments)
	}

	return requestID(s.logRequests(s.recoverPanics(mux)))
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully within shutdownTimeout.
func (s *Server) ListenAndServe(ctx context.Context, addr string, shutdownTimeout time.Duration) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	return s.Serve(ctx, ln, shutdownTimeout)
}

func (s *Server) Serve(ctx context.Context, ln net.Listener, shutdownTimeout time.Duration) error {
	s.http = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		// in-flight requests must survive ctx cancellation; Shutdown bounds the drain
		BaseContext: func(net.Listener) context.Context { return context.WithoutCancel(ctx) },
	}

	errCh := make(chan error, 1)
	go func() {
		if err := s.http.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	s.log.Info("shutting down http server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.http.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	return nil
}
