package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"docqa/internal/chunker"
	"docqa/internal/qa"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubAnswerer struct {
	answer string
	err    error
	panic  bool
	got    string
}

func (s *stubAnswerer) Answer(_ context.Context, q string) (*qa.Response, error) {
	s.got = q
	if s.panic {
		panic("boom")
	}
	if strings.TrimSpace(q) == "" {
		return nil, qa.ErrInvalidQuery
	}
	if s.err != nil {
		return nil, s.err
	}
	return &qa.Response{
		Question: q,
		Answer:   s.answer,
		SourceDocuments: []chunker.Chunk{{
			ID:       "c1",
			Text:     "chunk text",
			Metadata: chunker.Metadata{Source: "data/a.pdf", Page: 2},
		}},
	}, nil
}

type stubCatalog []DocumentInfo

func (c stubCatalog) Documents() []DocumentInfo { return c }

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestAsk_OK(t *testing.T) {
	a := &stubAnswerer{answer: "Hello! How can I help you today?"}
	h := New(a, nil, quietLogger()).Handler()

	rec := do(t, h, http.MethodPost, "/ask", `{"query":"Hello"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	resp := decode[askResponse](t, rec)
	assert.Equal(t, "Hello", resp.Question)
	assert.NotEmpty(t, resp.Answer)
	assert.Empty(t, resp.AnswerHTML)
	require.Len(t, resp.SourceDocuments, 1)
	assert.Equal(t, "chunk text", resp.SourceDocuments[0].PageContent)
	assert.Equal(t, 2, resp.SourceDocuments[0].Metadata.Page)
	assert.Equal(t, "data/a.pdf", resp.SourceDocuments[0].Metadata.Source)
}

func TestAsk_HTMLFormat(t *testing.T) {
	a := &stubAnswerer{answer: "**Two** years.\n\n<script>alert(1)</script>"}
	h := New(a, nil, quietLogger()).Handler()

	rec := do(t, h, http.MethodPost, "/ask", `{"query":"warranty?","format":"html"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decode[askResponse](t, rec)
	assert.Contains(t, resp.AnswerHTML, "<strong>Two</strong>")
	assert.NotContains(t, resp.AnswerHTML, "<script>")
	assert.Equal(t, a.answer, resp.Answer)
}

func TestAsk_EmptyQuery(t *testing.T) {
	h := New(&stubAnswerer{answer: "x"}, nil, quietLogger()).Handler()

	for _, body := range []string{`{"query":"   "}`, `{"query":""}`, `{}`} {
		rec := do(t, h, http.MethodPost, "/ask", body)
		assert.Equal(t, http.StatusBadRequest, rec.Code, body)
		assert.Equal(t, "Query cannot be empty.", decode[errorResponse](t, rec).Detail)
	}
}

func TestAsk_InvalidBody(t *testing.T) {
	h := New(&stubAnswerer{}, nil, quietLogger()).Handler()

	for _, body := range []string{`not json`, `{"query": 42}`, ``} {
		rec := do(t, h, http.MethodPost, "/ask", body)
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code, body)
		assert.Equal(t, "Invalid request body.", decode[errorResponse](t, rec).Detail)
	}
}

func TestAsk_PipelineErrorThenRecovery(t *testing.T) {
	a := &stubAnswerer{err: fmt.Errorf("%w: %w", qa.ErrGeneration, errors.New("upstream timeout"))}
	h := New(a, nil, quietLogger()).Handler()

	rec := do(t, h, http.MethodPost, "/ask", `{"query":"q"}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	detail := decode[errorResponse](t, rec).Detail
	assert.True(t, strings.HasPrefix(detail, "Error processing the query: "), detail)
	assert.Contains(t, detail, "upstream timeout")

	a.err, a.answer = nil, "ok"
	rec = do(t, h, http.MethodPost, "/ask", `{"query":"q"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAsk_WrongMethod(t *testing.T) {
	h := New(&stubAnswerer{}, nil, quietLogger()).Handler()
	rec := do(t, h, http.MethodGet, "/ask", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestHealthcheck(t *testing.T) {
	h := New(&stubAnswerer{}, nil, quietLogger()).Handler()

	rec := do(t, h, http.MethodGet, "/healthcheck", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, map[string]string{"status": "ok"}, decode[map[string]string](t, rec))
}

func TestDocuments(t *testing.T) {
	catalog := stubCatalog{
		{Path: "data/a.pdf", Size: 100, Pages: 2, Chunks: 3},
		{Path: "data/b.pdf", Size: 200, Pages: 1, Chunks: 4},
	}
	h := New(&stubAnswerer{}, catalog, quietLogger()).Handler()

	rec := do(t, h, http.MethodGet, "/documents", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var out struct {
		Documents []DocumentInfo `json:"documents"`
		Chunks    int            `json:"chunks"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Len(t, out.Documents, 2)
	assert.Equal(t, 7, out.Chunks)

	noCatalog := New(&stubAnswerer{}, nil, quietLogger()).Handler()
	assert.Equal(t, http.StatusNotFound, do(t, noCatalog, http.MethodGet, "/documents", "").Code)
}

func TestRequestID(t *testing.T) {
	h := New(&stubAnswerer{}, nil, quietLogger()).Handler()

	rec := do(t, h, http.MethodGet, "/healthcheck", "")
	_, err := uuid.Parse(rec.Header().Get(requestIDHeader))
	assert.NoError(t, err)

	own := uuid.NewString()
	req := httptest.NewRequest(http.MethodGet, "/healthcheck", nil)
	req.Header.Set(requestIDHeader, own)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, own, rec.Header().Get(requestIDHeader))

	req = httptest.NewRequest(http.MethodGet, "/healthcheck", nil)
	req.Header.Set(requestIDHeader, "not-a-uuid\nInjected: 1")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.NotEqual(t, "not-a-uuid\nInjected: 1", rec.Header().Get(requestIDHeader))
}

func TestRecoverPanics(t *testing.T) {
	h := New(&stubAnswerer{panic: true}, nil, quietLogger()).Handler()

	rec := do(t, h, http.MethodPost, "/ask", `{"query":"q"}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestServe_GracefulShutdown(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	s := New(&stubAnswerer{answer: "a"}, nil, quietLogger())

	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx, ln, time.Second) }()

	resp, err := http.Get("http://" + ln.Addr().String() + "/healthcheck")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}

// slowAnswerer answers after delay unless its request context ends first.
type slowAnswerer struct {
	started chan struct{}
	delay   time.Duration
}

func (s *slowAnswerer) Answer(ctx context.Context, q string) (*qa.Response, error) {
	close(s.started)
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(s.delay):
	}
	return &qa.Response{Question: q, Answer: "done", SourceDocuments: []chunker.Chunk{}}, nil
}

func TestServe_DrainsInFlightRequests(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	a := &slowAnswerer{started: make(chan struct{}), delay: 200 * time.Millisecond}
	s := New(a, nil, quietLogger())

	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx, ln, 5*time.Second) }()

	type result struct {
		status int
		body   string
		err    error
	}
	resCh := make(chan result, 1)
	go func() {
		resp, err := http.Post("http://"+ln.Addr().String()+"/ask", "application/json", strings.NewReader(`{"query":"q"}`))
		if err != nil {
			resCh <- result{err: err}
			return
		}
		defer resp.Body.Close()
		b, _ := io.ReadAll(resp.Body)
		resCh <- result{status: resp.StatusCode, body: string(b)}
	}()

	select {
	case <-a.started:
	case <-time.After(5 * time.Second):
		t.Fatal("request never reached the answerer")
	}
	cancel()

	select {
	case res := <-resCh:
		require.NoError(t, res.err)
		assert.Equal(t, http.StatusOK, res.status, res.body)
		assert.Contains(t, res.body, `"answer":"done"`)
	case <-time.After(5 * time.Second):
		t.Fatal("in-flight request did not complete")
	}

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
