package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"docqa/internal/qa"
)

const maxBodyBytes = 1 << 20

type askRequest struct {
	Query  string `json:"query"`
	Format string `json:"format,omitempty"`
}

type askResponse struct {
	Question        string              `json:"question"`
	Answer          string              `json:"answer"`
	AnswerHTML      string              `json:"answer_html,omitempty"`
	SourceDocuments []qa.SourceDocument `json:"source_documents"`
}

type errorResponse struct {
	Detail string `json:"detail"`
}

func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	var req askRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Detail: "Invalid request body."})
		return
	}

	resp, err := s.answerer.Answer(r.Context(), req.Query)
	if err != nil {
		if errors.Is(err, qa.ErrInvalidQuery) {
			writeJSON(w, http.StatusBadRequest, errorResponse{Detail: "Query cannot be empty."})
			return
		}
		loggerFrom(r.Context(), s.log).Error("ask failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Detail: "Error processing the query: " + err.Error()})
		return
	}

	out := askResponse{
		Question:        resp.Question,
		Answer:          resp.Answer,
		SourceDocuments: qa.NewSourceDocuments(resp.SourceDocuments),
	}
	if strings.EqualFold(req.Format, "html") {
		html, err := s.renderHTML(resp.Answer)
		if err != nil {
			loggerFrom(r.Context(), s.log).Warn("answer markdown render failed", "error", err)
		} else {
			out.AnswerHTML = html
		}
	}

	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleDocuments(w http.ResponseWriter, _ *http.Request) {
	docs := s.catalog.Documents()
	total := 0
	for _, d := range docs {
		total += d.Chunks
	}
	writeJSON(w, http.StatusOK, struct {
		Documents []DocumentInfo `json:"documents"`
		Chunks    int            `json:"chunks"`
	}{Documents: docs, Chunks: total})
}

// renderHTML converts the model's markdown answer to HTML. Raw HTML in the
// answer is not passed through.
func (s *Server) renderHTML(markdown string) (string, error) {
	var buf bytes.Buffer
	if err := s.md.Convert([]byte(markdown), &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
