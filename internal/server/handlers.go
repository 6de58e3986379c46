package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/Veraticus/geospice/internal/metrics"
	"github.com/Veraticus/geospice/internal/model"
	"github.com/Veraticus/geospice/internal/suggest"
)

type errorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// suggestResponse is the /api/suggest body: the suggestion plus how it was
// reached.
type suggestResponse struct {
	model.Suggestion
	Outcome model.Outcome `json:"outcome"`
	Nearby  int           `json:"nearby"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	var reqErr *requestError
	if errors.As(err, &reqErr) {
		s.metrics.ObserveRejected()
		s.logger.Debug("Rejected request", "error", reqErr.Message, "details", reqErr.Details)
		writeJSON(w, reqErr.Status, errorResponse{Error: reqErr.Message, Details: reqErr.Details})
		return
	}
	if errors.Is(err, model.ErrInvalidInput) {
		s.metrics.ObserveRejected()
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: msgInvalidValues, Details: err.Error()})
		return
	}
	s.logger.Error("Failed to process request", "error", err)
	writeJSON(w, http.StatusInternalServerError, errorResponse{Error: msgProcessFailure, Details: err.Error()})
}

func (s *Server) observe(report suggest.Report, start time.Time) {
	s.metrics.ObserveSuggestion(metrics.Suggestion{
		Outcome:     report.Outcome,
		Category:    report.Suggestion.Category,
		Invocations: report.Invocations,
		Elapsed:     time.Since(start),
		Steps:       report.Steps,
		Nearby:      report.Nearby,
	})
}

func (s *Server) handleSuggestCategory(w http.ResponseWriter, r *http.Request) {
	var req suggestCategoryRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	tc, err := req.transactionContext()
	if err != nil {
		s.writeError(w, err)
		return
	}

	start := time.Now()
	report, err := s.engine.Evaluate(r.Context(), tc)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.observe(report, start)
	writeJSON(w, http.StatusOK, report.Suggestion)
}

func (s *Server) handleSuggest(w http.ResponseWriter, r *http.Request) {
	var req suggestRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	q, history, err := req.query()
	if err != nil {
		s.writeError(w, err)
		return
	}

	start := time.Now()
	report, err := s.engine.SuggestForLocation(r.Context(), q, history)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.observe(report, start)
	writeJSON(w, http.StatusOK, suggestResponse{
		Suggestion: report.Suggestion,
		Outcome:    report.Outcome,
		Nearby:     report.Nearby,
	})
}

func (s *Server) handleCategories(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string][]string{"categories": model.CategoryNames()})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "version": s.version})
}
