package control

import (
	"Butler/internal/ai"
	"Butler/internal/app/runner"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const maxBodyBytes = 64 * 1024

type improveRequest struct {
	Text string `json:"text"`
}

type improveResponse struct {
	Improved  string `json:"improved"`
	ElapsedMs int64  `json:"elapsed_ms"`
}

type modelsResponse struct {
	Models []string `json:"models"`
}

type errorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}

// Handler маршруты интерфейса управления с middleware.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /improve", s.handleImprove)
	mux.HandleFunc("GET /models", s.handleModels)
	mux.HandleFunc("GET /logs", s.handleLogs)
	mux.HandleFunc("DELETE /logs", s.handleClearLogs)
	mux.HandleFunc("GET /settings", s.handleSettings)
	mux.Handle("GET /metrics", promhttp.Handler())

	var h http.Handler = mux
	h = http.MaxBytesHandler(h, maxBodyBytes)
	h = s.logging(h)
	h = withMetrics(h)
	h = requestID(h)
	return h
}

func (s *Server) handleImprove(w http.ResponseWriter, r *http.Request) {
	var req improveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			writeError(w, http.StatusRequestEntityTooLarge, "bad_request", "request body too large")
			return
		}
		writeError(w, http.StatusBadRequest, "bad_request", "invalid JSON body")
		return
	}

	start := time.Now()
	improved, err := s.improver.ImproveText(r.Context(), req.Text)
	if err != nil {
		code, kind := classify(err)
		writeError(w, code, kind, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, improveResponse{Improved: improved, ElapsedMs: time.Since(start).Milliseconds()})
}

func (s *Server) handleModels(w http.ResponseWriter, r *http.Request) {
	models, err := s.improver.Models(r.Context())
	if err != nil {
		code, kind := classify(err)
		writeError(w, code, kind, err.Error())
		return
	}
	if models == nil {
		models = []string{}
	}
	writeJSON(w, http.StatusOK, modelsResponse{Models: models})
}

func (s *Server) handleLogs(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte(s.journal.Export()))
}

func (s *Server) handleClearLogs(w http.ResponseWriter, _ *http.Request) {
	s.journal.Clear()
	s.logger.Infow("Journal cleared via control server")
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSettings(w http.ResponseWriter, _ *http.Request) {
	m := s.settings.Snapshot().Masked()
	writeJSON(w, http.StatusOK, map[string]string{
		"api_key":         m.APIKey,
		"backend":         m.Backend,
		"base_url":        m.BaseURL,
		"local_url":       m.LocalURL,
		"model":           m.Model,
		"prompt":          m.Prompt,
		"target_language": m.TargetLanguage,
		"translate_from":  m.TranslateFrom,
	})
}

// classify HTTP-код и вид ошибки для ответа.
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, runner.ErrBusy):
		return http.StatusConflict, "busy"
	case errors.Is(err, runner.ErrEmptyText):
		return http.StatusBadRequest, "bad_request"
	}
	if kind := ai.KindOf(err); kind != "" {
		return http.StatusBadGateway, string(kind)
	}
	return http.StatusBadGateway, "error"
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, kind, msg string) {
	writeJSON(w, code, errorResponse{Error: msg, Kind: kind})
}
