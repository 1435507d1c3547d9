// Package httpapi is the HTTP adapter over the core (spec.md §6): one
// handler per Core API operation, JSON envelopes on success, and the
// {code, message} error envelope on failure. Grounded on the pack's
// daemon HTTP server (internal/daemon/server.go in the CKB pack member):
// http.ServeMux routing, a writeJSON helper, and a writeError helper that
// maps a stable code to the response body rather than the raw Go error.
package httpapi

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/BugBuster18/Agentic-File-Recommender/internal/app"
	"github.com/BugBuster18/Agentic-File-Recommender/internal/apperr"
)

// Server is the HTTP adapter. It holds no core state of its own — every
// request is forwarded to the wrapped App.
type Server struct {
	app *app.App
	log *zap.Logger
	mux *http.ServeMux
}

// New builds a Server routing spec.md §6's Core API table.
func New(a *app.App, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Server{app: a, log: log, mux: http.NewServeMux()}
	s.mux.HandleFunc("/health", s.handleHealth)
	s.mux.HandleFunc("/scan", s.handleScan)
	s.mux.HandleFunc("/recommend", s.handleRecommend)
	s.mux.HandleFunc("/activity/log", s.handleActivityLog)
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { s.mux.ServeHTTP(w, r) }

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	h, err := s.app.Health(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, h)
}

type scanRequest struct {
	Root string `json:"root"`
}

func (s *Server) handleScan(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req scanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, apperr.Wrap(apperr.InvalidInput, "decode request body", err))
		return
	}
	if req.Root == "" {
		s.writeError(w, apperr.New(apperr.InvalidInput, "root is required"))
		return
	}

	rpt, err := s.app.Scanner.Scan(r.Context(), req.Root)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, rpt)
}

type recommendRequest struct {
	Path  string `json:"path"`
	Limit int    `json:"limit"`
}

func (s *Server) handleRecommend(w http.ResponseWriter, r *http.Request) {
	var req recommendRequest
	switch r.Method {
	case http.MethodGet:
		req.Path = r.URL.Query().Get("path")
		if lim := r.URL.Query().Get("limit"); lim != "" {
			if n, err := parseLimit(lim); err == nil {
				req.Limit = n
			}
		}
	case http.MethodPost:
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.writeError(w, apperr.Wrap(apperr.InvalidInput, "decode request body", err))
			return
		}
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if req.Path == "" {
		s.writeError(w, apperr.New(apperr.InvalidInput, "path is required"))
		return
	}
	if req.Limit <= 0 {
		req.Limit = 5
	}

	recs, err := s.app.Ranker.Recommend(r.Context(), req.Path, req.Limit, time.Now())
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, recs)
}

type activityLogRequest struct {
	Path string `json:"path"`
}

type activityLogResponse struct {
	AccessCountAfter int64 `json:"access_count_after"`
	CopairsUpdated   int   `json:"copairs_updated"`
}

func (s *Server) handleActivityLog(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req activityLogRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, apperr.Wrap(apperr.InvalidInput, "decode request body", err))
		return
	}
	if req.Path == "" {
		s.writeError(w, apperr.New(apperr.InvalidInput, "path is required"))
		return
	}

	f, err := s.app.Store.GetFileByPath(r.Context(), req.Path)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if f == nil {
		s.writeError(w, apperr.New(apperr.NotFound, "path not registered: "+req.Path))
		return
	}

	summary, err := s.app.Activity.Log(r.Context(), f.ID, time.Now())
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, activityLogResponse{
		AccessCountAfter: summary.AccessCountAfter,
		CopairsUpdated:   summary.CopairsUpdated,
	})
}

func parseLimit(s string) (int, error) {
	return strconv.Atoi(s)
}

// errorEnvelope is the {code, message} shape spec.md §6 requires at every
// error boundary crossing.
type errorEnvelope struct {
	Code    apperr.Code `json:"code"`
	Message string      `json:"message"`
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.Warn("encode response failed", zap.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	code := apperr.CodeOf(err)
	s.writeJSON(w, statusFor(code), errorEnvelope{Code: code, Message: err.Error()})
}

func statusFor(code apperr.Code) int {
	switch code {
	case apperr.NotFound:
		return http.StatusNotFound
	case apperr.InvalidInput:
		return http.StatusBadRequest
	case apperr.Cancelled:
		return http.StatusRequestTimeout
	default:
		return http.StatusInternalServerError
	}
}
