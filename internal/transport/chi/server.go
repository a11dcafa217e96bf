// Package chi exposes a search session over a headless HTTP API.
package chi

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/kailas-cloud/modelsearch/internal/domain"
	"github.com/kailas-cloud/modelsearch/internal/domain/filter"
	"github.com/kailas-cloud/modelsearch/internal/logger"
	"github.com/kailas-cloud/modelsearch/internal/metrics"
	"github.com/kailas-cloud/modelsearch/internal/transport/dto"
	healthuc "github.com/kailas-cloud/modelsearch/internal/usecase/health"
	sessionuc "github.com/kailas-cloud/modelsearch/internal/usecase/session"
)

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server serves one search session.
type Server struct {
	session       *sessionuc.Session
	health        *healthuc.Service
	profileHost   string
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(
	session *sessionuc.Session,
	health *healthuc.Service,
	profileHost string,
	logger *zap.Logger,
) *Server {
	s := &Server{
		session:     session,
		health:      health,
		profileHost: profileHost,
		logger:      logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrEmptyQuery, http.StatusBadRequest, dto.ErrorCodeEmptyQuery),
		sentinelHandler(domain.ErrInvalidFilter, http.StatusBadRequest, dto.ErrorCodeInvalidFilter),
		sentinelHandler(domain.ErrDuplicateSearch, http.StatusConflict, dto.ErrorCodeDuplicateSearch),
		sentinelHandler(domain.ErrUnknownItem, http.StatusNotFound, dto.ErrorCodeUnknownItem),
		sentinelHandler(domain.ErrBackendStatus, http.StatusBadGateway, dto.ErrorCodeBackendError),
		sentinelHandler(domain.ErrBackendUnavailable, http.StatusBadGateway, dto.ErrorCodeBackendUnavailable),
		sentinelHandler(domain.ErrBackendResponse, http.StatusBadGateway, dto.ErrorCodeBackendError),
	}
	return s
}

// Register mounts the API routes on r.
func (s *Server) Register(r chi.Router) {
	r.Post("/search", s.Search)
	r.Get("/view", s.View)
	r.Delete("/filters", s.ClearFilters)
	r.Route("/filters", func(r chi.Router) {
		r.Post("/tags/{tag}/toggle", s.ToggleTag)
		r.Put("/downloads", s.SetDownloadRange)
		r.Put("/sort", s.SetSort)
		r.Put("/limit", s.SetLimit)
	})
	r.Put("/selection", s.Select)
	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)
}

type searchRequest struct {
	Query string `json:"query"`
}

type downloadsRequest struct {
	Low  *int64 `json:"low"`
	High *int64 `json:"high"`
}

type sortRequest struct {
	Sort string `json:"sort"`
}

type limitRequest struct {
	Limit int `json:"limit"`
}

type selectionRequest struct {
	ID string `json:"id"`
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// Search handles POST /search.
func (s *Server) Search(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if !decodeBody(w, r, &req) {
		return
	}

	snap, err := s.session.Submit(r.Context(), req.Query)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.FromSnapshot(snap, s.profileHost))
}

// View handles GET /view.
func (s *Server) View(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, dto.FromSnapshot(s.session.Snapshot(), s.profileHost))
}

// ToggleTag handles POST /filters/tags/{tag}/toggle.
func (s *Server) ToggleTag(w http.ResponseWriter, r *http.Request) {
	t, err := url.PathUnescape(chi.URLParam(r, "tag"))
	if err != nil || t == "" {
		writeError(w, http.StatusBadRequest, dto.ErrorCodeBadRequest, "invalid tag")
		return
	}
	writeJSON(w, http.StatusOK, dto.FromSnapshot(s.session.ToggleTag(t), s.profileHost))
}

// SetDownloadRange handles PUT /filters/downloads. A missing bound keeps
// its current value.
func (s *Server) SetDownloadRange(w http.ResponseWriter, r *http.Request) {
	var req downloadsRequest
	if !decodeBody(w, r, &req) {
		return
	}

	snap, err := s.session.SetDownloadBounds(req.Low, req.High)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.FromSnapshot(snap, s.profileHost))
}

// SetSort handles PUT /filters/sort.
func (s *Server) SetSort(w http.ResponseWriter, r *http.Request) {
	var req sortRequest
	if !decodeBody(w, r, &req) {
		return
	}
	mode := filter.SortMode(req.Sort)
	if !mode.IsValid() {
		logger.FromContext(r.Context()).Warn("Unrecognized sort mode", zap.String("sort", req.Sort))
	}
	writeJSON(w, http.StatusOK, dto.FromSnapshot(s.session.SetSort(mode), s.profileHost))
}

// SetLimit handles PUT /filters/limit.
func (s *Server) SetLimit(w http.ResponseWriter, r *http.Request) {
	var req limitRequest
	if !decodeBody(w, r, &req) {
		return
	}

	snap, err := s.session.SetLimit(req.Limit)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.FromSnapshot(snap, s.profileHost))
}

// ClearFilters handles DELETE /filters.
func (s *Server) ClearFilters(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, dto.FromSnapshot(s.session.ClearFilters(), s.profileHost))
}

// Select handles PUT /selection. An empty id clears the selection.
func (s *Server) Select(w http.ResponseWriter, r *http.Request) {
	var req selectionRequest
	if !decodeBody(w, r, &req) {
		return
	}

	snap, err := s.session.Select(req.ID)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.FromSnapshot(snap, s.profileHost))
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, healthResponse{
		Status: string(report.Status),
		Checks: checks,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	metrics.Handler().ServeHTTP(w, r)
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, dto.ErrorCodeBadRequest, "Invalid request body: "+err.Error())
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code dto.ErrorCode, message string) {
	writeJSON(w, status, dto.ErrorResponse{
		Code:    code,
		Message: message,
	})
}

// publicMessage returns the message shown to clients. Filter and backend
// errors carry details safe to expose; anything else is masked.
func publicMessage(err error) string {
	switch {
	case errors.Is(err, domain.ErrInvalidFilter),
		errors.Is(err, domain.ErrUnknownItem),
		errors.Is(err, domain.ErrDuplicateSearch):
		return unwrapToSentinelMessage(err)
	case errors.Is(err, domain.ErrBackendStatus),
		errors.Is(err, domain.ErrBackendUnavailable),
		errors.Is(err, domain.ErrBackendResponse):
		return domain.Message(err)
	case errors.Is(err, domain.ErrEmptyQuery):
		return domain.ErrEmptyQuery.Error()
	}
	return "internal error"
}

// unwrapToSentinelMessage strips operation prefixes added by the session
// ("set limit: invalid filter: ...") down to the sentinel-led message.
func unwrapToSentinelMessage(err error) string {
	for e := err; e != nil; e = errors.Unwrap(e) {
		next := errors.Unwrap(e)
		if next == domain.ErrInvalidFilter || next == domain.ErrUnknownItem || next == domain.ErrDuplicateSearch {
			return e.Error()
		}
	}
	return err.Error()
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code dto.ErrorCode) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	log := s.logger
	if reqID := chiMiddleware.GetReqID(r.Context()); reqID != "" {
		log = log.With(zap.String("request_id", reqID))
	}
	log.Warn("domain error", zap.Error(err))
	msg := publicMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	log.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, dto.ErrorCodeInternalError, "internal error")
}
