// Package chi exposes the registry over HTTP.
package chi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	chirouter "github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/repertoire/internal/domain"
	domwriter "github.com/kailas-cloud/repertoire/internal/domain/writer"
	logpkg "github.com/kailas-cloud/repertoire/internal/logger"
	"github.com/kailas-cloud/repertoire/internal/metrics"
	healthuc "github.com/kailas-cloud/repertoire/internal/usecase/health"
	registryuc "github.com/kailas-cloud/repertoire/internal/usecase/registry"
)

// Error codes returned in the "code" field of error responses.
const (
	codeBadRequest       = "bad_request"
	codeValidationFailed = "validation_failed"
	codeWriterNotFound   = "writer_not_found"
	codeAlreadyExists    = "writer_already_exists"
	codeInternalError    = "internal_error"
)

// Server is the HTTP API server.
type Server struct {
	registry *registryuc.Service
	health   *healthuc.Service
	logger   *zap.Logger
}

// NewServer creates an HTTP API server.
func NewServer(registry *registryuc.Service, health *healthuc.Service, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{registry: registry, health: health, logger: logger}
}

// Router builds the chi router with all routes and middleware attached.
func (s *Server) Router(apiKeys []string) http.Handler {
	r := chirouter.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(jsonRecoverer(s.logger))
	r.Use(wideEventMiddleware(s.logger))
	r.Use(BearerAuthMiddleware(apiKeys))
	r.Use(metrics.Middleware())

	r.Get("/health", s.handleHealth)
	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	r.Route("/v1/writers", func(r chirouter.Router) {
		r.Get("/", s.handleSearch)
		r.Post("/", s.handleCreate)
		r.Get("/{id}", s.handleGet)
		r.Put("/{id}", s.handleUpdate)
		r.Delete("/{id}", s.handleDelete)
	})

	return r
}

type writerRequest struct {
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	Affiliation string `json:"affiliation"`
	IPI         string `json:"ipi"`
	Email       string `json:"email"`
	Active      bool   `json:"active"`
}

type writerResponse struct {
	ID          string    `json:"id"`
	FirstName   string    `json:"first_name"`
	LastName    string    `json:"last_name"`
	DisplayName string    `json:"display_name"`
	Affiliation string    `json:"affiliation,omitempty"`
	IPI         string    `json:"ipi,omitempty"`
	Email       string    `json:"email,omitempty"`
	Active      bool      `json:"active"`
	CreatedAt   time.Time `json:"created_at"`
}

type searchResponse struct {
	Items          []writerResponse `json:"items"`
	Total          int              `json:"total"`
	Page           int              `json:"page"`
	PageSize       int              `json:"page_size"`
	Source         string           `json:"source"`
	FallbackReason string           `json:"fallback_reason,omitempty"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// handleSearch handles GET /v1/writers.
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := registryuc.Query{Filter: r.URL.Query().Get("filter")}

	var err error
	if q.Page, err = queryInt(r, "page"); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "page must be an integer")
		return
	}
	if q.PageSize, err = queryInt(r, "page_size"); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "page_size must be an integer")
		return
	}

	res, err := s.registry.Search(r.Context(), q)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	items := make([]writerResponse, len(res.Writers))
	for i, wr := range res.Writers {
		items[i] = writerToResponse(wr)
	}

	writeJSON(w, http.StatusOK, searchResponse{
		Items:          items,
		Total:          res.Total,
		Page:           res.Page,
		PageSize:       res.PageSize,
		Source:         string(res.Source),
		FallbackReason: res.FallbackReason,
	})
}

// handleCreate handles POST /v1/writers.
func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req writerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	wr, err := s.registry.Create(r.Context(), fieldsFromRequest(req))
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	w.Header().Set("Location", "/v1/writers/"+wr.ID())
	writeJSON(w, http.StatusCreated, writerToResponse(wr))
}

// handleGet handles GET /v1/writers/{id}.
func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	wr, err := s.registry.Get(r.Context(), chirouter.URLParam(r, "id"))
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, writerToResponse(wr))
}

// handleUpdate handles PUT /v1/writers/{id}.
func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	var req writerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	wr, err := s.registry.Update(r.Context(), chirouter.URLParam(r, "id"), fieldsFromRequest(req))
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, writerToResponse(wr))
}

// handleDelete handles DELETE /v1/writers/{id}.
func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	if err := s.registry.Delete(r.Context(), chirouter.URLParam(r, "id")); err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleHealth handles GET /health.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	status := http.StatusOK
	if report.Status == healthuc.StatusDown {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, report)
}

func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, domain.ErrWriterNotFound):
		writeError(w, http.StatusNotFound, codeWriterNotFound, domain.ErrWriterNotFound.Error())
	case errors.Is(err, domain.ErrAlreadyExists):
		writeError(w, http.StatusConflict, codeAlreadyExists, domain.ErrAlreadyExists.Error())
	case errors.Is(err, domain.ErrValidation):
		// Validation messages name the offending field and are safe to return.
		writeError(w, http.StatusBadRequest, codeValidationFailed, err.Error())
	default:
		logpkg.FromContext(r.Context()).Error("internal error", zap.Error(err))
		writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
	}
}

func fieldsFromRequest(req writerRequest) domwriter.Fields {
	return domwriter.Fields{
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		Affiliation: req.Affiliation,
		IPI:         req.IPI,
		Email:       req.Email,
		Active:      req.Active,
	}
}

func writerToResponse(wr domwriter.Writer) writerResponse {
	return writerResponse{
		ID:          wr.ID(),
		FirstName:   wr.FirstName(),
		LastName:    wr.LastName(),
		DisplayName: wr.DisplayName(),
		Affiliation: wr.Affiliation(),
		IPI:         wr.IPI(),
		Email:       wr.Email(),
		Active:      wr.Active(),
		CreatedAt:   wr.CreatedAt(),
	}
}

func queryInt(r *http.Request, name string) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}
	return strconv.Atoi(raw)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Code: code, Message: message})
}

// jsonRecoverer is a recovery middleware that returns JSON instead of a plain text stacktrace.
func jsonRecoverer(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rvr := recover(); rvr != nil {
					logger.Error("panic recovered",
						zap.Any("panic", rvr),
						zap.Stack("stacktrace"),
					)
					writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// wideEventMiddleware emits a canonical log line per request and propagates X-Request-ID.
func wideEventMiddleware(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// middleware.RequestID already placed request_id in context
			requestID := middleware.GetReqID(r.Context())
			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

			// Per-request logger with request_id
			reqLogger := logger.With(zap.String("request_id", requestID))
			ctx := logpkg.ContextWithLogger(r.Context(), reqLogger)

			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			// Canonical log line — one line per request
			reqLogger.Info("http_request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("latency", time.Since(start)),
				zap.String("ip", r.RemoteAddr),
				zap.Int64("content_length", r.ContentLength),
				zap.String("user_agent", r.UserAgent()),
				zap.Int("response_bytes", ww.BytesWritten()),
			)
		})
	}
}
