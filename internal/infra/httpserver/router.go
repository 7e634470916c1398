package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	domai "github.com/bryanwahyu/image-identifier/internal/domain/ai"
	"github.com/bryanwahyu/image-identifier/internal/domain/analysis"
	"github.com/bryanwahyu/image-identifier/internal/domain/audit"
	"github.com/bryanwahyu/image-identifier/internal/middleware"
)

// AnalysisService is what the router needs from the application layer.
type AnalysisService interface {
	AnalyzeJSON(ctx context.Context, body []byte) (analysis.Result, error)
	ListEvents(ctx context.Context, page, pageSize int) (audit.PaginatedResult, error)
}

type Options struct {
	Logger         zerolog.Logger
	CORSOrigins    []string
	APIKeys        map[string]string
	Limiter        *middleware.RateLimiter // nil = tanpa rate limit
	MaxBodyBytes   int64
	HealthCheckers map[string]middleware.HealthChecker
}

type Router struct {
	svc AnalysisService
}

func NewRouter(svc AnalysisService, opts Options) http.Handler {
	r := &Router{svc: svc}
	mux := chi.NewRouter()

	origins := opts.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	mux.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", middleware.APIKeyHeader, middleware.RequestIDHeader},
		ExposedHeaders: []string{middleware.RequestIDHeader},
		MaxAge:         300,
	}))
	mux.Use(middleware.Logging(opts.Logger))
	mux.Use(middleware.Metrics)
	mux.Use(middleware.APIKeyAuth(opts.APIKeys))
	if opts.Limiter != nil {
		mux.Use(middleware.RateLimit(opts.Limiter))
	}

	mux.Get("/health", middleware.HealthHandler(opts.HealthCheckers))
	mux.Get("/ready", middleware.ReadinessHandler)
	mux.Get("/live", middleware.LivenessHandler)
	mux.Method(http.MethodGet, "/metrics", middleware.MetricsHandler())

	mux.Route("/v1", func(rt chi.Router) {
		rt.With(middleware.BodyLimit(opts.MaxBodyBytes)).Post("/analyze", r.wrap(r.handleAnalyze))
		rt.Get("/events", r.wrap(r.handleEvents))
	})

	return mux
}

type handlerFunc func(http.ResponseWriter, *http.Request) error

func (r *Router) wrap(h handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		err := h(w, req)
		if err == nil {
			return
		}
		status, kind := statusOf(err)
		log := zerolog.Ctx(req.Context())
		if status >= http.StatusInternalServerError {
			log.Error().Err(err).Str("kind", kind).Msg("request failed")
		} else {
			log.Debug().Err(err).Str("kind", kind).Msg("request rejected")
		}
		msg := err.Error()
		if kind == middleware.KindInternal {
			msg = "internal server error"
		}
		middleware.WriteError(w, status, kind, msg)
	}
}

// statusOf maps an error to its HTTP status and error kind.
func statusOf(err error) (int, string) {
	var mbe *http.MaxBytesError
	switch {
	case errors.As(err, &mbe):
		return http.StatusRequestEntityTooLarge, middleware.KindTooLarge
	case errors.Is(err, domai.ErrQuotaExceeded):
		return http.StatusTooManyRequests, string(analysis.KindInvocation)
	case errors.Is(err, analysis.ErrInvalidInput):
		return http.StatusBadRequest, string(analysis.KindInvalidInput)
	case errors.Is(err, analysis.ErrInvocation):
		return http.StatusBadGateway, string(analysis.KindInvocation)
	case errors.Is(err, analysis.ErrInvalidOutput):
		return http.StatusUnprocessableEntity, string(analysis.KindInvalidOutput)
	}
	return http.StatusInternalServerError, middleware.KindInternal
}

// POST /v1/analyze
// Body: {"photoDataUri": "data:image/...;base64,..."}
func (r *Router) handleAnalyze(w http.ResponseWriter, req *http.Request) error {
	body, err := io.ReadAll(req.Body)
	if err != nil {
		return err
	}
	res, err := r.svc.AnalyzeJSON(req.Context(), body)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, res)
}

// GET /v1/events?page=&page_size=
func (r *Router) handleEvents(w http.ResponseWriter, req *http.Request) error {
	page, size := middleware.Pagination(req)
	list, err := r.svc.ListEvents(req.Context(), page, size)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, list)
}

func writeJSON(w http.ResponseWriter, status int, v any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(v)
}
