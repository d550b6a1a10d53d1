package api

import (
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/MalithGihan/blueprint-service/internal/config"
	"github.com/MalithGihan/blueprint-service/internal/observability"
	"github.com/MalithGihan/blueprint-service/internal/quality"
	"github.com/MalithGihan/blueprint-service/internal/ratelimit"
	"github.com/MalithGihan/blueprint-service/internal/store"
	"github.com/MalithGihan/blueprint-service/internal/validate"
)

type Server struct {
	cfg      *config.Config
	log      *log.Logger
	store    *store.FS
	limiter  ratelimit.Limiter
	analyzer *quality.Analyzer
}

func New(cfg *config.Config, st *store.FS, limiter ratelimit.Limiter, logger *log.Logger) *Server {
	if limiter == nil {
		limiter = ratelimit.Noop{}
	}
	return &Server{
		cfg:      cfg,
		log:      logger,
		store:    st,
		limiter:  limiter,
		analyzer: quality.NewAnalyzer(validate.Rules{}),
	}
}

func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	if s.cfg.Server.TrustProxy {
		r.Use(middleware.RealIP)
	}
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/health", s.handleHealth)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Use(s.rateLimit)

		r.Post("/quality", s.handleQuality)
		r.Post("/mermaid", s.handleMermaid)
		r.Post("/bounds", s.handleBounds)

		r.Post("/exports", s.handleCreateExport)
		r.Get("/exports/{id}", s.handleGetExport)
		r.Get("/exports/{id}/context", s.handleExportContext)
		r.Get("/exports/{id}/skill.zip", s.handleSkillZip)
		r.Get("/exports/{id}/files/*", s.handleExportFile)

		r.Post("/ingest", s.handleIngest)
		r.Get("/jobs/{id}/graph", s.handleJobGraph)
		r.Post("/jobs/{id}/fuse", s.handleJobFuse)
	})
	return r
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := chi.RouteContext(r.Context()).RoutePattern()
		if route == "" {
			route = "unmatched"
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		elapsed := time.Since(start)
		observability.HTTPRequestsTotal.WithLabelValues(route, strconv.Itoa(status)).Inc()
		observability.HTTPRequestDuration.WithLabelValues(route).Observe(elapsed.Seconds())
		s.log.Debug("request", "method", r.Method, "route", route, "status", status,
			"duration", elapsed.Round(time.Microsecond), "request_id", middleware.GetReqID(r.Context()))
	})
}

func (s *Server) rateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ok, err := s.limiter.Allow(r.Context(), clientKey(r))
		if err != nil {
			// fail open
			s.log.Warn("rate limiter unavailable", "err", err)
			ok = true
		}
		if !ok {
			observability.RateLimitedTotal.Inc()
			w.Header().Set("Retry-After", "60")
			writeJSON(w, http.StatusTooManyRequests, errorBody{Error: "rate limit exceeded", Code: CodeRateLimited})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func clientKey(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
