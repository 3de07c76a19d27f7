// Package api serves the annotation web UI: stimulus pages, submissions,
// and health endpoints. All navigation decisions are delegated to the
// annotation service; this layer only translates them into redirects and
// rendered pages.
package api

import (
	"context"
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/otel/trace"

	"github.com/annolab/vidmark/internal/app/annotation"
	"github.com/annolab/vidmark/internal/config"
	"github.com/annolab/vidmark/internal/domain/render"
	"github.com/annolab/vidmark/internal/infra/storage/resultstore"
	"github.com/annolab/vidmark/pkg/common/logger"
	"github.com/annolab/vidmark/pkg/common/otel"
)

//go:embed templates/*.html
var templateFS embed.FS

// Server hosts the annotation web UI.
type Server struct {
	cfg       config.WebConfig
	logger    *logger.Logger
	router    *chi.Mux
	svc       *annotation.Service
	store     *resultstore.Store
	renderers map[string]render.Renderer
	tracer    trace.Tracer
	metrics   *Metrics
	tmpl      *template.Template
}

// NewServer wires the router, middleware, and templates.
func NewServer(
	cfg config.WebConfig,
	log *logger.Logger,
	tracer trace.Tracer,
	svc *annotation.Service,
	store *resultstore.Store,
	renderers map[string]render.Renderer,
	metrics *Metrics,
) (*Server, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parsing templates: %w", err)
	}

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(tracingMiddleware(tracer))
	r.Use(loggerMiddleware(log, metrics))
	r.Use(middleware.Recoverer)

	s := &Server{
		cfg:       cfg,
		logger:    log,
		router:    r,
		svc:       svc,
		store:     store,
		renderers: renderers,
		tracer:    tracer,
		metrics:   metrics,
		tmpl:      tmpl,
	}

	s.routes()
	return s, nil
}

func tracingMiddleware(tracer trace.Tracer) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, span := tracer.Start(r.Context(), r.Method+" "+r.URL.Path)
			defer span.End()

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func loggerMiddleware(log *logger.Logger, metrics *Metrics) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			defer func() {
				ctx := r.Context()
				if metrics != nil {
					metrics.IncRequestsTotal(ctx, r.Method, r.URL.Path, ww.Status())
					metrics.ObserveRequestDuration(ctx, r.Method, r.URL.Path, time.Since(start))
				}
				log.Info(ctx, "request completed",
					"method", r.Method,
					"path", r.URL.Path,
					"status", ww.Status(),
					"duration", time.Since(start),
					"trace_id", otel.GetTraceID(ctx),
				)
			}()

			next.ServeHTTP(ww, r)
		})
	}
}

func (s *Server) routes() {
	s.router.Route("/v1", func(r chi.Router) {
		r.Get("/liveness", s.handleLiveness)
		r.Get("/readiness", s.handleReadiness)
	})

	s.router.Get("/", s.handleIndex)
	s.router.Get("/thanks", s.handleThanks)
	s.router.Post("/submit/{task}/{stimID}", s.handleSubmit)
	s.router.Get("/{task}", s.handleTaskStart)
	s.router.Get("/{task}/{stimID}", s.handleAnnotate)
	s.router.Get("/{task}/{stimID}/unfilled", s.handleUnfilled)
}

// Handler exposes the router, mostly for tests.
func (s *Server) Handler() http.Handler { return s.router }

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%s", s.cfg.Host, s.cfg.Port),
		Handler:      s.router,
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
		IdleTimeout:  s.cfg.IdleTimeout,
		ErrorLog:     logger.NewStdLogger(s.logger, logger.LevelError),
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			s.logger.Error(shutdownCtx, "failed to shutdown server", "error", err)
		}
	}()

	s.logger.Info(ctx, "starting server", "addr", server.Addr)

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) handleLiveness(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func (s *Server) handleReadiness(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}
