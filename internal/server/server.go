package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/adpulse/internal/config"
	"github.com/sells-group/adpulse/internal/dashboard"
	"github.com/sells-group/adpulse/internal/store"
)

// Server is the dashboard API: one JSON endpoint per presentation section,
// export downloads, and refresh-run history.
type Server struct {
	cfg       config.ServerConfig
	builder   *dashboard.Builder
	refresher *Refresher
	store     store.Store
}

// New creates a Server. The store may be nil; run-history endpoints then
// return 404.
func New(cfg config.ServerConfig, builder *dashboard.Builder, refresher *Refresher, st store.Store) *Server {
	return &Server{cfg: cfg, builder: builder, refresher: refresher, store: st}
}

// Router builds the HTTP routing table.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(requestLogger)
	r.Use(recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.cfg.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))
	if s.cfg.RateLimit > 0 {
		r.Use(throttle(s.cfg.RateLimit, s.cfg.RateBurst))
	}

	r.Get("/healthz", s.handleHealth)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Use(collectMetrics)

		r.Get("/summary", s.section(func(v dashboard.View) any { return s.builder.Summary(v) }))
		r.Get("/revenue", s.section(func(v dashboard.View) any { return s.builder.Revenue(v) }))
		r.Get("/platforms", s.section(func(v dashboard.View) any { return s.builder.Platforms(v) }))
		r.Get("/geography", s.section(func(v dashboard.View) any { return s.builder.Geography(v) }))
		r.Get("/campaigns", s.section(func(v dashboard.View) any { return s.builder.Campaigns(v) }))
		r.Get("/quality", s.handleQuality)
		r.Get("/export/{section}", s.handleExport)

		r.Post("/refresh", s.handleRefresh)
		r.Get("/runs", s.handleListRuns)
		r.Get("/runs/{id}", s.handleGetRun)
	})

	return r
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.cfg.Port),
		Handler:      s.Router(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: time.Duration(s.cfg.RequestTimeout) * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		zap.L().Info("shutting down server")
		shutCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		srv.Shutdown(shutCtx)
	}()

	zap.L().Info("starting server", zap.Int("port", s.cfg.Port))
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return eris.Wrap(err, "server listen")
	}
	return nil
}
