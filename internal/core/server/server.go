package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/SAWGraph/public/internal/core/config"
	"github.com/SAWGraph/public/internal/core/health"
	middleware "github.com/SAWGraph/public/internal/core/middleware"
	"github.com/SAWGraph/public/internal/core/router"
	"github.com/SAWGraph/public/internal/debuglog"
	"github.com/SAWGraph/public/internal/sparql/client"
	"github.com/SAWGraph/public/internal/web"
)

type Deps struct {
	Runner   router.Runner
	Exec     client.Executor
	Prober   health.RepositoryProber
	DebugLog *debuglog.Log
	// Metrics defaults to the default Prometheus registry.
	Metrics http.Handler
}

func NewRouter(logger *slog.Logger, d Deps) (http.Handler, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	index, err := web.Index(d.Runner.Vocabulary())
	if err != nil {
		return nil, err
	}
	if d.Metrics == nil {
		d.Metrics = promhttp.Handler()
	}
	if d.DebugLog == nil {
		d.DebugLog = debuglog.New(0)
	}

	r := chi.NewRouter()
	r.Use(middleware.Recover(logger))
	r.Use(middleware.Logging(logger))
	r.Use(middleware.CORS())

	r.Get("/", index)
	r.Get("/healthz", health.Liveness())
	r.Get("/readyz", health.Readiness(d.Prober, 10*time.Second))
	r.Get("/metrics", d.Metrics.ServeHTTP)

	r.Route("/api", func(r chi.Router) {
		r.Post("/query", router.HandleQuery(logger, d.Runner))
		r.Get("/last", router.HandleLast(logger, d.Runner))
		r.Get("/vocabulary", router.HandleVocabulary(d.Runner))

		r.Route("/debug", func(r chi.Router) {
			r.Get("/probes", router.HandleProbes())
			r.Post("/run", router.HandleDebugRun(logger, d.Exec, d.DebugLog))
			r.Get("/log", router.HandleDebugLog(d.DebugLog))
			r.Delete("/log", router.HandleDebugLog(d.DebugLog))
		})
	})
	return r, nil
}

// sets up http and starts serving
func Run(ctx context.Context, cfg config.Config, logger *slog.Logger, handler http.Handler) error {
	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		// A batch runs up to three queries back to back.
		WriteTimeout: 3*cfg.SPARQL.Timeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http listen", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		return nil
	case err := <-errCh:
		return err
	}
}
