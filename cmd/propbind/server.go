package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/Azhovan/propbind"
	"github.com/Azhovan/propbind/info"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
)

const shutdownTimeout = 10 * time.Second

// newRouter serves the info endpoint at /info, extracted properties at
// /props and /props/{prefix}, and metrics from reg at /metrics.
// Sensitive values are redacted.
func newRouter(sources *propbind.PropertySources, logger *slog.Logger, reg *prometheus.Registry) chi.Router {
	binder := propbind.NewBinder(sources, propbind.WithLogger(logger))
	endpoint := info.NewEndpoint(info.EndpointOptions{
		Contributors: []info.Contributor{info.NewEnvironmentContributor(binder)},
		Logger:       logger,
	})

	metrics := newServerMetrics(reg)
	metrics.observeSources(sources)

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(metrics.middleware)
	r.Mount("/info", endpoint.Routes())
	r.Handle("/metrics", metricsHandler(reg))

	props := func(w http.ResponseWriter, req *http.Request) {
		prefix := chi.URLParam(req, "prefix")
		opts := []propbind.DumpOption{propbind.AsJSON(), propbind.WithIndent("")}
		if req.URL.Query().Has("sources") {
			opts = append(opts, propbind.WithSources())
		}

		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		if err := propbind.Dump(w, sources, prefix, opts...); err != nil {
			logger.ErrorContext(req.Context(), "write properties failed",
				slog.String("prefix", prefix),
				slog.Any("error", err))
		}
	}
	r.Get("/props", props)
	r.Get("/props/{prefix}", props)

	return r
}

// serve runs the HTTP server until ctx is done, then shuts it down gracefully.
func serve(ctx context.Context, addr string, handler http.Handler, logger *slog.Logger) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("serving properties", slog.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutdown signal received")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}
