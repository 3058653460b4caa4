package internal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/starford/formfill/internal/api"
	"github.com/starford/formfill/internal/formservice"
	"github.com/starford/formfill/internal/history"
	"github.com/starford/formfill/internal/sse"
)

// Handler builds the HTTP handler of the serve command: health checks and
// the API mounted under /api, with run progress at /api/events.
func (a *App) Handler(broker *sse.Broker) (http.Handler, error) {
	svc, err := a.service(
		formservice.WithObserver(sse.NewObserver(broker)),
		formservice.WithResultsDir(a.cfg.Fill.ResultsDir),
	)
	if err != nil {
		return nil, err
	}
	apiRouter := api.NewRouter(svc, a.cfg.Auth.AuthEnabled(), a.cfg.Auth.Token, broker)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Health check endpoints (unauthenticated).
	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/health/ready", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if a.db == nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":"unavailable"}`))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Mount("/api", apiRouter)
	return r, nil
}

// Serve runs the HTTP API until ctx is cancelled or a shutdown signal
// arrives.
func (a *App) Serve(ctx context.Context) error {
	cfg := a.cfg
	logger := a.log

	broker := sse.NewBroker(2 * time.Second)
	defer broker.Close()

	handler, err := a.Handler(broker)
	if err != nil {
		return err
	}

	// Pick up results files written by earlier CLI runs.
	if n, err := history.Sync(a.db, cfg.Fill.ResultsDir, logger); err != nil {
		logger.Warn("initial sync failed", slog.String("error", err.Error()))
	} else if n > 0 {
		logger.Info("imported results files", slog.Int("count", n))
	}

	httpServer := &http.Server{
		Addr:              cfg.App.HTTP.Address(),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	// Handle shutdown signals.
	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(quit)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
			logger.Info("Context cancelled, initiating shutdown")
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}
