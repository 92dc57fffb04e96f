package rest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

const shutdownTimeout = 5 * time.Second

type Routes struct {
	StaticDir string
	WebSocket http.Handler
	Metrics   http.Handler
	State     http.Handler
}

func NewRouter(routes Routes) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /ping", ping)

	if routes.WebSocket != nil {
		mux.Handle("GET /ws", routes.WebSocket)
	}

	if routes.Metrics != nil {
		mux.Handle("GET /metrics", routes.Metrics)
	}

	if routes.State != nil {
		mux.Handle("GET /state", routes.State)
	}

	if routes.StaticDir != "" {
		mux.Handle("GET /", http.FileServer(http.Dir(routes.StaticDir)))
	}

	return mux
}

// ping answers liveness checks.
func ping(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")

	if _, err := w.Write([]byte("pong")); err != nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

// Start serves handler on port until ctx is canceled, then shuts down gracefully.
func Start(ctx context.Context, logger *slog.Logger, port string, handler http.Handler) error {
	log := logger.With("method", "Start")

	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      handler,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  30 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("failed to start server: %w", err)
	case <-ctx.Done():
	}

	log.Info("shutting down HTTP server")

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}

	return nil
}
