package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
)

const shutdownTimeout = 10 * time.Second

// ShutdownHook releases a resource once the HTTP server stopped accepting requests.
type ShutdownHook func(ctx context.Context) error

// Run starts the HTTP server and performs a graceful shutdown when the process
// receives an interrupt or ctx is cancelled. Hooks run in order after the
// server drained, sharing the shutdown deadline.
func Run(ctx context.Context, srv *http.Server, logger *slog.Logger, hooks ...ShutdownHook) error {
	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", "addr", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	select {
	case <-ctx.Done():
		logger.Info("context cancelled, shutting down")
	case sig := <-sigCh:
		logger.Info("shutdown signal received", "signal", sig.String())
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	err := srv.Shutdown(shutdownCtx)
	for _, hook := range hooks {
		if hookErr := hook(shutdownCtx); hookErr != nil {
			logger.Error("shutdown hook failed", slog.Any("error", hookErr))
			err = errors.Join(err, hookErr)
		}
	}
	return err
}
