// Package netx runs the small HTTP endpoints facegate exposes next to the
// console.
package netx

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/dmitrijs2005/facegate/internal/logging"
)

const shutdownTimeout = 5 * time.Second

// ListenAndServe listens on addr and serves h until ctx is cancelled.
func ListenAndServe(ctx context.Context, addr string, h http.Handler, logger logging.Logger) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return Serve(ctx, ln, h, logger)
}

// Serve serves h on ln until ctx is cancelled, then shuts the server down
// gracefully. A clean shutdown returns nil.
func Serve(ctx context.Context, ln net.Listener, h http.Handler, logger logging.Logger) error {
	srv := &http.Server{Handler: h, ReadHeaderTimeout: 10 * time.Second}

	done := make(chan struct{})
	go func() {
		defer close(done)
		<-ctx.Done()
		logger.Info(context.Background(), "Stopping HTTP server...", "address", ln.Addr().String())
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = srv.Shutdown(sctx)
	}()

	logger.Info(ctx, "Starting HTTP server", "address", ln.Addr().String())

	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	<-done
	return nil
}
