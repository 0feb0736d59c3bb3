package metrics

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Server serves the registry on /metrics for the duration of a build
// run.
type Server struct {
	httpServer *http.Server
}

// NewServer returns a Server listening on addr. It does not start
// listening until Start is called.
func NewServer(addr string) *Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(Registry, promhttp.HandlerOpts{}))
	return &Server{httpServer: &http.Server{Addr: addr, Handler: mux}}
}

// Start runs the listener until ctx is canceled or Stop is called.
// Errors other than the expected shutdown error are returned on errCh.
func (s *Server) Start(ctx context.Context) <-chan error {
	errCh := make(chan error, 1)
	go func() {
		defer close(errCh)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()
	go func() {
		<-ctx.Done()
		if err := s.httpServer.Shutdown(context.Background()); err != nil {
			slog.Warn("metrics server shutdown", "error", err)
		}
	}()
	return errCh
}

// Stop shuts the listener down immediately.
func (s *Server) Stop() error {
	return s.httpServer.Close()
}
