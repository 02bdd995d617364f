package infra

import (
	"context"
	"net/http"
	"time"
)

const maxHeaderBytes = 1 << 20

// HTTPServer wraps http.Server with lifecycle helpers. The write timeout is
// generous because a synchronous generation request can spend a long time
// walking provider chains.
type HTTPServer struct {
	srv *http.Server
}

// NewHTTPServer builds a server bound to the configured port.
func NewHTTPServer(cfg *Config, handler http.Handler) *HTTPServer {
	return &HTTPServer{srv: &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadTimeout:       cfg.HTTPReadTimeout,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      cfg.HTTPWriteTimeout,
		IdleTimeout:       cfg.HTTPIdleTimeout,
		MaxHeaderBytes:    maxHeaderBytes,
	}}
}

// Start blocks serving requests until the server stops.
func (s *HTTPServer) Start() error {
	if s == nil || s.srv == nil {
		return nil
	}
	return s.srv.ListenAndServe()
}

// Shutdown drains in-flight requests until ctx expires.
func (s *HTTPServer) Shutdown(ctx context.Context) error {
	if s == nil || s.srv == nil {
		return nil
	}
	return s.srv.Shutdown(ctx)
}
