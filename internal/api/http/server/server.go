package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/surrlabs/surr/internal/config"
)

// HTTPServer wraps an http.Server with address and lifecycle methods.
type HTTPServer struct {
	server *http.Server
	cfg    config.HTTP
}

// NewHTTPServer creates an HTTPServer with the given handler and config.
func NewHTTPServer(handler http.Handler, cfg config.HTTP) *HTTPServer {
	return &HTTPServer{
		server: &http.Server{
			Addr:              cfg.Address,
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
		},
		cfg: cfg,
	}
}

// Start serves on the configured address, with TLS when enabled.
func (s *HTTPServer) Start() error {
	var err error
	if s.cfg.EnableHTTPS {
		err = s.server.ListenAndServeTLS(s.cfg.CertFileName, s.cfg.KeyFileName)
	} else {
		err = s.server.ListenAndServe()
	}
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Stop gracefully shuts the server down.
func (s *HTTPServer) Stop(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// Address returns the configured listen address.
func (s *HTTPServer) Address() string {
	return s.server.Addr
}
