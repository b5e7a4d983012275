package notify

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"time"

	"github.com/conneroisu/dxcwatch/internal/errors"
	"github.com/conneroisu/dxcwatch/internal/logging"
	"github.com/conneroisu/dxcwatch/internal/validation"
)

const shutdownTimeout = 5 * time.Second

// Server exposes a Hub over HTTP:
//
//	GET /ws       WebSocket event stream
//	GET /healthz  {"status":"ok","clients":N}
type Server struct {
	hub      *Hub
	logger   logging.Logger
	server   *http.Server
	listener net.Listener
}

// Listen binds addr and prepares the HTTP server. Serving starts with Run.
func Listen(addr string, hub *Hub, logger logging.Logger) (*Server, error) {
	if err := validation.ValidateListenAddr(addr); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = logging.Discard()
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, errors.NewConfigError(errors.CodeConfigInvalid, "cannot listen on "+addr+": "+err.Error())
	}

	s := &Server{hub: hub, logger: logger.WithComponent("notify"), listener: ln}
	mux := http.NewServeMux()
	mux.Handle("GET /ws", hub)
	mux.HandleFunc("GET /healthz", s.health)
	s.server = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s, nil
}

// Addr returns the bound address.
func (s *Server) Addr() string { return s.listener.Addr().String() }

// Run serves until ctx is cancelled, then shuts the hub and server down.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info(ctx, "Notify server listening", "addr", s.Addr())
		errCh <- s.server.Serve(s.listener)
	}()

	select {
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.hub.Shutdown(shutdownCtx); err != nil {
		s.logger.Warn(shutdownCtx, err, "Notify hub did not stop in time")
	}
	if err := s.server.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"status":  "ok",
		"clients": s.hub.Clients(),
	})
}
