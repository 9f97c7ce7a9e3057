// Package api serves the read-only HTTP surface: liveness, metrics, and
// flight/credit queries. Mutations never flow through HTTP; they belong to
// the authenticated call boundary upstream of the core.
package api

import (
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/skysurety/skysurety-node/logger"
	"github.com/skysurety/skysurety-node/metrics"
)

// Server provides HTTP endpoints.
type Server struct {
	reader LedgerReader
	log    zerolog.Logger
	server *http.Server
}

// NewServer creates a new Server instance.
func NewServer(reader LedgerReader, port int, log zerolog.Logger) *Server {
	s := &Server{
		reader: reader,
		log:    logger.Component(log, "api"),
	}

	router := mux.NewRouter()
	router.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	router.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)
	router.HandleFunc("/api/v1/status", s.handleStatus).Methods(http.MethodGet)
	router.HandleFunc("/api/v1/flights", s.handleFlights).Methods(http.MethodGet)
	router.HandleFunc("/api/v1/flights/{key}", s.handleFlight).Methods(http.MethodGet)
	router.HandleFunc("/api/v1/credits/{passenger}", s.handleCredit).Methods(http.MethodGet)

	s.server = &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: router,
	}
	return s
}

// Start starts the HTTP server, verifying the port binds before returning.
func (s *Server) Start() error {
	if s.server == nil {
		return fmt.Errorf("query server is nil")
	}

	startupChan := make(chan error, 1)

	go func() {
		ln, err := net.Listen("tcp", s.server.Addr)
		if err != nil {
			startupChan <- fmt.Errorf("failed to bind to address %s: %w", s.server.Addr, err)
			return
		}
		startupChan <- nil

		err = s.server.Serve(ln)
		switch err {
		case nil:
			s.log.Info().Msg("query server stopped normally")
		case http.ErrServerClosed:
			s.log.Info().Msg("query server closed gracefully")
		default:
			s.log.Error().Err(err).Msg("query server error")
		}
	}()

	select {
	case err := <-startupChan:
		if err != nil {
			return err
		}
		s.log.Info().Str("addr", s.server.Addr).Msg("query server listening")
		return nil
	case <-time.After(5 * time.Second):
		return fmt.Errorf("server startup timeout")
	}
}

// Stop shuts down the HTTP server.
func (s *Server) Stop() error {
	if s.server != nil {
		return s.server.Close()
	}
	return nil
}
