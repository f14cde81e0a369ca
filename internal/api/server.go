// Package api runs the HTTP and WebSocket surface of the clearinghouse:
// settlement operations as JSON endpoints, a state snapshot for the
// dashboard, and a live event stream over WebSocket.
package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"options-clearinghouse/internal/config"
	"options-clearinghouse/internal/token"
	"options-clearinghouse/pkg/types"
)

// Server runs the HTTP/WebSocket API for the clearinghouse and dashboard
type Server struct {
	cfg        config.Config
	settlement Clearinghouse
	events     <-chan types.Event
	hub        *Hub
	handlers   *Handlers
	server     *http.Server
	logger     *slog.Logger
}

// NewServer creates a new API server
func NewServer(
	cfg config.Config,
	settlement Clearinghouse,
	assets *token.AssetLedger,
	events <-chan types.Event,
	logger *slog.Logger,
) *Server {
	hub := NewHub(logger)
	handlers := NewHandlers(settlement, assets, cfg, hub, logger)

	mux := http.NewServeMux()

	// Settlement operations
	mux.HandleFunc("POST /api/options", handlers.HandleNewOptionType)
	mux.HandleFunc("POST /api/write", handlers.HandleWrite)
	mux.HandleFunc("POST /api/exercise", handlers.HandleExercise)
	mux.HandleFunc("POST /api/redeem", handlers.HandleRedeem)
	mux.HandleFunc("POST /api/sweep", handlers.HandleSweep)

	// Queries
	mux.HandleFunc("GET /api/position", handlers.HandlePosition)
	mux.HandleFunc("GET /api/underlying", handlers.HandleUnderlying)
	mux.HandleFunc("GET /api/snapshot", handlers.HandleSnapshot)
	mux.HandleFunc("/health", handlers.HandleHealth)
	mux.HandleFunc("/ws", handlers.HandleWebSocket)

	// Serve static files (web dashboard)
	mux.Handle("/", http.FileServer(http.Dir("web")))

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Dashboard.Port),
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &Server{
		cfg:        cfg,
		settlement: settlement,
		events:     events,
		hub:        hub,
		handlers:   handlers,
		server:     server,
		logger:     logger.With("component", "api-server"),
	}
}

// Start starts the API server and hub
func (s *Server) Start() error {
	// Start WebSocket hub
	go s.hub.Run()

	// Start event consumer
	go s.consumeEvents()

	s.logger.Info("dashboard server starting", "addr", s.server.Addr)

	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}

	return nil
}

// Stop gracefully stops the server
func (s *Server) Stop() error {
	s.logger.Info("stopping dashboard server")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return s.server.Shutdown(ctx)
}

// consumeEvents reads settlement events and broadcasts them to the dashboard
func (s *Server) consumeEvents() {
	if s.events == nil {
		return
	}
	for evt := range s.events {
		s.hub.BroadcastEvent(NewSettlementEvent(evt))
	}
}
