package rest

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/fortuna/dynasty/internal/api/websocket"
	"github.com/fortuna/dynasty/internal/cache"
	"github.com/fortuna/dynasty/internal/config"
	"github.com/fortuna/dynasty/internal/scheduler"
)

// Server represents the REST API server
type Server struct {
	port    string
	server  *http.Server
	handler *Handler
}

// NewServer creates a new REST API server
func NewServer(port string, registry *config.Registry, orch *scheduler.Orchestrator, rc *cache.RedisCache, hub *websocket.Hub) *Server {
	handler := NewHandler(registry, orch, rc)

	router := mux.NewRouter()

	// Apply middleware
	router.Use(RecoveryMiddleware)
	router.Use(LoggingMiddleware)
	router.Use(CORSMiddleware)

	// Health check
	router.HandleFunc("/health", handler.HealthCheck).Methods("GET")

	// Sync progress stream
	if hub != nil {
		router.Handle("/ws/sync", hub)
	}

	// API v1 routes
	api := router.PathPrefix("/api/v1").Subrouter()

	api.HandleFunc("/franchises", handler.ListFranchises).Methods("GET")

	// Per-franchise routes
	league := api.PathPrefix("/{slug}").Subrouter()

	league.HandleFunc("/seasons", handler.GetSeasons).Methods("GET")
	league.HandleFunc("/seasons/{season}/standings", handler.GetStandings).Methods("GET")
	league.HandleFunc("/seasons/{season}/recap", handler.GetRecap).Methods("GET")
	league.HandleFunc("/seasons/{season}/playoffs", handler.GetPlayoffBracket).Methods("GET")
	league.HandleFunc("/seasons/{season}/teams", handler.GetPowerRankings).Methods("GET")
	league.HandleFunc("/seasons/{season}/values", handler.GetPlayerValues).Methods("GET")
	league.HandleFunc("/seasons/{season}/keepers", handler.GetKeeperCandidates).Methods("GET")

	league.HandleFunc("/managers", handler.GetManagers).Methods("GET")
	league.HandleFunc("/managers/unknown", handler.GetUnknownManagers).Methods("GET")
	league.HandleFunc("/managers", handler.SaveManagers).Methods("POST")
	league.HandleFunc("/records", handler.GetRecords).Methods("GET")
	league.HandleFunc("/franchises", handler.GetFranchises).Methods("GET")
	league.HandleFunc("/franchises/{franchiseID}", handler.GetFranchiseDetail).Methods("GET")

	league.HandleFunc("/players/search", handler.SearchPlayers).Methods("GET")

	league.HandleFunc("/sync", handler.TriggerSync).Methods("POST")
	league.HandleFunc("/sync/status", handler.GetSyncStatus).Methods("GET")

	return &Server{
		port:    port,
		handler: handler,
		server: &http.Server{
			Addr:    fmt.Sprintf(":%s", port),
			Handler: router,
		},
	}
}

// Start starts the REST API server
func (s *Server) Start() error {
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
