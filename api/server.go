// Package api provides the HTTP control surface for the consensus
// sweep service. With no generated stub package available to ground a
// .proto-based service on (see DESIGN.md), the sweep/server boundary is
// plain HTTP+JSON, matching the shape already used for ancillary
// metrics endpoints elsewhere in this module.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Onyekachukwu-Nweke/consensus-systems/consensus"
	"github.com/Onyekachukwu-Nweke/consensus-systems/sweep"
)

// Version is the current version of the consensus engine.
const Version = "0.1.0"

// Server exposes the sweep.Service over HTTP+JSON.
type Server struct {
	svc  *sweep.Service
	auth *Authenticator

	httpServer *http.Server
	startTime  time.Time

	submitted int64
	rejected  int64

	mu      sync.RWMutex
	running bool
}

// ServerConfig holds configuration for the control server.
type ServerConfig struct {
	Address          string
	SweepWorkers     int
	SweepBatchSize   int
	SweepBatchWindow time.Duration
	Auth             AuthConfig
}

// DefaultServerConfig returns a ServerConfig with sensible defaults.
func DefaultServerConfig() *ServerConfig {
	return &ServerConfig{
		Address:          ":8080",
		SweepWorkers:     8,
		SweepBatchSize:   16,
		SweepBatchWindow: 5 * time.Second,
	}
}

// NewServer creates a control server wrapping a freshly-built sweep.Service.
func NewServer(config *ServerConfig) (*Server, error) {
	if config == nil {
		config = DefaultServerConfig()
	}

	svcConfig := sweep.DefaultServiceConfig()
	svcConfig.Workers = config.SweepWorkers
	svcConfig.BatchSize = config.SweepBatchSize
	svcConfig.BatchTimeout = config.SweepBatchWindow

	svc := sweep.NewService(svcConfig)
	if err := svc.Start(); err != nil {
		return nil, fmt.Errorf("api: failed to start sweep service: %w", err)
	}

	return &Server{
		svc:       svc,
		auth:      NewAuthenticator(config.Auth),
		startTime: time.Now(),
	}, nil
}

// mux builds the HTTP routing table.
func (s *Server) mux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/sweep", s.withAuth(s.handleSweep))
	mux.HandleFunc("/stats", s.withAuth(s.handleStats))
	return mux
}

// Start starts the HTTP server on the configured address (blocking).
func (s *Server) Start(address string) error {
	if err := s.beginListening(address); err != nil {
		return err
	}
	return s.httpServer.ListenAndServe()
}

// StartAsync starts the HTTP server in a goroutine.
func (s *Server) StartAsync(address string) error {
	if err := s.beginListening(address); err != nil {
		return err
	}
	go func() {
		_ = s.httpServer.ListenAndServe()
	}()
	return nil
}

func (s *Server) beginListening(address string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return errors.New("api: server is already running")
	}

	s.httpServer = &http.Server{
		Addr:              address,
		Handler:           s.mux(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	s.running = true
	s.startTime = time.Now()
	return nil
}

// Stop gracefully stops the HTTP server, if listening, and always stops
// the underlying sweep service started by NewServer.
func (s *Server) Stop() {
	s.mu.Lock()
	running := s.running
	httpServer := s.httpServer
	s.running = false
	s.mu.Unlock()

	if running && httpServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = httpServer.Shutdown(ctx)
	}
	s.svc.Stop()
}

// sweepRequest is the JSON body of POST /sweep.
type sweepRequest struct {
	Label           string `json:"label"`
	N               int    `json:"n"`
	F               int    `json:"f"`
	FaultyIDs       []int  `json:"faulty_ids"`
	NetworkMode     string `json:"network_mode"`
	MaxDrops        int    `json:"max_drops"`
	InitialProposer int    `json:"initial_proposer"`
	InitialValue    int    `json:"initial_value"`
	MaxPhase        int    `json:"max_phase"`
	ExtraProposals  []int  `json:"extra_proposals,omitempty"`
}

type sweepResponse struct {
	Accepted bool     `json:"accepted"`
	Errors   []string `json:"errors,omitempty"`
}

func (s *Server) handleSweep(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req sweepRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, fmt.Errorf("api: invalid request body: %w", err))
		return
	}

	faulty := make([]consensus.NodeID, len(req.FaultyIDs))
	for i, id := range req.FaultyIDs {
		faulty[i] = consensus.NodeID(id)
	}
	extra := make([]consensus.Value, len(req.ExtraProposals))
	for i, v := range req.ExtraProposals {
		extra[i] = consensus.Value(v)
	}

	opts := consensus.Options{
		N:               req.N,
		F:               req.F,
		FaultyIDs:       faulty,
		NetworkMode:     parseNetworkMode(req.NetworkMode),
		MaxDrops:        req.MaxDrops,
		InitialProposer: consensus.NodeID(req.InitialProposer),
		InitialValue:    consensus.Value(req.InitialValue),
		MaxPhase:        req.MaxPhase,
		ExtraProposals:  extra,
	}

	cfg := sweep.ScenarioConfig{Label: req.Label, Opts: opts}
	if err := s.svc.Submit(cfg); err != nil {
		atomic.AddInt64(&s.rejected, 1)
		writeJSON(w, http.StatusUnprocessableEntity, sweepResponse{Accepted: false, Errors: []string{err.Error()}})
		return
	}

	atomic.AddInt64(&s.submitted, 1)
	writeJSON(w, http.StatusAccepted, sweepResponse{Accepted: true})
}

func parseNetworkMode(s string) consensus.NetworkMode {
	if s == "lossy_unordered" {
		return consensus.LossyUnordered
	}
	return consensus.ReliableOrdered
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.mu.RLock()
	running := s.running
	uptime := time.Since(s.startTime)
	s.mu.RUnlock()

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"healthy":        running,
		"version":        Version,
		"uptime_seconds": uptime.Seconds(),
	})
}

func (s *Server) handleStats(w http.ResponseWriter, _ *http.Request) {
	stats := s.svc.GetStats()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"submitted":         atomic.LoadInt64(&s.submitted),
		"rejected":          atomic.LoadInt64(&s.rejected),
		"service_submitted": stats.Submitted,
		"service_certified": stats.Certified,
		"service_rejected":  stats.Rejected,
		"service_completed": stats.Completed,
	})
}

// withAuth wraps h with bearer-token validation when auth is enabled.
func (s *Server) withAuth(h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r.Header.Get("Authorization"))
		if err := s.auth.ValidateToken(token); err != nil {
			writeJSONError(w, http.StatusUnauthorized, err)
			return
		}
		h(w, r)
	}
}

func bearerToken(header string) string {
	const prefix = "Bearer "
	if len(header) > len(prefix) && header[:len(prefix)] == prefix {
		return header[len(prefix):]
	}
	return ""
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeJSONError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

// IsRunning reports whether the server is currently serving.
func (s *Server) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}
