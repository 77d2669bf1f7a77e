package transport

import (
	"fmt"
	"log"
	"sync"

	"github.com/Onyekachukwu-Nweke/consensus-systems/consensus"
)

// ServiceConfig configures a replica's live network endpoint.
type ServiceConfig struct {
	NodeID    consensus.NodeID
	Host      string
	Port      int
	Addresses map[consensus.NodeID]string
}

// DefaultServiceConfig returns a single-node loopback configuration with
// no known peers; callers fill in Addresses from deployment config.
func DefaultServiceConfig(id consensus.NodeID) ServiceConfig {
	return ServiceConfig{
		NodeID:    id,
		Host:      "127.0.0.1",
		Port:      5555,
		Addresses: map[consensus.NodeID]string{},
	}
}

// Status reports a replica's current network-facing state.
type Status struct {
	NodeID       consensus.NodeID
	Address      string
	IsRunning    bool
	PeerCount    int
	HealthyPeers int
	NodeStats    NodeStats
	RelayStats   RelayStats
}

// Service orchestrates ZmqNode, PeerManager, and Relay into a single
// replica network endpoint, adapted from
// hierachain-engine/network/network_service.go's NetworkService.
type Service struct {
	config ServiceConfig
	node   *ZmqNode
	peers  *PeerManager
	relay  *Relay

	mu      sync.RWMutex
	running bool
}

// NewService builds a service for config, not yet started.
func NewService(config ServiceConfig) *Service {
	node := NewZmqNode(config.NodeID, config.Host, config.Port)
	return &Service{
		config: config,
		node:   node,
		peers:  NewPeerManager(node),
		relay:  NewRelay(node),
	}
}

// Start binds the local socket, registers the known peer table, and
// launches the peer monitor and gossip relay.
func (s *Service) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return nil
	}
	if err := s.node.Start(); err != nil {
		return fmt.Errorf("transport: failed to start node: %w", err)
	}

	s.peers.Start()
	s.relay.Start()
	s.peers.RegisterAll(s.config.Addresses)

	s.running = true
	log.Printf("transport: service started for replica %d at %s", s.config.NodeID, s.node.address)
	return nil
}

// Stop tears down the relay, peer monitor, and node, in that order.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}
	s.relay.Stop()
	s.peers.Stop()
	s.node.Stop()

	s.running = false
	log.Printf("transport: service stopped for replica %d", s.config.NodeID)
}

// Broadcast ships a batch of outbound replica messages (as produced by
// consensus.Replica's Propose/Handle) to the network.
func (s *Service) Broadcast(msgs []consensus.Message) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.running {
		return ErrNodeNotRunning
	}
	return s.relay.Broadcast(msgs)
}

// SetMessageHandler installs the callback invoked for each envelope the
// relay accepts as non-duplicate.
func (s *Service) SetMessageHandler(h ConsensusMessageHandler) {
	s.node.SetHandler(func(env *Envelope) error {
		if !s.relay.HandleIncoming(env) {
			return nil
		}
		return h(env.Msg)
	})
}

// GetStatus returns a snapshot of the service's current state.
func (s *Service) GetStatus() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return Status{
		NodeID:       s.config.NodeID,
		Address:      s.node.address,
		IsRunning:    s.running,
		PeerCount:    s.peers.PeerCount(),
		HealthyPeers: len(s.peers.HealthyPeers()),
		NodeStats:    s.node.Stats(),
		RelayStats:   s.relay.Stats(),
	}
}

// IsRunning reports whether the service is currently active.
func (s *Service) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}
