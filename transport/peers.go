package transport

import (
	"sync"
	"time"

	"github.com/Onyekachukwu-Nweke/consensus-systems/consensus"
)

// PeerInfo describes a known replica's network location and liveness.
type PeerInfo struct {
	ID       consensus.NodeID
	Address  string
	LastSeen time.Time
}

// PeerManager tracks liveness over a fixed replica set, adapted from
// P2PManager: unlike the original's open peer-discovery network, the
// consensus replica set membership is fixed at deployment (SPEC_FULL §3
// "the fixed set of identifiers... never changes"), so RegisterAll here
// takes an explicit address table rather than gossiping for unknown
// peers. Staleness tracking survives unchanged in spirit: a replica that
// stops heartbeating looks, from the outside, exactly like the silent
// Byzantine failure mode the protocol already tolerates.
type PeerManager struct {
	node *ZmqNode

	mu           sync.RWMutex
	staleTimeout time.Duration

	stopChan chan struct{}
	wg       sync.WaitGroup
	running  bool
}

// NewPeerManager returns a manager wrapping node, with a default stale
// timeout of 5 minutes.
func NewPeerManager(node *ZmqNode) *PeerManager {
	return &PeerManager{
		node:         node,
		staleTimeout: 5 * time.Minute,
		stopChan:     make(chan struct{}),
	}
}

// Start launches the stale-peer monitor.
func (p *PeerManager) Start() {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return
	}
	p.running = true
	p.mu.Unlock()

	p.wg.Add(1)
	go p.monitorStalePeers()
}

// Stop shuts down the monitor.
func (p *PeerManager) Stop() {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return
	}
	p.running = false
	p.mu.Unlock()

	close(p.stopChan)
	p.wg.Wait()
}

// RegisterAll registers the full fixed replica address table, typically
// read from deployment configuration at startup.
func (p *PeerManager) RegisterAll(addresses map[consensus.NodeID]string) {
	for id, addr := range addresses {
		p.node.RegisterPeer(id, addr)
	}
}

func (p *PeerManager) monitorStalePeers() {
	defer p.wg.Done()
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-p.stopChan:
			return
		case <-ticker.C:
			p.logStalePeers()
		}
	}
}

// logStalePeers walks the peers that have not been heard from recently
// and takes no action on them: it neither logs nor unregisters (the
// replica set is fixed). A stale peer in this protocol is
// indistinguishable from one the adversary has marked Byzantine-silent;
// it is never removed from the fixed set.
func (p *PeerManager) logStalePeers() {
	cutoff := time.Now().Add(-p.staleTimeout)
	for _, peer := range p.node.Peers() {
		if peer.LastSeen.Before(cutoff) {
			// Staleness is observable only through HealthyPeers (and
			// Service.GetStatus's HealthyPeers count); nothing is
			// logged here.
			_ = peer
		}
	}
}

// HealthyPeers returns peers seen within the stale timeout.
func (p *PeerManager) HealthyPeers() []*PeerInfo {
	cutoff := time.Now().Add(-p.staleTimeout)
	var healthy []*PeerInfo
	for _, peer := range p.node.Peers() {
		if peer.LastSeen.After(cutoff) {
			healthy = append(healthy, peer)
		}
	}
	return healthy
}

// PeerCount returns the number of registered peers.
func (p *PeerManager) PeerCount() int {
	return len(p.node.Peers())
}
