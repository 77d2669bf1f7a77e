package transport

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-zeromq/zmq4"

	"github.com/Onyekachukwu-Nweke/consensus-systems/consensus"
)

// Common transport errors.
var (
	ErrNodeNotRunning = errors.New("transport: node is not running")
	ErrPeerNotFound   = errors.New("transport: peer not found")
	ErrSendFailed     = errors.New("transport: failed to send message")
)

// Envelope is the wire format for one consensus.Message hop, carrying
// enough routing metadata to detect replays independent of the
// consensus message's own content.
type Envelope struct {
	From      consensus.NodeID  `json:"from"`
	Msg       consensus.Message `json:"msg"`
	Timestamp time.Time         `json:"timestamp"`
	Nonce     string            `json:"nonce"`
}

// EnvelopeHandler processes one received envelope.
type EnvelopeHandler func(env *Envelope) error

// ZmqNode is a single replica's ZeroMQ endpoint: one ROUTER socket for
// receiving, one DEALER socket per peer for sending, adapted from
// hierachain-engine/network/zmq_transport.go with the generic
// map[string]interface{} payload replaced by a typed consensus.Message.
type ZmqNode struct {
	id      consensus.NodeID
	host    string
	port    int
	address string

	ctx    context.Context
	cancel context.CancelFunc

	router  zmq4.Socket
	dealers map[consensus.NodeID]zmq4.Socket

	peers map[consensus.NodeID]*PeerInfo
	mu    sync.RWMutex

	handler EnvelopeHandler
	envChan chan *Envelope

	replayCache     map[string]time.Time
	replayCacheMu   sync.RWMutex
	replayTolerance time.Duration

	running bool
	wg      sync.WaitGroup
}

// NewZmqNode constructs a node for replica id bound to host:port, not yet
// started.
func NewZmqNode(id consensus.NodeID, host string, port int) *ZmqNode {
	ctx, cancel := context.WithCancel(context.Background())
	return &ZmqNode{
		id:              id,
		host:            host,
		port:            port,
		address:         fmt.Sprintf("tcp://%s:%d", host, port),
		ctx:             ctx,
		cancel:          cancel,
		dealers:         make(map[consensus.NodeID]zmq4.Socket),
		peers:           make(map[consensus.NodeID]*PeerInfo),
		envChan:         make(chan *Envelope, 1000),
		replayCache:     make(map[string]time.Time),
		replayTolerance: 60 * time.Second,
	}
}

// Start binds the ROUTER socket and launches the receive/process/replay
// cleanup goroutines.
func (n *ZmqNode) Start() error {
	n.mu.Lock()
	if n.running {
		n.mu.Unlock()
		return errors.New("transport: node already running")
	}

	n.router = zmq4.NewRouter(n.ctx, zmq4.WithID(zmq4.SocketIdentity(fmt.Sprintf("replica-%d", n.id))))
	if err := n.router.Listen(n.address); err != nil {
		n.mu.Unlock()
		return fmt.Errorf("transport: failed to bind router: %w", err)
	}
	n.running = true
	n.mu.Unlock()

	n.wg.Add(3)
	go n.receiverLoop()
	go n.envelopeProcessor()
	go n.replayCacheCleaner()
	return nil
}

// Stop cancels all goroutines and closes every socket, best-effort.
func (n *ZmqNode) Stop() {
	n.mu.Lock()
	if !n.running {
		n.mu.Unlock()
		return
	}
	n.running = false
	n.mu.Unlock()

	n.cancel()
	if n.router != nil {
		_ = n.router.Close()
	}
	for _, dealer := range n.dealers {
		_ = dealer.Close()
	}
	n.wg.Wait()
	close(n.envChan)
}

// RegisterPeer records the network address of another replica.
func (n *ZmqNode) RegisterPeer(id consensus.NodeID, address string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.peers[id] = &PeerInfo{ID: id, Address: address, LastSeen: time.Now()}
}

// UnregisterPeer forgets a replica and closes its dealer socket, if any.
func (n *ZmqNode) UnregisterPeer(id consensus.NodeID) {
	n.mu.Lock()
	defer n.mu.Unlock()
	delete(n.peers, id)
	if dealer, ok := n.dealers[id]; ok {
		_ = dealer.Close()
		delete(n.dealers, id)
	}
}

// Peers returns a copy of the currently registered peer set.
func (n *ZmqNode) Peers() map[consensus.NodeID]*PeerInfo {
	n.mu.RLock()
	defer n.mu.RUnlock()
	out := make(map[consensus.NodeID]*PeerInfo, len(n.peers))
	for id, p := range n.peers {
		cp := *p
		out[id] = &cp
	}
	return out
}

// SetHandler installs the callback invoked for each received envelope.
func (n *ZmqNode) SetHandler(h EnvelopeHandler) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.handler = h
}

// Send ships msg to its Dst over that peer's DEALER socket, dialing it
// lazily on first use.
func (n *ZmqNode) Send(msg consensus.Message) error {
	n.mu.RLock()
	if !n.running {
		n.mu.RUnlock()
		return ErrNodeNotRunning
	}
	peer, ok := n.peers[msg.Dst]
	n.mu.RUnlock()
	if !ok {
		return ErrPeerNotFound
	}

	dealer, err := n.getOrCreateDealer(msg.Dst, peer.Address)
	if err != nil {
		return err
	}

	env := &Envelope{
		From:      n.id,
		Msg:       msg,
		Timestamp: time.Now(),
		Nonce:     fmt.Sprintf("%d-%d-%d", n.id, msg.Dst, time.Now().UnixNano()),
	}
	data, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("transport: failed to marshal envelope: %w", err)
	}
	if err := dealer.Send(zmq4.NewMsg(data)); err != nil {
		return fmt.Errorf("%w: %v", ErrSendFailed, err)
	}
	return nil
}

func (n *ZmqNode) getOrCreateDealer(peerID consensus.NodeID, address string) (zmq4.Socket, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if dealer, ok := n.dealers[peerID]; ok {
		return dealer, nil
	}
	dealer := zmq4.NewDealer(n.ctx, zmq4.WithID(zmq4.SocketIdentity(fmt.Sprintf("replica-%d", n.id))))
	if err := dealer.Dial(address); err != nil {
		return nil, fmt.Errorf("transport: failed to connect to %s: %w", address, err)
	}
	n.dealers[peerID] = dealer
	return dealer, nil
}

func (n *ZmqNode) receiverLoop() {
	defer n.wg.Done()
	for {
		select {
		case <-n.ctx.Done():
			return
		default:
			raw, err := n.router.Recv()
			if err != nil {
				select {
				case <-n.ctx.Done():
					return
				default:
					continue
				}
			}
			var env Envelope
			if err := json.Unmarshal(raw.Bytes(), &env); err != nil {
				continue
			}
			if !n.isValidReplay(&env) {
				continue
			}
			n.touchPeer(env.From)
			select {
			case n.envChan <- &env:
			default:
				// Consumer too slow; drop rather than block the socket.
			}
		}
	}
}

func (n *ZmqNode) touchPeer(id consensus.NodeID) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if p, ok := n.peers[id]; ok {
		p.LastSeen = time.Now()
	}
}

func (n *ZmqNode) envelopeProcessor() {
	defer n.wg.Done()
	for {
		select {
		case <-n.ctx.Done():
			return
		case env, ok := <-n.envChan:
			if !ok {
				return
			}
			n.mu.RLock()
			handler := n.handler
			n.mu.RUnlock()
			if handler != nil {
				_ = handler(env)
			}
		}
	}
}

func (n *ZmqNode) isValidReplay(env *Envelope) bool {
	if env.Nonce == "" {
		return true
	}
	n.replayCacheMu.Lock()
	defer n.replayCacheMu.Unlock()

	if _, seen := n.replayCache[env.Nonce]; seen {
		return false
	}
	if time.Since(env.Timestamp) > n.replayTolerance {
		return false
	}
	n.replayCache[env.Nonce] = time.Now()
	return true
}

func (n *ZmqNode) replayCacheCleaner() {
	defer n.wg.Done()
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-n.ctx.Done():
			return
		case <-ticker.C:
			n.cleanReplayCache()
		}
	}
}

func (n *ZmqNode) cleanReplayCache() {
	n.replayCacheMu.Lock()
	defer n.replayCacheMu.Unlock()
	cutoff := time.Now().Add(-n.replayTolerance)
	for nonce, ts := range n.replayCache {
		if ts.Before(cutoff) {
			delete(n.replayCache, nonce)
		}
	}
}

// Envelopes returns the channel of received envelopes.
func (n *ZmqNode) Envelopes() <-chan *Envelope {
	return n.envChan
}

// NodeStats summarizes a node's current runtime state.
type NodeStats struct {
	ID        consensus.NodeID
	Address   string
	PeerCount int
	IsRunning bool
	QueueSize int
}

// Stats returns a snapshot of the node's current state.
func (n *ZmqNode) Stats() NodeStats {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return NodeStats{
		ID:        n.id,
		Address:   n.address,
		PeerCount: len(n.peers),
		IsRunning: n.running,
		QueueSize: len(n.envChan),
	}
}
