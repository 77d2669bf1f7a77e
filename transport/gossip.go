package transport

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sync"
	"time"

	"github.com/Onyekachukwu-Nweke/consensus-systems/consensus"
)

// ConsensusMessageHandler processes one delivered consensus.Message,
// mirroring the signature Engine.Deliver expects to be driven by.
type ConsensusMessageHandler func(consensus.Message) error

// Relay sits between a ZmqNode and the consensus engine it drives: it
// broadcasts a replica's outbound messages to every registered peer and
// deduplicates inbound envelopes by content hash, a second layer of
// replay protection independent of the node's own nonce cache, adapted
// from Propagator's seen-messages cache. In this fixed, fully-connected
// replica topology there is no multi-hop forwarding to bound (every
// replica already addresses every peer directly), so Relay does not
// carry the original's hop-counting relay behavior — it only
// broadcasts and dedupes.
type Relay struct {
	node *ZmqNode

	seen sync.Map // content hash -> time.Time

	cacheExpiry   time.Duration
	cleanInterval time.Duration

	stopChan chan struct{}
	wg       sync.WaitGroup
	mu       sync.Mutex
	running  bool
}

// NewRelay returns a Relay wrapping node.
func NewRelay(node *ZmqNode) *Relay {
	return &Relay{
		node:          node,
		cacheExpiry:   5 * time.Minute,
		cleanInterval: time.Minute,
		stopChan:      make(chan struct{}),
	}
}

// Start launches the cache cleaner.
func (r *Relay) Start() {
	r.mu.Lock()
	if r.running {
		r.mu.Unlock()
		return
	}
	r.running = true
	r.mu.Unlock()

	r.wg.Add(1)
	go r.cacheCleaner()
}

// Stop shuts down the cache cleaner.
func (r *Relay) Stop() {
	r.mu.Lock()
	if !r.running {
		r.mu.Unlock()
		return
	}
	r.running = false
	r.mu.Unlock()

	close(r.stopChan)
	r.wg.Wait()
}

// Broadcast sends each message in msgs to its own Dst over the node and
// returns the last send error, if any. It is the transport-level
// counterpart to Replica.broadcast: the replica decides *which* peers
// get a message (every peer but itself), and Relay actually ships each
// one over the wire.
func (r *Relay) Broadcast(msgs []consensus.Message) error {
	var lastErr error
	for _, m := range msgs {
		if err := r.node.Send(m); err != nil {
			lastErr = err
		}
	}
	return lastErr
}

// HandleIncoming marks an envelope as seen and reports whether it should
// be processed (true) or discarded as a duplicate (false).
func (r *Relay) HandleIncoming(env *Envelope) bool {
	hash := r.hashEnvelope(env)
	if _, seen := r.seen.LoadOrStore(hash, time.Now()); seen {
		return false
	}
	return true
}

func (r *Relay) hashEnvelope(env *Envelope) string {
	data := struct {
		From consensus.NodeID
		Msg  consensus.Message
		Nano int64
	}{From: env.From, Msg: env.Msg, Nano: env.Timestamp.UnixNano()}

	b, _ := json.Marshal(data)
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

func (r *Relay) cacheCleaner() {
	defer r.wg.Done()
	ticker := time.NewTicker(r.cleanInterval)
	defer ticker.Stop()
	for {
		select {
		case <-r.stopChan:
			return
		case <-ticker.C:
			r.cleanCache()
		}
	}
}

func (r *Relay) cleanCache() {
	cutoff := time.Now().Add(-r.cacheExpiry)
	r.seen.Range(func(key, value interface{}) bool {
		if ts, ok := value.(time.Time); ok && ts.Before(cutoff) {
			r.seen.Delete(key)
		}
		return true
	})
}

// RelayStats summarizes the relay's current cache state.
type RelayStats struct {
	CacheSize int
	IsRunning bool
}

// Stats returns a snapshot of the relay's cache.
func (r *Relay) Stats() RelayStats {
	r.mu.Lock()
	defer r.mu.Unlock()

	size := 0
	r.seen.Range(func(_, _ interface{}) bool {
		size++
		return true
	})
	return RelayStats{CacheSize: size, IsRunning: r.running}
}
