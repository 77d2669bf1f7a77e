package consensus

import (
	"errors"
	"fmt"
)

// Config validation errors, per SPEC_FULL §7: these are configuration
// errors, fatal at construction, and never enter the state machine.
var (
	ErrInsufficientReplicas = errors.New("consensus: n must be >= 2f+1")
	ErrTooManyFaulty        = errors.New("consensus: len(faulty_ids) must be <= f")
	ErrFaultyProposer       = errors.New("consensus: initial_proposer must not be in faulty_ids")
	ErrNegativeMaxDrops     = errors.New("consensus: max_drops must be >= 0")
	ErrInvalidInitialValue  = errors.New("consensus: initial_value must not be ValueNone")
)

// Options configures a new Engine, mirroring the recognized construction
// options of SPEC_FULL §6.
type Options struct {
	N                int
	F                int
	FaultyIDs        []NodeID
	NetworkMode      NetworkMode
	MaxDrops         int
	InitialProposer  NodeID
	InitialValue     Value
	MaxPhase         int
	// ExtraProposals lets the initial proposer put additional Propose(v)
	// messages in flight beyond InitialValue, via Engine.ProposeExtra,
	// exercising "first Propose wins" under adversarial delivery order
	// (SPEC_FULL §12, supplemented feature drawn from the model this
	// package is based on).
	ExtraProposals []Value
}

// DefaultOptions returns a minimal, valid four-node configuration that
// tolerates one fault (f=1) and marks no replica faulty, the n=4, f=1
// shape used by several SPEC_FULL §8 scenarios.
func DefaultOptions() Options {
	return Options{
		N:               4,
		F:               1,
		FaultyIDs:       nil,
		NetworkMode:     ReliableOrdered,
		MaxDrops:        0,
		InitialProposer: 0,
		InitialValue:    ValueV1,
		MaxPhase:        64,
	}
}

// Validate checks the recognized construction options per SPEC_FULL §7.
func (o Options) Validate() error {
	quorum := 2*o.F + 1
	if o.N < quorum {
		return fmt.Errorf("%w: n=%d f=%d", ErrInsufficientReplicas, o.N, o.F)
	}
	if len(o.FaultyIDs) > o.F {
		return fmt.Errorf("%w: got %d, f=%d", ErrTooManyFaulty, len(o.FaultyIDs), o.F)
	}
	for _, id := range o.FaultyIDs {
		if id == o.InitialProposer {
			return fmt.Errorf("%w: proposer=%d", ErrFaultyProposer, id)
		}
	}
	if o.MaxDrops < 0 {
		return fmt.Errorf("%w: got %d", ErrNegativeMaxDrops, o.MaxDrops)
	}
	if o.InitialValue == ValueNone {
		return ErrInvalidInitialValue
	}
	return nil
}

// Engine owns the global state vector for one agreement instance: the
// replica set and the network connecting them. It is constructed once
// per run and is the unit the Driver explores.
type Engine struct {
	Opts     Options
	Replicas []*Replica
	Net      Network
	peers    []NodeID
}

// NewEngine validates opts and constructs the initial global state: n
// replicas (faulty ones marked per FaultyIDs) and an empty network of
// the requested mode.
func NewEngine(opts Options) (*Engine, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	faulty := NewFaultSet(opts.FaultyIDs)
	quorum := 2*opts.F + 1

	peers := make([]NodeID, opts.N)
	replicas := make([]*Replica, opts.N)
	for i := 0; i < opts.N; i++ {
		id := NodeID(i)
		peers[i] = id
		replicas[i] = NewReplica(id, quorum, faulty.Contains(id))
	}

	var net Network
	switch opts.NetworkMode {
	case LossyUnordered:
		net = NewLossyUnorderedNetwork(opts.MaxDrops)
	default:
		net = NewReliableOrderedNetwork()
	}

	return &Engine{Opts: opts, Replicas: replicas, Net: net, peers: peers}, nil
}

// Propose issues the initial broadcast from Opts.InitialProposer,
// enqueuing both its outbound Propose messages (so every other replica
// independently accepts the value and prepares it) and its own Prepare
// vote (so replicas needing a quorum equal to n are not left one vote
// short). It is the seed event for every scenario; see SPEC_FULL §2
// "Data flow".
func (e *Engine) Propose(v Value) {
	r := e.Replicas[e.Opts.InitialProposer]
	for _, m := range r.Propose(v, e.peers) {
		e.Net.Send(m)
	}
}

// ProposeExtra broadcasts an additional Propose(v) from Opts.InitialProposer
// to every other replica, without touching the proposer's own Accepted
// value (already latched by the first Propose call). It exercises the
// "first Propose wins, later ones are silently discarded" precondition
// from handlePropose under a proposer that puts more than one value in
// flight, per SPEC_FULL §12's "multiple proposed values from the seed
// node" supplemented feature: different subsets of replicas may see
// different Propose messages first depending on delivery order. A no-op
// if the proposer is faulty.
func (e *Engine) ProposeExtra(v Value) {
	proposer := e.Replicas[e.Opts.InitialProposer]
	if proposer.Faulty {
		return
	}
	for _, dst := range e.peers {
		if dst == proposer.ID {
			continue
		}
		e.Net.Send(Message{Kind: Propose, Src: proposer.ID, Dst: dst, Value: v})
	}
}

// Deliver hands m to its destination replica's Handle and enqueues any
// resulting outbound messages. It reports false if m was not currently
// in flight.
func (e *Engine) Deliver(m Message) bool {
	if !e.Net.Deliver(m) {
		return false
	}
	r := e.Replicas[m.Dst]
	for _, out := range r.Handle(m, e.peers) {
		e.Net.Send(out)
	}
	return true
}

// Drop removes m from the network without delivering it, counting
// against the configured drop budget.
func (e *Engine) Drop(m Message) error {
	return e.Net.Drop(m)
}

// InFlight enumerates currently buffered messages.
func (e *Engine) InFlight() []Message {
	return e.Net.InFlight()
}

// Clone deep-copies the engine's mutable state (replicas and network)
// so the Driver can branch the search without aliasing. Opts and peers
// are immutable for the run and are shared, not copied.
func (e *Engine) Clone() *Engine {
	replicas := make([]*Replica, len(e.Replicas))
	for i, r := range e.Replicas {
		replicas[i] = r.Clone()
	}
	return &Engine{
		Opts:     e.Opts,
		Replicas: replicas,
		Net:      cloneNetwork(e.Net),
		peers:    e.peers,
	}
}

func cloneNetwork(n Network) Network {
	switch net := n.(type) {
	case *reliableOrderedNetwork:
		clone := &reliableOrderedNetwork{links: make(map[[2]NodeID][]Message, len(net.links))}
		clone.order = append(clone.order, net.order...)
		for k, q := range net.links {
			cp := make([]Message, len(q))
			copy(cp, q)
			clone.links[k] = cp
		}
		return clone
	case *lossyUnorderedNetwork:
		bag := NewMessageBag()
		for _, m := range net.bag.Snapshot() {
			bag.Add(m)
		}
		return &lossyUnorderedNetwork{bag: bag, drops: net.drops, maxDrops: net.maxDrops}
	default:
		// Only the two network modes above are ever constructed by
		// NewEngine; an unfamiliar implementation is a programming
		// error, not a run-time condition to recover from.
		panic(fmt.Sprintf("consensus: unclonable network type %T", n))
	}
}
