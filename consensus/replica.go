package consensus

// Replica is the per-node record described in SPEC_FULL §3. Handle takes
// an inbound message, updates this record in place and returns any
// outbound messages, never touching any other replica's state. A Replica is owned exclusively by the Driver for
// the duration of a single Handle call.
type Replica struct {
	ID    NodeID
	Phase Phase

	// Accepted is the value this replica has adopted via Propose. It is
	// immutable for the remainder of the run once set.
	Accepted Value

	// PrepareTally and CommitTally count distinct votes per value,
	// indexed by Value.ordinal() rather than keyed by Value directly:
	// the domain is small and enumerable, so an array sidesteps both
	// map hashing and the temptation to hash transient vote state.
	PrepareTally [numValues]int
	CommitTally  [numValues]int

	Decided bool
	Quorum  int // 2f+1, fixed at construction
	Faulty  bool

	// hasProposed latches against re-proposing, independent of Accepted:
	// a faulty proposer's Accepted is never set at all, so Accepted alone
	// cannot guard re-proposal. Mirrors the has_proposed field used by
	// the model this protocol is based on.
	hasProposed bool
}

// NewReplica constructs a replica record. Faulty replicas start in the
// absorbing Failed phase and never leave it.
func NewReplica(id NodeID, quorum int, faulty bool) *Replica {
	r := &Replica{
		ID:       id,
		Phase:    Init,
		Accepted: ValueNone,
		Quorum:   quorum,
		Faulty:   faulty,
	}
	if faulty {
		r.Phase = Failed
	}
	return r
}

// Propose is the initial-proposer entry point: it is not triggered by an
// inbound Message (nothing has been sent yet), so it is modeled as its
// own method rather than a Handle case. It is a no-op on a replica that
// has already proposed, on a faulty replica, or once Accepted is set.
// peers is the full replica set (including r itself): the proposer
// accounts for its own vote with an explicit tally initialization rather
// than by actually delivering a message to itself (SPEC_FULL §9 Open
// Question 3), and broadcasts BOTH a literal Propose(v) and its own
// Prepare(v) vote to every other replica. The Propose broadcast is what
// lets every other replica independently run handlePropose and produce
// its own Prepare broadcast; without it, no replica but the proposer
// ever sets Accepted, and no Prepare it receives ever matches. The
// Prepare broadcast is this replica's own vote reaching its peers the
// same way any other replica's vote does once it has accepted a value —
// omitting it would strand every peer one vote short of a quorum equal
// to n. Mirrors the seed node's on_start behavior in the model this
// protocol is based on, adapted to this package's no-self-message
// convention.
func (r *Replica) Propose(v Value, peers []NodeID) []Message {
	if r.Faulty || r.hasProposed {
		return nil
	}
	r.hasProposed = true
	if r.Phase != Init || r.Accepted != ValueNone {
		return nil
	}
	r.Accepted = v
	r.PrepareTally[v.ordinal()] = 1
	out := r.broadcast(Propose, v, peers)
	return append(out, r.broadcast(Prepare, v, peers)...)
}

// Handle is the replica state machine transition function from SPEC_FULL
// §4.1. A faulty replica short-circuits: it never sends, never advances,
// and returns the record unchanged. Honest replicas process by message
// kind; preconditions that fail simply discard the message with no
// effect (a protocol no-op, not an error, per SPEC_FULL §7). peers is the
// full replica set, used to expand this replica's broadcasts (it never
// re-sends to itself; see Propose).
func (r *Replica) Handle(msg Message, peers []NodeID) []Message {
	if r.Faulty {
		return nil
	}

	switch msg.Kind {
	case Propose:
		return r.handlePropose(msg, peers)
	case Prepare:
		return r.handlePrepare(msg, peers)
	case Commit:
		return r.handleCommit(msg, peers)
	case Decide:
		return r.handleDecide(msg)
	default:
		return nil
	}
}

func (r *Replica) broadcast(kind MessageKind, v Value, peers []NodeID) []Message {
	out := make([]Message, 0, len(peers))
	for _, dst := range peers {
		if dst == r.ID {
			continue
		}
		out = append(out, Message{Kind: kind, Src: r.ID, Dst: dst, Value: v})
	}
	return out
}

func (r *Replica) handlePropose(msg Message, peers []NodeID) []Message {
	if r.Phase != Init || r.Accepted != ValueNone {
		return nil
	}
	r.Accepted = msg.Value
	r.PrepareTally[msg.Value.ordinal()] = 1
	return r.broadcast(Prepare, msg.Value, peers)
}

func (r *Replica) handlePrepare(msg Message, peers []NodeID) []Message {
	if r.Accepted != msg.Value {
		// Either no proposal seen yet, or a prepare for a value this
		// replica never accepted: discarded silently.
		return nil
	}
	r.PrepareTally[msg.Value.ordinal()]++

	if r.Phase == Init && HasQuorum(r.PrepareTally[msg.Value.ordinal()], r.f()) {
		r.Phase = Prepared
		r.CommitTally[msg.Value.ordinal()] = 1
		return r.broadcast(Commit, msg.Value, peers)
	}
	return nil
}

func (r *Replica) handleCommit(msg Message, peers []NodeID) []Message {
	// Commits are only counted once Prepared: a commit arriving before
	// this replica has crossed its own prepare-quorum threshold is
	// discarded. This is a deliberate, known liveness pessimism — see
	// SPEC_FULL §9 Open Question 1 — not a bug: a stricter design would
	// count commits as soon as Accepted matches, gated only at the
	// Prepared transition, but this package adopts the source's
	// stricter discard semantics as specified.
	if r.Accepted != msg.Value || r.Phase != Prepared {
		return nil
	}
	r.CommitTally[msg.Value.ordinal()]++

	if HasQuorum(r.CommitTally[msg.Value.ordinal()], r.f()) {
		r.Phase = Committed
		return r.broadcast(Decide, msg.Value, peers)
	}
	return nil
}

func (r *Replica) handleDecide(msg Message) []Message {
	// Only a replica that has itself crossed the commit quorum (phase
	// Committed) decides; an earlier Decide is discarded, so a Decided
	// replica always holds a commit quorum (NoPrematureDecision).
	if r.Accepted != msg.Value || r.Decided || r.Phase != Committed {
		return nil
	}
	r.Decided = true
	r.Phase = Decided
	return nil
}

// f recovers the fault-tolerance parameter from the stored quorum size
// (quorum = 2f+1), avoiding a second stored field that could drift out of
// sync with Quorum.
func (r *Replica) f() int {
	return (r.Quorum - 1) / 2
}

// Clone returns a deep copy of the replica, used by the Driver to branch
// the state space without aliasing tally arrays (which are fixed-size
// and copied by value, but kept explicit here for clarity and in case the
// representation grows a reference type later).
func (r *Replica) Clone() *Replica {
	c := *r
	return &c
}
