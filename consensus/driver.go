package consensus

import (
	"fmt"
	"strings"

	"github.com/Onyekachukwu-Nweke/consensus-systems/cache"
)

// WedgeReason distinguishes why a run ended without any replica
// deciding, per SPEC_FULL §9 Open Question 2: a driver must not conflate
// "a critical message was dropped" with "the honest quorum was never
// reachable to begin with".
type WedgeReason int

const (
	WedgeNone WedgeReason = iota
	WedgeUnknown
	WedgeDropExhausted
	WedgeQuorumUnreachable
	WedgeProposalLost
)

func (w WedgeReason) String() string {
	switch w {
	case WedgeNone:
		return "none"
	case WedgeDropExhausted:
		return "drop budget exhausted before quorum reached"
	case WedgeQuorumUnreachable:
		return "honest replica count cannot form quorum"
	case WedgeProposalLost:
		return "initial proposal never reached enough replicas"
	default:
		return "unknown"
	}
}

// RunReport summarizes one Driver.Run invocation, the "driver observable
// outputs" of SPEC_FULL §6.
type RunReport struct {
	Decided         bool
	Wedged          bool
	WedgeReason     WedgeReason
	StatesVisited   int
	MaxDepthReached int
	Violations      []Violation
	// ViolationTrace is the sequence of events (by string description)
	// leading to the first observed safety violation, empty if none.
	ViolationTrace []string
}

// step is one node in the explored state graph, reached by some prefix
// of delivery/drop choices recorded in trace.
type step struct {
	engine *Engine
	trace  []string
	depth  int
}

// Driver performs the bounded breadth-first state-space search described
// in SPEC_FULL §4.5, modeled on the model-checker shape of
// run_scenario/ActorModel in the reference this package is built from:
// a bounded max-depth exploration that evaluates safety properties on
// every reachable state and halts on the first violation.
type Driver struct {
	MaxPhase int
	visited  *cache.VisitedSet
}

// NewDriver returns a Driver bounding exploration to maxPhase steps and
// deduplicating visited states via a bounded, TTL-less cache (a single
// Run never needs TTL expiry; it needs intra-run dedup only).
func NewDriver(maxPhase int) *Driver {
	return &Driver{
		MaxPhase: maxPhase,
		visited:  cache.NewVisitedSet(1<<20, 0),
	}
}

// Run explores every schedule reachable from engine's current state (it
// should be called immediately after Engine.Propose) up to MaxPhase
// steps deep, checking safety invariants at every reachable state and
// halting at the first violation found.
func (d *Driver) Run(engine *Engine) RunReport {
	report := RunReport{WedgeReason: WedgeNone}

	queue := []step{{engine: engine, depth: 0}}
	var terminalStates []*Engine

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]

		report.StatesVisited++
		if cur.depth > report.MaxDepthReached {
			report.MaxDepthReached = cur.depth
		}

		if v := CheckAll(cur.engine.Replicas); len(v) > 0 {
			report.Violations = v
			report.ViolationTrace = cur.trace
			return report
		}

		if anyDecided(cur.engine.Replicas) {
			report.Decided = true
			// Safety already holds at this state; a decision on one
			// honest replica does not end exploration of other
			// schedules in a full model checker, but for this
			// engine-scoped Run, reaching a decision under the current
			// schedule is itself the liveness witness SPEC_FULL §6
			// asks the driver to observe. We still keep exploring
			// siblings already queued to look for violations.
		}

		if cur.depth >= d.MaxPhase {
			terminalStates = append(terminalStates, cur.engine)
			continue
		}

		inFlight := cur.engine.InFlight()
		if len(inFlight) == 0 {
			terminalStates = append(terminalStates, cur.engine)
			continue
		}

		key := stateKey(cur.engine)
		if !d.visited.MarkVisited(key) {
			continue
		}

		for _, m := range inFlight {
			// Deliver branch.
			next := cur.engine.Clone()
			next.Deliver(m)
			queue = append(queue, step{
				engine: next,
				depth:  cur.depth + 1,
				trace:  append(append([]string{}, cur.trace...), fmt.Sprintf("deliver %s", m)),
			})

			// Drop branch, only where the budget allows it.
			dropCandidate := cur.engine.Clone()
			if err := dropCandidate.Drop(m); err == nil {
				queue = append(queue, step{
					engine: dropCandidate,
					depth:  cur.depth + 1,
					trace:  append(append([]string{}, cur.trace...), fmt.Sprintf("drop %s", m)),
				})
			}
		}
	}

	if !report.Decided {
		report.Wedged = true
		report.WedgeReason = classifyWedge(engine, terminalStates)
	}
	return report
}

// Walk runs a single, non-branching schedule to completion with no drops,
// mirroring the manual simulate_fault_scenario walkthrough style this
// package's model is based on: useful for producing one concrete
// illustrative trace rather than a full state-space report. At each step
// it delivers, among the messages InFlight offers, the one of the
// earliest protocol kind (Propose, then Prepare, Commit, Decide), ties
// broken by InFlight order. The walk ends when nothing is left in flight
// or after MaxPhase deliveries; Decided reports whether any replica
// decided by then.
func (d *Driver) Walk(engine *Engine) RunReport {
	report := RunReport{WedgeReason: WedgeNone}
	var trace []string

	for {
		report.StatesVisited++
		if v := CheckAll(engine.Replicas); len(v) > 0 {
			report.Violations = v
			report.ViolationTrace = trace
			return report
		}
		inFlight := engine.InFlight()
		if len(inFlight) == 0 || report.StatesVisited > d.MaxPhase {
			if anyDecided(engine.Replicas) {
				report.Decided = true
				return report
			}
			report.Wedged = true
			report.WedgeReason = classifyWedge(engine, nil)
			return report
		}
		m := inFlight[0]
		for _, c := range inFlight[1:] {
			if c.Kind < m.Kind {
				m = c
			}
		}
		engine.Deliver(m)
		trace = append(trace, fmt.Sprintf("deliver %s", m))
	}
}

func anyDecided(replicas []*Replica) bool {
	for _, r := range replicas {
		if r.Decided {
			return true
		}
	}
	return false
}

// classifyWedge distinguishes why a run ended without a decision, per
// SPEC_FULL §9 Open Question 2.
func classifyWedge(engine *Engine, terminalStates []*Engine) WedgeReason {
	honest := 0
	for _, r := range engine.Replicas {
		if !r.Faulty {
			honest++
		}
	}
	quorum := 2*engine.Opts.F + 1
	if honest < quorum {
		return WedgeQuorumUnreachable
	}

	proposerAccepted := false
	for _, r := range engine.Replicas {
		if r.ID == engine.Opts.InitialProposer && r.Accepted != ValueNone {
			proposerAccepted = true
		}
	}
	if !proposerAccepted {
		return WedgeProposalLost
	}

	if engine.Net.Drops() > 0 {
		return WedgeDropExhausted
	}
	return WedgeUnknown
}

// stateKey builds a deduplication key summarizing the global state:
// every replica's phase/accepted/tallies plus the in-flight message set.
// It must be stable and collision-free for any two distinct states that
// could otherwise be mistaken as identical.
func stateKey(e *Engine) string {
	var b strings.Builder
	for _, r := range e.Replicas {
		fmt.Fprintf(&b, "%d:%s:%s:%v:%v:%v|", r.ID, r.Phase, r.Accepted, r.PrepareTally, r.CommitTally, r.Decided)
	}
	b.WriteString("#")
	for _, m := range e.InFlight() {
		fmt.Fprintf(&b, "%s;", m)
	}
	return b.String()
}
