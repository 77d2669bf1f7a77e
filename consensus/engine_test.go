package consensus

import (
	"errors"
	"testing"
)

func TestOptionsValidate(t *testing.T) {
	cases := []struct {
		name string
		opts Options
		want error
	}{
		{"ok", Options{N: 4, F: 1, InitialValue: ValueV1}, nil},
		{"too few replicas", Options{N: 2, F: 1, InitialValue: ValueV1}, ErrInsufficientReplicas},
		{"too many faulty", Options{N: 5, F: 1, FaultyIDs: []NodeID{0, 1}, InitialValue: ValueV1}, ErrTooManyFaulty},
		{"faulty proposer", Options{N: 4, F: 1, FaultyIDs: []NodeID{0}, InitialProposer: 0, InitialValue: ValueV1}, ErrFaultyProposer},
		{"negative drops", Options{N: 4, F: 1, MaxDrops: -1, InitialValue: ValueV1}, ErrNegativeMaxDrops},
		{"sentinel initial value", Options{N: 4, F: 1}, ErrInvalidInitialValue},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			err := c.opts.Validate()
			if c.want == nil {
				if err != nil {
					t.Fatalf("expected no error, got %v", err)
				}
				return
			}
			if !errors.Is(err, c.want) {
				t.Fatalf("expected %v, got %v", c.want, err)
			}
		})
	}
}

func TestNewEngineMarksFaultyReplicas(t *testing.T) {
	e, err := NewEngine(Options{N: 5, F: 2, FaultyIDs: []NodeID{3, 4}, InitialValue: ValueV1})
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	for _, r := range e.Replicas {
		wantFaulty := r.ID == 3 || r.ID == 4
		if r.Faulty != wantFaulty {
			t.Fatalf("replica %d: faulty=%v, want %v", r.ID, r.Faulty, wantFaulty)
		}
		if wantFaulty && r.Phase != Failed {
			t.Fatalf("replica %d: expected Failed phase, got %s", r.ID, r.Phase)
		}
	}
}

func TestEngineCloneDoesNotAliasReplicaState(t *testing.T) {
	e, err := NewEngine(Options{N: 4, F: 1, InitialValue: ValueV1})
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	e.Propose(ValueV1)

	clone := e.Clone()
	clone.Replicas[1].Phase = Decided

	if e.Replicas[1].Phase == Decided {
		t.Fatalf("mutating clone must not affect original")
	}
}

func TestEngineProposeExtraLetsLaterProposesLoseTheRace(t *testing.T) {
	e, err := NewEngine(Options{N: 4, F: 1, InitialValue: ValueV1})
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	e.Propose(ValueV1)
	e.ProposeExtra(ValueV2)

	guard := 0
	for len(e.InFlight()) > 0 && guard < 200 {
		e.Deliver(e.InFlight()[0])
		guard++
	}

	for _, r := range e.Replicas {
		if r.Accepted != ValueV1 {
			t.Fatalf("replica %d: accepted %s, want %s (first Propose delivered must win)", r.ID, r.Accepted, ValueV1)
		}
		if !r.Decided {
			t.Fatalf("replica %d failed to decide after full delivery", r.ID)
		}
	}
}

func TestEngineProposeExtraIsNoOpForFaultyProposer(t *testing.T) {
	// Options.Validate forbids constructing a faulty initial proposer
	// directly, so the guard is exercised by flipping the flag on the
	// already-constructed replica, mirroring the direct-mutation style
	// used by TestEngineCloneDoesNotAliasReplicaState above.
	e, err := NewEngine(Options{N: 4, F: 1, InitialValue: ValueV1})
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	e.Replicas[e.Opts.InitialProposer].Faulty = true
	e.ProposeExtra(ValueV2)

	if len(e.InFlight()) != 0 {
		t.Fatalf("expected no messages from a faulty proposer's extra proposal, got %d", len(e.InFlight()))
	}
}

func TestEngineDeliverEndToEnd(t *testing.T) {
	e, err := NewEngine(Options{N: 4, F: 1, InitialValue: ValueV1})
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	e.Propose(ValueV1)

	guard := 0
	for len(e.InFlight()) > 0 && guard < 100 {
		e.Deliver(e.InFlight()[0])
		guard++
	}

	for _, r := range e.Replicas {
		if !r.Decided {
			t.Fatalf("replica %d failed to decide after full delivery", r.ID)
		}
	}
}
