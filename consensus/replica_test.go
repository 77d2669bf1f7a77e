package consensus

import "testing"

func peersN(n int) []NodeID {
	peers := make([]NodeID, n)
	for i := range peers {
		peers[i] = NodeID(i)
	}
	return peers
}

func TestProposeBroadcastsExcludingSelf(t *testing.T) {
	peers := peersN(4)
	r := NewReplica(0, 3, false)

	out := r.Propose(ValueV1, peers)
	if len(out) != 6 {
		t.Fatalf("expected 3 outbound proposes and 3 outbound prepares, got %d messages", len(out))
	}
	counts := map[MessageKind]int{}
	for _, m := range out {
		if m.Dst == r.ID {
			t.Fatalf("proposer must not send to itself: %v", m)
		}
		if (m.Kind != Propose && m.Kind != Prepare) || m.Value != ValueV1 {
			t.Fatalf("unexpected message: %v", m)
		}
		counts[m.Kind]++
	}
	if counts[Propose] != 3 || counts[Prepare] != 3 {
		t.Fatalf("expected 3 proposes and 3 prepares, got %v", counts)
	}
	if r.Accepted != ValueV1 {
		t.Fatalf("expected accepted=V1, got %v", r.Accepted)
	}
	if r.PrepareTally[ValueV1.ordinal()] != 1 {
		t.Fatalf("expected self-vote tally of 1, got %d", r.PrepareTally[ValueV1.ordinal()])
	}
}

func TestProposeIsNoOpOnSecondCall(t *testing.T) {
	peers := peersN(4)
	r := NewReplica(0, 3, false)
	r.Propose(ValueV1, peers)
	out := r.Propose(ValueV2, peers)
	if out != nil {
		t.Fatalf("expected nil on re-propose, got %v", out)
	}
	if r.Accepted != ValueV1 {
		t.Fatalf("accepted must not change on re-propose, got %v", r.Accepted)
	}
}

func TestFaultyReplicaNeverActs(t *testing.T) {
	peers := peersN(4)
	r := NewReplica(3, 3, true)
	if r.Phase != Failed {
		t.Fatalf("expected faulty replica to start Failed, got %v", r.Phase)
	}
	if out := r.Propose(ValueV1, peers); out != nil {
		t.Fatalf("faulty replica must not propose, got %v", out)
	}
	if out := r.Handle(Message{Kind: Propose, Value: ValueV1}, peers); out != nil {
		t.Fatalf("faulty replica must not respond, got %v", out)
	}
	if r.Phase != Failed {
		t.Fatalf("faulty replica must stay Failed, got %v", r.Phase)
	}
}

func TestPrepareQuorumTransitionsToPreparedAndBroadcastsCommit(t *testing.T) {
	peers := peersN(4)
	quorum := 3 // n=4, f=1
	r := NewReplica(1, quorum, false)
	r.Accepted = ValueV1
	r.PrepareTally[ValueV1.ordinal()] = 1 // as if self-proposed earlier

	// First external prepare: tally 2, not yet quorum.
	out := r.Handle(Message{Kind: Prepare, Src: 0, Value: ValueV1}, peers)
	if out != nil {
		t.Fatalf("expected no transition before quorum, got %v", out)
	}
	if r.Phase != Init {
		t.Fatalf("expected still Init, got %v", r.Phase)
	}

	// Second external prepare: tally 3, crosses quorum.
	out = r.Handle(Message{Kind: Prepare, Src: 2, Value: ValueV1}, peers)
	if r.Phase != Prepared {
		t.Fatalf("expected Prepared, got %v", r.Phase)
	}
	if len(out) != 3 {
		t.Fatalf("expected broadcast of 3 commits, got %d", len(out))
	}
	for _, m := range out {
		if m.Kind != Commit {
			t.Fatalf("expected Commit broadcast, got %v", m)
		}
	}
	if r.CommitTally[ValueV1.ordinal()] != 1 {
		t.Fatalf("expected self-vote commit tally of 1, got %d", r.CommitTally[ValueV1.ordinal()])
	}

	// Threshold must not re-fire on a later prepare for the same value.
	out = r.Handle(Message{Kind: Prepare, Src: 3, Value: ValueV1}, peers)
	if out != nil {
		t.Fatalf("expected no re-broadcast past quorum, got %v", out)
	}
}

func TestPrepareForUnacceptedValueIsDiscarded(t *testing.T) {
	peers := peersN(4)
	r := NewReplica(1, 3, false)
	// No proposal seen yet: Accepted is ValueNone.
	out := r.Handle(Message{Kind: Prepare, Src: 0, Value: ValueV1}, peers)
	if out != nil {
		t.Fatalf("expected discard, got %v", out)
	}
	if r.PrepareTally[ValueV1.ordinal()] != 0 {
		t.Fatalf("expected tally unchanged, got %d", r.PrepareTally[ValueV1.ordinal()])
	}
}

func TestCommitBeforePreparedIsDiscarded(t *testing.T) {
	peers := peersN(4)
	r := NewReplica(1, 3, false)
	r.Accepted = ValueV1
	// Phase is still Init: a Commit arriving before Prepared is dropped,
	// per the adopted Open Question 1 semantics.
	out := r.Handle(Message{Kind: Commit, Src: 0, Value: ValueV1}, peers)
	if out != nil {
		t.Fatalf("expected discard, got %v", out)
	}
	if r.CommitTally[ValueV1.ordinal()] != 0 {
		t.Fatalf("expected commit tally unchanged, got %d", r.CommitTally[ValueV1.ordinal()])
	}
}

func TestCommitQuorumTransitionsToCommittedAndBroadcastsDecide(t *testing.T) {
	peers := peersN(4)
	r := NewReplica(1, 3, false)
	r.Accepted = ValueV1
	r.Phase = Prepared
	r.CommitTally[ValueV1.ordinal()] = 1

	out := r.Handle(Message{Kind: Commit, Src: 0, Value: ValueV1}, peers)
	if r.Phase != Prepared {
		t.Fatalf("expected still Prepared before quorum, got %v", r.Phase)
	}
	if out != nil {
		t.Fatalf("expected no decide yet, got %v", out)
	}

	out = r.Handle(Message{Kind: Commit, Src: 2, Value: ValueV1}, peers)
	if r.Phase != Committed {
		t.Fatalf("expected Committed, got %v", r.Phase)
	}
	if len(out) != 3 {
		t.Fatalf("expected broadcast of 3 decides, got %d", len(out))
	}
}

func TestDecideSetsDecidedOnce(t *testing.T) {
	peers := peersN(4)
	r := NewReplica(1, 3, false)
	r.Accepted = ValueV1
	r.Phase = Committed

	out := r.Handle(Message{Kind: Decide, Src: 0, Value: ValueV1}, peers)
	if out != nil {
		t.Fatalf("Decide must not produce outbound messages, got %v", out)
	}
	if !r.Decided || r.Phase != Decided {
		t.Fatalf("expected decided=true, phase=Decided; got decided=%v phase=%v", r.Decided, r.Phase)
	}

	// Re-delivery is a no-op.
	r.Handle(Message{Kind: Decide, Src: 2, Value: ValueV1}, peers)
	if r.Phase != Decided {
		t.Fatalf("expected phase to stay Decided, got %v", r.Phase)
	}
}

func TestDecideForWrongValueIsDiscarded(t *testing.T) {
	peers := peersN(4)
	r := NewReplica(1, 3, false)
	r.Accepted = ValueV1
	r.Phase = Committed

	r.Handle(Message{Kind: Decide, Src: 0, Value: ValueV2}, peers)
	if r.Decided {
		t.Fatalf("must not decide on a value it never accepted")
	}
}
