package consensus

import "testing"

func decidedReplica(id NodeID, v Value, quorum int) *Replica {
	r := NewReplica(id, quorum, false)
	r.Accepted = v
	r.Phase = Decided
	r.Decided = true
	r.CommitTally[v.ordinal()] = quorum
	return r
}

func TestCheckAgreementPasses(t *testing.T) {
	rs := []*Replica{
		decidedReplica(0, ValueV1, 3),
		decidedReplica(1, ValueV1, 3),
		NewReplica(2, 3, false),
	}
	if v := CheckAgreement(rs); v != nil {
		t.Fatalf("expected no violation, got %v", v)
	}
}

func TestCheckAgreementCatchesDisagreement(t *testing.T) {
	rs := []*Replica{
		decidedReplica(0, ValueV1, 3),
		decidedReplica(1, ValueV2, 3),
	}
	if v := CheckAgreement(rs); v == nil {
		t.Fatalf("expected Agreement violation")
	}
}

func TestCheckAgreementIgnoresFaultyReplicas(t *testing.T) {
	faulty := NewReplica(2, 3, true)
	faulty.Accepted = ValueV2 // would never really happen, but the checker
	faulty.Decided = true     // must ignore faulty replicas regardless.
	rs := []*Replica{
		decidedReplica(0, ValueV1, 3),
		faulty,
	}
	if v := CheckAgreement(rs); v != nil {
		t.Fatalf("expected faulty replica to be excluded, got %v", v)
	}
}

func TestCheckValidityCatchesSentinelDecision(t *testing.T) {
	r := NewReplica(0, 3, false)
	r.Decided = true
	r.Phase = Decided
	if v := CheckValidity([]*Replica{r}); v == nil {
		t.Fatalf("expected Validity violation for sentinel decision")
	}
}

func TestCheckIntegrityCatchesPhaseMismatch(t *testing.T) {
	r := NewReplica(0, 3, false)
	r.Accepted = ValueV1
	r.Decided = true
	r.Phase = Committed // should be Decided
	if v := CheckIntegrity([]*Replica{r}); v == nil {
		t.Fatalf("expected Integrity violation")
	}
}

func TestCheckNoPrematureDecisionCatchesUnderQuorumCommit(t *testing.T) {
	r := NewReplica(0, 3, false)
	r.Accepted = ValueV1
	r.Phase = Decided
	r.CommitTally[ValueV1.ordinal()] = 1 // below quorum of 3
	if v := CheckNoPrematureDecision([]*Replica{r}); v == nil {
		t.Fatalf("expected NoPrematureDecision violation")
	}
}

func TestCheckAllReturnsEmptyOnHealthyState(t *testing.T) {
	rs := []*Replica{decidedReplica(0, ValueV1, 3), decidedReplica(1, ValueV1, 3)}
	if v := CheckAll(rs); len(v) != 0 {
		t.Fatalf("expected no violations, got %v", v)
	}
}
