package consensus

import "fmt"

// Violation describes a single safety-invariant failure observed on a
// particular global state, identifying which invariant failed and the
// replicas involved, for inclusion in a Driver counterexample trace.
type Violation struct {
	Invariant string
	Detail    string
}

func (v Violation) String() string {
	return fmt.Sprintf("%s: %s", v.Invariant, v.Detail)
}

// CheckAgreement verifies that any two decided honest replicas agree on
// the same value (SPEC_FULL §4.6/§8 invariant 1).
func CheckAgreement(replicas []*Replica) *Violation {
	var decidedValue Value = ValueNone
	var decidedBy NodeID = -1
	seenDecided := false

	for _, r := range replicas {
		if r.Faulty || !r.Decided {
			continue
		}
		if !seenDecided {
			decidedValue = r.Accepted
			decidedBy = r.ID
			seenDecided = true
			continue
		}
		if r.Accepted != decidedValue {
			return &Violation{
				Invariant: "Agreement",
				Detail: fmt.Sprintf("replica %d decided %s but replica %d decided %s",
					decidedBy, decidedValue, r.ID, r.Accepted),
			}
		}
	}
	return nil
}

// CheckValidity verifies that a decided replica never decided the
// sentinel ValueNone (SPEC_FULL §4.6).
func CheckValidity(replicas []*Replica) *Violation {
	for _, r := range replicas {
		if r.Decided && r.Accepted == ValueNone {
			return &Violation{
				Invariant: "Validity",
				Detail:    fmt.Sprintf("replica %d decided with no accepted value", r.ID),
			}
		}
	}
	return nil
}

// CheckIntegrity verifies that Decided==true implies Phase==Decided
// (SPEC_FULL §4.6).
func CheckIntegrity(replicas []*Replica) *Violation {
	for _, r := range replicas {
		if r.Decided && r.Phase != Decided {
			return &Violation{
				Invariant: "Integrity",
				Detail:    fmt.Sprintf("replica %d decided=true but phase=%s", r.ID, r.Phase),
			}
		}
	}
	return nil
}

// CheckNoPrematureDecision verifies that a replica in phase Decided has
// a commit tally for its accepted value that actually reached quorum
// (SPEC_FULL §4.6/§8 invariant 2).
func CheckNoPrematureDecision(replicas []*Replica) *Violation {
	for _, r := range replicas {
		if r.Phase != Decided {
			continue
		}
		if r.Accepted == ValueNone {
			continue // already reported by CheckValidity
		}
		tally := r.CommitTally[r.Accepted.ordinal()]
		if !HasQuorum(tally, r.f()) {
			return &Violation{
				Invariant: "NoPrematureDecision",
				Detail: fmt.Sprintf("replica %d decided %s with commit tally %d < quorum %d",
					r.ID, r.Accepted, tally, r.Quorum),
			}
		}
	}
	return nil
}

// CheckAll runs every safety predicate against the current replica set
// and returns every violation found, in invariant-declaration order.
func CheckAll(replicas []*Replica) []Violation {
	var out []Violation
	for _, check := range []func([]*Replica) *Violation{
		CheckAgreement, CheckValidity, CheckIntegrity, CheckNoPrematureDecision,
	} {
		if v := check(replicas); v != nil {
			out = append(out, *v)
		}
	}
	return out
}
