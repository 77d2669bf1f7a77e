package consensus

// FaultSet designates the subset of replicas that are Byzantine for a
// given run. This package models only silent Byzantine behavior
// (SPEC_FULL §4.4): a faulty replica sends nothing and never advances
// past its initial Failed phase. Equivocation or other active behaviors
// are not modeled and would require a richer adversary.
type FaultSet map[NodeID]bool

// NewFaultSet builds a FaultSet from a list of faulty ids.
func NewFaultSet(ids []NodeID) FaultSet {
	fs := make(FaultSet, len(ids))
	for _, id := range ids {
		fs[id] = true
	}
	return fs
}

// Contains reports whether id is marked faulty.
func (fs FaultSet) Contains(id NodeID) bool {
	return fs[id]
}
