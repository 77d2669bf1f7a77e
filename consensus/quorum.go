package consensus

// HasQuorum reports whether tally has reached the Byzantine quorum size
// 2f+1. This is the only place the fault-tolerance parameter f governs
// protocol logic; a simple majority (n/2+1) is deliberately not used,
// since it is insufficient to guarantee agreement against f Byzantine
// replicas.
func HasQuorum(tally, f int) bool {
	return tally >= 2*f+1
}
