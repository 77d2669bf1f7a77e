// Package consensus implements a simplified PBFT-style three-phase
// Byzantine agreement protocol: Propose, Prepare, Commit, Decide.
//
// A fixed set of replicas, addressed by small dense integer ids, attempt
// to agree on a single value from a small enumerated domain. Up to f of
// them may be silently Byzantine: they never send a message and never
// advance their own state. The package models the protocol as a pure,
// single-threaded state machine (see Replica.Handle) driven by an
// in-memory Network and explored exhaustively by a Driver for safety
// violations.
//
// There is no cryptography, no view change, and no persistence here:
// those are explicit non-goals of the protocol this package models.
package consensus
