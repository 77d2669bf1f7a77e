package consensus

import "fmt"

// NodeID is a dense small-integer replica address in [0, n).
type NodeID int

// Value is an element of the agreement domain, plus the sentinel
// ValueNone used before a replica has accepted anything.
type Value int

const (
	ValueNone Value = iota
	ValueV1
	ValueV2
	ValueV3
)

// numValues is the count of real (non-sentinel) values in the domain.
const numValues = 3

func (v Value) String() string {
	switch v {
	case ValueNone:
		return "none"
	case ValueV1:
		return "V1"
	case ValueV2:
		return "V2"
	case ValueV3:
		return "V3"
	default:
		return fmt.Sprintf("Value(%d)", int(v))
	}
}

// ordinal returns a zero-based index into tally arrays for a real value.
// Callers must never pass ValueNone.
func (v Value) ordinal() int {
	return int(v) - 1
}

// MessageKind is the closed set of message types exchanged by replicas.
type MessageKind int

const (
	Propose MessageKind = iota
	Prepare
	Commit
	Decide
)

func (k MessageKind) String() string {
	switch k {
	case Propose:
		return "Propose"
	case Prepare:
		return "Prepare"
	case Commit:
		return "Commit"
	case Decide:
		return "Decide"
	default:
		return fmt.Sprintf("MessageKind(%d)", int(k))
	}
}

// Message is a single point-to-point protocol message. A broadcast is
// modeled as n distinct Messages sharing Kind, Src and Value.
type Message struct {
	Kind  MessageKind
	Src   NodeID
	Dst   NodeID
	Value Value
}

func (m Message) String() string {
	return fmt.Sprintf("%s(%s) %d->%d", m.Kind, m.Value, m.Src, m.Dst)
}

// Phase is the 5-element ordered replica lifecycle. Transitions are
// monotone: Init < Prepared < Committed < Decided, and Failed is set only
// once, at construction, and never left.
type Phase int

const (
	Init Phase = iota
	Prepared
	Committed
	Decided
	Failed
)

func (p Phase) String() string {
	switch p {
	case Init:
		return "Init"
	case Prepared:
		return "Prepared"
	case Committed:
		return "Committed"
	case Decided:
		return "Decided"
	case Failed:
		return "Failed"
	default:
		return fmt.Sprintf("Phase(%d)", int(p))
	}
}
