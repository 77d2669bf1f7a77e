package consensus

import "container/heap"

// bagEntry wraps a Message with a monotonically increasing sequence
// number so the heap retains a stable, deterministic ordering of
// insertion when messages are otherwise unordered (LossyUnordered mode
// delivers with no link-FIFO guarantee, but the Driver still needs a
// reproducible enumeration to drive its search).
type bagEntry struct {
	seq int
	msg Message
}

// messageHeap implements heap.Interface ordered by insertion sequence.
// This is the same container/heap shape as the priority queue this type
// is adapted from, but the ordering key is insertion order rather than
// transaction priority: the LossyUnordered network makes no ordering
// promise, so the heap exists purely to give Snapshot a deterministic,
// reproducible enumeration order: Snapshot copies the heap array as is,
// in O(n), so the oldest entry comes first and the rest follow in heap
// order rather than strict insertion order. Removal-by-value
// (MessageBag.Remove) still needs a linear scan to find the matching
// entry's heap index before heap.Remove can restore the heap invariant
// in O(log n); there is no faster path without also indexing by message
// identity, which this bag's size does not warrant.
type messageHeap []*bagEntry

func (h messageHeap) Len() int            { return len(h) }
func (h messageHeap) Less(i, j int) bool  { return h[i].seq < h[j].seq }
func (h messageHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *messageHeap) Push(x interface{}) { *h = append(*h, x.(*bagEntry)) }
func (h *messageHeap) Pop() interface{} {
	old := *h
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	*h = old[0 : n-1]
	return e
}

// MessageBag is an unordered, non-duplicating multiset of in-flight
// messages, used by LossyUnorderedNetwork to hold messages awaiting
// either delivery or drop in arbitrary order (SPEC_FULL §4.3).
type MessageBag struct {
	heap    messageHeap
	nextSeq int
}

// NewMessageBag returns an empty bag.
func NewMessageBag() *MessageBag {
	b := &MessageBag{}
	heap.Init(&b.heap)
	return b
}

// Add inserts a message into the bag.
func (b *MessageBag) Add(m Message) {
	heap.Push(&b.heap, &bagEntry{seq: b.nextSeq, msg: m})
	b.nextSeq++
}

// Len reports the number of in-flight messages currently held.
func (b *MessageBag) Len() int {
	return b.heap.Len()
}

// Snapshot returns every in-flight message currently held, in a stable
// order, without removing any of them. This backs Network.InFlight.
func (b *MessageBag) Snapshot() []Message {
	out := make([]Message, len(b.heap))
	for i, e := range b.heap {
		out[i] = e.msg
	}
	return out
}

// Remove deletes the first message equal to m from the bag (delivery or
// drop both consume exactly one in-flight occurrence). It reports
// whether a matching message was found. Finding the entry is a linear
// scan (O(n)); only the subsequent heap.Remove is O(log n).
func (b *MessageBag) Remove(m Message) bool {
	for i, e := range b.heap {
		if e.msg == m {
			heap.Remove(&b.heap, i)
			return true
		}
	}
	return false
}
