package consensus

import "testing"

func TestReliableOrderedNetworkFIFOPerLink(t *testing.T) {
	n := NewReliableOrderedNetwork()
	m1 := Message{Kind: Prepare, Src: 0, Dst: 1, Value: ValueV1}
	m2 := Message{Kind: Commit, Src: 0, Dst: 1, Value: ValueV1}
	n.Send(m1)
	n.Send(m2)

	inFlight := n.InFlight()
	if len(inFlight) != 1 || inFlight[0] != m1 {
		t.Fatalf("expected only head of link deliverable, got %v", inFlight)
	}

	if n.Deliver(m2) {
		t.Fatalf("must not allow delivering out of FIFO order")
	}
	if !n.Deliver(m1) {
		t.Fatalf("expected m1 delivery to succeed")
	}
	inFlight = n.InFlight()
	if len(inFlight) != 1 || inFlight[0] != m2 {
		t.Fatalf("expected m2 now deliverable, got %v", inFlight)
	}
}

func TestReliableOrderedNetworkNeverDrops(t *testing.T) {
	n := NewReliableOrderedNetwork()
	m := Message{Kind: Prepare, Src: 0, Dst: 1, Value: ValueV1}
	n.Send(m)
	if err := n.Drop(m); err != ErrDropLimitReached {
		t.Fatalf("expected ErrDropLimitReached, got %v", err)
	}
}

func TestLossyUnorderedNetworkRespectsDropBudget(t *testing.T) {
	n := NewLossyUnorderedNetwork(1)
	m1 := Message{Kind: Prepare, Src: 0, Dst: 1, Value: ValueV1}
	m2 := Message{Kind: Prepare, Src: 0, Dst: 2, Value: ValueV1}
	n.Send(m1)
	n.Send(m2)

	if err := n.Drop(m1); err != nil {
		t.Fatalf("expected first drop to succeed, got %v", err)
	}
	if err := n.Drop(m2); err != ErrDropLimitReached {
		t.Fatalf("expected second drop to hit budget, got %v", err)
	}
	if n.Drops() != 1 {
		t.Fatalf("expected Drops()==1, got %d", n.Drops())
	}
}

func TestLossyUnorderedNetworkDeliverRemovesFromBag(t *testing.T) {
	n := NewLossyUnorderedNetwork(0)
	m := Message{Kind: Prepare, Src: 0, Dst: 1, Value: ValueV1}
	n.Send(m)
	if !n.Deliver(m) {
		t.Fatalf("expected delivery to succeed")
	}
	if len(n.InFlight()) != 0 {
		t.Fatalf("expected message removed after delivery")
	}
	if n.Deliver(m) {
		t.Fatalf("must not deliver the same message twice (non-duplication)")
	}
}
