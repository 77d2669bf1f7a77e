package cache

import (
	"testing"
	"time"
)

func TestMarkVisitedReportsNewOnce(t *testing.T) {
	v := NewVisitedSet(10, 0)
	if !v.MarkVisited("a") {
		t.Fatal("expected first mark to report new")
	}
	if v.MarkVisited("a") {
		t.Fatal("expected second mark to report not-new")
	}
	if !v.Seen("a") {
		t.Fatal("expected a to be seen")
	}
	if v.Seen("b") {
		t.Fatal("expected b to be unseen")
	}
}

func TestVisitedSetEvictsAtCapacity(t *testing.T) {
	v := NewVisitedSet(2, 0)
	v.MarkVisited("a")
	v.MarkVisited("b")
	v.MarkVisited("c") // should evict "a"

	if v.Len() > 2 {
		t.Fatalf("expected capacity to be enforced, got len=%d", v.Len())
	}
	if v.Seen("a") {
		t.Fatal("expected oldest entry to have been evicted")
	}
	if !v.Seen("c") {
		t.Fatal("expected newest entry to remain")
	}
}

func TestVisitedSetExpiresByTTL(t *testing.T) {
	v := NewVisitedSet(10, 10*time.Millisecond)
	v.MarkVisited("a")
	if !v.Seen("a") {
		t.Fatal("expected a to be seen immediately")
	}
	time.Sleep(20 * time.Millisecond)
	if v.Seen("a") {
		t.Fatal("expected a to have expired")
	}
}
