package tracearrow

import (
	"bytes"
	"testing"
)

func TestWriteMessageThenReadMessageRoundTrips(t *testing.T) {
	var buf bytes.Buffer
	payload := []byte("hello arrow stream")

	if err := WriteMessage(&buf, payload); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := ReadMessage(&buf)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !bytes.Equal(got, payload) {
		t.Fatalf("expected %q, got %q", payload, got)
	}
}

func TestWriteMessageRejectsOversizedPayload(t *testing.T) {
	var buf bytes.Buffer
	oversized := make([]byte, MaxMessageSize+1)

	if err := WriteMessage(&buf, oversized); err == nil {
		t.Fatal("expected error for oversized payload")
	}
}

func TestReadMessageRejectsClaimedOversizedLength(t *testing.T) {
	var buf bytes.Buffer
	// Hand-craft a length prefix claiming more than MaxMessageSize with no body.
	lengthPrefix := []byte{0xFF, 0xFF, 0xFF, 0xFF}
	buf.Write(lengthPrefix)

	if _, err := ReadMessage(&buf); err == nil {
		t.Fatal("expected error for oversized claimed length")
	}
}
