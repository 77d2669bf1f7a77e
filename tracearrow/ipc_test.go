package tracearrow

import (
	"testing"

	"github.com/apache/arrow-go/v18/arrow"
)

func TestIPCWriterRoundTripsSingleRecord(t *testing.T) {
	conv := NewConverter()
	record, err := conv.TraceToArrow([]string{"deliver Propose(0->1,V1)"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer record.Release()

	w := NewIPCWriter()
	data, err := w.SerializeToIPC(record)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	back, err := w.DeserializeFromIPC(data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer back.Release()

	if back.NumRows() != record.NumRows() {
		t.Fatalf("expected %d rows, got %d", record.NumRows(), back.NumRows())
	}
}

func TestIPCWriterRoundTripsMultipleRecords(t *testing.T) {
	conv := NewConverter()
	r1, _ := conv.TraceToArrow([]string{"deliver Prepare(0->1,V1)"})
	defer r1.Release()
	r2, _ := conv.TraceToArrow([]string{"deliver Commit(1->0,V1)"})
	defer r2.Release()

	w := NewIPCWriter()
	data, err := w.SerializeMultipleToIPC([]arrow.Record{r1, r2})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	records, err := w.DeserializeAllFromIPC(data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer func() {
		for _, r := range records {
			r.Release()
		}
	}()

	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
}
