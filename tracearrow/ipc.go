package tracearrow

import (
	"bytes"
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/ipc"
	"github.com/apache/arrow-go/v18/arrow/memory"
)

// IPCWriter serializes/deserializes Arrow records to/from IPC bytes,
// adapted from arrow/ipc.go's IPCWriter.
type IPCWriter struct {
	allocator memory.Allocator
}

// NewIPCWriter returns an IPCWriter using the default Arrow allocator.
func NewIPCWriter() *IPCWriter {
	return &IPCWriter{allocator: memory.DefaultAllocator}
}

// SerializeToIPC serializes a single record to IPC stream bytes.
func (w *IPCWriter) SerializeToIPC(record arrow.Record) ([]byte, error) {
	var buf bytes.Buffer

	writer := ipc.NewWriter(&buf, ipc.WithSchema(record.Schema()))
	defer writer.Close()

	if err := writer.Write(record); err != nil {
		return nil, fmt.Errorf("tracearrow: failed to write record: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("tracearrow: failed to close writer: %w", err)
	}
	return buf.Bytes(), nil
}

// DeserializeFromIPC reads the first record from IPC stream bytes.
func (w *IPCWriter) DeserializeFromIPC(data []byte) (arrow.Record, error) {
	reader, err := ipc.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("tracearrow: failed to create reader: %w", err)
	}
	defer reader.Release()

	if !reader.Next() {
		if reader.Err() != nil {
			return nil, reader.Err()
		}
		return nil, fmt.Errorf("tracearrow: no records in IPC data")
	}

	record := reader.Record()
	record.Retain()
	return record, nil
}

// SerializeMultipleToIPC serializes a batch of same-schema records into
// one IPC stream.
func (w *IPCWriter) SerializeMultipleToIPC(records []arrow.Record) ([]byte, error) {
	if len(records) == 0 {
		return nil, fmt.Errorf("tracearrow: no records to serialize")
	}

	var buf bytes.Buffer
	writer := ipc.NewWriter(&buf, ipc.WithSchema(records[0].Schema()))
	defer writer.Close()

	for i, record := range records {
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("tracearrow: failed to write record %d: %w", i, err)
		}
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("tracearrow: failed to close writer: %w", err)
	}
	return buf.Bytes(), nil
}

// DeserializeAllFromIPC reads every record from IPC stream bytes.
func (w *IPCWriter) DeserializeAllFromIPC(data []byte) ([]arrow.Record, error) {
	reader, err := ipc.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("tracearrow: failed to create reader: %w", err)
	}
	defer reader.Release()

	var records []arrow.Record
	for reader.Next() {
		record := reader.Record()
		record.Retain()
		records = append(records, record)
	}
	if reader.Err() != nil {
		for _, r := range records {
			r.Release()
		}
		return nil, reader.Err()
	}
	return records, nil
}
