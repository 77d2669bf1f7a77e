package tracearrow

import (
	"bytes"
	"fmt"
	"io"
	"log"
	"net"
	"sync"

	"github.com/apache/arrow-go/v18/arrow/ipc"
	"github.com/apache/arrow-go/v18/arrow/memory"
)

// BatchHandler validates and consumes one framed IPC-encoded record
// batch, adapted from hierachain-engine/api/arrow_handler.go's
// ArrowHandler.ProcessBatch.
type BatchHandler struct {
	mem  memory.Allocator
	sink func(rows int64, cols int64)
}

// NewBatchHandler returns a handler that reports each accepted batch's
// shape to sink, or discards it if sink is nil.
func NewBatchHandler(sink func(rows, cols int64)) *BatchHandler {
	return &BatchHandler{mem: memory.NewGoAllocator(), sink: sink}
}

// ProcessBatch parses data as an Arrow IPC stream, validates it, and
// reports the first record's shape to the handler's sink.
func (h *BatchHandler) ProcessBatch(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("tracearrow: received empty data")
	}

	reader, err := ipc.NewReader(bytes.NewReader(data), ipc.WithAllocator(h.mem))
	if err != nil {
		return nil, fmt.Errorf("tracearrow: failed to create IPC reader: %w", err)
	}
	defer reader.Release()

	if reader.Next() {
		rec := reader.Record()
		rec.Retain()
		defer rec.Release()

		if h.sink != nil {
			h.sink(rec.NumRows(), rec.NumCols())
		}
	}
	if reader.Err() != nil {
		return nil, fmt.Errorf("tracearrow: error reading Arrow stream: %w", reader.Err())
	}

	return []byte("OK"), nil
}

// Collector is a TCP server accepting framed Arrow IPC batches from
// scenario-sweep producers, adapted from
// hierachain-engine/api/arrow_server.go's ArrowServer.
type Collector struct {
	listener net.Listener
	handler  *BatchHandler
	running  bool
	mu       sync.Mutex
	quit     chan struct{}
}

// NewCollector returns a Collector that hands accepted batches to handler.
func NewCollector(handler *BatchHandler) *Collector {
	return &Collector{
		handler: handler,
		quit:    make(chan struct{}),
	}
}

// StartAsync starts the collector in a background goroutine.
func (c *Collector) StartAsync(address string) error {
	c.mu.Lock()
	if c.running {
		c.mu.Unlock()
		return fmt.Errorf("tracearrow: collector already running")
	}

	lis, err := net.Listen("tcp", address)
	if err != nil {
		c.mu.Unlock()
		return fmt.Errorf("tracearrow: failed to listen on %s: %w", address, err)
	}
	c.listener = lis
	c.running = true
	c.mu.Unlock()

	go func() {
		for {
			conn, err := lis.Accept()
			if err != nil {
				select {
				case <-c.quit:
					return
				default:
					continue
				}
			}
			go c.handleConnection(conn)
		}
	}()
	return nil
}

// Stop closes the listener and stops accepting connections.
func (c *Collector) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.running {
		return
	}
	c.running = false
	close(c.quit)
	if c.listener != nil {
		if err := c.listener.Close(); err != nil {
			log.Printf("tracearrow: error closing listener: %v", err)
		}
	}
}

func (c *Collector) handleConnection(conn net.Conn) {
	defer conn.Close()

	for {
		data, err := ReadMessage(conn)
		if err != nil {
			if err != io.EOF {
				log.Printf("tracearrow: error reading framed message: %v", err)
			}
			return
		}

		response, err := c.handler.ProcessBatch(data)
		if err != nil {
			log.Printf("tracearrow: error processing batch: %v", err)
			return
		}

		if err := WriteMessage(conn, response); err != nil {
			log.Printf("tracearrow: error writing response: %v", err)
			return
		}
	}
}

// IsRunning reports whether the collector is currently accepting connections.
func (c *Collector) IsRunning() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running
}
