package tracearrow

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
)

// MaxMessageSize bounds a single framed message (50MB), adapted from
// hierachain-engine/api/arrow_protocol.go's MaxMessageSize.
const MaxMessageSize = 50 * 1024 * 1024

// ErrMessageTooLarge is returned when a framed message exceeds MaxMessageSize.
var ErrMessageTooLarge = errors.New("tracearrow: message size exceeds maximum allowed size")

// ReadMessage reads a length-prefixed message: [4 bytes length BigEndian][N bytes payload].
func ReadMessage(r io.Reader) ([]byte, error) {
	var length uint32
	if err := binary.Read(r, binary.BigEndian, &length); err != nil {
		return nil, err
	}
	if length > MaxMessageSize {
		return nil, fmt.Errorf("%w: %d bytes (max: %d)", ErrMessageTooLarge, length, MaxMessageSize)
	}

	buf := make([]byte, length)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, fmt.Errorf("tracearrow: failed to read message body: %w", err)
	}
	return buf, nil
}

// WriteMessage writes a length-prefixed message in the same format ReadMessage expects.
func WriteMessage(w io.Writer, data []byte) error {
	if len(data) > math.MaxUint32 {
		return fmt.Errorf("%w: data length %d exceeds uint32 max", ErrMessageTooLarge, len(data))
	}
	if len(data) > MaxMessageSize {
		return fmt.Errorf("%w: %d bytes (max: %d)", ErrMessageTooLarge, len(data), MaxMessageSize)
	}

	length := uint32(len(data))
	if err := binary.Write(w, binary.BigEndian, length); err != nil {
		return fmt.Errorf("tracearrow: failed to write message length: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("tracearrow: failed to write message body: %w", err)
	}
	return nil
}
