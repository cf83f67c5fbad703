package protocol

import (
	"encoding/binary"
	"fmt"
	"io"
)

// MaxFrameSize bounds a single framed message on stream transports.
const MaxFrameSize = 64 << 10

// WriteFrame writes payload prefixed with its uvarint length.
func WriteFrame(w io.Writer, payload []byte) error {
	if len(payload) > MaxFrameSize {
		return fmt.Errorf("%w: %d bytes", ErrFrameTooLarge, len(payload))
	}

	frame := make([]byte, 0, binary.MaxVarintLen64+len(payload))
	frame = binary.AppendUvarint(frame, uint64(len(payload)))
	frame = append(frame, payload...)

	_, err := w.Write(frame)
	return err
}

// FrameReader is satisfied by *bufio.Reader.
type FrameReader interface {
	io.Reader
	io.ByteReader
}

// ReadFrame reads one length-prefixed message.
func ReadFrame(r FrameReader) ([]byte, error) {
	n, err := binary.ReadUvarint(r)
	if err != nil {
		return nil, err
	}
	if n > MaxFrameSize {
		return nil, fmt.Errorf("%w: %d bytes", ErrFrameTooLarge, n)
	}

	payload := make([]byte, n)
	if _, err := io.ReadFull(r, payload); err != nil {
		return nil, err
	}
	return payload, nil
}
