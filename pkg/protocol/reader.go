package protocol

import (
	"encoding/binary"
	"fmt"
	"math"
)

const MaxStringLen = 4096

// Reader decodes little-endian fields. The first failure sticks: later reads
// return zero values and Err reports the original cause.
type Reader struct {
	data []byte
	off  int
	err  error
}

func NewReader(data []byte) *Reader {
	return &Reader{data: data}
}

func (r *Reader) Err() error {
	return r.err
}

// Len returns the number of unread bytes.
func (r *Reader) Len() int {
	return len(r.data) - r.off
}

func (r *Reader) fail(err error) {
	if r.err == nil {
		r.err = err
	}
	r.off = len(r.data)
}

func (r *Reader) next(n int) []byte {
	if r.err != nil {
		return nil
	}
	if r.Len() < n {
		r.fail(fmt.Errorf("%w: need %d bytes at offset %d, have %d", ErrShortRead, n, r.off, r.Len()))
		return nil
	}
	b := r.data[r.off : r.off+n]
	r.off += n
	return b
}

func (r *Reader) ReadTag() MsgType {
	return MsgType(r.ReadUint8())
}

func (r *Reader) ReadUint8() uint8 {
	b := r.next(1)
	if b == nil {
		return 0
	}
	return b[0]
}

func (r *Reader) ReadBool() bool {
	return r.ReadUint8() != 0
}

func (r *Reader) ReadInt32() int32 {
	b := r.next(4)
	if b == nil {
		return 0
	}
	return int32(binary.LittleEndian.Uint32(b))
}

func (r *Reader) ReadFloat32() float32 {
	b := r.next(4)
	if b == nil {
		return 0
	}
	return math.Float32frombits(binary.LittleEndian.Uint32(b))
}

func (r *Reader) ReadFloat64() float64 {
	b := r.next(8)
	if b == nil {
		return 0
	}
	return math.Float64frombits(binary.LittleEndian.Uint64(b))
}

func (r *Reader) ReadString() string {
	if r.err != nil {
		return ""
	}
	n, size := binary.Uvarint(r.data[r.off:])
	if size <= 0 {
		r.fail(fmt.Errorf("%w: bad string length at offset %d", ErrShortRead, r.off))
		return ""
	}
	if n > MaxStringLen {
		r.fail(fmt.Errorf("%w: %d bytes", ErrStringTooLong, n))
		return ""
	}
	r.off += size
	b := r.next(int(n))
	if b == nil {
		return ""
	}
	return string(b)
}
