package protocol

import (
	"encoding/binary"
	"math"
	"sync"
)

var writerPool = sync.Pool{
	New: func() any {
		return &Writer{buf: make([]byte, 0, 1024)}
	},
}

// Writer appends little-endian fields to a growing buffer.
type Writer struct {
	buf []byte
}

func NewWriter() *Writer {
	return &Writer{buf: make([]byte, 0, 256)}
}

// AcquireWriter returns an empty pooled writer. Release it with ReleaseWriter
// once its bytes have been copied or sent.
func AcquireWriter() *Writer {
	w := writerPool.Get().(*Writer)
	w.Reset()
	return w
}

func ReleaseWriter(w *Writer) {
	if cap(w.buf) > 64<<10 {
		return
	}
	writerPool.Put(w)
}

func (w *Writer) Reset() {
	w.buf = w.buf[:0]
}

// Bytes returns the written bytes. The slice aliases the writer's buffer.
func (w *Writer) Bytes() []byte {
	return w.buf
}

func (w *Writer) Len() int {
	return len(w.buf)
}

func (w *Writer) WriteTag(t MsgType) {
	w.buf = append(w.buf, byte(t))
}

func (w *Writer) WriteUint8(v uint8) {
	w.buf = append(w.buf, v)
}

func (w *Writer) WriteBool(v bool) {
	if v {
		w.buf = append(w.buf, 1)
		return
	}
	w.buf = append(w.buf, 0)
}

func (w *Writer) WriteInt32(v int32) {
	w.buf = binary.LittleEndian.AppendUint32(w.buf, uint32(v))
}

func (w *Writer) WriteFloat32(v float32) {
	w.buf = binary.LittleEndian.AppendUint32(w.buf, math.Float32bits(v))
}

func (w *Writer) WriteFloat64(v float64) {
	w.buf = binary.LittleEndian.AppendUint64(w.buf, math.Float64bits(v))
}

// WriteString writes a uvarint byte length followed by the UTF-8 bytes.
func (w *Writer) WriteString(s string) {
	w.buf = binary.AppendUvarint(w.buf, uint64(len(s)))
	w.buf = append(w.buf, s...)
}
