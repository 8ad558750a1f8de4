package compress

import (
	"github.com/thoreinstein/arx/internal/errors"
)

// errTruncated indicates the bitstream ended before the declared output
// length was produced.
var errTruncated = errors.New("truncated compressed stream")

// bitWriter packs bits MSB-first into a byte buffer.
type bitWriter struct {
	buf  []byte
	cur  byte
	nbit int
}

func newBitWriter(buf []byte) *bitWriter {
	return &bitWriter{buf: buf}
}

func (w *bitWriter) writeBit(bit uint) {
	if bit != 0 {
		w.cur |= 1 << (7 - w.nbit)
	}
	w.nbit++
	if w.nbit == 8 {
		w.buf = append(w.buf, w.cur)
		w.cur = 0
		w.nbit = 0
	}
}

// writeBits writes the low n bits of v, most significant first.
func (w *bitWriter) writeBits(v uint64, n int) {
	for i := n - 1; i >= 0; i-- {
		w.writeBit(uint(v>>uint(i)) & 1)
	}
}

// bytes flushes any partial byte and returns the backing buffer.
// Padding bits in the final byte are zero.
func (w *bitWriter) bytes() []byte {
	if w.nbit > 0 {
		w.buf = append(w.buf, w.cur)
		w.cur = 0
		w.nbit = 0
	}
	return w.buf
}

// bitReader consumes bits MSB-first from a byte slice.
type bitReader struct {
	buf  []byte
	pos  int
	nbit int
}

func newBitReader(buf []byte) *bitReader {
	return &bitReader{buf: buf}
}

func (r *bitReader) readBit() (uint, error) {
	if r.pos >= len(r.buf) {
		return 0, errTruncated
	}
	bit := uint(r.buf[r.pos]>>(7-r.nbit)) & 1
	r.nbit++
	if r.nbit == 8 {
		r.nbit = 0
		r.pos++
	}
	return bit, nil
}

// readBits reads n bits, most significant first.
func (r *bitReader) readBits(n int) (uint64, error) {
	var v uint64
	for i := 0; i < n; i++ {
		bit, err := r.readBit()
		if err != nil {
			return 0, err
		}
		v = v<<1 | uint64(bit)
	}
	return v, nil
}
