// Package bio provides bit-level I/O over caller-owned byte buffers.
//
// The Writer is the primitive the arithmetic coder flushes into and that
// header assembly reuses for fixed-length and Exp-Golomb fields. It never
// grows its buffer: writing past the end is a fatal invariant violation.
package bio

import (
	"errors"
	"fmt"
	"math/bits"
)

// MaxWriteBits is the widest field WriteBits accepts in one call.
const MaxWriteBits = 32

// ErrCodeTooLong is returned when an Exp-Golomb prefix exceeds 32 bits.
var ErrCodeTooLong = errors.New("bio: exp-golomb code too long")

// Writer writes bits MSB-first into a fixed byte slice.
//
// Bits collect in a 64-bit flush register and are moved to the buffer a
// byte at a time. The zero value has no buffer; use Init or NewWriter.
type Writer struct {
	buf []byte
	pos int    // next byte to write (the cursor); len(buf) is the end
	reg uint64 // flush register, valid bits are the low cnt bits
	cnt uint   // number of valid bits in reg (0-7 between calls)
	n   int    // total bits accepted
}

// NewWriter creates a writer over buf.
func NewWriter(buf []byte) *Writer {
	w := &Writer{}
	w.Init(buf)
	return w
}

// Init rebinds the writer to buf and clears all state.
func (w *Writer) Init(buf []byte) {
	*w = Writer{buf: buf}
}

// CloneInto returns a copy of the writer that continues into buf. The
// completed bytes are copied over, so the two writers no longer share
// output. buf must hold at least the completed bytes.
func (w *Writer) CloneInto(buf []byte) Writer {
	if len(buf) < w.pos {
		panic(fmt.Sprintf("bio: clone buffer of %d bytes, need %d", len(buf), w.pos))
	}
	copy(buf, w.buf[:w.pos])
	c := *w
	c.buf = buf
	return c
}

// WriteBit writes a single bit.
func (w *Writer) WriteBit(bit int) {
	w.reg = w.reg<<1 | uint64(bit&1)
	w.cnt++
	w.n++
	if w.cnt == 8 {
		w.flushBytes()
	}
}

// WriteBits writes the low n bits of val, most significant first.
// Widths above MaxWriteBits are a programming error and panic.
func (w *Writer) WriteBits(val uint32, n uint) {
	if n > MaxWriteBits {
		panic(fmt.Sprintf("bio: unsupported flush width %d", n))
	}
	if n == 0 {
		return
	}
	w.reg = w.reg<<n | uint64(val)&(1<<n-1)
	w.cnt += n
	w.n += int(n)
	w.flushBytes()
}

// WriteRun writes n copies of bit. This is how the arithmetic coder
// releases outstanding bits once a carry has been resolved.
func (w *Writer) WriteRun(bit int, n int) {
	var fill uint32
	if bit&1 != 0 {
		fill = ^uint32(0)
	}
	for n > MaxWriteBits {
		w.WriteBits(fill, MaxWriteBits)
		n -= MaxWriteBits
	}
	w.WriteBits(fill, uint(n))
}

// WriteUE writes val as an unsigned Exp-Golomb code, ue(v).
func (w *Writer) WriteUE(val uint32) {
	v := uint64(val) + 1
	k := uint(bits.Len64(v)) - 1
	w.WriteRun(0, int(k))
	if k+1 > MaxWriteBits {
		w.WriteBit(1)
		w.WriteBits(uint32(v), k)
		return
	}
	w.WriteBits(uint32(v), k+1)
}

// WriteSE writes val as a signed Exp-Golomb code, se(v).
func (w *Writer) WriteSE(val int32) {
	if val > 0 {
		w.WriteUE(uint32(val)*2 - 1)
	} else {
		w.WriteUE(uint32(-int64(val)) * 2)
	}
}

// flushBytes moves whole bytes from the register to the buffer.
func (w *Writer) flushBytes() {
	for w.cnt >= 8 {
		if w.pos >= len(w.buf) {
			panic(fmt.Sprintf("bio: write past end of buffer (%d bytes)", len(w.buf)))
		}
		w.cnt -= 8
		w.buf[w.pos] = byte(w.reg >> w.cnt)
		w.pos++
	}
	w.reg &= 1<<w.cnt - 1
}

// Align pads with zero bits up to the next byte boundary.
func (w *Writer) Align() {
	if w.cnt > 0 {
		w.WriteBits(0, 8-w.cnt)
	}
}

// IsAligned reports whether the writer sits on a byte boundary.
func (w *Writer) IsAligned() bool {
	return w.cnt == 0
}

// Full reports whether the cursor has reached the end of the buffer.
func (w *Writer) Full() bool {
	return w.pos >= len(w.buf)
}

// BitsWritten returns the number of bits accepted since Init.
func (w *Writer) BitsWritten() int {
	return w.n
}

// Bytes returns the completed bytes. Bits still in the flush register
// are not included until Align is called.
func (w *Writer) Bytes() []byte {
	return w.buf[:w.pos]
}

// Reader reads bits MSB-first from a byte slice.
//
// Reads past the end return zero bits, which is what the arithmetic
// decoder expects when it renormalizes over the trailing stuffing.
type Reader struct {
	data []byte
	pos  int
	cnt  uint8 // bits left in cur
	cur  byte
	over int   // zero bits supplied past the end
}

// NewReader creates a bit reader over data.
func NewReader(data []byte) *Reader {
	return &Reader{data: data}
}

// ReadBit reads a single bit (0 or 1).
func (r *Reader) ReadBit() int {
	if r.cnt == 0 {
		if r.pos >= len(r.data) {
			r.over++
			return 0
		}
		r.cur = r.data[r.pos]
		r.pos++
		r.cnt = 8
	}
	r.cnt--
	return int((r.cur >> r.cnt) & 1)
}

// ReadBits reads n bits (0-32).
func (r *Reader) ReadBits(n uint) uint32 {
	var result uint32
	for i := uint(0); i < n; i++ {
		result = result<<1 | uint32(r.ReadBit())
	}
	return result
}

// ReadUE reads an unsigned Exp-Golomb code.
func (r *Reader) ReadUE() (uint32, error) {
	k := uint(0)
	for r.ReadBit() == 0 {
		k++
		if k > MaxWriteBits || r.Overrun() {
			return 0, ErrCodeTooLong
		}
	}
	v := uint64(1)<<k | uint64(r.ReadBits(k))
	return uint32(v - 1), nil
}

// ReadSE reads a signed Exp-Golomb code.
func (r *Reader) ReadSE() (int32, error) {
	v, err := r.ReadUE()
	if err != nil {
		return 0, err
	}
	if v&1 != 0 {
		return int32((v + 1) / 2), nil
	}
	return -int32(v / 2), nil
}

// Align discards any remaining bits in the current byte.
func (r *Reader) Align() {
	r.cnt = 0
}

// Overrun reports whether any bit was read past the end of the data.
func (r *Reader) Overrun() bool {
	return r.over > 0
}
