package entropy

import (
	"fmt"

	"github.com/mrjoshuak/go-aec/internal/bio"
)

// Coder register constants.
const (
	initRange = 510
	halfRange = 256 // renormalize while the range is below this

	// Bits an end-of-stream or escape terminating 1 costs: the range
	// collapses to 2 and needs seven doublings to reach halfRange.
	finalOneBits = 7
)

// Coder is the state of one coding pass.
//
// A Coder is a plain value: copying it (Clone, Restore) snapshots the
// registers, the bit cursor and the full context set without any heap
// allocation. The output byte slice itself is shared between such copies.
// Bytes before the cursor are final, because carries are resolved before
// bits reach the writer, so a restored snapshot simply overwrites what a
// discarded trial wrote after it. Two exact coders that both keep coding
// need their own buffers: see CloneInto.
//
// A Coder must only be used by one goroutine at a time.
type Coder struct {
	be backend

	low         uint32 // exact backend only
	rng         uint32
	outstanding int  // bits waiting for a carry decision
	firstBit    bool // the first output bit is implicit
	bits        int  // bits written or estimated in this pass
	cost        int  // very fast estimate, in 1/vfCostScale bits
	budget      int  // estimate early-exit threshold, 0 for none

	w   bio.Writer
	ctx ContextSet
}

// NewCoder creates a coder for kind. buf is the destination for the exact
// backend and is ignored by the estimate backends.
func NewCoder(kind BackendKind, buf []byte) *Coder {
	c := &Coder{}
	c.Init(kind, buf)
	return c
}

// Init starts a new coding pass: registers, bit counter and every context
// are reset.
func (c *Coder) Init(kind BackendKind, buf []byte) {
	c.be = backendFor(kind)
	c.low = 0
	c.rng = initRange
	c.outstanding = 0
	c.firstBit = true
	c.bits = 0
	c.cost = 0
	c.budget = 0
	if kind == Exact {
		c.w.Init(buf)
	} else {
		c.w.Init(nil)
	}
	c.ctx.Reset()
}

// Kind returns the backend this coder was initialized with.
func (c *Coder) Kind() BackendKind {
	return c.be.kind()
}

// Clone returns a snapshot of the coder for a later Restore. An exact
// snapshot shares the output buffer with c: coding on both and finishing
// both corrupts whichever finished first. Use CloneInto for that.
func (c *Coder) Clone() Coder {
	return *c
}

// CloneInto returns a copy of the coder that writes into buf from here
// on. For the exact backend the completed bytes are copied into buf,
// which must be at least as long as c's buffer is full; the two coders
// then evolve independently. Estimate backends ignore buf.
func (c *Coder) CloneInto(buf []byte) Coder {
	d := *c
	if c.be.kind() == Exact {
		d.w = c.w.CloneInto(buf)
	}
	return d
}

// Restore overwrites the coder with a snapshot taken by Clone.
func (c *Coder) Restore(s *Coder) {
	*c = *s
}

// Fork returns a copy of the coder that codes with kind from here on. The
// context set and range carry over, the bit counter starts from zero so
// totals of different backends are never mixed. An exact fork continues
// the output of c into buf as CloneInto does; estimate forks ignore buf.
// Forking an exact coder from an estimate is not possible, estimates keep
// no output registers.
func (c *Coder) Fork(kind BackendKind, buf []byte) Coder {
	if kind == Exact && c.be.kind() != Exact {
		panic(fmt.Sprintf("entropy: cannot fork an exact coder from a %s coder", c.be.kind()))
	}
	var f Coder
	if kind == Exact {
		f = c.CloneInto(buf)
	} else {
		f = *c
		f.w.Init(nil)
	}
	f.be = backendFor(kind)
	f.bits = 0
	f.cost = 0
	return f
}

// WrittenBits returns the bits produced so far. For the exact backend
// this is the number of renormalization and bypass shifts, each of which
// becomes exactly one output bit; for the estimate backends it is the
// running estimate, with the fractional very fast costs rounded down.
func (c *Coder) WrittenBits() int {
	return c.bits + c.cost>>vfCostBits
}

// SetBudget sets the estimate early-exit threshold in bits. The exact
// backend ignores it.
func (c *Coder) SetBudget(bits int) {
	c.budget = bits
}

// OverBudget reports whether an estimate pass has exceeded its budget.
// Always false for the exact backend.
func (c *Coder) OverBudget() bool {
	return c.budget > 0 && c.be.kind() != Exact && c.WrittenBits() > c.budget
}

// Context returns the current state of context i.
func (c *Coder) Context(i int) Context {
	return c.ctx[i]
}

// Contexts returns a copy of the whole context set.
func (c *Coder) Contexts() ContextSet {
	return c.ctx
}

// EncodeSymbol codes bit with the adaptive context ctx.
func (c *Coder) EncodeSymbol(ctx int, bit int) {
	c.be.symbol(c, ctx, bit)
}

// EncodeBypass codes one equiprobable bit.
func (c *Coder) EncodeBypass(bit int) {
	c.be.bypass(c, bit)
}

// EncodeBypassBits codes the low n bits of val as equiprobable bits, most
// significant first.
func (c *Coder) EncodeBypassBits(val uint32, n int) {
	for i := n - 1; i >= 0; i-- {
		c.be.bypass(c, int(val>>uint(i))&1)
	}
}

// EncodeRun codes count as a run of zero bins terminated by a one bin,
// truncated at max: when count == max the terminating one is omitted.
// Bin i uses context ctx+min(i, nctx-1).
func (c *Coder) EncodeRun(count, max, ctx, nctx int) {
	c.be.run(c, count, max, ctx, nctx)
}

// EncodeFinal codes a terminating bin. A one selects a sub-interval of
// width two; it marks the end of a slice or an escape.
func (c *Coder) EncodeFinal(bit int) {
	c.be.final(c, bit)
}

// EncodeExpGolombBypass codes val as a k-th order Exp-Golomb code using
// bypass bins only.
func (c *Coder) EncodeExpGolombBypass(val uint32, k int) {
	for val >= 1<<uint(k) {
		c.EncodeBypass(1)
		val -= 1 << uint(k)
		k++
	}
	c.EncodeBypass(0)
	c.EncodeBypassBits(val, k)
}

// Finish terminates the pass and returns the coded bytes.
//
// The exact backend codes the end-of-stream terminating bin, flushes the
// remaining low register bits with a stop bit and pads to a byte boundary
// with zero bits. Calling Finish when the cursor already sits at the end
// of the destination buffer is a fatal error. Estimate backends return
// nil.
func (c *Coder) Finish() []byte {
	if c.be.kind() != Exact {
		return nil
	}
	if c.w.Full() {
		panic(fmt.Sprintf("entropy: finish with output cursor at end of buffer (%d bytes)", len(c.w.Bytes())))
	}
	c.be.final(c, 1)
	c.putBit(int(c.low>>9) & 1)
	c.w.WriteBits(((c.low>>7)&3)|1, 2)
	c.w.Align()
	return c.w.Bytes()
}

// Bytes returns the bytes completed so far by the exact backend.
func (c *Coder) Bytes() []byte {
	return c.w.Bytes()
}

// renorm doubles the range until it is at least halfRange, deciding one
// output bit (or one more outstanding bit) per doubling.
func (c *Coder) renorm() {
	for c.rng < halfRange {
		switch {
		case c.low < 256:
			c.putBit(0)
		case c.low >= 512:
			c.low -= 512
			c.putBit(1)
		default:
			c.low -= 256
			c.outstanding++
		}
		c.rng <<= 1
		c.low <<= 1
		c.bits++
	}
}

// putBit emits b followed by the outstanding bits, which all take the
// opposite value now that the carry is known.
func (c *Coder) putBit(b int) {
	if c.firstBit {
		c.firstBit = false
	} else {
		c.w.WriteBit(b)
	}
	if c.outstanding > 0 {
		c.w.WriteRun(1-b, c.outstanding)
		c.outstanding = 0
	}
}
