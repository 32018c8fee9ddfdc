package entropy

import (
	"fmt"
	"math"
	"math/bits"
)

// BackendKind selects how a Coder turns symbols into bits.
type BackendKind int

const (
	// Exact emits a conforming bitstream.
	Exact BackendKind = iota
	// FastEstimate tracks contexts and the range exactly like Exact and
	// counts renormalization shifts instead of emitting bits.
	FastEstimate
	// VeryFastEstimate never touches contexts and charges fixed costs
	// keyed on syntax position only.
	//
	// Its totals are only meaningful relative to other totals from the
	// same backend. Callers must not compare or add them to totals from
	// Exact or FastEstimate.
	VeryFastEstimate
)

// String returns the string representation of the backend kind.
func (k BackendKind) String() string {
	switch k {
	case Exact:
		return "exact"
	case FastEstimate:
		return "fast-estimate"
	case VeryFastEstimate:
		return "very-fast-estimate"
	default:
		return "unknown"
	}
}

// Valid reports whether k names a backend.
func (k BackendKind) Valid() bool {
	return k >= Exact && k <= VeryFastEstimate
}

// backend is the capability set shared by all symbol backends. The
// implementations are zero-size so a Coder holding one stays a plain
// value.
type backend interface {
	kind() BackendKind
	symbol(c *Coder, ctx int, bit int)
	bypass(c *Coder, bit int)
	run(c *Coder, count, max, ctx, nctx int)
	final(c *Coder, bit int)
}

type exactBackend struct{}
type fastBackend struct{}
type veryFastBackend struct{}

func backendFor(kind BackendKind) backend {
	switch kind {
	case Exact:
		return exactBackend{}
	case FastEstimate:
		return fastBackend{}
	case VeryFastEstimate:
		return veryFastBackend{}
	default:
		panic(fmt.Sprintf("entropy: unknown backend %d", int(kind)))
	}
}

// runBins codes a truncated run through the symbol primitive.
func runBins(b backend, c *Coder, count, max, ctx, nctx int) {
	last := nctx - 1
	for i := 0; i < count; i++ {
		b.symbol(c, ctx+min(i, last), 0)
	}
	if count < max {
		b.symbol(c, ctx+min(count, last), 1)
	}
}

// =============================================================================
// Exact
// =============================================================================

func (exactBackend) kind() BackendKind { return Exact }

func (exactBackend) symbol(c *Coder, ctx int, bit int) {
	s := c.ctx[ctx]
	rLPS := lpsRange(s, c.rng)
	c.rng -= rLPS
	if bit != s.MPS() {
		c.low += c.rng
		c.rng = rLPS
		c.ctx[ctx] = ctxLPS[s]
	} else {
		c.ctx[ctx] = ctxMPS[s]
	}
	if c.rng < halfRange {
		c.renorm()
	}
}

func (exactBackend) bypass(c *Coder, bit int) {
	c.low <<= 1
	if bit != 0 {
		c.low += c.rng
	}
	switch {
	case c.low >= 1024:
		c.putBit(1)
		c.low -= 1024
	case c.low < 512:
		c.putBit(0)
	default:
		c.low -= 512
		c.outstanding++
	}
	c.bits++
}

func (b exactBackend) run(c *Coder, count, max, ctx, nctx int) {
	runBins(b, c, count, max, ctx, nctx)
}

func (exactBackend) final(c *Coder, bit int) {
	c.rng -= 2
	if bit != 0 {
		c.low += c.rng
		c.rng = 2
	}
	if c.rng < halfRange {
		c.renorm()
	}
}

// =============================================================================
// Fast estimate
// =============================================================================

// renormShift returns how many doublings bring r (1..255) to halfRange.
func renormShift(r uint32) int {
	return 9 - bits.Len32(r)
}

func (fastBackend) kind() BackendKind { return FastEstimate }

func (fastBackend) symbol(c *Coder, ctx int, bit int) {
	s := c.ctx[ctx]
	rLPS := lpsRange(s, c.rng)
	c.rng -= rLPS
	if bit != s.MPS() {
		c.rng = rLPS
		c.ctx[ctx] = ctxLPS[s]
	} else {
		c.ctx[ctx] = ctxMPS[s]
	}
	if c.rng < halfRange {
		n := renormShift(c.rng)
		c.rng <<= uint(n)
		c.bits += n
	}
}

func (fastBackend) bypass(c *Coder, bit int) {
	c.bits++
}

func (b fastBackend) run(c *Coder, count, max, ctx, nctx int) {
	runBins(b, c, count, max, ctx, nctx)
}

// final keeps the range in step with the exact backend but charges a fixed
// cost: finalOneBits for a one, nothing for a zero. The exact cost of a
// zero is 0 or 1 bit depending on the range.
func (fastBackend) final(c *Coder, bit int) {
	c.rng -= 2
	if bit != 0 {
		c.rng = 2 << finalOneBits
		c.bits += finalOneBits
		return
	}
	if c.rng < halfRange {
		c.rng <<= 1
	}
}

// =============================================================================
// Very fast estimate
// =============================================================================

// Very fast costs are fixed-point bits, vfCostScale per bit.
const (
	vfCostBits  = 8
	vfCostScale = 1 << vfCostBits
)

// Static priors for the coefficient contexts: the probability, out of 256,
// that a bin is 0 (the "continue" bin of a run). They are keyed on the
// syntactic position a context index stands for, never on live state.
var (
	// [x/y][bin]: last positions sit close to the group origin.
	vfLastPosProb = [2][cgSize - 1]uint8{{120, 104, 88}, {112, 96, 80}}
	// [bin]: the first significant group is rarely the farthest one.
	vfLastCGProb = [3]uint8{104, 136, 168}
	// [rank]: magnitudes grow with the largest level seen so far.
	vfLevelProb = [maxRank + 1]uint8{64, 96, 128, 160, 192}
	// [energy]: quiet neighbourhoods have long zero runs.
	vfRunProb = [maxEnergy + 1]uint8{176, 128, 80}
)

var (
	// vfEntropyCost[p] is -log2(p/256) in 1/vfCostScale bits.
	vfEntropyCost [256]uint16
	// vfProb[ctx] is the prior of context ctx. Contexts outside the
	// coefficient syntax are equiprobable.
	vfProb [NumContexts]uint8
)

func init() {
	for p := 1; p < len(vfEntropyCost); p++ {
		vfEntropyCost[p] = uint16(math.Round(math.Log2(256/float64(p)) * vfCostScale))
	}
	vfEntropyCost[0] = vfEntropyCost[1]

	for i := range vfProb {
		vfProb[i] = 128
	}
	for chroma := 0; chroma < 2; chroma++ {
		for dc := 0; dc < 2; dc++ {
			// Chroma groups are more often empty, the DC group rarely is.
			vfProb[ctxCGSig(chroma, dc)] = uint8(160 - 96*dc + 32*chroma)
		}
		for size := 0; size < 3; size++ {
			for field := 0; field < 2; field++ {
				for bin, p := range vfLastCGProb {
					vfProb[ctxLastCG(chroma, size, field)+bin] = p
				}
			}
		}
		for class := 0; class < numCGClasses; class++ {
			for field := 0; field < 2; field++ {
				for bin, p := range vfLastPosProb[field] {
					vfProb[ctxLastPos(chroma, class, field)+bin] = p - uint8(16*chroma)
				}
			}
		}
		for rank, p := range vfLevelProb {
			vfProb[ctxLevel(chroma, rank)] = p - uint8(16*chroma)
			vfProb[ctxLevel(chroma, rank)+1] = p + 32 - uint8(16*chroma)
		}
		for energy, p := range vfRunProb {
			for posClass := 0; posClass < 2; posClass++ {
				// High frequency positions (class 0) are sparser.
				base := p + uint8(32*(1-posClass)+16*chroma)
				vfProb[ctxRun(chroma, energy, posClass)] = base
				vfProb[ctxRun(chroma, energy, posClass)+1] = base + 16
			}
		}
	}
}

// vfBinCost returns the cost of bit at context ctx in 1/vfCostScale bits.
func vfBinCost(ctx, bit int) int {
	p := int(vfProb[ctx])
	if bit != 0 {
		p = 256 - p
	}
	return int(vfEntropyCost[p])
}

func (veryFastBackend) kind() BackendKind { return VeryFastEstimate }

func (veryFastBackend) symbol(c *Coder, ctx int, bit int) {
	c.cost += vfBinCost(ctx, bit)
}

func (veryFastBackend) bypass(c *Coder, bit int) {
	c.bits++
}

// run charges a run in closed form: bins past the last context all share
// its cost, so the price is linear in count beyond nctx.
func (veryFastBackend) run(c *Coder, count, max, ctx, nctx int) {
	last := nctx - 1
	for i := 0; i < min(count, last); i++ {
		c.cost += vfBinCost(ctx+i, 0)
	}
	if count > last {
		c.cost += (count - last) * vfBinCost(ctx+last, 0)
	}
	if count < max {
		c.cost += vfBinCost(ctx+min(count, last), 1)
	}
}

func (veryFastBackend) final(c *Coder, bit int) {
	if bit != 0 {
		c.bits += finalOneBits
	}
}
