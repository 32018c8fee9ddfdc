package entropy

import (
	"math"

	"github.com/mrjoshuak/go-aec/internal/bio"
)

// Decoder is the reference arithmetic decoder. It mirrors the exact
// backend bin for bin and is used to verify emitted bitstreams.
type Decoder struct {
	r      *bio.Reader
	rng    uint32
	offset uint32
	ctx    ContextSet

	corrupt bool // decoded a code no encoder produces
}

// NewDecoder creates a decoder over data with every context reset.
func NewDecoder(data []byte) *Decoder {
	d := &Decoder{r: bio.NewReader(data), rng: initRange}
	d.offset = d.r.ReadBits(9)
	d.corrupt = d.offset >= d.rng
	d.ctx.Reset()
	return d
}

// Context returns the current state of context i.
func (d *Decoder) Context(i int) Context {
	return d.ctx[i]
}

// Contexts returns a copy of the whole context set.
func (d *Decoder) Contexts() ContextSet {
	return d.ctx
}

// Overrun reports whether the decoder read past the end of its data.
// A well formed stream only does so in the renormalization after its
// closing terminating bin.
func (d *Decoder) Overrun() bool {
	return d.r.Overrun()
}

// Failed reports whether the data ran out or held a code no encoder
// produces. Values decoded after that are meaningless; DecodeCoeffs stops
// early and leaves the rest of the block zero.
func (d *Decoder) Failed() bool {
	return d.corrupt || d.r.Overrun()
}

func (d *Decoder) renorm() {
	for d.rng < halfRange {
		d.rng <<= 1
		d.offset = d.offset<<1 | uint32(d.r.ReadBit())
	}
}

// DecodeSymbol decodes one bin with the adaptive context ctx.
func (d *Decoder) DecodeSymbol(ctx int) int {
	s := d.ctx[ctx]
	rLPS := lpsRange(s, d.rng)
	d.rng -= rLPS
	bit := s.MPS()
	if d.offset >= d.rng {
		bit ^= 1
		d.offset -= d.rng
		d.rng = rLPS
		d.ctx[ctx] = ctxLPS[s]
	} else {
		d.ctx[ctx] = ctxMPS[s]
	}
	d.renorm()
	return bit
}

// DecodeBypass decodes one equiprobable bin.
func (d *Decoder) DecodeBypass() int {
	d.offset = d.offset<<1 | uint32(d.r.ReadBit())
	if d.offset >= d.rng {
		d.offset -= d.rng
		return 1
	}
	return 0
}

// DecodeBypassBits decodes n bypass bins, most significant first.
func (d *Decoder) DecodeBypassBits(n int) uint32 {
	var v uint32
	for i := 0; i < n; i++ {
		v = v<<1 | uint32(d.DecodeBypass())
	}
	return v
}

// DecodeFinal decodes a terminating bin.
func (d *Decoder) DecodeFinal() int {
	d.rng -= 2
	bit := 0
	if d.offset >= d.rng {
		bit = 1
		d.offset -= d.rng
		d.rng = 2
	}
	d.renorm()
	return bit
}

// DecodeRun decodes a truncated run coded by EncodeRun.
func (d *Decoder) DecodeRun(max, ctx, nctx int) int {
	last := nctx - 1
	n := 0
	for n < max && d.DecodeSymbol(ctx+min(n, last)) == 0 {
		n++
	}
	return n
}

// DecodeExpGolombBypass decodes a k-th order Exp-Golomb code.
func (d *Decoder) DecodeExpGolombBypass(k int) uint32 {
	var val uint32
	for d.DecodeBypass() == 1 {
		val += 1 << uint(k)
		k++
		if k >= 32 {
			break
		}
	}
	return val + d.DecodeBypassBits(k)
}

// DecodeCoeffs decodes one transform block into b.Coeffs. b must carry the
// size, component and scan the block was coded with. An all-zero block
// codes no bins at all, so callers only decode blocks their coded block
// pattern marks as nonzero.
//
// Malformed data never panics: decoding stops once Failed reports true.
func (d *Decoder) DecodeCoeffs(b *Block) {
	b.check()
	for i := range b.Coeffs {
		b.Coeffs[i] = 0
	}
	chroma := b2i(b.Chroma)
	gridLog2 := b.Log2Size - cgLog2Size
	grid := groupScan[b.Scan][gridLog2]
	numCG := len(grid)

	first := 0
	if numCG > 1 {
		side := 1 << gridLog2
		x := d.DecodeRun(side-1, ctxLastCG(chroma, gridLog2-1, 0), 3)
		y := d.DecodeRun(side-1, ctxLastCG(chroma, gridLog2-1, 1), 3)
		if b.Scan == ScanVertical {
			x, y = y, x
		}
		first = int(groupScanIndex[b.Scan][gridLog2][y<<gridLog2+x])
	}
	rank := 0
	var g coeffGroup
	for i := first; i >= 0 && !d.Failed(); i-- {
		if i != first && d.DecodeSymbol(ctxCGSig(chroma, b2i(i == 0))) == 0 {
			continue
		}
		rank = d.decodeGroup(&g, chroma, cgClass(numCG, i, rank), b.Scan, rank)
		g.store(b, grid[i])
	}
}

func (d *Decoder) decodeGroup(g *coeffGroup, chroma, class int, scan ScanKind, rank int) int {
	*g = coeffGroup{}
	x := d.DecodeRun(cgSize-1, ctxLastPos(chroma, class, 0), 3)
	y := d.DecodeRun(cgSize-1, ctxLastPos(chroma, class, 1), 3)
	if scan == ScanVertical {
		x, y = y, x
	}
	g.last = int(cgScanIndex[scan][y*cgSize+x])

	for pos := g.last; pos >= 0; {
		level := d.decodeLevel(ctxLevel(chroma, min(rank, maxRank)))
		g.levels[pos] = level
		g.npairs++
		rank = max(rank, rankOf(level))
		if pos == 0 || d.Failed() {
			break
		}
		run := d.DecodeRun(pos, runContext(&g.levels, chroma, pos), 2)
		pos -= run + 1
	}

	for pos := g.last; pos >= 0; pos-- {
		if g.levels[pos] != 0 {
			g.neg[pos] = d.DecodeBypass() == 1
		}
	}
	return rank
}

func (d *Decoder) decodeLevel(ctx int) int32 {
	v := d.DecodeRun(maxLevelTU, ctx, 2)
	if v < maxLevelTU {
		return int32(v + 1)
	}
	k := 0
	for d.DecodeFinal() == 0 {
		if k++; k > maxEscapeBits {
			d.corrupt = true
			return escapeLevel
		}
	}
	u := 1<<uint(k) - 1 + d.DecodeBypassBits(k)
	if u > math.MaxInt32-escapeLevel {
		d.corrupt = true
		return escapeLevel
	}
	return int32(u) + escapeLevel
}
