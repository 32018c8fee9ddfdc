package entropy

import (
	"fmt"
	"math"
	"math/bits"
)

// Level coding constants.
const (
	// maxLevelTU is the largest level-1 coded as truncated unary. Larger
	// levels escape into an Exp-Golomb code of level-escapeLevel.
	maxLevelTU  = 31
	escapeLevel = maxLevelTU + 1

	maxRank      = 4
	energyWindow = 5
	maxEnergy    = 2

	// maxEscapeBits is the longest escape prefix: the Exp-Golomb length
	// of math.MaxInt32-escapeLevel.
	maxEscapeBits = 30
)

// Block is one transform block of quantized coefficients.
type Block struct {
	// Coeffs holds 1<<Log2Size squared coefficients in raster order.
	Coeffs []int32
	// Log2Size is the block side, 2 (4x4) through 5 (32x32).
	Log2Size int
	Chroma   bool
	Scan     ScanKind
}

// check panics when the block cannot be coded.
func (b *Block) check() {
	if b.Log2Size < MinLog2Size || b.Log2Size > MaxLog2Size {
		panic(fmt.Sprintf("entropy: unsupported transform size 1<<%d", b.Log2Size))
	}
	if n := 1 << (2 * b.Log2Size); len(b.Coeffs) != n {
		panic(fmt.Sprintf("entropy: block has %d coefficients, want %d", len(b.Coeffs), n))
	}
	if !b.Scan.Valid() {
		panic(fmt.Sprintf("entropy: unknown scan %d", int(b.Scan)))
	}
}

// coeffGroup is a 4x4 coefficient group gathered into scan order.
type coeffGroup struct {
	levels [cgCoeffs]int32 // magnitudes
	neg    [cgCoeffs]bool
	last   int // scan index of the last nonzero coefficient
	npairs int // number of nonzero coefficients, one run-level pair each
}

// load gathers the group at grid position p of b.
func (g *coeffGroup) load(b *Block, p scanPos) {
	size := 1 << b.Log2Size
	x0 := int(p.x) * cgSize
	y0 := int(p.y) * cgSize
	g.last = -1
	g.npairs = 0
	for k, q := range &cgScan[b.Scan] {
		v := b.Coeffs[(y0+int(q.y))*size+x0+int(q.x)]
		if v == math.MinInt32 {
			panic(fmt.Sprintf("entropy: coefficient %d out of range", v))
		}
		g.neg[k] = v < 0
		if v < 0 {
			v = -v
		}
		g.levels[k] = v
		if v != 0 {
			g.last = k
			g.npairs++
		}
	}
}

// store scatters the group back into b at grid position p.
func (g *coeffGroup) store(b *Block, p scanPos) {
	size := 1 << b.Log2Size
	x0 := int(p.x) * cgSize
	y0 := int(p.y) * cgSize
	for k, q := range &cgScan[b.Scan] {
		v := g.levels[k]
		if g.neg[k] {
			v = -v
		}
		b.Coeffs[(y0+int(q.y))*size+x0+int(q.x)] = v
	}
}

// rankOf maps a level magnitude to its escalation rank.
func rankOf(level int32) int {
	switch {
	case level <= 2:
		return int(level)
	case level <= 4:
		return 3
	default:
		return maxRank
	}
}

// cgClass selects the last-position context set of a significant group.
func cgClass(numCG, i, rank int) int {
	switch {
	case numCG == 1:
		return cgClassSingle
	case i == 0:
		return cgClassDC
	case rank == 0:
		return cgClassLast
	default:
		return cgClassOther
	}
}

// runContext returns the first run context for a run starting below pos.
func runContext(levels *[cgCoeffs]int32, chroma, pos int) int {
	var sum int64
	for k := pos; k < pos+energyWindow && k < cgCoeffs; k++ {
		sum += int64(levels[k])
	}
	energy := min(int(sum>>1), maxEnergy)
	posClass := 1
	if pos >= cgCoeffs/2 {
		posClass = 0
	}
	return ctxRun(chroma, energy, posClass)
}

func b2i(b bool) int {
	if b {
		return 1
	}
	return 0
}

// EncodeCoeffs codes the quantized coefficients of one transform block.
//
// Coefficient groups are visited from the highest group scan index down to
// the DC group. Trailing all-zero groups cost nothing: the first significant
// group is identified by its (x, y) position in the group grid, and every
// later group carries a significance flag. Inside a significant group the last position is coded
// first, then (level, run) pairs toward position 0, then one bypass sign
// bit per nonzero coefficient.
//
// Estimate backends return as soon as the budget set with SetBudget is
// exceeded.
func (c *Coder) EncodeCoeffs(b *Block) {
	b.check()
	chroma := b2i(b.Chroma)
	gridLog2 := b.Log2Size - cgLog2Size
	grid := groupScan[b.Scan][gridLog2]
	numCG := len(grid)

	var g coeffGroup
	rank := 0
	for i := numCG - 1; i >= 0; i-- {
		g.load(b, grid[i])
		sig := g.npairs > 0
		if rank == 0 {
			if !sig {
				continue
			}
			if numCG > 1 {
				x, y := codedPos(grid[i], b.Scan)
				side := 1 << gridLog2
				c.EncodeRun(x, side-1, ctxLastCG(chroma, gridLog2-1, 0), 3)
				c.EncodeRun(y, side-1, ctxLastCG(chroma, gridLog2-1, 1), 3)
			}
		} else {
			c.EncodeSymbol(ctxCGSig(chroma, b2i(i == 0)), b2i(sig))
			if !sig {
				if c.OverBudget() {
					return
				}
				continue
			}
		}
		rank = c.encodeGroup(&g, chroma, cgClass(numCG, i, rank), b.Scan, rank)
		if c.OverBudget() {
			return
		}
	}
}

// encodeGroup codes one significant group and returns the updated rank.
func (c *Coder) encodeGroup(g *coeffGroup, chroma, class int, scan ScanKind, rank int) int {
	if g.npairs == 0 {
		panic("entropy: significant coefficient group has no run-level pairs")
	}

	x, y := codedPos(cgScan[scan][g.last], scan)
	c.EncodeRun(x, cgSize-1, ctxLastPos(chroma, class, 0), 3)
	c.EncodeRun(y, cgSize-1, ctxLastPos(chroma, class, 1), 3)

	pairs := 0
	for pos := g.last; pos >= 0; {
		level := g.levels[pos]
		c.encodeLevel(level, ctxLevel(chroma, min(rank, maxRank)))
		rank = max(rank, rankOf(level))
		pairs++
		if pos == 0 || c.OverBudget() {
			break
		}
		run := 0
		for run < pos && g.levels[pos-1-run] == 0 {
			run++
		}
		c.EncodeRun(run, pos, runContext(&g.levels, chroma, pos), 2)
		pos -= run + 1
	}
	if c.OverBudget() {
		return rank
	}
	if pairs != g.npairs {
		panic(fmt.Sprintf("entropy: coefficient group coded %d pairs, has %d", pairs, g.npairs))
	}

	for pos := g.last; pos >= 0; pos-- {
		if g.levels[pos] != 0 {
			c.EncodeBypass(b2i(g.neg[pos]))
		}
	}
	return rank
}

// encodeLevel codes a nonzero magnitude with the two contexts at ctx.
func (c *Coder) encodeLevel(level int32, ctx int) {
	v := int(level) - 1
	if v < maxLevelTU {
		c.EncodeRun(v, maxLevelTU, ctx, 2)
		return
	}
	c.EncodeRun(maxLevelTU, maxLevelTU, ctx, 2)
	c.encodeEscape(uint32(level - escapeLevel))
}

// encodeEscape codes u as Exp-Golomb k=0: the unary prefix goes through
// the terminating primitive, the suffix through bypass bits.
func (c *Coder) encodeEscape(u uint32) {
	k := bits.Len32(u+1) - 1
	for i := 0; i < k; i++ {
		c.EncodeFinal(0)
	}
	c.EncodeFinal(1)
	c.EncodeBypassBits(u+1-1<<uint(k), k)
}
