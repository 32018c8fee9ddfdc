// Package syntax binarizes coding unit and loop filter syntax elements.
//
// Every writer takes the *entropy.Coder of the current pass and never
// looks at which backend it runs, so the same calls produce a bitstream
// on an exact coder and a rate estimate on an estimate coder.
//
// Out of range values are invariant violations of the caller (the mode
// decision search) and panic.
package syntax

import (
	"fmt"

	"github.com/mrjoshuak/go-aec/internal/entropy"
)

// CUType is the coding unit prediction type.
type CUType int

const (
	CUSkip CUType = iota
	CUDirect
	CU2Nx2N
	CU2NxN
	CUNx2N
	CUIntra2Nx2N
	CUIntraNxN

	// NumCUTypes is the number of coding unit types.
	NumCUTypes = int(CUIntraNxN) + 1
)

var cuTypeNames = [...]string{"skip", "direct", "2Nx2N", "2NxN", "Nx2N", "intra-2Nx2N", "intra-NxN"}

// String returns the string representation of the CU type.
func (t CUType) String() string {
	if t < 0 || int(t) >= NumCUTypes {
		return "unknown"
	}
	return cuTypeNames[t]
}

// IsIntra reports whether t is an intra type.
func (t CUType) IsIntra() bool {
	return t == CUIntra2Nx2N || t == CUIntraNxN
}

// PredDir is the inter prediction direction of a prediction unit.
type PredDir int

const (
	PredForward PredDir = iota
	PredBackward
	PredBi

	numPredDirs = 3
)

// Intra mode alphabet sizes.
const (
	NumIntraLumaModes   = 33
	NumIntraChromaModes = 5

	// remModeBits is the fixed length of a non-MPM luma mode.
	remModeBits = 5
)

// Delta QP limits.
const (
	MaxDQP = 32
	MinDQP = -MaxDQP
)

// CBP bit layout: four luma quadrants then the two chroma blocks.
const (
	CBPLumaMask = 0x0f
	CBPCb       = 1 << 4
	CBPCr       = 1 << 5
)

func b2i(b bool) int {
	if b {
		return 1
	}
	return 0
}

func abs32(v int32) uint32 {
	if v < 0 {
		return uint32(-int64(v))
	}
	return uint32(v)
}

// WriteSplitFlag codes the CU quadtree split flag. ctxInc is the number of
// neighboring CUs that are split deeper than the current depth.
func WriteSplitFlag(c *entropy.Coder, split bool, ctxInc int) {
	c.EncodeSymbol(entropy.CtxSplitFlag+min(max(ctxInc, 0), 2), b2i(split))
}

// WriteCUType codes the CU type as truncated unary.
func WriteCUType(c *entropy.Coder, t CUType) {
	if t < 0 || int(t) >= NumCUTypes {
		panic(fmt.Sprintf("syntax: invalid CU type %d", int(t)))
	}
	c.EncodeRun(int(t), NumCUTypes-1, entropy.CtxCUType, NumCUTypes-1)
}

// WritePredDir codes the inter prediction direction.
func WritePredDir(c *entropy.Coder, d PredDir) {
	if d < 0 || d >= numPredDirs {
		panic(fmt.Sprintf("syntax: invalid prediction direction %d", int(d)))
	}
	c.EncodeRun(int(d), numPredDirs-1, entropy.CtxPredDir, 2)
}

// WriteRefIdx codes a reference index out of numRefs. Nothing is coded
// when only one reference exists.
func WriteRefIdx(c *entropy.Coder, idx, numRefs int) {
	if idx < 0 || idx >= max(numRefs, 1) {
		panic(fmt.Sprintf("syntax: reference index %d out of %d", idx, numRefs))
	}
	if numRefs <= 1 {
		return
	}
	c.EncodeRun(idx, numRefs-1, entropy.CtxRefIdx, 3)
}

// MVDContext returns the context increment for a motion vector difference
// component from the sum of the neighbors' absolute differences.
func MVDContext(neighborSum int) int {
	switch {
	case neighborSum < 2:
		return 0
	case neighborSum < 16:
		return 1
	default:
		return 2
	}
}

// WriteMVD codes a motion vector difference. ctxInc holds the MVDContext
// of each component.
//
// Per component: a zero flag selected by ctxInc, a >1 flag, a >2 flag,
// then |v|-3 as bypass Exp-Golomb and a bypass sign.
func WriteMVD(c *entropy.Coder, mvd [2]int32, ctxInc [2]int) {
	for comp, v := range mvd {
		base := entropy.CtxMVD + comp*5
		a := abs32(v)
		c.EncodeSymbol(base+min(max(ctxInc[comp], 0), 2), b2i(a != 0))
		if a == 0 {
			continue
		}
		c.EncodeSymbol(base+3, b2i(a > 1))
		if a > 1 {
			c.EncodeSymbol(base+4, b2i(a > 2))
			if a > 2 {
				c.EncodeExpGolombBypass(a-3, 0)
			}
		}
		c.EncodeBypass(b2i(v < 0))
	}
}

// WriteIntraLumaMode codes an intra luma mode against the two most
// probable modes. A non-MPM mode is coded in remModeBits bypass bits
// after removing the MPMs from the alphabet.
func WriteIntraLumaMode(c *entropy.Coder, mode int, mpm [2]int) {
	if mode < 0 || mode >= NumIntraLumaModes {
		panic(fmt.Sprintf("syntax: invalid intra luma mode %d", mode))
	}
	for i, m := range mpm {
		if mode == m {
			c.EncodeSymbol(entropy.CtxIntraMPM, 1)
			c.EncodeSymbol(entropy.CtxIntraMPMIdx, i)
			return
		}
	}
	c.EncodeSymbol(entropy.CtxIntraMPM, 0)
	c.EncodeBypassBits(uint32(RemIntraMode(mode, mpm)), remModeBits)
}

// RemIntraMode returns mode's index among the modes that are not MPMs.
func RemIntraMode(mode int, mpm [2]int) int {
	lo, hi := min(mpm[0], mpm[1]), max(mpm[0], mpm[1])
	rem := mode
	if mode > hi {
		rem--
	}
	if mode > lo && lo != hi {
		rem--
	}
	return rem
}

// WriteIntraChromaMode codes the intra chroma mode (0 is derived from
// luma) as truncated unary.
func WriteIntraChromaMode(c *entropy.Coder, mode int) {
	if mode < 0 || mode >= NumIntraChromaModes {
		panic(fmt.Sprintf("syntax: invalid intra chroma mode %d", mode))
	}
	c.EncodeRun(mode, NumIntraChromaModes-1, entropy.CtxIntraChroma, 3)
}

// WriteTransSplit codes the transform split flag at depth.
func WriteTransSplit(c *entropy.Coder, split bool, depth int) {
	c.EncodeSymbol(entropy.CtxTransSplit+min(max(depth, 0), 2), b2i(split))
}

// WriteCBP codes the coded block pattern: one flag per luma quadrant, a
// flag for any chroma, then which chroma blocks.
func WriteCBP(c *entropy.Coder, cbp int) {
	if cbp&^(CBPLumaMask|CBPCb|CBPCr) != 0 {
		panic(fmt.Sprintf("syntax: invalid CBP %#x", cbp))
	}
	for i := 0; i < 4; i++ {
		c.EncodeSymbol(entropy.CtxCBPLuma+i, (cbp>>i)&1)
	}
	chroma := cbp >> 4 // 1 Cb, 2 Cr, 3 both
	c.EncodeSymbol(entropy.CtxCBPChroma, b2i(chroma != 0))
	if chroma != 0 {
		c.EncodeRun(chroma-1, 2, entropy.CtxCBPChroma+1, 2)
	}
}

// WriteDQP codes a delta QP. prevNonzero selects the first bin context
// from the previous coded delta.
func WriteDQP(c *entropy.Coder, dqp int, prevNonzero bool) {
	if dqp < MinDQP || dqp > MaxDQP {
		panic(fmt.Sprintf("syntax: delta QP %d out of range", dqp))
	}
	v := -2 * dqp
	if dqp > 0 {
		v = 2*dqp - 1
	}
	c.EncodeSymbol(entropy.CtxDQP+b2i(prevNonzero), b2i(v != 0))
	if v != 0 {
		c.EncodeRun(v-1, 2*MaxDQP-1, entropy.CtxDQP+2, 1)
	}
}

// WriteCBPDQP codes the coded block pattern followed by the delta QP when
// delta QP is enabled and the CU has residual.
func WriteCBPDQP(c *entropy.Coder, cbp, dqp int, dqpEnabled, prevNonzero bool) {
	WriteCBP(c, cbp)
	if dqpEnabled && cbp != 0 {
		WriteDQP(c, dqp, prevNonzero)
	}
}

// WriteCoeffs codes one transform block of quantized coefficients.
func WriteCoeffs(c *entropy.Coder, b *entropy.Block) {
	c.EncodeCoeffs(b)
}
