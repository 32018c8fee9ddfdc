package syntax

import (
	"fmt"

	"github.com/mrjoshuak/go-aec/internal/entropy"
)

// SAOMode is the sample adaptive offset mode of one component in an LCU.
type SAOMode int

const (
	SAOOff SAOMode = iota
	SAOBand
	SAOEdge
)

// String returns the string representation of the SAO mode.
func (m SAOMode) String() string {
	switch m {
	case SAOOff:
		return "off"
	case SAOBand:
		return "band"
	case SAOEdge:
		return "edge"
	default:
		return "unknown"
	}
}

// SAOMerge selects the neighbor an LCU copies its SAO parameters from.
type SAOMerge int

const (
	SAOMergeNone SAOMerge = iota
	SAOMergeLeft
	SAOMergeUp
)

// SAO parameter limits.
const (
	SAONumOffsets = 4
	SAOMaxOffset  = 7

	// SAONumBands is the number of start band positions.
	SAONumBands   = 32
	saoBandBits   = 5
	SAONumEOClass = 4
	saoEOBits     = 2
)

// ALF components.
const (
	ALFLuma = iota
	ALFCb
	ALFCr
)

// WriteSAOMerge codes the SAO merge choice given which neighbors exist.
// Nothing is coded without a neighbor.
func WriteSAOMerge(c *entropy.Coder, merge SAOMerge, leftAvail, upAvail bool) {
	if (merge == SAOMergeLeft && !leftAvail) || (merge == SAOMergeUp && !upAvail) ||
		merge < SAOMergeNone || merge > SAOMergeUp {
		panic(fmt.Sprintf("syntax: invalid SAO merge %d (left %v, up %v)", int(merge), leftAvail, upAvail))
	}
	switch {
	case leftAvail && upAvail:
		c.EncodeSymbol(entropy.CtxSAOMerge+1, b2i(merge != SAOMergeNone))
		if merge != SAOMergeNone {
			c.EncodeSymbol(entropy.CtxSAOMerge+2, b2i(merge == SAOMergeUp))
		}
	case leftAvail || upAvail:
		c.EncodeSymbol(entropy.CtxSAOMerge, b2i(merge != SAOMergeNone))
	}
}

// WriteSAOMode codes whether SAO is on and, if so, band or edge.
func WriteSAOMode(c *entropy.Coder, mode SAOMode) {
	if mode < SAOOff || mode > SAOEdge {
		panic(fmt.Sprintf("syntax: invalid SAO mode %d", int(mode)))
	}
	c.EncodeSymbol(entropy.CtxSAOMode, b2i(mode != SAOOff))
	if mode != SAOOff {
		c.EncodeBypass(b2i(mode == SAOEdge))
	}
}

// WriteSAOOffset codes the four offsets of an enabled SAO mode. The first
// magnitude bin is context coded and the rest are bypass. Band offsets
// carry a sign; edge offsets have implied signs (non-negative for the
// first two categories, non-positive for the last two).
func WriteSAOOffset(c *entropy.Coder, mode SAOMode, offsets [SAONumOffsets]int) {
	if mode != SAOBand && mode != SAOEdge {
		panic(fmt.Sprintf("syntax: SAO offsets for mode %s", mode))
	}
	for i, v := range offsets {
		a := v
		if a < 0 {
			a = -a
		}
		if a > SAOMaxOffset {
			panic(fmt.Sprintf("syntax: SAO offset %d out of range", v))
		}
		if mode == SAOEdge && ((i < 2 && v < 0) || (i >= 2 && v > 0)) {
			panic(fmt.Sprintf("syntax: edge offset %d has the wrong sign for category %d", v, i))
		}
		c.EncodeSymbol(entropy.CtxSAOOffset, b2i(a != 0))
		if a == 0 {
			continue
		}
		for k := 1; k < a; k++ {
			c.EncodeBypass(1)
		}
		if a < SAOMaxOffset {
			c.EncodeBypass(0)
		}
		if mode == SAOBand {
			c.EncodeBypass(b2i(v < 0))
		}
	}
}

// WriteSAOType codes the band start position or the edge class.
func WriteSAOType(c *entropy.Coder, mode SAOMode, typ int) {
	switch mode {
	case SAOBand:
		if typ < 0 || typ >= SAONumBands {
			panic(fmt.Sprintf("syntax: SAO band position %d out of range", typ))
		}
		c.EncodeBypassBits(uint32(typ), saoBandBits)
	case SAOEdge:
		if typ < 0 || typ >= SAONumEOClass {
			panic(fmt.Sprintf("syntax: SAO edge class %d out of range", typ))
		}
		c.EncodeBypassBits(uint32(typ), saoEOBits)
	default:
		panic(fmt.Sprintf("syntax: SAO type for mode %s", mode))
	}
}

// WriteALFLCUCtrl codes the adaptive loop filter on/off flag of one
// component of an LCU.
func WriteALFLCUCtrl(c *entropy.Coder, on bool, comp int) {
	if comp < ALFLuma || comp > ALFCr {
		panic(fmt.Sprintf("syntax: invalid ALF component %d", comp))
	}
	c.EncodeSymbol(entropy.CtxALF+comp, b2i(on))
}

// WriteEndOfLCU codes the terminating bin after an LCU. last is set after
// the final LCU of a slice.
func WriteEndOfLCU(c *entropy.Coder, last bool) {
	c.EncodeFinal(b2i(last))
}
