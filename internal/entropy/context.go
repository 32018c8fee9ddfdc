// Package entropy implements the context-adaptive binary arithmetic coder.
//
// This includes:
//   - the packed context model and its MPS/LPS transition tables
//   - the Coder (registers, renormalization, carry handling, termination)
//   - three interchangeable symbol backends: exact, fast and very fast
//   - the transform coefficient run-level coder
//   - a reference decoder used to verify the emitted bitstream
package entropy

// Context model layout. A context packs the LPS probability (LG_PMPS,
// 1024 is p=0.5), the most probable symbol and the adaptation speed class
// (cycno) into 13 bits.
const (
	lgPmpsBits  = 10
	mpsShift    = 10
	cycnoShift  = 11
	lgPmpsMask  = 1<<lgPmpsBits - 1
	contextBits = 13

	// LgPmpsMax is the largest LPS probability, just below one half.
	LgPmpsMax = lgPmpsMask
	// LgPmpsMin keeps the LPS sub-interval at least one unit wide.
	LgPmpsMin = 12

	// NumContextStates is the number of distinct packed context values.
	NumContextStates = 1 << contextBits

	// InitContext is the state every context starts a coding pass in:
	// equiprobable, MPS=0, fastest adaptation.
	InitContext Context = LgPmpsMax
)

// Context is one packed probability model.
type Context uint16

// NewContext packs a context from its fields. Out of range fields are
// truncated to their bit widths.
func NewContext(lgPmps, mps, cycno int) Context {
	return Context(lgPmps&lgPmpsMask | (mps&1)<<mpsShift | (cycno&3)<<cycnoShift)
}

// LgPmps returns the LPS probability (1024 is one half).
func (c Context) LgPmps() uint32 { return uint32(c) & lgPmpsMask }

// MPS returns the most probable symbol.
func (c Context) MPS() int { return int(c>>mpsShift) & 1 }

// Cycno returns the adaptation speed class (0 fastest, 3 slowest).
func (c Context) Cycno() int { return int(c>>cycnoShift) & 3 }

// TransitionTables hold the successor of every packed context state for
// an MPS and for an LPS event.
type TransitionTables struct {
	MPS [NumContextStates]Context
	LPS [NumContextStates]Context
}

// Adaptation window shift per speed class.
var cwrTab = [4]uint{3, 3, 4, 5}

// LPS probability increment per window shift (3, 4, 5).
var lpsStep = [3]int{197, 95, 46}

// BuildTransitionTables computes both transition tables. It is a pure
// function of the constants above; every call returns identical tables.
func BuildTransitionTables() *TransitionTables {
	t := &TransitionTables{}
	for s := 0; s < NumContextStates; s++ {
		c := Context(s)
		t.MPS[s] = nextMPS(c)
		t.LPS[s] = nextLPS(c)
	}
	return t
}

func nextMPS(c Context) Context {
	lg := int(c.LgPmps())
	cycno := c.Cycno()
	cwr := cwrTab[cycno]
	lg -= lg>>cwr + lg>>(cwr+2)
	if cycno == 0 {
		cycno = 1
	}
	return NewContext(clampLgPmps(lg), c.MPS(), cycno)
}

func nextLPS(c Context) Context {
	lg := int(c.LgPmps())
	mps := c.MPS()
	cycno := c.Cycno()
	lg += lpsStep[cwrTab[cycno]-3]
	if cycno < 3 {
		cycno++
	}
	if lg > LgPmpsMax {
		// The LPS became the more probable symbol.
		lg = 2*LgPmpsMax + 1 - lg
		mps ^= 1
	}
	return NewContext(clampLgPmps(lg), mps, cycno)
}

func clampLgPmps(lg int) int {
	if lg < LgPmpsMin {
		return LgPmpsMin
	}
	if lg > LgPmpsMax {
		return LgPmpsMax
	}
	return lg
}

// Process-wide transition tables. Filled once during package
// initialization and never written again, so any number of coders may
// read them concurrently.
var (
	ctxMPS [NumContextStates]Context
	ctxLPS [NumContextStates]Context
)

func init() {
	t := BuildTransitionTables()
	ctxMPS = t.MPS
	ctxLPS = t.LPS
}

// lpsRange returns the LPS sub-interval width for a context at the given
// range. The range is quantized to four classes. For LG_PMPS in
// [LgPmpsMin, LgPmpsMax] the result is at least 1 and leaves the MPS at
// least 113 units.
func lpsRange(c Context, rng uint32) uint32 {
	q := (rng >> 6) & 3
	return ((9 + 2*q) * c.LgPmps()) >> 6
}
