package aec

import (
	"github.com/pion/logging"

	"github.com/mrjoshuak/go-aec/internal/entropy"
	"github.com/mrjoshuak/go-aec/internal/syntax"
)

// Encoder is one coding pass: a coder state bound to a backend and the
// syntax writers that drive it.
//
// Invariant violations (out of range syntax values, a coefficient group
// without pairs, writing past the end of the output buffer) are logged
// once at error level and then panic. They indicate a corrupted caller
// state and are never returned as errors.
//
// An Encoder must only be used by one goroutine at a time.
type Encoder struct {
	c    entropy.Coder
	log  logging.LeveledLogger
	opts Options
}

// Snapshot is a saved coder state. Taking and restoring one copies a
// fixed-size value and never allocates.
type Snapshot struct {
	c entropy.Coder
}

// NewEncoder creates an encoder with the given options. buf receives the
// bitstream of an exact pass and is ignored by the estimate backends. If o
// is nil, DefaultOptions is used.
func NewEncoder(buf []byte, o *Options) (*Encoder, error) {
	if o == nil {
		o = DefaultOptions()
	}
	if err := o.Validate(); err != nil {
		return nil, err
	}
	e := &Encoder{
		log:  newLogger(o.LoggerFactory),
		opts: *o,
	}
	e.c.Init(o.Backend, buf)
	e.c.SetBudget(o.Budget)
	e.log.Debugf("new %s encoder, %d byte buffer, budget %d", o.Backend, len(buf), o.Budget)
	return e, nil
}

// guard logs a panic raised by the coder at error level and re-raises it.
func (e *Encoder) guard() {
	if r := recover(); r != nil {
		e.log.Errorf("%v", r)
		panic(r)
	}
}

// Reset starts a new coding pass into buf with the same options.
func (e *Encoder) Reset(buf []byte) {
	e.c.Init(e.opts.Backend, buf)
	e.c.SetBudget(e.opts.Budget)
}

// Backend returns the active backend.
func (e *Encoder) Backend() BackendKind {
	return e.c.Kind()
}

// Bits returns the bits written (Exact) or estimated so far.
func (e *Encoder) Bits() int {
	return e.c.WrittenBits()
}

// SetBudget changes the estimate early-exit threshold.
func (e *Encoder) SetBudget(bits int) {
	e.c.SetBudget(bits)
}

// OverBudget reports whether an estimate pass has exceeded its budget.
func (e *Encoder) OverBudget() bool {
	return e.c.OverBudget()
}

// Snapshot saves the coder state for a later Restore on the same
// encoder. An exact snapshot shares the output buffer; to code two exact
// continuations side by side use Fork with a second buffer.
func (e *Encoder) Snapshot() Snapshot {
	return Snapshot{c: e.c.Clone()}
}

// Restore brings the coder back to s. Output written after s was taken is
// overwritten by whatever is coded next.
func (e *Encoder) Restore(s *Snapshot) {
	e.c.Restore(&s.c)
}

// Fork returns an encoder that continues from the current state with kind.
// Its bit count starts from zero. An exact fork copies the bytes coded so
// far into buf and continues there, so e and the fork can both finish;
// estimate forks ignore buf. Forking an exact encoder from an estimate
// panics, as does a buf shorter than the bytes already coded.
func (e *Encoder) Fork(kind BackendKind, buf []byte) *Encoder {
	defer e.guard()
	f := &Encoder{log: e.log, opts: e.opts}
	f.opts.Backend = kind
	f.c = e.c.Fork(kind, buf)
	return f
}

// Finish terminates an exact pass and returns the bitstream. Estimate
// passes return nil. Finishing with the output cursor at the end of the
// buffer panics.
func (e *Encoder) Finish() []byte {
	defer e.guard()
	data := e.c.Finish()
	if data != nil {
		e.log.Debugf("finished %d bytes from %d bits", len(data), e.c.WrittenBits())
	}
	return data
}

// WriteSplitFlag codes the CU split flag. ctxInc is the number of
// neighbors split deeper than the current depth.
func (e *Encoder) WriteSplitFlag(split bool, ctxInc int) {
	defer e.guard()
	syntax.WriteSplitFlag(&e.c, split, ctxInc)
}

// WriteCUType codes the CU type.
func (e *Encoder) WriteCUType(t CUType) {
	defer e.guard()
	syntax.WriteCUType(&e.c, t)
}

// WritePredDir codes the inter prediction direction.
func (e *Encoder) WritePredDir(d PredDir) {
	defer e.guard()
	syntax.WritePredDir(&e.c, d)
}

// WriteRefIdx codes a reference index out of numRefs.
func (e *Encoder) WriteRefIdx(idx, numRefs int) {
	defer e.guard()
	syntax.WriteRefIdx(&e.c, idx, numRefs)
}

// WriteMVD codes a motion vector difference. ctxInc comes from
// MVDContext of the neighbors.
func (e *Encoder) WriteMVD(mvd [2]int32, ctxInc [2]int) {
	defer e.guard()
	syntax.WriteMVD(&e.c, mvd, ctxInc)
}

// MVDContext returns the context increment of a motion vector difference
// component from the neighbors' absolute sum.
func MVDContext(neighborSum int) int {
	return syntax.MVDContext(neighborSum)
}

// WriteIntraLumaMode codes an intra luma mode against two most probable
// modes.
func (e *Encoder) WriteIntraLumaMode(mode int, mpm [2]int) {
	defer e.guard()
	syntax.WriteIntraLumaMode(&e.c, mode, mpm)
}

// WriteIntraChromaMode codes the intra chroma mode.
func (e *Encoder) WriteIntraChromaMode(mode int) {
	defer e.guard()
	syntax.WriteIntraChromaMode(&e.c, mode)
}

// WriteTransSplit codes the transform split flag at depth.
func (e *Encoder) WriteTransSplit(split bool, depth int) {
	defer e.guard()
	syntax.WriteTransSplit(&e.c, split, depth)
}

// WriteCBP codes the coded block pattern.
func (e *Encoder) WriteCBP(cbp int) {
	defer e.guard()
	syntax.WriteCBP(&e.c, cbp)
}

// WriteDQP codes a delta QP.
func (e *Encoder) WriteDQP(dqp int, prevNonzero bool) {
	defer e.guard()
	syntax.WriteDQP(&e.c, dqp, prevNonzero)
}

// WriteCBPDQP codes the coded block pattern and, when enabled and the CU
// has residual, the delta QP.
func (e *Encoder) WriteCBPDQP(cbp, dqp int, dqpEnabled, prevNonzero bool) {
	defer e.guard()
	syntax.WriteCBPDQP(&e.c, cbp, dqp, dqpEnabled, prevNonzero)
}

// WriteCoeffs codes one transform block.
func (e *Encoder) WriteCoeffs(b *Block) {
	defer e.guard()
	syntax.WriteCoeffs(&e.c, b)
}

// WriteSAOMerge codes the SAO merge choice.
func (e *Encoder) WriteSAOMerge(merge SAOMerge, leftAvail, upAvail bool) {
	defer e.guard()
	syntax.WriteSAOMerge(&e.c, merge, leftAvail, upAvail)
}

// WriteSAOMode codes the SAO mode.
func (e *Encoder) WriteSAOMode(mode SAOMode) {
	defer e.guard()
	syntax.WriteSAOMode(&e.c, mode)
}

// WriteSAOOffset codes the four SAO offsets.
func (e *Encoder) WriteSAOOffset(mode SAOMode, offsets [4]int) {
	defer e.guard()
	syntax.WriteSAOOffset(&e.c, mode, offsets)
}

// WriteSAOType codes the band position or edge class.
func (e *Encoder) WriteSAOType(mode SAOMode, typ int) {
	defer e.guard()
	syntax.WriteSAOType(&e.c, mode, typ)
}

// WriteALFLCUCtrl codes the ALF on/off flag of component comp (0 luma,
// 1 Cb, 2 Cr).
func (e *Encoder) WriteALFLCUCtrl(on bool, comp int) {
	defer e.guard()
	syntax.WriteALFLCUCtrl(&e.c, on, comp)
}

// WriteEndOfLCU codes the end-of-LCU terminating bin.
func (e *Encoder) WriteEndOfLCU(last bool) {
	defer e.guard()
	syntax.WriteEndOfLCU(&e.c, last)
}
