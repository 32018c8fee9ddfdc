package entropy

// Context indices. Each syntax category owns a contiguous range of the
// per-coder context set.
const (
	// CU quadtree split flag, indexed by the number of deeper neighbors (0-2).
	CtxSplitFlag = 0
	// CU type, one context per truncated unary bin.
	CtxCUType = CtxSplitFlag + 3
	// Inter prediction direction bins.
	CtxPredDir = CtxCUType + 6
	// Reference index bins.
	CtxRefIdx = CtxPredDir + 2
	// Motion vector difference: per component, three magnitude-class
	// contexts for the nonzero bin followed by the >1 and >2 bins.
	CtxMVD = CtxRefIdx + 3
	// Intra luma most-probable-mode flag and index.
	CtxIntraMPM    = CtxMVD + 10
	CtxIntraMPMIdx = CtxIntraMPM + 1
	// Intra chroma mode bins.
	CtxIntraChroma = CtxIntraMPMIdx + 1
	// Transform split flag by depth.
	CtxTransSplit = CtxIntraChroma + 3
	// Coded block pattern: four luma quadrants, then chroma.
	CtxCBPLuma   = CtxTransSplit + 3
	CtxCBPChroma = CtxCBPLuma + 4
	// Delta QP: first bin after a zero/nonzero previous delta, then the rest.
	CtxDQP = CtxCBPChroma + 3
	// SAO merge, mode and offset.
	CtxSAOMerge  = CtxDQP + 3
	CtxSAOMode   = CtxSAOMerge + 3
	CtxSAOOffset = CtxSAOMode + 1
	// ALF LCU on/off, one per component.
	CtxALF = CtxSAOOffset + 1

	// CtxCGSig is the coefficient group significance flag [chroma][dc].
	CtxCGSig = CtxALF + 3
	// CtxLastCG is the grid position of the last significant CG
	// [chroma][size class][x/y][bin].
	CtxLastCG = CtxCGSig + 2*2
	// CtxLastPos is the in-CG last position [chroma][cg class][x/y][bin].
	CtxLastPos = CtxLastCG + 2*3*2*3
	// CtxLevel is the level magnitude [chroma][rank][bin].
	CtxLevel = CtxLastPos + 2*4*2*3
	// CtxRun is the zero run [chroma][energy][position class][bin].
	CtxRun = CtxLevel + 2*5*2

	// NumContexts is the size of one coder's context set.
	NumContexts = CtxRun + 2*3*2*2
)

// Coefficient context selectors.
const (
	cgClassSingle = iota // block has exactly one CG
	cgClassDC            // the CG holding the DC coefficient
	cgClassLast          // the last significant CG, coded first
	cgClassOther
	numCGClasses
)

// ContextSet is the full adaptive state of one coding pass.
type ContextSet [NumContexts]Context

// Reset puts every context back to InitContext.
func (s *ContextSet) Reset() {
	for i := range s {
		s[i] = InitContext
	}
}

func ctxCGSig(chroma, dc int) int {
	return CtxCGSig + chroma*2 + dc
}

func ctxLastCG(chroma, sizeClass, field int) int {
	return CtxLastCG + ((chroma*3+sizeClass)*2+field)*3
}

func ctxLastPos(chroma, cgClass, field int) int {
	return CtxLastPos + ((chroma*numCGClasses+cgClass)*2+field)*3
}

func ctxLevel(chroma, rank int) int {
	return CtxLevel + (chroma*5+rank)*2
}

func ctxRun(chroma, energy, posClass int) int {
	return CtxRun + ((chroma*3+energy)*2+posClass)*2
}
