// Package aec provides the entropy coding core of a block video encoder:
// a context-adaptive binary arithmetic coder with an AVS2-style
// logarithmic probability model.
//
// One Encoder drives one coding pass. The same syntax writers either emit
// a conforming bitstream (the Exact backend) or only accumulate a bit
// estimate (FastEstimate, VeryFastEstimate) for rate-distortion search.
//
// Basic usage for an exact pass:
//
//	buf := make([]byte, 1<<20)
//	enc, err := aec.NewEncoder(buf, nil)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	enc.WriteCUType(aec.CU2Nx2N)
//	enc.WriteCoeffs(&aec.Block{Coeffs: coeffs, Log2Size: 3})
//	enc.WriteEndOfLCU(true)
//	data := enc.Finish()
//
// Basic usage for a mode decision trial:
//
//	trial := enc.Fork(aec.FastEstimate, nil)
//	trial.WriteCUType(aec.CUSkip)
//	cost := trial.Bits()
package aec

import (
	"errors"
	"fmt"
	"runtime"

	"github.com/pion/logging"

	"github.com/mrjoshuak/go-aec/internal/entropy"
	"github.com/mrjoshuak/go-aec/internal/syntax"
)

// BackendKind selects how an Encoder turns symbols into bits.
type BackendKind = entropy.BackendKind

// Backend constants.
const (
	// Exact emits a conforming bitstream into the caller's buffer.
	Exact = entropy.Exact
	// FastEstimate tracks contexts like Exact and only counts bits.
	FastEstimate = entropy.FastEstimate
	// VeryFastEstimate ignores contexts. Its totals may only be compared
	// with other VeryFastEstimate totals.
	VeryFastEstimate = entropy.VeryFastEstimate
)

// Block is one transform block of quantized coefficients.
type Block = entropy.Block

// ScanKind selects the coefficient scan of a Block.
type ScanKind = entropy.ScanKind

// Scan constants.
const (
	ScanDiagonal   = entropy.ScanDiagonal
	ScanHorizontal = entropy.ScanHorizontal
	ScanVertical   = entropy.ScanVertical
)

// Syntax element types.
type (
	CUType   = syntax.CUType
	PredDir  = syntax.PredDir
	SAOMode  = syntax.SAOMode
	SAOMerge = syntax.SAOMerge
)

// CU types.
const (
	CUSkip       = syntax.CUSkip
	CUDirect     = syntax.CUDirect
	CU2Nx2N      = syntax.CU2Nx2N
	CU2NxN       = syntax.CU2NxN
	CUNx2N       = syntax.CUNx2N
	CUIntra2Nx2N = syntax.CUIntra2Nx2N
	CUIntraNxN   = syntax.CUIntraNxN
)

// Prediction directions.
const (
	PredForward  = syntax.PredForward
	PredBackward = syntax.PredBackward
	PredBi       = syntax.PredBi
)

// SAO modes and merge choices.
const (
	SAOOff       = syntax.SAOOff
	SAOBand      = syntax.SAOBand
	SAOEdge      = syntax.SAOEdge
	SAOMergeNone = syntax.SAOMergeNone
	SAOMergeLeft = syntax.SAOMergeLeft
	SAOMergeUp   = syntax.SAOMergeUp
)

// ErrInvalidOptions is wrapped by every Options validation error.
var ErrInvalidOptions = errors.New("aec: invalid options")

// Options holds the encoder configuration.
type Options struct {
	// Backend selects the symbol backend. Default is Exact.
	Backend BackendKind

	// Budget is the estimate early-exit threshold in bits. Coefficient
	// coding returns early once an estimate pass exceeds it. 0 disables
	// early exit. Only valid with an estimate backend.
	Budget int

	// Workers bounds the number of concurrent jobs in EncodeParallel.
	// 0 means runtime.GOMAXPROCS(0).
	Workers int

	// LoggerFactory creates the "aec" scoped logger. If nil, a default
	// factory logging warnings and errors to stderr is used.
	LoggerFactory logging.LoggerFactory
}

// DefaultOptions returns the default encoder options.
func DefaultOptions() *Options {
	return &Options{
		Backend: Exact,
		Workers: runtime.GOMAXPROCS(0),
	}
}

// Validate reports the first configuration error. Every error wraps
// ErrInvalidOptions.
func (o *Options) Validate() error {
	if !o.Backend.Valid() {
		return fmt.Errorf("backend %d: %w", int(o.Backend), ErrInvalidOptions)
	}
	if o.Budget < 0 {
		return fmt.Errorf("negative budget %d: %w", o.Budget, ErrInvalidOptions)
	}
	if o.Budget > 0 && o.Backend == Exact {
		return fmt.Errorf("budget %d with the exact backend: %w", o.Budget, ErrInvalidOptions)
	}
	if o.Workers < 0 {
		return fmt.Errorf("negative worker count %d: %w", o.Workers, ErrInvalidOptions)
	}
	return nil
}

func (o *Options) workers() int {
	if o.Workers == 0 {
		return runtime.GOMAXPROCS(0)
	}
	return o.Workers
}
