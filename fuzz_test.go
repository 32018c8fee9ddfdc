package aec

import (
	"slices"
	"testing"

	"github.com/mrjoshuak/go-aec/internal/entropy"
)

// FuzzDecodeCoeffs feeds arbitrary data to the reference decoder.
// Run with: go test -fuzz=FuzzDecodeCoeffs -fuzztime=60s
func FuzzDecodeCoeffs(f *testing.F) {
	e, _ := NewEncoder(make([]byte, 64), nil)
	e.WriteCoeffs(scenario())
	f.Add(append([]byte(nil), e.Finish()...), uint8(2), uint8(0))

	f.Add([]byte{}, uint8(3), uint8(1))
	f.Add([]byte{0x00}, uint8(4), uint8(2))
	f.Add([]byte{0xFF, 0xFF, 0xFF, 0xFF}, uint8(5), uint8(0))

	f.Fuzz(func(t *testing.T, data []byte, size, scan uint8) {
		// The decoder should never panic, regardless of input
		log2 := entropy.MinLog2Size + int(size)%(entropy.MaxLog2Size-entropy.MinLog2Size+1)
		b := &Block{
			Coeffs:   make([]int32, 1<<(2*log2)),
			Log2Size: log2,
			Scan:     ScanKind(scan % 3),
		}
		d := entropy.NewDecoder(data)
		d.DecodeCoeffs(b)
		d.DecodeFinal()
	})
}

// FuzzEncodeLCU drives the syntax writers from arbitrary data and checks
// that an exact pass decodes to the same coefficients.
func FuzzEncodeLCU(f *testing.F) {
	f.Add([]byte{5, 0, 0, 0, 3})
	f.Add([]byte{})
	f.Add([]byte{0xFF, 0x80, 0x01, 0x7F, 0x00, 0x42})

	f.Fuzz(func(t *testing.T, data []byte) {
		b := &Block{Coeffs: make([]int32, 16), Log2Size: 2, Scan: ScanDiagonal}
		nonzero := false
		for i := 0; i < len(data) && i < len(b.Coeffs); i++ {
			b.Coeffs[i] = int32(int8(data[i]))
			nonzero = nonzero || data[i] != 0
		}

		e, err := NewEncoder(make([]byte, 256), nil)
		if err != nil {
			t.Fatal(err)
		}
		e.WriteSplitFlag(false, len(data)%3)
		e.WriteCUType(CUType(len(data) % 7))
		if nonzero {
			e.WriteCoeffs(b)
		}
		e.WriteEndOfLCU(true)
		out := e.Finish()

		d := entropy.NewDecoder(out)
		d.DecodeSymbol(entropy.CtxSplitFlag + len(data)%3)
		if got := d.DecodeRun(6, entropy.CtxCUType, 6); got != len(data)%7 {
			t.Fatalf("CU type = %d, want %d", got, len(data)%7)
		}
		if nonzero {
			got := &Block{Coeffs: make([]int32, 16), Log2Size: 2, Scan: ScanDiagonal}
			d.DecodeCoeffs(got)
			if !slices.Equal(got.Coeffs, b.Coeffs) {
				t.Fatalf("coefficients = %v, want %v", got.Coeffs, b.Coeffs)
			}
		}
		if d.DecodeFinal() != 1 {
			t.Fatal("end of LCU not decoded")
		}
	})
}
