package entropy

// ScanKind selects the coefficient scan order of a transform block.
type ScanKind int

const (
	// ScanDiagonal walks anti-diagonals from bottom-left to top-right.
	ScanDiagonal ScanKind = iota
	// ScanHorizontal is raster order.
	ScanHorizontal
	// ScanVertical is column-major order.
	ScanVertical
	numScanKinds
)

// String returns the string representation of the scan kind.
func (k ScanKind) String() string {
	switch k {
	case ScanDiagonal:
		return "diagonal"
	case ScanHorizontal:
		return "horizontal"
	case ScanVertical:
		return "vertical"
	default:
		return "unknown"
	}
}

// Valid reports whether k names a scan.
func (k ScanKind) Valid() bool {
	return k >= ScanDiagonal && k < numScanKinds
}

const (
	cgLog2Size = 2
	cgSize     = 1 << cgLog2Size
	cgCoeffs   = cgSize * cgSize

	// MinLog2Size and MaxLog2Size bound the transform block size.
	MinLog2Size = 2
	MaxLog2Size = 5

	numCGGrids = MaxLog2Size - cgLog2Size + 1
)

// scanPos is one step of a scan: a column and a row.
type scanPos struct {
	x, y uint8
}

var (
	// cgScan[kind] is the in-group scan of a 4x4 coefficient group.
	cgScan [numScanKinds][cgCoeffs]scanPos
	// cgScanIndex[kind][y*4+x] is the inverse of cgScan.
	cgScanIndex [numScanKinds][cgCoeffs]uint8
	// groupScan[kind][g] is the scan of the CG grid with 1<<g groups per side.
	groupScan [numScanKinds][numCGGrids][]scanPos
	// groupScanIndex[kind][g][y<<g+x] is the inverse of groupScan.
	groupScanIndex [numScanKinds][numCGGrids][]uint8
)

func init() {
	for k := ScanKind(0); k < numScanKinds; k++ {
		copy(cgScan[k][:], buildScan(k, cgSize))
		for i, p := range cgScan[k] {
			cgScanIndex[k][int(p.y)*cgSize+int(p.x)] = uint8(i)
		}
		for g := 0; g < numCGGrids; g++ {
			groupScan[k][g] = buildScan(k, 1<<g)
			groupScanIndex[k][g] = make([]uint8, len(groupScan[k][g]))
			for i, p := range groupScan[k][g] {
				groupScanIndex[k][g][int(p.y)<<g+int(p.x)] = uint8(i)
			}
		}
	}
}

// codedPos returns the (x, y) fields a position is coded with. Vertical
// scans code the fields swapped so the first field runs along the scan.
func codedPos(p scanPos, scan ScanKind) (int, int) {
	if scan == ScanVertical {
		return int(p.y), int(p.x)
	}
	return int(p.x), int(p.y)
}

// buildScan returns the n x n scan for kind.
func buildScan(kind ScanKind, n int) []scanPos {
	out := make([]scanPos, 0, n*n)
	switch kind {
	case ScanHorizontal:
		for y := 0; y < n; y++ {
			for x := 0; x < n; x++ {
				out = append(out, scanPos{uint8(x), uint8(y)})
			}
		}
	case ScanVertical:
		for x := 0; x < n; x++ {
			for y := 0; y < n; y++ {
				out = append(out, scanPos{uint8(x), uint8(y)})
			}
		}
	default:
		for d := 0; d < 2*n-1; d++ {
			for y := min(d, n-1); y >= 0; y-- {
				x := d - y
				if x >= n {
					break
				}
				out = append(out, scanPos{uint8(x), uint8(y)})
			}
		}
	}
	return out
}
