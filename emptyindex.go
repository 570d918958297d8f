package volray

// CellState classifies one empty-space index cell.
type CellState int

const (
	CellEmpty CellState = iota
	CellNonEmpty
)

// EmptyIndex is a regular grid overlaid on a Volume, one coarse cell per
// CellSide voxels, recording whether any sample under that cell is
// visible through the volume's transfer function. The integrator consults
// it to skip sampling and compositing at march positions inside empty
// cells; the march itself still advances one step at a time.
type EmptyIndex struct {
	cellSide int
	size     [3]int
	cells    []CellState
}

// BuildEmptyIndex samples vol's transfer function over every voxel
// (inclusive of the one-voxel overlap window, so a cell never misses a
// visible sample that falls exactly on its far boundary) to classify each
// cellSide-voxel cell as empty or non-empty.
func BuildEmptyIndex(vol Volume, cellSide int) *EmptyIndex {
	size := vol.Size()
	tf := vol.TF()

	dimAt := func(full int) int {
		return (full + cellSide - 2) / cellSide
	}
	indexSize := [3]int{dimAt(size[0]), dimAt(size[1]), dimAt(size[2])}

	cells := make([]CellState, indexSize[0]*indexSize[1]*indexSize[2])
	idx := 0
	for x := 0; x < indexSize[0]; x++ {
		for y := 0; y < indexSize[1]; y++ {
			for z := 0; z < indexSize[2]; z++ {
				cells[idx] = classifyCell(vol, tf, cellSide, x*cellSide, y*cellSide, z*cellSide)
				idx++
			}
		}
	}

	return &EmptyIndex{cellSide: cellSide, size: indexSize, cells: cells}
}

// classifyCell samples cellSide+1 voxels per axis starting at
// (baseX, baseY, baseZ) — the "+1" reaches one voxel past the cell's own
// span, matching the one-voxel overlap every block and cell shares with
// its neighbor.
func classifyCell(vol Volume, tf TransferFunction, cellSide, baseX, baseY, baseZ int) CellState {
	for ox := 0; ox <= cellSide; ox++ {
		for oy := 0; oy <= cellSide; oy++ {
			for oz := 0; oz <= cellSide; oz++ {
				sample := vol.GetData(baseX+ox, baseY+oy, baseZ+oz)
				if tf(sample).A != 0 {
					return CellNonEmpty
				}
			}
		}
	}
	return CellEmpty
}

func (e *EmptyIndex) index3D(x, y, z int) int {
	return z + y*e.size[2] + x*e.size[1]*e.size[2]
}

// Sample returns the cell state covering pos, given in volume voxel
// coordinates.
func (e *EmptyIndex) Sample(pos Vec3) CellState {
	x := int(pos.X) / e.cellSide
	y := int(pos.Y) / e.cellSide
	z := int(pos.Z) / e.cellSide
	idx := e.index3D(x, y, z)
	if idx < 0 || idx >= len(e.cells) {
		return CellEmpty
	}
	return e.cells[idx]
}

// CellSide returns the voxel span of one index cell.
func (e *EmptyIndex) CellSide() int { return e.cellSide }
