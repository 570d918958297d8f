package volray

import "fmt"

// blockOverlap is the number of voxels adjacent blocks share along each
// axis, so a block's trilinear interpolation never needs to read a
// neighboring block: every block is self-contained.
const blockOverlap = 1

// Block is one self-contained, overlap-padded cube of samples: BlockSide
// voxels along every axis, including the shared overlap layer. It carries
// its own world-space bounding box and value range so the parallel
// renderer can order blocks front-to-back and the empty-space index can
// classify them without touching sample data.
type Block struct {
	Index      int
	BlockSide  int
	ValueRange ValueRange
	Bounds     BoundBox
	Scale      Vec3
	data       []float32
}

func newBlock(index, side int, bounds BoundBox, scale Vec3, data []float32) *Block {
	return &Block{
		Index:      index,
		BlockSide:  side,
		ValueRange: ValueRangeFromSamples(float32sToFloat64s(data)),
		Bounds:     bounds,
		Scale:      scale,
		data:       data,
	}
}

func float32sToFloat64s(in []float32) []float64 {
	out := make([]float64, len(in))
	for i, v := range in {
		out[i] = float64(v)
	}
	return out
}

func (b *Block) index3D(x, y, z int) int {
	return z + y*b.BlockSide + x*b.BlockSide*b.BlockSide
}

func (b *Block) half(base int) [4]float32 {
	return [4]float32{
		b.data[base],
		b.data[base+1],
		b.data[base+b.BlockSide],
		b.data[base+b.BlockSide+1],
	}
}

// SampleAt trilinearly interpolates at pos, given in block-local voxel
// coordinates (0 at the block's own origin, not the volume's).
func (b *Block) SampleAt(pos Vec3) float32 {
	x, y, z := int(pos.X), int(pos.Y), int(pos.Z)
	xT, yT, zT := frac(pos.X), frac(pos.Y), frac(pos.Z)

	offset := b.index3D(x, y, z)
	first := offset
	second := offset + b.BlockSide*b.BlockSide

	c000, c001, c010, c011 := unpack4(b.half(first))
	invZT, invYT := float32(1-zT), float32(1-yT)
	c00 := c000*invZT + c001*float32(zT)
	c01 := c010*invZT + c011*float32(zT)
	c0 := c00*invYT + c01*float32(yT)

	c100, c101, c110, c111 := unpack4(b.half(second))
	c10 := c100*invZT + c101*float32(zT)
	c11 := c110*invZT + c111*float32(zT)
	c1 := c10*invYT + c11*float32(yT)

	return c0*float32(1-xT) + c1*float32(xT)
}

// TransformRay maps a world-space ray into this block's local voxel space
// and returns the voxel-space length of its intersection with the block,
// or ok=false if the ray misses the block entirely. The entry and exit
// points are rescaled by 1/Scale per axis, so the returned ray's direction
// is a unit vector in voxel units regardless of how the block's voxels are
// shaped in world space.
func (b *Block) TransformRay(ray Ray) (local Ray, length float64, ok bool) {
	t0, t1, hit := b.Bounds.Intersect(ray)
	if !hit {
		return Ray{}, 0, false
	}
	invScale := Vec3{X: 1 / b.Scale.X, Y: 1 / b.Scale.Y, Z: 1 / b.Scale.Z}
	entry := ray.PointAt(t0).Sub(b.Bounds.Lower).Mul(invScale)
	exit := ray.PointAt(t1).Sub(b.Bounds.Lower).Mul(invScale)

	length = exit.Sub(entry).Length()
	if length == 0 {
		return Ray{Origin: entry}, 0, true
	}
	return Ray{Origin: entry, Direction: exit.Sub(entry).Scale(1 / length)}, length, true
}

// BlockedVolume decomposes a volume into overlap-padded blocks, letting
// the parallel renderer dispatch and composite one block at a time in
// front-to-back order instead of owning the whole voxel grid as a single
// unit.
type BlockedVolume struct {
	size      [3]int
	blockSide int
	blocksPer [3]int
	scale     Vec3
	dims      Vec3
	tf        TransferFunction
	blocks    []*Block
}

func buildBlockedVolume(meta VolumeMetadata) (*BlockedVolume, error) {
	var raw []byte
	var err error
	switch {
	case meta.Source.isFile():
		raw, err = readFile(meta.Source.Path)
	default:
		raw = meta.Source.Bytes
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMemoryMap, meta.Source.Path, err)
	}
	if int64(len(raw)) < meta.DataOffset {
		return nil, fmt.Errorf("%w: data shorter than data offset", ErrBuild)
	}
	samples := decode12Bit(raw[meta.DataOffset:])
	if len(samples) < meta.voxelCount() {
		return nil, fmt.Errorf("%w: data holds %d samples, want %d", ErrBuild, len(samples), meta.voxelCount())
	}

	side := meta.BlockSide
	if side <= blockOverlap {
		return nil, fmt.Errorf("%w: block side must exceed overlap of %d, got %d", ErrBuild, blockOverlap, side)
	}
	step := side - blockOverlap

	sizeAt := func(full int) int {
		n := full / step
		if full%step != 0 {
			n++
		}
		return n
	}
	blocksPer := [3]int{sizeAt(meta.Size[0]), sizeAt(meta.Size[1]), sizeAt(meta.Size[2])}

	volIndex := func(x, y, z int) int {
		return z + y*meta.Size[2] + x*meta.Size[1]*meta.Size[2]
	}
	sampleAt := func(x, y, z int) float32 {
		if x < 0 || y < 0 || z < 0 || x >= meta.Size[0] || y >= meta.Size[1] || z >= meta.Size[2] {
			return 0
		}
		return samples[volIndex(x, y, z)]
	}

	var blocks []*Block
	idx := 0
	for bx := 0; bx < blocksPer[0]; bx++ {
		for by := 0; by < blocksPer[1]; by++ {
			for bz := 0; bz < blocksPer[2]; bz++ {
				baseX, baseY, baseZ := bx*step, by*step, bz*step
				data := make([]float32, side*side*side)
				ptr := 0
				for ox := 0; ox < side; ox++ {
					for oy := 0; oy < side; oy++ {
						for oz := 0; oz < side; oz++ {
							data[ptr] = sampleAt(baseX+ox, baseY+oy, baseZ+oz)
							ptr++
						}
					}
				}
				lower := Vec3{
					X: float64(baseX) * meta.Scale.X,
					Y: float64(baseY) * meta.Scale.Y,
					Z: float64(baseZ) * meta.Scale.Z,
				}
				upper := Vec3{
					X: lower.X + float64(side-1)*meta.Scale.X,
					Y: lower.Y + float64(side-1)*meta.Scale.Y,
					Z: lower.Z + float64(side-1)*meta.Scale.Z,
				}
				blocks = append(blocks, newBlock(idx, side, BoundBox{Lower: lower, Upper: upper}, meta.Scale, data))
				idx++
			}
		}
	}

	return &BlockedVolume{
		size:      meta.Size,
		blockSide: side,
		blocksPer: blocksPer,
		scale:     meta.Scale,
		dims:      meta.worldDims(),
		tf:        meta.TF,
		blocks:    blocks,
	}, nil
}

func (v *BlockedVolume) Size() [3]int    { return v.size }
func (v *BlockedVolume) Scale() Vec3     { return v.scale }
func (v *BlockedVolume) TF() TransferFunction { return v.tf }
func (v *BlockedVolume) Blocks() []*Block { return v.blocks }

func (v *BlockedVolume) BoundBox() BoundBox {
	return BoundBox{Lower: Vec3{}, Upper: v.dims}
}

func (v *BlockedVolume) IsIn(pos Vec3) bool {
	return v.dims.X > pos.X && v.dims.Y > pos.Y && v.dims.Z > pos.Z &&
		pos.X > 0 && pos.Y > 0 && pos.Z > 0
}

func (v *BlockedVolume) blockAndOffset(x, y, z int) (int, int) {
	step := v.blockSide - blockOverlap
	bx, by, bz := x/step, y/step, z/step
	ox, oy, oz := x%step, y%step, z%step
	blockIdx := bz + by*v.blocksPer[2] + bx*v.blocksPer[1]*v.blocksPer[2]
	offset := oz + oy*v.blockSide + ox*v.blockSide*v.blockSide
	return blockIdx, offset
}

func (v *BlockedVolume) GetData(x, y, z int) float32 {
	if x < 0 || y < 0 || z < 0 || x >= v.size[0] || y >= v.size[1] || z >= v.size[2] {
		return 0
	}
	blockIdx, offset := v.blockAndOffset(x, y, z)
	if blockIdx < 0 || blockIdx >= len(v.blocks) {
		return 0
	}
	return v.blocks[blockIdx].data[offset]
}

// SampleAt trilinearly interpolates pos (volume voxel coordinates) by
// locating the owning block and delegating to its local sampler. Because
// every block overlaps its neighbors by one voxel, a sample anywhere
// inside the volume — including exactly on a block seam — is fully
// resolvable from a single block.
func (v *BlockedVolume) SampleAt(pos Vec3) float32 {
	step := v.blockSide - blockOverlap
	x, y, z := int(pos.X), int(pos.Y), int(pos.Z)
	blockIdx, _ := v.blockAndOffset(x, y, z)
	if blockIdx < 0 || blockIdx >= len(v.blocks) {
		return 0
	}
	block := v.blocks[blockIdx]
	bx, by, bz := blockIdx/(v.blocksPer[1]*v.blocksPer[2]), (blockIdx/v.blocksPer[2])%v.blocksPer[1], blockIdx%v.blocksPer[2]
	local := Vec3{
		X: pos.X - float64(bx*step),
		Y: pos.Y - float64(by*step),
		Z: pos.Z - float64(bz*step),
	}
	return block.SampleAt(local)
}
