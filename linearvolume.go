package volray

import (
	"fmt"

	"golang.org/x/exp/mmap"
)

// LinearVolume holds every sample of a small-to-medium volume as a flat,
// RAM-resident []float32, indexed z-fastest. It trades memory footprint
// for simplicity and is the baseline every other Volume variant is
// expected to agree with (see the block/linear equivalence tests).
type LinearVolume struct {
	size  [3]int
	scale Vec3
	dims  Vec3
	tf    TransferFunction
	data  []float32
}

func buildLinearVolume(meta VolumeMetadata) (*LinearVolume, error) {
	raw := meta.Source.Bytes
	if meta.Source.isFile() {
		data, err := readFile(meta.Source.Path)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrBuild, meta.Source.Path, err)
		}
		raw = data
	}
	if int64(len(raw)) < meta.DataOffset {
		return nil, fmt.Errorf("%w: data shorter than data offset", ErrBuild)
	}
	samples := decode12Bit(raw[meta.DataOffset:])
	if len(samples) < meta.voxelCount() {
		return nil, fmt.Errorf("%w: data holds %d samples, want %d", ErrBuild, len(samples), meta.voxelCount())
	}

	return &LinearVolume{
		size:  meta.Size,
		scale: meta.Scale,
		dims:  meta.worldDims(),
		tf:    meta.TF,
		data:  samples,
	}, nil
}

func (v *LinearVolume) index3D(x, y, z int) int {
	return z + y*v.size[2] + x*v.size[1]*v.size[2]
}

func (v *LinearVolume) Size() [3]int    { return v.size }
func (v *LinearVolume) Scale() Vec3     { return v.scale }
func (v *LinearVolume) TF() TransferFunction { return v.tf }

func (v *LinearVolume) BoundBox() BoundBox {
	return BoundBox{Lower: Vec3{}, Upper: v.dims}
}

func (v *LinearVolume) IsIn(pos Vec3) bool {
	return v.dims.X > pos.X && v.dims.Y > pos.Y && v.dims.Z > pos.Z &&
		pos.X > 0 && pos.Y > 0 && pos.Z > 0
}

func (v *LinearVolume) GetData(x, y, z int) float32 {
	if x < 0 || y < 0 || z < 0 || x >= v.size[0] || y >= v.size[1] || z >= v.size[2] {
		return 0
	}
	return v.data[v.index3D(x, y, z)]
}

func (v *LinearVolume) getHalf(base int) [4]float32 {
	return [4]float32{
		v.safeAt(base),
		v.safeAt(base + 1),
		v.safeAt(base + v.size[2]),
		v.safeAt(base + v.size[2] + 1),
	}
}

func (v *LinearVolume) safeAt(idx int) float32 {
	if idx < 0 || idx >= len(v.data) {
		return 0
	}
	return v.data[idx]
}

// SampleAt trilinearly interpolates at pos, in voxel coordinates. The
// eight surrounding lattice points are fetched as two 2x2 "half" planes
// (z,y varying, x fixed) and blended first across z, then y, then x.
func (v *LinearVolume) SampleAt(pos Vec3) float32 {
	xLow, yLow, zLow := int(pos.X), int(pos.Y), int(pos.Z)
	xT, yT, zT := frac(pos.X), frac(pos.Y), frac(pos.Z)

	base := v.index3D(xLow, yLow, zLow)
	firstIndex := base
	secondIndex := base + v.size[1]*v.size[2]

	c000, c001, c010, c011 := unpack4(v.getHalf(firstIndex))
	invZT, invYT := float32(1-zT), float32(1-yT)

	c00 := c000*invZT + c001*float32(zT)
	c01 := c010*invZT + c011*float32(zT)
	c0 := c00*invYT + c01*float32(yT)

	c100, c101, c110, c111 := unpack4(v.getHalf(secondIndex))
	c10 := c100*invZT + c101*float32(zT)
	c11 := c110*invZT + c111*float32(zT)
	c1 := c10*invYT + c11*float32(yT)

	return c0*float32(1-xT) + c1*float32(xT)
}

func unpack4(a [4]float32) (float32, float32, float32, float32) {
	return a[0], a[1], a[2], a[3]
}

func frac(v float64) float64 {
	return v - float64(int(v))
}

// LinearStreamVolume is the memory-mapped counterpart to LinearVolume: it
// addresses sample bytes directly from a mapped file instead of copying
// them into a process-owned slice, so opening a large scan costs a single
// mmap syscall rather than a multi-gigabyte read.
type LinearStreamVolume struct {
	size   [3]int
	scale  Vec3
	dims   Vec3
	tf     TransferFunction
	offset int64
	rat    *mmap.ReaderAt
}

func buildLinearStreamVolume(meta VolumeMetadata) (*LinearStreamVolume, error) {
	rat, err := mmap.Open(meta.Source.Path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMemoryMap, meta.Source.Path, err)
	}
	need := meta.DataOffset + int64(meta.voxelCount())*2
	if int64(rat.Len()) < need {
		rat.Close()
		return nil, fmt.Errorf("%w: mapped file too short for declared size", ErrBuild)
	}

	return &LinearStreamVolume{
		size:   meta.Size,
		scale:  meta.Scale,
		dims:   meta.worldDims(),
		tf:     meta.TF,
		offset: meta.DataOffset,
		rat:    rat,
	}, nil
}

// Close releases the underlying memory mapping. Safe to call once after
// the volume is no longer in use by any renderer.
func (v *LinearStreamVolume) Close() error { return v.rat.Close() }

func (v *LinearStreamVolume) index3D(x, y, z int) int {
	return z + y*v.size[2] + x*v.size[1]*v.size[2]
}

func (v *LinearStreamVolume) Size() [3]int    { return v.size }
func (v *LinearStreamVolume) Scale() Vec3     { return v.scale }
func (v *LinearStreamVolume) TF() TransferFunction { return v.tf }

func (v *LinearStreamVolume) BoundBox() BoundBox {
	return BoundBox{Lower: Vec3{}, Upper: v.dims}
}

func (v *LinearStreamVolume) IsIn(pos Vec3) bool {
	return v.dims.X > pos.X && v.dims.Y > pos.Y && v.dims.Z > pos.Z &&
		pos.X > 0 && pos.Y > 0 && pos.Z > 0
}

func (v *LinearStreamVolume) wordAt(idx int) float32 {
	byteOff := v.offset + int64(idx)*2
	if byteOff < 0 || byteOff+2 > int64(v.rat.Len()) {
		return 0
	}
	var buf [2]byte
	if _, err := v.rat.ReadAt(buf[:], byteOff); err != nil {
		return 0
	}
	word := uint16(buf[0]) | uint16(buf[1])<<8
	word &= 0x0FFF
	return float32(word)
}

func (v *LinearStreamVolume) GetData(x, y, z int) float32 {
	if x < 0 || y < 0 || z < 0 || x >= v.size[0] || y >= v.size[1] || z >= v.size[2] {
		return 0
	}
	return v.wordAt(v.index3D(x, y, z))
}

func (v *LinearStreamVolume) getHalf(base int) [4]float32 {
	return [4]float32{
		v.wordAt(base),
		v.wordAt(base + 1),
		v.wordAt(base + v.size[2]),
		v.wordAt(base + v.size[2] + 1),
	}
}

func (v *LinearStreamVolume) SampleAt(pos Vec3) float32 {
	xLow, yLow, zLow := int(pos.X), int(pos.Y), int(pos.Z)
	xT, yT, zT := frac(pos.X), frac(pos.Y), frac(pos.Z)

	base := v.index3D(xLow, yLow, zLow)
	firstIndex := base
	secondIndex := base + v.size[1]*v.size[2]

	c000, c001, c010, c011 := unpack4(v.getHalf(firstIndex))
	invZT, invYT := float32(1-zT), float32(1-yT)

	c00 := c000*invZT + c001*float32(zT)
	c01 := c010*invZT + c011*float32(zT)
	c0 := c00*invYT + c01*float32(yT)

	c100, c101, c110, c111 := unpack4(v.getHalf(secondIndex))
	c10 := c100*invZT + c101*float32(zT)
	c11 := c110*invZT + c111*float32(zT)
	c1 := c10*invYT + c11*float32(yT)

	return c0*float32(1-xT) + c1*float32(xT)
}

func readFile(path string) ([]byte, error) {
	rat, err := mmap.Open(path)
	if err != nil {
		return nil, err
	}
	defer rat.Close()
	buf := make([]byte, rat.Len())
	if _, err := rat.ReadAt(buf, 0); err != nil {
		return nil, err
	}
	return buf, nil
}
