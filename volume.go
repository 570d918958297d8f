package volray

import "fmt"

// TransferFunction maps a raw sample value (as decoded from the source
// data, e.g. 0-4095 for 12-bit CT data) to an RGBA color. Alpha is density
// per unit ray step; a transfer function that always returns alpha 0 makes
// its volume invisible regardless of sample values.
type TransferFunction func(sample float32) RGBA

// VisibleRanges is the set of raw sample sub-ranges a TransferFunction
// assigns non-zero alpha. It lets the empty-space index classify a block
// or cell as empty by comparing the block's ValueRange against these
// ranges instead of re-evaluating the transfer function against every
// sample.
type VisibleRanges []ValueRange

// Intersects reports whether r overlaps any visible range. An empty
// VisibleRanges (a transfer function with no visible samples at all)
// never intersects anything.
func (v VisibleRanges) Intersects(r ValueRange) bool {
	for _, vr := range v {
		if vr.Intersects(r) {
			return true
		}
	}
	return false
}

// VisibleRangesFromTF samples tf at the given resolution across domain and
// returns the contiguous sub-ranges where alpha is non-zero. domain should
// span the actual raw sample values the volume can produce (for example a
// block's ValueRange), since a TransferFunction is evaluated against raw
// samples, not a normalized [0, 1] range.
func VisibleRangesFromTF(tf TransferFunction, domain ValueRange, samples int) VisibleRanges {
	if samples < 2 {
		samples = 2
	}
	span := domain.High - domain.Low

	var ranges VisibleRanges
	var current *ValueRange
	for i := 0; i < samples; i++ {
		v := domain.Low + span*float64(i)/float64(samples-1)
		visible := tf(float32(v)).A != 0
		if visible {
			if current == nil {
				r := SeedValueRange(v)
				current = &r
			} else {
				current.Extend(v)
			}
		} else if current != nil {
			ranges = append(ranges, *current)
			current = nil
		}
	}
	if current != nil {
		ranges = append(ranges, *current)
	}
	return ranges
}

// MemoryKind selects how a volume's sample data is held in memory.
type MemoryKind int

const (
	// MemoryRAM decodes every sample into a process-owned float32 slice.
	MemoryRAM MemoryKind = iota
	// MemoryStream memory-maps the data source and addresses it directly,
	// trading peak RSS for page-fault latency on first touch.
	MemoryStream
)

// DataSource is a tagged union over where a volume's raw sample bytes
// come from: an in-memory byte slice, or a path to a file to be
// memory-mapped. Exactly one of Bytes or Path should be set, matching
// which constructor built the DataSource.
type DataSource struct {
	Bytes []byte
	Path  string
}

// InMemoryData wraps an already-loaded byte slice as a DataSource.
func InMemoryData(b []byte) DataSource { return DataSource{Bytes: b} }

// MappedFileData references a file to memory-map lazily at Build time.
func MappedFileData(path string) DataSource { return DataSource{Path: path} }

func (d DataSource) isFile() bool { return d.Path != "" }

// VolumeMetadata fully describes a volume to Build: its extent and voxel
// shape, where its raw samples live, how to color them, and — when
// BlockSide is non-zero — how to partition it into overlap blocks for
// incremental, front-to-back rendering.
type VolumeMetadata struct {
	// Size is the voxel grid dimensions: number of samples along each axis.
	Size [3]int
	// Scale is the world-space shape of one voxel cell.
	Scale Vec3
	// DataOffset skips a leading header in the data source, in bytes.
	DataOffset int64
	// Source is where raw 12-bit-packed sample words come from.
	Source DataSource
	// Memory selects RAM-resident or memory-mapped storage.
	Memory MemoryKind
	// TF colors samples. Required.
	TF TransferFunction
	// BlockSide, when non-zero, requests a BlockedVolume with this block
	// side length (in voxels, overlap included). Zero requests a linear
	// volume: LinearVolume, or LinearStreamVolume when Memory is
	// MemoryStream.
	BlockSide int
}

func (m VolumeMetadata) validate() error {
	if m.Size[0] <= 0 || m.Size[1] <= 0 || m.Size[2] <= 0 {
		return fmt.Errorf("%w: size must be positive, got %v", ErrBuild, m.Size)
	}
	if m.Scale.X <= 0 || m.Scale.Y <= 0 || m.Scale.Z <= 0 {
		return fmt.Errorf("%w: scale must be positive, got %+v", ErrBuild, m.Scale)
	}
	if m.TF == nil {
		return fmt.Errorf("%w: transfer function is required", ErrBuild)
	}
	if m.Source.Bytes == nil && m.Source.Path == "" {
		return fmt.Errorf("%w: no data source", ErrBuild)
	}
	if m.Memory == MemoryStream && !m.Source.isFile() {
		return fmt.Errorf("%w: streamed memory requires a file data source", ErrMemoryMap)
	}
	return nil
}

func (m VolumeMetadata) voxelCount() int {
	return m.Size[0] * m.Size[1] * m.Size[2]
}

func (m VolumeMetadata) worldDims() Vec3 {
	return Vec3{
		X: float64(m.Size[0]-1) * m.Scale.X,
		Y: float64(m.Size[1]-1) * m.Scale.Y,
		Z: float64(m.Size[2]-1) * m.Scale.Z,
	}
}

// Volume is the sampling interface every ray-marching component depends
// on. Implementations differ in how samples are stored (linear, blocked,
// mapped) but agree on this shape, so the integrator and the renderers
// never need to know which one they hold.
type Volume interface {
	// Size returns the voxel grid dimensions.
	Size() [3]int
	// Scale returns the world-space shape of one voxel.
	Scale() Vec3
	// BoundBox returns the volume's world-space extent.
	BoundBox() BoundBox
	// TF returns the volume's transfer function.
	TF() TransferFunction
	// SampleAt trilinearly interpolates a sample at pos, given in volume
	// (voxel) coordinates. Positions are not range-checked per axis; only
	// fetches past either end of the sample storage read as 0.
	SampleAt(pos Vec3) float32
	// GetData returns the raw sample at voxel (x, y, z), or 0 if out of
	// range.
	GetData(x, y, z int) float32
	// IsIn reports whether pos, in world coordinates, lies strictly
	// inside BoundBox().
	IsIn(pos Vec3) bool
}

// blockedVolume is implemented by Volumes that additionally expose their
// front-to-back block decomposition, used by the parallel renderer to
// dispatch one render task per block.
type blockedVolume interface {
	Volume
	Blocks() []*Block
}

// Build constructs a Volume from metadata: a BlockedVolume when BlockSide
// is non-zero, else a LinearStreamVolume when Memory is MemoryStream, else
// a LinearVolume. A BlockedVolume always decodes its samples into RAM, also
// from a file source; there is no memory-mapped blocked variant, and Memory
// does not change how a BlockedVolume is stored.
func Build(meta VolumeMetadata) (Volume, error) {
	if err := meta.validate(); err != nil {
		return nil, err
	}

	if meta.BlockSide > 0 {
		return buildBlockedVolume(meta)
	}

	if meta.Memory == MemoryStream {
		return buildLinearStreamVolume(meta)
	}
	return buildLinearVolume(meta)
}

// decode12Bit unpacks a little-endian stream of 16-bit words, masking off
// the top 4 bits the way the reference .dat/.vol loaders do for 12-bit
// CT scanner data, and converts each word to a sample in the volume's
// native float32 range.
func decode12Bit(raw []byte) []float32 {
	n := len(raw) / 2
	out := make([]float32, n)
	for i := 0; i < n; i++ {
		word := uint16(raw[2*i]) | uint16(raw[2*i+1])<<8
		word &= 0x0FFF
		out[i] = float32(word)
	}
	return out
}
