package volray

// RenderOptions controls per-frame integrator behavior. The zero value is
// a reasonable, conservative default: full resolution stepping, no early
// termination, no empty-space skipping.
type RenderOptions struct {
	// Width and Height are the output frame dimensions, in pixels.
	Width, Height int
	// RayTermination enables early ray termination: marching stops once
	// an accumulator's alpha exceeds 0.99, since further samples could
	// not visibly change the pixel.
	RayTermination bool
	// EmptyIndexSkip enables empty-space skipping in Integrate, which also
	// needs a non-nil EmptyIndex (NewSerialRenderer builds one when this
	// is set); without one the flag is silently ignored. IntegrateBlock
	// does not consult it.
	EmptyIndexSkip bool
	// Shading is not read by Integrate or IntegrateBlock: they apply
	// single-light gradient shading whenever they are given non-nil
	// ShadeOptions, whatever this field holds.
	Shading bool
	// StepSize is the ray marching step, in volume voxel units. Defaults
	// to 1.0 (one voxel) when zero.
	StepSize float64
}

func (o RenderOptions) stepSize() float64 {
	if o.StepSize > 0 {
		return o.StepSize
	}
	return 1
}

// ShadeOptions configures the optional single-light gradient shading
// pass. LightDir need not be normalized; Integrate normalizes it once.
type ShadeOptions struct {
	LightDir Vec3
}

// DefaultShadeOptions matches the light direction used throughout the
// reference renderer's shaded preview mode.
func DefaultShadeOptions() ShadeOptions {
	return ShadeOptions{LightDir: Vec3{X: 1, Y: 1, Z: 0}.Normalize()}
}
