package volray

import "math"

// gradDelta is the voxel offset used to estimate a one-sided-difference
// gradient from three forward/backward samples, matching the default
// gradient estimate the reference integrator uses when a volume variant
// doesn't supply a cheaper specialization.
const gradDelta = 0.05

// sampleGradient returns the sample at pos together with three neighbor
// samples, each offset by gradDelta along one axis (backward instead of
// forward on an axis where the forward probe would land past sizeX, sizeY
// or sizeZ). shade turns their differences from the sample into a gradient.
func sampleGradient(sampleAt func(Vec3) float32, pos Vec3, sizeX, sizeY, sizeZ float64) (float32, Vec3) {
	sample := sampleAt(pos)

	dir := Vec3{X: gradDelta, Y: gradDelta, Z: gradDelta}
	if pos.X+dir.X > sizeX {
		dir.X = -dir.X
	}
	if pos.Y+dir.Y > sizeY {
		dir.Y = -dir.Y
	}
	if pos.Z+dir.Z > sizeZ {
		dir.Z = -dir.Z
	}

	sx := sampleAt(Vec3{X: pos.X + dir.X, Y: pos.Y, Z: pos.Z})
	sy := sampleAt(Vec3{X: pos.X, Y: pos.Y + dir.Y, Z: pos.Z})
	sz := sampleAt(Vec3{X: pos.X, Y: pos.Y, Z: pos.Z + dir.Z})

	return sample, Vec3{X: float64(sx), Y: float64(sy), Z: float64(sz)}
}

// shade turns a raw sample and its gradient estimate into a shaded color:
// the transfer function's color scaled by max(0, normal·light), a single
// diffuse term against one directional light.
func shade(tf TransferFunction, sample float32, gradSamples Vec3, light Vec3) RGBA {
	color := tf(sample)
	if color.A == 0 {
		return color
	}
	grad := Vec3{
		X: float64(sample) - gradSamples.X,
		Y: float64(sample) - gradSamples.Y,
		Z: float64(sample) - gradSamples.Z,
	}.Normalize()

	nDotL := math.Max(grad.Dot(light), 0)
	return RGBA{R: color.R * nDotL, G: color.G * nDotL, B: color.B * nDotL, A: color.A}
}

// Integrate marches ray through vol and returns the composited color.
// opts controls step size, early ray termination, and empty-space
// skipping via ei (which may be nil). When shadeOpts is non-nil, samples
// are lit with single-directional-light gradient shading instead of used
// raw.
func Integrate(ray Ray, vol Volume, opts RenderOptions, ei *EmptyIndex, shadeOpts *ShadeOptions) Accum {
	var accum Accum

	size := vol.Size()
	sizeX, sizeY, sizeZ := float64(size[0]), float64(size[1]), float64(size[2])

	localRay := ray.TransformToVolumeSpace(vol.BoundBox(), vol.Scale())
	voxelBox := BoundBox{Upper: Vec3{X: sizeX - 1, Y: sizeY - 1, Z: sizeZ - 1}}
	t0, t1, ok := voxelBox.Intersect(localRay)
	if !ok {
		return accum
	}

	entry := localRay.PointAt(t0)
	exit := localRay.PointAt(t1)

	step := opts.stepSize()
	steps := int(exit.Sub(entry).Length() / step)
	dir := exit.Sub(entry).Normalize().Scale(step)
	pos := entry

	tf := vol.TF()

	var light Vec3
	if shadeOpts != nil {
		light = shadeOpts.LightDir.Normalize()
	}

	for i := 0; i < steps; i++ {
		if opts.RayTermination && accum.Saturated() {
			break
		}
		if opts.EmptyIndexSkip && ei != nil && ei.Sample(pos) == CellEmpty {
			pos = pos.Add(dir)
			continue
		}

		var color RGBA
		if shadeOpts != nil {
			sample, grad := sampleGradient(vol.SampleAt, pos, sizeX, sizeY, sizeZ)
			color = shade(tf, sample, grad, light)
		} else {
			color = tf(vol.SampleAt(pos))
		}

		pos = pos.Add(dir)
		accum.Over(color)
	}

	return accum
}

// IntegrateBlock marches ray through a single block, contributing to an
// existing accumulator in place. It is the parallel renderer's per-block
// counterpart to Integrate: the caller supplies one accumulator per pixel
// and calls IntegrateBlock once per block that intersects it, in
// front-to-back order, so the accumulator's alpha threshold carries
// across blocks exactly as it would across voxels in a single-volume
// march.
func IntegrateBlock(ray Ray, block *Block, tf TransferFunction, opts RenderOptions, shadeOpts *ShadeOptions, accum *Accum) {
	localRay, length, ok := block.TransformRay(ray)
	if !ok {
		return
	}

	step := opts.stepSize()
	steps := int(length / step)
	dir := localRay.Direction.Scale(step)
	pos := localRay.Origin

	side := float64(block.BlockSide)

	var light Vec3
	if shadeOpts != nil {
		light = shadeOpts.LightDir.Normalize()
	}

	for i := 0; i < steps; i++ {
		if opts.RayTermination && accum.Saturated() {
			return
		}

		var color RGBA
		if shadeOpts != nil {
			sample, grad := sampleGradient(block.SampleAt, pos, side, side, side)
			color = shade(tf, sample, grad, light)
		} else {
			color = tf(block.SampleAt(pos))
		}

		pos = pos.Add(dir)
		accum.Over(color)
	}
}
