package volray

import "math"

// RGBA is a sample color produced by a TransferFunction. Alpha is
// interpreted as density per unit ray step, not a conventional opacity
// fraction; RGB channels may exceed 1.0 (pre-modulated intensities) and are
// clamped only on the final 8-bit conversion.
type RGBA struct {
	R, G, B, A float64
}

// Accum is a front-to-back compositing accumulator. Unlike RGBA it always
// holds premultiplied, monotonically-increasing alpha in [0, 1].
type Accum struct {
	RGB   Vec3
	Alpha float64
}

// Over blends one transfer-function sample into the accumulator using the
// standard front-to-back emission-absorption rule:
//
//	rgb  += (1 - accum.alpha) * sample.alpha * sample.rgb
//	alpha += (1 - accum.alpha) * sample.alpha
//
// Over is a no-op when sample.A is zero, and never decreases Alpha.
func (a *Accum) Over(sample RGBA) {
	if sample.A <= 0 {
		return
	}
	weight := (1 - a.Alpha) * sample.A
	a.RGB.X += weight * sample.R
	a.RGB.Y += weight * sample.G
	a.RGB.Z += weight * sample.B
	a.Alpha += weight
}

// Saturated reports whether the accumulator has crossed the early ray
// termination threshold used throughout the integrator.
func (a Accum) Saturated() bool {
	return a.Alpha > 0.99
}

// Bytes converts the accumulator to premultiplied 8-bit RGB, clamped to
// [0, 255], against an implicit black background.
func (a Accum) Bytes() [3]byte {
	return [3]byte{
		clampByte(a.RGB.X),
		clampByte(a.RGB.Y),
		clampByte(a.RGB.Z),
	}
}

func clampByte(v float64) byte {
	b := math.Round(v * 255)
	if b < 0 {
		return 0
	}
	if b > 255 {
		return 255
	}
	return byte(b)
}

// Common colors, useful for tests and caller-supplied transfer functions.
var (
	Transparent = RGBA{0, 0, 0, 0}
	Opaque      = func(r, g, b float64) RGBA { return RGBA{r, g, b, 1} }
)
