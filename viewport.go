package volray

import "math"

// ViewportBox accumulates the projected extent of a world-space object in
// normalized device coordinates, typically in [0, 1] but not clamped to it
// so a partially offscreen box can still be tested against the frame.
type ViewportBox struct {
	Lower, Upper Vec2
}

// Vec2 is a 2-component float64 vector, used for screen-space quantities.
type Vec2 struct {
	X, Y float64
}

// NewViewportBox returns an inverted box (infinities facing inward) ready
// to be grown by AddPoint.
func NewViewportBox() ViewportBox {
	return ViewportBox{
		Lower: Vec2{math.Inf(1), math.Inf(1)},
		Upper: Vec2{math.Inf(-1), math.Inf(-1)},
	}
}

func (v *ViewportBox) AddPoint(x, y float64) {
	v.Upper.X = math.Max(v.Upper.X, x)
	v.Upper.Y = math.Max(v.Upper.Y, y)
	v.Lower.X = math.Min(v.Lower.X, x)
	v.Lower.Y = math.Min(v.Lower.Y, y)
}

func (v ViewportBox) Size() Vec2 {
	return Vec2{v.Upper.X - v.Lower.X, v.Upper.Y - v.Lower.Y}
}

// Crosses reports whether v and other share any screen area.
func (v ViewportBox) Crosses(other ViewportBox) bool {
	outside := v.Upper.X < other.Lower.X ||
		v.Lower.X > other.Upper.X ||
		v.Upper.Y < other.Lower.Y ||
		v.Lower.Y > other.Upper.Y
	return !outside
}

// PixelRange converts the viewport box to the pixel rectangle it covers at
// the given resolution, flooring the lower corner and rounding the upper
// corner up, so every pixel the box touches lies inside the half-open
// result. The result is clamped to the frame.
func (v ViewportBox) PixelRange(width, height int) PixelBox {
	resX, resY := float64(width), float64(height)
	lowX := int(v.Lower.X * resX)
	lowY := int(v.Lower.Y * resY)
	highX := int(math.Ceil(v.Upper.X * resX))
	highY := int(math.Ceil(v.Upper.Y * resY))

	return PixelBox{
		X0: clampInt(lowX, 0, width),
		X1: clampInt(highX, 0, width),
		Y0: clampInt(lowY, 0, height),
		Y1: clampInt(highY, 0, height),
	}
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// PixelBox is a half-open rectangle of pixel coordinates: [X0, X1) by
// [Y0, Y1).
type PixelBox struct {
	X0, X1 int
	Y0, Y1 int
}

func NewPixelBox(x0, x1, y0, y1 int) PixelBox {
	return PixelBox{X0: x0, X1: x1, Y0: y0, Y1: y1}
}

// Items returns the number of pixels covered by the box.
func (p PixelBox) Items() int {
	return (p.X1 - p.X0) * (p.Y1 - p.Y0)
}

// Empty reports whether the box covers no pixels.
func (p PixelBox) Empty() bool {
	return p.X1 <= p.X0 || p.Y1 <= p.Y0
}
