package volray

import "math"

// BoundBox is an axis-aligned bounding box in world space, defined by its
// lowest and highest corners. The enclosed volume is the open region
// between them.
type BoundBox struct {
	Lower Vec3
	Upper Vec3
}

func NewBoundBox(lower, upper Vec3) BoundBox {
	return BoundBox{Lower: lower, Upper: upper}
}

// BoundBoxFromPositionDims builds a BoundBox from a lower corner and a
// size, computing the upper corner as position+dimensions.
func BoundBoxFromPositionDims(position, dimensions Vec3) BoundBox {
	return BoundBox{Lower: position, Upper: position.Add(dimensions)}
}

// EmptyBoundBox returns the zero-sized box at the origin, used where a
// BoundBox value is required but irrelevant.
func EmptyBoundBox() BoundBox {
	return BoundBox{}
}

func (b BoundBox) Dims() Vec3 {
	return b.Upper.Sub(b.Lower)
}

// IsIn reports whether pos is strictly inside the box.
func (b BoundBox) IsIn(pos Vec3) bool {
	return b.Upper.X > pos.X && b.Upper.Y > pos.Y && b.Upper.Z > pos.Z &&
		pos.X > b.Lower.X && pos.Y > b.Lower.Y && pos.Z > b.Lower.Z
}

// Intersect tests whether ray crosses the box, using the slab method of
// Williams et al., "An Efficient and Robust Ray-Box Intersection
// Algorithm" (2004). When it returns ok, t0 and t1 are the ray parameters
// of the entry and exit points; pass either to Ray.PointAt.
//
// A small epsilon is added to the entry parameter and subtracted from the
// exit parameter, shrinking the interval inward, so a ray that only grazes
// an edge or corner of the box is reported as a miss.
func (b BoundBox) Intersect(ray Ray) (t0, t1 float64, ok bool) {
	tLower := Vec3{
		X: (b.Lower.X - ray.Origin.X) / ray.Direction.X,
		Y: (b.Lower.Y - ray.Origin.Y) / ray.Direction.Y,
		Z: (b.Lower.Z - ray.Origin.Z) / ray.Direction.Z,
	}
	tUpper := Vec3{
		X: (b.Upper.X - ray.Origin.X) / ray.Direction.X,
		Y: (b.Upper.Y - ray.Origin.Y) / ray.Direction.Y,
		Z: (b.Upper.Z - ray.Origin.Z) / ray.Direction.Z,
	}

	minMax := func(a, c float64) (float64, float64) {
		if a < c {
			return a, c
		}
		return c, a
	}

	xMin, xMax := minMax(tLower.X, tUpper.X)
	yMin, yMax := minMax(tLower.Y, tUpper.Y)
	zMin, zMax := minMax(tLower.Z, tUpper.Z)

	tmin := math.Max(math.Max(xMin, yMin), zMin) + 0.0001
	tmax := math.Min(math.Min(xMax, yMax), zMax) - 0.0001

	if tmax < 0 {
		return 0, 0, false
	}
	if tmin > tmax {
		return 0, 0, false
	}

	return tmin, tmax, true
}

// Corners returns the box's eight corners in the fixed winding order used
// throughout volray: the four corners of the z=Lower.Z face, starting at
// the lower corner and flipping x, then y, then x back; then the same four
// corners of the z=Upper.Z face.
func (b BoundBox) Corners() [8]Vec3 {
	lo, up := b.Lower, b.Upper
	return [8]Vec3{
		lo,
		{up.X, lo.Y, lo.Z},
		{up.X, up.Y, lo.Z},
		{lo.X, up.Y, lo.Z},
		{lo.X, lo.Y, up.Z},
		{up.X, lo.Y, up.Z},
		up,
		{lo.X, up.Y, up.Z},
	}
}
