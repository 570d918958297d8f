package volray

// Ray is a ray cast from the camera through a pixel. Direction is expected
// to be a unit vector; callers that need the un-normalized march step
// (for example to convert a parametric t into a world-space distance)
// should scale by Direction's own length before normalizing.
type Ray struct {
	Origin    Vec3
	Direction Vec3
}

func NewRay(origin, direction Vec3) Ray {
	return Ray{Origin: origin, Direction: direction}
}

// PointAt returns the point t units along the ray from its origin.
func (r Ray) PointAt(t float64) Vec3 {
	return r.Origin.Add(r.Direction.Scale(t))
}

// TransformToVolumeSpace maps a world-space ray into a volume's local
// coordinate space: the bounding box's lower corner becomes the origin and
// each axis is rescaled by 1/scale, so that a sample at the transformed
// point's integer coordinates addresses the volume's voxel grid directly.
func (r Ray) TransformToVolumeSpace(bbox BoundBox, scale Vec3) Ray {
	origin := r.Origin
	if t0, _, ok := bbox.Intersect(r); ok {
		origin = r.PointAt(t0)
	}

	invScale := Vec3{1 / scale.X, 1 / scale.Y, 1 / scale.Z}
	localOrigin := origin.Sub(bbox.Lower).Mul(invScale)
	localDirection := r.Direction.Mul(invScale)

	return Ray{Origin: localOrigin, Direction: localDirection}
}
