package volray

import "math"

// Camera is a perspective camera. Rays are generated from normalized
// image-plane coordinates in [0, 1]×[0, 1], with (0, 0) the upper-left
// corner of the frame, matching the top-down framebuffer convention used
// throughout volray.
type Camera struct {
	position  Vec3
	direction Vec3
	up        Vec3
	right     Vec3

	fovY   float64 // vertical field of view, in degrees
	aspect float64 // width / height

	imgPlaneSize Vec2

	dir00 Vec3
	du    Vec3
	dv    Vec3
}

// NewCamera constructs a camera at position looking toward direction, with
// a 60-degree vertical field of view and a 1:1 aspect ratio. Use
// SetAspect to match the render target.
func NewCamera(position, direction Vec3) *Camera {
	c := &Camera{
		position: position,
		fovY:     60,
		aspect:   1,
	}
	c.direction = direction.Normalize()
	c.recalcUpRight()
	c.recalcPlaneSize()
	c.recalcDuDv()
	return c
}

func (c *Camera) recalcUpRight() {
	worldUp := Vec3{0, 1, 0}
	c.right = c.direction.Cross(worldUp)
	c.up = c.right.Cross(c.direction)
}

func (c *Camera) recalcPlaneSize() {
	height := 2 * math.Tan(0.5*c.fovY*math.Pi/180)
	c.imgPlaneSize = Vec2{X: height * c.aspect, Y: height}
}

func (c *Camera) recalcDuDv() {
	c.du = c.direction.Cross(c.up).Normalize().Scale(c.imgPlaneSize.X)
	// dv carries an explicit negative sign: it is defined in image space,
	// where increasing row index y moves down, opposite world-space up.
	c.dv = c.du.Cross(c.direction).Normalize().Scale(-c.imgPlaneSize.Y)
	c.dir00 = c.direction.Sub(c.du.Scale(0.5)).Sub(c.dv.Scale(0.5))
}

func (c *Camera) recalcPlane() {
	c.direction = c.direction.Normalize()
	c.recalcUpRight()
	c.recalcDuDv()
}

// SetFOV sets the vertical field of view, in degrees.
func (c *Camera) SetFOV(fovY float64) {
	c.fovY = fovY
	c.recalcPlaneSize()
	c.recalcDuDv()
}

// SetAspect sets the width/height ratio of the render target.
func (c *Camera) SetAspect(aspect float64) {
	c.aspect = aspect
	c.recalcPlaneSize()
	c.recalcDuDv()
}

func (c *Camera) Position() Vec3  { return c.position }
func (c *Camera) Direction() Vec3 { return c.direction }

func (c *Camera) SetPosition(pos Vec3) { c.position = pos }

func (c *Camera) SetDirection(direction Vec3) {
	c.direction = direction
	c.recalcPlane()
}

// Move translates the camera by delta in world space.
func (c *Camera) Move(delta Vec3) {
	c.position = c.position.Add(delta)
}

// MovePlane translates the camera along its own right/up axes — a
// screen-space drag, as opposed to a world-space Move.
func (c *Camera) MovePlane(delta Vec2) {
	c.position = c.position.Add(c.right.Scale(delta.X)).Add(c.up.Scale(delta.Y))
}

// Advance moves the camera along its view direction by delta units,
// forward for positive delta.
func (c *Camera) Advance(delta float64) {
	c.position = c.position.Add(c.direction.Scale(delta))
}

// Look steers the camera's direction by delta, interpreted along its own
// right/up axes, then renormalizes and recomputes the image plane.
func (c *Camera) Look(delta Vec2) {
	c.direction = c.direction.Add(c.right.Scale(delta.X)).Add(c.up.Scale(delta.Y))
	c.recalcPlane()
}

// RayForPixel returns the ray through normalized image coordinate (u, v),
// each typically in [0, 1].
func (c *Camera) RayForPixel(u, v float64) Ray {
	dir := c.dir00.Add(c.du.Scale(u)).Add(c.dv.Scale(v)).Normalize()
	return Ray{Origin: c.position, Direction: dir}
}

// ProjectBox projects a world-space bounding box's eight corners onto the
// normalized image plane, returning the viewport rectangle the box could
// possibly cover. A corner is skipped only when its projection denominator
// is zero; corners behind the camera are projected like the others.
func (c *Camera) ProjectBox(bbox BoundBox) ViewportBox {
	viewbox := NewViewportBox()

	dun := c.du.Normalize().Scale(1 / c.imgPlaneSize.X)
	dvn := c.dv.Normalize().Scale(1 / c.imgPlaneSize.Y)
	negDir := c.direction.Neg()

	for _, point := range bbox.Corners() {
		v := point.Sub(c.position)
		n := v.Normalize()
		negN := n.Neg()

		den := negN.Dot(negDir)
		if den == 0 {
			continue
		}
		t := 1 / den
		screenDir := n.Scale(t).Sub(c.dir00)
		x := screenDir.Dot(dun)
		y := screenDir.Dot(dvn)
		viewbox.AddPoint(x, y)
	}

	return viewbox
}

// BoxDistance returns the distance from the camera to a bounding box's
// center, used to order blocks for front-to-back compositing.
func (c *Camera) BoxDistance(bbox BoundBox) float64 {
	center := bbox.Lower.Add(bbox.Upper.Sub(bbox.Lower).Scale(0.5))
	return center.Sub(c.position).Length()
}
