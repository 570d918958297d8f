// Package render turns a volray.Volume and camera into a frame buffer,
// either on the calling goroutine (SerialRenderer) or across a pool of
// worker goroutines (Facade).
package render

import (
	"fmt"

	"github.com/gophervolume/raycast"
)

// SerialRenderer renders one frame at a time on the calling goroutine. It
// is the baseline every concurrent renderer is checked against, and the
// right choice for small volumes or single-frame snapshots where the
// overhead of spinning up a worker pool isn't worth it.
type SerialRenderer struct {
	Volume     volray.Volume
	EmptyIndex *volray.EmptyIndex
	Options    volray.RenderOptions
	Shade      *volray.ShadeOptions
}

// NewSerialRenderer constructs a renderer over vol. If opts.EmptyIndexSkip
// is set, an EmptyIndex is built immediately over a 3-voxel cell,
// matching the reference renderer's default index granularity.
func NewSerialRenderer(vol volray.Volume, opts volray.RenderOptions) *SerialRenderer {
	r := &SerialRenderer{Volume: vol, Options: opts}
	if opts.EmptyIndexSkip {
		r.EmptyIndex = volray.BuildEmptyIndex(vol, 3)
	}
	return r
}

// Render writes a Width*Height*3 RGB frame into dst, walking rows
// top-to-bottom and columns left-to-right. dst must be at least
// Width*Height*3 bytes.
func (r *SerialRenderer) Render(camera *volray.Camera, dst []byte) error {
	w, h := r.Options.Width, r.Options.Height
	need := w * h * 3
	if len(dst) < need {
		return fmt.Errorf("render: buffer too small: have %d bytes, need %d", len(dst), need)
	}

	stepX := 1.0 / float64(w)
	stepY := 1.0 / float64(h)

	for y := 0; y < h; y++ {
		vNorm := float64(y) * stepY
		rowOffset := y * w * 3
		for x := 0; x < w; x++ {
			uNorm := float64(x) * stepX
			ray := camera.RayForPixel(uNorm, vNorm)

			accum := volray.Integrate(ray, r.Volume, r.Options, r.EmptyIndex, r.Shade)
			bytes := accum.Bytes()

			off := rowOffset + x*3
			dst[off] = bytes[0]
			dst[off+1] = bytes[1]
			dst[off+2] = bytes[2]
		}
	}

	return nil
}
