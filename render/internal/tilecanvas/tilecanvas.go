// Package tilecanvas splits a frame into square tiles, each an
// independent front-to-back compositing target. It is the Go counterpart
// of the reference parallel renderer's SubCanvas/Canvas split: a
// TileCanvas owns one SubCanvas per tile, and the render workers and
// compositor workers touch only the tiles assigned to them, so the frame
// buffer itself is written to only in tile-sized, non-overlapping
// stripes.
package tilecanvas

import (
	"sort"
	"sync/atomic"

	"github.com/gophervolume/raycast"
)

// SubCanvas is one tile's compositing state: a pending queue of block
// indices (nearest first) plus one color/alpha accumulator per pixel in
// the tile.
type SubCanvas struct {
	Pixels volray.PixelBox

	Colors []volray.Vec3
	Alphas []float64

	queue []int
}

// NewSubCanvas allocates a SubCanvas covering pixels, with empty
// accumulators.
func NewSubCanvas(pixels volray.PixelBox) *SubCanvas {
	n := pixels.Items()
	return &SubCanvas{
		Pixels: pixels,
		Colors: make([]volray.Vec3, n),
		Alphas: make([]float64, n),
	}
}

// PopBlock removes and returns the next queued block index, or ok=false
// if the queue is empty — the tile is finished.
func (s *SubCanvas) PopBlock() (blockID int, ok bool) {
	if len(s.queue) == 0 {
		return 0, false
	}
	blockID = s.queue[0]
	s.queue = s.queue[1:]
	return blockID, true
}

// TileCanvas owns every tile in a frame, arranged in a grid of tileSide
// by tileSide pixel tiles (the last row/column may be smaller).
type TileCanvas struct {
	Frame volray.PixelBox

	TilesX, TilesY int
	tileSide       int

	Tiles []*SubCanvas

	remaining atomic.Int64
}

// NewTileCanvas segments a width x height frame into tileSide-pixel
// square tiles.
func NewTileCanvas(width, height, tileSide int) *TileCanvas {
	tilesX := ceilDiv(width, tileSide)
	tilesY := ceilDiv(height, tileSide)

	c := &TileCanvas{
		Frame:    volray.NewPixelBox(0, width, 0, height),
		TilesX:   tilesX,
		TilesY:   tilesY,
		tileSide: tileSide,
		Tiles:    make([]*SubCanvas, 0, tilesX*tilesY),
	}

	for y := 0; y < tilesY; y++ {
		lowY := y * tileSide
		highY := lowY + tileSide
		if highY > height {
			highY = height
		}
		for x := 0; x < tilesX; x++ {
			lowX := x * tileSide
			highX := lowX + tileSide
			if highX > width {
				highX = width
			}
			c.Tiles = append(c.Tiles, NewSubCanvas(volray.NewPixelBox(lowX, highX, lowY, highY)))
		}
	}
	c.remaining.Store(int64(len(c.Tiles)))

	return c
}

func ceilDiv(a, b int) int {
	return (a + b - 1) / b
}

// BlockDistance is the camera-relative distance of one block, keyed by
// its index into the volume's block slice. Distances are computed once
// per frame by the caller (which holds the camera lock) and passed in so
// BuildQueues stays free of any rendering dependency.
type BlockDistance struct {
	BlockID  int
	Distance float64
}

// BuildQueues starts a new frame: it zeroes every tile's color/alpha
// accumulators and assigns every block that crosses a tile's projected
// screen area to that tile's queue, nearest block first. distances must
// already be sorted or will be sorted here in ascending order — ties keep
// their original (block index) order, matching the deterministic
// tie-break the renderer relies on for reproducible frames.
//
// crosses reports whether blockID's projection overlaps a tile's pixel
// box; the caller supplies it because only it knows how to project a
// block's bounding box against the current camera.
func (c *TileCanvas) BuildQueues(distances []BlockDistance, crosses func(blockID int, tile volray.PixelBox) bool) {
	sorted := make([]BlockDistance, len(distances))
	copy(sorted, distances)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Distance < sorted[j].Distance
	})

	for _, tile := range c.Tiles {
		tile.queue = tile.queue[:0]
		for i := range tile.Colors {
			tile.Colors[i] = volray.Vec3{}
			tile.Alphas[i] = 0
		}
		for _, bd := range sorted {
			if crosses(bd.BlockID, tile.Pixels) {
				tile.queue = append(tile.queue, bd.BlockID)
			}
		}
	}

	c.remaining.Store(int64(len(c.Tiles)))
}

// FinishTile copies a completed tile's accumulators into dst (a
// tightly-packed RGB byte buffer for the whole frame) and reports whether
// this was the last tile in the frame.
func (c *TileCanvas) FinishTile(dst []byte, tile *SubCanvas) (frameDone bool) {
	copySubframe(dst, c.Frame, tile)
	return c.remaining.Add(-1) == 0
}

// RemainingTiles reports how many tiles have not yet finished compositing
// in the current frame.
func (c *TileCanvas) RemainingTiles() int {
	return int(c.remaining.Load())
}

func copySubframe(dst []byte, frame volray.PixelBox, tile *SubCanvas) {
	frameWidth := frame.X1 - frame.X0
	tileWidth := tile.Pixels.X1 - tile.Pixels.X0
	tileHeight := tile.Pixels.Y1 - tile.Pixels.Y0

	for row := 0; row < tileHeight; row++ {
		srcRowStart := row * tileWidth
		dstY := tile.Pixels.Y0 + row
		dstRowStart := (dstY*frameWidth + tile.Pixels.X0) * 3

		for col := 0; col < tileWidth; col++ {
			acc := volray.Accum{RGB: tile.Colors[srcRowStart+col], Alpha: tile.Alphas[srcRowStart+col]}
			bytes := acc.Bytes()
			dstOff := dstRowStart + col*3
			if dstOff+3 > len(dst) {
				continue
			}
			dst[dstOff] = bytes[0]
			dst[dstOff+1] = bytes[1]
			dst[dstOff+2] = bytes[2]
		}
	}
}
