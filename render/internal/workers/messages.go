// Package workers implements the master/renderer/compositor goroutine
// pipeline that drives parallel rendering: renderer goroutines integrate
// rays through blocks, compositor goroutines composite finished tiles into
// the shared frame buffer, and channels carry work and control between
// them instead of shared mutable state.
package workers

import "github.com/gophervolume/raycast/render/internal/tilecanvas"

// RenderTask assigns one block to one tile: render it and accumulate the
// result into sub's pixel buffers.
type RenderTask struct {
	BlockID int
	TileID  int
	Sub     *tilecanvas.SubCanvas
}

// WorkerCommand is sent from the master goroutine to every renderer and
// compositor goroutine to change their run state.
type WorkerCommand int

const (
	// GoIdle parks a worker until the next command; it does no work.
	GoIdle WorkerCommand = iota
	// GoLive starts a worker's main render loop for the current frame.
	GoLive
	// Finish tells a worker to exit its run loop entirely.
	Finish
)

// SubRenderResult reports that a block has finished rendering into a
// tile, so the compositor can dispatch the tile's next queued block or
// finish the tile.
type SubRenderResult struct {
	TileID int
}

// MasterEvent is sent from a compositor back to the master goroutine.
type MasterEvent int

const (
	// RenderDone reports that every tile in the frame has finished
	// compositing.
	RenderDone MasterEvent = iota
)
