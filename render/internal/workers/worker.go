package workers

import "github.com/gophervolume/raycast/render/internal/tilecanvas"

// RenderFunc integrates one block into one tile's accumulators. It is
// supplied by the caller (the facade) so this package stays free of any
// dependency on the ray integrator itself — a RenderWorker only knows how
// to pull tasks off a channel and hand them to a callback.
type RenderFunc func(tileID, blockID int, sub *tilecanvas.SubCanvas)

// RenderWorker repeatedly renders blocks into tiles. Idle until told to
// go live, it then pulls RenderTasks from a channel shared by every
// renderer until either a new command arrives or the task channel
// closes.
type RenderWorker struct {
	ID        int
	TaskCh    <-chan RenderTask
	ResultCh  chan<- SubRenderResult
	CommandCh <-chan WorkerCommand
	Render    RenderFunc
}

// Run is the worker's full lifecycle: idle/live/finish, matching the
// state machine every renderer and compositor goroutine shares.
func (w *RenderWorker) Run() {
	for cmd := range w.CommandCh {
		switch cmd {
		case Finish:
			return
		case GoIdle:
			continue
		case GoLive:
			if w.liveLoop() == Finish {
				return
			}
		}
	}
}

func (w *RenderWorker) liveLoop() WorkerCommand {
	for {
		select {
		case task, ok := <-w.TaskCh:
			if !ok {
				return Finish
			}
			w.Render(task.TileID, task.BlockID, task.Sub)
			w.ResultCh <- SubRenderResult{TileID: task.TileID}
		case cmd := <-w.CommandCh:
			return cmd
		}
	}
}

// CompWorker dispatches each tile's queued blocks to renderers, one block
// in flight per tile, and composites a tile into the shared frame buffer
// once its queue runs dry. CompositorCount compositors interleave
// ownership of tiles by index (tileID % CompositorCount == ID) so no two
// compositors ever touch the same tile.
type CompWorker struct {
	ID              int
	CompositorCount int
	Canvas          *tilecanvas.TileCanvas
	CopyTile        func(tile *tilecanvas.SubCanvas) (frameDone bool)
	TaskCh          chan<- RenderTask
	ResultCh        <-chan SubRenderResult
	CommandCh       <-chan WorkerCommand
	MasterCh        chan<- MasterEvent
}

func (c *CompWorker) Run() {
	for cmd := range c.CommandCh {
		switch cmd {
		case Finish:
			return
		case GoIdle:
			continue
		case GoLive:
			if c.liveLoop() == Finish {
				return
			}
		}
	}
}

func (c *CompWorker) liveLoop() WorkerCommand {
	for tileID := c.ID; tileID < len(c.Canvas.Tiles); tileID += c.CompositorCount {
		c.dispatchOrFinish(tileID)
	}

	for {
		select {
		case result, ok := <-c.ResultCh:
			if !ok {
				return Finish
			}
			c.dispatchOrFinish(result.TileID)
		case cmd := <-c.CommandCh:
			return cmd
		}
	}
}

func (c *CompWorker) dispatchOrFinish(tileID int) {
	tile := c.Canvas.Tiles[tileID]
	blockID, ok := tile.PopBlock()
	if ok {
		c.TaskCh <- RenderTask{BlockID: blockID, TileID: tileID, Sub: tile}
		return
	}
	if c.CopyTile(tile) {
		c.MasterCh <- RenderDone
	}
}
