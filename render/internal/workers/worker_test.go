package workers

import (
	"testing"
	"time"

	volray "github.com/gophervolume/raycast"
	"github.com/gophervolume/raycast/render/internal/tilecanvas"
)

// TestRenderWorkerDispatchesResult checks a single RenderWorker's live loop:
// pulling one task, invoking Render, and reporting completion.
func TestRenderWorkerDispatchesResult(t *testing.T) {
	taskCh := make(chan RenderTask, 1)
	resultCh := make(chan SubRenderResult, 1)
	commandCh := make(chan WorkerCommand, 2)

	rendered := make(chan struct{}, 1)
	w := &RenderWorker{
		ID:        0,
		TaskCh:    taskCh,
		ResultCh:  resultCh,
		CommandCh: commandCh,
		Render: func(tileID, blockID int, sub *tilecanvas.SubCanvas) {
			rendered <- struct{}{}
		},
	}

	done := make(chan struct{})
	go func() {
		w.Run()
		close(done)
	}()

	commandCh <- GoLive
	sub := tilecanvas.NewSubCanvas(volray.NewPixelBox(0, 4, 0, 4))
	taskCh <- RenderTask{BlockID: 1, TileID: 2, Sub: sub}

	select {
	case <-rendered:
	case <-time.After(time.Second):
		t.Fatal("Render was never invoked")
	}

	select {
	case res := <-resultCh:
		if res.TileID != 2 {
			t.Errorf("got TileID %d, want 2", res.TileID)
		}
	case <-time.After(time.Second):
		t.Fatal("expected a SubRenderResult after rendering a task")
	}

	commandCh <- Finish
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("worker did not exit after Finish")
	}
}

// TestCompWorkerDispatchesThenComposites drives a single-tile, single-block
// frame through a CompWorker end to end: it should dispatch the block to
// the task channel, then composite and report RenderDone once the result
// comes back.
func TestCompWorkerDispatchesThenComposites(t *testing.T) {
	canvas := tilecanvas.NewTileCanvas(8, 8, 32)
	distances := []tilecanvas.BlockDistance{{BlockID: 0, Distance: 1}}
	canvas.BuildQueues(distances, func(int, volray.PixelBox) bool { return true })

	taskCh := make(chan RenderTask, 1)
	resultCh := make(chan SubRenderResult, 1)
	commandCh := make(chan WorkerCommand, 2)
	masterCh := make(chan MasterEvent, 1)

	copied := make(chan struct{}, 1)
	w := &CompWorker{
		ID:              0,
		CompositorCount: 1,
		Canvas:          canvas,
		CopyTile: func(tile *tilecanvas.SubCanvas) bool {
			copied <- struct{}{}
			return true
		},
		TaskCh:    taskCh,
		ResultCh:  resultCh,
		CommandCh: commandCh,
		MasterCh:  masterCh,
	}

	done := make(chan struct{})
	go func() {
		w.Run()
		close(done)
	}()

	commandCh <- GoLive

	select {
	case task := <-taskCh:
		if task.BlockID != 0 || task.TileID != 0 {
			t.Fatalf("got task %+v, want BlockID=0 TileID=0", task)
		}
	case <-time.After(time.Second):
		t.Fatal("expected the compositor to dispatch the only queued block")
	}

	resultCh <- SubRenderResult{TileID: 0}

	select {
	case <-copied:
	case <-time.After(time.Second):
		t.Fatal("expected CopyTile to run once the tile's queue drained")
	}

	select {
	case <-masterCh:
	case <-time.After(time.Second):
		t.Fatal("expected a RenderDone event once the frame finished compositing")
	}

	commandCh <- Finish
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("worker did not exit after Finish")
	}
}
