package render

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/gophervolume/raycast"
	"github.com/gophervolume/raycast/render/internal/tilecanvas"
	"github.com/gophervolume/raycast/render/internal/workers"
)

// defaultTileSide is the pixel span of one compositing tile, matching the
// granularity the reference parallel renderer tiles its canvas at.
const defaultTileSide = 32

// visibleRangeResolution is how finely a volume's transfer function is
// sampled to derive its visible sample ranges, used to skip blocks whose
// whole value range the transfer function renders fully transparent.
const visibleRangeResolution = 256

// BlockSource is satisfied by any volray.Volume that additionally exposes
// its front-to-back block decomposition — currently only
// *volray.BlockedVolume.
type BlockSource interface {
	volray.Volume
	Blocks() []*volray.Block
}

// FacadeConfig tunes the worker pool behind a Facade. Zero values fall
// back to the defaults used throughout this package's tests: five
// renderers, one compositor, 32-pixel tiles.
type FacadeConfig struct {
	RendererCount   int
	CompositorCount int
	TileSide        int
}

func (c FacadeConfig) withDefaults() FacadeConfig {
	if c.RendererCount <= 0 {
		c.RendererCount = 5
	}
	if c.CompositorCount <= 0 {
		c.CompositorCount = 1
	}
	if c.TileSide <= 0 {
		c.TileSide = defaultTileSide
	}
	return c
}

// Facade owns a pool of renderer and compositor goroutines rendering one
// BlockSource. Callers attach a camera, request frames, and move or
// rotate the camera between frames; Facade handles synchronizing camera
// reads against in-flight rendering and detecting worker failures.
type Facade struct {
	volume  BlockSource
	options volray.RenderOptions
	shade   *volray.ShadeOptions
	config  FacadeConfig

	// visibleRanges holds the transfer function's non-transparent sample
	// ranges, computed once at construction, so RenderFrame can skip
	// dispatching blocks whose samples the transfer function always
	// renders fully transparent.
	visibleRanges volray.VisibleRanges

	canvas   *tilecanvas.TileCanvas
	frameBuf []byte
	frameMu  sync.Mutex

	cameraMu sync.RWMutex
	camera   *volray.Camera

	taskCh    chan workers.RenderTask
	resultCh  chan workers.SubRenderResult
	commandCh []chan workers.WorkerCommand
	masterCh  chan workers.MasterEvent

	group   *errgroup.Group
	cancel  context.CancelFunc
	started bool
	closed  bool
}

// NewFacade constructs a Facade over vol. Call Start before RenderFrame.
func NewFacade(vol BlockSource, opts volray.RenderOptions, shade *volray.ShadeOptions, config FacadeConfig) (*Facade, error) {
	if vol == nil {
		return nil, volray.ErrNoVolume
	}
	if opts.Width <= 0 || opts.Height <= 0 {
		return nil, fmt.Errorf("render: width and height must be positive")
	}

	config = config.withDefaults()

	return &Facade{
		volume:        vol,
		options:       opts,
		shade:         shade,
		config:        config,
		visibleRanges: volray.VisibleRangesFromTF(vol.TF(), blocksValueRange(vol.Blocks()), visibleRangeResolution),
		canvas:        tilecanvas.NewTileCanvas(opts.Width, opts.Height, config.TileSide),
		frameBuf:      make([]byte, opts.Width*opts.Height*3),
	}, nil
}

// blocksValueRange returns the smallest ValueRange spanning every block's
// own ValueRange, used as the domain to sample a transfer function over
// when deriving which sample ranges it renders visible.
func blocksValueRange(blocks []*volray.Block) volray.ValueRange {
	r := volray.EmptyValueRange()
	for _, b := range blocks {
		r.Extend(b.ValueRange.Low)
		r.Extend(b.ValueRange.High)
	}
	return r
}

// Start attaches camera and spawns the renderer and compositor
// goroutines. It must be called exactly once, before the first
// RenderFrame.
func (f *Facade) Start(camera *volray.Camera) error {
	if f.started {
		return fmt.Errorf("render: facade already started")
	}
	f.started = true
	f.camera = camera

	workerCount := f.config.RendererCount + f.config.CompositorCount

	ctx, cancel := context.WithCancel(context.Background())
	f.cancel = cancel
	group, _ := errgroup.WithContext(ctx)
	f.group = group

	f.taskCh = make(chan workers.RenderTask, 10000)
	f.resultCh = make(chan workers.SubRenderResult, 10000)
	f.masterCh = make(chan workers.MasterEvent, 1)
	f.commandCh = make([]chan workers.WorkerCommand, workerCount)
	for i := range f.commandCh {
		f.commandCh[i] = make(chan workers.WorkerCommand, 1)
	}

	blocks := f.volume.Blocks()
	tf := f.volume.TF()

	for id := 0; id < f.config.RendererCount; id++ {
		id := id
		renderFn := func(tileID, blockID int, sub *tilecanvas.SubCanvas) {
			f.renderBlockIntoTile(blocks, tf, blockID, sub)
		}
		w := &workers.RenderWorker{
			ID:        id,
			TaskCh:    f.taskCh,
			ResultCh:  f.resultCh,
			CommandCh: f.commandCh[id],
			Render:    renderFn,
		}
		group.Go(func() (err error) {
			defer recoverWorker(&err)
			w.Run()
			return nil
		})
	}

	for i := 0; i < f.config.CompositorCount; i++ {
		id := i
		w := &workers.CompWorker{
			ID:              id,
			CompositorCount: f.config.CompositorCount,
			Canvas:          f.canvas,
			CopyTile:        f.copyTileToFrame,
			TaskCh:          f.taskCh,
			ResultCh:        f.resultCh,
			CommandCh:       f.commandCh[f.config.RendererCount+id],
			MasterCh:        f.masterCh,
		}
		group.Go(func() (err error) {
			defer recoverWorker(&err)
			w.Run()
			return nil
		})
	}

	return nil
}

// recoverWorker turns a panicking worker goroutine into an error instead
// of crashing the process, so Shutdown and RenderFrame's caller learn
// about it through ErrWorkerPanic rather than losing the whole program.
func recoverWorker(err *error) {
	if r := recover(); r != nil {
		volray.Logger().Warn("render worker panicked", "panic", r)
		*err = fmt.Errorf("%w: %v", volray.ErrWorkerPanic, r)
	}
}

// renderBlockIntoTile integrates every not-yet-saturated pixel in sub's
// tile through one block, in the block's own local voxel space.
func (f *Facade) renderBlockIntoTile(blocks []*volray.Block, tf volray.TransferFunction, blockID int, sub *tilecanvas.SubCanvas) {
	if blockID < 0 || blockID >= len(blocks) {
		return
	}
	block := blocks[blockID]

	w, h := f.options.Width, f.options.Height
	stepX, stepY := 1.0/float64(w), 1.0/float64(h)

	f.cameraMu.RLock()
	camera := f.camera
	f.cameraMu.RUnlock()

	ptr := 0
	for y := sub.Pixels.Y0; y < sub.Pixels.Y1; y++ {
		vNorm := float64(y) * stepY
		for x := sub.Pixels.X0; x < sub.Pixels.X1; x++ {
			idx := ptr
			ptr++

			if f.options.RayTermination && sub.Alphas[idx] > 0.99 {
				continue
			}

			uNorm := float64(x) * stepX
			ray := camera.RayForPixel(uNorm, vNorm)

			accum := volray.Accum{RGB: sub.Colors[idx], Alpha: sub.Alphas[idx]}
			volray.IntegrateBlock(ray, block, tf, f.options, f.shade, &accum)
			sub.Colors[idx] = accum.RGB
			sub.Alphas[idx] = accum.Alpha
		}
	}
}

func (f *Facade) copyTileToFrame(tile *tilecanvas.SubCanvas) bool {
	f.frameMu.Lock()
	defer f.frameMu.Unlock()
	return f.canvas.FinishTile(f.frameBuf, tile)
}

// RenderFrame builds this frame's tile queues against the current camera,
// tells every worker to go live, and blocks until every tile has
// composited — returning a copy of the frame buffer as tightly-packed RGB
// bytes.
func (f *Facade) RenderFrame() ([]byte, error) {
	if !f.started {
		return nil, fmt.Errorf("render: facade not started")
	}
	if f.closed {
		return nil, volray.ErrClosed
	}

	f.cameraMu.RLock()
	camera := f.camera
	blocks := f.volume.Blocks()

	distances := make([]tilecanvas.BlockDistance, len(blocks))
	for i, b := range blocks {
		distances[i] = tilecanvas.BlockDistance{BlockID: i, Distance: camera.BoxDistance(b.Bounds)}
	}

	crosses := func(blockID int, tile volray.PixelBox) bool {
		block := blocks[blockID]
		if !f.visibleRanges.Intersects(block.ValueRange) {
			return false
		}
		proj := camera.ProjectBox(block.Bounds)
		pixels := proj.PixelRange(f.options.Width, f.options.Height)
		return pixelBoxesOverlap(pixels, tile)
	}
	f.canvas.BuildQueues(distances, crosses)
	f.cameraMu.RUnlock()

	for _, ch := range f.commandCh {
		ch <- workers.GoLive
	}

	<-f.masterCh

	for _, ch := range f.commandCh {
		ch <- workers.GoIdle
	}

	out := make([]byte, len(f.frameBuf))
	f.frameMu.Lock()
	copy(out, f.frameBuf)
	f.frameMu.Unlock()

	return out, nil
}

// SetCamera swaps the camera used by subsequent frames. Safe to call
// between calls to RenderFrame; never call it while RenderFrame is
// in-flight from another goroutine.
func (f *Facade) SetCamera(camera *volray.Camera) {
	f.cameraMu.Lock()
	f.camera = camera
	f.cameraMu.Unlock()
}

// Shutdown tells every worker to finish and waits for them to exit. After
// Shutdown returns, the Facade must not be reused.
func (f *Facade) Shutdown() error {
	if f.closed {
		return nil
	}
	f.closed = true

	for _, ch := range f.commandCh {
		ch <- workers.Finish
	}
	err := f.group.Wait()
	f.cancel()
	if err != nil {
		return fmt.Errorf("%w: %v", volray.ErrWorkerPanic, err)
	}
	return nil
}

func pixelBoxesOverlap(a, b volray.PixelBox) bool {
	outside := a.X1 <= b.X0 || a.X0 >= b.X1 || a.Y1 <= b.Y0 || a.Y0 >= b.Y1
	return !outside
}
