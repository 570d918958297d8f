package volray

import "errors"

// Sentinel errors returned by volume construction and rendering. Errors are
// returned directly, or wrapped with fmt.Errorf("volray: ...: %w", err) when
// additional context (a failing field, a file path) is useful to the caller.
var (
	// ErrBuild is returned when VolumeMetadata is missing or inconsistent:
	// no data source, a non-positive size or scale, no transfer function,
	// data shorter than the declared size, or a block side no larger than
	// the one-voxel block overlap. Surfaced
	// synchronously from Build; the facade never starts a renderer on a
	// build failure.
	ErrBuild = errors.New("volray: invalid volume metadata")

	// ErrMemoryMap is returned when a streamed volume's data source cannot
	// be memory-mapped (missing file, unreadable, or a RAM-only data
	// source was requested to stream). Surfaced synchronously from Build.
	ErrMemoryMap = errors.New("volray: cannot memory-map volume data")

	// ErrWorkerPanic is returned by the facade after any renderer or
	// compositor goroutine terminates abnormally. Once returned, the
	// facade is no longer usable: callers must construct a new one.
	ErrWorkerPanic = errors.New("volray: render worker failed")

	// ErrNoVolume is returned when a render is requested before a volume
	// has been attached to the renderer or facade.
	ErrNoVolume = errors.New("volray: no volume attached")

	// ErrClosed is returned by Facade.RenderFrame once Shutdown has been
	// called.
	ErrClosed = errors.New("volray: facade is shut down")
)
