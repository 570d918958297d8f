package render

import (
	"testing"

	volray "github.com/gophervolume/raycast"
)

// blockSourceVolume narrows a Volume down to this package's BlockSource,
// failing the test immediately if Build didn't hand back a blocked volume.
func blockSourceVolume(t *testing.T, vol volray.Volume) BlockSource {
	t.Helper()
	bs, ok := vol.(BlockSource)
	if !ok {
		t.Fatalf("expected a BlockSource, got %T", vol)
	}
	return bs
}

// TestFacadeMatchesSerialRenderer renders the same opaque volume through
// both the serial renderer and the parallel facade and checks they agree,
// mirroring the reference implementation's claim that splitting work
// across renderer/compositor goroutines never changes the image, only how
// long it takes to produce it.
func TestFacadeMatchesSerialRenderer(t *testing.T) {
	blocked := buildSolidVolume(t, [3]int{8, 8, 8}, 5)
	linear := buildSolidVolume(t, [3]int{8, 8, 8}, 0)

	cam := volray.NewCamera(volray.Vec3{X: 3.5, Y: 3.5, Z: -10}, volray.Vec3{X: 0, Y: 0, Z: 1})
	opts := volray.RenderOptions{Width: 8, Height: 8, RayTermination: true, StepSize: 0.5}

	serial := NewSerialRenderer(linear, opts)
	serialFrame := make([]byte, 8*8*3)
	if err := serial.Render(cam, serialFrame); err != nil {
		t.Fatalf("serial render: %v", err)
	}

	facade, err := NewFacade(blockSourceVolume(t, blocked), opts, nil, FacadeConfig{RendererCount: 3, CompositorCount: 1, TileSide: 4})
	if err != nil {
		t.Fatalf("NewFacade: %v", err)
	}
	if err := facade.Start(cam); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer facade.Shutdown()

	parallelFrame, err := facade.RenderFrame()
	if err != nil {
		t.Fatalf("RenderFrame: %v", err)
	}

	if len(parallelFrame) != len(serialFrame) {
		t.Fatalf("frame size mismatch: serial=%d parallel=%d", len(serialFrame), len(parallelFrame))
	}
	for i := range serialFrame {
		if serialFrame[i] != parallelFrame[i] {
			t.Fatalf("byte %d: serial=%d parallel=%d, expected tiled parallel rendering to match the serial baseline",
				i, serialFrame[i], parallelFrame[i])
		}
	}
}

// TestFacadeRenderFrameTwice checks a facade can be reused for consecutive
// frames against an unmoved camera and still agree with itself.
func TestFacadeRenderFrameTwice(t *testing.T) {
	vol := buildSolidVolume(t, [3]int{8, 8, 8}, 5)
	cam := volray.NewCamera(volray.Vec3{X: 3.5, Y: 3.5, Z: -10}, volray.Vec3{X: 0, Y: 0, Z: 1})
	opts := volray.RenderOptions{Width: 6, Height: 6, RayTermination: true, StepSize: 0.5}

	facade, err := NewFacade(blockSourceVolume(t, vol), opts, nil, FacadeConfig{})
	if err != nil {
		t.Fatalf("NewFacade: %v", err)
	}
	if err := facade.Start(cam); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer facade.Shutdown()

	first, err := facade.RenderFrame()
	if err != nil {
		t.Fatalf("first RenderFrame: %v", err)
	}
	second, err := facade.RenderFrame()
	if err != nil {
		t.Fatalf("second RenderFrame: %v", err)
	}

	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("byte %d: frame1=%d frame2=%d, expected consecutive frames against an unmoved camera to match",
				i, first[i], second[i])
		}
	}
}

func TestFacadeRenderFrameBeforeStartFails(t *testing.T) {
	vol := buildSolidVolume(t, [3]int{4, 4, 4}, 3)
	opts := volray.RenderOptions{Width: 4, Height: 4}

	facade, err := NewFacade(blockSourceVolume(t, vol), opts, nil, FacadeConfig{})
	if err != nil {
		t.Fatalf("NewFacade: %v", err)
	}
	if _, err := facade.RenderFrame(); err == nil {
		t.Fatal("expected RenderFrame to fail before Start is called")
	}
}
