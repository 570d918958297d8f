package volray

import (
	"math"
	"testing"
)

func encode12Bit(values []uint16) []byte {
	out := make([]byte, len(values)*2)
	for i, v := range values {
		out[2*i] = byte(v & 0xFF)
		out[2*i+1] = byte((v >> 8) & 0x0F)
	}
	return out
}

func visibleTF(sample float32) RGBA {
	return RGBA{R: float64(sample), G: float64(sample), B: float64(sample), A: 1}
}

func smallVolumeBytes(size [3]int) ([]byte, []uint16) {
	n := size[0] * size[1] * size[2]
	values := make([]uint16, n)
	for i := range values {
		values[i] = uint16(i % 100)
	}
	return encode12Bit(values), values
}

func TestBuildLinearVolume(t *testing.T) {
	size := [3]int{4, 4, 4}
	data, _ := smallVolumeBytes(size)

	vol, err := Build(VolumeMetadata{
		Size:   size,
		Scale:  Vec3{1, 1, 1},
		Source: InMemoryData(data),
		TF:     visibleTF,
	})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if _, ok := vol.(*LinearVolume); !ok {
		t.Fatalf("expected *LinearVolume, got %T", vol)
	}
}

func TestBuildRejectsMissingTF(t *testing.T) {
	size := [3]int{2, 2, 2}
	data, _ := smallVolumeBytes(size)

	_, err := Build(VolumeMetadata{
		Size:   size,
		Scale:  Vec3{1, 1, 1},
		Source: InMemoryData(data),
	})
	if err == nil {
		t.Fatal("expected error for missing transfer function")
	}
}

func TestBuildRejectsStreamWithoutFile(t *testing.T) {
	size := [3]int{2, 2, 2}
	data, _ := smallVolumeBytes(size)

	_, err := Build(VolumeMetadata{
		Size:   size,
		Scale:  Vec3{1, 1, 1},
		Source: InMemoryData(data),
		Memory: MemoryStream,
		TF:     visibleTF,
	})
	if err == nil {
		t.Fatal("expected error requesting streamed memory over an in-memory source")
	}
}

// TestLinearBlockedSampleAgreement mirrors the reference implementation's
// linear/blocked equivalence check: both volume variants must agree on
// every sample, fractional coordinates included, since a BlockedVolume is
// only a storage-layout optimization over the same logical data.
func TestLinearBlockedSampleAgreement(t *testing.T) {
	size := [3]int{4, 4, 4}
	data, _ := smallVolumeBytes(size)

	linear, err := Build(VolumeMetadata{
		Size:   size,
		Scale:  Vec3{1, 1, 1},
		Source: InMemoryData(data),
		TF:     visibleTF,
	})
	if err != nil {
		t.Fatalf("Build linear: %v", err)
	}

	blocked, err := Build(VolumeMetadata{
		Size:      size,
		Scale:     Vec3{1, 1, 1},
		Source:    InMemoryData(data),
		TF:        visibleTF,
		BlockSide: 3,
	})
	if err != nil {
		t.Fatalf("Build blocked: %v", err)
	}

	samplingCoord := Vec3{X: 0, Y: 1, Z: 2}
	for _, offset := range []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9} {
		spot := Vec3{samplingCoord.X + offset, samplingCoord.Y + offset, samplingCoord.Z + offset}
		lin := linear.SampleAt(spot)
		block := blocked.SampleAt(spot)
		if diff := math.Abs(float64(lin - block)); diff > 1e-4 {
			t.Errorf("offset %v: linear=%v blocked=%v diff=%v", offset, lin, block, diff)
		}
	}
}

func TestLinearVolumeIsIn(t *testing.T) {
	size := [3]int{4, 4, 4}
	data, _ := smallVolumeBytes(size)
	vol, err := Build(VolumeMetadata{
		Size:   size,
		Scale:  Vec3{1, 1, 1},
		Source: InMemoryData(data),
		TF:     visibleTF,
	})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	if !vol.IsIn(Vec3{1, 1, 1}) {
		t.Error("expected interior point to be in the volume")
	}
	if vol.IsIn(Vec3{-1, 1, 1}) {
		t.Error("expected point outside lower bound to be rejected")
	}
	if vol.IsIn(Vec3{10, 1, 1}) {
		t.Error("expected point outside upper bound to be rejected")
	}
}
