package volray

import "testing"

func darkTF(float32) RGBA { return RGBA{} }

// zeroTransparentTF treats a zero sample as empty space, unlike visibleTF
// (used by the sample-agreement tests) which paints every sample opaque.
func zeroTransparentTF(sample float32) RGBA {
	if sample == 0 {
		return RGBA{}
	}
	return RGBA{R: float64(sample), G: float64(sample), B: float64(sample), A: 1}
}

func buildTestVolume(t *testing.T, size [3]int, nonEmptyIndexes []int, tf TransferFunction) Volume {
	t.Helper()
	n := size[0] * size[1] * size[2]
	values := make([]uint16, n)
	for _, i := range nonEmptyIndexes {
		values[i] = 1
	}
	data := encode12Bit(values)

	vol, err := Build(VolumeMetadata{
		Size:   size,
		Scale:  Vec3{1, 1, 1},
		Source: InMemoryData(data),
		TF:     tf,
	})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return vol
}

func TestEmptyIndexAllEmpty(t *testing.T) {
	vol := buildTestVolume(t, [3]int{2, 2, 2}, nil, zeroTransparentTF)
	idx := BuildEmptyIndex(vol, 2)

	if len(idx.cells) != 1 {
		t.Fatalf("got %d cells, want 1", len(idx.cells))
	}
	if idx.cells[0] != CellEmpty {
		t.Errorf("expected the only cell to be empty when every sample is zero")
	}
}

func TestEmptyIndexNonEmpty(t *testing.T) {
	vol := buildTestVolume(t, [3]int{2, 2, 2}, []int{2}, zeroTransparentTF)
	idx := BuildEmptyIndex(vol, 2)

	if idx.cells[0] != CellNonEmpty {
		t.Error("expected the cell to be non-empty when one sample is non-zero")
	}
}

func TestEmptyIndexBiggerGrid(t *testing.T) {
	vol := buildTestVolume(t, [3]int{24, 24, 10}, nil, zeroTransparentTF)
	idx := BuildEmptyIndex(vol, 2)

	want := [3]int{12, 12, 5}
	if idx.size != want {
		t.Errorf("index size = %+v, want %+v", idx.size, want)
	}
	if len(idx.cells) != 12*12*5 {
		t.Errorf("got %d cells, want %d", len(idx.cells), 12*12*5)
	}
}

func TestEmptyIndexDarkTFIsAlwaysEmpty(t *testing.T) {
	values := make([]uint16, 7*7*7)
	values[2] = 20
	data := encode12Bit(values)

	vol, err := Build(VolumeMetadata{
		Size:   [3]int{7, 7, 7},
		Scale:  Vec3{1, 1, 1},
		Source: InMemoryData(data),
		TF:     darkTF,
	})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	idx := BuildEmptyIndex(vol, 2)
	for i, c := range idx.cells {
		if c != CellEmpty {
			t.Errorf("cell %d: got non-empty, want empty (dark transfer function)", i)
		}
	}
}

func TestEmptyIndexSample(t *testing.T) {
	vol := buildTestVolume(t, [3]int{5, 5, 5}, []int{1}, zeroTransparentTF)
	idx := BuildEmptyIndex(vol, 2)

	if len(idx.cells) != 8 {
		t.Fatalf("got %d cells, want 8", len(idx.cells))
	}
	if idx.Sample(Vec3{0, 0, 0}) != CellNonEmpty {
		t.Error("origin cell should be non-empty")
	}
	if idx.Sample(Vec3{1.7, 1.5, 1.4}) != CellNonEmpty {
		t.Error("point still inside the origin cell's overlap window should be non-empty")
	}
	if idx.Sample(Vec3{2.1, 1.55, 1.4}) != CellEmpty {
		t.Error("point in the neighboring x cell should be empty")
	}
}
