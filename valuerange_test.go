package volray

import "testing"

func TestValueRangeSeedAndExtend(t *testing.T) {
	r := SeedValueRange(1)
	if !r.Contains(1) || r.Contains(1.2) || r.Contains(0.9) {
		t.Fatal("seeded range should contain only the seed value")
	}

	for _, v := range []float64{0, 5, 3, -2.5} {
		r.Extend(v)
	}

	if r.Low != -2.5 || r.High != 5 {
		t.Errorf("got [%v, %v], want [-2.5, 5]", r.Low, r.High)
	}
	if !r.Contains(4.2) || !r.Contains(-0.5) || r.Contains(-12.5) {
		t.Error("unexpected containment after extend")
	}
}

func TestValueRangeEmpty(t *testing.T) {
	r := EmptyValueRange()
	if r.Contains(0) || r.Contains(2) {
		t.Fatal("empty range should contain nothing")
	}
	r.Extend(2)
	if !r.Contains(2) || r.Low != 2 || r.High != 2 {
		t.Errorf("got [%v, %v], want [2, 2]", r.Low, r.High)
	}
}

func TestValueRangeFromSamples(t *testing.T) {
	r := ValueRangeFromSamples([]float64{1, 2, 4, 10, 5, 0})
	if r.Low != 0 || r.High != 10 {
		t.Errorf("got [%v, %v], want [0, 10]", r.Low, r.High)
	}
}

func TestValueRangeIntersects(t *testing.T) {
	empty := EmptyValueRange()
	rLow := ValueRangeFromSamples([]float64{1, 6})
	rMid := ValueRangeFromSamples([]float64{3, 8})
	rHi := ValueRangeFromSamples([]float64{10, 30})
	inner := ValueRangeFromSamples([]float64{10, 15})
	single := ValueRangeFromSamples([]float64{6})

	cases := []struct {
		name string
		a, b ValueRange
		want bool
	}{
		{"empty-low", empty, rLow, false},
		{"empty-hi", empty, rHi, false},
		{"low-mid touching-overlap", rLow, rMid, true},
		{"low-hi", rLow, rHi, false},
		{"mid-hi", rMid, rHi, false},
		{"low-single", rLow, single, true},
		{"mid-single", rMid, single, true},
		{"hi-inner", rHi, inner, true},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := c.a.Intersects(c.b); got != c.want {
				t.Errorf("got %v, want %v", got, c.want)
			}
		})
	}
}
