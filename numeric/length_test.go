package numeric

import "testing"

func TestFromPointsRoundTrip(t *testing.T) {
	samples := []float64{0, 0.001, 1, 12, 14.4, 72, 96, 144, 1000}
	for _, pt := range samples {
		l := FromPoints(pt)
		if diff := l.Points() - pt; diff > 1e-3 || diff < -1e-3 {
			t.Fatalf("FromPoints(%g).Points() = %g, diff too large", pt, l.Points())
		}
	}
}

func TestMillimeterConversion(t *testing.T) {
	// 25.4mm == 1in, within a millipoint of rounding slack.
	in := FromInches(1)
	mm := FromMillimeters(25.4)
	if diff := in.Sub(mm).Abs(); diff > 1 {
		t.Fatalf("1in vs 25.4mm differ by %v millis", diff.Millis())
	}
}

func TestAddSaturates(t *testing.T) {
	max := Length(1<<63 - 1)
	got := max.Add(FromPoints(1))
	if got != max {
		t.Fatalf("Add did not saturate: got %v", got)
	}
}

func TestPercent(t *testing.T) {
	basis := FromPoints(200)
	got := Percent(50, basis)
	want := FromPoints(100)
	if got != want {
		t.Fatalf("Percent(50, 200pt) = %v, want %v", got, want)
	}
}

func TestClamp(t *testing.T) {
	lo, hi := FromPoints(10), FromPoints(20)
	if got := Clamp(FromPoints(5), lo, hi); got != lo {
		t.Fatalf("Clamp below range = %v, want %v", got, lo)
	}
	if got := Clamp(FromPoints(25), lo, hi); got != hi {
		t.Fatalf("Clamp above range = %v, want %v", got, hi)
	}
	if got := Clamp(FromPoints(15), lo, hi); got != FromPoints(15) {
		t.Fatalf("Clamp inside range changed value: got %v", got)
	}
}

func TestRoundHalfEven(t *testing.T) {
	cases := []struct {
		in   float64
		want int64
	}{
		{0.5, 0},
		{1.5, 2},
		{2.5, 2},
		{-0.5, 0},
		{-1.5, -2},
	}
	for _, c := range cases {
		if got := roundHalfEven(c.in); got != c.want {
			t.Fatalf("roundHalfEven(%v) = %v, want %v", c.in, got, c.want)
		}
	}
}
