package geometry

import (
	"math"
	"testing"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

var sarah = orb.LineString{
	{123.0, 27.0}, {124.5, 29.5}, {126.0, 31.0}, {127.0, 33.5}, {128.5, 36.0},
}

func TestSampleAtBoundaries(t *testing.T) {
	tracks := []orb.LineString{
		sarah,
		{{0, 0}, {1, 0}},
		{{0.1, 0.2}, {0.3, 0.7}, {0.3, 0.7}, {-5, 9.25}},
	}
	for _, tr := range tracks {
		if got := SampleAt(tr, 0); got != tr[0] {
			t.Errorf("SampleAt(0)=%v, want %v", got, tr[0])
		}
		if got := SampleAt(tr, 1); got != tr[len(tr)-1] {
			t.Errorf("SampleAt(1)=%v, want %v", got, tr[len(tr)-1])
		}
		if got := SampleAt(tr, 1.7); got != tr[len(tr)-1] {
			t.Errorf("SampleAt(1.7)=%v, want %v", got, tr[len(tr)-1])
		}
		if got := SampleAt(tr, -0.2); got != tr[0] {
			t.Errorf("SampleAt(-0.2)=%v, want %v", got, tr[0])
		}
	}
}

func TestSampleAtMidpoint(t *testing.T) {
	tr := orb.LineString{{0, 0}, {2, 0}, {2, 2}}
	tests := []struct {
		ratio float64
		want  orb.Point
	}{
		{0.25, orb.Point{1, 0}},
		{0.5, orb.Point{2, 0}},
		{0.75, orb.Point{2, 1}},
	}
	for _, tt := range tests {
		got := SampleAt(tr, tt.ratio)
		if math.Abs(got[0]-tt.want[0]) > 1e-12 || math.Abs(got[1]-tt.want[1]) > 1e-12 {
			t.Errorf("SampleAt(%v)=%v, want %v", tt.ratio, got, tt.want)
		}
	}
}

func TestSampleAtMonotonic(t *testing.T) {
	p := NewPolyline(sarah, Planar)
	prev := -1.0
	for i := 0; i <= 200; i++ {
		r := float64(i) / 200
		path, _ := p.Partial(r)
		l := planar.Length(path)
		if l+1e-9 < prev {
			t.Fatalf("arc length went backwards at ratio %v: %v < %v", r, l, prev)
		}
		prev = l
	}
	if math.Abs(prev-p.Total()) > 1e-9 {
		t.Errorf("final length=%v, want %v", prev, p.Total())
	}
}

func TestSinglePointTrack(t *testing.T) {
	tr := orb.LineString{{127.5, 32.0}}
	for _, r := range []float64{0, 0.3, 0.99, 1} {
		if got := SampleAt(tr, r); got != tr[0] {
			t.Errorf("SampleAt(%v)=%v, want %v", r, got, tr[0])
		}
	}
	path, passed := NewPolyline(tr, Planar).Partial(0.5)
	if len(path) != 1 || passed != 1 {
		t.Errorf("Partial on single point: path=%v passed=%d", path, passed)
	}
}

func TestEmptyTrack(t *testing.T) {
	path, passed := NewPolyline(nil, Planar).Partial(0.5)
	if len(path) != 0 || passed != 0 {
		t.Errorf("Partial on empty track: path=%v passed=%d", path, passed)
	}
	if CumulativeLengths(nil) != nil {
		t.Errorf("CumulativeLengths(nil) should be nil")
	}
}

func TestCumulativeLengths(t *testing.T) {
	cum := CumulativeLengths(orb.LineString{{0, 0}, {3, 4}, {3, 5}})
	want := []float64{0, 5, 6}
	if len(cum) != len(want) {
		t.Fatalf("len=%d, want %d", len(cum), len(want))
	}
	for i := range want {
		if math.Abs(cum[i]-want[i]) > 1e-12 {
			t.Errorf("cum[%d]=%v, want %v", i, cum[i], want[i])
		}
	}
}

func TestPartial(t *testing.T) {
	p := NewPolyline(orb.LineString{{0, 0}, {1, 0}, {2, 0}, {3, 0}}, Planar)
	tests := []struct {
		ratio      float64
		wantLen    int
		wantPassed int
	}{
		{0, 1, 1},
		{0.5, 3, 2},
		{1.0 / 3, 2, 2},
		{1, 4, 4},
	}
	for _, tt := range tests {
		path, passed := p.Partial(tt.ratio)
		if len(path) != tt.wantLen || passed != tt.wantPassed {
			t.Errorf("Partial(%v): len=%d passed=%d, want len=%d passed=%d",
				tt.ratio, len(path), passed, tt.wantLen, tt.wantPassed)
		}
	}
}

func TestMetricByName(t *testing.T) {
	for _, name := range []string{"", "planar", "geodesic"} {
		if _, err := MetricByName(name); err != nil {
			t.Errorf("MetricByName(%q): %v", name, err)
		}
	}
	if _, err := MetricByName("manhattan"); err == nil {
		t.Error("expected error for unknown metric")
	}
}

func TestGeodesicEndpoints(t *testing.T) {
	p := NewPolyline(sarah, Geodesic)
	if p.Total() < 100_000 {
		t.Errorf("geodesic total=%v, expected meters", p.Total())
	}
	if got := p.SampleAt(1); got != sarah[len(sarah)-1] {
		t.Errorf("SampleAt(1)=%v", got)
	}
}
