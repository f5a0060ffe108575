package cone

import (
	"math"
	"testing"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
	"github.com/paulmach/orb/planar"
)

func TestDestinationDistance(t *testing.T) {
	center := orb.Point{127.5, 32.0}
	for _, bearing := range []float64{0, 90, 180, 270} {
		p := Destination(center, 280, bearing)
		got := geo.Distance(center, p) / 1000
		// orb's sphere radius differs slightly from the equatorial one.
		if math.Abs(got-280) > 2 {
			t.Errorf("bearing %v: distance=%.2fkm, want ~280", bearing, got)
		}
	}
	north := Destination(center, 100, 0)
	if north.Lat() <= center.Lat() || math.Abs(north.Lon()-center.Lon()) > 1e-9 {
		t.Errorf("north point=%v", north)
	}
}

func TestCircleClosedCCW(t *testing.T) {
	c := Circle(orb.Point{128, 33.5}, 300, 64)
	ring := c[0]
	if len(ring) != 65 {
		t.Fatalf("ring has %d points, want 65", len(ring))
	}
	if !ring.Closed() {
		t.Error("ring not closed")
	}
	if ring.Orientation() != orb.CCW {
		t.Error("ring not counter-clockwise")
	}
	centroid, _ := planar.CentroidArea(c)
	if math.Abs(centroid.Lon()-128) > 0.05 || math.Abs(centroid.Lat()-33.5) > 0.1 {
		t.Errorf("centroid=%v", centroid)
	}
}

func TestProbabilityRadius(t *testing.T) {
	tests := []struct {
		i    int
		want float64
	}{
		{0, 100},
		{1, 130},
		{3, 190},
	}
	for _, tt := range tests {
		if got := ProbabilityRadius(tt.i, 100, 30); got != tt.want {
			t.Errorf("ProbabilityRadius(%d)=%v, want %v", tt.i, got, tt.want)
		}
	}
}

func TestEnvelopeSingleCircle(t *testing.T) {
	c := Circle(orb.Point{128, 33.5}, 100, 16)
	g, err := Envelope([]orb.Polygon{c})
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := g.(orb.Polygon); !ok {
		t.Errorf("geometry=%T, want orb.Polygon", g)
	}
	if _, err := Envelope(nil); err == nil {
		t.Error("expected error for no circles")
	}
}

func TestEnvelopeCoversCircles(t *testing.T) {
	circles := []orb.Polygon{
		Circle(orb.Point{128.0, 33.5}, 100, 32),
		Circle(orb.Point{128.5, 35.0}, 130, 32),
		Circle(orb.Point{129.0, 36.5}, 160, 32),
	}
	g, err := Envelope(circles)
	if err != nil {
		t.Fatal(err)
	}
	var total float64
	for _, c := range circles {
		total = math.Max(total, planar.Area(c))
	}
	if a := planar.Area(g); a < total {
		t.Errorf("envelope area %v smaller than largest circle %v", a, total)
	}
	b := g.Bound()
	for _, c := range circles {
		if !b.Contains(c.Bound().Center()) {
			t.Errorf("envelope bound %v misses circle center %v", b, c.Bound().Center())
		}
	}
}
