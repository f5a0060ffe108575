// Package geometry provides arc-length interpolation along typhoon tracks.
//
// Lengths are measured in coordinate space by default (planar degrees), which
// is a known approximation that is acceptable at country scale. A geodesic
// metric is available for callers that prefer distances in meters.
package geometry

import (
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
	"github.com/paulmach/orb/planar"
)

// Metric measures the length of a single segment.
type Metric func(a, b orb.Point) float64

var (
	// Planar is the Euclidean distance in longitude/latitude space.
	Planar Metric = planar.Distance
	// Geodesic is the great-circle distance in meters.
	Geodesic Metric = geo.Distance
)

// MetricByName resolves a configured metric name.
func MetricByName(name string) (Metric, error) {
	switch name {
	case "", "planar":
		return Planar, nil
	case "geodesic":
		return Geodesic, nil
	default:
		return nil, fmt.Errorf("unknown distance metric %q", name)
	}
}

// CumulativeLengths returns the running arc length at every vertex of track,
// using the planar metric. The first entry is always 0.
func CumulativeLengths(track orb.LineString) []float64 {
	return cumulative(track, Planar)
}

// SampleAt returns the point at ratio of the planar arc length of track.
func SampleAt(track orb.LineString, ratio float64) orb.Point {
	return NewPolyline(track, Planar).SampleAt(ratio)
}

func cumulative(track orb.LineString, m Metric) []float64 {
	if len(track) == 0 {
		return nil
	}
	cum := make([]float64, len(track))
	for i := 1; i < len(track); i++ {
		cum[i] = cum[i-1] + m(track[i-1], track[i])
	}
	return cum
}

// Polyline is a track with its cumulative lengths precomputed so that
// per-frame sampling does not recompute segment lengths.
// A Polyline is immutable and safe to share between animation sessions.
type Polyline struct {
	points orb.LineString
	cum    []float64
}

// NewPolyline precomputes the arc lengths of track under m.
// The track is copied; later changes by the caller are not observed.
func NewPolyline(track orb.LineString, m Metric) *Polyline {
	if m == nil {
		m = Planar
	}
	pts := make(orb.LineString, len(track))
	copy(pts, track)
	return &Polyline{points: pts, cum: cumulative(pts, m)}
}

// Len returns the number of vertices.
func (p *Polyline) Len() int { return len(p.points) }

// Points returns a copy of the full track.
func (p *Polyline) Points() orb.LineString {
	out := make(orb.LineString, len(p.points))
	copy(out, p.points)
	return out
}

// Total returns the total arc length.
func (p *Polyline) Total() float64 {
	if len(p.cum) == 0 {
		return 0
	}
	return p.cum[len(p.cum)-1]
}

// CumulativeLengths returns a copy of the running arc lengths.
func (p *Polyline) CumulativeLengths() []float64 {
	out := make([]float64, len(p.cum))
	copy(out, p.cum)
	return out
}

// SampleAt returns the point reached after travelling ratio of the total
// arc length. Ratios are clamped to [0, 1]; ratio 1 returns the last vertex
// exactly.
func (p *Polyline) SampleAt(ratio float64) orb.Point {
	pt, _ := p.locate(ratio)
	return pt
}

// Partial returns the drawn prefix of the track at ratio: every vertex whose
// arc length has been reached, followed by the interpolated head when it lies
// strictly inside a segment. passed is the number of vertices reached, at
// least 1 for a non-empty track.
func (p *Polyline) Partial(ratio float64) (path orb.LineString, passed int) {
	if len(p.points) == 0 {
		return orb.LineString{}, 0
	}
	head, passed := p.locate(ratio)
	path = make(orb.LineString, 0, passed+1)
	path = append(path, p.points[:passed]...)
	if passed < len(p.points) && head != p.points[passed-1] {
		path = append(path, head)
	}
	return path, passed
}

// locate finds the point at ratio and the count of vertices already passed.
func (p *Polyline) locate(ratio float64) (orb.Point, int) {
	n := len(p.points)
	switch {
	case n == 0:
		return orb.Point{}, 0
	case n == 1:
		return p.points[0], 1
	}

	total := p.Total()
	if ratio >= 1 {
		return p.points[n-1], n
	}
	if ratio <= 0 || total == 0 {
		return p.points[0], 1
	}

	target := ratio * total
	for i := 1; i < n; i++ {
		if p.cum[i] <= target {
			continue
		}
		seg := p.cum[i] - p.cum[i-1]
		t := (target - p.cum[i-1]) / seg
		a, b := p.points[i-1], p.points[i]
		return orb.Point{
			a[0] + (b[0]-a[0])*t,
			a[1] + (b[1]-a[1])*t,
		}, i
	}
	return p.points[n-1], n
}
