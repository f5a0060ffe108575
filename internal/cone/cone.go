// Package cone builds the polygons drawn around a typhoon: wind radius
// circles and the forecast probability area.
package cone

import (
	"fmt"
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkt"
	"github.com/twpayne/go-geos"
)

// EarthRadiusKm is the equatorial radius used for destination points.
const EarthRadiusKm = 6378.137

func rad(deg float64) float64 { return deg * math.Pi / 180 }
func deg(r float64) float64   { return r * 180 / math.Pi }

// Destination returns the point distanceKm from center along bearing
// (degrees clockwise from north) on a sphere.
func Destination(center orb.Point, distanceKm, bearing float64) orb.Point {
	lat1 := rad(center.Lat())
	lon1 := rad(center.Lon())
	b := rad(bearing)
	d := distanceKm / EarthRadiusKm

	lat2 := math.Asin(math.Sin(lat1)*math.Cos(d) + math.Cos(lat1)*math.Sin(d)*math.Cos(b))
	lon2 := lon1 + math.Atan2(math.Sin(b)*math.Sin(d)*math.Cos(lat1), math.Cos(d)-math.Sin(lat1)*math.Sin(lat2))
	return orb.Point{deg(lon2), deg(lat2)}
}

// Circle approximates a circle of radiusKm around center with steps
// vertices. The ring is closed and counter-clockwise.
func Circle(center orb.Point, radiusKm float64, steps int) orb.Polygon {
	if steps < 3 {
		steps = 3
	}
	ring := make(orb.Ring, 0, steps+1)
	for i := 0; i < steps; i++ {
		// bearings run clockwise; walk them backwards for a CCW ring
		ring = append(ring, Destination(center, radiusKm, 360-float64(i)*360/float64(steps)))
	}
	ring = append(ring, ring[0])
	return orb.Polygon{ring}
}

// ProbabilityRadius is the radius of the probability circle around the
// i-th forecast position: the uncertainty grows with lead time.
func ProbabilityRadius(i int, baseKm, stepKm float64) float64 {
	return baseKm + float64(i)*stepKm
}

// Envelope merges the circles into one outline: the convex hull of each
// consecutive pair, unioned. A single circle is returned as is.
func Envelope(circles []orb.Polygon) (orb.Geometry, error) {
	switch len(circles) {
	case 0:
		return nil, fmt.Errorf("envelope: no circles")
	case 1:
		return circles[0], nil
	}

	var merged *geos.Geom
	for i := 0; i < len(circles)-1; i++ {
		pair := orb.MultiPolygon{circles[i], circles[i+1]}
		g, err := geos.NewGeomFromWKT(wkt.MarshalString(pair))
		if err != nil {
			return nil, fmt.Errorf("envelope: pair %d: %w", i, err)
		}
		hull := g.ConvexHull()
		if merged == nil {
			merged = hull
			continue
		}
		merged = merged.Union(hull)
	}
	// Buffer(0) cleans up slivers left by the union.
	out, err := wkt.Unmarshal(merged.Buffer(0, 32).ToWKT())
	if err != nil {
		return nil, fmt.Errorf("envelope: parse result: %w", err)
	}
	return out, nil
}
