package selection

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/joeblew999/typhoon-viz/internal/config"
	"github.com/joeblew999/typhoon-viz/internal/cone"
	"github.com/joeblew999/typhoon-viz/internal/icons"
	"github.com/joeblew999/typhoon-viz/internal/mapengine"
	"github.com/joeblew999/typhoon-viz/internal/mapstore"
	"github.com/joeblew999/typhoon-viz/internal/state"
	"github.com/joeblew999/typhoon-viz/internal/typhoon"
)

// Active typhoon layer ids.
const (
	CurrentPastRoute   = "typhoon-route-current-past"
	CurrentFutureRoute = "typhoon-route-current-future"
	CurrentPoints      = "typhoon-points-current"
	CurrentLabels      = "typhoon-points-current-labels"
	CurrentEye         = "typhoon-eye-current"
	WindArea15         = "wind-area-15"
	WindArea25         = "wind-area-25"
	ProbabilityArea    = "probability-area"
	ProbabilityOutline = "probability-envelope"
)

// Video layer ids.
const (
	VideoMarkers       = "video-markers"
	VideoMarkersActive = "video-markers-active"
	VideoMarkersLabels = "video-markers-labels"
)

const (
	highlightColor = "#58FFDE"
	currentColor   = "#FF4444"
)

func RouteID(i int) string  { return "typhoon-route-" + strconv.Itoa(i) }
func PointsID(i int) string { return "typhoon-points-" + strconv.Itoa(i) }

// ParsePointsID returns the historical index of a points layer id.
func ParsePointsID(id string) (int, bool) {
	rest, ok := strings.CutPrefix(id, "typhoon-points-")
	if !ok {
		return 0, false
	}
	i, err := strconv.Atoi(rest)
	if err != nil {
		return 0, false
	}
	return i, true
}

func top5RouteID(i int) string  { return fmt.Sprintf("top5-route-%d", i) }
func top5LabelID(i int) string  { return fmt.Sprintf("top5-label-%d", i) }
func top5LabelSrc(i int) string { return fmt.Sprintf("top5-label-point-%d", i) }

func lineFC(ls orb.LineString) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	fc.Append(geojson.NewFeature(ls))
	return fc
}

// addCurrent registers the layers of the active typhoon on the main map.
func addCurrent(s *mapstore.Store, a *typhoon.ActiveTyphoon, cfg config.Config) error {
	present := a.Present()
	layers := []struct {
		id    string
		kind  mapstore.Kind
		style mapstore.Style
		data  *geojson.FeatureCollection
	}{
		{WindArea15, mapstore.WindRadius, mapstore.Style{
			Type:  mapengine.TypeFill,
			Paint: map[string]any{"fill-color": "#fdef0f", "fill-opacity": 0.55},
		}, windArea(present, outerRadius(a), cfg)},
		{WindArea25, mapstore.WindRadius, mapstore.Style{
			Type:  mapengine.TypeFill,
			Paint: map[string]any{"fill-color": "#fe9000", "fill-opacity": 0.6, "fill-outline-color": "#fe7200"},
		}, windArea(present, innerRadius(a), cfg)},
		{ProbabilityArea, mapstore.ProbabilityCone, mapstore.Style{
			Type:  mapengine.TypeFill,
			Paint: map[string]any{"fill-color": "#9966ff", "fill-opacity": 0.15},
		}, ProbabilityFeatures(a, cfg.Current)},
		{CurrentPastRoute, mapstore.Route, mapstore.Style{
			Type:   mapengine.TypeLine,
			Paint:  map[string]any{"line-color": currentColor, "line-width": 2.0, "line-dasharray": []float64{2, 2}, "line-opacity": cfg.Current.PastOpacity},
			Layout: map[string]any{"line-cap": "round", "line-join": "round"},
		}, lineFC(a.Past().LineString())},
		{CurrentFutureRoute, mapstore.Route, mapstore.Style{
			Type:  mapengine.TypeLine,
			Paint: map[string]any{"line-color": currentColor, "line-width": 2.0, "line-dasharray": []float64{2, 3}, "line-opacity": 0.6},
		}, lineFC(a.Future().LineString())},
		{CurrentPoints, mapstore.Points, mapstore.Style{
			Type: mapengine.TypeSymbol,
			Layout: map[string]any{
				"icon-image":            []any{"get", "icon"},
				"icon-size":             0.5,
				"icon-allow-overlap":    true,
				"icon-ignore-placement": true,
			},
			Paint: map[string]any{"icon-opacity": 1.0},
		}, CurrentPointFeatures(a, cfg.Icons, false)},
		{CurrentEye, mapstore.Points, mapstore.Style{
			Type: mapengine.TypeSymbol,
			Layout: map[string]any{
				"icon-image":            []any{"get", "icon"},
				"icon-size":             0.8,
				"icon-rotate":           0.0,
				"icon-allow-overlap":    true,
				"icon-ignore-placement": true,
			},
			Paint: map[string]any{"icon-opacity": 1.0},
		}, CurrentPointFeatures(a, cfg.Icons, true)},
		{CurrentLabels, mapstore.Label, mapstore.Style{
			Type: mapengine.TypeSymbol,
			Layout: map[string]any{
				"text-field":  []any{"get", "time"},
				"text-size":   12.0,
				"text-offset": []float64{0, 2.2},
			},
			Paint: map[string]any{"text-color": "#ffffff", "text-halo-color": "#000000", "text-halo-width": 1.5},
		}, labelFeatures(a)},
	}
	for _, l := range layers {
		if _, err := s.EnsureLayer(l.id, l.kind, "", l.style, l.data); err != nil {
			return fmt.Errorf("current typhoon layer %s: %w", l.id, err)
		}
	}
	if env, err := probabilityEnvelope(a, cfg.Current); err == nil && env != nil {
		style := mapstore.Style{
			Type:  mapengine.TypeLine,
			Paint: map[string]any{"line-color": "#9966ff", "line-width": 1.0, "line-opacity": 0.8},
		}
		if _, err := s.EnsureLayer(ProbabilityOutline, mapstore.ProbabilityCone, "", style, env); err != nil {
			return fmt.Errorf("current typhoon layer %s: %w", ProbabilityOutline, err)
		}
	}
	return nil
}

func outerRadius(a *typhoon.ActiveTyphoon) float64 {
	if r := a.Present().WindRadiusOuter; r != nil {
		return *r
	}
	return a.WindRadius
}

func innerRadius(a *typhoon.ActiveTyphoon) float64 {
	if r := a.Present().WindRadiusInner; r != nil {
		return *r
	}
	return a.WindRadius25
}

func windArea(p typhoon.TrackPoint, km float64, cfg config.Config) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	if km <= 0 {
		return fc
	}
	f := geojson.NewFeature(cone.Circle(p.Position, km, cfg.Current.CircleSteps))
	f.Properties["radius"] = km
	fc.Append(f)
	return fc
}

// CurrentPointFeatures returns the markers of the active typhoon: either the
// present position alone (eye) or every other position.
func CurrentPointFeatures(a *typhoon.ActiveTyphoon, th config.Icons, eye bool) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for i, p := range a.Track {
		isCurrent := i == a.CurrentIndex
		if isCurrent != eye {
			continue
		}
		isPast := i < a.CurrentIndex
		f := geojson.NewFeature(p.Position)
		f.Properties["pointIndex"] = i
		f.Properties["time"] = p.ObservedAt
		f.Properties["wind"] = p.WindSpeed
		f.Properties["isPast"] = isPast
		f.Properties["isCurrent"] = isCurrent
		f.Properties["icon"] = icons.Select(th, p.WindSpeed, isPast, isCurrent)
		fc.Append(f)
	}
	return fc
}

func labelFeatures(a *typhoon.ActiveTyphoon) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for i, p := range a.Track {
		if p.ObservedAt == "" {
			continue
		}
		f := geojson.NewFeature(p.Position)
		f.Properties["pointIndex"] = i
		f.Properties["time"] = p.ObservedAt
		fc.Append(f)
	}
	return fc
}

func probabilityCircles(a *typhoon.ActiveTyphoon, c config.Current) []orb.Polygon {
	var out []orb.Polygon
	for i, p := range a.Forecast() {
		out = append(out, cone.Circle(p.Position, cone.ProbabilityRadius(i, c.ProbabilityBaseKm, c.ProbabilityStepKm), c.CircleSteps))
	}
	return out
}

// ProbabilityFeatures returns one probability circle per forecast position.
func ProbabilityFeatures(a *typhoon.ActiveTyphoon, c config.Current) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for i, circle := range probabilityCircles(a, c) {
		f := geojson.NewFeature(circle)
		f.Properties["forecastIndex"] = i
		f.Properties["radius"] = cone.ProbabilityRadius(i, c.ProbabilityBaseKm, c.ProbabilityStepKm)
		fc.Append(f)
	}
	return fc
}

// probabilityEnvelope outlines the whole forecast cone. It is nil with
// fewer than two forecast positions.
func probabilityEnvelope(a *typhoon.ActiveTyphoon, c config.Current) (*geojson.FeatureCollection, error) {
	circles := probabilityCircles(a, c)
	if len(circles) < 2 {
		return nil, nil
	}
	g, err := cone.Envelope(circles)
	if err != nil {
		return nil, err
	}
	fc := geojson.NewFeatureCollection()
	fc.Append(geojson.NewFeature(g))
	return fc, nil
}

// HistoricalPointFeatures returns one feature per track position carrying
// the data shown in the detail popup.
func HistoricalPointFeatures(h *typhoon.Historical, n int) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for i, p := range h.Track {
		if i >= n {
			break
		}
		f := geojson.NewFeature(p.Position)
		f.Properties["name"] = h.Name
		f.Properties["year"] = h.Year
		f.Properties["index"] = h.Index
		f.Properties["pointIndex"] = i
		if p.ObservedAt != "" {
			f.Properties["time"] = p.ObservedAt
		}
		fc.Append(f)
	}
	return fc
}

// addHistorical registers the hidden route, points and highlight layers of
// one historical typhoon.
func addHistorical(s *mapstore.Store, h *typhoon.Historical) error {
	route := mapstore.Style{
		Type:   mapengine.TypeLine,
		Paint:  map[string]any{"line-color": h.Color, "line-width": 2.0, "line-opacity": 0.0},
		Layout: map[string]any{"line-cap": "round", "line-join": "round"},
	}
	if _, err := s.EnsureLayer(RouteID(h.Index), mapstore.Route, "", route, lineFC(h.Track.LineString())); err != nil {
		return err
	}

	points := mapstore.Style{
		Type: mapengine.TypeCircle,
		Paint: map[string]any{
			"circle-radius":         5.0,
			"circle-color":          "#282828",
			"circle-stroke-width":   1.5,
			"circle-stroke-color":   h.Color,
			"circle-opacity":        0.0,
			"circle-stroke-opacity": 0.0,
		},
		Layout: map[string]any{"visibility": "none"},
	}
	id := PointsID(h.Index)
	if _, err := s.EnsureLayer(id, mapstore.Points, "", points, HistoricalPointFeatures(h, len(h.Track))); err != nil {
		return err
	}

	active := mapstore.Style{
		Type: mapengine.TypeCircle,
		Paint: map[string]any{
			"circle-radius":         8.0,
			"circle-color":          "transparent",
			"circle-stroke-width":   2.0,
			"circle-stroke-color":   highlightColor,
			"circle-stroke-opacity": 1.0,
		},
		Filter:        []any{"==", "pointIndex", state.NoHighlight},
		HighlightProp: "pointIndex",
	}
	_, err := s.EnsureLayer(mapstore.HighlightLayerID(id), mapstore.ActiveHighlight, id, active, nil)
	return err
}

// addTop5 registers the route and label layers of one ranked typhoon with
// empty data.
func addTop5(s *mapstore.Store, i int, color string) error {
	route := mapstore.Style{
		Type:   mapengine.TypeLine,
		Paint:  map[string]any{"line-color": color, "line-width": 2.0, "line-opacity": 0.8},
		Layout: map[string]any{"line-cap": "round", "line-join": "round"},
	}
	if _, err := s.EnsureLayer(top5RouteID(i), mapstore.Route, "", route, nil); err != nil {
		return err
	}
	label := mapstore.Style{
		Type: mapengine.TypeSymbol,
		Layout: map[string]any{
			"symbol-placement": "line",
			"text-field":       "",
			"text-size":        16.0,
		},
		Paint: map[string]any{
			"text-color":      color,
			"text-halo-color": "#000000",
			"text-halo-width": 2.5,
			"text-opacity":    0.9,
		},
	}
	_, err := s.EnsureLayer(top5LabelID(i), mapstore.Label, top5LabelSrc(i), label, nil)
	return err
}

// VideoFeatures returns one marker per video, numbered within its category.
func VideoFeatures(videos []typhoon.Video) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, v := range videos {
		f := geojson.NewFeature(v.Position)
		f.Properties["number"] = v.Number
		f.Properties["label"] = strconv.Itoa(v.Number)
		f.Properties["category"] = string(v.Category)
		f.Properties["title"] = v.Title
		fc.Append(f)
	}
	return fc
}

func videoColor(c typhoon.VideoCategory) string {
	if c == typhoon.DamageVideo {
		return "#DC1011"
	}
	return "#E96B06"
}

// addVideos registers the marker, highlight and label layers of a video
// category.
func addVideos(s *mapstore.Store, c typhoon.VideoCategory, videos []typhoon.Video) error {
	markers := mapstore.Style{
		Type: mapengine.TypeCircle,
		Paint: map[string]any{
			"circle-radius":         20.0,
			"circle-color":          videoColor(c),
			"circle-opacity":        1.0,
			"circle-stroke-opacity": 1.0,
		},
	}
	if _, err := s.EnsureLayer(VideoMarkers, mapstore.Points, "", markers, VideoFeatures(videos)); err != nil {
		return err
	}
	active := mapstore.Style{
		Type: mapengine.TypeCircle,
		Paint: map[string]any{
			"circle-radius":         24.0,
			"circle-color":          "transparent",
			"circle-stroke-width":   3.0,
			"circle-stroke-color":   highlightColor,
			"circle-stroke-opacity": 0.9,
		},
		Filter:        []any{"==", "number", state.NoHighlight},
		HighlightProp: "number",
	}
	if _, err := s.EnsureLayer(VideoMarkersActive, mapstore.ActiveHighlight, VideoMarkers, active, nil); err != nil {
		return err
	}
	labels := mapstore.Style{
		Type: mapengine.TypeSymbol,
		Layout: map[string]any{
			"text-field":         []any{"get", "label"},
			"text-size":          22.0,
			"text-allow-overlap": true,
		},
		Paint: map[string]any{"text-color": "#ffffff"},
	}
	_, err := s.EnsureLayer(VideoMarkersLabels, mapstore.Label, VideoMarkers, labels, nil)
	return err
}

func removeVideos(s *mapstore.Store) {
	for _, id := range []string{VideoMarkersLabels, VideoMarkersActive, VideoMarkers} {
		s.Remove(id)
	}
}
