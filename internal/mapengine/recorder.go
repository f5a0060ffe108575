package mapengine

import (
	"fmt"
	"math"
	"slices"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/orb/project"
)

const tileSize = 512

// earth circumference in web mercator meters
const worldMeters = 2 * math.Pi * 6378137

type layer struct {
	spec   LayerSpec
	paint  map[string]any
	layout map[string]any
	filter []any
}

// Camera is the recorder's view state.
type Camera struct {
	Center orb.Point
	Zoom   float64
	Moves  int
}

// Recorder is an in-memory Engine. It keeps the style the way a browser map
// would and answers queries about it.
type Recorder struct {
	width, height float64

	sources map[string]*geojson.FeatureCollection
	layers  map[string]*layer
	order   []string
	images  map[string][]byte
	camera  Camera
}

// NewRecorder creates a recorder with a viewport of w×h pixels.
func NewRecorder(w, h float64) *Recorder {
	return &Recorder{
		width:   w,
		height:  h,
		sources: make(map[string]*geojson.FeatureCollection),
		layers:  make(map[string]*layer),
		images:  make(map[string][]byte),
		camera:  Camera{Center: orb.Point{127.5, 36}, Zoom: 6},
	}
}

// Resize changes the viewport size.
func (r *Recorder) Resize(w, h float64) {
	r.width, r.height = w, h
}

// Viewport returns the viewport size.
func (r *Recorder) Viewport() (w, h float64) { return r.width, r.height }

func (r *Recorder) AddSource(id string, data *geojson.FeatureCollection) error {
	if _, ok := r.sources[id]; ok {
		return fmt.Errorf("add source %q: %w", id, ErrSourceExists)
	}
	if data == nil {
		data = geojson.NewFeatureCollection()
	}
	r.sources[id] = data
	return nil
}

func (r *Recorder) RemoveSource(id string) error {
	if _, ok := r.sources[id]; !ok {
		return fmt.Errorf("remove source %q: %w", id, ErrNoSource)
	}
	for _, l := range r.layers {
		if l.spec.Source == id {
			return fmt.Errorf("remove source %q: %w (%s)", id, ErrSourceInUse, l.spec.ID)
		}
	}
	delete(r.sources, id)
	return nil
}

func (r *Recorder) HasSource(id string) bool {
	_, ok := r.sources[id]
	return ok
}

func (r *Recorder) SetSourceData(id string, data *geojson.FeatureCollection) error {
	if _, ok := r.sources[id]; !ok {
		return fmt.Errorf("set data %q: %w", id, ErrNoSource)
	}
	if data == nil {
		data = geojson.NewFeatureCollection()
	}
	r.sources[id] = data
	return nil
}

// SourceData returns the current data of a source.
func (r *Recorder) SourceData(id string) (*geojson.FeatureCollection, bool) {
	fc, ok := r.sources[id]
	return fc, ok
}

func (r *Recorder) AddLayer(spec LayerSpec, beforeID string) error {
	if _, ok := r.layers[spec.ID]; ok {
		return fmt.Errorf("add layer %q: %w", spec.ID, ErrLayerExists)
	}
	if _, ok := r.sources[spec.Source]; !ok {
		return fmt.Errorf("add layer %q: %w: %s", spec.ID, ErrNoSource, spec.Source)
	}
	l := &layer{
		spec:   spec,
		paint:  make(map[string]any, len(spec.Paint)),
		layout: make(map[string]any, len(spec.Layout)),
		filter: spec.Filter,
	}
	for k, v := range spec.Paint {
		l.paint[k] = v
	}
	for k, v := range spec.Layout {
		l.layout[k] = v
	}
	r.layers[spec.ID] = l
	r.insert(spec.ID, beforeID)
	return nil
}

func (r *Recorder) insert(id, beforeID string) {
	if beforeID != "" {
		if i := slices.Index(r.order, beforeID); i >= 0 {
			r.order = slices.Insert(r.order, i, id)
			return
		}
	}
	r.order = append(r.order, id)
}

func (r *Recorder) RemoveLayer(id string) error {
	if _, ok := r.layers[id]; !ok {
		return fmt.Errorf("remove layer %q: %w", id, ErrNoLayer)
	}
	delete(r.layers, id)
	if i := slices.Index(r.order, id); i >= 0 {
		r.order = slices.Delete(r.order, i, i+1)
	}
	return nil
}

func (r *Recorder) HasLayer(id string) bool {
	_, ok := r.layers[id]
	return ok
}

func (r *Recorder) LayerType(id string) (string, bool) {
	l, ok := r.layers[id]
	if !ok {
		return "", false
	}
	return l.spec.Type, true
}

func (r *Recorder) MoveLayer(id, beforeID string) error {
	i := slices.Index(r.order, id)
	if i < 0 {
		return fmt.Errorf("move layer %q: %w", id, ErrNoLayer)
	}
	r.order = slices.Delete(r.order, i, i+1)
	r.insert(id, beforeID)
	return nil
}

func (r *Recorder) SetPaintProperty(id, key string, value any) error {
	l, ok := r.layers[id]
	if !ok {
		return fmt.Errorf("paint %q.%s: %w", id, key, ErrNoLayer)
	}
	l.paint[key] = value
	return nil
}

func (r *Recorder) SetLayoutProperty(id, key string, value any) error {
	l, ok := r.layers[id]
	if !ok {
		return fmt.Errorf("layout %q.%s: %w", id, key, ErrNoLayer)
	}
	l.layout[key] = value
	return nil
}

func (r *Recorder) SetFilter(id string, filter []any) error {
	l, ok := r.layers[id]
	if !ok {
		return fmt.Errorf("filter %q: %w", id, ErrNoLayer)
	}
	l.filter = filter
	return nil
}

// Paint returns a paint property.
func (r *Recorder) Paint(id, key string) (any, bool) {
	l, ok := r.layers[id]
	if !ok {
		return nil, false
	}
	v, ok := l.paint[key]
	return v, ok
}

// Layout returns a layout property.
func (r *Recorder) Layout(id, key string) (any, bool) {
	l, ok := r.layers[id]
	if !ok {
		return nil, false
	}
	v, ok := l.layout[key]
	return v, ok
}

// Filter returns the filter of a layer.
func (r *Recorder) Filter(id string) ([]any, bool) {
	l, ok := r.layers[id]
	if !ok {
		return nil, false
	}
	return l.filter, true
}

// LayerSource returns the source id a layer draws from.
func (r *Recorder) LayerSource(id string) (string, bool) {
	l, ok := r.layers[id]
	if !ok {
		return "", false
	}
	return l.spec.Source, true
}

// Layers returns layer ids bottom to top.
func (r *Recorder) Layers() []string {
	return slices.Clone(r.order)
}

func (r *Recorder) AddImage(name string, svg []byte) error {
	r.images[name] = svg
	return nil
}

func (r *Recorder) HasImage(name string) bool {
	_, ok := r.images[name]
	return ok
}

// Camera returns the current camera.
func (r *Recorder) Camera() Camera { return r.camera }

func (r *Recorder) Zoom() float64 { return r.camera.Zoom }

// FitBounds jumps to the end state of the transition: the largest zoom at
// which b fits inside the padded viewport, capped by opts.MaxZoom.
func (r *Recorder) FitBounds(b orb.Bound, pad Padding, opts CameraOptions) {
	lo := project.WGS84.ToMercator(b.Min)
	hi := project.WGS84.ToMercator(b.Max)
	availW := r.width - pad.Left - pad.Right
	availH := r.height - pad.Top - pad.Bottom
	if availW < 1 {
		availW = 1
	}
	if availH < 1 {
		availH = 1
	}

	zoom := opts.MaxZoom
	spanX := (hi[0] - lo[0]) / worldMeters * tileSize
	spanY := (hi[1] - lo[1]) / worldMeters * tileSize
	if spanX > 0 || spanY > 0 {
		z := math.Inf(1)
		if spanX > 0 {
			z = math.Log2(availW / spanX)
		}
		if spanY > 0 {
			z = math.Min(z, math.Log2(availH/spanY))
		}
		if opts.MaxZoom == 0 || z < opts.MaxZoom {
			zoom = z
		}
	}

	// Shift the center so the bounds sit in the middle of the padded area.
	scale := tileSize * math.Pow(2, zoom) / worldMeters
	cx := (lo[0]+hi[0])/2 + (pad.Right-pad.Left)/2/scale
	cy := (lo[1]+hi[1])/2 - (pad.Bottom-pad.Top)/2/scale
	r.camera = Camera{
		Center: project.Mercator.ToWGS84(orb.Point{cx, cy}),
		Zoom:   zoom,
		Moves:  r.camera.Moves + 1,
	}
}

// FlyTo jumps to the end state of the flight.
func (r *Recorder) FlyTo(center orb.Point, opts CameraOptions) {
	zoom := r.camera.Zoom
	if opts.Zoom > 0 {
		zoom = opts.Zoom
	}
	c := project.WGS84.ToMercator(center)
	scale := tileSize * math.Pow(2, zoom) / worldMeters
	c[0] -= opts.Offset[0] / scale
	c[1] += opts.Offset[1] / scale
	r.camera = Camera{
		Center: project.Mercator.ToWGS84(c),
		Zoom:   zoom,
		Moves:  r.camera.Moves + 1,
	}
}

// Project converts a coordinate to viewport pixels for the current camera.
func (r *Recorder) Project(p orb.Point) orb.Point {
	scale := tileSize * math.Pow(2, r.camera.Zoom) / worldMeters
	m := project.WGS84.ToMercator(p)
	c := project.WGS84.ToMercator(r.camera.Center)
	return orb.Point{
		r.width/2 + (m[0]-c[0])*scale,
		r.height/2 - (m[1]-c[1])*scale,
	}
}

var _ Engine = (*Recorder)(nil)
