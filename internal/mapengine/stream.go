package mapengine

import (
	"maps"
	"slices"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// Command is one map mutation in the form the browser map applies it.
type Command struct {
	Op         string                     `json:"op"`
	ID         string                     `json:"id,omitempty"`
	Key        string                     `json:"key,omitempty"`
	Value      any                        `json:"value,omitempty"`
	Before     string                     `json:"before,omitempty"`
	Layer      *LayerSpec                 `json:"layer,omitempty"`
	Data       *geojson.FeatureCollection `json:"data,omitempty"`
	Filter     []any                      `json:"filter,omitempty"`
	SVG        string                     `json:"svg,omitempty"`
	Bounds     *[2][2]float64             `json:"bounds,omitempty"`
	Center     *[2]float64                `json:"center,omitempty"`
	Padding    *Padding                   `json:"padding,omitempty"`
	Camera     *CameraOptions             `json:"camera,omitempty"`
	DurationMS int64                      `json:"duration,omitempty"`
}

// Command ops.
const (
	OpAddSource    = "addSource"
	OpRemoveSource = "removeSource"
	OpSetData      = "setData"
	OpAddLayer     = "addLayer"
	OpRemoveLayer  = "removeLayer"
	OpMoveLayer    = "moveLayer"
	OpSetPaint     = "setPaintProperty"
	OpSetLayout    = "setLayoutProperty"
	OpSetFilter    = "setFilter"
	OpAddImage     = "addImage"
	OpFitBounds    = "fitBounds"
	OpFlyTo        = "flyTo"
	// OpReset empties the browser map before a replay.
	OpReset = "reset"
)

// Stream is an Engine backed by a Recorder that forwards every successful
// mutation to publish. Queries are answered from the recorder, so the
// browser map never has to be asked.
type Stream struct {
	*Recorder
	publish func(Command)
}

// NewStream wraps rec. publish may be nil.
func NewStream(rec *Recorder, publish func(Command)) *Stream {
	if publish == nil {
		publish = func(Command) {}
	}
	return &Stream{Recorder: rec, publish: publish}
}

// Replay emits the commands that rebuild the current style from scratch,
// for a browser that connects after the session started or missed
// commands. The first command is OpReset.
func (s *Stream) Replay(emit func(Command)) {
	r := s.Recorder
	emit(Command{Op: OpReset})
	for id, fc := range r.sources {
		emit(Command{Op: OpAddSource, ID: id, Data: fc})
	}
	for name, svg := range r.images {
		emit(Command{Op: OpAddImage, ID: name, SVG: string(svg)})
	}
	for _, id := range r.order {
		l := r.layers[id]
		spec := l.spec
		// The commands outlive this call; later mutations must not show through.
		spec.Paint = maps.Clone(l.paint)
		spec.Layout = maps.Clone(l.layout)
		spec.Filter = slices.Clone(l.filter)
		emit(Command{Op: OpAddLayer, ID: id, Layer: &spec})
	}
	c := r.camera.Center
	emit(Command{Op: OpFlyTo, Center: &[2]float64{c[0], c[1]}, Camera: &CameraOptions{Zoom: r.camera.Zoom}})
}

func (s *Stream) AddSource(id string, data *geojson.FeatureCollection) error {
	if err := s.Recorder.AddSource(id, data); err != nil {
		return err
	}
	s.publish(Command{Op: OpAddSource, ID: id, Data: s.sources[id]})
	return nil
}

func (s *Stream) RemoveSource(id string) error {
	if err := s.Recorder.RemoveSource(id); err != nil {
		return err
	}
	s.publish(Command{Op: OpRemoveSource, ID: id})
	return nil
}

func (s *Stream) SetSourceData(id string, data *geojson.FeatureCollection) error {
	if err := s.Recorder.SetSourceData(id, data); err != nil {
		return err
	}
	s.publish(Command{Op: OpSetData, ID: id, Data: s.sources[id]})
	return nil
}

func (s *Stream) AddLayer(spec LayerSpec, beforeID string) error {
	if err := s.Recorder.AddLayer(spec, beforeID); err != nil {
		return err
	}
	s.publish(Command{Op: OpAddLayer, ID: spec.ID, Layer: &spec, Before: beforeID})
	return nil
}

func (s *Stream) RemoveLayer(id string) error {
	if err := s.Recorder.RemoveLayer(id); err != nil {
		return err
	}
	s.publish(Command{Op: OpRemoveLayer, ID: id})
	return nil
}

func (s *Stream) MoveLayer(id, beforeID string) error {
	if err := s.Recorder.MoveLayer(id, beforeID); err != nil {
		return err
	}
	s.publish(Command{Op: OpMoveLayer, ID: id, Before: beforeID})
	return nil
}

func (s *Stream) SetPaintProperty(id, key string, value any) error {
	if err := s.Recorder.SetPaintProperty(id, key, value); err != nil {
		return err
	}
	s.publish(Command{Op: OpSetPaint, ID: id, Key: key, Value: value})
	return nil
}

func (s *Stream) SetLayoutProperty(id, key string, value any) error {
	if err := s.Recorder.SetLayoutProperty(id, key, value); err != nil {
		return err
	}
	s.publish(Command{Op: OpSetLayout, ID: id, Key: key, Value: value})
	return nil
}

func (s *Stream) SetFilter(id string, filter []any) error {
	if err := s.Recorder.SetFilter(id, filter); err != nil {
		return err
	}
	s.publish(Command{Op: OpSetFilter, ID: id, Filter: filter})
	return nil
}

func (s *Stream) AddImage(name string, svg []byte) error {
	if err := s.Recorder.AddImage(name, svg); err != nil {
		return err
	}
	s.publish(Command{Op: OpAddImage, ID: name, SVG: string(svg)})
	return nil
}

func (s *Stream) FitBounds(b orb.Bound, pad Padding, opts CameraOptions) {
	s.Recorder.FitBounds(b, pad, opts)
	s.publish(Command{
		Op:         OpFitBounds,
		Bounds:     &[2][2]float64{{b.Min[0], b.Min[1]}, {b.Max[0], b.Max[1]}},
		Padding:    &pad,
		Camera:     &opts,
		DurationMS: opts.Duration.Milliseconds(),
	})
}

func (s *Stream) FlyTo(center orb.Point, opts CameraOptions) {
	s.Recorder.FlyTo(center, opts)
	s.publish(Command{
		Op:         OpFlyTo,
		Center:     &[2]float64{center[0], center[1]},
		Camera:     &opts,
		DurationMS: opts.Duration.Milliseconds(),
	})
}

var _ Engine = (*Stream)(nil)
