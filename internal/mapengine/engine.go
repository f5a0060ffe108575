// Package mapengine describes the map rendering engine the widget drives and
// provides two implementations: an in-memory Recorder and a Stream that
// mirrors every mutation to a browser-side map over a command channel.
package mapengine

import (
	"errors"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// Layer types understood by the engine.
const (
	TypeLine   = "line"
	TypeCircle = "circle"
	TypeFill   = "fill"
	TypeSymbol = "symbol"
)

var (
	ErrNoSource     = errors.New("source not found")
	ErrSourceExists = errors.New("source already exists")
	ErrSourceInUse  = errors.New("source in use by a layer")
	ErrNoLayer      = errors.New("layer not found")
	ErrLayerExists  = errors.New("layer already exists")
)

// LayerSpec describes a style layer.
type LayerSpec struct {
	ID     string         `json:"id"`
	Type   string         `json:"type"`
	Source string         `json:"source"`
	Paint  map[string]any `json:"paint,omitempty"`
	Layout map[string]any `json:"layout,omitempty"`
	Filter []any          `json:"filter,omitempty"`
}

// Padding is screen-space inset in pixels.
type Padding struct {
	Top    float64 `json:"top" yaml:"top"`
	Bottom float64 `json:"bottom" yaml:"bottom"`
	Left   float64 `json:"left" yaml:"left"`
	Right  float64 `json:"right" yaml:"right"`
}

// CameraOptions control a camera transition.
type CameraOptions struct {
	Duration time.Duration `json:"-"`
	Zoom     float64       `json:"zoom,omitempty"`
	MaxZoom  float64       `json:"maxZoom,omitempty"`
	Offset   [2]float64    `json:"offset"`
}

// Engine is the subset of a vector map API the widget needs. Calls are made
// from the widget's loop goroutine only.
type Engine interface {
	AddSource(id string, data *geojson.FeatureCollection) error
	RemoveSource(id string) error
	HasSource(id string) bool
	SetSourceData(id string, data *geojson.FeatureCollection) error

	AddLayer(spec LayerSpec, beforeID string) error
	RemoveLayer(id string) error
	HasLayer(id string) bool
	LayerType(id string) (string, bool)
	MoveLayer(id, beforeID string) error

	SetPaintProperty(id, key string, value any) error
	SetLayoutProperty(id, key string, value any) error
	SetFilter(id string, filter []any) error

	AddImage(name string, svg []byte) error
	HasImage(name string) bool

	FitBounds(b orb.Bound, pad Padding, opts CameraOptions)
	FlyTo(center orb.Point, opts CameraOptions)
	Project(p orb.Point) orb.Point
	Zoom() float64
}
