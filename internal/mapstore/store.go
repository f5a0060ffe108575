// Package mapstore owns the layers the widget creates on a map engine. It is
// the single creation path for layers and sources, guards every mutation
// with an existence check, and enforces the one-highlight rule.
package mapstore

import (
	"log"
	"os"
	"slices"
	"strings"

	"github.com/paulmach/orb/geojson"

	"github.com/joeblew999/typhoon-viz/internal/mapengine"
	"github.com/joeblew999/typhoon-viz/internal/state"
)

// Kind classifies a layer.
type Kind string

const (
	Route           Kind = "route"
	Points          Kind = "points"
	ActiveHighlight Kind = "active-highlight"
	WindRadius      Kind = "wind-radius"
	ProbabilityCone Kind = "probability-cone"
	Label           Kind = "label"
	Base            Kind = "base"
)

// Style is the look of a layer.
type Style struct {
	Type   string
	Paint  map[string]any
	Layout map[string]any
	Filter []any
	// HighlightProp is the feature property an ActiveHighlight layer
	// filters on.
	HighlightProp string
}

// LayerHandle is the store's record of a layer it created.
type LayerHandle struct {
	ID            string  `json:"id"`
	Kind          Kind    `json:"kind"`
	Type          string  `json:"type"`
	SourceRef     string  `json:"source"`
	Visible       bool    `json:"visible"`
	OpacityTarget float64 `json:"opacity"`
	Interactive   bool    `json:"interactive"`
	HighlightProp string  `json:"highlightProp,omitempty"`
}

// Store manages the layers of one map.
type Store struct {
	name   string
	engine mapengine.Engine
	hl     *state.Highlight
	log    *log.Logger

	layers map[string]*LayerHandle
	order  []string
}

// Option configures a Store.
type Option func(*Store)

// WithLogger replaces the default stderr logger.
func WithLogger(l *log.Logger) Option {
	return func(s *Store) { s.log = l }
}

// New creates a store for the map named name. hl is the highlight slot the
// store's point layers share; nil gives the store a private one.
func New(name string, e mapengine.Engine, hl *state.Highlight, opts ...Option) *Store {
	if hl == nil {
		hl = &state.Highlight{}
		hl.Clear()
	}
	s := &Store{
		name:   name,
		engine: e,
		hl:     hl,
		log:    log.New(os.Stderr, "mapstore["+name+"]: ", log.LstdFlags),
		layers: make(map[string]*LayerHandle),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Name returns the map name.
func (s *Store) Name() string { return s.name }

// Engine returns the underlying map engine.
func (s *Store) Engine() mapengine.Engine { return s.engine }

// EnsureLayer creates layer id drawing from source (id when empty) if it
// does not exist yet. The source is created with data when missing. An
// existing layer is left untouched.
func (s *Store) EnsureLayer(id string, kind Kind, source string, style Style, data *geojson.FeatureCollection) (LayerHandle, error) {
	if h, ok := s.layers[id]; ok && s.engine.HasLayer(id) {
		return *h, nil
	}
	if source == "" {
		source = id
	}
	if !s.engine.HasSource(source) {
		if err := s.engine.AddSource(source, data); err != nil {
			return LayerHandle{}, err
		}
	}
	if !s.engine.HasLayer(id) {
		spec := mapengine.LayerSpec{
			ID:     id,
			Type:   style.Type,
			Source: source,
			Paint:  style.Paint,
			Layout: style.Layout,
			Filter: style.Filter,
		}
		if err := s.engine.AddLayer(spec, ""); err != nil {
			return LayerHandle{}, err
		}
	}

	h := &LayerHandle{
		ID:            id,
		Kind:          kind,
		Type:          style.Type,
		SourceRef:     source,
		Visible:       style.Layout["visibility"] != "none",
		OpacityTarget: initialOpacity(style),
		Interactive:   kind == Points && style.Layout["visibility"] != "none",
		HighlightProp: style.HighlightProp,
	}
	s.layers[id] = h
	if !slices.Contains(s.order, id) {
		s.order = append(s.order, id)
	}
	return *h, nil
}

func initialOpacity(st Style) float64 {
	for _, key := range opacityKeys(st.Type) {
		if v, ok := st.Paint[key].(float64); ok {
			return v
		}
	}
	return 1
}

// opacityKeys lists the paint properties that make up a layer's opacity.
func opacityKeys(layerType string) []string {
	switch layerType {
	case mapengine.TypeLine:
		return []string{"line-opacity"}
	case mapengine.TypeCircle:
		return []string{"circle-opacity", "circle-stroke-opacity"}
	case mapengine.TypeFill:
		return []string{"fill-opacity"}
	case mapengine.TypeSymbol:
		return []string{"icon-opacity", "text-opacity"}
	}
	return nil
}

// lookup returns the handle for id if both the store and the engine still
// know the layer.
func (s *Store) lookup(op, id string) (*LayerHandle, bool) {
	h, ok := s.layers[id]
	if !ok || !s.engine.HasLayer(id) {
		s.log.Printf("%s %s: no such layer", op, id)
		return nil, false
	}
	return h, true
}

// HasLayer reports whether the store owns a live layer id.
func (s *Store) HasLayer(id string) bool {
	_, ok := s.layers[id]
	return ok && s.engine.HasLayer(id)
}

// SetData replaces the data of the source behind layer id. It reports
// whether the data was applied; a missing layer or source is logged and
// ignored.
func (s *Store) SetData(id string, data *geojson.FeatureCollection) bool {
	h, ok := s.lookup("setData", id)
	if !ok {
		return false
	}
	if !s.engine.HasSource(h.SourceRef) {
		s.log.Printf("setData %s: source %s is gone", id, h.SourceRef)
		return false
	}
	if err := s.engine.SetSourceData(h.SourceRef, data); err != nil {
		s.log.Printf("setData %s: %v", id, err)
		return false
	}
	return true
}

// SetVisible shows or hides a layer.
func (s *Store) SetVisible(id string, visible bool) {
	h, ok := s.lookup("setVisible", id)
	if !ok || h.Visible == visible {
		return
	}
	v := "none"
	if visible {
		v = "visible"
	}
	if err := s.engine.SetLayoutProperty(id, "visibility", v); err != nil {
		s.log.Printf("setVisible %s: %v", id, err)
		return
	}
	h.Visible = visible
}

// SetOpacity sets every opacity paint property of the layer's type.
func (s *Store) SetOpacity(id string, opacity float64) {
	h, ok := s.lookup("setOpacity", id)
	if !ok || h.OpacityTarget == opacity {
		return
	}
	for _, key := range opacityKeys(h.Type) {
		if err := s.engine.SetPaintProperty(id, key, opacity); err != nil {
			s.log.Printf("setOpacity %s: %v", id, err)
			return
		}
	}
	h.OpacityTarget = opacity
}

// SetInteractive enables or disables clicks on a layer. The engine has no
// hit-test switch, so a disabled layer is also hidden.
func (s *Store) SetInteractive(id string, on bool) {
	h, ok := s.lookup("setInteractive", id)
	if !ok {
		return
	}
	h.Interactive = on
	s.SetVisible(id, on)
}

// Interactive reports whether clicks on layer id should be handled.
func (s *Store) Interactive(id string) bool {
	h, ok := s.layers[id]
	return ok && h.Interactive && h.Visible && s.engine.HasLayer(id)
}

// SetPaint sets a paint property on a live layer.
func (s *Store) SetPaint(id, key string, value any) {
	if _, ok := s.lookup("setPaint", id); !ok {
		return
	}
	if err := s.engine.SetPaintProperty(id, key, value); err != nil {
		s.log.Printf("setPaint %s.%s: %v", id, key, err)
	}
}

// SetLayout sets a layout property on a live layer.
func (s *Store) SetLayout(id, key string, value any) {
	if _, ok := s.lookup("setLayout", id); !ok {
		return
	}
	if err := s.engine.SetLayoutProperty(id, key, value); err != nil {
		s.log.Printf("setLayout %s.%s: %v", id, key, err)
	}
}

// HighlightLayerID returns the highlight layer paired with a points layer.
func HighlightLayerID(owner string) string { return owner + "-active" }

// HighlightOwner returns the points layer a highlight layer belongs to.
func HighlightOwner(id string) (string, bool) {
	return strings.CutSuffix(id, "-active")
}

func (s *Store) setHighlightFilter(owner string, index int) bool {
	id := HighlightLayerID(owner)
	h, ok := s.lookup("highlight", id)
	if !ok {
		return false
	}
	prop := h.HighlightProp
	if prop == "" {
		prop = "pointIndex"
	}
	if err := s.engine.SetFilter(id, []any{"==", prop, index}); err != nil {
		s.log.Printf("highlight %s: %v", id, err)
		return false
	}
	return true
}

// SetActiveHighlight highlights point index of owner, a points layer, and
// clears any other highlight first. index NoHighlight clears owner.
func (s *Store) SetActiveHighlight(owner string, index int) {
	prev, _, had := s.hl.Get()
	if index == state.NoHighlight {
		if had && prev == owner {
			s.setHighlightFilter(owner, state.NoHighlight)
			s.hl.Clear()
		}
		return
	}
	if !s.HasLayer(HighlightLayerID(owner)) {
		s.log.Printf("highlight %s: no highlight layer", owner)
		return
	}
	if had && prev != owner {
		s.setHighlightFilter(prev, state.NoHighlight)
		s.hl.Clear()
	}
	if s.setHighlightFilter(owner, index) {
		s.hl.Set(owner, index)
	}
}

// ClearHighlight clears whatever is highlighted.
func (s *Store) ClearHighlight() {
	if owner, _, ok := s.hl.Get(); ok {
		s.SetActiveHighlight(owner, state.NoHighlight)
	}
}

// Highlight returns the highlighted point index of owner.
func (s *Store) Highlight(owner string) (int, bool) {
	o, idx, ok := s.hl.Get()
	if !ok || o != owner {
		return state.NoHighlight, false
	}
	return idx, true
}

// EnsureImage registers an icon unless the engine already has it.
func (s *Store) EnsureImage(name string, svg []byte) {
	if s.engine.HasImage(name) {
		return
	}
	if err := s.engine.AddImage(name, svg); err != nil {
		s.log.Printf("addImage %s: %v", name, err)
	}
}

// Remove deletes a layer, and its source once no other layer uses it.
func (s *Store) Remove(id string) {
	h, ok := s.layers[id]
	if !ok {
		return
	}
	if owner, _, hl := s.hl.Get(); hl && HighlightLayerID(owner) == id {
		s.hl.Clear()
	}
	if s.engine.HasLayer(id) {
		if err := s.engine.RemoveLayer(id); err != nil {
			s.log.Printf("remove %s: %v", id, err)
		}
	}
	delete(s.layers, id)
	if i := slices.Index(s.order, id); i >= 0 {
		s.order = slices.Delete(s.order, i, i+1)
	}
	for _, other := range s.layers {
		if other.SourceRef == h.SourceRef {
			return
		}
	}
	if s.engine.HasSource(h.SourceRef) {
		if err := s.engine.RemoveSource(h.SourceRef); err != nil {
			s.log.Printf("remove source %s: %v", h.SourceRef, err)
		}
	}
}

// Teardown removes every layer the store created, newest first.
func (s *Store) Teardown() {
	for i := len(s.order) - 1; i >= 0; i-- {
		s.Remove(s.order[i])
	}
}

// Layers returns the handles in creation order.
func (s *Store) Layers() []LayerHandle {
	out := make([]LayerHandle, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, *s.layers[id])
	}
	return out
}

// Handle returns the handle of layer id.
func (s *Store) Handle(id string) (LayerHandle, bool) {
	h, ok := s.layers[id]
	if !ok {
		return LayerHandle{}, false
	}
	return *h, true
}
