// Package markersync links the video markers on the map to the video slide
// carousel. The link is one-directional: a marker click moves the carousel,
// a carousel swipe leaves the map alone.
package markersync

import (
	"log"
	"os"

	"github.com/joeblew999/typhoon-viz/internal/mapstore"
	"github.com/joeblew999/typhoon-viz/internal/selection"
	"github.com/joeblew999/typhoon-viz/internal/typhoon"
)

// SlideTarget is the carousel showing one slide per video marker.
type SlideTarget interface {
	SlideTo(index int)
}

// SlideFunc adapts a function to SlideTarget.
type SlideFunc func(index int)

func (f SlideFunc) SlideTo(index int) { f(index) }

// Markers resolves marker ordinals to the videos currently shown.
type Markers interface {
	Video(ordinal int) (typhoon.Video, bool)
}

// Bridge forwards marker clicks to the carousel. It runs on the session
// loop.
type Bridge struct {
	store   *mapstore.Store
	markers Markers
	target  SlideTarget
	log     *log.Logger
}

// Option configures a Bridge.
type Option func(*Bridge)

// WithLogger replaces the default stderr logger.
func WithLogger(l *log.Logger) Option {
	return func(b *Bridge) { b.log = l }
}

// New creates a bridge highlighting markers on store. The carousel is
// attached later, once the page has built it.
func New(store *mapstore.Store, markers Markers, opts ...Option) *Bridge {
	b := &Bridge{
		store:   store,
		markers: markers,
		log:     log.New(os.Stderr, "markersync: ", log.LstdFlags),
	}
	for _, o := range opts {
		o(b)
	}
	return b
}

// Attach connects the carousel.
func (b *Bridge) Attach(t SlideTarget) { b.target = t }

// Detach disconnects the carousel. Later clicks are dropped.
func (b *Bridge) Detach() { b.target = nil }

// OnMapMarkerClicked highlights the marker with the 1-based ordinal and
// focuses slide ordinal-1. Without a carousel the focus is dropped, not
// queued. It reports whether the carousel was moved.
func (b *Bridge) OnMapMarkerClicked(ordinal int) bool {
	if _, ok := b.markers.Video(ordinal); !ok {
		b.log.Printf("marker %d: no such video", ordinal)
		return false
	}
	b.store.SetActiveHighlight(selection.VideoMarkers, ordinal)
	if b.target == nil {
		b.log.Printf("marker %d: carousel not ready, dropped", ordinal)
		return false
	}
	b.target.SlideTo(ordinal - 1)
	return true
}

// OnSlideChanged is called when the carousel moves. The map does not
// follow the carousel.
func (b *Bridge) OnSlideChanged(index int) {}
