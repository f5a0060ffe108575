package markersync

import (
	"io"
	"log"
	"reflect"
	"testing"

	"github.com/paulmach/orb"

	"github.com/joeblew999/typhoon-viz/internal/mapengine"
	"github.com/joeblew999/typhoon-viz/internal/mapstore"
	"github.com/joeblew999/typhoon-viz/internal/selection"
	"github.com/joeblew999/typhoon-viz/internal/state"
	"github.com/joeblew999/typhoon-viz/internal/typhoon"
)

type videoList []typhoon.Video

func (v videoList) Video(ordinal int) (typhoon.Video, bool) {
	if ordinal < 1 || ordinal > len(v) {
		return typhoon.Video{}, false
	}
	return v[ordinal-1], true
}

func newBridge(t *testing.T) (*Bridge, *mapengine.Recorder) {
	t.Helper()
	quiet := log.New(io.Discard, "", 0)
	videos := typhoon.FilterVideos([]typhoon.Video{
		{Category: typhoon.Approaching, Position: orb.Point{126, 33}},
		{Category: typhoon.Approaching, Position: orb.Point{127, 34}},
		{Category: typhoon.Approaching, Position: orb.Point{128, 35}},
	}, typhoon.Approaching)

	rec := mapengine.NewRecorder(800, 600)
	hl := &state.Highlight{}
	hl.Clear()
	s := mapstore.New("videos", rec, hl, mapstore.WithLogger(quiet))
	if _, err := s.EnsureLayer(selection.VideoMarkers, mapstore.Points, "", mapstore.Style{Type: mapengine.TypeCircle}, selection.VideoFeatures(videos)); err != nil {
		t.Fatal(err)
	}
	active := mapstore.Style{
		Type:          mapengine.TypeCircle,
		Filter:        []any{"==", "number", state.NoHighlight},
		HighlightProp: "number",
	}
	if _, err := s.EnsureLayer(selection.VideoMarkersActive, mapstore.ActiveHighlight, selection.VideoMarkers, active, nil); err != nil {
		t.Fatal(err)
	}
	return New(s, videoList(videos), WithLogger(quiet)), rec
}

func TestMarkerClickFocusesSlide(t *testing.T) {
	b, rec := newBridge(t)
	var slides []int
	b.Attach(SlideFunc(func(i int) { slides = append(slides, i) }))

	if !b.OnMapMarkerClicked(3) {
		t.Fatal("click not forwarded")
	}
	if !reflect.DeepEqual(slides, []int{2}) {
		t.Errorf("slides=%v, want [2]", slides)
	}
	f, _ := rec.Filter(selection.VideoMarkersActive)
	if !reflect.DeepEqual(f, []any{"==", "number", 3}) {
		t.Errorf("highlight filter=%v", f)
	}
}

func TestClickWithoutCarouselIsDropped(t *testing.T) {
	b, _ := newBridge(t)
	if b.OnMapMarkerClicked(1) {
		t.Error("click forwarded without a carousel")
	}

	// attaching later does not replay the dropped click
	var slides []int
	b.Attach(SlideFunc(func(i int) { slides = append(slides, i) }))
	if len(slides) != 0 {
		t.Errorf("queued slides=%v", slides)
	}

	b.Detach()
	if b.OnMapMarkerClicked(2) {
		t.Error("click forwarded after detach")
	}
}

func TestInvalidOrdinal(t *testing.T) {
	b, rec := newBridge(t)
	var slides []int
	b.Attach(SlideFunc(func(i int) { slides = append(slides, i) }))
	for _, ord := range []int{0, -1, 4} {
		if b.OnMapMarkerClicked(ord) {
			t.Errorf("ordinal %d forwarded", ord)
		}
	}
	if len(slides) != 0 {
		t.Errorf("slides=%v", slides)
	}
	f, _ := rec.Filter(selection.VideoMarkersActive)
	if !reflect.DeepEqual(f, []any{"==", "number", state.NoHighlight}) {
		t.Errorf("filter changed: %v", f)
	}
}

func TestSlideChangeLeavesMapAlone(t *testing.T) {
	b, rec := newBridge(t)
	b.Attach(SlideFunc(func(int) {}))
	b.OnMapMarkerClicked(1)
	b.OnSlideChanged(2)
	f, _ := rec.Filter(selection.VideoMarkersActive)
	if !reflect.DeepEqual(f, []any{"==", "number", 1}) {
		t.Errorf("slide change moved the highlight: %v", f)
	}
}
