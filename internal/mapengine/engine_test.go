package mapengine

import (
	"encoding/json"
	"errors"
	"math"
	"testing"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

func pointsFC(pts ...orb.Point) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, p := range pts {
		fc.Append(geojson.NewFeature(p))
	}
	return fc
}

func TestRecorderLayerLifecycle(t *testing.T) {
	r := NewRecorder(1200, 800)

	if err := r.AddLayer(LayerSpec{ID: "a", Type: TypeLine, Source: "missing"}, ""); !errors.Is(err, ErrNoSource) {
		t.Fatalf("AddLayer without source: err=%v", err)
	}
	if err := r.AddSource("src", nil); err != nil {
		t.Fatal(err)
	}
	if err := r.AddSource("src", nil); !errors.Is(err, ErrSourceExists) {
		t.Errorf("duplicate source: err=%v", err)
	}

	for _, id := range []string{"a", "b", "c"} {
		if err := r.AddLayer(LayerSpec{ID: id, Type: TypeLine, Source: "src", Paint: map[string]any{"line-opacity": 1.0}}, ""); err != nil {
			t.Fatal(err)
		}
	}
	if err := r.AddLayer(LayerSpec{ID: "z", Type: TypeCircle, Source: "src"}, "b"); err != nil {
		t.Fatal(err)
	}
	want := []string{"a", "z", "b", "c"}
	got := r.Layers()
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("order=%v, want %v", got, want)
		}
	}

	if err := r.MoveLayer("a", ""); err != nil {
		t.Fatal(err)
	}
	if got := r.Layers(); got[len(got)-1] != "a" {
		t.Errorf("MoveLayer to top: %v", got)
	}

	if err := r.RemoveSource("src"); !errors.Is(err, ErrSourceInUse) {
		t.Errorf("RemoveSource in use: err=%v", err)
	}
	if err := r.SetPaintProperty("nope", "line-opacity", 0); !errors.Is(err, ErrNoLayer) {
		t.Errorf("paint on missing layer: err=%v", err)
	}
	if err := r.SetPaintProperty("b", "line-opacity", 0.5); err != nil {
		t.Fatal(err)
	}
	if v, _ := r.Paint("b", "line-opacity"); v != 0.5 {
		t.Errorf("line-opacity=%v, want 0.5", v)
	}
	if v, _ := r.Paint("c", "line-opacity"); v != 1.0 {
		t.Errorf("spec paint not copied: %v", v)
	}
	if typ, ok := r.LayerType("z"); !ok || typ != TypeCircle {
		t.Errorf("LayerType=%q,%v", typ, ok)
	}
}

func TestRecorderFitBoundsRespectsMaxZoom(t *testing.T) {
	r := NewRecorder(1200, 800)
	b := orb.Bound{Min: orb.Point{127.0, 35.0}, Max: orb.Point{127.01, 35.01}}
	r.FitBounds(b, Padding{Top: 80, Bottom: 80, Left: 80, Right: 400}, CameraOptions{MaxZoom: 8})
	if z := r.Camera().Zoom; z != 8 {
		t.Errorf("zoom=%v, want capped at 8", z)
	}

	wide := orb.Bound{Min: orb.Point{122, 26}, Max: orb.Point{134, 46}}
	r.FitBounds(wide, Padding{Top: 80, Bottom: 80, Left: 80, Right: 400}, CameraOptions{MaxZoom: 8})
	if z := r.Camera().Zoom; z >= 8 || z <= 0 {
		t.Errorf("zoom=%v, want between 0 and 8", z)
	}
	// Both corners land inside the padded area.
	for _, p := range []orb.Point{wide.Min, wide.Max} {
		px := r.Project(p)
		if px[0] < 79 || px[0] > 1200-399 || px[1] < 79 || px[1] > 800-79 {
			t.Errorf("corner %v projects to %v, outside padded viewport", p, px)
		}
	}
}

func TestRecorderFlyToCentersTarget(t *testing.T) {
	r := NewRecorder(1000, 600)
	target := orb.Point{129.0, 35.1}
	r.FlyTo(target, CameraOptions{Zoom: 6.5})
	px := r.Project(target)
	if math.Abs(px[0]-500) > 1e-6 || math.Abs(px[1]-300) > 1e-6 {
		t.Errorf("target projects to %v, want center", px)
	}

	r.FlyTo(target, CameraOptions{Zoom: 6.5, Offset: [2]float64{-200, 0}})
	px = r.Project(target)
	if math.Abs(px[0]-300) > 1e-6 {
		t.Errorf("offset target x=%v, want 300", px[0])
	}
}

func TestStreamPublishesOnlySuccessfulMutations(t *testing.T) {
	var cmds []Command
	s := NewStream(NewRecorder(800, 600), func(c Command) { cmds = append(cmds, c) })

	_ = s.AddSource("pts", pointsFC(orb.Point{127, 33}))
	_ = s.AddLayer(LayerSpec{ID: "pts", Type: TypeCircle, Source: "pts"}, "")
	_ = s.SetPaintProperty("missing", "circle-opacity", 0)
	_ = s.SetFilter("pts", []any{"==", "pointIndex", 1})
	s.FlyTo(orb.Point{127, 33}, CameraOptions{Zoom: 7})

	ops := []string{OpAddSource, OpAddLayer, OpSetFilter, OpFlyTo}
	if len(cmds) != len(ops) {
		t.Fatalf("got %d commands, want %d: %+v", len(cmds), len(ops), cmds)
	}
	for i, op := range ops {
		if cmds[i].Op != op {
			t.Errorf("cmd %d op=%q, want %q", i, cmds[i].Op, op)
		}
	}

	var replay []Command
	s.Replay(func(c Command) { replay = append(replay, c) })
	replayOps := []string{OpReset, OpAddSource, OpAddLayer, OpFlyTo}
	if len(replay) != len(replayOps) {
		t.Fatalf("replay emitted %d commands, want %d", len(replay), len(replayOps))
	}
	for i, op := range replayOps {
		if replay[i].Op != op {
			t.Errorf("replay %d op=%q, want %q", i, replay[i].Op, op)
		}
	}
	if f := replay[2].Layer.Filter; len(f) != 3 || f[2] != 1 {
		t.Errorf("replayed filter=%v", f)
	}
}

func TestReplayIsDetachedFromLaterMutations(t *testing.T) {
	s := NewStream(NewRecorder(800, 600), nil)
	_ = s.AddSource("route", pointsFC(orb.Point{127, 33}))
	_ = s.AddLayer(LayerSpec{
		ID:     "typhoon-route-0",
		Type:   TypeLine,
		Source: "route",
		Paint:  map[string]any{"line-opacity": 1},
		Layout: map[string]any{"visibility": "visible"},
	}, "")
	_ = s.SetFilter("typhoon-route-0", []any{"==", "pointIndex", 1})

	var replay []Command
	s.Replay(func(c Command) { replay = append(replay, c) })
	before, err := json.Marshal(replay)
	if err != nil {
		t.Fatal(err)
	}

	_ = s.SetPaintProperty("typhoon-route-0", "line-opacity", 0)
	_ = s.SetLayoutProperty("typhoon-route-0", "visibility", "none")
	_ = s.SetFilter("typhoon-route-0", []any{"==", "pointIndex", 2})

	after, err := json.Marshal(replay)
	if err != nil {
		t.Fatal(err)
	}
	if string(before) != string(after) {
		t.Errorf("replayed commands changed:\nbefore %s\nafter  %s", before, after)
	}
}
