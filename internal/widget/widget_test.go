package widget

import (
	"context"
	"errors"
	"io"
	"log"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/joeblew999/typhoon-viz/internal/config"
	"github.com/joeblew999/typhoon-viz/internal/mapengine"
	"github.com/joeblew999/typhoon-viz/internal/selection"
	"github.com/joeblew999/typhoon-viz/internal/service"
	"github.com/joeblew999/typhoon-viz/internal/state"
	"github.com/joeblew999/typhoon-viz/internal/templates"
	"github.com/joeblew999/typhoon-viz/internal/typhoon"
)

var desktop = state.Viewport{Width: 1280, Height: 800}

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newRegistry(t *testing.T, opts ...Option) *Registry {
	t.Helper()
	data, err := typhoon.Default()
	if err != nil {
		t.Fatal(err)
	}
	r, err := templates.New()
	if err != nil {
		t.Fatal(err)
	}
	reg := NewRegistry(config.Default(), data, r, append([]Option{WithLogger(log.New(io.Discard, "", 0))}, opts...)...)
	t.Cleanup(reg.Close)
	return reg
}

// waitFor reads sub until match accepts an event.
func waitFor(t *testing.T, sub *service.Subscription, what string, match func(service.Event) bool) service.Event {
	t.Helper()
	timeout := time.After(3 * time.Second)
	for {
		select {
		case e, ok := <-sub.C:
			if !ok {
				t.Fatalf("%s: subscription closed", what)
			}
			if match(e) {
				return e
			}
		case <-timeout:
			t.Fatalf("%s: timed out", what)
		}
	}
}

func patchOf(selector string) func(service.Event) bool {
	return func(e service.Event) bool {
		return e.Kind == service.KindPatch && e.Selector == selector
	}
}

func TestConnectReplaysMainMap(t *testing.T) {
	ctx := context.Background()
	reg := newRegistry(t)
	s, err := reg.Create(ctx, desktop)
	if err != nil {
		t.Fatal(err)
	}
	if s.Base != "/api/v1/widget/sessions/"+s.ID {
		t.Errorf("base=%s", s.Base)
	}

	sub, replay, err := s.Connect(ctx)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Disconnect(sub)
	if len(replay) == 0 {
		t.Fatal("empty replay")
	}
	first := replay[0]
	if first.Kind != service.KindMapCommand || first.Map != "main" || first.Command.Op != mapengine.OpReset {
		t.Errorf("first replay event=%+v", first)
	}
	for _, e := range replay {
		if e.Map == "top5" || e.Map == "videos" {
			t.Errorf("replayed %s map before it was shown", e.Map)
		}
	}
	if s.Viewers() != 1 {
		t.Errorf("viewers=%d", s.Viewers())
	}
}

func TestVideoMarkerClickSlides(t *testing.T) {
	ctx := context.Background()
	reg := newRegistry(t)
	s, err := reg.Create(ctx, desktop)
	if err != nil {
		t.Fatal(err)
	}
	sub, _, err := s.Connect(ctx)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Disconnect(sub)

	if err := s.SwitchTab(ctx, state.TabVideos); err != nil {
		t.Fatal(err)
	}
	e := waitFor(t, sub, "video slides", patchOf(SelectorVideos))
	if n := strings.Count(e.HTML, "data-index="); n != 3 {
		t.Errorf("approaching slides=%d, want 3", n)
	}

	if err := s.Click(ctx, Click{Map: state.TabVideos, Layer: selection.VideoMarkers, Ordinal: 2}); err != nil {
		t.Fatal(err)
	}
	e = waitFor(t, sub, "slide-to", func(e service.Event) bool { return e.Kind == service.KindSlideTo })
	if e.Index != 1 {
		t.Errorf("slide index=%d, want 1", e.Index)
	}

	v, err := s.View(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if v.State.Tab != state.TabVideos {
		t.Errorf("state=%+v", v.State)
	}
	found := false
	for _, h := range v.Layers[state.TabVideos] {
		if h.ID == selection.VideoMarkers {
			found = true
		}
	}
	if !found {
		t.Errorf("videos layers=%+v", v.Layers[state.TabVideos])
	}

	// Clicks elsewhere on the videos map are ignored.
	if err := s.Click(ctx, Click{Map: state.TabVideos, Layer: "land", Ordinal: 1}); err != nil {
		t.Fatal(err)
	}
}

func TestResyncRebuildsPanels(t *testing.T) {
	ctx := context.Background()
	reg := newRegistry(t)
	s, err := reg.Create(ctx, desktop)
	if err != nil {
		t.Fatal(err)
	}
	sub, _, err := s.Connect(ctx)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Disconnect(sub)

	if err := s.Select(ctx, selection.SelectRanking, "damage"); err != nil {
		t.Fatal(err)
	}
	replay, err := s.Resync(ctx, sub)
	if err != nil {
		t.Fatal(err)
	}
	var list string
	maps := map[string]bool{}
	for _, e := range replay {
		switch e.Kind {
		case service.KindPatch:
			if e.Selector == SelectorTop5List {
				list = e.HTML
			}
		case service.KindMapCommand:
			maps[e.Map] = true
		}
	}
	if strings.Count(list, "cnt-top5-list__item") != typhoon.TopN || !strings.Contains(list, "1위") {
		t.Errorf("top5 list=%q", list)
	}
	if !maps["main"] || !maps["top5"] {
		t.Errorf("replayed maps=%v", maps)
	}
	if sub.TakeDropped() != 0 {
		t.Error("drop count not reset")
	}
}

func TestPopupOpensAndCloses(t *testing.T) {
	ctx := context.Background()
	reg := newRegistry(t)
	s, err := reg.Create(ctx, desktop)
	if err != nil {
		t.Fatal(err)
	}
	sub, _, err := s.Connect(ctx)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Disconnect(sub)

	if err := s.Select(ctx, selection.SelectTyphoon, "0"); err != nil {
		t.Fatal(err)
	}
	e := waitFor(t, sub, "info panel", patchOf(SelectorInfo))
	if !strings.Contains(e.HTML, "년") {
		t.Errorf("info=%q", e.HTML)
	}

	if err := s.ClosePopup(ctx); err != nil {
		t.Fatal(err)
	}
	v, err := s.View(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if v.State.PopupOpen {
		t.Error("popup still open")
	}
	if v.State.ActiveHistoricalIndex == nil || *v.State.ActiveHistoricalIndex != 0 {
		t.Errorf("active historical=%v", v.State.ActiveHistoricalIndex)
	}
}

func TestSweepExpiresIdleSessions(t *testing.T) {
	ctx := context.Background()
	c := &clock{now: time.Unix(1000, 0)}
	reg := newRegistry(t, WithClock(c.Now))
	idle, err := reg.Create(ctx, desktop)
	if err != nil {
		t.Fatal(err)
	}
	watched, err := reg.Create(ctx, desktop)
	if err != nil {
		t.Fatal(err)
	}
	sub, _, err := watched.Connect(ctx)
	if err != nil {
		t.Fatal(err)
	}

	if n := reg.Sweep(); n != 0 {
		t.Fatalf("swept %d fresh sessions", n)
	}
	c.Advance(config.Default().SessionTTL + time.Second)
	if n := reg.Sweep(); n != 1 {
		t.Fatalf("swept %d, want 1", n)
	}
	if _, err := reg.Get(idle.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("idle session still reachable: %v", err)
	}
	select {
	case <-idle.Done():
	case <-time.After(3 * time.Second):
		t.Error("idle session loop still running")
	}
	if _, err := reg.Get(watched.ID); err != nil {
		t.Errorf("watched session swept: %v", err)
	}

	if err := reg.Delete(watched.ID); err != nil {
		t.Fatal(err)
	}
	for range sub.C {
	}
	if reg.Len() != 0 {
		t.Errorf("len=%d", reg.Len())
	}
	if err := reg.Delete(watched.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("second delete=%v", err)
	}
	if err := watched.Select(ctx, selection.SelectRanking, "wind"); err == nil {
		t.Error("closed session accepted work")
	}
}
