// Package widget runs widget sessions. A session owns one browser page's
// state, its three maps and the controllers that drive them. Everything a
// session touches runs on its own loop goroutine; the exported methods post
// work onto that loop and wait for it.
package widget

import (
	"context"
	"log"
	"sync/atomic"
	"time"

	"github.com/joeblew999/typhoon-viz/internal/basemap"
	"github.com/joeblew999/typhoon-viz/internal/config"
	"github.com/joeblew999/typhoon-viz/internal/loop"
	"github.com/joeblew999/typhoon-viz/internal/mapengine"
	"github.com/joeblew999/typhoon-viz/internal/mapstore"
	"github.com/joeblew999/typhoon-viz/internal/markersync"
	"github.com/joeblew999/typhoon-viz/internal/selection"
	"github.com/joeblew999/typhoon-viz/internal/service"
	"github.com/joeblew999/typhoon-viz/internal/state"
	"github.com/joeblew999/typhoon-viz/internal/templates"
	"github.com/joeblew999/typhoon-viz/internal/typhoon"
)

// BasePath is the URL prefix of session resources.
const BasePath = "/api/v1/widget/sessions"

// SessionPath returns the URL of session id.
func SessionPath(id string) string { return BasePath + "/" + id }

var tabs = []state.Tab{state.TabMain, state.TabTop5, state.TabVideos}

// Click is a click on one of the session's maps.
type Click struct {
	Map        state.Tab
	Layer      string
	PointIndex int
	Ordinal    int
}

// View is a session's state and layers at one instant.
type View struct {
	State  state.Snapshot                       `json:"state"`
	Layers map[state.Tab][]mapstore.LayerHandle `json:"layers"`
}

// Session is one live widget.
type Session struct {
	ID   string
	Base string

	loop   *loop.Loop
	cancel context.CancelFunc
	bus    *service.EventBus
	log    *log.Logger

	// loop-owned
	sel     *state.Selection
	streams map[state.Tab]*mapengine.Stream
	maps    selection.Maps
	ctrl    *selection.Controller
	bridge  *markersync.Bridge
	ui      *busPresenter
	closed  bool

	viewers  atomic.Int32
	lastSeen atomic.Int64
}

type sessionDeps struct {
	cfg      config.Config
	data     *typhoon.Dataset
	renderer *templates.Renderer
	geo      *basemap.Geography
	log      *log.Logger
}

func newSession(ctx context.Context, id string, d sessionDeps, vp state.Viewport, now time.Time) (*Session, error) {
	lctx, cancel := context.WithCancel(context.Background())
	s := &Session{
		ID:      id,
		Base:    SessionPath(id),
		loop:    loop.New(d.cfg.FrameInterval),
		cancel:  cancel,
		bus:     service.NewEventBus(service.DefaultBuffer),
		log:     d.log,
		sel:     state.New(vp),
		streams: make(map[state.Tab]*mapengine.Stream, len(tabs)),
	}
	s.lastSeen.Store(now.UnixNano())
	for _, t := range tabs {
		name := string(t)
		s.streams[t] = mapengine.NewStream(mapengine.NewRecorder(vp.Width, vp.Height), func(c mapengine.Command) {
			s.bus.Publish(service.Event{Kind: service.KindMapCommand, Map: name, Command: c})
		})
	}
	s.maps = selection.Maps{
		Main:   mapstore.New(string(state.TabMain), s.streams[state.TabMain], &s.sel.Historical, mapstore.WithLogger(d.log)),
		Top5:   mapstore.New(string(state.TabTop5), s.streams[state.TabTop5], nil, mapstore.WithLogger(d.log)),
		Videos: mapstore.New(string(state.TabVideos), s.streams[state.TabVideos], &s.sel.Video, mapstore.WithLogger(d.log)),
	}
	s.ui = newBusPresenter(s.bus, d.renderer, s.Base, d.log)
	s.ctrl = selection.New(d.cfg, d.data, s.sel, s.maps, s.loop,
		selection.WithPresenter(s.ui),
		selection.WithBaseMap(d.geo),
		selection.WithLogger(d.log),
	)
	s.bridge = markersync.New(s.maps.Videos, s.ctrl, markersync.WithLogger(d.log))

	go s.loop.Run(lctx)

	var initErr error
	if err := s.loop.Do(ctx, func() { initErr = s.ctrl.Init() }); err != nil {
		cancel()
		return nil, err
	}
	if initErr != nil {
		s.Close()
		return nil, initErr
	}
	return s, nil
}

func (s *Session) do(ctx context.Context, fn func()) error {
	return s.loop.Do(ctx, func() {
		if !s.closed {
			fn()
		}
	})
}

func (s *Session) touch(now time.Time) { s.lastSeen.Store(now.UnixNano()) }

// LastSeen returns when the session was last used.
func (s *Session) LastSeen() time.Time { return time.Unix(0, s.lastSeen.Load()) }

// Viewers returns the number of connected event streams.
func (s *Session) Viewers() int { return int(s.viewers.Load()) }

// Select applies a dropdown or button change.
func (s *Session) Select(ctx context.Context, selectID, value string) error {
	return s.do(ctx, func() { s.ctrl.OnSelect(selectID, value) })
}

// Click routes a map click. Clicks on the main map open the point popup;
// clicks on a video marker focus its slide.
func (s *Session) Click(ctx context.Context, c Click) error {
	return s.do(ctx, func() {
		switch c.Map {
		case state.TabMain:
			s.ctrl.OnMainClick(c.Layer, c.PointIndex)
		case state.TabVideos:
			if isVideoMarker(c.Layer) {
				s.bridge.OnMapMarkerClicked(c.Ordinal)
			}
		}
	})
}

func isVideoMarker(layer string) bool {
	switch layer {
	case selection.VideoMarkers, selection.VideoMarkersActive, selection.VideoMarkersLabels:
		return true
	}
	return false
}

// Viewport records the browser's map size and refits the maps.
func (s *Session) Viewport(ctx context.Context, vp state.Viewport) error {
	return s.do(ctx, func() {
		for _, st := range s.streams {
			st.Resize(vp.Width, vp.Height)
		}
		s.ctrl.OnViewport(vp)
	})
}

// ClosePopup hides the point popup.
func (s *Session) ClosePopup(ctx context.Context) error {
	return s.do(ctx, s.ctrl.ClosePopup)
}

// ImageMissing registers a placeholder for an icon the browser map lacks.
func (s *Session) ImageMissing(ctx context.Context, t state.Tab, name string) error {
	return s.do(ctx, func() { s.ctrl.OnImageMissing(t, name) })
}

// SwitchTab shows another panel.
func (s *Session) SwitchTab(ctx context.Context, t state.Tab) error {
	return s.do(ctx, func() { s.ctrl.SwitchTab(t) })
}

// View returns the session state and the layers of every map.
func (s *Session) View(ctx context.Context) (View, error) {
	var v View
	err := s.do(ctx, func() {
		v.State = s.sel.Snapshot()
		v.Layers = make(map[state.Tab][]mapstore.LayerHandle, len(tabs))
		for _, t := range tabs {
			v.Layers[t] = s.maps.Store(t).Layers()
		}
	})
	return v, err
}

// Connect subscribes to the session's events. The returned events rebuild
// the page as it is now; everything published afterwards arrives on the
// subscription.
func (s *Session) Connect(ctx context.Context) (*service.Subscription, []service.Event, error) {
	var (
		sub    *service.Subscription
		replay []service.Event
	)
	err := s.do(ctx, func() {
		sub = s.bus.Subscribe()
		replay = s.snapshot()
		if s.viewers.Add(1) == 1 {
			s.bridge.Attach(markersync.SlideFunc(func(i int) {
				s.bus.Publish(service.Event{Kind: service.KindSlideTo, Index: i})
			}))
		}
	})
	switch {
	case err != nil && sub != nil:
		s.Disconnect(sub)
		return nil, nil, err
	case err == nil && sub == nil:
		return nil, nil, loop.ErrClosed
	}
	return sub, replay, err
}

// Resync discards what is queued on sub and returns the events that rebuild
// the page. Call it after sub dropped events.
func (s *Session) Resync(ctx context.Context, sub *service.Subscription) ([]service.Event, error) {
	var replay []service.Event
	err := s.do(ctx, func() {
		for len(sub.C) > 0 {
			<-sub.C
		}
		sub.TakeDropped()
		replay = s.snapshot()
	})
	return replay, err
}

// Disconnect ends a subscription from Connect.
func (s *Session) Disconnect(sub *service.Subscription) {
	s.bus.Unsubscribe(sub)
	s.loop.Do(context.Background(), func() {
		if s.viewers.Add(-1) == 0 {
			s.bridge.Detach()
		}
	})
}

// snapshot runs on the loop.
func (s *Session) snapshot() []service.Event {
	var events []service.Event
	for _, t := range tabs {
		st := s.streams[t]
		if len(st.Layers()) == 0 && st.Zoom() == 0 {
			continue
		}
		name := string(t)
		st.Replay(func(c mapengine.Command) {
			events = append(events, service.Event{Kind: service.KindMapCommand, Map: name, Command: c})
		})
	}
	return append(events, s.ui.replay()...)
}

// Done is closed once the session has shut down.
func (s *Session) Done() <-chan struct{} { return s.loop.Done() }

// Close stops the session's animations and its loop. Subscribers see their
// channels closed.
func (s *Session) Close() {
	s.loop.Do(context.Background(), func() {
		if s.closed {
			return
		}
		s.closed = true
		s.ctrl.Close()
	})
	s.cancel()
	<-s.loop.Done()
	s.bus.Close()
}
