// Package selection turns user selections into map changes: it fades and
// redraws historical tracks, rebuilds the Top-5 ranking and the video
// markers, and drives the detail popup.
package selection

import (
	"log"
	"math"
	"os"
	"strconv"
	"time"

	"github.com/paulmach/orb"

	"github.com/joeblew999/typhoon-viz/internal/animator"
	"github.com/joeblew999/typhoon-viz/internal/basemap"
	"github.com/joeblew999/typhoon-viz/internal/config"
	"github.com/joeblew999/typhoon-viz/internal/geometry"
	"github.com/joeblew999/typhoon-viz/internal/icons"
	"github.com/joeblew999/typhoon-viz/internal/loop"
	"github.com/joeblew999/typhoon-viz/internal/mapengine"
	"github.com/joeblew999/typhoon-viz/internal/mapstore"
	"github.com/joeblew999/typhoon-viz/internal/state"
	"github.com/joeblew999/typhoon-viz/internal/typhoon"
)

// Dropdown ids.
const (
	SelectTyphoon       = "typhoon-select"
	SelectRanking       = "ranking-type-select"
	SelectVideoCategory = "video-category-select"
	SelectVideoTyphoon  = "video-typhoon-select"
)

// Maps holds the layer store of each panel's map.
type Maps struct {
	Main   *mapstore.Store
	Top5   *mapstore.Store
	Videos *mapstore.Store
}

// Store returns the store of the map shown on tab.
func (m Maps) Store(t state.Tab) *mapstore.Store {
	switch t {
	case state.TabTop5:
		return m.Top5
	case state.TabVideos:
		return m.Videos
	}
	return m.Main
}

var tabs = []state.Tab{state.TabMain, state.TabTop5, state.TabVideos}

// Controller reacts to selections on one widget session. All methods run on
// the session loop.
type Controller struct {
	cfg   config.Config
	data  *typhoon.Dataset
	sel   *state.Selection
	maps  Maps
	sched loop.Scheduler
	anim  *animator.Animator
	ui    Presenter
	geo   *basemap.Geography
	log   *log.Logger

	ready map[state.Tab]bool

	// Timers capture a generation and do nothing once it has moved on.
	historicalGen int
	popupGen      int
	top5Gen       int

	top5Count   int
	videos      []typhoon.Video
	videosShown bool
	eyeAngle    float64
	closed      bool
}

// Option configures a Controller.
type Option func(*Controller)

// WithPresenter sets the panel renderer.
func WithPresenter(p Presenter) Option {
	return func(c *Controller) { c.ui = p }
}

// WithBaseMap sets the backdrop drawn under every map. Without it the maps
// have no backdrop.
func WithBaseMap(g *basemap.Geography) Option {
	return func(c *Controller) { c.geo = g }
}

// WithAnimator shares an animator instead of creating one.
func WithAnimator(a *animator.Animator) Option {
	return func(c *Controller) { c.anim = a }
}

// WithLogger replaces the default stderr logger.
func WithLogger(l *log.Logger) Option {
	return func(c *Controller) { c.log = l }
}

// New creates a controller. Call Init before anything else.
func New(cfg config.Config, data *typhoon.Dataset, sel *state.Selection, maps Maps, sched loop.Scheduler, opts ...Option) *Controller {
	c := &Controller{
		cfg:   cfg,
		data:  data,
		sel:   sel,
		maps:  maps,
		sched: sched,
		ui:    nopPresenter{},
		log:   log.New(os.Stderr, "selection: ", log.LstdFlags),
		ready: make(map[state.Tab]bool),
	}
	for _, o := range opts {
		o(c)
	}
	if c.anim == nil {
		metric, err := geometry.MetricByName(cfg.Metric)
		if err != nil {
			c.log.Printf("%v, using planar", err)
		}
		c.anim = animator.New(sched, metric)
	}
	return c
}

// Animator returns the animator drawing the tracks.
func (c *Controller) Animator() *animator.Animator { return c.anim }

// Init draws the main map. The other maps are drawn the first time their
// tab is shown.
func (c *Controller) Init() error {
	return c.ensureMap(state.TabMain)
}

func (c *Controller) zoom(t state.Tab) config.Zoom {
	switch t {
	case state.TabTop5:
		return c.cfg.Zooms.Top5
	case state.TabVideos:
		return c.cfg.Zooms.Videos
	}
	return c.cfg.Zooms.Main
}

func (c *Controller) mobile() bool {
	return c.cfg.IsMobile(c.sel.Viewport().Width)
}

func (c *Controller) center() orb.Point {
	return orb.Point{c.cfg.Center[0], c.cfg.Center[1]}
}

func (c *Controller) ensureMap(t state.Tab) error {
	if c.ready[t] {
		return nil
	}
	c.ready[t] = true
	s := c.maps.Store(t)

	if err := basemap.Apply(s, c.geo, c.cfg.BaseMap); err != nil {
		c.log.Printf("%s map: %v", t, err)
	}
	s.Engine().FlyTo(c.center(), mapengine.CameraOptions{Zoom: c.zoom(t).For(c.mobile())})

	if t != state.TabMain {
		return nil
	}
	for _, g := range icons.All() {
		s.EnsureImage(g.Name, g.SVG)
	}
	if a := c.data.Current; a != nil {
		if err := addCurrent(s, a, c.cfg); err != nil {
			return err
		}
		if c.cfg.Current.EyeRotation {
			c.sched.RequestFrame(c.rotateEye)
		}
	}
	for i := range c.data.Historical {
		if err := addHistorical(s, &c.data.Historical[i]); err != nil {
			return err
		}
	}
	return nil
}

func (c *Controller) rotateEye(time.Time) {
	if c.closed || !c.maps.Main.HasLayer(CurrentEye) {
		return
	}
	c.eyeAngle = math.Mod(c.eyeAngle+c.cfg.Current.EyeRotationStep, 360)
	c.maps.Main.SetLayout(CurrentEye, "icon-rotate", c.eyeAngle)
	c.sched.RequestFrame(c.rotateEye)
}

// OnSelect handles a dropdown choice. Invalid values are logged and
// ignored.
func (c *Controller) OnSelect(selectID, value string) {
	switch selectID {
	case SelectTyphoon, SelectVideoTyphoon:
		i, err := strconv.Atoi(value)
		if err != nil {
			c.log.Printf("%s: bad index %q", selectID, value)
			return
		}
		if selectID == SelectTyphoon {
			c.SelectHistorical(i)
		} else {
			c.SelectVideoTyphoon(i)
		}
	case SelectRanking:
		t, err := typhoon.ParseRankingType(value)
		if err != nil {
			c.log.Printf("%s: %v", selectID, err)
			return
		}
		c.SelectRanking(t)
	case SelectVideoCategory:
		cat, err := typhoon.ParseVideoCategory(value)
		if err != nil {
			c.log.Printf("%s: %v", selectID, err)
			return
		}
		c.SelectVideoCategory(cat)
	default:
		c.log.Printf("unknown select %q", selectID)
	}
}

// SelectHistorical shows historical typhoon i next to the active one. The
// camera is fitted first; the track is drawn once it has settled.
func (c *Controller) SelectHistorical(i int) {
	h, err := c.data.Typhoon(i)
	if err != nil {
		c.log.Printf("select typhoon: %v", err)
		return
	}
	if err := c.ensureMap(state.TabMain); err != nil {
		c.log.Printf("main map: %v", err)
	}
	c.ClosePopup()
	s := c.maps.Main
	s.ClearHighlight()
	c.sel.SetActiveHistorical(i)
	c.ui.TyphoonInfo(h)

	b := h.Track.Bound()
	if a := c.data.Current; a != nil {
		b = b.Union(a.Track.Bound())
	}

	// The selected typhoon is hidden too; it is redrawn from scratch.
	fade := c.cfg.Historical.FadedOpacity
	for j := range c.data.Historical {
		c.anim.Cancel(RouteID(j))
		s.SetOpacity(RouteID(j), fade)
		s.SetOpacity(PointsID(j), fade)
		s.SetInteractive(PointsID(j), false)
	}

	c.historicalGen++
	gen := c.historicalGen
	fit := func() {
		if gen != c.historicalGen || c.closed {
			return
		}
		c.fitHistorical(b)
		c.sched.AfterFunc(c.cfg.Historical.SettleDelay, func() {
			if gen != c.historicalGen || c.closed {
				return
			}
			c.drawHistorical(h)
		})
	}
	if c.mobile() {
		// the bottom panel has to lay out before its height is known
		c.sched.AfterFunc(c.cfg.Historical.MobileMeasureDelay, fit)
		return
	}
	fit()
}

func (c *Controller) fitHistorical(b orb.Bound) {
	pad := c.cfg.Historical.DesktopPadding
	if c.mobile() {
		pad = c.cfg.MobilePadding(c.sel.Viewport().PanelHeight)
	}
	c.maps.Main.Engine().FitBounds(b, pad, mapengine.CameraOptions{
		Duration: c.cfg.Historical.FitDuration,
		MaxZoom:  c.cfg.Historical.MaxZoom,
	})
}

func (c *Controller) drawHistorical(h *typhoon.Historical) {
	s := c.maps.Main
	route, points := RouteID(h.Index), PointsID(h.Index)
	s.SetOpacity(route, 1)
	s.SetOpacity(points, 0.9)
	s.SetInteractive(points, true)

	if len(h.Track) < 2 {
		s.SetData(route, lineFC(h.Track.LineString()))
		s.SetData(points, HistoricalPointFeatures(h, len(h.Track)))
		return
	}
	s.SetData(route, lineFC(orb.LineString{h.Track[0].Position}))
	s.SetData(points, HistoricalPointFeatures(h, 1))
	c.anim.Start(route, h.Track.LineString(), c.cfg.Historical.AnimationDuration, animator.Handlers{
		OnFrame: func(f animator.Frame) {
			s.SetData(route, lineFC(f.Path))
			s.SetData(points, HistoricalPointFeatures(h, max(f.VisiblePoints, 1)))
		},
		OnComplete: func(full orb.LineString) {
			s.SetData(route, lineFC(full))
			s.SetData(points, HistoricalPointFeatures(h, len(h.Track)))
		},
	})
}

// OnMainClick handles a click on the main map. layerID is the clicked layer
// or empty for the bare map; anything but a historical point closes the
// popup. A click on a highlighted point counts as a click on its layer.
func (c *Controller) OnMainClick(layerID string, pointIndex int) {
	if owner, ok := mapstore.HighlightOwner(layerID); ok {
		layerID = owner
	}
	if _, ok := ParsePointsID(layerID); !ok {
		c.ClosePopup()
		return
	}
	c.OnPointClick(layerID, pointIndex)
}

// OnPointClick highlights a historical track point, flies to it and opens
// its popup once the flight is over.
func (c *Controller) OnPointClick(layerID string, pointIndex int) {
	s := c.maps.Main
	if !s.Interactive(layerID) {
		c.log.Printf("click %s: layer not interactive", layerID)
		return
	}
	i, ok := ParsePointsID(layerID)
	if !ok {
		return
	}
	h, err := c.data.Typhoon(i)
	if err != nil {
		c.log.Printf("click %s: %v", layerID, err)
		return
	}
	if pointIndex < 0 || pointIndex >= len(h.Track) {
		c.log.Printf("click %s: point %d out of range", layerID, pointIndex)
		return
	}

	s.SetActiveHighlight(layerID, pointIndex)
	pt := h.Track[pointIndex]
	mobile := c.mobile()
	opts := mapengine.CameraOptions{
		Duration: c.cfg.Popup.FlyDuration,
		Zoom:     c.cfg.Popup.DesktopZoom,
		Offset:   c.cfg.Popup.DesktopOffset,
	}
	if mobile {
		opts.Zoom = c.cfg.Popup.MobileZoom
		opts.Offset = [2]float64{0, -c.sel.Viewport().PanelHeight / 4}
	}
	s.Engine().FlyTo(pt.Position, opts)

	c.popupGen++
	gen := c.popupGen
	c.sched.AfterFunc(c.cfg.Popup.OpenDelay, func() {
		if gen != c.popupGen || c.closed {
			return
		}
		xy := s.Engine().Project(pt.Position)
		c.sel.SetPopupOpen(true)
		c.ui.Popup(PopupView{
			Typhoon:    h,
			Point:      pt,
			PointIndex: pointIndex,
			X:          xy[0],
			Y:          xy[1],
			Mobile:     mobile,
		})
	})
}

// ClosePopup closes the detail popup, or stops a pending one from opening,
// and clears the point highlight.
func (c *Controller) ClosePopup() {
	c.popupGen++
	open := c.sel.PopupOpen()
	c.sel.SetPopupOpen(false)
	if c.maps.Main != nil {
		c.maps.Main.ClearHighlight()
	}
	if open {
		c.ui.ClosePopup()
	}
}

// OnViewport records a new map size. The popup is closed and maps whose
// zoom no longer suits the layout are eased to the right level.
func (c *Controller) OnViewport(vp state.Viewport) {
	c.sel.SetViewport(vp)
	c.ClosePopup()
	mobile := c.mobile()
	for _, t := range tabs {
		if !c.ready[t] {
			continue
		}
		e := c.maps.Store(t).Engine()
		target := c.zoom(t).For(mobile)
		if math.Abs(e.Zoom()-target) > c.cfg.ZoomTolerance {
			e.FlyTo(c.center(), mapengine.CameraOptions{Zoom: target, Duration: c.cfg.ResizeDuration})
		}
	}
}

// SelectRanking shows the Top-5 typhoons by t.
func (c *Controller) SelectRanking(t typhoon.RankingType) {
	c.sel.SetActiveRanking(t)
	if err := c.ensureMap(state.TabTop5); err != nil {
		c.log.Printf("top5 map: %v", err)
	}
	c.renderRanking()
}

// renderRanking replaces the Top-5 layers and draws the routes one after
// another in rank order.
func (c *Controller) renderRanking() {
	t, ok := c.sel.ActiveRanking()
	if !ok {
		return
	}
	ranked := typhoon.Rank(c.data.Historical, t, typhoon.TopN)
	s := c.maps.Top5

	c.top5Gen++
	gen := c.top5Gen
	for i := 0; i < c.top5Count; i++ {
		c.anim.Cancel(top5RouteID(i))
		s.Remove(top5LabelID(i))
		s.Remove(top5RouteID(i))
	}
	c.top5Count = len(ranked)

	colors := c.cfg.Top5.Colors
	for i, r := range ranked {
		if err := addTop5(s, i, colors[i%len(colors)]); err != nil {
			c.log.Printf("top5 %d: %v", i, err)
			continue
		}
		c.sched.AfterFunc(time.Duration(i)*c.cfg.Top5.Stagger, func() {
			if gen != c.top5Gen || c.closed {
				return
			}
			c.drawTop5(i, r)
		})
	}
	c.ui.Ranking(t, ranked)
}

func (c *Controller) drawTop5(i int, r typhoon.Ranked) {
	s := c.maps.Top5
	route, label := top5RouteID(i), top5LabelID(i)
	c.anim.Start(route, r.Typhoon.Track.LineString(), c.cfg.Top5.Duration, animator.Handlers{
		OnFrame: func(f animator.Frame) {
			s.SetData(route, lineFC(f.Path))
		},
		OnComplete: func(full orb.LineString) {
			s.SetData(route, lineFC(full))
			s.SetData(label, lineFC(full))
			s.SetLayout(label, "text-field", r.RouteLabel())
		},
	})
}

// SelectVideoCategory shows the video markers of category cat.
func (c *Controller) SelectVideoCategory(cat typhoon.VideoCategory) {
	c.sel.SetVideoCategory(cat)
	if err := c.ensureMap(state.TabVideos); err != nil {
		c.log.Printf("videos map: %v", err)
	}
	c.renderVideos()
}

// SelectVideoTyphoon picks the typhoon whose videos are browsed and starts
// on its approaching videos.
func (c *Controller) SelectVideoTyphoon(i int) {
	if _, err := c.data.Typhoon(i); err != nil {
		c.log.Printf("select video typhoon: %v", err)
		return
	}
	c.sel.SetVideoTyphoon(i)
	c.SelectVideoCategory(typhoon.Approaching)
}

// renderVideos rebuilds the video markers and the slide list for the
// selected category. Ordinals restart at 1 in every category.
func (c *Controller) renderVideos() {
	cat := c.sel.VideoCategory()
	videos := typhoon.FilterVideos(c.data.Videos, cat)
	s := c.maps.Videos
	s.ClearHighlight()
	removeVideos(s)
	if err := addVideos(s, cat, videos); err != nil {
		c.log.Printf("video markers: %v", err)
	}
	c.videos = videos
	c.videosShown = true
	c.ui.Videos(cat, videos)
}

// Video returns the shown video with the given ordinal.
func (c *Controller) Video(ordinal int) (typhoon.Video, bool) {
	if ordinal < 1 || ordinal > len(c.videos) {
		return typhoon.Video{}, false
	}
	return c.videos[ordinal-1], true
}

// SwitchTab shows another panel, drawing its map on first use.
func (c *Controller) SwitchTab(t state.Tab) {
	if !c.sel.SetTab(t) {
		return
	}
	if t != state.TabMain {
		c.ClosePopup()
	}
	if err := c.ensureMap(t); err != nil {
		c.log.Printf("%s map: %v", t, err)
	}
	switch t {
	case state.TabTop5:
		c.renderRanking()
	case state.TabVideos:
		if !c.videosShown {
			c.renderVideos()
		}
	}
}

// OnImageMissing registers a placeholder for an icon a style asked for but
// the map does not have.
func (c *Controller) OnImageMissing(t state.Tab, name string) {
	c.log.Printf("missing image %s on %s map, using placeholder", name, t)
	c.maps.Store(t).EnsureImage(name, icons.Placeholder(c.cfg.Icons.Placeholder))
}

// Close stops every animation and timer and removes all layers.
func (c *Controller) Close() {
	c.closed = true
	c.historicalGen++
	c.popupGen++
	c.top5Gen++
	c.anim.CancelAll()
	for _, t := range tabs {
		if s := c.maps.Store(t); s != nil {
			s.ClearHighlight()
			s.Teardown()
		}
	}
}
