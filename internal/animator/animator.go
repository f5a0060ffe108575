// Package animator draws typhoon tracks progressively, one frame at a time.
package animator

import (
	"time"

	"github.com/paulmach/orb"

	"github.com/joeblew999/typhoon-viz/internal/geometry"
	"github.com/joeblew999/typhoon-viz/internal/loop"
)

// Frame is one step of a path animation.
type Frame struct {
	Key           string
	Path          orb.LineString // drawn prefix, ending at the interpolated head
	VisiblePoints int            // track vertices reached so far
	Ratio         float64
}

// Handlers receive the output of a session. Both are optional.
type Handlers struct {
	OnFrame    func(Frame)
	OnComplete func(full orb.LineString)
}

// session is the per-key animation state. It is never shared between keys.
type session struct {
	key       string
	line      *geometry.Polyline
	start     time.Time
	duration  time.Duration
	lastRatio float64
	h         Handlers
}

// Animator runs independent animation sessions keyed by layer id.
// All methods must be called from the scheduler's goroutine.
type Animator struct {
	sched    loop.Scheduler
	metric   geometry.Metric
	sessions map[string]*session
}

// New creates an animator on sched measuring arc length with metric.
func New(sched loop.Scheduler, metric geometry.Metric) *Animator {
	if metric == nil {
		metric = geometry.Planar
	}
	return &Animator{
		sched:    sched,
		metric:   metric,
		sessions: make(map[string]*session),
	}
}

// Start animates track under key for duration. A session already running
// under key is cancelled and will produce no further output.
func (a *Animator) Start(key string, track orb.LineString, duration time.Duration, h Handlers) {
	s := &session{
		key:      key,
		line:     geometry.NewPolyline(track, a.metric),
		start:    a.sched.Now(),
		duration: duration,
		h:        h,
	}
	a.sessions[key] = s
	a.sched.RequestFrame(func(now time.Time) { a.step(s, now) })
}

// Cancel stops the session under key, if any.
func (a *Animator) Cancel(key string) {
	delete(a.sessions, key)
}

// CancelAll stops every session.
func (a *Animator) CancelAll() {
	for k := range a.sessions {
		delete(a.sessions, k)
	}
}

// Active reports whether a session is running under key.
func (a *Animator) Active(key string) bool {
	_, ok := a.sessions[key]
	return ok
}

// Progress returns the last emitted ratio of the session under key.
func (a *Animator) Progress(key string) (float64, bool) {
	s, ok := a.sessions[key]
	if !ok {
		return 0, false
	}
	return s.lastRatio, true
}

func (a *Animator) current(s *session) bool {
	return a.sessions[s.key] == s
}

func (a *Animator) step(s *session, now time.Time) {
	if !a.current(s) {
		return
	}

	ratio := 1.0
	if s.duration > 0 {
		ratio = float64(now.Sub(s.start)) / float64(s.duration)
		if ratio > 1 {
			ratio = 1
		}
		// Frames never move backwards, even if the clock does.
		if ratio < s.lastRatio {
			ratio = s.lastRatio
		}
	}
	s.lastRatio = ratio

	path, passed := s.line.Partial(ratio)
	if s.h.OnFrame != nil {
		s.h.OnFrame(Frame{Key: s.key, Path: path, VisiblePoints: passed, Ratio: ratio})
	}

	// OnFrame may have started a replacement session under the same key.
	if !a.current(s) {
		return
	}
	if ratio < 1 {
		a.sched.RequestFrame(func(now time.Time) { a.step(s, now) })
		return
	}

	delete(a.sessions, s.key)
	if s.h.OnComplete != nil {
		s.h.OnComplete(s.line.Points())
	}
}
