package loop

import (
	"sort"
	"time"
)

// Manual is a deterministic Scheduler driven by Advance, for running
// animations and timers in tests without a wall clock.
type Manual struct {
	now      time.Time
	interval time.Duration
	frames   []func(time.Time)
	timers   []timer
	seq      int
}

type timer struct {
	at  time.Time
	seq int
	fn  func()
}

// NewManual creates a manual scheduler starting at start.
func NewManual(start time.Time, frameInterval time.Duration) *Manual {
	if frameInterval <= 0 {
		frameInterval = DefaultFrameInterval
	}
	return &Manual{now: start, interval: frameInterval}
}

func (m *Manual) Now() time.Time { return m.now }

func (m *Manual) RequestFrame(fn func(now time.Time)) {
	m.frames = append(m.frames, fn)
}

func (m *Manual) AfterFunc(d time.Duration, fn func()) {
	m.seq++
	m.timers = append(m.timers, timer{at: m.now.Add(d), seq: m.seq, fn: fn})
}

// Pending reports whether any frame or timer is scheduled.
func (m *Manual) Pending() bool {
	return len(m.frames) > 0 || len(m.timers) > 0
}

// Advance moves the clock forward by d one frame at a time, firing due
// timers before the frame callbacks of each step.
func (m *Manual) Advance(d time.Duration) {
	end := m.now.Add(d)
	for m.now.Before(end) {
		step := m.interval
		if rem := end.Sub(m.now); rem < step {
			step = rem
		}
		m.now = m.now.Add(step)
		m.fireTimers()
		m.Frame()
	}
}

// Frame runs the currently queued frame callbacks at the current time.
func (m *Manual) Frame() {
	pending := m.frames
	m.frames = nil
	for _, fn := range pending {
		fn(m.now)
	}
}

// RunUntilIdle advances until nothing is scheduled or limit elapses.
func (m *Manual) RunUntilIdle(limit time.Duration) {
	end := m.now.Add(limit)
	for m.Pending() && m.now.Before(end) {
		m.Advance(m.interval)
	}
}

func (m *Manual) fireTimers() {
	for {
		sort.Slice(m.timers, func(i, j int) bool {
			if m.timers[i].at.Equal(m.timers[j].at) {
				return m.timers[i].seq < m.timers[j].seq
			}
			return m.timers[i].at.Before(m.timers[j].at)
		})
		if len(m.timers) == 0 || m.timers[0].at.After(m.now) {
			return
		}
		t := m.timers[0]
		m.timers = m.timers[1:]
		t.fn()
	}
}

var _ Scheduler = (*Manual)(nil)
