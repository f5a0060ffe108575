// Package loop provides the cooperative scheduling primitives the widget core
// runs on: a per-frame callback and one-shot timers, all executed on a single
// goroutine so that core state is never touched concurrently.
package loop

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"
)

// Scheduler is the host's scheduling primitive.
//
// Implementations must run every callback on the same goroutine, in order.
type Scheduler interface {
	// Now returns the scheduler's clock.
	Now() time.Time
	// RequestFrame runs fn once on the next frame.
	RequestFrame(fn func(now time.Time))
	// AfterFunc runs fn once after d.
	AfterFunc(d time.Duration, fn func())
}

// ErrClosed is returned by Do when the loop has stopped.
var ErrClosed = errors.New("loop closed")

// DefaultFrameInterval approximates a 60 Hz display.
const DefaultFrameInterval = 16 * time.Millisecond

// Loop is a single-goroutine event loop with a frame clock.
type Loop struct {
	interval time.Duration
	tasks    chan func()
	wake     chan struct{}
	done     chan struct{}
	ticking  atomic.Bool

	mu     sync.Mutex
	frames []func(time.Time)
	closed bool
}

// New creates a loop. Call Run to start it.
func New(frameInterval time.Duration) *Loop {
	if frameInterval <= 0 {
		frameInterval = DefaultFrameInterval
	}
	return &Loop{
		interval: frameInterval,
		tasks:    make(chan func(), 64),
		wake:     make(chan struct{}, 1),
		done:     make(chan struct{}),
	}
}

// Run processes tasks and frames until ctx is cancelled. The frame clock
// only ticks while a frame is pending.
func (l *Loop) Run(ctx context.Context) {
	ticker := time.NewTicker(l.interval)
	ticker.Stop()
	var tick <-chan time.Time
	defer ticker.Stop()
	defer func() {
		l.mu.Lock()
		l.closed = true
		l.frames = nil
		l.mu.Unlock()
		close(l.done)
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case fn := <-l.tasks:
			fn()
		case <-l.wake:
			if tick == nil {
				ticker.Reset(l.interval)
				tick = ticker.C
				l.ticking.Store(true)
			}
		case now := <-tick:
			l.mu.Lock()
			pending := l.frames
			l.frames = nil
			l.mu.Unlock()
			for _, fn := range pending {
				fn(now)
			}
			l.mu.Lock()
			idle := len(l.frames) == 0
			l.mu.Unlock()
			if idle {
				ticker.Stop()
				tick = nil
				l.ticking.Store(false)
			}
		}
	}
}

// Done is closed after Run returns.
func (l *Loop) Done() <-chan struct{} { return l.done }

// Now returns wall-clock time.
func (l *Loop) Now() time.Time { return time.Now() }

// RequestFrame schedules fn for the next tick.
func (l *Loop) RequestFrame(fn func(now time.Time)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return
	}
	l.frames = append(l.frames, fn)
	select {
	case l.wake <- struct{}{}:
	default:
	}
}

// Ticking reports whether the frame clock is running.
func (l *Loop) Ticking() bool { return l.ticking.Load() }

// AfterFunc posts fn to the loop after d.
func (l *Loop) AfterFunc(d time.Duration, fn func()) {
	time.AfterFunc(d, func() { l.Post(fn) })
}

// Post queues fn without waiting. It is dropped if the loop has stopped.
func (l *Loop) Post(fn func()) {
	select {
	case l.tasks <- fn:
	case <-l.done:
	}
}

// Do runs fn on the loop and waits for it to finish.
func (l *Loop) Do(ctx context.Context, fn func()) error {
	finished := make(chan struct{})
	task := func() {
		defer close(finished)
		fn()
	}
	select {
	case l.tasks <- task:
	case <-l.done:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case <-finished:
		return nil
	case <-l.done:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

var _ Scheduler = (*Loop)(nil)
