package widget

import (
	"context"
	"errors"
	"log"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/joeblew999/typhoon-viz/internal/basemap"
	"github.com/joeblew999/typhoon-viz/internal/config"
	"github.com/joeblew999/typhoon-viz/internal/state"
	"github.com/joeblew999/typhoon-viz/internal/templates"
	"github.com/joeblew999/typhoon-viz/internal/typhoon"
)

// ErrNotFound is returned for an unknown or expired session id.
var ErrNotFound = errors.New("session not found")

// Registry holds the live sessions.
type Registry struct {
	cfg      config.Config
	data     *typhoon.Dataset
	renderer *templates.Renderer
	loader   *basemap.Loader
	log      *log.Logger
	now      func() time.Time

	mu       sync.Mutex
	sessions map[string]*Session
}

// Option configures a Registry.
type Option func(*Registry)

// WithBaseMap draws the backdrop from l on every new session. Without it
// sessions have no backdrop.
func WithBaseMap(l *basemap.Loader) Option {
	return func(r *Registry) { r.loader = l }
}

// WithLogger replaces the default stderr logger.
func WithLogger(l *log.Logger) Option {
	return func(r *Registry) { r.log = l }
}

// WithClock replaces time.Now for idle tracking.
func WithClock(now func() time.Time) Option {
	return func(r *Registry) { r.now = now }
}

// NewRegistry creates an empty registry.
func NewRegistry(cfg config.Config, data *typhoon.Dataset, renderer *templates.Renderer, opts ...Option) *Registry {
	r := &Registry{
		cfg:      cfg,
		data:     data,
		renderer: renderer,
		log:      log.New(os.Stderr, "widget: ", log.LstdFlags),
		now:      time.Now,
		sessions: make(map[string]*Session),
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Create starts a session sized to vp and draws its main map.
func (r *Registry) Create(ctx context.Context, vp state.Viewport) (*Session, error) {
	var geo *basemap.Geography
	if r.loader != nil {
		g, err := r.loader.Load(ctx)
		if err != nil {
			r.log.Printf("base map unavailable: %v", err)
		} else {
			geo = g
		}
	}

	id := uuid.NewString()
	s, err := newSession(ctx, id, sessionDeps{
		cfg:      r.cfg,
		data:     r.data,
		renderer: r.renderer,
		geo:      geo,
		log:      r.log,
	}, vp, r.now())
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	r.sessions[id] = s
	n := len(r.sessions)
	r.mu.Unlock()
	r.log.Printf("session %s started (%d live)", id, n)
	return s, nil
}

// Get returns session id and marks it as used.
func (r *Registry) Get(id string) (*Session, error) {
	r.mu.Lock()
	s, ok := r.sessions[id]
	r.mu.Unlock()
	if !ok {
		return nil, ErrNotFound
	}
	s.touch(r.now())
	return s, nil
}

// Delete closes session id.
func (r *Registry) Delete(id string) error {
	r.mu.Lock()
	s, ok := r.sessions[id]
	delete(r.sessions, id)
	r.mu.Unlock()
	if !ok {
		return ErrNotFound
	}
	s.Close()
	r.log.Printf("session %s closed", id)
	return nil
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Sweep closes sessions that have no viewers and have not been used for
// the configured TTL. It returns how many were closed.
func (r *Registry) Sweep() int {
	cutoff := r.now().Add(-r.cfg.SessionTTL)
	var idle []*Session
	r.mu.Lock()
	for id, s := range r.sessions {
		if s.Viewers() == 0 && s.LastSeen().Before(cutoff) {
			idle = append(idle, s)
			delete(r.sessions, id)
		}
	}
	r.mu.Unlock()
	for _, s := range idle {
		s.Close()
		r.log.Printf("session %s expired", s.ID)
	}
	return len(idle)
}

// Run fetches the base map in the background and sweeps idle sessions
// until ctx is cancelled, then closes the rest.
func (r *Registry) Run(ctx context.Context) {
	if r.loader != nil {
		go func() {
			if _, err := r.loader.Load(ctx); err != nil {
				r.log.Printf("base map unavailable: %v", err)
			}
		}()
	}
	every := r.cfg.SessionTTL / 4
	if every <= 0 {
		every = time.Minute
	}
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			r.Close()
			return
		case <-t.C:
			r.Sweep()
		}
	}
}

// Close ends every session.
func (r *Registry) Close() {
	r.mu.Lock()
	all := r.sessions
	r.sessions = make(map[string]*Session)
	r.mu.Unlock()
	for _, s := range all {
		s.Close()
	}
}
