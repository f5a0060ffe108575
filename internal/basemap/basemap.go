// Package basemap loads the background geography drawn under the typhoon
// layers: world land masses and the South Korean provinces.
//
// The backdrop is decoration. A failed fetch is reported to the caller,
// which logs it and carries on without it.
package basemap

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/orb/simplify"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/joeblew999/typhoon-viz/internal/config"
	"github.com/joeblew999/typhoon-viz/internal/mapengine"
	"github.com/joeblew999/typhoon-viz/internal/mapstore"
)

// Source and layer ids of the backdrop.
const (
	LandSource        = "world-land"
	KoreaSource       = "south-korea"
	LandFillLayer     = "world-land-fill"
	KoreaFillLayer    = "south-korea-fill"
	KoreaOutlineLayer = "south-korea-outline"
)

const maxBody = 64 << 20

// Geography is the fetched backdrop.
type Geography struct {
	Land      *geojson.FeatureCollection
	Provinces *geojson.FeatureCollection
}

// Loader fetches the backdrop once and keeps it for later sessions.
// Concurrent callers share one fetch, and a failure is remembered for
// cfg.RetryAfter.
type Loader struct {
	cfg    config.BaseMap
	client *http.Client
	log    *log.Logger
	now    func() time.Time
	group  singleflight.Group

	mu       sync.Mutex
	cached   *Geography
	lastErr  error
	failedAt time.Time
}

// Option configures a Loader.
type Option func(*Loader)

// WithClient sets the HTTP client.
func WithClient(c *http.Client) Option {
	return func(l *Loader) { l.client = c }
}

// WithLogger replaces the default stderr logger.
func WithLogger(lg *log.Logger) Option {
	return func(l *Loader) { l.log = lg }
}

// WithClock replaces time.Now for the retry window.
func WithClock(now func() time.Time) Option {
	return func(l *Loader) { l.now = now }
}

// NewLoader creates a loader for the URLs in cfg.
func NewLoader(cfg config.BaseMap, opts ...Option) *Loader {
	l := &Loader{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		log:    log.New(os.Stderr, "basemap: ", log.LstdFlags),
		now:    time.Now,
	}
	for _, o := range opts {
		o(l)
	}
	return l
}

// Load returns the backdrop, fetching both files in parallel on the first
// successful call. A caller whose ctx ends stops waiting; the shared fetch
// carries on for the others.
func (l *Loader) Load(ctx context.Context) (*Geography, error) {
	l.mu.Lock()
	g, err := l.cached, l.lastErr
	if err != nil && l.now().Sub(l.failedAt) >= l.cfg.RetryAfter {
		err = nil
	}
	l.mu.Unlock()
	if g != nil {
		return g, nil
	}
	if err != nil {
		return nil, err
	}

	ch := l.group.DoChan("geography", func() (any, error) {
		return l.load(context.WithoutCancel(ctx))
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*Geography), nil
	}
}

func (l *Loader) load(ctx context.Context) (*Geography, error) {
	var g Geography
	eg, ctx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		fc, err := l.fetch(ctx, l.cfg.LandURL)
		g.Land = fc
		return err
	})
	eg.Go(func() error {
		fc, err := l.fetch(ctx, l.cfg.ProvincesURL)
		g.Provinces = fc
		return err
	})
	err := eg.Wait()

	l.mu.Lock()
	defer l.mu.Unlock()
	if err != nil {
		l.lastErr = err
		l.failedAt = l.now()
		return nil, err
	}
	l.log.Printf("loaded %d land and %d province features", len(g.Land.Features), len(g.Provinces.Features))
	l.cached = &g
	l.lastErr = nil
	return l.cached, nil
}

func (l *Loader) fetch(ctx context.Context, url string) (*geojson.FeatureCollection, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", url, err)
	}
	resp, err := l.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: status %d", url, resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", url, err)
	}
	fc, err := geojson.UnmarshalFeatureCollection(body)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", url, err)
	}
	if l.cfg.Simplify > 0 {
		dp := simplify.DouglasPeucker(l.cfg.Simplify)
		for _, f := range fc.Features {
			f.Geometry = dp.Simplify(f.Geometry)
		}
	}
	return fc, nil
}

// Apply adds the backdrop layers to a map. A nil geography adds nothing.
func Apply(s *mapstore.Store, g *Geography, cfg config.BaseMap) error {
	if g == nil {
		return nil
	}
	layers := []struct {
		id, source string
		style      mapstore.Style
		data       *geojson.FeatureCollection
	}{
		{LandFillLayer, LandSource, mapstore.Style{
			Type:  mapengine.TypeFill,
			Paint: map[string]any{"fill-color": cfg.LandColor, "fill-opacity": 1.0},
		}, g.Land},
		{KoreaFillLayer, KoreaSource, mapstore.Style{
			Type:  mapengine.TypeFill,
			Paint: map[string]any{"fill-color": cfg.KoreaColor, "fill-opacity": 1.0},
		}, g.Provinces},
		{KoreaOutlineLayer, KoreaSource, mapstore.Style{
			Type:  mapengine.TypeLine,
			Paint: map[string]any{"line-color": cfg.OutlineColor, "line-width": 1.0},
		}, g.Provinces},
	}
	for _, l := range layers {
		if _, err := s.EnsureLayer(l.id, mapstore.Base, l.source, l.style, l.data); err != nil {
			return fmt.Errorf("base layer %s: %w", l.id, err)
		}
	}
	return nil
}
