package basemap

import (
	"context"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/joeblew999/typhoon-viz/internal/config"
	"github.com/joeblew999/typhoon-viz/internal/mapengine"
	"github.com/joeblew999/typhoon-viz/internal/mapstore"
)

const landJSON = `{"type":"FeatureCollection","features":[{"type":"Feature","properties":{},"geometry":{"type":"Polygon","coordinates":[[[120,30],[125,30],[125.001,32],[125,35],[120,35],[120,30]]]}}]}`

const provincesJSON = `{"type":"FeatureCollection","features":[{"type":"Feature","properties":{"name":"Jeju"},"geometry":{"type":"Polygon","coordinates":[[[126.1,33.2],[126.9,33.2],[126.9,33.6],[126.1,33.6],[126.1,33.2]]]}}]}`

func newServer(t *testing.T, provincesStatus int, hits *atomic.Int32) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/land.json", func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		io.WriteString(w, landJSON)
	})
	mux.HandleFunc("/provinces.json", func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if provincesStatus != http.StatusOK {
			w.WriteHeader(provincesStatus)
			return
		}
		io.WriteString(w, provincesJSON)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func testConfig(base string) config.BaseMap {
	cfg := config.Default().BaseMap
	cfg.LandURL = base + "/land.json"
	cfg.ProvincesURL = base + "/provinces.json"
	cfg.Simplify = 0.01
	return cfg
}

func TestLoadAndApply(t *testing.T) {
	var hits atomic.Int32
	srv := newServer(t, http.StatusOK, &hits)
	cfg := testConfig(srv.URL)
	l := NewLoader(cfg, WithClient(srv.Client()), WithLogger(log.New(io.Discard, "", 0)))

	g, err := l.Load(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(g.Land.Features) != 1 || len(g.Provinces.Features) != 1 {
		t.Fatalf("features: land=%d provinces=%d", len(g.Land.Features), len(g.Provinces.Features))
	}

	// cached
	if _, err := l.Load(context.Background()); err != nil {
		t.Fatal(err)
	}
	if n := hits.Load(); n != 2 {
		t.Errorf("server hit %d times, want 2", n)
	}

	rec := mapengine.NewRecorder(800, 600)
	s := mapstore.New("main", rec, nil, mapstore.WithLogger(log.New(io.Discard, "", 0)))
	if err := Apply(s, g, cfg); err != nil {
		t.Fatal(err)
	}
	want := []string{LandFillLayer, KoreaFillLayer, KoreaOutlineLayer}
	got := rec.Layers()
	if len(got) != len(want) {
		t.Fatalf("layers=%v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("layer %d=%s, want %s", i, got[i], want[i])
		}
	}
	if src, _ := rec.LayerSource(KoreaOutlineLayer); src != KoreaSource {
		t.Errorf("outline source=%s", src)
	}
	if c, _ := rec.Paint(LandFillLayer, "fill-color"); c != cfg.LandColor {
		t.Errorf("land color=%v", c)
	}
}

func TestLoadFailureRetriedAfterWindow(t *testing.T) {
	var hits atomic.Int32
	srv := newServer(t, http.StatusInternalServerError, &hits)
	cfg := testConfig(srv.URL)
	cfg.RetryAfter = time.Minute
	now := time.Unix(1000, 0)
	l := NewLoader(cfg, WithClient(srv.Client()), WithLogger(log.New(io.Discard, "", 0)),
		WithClock(func() time.Time { return now }))

	g, err := l.Load(context.Background())
	if err == nil {
		t.Fatal("expected error")
	}
	if g != nil {
		t.Errorf("geography=%v on failure", g)
	}

	before := hits.Load()
	if _, err := l.Load(context.Background()); err == nil {
		t.Fatal("expected remembered error")
	}
	if n := hits.Load(); n != before {
		t.Errorf("refetched within the retry window: %d hits, want %d", n, before)
	}

	now = now.Add(cfg.RetryAfter)
	if _, err := l.Load(context.Background()); err == nil {
		t.Fatal("expected error on retry")
	}
	if hits.Load() <= before {
		t.Error("no fetch after the retry window")
	}
}

func TestConcurrentLoadsShareOneFetch(t *testing.T) {
	var hits atomic.Int32
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	t.Cleanup(srv.Close)
	t.Cleanup(func() { close(release) })

	client := *srv.Client()
	client.Timeout = 200 * time.Millisecond
	l := NewLoader(testConfig(srv.URL), WithClient(&client), WithLogger(log.New(io.Discard, "", 0)))

	const callers = 4
	errs := make(chan error, callers)
	start := time.Now()
	for range callers {
		go func() {
			_, err := l.Load(context.Background())
			errs <- err
		}()
	}
	for range callers {
		if err := <-errs; err == nil {
			t.Error("expected error from a hung server")
		}
	}
	if n := hits.Load(); n != 2 {
		t.Errorf("server hit %d times, want 2 (one per file)", n)
	}
	if d := time.Since(start); d >= callers*client.Timeout {
		t.Errorf("callers waited %s, fetches ran one after another", d)
	}
}

func TestApplyNilGeography(t *testing.T) {
	rec := mapengine.NewRecorder(800, 600)
	s := mapstore.New("main", rec, nil, mapstore.WithLogger(log.New(io.Discard, "", 0)))
	if err := Apply(s, nil, config.Default().BaseMap); err != nil {
		t.Fatal(err)
	}
	if n := len(rec.Layers()); n != 0 {
		t.Errorf("%d layers added without geography", n)
	}
}
