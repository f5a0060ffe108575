package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "widget.yaml")
	src := `
metric: geodesic
historical:
  settleDelay: 800ms
top5:
  stagger: 50ms
current:
  eyeRotation: true
`
	if err := os.WriteFile(path, []byte(src), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Metric != "geodesic" {
		t.Errorf("metric=%q, want geodesic", cfg.Metric)
	}
	if cfg.Historical.SettleDelay != 800*time.Millisecond {
		t.Errorf("settleDelay=%s, want 800ms", cfg.Historical.SettleDelay)
	}
	if cfg.Top5.Stagger != 50*time.Millisecond {
		t.Errorf("stagger=%s, want 50ms", cfg.Top5.Stagger)
	}
	if !cfg.Current.EyeRotation {
		t.Error("eyeRotation not applied")
	}
	// untouched values keep their defaults
	if cfg.Historical.AnimationDuration != 3*time.Second {
		t.Errorf("animationDuration=%s, want 3s", cfg.Historical.AnimationDuration)
	}
	if len(cfg.Top5.Colors) != 5 {
		t.Errorf("colors=%v", cfg.Top5.Colors)
	}
}

func TestLoadRejectsUnknownMetric(t *testing.T) {
	path := filepath.Join(t.TempDir(), "widget.yaml")
	if err := os.WriteFile(path, []byte("metric: manhattan\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("expected error for unknown metric")
	}
}

func TestLoadEmptyPath(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults invalid: %v", err)
	}
}

func TestMobilePadding(t *testing.T) {
	cfg := Default()
	p := cfg.MobilePadding(300)
	if p.Top != 50 || p.Left != 50 || p.Right != 50 || p.Bottom != 320 {
		t.Errorf("padding=%+v", p)
	}
	if !cfg.IsMobile(900) || cfg.IsMobile(901) {
		t.Error("breakpoint should be inclusive at 900")
	}
}

func TestDumpRoundTrip(t *testing.T) {
	data, err := Default().Dump()
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), "dump.yaml")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Popup.OpenDelay != 1600*time.Millisecond {
		t.Errorf("openDelay=%s after round trip", cfg.Popup.OpenDelay)
	}
}
