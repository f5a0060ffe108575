package icons

import (
	"bytes"
	"testing"

	"github.com/joeblew999/typhoon-viz/internal/config"
)

func TestSelect(t *testing.T) {
	th := config.Default().Icons
	tests := []struct {
		wind          float64
		past, current bool
		want          string
	}{
		{30, true, false, Depression},
		{30, false, true, Strong},
		{24, false, true, Strong},
		{20, false, true, Mild},
		{10, false, true, Past},
		{30, false, false, Past},
	}
	for _, tt := range tests {
		if got := Select(th, tt.wind, tt.past, tt.current); got != tt.want {
			t.Errorf("Select(%v, past=%v, current=%v)=%s, want %s", tt.wind, tt.past, tt.current, got, tt.want)
		}
	}
}

func TestAllGlyphsAreSVG(t *testing.T) {
	seen := map[string]bool{}
	for _, g := range All() {
		if seen[g.Name] {
			t.Errorf("duplicate glyph %s", g.Name)
		}
		seen[g.Name] = true
		if !bytes.Contains(g.SVG, []byte("<svg")) || !bytes.Contains(g.SVG, []byte("</svg>")) {
			t.Errorf("%s: not an svg document: %s", g.Name, g.SVG)
		}
	}
	for _, name := range []string{Strong, Mild, Past, Depression} {
		if !seen[name] {
			t.Errorf("missing glyph %s", name)
		}
	}
}

func TestPlaceholder(t *testing.T) {
	img := Placeholder("#FF6B6B")
	for _, want := range []string{`<circle`, `r="21"`, `fill:#FF6B6B`, `stroke:#FFFFFF`} {
		if !bytes.Contains(img, []byte(want)) {
			t.Errorf("placeholder missing %q: %s", want, img)
		}
	}
}
