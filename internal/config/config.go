// Package config holds the tunable widget settings: timings, camera
// parameters, colors and data URLs. Defaults reproduce the stock widget; a
// YAML file can override any subset.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/joeblew999/typhoon-viz/internal/geometry"
	"github.com/joeblew999/typhoon-viz/internal/mapengine"
)

// Zoom is a responsive zoom level pair.
type Zoom struct {
	Desktop float64 `yaml:"desktop" json:"desktop"`
	Mobile  float64 `yaml:"mobile" json:"mobile"`
}

// For returns the zoom for the given layout.
func (z Zoom) For(mobile bool) float64 {
	if mobile {
		return z.Mobile
	}
	return z.Desktop
}

// Historical configures the historical typhoon selection.
type Historical struct {
	AnimationDuration time.Duration     `yaml:"animationDuration" json:"animationDuration"`
	SettleDelay       time.Duration     `yaml:"settleDelay" json:"settleDelay"`
	FitDuration       time.Duration     `yaml:"fitDuration" json:"fitDuration"`
	MaxZoom           float64           `yaml:"maxZoom" json:"maxZoom"`
	DesktopPadding    mapengine.Padding `yaml:"desktopPadding" json:"desktopPadding"`
	// Mobile padding is MobileInset on every side except the bottom, which
	// clears the info panel by PanelGap.
	MobileInset float64 `yaml:"mobileInset" json:"mobileInset"`
	PanelGap    float64 `yaml:"panelGap" json:"panelGap"`
	// Viewport measurement on mobile waits for the panel to lay out.
	MobileMeasureDelay time.Duration `yaml:"mobileMeasureDelay" json:"mobileMeasureDelay"`
	FadedOpacity       float64       `yaml:"fadedOpacity" json:"fadedOpacity"`
}

// Popup configures the point detail popup.
type Popup struct {
	FlyDuration   time.Duration `yaml:"flyDuration" json:"flyDuration"`
	OpenDelay     time.Duration `yaml:"openDelay" json:"openDelay"`
	DesktopZoom   float64       `yaml:"desktopZoom" json:"desktopZoom"`
	MobileZoom    float64       `yaml:"mobileZoom" json:"mobileZoom"`
	DesktopOffset [2]float64    `yaml:"desktopOffset" json:"desktopOffset"`
}

// Top5 configures the ranking map.
type Top5 struct {
	Duration time.Duration `yaml:"duration" json:"duration"`
	Stagger  time.Duration `yaml:"stagger" json:"stagger"`
	Colors   []string      `yaml:"colors" json:"colors"`
}

// Current configures the active typhoon layers.
type Current struct {
	PastOpacity float64 `yaml:"pastOpacity" json:"pastOpacity"`
	// Probability circle radius for forecast point i is BaseKm + i*StepKm.
	ProbabilityBaseKm float64 `yaml:"probabilityBaseKm" json:"probabilityBaseKm"`
	ProbabilityStepKm float64 `yaml:"probabilityStepKm" json:"probabilityStepKm"`
	CircleSteps       int     `yaml:"circleSteps" json:"circleSteps"`
	EyeRotation       bool    `yaml:"eyeRotation" json:"eyeRotation"`
	EyeRotationStep   float64 `yaml:"eyeRotationStep" json:"eyeRotationStep"`
}

// Icons configures marker glyph selection.
type Icons struct {
	StrongWind  float64 `yaml:"strongWind" json:"strongWind"`
	MildWind    float64 `yaml:"mildWind" json:"mildWind"`
	Placeholder string  `yaml:"placeholder" json:"placeholder"`
}

// BaseMap configures the background geography.
type BaseMap struct {
	LandURL      string        `yaml:"landURL" json:"landURL"`
	ProvincesURL string        `yaml:"provincesURL" json:"provincesURL"`
	Timeout      time.Duration `yaml:"timeout" json:"timeout"`
	// RetryAfter is how long a failed fetch is remembered before trying again.
	RetryAfter   time.Duration `yaml:"retryAfter" json:"retryAfter"`
	// Douglas-Peucker threshold in degrees; 0 keeps full detail.
	Simplify     float64 `yaml:"simplify" json:"simplify"`
	Background   string  `yaml:"background" json:"background"`
	LandColor    string  `yaml:"landColor" json:"landColor"`
	KoreaColor   string  `yaml:"koreaColor" json:"koreaColor"`
	OutlineColor string  `yaml:"outlineColor" json:"outlineColor"`
}

// Zooms holds the initial zoom of each map.
type Zooms struct {
	Main   Zoom `yaml:"main" json:"main"`
	Top5   Zoom `yaml:"top5" json:"top5"`
	Videos Zoom `yaml:"videos" json:"videos"`
}

// Config is the complete widget configuration.
type Config struct {
	Metric           string        `yaml:"metric" json:"metric"`
	FrameInterval    time.Duration `yaml:"frameInterval" json:"frameInterval"`
	MobileBreakpoint float64       `yaml:"mobileBreakpoint" json:"mobileBreakpoint"`
	Center           [2]float64    `yaml:"center" json:"center"`
	// Responsive zoom changes smaller than this are not applied on resize.
	ZoomTolerance  float64       `yaml:"zoomTolerance" json:"zoomTolerance"`
	ResizeDuration time.Duration `yaml:"resizeDuration" json:"resizeDuration"`
	SessionTTL     time.Duration `yaml:"sessionTTL" json:"sessionTTL"`

	Zooms      Zooms      `yaml:"zooms" json:"zooms"`
	Historical Historical `yaml:"historical" json:"historical"`
	Popup      Popup      `yaml:"popup" json:"popup"`
	Top5       Top5       `yaml:"top5" json:"top5"`
	Current    Current    `yaml:"current" json:"current"`
	Icons      Icons      `yaml:"icons" json:"icons"`
	BaseMap    BaseMap    `yaml:"baseMap" json:"baseMap"`
}

// Default returns the stock configuration.
func Default() Config {
	return Config{
		Metric:           "planar",
		FrameInterval:    16 * time.Millisecond,
		MobileBreakpoint: 900,
		Center:           [2]float64{128.0, 36.0},
		ZoomTolerance:    0.5,
		ResizeDuration:   500 * time.Millisecond,
		SessionTTL:       30 * time.Minute,
		Zooms: Zooms{
			Main:   Zoom{Desktop: 6, Mobile: 5},
			Top5:   Zoom{Desktop: 5.5, Mobile: 4.5},
			Videos: Zoom{Desktop: 6.5, Mobile: 5.5},
		},
		Historical: Historical{
			AnimationDuration:  3000 * time.Millisecond,
			SettleDelay:        1500 * time.Millisecond,
			FitDuration:        1500 * time.Millisecond,
			MaxZoom:            8,
			DesktopPadding:     mapengine.Padding{Top: 80, Bottom: 80, Left: 80, Right: 400},
			MobileInset:        50,
			PanelGap:           20,
			MobileMeasureDelay: 100 * time.Millisecond,
			FadedOpacity:       0,
		},
		Popup: Popup{
			FlyDuration:   1500 * time.Millisecond,
			OpenDelay:     1600 * time.Millisecond,
			DesktopZoom:   6.5,
			MobileZoom:    7,
			DesktopOffset: [2]float64{-200, 0},
		},
		Top5: Top5{
			Duration: 1500 * time.Millisecond,
			Stagger:  200 * time.Millisecond,
			Colors:   []string{"#F65570", "#DA9EFF", "#E2B35D", "#52D03E", "#87E5FF"},
		},
		Current: Current{
			PastOpacity:       0.6,
			ProbabilityBaseKm: 100,
			ProbabilityStepKm: 30,
			CircleSteps:       64,
			EyeRotation:       false,
			EyeRotationStep:   8,
		},
		Icons: Icons{
			StrongWind:  24,
			MildWind:    17,
			Placeholder: "#FF6B6B",
		},
		BaseMap: BaseMap{
			LandURL:      "https://raw.githubusercontent.com/nvkelso/natural-earth-vector/master/geojson/ne_50m_land.geojson",
			ProvincesURL: "https://raw.githubusercontent.com/southkorea/southkorea-maps/master/kostat/2018/json/skorea-provinces-2018-geo.json",
			Timeout:      15 * time.Second,
			RetryAfter:   time.Minute,
			Simplify:     0.01,
			Background:   "#191b2e",
			LandColor:    "#3f425e",
			KoreaColor:   "#676693",
			OutlineColor: "#ccc",
		},
	}
}

// Load reads path over the defaults. An empty path returns the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks values that would break the widget.
func (c Config) Validate() error {
	if _, err := geometry.MetricByName(c.Metric); err != nil {
		return err
	}
	if c.FrameInterval <= 0 {
		return fmt.Errorf("frameInterval must be positive, got %s", c.FrameInterval)
	}
	if len(c.Top5.Colors) == 0 {
		return fmt.Errorf("top5.colors must not be empty")
	}
	if c.Current.CircleSteps < 3 {
		return fmt.Errorf("current.circleSteps must be at least 3, got %d", c.Current.CircleSteps)
	}
	return nil
}

// IsMobile reports whether a viewport width uses the mobile layout.
func (c Config) IsMobile(width float64) bool {
	return width <= c.MobileBreakpoint
}

// MobilePadding returns the fit padding above a bottom panel of the given
// height.
func (c Config) MobilePadding(panelHeight float64) mapengine.Padding {
	in := c.Historical.MobileInset
	return mapengine.Padding{Top: in, Bottom: panelHeight + c.Historical.PanelGap, Left: in, Right: in}
}

// Dump encodes the configuration as YAML.
func (c Config) Dump() ([]byte, error) {
	return yaml.Marshal(c)
}
