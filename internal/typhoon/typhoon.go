// Package typhoon holds the read-only dataset the widget visualizes: the
// active typhoon, historical typhoons and video markers.
package typhoon

import (
	"errors"
	"fmt"

	"github.com/paulmach/orb"
)

var (
	ErrInvalidIndex    = errors.New("invalid typhoon index")
	ErrUnknownRanking  = errors.New("unknown ranking type")
	ErrUnknownCategory = errors.New("unknown video category")
)

// TrackPoint is one observation or forecast position.
type TrackPoint struct {
	Position   orb.Point `json:"position" yaml:"position" doc:"[longitude, latitude]"`
	ObservedAt string    `json:"time,omitempty" yaml:"time,omitempty" doc:"Observation time label" example:"20일(화) 18시"`
	WindSpeed  float64   `json:"wind,omitempty" yaml:"wind,omitempty" doc:"Wind speed (m/s)"`
	// 15 m/s and 25 m/s wind radii (km), set on the active typhoon.
	WindRadiusOuter *float64 `json:"windRadius15,omitempty" yaml:"windRadius15,omitempty" doc:"15 m/s wind radius (km)"`
	WindRadiusInner *float64 `json:"windRadius25,omitempty" yaml:"windRadius25,omitempty" doc:"25 m/s wind radius (km)"`
	// Per-point detail for historical tracks.
	WindRadius *float64 `json:"windRadius,omitempty" yaml:"windRadius,omitempty" doc:"Gale radius (km)"`
	Pressure   *float64 `json:"pressure,omitempty" yaml:"pressure,omitempty" doc:"Central pressure (hPa)"`
	Image      string   `json:"image,omitempty" yaml:"image,omitempty" doc:"Satellite image URL"`
}

// Track is a chronological sequence of positions.
type Track []TrackPoint

// LineString returns the positions of the track.
func (t Track) LineString() orb.LineString {
	ls := make(orb.LineString, len(t))
	for i, p := range t {
		ls[i] = p.Position
	}
	return ls
}

// Bound returns the bounding box of the track.
func (t Track) Bound() orb.Bound {
	return t.LineString().Bound()
}

// ActiveTyphoon is the typhoon in progress. Points up to CurrentIndex are
// observed, later points are forecast.
type ActiveTyphoon struct {
	Name         string  `json:"name" yaml:"name" doc:"Name (Korean)" example:"제비"`
	NameEn       string  `json:"nameEn" yaml:"nameEn" doc:"Name (English)" example:"JEBI"`
	Number       string  `json:"number" yaml:"number" doc:"Typhoon number" example:"18"`
	Year         int     `json:"year" yaml:"year" doc:"Year" example:"2025"`
	CurrentIndex int     `json:"currentIndex" yaml:"currentIndex" doc:"Index of the present position"`
	Wind         float64 `json:"wind" yaml:"wind" doc:"Current wind speed (m/s)"`
	Pressure     float64 `json:"pressure" yaml:"pressure" doc:"Central pressure (hPa)"`
	WindRadius   float64 `json:"windRadius" yaml:"windRadius" doc:"15 m/s wind radius (km)"`
	WindRadius25 float64 `json:"windRadius25" yaml:"windRadius25" doc:"25 m/s wind radius (km)"`
	Category     string  `json:"category" yaml:"category" doc:"Intensity category" example:"강"`
	Track        Track   `json:"track" yaml:"track"`
}

// Validate checks the index invariant.
func (a *ActiveTyphoon) Validate() error {
	if len(a.Track) == 0 {
		return fmt.Errorf("active typhoon %s: empty track", a.NameEn)
	}
	if a.CurrentIndex < 0 || a.CurrentIndex >= len(a.Track) {
		return fmt.Errorf("active typhoon %s: current index %d of %d: %w", a.NameEn, a.CurrentIndex, len(a.Track), ErrInvalidIndex)
	}
	return nil
}

// Past returns the observed positions including the present one.
func (a *ActiveTyphoon) Past() Track { return a.Track[:a.CurrentIndex+1] }

// Present returns the present position.
func (a *ActiveTyphoon) Present() TrackPoint { return a.Track[a.CurrentIndex] }

// Future returns the present position followed by the forecast, so the
// forecast line joins the observed one.
func (a *ActiveTyphoon) Future() Track { return a.Track[a.CurrentIndex:] }

// Forecast returns only the positions after the present one.
func (a *ActiveTyphoon) Forecast() Track { return a.Track[a.CurrentIndex+1:] }

// Historical is a past typhoon with its summary metrics.
type Historical struct {
	Name        string  `json:"name" yaml:"name" doc:"Name (Korean)" example:"매미"`
	NameEn      string  `json:"nameEn" yaml:"nameEn" doc:"Name (English)" example:"MAEMI"`
	Number      string  `json:"number" yaml:"number" doc:"Typhoon number"`
	Year        int     `json:"year" yaml:"year" doc:"Year of occurrence" example:"2003"`
	Track       Track   `json:"track" yaml:"track"`
	Damage      float64 `json:"damage" yaml:"damage" doc:"Property damage (100M KRW)"`
	Rain        float64 `json:"rain" yaml:"rain" doc:"Rainfall (mm)"`
	Wind        float64 `json:"wind" yaml:"wind" doc:"Max wind speed (m/s)"`
	Casualties  float64 `json:"casualties" yaml:"casualties" doc:"Casualties"`
	Pressure    float64 `json:"pressure" yaml:"pressure" doc:"Central pressure (hPa)"`
	WindRadius  float64 `json:"windRadius" yaml:"windRadius" doc:"Gale radius (km)"`
	Color       string  `json:"color" yaml:"color" doc:"Display color" example:"#74b9ff"`
	Category    string  `json:"category" yaml:"category" doc:"Severity category" example:"초강력"`
	Description string  `json:"description,omitempty" yaml:"description,omitempty"`

	// Index is the position in the dataset; it namespaces layer ids.
	Index int `json:"index" yaml:"-" doc:"Sequence index"`
}

// Label returns the display label used in lists, e.g. "2003년 매미".
func (h *Historical) Label() string {
	return fmt.Sprintf("%d년 %s", h.Year, h.Name)
}

// VideoCategory groups video markers.
type VideoCategory string

const (
	Approaching VideoCategory = "approaching"
	DamageVideo VideoCategory = "damage"
)

// ParseVideoCategory validates s.
func ParseVideoCategory(s string) (VideoCategory, error) {
	switch c := VideoCategory(s); c {
	case Approaching, DamageVideo:
		return c, nil
	}
	return "", fmt.Errorf("%q: %w", s, ErrUnknownCategory)
}

// Video is a marker linking a map position to a video clip.
type Video struct {
	Position  orb.Point     `json:"position" yaml:"position" doc:"[longitude, latitude]"`
	Number    int           `json:"number" yaml:"number" doc:"1-based ordinal within the category"`
	Category  VideoCategory `json:"category" yaml:"category" enum:"approaching,damage"`
	Title     string        `json:"title" yaml:"title"`
	Date      string        `json:"date" yaml:"date" example:"2003.09.12"`
	Thumbnail string        `json:"thumbnail" yaml:"thumbnail"`
	URL       string        `json:"url" yaml:"url"`
}

// Dataset is everything the widget displays.
type Dataset struct {
	Current    *ActiveTyphoon `json:"current,omitempty" yaml:"current,omitempty"`
	Historical []Historical   `json:"historical" yaml:"historical"`
	Videos     []Video        `json:"videos" yaml:"videos"`
}

// Validate checks dataset invariants and assigns sequence indexes.
func (d *Dataset) Validate() error {
	if d.Current != nil {
		if err := d.Current.Validate(); err != nil {
			return err
		}
	}
	for i := range d.Historical {
		d.Historical[i].Index = i
		if len(d.Historical[i].Track) == 0 {
			return fmt.Errorf("typhoon %d (%s): empty track", i, d.Historical[i].NameEn)
		}
	}
	for i, v := range d.Videos {
		if _, err := ParseVideoCategory(string(v.Category)); err != nil {
			return fmt.Errorf("video %d: %w", i, err)
		}
	}
	return nil
}

// Typhoon returns the historical typhoon at index i.
func (d *Dataset) Typhoon(i int) (*Historical, error) {
	if i < 0 || i >= len(d.Historical) {
		return nil, fmt.Errorf("%d: %w", i, ErrInvalidIndex)
	}
	return &d.Historical[i], nil
}
