// Package service contains the read-side business logic of the typhoon
// widget: dataset queries for the REST API and the session event bus.
package service

import (
	"github.com/joeblew999/typhoon-viz/internal/typhoon"
)

// TyphoonSummary is a historical typhoon without its track.
// Huma reads the tags for OpenAPI; the card tags drive the list fragments.
type TyphoonSummary struct {
	Index      int     `json:"index" doc:"Sequence index" example:"3" card:"id"`
	Label      string  `json:"label" doc:"Display label" example:"2003년 매미" card:"title"`
	Name       string  `json:"name" doc:"Name (Korean)" example:"매미"`
	NameEn     string  `json:"nameEn" doc:"Name (English)" example:"MAEMI"`
	Year       int     `json:"year" doc:"Year of occurrence" example:"2003"`
	Wind       float64 `json:"wind" doc:"Max wind speed (m/s)" example:"60"`
	Damage     float64 `json:"damage" doc:"Property damage (100M KRW)" example:"51470"`
	Casualties float64 `json:"casualties" doc:"Casualties" example:"131"`
	Category   string  `json:"category,omitempty" doc:"Severity category" example:"초강력" card:"badge"`
	Color      string  `json:"color" doc:"Display color (CSS)" example:"#74b9ff"`
	Points     int     `json:"points" doc:"Number of track points" card:"meta"`
}

// Summarize drops the track of h.
func Summarize(h *typhoon.Historical) TyphoonSummary {
	return TyphoonSummary{
		Index:      h.Index,
		Label:      h.Label(),
		Name:       h.Name,
		NameEn:     h.NameEn,
		Year:       h.Year,
		Wind:       h.Wind,
		Damage:     h.Damage,
		Casualties: h.Casualties,
		Category:   h.Category,
		Color:      h.Color,
		Points:     len(h.Track),
	}
}

// RankingEntry is one row of a Top-5 list.
type RankingEntry struct {
	Rank    int            `json:"rank" doc:"1-based rank" example:"1"`
	Value   float64        `json:"value" doc:"Metric value" example:"60"`
	Display string         `json:"display" doc:"Formatted value with unit" example:"60.0m/s"`
	Label   string         `json:"label" doc:"Route label" example:"1위 2003년 매미"`
	Typhoon TyphoonSummary `json:"typhoon"`
}

// Ranking is a Top-5 list for one metric.
type Ranking struct {
	Type    typhoon.RankingType `json:"type" enum:"wind,damage,casualties" doc:"Ranking metric"`
	Unit    string              `json:"unit" doc:"Display unit" example:"m/s"`
	Entries []RankingEntry      `json:"entries"`
}

// VideoList is the video markers of one category, numbered from 1.
type VideoList struct {
	Category typhoon.VideoCategory `json:"category" enum:"approaching,damage" doc:"Video category"`
	Videos   []typhoon.Video       `json:"videos"`
}
