package typhoon

import (
	"fmt"
	"slices"
)

// RankingType is the metric a Top-5 list is ordered by.
type RankingType string

const (
	ByWind       RankingType = "wind"
	ByDamage     RankingType = "damage"
	ByCasualties RankingType = "casualties"
)

// RankingTypes lists the valid ranking types.
var RankingTypes = []RankingType{ByWind, ByDamage, ByCasualties}

// ParseRankingType validates s.
func ParseRankingType(s string) (RankingType, error) {
	t := RankingType(s)
	if !slices.Contains(RankingTypes, t) {
		return "", fmt.Errorf("%q: %w", s, ErrUnknownRanking)
	}
	return t, nil
}

// Metric returns the value h is ranked by.
func (t RankingType) Metric(h *Historical) float64 {
	switch t {
	case ByWind:
		return h.Wind
	case ByDamage:
		return h.Damage
	case ByCasualties:
		return h.Casualties
	}
	return 0
}

// Unit returns the display suffix for the metric.
func (t RankingType) Unit() string {
	switch t {
	case ByWind:
		return "m/s"
	case ByDamage:
		return "억원"
	case ByCasualties:
		return "명"
	}
	return ""
}

// Ranked is one entry of a ranking.
type Ranked struct {
	Rank    int        `json:"rank" doc:"1-based rank"`
	Value   float64    `json:"value" doc:"Metric value"`
	Typhoon Historical `json:"typhoon"`
}

// TopN is the default ranking length.
const TopN = 5

// Rank orders typhoons by t descending, keeping dataset order for ties,
// and returns at most n entries.
func Rank(typhoons []Historical, t RankingType, n int) []Ranked {
	sorted := slices.Clone(typhoons)
	slices.SortStableFunc(sorted, func(a, b Historical) int {
		va, vb := t.Metric(&a), t.Metric(&b)
		switch {
		case va > vb:
			return -1
		case va < vb:
			return 1
		}
		return 0
	})
	if n >= 0 && len(sorted) > n {
		sorted = sorted[:n]
	}
	out := make([]Ranked, len(sorted))
	for i := range sorted {
		out[i] = Ranked{Rank: i + 1, Value: t.Metric(&sorted[i]), Typhoon: sorted[i]}
	}
	return out
}

// FilterVideos returns the videos of category c in dataset order, renumbered
// 1..n within the category.
func FilterVideos(videos []Video, c VideoCategory) []Video {
	var out []Video
	for _, v := range videos {
		if v.Category != c {
			continue
		}
		v.Number = len(out) + 1
		out = append(out, v)
	}
	return out
}
