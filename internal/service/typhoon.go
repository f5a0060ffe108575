package service

import (
	"errors"
	"fmt"

	"github.com/joeblew999/typhoon-viz/internal/typhoon"
)

// ErrNoCurrent is returned when the dataset has no active typhoon.
var ErrNoCurrent = errors.New("no active typhoon")

// TyphoonService answers dataset queries. The dataset is read-only after
// load, so no locking is needed.
type TyphoonService struct {
	data *typhoon.Dataset
}

// NewTyphoonService creates a service over a validated dataset.
func NewTyphoonService(data *typhoon.Dataset) *TyphoonService {
	return &TyphoonService{data: data}
}

// List returns every historical typhoon in dataset order.
func (s *TyphoonService) List() []TyphoonSummary {
	out := make([]TyphoonSummary, len(s.data.Historical))
	for i := range s.data.Historical {
		out[i] = Summarize(&s.data.Historical[i])
	}
	return out
}

// Get returns historical typhoon i with its track.
func (s *TyphoonService) Get(i int) (*typhoon.Historical, error) {
	return s.data.Typhoon(i)
}

// Current returns the active typhoon.
func (s *TyphoonService) Current() (*typhoon.ActiveTyphoon, error) {
	if s.data.Current == nil {
		return nil, ErrNoCurrent
	}
	return s.data.Current, nil
}

// Ranking returns the Top-5 list for the ranking type named name.
func (s *TyphoonService) Ranking(name string) (Ranking, error) {
	t, err := typhoon.ParseRankingType(name)
	if err != nil {
		return Ranking{}, err
	}
	ranked := typhoon.Rank(s.data.Historical, t, typhoon.TopN)
	r := Ranking{Type: t, Unit: t.Unit(), Entries: make([]RankingEntry, len(ranked))}
	for i, e := range ranked {
		r.Entries[i] = RankingEntry{
			Rank:    e.Rank,
			Value:   e.Value,
			Display: t.FormatValue(e.Value) + t.Unit(),
			Label:   e.RouteLabel(),
			Typhoon: Summarize(&e.Typhoon),
		}
	}
	return r, nil
}

// Videos returns the videos of the category named name, renumbered within
// the category. An empty name means approaching.
func (s *TyphoonService) Videos(name string) (VideoList, error) {
	c := typhoon.Approaching
	if name != "" {
		var err error
		if c, err = typhoon.ParseVideoCategory(name); err != nil {
			return VideoList{}, fmt.Errorf("videos: %w", err)
		}
	}
	videos := typhoon.FilterVideos(s.data.Videos, c)
	if videos == nil {
		videos = []typhoon.Video{}
	}
	return VideoList{Category: c, Videos: videos}, nil
}
