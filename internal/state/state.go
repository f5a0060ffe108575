// Package state holds the per-session selection state shared by the
// selection controller, the layer stores and the marker bridge.
//
// Values are only touched from the session loop, so there is no locking.
package state

import (
	"github.com/joeblew999/typhoon-viz/internal/typhoon"
)

// Tab identifies one of the three widget panels.
type Tab string

const (
	TabMain   Tab = "main"
	TabTop5   Tab = "top5"
	TabVideos Tab = "videos"
)

// ParseTab accepts the panel ids used by the page.
func ParseTab(s string) (Tab, bool) {
	switch s {
	case "main", "tabTyphoon1":
		return TabMain, true
	case "top5", "tabTyphoon2":
		return TabTop5, true
	case "videos", "tabTyphoon3":
		return TabVideos, true
	}
	return "", false
}

// NoHighlight is the point index meaning "nothing highlighted".
const NoHighlight = -1

// Highlight is the single highlighted point across a group of point layers.
type Highlight struct {
	owner string
	index int
}

// Get returns the owner layer and point index, or ok=false when nothing is
// highlighted.
func (h *Highlight) Get() (owner string, index int, ok bool) {
	if h.owner == "" {
		return "", NoHighlight, false
	}
	return h.owner, h.index, true
}

// Set records owner/index as the only highlight.
func (h *Highlight) Set(owner string, index int) {
	if index == NoHighlight {
		h.Clear()
		return
	}
	h.owner, h.index = owner, index
}

// Clear removes the highlight.
func (h *Highlight) Clear() {
	h.owner, h.index = "", NoHighlight
}

// Viewport is the size of the map container and the info panel below it
// on mobile layouts.
type Viewport struct {
	Width       float64 `json:"width"`
	Height      float64 `json:"height"`
	PanelHeight float64 `json:"panelHeight"`
}

// Selection is the state of one widget session.
type Selection struct {
	tab Tab

	historical    *int
	ranking       *typhoon.RankingType
	videoCategory typhoon.VideoCategory
	videoTyphoon  *int

	popupOpen bool
	viewport  Viewport

	// Historical is the highlight across historical point layers; Video is
	// the highlight on the video marker layer.
	Historical Highlight
	Video      Highlight
}

// New returns the initial state: main tab, approaching videos, nothing
// selected.
func New(vp Viewport) *Selection {
	s := &Selection{
		tab:           TabMain,
		videoCategory: typhoon.Approaching,
		viewport:      vp,
	}
	s.Historical.Clear()
	s.Video.Clear()
	return s
}

func (s *Selection) Tab() Tab { return s.tab }

// SetTab switches panels and reports whether the tab changed.
func (s *Selection) SetTab(t Tab) bool {
	if s.tab == t {
		return false
	}
	s.tab = t
	return true
}

// ActiveHistorical returns the selected historical typhoon index.
func (s *Selection) ActiveHistorical() (int, bool) {
	if s.historical == nil {
		return 0, false
	}
	return *s.historical, true
}

func (s *Selection) SetActiveHistorical(i int) { s.historical = &i }

// ActiveRanking returns the selected ranking type.
func (s *Selection) ActiveRanking() (typhoon.RankingType, bool) {
	if s.ranking == nil {
		return "", false
	}
	return *s.ranking, true
}

func (s *Selection) SetActiveRanking(t typhoon.RankingType) { s.ranking = &t }

func (s *Selection) VideoCategory() typhoon.VideoCategory { return s.videoCategory }

func (s *Selection) SetVideoCategory(c typhoon.VideoCategory) { s.videoCategory = c }

// VideoTyphoon returns the typhoon picked in the video panel.
func (s *Selection) VideoTyphoon() (int, bool) {
	if s.videoTyphoon == nil {
		return 0, false
	}
	return *s.videoTyphoon, true
}

func (s *Selection) SetVideoTyphoon(i int) { s.videoTyphoon = &i }

// ActiveHighlightLayerID returns the id of the historical highlight layer
// currently showing a point, or "".
func (s *Selection) ActiveHighlightLayerID() string {
	owner, _, ok := s.Historical.Get()
	if !ok {
		return ""
	}
	return owner + "-active"
}

func (s *Selection) PopupOpen() bool        { return s.popupOpen }
func (s *Selection) SetPopupOpen(open bool) { s.popupOpen = open }

func (s *Selection) Viewport() Viewport      { return s.viewport }
func (s *Selection) SetViewport(vp Viewport) { s.viewport = vp }

// Snapshot is a read-only copy of the state for the API.
type Snapshot struct {
	Tab                    Tab                   `json:"tab"`
	ActiveHistoricalIndex  *int                  `json:"activeHistoricalIndex,omitempty"`
	ActiveRankingType      *typhoon.RankingType  `json:"activeRankingType,omitempty"`
	ActiveVideoCategory    typhoon.VideoCategory `json:"activeVideoCategory"`
	ActiveHighlightLayerID string                `json:"activeHighlightLayerId,omitempty"`
	PopupOpen              bool                  `json:"popupOpen"`
	Viewport               Viewport              `json:"viewport"`
}

// Snapshot copies the state.
func (s *Selection) Snapshot() Snapshot {
	snap := Snapshot{
		Tab:                    s.tab,
		ActiveVideoCategory:    s.videoCategory,
		ActiveHighlightLayerID: s.ActiveHighlightLayerID(),
		PopupOpen:              s.popupOpen,
		Viewport:               s.viewport,
	}
	if i, ok := s.ActiveHistorical(); ok {
		snap.ActiveHistoricalIndex = &i
	}
	if r, ok := s.ActiveRanking(); ok {
		snap.ActiveRankingType = &r
	}
	return snap
}
