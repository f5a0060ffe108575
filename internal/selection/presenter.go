package selection

import (
	"github.com/joeblew999/typhoon-viz/internal/typhoon"
)

// PopupView is the detail popup of a historical track point. X and Y are
// the projected screen position of the point; Mobile selects the centred
// bottom-sheet placement.
type PopupView struct {
	Typhoon    *typhoon.Historical
	Point      typhoon.TrackPoint
	PointIndex int
	X, Y       float64
	Mobile     bool
}

// Presenter renders the panels next to the maps. The controller calls it
// from the session loop.
type Presenter interface {
	TyphoonInfo(h *typhoon.Historical)
	Popup(v PopupView)
	ClosePopup()
	Ranking(t typhoon.RankingType, ranked []typhoon.Ranked)
	Videos(c typhoon.VideoCategory, videos []typhoon.Video)
}

type nopPresenter struct{}

func (nopPresenter) TyphoonInfo(*typhoon.Historical)               {}
func (nopPresenter) Popup(PopupView)                               {}
func (nopPresenter) ClosePopup()                                   {}
func (nopPresenter) Ranking(typhoon.RankingType, []typhoon.Ranked) {}
func (nopPresenter) Videos(typhoon.VideoCategory, []typhoon.Video) {}
