package templates

import (
	"fmt"
	"strconv"

	"github.com/joeblew999/typhoon-viz/internal/typhoon"
)

// Fragment and page names.
const (
	Top5Item     = "top5-item"
	VideoSlide   = "video-slide"
	TyphoonInfo  = "typhoon-info"
	TyphoonPopup = "typhoon-popup"
	EmptyState   = "empty-state"
	SelectOption = "select-option"
	WidgetPage   = "widget-page"
)

// Top5ItemData is one row of the Top-5 list.
type Top5ItemData struct {
	Rank  int
	Year  int
	Name  string
	Value string
	Unit  string
}

// NewTop5Item formats r for the list of ranking t.
func NewTop5Item(t typhoon.RankingType, r typhoon.Ranked) Top5ItemData {
	return Top5ItemData{
		Rank:  r.Rank,
		Year:  r.Typhoon.Year,
		Name:  r.Typhoon.Name,
		Value: t.FormatValue(r.Value),
		Unit:  t.Unit(),
	}
}

// VideoSlideData is one carousel slide. Index is the 0-based slide index.
type VideoSlideData struct {
	typhoon.Video
	Index int
}

// DefaultThumbnail is shown for videos without a thumbnail.
const DefaultThumbnail = "/static/images/img-video-slider-thumb.jpg"

// NewVideoSlide builds the slide of v.
func NewVideoSlide(v typhoon.Video) VideoSlideData {
	if v.Thumbnail == "" {
		v.Thumbnail = DefaultThumbnail
	}
	return VideoSlideData{Video: v, Index: v.Number - 1}
}

// TyphoonInfoData is the description panel of a selected typhoon.
type TyphoonInfoData struct {
	Index   int
	Label   string
	Color   string
	Summary string
	Damage  string
}

// NewTyphoonInfo describes h.
func NewTyphoonInfo(h *typhoon.Historical) TyphoonInfoData {
	return TyphoonInfoData{
		Index:   h.Index,
		Label:   h.Label(),
		Color:   h.Color,
		Summary: h.Summary(),
		Damage:  h.DamageText(),
	}
}

// PopupData is the detail popup of one track point.
type PopupData struct {
	Title    string
	Color    string
	Date     string
	Wind     string
	Pressure string
	Radius   string
	Image    string
	X, Y     float64
	Mobile   bool
	CloseURL string
}

// NewPopup describes point p of h. Point values fall back to the
// typhoon's summary values.
func NewPopup(h *typhoon.Historical, p typhoon.TrackPoint) PopupData {
	d := PopupData{
		Title: fmt.Sprintf("%s(%d)", h.Name, h.Year),
		Color: h.Color,
		Date:  p.ObservedAt,
		Image: p.Image,
	}
	if d.Date == "" {
		d.Date = strconv.Itoa(h.Year) + "년"
	}
	wind := h.Wind
	if p.WindSpeed != 0 {
		wind = p.WindSpeed
	}
	pressure := h.Pressure
	if p.Pressure != nil {
		pressure = *p.Pressure
	}
	radius := h.WindRadius
	if p.WindRadius != nil {
		radius = *p.WindRadius
	}
	d.Wind = fmt.Sprintf("%v m/s", wind)
	d.Pressure = fmt.Sprintf("%v hPa", pressure)
	d.Radius = fmt.Sprintf("%v km", radius)
	return d
}

// EmptyStateData is shown in place of an empty list.
type EmptyStateData struct {
	Title   string
	Message string
}

// SelectOptionData holds data for rendering a select option.
type SelectOptionData struct {
	Value string
	Label string
}

// PageData fills the widget page.
type PageData struct {
	Base     string
	Typhoons []SelectOptionData
	Rankings []SelectOptionData
}

// NewPage lists the dropdown choices of d for the session served at base.
func NewPage(base string, d *typhoon.Dataset) PageData {
	p := PageData{
		Base:     base,
		Typhoons: []SelectOptionData{{Label: "태풍 선택"}},
		Rankings: []SelectOptionData{
			{Label: "순위 기준"},
			{Value: string(typhoon.ByWind), Label: "최대풍속"},
			{Value: string(typhoon.ByDamage), Label: "재산피해"},
			{Value: string(typhoon.ByCasualties), Label: "인명피해"},
		},
	}
	for i := range d.Historical {
		h := &d.Historical[i]
		p.Typhoons = append(p.Typhoons, SelectOptionData{Value: strconv.Itoa(h.Index), Label: h.Label()})
	}
	return p
}
