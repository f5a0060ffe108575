package widget

import (
	"log"
	"sort"

	"github.com/joeblew999/typhoon-viz/internal/humastar"
	"github.com/joeblew999/typhoon-viz/internal/selection"
	"github.com/joeblew999/typhoon-viz/internal/service"
	"github.com/joeblew999/typhoon-viz/internal/templates"
	"github.com/joeblew999/typhoon-viz/internal/typhoon"
)

// Page elements the session patches.
const (
	SelectorTop5List = "#topTyphoonList"
	SelectorVideos   = "#videoSlides"
	SelectorPopup    = "#typhoonInfoPanel"
	SelectorInfo     = "#selectedTyphoonInfo"
)

// busPresenter renders the controller's panel updates to HTML and publishes
// them as patch events. It runs on the session loop.
type busPresenter struct {
	bus  *service.EventBus
	r    *templates.Renderer
	base string
	log  *log.Logger

	// last HTML per selector, replayed to late subscribers
	last map[string]string
}

func newBusPresenter(bus *service.EventBus, r *templates.Renderer, base string, l *log.Logger) *busPresenter {
	return &busPresenter{bus: bus, r: r, base: base, log: l, last: make(map[string]string)}
}

func (p *busPresenter) patch(selector, html string) {
	p.last[selector] = html
	p.bus.Publish(service.Event{Kind: service.KindPatch, Selector: selector, HTML: html})
}

func (p *busPresenter) render(name string, data any) string {
	html, err := p.r.Render(name, data)
	if err != nil {
		p.log.Printf("render %s: %v", name, err)
	}
	return html
}

func (p *busPresenter) TyphoonInfo(h *typhoon.Historical) {
	p.patch(SelectorInfo, p.render(templates.TyphoonInfo, templates.NewTyphoonInfo(h)))
}

func (p *busPresenter) Popup(v selection.PopupView) {
	d := templates.NewPopup(v.Typhoon, v.Point)
	d.X, d.Y, d.Mobile = v.X, v.Y, v.Mobile
	d.CloseURL = p.base + "/popup/close"
	p.patch(SelectorPopup, p.render(templates.TyphoonPopup, d))
}

func (p *busPresenter) ClosePopup() {
	p.patch(SelectorPopup, "")
}

func (p *busPresenter) Ranking(t typhoon.RankingType, ranked []typhoon.Ranked) {
	items := make([]any, len(ranked))
	for i, r := range ranked {
		items[i] = templates.NewTop5Item(t, r)
	}
	p.patch(SelectorTop5List, humastar.RenderList(p.r, templates.Top5Item, items, "순위 없음", "표시할 태풍이 없습니다"))
}

func (p *busPresenter) Videos(c typhoon.VideoCategory, videos []typhoon.Video) {
	items := make([]any, len(videos))
	for i, v := range videos {
		items[i] = templates.NewVideoSlide(v)
	}
	p.patch(SelectorVideos, humastar.RenderList(p.r, templates.VideoSlide, items, "영상 없음", "이 분류에는 영상이 없습니다"))
}

// replay returns the current content of every patched element.
func (p *busPresenter) replay() []service.Event {
	selectors := make([]string, 0, len(p.last))
	for s := range p.last {
		selectors = append(selectors, s)
	}
	sort.Strings(selectors)
	events := make([]service.Event, len(selectors))
	for i, s := range selectors {
		events[i] = service.Event{Kind: service.KindPatch, Selector: s, HTML: p.last[s]}
	}
	return events
}

var _ selection.Presenter = (*busPresenter)(nil)
