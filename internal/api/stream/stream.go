// Package stream contains the Datastar handlers of the widget page: the SSE
// stream that carries map commands and panel patches, and the POST
// endpoints the page sends user input to.
package stream

import (
	"context"
	"log"
	"os"

	"github.com/danielgtaylor/huma/v2"

	"github.com/joeblew999/typhoon-viz/internal/api"
	"github.com/joeblew999/typhoon-viz/internal/humastar"
	"github.com/joeblew999/typhoon-viz/internal/service"
	"github.com/joeblew999/typhoon-viz/internal/state"
	"github.com/joeblew999/typhoon-viz/internal/templates"
	"github.com/joeblew999/typhoon-viz/internal/widget"
)

// Handler serves the widget page's event stream and input endpoints.
type Handler struct {
	humastar.Handler
	sessions *widget.Registry
	log      *log.Logger
}

// NewHandler creates a stream handler.
func NewHandler(sessions *widget.Registry, renderer *templates.Renderer) *Handler {
	return &Handler{
		Handler:  humastar.Handler{Renderer: renderer},
		sessions: sessions,
		log:      log.New(os.Stderr, "stream: ", log.LstdFlags),
	}
}

// SignalsRequest is a Datastar POST to one session.
type SignalsRequest struct {
	api.SessionInput
	RawBody []byte
}

func (in *SignalsRequest) signals() (humastar.Signals, error) {
	body := humastar.SignalsInput{RawBody: in.RawBody}
	return body.MustParse()
}

func (h *Handler) RegisterRoutes(a huma.API) {
	tags := huma.OperationTags(humastar.StreamTag)
	huma.Get(a, widget.BasePath+"/{id}/stream", h.Stream, tags)
	huma.Post(a, widget.BasePath+"/{id}/select", h.Select, tags)
	huma.Post(a, widget.BasePath+"/{id}/click", h.Click, tags)
	huma.Post(a, widget.BasePath+"/{id}/viewport", h.Viewport, tags)
	huma.Post(a, widget.BasePath+"/{id}/tab", h.Tab, tags)
	huma.Post(a, widget.BasePath+"/{id}/popup/close", h.ClosePopup, tags)
	huma.Post(a, widget.BasePath+"/{id}/image-missing", h.ImageMissing, tags)
}

func (h *Handler) session(id string) (*widget.Session, error) {
	s, err := h.sessions.Get(id)
	if err != nil {
		return nil, huma.Error404NotFound(err.Error())
	}
	return s, nil
}

// Stream sends the session's current state, then every change, until the
// client goes away or the session ends.
func (h *Handler) Stream(ctx context.Context, input *api.SessionInput) (*huma.StreamResponse, error) {
	s, err := h.session(input.ID)
	if err != nil {
		return nil, err
	}
	return h.Handler.Stream(func(sse humastar.SSE) {
		sub, replay, err := s.Connect(ctx)
		if err != nil {
			sse.Error(err.Error())
			return
		}
		defer s.Disconnect(sub)
		if !h.sendAll(sse, replay) {
			return
		}
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-sub.C:
				if !ok {
					return
				}
				if n := sub.TakeDropped(); n > 0 {
					// ev predates the snapshot; the snapshot covers it.
					h.log.Printf("session %s: client fell behind by %d events, resyncing", s.ID, n)
					replay, err := s.Resync(ctx, sub)
					if err != nil || !h.sendAll(sse, replay) {
						return
					}
					continue
				}
				if err := send(sse, ev); err != nil {
					return
				}
			}
		}
	}), nil
}

func (h *Handler) sendAll(sse humastar.SSE, events []service.Event) bool {
	for _, ev := range events {
		if err := send(sse, ev); err != nil {
			h.log.Printf("send %s: %v", ev.Kind, err)
			return false
		}
	}
	return true
}

func send(sse humastar.SSE, ev service.Event) error {
	switch ev.Kind {
	case service.KindMapCommand:
		return sse.Dispatch(ev.Kind, map[string]any{"map": ev.Map, "command": ev.Command})
	case service.KindSlideTo:
		return sse.Dispatch(ev.Kind, map[string]any{"index": ev.Index})
	case service.KindPatch:
		return sse.Patch(ev.HTML, ev.Selector)
	}
	return nil
}

// Select applies the selectid/value signals.
func (h *Handler) Select(ctx context.Context, input *SignalsRequest) (*struct{}, error) {
	s, err := h.session(input.ID)
	if err != nil {
		return nil, err
	}
	signals, err := input.signals()
	if err != nil {
		return nil, err
	}
	if !signals.Has("selectid") {
		return nil, huma.Error400BadRequest("selectid is required")
	}
	if err := s.Select(ctx, signals.String("selectid"), signals.String("value")); err != nil {
		return nil, api.SessionError(err)
	}
	return &struct{}{}, nil
}

// Click routes a map click from the map/layer/pointindex/ordinal signals.
func (h *Handler) Click(ctx context.Context, input *SignalsRequest) (*struct{}, error) {
	s, err := h.session(input.ID)
	if err != nil {
		return nil, err
	}
	signals, err := input.signals()
	if err != nil {
		return nil, err
	}
	tab, ok := state.ParseTab(signals.String("map"))
	if !ok {
		return nil, huma.Error400BadRequest("unknown map " + signals.String("map"))
	}
	c := widget.Click{
		Map:        tab,
		Layer:      signals.String("layer"),
		PointIndex: signals.Int("pointindex", state.NoHighlight),
		Ordinal:    signals.Int("ordinal", 0),
	}
	if err := s.Click(ctx, c); err != nil {
		return nil, api.SessionError(err)
	}
	return &struct{}{}, nil
}

// Viewport records the map size from the width/height/panelheight signals.
func (h *Handler) Viewport(ctx context.Context, input *SignalsRequest) (*struct{}, error) {
	s, err := h.session(input.ID)
	if err != nil {
		return nil, err
	}
	signals, err := input.signals()
	if err != nil {
		return nil, err
	}
	vp := state.Viewport{
		Width:       signals.Float("width"),
		Height:      signals.Float("height"),
		PanelHeight: signals.Float("panelheight"),
	}
	if vp.Width <= 0 || vp.Height <= 0 {
		return nil, huma.Error400BadRequest("width and height must be positive")
	}
	if err := s.Viewport(ctx, vp); err != nil {
		return nil, api.SessionError(err)
	}
	return &struct{}{}, nil
}

// Tab switches panels from the tab signal.
func (h *Handler) Tab(ctx context.Context, input *SignalsRequest) (*struct{}, error) {
	s, err := h.session(input.ID)
	if err != nil {
		return nil, err
	}
	signals, err := input.signals()
	if err != nil {
		return nil, err
	}
	tab, ok := state.ParseTab(signals.String("tab"))
	if !ok {
		return nil, huma.Error400BadRequest("unknown tab " + signals.String("tab"))
	}
	if err := s.SwitchTab(ctx, tab); err != nil {
		return nil, api.SessionError(err)
	}
	return &struct{}{}, nil
}

// ClosePopup hides the point popup.
func (h *Handler) ClosePopup(ctx context.Context, input *api.SessionInput) (*struct{}, error) {
	s, err := h.session(input.ID)
	if err != nil {
		return nil, err
	}
	if err := s.ClosePopup(ctx); err != nil {
		return nil, api.SessionError(err)
	}
	return &struct{}{}, nil
}

// ImageMissing registers a placeholder icon from the map/name signals.
func (h *Handler) ImageMissing(ctx context.Context, input *SignalsRequest) (*struct{}, error) {
	s, err := h.session(input.ID)
	if err != nil {
		return nil, err
	}
	signals, err := input.signals()
	if err != nil {
		return nil, err
	}
	tab, ok := state.ParseTab(signals.String("map"))
	name := signals.String("name")
	if !ok || name == "" {
		return nil, huma.Error400BadRequest("map and name are required")
	}
	if err := s.ImageMissing(ctx, tab, name); err != nil {
		return nil, api.SessionError(err)
	}
	return &struct{}{}, nil
}
