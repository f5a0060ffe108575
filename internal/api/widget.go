package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/joeblew999/typhoon-viz/internal/humastar"
	"github.com/joeblew999/typhoon-viz/internal/state"
	"github.com/joeblew999/typhoon-viz/internal/widget"
)

// DefaultViewport sizes a session until the page reports its real size.
var DefaultViewport = state.Viewport{Width: 1280, Height: 800}

var sessionActions = []humastar.ActionDef{
	{Rel: "stream", Pattern: widget.BasePath + "/%s/stream", Method: "GET", Title: "Map commands and panel updates"},
	{Rel: "layers", Pattern: widget.BasePath + "/%s/layers", Method: "GET"},
	{Rel: "select", Pattern: widget.BasePath + "/%s/select", Method: "POST", Title: "Select from a dropdown"},
	{Rel: "click", Pattern: widget.BasePath + "/%s/click", Method: "POST", Title: "Click a map"},
	{Rel: "viewport", Pattern: widget.BasePath + "/%s/viewport", Method: "POST"},
	{Rel: "close", Pattern: widget.BasePath + "/%s", Method: "DELETE", Title: "End session"},
}

// SessionInput addresses one widget session.
type SessionInput struct {
	ID string `path:"id" doc:"Session ID" format:"uuid"`
}

// ViewportBody is the size of the browser map.
type ViewportBody struct {
	Width       float64 `json:"width" minimum:"0" doc:"Map width (px)" example:"1280"`
	Height      float64 `json:"height" minimum:"0" doc:"Map height (px)" example:"800"`
	PanelHeight float64 `json:"panelHeight,omitempty" minimum:"0" doc:"Height of the mobile info panel (px)"`
}

// Viewport converts b, falling back to DefaultViewport for a missing size.
func (b *ViewportBody) Viewport() state.Viewport {
	if b == nil || b.Width <= 0 || b.Height <= 0 {
		return DefaultViewport
	}
	return state.Viewport{Width: b.Width, Height: b.Height, PanelHeight: b.PanelHeight}
}

type CreateSessionInput struct {
	Body *ViewportBody `required:"false"`
}

// SessionBody describes a new session and the actions it accepts.
type SessionBody struct {
	ID     string `json:"id" doc:"Session ID" format:"uuid"`
	Stream string `json:"stream" doc:"SSE endpoint of the session"`
}

// Actions lists what can be done with the session.
func (b SessionBody) Actions() []humastar.Action {
	return humastar.ActionsFor(b.ID, sessionActions)
}

// WidgetHandler manages widget sessions.
type WidgetHandler struct {
	sessions *widget.Registry
}

func NewWidgetHandler(sessions *widget.Registry) *WidgetHandler {
	return &WidgetHandler{sessions: sessions}
}

func (h *WidgetHandler) RegisterRoutes(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID:   "create-session",
		Method:        http.MethodPost,
		Path:          widget.BasePath,
		Summary:       "Start a widget session",
		Tags:          []string{"widget"},
		DefaultStatus: http.StatusCreated,
	}, h.CreateSession)
	huma.Delete(api, widget.BasePath+"/{id}", h.DeleteSession, huma.OperationTags("widget"))
	huma.Get(api, widget.BasePath+"/{id}/layers", h.GetLayers, huma.OperationTags("widget"))
}

func (h *WidgetHandler) CreateSession(ctx context.Context, input *CreateSessionInput) (*struct{ Body SessionBody }, error) {
	s, err := h.sessions.Create(ctx, input.Body.Viewport())
	if err != nil {
		return nil, huma.Error500InternalServerError("Failed to start session", err)
	}
	return &struct{ Body SessionBody }{Body: SessionBody{ID: s.ID, Stream: s.Base + "/stream"}}, nil
}

func (h *WidgetHandler) DeleteSession(ctx context.Context, input *SessionInput) (*struct{}, error) {
	if err := h.sessions.Delete(input.ID); err != nil {
		return nil, huma.Error404NotFound(err.Error())
	}
	return &struct{}{}, nil
}

func (h *WidgetHandler) GetLayers(ctx context.Context, input *SessionInput) (*struct{ Body widget.View }, error) {
	s, err := h.sessions.Get(input.ID)
	if err != nil {
		return nil, huma.Error404NotFound(err.Error())
	}
	v, err := s.View(ctx)
	if err != nil {
		return nil, SessionError(err)
	}
	return &struct{ Body widget.View }{Body: v}, nil
}

// SessionError maps a failed session call to an API error. A session that
// shut down while the request waited reads as gone.
func SessionError(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return huma.Error404NotFound("session closed", err)
}
