// Package api defines the Huma API routes and handlers.
package api

import (
	"context"
	"errors"

	"github.com/danielgtaylor/huma/v2"

	"github.com/joeblew999/typhoon-viz/internal/humastar"
	"github.com/joeblew999/typhoon-viz/internal/service"
	"github.com/joeblew999/typhoon-viz/internal/typhoon"
)

// Version is reported by /health and /api/v1/info.
const Version = "1.0.0"

// Services holds the service dependencies for API handlers.
type Services struct {
	Typhoon *service.TyphoonService
}

// Types

type IndexInput struct {
	Index int `path:"index" minimum:"0" doc:"Historical typhoon index" example:"3"`
}

type RankingInput struct {
	Type string `path:"type" enum:"wind,damage,casualties" doc:"Ranking metric" example:"damage"`
}

type VideosInput struct {
	Category string `query:"category" enum:"approaching,damage" doc:"Video category; approaching when empty"`
}

type TyphoonsInput struct {
	humastar.PageInput
}

type TyphoonOutput struct {
	Body *typhoon.Historical
}

type TyphoonsOutput struct {
	Body humastar.PageBody[service.TyphoonSummary]
}

type HealthBody struct {
	Status  string `json:"status" doc:"Health status" example:"ok"`
	Version string `json:"version" doc:"API version" example:"1.0.0"`
}

// APIHandler holds the dataset REST handlers. Methods named Register* are
// auto-discovered by huma.AutoRegister.
type APIHandler struct {
	svc *Services
}

func NewAPIHandler(svc *Services) *APIHandler {
	return &APIHandler{svc: svc}
}

// RegisterHealth registers health check routes.
func (h *APIHandler) RegisterHealth(api huma.API) {
	huma.Get(api, "/health", h.GetHealth, huma.OperationTags("health"))
}

// RegisterTyphoons registers the dataset routes.
func (h *APIHandler) RegisterTyphoons(api huma.API) {
	huma.Get(api, "/api/v1/typhoons", h.ListTyphoons, huma.OperationTags("typhoons"))
	huma.Get(api, "/api/v1/typhoons/current", h.GetCurrent, huma.OperationTags("typhoons"))
	huma.Get(api, "/api/v1/typhoons/{index}", h.GetTyphoon, huma.OperationTags("typhoons"))
}

// RegisterRankings registers the Top-5 routes.
func (h *APIHandler) RegisterRankings(api huma.API) {
	huma.Get(api, "/api/v1/rankings/{type}", h.GetRanking, huma.OperationTags("typhoons"))
}

// RegisterVideos registers the video marker routes.
func (h *APIHandler) RegisterVideos(api huma.API) {
	huma.Get(api, "/api/v1/videos", h.GetVideos, huma.OperationTags("videos"))
}

// Handlers

func (h *APIHandler) GetHealth(ctx context.Context, input *struct{}) (*struct{ Body HealthBody }, error) {
	return &struct{ Body HealthBody }{Body: HealthBody{Status: "ok", Version: Version}}, nil
}

func (h *APIHandler) ListTyphoons(ctx context.Context, input *TyphoonsInput) (*TyphoonsOutput, error) {
	return &TyphoonsOutput{Body: humastar.Paginate(h.svc.Typhoon.List(), input.PageInput)}, nil
}

func (h *APIHandler) GetTyphoon(ctx context.Context, input *IndexInput) (*TyphoonOutput, error) {
	t, err := h.svc.Typhoon.Get(input.Index)
	if err != nil {
		return nil, huma.Error404NotFound(err.Error())
	}
	return &TyphoonOutput{Body: t}, nil
}

func (h *APIHandler) GetCurrent(ctx context.Context, input *struct{}) (*struct{ Body *typhoon.ActiveTyphoon }, error) {
	a, err := h.svc.Typhoon.Current()
	if err != nil {
		return nil, huma.Error404NotFound(err.Error())
	}
	return &struct{ Body *typhoon.ActiveTyphoon }{Body: a}, nil
}

func (h *APIHandler) GetRanking(ctx context.Context, input *RankingInput) (*struct{ Body service.Ranking }, error) {
	r, err := h.svc.Typhoon.Ranking(input.Type)
	if err != nil {
		return nil, huma.Error400BadRequest(err.Error())
	}
	return &struct{ Body service.Ranking }{Body: r}, nil
}

func (h *APIHandler) GetVideos(ctx context.Context, input *VideosInput) (*struct{ Body service.VideoList }, error) {
	v, err := h.svc.Typhoon.Videos(input.Category)
	if errors.Is(err, typhoon.ErrUnknownCategory) {
		return nil, huma.Error400BadRequest(err.Error())
	}
	if err != nil {
		return nil, huma.Error500InternalServerError("list videos", err)
	}
	return &struct{ Body service.VideoList }{Body: v}, nil
}
