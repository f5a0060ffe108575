package api

import (
	"context"

	"github.com/danielgtaylor/huma/v2"

	"github.com/joeblew999/typhoon-viz/internal/typhoon"
)

// SessionCounter reports the number of live widget sessions.
type SessionCounter interface {
	Len() int
}

type InfoHandler struct {
	data     *typhoon.Dataset
	dbOK     bool
	sessions SessionCounter
}

func NewInfoHandler(data *typhoon.Dataset, dbOK bool, sessions SessionCounter) *InfoHandler {
	return &InfoHandler{data: data, dbOK: dbOK, sessions: sessions}
}

func (h *InfoHandler) RegisterRoutes(api huma.API) {
	huma.Get(api, "/api/v1/info", h.GetInfo, huma.OperationTags("health"))
}

type InfoBody struct {
	Name     string   `json:"name" doc:"Service name"`
	Version  string   `json:"version" doc:"Service version"`
	Typhoons int      `json:"typhoons" doc:"Historical typhoons in the dataset"`
	Videos   int      `json:"videos" doc:"Video markers in the dataset"`
	Current  string   `json:"current,omitempty" doc:"Name of the active typhoon"`
	Sessions int      `json:"sessions" doc:"Live widget sessions"`
	DB       bool     `json:"db" doc:"Whether database is available"`
	Features []string `json:"features" doc:"Available features"`
}

func (h *InfoHandler) GetInfo(ctx context.Context, input *struct{}) (*struct{ Body InfoBody }, error) {
	body := InfoBody{
		Name:     "typhoon-viz",
		Version:  Version,
		Typhoons: len(h.data.Historical),
		Videos:   len(h.data.Videos),
		DB:       h.dbOK,
		Features: []string{"tracks", "top5", "videos", "probability-cone", "duckdb"},
	}
	if h.data.Current != nil {
		body.Current = h.data.Current.NameEn
	}
	if h.sessions != nil {
		body.Sessions = h.sessions.Len()
	}
	return &struct{ Body InfoBody }{Body: body}, nil
}
