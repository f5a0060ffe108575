package server

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humago"

	"github.com/joeblew999/typhoon-viz/internal/api"
	"github.com/joeblew999/typhoon-viz/internal/api/stream"
	"github.com/joeblew999/typhoon-viz/internal/basemap"
	"github.com/joeblew999/typhoon-viz/internal/config"
	"github.com/joeblew999/typhoon-viz/internal/db"
	"github.com/joeblew999/typhoon-viz/internal/humastar"
	"github.com/joeblew999/typhoon-viz/internal/service"
	"github.com/joeblew999/typhoon-viz/internal/templates"
	"github.com/joeblew999/typhoon-viz/internal/typhoon"
	"github.com/joeblew999/typhoon-viz/internal/widget"
)

// Config holds the server configuration.
type Config struct {
	Host         string
	Port         string
	// WidgetConfig is a YAML widget config; empty uses the defaults.
	WidgetConfig string
	// Dataset is a YAML typhoon dataset; empty uses the embedded one.
	Dataset      string
	StaticDir    string
	// NoBaseMap skips the background geography download.
	NoBaseMap    bool
}

// Server is the typhoon widget HTTP server.
type Server struct {
	config   Config
	data     *typhoon.Dataset
	mux      *http.ServeMux
	humaAPI  huma.API
	db       *sql.DB
	services *api.Services
	sessions *widget.Registry
	renderer *templates.Renderer
	log      *log.Logger
}

// New creates a new server.
func New(cfg Config) (*Server, error) {
	logger := log.New(os.Stderr, "server: ", log.LstdFlags)

	wcfg, err := config.Load(cfg.WidgetConfig)
	if err != nil {
		return nil, err
	}
	data, err := typhoon.Load(cfg.Dataset)
	if err != nil {
		return nil, err
	}
	renderer, err := templates.New()
	if err != nil {
		return nil, fmt.Errorf("templates: %w", err)
	}

	mux := http.NewServeMux()

	// Create Huma API with humago (pure stdlib) adapter
	humaConfig := huma.DefaultConfig("typhoon-viz API", api.Version)
	humaConfig.Info.Description = "Typhoon track widget: historical and active typhoon data, Top-5 rankings, video markers, and live widget sessions."
	humaConfig.Servers = []*huma.Server{
		{URL: fmt.Sprintf("http://%s:%s", cfg.Host, cfg.Port), Description: "Local server"},
	}
	// Disable $schema property in responses (cleaner JSON)
	humaConfig.CreateHooks = []func(huma.Config) huma.Config{}
	humaConfig.Transformers = append(humaConfig.Transformers, humastar.LinkTransformer())

	var opts []widget.Option
	if !cfg.NoBaseMap {
		opts = append(opts, widget.WithBaseMap(basemap.NewLoader(wcfg.BaseMap)))
	}

	s := &Server{
		config:   cfg,
		data:     data,
		mux:      mux,
		humaAPI:  humago.New(mux, humaConfig),
		services: &api.Services{Typhoon: service.NewTyphoonService(data)},
		sessions: widget.NewRegistry(wcfg, data, renderer, opts...),
		renderer: renderer,
		log:      logger,
	}

	// Mirror the dataset into DuckDB for /api/v1/query
	conn, err := db.Open(db.Config{})
	if err == nil {
		err = db.Load(context.Background(), conn, data)
		if err != nil {
			conn.Close()
		}
	}
	if err != nil {
		logger.Printf("database unavailable: %v", err)
	} else {
		s.db = conn
	}

	s.routes()
	return s, nil
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// OpenAPI returns the generated OpenAPI document.
func (s *Server) OpenAPI() *huma.OpenAPI {
	return s.humaAPI.OpenAPI()
}

// Dataset returns the loaded typhoon dataset.
func (s *Server) Dataset() *typhoon.Dataset { return s.data }

// Sessions returns the widget session registry.
func (s *Server) Sessions() *widget.Registry { return s.sessions }

// Run expires idle widget sessions until ctx is cancelled.
func (s *Server) Run(ctx context.Context) {
	s.sessions.Run(ctx)
}

// Close closes server resources.
func (s *Server) Close() error {
	s.sessions.Close()
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *Server) routes() {
	// Huma REST API routes (OpenAPI-documented JSON endpoints)
	huma.AutoRegister(s.humaAPI, api.NewAPIHandler(s.services))
	api.NewInfoHandler(s.data, s.db != nil, s.sessions).RegisterRoutes(s.humaAPI)
	api.NewDBHandler(s.db).RegisterRoutes(s.humaAPI)
	api.NewWidgetHandler(s.sessions).RegisterRoutes(s.humaAPI)

	// Datastar routes of the widget page
	stream.NewHandler(s.sessions, s.renderer).RegisterRoutes(s.humaAPI)

	humastar.AutoLinks(s.humaAPI)

	if s.config.StaticDir != "" {
		s.mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServer(http.Dir(s.config.StaticDir))))
	}

	// Page routes
	s.mux.HandleFunc("GET /{$}", s.handlePage)
}

// handlePage starts a widget session and serves the page bound to it.
func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	sess, err := s.sessions.Create(r.Context(), api.DefaultViewport)
	if err != nil {
		s.log.Printf("start session: %v", err)
		http.Error(w, "Failed to start widget", http.StatusInternalServerError)
		return
	}
	for _, link := range humastar.Links("/health") {
		w.Header().Add("Link", link)
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	if err := s.renderer.Execute(w, templates.WidgetPage, templates.NewPage(sess.Base, s.data)); err != nil {
		s.log.Printf("render page: %v", err)
	}
}
