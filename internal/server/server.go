package server

import (
	"fmt"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humago"
	"github.com/rs/zerolog/log"

	"github.com/joeblew999/plat-map/internal/api"
	"github.com/joeblew999/plat-map/internal/api/mapui"
	"github.com/joeblew999/plat-map/internal/config"
	"github.com/joeblew999/plat-map/internal/feature"
	"github.com/joeblew999/plat-map/internal/interaction"
	"github.com/joeblew999/plat-map/internal/mapsync"
	"github.com/joeblew999/plat-map/internal/metrics"
	"github.com/joeblew999/plat-map/internal/service"
	"github.com/joeblew999/plat-map/internal/templates"
)

// Version is reported by /health and /api/v1/info.
const Version = "0.1.0"

// Config holds the server configuration.
type Config struct {
	Host   string
	Port   string
	WebDir string         // Optional template directory overriding the embedded templates
	Map    *config.Config // Map defaults and base maps; config.Default() when nil
}

// Server is the map HTTP server.
type Server struct {
	config   Config
	mux      *http.ServeMux
	handler  http.Handler
	humaAPI  huma.API
	renderer *templates.Renderer
	metrics  *metrics.Metrics

	Store      *service.Store
	Bus        *service.EventBus
	BaseMaps   *service.BaseMapService
	Surface    *mapui.SignalSurface
	Controller *interaction.Controller
}

// PageData is the template data for the map page.
type PageData struct {
	Title    string
	Source   string
	Center   [2]float64
	Zoom     float64
	BaseMaps []service.BaseMap
}

// NewAPIConfig returns the Huma configuration shared by the server and the
// spec export command.
func NewAPIConfig(host, port string) huma.Config {
	humaConfig := huma.DefaultConfig("plat-map API", Version)
	humaConfig.Info.Description = "Interactive map API for uploading CSV/GeoJSON layers and driving the map view."
	humaConfig.Servers = []*huma.Server{
		{URL: fmt.Sprintf("http://%s:%s", host, port), Description: "Local server"},
	}
	// Disable $schema property in responses (cleaner JSON)
	humaConfig.CreateHooks = []func(huma.Config) huma.Config{}
	humaConfig.Transformers = append(humaConfig.Transformers, api.LinkTransformer())
	return humaConfig
}

// New creates a new map server.
func New(cfg Config) (*Server, error) {
	if cfg.Map == nil {
		cfg.Map = config.Default()
	}

	renderer, err := templates.New(cfg.WebDir)
	if err != nil {
		return nil, fmt.Errorf("load templates: %w", err)
	}
	if cfg.WebDir != "" {
		log.Info().Str("dir", cfg.WebDir).Msg("loaded templates")
	}

	mux := http.NewServeMux()
	humaAPI := humago.New(mux, NewAPIConfig(cfg.Host, cfg.Port))

	bus := service.NewEventBus()
	store := service.NewStore(service.WithBus(bus))
	surface := mapui.NewSignalSurface()
	controller := interaction.NewController(surface, store)
	adapter := mapsync.NewAdapter(surface, cfg.Map.Fit)
	m := metrics.New()

	store.Subscribe(adapter.Listener())
	store.Subscribe(func(snap service.Snapshot) {
		if err := controller.Reconcile(snap.Rendered); err != nil {
			log.Error().Err(err).Uint64("version", snap.Version).Msg("interaction reconcile failed")
		}
	})
	store.Subscribe(m.Listener())

	basemaps := service.NewBaseMapService(cfg.Map.BaseMaps, bus)
	if err := basemaps.Attach(surface); err != nil {
		return nil, fmt.Errorf("attach base maps: %w", err)
	}

	s := &Server{
		config:     cfg,
		mux:        mux,
		humaAPI:    humaAPI,
		renderer:   renderer,
		metrics:    m,
		Store:      store,
		Bus:        bus,
		BaseMaps:   basemaps,
		Surface:    surface,
		Controller: controller,
	}
	s.routes(adapter, service.NewImporter(feature.NewParser(), store, m))
	s.handler = RequestLogger(mux)
	return s, nil
}

// API returns the Huma API, e.g. for OpenAPI export.
func (s *Server) API() huma.API {
	return s.humaAPI
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

func (s *Server) routes(adapter *mapsync.Adapter, importer *service.Importer) {
	// Register Huma REST API routes (OpenAPI-documented JSON endpoints)
	huma.AutoRegister(s.humaAPI, api.NewAPIHandler(&api.Services{
		Store:    s.Store,
		Importer: importer,
		BaseMaps: s.BaseMaps,
	}, Version))
	api.NewInfoHandler(Version, s.Store, s.Bus).RegisterRoutes(s.humaAPI)

	// Register map SSE routes using Huma + Datastar SDK
	deps := mapui.MapDeps{
		Renderer:   s.renderer,
		Surface:    s.Surface,
		Adapter:    adapter,
		Controller: s.Controller,
		Store:      s.Store,
		BaseMaps:   s.BaseMaps,
		Bus:        s.Bus,
		Metrics:    s.metrics,
	}
	mapui.NewMapHandler(deps).RegisterRoutes(s.humaAPI)
	layers := mapui.NewLayerHandler(deps, importer)
	layers.RegisterRoutes(s.humaAPI)

	// Multipart upload stays on the mux; the panel form posts it directly.
	s.mux.HandleFunc("POST /api/v1/map/layers/upload", layers.Upload)
	s.mux.Handle("GET /metrics", s.metrics.Handler())
	s.mux.HandleFunc("GET /{$}", s.handlePage)
}

func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	// Templates from a web dir are re-read on every page load.
	if s.config.WebDir != "" {
		if err := s.renderer.Reload(s.config.WebDir); err != nil {
			log.Error().Err(err).Str("dir", s.config.WebDir).Msg("reload templates")
			http.Error(w, "Failed to load templates", http.StatusInternalServerError)
			return
		}
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	err := s.renderer.Execute(w, "index", PageData{
		Title:    "plat-map",
		Source:   mapsync.SourceName,
		Center:   s.config.Map.Center,
		Zoom:     s.config.Map.Zoom,
		BaseMaps: s.BaseMaps.List(),
	})
	if err != nil {
		log.Error().Err(err).Msg("render page")
		http.Error(w, "Failed to render page", http.StatusInternalServerError)
	}
}
