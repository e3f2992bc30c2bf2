package mapui

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/paulmach/orb"
	"github.com/rs/zerolog/log"

	"github.com/joeblew999/plat-map/internal/humastar"
	"github.com/joeblew999/plat-map/internal/interaction"
	"github.com/joeblew999/plat-map/internal/mapsync"
	"github.com/joeblew999/plat-map/internal/metrics"
	"github.com/joeblew999/plat-map/internal/service"
	"github.com/joeblew999/plat-map/internal/templates"
)

// EventPrefix namespaces the DOM events the page listens for.
const EventPrefix = "platmap:"

// MapHandler streams surface commands to the page and receives its ready
// handshake and pointer events.
type MapHandler struct {
	humastar.Handler
	surface    *SignalSurface
	adapter    *mapsync.Adapter
	controller *interaction.Controller
	store      *service.Store
	basemaps   *service.BaseMapService
	bus        *service.EventBus
	metrics    *metrics.Metrics
}

// MapDeps are the collaborators of the map handlers.
type MapDeps struct {
	Renderer   *templates.Renderer
	Surface    *SignalSurface
	Adapter    *mapsync.Adapter
	Controller *interaction.Controller
	Store      *service.Store
	BaseMaps   *service.BaseMapService
	Bus        *service.EventBus
	Metrics    *metrics.Metrics
}

// NewMapHandler creates the map stream handler.
func NewMapHandler(d MapDeps) *MapHandler {
	h := &MapHandler{
		surface:    d.Surface,
		adapter:    d.Adapter,
		controller: d.Controller,
		store:      d.Store,
		basemaps:   d.BaseMaps,
		bus:        d.Bus,
		metrics:    d.Metrics,
	}
	h.Renderer = d.Renderer
	return h
}

func (h *MapHandler) RegisterRoutes(api huma.API) {
	huma.Get(api, "/api/v1/map/stream", h.Events,
		huma.OperationTags("map"),
	)
	huma.Register(api, huma.Operation{
		OperationID:   "map-ready",
		Method:        http.MethodPost,
		Path:          "/api/v1/map/ready",
		Summary:       "Signal that the page map has loaded",
		Tags:          []string{"map"},
		DefaultStatus: http.StatusNoContent,
	}, h.Ready)
	huma.Post(api, "/api/v1/map/pointer", h.Pointer,
		huma.OperationTags("map"),
	)
}

// Events replays the surface state, then forwards surface commands as DOM
// events and re-renders the panels when layers or base maps change.
func (h *MapHandler) Events(ctx context.Context, input *humastar.EmptyInput) (*huma.StreamResponse, error) {
	return h.Stream(func(sse humastar.SSE) {
		cmds := h.surface.Subscribe()
		h.trackClients()
		defer func() {
			h.surface.Unsubscribe(cmds)
			h.trackClients()
		}()

		var changes chan service.Event
		if h.bus != nil {
			changes = h.bus.Subscribe()
			defer h.bus.Unsubscribe(changes)
		}

		for {
			select {
			case <-ctx.Done():
				return
			case c, ok := <-cmds:
				if !ok {
					return
				}
				if err := sse.DispatchCustomEvent(EventPrefix+c.Event, c.Detail); err != nil {
					log.Debug().Err(err).Msg("map stream closed")
					return
				}
			case ev, ok := <-changes:
				if !ok {
					return
				}
				switch ev.Resource {
				case "layers":
					sse.Patch(h.Render("layer-list", layerListData(h.store.Layers())), "#layer-list")
				case "basemaps":
					sse.Patch(h.Render("basemap-list", h.basemaps.List()), "#basemap-list")
				}
			}
		}
	}), nil
}

func (h *MapHandler) trackClients() {
	if h.metrics != nil {
		h.metrics.MapClients.Set(float64(h.surface.Clients()))
	}
}

// Ready marks the surface ready and applies any snapshot queued meanwhile.
func (h *MapHandler) Ready(ctx context.Context, input *struct{}) (*struct{}, error) {
	h.surface.MarkReady()
	if err := h.adapter.Flush(); err != nil {
		return nil, huma.Error500InternalServerError("map sync failed", err)
	}
	return nil, nil
}

type PointerInput struct {
	Body struct {
		Event     string    `json:"event" enum:"enter,leave,click,click-empty" doc:"Pointer event on the feature layers"`
		FeatureID string    `json:"featureId,omitempty" doc:"Feature under the pointer"`
		LngLat    []float64 `json:"lngLat,omitempty" minItems:"2" maxItems:"2" doc:"Pointer position as [lng, lat]"`
	}
}

type PointerOutput struct {
	Body struct {
		State    interaction.State `json:"state" doc:"Interaction state after the event"`
		Hovered  string            `json:"hovered,omitempty" doc:"Hovered feature id"`
		Selected string            `json:"selected,omitempty" doc:"Selected feature id"`
	}
}

// Pointer feeds a pointer event into the interaction controller.
func (h *MapHandler) Pointer(ctx context.Context, input *PointerInput) (*PointerOutput, error) {
	var at orb.Point
	if len(input.Body.LngLat) == 2 {
		at = orb.Point{input.Body.LngLat[0], input.Body.LngLat[1]}
	}

	var err error
	switch input.Body.Event {
	case "enter":
		err = h.controller.PointerEnter(input.Body.FeatureID, at)
	case "leave":
		err = h.controller.PointerLeave()
	case "click":
		err = h.controller.Click(input.Body.FeatureID, at)
	case "click-empty":
		err = h.controller.ClickEmpty()
	}
	if err != nil {
		return nil, huma.Error500InternalServerError("pointer event failed", err)
	}

	out := &PointerOutput{}
	out.Body.State = h.controller.State()
	out.Body.Hovered = h.controller.Hovered()
	out.Body.Selected = h.controller.Selected()
	return out, nil
}
