package api

import (
	"context"

	"github.com/danielgtaylor/huma/v2"

	"github.com/joeblew999/plat-map/internal/service"
)

type InfoHandler struct {
	version string
	store   *service.Store
	bus     *service.EventBus
}

// NewInfoHandler reports on store. bus may be nil when no page streams exist.
func NewInfoHandler(version string, store *service.Store, bus *service.EventBus) *InfoHandler {
	return &InfoHandler{version: version, store: store, bus: bus}
}

func (h *InfoHandler) RegisterRoutes(api huma.API) {
	huma.Get(api, "/api/v1/info", h.GetInfo, huma.OperationTags("health"))
}

type InfoBody struct {
	Name           string   `json:"name" doc:"Service name"`
	Version        string   `json:"version" doc:"Service version"`
	Layers         int      `json:"layers" doc:"Number of layers in the store"`
	ActiveFeatures int      `json:"active_features" doc:"Features currently rendered"`
	Formats        []string `json:"formats" doc:"Accepted upload formats"`
	Streams        int      `json:"streams" doc:"Open map page streams"`
}

func (h *InfoHandler) GetInfo(ctx context.Context, input *struct{}) (*struct{ Body InfoBody }, error) {
	snap := h.store.Snapshot()
	streams := 0
	if h.bus != nil {
		streams = h.bus.Subscribers()
	}
	return &struct{ Body InfoBody }{Body: InfoBody{
		Name:           "plat-map",
		Version:        h.version,
		Layers:         len(snap.Layers),
		ActiveFeatures: len(snap.Active()),
		Formats:        []string{"csv", "geojson"},
		Streams:        streams,
	}}, nil
}
