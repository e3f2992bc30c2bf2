package mapui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/danielgtaylor/huma/v2"
	"github.com/rs/zerolog/log"
	"github.com/starfederation/datastar-go/datastar"

	"github.com/joeblew999/plat-map/internal/feature"
	"github.com/joeblew999/plat-map/internal/humastar"
	"github.com/joeblew999/plat-map/internal/service"
)

// MaxUploadBytes bounds a single uploaded file.
const MaxUploadBytes = 50 << 20

// LayerHandler serves the layer panel and its actions.
type LayerHandler struct {
	humastar.Handler
	store    *service.Store
	importer *service.Importer
	basemaps *service.BaseMapService
}

// NewLayerHandler creates the layer panel handler.
func NewLayerHandler(d MapDeps, importer *service.Importer) *LayerHandler {
	h := &LayerHandler{store: d.Store, importer: importer, basemaps: d.BaseMaps}
	h.Renderer = d.Renderer
	return h
}

func (h *LayerHandler) RegisterRoutes(api huma.API) {
	huma.Get(api, "/api/v1/map/layers", h.ListLayers, huma.OperationTags("map"))
	huma.Post(api, "/api/v1/map/layers/{id}/toggle", h.ToggleLayer, huma.OperationTags("map"))
	huma.Delete(api, "/api/v1/map/layers/{id}", h.DeleteLayer, huma.OperationTags("map"))
	huma.Post(api, "/api/v1/map/layers/order", h.ReorderLayers, huma.OperationTags("map"))
	huma.Post(api, "/api/v1/map/layers/{id}/opacity", h.SetOpacity, huma.OperationTags("map"))
	huma.Post(api, "/api/v1/map/basemaps/{id}/toggle", h.ToggleBaseMap, huma.OperationTags("map"))
}

// LayerCard is the template data for one panel entry. UpOrder and DownOrder
// are the full layer orders after moving this layer one step.
type LayerCard struct {
	service.LayerSummary
	UpOrder   []string
	DownOrder []string
}

func layerListData(layers []service.LayerSummary) map[string]any {
	ids := make([]string, len(layers))
	for i, l := range layers {
		ids[i] = l.ID
	}
	cards := make([]LayerCard, len(layers))
	for i, l := range layers {
		cards[i] = LayerCard{LayerSummary: l}
		if i > 0 {
			cards[i].UpOrder = swapped(ids, i, i-1)
		}
		if i < len(layers)-1 {
			cards[i].DownOrder = swapped(ids, i, i+1)
		}
	}
	return map[string]any{"Layers": cards}
}

func swapped(ids []string, i, j int) []string {
	out := make([]string, len(ids))
	copy(out, ids)
	out[i], out[j] = out[j], out[i]
	return out
}

func (h *LayerHandler) patchList(sse humastar.SSE) {
	sse.Patch(h.Render("layer-list", layerListData(h.store.Layers())), "#layer-list")
}

// patchCard replaces a single layer card, falling back to the whole list when
// the layer is gone.
func (h *LayerHandler) patchCard(sse humastar.SSE, id string) {
	for _, c := range layerListData(h.store.Layers())["Layers"].([]LayerCard) {
		if c.ID == id {
			sse.Replace(h.Render("layer-card", c), "#layer-"+id)
			return
		}
	}
	h.patchList(sse)
}

func (h *LayerHandler) ListLayers(ctx context.Context, input *humastar.EmptyInput) (*huma.StreamResponse, error) {
	return h.Stream(func(sse humastar.SSE) {
		h.patchList(sse)
	}), nil
}

type LayerIDInput struct {
	ID string `path:"id" doc:"Layer ID"`
}

func (h *LayerHandler) ToggleLayer(ctx context.Context, input *LayerIDInput) (*huma.StreamResponse, error) {
	return h.Stream(func(sse humastar.SSE) {
		h.store.ToggleVisibility(input.ID)
		h.patchCard(sse, input.ID)
	}), nil
}

func (h *LayerHandler) DeleteLayer(ctx context.Context, input *LayerIDInput) (*huma.StreamResponse, error) {
	return h.Stream(func(sse humastar.SSE) {
		if h.store.DeleteLayer(input.ID) {
			sse.Success("Layer deleted")
		}
		h.patchList(sse)
	}), nil
}

func (h *LayerHandler) ReorderLayers(ctx context.Context, input *humastar.SignalsInput) (*huma.StreamResponse, error) {
	signals, err := input.MustParse()
	if err != nil {
		return nil, err
	}
	order := signals.Strings("order")

	return h.Stream(func(sse humastar.SSE) {
		if err := h.store.Reorder(order); err != nil {
			sse.Error(err.Error())
		}
		h.patchList(sse)
	}), nil
}

type OpacitySignalsInput struct {
	ID      string `path:"id" doc:"Layer ID"`
	RawBody []byte
}

func (h *LayerHandler) SetOpacity(ctx context.Context, input *OpacitySignalsInput) (*huma.StreamResponse, error) {
	signals, err := humastar.ParseSignals(input.RawBody)
	if err != nil {
		return nil, huma.Error400BadRequest("Invalid request data: " + err.Error())
	}
	if !signals.Has("opacity") {
		return nil, huma.Error400BadRequest("Opacity is required")
	}
	opacity := signals.Float("opacity")

	return h.Stream(func(sse humastar.SSE) {
		h.store.SetOpacity(input.ID, opacity)
		h.patchCard(sse, input.ID)
	}), nil
}

type BaseMapIDInput struct {
	ID string `path:"id" doc:"Base map ID"`
}

func (h *LayerHandler) ToggleBaseMap(ctx context.Context, input *BaseMapIDInput) (*huma.StreamResponse, error) {
	return h.Stream(func(sse humastar.SSE) {
		if _, _, err := h.basemaps.Toggle(input.ID); err != nil {
			sse.Error(err.Error())
		}
		sse.Patch(h.Render("basemap-list", h.basemaps.List()), "#basemap-list")
	}), nil
}

// Upload handles multipart file uploads from the panel form. The optional
// lat, lng and name form fields override column detection for CSV files.
func (h *LayerHandler) Upload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, MaxUploadBytes+1<<20)
	if err := r.ParseMultipartForm(MaxUploadBytes); err != nil {
		h.uploadError(w, r, "Failed to parse upload: "+err.Error())
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		h.uploadError(w, r, "No file provided")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		h.uploadError(w, r, "Failed to read file: "+err.Error())
		return
	}

	res, err := h.importer.Import(service.Import{
		Name: header.Filename,
		Data: data,
		Columns: feature.Columns{
			Lat:  strings.TrimSpace(r.FormValue("lat")),
			Lng:  strings.TrimSpace(r.FormValue("lng")),
			Name: strings.TrimSpace(r.FormValue("name")),
		},
	})
	if err != nil {
		h.uploadError(w, r, uploadMessage(header.Filename, len(res.Warnings), err))
		return
	}

	sse := humastar.SSE{ServerSentEventGenerator: datastar.NewSSE(w, r)}
	msg := fmt.Sprintf("Loaded %d features from %s", res.Features, header.Filename)
	if n := len(res.Warnings); n > 0 {
		msg += fmt.Sprintf(" (%d skipped)", n)
	}
	sse.Signals(map[string]any{"success": msg, "error": ""})
	h.patchList(sse)
}

func (h *LayerHandler) uploadError(w http.ResponseWriter, r *http.Request, msg string) {
	log.Debug().Str("reason", msg).Msg("upload failed")
	sse := humastar.SSE{ServerSentEventGenerator: datastar.NewSSE(w, r)}
	sse.Signals(map[string]any{"error": msg, "success": ""})
}

func uploadMessage(name string, skipped int, err error) string {
	switch {
	case errors.Is(err, feature.ErrUnsupportedFormat):
		return "Unsupported file type: upload a CSV or GeoJSON file"
	case errors.Is(err, feature.ErrInvalidGeoJSON):
		return "Failed to parse GeoJSON file " + name
	case errors.Is(err, feature.ErrInvalidCSV):
		return "Failed to parse CSV file " + name
	case errors.Is(err, feature.ErrMissingColumns):
		return "Could not find latitude/longitude columns in " + name
	case errors.Is(err, service.ErrNoFeatures):
		return fmt.Sprintf("No valid features in %s (%d rows skipped)", name, skipped)
	}
	return err.Error()
}
