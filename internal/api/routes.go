// Package api defines the Huma API routes and handlers.
package api

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/danielgtaylor/huma/v2"
	"github.com/paulmach/orb/geojson"

	"github.com/joeblew999/plat-map/internal/feature"
	"github.com/joeblew999/plat-map/internal/humastar"
	"github.com/joeblew999/plat-map/internal/service"
)

// Services holds the service dependencies for API handlers.
type Services struct {
	Store    *service.Store
	Importer *service.Importer
	BaseMaps *service.BaseMapService
}

// Types

type IDInput struct {
	ID string `path:"id" doc:"Layer ID" example:"0190f5e2-7c1a-7d3e-9b2a-1c4d5e6f7a8b"`
}

// LayerBody is a layer summary carrying its state-dependent actions.
type LayerBody struct {
	service.LayerSummary
}

var (
	actionToggle  = "/api/v1/layers/%s/toggle"
	actionOpacity = humastar.ActionDef{Rel: "opacity", Pattern: "/api/v1/layers/%s/opacity", Method: "PUT", Title: "Set opacity"}
	actionDelete  = humastar.ActionDef{Rel: "delete", Pattern: "/api/v1/layers/%s", Method: "DELETE", Title: "Delete layer"}
)

// Actions implements humastar.Actor.
func (b LayerBody) Actions() []humastar.Action {
	toggle := humastar.ActionDef{Rel: "hide", Pattern: actionToggle, Method: "POST", Title: "Hide layer"}
	if !b.Visible {
		toggle.Rel, toggle.Title = "show", "Show layer"
	}
	return []humastar.Action{toggle.For(b.ID), actionOpacity.For(b.ID), actionDelete.For(b.ID)}
}

type LayerOutput struct {
	Body LayerBody
}

type LayersOutput struct {
	Body []service.LayerSummary
}

type MessageBody struct {
	Message string `json:"message" doc:"Result message"`
}

type ColumnsBody struct {
	Lat  string `json:"lat,omitempty" doc:"Latitude column; detected when empty"`
	Lng  string `json:"lng,omitempty" doc:"Longitude column; detected when empty"`
	Name string `json:"name,omitempty" doc:"Name column; detected when empty"`
}

type ImportBody struct {
	Name    string      `json:"name" minLength:"1" doc:"Layer name, usually the file name" example:"stations.csv"`
	Format  string      `json:"format,omitempty" enum:"csv,geojson" doc:"Payload format; detected from name when empty"`
	Content string      `json:"content" doc:"File contents"`
	Columns ColumnsBody `json:"columns,omitempty" doc:"CSV column overrides"`
}

type ImportedBody struct {
	Layer    service.LayerSummary `json:"layer" doc:"Created layer"`
	Columns  feature.Columns      `json:"columns" doc:"Columns used for CSV payloads"`
	Warnings []feature.Warning    `json:"warnings" doc:"Rows or features skipped by validation"`
	Message  string               `json:"message" doc:"Result message"`
}

type OpacityInput struct {
	IDInput
	Body struct {
		Opacity float64 `json:"opacity" doc:"Opacity, clamped to [0,1]" example:"0.5"`
	}
}

type OrderInput struct {
	Body struct {
		Order []string `json:"order" doc:"Every layer id in the new order"`
	}
}

type InspectBody struct {
	Content string `json:"content" doc:"CSV document"`
}

type InspectResult struct {
	Headers []string            `json:"headers" doc:"Header row"`
	Columns feature.Columns     `json:"columns" doc:"Detected coordinate and name columns"`
	Rows    int                 `json:"rows" doc:"Number of data rows"`
	Preview []map[string]string `json:"preview" doc:"First data rows"`
}

type HealthBody struct {
	Status  string `json:"status" doc:"Health status" example:"ok"`
	Version string `json:"version" doc:"API version" example:"1.0.0"`
}

// previewRows is the number of rows returned by inspect.
const previewRows = 5

// APIHandler holds all REST API handlers. Methods named Register* are
// auto-discovered by huma.AutoRegister.
type APIHandler struct {
	svc     *Services
	version string
}

func NewAPIHandler(svc *Services, version string) *APIHandler {
	return &APIHandler{svc: svc, version: version}
}

// RegisterHealth registers health check routes.
func (h *APIHandler) RegisterHealth(api huma.API) {
	huma.Get(api, "/health", h.GetHealth, huma.OperationTags("health"))
}

// RegisterLayers registers layer routes.
func (h *APIHandler) RegisterLayers(api huma.API) {
	huma.Get(api, "/api/v1/layers", h.GetLayers, huma.OperationTags("layers"))
	huma.Post(api, "/api/v1/layers", h.ImportLayer, huma.OperationTags("layers"))
	huma.Put(api, "/api/v1/layers/order", h.ReorderLayers, huma.OperationTags("layers"))
	huma.Get(api, "/api/v1/layers/{id}", h.GetLayer, huma.OperationTags("layers"))
	huma.Delete(api, "/api/v1/layers/{id}", h.DeleteLayer, huma.OperationTags("layers"))
	huma.Post(api, "/api/v1/layers/{id}/toggle", h.ToggleLayer, huma.OperationTags("layers"))
	huma.Put(api, "/api/v1/layers/{id}/opacity", h.SetOpacity, huma.OperationTags("layers"))
}

// RegisterFeatures registers the merged active set and CSV inspection routes.
func (h *APIHandler) RegisterFeatures(api huma.API) {
	huma.Get(api, "/api/v1/features", h.GetFeatures, huma.OperationTags("layers"))
	huma.Post(api, "/api/v1/inspect", h.Inspect, huma.OperationTags("layers"))
}

// RegisterBaseMaps registers base map routes.
func (h *APIHandler) RegisterBaseMaps(api huma.API) {
	huma.Get(api, "/api/v1/basemaps", h.GetBaseMaps, huma.OperationTags("basemaps"))
	huma.Post(api, "/api/v1/basemaps/{id}/toggle", h.ToggleBaseMap, huma.OperationTags("basemaps"))
}

// Handlers

func (h *APIHandler) GetHealth(ctx context.Context, input *struct{}) (*struct{ Body HealthBody }, error) {
	return &struct{ Body HealthBody }{Body: HealthBody{Status: "ok", Version: h.version}}, nil
}

func (h *APIHandler) GetLayers(ctx context.Context, input *struct{}) (*LayersOutput, error) {
	return &LayersOutput{Body: h.svc.Store.Layers()}, nil
}

func (h *APIHandler) ImportLayer(ctx context.Context, input *struct{ Body ImportBody }) (*struct{ Body ImportedBody }, error) {
	in := input.Body
	res, err := h.svc.Importer.Import(service.Import{
		Name:    in.Name,
		Format:  feature.Format(in.Format),
		Data:    []byte(in.Content),
		Columns: feature.Columns(in.Columns),
	})
	if err != nil {
		return nil, importError(err)
	}
	layer, _ := h.svc.Store.Layer(res.LayerID)
	warnings := res.Warnings
	if warnings == nil {
		warnings = []feature.Warning{}
	}
	return &struct{ Body ImportedBody }{Body: ImportedBody{
		Layer:    layer.Summary(),
		Columns:  res.Columns,
		Warnings: warnings,
		Message:  fmt.Sprintf("Loaded %d features", res.Features),
	}}, nil
}

func (h *APIHandler) GetLayer(ctx context.Context, input *IDInput) (*LayerOutput, error) {
	return h.layerOutput(input.ID)
}

func (h *APIHandler) DeleteLayer(ctx context.Context, input *IDInput) (*struct{ Body MessageBody }, error) {
	if !h.svc.Store.DeleteLayer(input.ID) {
		return nil, huma.Error404NotFound("layer not found")
	}
	return &struct{ Body MessageBody }{Body: MessageBody{Message: "Layer deleted"}}, nil
}

func (h *APIHandler) ToggleLayer(ctx context.Context, input *IDInput) (*LayerOutput, error) {
	if !h.svc.Store.ToggleVisibility(input.ID) {
		return nil, huma.Error404NotFound("layer not found")
	}
	return h.layerOutput(input.ID)
}

func (h *APIHandler) SetOpacity(ctx context.Context, input *OpacityInput) (*LayerOutput, error) {
	if _, ok := h.svc.Store.Layer(input.ID); !ok {
		return nil, huma.Error404NotFound("layer not found")
	}
	h.svc.Store.SetOpacity(input.ID, input.Body.Opacity)
	return h.layerOutput(input.ID)
}

func (h *APIHandler) ReorderLayers(ctx context.Context, input *OrderInput) (*LayersOutput, error) {
	if err := h.svc.Store.Reorder(input.Body.Order); err != nil {
		if errors.Is(err, service.ErrInvalidOrder) {
			return nil, huma.Error400BadRequest(err.Error())
		}
		return nil, huma.Error500InternalServerError("reorder failed", err)
	}
	return &LayersOutput{Body: h.svc.Store.Layers()}, nil
}

func (h *APIHandler) GetFeatures(ctx context.Context, input *struct{}) (*struct{ Body *geojson.FeatureCollection }, error) {
	return &struct{ Body *geojson.FeatureCollection }{Body: feature.Collection(h.svc.Store.Active())}, nil
}

func (h *APIHandler) Inspect(ctx context.Context, input *struct{ Body InspectBody }) (*struct{ Body InspectResult }, error) {
	t, err := feature.ReadCSV(strings.NewReader(input.Body.Content))
	if err != nil {
		return nil, importError(err)
	}
	preview := t.Rows
	if len(preview) > previewRows {
		preview = preview[:previewRows]
	}
	if preview == nil {
		preview = []map[string]string{}
	}
	return &struct{ Body InspectResult }{Body: InspectResult{
		Headers: t.Headers,
		Columns: feature.DetectColumns(t.Headers),
		Rows:    len(t.Rows),
		Preview: preview,
	}}, nil
}

func (h *APIHandler) GetBaseMaps(ctx context.Context, input *struct{}) (*struct{ Body []service.BaseMap }, error) {
	return &struct{ Body []service.BaseMap }{Body: h.svc.BaseMaps.List()}, nil
}

func (h *APIHandler) ToggleBaseMap(ctx context.Context, input *struct {
	ID string `path:"id" doc:"Base map ID" example:"relief"`
}) (*struct{ Body service.BaseMap }, error) {
	m, ok, err := h.svc.BaseMaps.Toggle(input.ID)
	if !ok {
		return nil, huma.Error404NotFound("base map not found")
	}
	if err != nil {
		return nil, huma.Error500InternalServerError("base map toggle failed", err)
	}
	return &struct{ Body service.BaseMap }{Body: m}, nil
}

func (h *APIHandler) layerOutput(id string) (*LayerOutput, error) {
	layer, ok := h.svc.Store.Layer(id)
	if !ok {
		return nil, huma.Error404NotFound("layer not found")
	}
	return &LayerOutput{Body: LayerBody{LayerSummary: layer.Summary()}}, nil
}

// importError maps parser and importer failures to HTTP errors.
func importError(err error) error {
	switch {
	case errors.Is(err, feature.ErrUnsupportedFormat),
		errors.Is(err, feature.ErrInvalidGeoJSON),
		errors.Is(err, feature.ErrInvalidCSV),
		errors.Is(err, feature.ErrMissingColumns),
		errors.Is(err, service.ErrNoFeatures):
		return huma.Error422UnprocessableEntity(err.Error())
	}
	return huma.Error500InternalServerError("import failed", err)
}
