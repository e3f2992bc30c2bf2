// Package mapsync keeps the rendering surface in step with the layer store.
package mapsync

import (
	"sync"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/rs/zerolog/log"

	"github.com/joeblew999/plat-map/internal/service"
)

// SourceName is the vector source holding the merged active set.
const SourceName = "places"

// Properties added to every pushed feature so the page can style by layer.
const (
	PropLayer   = "_layer"
	PropOpacity = "_opacity"
)

// FitOptions controls how the surface fits its viewport to bounds.
type FitOptions struct {
	Padding int     `json:"padding" yaml:"padding"`
	MaxZoom float64 `json:"maxZoom" yaml:"max_zoom"`
}

// DefaultFitOptions pads by 50px and never zooms closer than level 15.
var DefaultFitOptions = FitOptions{Padding: 50, MaxZoom: 15}

// Surface is the part of the rendering surface the adapter drives.
type Surface interface {
	Ready() bool
	SetSource(name string, fc *geojson.FeatureCollection) error
	FitBounds(b orb.Bound, opts FitOptions) error
}

// Adapter pushes store snapshots to a Surface. While the surface is not
// ready only the latest snapshot is kept; Flush applies it.
type Adapter struct {
	mu         sync.Mutex
	surface    Surface
	opts       FitOptions
	pending    *service.Snapshot
	pendingFit bool
	lastCount  int
}

// NewAdapter creates an adapter for surface.
func NewAdapter(surface Surface, opts FitOptions) *Adapter {
	if opts.MaxZoom <= 0 {
		opts.MaxZoom = DefaultFitOptions.MaxZoom
	}
	if opts.Padding < 0 {
		opts.Padding = 0
	}
	return &Adapter{surface: surface, opts: opts}
}

// Listener returns a store listener that applies snapshots and logs failures.
func (a *Adapter) Listener() service.Listener {
	return func(snap service.Snapshot) {
		if err := a.Apply(snap); err != nil {
			log.Error().Err(err).Uint64("version", snap.Version).Msg("map sync failed")
		}
	}
}

// Apply pushes snap to the surface, or queues it if the surface is not ready.
func (a *Adapter) Apply(snap service.Snapshot) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	grow := a.lastCount == 0 && len(snap.Active()) > 0
	a.pendingFit = a.pendingFit || snap.Op == service.OpAdd || grow
	a.lastCount = len(snap.Active())

	if !a.surface.Ready() {
		a.pending = &snap
		log.Debug().Uint64("version", snap.Version).Msg("surface not ready, snapshot queued")
		return nil
	}
	a.pending = nil
	return a.pushLocked(snap)
}

// Flush applies the queued snapshot, if any. Call it once the surface
// becomes ready.
func (a *Adapter) Flush() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.pending == nil || !a.surface.Ready() {
		return nil
	}
	snap := *a.pending
	a.pending = nil
	return a.pushLocked(snap)
}

func (a *Adapter) pushLocked(snap service.Snapshot) error {
	if err := a.surface.SetSource(SourceName, Collection(snap)); err != nil {
		return err
	}
	fit := a.pendingFit
	a.pendingFit = false
	if !fit {
		return nil
	}
	b, ok := Bounds(snap.Active())
	if !ok {
		return nil
	}
	log.Debug().
		Float64("west", b.Min.Lon()).Float64("south", b.Min.Lat()).
		Float64("east", b.Max.Lon()).Float64("north", b.Max.Lat()).
		Msg("fitting viewport")
	return a.surface.FitBounds(b, a.opts)
}

// Collection builds the FeatureCollection for the merged active set of snap,
// tagging each feature with its layer id and opacity.
func Collection(snap service.Snapshot) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, l := range snap.Layers {
		if !l.Visible {
			continue
		}
		for _, f := range l.Features {
			gf := f.GeoJSON()
			gf.Properties[PropLayer] = l.ID
			gf.Properties[PropOpacity] = l.Opacity
			fc.Append(gf)
		}
	}
	return fc
}
