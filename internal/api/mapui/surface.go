// Package mapui contains the Datastar SSE handlers that drive the browser map
// and its layer panel.
package mapui

import (
	"sort"
	"sync"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/rs/zerolog/log"

	"github.com/joeblew999/plat-map/internal/interaction"
	"github.com/joeblew999/plat-map/internal/mapsync"
)

// Custom DOM events dispatched to the page, prefixed with "platmap:".
const (
	EventSource       = "source"
	EventFit          = "fit"
	EventFeatureState = "feature-state"
	EventPopup        = "popup"
	EventPopupClose   = "popup-close"
	EventRaster       = "raster"
)

// Command is one imperative map call delivered to connected pages.
type Command struct {
	Event  string
	Detail any
}

type sourceDetail struct {
	Name string                     `json:"name"`
	Data *geojson.FeatureCollection `json:"data"`
}

type fitDetail struct {
	BBox    [4]float64 `json:"bbox"`
	Padding int        `json:"padding"`
	MaxZoom float64    `json:"maxZoom"`
}

type stateDetail struct {
	FeatureID string `json:"featureId"`
	Key       string `json:"key"`
	Value     bool   `json:"value"`
}

type rasterDetail struct {
	ID      string  `json:"id"`
	URL     string  `json:"url,omitempty"`
	Opacity float64 `json:"opacity,omitempty"`
	Remove  bool    `json:"remove,omitempty"`
}

// SignalSurface is the server-side model of the rendering surface. It records
// the current map state and fans every change out to connected pages; a page
// that connects late receives the recorded state first.
type SignalSurface struct {
	mu      sync.Mutex
	ready   bool
	subs    map[chan Command]struct{}
	buffer  int
	sources map[string]*geojson.FeatureCollection
	fit     *fitDetail
	states  map[string]map[string]bool
	popup   *interaction.Popup
	rasters []rasterDetail
}

// NewSignalSurface creates a surface that is not ready until MarkReady.
func NewSignalSurface() *SignalSurface {
	return &SignalSurface{
		subs:    make(map[chan Command]struct{}),
		buffer:  64,
		sources: make(map[string]*geojson.FeatureCollection),
		states:  make(map[string]map[string]bool),
	}
}

// Ready reports whether a page has finished loading its map.
func (s *SignalSurface) Ready() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ready
}

// MarkReady records the page's ready handshake.
func (s *SignalSurface) MarkReady() {
	s.mu.Lock()
	s.ready = true
	s.mu.Unlock()
}

// Subscribe registers a page and returns its command channel preloaded with
// the current state. The channel is closed on Unsubscribe or when the page
// falls too far behind.
func (s *SignalSurface) Subscribe() chan Command {
	s.mu.Lock()
	defer s.mu.Unlock()

	state := s.stateLocked()
	size := s.buffer
	if len(state) > size {
		size = len(state) + s.buffer
	}
	ch := make(chan Command, size)
	for _, c := range state {
		ch <- c
	}
	s.subs[ch] = struct{}{}
	return ch
}

// Unsubscribe removes a page. The surface becomes not ready once the last
// page disconnects.
func (s *SignalSurface) Unsubscribe(ch chan Command) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.subs[ch]; ok {
		delete(s.subs, ch)
		close(ch)
	}
	if len(s.subs) == 0 {
		s.ready = false
	}
}

// Clients returns the number of connected pages.
func (s *SignalSurface) Clients() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subs)
}

// SetSource replaces the named vector source.
func (s *SignalSurface) SetSource(name string, fc *geojson.FeatureCollection) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sources[name] = fc
	s.broadcastLocked(Command{EventSource, sourceDetail{Name: name, Data: fc}})
	return nil
}

// Source returns the last collection pushed under name.
func (s *SignalSurface) Source(name string) *geojson.FeatureCollection {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sources[name]
}

// FitBounds asks the pages to fit their viewport to b.
func (s *SignalSurface) FitBounds(b orb.Bound, opts mapsync.FitOptions) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.fit = &fitDetail{
		BBox:    [4]float64{b.Min.Lon(), b.Min.Lat(), b.Max.Lon(), b.Max.Lat()},
		Padding: opts.Padding,
		MaxZoom: opts.MaxZoom,
	}
	s.broadcastLocked(Command{EventFit, *s.fit})
	return nil
}

// SetFeatureState sets or clears one transient flag on a rendered feature.
func (s *SignalSurface) SetFeatureState(fid, key string, value bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	flags := s.states[fid]
	if value {
		if flags == nil {
			flags = make(map[string]bool)
			s.states[fid] = flags
		}
		flags[key] = true
	} else if flags != nil {
		delete(flags, key)
		if len(flags) == 0 {
			delete(s.states, fid)
		}
	}
	s.broadcastLocked(Command{EventFeatureState, stateDetail{FeatureID: fid, Key: key, Value: value}})
	return nil
}

// FeatureState reports a recorded flag.
func (s *SignalSurface) FeatureState(fid, key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.states[fid][key]
}

// ShowPopup opens the single popup at p.
func (s *SignalSurface) ShowPopup(p interaction.Popup) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.popup = &p
	s.broadcastLocked(Command{EventPopup, p})
	return nil
}

// ClosePopup closes the popup if one is open.
func (s *SignalSurface) ClosePopup() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.popup == nil {
		return nil
	}
	s.popup = nil
	s.broadcastLocked(Command{EventPopupClose, struct{}{}})
	return nil
}

// Popup returns the open popup, if any.
func (s *SignalSurface) Popup() (interaction.Popup, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.popup == nil {
		return interaction.Popup{}, false
	}
	return *s.popup, true
}

// AddRasterLayer shows a raster tile layer beneath the vector layers.
func (s *SignalSurface) AddRasterLayer(id, tileURL string, opacity float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.rasterIndex(id) >= 0 {
		return nil
	}
	r := rasterDetail{ID: id, URL: tileURL, Opacity: opacity}
	s.rasters = append(s.rasters, r)
	s.broadcastLocked(Command{EventRaster, r})
	return nil
}

// RemoveRasterLayer hides a raster tile layer.
func (s *SignalSurface) RemoveRasterLayer(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.rasterIndex(id)
	if i < 0 {
		return nil
	}
	s.rasters = append(s.rasters[:i], s.rasters[i+1:]...)
	s.broadcastLocked(Command{EventRaster, rasterDetail{ID: id, Remove: true}})
	return nil
}

// Rasters returns the ids of the shown raster layers in add order.
func (s *SignalSurface) Rasters() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := make([]string, len(s.rasters))
	for i, r := range s.rasters {
		ids[i] = r.ID
	}
	return ids
}

func (s *SignalSurface) rasterIndex(id string) int {
	for i, r := range s.rasters {
		if r.ID == id {
			return i
		}
	}
	return -1
}

// stateLocked replays the recorded state as commands: rasters first so they
// sit beneath the vector layers, then sources, flags, popup and viewport.
func (s *SignalSurface) stateLocked() []Command {
	var out []Command
	for _, r := range s.rasters {
		out = append(out, Command{EventRaster, r})
	}
	names := make([]string, 0, len(s.sources))
	for name := range s.sources {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		out = append(out, Command{EventSource, sourceDetail{Name: name, Data: s.sources[name]}})
	}
	fids := make([]string, 0, len(s.states))
	for fid := range s.states {
		fids = append(fids, fid)
	}
	sort.Strings(fids)
	for _, fid := range fids {
		for key := range s.states[fid] {
			out = append(out, Command{EventFeatureState, stateDetail{FeatureID: fid, Key: key, Value: true}})
		}
	}
	if s.popup != nil {
		out = append(out, Command{EventPopup, *s.popup})
	}
	if s.fit != nil {
		out = append(out, Command{EventFit, *s.fit})
	}
	return out
}

// broadcastLocked never blocks: a page whose buffer is full is dropped and
// resynchronises from the recorded state when it reconnects.
func (s *SignalSurface) broadcastLocked(c Command) {
	for ch := range s.subs {
		select {
		case ch <- c:
		default:
			log.Warn().Str("event", c.Event).Msg("map client too slow, dropping stream")
			delete(s.subs, ch)
			close(ch)
		}
	}
}
