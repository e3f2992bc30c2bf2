package service

import "sync"

// RasterSurface is the part of the rendering surface that shows raster
// tile layers.
type RasterSurface interface {
	AddRasterLayer(id, tileURL string, opacity float64) error
	RemoveRasterLayer(id string) error
}

// BaseMapService manages the static base-map catalogue and which entries
// are shown. It is independent of the uploaded layer model.
type BaseMapService struct {
	mu      sync.RWMutex
	maps    []BaseMap
	surface RasterSurface
	bus     *EventBus
}

// NewBaseMapService creates a service for the configured base maps.
func NewBaseMapService(maps []BaseMap, bus *EventBus) *BaseMapService {
	cp := make([]BaseMap, len(maps))
	copy(cp, maps)
	for i := range cp {
		if cp[i].Opacity == 0 {
			cp[i].Opacity = 1
		}
	}
	return &BaseMapService{maps: cp, bus: bus}
}

// Attach binds the rendering surface and shows every enabled base map.
func (s *BaseMapService) Attach(surface RasterSurface) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.surface = surface
	for _, m := range s.maps {
		if !m.Enabled {
			continue
		}
		if err := surface.AddRasterLayer(m.ID, m.URL, m.Opacity); err != nil {
			return err
		}
	}
	return nil
}

// List returns the catalogue in configured order.
func (s *BaseMapService) List() []BaseMap {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]BaseMap, len(s.maps))
	copy(out, s.maps)
	return out
}

// Toggle shows or hides a base map. Unknown ids return ok=false.
func (s *BaseMapService) Toggle(id string) (BaseMap, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.maps {
		if s.maps[i].ID != id {
			continue
		}
		m := &s.maps[i]
		if s.surface != nil {
			var err error
			if m.Enabled {
				err = s.surface.RemoveRasterLayer(m.ID)
			} else {
				err = s.surface.AddRasterLayer(m.ID, m.URL, m.Opacity)
			}
			if err != nil {
				return *m, true, err
			}
		}
		m.Enabled = !m.Enabled
		s.bus.Publish(Event{Resource: "basemaps", Action: "toggle", ID: id})
		return *m, true, nil
	}
	return BaseMap{}, false, nil
}
