// Package interaction tracks transient per-feature UI state: which feature
// is hovered, which is active, and the popup that goes with them.
//
// Transitions:
//
//	state    event               effect
//	Idle     Enter(f)            set hover(f), show popup      → Hovered
//	Hovered  Enter(g)            clear hover(f), set hover(g)  → Hovered
//	Hovered  Leave               clear hover, close popup      → Idle
//	Active   Leave               clear hover, show active popup → Active
//	any      Click(f)            clear active(prev), set active(f) → Active
//	Active   ClickEmpty          clear active, show hover popup or close → Hovered|Idle
//
// A prior flag is always cleared before a new one is set. There is one popup:
// it belongs to the hovered feature while there is one, otherwise to the
// active feature.
package interaction

import (
	"sync"

	"github.com/paulmach/orb"

	"github.com/joeblew999/plat-map/internal/feature"
)

// Feature state keys.
const (
	StateHover  = "hover"
	StateActive = "active"
)

// NoDescription is the popup text for features without a description.
const NoDescription = "No description available"

// State is the controller's derived state.
type State string

const (
	Idle    State = "idle"
	Hovered State = "hovered"
	Active  State = "active"
)

// Popup is a popup anchored on the map.
type Popup struct {
	FeatureID string    `json:"featureId"`
	LngLat    orb.Point `json:"lngLat"`
	Text      string    `json:"text"`
}

// Surface is the part of the rendering surface the controller drives.
type Surface interface {
	SetFeatureState(fid, key string, value bool) error
	ShowPopup(p Popup) error
	ClosePopup() error
}

// Resolver looks up rendered features by id.
type Resolver interface {
	ActiveFeature(fid string) (feature.Feature, bool)
}

// Controller implements the hover/active state machine.
type Controller struct {
	mu       sync.Mutex
	surface  Surface
	resolver Resolver
	hover    string
	active   string
	hoverAt  orb.Point
	activeAt orb.Point
}

// NewController creates a controller in the Idle state.
func NewController(surface Surface, resolver Resolver) *Controller {
	return &Controller{surface: surface, resolver: resolver}
}

// State returns the current derived state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stateLocked()
}

func (c *Controller) stateLocked() State {
	switch {
	case c.active != "":
		return Active
	case c.hover != "":
		return Hovered
	}
	return Idle
}

// Hovered returns the hovered feature id, or "".
func (c *Controller) Hovered() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hover
}

// Selected returns the active feature id, or "".
func (c *Controller) Selected() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active
}

// PointerEnter marks fid as hovered and opens its popup. Unknown ids are
// ignored.
func (c *Controller) PointerEnter(fid string, at orb.Point) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	f, ok := c.resolve(fid)
	if !ok {
		return nil
	}
	if err := c.swapLocked(&c.hover, StateHover, fid); err != nil {
		return err
	}
	c.hoverAt = at
	return c.surface.ShowPopup(popupFor(f, at))
}

// PointerLeave clears the hover flag. The popup falls back to the active
// feature, or closes when there is none.
func (c *Controller) PointerLeave() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.swapLocked(&c.hover, StateHover, ""); err != nil {
		return err
	}
	return c.popupLocked()
}

// Click makes fid the active feature. Unknown ids are ignored.
func (c *Controller) Click(fid string, at orb.Point) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	f, ok := c.resolve(fid)
	if !ok {
		return nil
	}
	if err := c.swapLocked(&c.active, StateActive, fid); err != nil {
		return err
	}
	c.activeAt = at
	return c.surface.ShowPopup(popupFor(f, at))
}

// ClickEmpty clears the active feature. The popup falls back to the hovered
// feature, or closes when there is none.
func (c *Controller) ClickEmpty() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.active == "" {
		return nil
	}
	if err := c.swapLocked(&c.active, StateActive, ""); err != nil {
		return err
	}
	return c.popupLocked()
}

// Reconcile clears flags on features that are no longer rendered.
func (c *Controller) Reconcile(rendered func(fid string) bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	closePopup := false
	if c.hover != "" && !rendered(c.hover) {
		if err := c.swapLocked(&c.hover, StateHover, ""); err != nil {
			return err
		}
		closePopup = true
	}
	if c.active != "" && !rendered(c.active) {
		if err := c.swapLocked(&c.active, StateActive, ""); err != nil {
			return err
		}
		closePopup = true
	}
	if closePopup {
		return c.popupLocked()
	}
	return nil
}

// popupLocked shows the popup of the remaining flag holder, hover first, or
// closes it.
func (c *Controller) popupLocked() error {
	if f, ok := c.resolve(c.hover); ok {
		return c.surface.ShowPopup(popupFor(f, c.hoverAt))
	}
	if f, ok := c.resolve(c.active); ok {
		return c.surface.ShowPopup(popupFor(f, c.activeAt))
	}
	return c.surface.ClosePopup()
}

func (c *Controller) resolve(fid string) (feature.Feature, bool) {
	if fid == "" || c.resolver == nil {
		return feature.Feature{}, false
	}
	f, ok := c.resolver.ActiveFeature(fid)
	if !ok || f.Geometry == nil {
		return feature.Feature{}, false
	}
	return f, true
}

// swapLocked reads the current holder of a flag, clears it, then sets the
// flag on next (if any).
func (c *Controller) swapLocked(slot *string, key, next string) error {
	prev := *slot
	if prev == next {
		return nil
	}
	if prev != "" {
		if err := c.surface.SetFeatureState(prev, key, false); err != nil {
			return err
		}
		*slot = ""
	}
	if next != "" {
		if err := c.surface.SetFeatureState(next, key, true); err != nil {
			return err
		}
		*slot = next
	}
	return nil
}

func popupFor(f feature.Feature, at orb.Point) Popup {
	text := f.Description()
	if text == "" {
		text = NoDescription
	}
	if pt, ok := f.Geometry.(orb.Point); ok {
		at = pt
	}
	return Popup{FeatureID: f.ID, LngLat: at, Text: text}
}
