package interaction

import (
	"testing"

	"github.com/paulmach/orb"

	"github.com/joeblew999/plat-map/internal/feature"
)

type stateCall struct {
	fid, key string
	value    bool
}

type fakeSurface struct {
	calls  []stateCall
	popup  *Popup
	closed int
}

func (f *fakeSurface) SetFeatureState(fid, key string, value bool) error {
	f.calls = append(f.calls, stateCall{fid, key, value})
	return nil
}

func (f *fakeSurface) ShowPopup(p Popup) error {
	f.popup = &p
	return nil
}

func (f *fakeSurface) ClosePopup() error {
	f.popup = nil
	f.closed++
	return nil
}

// flags replays the recorded calls and returns which ids hold key.
func (f *fakeSurface) flags(key string) map[string]bool {
	out := map[string]bool{}
	for _, c := range f.calls {
		if c.key != key {
			continue
		}
		if c.value {
			out[c.fid] = true
		} else {
			delete(out, c.fid)
		}
	}
	return out
}

type mapResolver map[string]feature.Feature

func (m mapResolver) ActiveFeature(fid string) (feature.Feature, bool) {
	f, ok := m[fid]
	return f, ok
}

func newTest() (*Controller, *fakeSurface, mapResolver) {
	r := mapResolver{
		"p": {ID: "p", Geometry: orb.Point{139.7, 35.6}, Properties: feature.Properties{"description": "extra: x"}},
		"q": {ID: "q", Geometry: orb.Point{1, 1}, Properties: feature.Properties{}},
		"poly": {ID: "poly", Geometry: orb.Polygon{{{0, 0}, {1, 0}, {1, 1}, {0, 0}}}, Properties: feature.Properties{}},
		"nogeom": {ID: "nogeom"},
	}
	s := &fakeSurface{}
	return NewController(s, r), s, r
}

func TestHoverEnterLeave(t *testing.T) {
	c, s, _ := newTest()
	if err := c.PointerEnter("p", orb.Point{0, 0}); err != nil {
		t.Fatal(err)
	}
	if c.State() != Hovered || c.Hovered() != "p" {
		t.Fatalf("state=%s hovered=%q", c.State(), c.Hovered())
	}
	if s.popup == nil || s.popup.Text != "extra: x" || s.popup.LngLat != (orb.Point{139.7, 35.6}) {
		t.Fatalf("popup=%+v", s.popup)
	}

	c.PointerLeave()
	if c.State() != Idle || len(s.flags(StateHover)) != 0 || s.popup != nil {
		t.Fatalf("state=%s flags=%v popup=%v", c.State(), s.flags(StateHover), s.popup)
	}
}

func TestHoverClearsBeforeSet(t *testing.T) {
	c, s, _ := newTest()
	c.PointerEnter("p", orb.Point{})
	c.PointerEnter("q", orb.Point{})

	want := []stateCall{{"p", StateHover, true}, {"p", StateHover, false}, {"q", StateHover, true}}
	if len(s.calls) != len(want) {
		t.Fatalf("calls=%v, want %v", s.calls, want)
	}
	for i := range want {
		if s.calls[i] != want[i] {
			t.Fatalf("call %d=%v, want %v", i, s.calls[i], want[i])
		}
	}
	if f := s.flags(StateHover); len(f) != 1 || !f["q"] {
		t.Fatalf("hover flags=%v, want only q", f)
	}
}

func TestClickSingleActive(t *testing.T) {
	c, s, _ := newTest()
	c.Click("p", orb.Point{})
	c.Click("poly", orb.Point{0.5, 0.5})

	if f := s.flags(StateActive); len(f) != 1 || !f["poly"] {
		t.Fatalf("active flags=%v, want only poly", f)
	}
	if s.popup.LngLat != (orb.Point{0.5, 0.5}) || s.popup.Text != NoDescription {
		t.Fatalf("popup=%+v", s.popup)
	}

	c.ClickEmpty()
	if c.State() != Idle || len(s.flags(StateActive)) != 0 || s.popup != nil {
		t.Fatalf("state=%s", c.State())
	}
}

func TestActiveAndHoverIndependent(t *testing.T) {
	c, s, _ := newTest()
	c.Click("p", orb.Point{})
	c.PointerEnter("q", orb.Point{})
	if c.State() != Active {
		t.Fatalf("state=%s, want active", c.State())
	}
	c.ClickEmpty()
	if c.State() != Hovered || s.popup == nil || s.popup.FeatureID != "q" {
		t.Fatalf("state=%s popup=%+v, want hovered with q popup", c.State(), s.popup)
	}
}

func TestLeaveRestoresActivePopup(t *testing.T) {
	c, s, _ := newTest()
	c.Click("poly", orb.Point{0.5, 0.5})
	c.PointerEnter("p", orb.Point{})
	if s.popup == nil || s.popup.FeatureID != "p" {
		t.Fatalf("popup=%+v, want p", s.popup)
	}

	c.PointerLeave()
	if c.State() != Active || s.popup == nil {
		t.Fatalf("state=%s popup=%v, want active with popup", c.State(), s.popup)
	}
	if s.popup.FeatureID != "poly" || s.popup.LngLat != (orb.Point{0.5, 0.5}) || s.popup.Text != NoDescription {
		t.Fatalf("popup=%+v, want poly at click position", s.popup)
	}
	if s.closed != 0 {
		t.Fatalf("closed=%d, want 0", s.closed)
	}
}

func TestClickEmptyShowsHoveredPopup(t *testing.T) {
	c, s, _ := newTest()
	c.PointerEnter("p", orb.Point{})
	c.Click("q", orb.Point{})
	if s.popup.FeatureID != "q" {
		t.Fatalf("popup=%+v, want q", s.popup)
	}

	c.ClickEmpty()
	if s.popup == nil || s.popup.FeatureID != "p" || s.popup.Text != "extra: x" {
		t.Fatalf("popup=%+v, want p", s.popup)
	}
}

func TestUnresolvableIsNoop(t *testing.T) {
	c, s, _ := newTest()
	for _, fid := range []string{"", "missing", "nogeom"} {
		if err := c.PointerEnter(fid, orb.Point{}); err != nil {
			t.Fatal(err)
		}
		if err := c.Click(fid, orb.Point{}); err != nil {
			t.Fatal(err)
		}
	}
	if c.State() != Idle || len(s.calls) != 0 || s.popup != nil {
		t.Fatalf("state=%s calls=%v", c.State(), s.calls)
	}
}

func TestReconcileClearsRemoved(t *testing.T) {
	c, s, _ := newTest()
	c.PointerEnter("p", orb.Point{})
	c.Click("q", orb.Point{})

	c.Reconcile(func(fid string) bool { return fid == "q" })
	if c.Hovered() != "" || c.Selected() != "q" {
		t.Fatalf("hovered=%q selected=%q", c.Hovered(), c.Selected())
	}
	if s.popup == nil || s.popup.FeatureID != "q" {
		t.Fatalf("popup=%+v, want q", s.popup)
	}
	c.Reconcile(func(string) bool { return false })
	if c.State() != Idle || s.popup != nil || len(s.flags(StateActive)) != 0 {
		t.Fatalf("state=%s popup=%v", c.State(), s.popup)
	}
}
