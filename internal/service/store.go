package service

import (
	"errors"
	"fmt"
	"math"
	"sync"

	"github.com/google/uuid"

	"github.com/joeblew999/plat-map/internal/feature"
)

// ErrInvalidOrder is returned by Reorder when the new order is not a
// permutation of the current layer ids.
var ErrInvalidOrder = errors.New("invalid layer order")

// Op names a store mutation.
type Op string

const (
	OpAdd     Op = "add"
	OpToggle  Op = "toggle"
	OpDelete  Op = "delete"
	OpReorder Op = "reorder"
	OpOpacity Op = "opacity"
)

// Command is one of the store's mutations: AddLayer, ToggleVisibility,
// DeleteLayer, Reorder or SetOpacity.
type Command interface {
	op() Op
	apply(s *Store) (Result, error)
}

// Result describes the effect of a dispatched command.
type Result struct {
	LayerID string
	Changed bool
}

// Snapshot is the immutable state after one mutation. Listeners must
// treat every slice in it as read-only.
type Snapshot struct {
	Version uint64
	Op      Op
	LayerID string
	Layers  []Layer

	active []feature.Feature
	index  map[string]int
}

// Active returns the merged active set: the features of every visible
// layer, concatenated in layer order.
func (s Snapshot) Active() []feature.Feature {
	return s.active
}

// Rendered reports whether the feature id is part of the active set.
func (s Snapshot) Rendered(fid string) bool {
	_, ok := s.index[fid]
	return ok
}

// Listener receives snapshots synchronously, in mutation order.
// A listener may read the store but must not dispatch commands.
type Listener func(Snapshot)

// Store holds the ordered layer collection for the session.
type Store struct {
	mu      sync.RWMutex
	layers  []Layer
	active  []feature.Feature
	index   map[string]int
	version uint64
	newID   func() string
	bus     *EventBus

	notifyMu  sync.Mutex
	listeners []Listener
}

// Option configures a Store.
type Option func(*Store)

// WithBus publishes layer events on bus after every mutation.
func WithBus(bus *EventBus) Option {
	return func(s *Store) { s.bus = bus }
}

// WithIDFunc overrides layer id generation.
func WithIDFunc(fn func() string) Option {
	return func(s *Store) { s.newID = fn }
}

// NewStore creates an empty store. Layer ids default to UUIDv7, which are
// time ordered and unique for the life of the process.
func NewStore(opts ...Option) *Store {
	s := &Store{
		index: map[string]int{},
		newID: func() string { return uuid.Must(uuid.NewV7()).String() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Subscribe registers a listener for future snapshots.
func (s *Store) Subscribe(l Listener) {
	s.notifyMu.Lock()
	s.listeners = append(s.listeners, l)
	s.notifyMu.Unlock()
}

// Dispatch applies cmd atomically. Commands that change nothing (unknown
// ids, identical values) return Changed=false and emit no snapshot.
func (s *Store) Dispatch(cmd Command) (Result, error) {
	// notifyMu serializes writers so listeners observe snapshots in
	// mutation order; mu is never held while waiting for it.
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()

	s.mu.Lock()
	res, err := cmd.apply(s)
	if err != nil || !res.Changed {
		s.mu.Unlock()
		return res, err
	}
	s.version++
	s.rebuildLocked()
	snap := s.snapshotLocked(cmd.op(), res.LayerID)
	s.mu.Unlock()

	for _, l := range s.listeners {
		l(snap)
	}
	s.bus.Publish(Event{Resource: "layers", Action: string(snap.Op), ID: res.LayerID})
	return res, nil
}

// AddLayer appends a visible layer and returns its id.
func (s *Store) AddLayer(name string, features []feature.Feature) string {
	res, _ := s.Dispatch(AddLayer{Name: name, Features: features})
	return res.LayerID
}

// ToggleVisibility flips a layer's visibility. Unknown ids are ignored.
func (s *Store) ToggleVisibility(id string) bool {
	res, _ := s.Dispatch(ToggleVisibility{ID: id})
	return res.Changed
}

// DeleteLayer removes a layer. Unknown ids are ignored.
func (s *Store) DeleteLayer(id string) bool {
	res, _ := s.Dispatch(DeleteLayer{ID: id})
	return res.Changed
}

// Reorder replaces the layer order.
func (s *Store) Reorder(order []string) error {
	_, err := s.Dispatch(Reorder{Order: order})
	return err
}

// SetOpacity sets a layer's opacity, clamped to [0,1].
func (s *Store) SetOpacity(id string, opacity float64) bool {
	res, _ := s.Dispatch(SetOpacity{ID: id, Opacity: opacity})
	return res.Changed
}

// Layers returns summaries in store order.
func (s *Store) Layers() []LayerSummary {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]LayerSummary, len(s.layers))
	for i, l := range s.layers {
		out[i] = l.Summary()
	}
	return out
}

// Layer returns a layer by id.
func (s *Store) Layer(id string) (Layer, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if i := s.indexOf(id); i >= 0 {
		return s.layers[i], true
	}
	return Layer{}, false
}

// Active returns the merged active set.
func (s *Store) Active() []feature.Feature {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.active
}

// ActiveFeature resolves a feature id against the rendered features.
func (s *Store) ActiveFeature(fid string) (feature.Feature, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i, ok := s.index[fid]
	if !ok {
		return feature.Feature{}, false
	}
	return s.active[i], true
}

// Snapshot returns the current state.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked("", "")
}

func (s *Store) indexOf(id string) int {
	for i, l := range s.layers {
		if l.ID == id {
			return i
		}
	}
	return -1
}

// rebuildLocked recomputes the merged active set. It always allocates new
// slices so earlier snapshots stay valid.
func (s *Store) rebuildLocked() {
	var active []feature.Feature
	index := map[string]int{}
	for _, l := range s.layers {
		if !l.Visible {
			continue
		}
		for _, f := range l.Features {
			index[f.ID] = len(active)
			active = append(active, f)
		}
	}
	s.active = active
	s.index = index
}

func (s *Store) snapshotLocked(op Op, layerID string) Snapshot {
	layers := make([]Layer, len(s.layers))
	copy(layers, s.layers)
	return Snapshot{
		Version: s.version,
		Op:      op,
		LayerID: layerID,
		Layers:  layers,
		active:  s.active,
		index:   s.index,
	}
}

// AddLayer appends a new visible layer at the end of the order.
type AddLayer struct {
	Name     string
	Features []feature.Feature
}

func (AddLayer) op() Op { return OpAdd }

func (c AddLayer) apply(s *Store) (Result, error) {
	id := s.newID()
	if s.indexOf(id) >= 0 {
		return Result{}, fmt.Errorf("layer with ID %q already exists", id)
	}
	features := make([]feature.Feature, len(c.Features))
	for i, f := range c.Features {
		features[i] = f.Clone()
	}
	s.layers = append(s.layers, Layer{
		ID:       id,
		Name:     c.Name,
		Features: features,
		Visible:  true,
		Opacity:  1,
	})
	return Result{LayerID: id, Changed: true}, nil
}

// ToggleVisibility flips one layer's visibility.
type ToggleVisibility struct{ ID string }

func (ToggleVisibility) op() Op { return OpToggle }

func (c ToggleVisibility) apply(s *Store) (Result, error) {
	i := s.indexOf(c.ID)
	if i < 0 {
		return Result{LayerID: c.ID}, nil
	}
	s.layers[i].Visible = !s.layers[i].Visible
	return Result{LayerID: c.ID, Changed: true}, nil
}

// DeleteLayer removes one layer.
type DeleteLayer struct{ ID string }

func (DeleteLayer) op() Op { return OpDelete }

func (c DeleteLayer) apply(s *Store) (Result, error) {
	i := s.indexOf(c.ID)
	if i < 0 {
		return Result{LayerID: c.ID}, nil
	}
	layers := make([]Layer, 0, len(s.layers)-1)
	layers = append(layers, s.layers[:i]...)
	s.layers = append(layers, s.layers[i+1:]...)
	return Result{LayerID: c.ID, Changed: true}, nil
}

// Reorder replaces the iteration order. Order must name every current
// layer exactly once.
type Reorder struct{ Order []string }

func (Reorder) op() Op { return OpReorder }

func (c Reorder) apply(s *Store) (Result, error) {
	if len(c.Order) != len(s.layers) {
		return Result{}, fmt.Errorf("%w: got %d ids, have %d layers", ErrInvalidOrder, len(c.Order), len(s.layers))
	}
	seen := make(map[string]bool, len(c.Order))
	layers := make([]Layer, 0, len(c.Order))
	same := true
	for pos, id := range c.Order {
		if seen[id] {
			return Result{}, fmt.Errorf("%w: duplicate id %q", ErrInvalidOrder, id)
		}
		seen[id] = true
		i := s.indexOf(id)
		if i < 0 {
			return Result{}, fmt.Errorf("%w: unknown id %q", ErrInvalidOrder, id)
		}
		if i != pos {
			same = false
		}
		layers = append(layers, s.layers[i])
	}
	if same {
		return Result{}, nil
	}
	s.layers = layers
	return Result{Changed: true}, nil
}

// SetOpacity changes one layer's opacity.
type SetOpacity struct {
	ID      string
	Opacity float64
}

func (SetOpacity) op() Op { return OpOpacity }

func (c SetOpacity) apply(s *Store) (Result, error) {
	i := s.indexOf(c.ID)
	if i < 0 || math.IsNaN(c.Opacity) {
		return Result{LayerID: c.ID}, nil
	}
	o := min(max(c.Opacity, 0), 1)
	if s.layers[i].Opacity == o {
		return Result{LayerID: c.ID}, nil
	}
	s.layers[i].Opacity = o
	return Result{LayerID: c.ID, Changed: true}, nil
}
