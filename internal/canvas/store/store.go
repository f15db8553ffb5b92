// Package store keeps the in-memory overlay collection for the screen being
// edited and tells subscribers about every change.
//
// Consistency policy: edits are applied locally first and then persisted.
// A failed persist is reported to the caller but never rolled back; the
// user reloads to resync. Create is the exception because the backend
// assigns the identifier, so it is request-then-apply.
package store

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/medusa-canvas/internal/canvas/geometry"
	"github.com/Nixie-Tech-LLC/medusa-canvas/internal/eventbus"
	"github.com/Nixie-Tech-LLC/medusa-canvas/internal/model"
)

var (
	ErrLoad   = errors.New("load overlays failed")
	ErrCreate = errors.New("create overlay failed")
	ErrUpdate = errors.New("update overlay failed")
	ErrDelete = errors.New("delete overlay failed")

	ErrNotFound = errors.New("overlay not found")
	ErrNoScreen = errors.New("no screen loaded")
	// ErrStale is returned when a response arrives after another screen
	// was loaded; the response is dropped.
	ErrStale = errors.New("response belongs to a screen that is no longer loaded")
)

// Gateway is the part of the sync gateway the store persists through.
type Gateway interface {
	FetchOverlays(ctx context.Context, screenID int) ([]model.Overlay, error)
	CreateOverlay(ctx context.Context, screenID int, draft model.Overlay) (model.Overlay, error)
	UpdateOverlay(ctx context.Context, screenID, id int, patch model.OverlayPatch) error
	DeleteOverlay(ctx context.Context, screenID, id int) error
}

type ChangeKind string

const (
	Loaded  ChangeKind = "loaded"
	Created ChangeKind = "created"
	Moved   ChangeKind = "moved"
	Updated ChangeKind = "updated"
	Removed ChangeKind = "removed"
)

type Change struct {
	Kind      ChangeKind
	ScreenID  int
	OverlayID int // zero for Loaded
}

type Store struct {
	gw  Gateway
	bus *eventbus.Bus[Change]

	mu         sync.RWMutex
	screenID   int
	generation uint64
	overlays   []model.Overlay
}

func New(gw Gateway) *Store {
	return &Store{gw: gw, bus: eventbus.New[Change]()}
}

// Subscribe registers handler for change events. Handlers run synchronously
// on the goroutine that made the change, after the store lock is released.
func (s *Store) Subscribe(handler func(Change)) func() {
	return s.bus.Subscribe(handler)
}

// NewDraft returns an overlay populated with the creation defaults.
func NewDraft(screenID, companyID int, contentID *int, name string) model.Overlay {
	return model.Overlay{
		ScreenID:  screenID,
		CompanyID: companyID,
		ContentID: contentID,
		Name:      name,
		PositionX: 100,
		PositionY: 100,
		Width:     300,
		Height:    200,
		ZIndex:    1,
		Opacity:   1.0,
		Rotation:  0,
		Status:    model.StatusDraft,
	}
}

func (s *Store) ScreenID() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.screenID
}

// Overlays returns a copy of the collection in insertion order.
func (s *Store) Overlays() []model.Overlay {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.overlays)
}

func (s *Store) Get(id int) (model.Overlay, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := s.index(id); i >= 0 {
		return s.overlays[i], true
	}
	return model.Overlay{}, false
}

// index must be called with s.mu held.
func (s *Store) index(id int) int {
	return slices.IndexFunc(s.overlays, func(o model.Overlay) bool { return o.ID == id })
}

// Load replaces the collection with the overlays of screenID. On failure
// the previous collection is left as it was.
func (s *Store) Load(ctx context.Context, screenID int) error {
	s.mu.Lock()
	s.generation++
	gen := s.generation
	s.mu.Unlock()

	overlays, err := s.gw.FetchOverlays(ctx, screenID)
	if err != nil {
		log.Error().Err(err).Int("screen_id", screenID).Msg("failed to load overlays")
		return fmt.Errorf("%w: screen %d: %w", ErrLoad, screenID, err)
	}
	for i := range overlays {
		overlays[i].Opacity = geometry.ClampOpacity(overlays[i].Opacity)
	}

	s.mu.Lock()
	if gen != s.generation {
		s.mu.Unlock()
		log.Debug().Int("screen_id", screenID).Msg("dropping stale overlay load")
		return fmt.Errorf("%w: %w", ErrLoad, ErrStale)
	}
	s.screenID = screenID
	s.overlays = overlays
	s.mu.Unlock()

	s.bus.Publish(Change{Kind: Loaded, ScreenID: screenID})
	return nil
}

// Create validates draft, asks the backend to create it and appends the
// confirmed overlay. Nothing changes locally if either step fails.
func (s *Store) Create(ctx context.Context, draft model.Overlay) (model.Overlay, error) {
	if err := geometry.Validate(draft); err != nil {
		return model.Overlay{}, err
	}
	if err := geometry.ValidatePatch(model.OverlayPatch{Status: &draft.Status}); err != nil {
		return model.Overlay{}, err
	}
	draft.Opacity = geometry.ClampOpacity(draft.Opacity)

	s.mu.RLock()
	screenID, gen := s.screenID, s.generation
	s.mu.RUnlock()
	if screenID == 0 {
		return model.Overlay{}, fmt.Errorf("%w: %w", ErrCreate, ErrNoScreen)
	}
	draft.ScreenID = screenID

	created, err := s.gw.CreateOverlay(ctx, screenID, draft)
	if err != nil {
		log.Error().Err(err).Int("screen_id", screenID).Str("name", draft.Name).Msg("failed to create overlay")
		return model.Overlay{}, fmt.Errorf("%w: %w", ErrCreate, err)
	}
	created.Opacity = geometry.ClampOpacity(created.Opacity)

	s.mu.Lock()
	if gen != s.generation || screenID != s.screenID {
		s.mu.Unlock()
		log.Warn().Int("screen_id", screenID).Int("overlay_id", created.ID).Msg("created overlay belongs to a screen no longer loaded")
		return created, fmt.Errorf("%w: %w", ErrCreate, ErrStale)
	}
	s.overlays = append(s.overlays, created)
	s.mu.Unlock()

	s.bus.Publish(Change{Kind: Created, ScreenID: screenID, OverlayID: created.ID})
	return created, nil
}

// UpdatePosition moves an overlay locally, clamping to non-negative
// coordinates. It never touches the network and reports whether id exists.
func (s *Store) UpdatePosition(id int, x, y float64) bool {
	s.mu.Lock()
	i := s.index(id)
	if i < 0 {
		s.mu.Unlock()
		return false
	}
	s.overlays[i].PositionX = max(x, 0)
	s.overlays[i].PositionY = max(y, 0)
	screenID := s.screenID
	s.mu.Unlock()

	s.bus.Publish(Change{Kind: Moved, ScreenID: screenID, OverlayID: id})
	return true
}

// UpdateProperties validates patch, applies it locally, then persists it.
// Invalid patches leave the store untouched.
func (s *Store) UpdateProperties(ctx context.Context, id int, patch model.OverlayPatch) error {
	if err := geometry.ValidatePatch(patch); err != nil {
		return err
	}
	if patch.Opacity != nil {
		clamped := geometry.ClampOpacity(*patch.Opacity)
		patch.Opacity = &clamped
	}

	s.mu.Lock()
	i := s.index(id)
	if i < 0 {
		s.mu.Unlock()
		return fmt.Errorf("%w: %w: %d", ErrUpdate, ErrNotFound, id)
	}
	updated := s.overlays[i].Apply(patch)
	if err := geometry.Validate(updated); err != nil {
		s.mu.Unlock()
		return err
	}
	s.overlays[i] = updated
	screenID := s.screenID
	s.mu.Unlock()

	s.bus.Publish(Change{Kind: Updated, ScreenID: screenID, OverlayID: id})

	if err := s.gw.UpdateOverlay(ctx, screenID, id, patch); err != nil {
		log.Error().Err(err).Int("screen_id", screenID).Int("overlay_id", id).Msg("failed to persist overlay properties")
		return fmt.Errorf("%w: %w", ErrUpdate, err)
	}
	return nil
}

// Remove drops the overlay locally and then asks the backend to delete it.
// A failed delete is reported but the overlay is not restored.
func (s *Store) Remove(ctx context.Context, id int) error {
	s.mu.Lock()
	i := s.index(id)
	if i < 0 {
		s.mu.Unlock()
		return fmt.Errorf("%w: %w: %d", ErrDelete, ErrNotFound, id)
	}
	s.overlays = slices.Delete(s.overlays, i, i+1)
	screenID := s.screenID
	s.mu.Unlock()

	s.bus.Publish(Change{Kind: Removed, ScreenID: screenID, OverlayID: id})

	if err := s.gw.DeleteOverlay(ctx, screenID, id); err != nil {
		log.Error().Err(err).Int("screen_id", screenID).Int("overlay_id", id).Msg("failed to delete overlay")
		return fmt.Errorf("%w: %w", ErrDelete, err)
	}
	return nil
}
