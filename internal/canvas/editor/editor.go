// Package editor wires the overlay store, drag controller and renderer into
// one editing session for a single screen at a time. Every state change
// (store mutation, selection, zoom, screen switch) produces a new frame;
// nothing is redrawn on a timer.
package editor

import (
	"context"
	"errors"
	"fmt"
	"image"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/medusa-canvas/internal/canvas/drag"
	"github.com/Nixie-Tech-LLC/medusa-canvas/internal/canvas/geometry"
	"github.com/Nixie-Tech-LLC/medusa-canvas/internal/canvas/render"
	"github.com/Nixie-Tech-LLC/medusa-canvas/internal/canvas/store"
	"github.com/Nixie-Tech-LLC/medusa-canvas/internal/eventbus"
	"github.com/Nixie-Tech-LLC/medusa-canvas/internal/model"
)

var ErrNoSelection = errors.New("no overlay selected")

// Gateway is everything the session needs from the backend.
type Gateway interface {
	store.Gateway
	FetchScreens(ctx context.Context) ([]model.Screen, error)
}

// Frame is one rendered state of the session. Banner carries the message
// of the most recent failed operation until it is dismissed.
type Frame struct {
	Image      image.Image
	Screen     model.Screen
	Zoom       float64
	SelectedID int
	Banner     string
}

type Session struct {
	gw       Gateway
	store    *store.Store
	drag     *drag.Controller
	renderer *render.Renderer
	frames   *eventbus.Bus[Frame]

	mu      sync.Mutex
	screen  model.Screen
	frame   Frame
	lastErr error
}

func New(gw Gateway, renderer *render.Renderer) *Session {
	st := store.New(gw)
	s := &Session{
		gw:       gw,
		store:    st,
		drag:     drag.New(st, gw),
		renderer: renderer,
		frames:   eventbus.New[Frame](),
	}
	st.Subscribe(s.onChange)
	s.drag.OnSelectionChange(func(int) { s.redraw() })
	return s
}

// Store exposes the underlying overlay store for read access.
func (s *Session) Store() *store.Store {
	return s.store
}

// OnFrame registers handler for every new frame.
func (s *Session) OnFrame(handler func(Frame)) func() {
	return s.frames.Subscribe(handler)
}

func (s *Session) Frame() Frame {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.frame
}

func (s *Session) Screen() (model.Screen, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.screen, s.screen.ID != 0
}

// LastError returns the error currently shown in the banner.
func (s *Session) LastError() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

func (s *Session) DismissError() {
	s.mu.Lock()
	s.lastErr = nil
	s.mu.Unlock()
	s.redraw()
}

// fail records err for the banner and returns it unchanged.
func (s *Session) fail(err error) error {
	if err == nil || errors.Is(err, store.ErrStale) {
		return err
	}
	s.mu.Lock()
	s.lastErr = err
	s.mu.Unlock()
	s.redraw()
	return err
}

func (s *Session) Screens(ctx context.Context) ([]model.Screen, error) {
	screens, err := s.gw.FetchScreens(ctx)
	if err != nil {
		log.Error().Err(err).Msg("failed to fetch screens")
		return nil, s.fail(err)
	}
	return screens, nil
}

// SelectScreen loads the overlays of screen and makes it the edited screen.
// On failure the previous screen stays loaded.
func (s *Session) SelectScreen(ctx context.Context, screen model.Screen) error {
	if screen.Width <= 0 || screen.Height <= 0 {
		return s.fail(fmt.Errorf("%w: screen %d is %dx%d", render.ErrInvalidScreen, screen.ID, screen.Width, screen.Height))
	}
	if err := s.store.Load(ctx, screen.ID); err != nil {
		return s.fail(err)
	}

	s.mu.Lock()
	s.screen = screen
	s.mu.Unlock()

	s.drag.ClearSelection()
	s.redraw()
	return nil
}

// Refresh reloads the current screen from the backend.
func (s *Session) Refresh(ctx context.Context) error {
	screen, ok := s.Screen()
	if !ok {
		return s.fail(store.ErrNoScreen)
	}
	return s.SelectScreen(ctx, screen)
}

func (s *Session) Zoom() float64 {
	return s.drag.Zoom()
}

// SetZoom clamps and applies a zoom factor, returning the applied value.
func (s *Session) SetZoom(zoom float64) float64 {
	applied := s.drag.SetZoom(zoom)
	s.redraw()
	return applied
}

func (s *Session) Select(id int) bool {
	return s.drag.Select(id)
}

func (s *Session) ClearSelection() {
	s.drag.ClearSelection()
}

// Selected returns the currently selected overlay.
func (s *Session) Selected() (model.Overlay, bool) {
	id, ok := s.drag.Selected()
	if !ok {
		return model.Overlay{}, false
	}
	return s.store.Get(id)
}

func (s *Session) PointerDown(p geometry.Point) {
	s.drag.PointerDown(p)
}

func (s *Session) PointerMove(p geometry.Point) {
	s.drag.PointerMove(p)
}

func (s *Session) PointerUp(ctx context.Context) error {
	return s.fail(s.drag.PointerUp(ctx))
}

func (s *Session) PointerLeave(ctx context.Context) error {
	return s.fail(s.drag.PointerLeave(ctx))
}

// EditSelected applies patch to the selected overlay.
func (s *Session) EditSelected(ctx context.Context, patch model.OverlayPatch) error {
	id, ok := s.drag.Selected()
	if !ok {
		return s.fail(ErrNoSelection)
	}
	return s.fail(s.store.UpdateProperties(ctx, id, patch))
}

// CreateOverlay creates an overlay with the default geometry on the current
// screen and selects it.
func (s *Session) CreateOverlay(ctx context.Context, name string, contentID *int) (model.Overlay, error) {
	screen, ok := s.Screen()
	if !ok {
		return model.Overlay{}, s.fail(fmt.Errorf("%w: %w", store.ErrCreate, store.ErrNoScreen))
	}
	created, err := s.store.Create(ctx, store.NewDraft(screen.ID, 0, contentID, name))
	if err != nil {
		return model.Overlay{}, s.fail(err)
	}
	s.drag.Select(created.ID)
	return created, nil
}

// DeleteSelected removes the selected overlay once confirm agrees. It
// reports whether a delete was attempted.
func (s *Session) DeleteSelected(ctx context.Context, confirm func(model.Overlay) bool) (bool, error) {
	o, ok := s.Selected()
	if !ok {
		return false, s.fail(ErrNoSelection)
	}
	if confirm != nil && !confirm(o) {
		return false, nil
	}
	return true, s.fail(s.store.Remove(ctx, o.ID))
}

func (s *Session) onChange(c store.Change) {
	if c.Kind == store.Removed {
		if id, ok := s.drag.Selected(); ok && id == c.OverlayID {
			// ClearSelection redraws.
			s.drag.ClearSelection()
			return
		}
	}
	s.redraw()
}

func (s *Session) redraw() {
	s.mu.Lock()
	screen := s.screen
	banner := ""
	if s.lastErr != nil {
		banner = s.lastErr.Error()
	}
	s.mu.Unlock()

	if screen.ID == 0 || s.store.ScreenID() != screen.ID {
		return
	}

	selected, _ := s.drag.Selected()
	zoom := s.drag.Zoom()
	img, err := s.renderer.Render(render.Scene{
		Screen:     screen,
		Overlays:   s.store.Overlays(),
		SelectedID: selected,
		Zoom:       zoom,
	})
	if err != nil {
		log.Error().Err(err).Int("screen_id", screen.ID).Msg("failed to render canvas")
		return
	}

	frame := Frame{Image: img, Screen: screen, Zoom: zoom, SelectedID: selected, Banner: banner}
	s.mu.Lock()
	s.frame = frame
	s.mu.Unlock()
	s.frames.Publish(frame)
}
