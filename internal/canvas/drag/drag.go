// Package drag turns pointer events into overlay moves. Moves are applied
// to the store as they happen; the backend sees exactly one update, when
// the pointer is released or leaves the canvas.
package drag

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/medusa-canvas/internal/canvas/geometry"
	"github.com/Nixie-Tech-LLC/medusa-canvas/internal/canvas/hittest"
	"github.com/Nixie-Tech-LLC/medusa-canvas/internal/eventbus"
	"github.com/Nixie-Tech-LLC/medusa-canvas/internal/model"
)

// ErrCommit wraps a failed position commit. The local position is kept.
var ErrCommit = errors.New("commit overlay position failed")

type State int

const (
	Idle State = iota
	Dragging
)

func (s State) String() string {
	if s == Dragging {
		return "dragging"
	}
	return "idle"
}

// Store is the slice of the overlay store the controller needs.
type Store interface {
	ScreenID() int
	Overlays() []model.Overlay
	Get(id int) (model.Overlay, bool)
	UpdatePosition(id int, x, y float64) bool
}

// Committer persists the final position of a drag.
type Committer interface {
	UpdateOverlay(ctx context.Context, screenID, id int, patch model.OverlayPatch) error
}

type session struct {
	overlayID int
	screenID  int
	offset    geometry.Point
	start     geometry.Point
}

type Controller struct {
	store     Store
	committer Committer
	selection *eventbus.Bus[int]

	mu       sync.Mutex
	state    State
	zoom     float64
	selected int
	active   session
}

func New(store Store, committer Committer) *Controller {
	return &Controller{
		store:     store,
		committer: committer,
		selection: eventbus.New[int](),
		zoom:      1,
	}
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Controller) Zoom() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.zoom
}

// SetZoom stores the clamped zoom and returns it.
func (c *Controller) SetZoom(zoom float64) float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.zoom = hittest.ClampZoom(zoom)
	return c.zoom
}

// Selected returns the selected overlay id, if any.
func (c *Controller) Selected() (int, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.selected, c.selected != 0
}

// OnSelectionChange registers handler for selection changes. The handler
// receives 0 when the selection is cleared.
func (c *Controller) OnSelectionChange(handler func(id int)) func() {
	return c.selection.Subscribe(handler)
}

// Select selects id if it is present in the store.
func (c *Controller) Select(id int) bool {
	if _, ok := c.store.Get(id); !ok {
		return false
	}
	c.setSelected(id)
	return true
}

func (c *Controller) ClearSelection() {
	c.setSelected(0)
}

func (c *Controller) setSelected(id int) {
	c.mu.Lock()
	changed := c.selected != id
	c.selected = id
	c.mu.Unlock()
	if changed {
		c.selection.Publish(id)
	}
}

// PointerDown selects the topmost overlay under p (on-screen pixels) and
// starts dragging it. A miss clears the selection. A press during a drag
// is ignored.
func (c *Controller) PointerDown(p geometry.Point) {
	c.mu.Lock()
	if c.state == Dragging {
		c.mu.Unlock()
		return
	}
	world := hittest.ToScreenSpace(p, c.zoom)
	c.mu.Unlock()

	hit, ok := hittest.HitTest(c.store.Overlays(), world)
	if !ok {
		c.ClearSelection()
		return
	}

	origin := geometry.Origin(hit)
	c.mu.Lock()
	c.state = Dragging
	c.active = session{
		overlayID: hit.ID,
		screenID:  c.store.ScreenID(),
		offset:    world.Sub(origin),
		start:     origin,
	}
	c.mu.Unlock()

	c.setSelected(hit.ID)
}

// PointerMove moves the dragged overlay so the grab point stays under the
// pointer. Positions are clamped to the non-negative quadrant by the store.
func (c *Controller) PointerMove(p geometry.Point) {
	c.mu.Lock()
	if c.state != Dragging {
		c.mu.Unlock()
		return
	}
	target := hittest.ToScreenSpace(p, c.zoom).Sub(c.active.offset)
	id := c.active.overlayID
	c.mu.Unlock()

	if !c.store.UpdatePosition(id, target.X, target.Y) {
		// The overlay disappeared mid-drag (deleted or screen reloaded).
		c.reset()
	}
}

// PointerUp ends the drag and commits the final position once.
func (c *Controller) PointerUp(ctx context.Context) error {
	return c.finish(ctx)
}

// PointerLeave behaves like PointerUp so a drag never outlives the canvas.
func (c *Controller) PointerLeave(ctx context.Context) error {
	return c.finish(ctx)
}

func (c *Controller) reset() {
	c.mu.Lock()
	c.state = Idle
	c.active = session{}
	c.mu.Unlock()
}

// finish ends an active drag with at most one UpdateOverlay call. No call is
// made when the overlay is back at its start position (a press without
// movement), when the store switched screens mid-drag, or when the overlay
// is gone.
func (c *Controller) finish(ctx context.Context) error {
	c.mu.Lock()
	if c.state != Dragging {
		c.mu.Unlock()
		return nil
	}
	s := c.active
	c.state = Idle
	c.active = session{}
	c.mu.Unlock()

	if c.store.ScreenID() != s.screenID {
		log.Debug().Int("overlay_id", s.overlayID).Msg("screen changed during drag, not committing")
		return nil
	}
	o, ok := c.store.Get(s.overlayID)
	if !ok {
		return nil
	}
	if o.PositionX == s.start.X && o.PositionY == s.start.Y {
		return nil
	}

	if err := c.committer.UpdateOverlay(ctx, s.screenID, o.ID, model.PositionPatch(o.PositionX, o.PositionY)); err != nil {
		log.Error().Err(err).
			Int("screen_id", s.screenID).
			Int("overlay_id", o.ID).
			Float64("x", o.PositionX).
			Float64("y", o.PositionY).
			Msg("failed to commit overlay position")
		return fmt.Errorf("%w: overlay %d: %w", ErrCommit, o.ID, err)
	}
	return nil
}
