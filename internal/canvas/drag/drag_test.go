package drag_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Nixie-Tech-LLC/medusa-canvas/internal/canvas/drag"
	"github.com/Nixie-Tech-LLC/medusa-canvas/internal/canvas/gateway"
	"github.com/Nixie-Tech-LLC/medusa-canvas/internal/canvas/gateway/gatewaytest"
	"github.com/Nixie-Tech-LLC/medusa-canvas/internal/canvas/geometry"
	"github.com/Nixie-Tech-LLC/medusa-canvas/internal/canvas/store"
	"github.com/Nixie-Tech-LLC/medusa-canvas/internal/model"
)

func setup(t *testing.T) (*drag.Controller, *store.Store, *gatewaytest.Fake) {
	t.Helper()
	fake := gatewaytest.New()
	fake.AddScreen(model.Screen{ID: 1, Width: 1920, Height: 1080},
		model.Overlay{ID: 7, ScreenID: 1, Name: "menu", PositionX: 100, PositionY: 100, Width: 300, Height: 200, ZIndex: 1, Opacity: 1, Status: model.StatusActive},
		model.Overlay{ID: 8, ScreenID: 1, Name: "ticker", PositionX: 1000, PositionY: 800, Width: 200, Height: 100, ZIndex: 2, Opacity: 1, Status: model.StatusActive},
	)
	fake.AddScreen(model.Screen{ID: 2, Width: 1920, Height: 1080})

	s := store.New(fake)
	require.NoError(t, s.Load(context.Background(), 1))
	return drag.New(s, fake), s, fake
}

func TestDragMovesOverlayAndCommitsOnce(t *testing.T) {
	c, s, fake := setup(t)
	ctx := context.Background()

	c.PointerDown(geometry.Point{X: 150, Y: 150})
	require.Equal(t, drag.Dragging, c.State())
	id, ok := c.Selected()
	require.True(t, ok)
	assert.Equal(t, 7, id)

	c.PointerMove(geometry.Point{X: 400, Y: 300})
	got, _ := s.Get(7)
	assert.Equal(t, 350.0, got.PositionX)
	assert.Equal(t, 250.0, got.PositionY)
	assert.Empty(t, fake.Calls("UpdateOverlay"), "moves are local only")

	require.NoError(t, c.PointerUp(ctx))
	assert.Equal(t, drag.Idle, c.State())

	calls := fake.Calls("UpdateOverlay")
	require.Len(t, calls, 1)
	assert.Equal(t, 7, calls[0].OverlayID)
	assert.Equal(t, 350.0, *calls[0].Patch.PositionX)
	assert.Equal(t, 250.0, *calls[0].Patch.PositionY)
	assert.Nil(t, calls[0].Patch.Width)
}

func TestManyMovesProduceOneCommit(t *testing.T) {
	c, _, fake := setup(t)

	c.PointerDown(geometry.Point{X: 150, Y: 150})
	for i := 0; i < 50; i++ {
		c.PointerMove(geometry.Point{X: 150 + float64(i), Y: 150 + float64(i)})
	}
	require.NoError(t, c.PointerUp(context.Background()))

	assert.Len(t, fake.Calls("UpdateOverlay"), 1)
}

func TestDragClampsToOrigin(t *testing.T) {
	c, s, fake := setup(t)

	c.PointerDown(geometry.Point{X: 150, Y: 150})
	c.PointerMove(geometry.Point{X: 10, Y: 20})
	require.NoError(t, c.PointerLeave(context.Background()))

	got, _ := s.Get(7)
	assert.Equal(t, 0.0, got.PositionX)
	assert.Equal(t, 0.0, got.PositionY)
	calls := fake.Calls("UpdateOverlay")
	require.Len(t, calls, 1)
	assert.Equal(t, 0.0, *calls[0].Patch.PositionX)
	assert.Equal(t, 0.0, *calls[0].Patch.PositionY)
}

func TestDragHonoursZoom(t *testing.T) {
	c, s, _ := setup(t)
	c.SetZoom(0.5)

	// (75,75) on screen is (150,150) in screen pixel space.
	c.PointerDown(geometry.Point{X: 75, Y: 75})
	c.PointerMove(geometry.Point{X: 200, Y: 150})
	require.NoError(t, c.PointerUp(context.Background()))

	got, _ := s.Get(7)
	assert.Equal(t, 350.0, got.PositionX)
	assert.Equal(t, 250.0, got.PositionY)
}

func TestSecondPointerDownIsIgnored(t *testing.T) {
	c, _, _ := setup(t)

	c.PointerDown(geometry.Point{X: 150, Y: 150})
	c.PointerDown(geometry.Point{X: 1050, Y: 850})

	id, _ := c.Selected()
	assert.Equal(t, 7, id)
	assert.Equal(t, drag.Dragging, c.State())
}

func TestPointerDownOnEmptySpaceClearsSelection(t *testing.T) {
	c, _, fake := setup(t)
	var events []int
	c.OnSelectionChange(func(id int) { events = append(events, id) })

	c.PointerDown(geometry.Point{X: 150, Y: 150})
	require.NoError(t, c.PointerUp(context.Background()))
	c.PointerDown(geometry.Point{X: 600, Y: 600})

	_, ok := c.Selected()
	assert.False(t, ok)
	assert.Equal(t, drag.Idle, c.State())
	assert.Equal(t, []int{7, 0}, events)
	assert.Empty(t, fake.Calls("UpdateOverlay"), "click without movement commits nothing")
}

func TestMoveAndUpWhileIdleAreNoops(t *testing.T) {
	c, s, fake := setup(t)

	c.PointerMove(geometry.Point{X: 500, Y: 500})
	require.NoError(t, c.PointerUp(context.Background()))

	got, _ := s.Get(7)
	assert.Equal(t, 100.0, got.PositionX)
	assert.Empty(t, fake.Calls("UpdateOverlay"))
}

func TestCommitFailureKeepsLocalPosition(t *testing.T) {
	c, s, fake := setup(t)
	fake.UpdateErr = &gateway.NetworkError{Status: 500, Message: "boom"}

	c.PointerDown(geometry.Point{X: 150, Y: 150})
	c.PointerMove(geometry.Point{X: 400, Y: 300})
	err := c.PointerUp(context.Background())

	assert.ErrorIs(t, err, drag.ErrCommit)
	assert.Equal(t, 500, gateway.StatusCode(err))
	got, _ := s.Get(7)
	assert.Equal(t, 350.0, got.PositionX)
	assert.Equal(t, drag.Idle, c.State())
}

func TestScreenSwitchDuringDragSkipsCommit(t *testing.T) {
	c, s, fake := setup(t)

	c.PointerDown(geometry.Point{X: 150, Y: 150})
	c.PointerMove(geometry.Point{X: 400, Y: 300})
	require.NoError(t, s.Load(context.Background(), 2))
	require.NoError(t, c.PointerUp(context.Background()))

	assert.Empty(t, fake.Calls("UpdateOverlay"))
}

func TestSelectRequiresKnownOverlay(t *testing.T) {
	c, _, _ := setup(t)

	assert.False(t, c.Select(99))
	assert.True(t, c.Select(8))
	id, _ := c.Selected()
	assert.Equal(t, 8, id)

	c.ClearSelection()
	_, ok := c.Selected()
	assert.False(t, ok)
}

func TestSetZoomClamps(t *testing.T) {
	c, _, _ := setup(t)
	assert.Equal(t, 0.1, c.SetZoom(0))
	assert.Equal(t, 2.0, c.SetZoom(2))
	assert.Equal(t, 2.0, c.Zoom())
}
