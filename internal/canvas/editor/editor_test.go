package editor_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Nixie-Tech-LLC/medusa-canvas/internal/canvas/editor"
	"github.com/Nixie-Tech-LLC/medusa-canvas/internal/canvas/gateway"
	"github.com/Nixie-Tech-LLC/medusa-canvas/internal/canvas/gateway/gatewaytest"
	"github.com/Nixie-Tech-LLC/medusa-canvas/internal/canvas/geometry"
	"github.com/Nixie-Tech-LLC/medusa-canvas/internal/canvas/render"
	"github.com/Nixie-Tech-LLC/medusa-canvas/internal/canvas/store"
	"github.com/Nixie-Tech-LLC/medusa-canvas/internal/model"
)

var (
	lobby    = model.Screen{ID: 1, Name: "Lobby", Width: 400, Height: 300, Orientation: model.OrientationLandscape}
	elevator = model.Screen{ID: 2, Name: "Elevator", Width: 300, Height: 400, Orientation: model.OrientationPortrait}
)

func newSession(t *testing.T) (*editor.Session, *gatewaytest.Fake) {
	t.Helper()
	fake := gatewaytest.New()
	fake.AddScreen(lobby,
		model.Overlay{ID: 1, ScreenID: 1, Name: "menu", PositionX: 20, PositionY: 20, Width: 100, Height: 80, ZIndex: 1, Opacity: 1, Status: model.StatusActive},
		model.Overlay{ID: 2, ScreenID: 1, Name: "clock", PositionX: 200, PositionY: 150, Width: 80, Height: 40, ZIndex: 3, Opacity: 0.8, Status: model.StatusDraft},
	)
	fake.AddScreen(elevator)

	r, err := render.New(render.DefaultOptions())
	require.NoError(t, err)
	return editor.New(fake, r), fake
}

func TestSelectScreenRendersFrame(t *testing.T) {
	s, _ := newSession(t)
	var frames []editor.Frame
	s.OnFrame(func(f editor.Frame) { frames = append(frames, f) })

	require.NoError(t, s.SelectScreen(context.Background(), lobby))

	require.NotEmpty(t, frames)
	f := s.Frame()
	require.NotNil(t, f.Image)
	assert.Equal(t, 400, f.Image.Bounds().Dx())
	assert.Equal(t, 300, f.Image.Bounds().Dy())
	assert.Equal(t, lobby, f.Screen)
	assert.Len(t, s.Store().Overlays(), 2)
}

func TestScreens(t *testing.T) {
	s, fake := newSession(t)
	screens, err := s.Screens(context.Background())
	require.NoError(t, err)
	assert.Len(t, screens, 2)

	fake.FetchScreensErr = &gateway.NetworkError{Status: 401, Message: "unauthorized"}
	_, err = s.Screens(context.Background())
	assert.Equal(t, 401, gateway.StatusCode(err))
	assert.Equal(t, err, s.LastError())
}

func TestSetZoomRerenders(t *testing.T) {
	s, _ := newSession(t)
	require.NoError(t, s.SelectScreen(context.Background(), lobby))

	assert.Equal(t, 2.0, s.SetZoom(2))
	f := s.Frame()
	assert.Equal(t, 800, f.Image.Bounds().Dx())
	assert.Equal(t, 2.0, f.Zoom)

	assert.Equal(t, 0.1, s.SetZoom(-3))
}

func TestDragThroughSession(t *testing.T) {
	s, fake := newSession(t)
	ctx := context.Background()
	require.NoError(t, s.SelectScreen(ctx, lobby))
	s.SetZoom(2)

	s.PointerDown(geometry.Point{X: 60, Y: 60}) // (30,30) in screen space
	s.PointerMove(geometry.Point{X: 100, Y: 80})
	require.NoError(t, s.PointerUp(ctx))

	o, ok := s.Selected()
	require.True(t, ok)
	assert.Equal(t, 1, o.ID)
	assert.Equal(t, 40.0, o.PositionX)
	assert.Equal(t, 30.0, o.PositionY)
	assert.Equal(t, 1, s.Frame().SelectedID)
	assert.Len(t, fake.Calls("UpdateOverlay"), 1)
}

func TestEditSelectedRequiresSelection(t *testing.T) {
	s, _ := newSession(t)
	require.NoError(t, s.SelectScreen(context.Background(), lobby))

	name := "x"
	err := s.EditSelected(context.Background(), model.OverlayPatch{Name: &name})
	assert.ErrorIs(t, err, editor.ErrNoSelection)
}

func TestEditSelectedUpdatesOverlay(t *testing.T) {
	s, fake := newSession(t)
	require.NoError(t, s.SelectScreen(context.Background(), lobby))
	require.True(t, s.Select(2))

	z := 9
	require.NoError(t, s.EditSelected(context.Background(), model.OverlayPatch{ZIndex: &z}))

	o, _ := s.Selected()
	assert.Equal(t, 9, o.ZIndex)
	assert.Len(t, fake.Calls("UpdateOverlay"), 1)
}

func TestEditSelectedInvalidGeometryShowsBanner(t *testing.T) {
	s, fake := newSession(t)
	require.NoError(t, s.SelectScreen(context.Background(), lobby))
	require.True(t, s.Select(1))

	w := -1.0
	err := s.EditSelected(context.Background(), model.OverlayPatch{Width: &w})

	assert.ErrorIs(t, err, geometry.ErrInvalidGeometry)
	assert.NotEmpty(t, s.Frame().Banner)
	assert.Empty(t, fake.Calls("UpdateOverlay"))

	s.DismissError()
	assert.Empty(t, s.Frame().Banner)
	assert.NoError(t, s.LastError())
}

func TestCreateOverlaySelectsIt(t *testing.T) {
	s, _ := newSession(t)
	require.NoError(t, s.SelectScreen(context.Background(), lobby))

	created, err := s.CreateOverlay(context.Background(), "promo", nil)
	require.NoError(t, err)

	o, ok := s.Selected()
	require.True(t, ok)
	assert.Equal(t, created.ID, o.ID)
	assert.Equal(t, 300.0, o.Width)
	assert.Len(t, s.Store().Overlays(), 3)
}

func TestCreateOverlayWithoutScreen(t *testing.T) {
	s, _ := newSession(t)
	_, err := s.CreateOverlay(context.Background(), "promo", nil)
	assert.ErrorIs(t, err, store.ErrNoScreen)
}

func TestDeleteSelected(t *testing.T) {
	s, fake := newSession(t)
	ctx := context.Background()
	require.NoError(t, s.SelectScreen(ctx, lobby))
	require.True(t, s.Select(2))

	attempted, err := s.DeleteSelected(ctx, func(model.Overlay) bool { return false })
	require.NoError(t, err)
	assert.False(t, attempted)
	assert.Len(t, s.Store().Overlays(), 2)

	fake.DeleteErr = &gateway.NetworkError{Status: 500}
	attempted, err = s.DeleteSelected(ctx, func(o model.Overlay) bool { return o.Name == "clock" })
	assert.True(t, attempted)
	assert.ErrorIs(t, err, store.ErrDelete)
	assert.Len(t, s.Store().Overlays(), 1)
	_, ok := s.Selected()
	assert.False(t, ok)
	assert.Contains(t, s.Frame().Banner, "500")
}

func TestSelectScreenFailureKeepsPreviousScreen(t *testing.T) {
	s, fake := newSession(t)
	ctx := context.Background()
	require.NoError(t, s.SelectScreen(ctx, lobby))

	fake.FetchOverlaysErr = &gateway.NetworkError{Status: 0, Message: "connection refused"}
	err := s.SelectScreen(ctx, elevator)

	assert.ErrorIs(t, err, store.ErrLoad)
	screen, _ := s.Screen()
	assert.Equal(t, lobby.ID, screen.ID)
	assert.Len(t, s.Store().Overlays(), 2)
}

func TestSwitchingScreensClearsSelection(t *testing.T) {
	s, _ := newSession(t)
	ctx := context.Background()
	require.NoError(t, s.SelectScreen(ctx, lobby))
	require.True(t, s.Select(1))

	require.NoError(t, s.SelectScreen(ctx, elevator))

	_, ok := s.Selected()
	assert.False(t, ok)
	assert.Equal(t, 300, s.Frame().Image.Bounds().Dx())
	assert.Empty(t, s.Store().Overlays())
}

func TestSelectScreenRejectsZeroResolution(t *testing.T) {
	s, fake := newSession(t)
	err := s.SelectScreen(context.Background(), model.Screen{ID: 9})
	assert.ErrorIs(t, err, render.ErrInvalidScreen)
	assert.Empty(t, fake.Calls("FetchOverlays"))
}

func TestRefreshReloadsCurrentScreen(t *testing.T) {
	s, fake := newSession(t)
	ctx := context.Background()
	assert.ErrorIs(t, s.Refresh(ctx), store.ErrNoScreen)

	require.NoError(t, s.SelectScreen(ctx, lobby))
	require.NoError(t, s.Refresh(ctx))
	assert.Len(t, fake.Calls("FetchOverlays"), 2)
}
