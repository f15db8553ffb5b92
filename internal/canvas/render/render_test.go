package render

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Nixie-Tech-LLC/medusa-canvas/internal/model"
)

func newRenderer(t *testing.T) *Renderer {
	t.Helper()
	r, err := New(DefaultOptions())
	require.NoError(t, err)
	return r
}

func screen(w, h int) model.Screen {
	return model.Screen{ID: 1, Name: "Lobby", Width: w, Height: h, Orientation: model.OrientationLandscape}
}

func rgbaAt(img image.Image, x, y int) color.NRGBA {
	return color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
}

func TestCanvasSizeScalesWithZoom(t *testing.T) {
	r := newRenderer(t)
	img, err := r.Render(Scene{Screen: screen(1920, 1080), Zoom: 0.5})
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 960, 540), img.Bounds())

	w, h := CanvasSize(screen(1080, 1920), 0)
	assert.Equal(t, 108, w, "zoom is clamped to the minimum")
	assert.Equal(t, 192, h)
}

func TestRenderRejectsInvalidScreen(t *testing.T) {
	r := newRenderer(t)
	_, err := r.Render(Scene{Screen: screen(0, 1080), Zoom: 1})
	assert.ErrorIs(t, err, ErrInvalidScreen)
}

func TestRenderPaintsHigherZOnTop(t *testing.T) {
	r := newRenderer(t)
	a := model.Overlay{ID: 1, Name: "a", PositionX: 0, PositionY: 0, Width: 100, Height: 100, ZIndex: 2, Opacity: 1}
	b := model.Overlay{ID: 2, Name: "b", PositionX: 50, PositionY: 50, Width: 100, Height: 100, ZIndex: 1, Opacity: 1}

	img, err := r.Render(Scene{Screen: screen(200, 200), Overlays: []model.Overlay{b, a}, Zoom: 1})
	require.NoError(t, err)
	assert.Equal(t, r.FillColor(a), rgbaAt(img, 80, 90))

	a.ZIndex, b.ZIndex = 1, 2
	img, err = r.Render(Scene{Screen: screen(200, 200), Overlays: []model.Overlay{b, a}, Zoom: 1})
	require.NoError(t, err)
	assert.Equal(t, r.FillColor(b), rgbaAt(img, 80, 90))
}

func TestPaintOrderIsInverseOfHitTestOrder(t *testing.T) {
	overlays := []model.Overlay{
		{ID: 1, ZIndex: 5},
		{ID: 2, ZIndex: 1},
		{ID: 3, ZIndex: 3},
	}
	order := PaintOrder(overlays)

	require.Len(t, order, 3)
	assert.Equal(t, 2, order[0].ID, "lowest z paints first")
	assert.Equal(t, 1, order[2].ID, "highest z paints last")
	assert.Equal(t, 1, overlays[0].ID, "input is untouched")
}

func TestRenderClampsOpacity(t *testing.T) {
	r := newRenderer(t)
	opaque := model.Overlay{ID: 1, PositionX: 0, PositionY: 0, Width: 100, Height: 100, Opacity: 5}
	img, err := r.Render(Scene{Screen: screen(100, 100), Overlays: []model.Overlay{opaque}, Zoom: 1})
	require.NoError(t, err)
	assert.Equal(t, r.FillColor(opaque), rgbaAt(img, 70, 80))

	hidden := model.Overlay{ID: 1, PositionX: 0, PositionY: 0, Width: 100, Height: 100, Opacity: -1}
	img, err = r.Render(Scene{Screen: screen(100, 100), Overlays: []model.Overlay{hidden}, Zoom: 1})
	require.NoError(t, err)
	assert.Equal(t, toNRGBA(DefaultOptions().Background), rgbaAt(img, 70, 80))
}

func TestRenderSkipsInvalidOverlays(t *testing.T) {
	r := newRenderer(t)
	broken := model.Overlay{ID: 1, Width: 0, Height: 100, Opacity: 1}
	nan := model.Overlay{ID: 2, PositionX: math.NaN(), Width: 10, Height: 10, Opacity: 1}

	img, err := r.Render(Scene{Screen: screen(100, 100), Overlays: []model.Overlay{broken, nan}, Zoom: 1})
	require.NoError(t, err)
	assert.Equal(t, toNRGBA(DefaultOptions().Background), rgbaAt(img, 70, 80))
}

func TestRenderDoesNotMutateOverlays(t *testing.T) {
	r := newRenderer(t)
	overlays := []model.Overlay{
		{ID: 2, Width: 10, Height: 10, ZIndex: 9, Rotation: 725, Opacity: 3},
		{ID: 1, Width: 10, Height: 10, ZIndex: 1, Opacity: 1},
	}
	before := append([]model.Overlay(nil), overlays...)

	_, err := r.Render(Scene{Screen: screen(50, 50), Overlays: overlays, SelectedID: 2, Zoom: 2})
	require.NoError(t, err)
	assert.Equal(t, before, overlays)
}

func TestFontSizeHasFloor(t *testing.T) {
	r := newRenderer(t)
	assert.Equal(t, 16.0, r.fontSize(16, 1))
	assert.Equal(t, 32.0, r.fontSize(16, 2))
	assert.Equal(t, DefaultOptions().MinFontSize, r.fontSize(16, 0.1))
}

func TestEncodePNG(t *testing.T) {
	r := newRenderer(t)
	img, err := r.Render(Scene{Screen: screen(64, 32), Zoom: 1})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, EncodePNG(&buf, img))
	decoded, err := png.Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, img.Bounds(), decoded.Bounds())
}

func TestNewRejectsBadOptions(t *testing.T) {
	opts := DefaultOptions()
	opts.Palette = nil
	_, err := New(opts)
	assert.Error(t, err)

	opts = DefaultOptions()
	opts.GridSpacing = 0
	_, err = New(opts)
	assert.Error(t, err)
}
