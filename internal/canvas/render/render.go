// Package render draws a screen and its overlays into a raster image.
//
// A render is a pure function of (screen, overlays, selection, zoom): it
// never mutates the overlays it is given. Overlays are painted in ascending
// z-index order, the reverse of the order hittest checks them, so whatever
// is visually on top is also what a click selects.
package render

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"math"
	"sync"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"github.com/rs/zerolog/log"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"

	"github.com/Nixie-Tech-LLC/medusa-canvas/internal/canvas/geometry"
	"github.com/Nixie-Tech-LLC/medusa-canvas/internal/canvas/hittest"
	"github.com/Nixie-Tech-LLC/medusa-canvas/internal/model"
)

var ErrInvalidScreen = errors.New("screen resolution must be positive")

// Options controls the look of a rendered frame.
type Options struct {
	GridSpacing    float64 // world units between grid lines
	Background     color.Color
	Grid           color.Color
	Border         color.Color
	SelectedBorder color.Color
	Label          color.Color
	Palette        []color.NRGBA
	NameFontSize   float64 // at zoom 1
	ZFontSize      float64 // at zoom 1
	MinFontSize    float64
}

// DefaultOptions mirrors the dashboard editor colours.
func DefaultOptions() Options {
	return Options{
		GridSpacing:    50,
		Background:     color.NRGBA{R: 0x1f, G: 0x29, B: 0x37, A: 0xff},
		Grid:           color.NRGBA{R: 0x37, G: 0x41, B: 0x51, A: 0xff},
		Border:         color.NRGBA{R: 0xe5, G: 0xe7, B: 0xeb, A: 0xff},
		SelectedBorder: color.NRGBA{R: 0xf5, G: 0x9e, B: 0x0b, A: 0xff},
		Label:          color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff},
		Palette: []color.NRGBA{
			{R: 0x3b, G: 0x82, B: 0xf6, A: 0xff},
			{R: 0x10, G: 0xb9, B: 0x81, A: 0xff},
			{R: 0x8b, G: 0x5c, B: 0xf6, A: 0xff},
			{R: 0xef, G: 0x44, B: 0x44, A: 0xff},
			{R: 0xec, G: 0x48, B: 0x99, A: 0xff},
			{R: 0x06, G: 0xb6, B: 0xd4, A: 0xff},
		},
		NameFontSize: 16,
		ZFontSize:    11,
		MinFontSize:  9,
	}
}

// Scene is everything a single frame depends on.
type Scene struct {
	Screen     model.Screen
	Overlays   []model.Overlay
	SelectedID int // 0 means nothing selected
	Zoom       float64
}

type Renderer struct {
	opts Options

	regular *truetype.Font
	bold    *truetype.Font

	// truetype faces keep a glyph cache and are not safe for concurrent
	// use, so frames are drawn one at a time.
	mu    sync.Mutex
	faces map[faceKey]font.Face
}

type faceKey struct {
	bold bool
	size float64
}

func New(opts Options) (*Renderer, error) {
	if len(opts.Palette) == 0 {
		return nil, errors.New("render: palette must not be empty")
	}
	if opts.GridSpacing <= 0 {
		return nil, fmt.Errorf("render: grid spacing must be positive, got %g", opts.GridSpacing)
	}
	regular, err := truetype.Parse(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("render: parse regular font: %w", err)
	}
	bold, err := truetype.Parse(gobold.TTF)
	if err != nil {
		return nil, fmt.Errorf("render: parse bold font: %w", err)
	}
	return &Renderer{
		opts:    opts,
		regular: regular,
		bold:    bold,
		faces:   make(map[faceKey]font.Face),
	}, nil
}

// PaintOrder returns overlays in the order they are drawn: ascending
// z-index, ties keeping insertion order.
func PaintOrder(overlays []model.Overlay) []model.Overlay {
	return hittest.SortByZ(overlays)
}

// CanvasSize is the pixel size of a frame for screen at zoom.
func CanvasSize(screen model.Screen, zoom float64) (int, int) {
	zoom = hittest.ClampZoom(zoom)
	w := int(math.Round(float64(screen.Width) * zoom))
	h := int(math.Round(float64(screen.Height) * zoom))
	return max(w, 1), max(h, 1)
}

// FillColor is the base fill for an overlay, stable per overlay id.
func (r *Renderer) FillColor(o model.Overlay) color.NRGBA {
	idx := o.ID % len(r.opts.Palette)
	if idx < 0 {
		idx += len(r.opts.Palette)
	}
	return r.opts.Palette[idx]
}

// Render draws one frame.
func (r *Renderer) Render(scene Scene) (image.Image, error) {
	if scene.Screen.Width <= 0 || scene.Screen.Height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidScreen, scene.Screen.Width, scene.Screen.Height)
	}
	zoom := hittest.ClampZoom(scene.Zoom)
	w, h := CanvasSize(scene.Screen, zoom)

	r.mu.Lock()
	defer r.mu.Unlock()

	dc := gg.NewContext(w, h)
	dc.SetColor(r.opts.Background)
	dc.Clear()
	r.drawGrid(dc, zoom)

	for _, o := range PaintOrder(scene.Overlays) {
		if err := geometry.Validate(o); err != nil {
			log.Warn().Err(err).Int("overlay_id", o.ID).Msg("skipping overlay with invalid geometry")
			continue
		}
		r.drawOverlay(dc, o, o.ID == scene.SelectedID && scene.SelectedID != 0, zoom)
	}
	return dc.Image(), nil
}

func (r *Renderer) drawGrid(dc *gg.Context, zoom float64) {
	step := r.opts.GridSpacing * zoom
	if step < 2 {
		// grid would be solid at this zoom
		return
	}
	width, height := float64(dc.Width()), float64(dc.Height())
	dc.SetColor(r.opts.Grid)
	dc.SetLineWidth(1)
	for x := 0.0; x <= width; x += step {
		dc.DrawLine(x+0.5, 0, x+0.5, height)
	}
	for y := 0.0; y <= height; y += step {
		dc.DrawLine(0, y+0.5, width, y+0.5)
	}
	dc.Stroke()
}

func (r *Renderer) drawOverlay(dc *gg.Context, o model.Overlay, selected bool, zoom float64) {
	w, h := o.Width*zoom, o.Height*zoom
	alpha := geometry.ClampOpacity(o.Opacity)

	dc.Push()
	defer dc.Pop()

	dc.Translate(o.PositionX*zoom, o.PositionY*zoom)
	dc.RotateAbout(gg.Radians(geometry.NormalizeRotationDegrees(o.Rotation)), w/2, h/2)

	dc.SetColor(withAlpha(r.FillColor(o), alpha))
	dc.DrawRectangle(0, 0, w, h)
	dc.Fill()

	border, lineWidth := r.opts.Border, 1.5
	if selected {
		border, lineWidth = r.opts.SelectedBorder, 3
	}
	dc.SetColor(withAlpha(toNRGBA(border), alpha))
	dc.SetLineWidth(lineWidth)
	dc.DrawRectangle(0, 0, w, h)
	dc.Stroke()

	label := withAlpha(toNRGBA(r.opts.Label), alpha)
	dc.SetColor(label)
	dc.SetFontFace(r.face(true, r.fontSize(r.opts.NameFontSize, zoom)))
	dc.DrawStringAnchored(o.Name, w/2, h/2, 0.5, 0.5)

	dc.SetFontFace(r.face(false, r.fontSize(r.opts.ZFontSize, zoom)))
	dc.DrawStringAnchored(fmt.Sprintf("z:%d", o.ZIndex), 4, 4, 0, 1)
}

// fontSize scales base with zoom but never drops below the legibility floor.
func (r *Renderer) fontSize(base, zoom float64) float64 {
	return math.Max(math.Round(base*zoom), r.opts.MinFontSize)
}

// face must be called with r.mu held.
func (r *Renderer) face(bold bool, size float64) font.Face {
	key := faceKey{bold: bold, size: size}
	if f, ok := r.faces[key]; ok {
		return f
	}
	ttf := r.regular
	if bold {
		ttf = r.bold
	}
	f := truetype.NewFace(ttf, &truetype.Options{Size: size, Hinting: font.HintingFull})
	r.faces[key] = f
	return f
}

func toNRGBA(c color.Color) color.NRGBA {
	return color.NRGBAModel.Convert(c).(color.NRGBA)
}

func withAlpha(c color.NRGBA, opacity float64) color.NRGBA {
	c.A = uint8(math.Round(float64(c.A) * opacity))
	return c
}

// EncodePNG writes img as PNG.
func EncodePNG(w io.Writer, img image.Image) error {
	return png.Encode(w, img)
}
