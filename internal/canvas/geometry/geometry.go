// Package geometry holds the value types and validation rules for overlay
// rectangles. Nothing here performs I/O.
package geometry

import (
	"errors"
	"fmt"
	"math"

	"github.com/Nixie-Tech-LLC/medusa-canvas/internal/model"
)

// ErrInvalidGeometry is wrapped by every validation failure.
var ErrInvalidGeometry = errors.New("invalid geometry")

// Point is a 2D point in screen pixel space.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Add returns the sum of two points.
func (p Point) Add(other Point) Point {
	return Point{X: p.X + other.X, Y: p.Y + other.Y}
}

// Sub returns the difference of two points.
func (p Point) Sub(other Point) Point {
	return Point{X: p.X - other.X, Y: p.Y - other.Y}
}

// Scale returns the point scaled by a factor.
func (p Point) Scale(factor float64) Point {
	return Point{X: p.X * factor, Y: p.Y * factor}
}

// Origin returns the top-left corner of the overlay.
func Origin(o model.Overlay) Point {
	return Point{X: o.PositionX, Y: o.PositionY}
}

// Center returns the centre of the overlay, the pivot for its rotation.
func Center(o model.Overlay) Point {
	return Point{X: o.PositionX + o.Width/2, Y: o.PositionY + o.Height/2}
}

// ClampOpacity clamps v to [0,1]. NaN is treated as fully opaque.
func ClampOpacity(v float64) float64 {
	switch {
	case math.IsNaN(v):
		return 1
	case v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}

// NormalizeRotationDegrees reduces v to [0,360). Non-finite input yields 0.
func NormalizeRotationDegrees(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	r := math.Mod(v, 360)
	if r < 0 {
		r += 360
	}
	// -1e-15 + 360 rounds to 360
	if r >= 360 {
		r = 0
	}
	return r
}

// RotateAbout rotates p by degrees (clockwise in screen space, y down)
// around center.
func RotateAbout(p, center Point, degrees float64) Point {
	rad := degrees * math.Pi / 180
	sin, cos := math.Sincos(rad)
	dx, dy := p.X-center.X, p.Y-center.Y
	return Point{
		X: center.X + dx*cos - dy*sin,
		Y: center.Y + dx*sin + dy*cos,
	}
}

// ContainsPoint tests p against the overlay's unrotated rectangle. Callers
// must rotate p by -rotation about Center(o) first.
func ContainsPoint(o model.Overlay, p Point) bool {
	return p.X >= o.PositionX && p.X <= o.PositionX+o.Width &&
		p.Y >= o.PositionY && p.Y <= o.PositionY+o.Height
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// Validate rejects overlays that must not be persisted or rendered.
func Validate(o model.Overlay) error {
	for _, f := range []struct {
		name string
		v    float64
	}{
		{"position_x", o.PositionX},
		{"position_y", o.PositionY},
		{"width", o.Width},
		{"height", o.Height},
		{"opacity", o.Opacity},
		{"rotation", o.Rotation},
	} {
		if !finite(f.v) {
			return fmt.Errorf("%w: %s is not finite", ErrInvalidGeometry, f.name)
		}
	}
	if o.Width <= 0 {
		return fmt.Errorf("%w: width must be positive, got %g", ErrInvalidGeometry, o.Width)
	}
	if o.Height <= 0 {
		return fmt.Errorf("%w: height must be positive, got %g", ErrInvalidGeometry, o.Height)
	}
	return nil
}

// ValidatePatch checks only the fields a patch sets.
func ValidatePatch(p model.OverlayPatch) error {
	for _, f := range []struct {
		name string
		v    *float64
	}{
		{"position_x", p.PositionX},
		{"position_y", p.PositionY},
		{"width", p.Width},
		{"height", p.Height},
		{"opacity", p.Opacity},
		{"rotation", p.Rotation},
	} {
		if f.v != nil && !finite(*f.v) {
			return fmt.Errorf("%w: %s is not finite", ErrInvalidGeometry, f.name)
		}
	}
	if p.Width != nil && *p.Width <= 0 {
		return fmt.Errorf("%w: width must be positive, got %g", ErrInvalidGeometry, *p.Width)
	}
	if p.Height != nil && *p.Height <= 0 {
		return fmt.Errorf("%w: height must be positive, got %g", ErrInvalidGeometry, *p.Height)
	}
	if p.Status != nil && !p.Status.Valid() {
		return fmt.Errorf("%w: unknown status %q", ErrInvalidGeometry, *p.Status)
	}
	return nil
}
