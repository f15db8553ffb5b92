// Package hittest maps pointer coordinates to screen space and finds the
// topmost overlay under a point.
package hittest

import (
	"sort"

	"github.com/Nixie-Tech-LLC/medusa-canvas/internal/canvas/geometry"
	"github.com/Nixie-Tech-LLC/medusa-canvas/internal/model"
)

const (
	MinZoom = 0.1
	MaxZoom = 10.0
)

// ClampZoom keeps a zoom factor inside [MinZoom, MaxZoom]. Zero, negative
// and NaN factors become MinZoom.
func ClampZoom(zoom float64) float64 {
	if !(zoom >= MinZoom) {
		return MinZoom
	}
	if zoom > MaxZoom {
		return MaxZoom
	}
	return zoom
}

// ToScreenSpace converts an on-canvas pointer position into screen pixels.
func ToScreenSpace(pointer geometry.Point, zoom float64) geometry.Point {
	return pointer.Scale(1 / ClampZoom(zoom))
}

// SortByZ returns a copy of overlays in paint order: ascending z-index,
// with ties keeping their relative order from the input.
func SortByZ(overlays []model.Overlay) []model.Overlay {
	out := make([]model.Overlay, len(overlays))
	copy(out, overlays)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].ZIndex < out[j].ZIndex
	})
	return out
}

// HitTest returns the topmost overlay whose rotated bounds contain p.
// Overlays are checked from the end of paint order backwards, so the one
// painted last wins.
func HitTest(overlays []model.Overlay, p geometry.Point) (model.Overlay, bool) {
	ordered := SortByZ(overlays)
	for i := len(ordered) - 1; i >= 0; i-- {
		o := ordered[i]
		local := p
		if o.Rotation != 0 {
			local = geometry.RotateAbout(p, geometry.Center(o), -o.Rotation)
		}
		if geometry.ContainsPoint(o, local) {
			return o, true
		}
	}
	return model.Overlay{}, false
}
