package packets

import "github.com/Nixie-Tech-LLC/medusa-canvas/internal/model"

// LayoutResponse is what a paired TV draws: the overlays visible right now,
// already in paint order.
type LayoutResponse struct {
	ScreenID    int             `json:"screen_id"`
	Width       int             `json:"width"`
	Height      int             `json:"height"`
	Orientation string          `json:"orientation"`
	Overlays    []model.Overlay `json:"overlays"`
	GeneratedAt string          `json:"generated_at"`
}
