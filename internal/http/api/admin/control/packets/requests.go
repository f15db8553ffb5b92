package packets

import (
	"time"

	"github.com/Nixie-Tech-LLC/medusa-canvas/internal/model"
)

type CreateScreenRequest struct {
	Name        string            `json:"name" binding:"required"`
	Location    *string           `json:"location"`
	Width       int               `json:"width" binding:"required,gt=0"`
	Height      int               `json:"height" binding:"required,gt=0"`
	Orientation model.Orientation `json:"orientation" binding:"omitempty,oneof=landscape portrait"`
}

// CreateOverlayRequest mirrors an overlay draft. Omitted fields take the
// creation defaults.
type CreateOverlayRequest struct {
	Name      string               `json:"name"`
	ContentID *int                 `json:"content_id"`
	PositionX *float64             `json:"position_x"`
	PositionY *float64             `json:"position_y"`
	Width     *float64             `json:"width"`
	Height    *float64             `json:"height"`
	ZIndex    *int                 `json:"z_index"`
	Opacity   *float64             `json:"opacity"`
	Rotation  *float64             `json:"rotation"`
	Status    *model.OverlayStatus `json:"status"`
	StartTime *time.Time           `json:"start_time"`
	EndTime   *time.Time           `json:"end_time"`
}

// Patch expresses the request as a patch over the defaults.
func (r CreateOverlayRequest) Patch() model.OverlayPatch {
	name := r.Name
	return model.OverlayPatch{
		Name:      &name,
		ContentID: r.ContentID,
		PositionX: r.PositionX,
		PositionY: r.PositionY,
		Width:     r.Width,
		Height:    r.Height,
		ZIndex:    r.ZIndex,
		Opacity:   r.Opacity,
		Rotation:  r.Rotation,
		Status:    r.Status,
		StartTime: r.StartTime,
		EndTime:   r.EndTime,
	}
}
