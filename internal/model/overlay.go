package model

import "time"

type OverlayStatus string

const (
	StatusDraft     OverlayStatus = "draft"
	StatusActive    OverlayStatus = "active"
	StatusScheduled OverlayStatus = "scheduled"
	StatusExpired   OverlayStatus = "expired"
	StatusPaused    OverlayStatus = "paused"
)

// Valid reports whether s is one of the known lifecycle states.
func (s OverlayStatus) Valid() bool {
	switch s {
	case StatusDraft, StatusActive, StatusScheduled, StatusExpired, StatusPaused:
		return true
	}
	return false
}

// Overlay is a positioned content region placed on exactly one screen.
// Position is in screen pixel space; Rotation is in degrees and is only
// normalized at render time.
type Overlay struct {
	ID        int           `db:"id"           json:"id"`
	ScreenID  int           `db:"screen_id"    json:"screen_id"`
	CompanyID int           `db:"company_id"   json:"company_id"`
	ContentID *int          `db:"content_id"   json:"content_id"`
	Name      string        `db:"name"         json:"name"`
	PositionX float64       `db:"position_x"   json:"position_x"`
	PositionY float64       `db:"position_y"   json:"position_y"`
	Width     float64       `db:"width"        json:"width"`
	Height    float64       `db:"height"       json:"height"`
	ZIndex    int           `db:"z_index"      json:"z_index"`
	Opacity   float64       `db:"opacity"      json:"opacity"`
	Rotation  float64       `db:"rotation"     json:"rotation"`
	Status    OverlayStatus `db:"status"       json:"status"`
	StartTime *time.Time    `db:"start_time"   json:"start_time,omitempty"`
	EndTime   *time.Time    `db:"end_time"     json:"end_time,omitempty"`
	CreatedAt time.Time     `db:"created_at"   json:"created_at"`
	UpdatedAt time.Time     `db:"updated_at"   json:"updated_at"`
}

// VisibleAt reports whether the overlay would be shown on the display at t.
// Status transitions are owned by the backend; this only reflects them.
func (o Overlay) VisibleAt(t time.Time) bool {
	switch o.Status {
	case StatusActive:
		return true
	case StatusScheduled:
		if o.StartTime != nil && t.Before(*o.StartTime) {
			return false
		}
		if o.EndTime != nil && !t.Before(*o.EndTime) {
			return false
		}
		return true
	}
	return false
}

// OverlayPatch is a partial overlay update; nil fields are left untouched.
type OverlayPatch struct {
	Name      *string        `json:"name,omitempty"`
	ContentID *int           `json:"content_id,omitempty"`
	PositionX *float64       `json:"position_x,omitempty"`
	PositionY *float64       `json:"position_y,omitempty"`
	Width     *float64       `json:"width,omitempty"`
	Height    *float64       `json:"height,omitempty"`
	ZIndex    *int           `json:"z_index,omitempty"`
	Opacity   *float64       `json:"opacity,omitempty"`
	Rotation  *float64       `json:"rotation,omitempty"`
	Status    *OverlayStatus `json:"status,omitempty"`
	StartTime *time.Time     `json:"start_time,omitempty"`
	EndTime   *time.Time     `json:"end_time,omitempty"`
}

// PositionPatch builds the patch sent after a drag settles.
func PositionPatch(x, y float64) OverlayPatch {
	return OverlayPatch{PositionX: &x, PositionY: &y}
}

// Apply returns a copy of o with every non-nil patch field written over it.
func (o Overlay) Apply(p OverlayPatch) Overlay {
	if p.Name != nil {
		o.Name = *p.Name
	}
	if p.ContentID != nil {
		id := *p.ContentID
		o.ContentID = &id
	}
	if p.PositionX != nil {
		o.PositionX = *p.PositionX
	}
	if p.PositionY != nil {
		o.PositionY = *p.PositionY
	}
	if p.Width != nil {
		o.Width = *p.Width
	}
	if p.Height != nil {
		o.Height = *p.Height
	}
	if p.ZIndex != nil {
		o.ZIndex = *p.ZIndex
	}
	if p.Opacity != nil {
		o.Opacity = *p.Opacity
	}
	if p.Rotation != nil {
		o.Rotation = *p.Rotation
	}
	if p.Status != nil {
		o.Status = *p.Status
	}
	if p.StartTime != nil {
		t := *p.StartTime
		o.StartTime = &t
	}
	if p.EndTime != nil {
		t := *p.EndTime
		o.EndTime = &t
	}
	return o
}
