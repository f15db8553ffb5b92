package model

import "time"

type Orientation string

const (
	OrientationLandscape Orientation = "landscape"
	OrientationPortrait  Orientation = "portrait"
)

// Screen represents a display device in the system.
// Orientation is advisory and never checked against Width/Height.
type Screen struct {
	ID          int         `db:"id"           json:"id"`
	DeviceID    *string     `db:"device_id"    json:"device_id"`
	Name        string      `db:"name"         json:"name"`
	Location    *string     `db:"location"     json:"location"`
	Width       int         `db:"width"        json:"width"`
	Height      int         `db:"height"       json:"height"`
	Orientation Orientation `db:"orientation"  json:"orientation"`
	Paired      bool        `db:"paired"       json:"paired"`
	CreatedBy   int         `db:"created_by"   json:"created_by"`
	CreatedAt   time.Time   `db:"created_at"   json:"created_at"`
	UpdatedAt   time.Time   `db:"updated_at"   json:"updated_at"`
}
