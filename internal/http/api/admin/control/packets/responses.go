package packets

// ScreenResponse mirrors model.Screen but flattens times to RFC3339
type ScreenResponse struct {
	ID          int     `json:"id"`
	DeviceID    *string `json:"device_id"`
	Name        string  `json:"name"`
	Location    *string `json:"location"`
	Width       int     `json:"width"`
	Height      int     `json:"height"`
	Orientation string  `json:"orientation"`
	Paired      bool    `json:"paired"`
	CreatedAt   string  `json:"created_at"`
	UpdatedAt   string  `json:"updated_at"`
}

type PublishResponse struct {
	URL  string `json:"url"`
	ETag string `json:"etag"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

// LayoutEvent is pushed to editors watching a screen's overlays.
type LayoutEvent struct {
	Type      string `json:"type"`
	ScreenID  int    `json:"screen_id"`
	OverlayID int    `json:"overlay_id"`
	Operation string `json:"operation"`
	Timestamp int64  `json:"timestamp"`
}
