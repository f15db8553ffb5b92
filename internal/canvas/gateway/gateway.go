// Package gateway is the only part of the editor that talks to the network.
// It wraps the backend's screen and overlay endpoints and turns loosely
// typed JSON into validated model values.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/medusa-canvas/internal/canvas/geometry"
	"github.com/Nixie-Tech-LLC/medusa-canvas/internal/model"
)

// ErrMalformedResponse is wrapped when a 2xx payload fails validation.
var ErrMalformedResponse = errors.New("malformed response")

// NetworkError is a transport failure (Status 0) or a non-2xx response.
type NetworkError struct {
	Status  int
	Message string
}

func (e *NetworkError) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("network error: %s", e.Message)
	}
	if e.Message == "" {
		return fmt.Sprintf("network error: status %d", e.Status)
	}
	return fmt.Sprintf("network error: status %d: %s", e.Status, e.Message)
}

// StatusCode extracts the HTTP status from err, or 0 when err is not a
// NetworkError.
func StatusCode(err error) int {
	var ne *NetworkError
	if errors.As(err, &ne) {
		return ne.Status
	}
	return 0
}

// Credentials carries the bearer token for one signed-in session. It is
// passed to New instead of being read from ambient storage.
type Credentials struct {
	Token string
}

type Option func(*resty.Client)

// WithUserAgent sets the User-Agent header sent with every call.
func WithUserAgent(ua string) Option {
	return func(c *resty.Client) {
		c.SetHeader("User-Agent", ua)
	}
}

type Client struct {
	http    *resty.Client
	baseURL string
	token   string
}

// New builds a client for the API rooted at baseURL (for example
// "https://signage.example.com/api/admin"). No retries or timeouts are
// configured; callers decide what to do with a failure.
func New(baseURL string, creds Credentials, opts ...Option) *Client {
	baseURL = strings.TrimSuffix(baseURL, "/")
	hc := resty.New().
		SetBaseURL(baseURL).
		SetRetryCount(0).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")
	if creds.Token != "" {
		hc.SetAuthToken(creds.Token)
	}
	for _, opt := range opts {
		opt(hc)
	}
	return &Client{http: hc, baseURL: baseURL, token: creds.Token}
}

type errorBody struct {
	Error string `json:"error"`
}

// do sends one request. On 2xx the JSON body is decoded into result when
// it is non-nil; a body that does not decode is ErrMalformedResponse.
func (c *Client) do(ctx context.Context, method, path string, body, result any) error {
	req := c.http.R().
		SetContext(ctx).
		SetError(&errorBody{}).
		ForceContentType("application/json")
	if body != nil {
		req.SetBody(body)
	}
	if result != nil {
		req.SetResult(result)
	}
	resp, err := req.Execute(method, path)
	if err != nil {
		if resp != nil && resp.IsSuccess() {
			return fmt.Errorf("%w: %s %s: %w", ErrMalformedResponse, method, path, err)
		}
		log.Error().Err(err).Str("method", method).Str("path", path).Msg("sync gateway request failed")
		return &NetworkError{Message: err.Error()}
	}
	if !resp.IsSuccess() {
		msg := strings.TrimSpace(resp.String())
		if eb, ok := resp.Error().(*errorBody); ok && eb.Error != "" {
			msg = eb.Error
		}
		log.Warn().Str("method", method).Str("path", path).Int("status", resp.StatusCode()).Msg("sync gateway request rejected")
		return &NetworkError{Status: resp.StatusCode(), Message: msg}
	}
	return nil
}

func overlaysPath(screenID int) string {
	return "/screens/" + strconv.Itoa(screenID) + "/overlays"
}

func overlayPath(screenID, id int) string {
	return overlaysPath(screenID) + "/" + strconv.Itoa(id)
}

// GET /screens
func (c *Client) FetchScreens(ctx context.Context) ([]model.Screen, error) {
	var screens []model.Screen
	if err := c.do(ctx, http.MethodGet, "/screens", nil, &screens); err != nil {
		return nil, err
	}
	for i := range screens {
		if err := validateScreen(&screens[i]); err != nil {
			return nil, err
		}
	}
	return screens, nil
}

// GET /screens/{screenId}/overlays
func (c *Client) FetchOverlays(ctx context.Context, screenID int) ([]model.Overlay, error) {
	var overlays []model.Overlay
	if err := c.do(ctx, http.MethodGet, overlaysPath(screenID), nil, &overlays); err != nil {
		return nil, err
	}
	for _, o := range overlays {
		if err := validateOverlay(o, screenID); err != nil {
			return nil, err
		}
	}
	if overlays == nil {
		overlays = []model.Overlay{}
	}
	return overlays, nil
}

// POST /screens/{screenId}/overlays
func (c *Client) CreateOverlay(ctx context.Context, screenID int, draft model.Overlay) (model.Overlay, error) {
	var created model.Overlay
	if err := c.do(ctx, http.MethodPost, overlaysPath(screenID), newCreateBody(draft), &created); err != nil {
		return model.Overlay{}, err
	}
	if created.ID <= 0 {
		return model.Overlay{}, fmt.Errorf("%w: created overlay has no id", ErrMalformedResponse)
	}
	if err := validateOverlay(created, screenID); err != nil {
		return model.Overlay{}, err
	}
	return created, nil
}

// PUT /screens/{screenId}/overlays/{overlayId}
func (c *Client) UpdateOverlay(ctx context.Context, screenID, id int, patch model.OverlayPatch) error {
	return c.do(ctx, http.MethodPut, overlayPath(screenID, id), patch, nil)
}

// DELETE /screens/{screenId}/overlays/{overlayId}
func (c *Client) DeleteOverlay(ctx context.Context, screenID, id int) error {
	return c.do(ctx, http.MethodDelete, overlayPath(screenID, id), nil, nil)
}

// createBody is the wire shape of an overlay draft.
type createBody struct {
	Name      string              `json:"name"`
	ContentID *int                `json:"content_id,omitempty"`
	PositionX float64             `json:"position_x"`
	PositionY float64             `json:"position_y"`
	Width     float64             `json:"width"`
	Height    float64             `json:"height"`
	ZIndex    int                 `json:"z_index"`
	Opacity   float64             `json:"opacity"`
	Rotation  float64             `json:"rotation"`
	Status    model.OverlayStatus `json:"status"`
	StartTime *time.Time          `json:"start_time,omitempty"`
	EndTime   *time.Time          `json:"end_time,omitempty"`
}

func newCreateBody(d model.Overlay) createBody {
	return createBody{
		Name:      d.Name,
		ContentID: d.ContentID,
		PositionX: d.PositionX,
		PositionY: d.PositionY,
		Width:     d.Width,
		Height:    d.Height,
		ZIndex:    d.ZIndex,
		Opacity:   d.Opacity,
		Rotation:  d.Rotation,
		Status:    d.Status,
		StartTime: d.StartTime,
		EndTime:   d.EndTime,
	}
}

func validateScreen(s *model.Screen) error {
	if s.ID <= 0 {
		return fmt.Errorf("%w: screen without id", ErrMalformedResponse)
	}
	if s.Width <= 0 || s.Height <= 0 {
		return fmt.Errorf("%w: screen %d has resolution %dx%d", ErrMalformedResponse, s.ID, s.Width, s.Height)
	}
	switch s.Orientation {
	case model.OrientationLandscape, model.OrientationPortrait:
	case "":
		s.Orientation = model.OrientationLandscape
	default:
		return fmt.Errorf("%w: screen %d has orientation %q", ErrMalformedResponse, s.ID, s.Orientation)
	}
	return nil
}

func validateOverlay(o model.Overlay, screenID int) error {
	if o.ScreenID != screenID {
		return fmt.Errorf("%w: overlay %d belongs to screen %d, expected %d", ErrMalformedResponse, o.ID, o.ScreenID, screenID)
	}
	if !o.Status.Valid() {
		return fmt.Errorf("%w: overlay %d has status %q", ErrMalformedResponse, o.ID, o.Status)
	}
	if err := geometry.Validate(o); err != nil {
		return fmt.Errorf("%w: overlay %d: %w", ErrMalformedResponse, o.ID, err)
	}
	return nil
}
