package gateway

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// RemoteChange is an overlay mutation reported by the backend, made by
// this or any other client.
type RemoteChange struct {
	ScreenID  int    `json:"screen_id"`
	OverlayID int    `json:"overlay_id"`
	Operation string `json:"operation"`
}

func (c *Client) liveURL(screenID int) (string, error) {
	u, err := url.Parse(c.baseURL + overlaysPath(screenID) + "/live")
	if err != nil {
		return "", err
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	case "http":
		u.Scheme = "ws"
	default:
		return "", fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	return u.String(), nil
}

// Watch streams changes of screenID to handler until ctx is done, which
// returns ctx.Err(), or the connection fails, which returns a
// *NetworkError. handler runs on the calling goroutine.
func (c *Client) Watch(ctx context.Context, screenID int, handler func(RemoteChange)) error {
	target, err := c.liveURL(screenID)
	if err != nil {
		return &NetworkError{Message: err.Error()}
	}
	header := http.Header{}
	if c.token != "" {
		header.Set("Authorization", "Bearer "+c.token)
	}

	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, target, header)
	if err != nil {
		if resp != nil {
			log.Warn().Int("screen_id", screenID).Int("status", resp.StatusCode).Msg("live updates rejected")
			return &NetworkError{Status: resp.StatusCode, Message: err.Error()}
		}
		return &NetworkError{Message: err.Error()}
	}
	defer conn.Close()

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.Close()
		case <-done:
		}
	}()

	for {
		var change RemoteChange
		if err := conn.ReadJSON(&change); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			var ce *websocket.CloseError
			if errors.As(err, &ce) && ce.Code == websocket.CloseNormalClosure {
				return nil
			}
			return &NetworkError{Message: err.Error()}
		}
		if change.ScreenID != screenID {
			continue
		}
		handler(change)
	}
}
