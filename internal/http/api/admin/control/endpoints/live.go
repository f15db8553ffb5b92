package endpoints

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/medusa-canvas/internal/eventbus"
	"github.com/Nixie-Tech-LLC/medusa-canvas/internal/http/api"
	"github.com/Nixie-Tech-LLC/medusa-canvas/internal/http/api/admin/control/packets"
	"github.com/Nixie-Tech-LLC/medusa-canvas/internal/model"
)

const (
	liveBuffer     = 16
	livePingPeriod = 30 * time.Second
	liveWriteWait  = 10 * time.Second
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// LayoutHub fans overlay changes out to the editors watching a screen.
type LayoutHub struct {
	bus *eventbus.Bus[packets.LayoutEvent]
}

func NewLayoutHub() *LayoutHub {
	return &LayoutHub{bus: eventbus.New[packets.LayoutEvent]()}
}

func (h *LayoutHub) Publish(ev packets.LayoutEvent) {
	h.bus.Publish(ev)
}

// Watch calls fn for every event of screenID until the returned function
// is called.
func (h *LayoutHub) Watch(screenID int, fn func(packets.LayoutEvent)) func() {
	return h.bus.Subscribe(func(ev packets.LayoutEvent) {
		if ev.ScreenID == screenID {
			fn(ev)
		}
	})
}

// Watchers is the number of open subscriptions across all screens.
func (h *LayoutHub) Watchers() int {
	return h.bus.Count()
}

// GET /api/admin/screens/:id/overlays/live
func (l *LayoutController) liveOverlays(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	screen, apiErr := ownedScreen(ctx, l.store, user)
	if apiErr != nil {
		return nil, apiErr
	}
	if l.deps.Hub == nil {
		return nil, &api.APIError{Code: http.StatusServiceUnavailable, Message: "live updates are not configured"}
	}

	conn, err := upgrader.Upgrade(ctx.Writer, ctx.Request, nil)
	if err != nil {
		log.Warn().Err(err).Int("screen_id", screen.ID).Msg("websocket upgrade failed")
		return nil, nil
	}
	defer conn.Close()

	events := make(chan packets.LayoutEvent, liveBuffer)
	unsubscribe := l.deps.Hub.Watch(screen.ID, func(ev packets.LayoutEvent) {
		select {
		case events <- ev:
		default:
			log.Warn().Int("screen_id", screen.ID).Int("user_id", user.ID).Msg("live watcher too slow, event dropped")
		}
	})
	defer unsubscribe()
	log.Debug().Int("screen_id", screen.ID).Int("user_id", user.ID).Msg("live watcher connected")

	// Reads only detect the peer going away.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ping := time.NewTicker(livePingPeriod)
	defer ping.Stop()
	for {
		select {
		case ev := <-events:
			_ = conn.SetWriteDeadline(time.Now().Add(liveWriteWait))
			if err := conn.WriteJSON(ev); err != nil {
				log.Debug().Err(err).Int("screen_id", screen.ID).Msg("live watcher write failed")
				return nil, nil
			}
		case <-ping.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(liveWriteWait)); err != nil {
				return nil, nil
			}
		case <-closed:
			log.Debug().Int("screen_id", screen.ID).Int("user_id", user.ID).Msg("live watcher disconnected")
			return nil, nil
		case <-ctx.Request.Context().Done():
			return nil, nil
		}
	}
}
