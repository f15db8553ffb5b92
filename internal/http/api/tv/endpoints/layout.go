package endpoints

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/medusa-canvas/internal/canvas/geometry"
	"github.com/Nixie-Tech-LLC/medusa-canvas/internal/canvas/render"
	"github.com/Nixie-Tech-LLC/medusa-canvas/internal/db"
	"github.com/Nixie-Tech-LLC/medusa-canvas/internal/http/api"
	"github.com/Nixie-Tech-LLC/medusa-canvas/internal/http/api/tv/packets"
	"github.com/Nixie-Tech-LLC/medusa-canvas/internal/model"
)

type TvController struct {
	store db.Store
	now   func() time.Time
}

func NewTvController(store db.Store) *TvController {
	return &TvController{store: store, now: time.Now}
}

// LayoutModule mounts the endpoint paired TVs poll after an
// overlays_updated message.
func LayoutModule(store db.Store) api.Module {
	return layoutModule(NewTvController(store))
}

func layoutModule(ctl *TvController) api.Module {
	return api.ModuleFunc(func(c *api.Controller) {
		c.PUBLIC_GET("/screens/:deviceId/layout", ctl.getLayout)
	})
}

// GET /api/tv/screens/:deviceId/layout
func (t *TvController) getLayout(ctx *gin.Context) (any, *api.APIError) {
	deviceID := ctx.Param("deviceId")

	screen, err := t.store.GetScreenByDeviceID(deviceID)
	if errors.Is(err, db.ErrNotFound) {
		log.Error().Str("device_id", deviceID).Msg("device ID not found")
		return nil, &api.APIError{Code: http.StatusUnauthorized, Message: "unauthorized device"}
	}
	if err != nil {
		return nil, &api.APIError{Code: http.StatusInternalServerError, Message: "could not load screen"}
	}
	if !screen.Paired {
		return nil, &api.APIError{Code: http.StatusForbidden, Message: "screen is not paired"}
	}

	all, err := t.store.ListOverlaysByScreen(screen.ID)
	if err != nil {
		return nil, &api.APIError{Code: http.StatusInternalServerError, Message: "could not list overlays"}
	}

	now := t.now()
	visible := make([]model.Overlay, 0, len(all))
	for _, o := range render.PaintOrder(all) {
		if !o.VisibleAt(now) || geometry.Validate(o) != nil {
			continue
		}
		o.Opacity = geometry.ClampOpacity(o.Opacity)
		o.Rotation = geometry.NormalizeRotationDegrees(o.Rotation)
		visible = append(visible, o)
	}

	orientation := screen.Orientation
	if orientation == "" {
		orientation = model.OrientationLandscape
	}
	return packets.LayoutResponse{
		ScreenID:    screen.ID,
		Width:       screen.Width,
		Height:      screen.Height,
		Orientation: string(orientation),
		Overlays:    visible,
		GeneratedAt: now.UTC().Format(time.RFC3339),
	}, nil
}
