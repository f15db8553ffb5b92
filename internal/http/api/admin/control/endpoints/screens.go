package endpoints

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/medusa-canvas/internal/db"
	"github.com/Nixie-Tech-LLC/medusa-canvas/internal/http/api"
	"github.com/Nixie-Tech-LLC/medusa-canvas/internal/http/api/admin/control/packets"
	"github.com/Nixie-Tech-LLC/medusa-canvas/internal/model"
)

type ScreenController struct {
	store db.Store
}

func newScreenController(store db.Store) *ScreenController {
	return &ScreenController{store: store}
}

// ScreenModule mounts all authenticated /screens endpoints.
func ScreenModule(store db.Store) api.Module {
	ctl := newScreenController(store)
	return api.ModuleFunc(func(c *api.Controller) {
		c.GET("/screens", ctl.listScreens)
		c.POST("/screens", ctl.createScreen)
		c.GET("/screens/:id", ctl.getScreen)
	})
}

func toScreenResponse(s model.Screen) packets.ScreenResponse {
	orientation := s.Orientation
	if orientation == "" {
		orientation = model.OrientationLandscape
	}
	return packets.ScreenResponse{
		ID:          s.ID,
		DeviceID:    s.DeviceID,
		Name:        s.Name,
		Location:    s.Location,
		Width:       s.Width,
		Height:      s.Height,
		Orientation: string(orientation),
		Paired:      s.Paired,
		CreatedAt:   s.CreatedAt.Format(time.RFC3339),
		UpdatedAt:   s.UpdatedAt.Format(time.RFC3339),
	}
}

// ownedScreen resolves the :id path parameter to a screen the user created.
func ownedScreen(ctx *gin.Context, store db.Store, user *model.User) (model.Screen, *api.APIError) {
	id, err := strconv.Atoi(ctx.Param("id"))
	if err != nil || id <= 0 {
		log.Error().Err(err).Str("id_raw", ctx.Param("id")).Msg("invalid id in request")
		return model.Screen{}, &api.APIError{Code: http.StatusBadRequest, Message: "invalid id"}
	}

	screen, err := store.GetScreenByID(id)
	if errors.Is(err, db.ErrNotFound) {
		return model.Screen{}, &api.APIError{Code: http.StatusNotFound, Message: "screen not found"}
	}
	if err != nil {
		return model.Screen{}, &api.APIError{Code: http.StatusInternalServerError, Message: "could not load screen"}
	}

	if screen.CreatedBy != user.ID {
		log.Error().
			Int("user_id", user.ID).
			Int("screen_owner", screen.CreatedBy).
			Msg("forbidden access to screen")
		return model.Screen{}, &api.APIError{Code: http.StatusForbidden, Message: "forbidden"}
	}
	return screen, nil
}

// GET /api/admin/screens
func (t *ScreenController) listScreens(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	all, err := t.store.ListScreensByOwner(user.ID)
	if err != nil {
		return nil, &api.APIError{Code: http.StatusInternalServerError, Message: "could not list screens"}
	}

	out := make([]packets.ScreenResponse, 0, len(all))
	for _, s := range all {
		out = append(out, toScreenResponse(s))
	}
	return out, nil
}

// POST /api/admin/screens
func (t *ScreenController) createScreen(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	var request packets.CreateScreenRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: err.Error()}
	}
	orientation := request.Orientation
	if orientation == "" {
		orientation = model.OrientationLandscape
	}

	screen, err := t.store.CreateScreen(request.Name, request.Location, request.Width, request.Height, orientation, user.ID)
	if err != nil {
		return nil, &api.APIError{Code: http.StatusInternalServerError, Message: "could not create screen"}
	}
	return toScreenResponse(screen), nil
}

// GET /api/admin/screens/:id
func (t *ScreenController) getScreen(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	screen, apiErr := ownedScreen(ctx, t.store, user)
	if apiErr != nil {
		return nil, apiErr
	}
	return toScreenResponse(screen), nil
}
