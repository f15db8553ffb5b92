package endpoints

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/medusa-canvas/internal/canvas/geometry"
	"github.com/Nixie-Tech-LLC/medusa-canvas/internal/canvas/render"
	"github.com/Nixie-Tech-LLC/medusa-canvas/internal/canvas/store"
	"github.com/Nixie-Tech-LLC/medusa-canvas/internal/db"
	"github.com/Nixie-Tech-LLC/medusa-canvas/internal/http/api"
	"github.com/Nixie-Tech-LLC/medusa-canvas/internal/http/api/admin/control/packets"
	"github.com/Nixie-Tech-LLC/medusa-canvas/internal/http/middleware"
	"github.com/Nixie-Tech-LLC/medusa-canvas/internal/metrics"
	"github.com/Nixie-Tech-LLC/medusa-canvas/internal/model"
	"github.com/Nixie-Tech-LLC/medusa-canvas/internal/storage"
)

// PreviewCache holds rendered previews keyed by screen. A nil cache
// disables caching. Invalidate bumps the screen's layout version and
// StorePreview drops a render made from an older version.
type PreviewCache interface {
	Preview(ctx context.Context, screenID int) (png []byte, etag string, ok bool, err error)
	PreviewVersion(ctx context.Context, screenID int) (int64, error)
	StorePreview(ctx context.Context, screenID int, version int64, etag string, png []byte) (bool, error)
	Invalidate(ctx context.Context, screenID int)
}

// LayoutDeps are the collaborators of the overlay endpoints.
type LayoutDeps struct {
	Renderer *render.Renderer
	Cache    PreviewCache
	Notifier middleware.LayoutNotifier
	Storage  storage.Storage
	Hub      *LayoutHub
}

type LayoutController struct {
	store db.Store
	deps  LayoutDeps
}

func newLayoutController(store db.Store, deps LayoutDeps) *LayoutController {
	if deps.Notifier == nil {
		deps.Notifier = middleware.NopNotifier{}
	}
	return &LayoutController{store: store, deps: deps}
}

// OverlayModule mounts the overlay CRUD and preview endpoints of a screen.
func OverlayModule(store db.Store, deps LayoutDeps) api.Module {
	ctl := newLayoutController(store, deps)
	return api.ModuleFunc(func(c *api.Controller) {
		c.GET("/screens/:id/overlays", ctl.listOverlays)
		c.POST("/screens/:id/overlays", ctl.createOverlay)
		c.PUT("/screens/:id/overlays/:overlayId", ctl.updateOverlay)
		c.DELETE("/screens/:id/overlays/:overlayId", ctl.deleteOverlay)
		c.GET("/screens/:id/overlays/live", ctl.liveOverlays)

		c.GET("/screens/:id/preview.png", ctl.previewScreen)
		c.POST("/screens/:id/preview/publish", ctl.publishPreview)
	})
}

// overlayOnScreen resolves :overlayId and checks it belongs to screen.
func (l *LayoutController) overlayOnScreen(ctx *gin.Context, screen model.Screen) (model.Overlay, *api.APIError) {
	id, err := strconv.Atoi(ctx.Param("overlayId"))
	if err != nil || id <= 0 {
		return model.Overlay{}, &api.APIError{Code: http.StatusBadRequest, Message: "invalid overlay id"}
	}
	o, err := l.store.GetOverlayByID(id)
	if errors.Is(err, db.ErrNotFound) || (err == nil && o.ScreenID != screen.ID) {
		return model.Overlay{}, &api.APIError{Code: http.StatusNotFound, Message: "overlay not found"}
	}
	if err != nil {
		return model.Overlay{}, &api.APIError{Code: http.StatusInternalServerError, Message: "could not load overlay"}
	}
	return o, nil
}

// afterMutation drops the cached preview, tells live editors what changed
// and tells a paired TV to refetch.
func (l *LayoutController) afterMutation(ctx context.Context, screen model.Screen, operation string, overlayID int) {
	metrics.RecordOverlayMutation(operation)
	if l.deps.Cache != nil {
		l.deps.Cache.Invalidate(ctx, screen.ID)
	}
	if l.deps.Hub != nil {
		l.deps.Hub.Publish(packets.LayoutEvent{
			Type:      "overlays_updated",
			ScreenID:  screen.ID,
			OverlayID: overlayID,
			Operation: operation,
			Timestamp: time.Now().Unix(),
		})
	}
	if !screen.Paired || screen.DeviceID == nil {
		return
	}
	err := l.deps.Notifier.NotifyOverlaysUpdated(*screen.DeviceID, screen.ID)
	metrics.RecordLayoutNotification(err)
	if err != nil {
		log.Warn().Err(err).Int("screen_id", screen.ID).Str("device_id", *screen.DeviceID).
			Msg("failed to notify screen about overlay change")
	}
}

// GET /api/admin/screens/:id/overlays
func (l *LayoutController) listOverlays(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	screen, apiErr := ownedScreen(ctx, l.store, user)
	if apiErr != nil {
		return nil, apiErr
	}
	overlays, err := l.store.ListOverlaysByScreen(screen.ID)
	if err != nil {
		return nil, &api.APIError{Code: http.StatusInternalServerError, Message: "could not list overlays"}
	}
	return overlays, nil
}

// POST /api/admin/screens/:id/overlays
func (l *LayoutController) createOverlay(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	screen, apiErr := ownedScreen(ctx, l.store, user)
	if apiErr != nil {
		return nil, apiErr
	}

	var request packets.CreateOverlayRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: err.Error()}
	}
	patch := request.Patch()
	if err := geometry.ValidatePatch(patch); err != nil {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: err.Error()}
	}

	draft := store.NewDraft(screen.ID, user.CompanyID, nil, "").Apply(patch)
	draft.Opacity = geometry.ClampOpacity(draft.Opacity)
	if err := geometry.Validate(draft); err != nil {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: err.Error()}
	}

	created, err := l.store.CreateOverlay(draft)
	if err != nil {
		return nil, &api.APIError{Code: http.StatusInternalServerError, Message: "could not create overlay"}
	}
	log.Info().Int("screen_id", screen.ID).Int("overlay_id", created.ID).Int("user_id", user.ID).Msg("overlay created")

	l.afterMutation(ctx, screen, "create", created.ID)
	return created, nil
}

// PUT /api/admin/screens/:id/overlays/:overlayId
func (l *LayoutController) updateOverlay(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	screen, apiErr := ownedScreen(ctx, l.store, user)
	if apiErr != nil {
		return nil, apiErr
	}
	current, apiErr := l.overlayOnScreen(ctx, screen)
	if apiErr != nil {
		return nil, apiErr
	}

	var patch model.OverlayPatch
	if err := ctx.ShouldBindJSON(&patch); err != nil {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: err.Error()}
	}
	if err := geometry.ValidatePatch(patch); err != nil {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: err.Error()}
	}
	if patch.Opacity != nil {
		clamped := geometry.ClampOpacity(*patch.Opacity)
		patch.Opacity = &clamped
	}
	if err := geometry.Validate(current.Apply(patch)); err != nil {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: err.Error()}
	}

	updated, err := l.store.UpdateOverlay(current.ID, patch)
	if errors.Is(err, db.ErrNotFound) {
		return nil, &api.APIError{Code: http.StatusNotFound, Message: "overlay not found"}
	}
	if err != nil {
		return nil, &api.APIError{Code: http.StatusInternalServerError, Message: "could not update overlay"}
	}

	l.afterMutation(ctx, screen, "update", updated.ID)
	return updated, nil
}

// DELETE /api/admin/screens/:id/overlays/:overlayId
func (l *LayoutController) deleteOverlay(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	screen, apiErr := ownedScreen(ctx, l.store, user)
	if apiErr != nil {
		return nil, apiErr
	}
	current, apiErr := l.overlayOnScreen(ctx, screen)
	if apiErr != nil {
		return nil, apiErr
	}

	if err := l.store.DeleteOverlay(current.ID); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, &api.APIError{Code: http.StatusNotFound, Message: "overlay not found"}
		}
		return nil, &api.APIError{Code: http.StatusInternalServerError, Message: "could not delete overlay"}
	}
	log.Info().Int("screen_id", screen.ID).Int("overlay_id", current.ID).Int("user_id", user.ID).Msg("overlay deleted")

	l.afterMutation(ctx, screen, "delete", current.ID)
	return packets.MessageResponse{Message: "overlay deleted"}, nil
}
