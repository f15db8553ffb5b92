package endpoints

import (
	"bytes"
	"crypto/sha256"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/medusa-canvas/internal/canvas/render"
	"github.com/Nixie-Tech-LLC/medusa-canvas/internal/http/api"
	"github.com/Nixie-Tech-LLC/medusa-canvas/internal/http/api/admin/control/packets"
	"github.com/Nixie-Tech-LLC/medusa-canvas/internal/metrics"
	"github.com/Nixie-Tech-LLC/medusa-canvas/internal/model"
)

// renderPNG draws the stored layout of screen at zoom and returns the PNG
// with a strong ETag derived from its bytes.
func (l *LayoutController) renderPNG(screen model.Screen, zoom float64) ([]byte, string, *api.APIError) {
	if l.deps.Renderer == nil {
		return nil, "", &api.APIError{Code: http.StatusServiceUnavailable, Message: "preview rendering is not configured"}
	}
	overlays, err := l.store.ListOverlaysByScreen(screen.ID)
	if err != nil {
		return nil, "", &api.APIError{Code: http.StatusInternalServerError, Message: "could not list overlays"}
	}
	start := time.Now()
	defer func() { metrics.RecordPreviewRender(time.Since(start)) }()

	img, err := l.deps.Renderer.Render(render.Scene{Screen: screen, Overlays: overlays, Zoom: zoom})
	if err != nil {
		log.Error().Err(err).Int("screen_id", screen.ID).Msg("failed to render preview")
		return nil, "", &api.APIError{Code: http.StatusUnprocessableEntity, Message: err.Error()}
	}
	var buf bytes.Buffer
	if err := render.EncodePNG(&buf, img); err != nil {
		return nil, "", &api.APIError{Code: http.StatusInternalServerError, Message: "could not encode preview"}
	}
	sum := sha256.Sum256(buf.Bytes())
	return buf.Bytes(), fmt.Sprintf(`"%x"`, sum[:16]), nil
}

func writePNG(ctx *gin.Context, png []byte, etag string) {
	ctx.Header("ETag", etag)
	ctx.Header("Cache-Control", "no-cache")
	if match := ctx.GetHeader("If-None-Match"); match != "" && match == etag {
		ctx.Status(http.StatusNotModified)
		ctx.Writer.WriteHeaderNow()
		return
	}
	ctx.Data(http.StatusOK, "image/png", png)
}

// GET /api/admin/screens/:id/preview.png?zoom=1
func (l *LayoutController) previewScreen(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	screen, apiErr := ownedScreen(ctx, l.store, user)
	if apiErr != nil {
		return nil, apiErr
	}

	zoom := 1.0
	if raw := ctx.Query("zoom"); raw != "" {
		z, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, &api.APIError{Code: http.StatusBadRequest, Message: "invalid zoom"}
		}
		zoom = z
	}
	// Only the 1:1 preview is cached; other zoom levels are editor views.
	cacheable := zoom == 1 && l.deps.Cache != nil

	var version int64
	if cacheable {
		png, etag, ok, err := l.deps.Cache.Preview(ctx, screen.ID)
		if err != nil {
			log.Warn().Err(err).Int("screen_id", screen.ID).Msg("preview cache lookup failed")
		}
		metrics.RecordPreviewCache(ok)
		if ok {
			writePNG(ctx, png, etag)
			return nil, nil
		}
		// Read before the overlays are listed so a mutation landing in
		// between makes the render too old to store.
		if version, err = l.deps.Cache.PreviewVersion(ctx, screen.ID); err != nil {
			log.Warn().Err(err).Int("screen_id", screen.ID).Msg("preview version lookup failed")
			cacheable = false
		}
	}

	png, etag, apiErr := l.renderPNG(screen, zoom)
	if apiErr != nil {
		return nil, apiErr
	}
	if cacheable {
		stored, err := l.deps.Cache.StorePreview(ctx, screen.ID, version, etag, png)
		if err != nil {
			log.Warn().Err(err).Int("screen_id", screen.ID).Msg("failed to cache preview")
		} else if !stored {
			log.Debug().Int("screen_id", screen.ID).Int64("version", version).Msg("layout changed during render, preview not cached")
		}
	}
	writePNG(ctx, png, etag)
	return nil, nil
}

// POST /api/admin/screens/:id/preview/publish
func (l *LayoutController) publishPreview(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	screen, apiErr := ownedScreen(ctx, l.store, user)
	if apiErr != nil {
		return nil, apiErr
	}
	if l.deps.Storage == nil {
		return nil, &api.APIError{Code: http.StatusServiceUnavailable, Message: "storage is not configured"}
	}

	png, etag, apiErr := l.renderPNG(screen, 1)
	if apiErr != nil {
		return nil, apiErr
	}
	url, err := l.deps.Storage.SaveObject(ctx, fmt.Sprintf("screen-%d-layout.png", screen.ID), png)
	if err != nil {
		log.Error().Err(err).Int("screen_id", screen.ID).Msg("failed to publish preview")
		return nil, &api.APIError{Code: http.StatusBadGateway, Message: "could not publish preview"}
	}
	log.Info().Int("screen_id", screen.ID).Str("url", url).Msg("layout preview published")
	return packets.PublishResponse{URL: url, ETag: etag}, nil
}
