package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Nixie-Tech-LLC/medusa-canvas/internal/config"
	"github.com/Nixie-Tech-LLC/medusa-canvas/internal/db/dbtest"
	adminapi "github.com/Nixie-Tech-LLC/medusa-canvas/internal/http/api/admin/control/endpoints"
	"github.com/Nixie-Tech-LLC/medusa-canvas/internal/storage"
)

func newTestRouter(t *testing.T) (*gin.Engine, *config.Config) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	cfg := &config.Config{JWTSecret: "supersecret", UploadDir: t.TempDir()}
	r := gin.New()
	RegisterRoutes(r, cfg, dbtest.NewMemStore(), adminapi.LayoutDeps{
		Storage: storage.NewLocalStorage(cfg.UploadDir),
	})
	return r, cfg
}

func TestRoutesRequireAuthForAdmin(t *testing.T) {
	r, _ := newTestRouter(t)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/admin/screens", nil))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRoutesTVLayoutIsPublic(t *testing.T) {
	r, _ := newTestRouter(t)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/tv/screens/unknown/layout", nil))

	// reaches the handler, which rejects the device itself
	assert.JSONEq(t, `{"error":"unauthorized device"}`, w.Body.String())
}

func TestRoutesServeLocalUploads(t *testing.T) {
	r, cfg := newTestRouter(t)
	url, err := storage.NewLocalStorage(cfg.UploadDir).SaveObject(context.Background(), "screen-1-layout.png", []byte("png"))
	require.NoError(t, err)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, url, nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "png", w.Body.String())
}

func TestRoutesCORSPreflight(t *testing.T) {
	r, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/admin/screens", nil)
	req.Header.Set("Origin", "http://editor.example.com")
	req.Header.Set("Access-Control-Request-Method", "PUT")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://editor.example.com", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestRoutesExposeMetrics(t *testing.T) {
	r, _ := newTestRouter(t)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/admin/screens", nil))
	require.Equal(t, http.StatusUnauthorized, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `medusa_canvas_api_requests_total{method="GET",route="/api/admin/screens",status="401"}`)
}
