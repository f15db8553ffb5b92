package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Nixie-Tech-LLC/medusa-canvas/internal/model"
)

const testToken = "test-token"

type recorded struct {
	method string
	path   string
	auth   string
	body   []byte
}

func newServer(t *testing.T, handler http.HandlerFunc) (*Client, *[]recorded) {
	t.Helper()
	var calls []recorded
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		calls = append(calls, recorded{method: r.Method, path: r.URL.Path, auth: r.Header.Get("Authorization"), body: body})
		w.Header().Set("Content-Type", "application/json")
		handler(w, r)
	}))
	t.Cleanup(srv.Close)
	return New(srv.URL+"/api/admin", Credentials{Token: testToken}), &calls
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestFetchScreens(t *testing.T) {
	c, calls := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, []map[string]any{
			{"id": 1, "name": "Lobby", "width": 1920, "height": 1080, "orientation": "landscape"},
			{"id": 2, "name": "Elevator", "width": 1080, "height": 1920},
		})
	})

	screens, err := c.FetchScreens(context.Background())
	require.NoError(t, err)
	require.Len(t, screens, 2)
	assert.Equal(t, "Lobby", screens[0].Name)
	assert.Equal(t, model.OrientationLandscape, screens[1].Orientation, "missing orientation defaults to landscape")

	require.Len(t, *calls, 1)
	assert.Equal(t, http.MethodGet, (*calls)[0].method)
	assert.Equal(t, "/api/admin/screens", (*calls)[0].path)
	assert.Equal(t, "Bearer "+testToken, (*calls)[0].auth)
}

func TestFetchScreensRejectsMalformedPayload(t *testing.T) {
	c, _ := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, []map[string]any{{"id": 1, "name": "Broken", "width": 0, "height": 1080}})
	})

	_, err := c.FetchScreens(context.Background())
	assert.ErrorIs(t, err, ErrMalformedResponse)
}

func TestUndecodableBodyIsMalformed(t *testing.T) {
	c, _ := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"id": 1`))
	})

	_, err := c.CreateOverlay(context.Background(), 3, model.Overlay{Name: "menu", Width: 10, Height: 10})

	assert.ErrorIs(t, err, ErrMalformedResponse)
	assert.Equal(t, 0, StatusCode(err), "an undecodable 2xx is not a network error")
}

func TestPlainTextErrorBodyIsKept(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("upstream down\n"))
	}))
	t.Cleanup(srv.Close)

	err := New(srv.URL, Credentials{Token: testToken}).UpdateOverlay(context.Background(), 3, 42, model.PositionPatch(1, 2))

	var ne *NetworkError
	require.True(t, errors.As(err, &ne))
	assert.Equal(t, http.StatusBadGateway, ne.Status)
	assert.Equal(t, "upstream down", ne.Message)
}

func TestFetchOverlays(t *testing.T) {
	c, calls := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, []map[string]any{
			{"id": 10, "screen_id": 3, "name": "menu", "position_x": 5, "position_y": 6, "width": 300, "height": 200, "z_index": 2, "opacity": 0.5, "status": "active"},
		})
	})

	overlays, err := c.FetchOverlays(context.Background(), 3)
	require.NoError(t, err)
	require.Len(t, overlays, 1)
	assert.Equal(t, 10, overlays[0].ID)
	assert.Equal(t, 0.5, overlays[0].Opacity)
	assert.Equal(t, "/api/admin/screens/3/overlays", (*calls)[0].path)
}

func TestFetchOverlaysEmptyListIsNotNil(t *testing.T) {
	c, _ := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("null"))
	})

	overlays, err := c.FetchOverlays(context.Background(), 3)
	require.NoError(t, err)
	assert.NotNil(t, overlays)
	assert.Empty(t, overlays)
}

func TestFetchOverlaysRejectsBadGeometryAndForeignScreen(t *testing.T) {
	payloads := [][]map[string]any{
		{{"id": 1, "screen_id": 3, "width": -1, "height": 10, "status": "draft"}},
		{{"id": 1, "screen_id": 4, "width": 10, "height": 10, "status": "draft"}},
		{{"id": 1, "screen_id": 3, "width": 10, "height": 10, "status": "bogus"}},
	}
	for _, p := range payloads {
		c, _ := newServer(t, func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, p)
		})
		_, err := c.FetchOverlays(context.Background(), 3)
		assert.ErrorIs(t, err, ErrMalformedResponse)
	}
}

func TestUnauthorizedIsSurfacedAsNetworkError(t *testing.T) {
	c, _ := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid token"})
	})

	_, err := c.FetchOverlays(context.Background(), 3)

	var ne *NetworkError
	require.True(t, errors.As(err, &ne))
	assert.Equal(t, http.StatusUnauthorized, ne.Status)
	assert.Equal(t, "invalid token", ne.Message)
	assert.Equal(t, http.StatusUnauthorized, StatusCode(err))
}

func TestMissingTokenSendsNoAuthHeader(t *testing.T) {
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	err := New(srv.URL, Credentials{}).DeleteOverlay(context.Background(), 1, 2)

	assert.Empty(t, auth)
	assert.Equal(t, http.StatusUnauthorized, StatusCode(err))
}

func TestCreateOverlay(t *testing.T) {
	c, calls := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		writeJSON(w, http.StatusOK, map[string]any{
			"id": 42, "screen_id": 3, "name": "promo", "position_x": 100, "position_y": 100,
			"width": 300, "height": 200, "z_index": 1, "opacity": 1, "status": "draft",
		})
	})

	created, err := c.CreateOverlay(context.Background(), 3, model.Overlay{
		Name: "promo", PositionX: 100, PositionY: 100, Width: 300, Height: 200, ZIndex: 1, Opacity: 1, Status: model.StatusDraft,
	})
	require.NoError(t, err)
	assert.Equal(t, 42, created.ID)

	var sent map[string]any
	require.NoError(t, json.Unmarshal((*calls)[0].body, &sent))
	assert.Equal(t, http.MethodPost, (*calls)[0].method)
	assert.Equal(t, "promo", sent["name"])
	assert.Equal(t, 300.0, sent["width"])
	assert.NotContains(t, sent, "id")
}

func TestCreateOverlayRequiresServerID(t *testing.T) {
	c, _ := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusCreated, map[string]any{"screen_id": 3, "width": 1, "height": 1, "status": "draft"})
	})

	_, err := c.CreateOverlay(context.Background(), 3, model.Overlay{Width: 1, Height: 1, Status: model.StatusDraft})
	assert.ErrorIs(t, err, ErrMalformedResponse)
}

func TestUpdateOverlaySendsOnlyPatchedFields(t *testing.T) {
	c, calls := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"message": "ok"})
	})

	err := c.UpdateOverlay(context.Background(), 3, 42, model.PositionPatch(350, 250))
	require.NoError(t, err)

	call := (*calls)[0]
	assert.Equal(t, http.MethodPut, call.method)
	assert.Equal(t, "/api/admin/screens/3/overlays/42", call.path)
	assert.JSONEq(t, `{"position_x":350,"position_y":250}`, string(call.body))
}

func TestDeleteOverlayServerError(t *testing.T) {
	c, calls := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "boom"})
	})

	err := c.DeleteOverlay(context.Background(), 3, 42)

	assert.Equal(t, http.StatusInternalServerError, StatusCode(err))
	assert.Equal(t, http.MethodDelete, (*calls)[0].method)
	assert.Len(t, *calls, 1, "no retries")
}

func TestTransportFailureHasZeroStatus(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := New(url, Credentials{Token: testToken}).FetchScreens(context.Background())

	var ne *NetworkError
	require.True(t, errors.As(err, &ne))
	assert.Equal(t, 0, ne.Status)
	assert.Contains(t, ne.Error(), "network error")
}

func TestLiveURLScheme(t *testing.T) {
	u, err := New("https://signage.example.com/api/admin/", Credentials{}).liveURL(3)
	require.NoError(t, err)
	assert.Equal(t, "wss://signage.example.com/api/admin/screens/3/overlays/live", u)

	u, err = New("http://localhost:8080/api/admin", Credentials{}).liveURL(3)
	require.NoError(t, err)
	assert.Equal(t, "ws://localhost:8080/api/admin/screens/3/overlays/live", u)
}

func TestWatchRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	err := New(srv.URL, Credentials{}).Watch(context.Background(), 3, func(RemoteChange) {
		t.Fatal("no change expected")
	})

	assert.Equal(t, http.StatusUnauthorized, StatusCode(err))
}
