package storage

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeFilename(t *testing.T) {
	at := time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC)

	assert.Equal(t, "Lobby_screen_20260304_050607.png", normalizeFilename("Lobby screen.png", at))
	assert.Equal(t, "file_20260304_050607.png", normalizeFilename("???.png", at))
	assert.Equal(t, "a-bc_20260304_050607", normalizeFilename("a-b/c", at))
}

func TestGetContentType(t *testing.T) {
	assert.Equal(t, "image/png", getContentType("x.PNG"))
	assert.Equal(t, "application/octet-stream", getContentType("x.bin"))
}

func TestLocalStorageSaveObject(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "uploads")
	ls := NewLocalStorage(dir)

	url, err := ls.SaveObject(context.Background(), "screen-3 preview.png", []byte("png-bytes"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(url, "/uploads/screen-3_preview_"))
	assert.True(t, strings.HasSuffix(url, ".png"))

	data, err := os.ReadFile(filepath.Join(dir, strings.TrimPrefix(url, "/uploads/")))
	require.NoError(t, err)
	assert.Equal(t, "png-bytes", string(data))
}
