package services

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"expedientes_app_go/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStorageSave(t *testing.T) {
	tempDir := t.TempDir()
	storage := NewLocalStorage(tempDir)

	path, err := storage.Save(context.Background(), "snapshots/2024-05-10/page.html", "text/html", []byte("<html></html>"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(tempDir, "snapshots/2024-05-10/page.html"), path)

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "<html></html>", string(got))
}

func TestGenerateSnapshotKey(t *testing.T) {
	at := time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)

	a := GenerateSnapshotKey(at)
	b := GenerateSnapshotKey(at)
	assert.True(t, strings.HasPrefix(a, "snapshots/2024-05-10/"))
	assert.True(t, strings.HasSuffix(a, "_1715342400"))
	assert.NotEqual(t, a, b)
}

func TestInitializeStorageFallsBackToLocal(t *testing.T) {
	dir := t.TempDir()
	store := InitializeStorage(&config.Config{SnapshotDir: dir})

	local, ok := store.(*LocalStorage)
	require.True(t, ok)
	assert.Equal(t, dir, local.baseDir)
}
