package db

import (
	"path/filepath"
	"testing"

	"expedientes_app_go/config"
	"expedientes_app_go/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitializeLocalAndMigrate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "expedientes.db")
	require.NoError(t, Initialize(&config.Config{DBPath: path, Environment: "production"}))
	t.Cleanup(func() {
		Close()
		DB = nil
	})

	require.NoError(t, AutoMigrate())
	for _, table := range []interface{}{&models.Expediente{}, &models.Movement{}, &models.Task{}, &models.Note{}, &models.SyncRun{}} {
		assert.True(t, DB.Migrator().HasTable(table))
	}
}

func TestAutoMigrateWithoutDatabase(t *testing.T) {
	DB = nil
	assert.Error(t, AutoMigrate())
	assert.NoError(t, Close())
}
