package handlers

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"expedientes_app_go/db"
	"expedientes_app_go/models"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	// Use unique shared memory name to isolate tests
	dbName := "mem_" + uuid.New().String()
	testDB, err := gorm.Open(sqlite.Open("file:"+dbName+"?mode=memory&cache=shared&_busy_timeout=5000"), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, testDB.AutoMigrate(&models.Expediente{}, &models.Movement{}, &models.Task{}, &models.Note{}, &models.SyncRun{}))

	// Set global DB
	db.DB = testDB
	return testDB
}

func setupEcho(method, path, body string) (*echo.Echo, echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	return e, e.NewContext(req, rec), rec
}

func stringToPtr(s string) *string {
	return &s
}

// httpCode extracts the status of an echo error
func httpCode(t *testing.T, err error) int {
	t.Helper()
	he, ok := err.(*echo.HTTPError)
	require.True(t, ok, "expected *echo.HTTPError, got %T", err)
	return he.Code
}
