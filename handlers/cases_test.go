package handlers

import (
	"encoding/json"
	"net/http"
	"net/url"
	"testing"
	"time"

	"expedientes_app_go/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const caseNumber = "J-01-02-00345-6/2024-1"

func caseQuery(path string) string {
	return path + "?numero=" + url.QueryEscape(caseNumber)
}

func seedExpediente(t *testing.T, database *gorm.DB) {
	t.Helper()
	require.NoError(t, database.Create(&models.Expediente{
		CaseNumber: caseNumber,
		Title:      "PEREZ JUAN CONTRA GCBA SOBRE AMPARO",
		Status:     "EN LETRA",
	}).Error)
}

func TestListCasesHandler(t *testing.T) {
	database := setupTestDB(t)
	seedExpediente(t, database)

	_, c, rec := setupEcho(http.MethodGet, "/api/cases?q=AMPARO", "")
	require.NoError(t, ListCasesHandler(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Cases []map[string]interface{} `json:"cases"`
		Total int                      `json:"total"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, 1, resp.Total)
	assert.Equal(t, caseNumber, resp.Cases[0]["case_number"])
	assert.Equal(t, "PEREZ JUAN c/ GCBA", resp.Cases[0]["caption"])
}

func TestGetCaseDetailHandler(t *testing.T) {
	database := setupTestDB(t)
	seedExpediente(t, database)

	t.Run("Found", func(t *testing.T) {
		_, c, rec := setupEcho(http.MethodGet, caseQuery("/api/cases/detail"), "")
		require.NoError(t, GetCaseDetailHandler(c))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"status":"EN LETRA"`)
	})

	t.Run("Missing number", func(t *testing.T) {
		_, c, _ := setupEcho(http.MethodGet, "/api/cases/detail", "")
		assert.Equal(t, http.StatusBadRequest, httpCode(t, GetCaseDetailHandler(c)))
	})

	t.Run("Unknown case", func(t *testing.T) {
		_, c, _ := setupEcho(http.MethodGet, "/api/cases/detail?numero=J-00", "")
		assert.Equal(t, http.StatusNotFound, httpCode(t, GetCaseDetailHandler(c)))
	})
}

func TestUpdateCaseSheetHandler(t *testing.T) {
	database := setupTestDB(t)
	seedExpediente(t, database)

	t.Run("Success", func(t *testing.T) {
		_, c, rec := setupEcho(http.MethodPut, caseQuery("/api/cases/sheet"),
			`{"court_name":"Juzgado CAYT 5","precautionary_measure_status":"GRANTED","observations":"Revisar"}`)
		require.NoError(t, UpdateCaseSheetHandler(c))
		assert.Equal(t, http.StatusOK, rec.Code)

		var stored models.Expediente
		require.NoError(t, database.First(&stored, "case_number = ?", caseNumber).Error)
		assert.Equal(t, "Juzgado CAYT 5", *stored.CourtName)
		assert.Equal(t, models.PrecautionaryGranted, *stored.PrecautionaryMeasureStatus)
		assert.Equal(t, "PEREZ JUAN CONTRA GCBA SOBRE AMPARO", stored.Title)
	})

	t.Run("Invalid status", func(t *testing.T) {
		_, c, _ := setupEcho(http.MethodPut, caseQuery("/api/cases/sheet"), `{"precautionary_measure_status":"MAYBE"}`)
		assert.Equal(t, http.StatusBadRequest, httpCode(t, UpdateCaseSheetHandler(c)))
	})
}

func TestCreateChildRecordsHandlers(t *testing.T) {
	database := setupTestDB(t)
	seedExpediente(t, database)

	t.Run("Movement", func(t *testing.T) {
		_, c, rec := setupEcho(http.MethodPost, caseQuery("/api/cases/movements"), `{"date":"12/03/2024","description":"Traslado"}`)
		require.NoError(t, CreateMovementHandler(c))
		assert.Equal(t, http.StatusCreated, rec.Code)

		var m models.Movement
		require.NoError(t, database.First(&m, "case_number = ?", caseNumber).Error)
		assert.True(t, m.Date.Equal(time.Date(2024, 3, 12, 0, 0, 0, 0, time.UTC)))
	})

	t.Run("Movement bad date", func(t *testing.T) {
		_, c, _ := setupEcho(http.MethodPost, caseQuery("/api/cases/movements"), `{"date":"ayer","description":"Traslado"}`)
		assert.Equal(t, http.StatusBadRequest, httpCode(t, CreateMovementHandler(c)))
	})

	t.Run("Task", func(t *testing.T) {
		_, c, rec := setupEcho(http.MethodPost, caseQuery("/api/cases/tasks"), `{"description":"Presentar escrito","due_date":"2024-05-20","priority":"HIGH"}`)
		require.NoError(t, CreateTaskHandler(c))
		assert.Equal(t, http.StatusCreated, rec.Code)

		var task models.Task
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &task))
		assert.Equal(t, models.PriorityHigh, task.Priority)
		require.NotNil(t, task.DueDate)

		_, c, rec = setupEcho(http.MethodPut, "/api/tasks/"+task.ID+"/completed", `{"completed":true}`)
		c.SetParamNames("id")
		c.SetParamValues(task.ID)
		require.NoError(t, UpdateTaskCompletedHandler(c))
		assert.Equal(t, http.StatusOK, rec.Code)

		var stored models.Task
		require.NoError(t, database.First(&stored, "id = ?", task.ID).Error)
		assert.True(t, stored.Completed)
	})

	t.Run("Unknown task", func(t *testing.T) {
		_, c, _ := setupEcho(http.MethodPut, "/api/tasks/nope/completed", `{"completed":true}`)
		c.SetParamNames("id")
		c.SetParamValues("nope")
		assert.Equal(t, http.StatusNotFound, httpCode(t, UpdateTaskCompletedHandler(c)))
	})

	t.Run("Note", func(t *testing.T) {
		_, c, rec := setupEcho(http.MethodPost, caseQuery("/api/cases/notes"), `{"content":"Llamar al cliente"}`)
		require.NoError(t, CreateNoteHandler(c))
		assert.Equal(t, http.StatusCreated, rec.Code)
	})

	t.Run("Note for unknown case", func(t *testing.T) {
		_, c, _ := setupEcho(http.MethodPost, "/api/cases/notes?numero=J-00", `{"content":"x"}`)
		assert.Equal(t, http.StatusNotFound, httpCode(t, CreateNoteHandler(c)))
	})
}

func TestDashboardHandler(t *testing.T) {
	database := setupTestDB(t)
	seedExpediente(t, database)

	_, c, rec := setupEcho(http.MethodGet, "/api/dashboard", "")
	require.NoError(t, DashboardHandler(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"cases":1`)
}
