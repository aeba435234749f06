package handlers

import (
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"expedientes_app_go/db"
	"expedientes_app_go/models"
	"expedientes_app_go/services"
	"expedientes_app_go/services/portal"

	"github.com/labstack/echo/v4"
)

// caseView adds the display caption to a stored case
type caseView struct {
	models.Expediente
	Caption string `json:"caption"`
}

func newCaseView(c models.Expediente) caseView {
	return caseView{Expediente: c, Caption: portal.FormatCaption(c.Title)}
}

// caseError maps service errors to HTTP errors
func caseError(err error, action string) error {
	switch {
	case errors.Is(err, services.ErrCaseNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "Case not found")
	case errors.Is(err, services.ErrTaskNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "Task not found")
	case errors.Is(err, services.ErrInvalidInput):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	default:
		log.Printf("Error: failed to %s: %v", action, err)
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to "+action)
	}
}

// caseNumberParam reads the case number, which carries a slash and so
// travels as a query parameter
func caseNumberParam(c echo.Context) (string, error) {
	number := strings.TrimSpace(c.QueryParam("numero"))
	if number == "" {
		return "", echo.NewHTTPError(http.StatusBadRequest, "Case number (numero) is required")
	}
	return number, nil
}

// ListCasesHandler returns stored cases, optionally filtered
// GET /api/cases?court=&q=
func ListCasesHandler(c echo.Context) error {
	cases, err := services.ListCases(db.DB, services.CaseFilter{
		Court:   c.QueryParam("court"),
		Keyword: strings.TrimSpace(c.QueryParam("q")),
	})
	if err != nil {
		return caseError(err, "fetch cases")
	}

	views := make([]caseView, 0, len(cases))
	for _, kase := range cases {
		views = append(views, newCaseView(kase))
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"cases": views,
		"total": len(views),
	})
}

// GetCaseDetailHandler returns a case with movements, tasks and notes
// GET /api/cases/detail?numero=
func GetCaseDetailHandler(c echo.Context) error {
	number, err := caseNumberParam(c)
	if err != nil {
		return err
	}
	kase, err := services.GetCaseDetail(db.DB, number)
	if err != nil {
		return caseError(err, "fetch case")
	}
	return c.JSON(http.StatusOK, newCaseView(*kase))
}

// UpdateCaseSheetHandler edits the manually maintained fields
// PUT /api/cases/sheet?numero=
func UpdateCaseSheetHandler(c echo.Context) error {
	number, err := caseNumberParam(c)
	if err != nil {
		return err
	}
	var sheet services.CaseSheet
	if err := c.Bind(&sheet); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}

	kase, err := services.UpdateCaseSheet(db.DB, number, sheet)
	if err != nil {
		return caseError(err, "update case")
	}
	return c.JSON(http.StatusOK, newCaseView(*kase))
}

// CreateMovementHandler appends a manual movement
// POST /api/cases/movements?numero=
func CreateMovementHandler(c echo.Context) error {
	number, err := caseNumberParam(c)
	if err != nil {
		return err
	}
	var req struct {
		Date        string `json:"date" form:"date"`
		Description string `json:"description" form:"description"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	date, err := services.ParseDate(req.Date)
	if err != nil {
		return caseError(err, "create movement")
	}

	movement, err := services.AddMovement(db.DB, number, date, req.Description)
	if err != nil {
		return caseError(err, "create movement")
	}
	return c.JSON(http.StatusCreated, movement)
}

// CreateTaskHandler appends a task
// POST /api/cases/tasks?numero=
func CreateTaskHandler(c echo.Context) error {
	number, err := caseNumberParam(c)
	if err != nil {
		return err
	}
	var req struct {
		Description string `json:"description" form:"description"`
		DueDate     string `json:"due_date" form:"due_date"`
		Priority    string `json:"priority" form:"priority"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}

	var dueDate *time.Time
	if strings.TrimSpace(req.DueDate) != "" {
		d, err := services.ParseDate(req.DueDate)
		if err != nil {
			return caseError(err, "create task")
		}
		dueDate = &d
	}

	task, err := services.AddTask(db.DB, number, req.Description, dueDate, strings.ToLower(req.Priority))
	if err != nil {
		return caseError(err, "create task")
	}
	return c.JSON(http.StatusCreated, task)
}

// UpdateTaskCompletedHandler toggles a task
// PUT /api/tasks/:id/completed
func UpdateTaskCompletedHandler(c echo.Context) error {
	var req struct {
		Completed bool `json:"completed" form:"completed"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}

	task, err := services.SetTaskCompleted(db.DB, c.Param("id"), req.Completed)
	if err != nil {
		return caseError(err, "update task")
	}
	return c.JSON(http.StatusOK, task)
}

// CreateNoteHandler appends a note
// POST /api/cases/notes?numero=
func CreateNoteHandler(c echo.Context) error {
	number, err := caseNumberParam(c)
	if err != nil {
		return err
	}
	var req struct {
		Content string `json:"content" form:"content"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}

	note, err := services.AddNote(db.DB, number, req.Content)
	if err != nil {
		return caseError(err, "create note")
	}
	return c.JSON(http.StatusCreated, note)
}

// DashboardHandler returns caseload counters
// GET /api/dashboard
func DashboardHandler(c echo.Context) error {
	stats, err := services.GetDashboardStats(db.DB, time.Now())
	if err != nil {
		return caseError(err, "load dashboard")
	}
	return c.JSON(http.StatusOK, stats)
}
