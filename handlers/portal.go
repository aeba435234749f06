package handlers

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"expedientes_app_go/models"
	"expedientes_app_go/services/jobs"
	"expedientes_app_go/services/portal"

	"github.com/labstack/echo/v4"
)

// busyMessage is shown when the browser session is taken by another operation
const busyMessage = "Ya hay una operación del portal en curso. Espere a que termine."

// SyncHistory reads past sync runs
type SyncHistory interface {
	LastSuccessfulSync(ctx context.Context) (*models.SyncRun, error)
	LastSyncRun(ctx context.Context) (*models.SyncRun, error)
}

// PortalHandler exposes the portal session, sync and search over HTTP.
// Every operation that drives the browser goes through the gate.
type PortalHandler struct {
	sync     *jobs.PortalSync
	gate     *jobs.Gate
	searcher *portal.Searcher
	session  *portal.SessionManager
	history  SyncHistory
	timeout  time.Duration
}

// NewPortalHandler creates the handler
func NewPortalHandler(sync *jobs.PortalSync, gate *jobs.Gate, searcher *portal.Searcher,
	session *portal.SessionManager, history SyncHistory) *PortalHandler {
	return &PortalHandler{
		sync:     sync,
		gate:     gate,
		searcher: searcher,
		session:  session,
		history:  history,
		timeout:  5 * time.Minute,
	}
}

// syncStatus maps a failure kind to the response status
func syncStatus(kind portal.FailureKind) int {
	if kind == portal.FailureConfiguration {
		return http.StatusInternalServerError
	}
	return http.StatusBadGateway
}

// detached keeps an operation running when the client goes away
func (h *PortalHandler) detached(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(c.Request().Context()), h.timeout)
}

// SyncHandler runs a sync and reports its outcome
// POST /api/portal/sync
func (h *PortalHandler) SyncHandler(c echo.Context) error {
	ctx, cancel := h.detached(c)
	defer cancel()

	var run *models.SyncRun
	var syncErr error
	if err := h.gate.TryRun(func() { run, syncErr = h.sync.Run(ctx) }); err != nil {
		return c.JSON(http.StatusConflict, map[string]interface{}{
			"kind":    "busy",
			"message": busyMessage,
		})
	}

	if syncErr != nil {
		kind := portal.Classify(syncErr)
		return c.JSON(syncStatus(kind), map[string]interface{}{
			"kind":    kind,
			"message": portal.OperatorMessage(syncErr),
			"run":     run,
		})
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"message": "Sincronización completada.",
		"run":     run,
	})
}

// StatusHandler reports the session state and the latest sync runs
// GET /api/portal/status
func (h *PortalHandler) StatusHandler(c echo.Context) error {
	ctx := c.Request().Context()

	lastSuccess, err := h.history.LastSuccessfulSync(ctx)
	if err != nil {
		log.Printf("[SYNC] Failed to load last successful sync: %v", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to load sync status")
	}
	lastRun, err := h.history.LastSyncRun(ctx)
	if err != nil {
		log.Printf("[SYNC] Failed to load last sync run: %v", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to load sync status")
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"authenticated": h.session.Authenticated(),
		"browser_alive": h.session.Alive(),
		"busy":          h.gate.Busy(),
		"last_success":  lastSuccess,
		"last_run":      lastRun,
	})
}

// CloseSessionHandler closes the browser and forgets the login
// POST /api/portal/session/close
func (h *PortalHandler) CloseSessionHandler(c echo.Context) error {
	var closeErr error
	if err := h.gate.TryRun(func() { closeErr = h.session.Close() }); err != nil {
		return c.JSON(http.StatusConflict, map[string]interface{}{
			"kind":    "busy",
			"message": busyMessage,
		})
	}
	if closeErr != nil {
		log.Printf("[PORTAL] %v", closeErr)
		return echo.NewHTTPError(http.StatusInternalServerError, "No se pudo cerrar el navegador")
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "Sesión y navegador cerrados."})
}

// SearchHandler searches the portal with the current session.
// Portal problems come back as a warning with an empty result set.
// GET /api/portal/search?q=
func (h *PortalHandler) SearchHandler(c echo.Context) error {
	query := strings.TrimSpace(c.QueryParam("q"))
	if query == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "Search query is required")
	}

	ctx, cancel := h.detached(c)
	defer cancel()

	var resp portal.SearchResponse
	err := h.gate.TryRun(func() { resp = h.searcher.Search(ctx, query) })
	if errors.Is(err, jobs.ErrBusy) {
		return c.JSON(http.StatusConflict, map[string]interface{}{
			"kind":    "busy",
			"message": busyMessage,
		})
	}
	return c.JSON(http.StatusOK, resp)
}
