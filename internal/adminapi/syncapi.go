package adminapi

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/equipview/equipview/internal/domain"
	"github.com/equipview/equipview/internal/sync"
	"github.com/equipview/equipview/internal/webserver"
)

func registerSyncRoutes() {
	webserver.ApiGET("/sync/status", syncStatus)
	webserver.ApiPOST("/sync/reconcile", runReconcile)
	webserver.ApiPOST("/sync/pull", runPullCatalog)
	webserver.ApiGET("/sync/queue", listSyncQueue)
	webserver.ApiGET("/sync/audit", listSyncAudit)
}

func requireAdmin(c echo.Context) error {
	id, okID := currentIdentity(c)
	if !okID {
		return fail(c, http.StatusUnauthorized, "UNAUTHORIZED", "Sign in required", nil)
	}
	if !id.Admin() {
		return fail(c, http.StatusForbidden, "FORBIDDEN", "Admin role required", nil)
	}
	return nil
}

func syncStatus(c echo.Context) error {
	status, err := GetSync(c).Status(requestCtx(c))
	if err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to read sync status", err.Error())
	}
	return ok(c, status)
}

// runReconcile triggers an immediate reconcile pass. A pass already in
// flight is reported as a conflict, not an error.
func runReconcile(c echo.Context) error {
	report, err := GetSync(c).Reconcile(requestCtx(c))
	switch {
	case errors.Is(err, sync.ErrReconcileBusy):
		return fail(c, http.StatusConflict, "RECONCILE_BUSY", "A reconcile pass is already running", nil)
	case errors.Is(err, sync.ErrOffline):
		return fail(c, http.StatusServiceUnavailable, "OFFLINE", "Remote store is unreachable", nil)
	case err != nil:
		return fail(c, http.StatusInternalServerError, "SYNC_ERROR", "Reconcile failed", err.Error())
	}
	return ok(c, report)
}

func runPullCatalog(c echo.Context) error {
	if err := requireAdmin(c); err != nil {
		return err
	}
	if err := GetSync(c).PullCatalog(requestCtx(c)); err != nil {
		if errors.Is(err, sync.ErrOffline) {
			return fail(c, http.StatusServiceUnavailable, "OFFLINE", "Remote store is unreachable", nil)
		}
		return fail(c, http.StatusInternalServerError, "SYNC_ERROR", "Catalog pull failed", err.Error())
	}
	return ok(c, map[string]interface{}{"pulled": true})
}

// listSyncQueue exposes the local replication queue for diagnostics.
func listSyncQueue(c echo.Context) error {
	if err := requireAdmin(c); err != nil {
		return err
	}
	page, pageSize := parsePagination(c)
	local := GetSync(c).Local()

	query := local.Model(&domain.SyncQueue{})
	if c.QueryParam("pending") == "true" {
		query = query.Where("synced = ?", false)
	}
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to count queue", err.Error())
	}
	var rows []domain.SyncQueue
	err := query.Order("created_at DESC").
		Offset((page - 1) * pageSize).Limit(pageSize).Find(&rows).Error
	if err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query queue", err.Error())
	}
	return paged(c, rows, total, page, pageSize, false)
}

// listSyncAudit exposes conflict resolution history.
func listSyncAudit(c echo.Context) error {
	if err := requireAdmin(c); err != nil {
		return err
	}
	page, pageSize := parsePagination(c)
	local := GetSync(c).Local()

	query := local.Model(&domain.SyncAudit{})
	if table := c.QueryParam("table"); table != "" {
		query = query.Where("table_name = ?", table)
	}
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to count audit log", err.Error())
	}
	var rows []domain.SyncAudit
	err := query.Order("created_at DESC").
		Offset((page - 1) * pageSize).Limit(pageSize).Find(&rows).Error
	if err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query audit log", err.Error())
	}
	return paged(c, rows, total, page, pageSize, false)
}
