package adminapi

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/spf13/cast"

	"github.com/equipview/equipview/internal/app"
	"github.com/equipview/equipview/internal/sync"
	"github.com/equipview/equipview/internal/webserver"
)

// Init registers all API routes. Call after webserver.Init.
func Init() {
	registerAuthRoutes()
	registerProductRoutes()
	registerClientRoutes()
	registerCartRoutes()
	registerQuoteRoutes()
	registerSearchRoutes()
	registerSyncRoutes()
	registerDashboardRoutes()
}

func ok(c echo.Context, data interface{}) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"code": 0,
		"data": data,
	})
}

// okStale marks a payload served from the local store after a remote
// failure as possibly stale.
func okStale(c echo.Context, data interface{}, stale bool) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"code":  0,
		"data":  data,
		"stale": stale,
	})
}

func fail(c echo.Context, status int, code, msg string, detail interface{}) error {
	return c.JSON(status, map[string]interface{}{
		"code":    code,
		"message": msg,
		"detail":  detail,
	})
}

func paged(c echo.Context, rows interface{}, total int64, page, pageSize int, stale bool) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"code":     0,
		"data":     rows,
		"total":    total,
		"page":     page,
		"per_page": pageSize,
		"stale":    stale,
	})
}

// failForErr maps sync layer errors to the response envelope. Only
// NotFound and validation failures carry user-facing status codes.
func failForErr(c echo.Context, err error) error {
	switch {
	case errors.Is(err, sync.ErrNotFound):
		return fail(c, http.StatusNotFound, "NOT_FOUND", "Record not found", nil)
	case sync.IsValidation(err):
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error(), nil)
	default:
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Operation failed", err.Error())
	}
}

func parsePagination(c echo.Context) (int, int) {
	page := 1
	if p, err := strconv.Atoi(c.QueryParam("page")); err == nil && p > 0 {
		page = p
	}
	pageSize := 20
	perPage := c.QueryParam("perPage")
	if perPage == "" {
		perPage = c.QueryParam("pageSize")
	}
	if ps, err := strconv.Atoi(perPage); err == nil && ps > 0 && ps <= 500 {
		pageSize = ps
	}
	return page, pageSize
}

func parseIDParam(c echo.Context, name string) (int64, error) {
	return strconv.ParseInt(c.Param(name), 10, 64)
}

// GetApp returns the application context placed by the webserver.
func GetApp(c echo.Context) app.AppContext {
	return c.Get(webserver.AppContextKey).(app.AppContext)
}

// GetSync returns the sync manager; handlers never see a store handle.
func GetSync(c echo.Context) *sync.Manager {
	return GetApp(c).Sync()
}

// currentIdentity extracts the caller identity from the JWT.
func currentIdentity(c echo.Context) (sync.Identity, bool) {
	token, ok := c.Get("user").(*jwt.Token)
	if !ok {
		return sync.Identity{}, false
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return sync.Identity{}, false
	}
	return sync.Identity{
		UserID: cast.ToInt64(claims["uid"]),
		Role:   cast.ToString(claims["role"]),
	}, true
}

// requestCtx returns the request context with the caller identity
// attached, the form every sync manager call expects.
func requestCtx(c echo.Context) context.Context {
	ctx := c.Request().Context()
	if id, ok := currentIdentity(c); ok {
		ctx = sync.WithIdentity(ctx, id)
	}
	return ctx
}
