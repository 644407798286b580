package adminapi

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/equipview/equipview/internal/domain"
	"github.com/equipview/equipview/internal/sync"
	"github.com/equipview/equipview/internal/webserver"
)

func registerSearchRoutes() {
	webserver.ApiGET("/search/history", listSearchHistory)
	webserver.ApiDELETE("/search/history", clearSearchHistory)
}

// listSearchHistory returns the caller's most recent distinct search
// terms, capped by the search.history_limit setting.
func listSearchHistory(c echo.Context) error {
	id, okID := currentIdentity(c)
	if !okID {
		return fail(c, http.StatusUnauthorized, "UNAUTHORIZED", "Sign in required", nil)
	}
	limit := GetApp(c).GetSettingsInt64Value("search", "history_limit")
	if limit <= 0 {
		limit = 10
	}

	var rows []domain.SearchHistory
	stale, err := GetSync(c).Read(requestCtx(c), &rows,
		sync.Where("user_id = ?", id.UserID).WithOrder("created_at DESC"))
	if err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query history", err.Error())
	}

	seen := map[string]bool{}
	terms := make([]string, 0, limit)
	for _, row := range rows {
		if seen[row.SearchTerm] {
			continue
		}
		seen[row.SearchTerm] = true
		terms = append(terms, row.SearchTerm)
		if int64(len(terms)) >= limit {
			break
		}
	}
	return okStale(c, terms, stale)
}

func clearSearchHistory(c echo.Context) error {
	id, okID := currentIdentity(c)
	if !okID {
		return fail(c, http.StatusUnauthorized, "UNAUTHORIZED", "Sign in required", nil)
	}
	if err := GetSync(c).Clear(requestCtx(c), (domain.SearchHistory{}).TableName(), id.UserID, 0); err != nil {
		return failForErr(c, err)
	}
	return ok(c, map[string]interface{}{"cleared": true})
}
