package adminapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/montanaflynn/stats"

	"github.com/equipview/equipview/internal/domain"
	"github.com/equipview/equipview/internal/sync"
	"github.com/equipview/equipview/internal/webserver"
)

func registerDashboardRoutes() {
	webserver.ApiGET("/dashboard", dashboardSummary)
}

type quoteStats struct {
	Count  int     `json:"count"`
	Total  float64 `json:"total"`
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	Max    float64 `json:"max"`
}

// dashboardSummary aggregates the caller's working set in one call so
// the client home screen needs a single round trip.
func dashboardSummary(c echo.Context) error {
	id, okID := currentIdentity(c)
	if !okID {
		return fail(c, http.StatusUnauthorized, "UNAUTHORIZED", "Sign in required", nil)
	}
	ctx := requestCtx(c)
	mgr := GetSync(c)

	owned := sync.Filter{}
	if !id.Admin() {
		owned = sync.Where("user_id = ?", id.UserID)
	}

	productCount, err := mgr.Count(ctx, &domain.Product{}, sync.Filter{})
	if err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to count products", err.Error())
	}
	clientCount, err := mgr.Count(ctx, &domain.Client{}, owned)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to count clients", err.Error())
	}
	cartCount, err := mgr.Count(ctx, &domain.CartItem{}, owned)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to count cart items", err.Error())
	}

	var quotes []domain.Quote
	stale, err := mgr.Read(ctx, &quotes, owned)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query quotes", err.Error())
	}

	byStatus := map[string]int{}
	amounts := make([]float64, 0, len(quotes))
	var total float64
	for _, q := range quotes {
		byStatus[q.Status]++
		amounts = append(amounts, q.TotalAmount)
		total += q.TotalAmount
	}

	qs := quoteStats{Count: len(quotes), Total: total}
	if len(amounts) > 0 {
		qs.Mean, _ = stats.Mean(amounts)
		qs.Median, _ = stats.Median(amounts)
		qs.Max, _ = stats.Max(amounts)
	}

	syncStatus, err := mgr.Status(ctx)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to read sync status", err.Error())
	}

	return okStale(c, map[string]interface{}{
		"products":         productCount,
		"clients":          clientCount,
		"cart_items":       cartCount,
		"quotes":           qs,
		"quotes_by_status": byStatus,
		"sync":             syncStatus,
	}, stale)
}
