package adminapi

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/equipview/equipview/config"
	"github.com/equipview/equipview/internal/app"
	"github.com/equipview/equipview/internal/domain"
	"github.com/equipview/equipview/internal/sync"
	"github.com/equipview/equipview/internal/webserver"
)

// newHandlerApp builds an application over two throwaway sqlite stores
// with a permanently-down link, so every handler runs offline-first.
func newHandlerApp(t *testing.T) *app.Application {
	t.Helper()
	dir := t.TempDir()
	open := func(name string, withQueue bool) *gorm.DB {
		db, err := gorm.Open(sqlite.Open(filepath.Join(dir, name)), &gorm.Config{
			Logger: logger.Default.LogMode(logger.Silent),
		})
		require.NoError(t, err)
		require.NoError(t, db.AutoMigrate(domain.Tables...))
		if withQueue {
			require.NoError(t, db.AutoMigrate(domain.LocalTables...))
		}
		return db
	}
	local := open("local.db", true)
	remote := open("remote.db", false)

	down := func(ctx context.Context) error { return errors.New("link down") }
	mon := sync.NewMonitor(down, time.Minute, time.Second, nil)
	mgr := sync.NewManager(local, remote, mon, time.Second)

	cfg := &config.AppConfig{}
	cfg.Web.Secret = "handler-test-secret"
	a := app.NewApplication(cfg)
	a.OverrideSync(mgr)
	return a
}

// newHandlerContext builds an echo context the way the webserver
// middleware and JWT layer would.
func newHandlerContext(t *testing.T, a *app.Application, method, target, body string, userID int64, role string) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set(webserver.AppContextKey, a)
	if userID != 0 {
		claims := jwt.MapClaims{"uid": userID, "role": role}
		c.Set("user", jwt.NewWithClaims(jwt.SigningMethodHS256, claims))
	}
	return c, rec
}

func TestCreateQuoteClearsUnassignedCartLines(t *testing.T) {
	a := newHandlerApp(t)
	db := a.LocalDB()
	now := time.Now()

	require.NoError(t, db.Create(&domain.Product{
		ID: 1, Sku: "TSR-23SD-N6", Description: "Reach-in refrigerator",
		Price: 100, CreatedAt: now, UpdatedAt: now,
	}).Error)
	require.NoError(t, db.Create(&domain.Product{
		ID: 2, Sku: "PST-28-N", Description: "Sandwich prep table",
		Price: 50, CreatedAt: now, UpdatedAt: now,
	}).Error)
	require.NoError(t, db.Create(&domain.Client{
		ID: 50, UserID: 7, Company: "Acme Kitchens",
		CreatedAt: now, UpdatedAt: now,
	}).Error)

	// one line assigned to the client, one not yet assigned
	require.NoError(t, db.Create(&domain.CartItem{
		ID: 10, UserID: 7, ClientID: 50, ProductID: 1, Quantity: 1,
		CreatedAt: now, UpdatedAt: now,
	}).Error)
	require.NoError(t, db.Create(&domain.CartItem{
		ID: 11, UserID: 7, ClientID: 0, ProductID: 2, Quantity: 2,
		CreatedAt: now, UpdatedAt: now,
	}).Error)

	c, rec := newHandlerContext(t, a, http.MethodPost, "/api/quotes",
		`{"client_id":"50"}`, 7, domain.UserRoleSales)
	require.NoError(t, createQuote(c))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	// both lines went into the quote
	var lineCount int64
	require.NoError(t, db.Model(&domain.QuoteItem{}).Count(&lineCount).Error)
	assert.EqualValues(t, 2, lineCount)

	var quote domain.Quote
	require.NoError(t, db.First(&quote, "user_id = ?", int64(7)).Error)
	assert.Equal(t, float64(200), quote.TotalAmount)

	// everything quoted leaves the cart, the unassigned line included
	var cartCount int64
	require.NoError(t, db.Model(&domain.CartItem{}).Where("user_id = ?", 7).Count(&cartCount).Error)
	assert.Zero(t, cartCount, "quoted cart lines must not survive")
}

func TestCreateQuoteRejectsEmptyCart(t *testing.T) {
	a := newHandlerApp(t)
	now := time.Now()
	require.NoError(t, a.LocalDB().Create(&domain.Client{
		ID: 51, UserID: 7, Company: "Empty Hands",
		CreatedAt: now, UpdatedAt: now,
	}).Error)

	c, rec := newHandlerContext(t, a, http.MethodPost, "/api/quotes",
		`{"client_id":"51"}`, 7, domain.UserRoleSales)
	require.NoError(t, createQuote(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "EMPTY_CART")
}
