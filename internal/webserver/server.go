package webserver

import (
	"fmt"
	"net/http"

	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/equipview/equipview/internal/app"
)

const AppContextKey = "equipview_app"

type WebServer struct {
	root   *echo.Echo
	api    *echo.Group
	appctx app.AppContext
}

var server *WebServer

// Init builds the echo instance: public routes on the root, everything
// under /api behind JWT.
func Init(appctx app.AppContext) *WebServer {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())
	e.Use(middleware.CORS())
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			c.Set(AppContextKey, appctx)
			return next(c)
		}
	})

	api := e.Group("/api")
	api.Use(echojwt.WithConfig(echojwt.Config{
		SigningKey: []byte(appctx.Config().Web.Secret),
	}))

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]interface{}{"status": "ok"})
	})

	server = &WebServer{root: e, api: api, appctx: appctx}
	return server
}

// Listen starts the HTTP listener and blocks.
func Listen() error {
	cfg := server.appctx.Config()
	addr := fmt.Sprintf("%s:%d", cfg.Web.Host, cfg.Web.Port)
	zap.S().Infof("starting web server on %s", addr)
	return server.root.Start(addr)
}

// Instance returns the underlying echo instance (used in tests).
func Instance() *echo.Echo {
	return server.root
}

// PubPOST registers an unauthenticated route (login).
func PubPOST(path string, h echo.HandlerFunc) {
	server.root.POST(path, h)
}

func ApiGET(path string, h echo.HandlerFunc) {
	server.api.GET(path, h)
}

func ApiPOST(path string, h echo.HandlerFunc) {
	server.api.POST(path, h)
}

func ApiPUT(path string, h echo.HandlerFunc) {
	server.api.PUT(path, h)
}

func ApiDELETE(path string, h echo.HandlerFunc) {
	server.api.DELETE(path, h)
}
