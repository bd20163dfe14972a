package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/echo/v4/health"
	"github.com/robinjoseph08/golib/echo/v4/middleware/logger"
	"github.com/robinjoseph08/golib/echo/v4/middleware/recovery"
	"github.com/uptrace/bun"
	"github.com/yomishelf/yomishelf/pkg/auth"
	"github.com/yomishelf/yomishelf/pkg/binder"
	"github.com/yomishelf/yomishelf/pkg/config"
	"github.com/yomishelf/yomishelf/pkg/errcodes"
	"github.com/yomishelf/yomishelf/pkg/library"
	"github.com/yomishelf/yomishelf/pkg/progress"
	"github.com/yomishelf/yomishelf/pkg/settings"
)

func New(cfg *config.Config, db *bun.DB) (*http.Server, error) {
	e := echo.New()

	b, err := binder.New()
	if err != nil {
		return nil, errors.WithStack(err)
	}
	e.Binder = b

	e.Use(logger.Middleware())
	e.Use(recovery.Middleware())
	// Cookie auth requires credentialed CORS, so the origin can't be a
	// wildcard.
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     []string{cfg.FrontendURL},
		AllowCredentials: true,
	}))

	health.RegisterRoutes(e)

	// Register auth routes and get the auth service
	authService := auth.RegisterRoutes(e, db, cfg.JWTSecret)
	authMiddleware := auth.NewMiddleware(authService)

	registerProtectedRoutes(e, db, cfg, authMiddleware)

	echo.NotFoundHandler = notFoundHandler
	e.HTTPErrorHandler = errcodes.NewHandler().Handle

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.ServerHost, cfg.ServerPort),
		Handler:           e,
		ReadHeaderTimeout: 3 * time.Second,
	}

	return srv, nil
}

// registerProtectedRoutes registers the API routes that require an
// authenticated user.
func registerProtectedRoutes(e *echo.Echo, db *bun.DB, cfg *config.Config, authMiddleware *auth.Middleware) {
	libraryGroup := e.Group("/library")
	libraryGroup.Use(authMiddleware.Authenticate)
	library.RegisterRoutes(libraryGroup, db, cfg)

	progressGroup := e.Group("/progress")
	progressGroup.Use(authMiddleware.Authenticate)
	progress.RegisterRoutes(progressGroup, db)

	settingsGroup := e.Group("/settings")
	settingsGroup.Use(authMiddleware.Authenticate)
	settings.RegisterRoutes(settingsGroup, db)
}

func notFoundHandler(c echo.Context) error {
	c.SetPath("/:path")
	return errcodes.NotFound("Page")
}
