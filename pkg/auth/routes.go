package auth

import (
	"github.com/labstack/echo/v4"
	"github.com/uptrace/bun"
)

// RegisterRoutes registers all auth routes and returns the auth service so the
// rest of the server can build middleware from it.
func RegisterRoutes(e *echo.Echo, db *bun.DB, jwtSecret string) *Service {
	authService := NewService(db, jwtSecret)

	h := &handler{
		authService: authService,
	}

	auth := e.Group("/auth")
	auth.POST("/setup", h.setup)
	auth.POST("/login", h.login)
	auth.POST("/logout", h.logout)
	auth.GET("/status", h.status)
	auth.GET("/me", h.me)

	return authService
}
