package settings

import (
	"github.com/labstack/echo/v4"
	"github.com/uptrace/bun"
)

// RegisterRoutes registers settings routes on a pre-configured group. The
// group is expected to already require authentication.
func RegisterRoutes(g *echo.Group, db *bun.DB) {
	h := &handler{
		settingsService: NewService(db),
	}

	g.GET("/reader", h.getReaderSettings)
	g.PUT("/reader", h.updateReaderSettings)
}
