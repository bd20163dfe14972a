package progress

import (
	"github.com/labstack/echo/v4"
	"github.com/uptrace/bun"
	"github.com/yomishelf/yomishelf/pkg/library"
)

// RegisterRoutes registers progress routes on a pre-configured group. The
// group is expected to already require authentication.
func RegisterRoutes(g *echo.Group, db *bun.DB) {
	h := &handler{
		progressService: NewService(db),
		libraryService:  library.NewService(db),
	}

	g.GET("/volume/:id", h.retrieve)
	g.PUT("/volume/:id", h.save)
}
