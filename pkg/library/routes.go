package library

import (
	"github.com/labstack/echo/v4"
	"github.com/uptrace/bun"
	"github.com/yomishelf/yomishelf/pkg/config"
)

// RegisterRoutes registers library routes on a pre-configured group. The group
// is expected to already require authentication.
func RegisterRoutes(g *echo.Group, db *bun.DB, cfg *config.Config) {
	svc := NewService(db)
	files := NewFileStore(cfg)

	h := &handler{
		svc:        svc,
		files:      files,
		ingestor:   NewIngestor(svc, files, cfg),
		scratchDir: cfg.UploadScratchDir(),
	}

	g.GET("", h.list)
	g.POST("/upload", h.upload)
	g.PATCH("/series/:id", h.updateSeries)
	g.DELETE("/series/:id", h.deleteSeries)
	g.GET("/series/:id/cover", h.seriesCover)
	g.POST("/series/:id/cover", h.uploadSeriesCover)
	g.PATCH("/volume/:id", h.updateVolume)
	g.DELETE("/volume/:id", h.deleteVolume)
	g.GET("/volume/:id/pages/:name", h.volumePage)
	g.GET("/volume/:id/index", h.volumeIndex)
}
