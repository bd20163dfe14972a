package main

import (
	"context"
	"net/http"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"
	"github.com/robinjoseph08/golib/signals"
	"github.com/yomishelf/yomishelf/pkg/config"
	"github.com/yomishelf/yomishelf/pkg/database"
	"github.com/yomishelf/yomishelf/pkg/migrations"
	"github.com/yomishelf/yomishelf/pkg/server"
	"github.com/yomishelf/yomishelf/pkg/version"
)

func main() {
	ctx := context.Background()
	log := logger.New()

	log.Info("starting yomishelf", logger.Data{"version": version.Version})

	cfg, err := config.New()
	if err != nil {
		log.Err(err).Fatal("config error")
	}

	if err := initDataDir(cfg); err != nil {
		log.Err(err).Fatal("data directory error")
	}
	log.Info("data directory initialized", logger.Data{"path": cfg.DataDir})

	db, err := database.New(cfg)
	if err != nil {
		log.Err(err).Fatal("database error")
	}

	group, err := migrations.BringUpToDate(ctx, db)
	if err != nil {
		log.Err(err).Fatal("migrations error")
	}
	if group.ID == 0 {
		log.Info("no new migrations to run")
	} else {
		log.Info("migrated to new group", logger.Data{"group_id": group.ID, "migration_names": group.Migrations.String()})
	}

	srv, err := server.New(cfg, db)
	if err != nil {
		log.Err(err).Fatal("server error")
	}

	graceful := signals.Setup()

	go func() {
		log.Info("server started", logger.Data{"addr": srv.Addr})
		err := srv.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Err(err).Fatal("server stopped")
		}
		log.Info("server stopped")
	}()

	<-graceful
	log.Info("starting graceful shutdown")

	err = srv.Shutdown(ctx)
	if err != nil {
		log.Err(err).Error("server shutdown error")
	}
	log.Info("server shutdown")

	err = db.Close()
	if err != nil {
		log.Err(err).Error("database close error")
	}
	log.Info("database closed")
}

// initDataDir creates the storage directories, verifies write permissions, and
// clears staging leftovers from uploads interrupted by a previous shutdown.
func initDataDir(cfg *config.Config) error {
	if err := os.RemoveAll(cfg.UploadScratchDir()); err != nil {
		return errors.Wrapf(err, "failed to clear upload scratch directory: %s", cfg.UploadScratchDir())
	}

	dirs := []string{
		cfg.UploadsDir(),
		cfg.UploadScratchDir(),
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return errors.Wrapf(err, "failed to create data directory: %s", dir)
		}
	}

	// Verify write permissions by creating and removing a temp file
	testFile := filepath.Join(cfg.DataDir, ".write_test")
	f, err := os.Create(testFile)
	if err != nil {
		return errors.Wrapf(err, "data directory is not writable: %s", cfg.DataDir)
	}
	f.Close()

	if err := os.Remove(testFile); err != nil {
		return errors.Wrapf(err, "failed to clean up write test file: %s", testFile)
	}

	return nil
}
