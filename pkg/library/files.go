package library

import (
	"context"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/yomishelf/yomishelf/pkg/config"
	"github.com/yomishelf/yomishelf/pkg/models"
)

// FileStore performs the permanent-storage file operations shared by the
// upload pipeline and the narrower cover/delete endpoints. All stored paths
// are forward-slash and relative to the data dir; FileStore owns the mapping
// to absolute paths.
type FileStore struct {
	dataDir string
}

func NewFileStore(cfg *config.Config) *FileStore {
	return &FileStore{dataDir: cfg.DataDir}
}

// Abs resolves a storage-root-relative path to an absolute one.
func (f *FileStore) Abs(rel string) string {
	return filepath.Join(f.dataDir, filepath.FromSlash(rel))
}

// SeriesDir returns the permanent directory for one series.
func (f *FileStore) SeriesDir(ownerID int, seriesFolder string) string {
	return filepath.Join(f.dataDir, "uploads", strconv.Itoa(ownerID), seriesFolder)
}

func seriesRel(ownerID int, seriesFolder string, name string) string {
	return path.Join("uploads", strconv.Itoa(ownerID), seriesFolder, name)
}

// PlaceSeriesCover renames a cover image (staged or freshly saved) to
// uploads/<owner>/<series>/<series><ext> and returns the
// storage-root-relative path. originalName only contributes the extension.
func (f *FileStore) PlaceSeriesCover(series *models.Series, srcPath, originalName string) (string, error) {
	seriesDir := f.SeriesDir(series.OwnerID, series.FolderName)
	if err := os.MkdirAll(seriesDir, 0o755); err != nil {
		return "", errors.WithStack(err)
	}

	ext := strings.ToLower(path.Ext(originalName))
	if err := os.Rename(srcPath, filepath.Join(seriesDir, series.FolderName+ext)); err != nil {
		return "", errors.WithStack(err)
	}

	return seriesRel(series.OwnerID, series.FolderName, series.FolderName+ext), nil
}

// SetSeriesCover places a cover image into the series' permanent directory
// and updates the stored cover path only if it differs, so re-applying the
// same cover is a no-op on the repository.
func SetSeriesCover(ctx context.Context, svc *Service, files *FileStore, series *models.Series, srcPath, originalName string) error {
	coverRel, err := files.PlaceSeriesCover(series, srcPath, originalName)
	if err != nil {
		return err
	}

	if series.CoverPath == nil || *series.CoverPath != coverRel {
		series.CoverPath = &coverRel
		return svc.UpdateSeries(ctx, series, UpdateSeriesOptions{Columns: []string{"cover_path"}})
	}
	return nil
}

// RemoveVolumeFiles removes a volume's page directory and index file.
func (f *FileStore) RemoveVolumeFiles(volume *models.Volume) error {
	if err := os.RemoveAll(f.Abs(volume.FilePath)); err != nil {
		return errors.WithStack(err)
	}
	err := os.Remove(f.Abs(volume.IndexFilePath))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return errors.WithStack(err)
	}
	return nil
}

// RemoveSeriesDir removes a series' permanent directory.
func (f *FileStore) RemoveSeriesDir(series *models.Series) error {
	return errors.WithStack(os.RemoveAll(f.SeriesDir(series.OwnerID, series.FolderName)))
}

// DeleteVolume removes a volume's on-disk files and its row. When the volume
// was the series' last and the series has no standalone cover, the now-empty
// series directory is removed as well; the series row stays so a later upload
// reuses it.
func DeleteVolume(ctx context.Context, svc *Service, files *FileStore, series *models.Series, volume *models.Volume) error {
	if err := files.RemoveVolumeFiles(volume); err != nil {
		return err
	}
	if err := svc.DeleteVolume(ctx, volume.ID); err != nil {
		return err
	}

	remaining, err := svc.CountVolumesInSeries(ctx, series.ID)
	if err != nil {
		return err
	}
	if remaining == 0 && series.CoverPath == nil {
		return files.RemoveSeriesDir(series)
	}
	return nil
}

// DeleteSeries removes a series' directory along with its rows.
func DeleteSeries(ctx context.Context, svc *Service, files *FileStore, series *models.Series) error {
	if err := files.RemoveSeriesDir(series); err != nil {
		return err
	}
	return svc.DeleteSeries(ctx, series.ID)
}
