package library

import (
	"context"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"
	"github.com/yomishelf/yomishelf/pkg/config"
	"github.com/yomishelf/yomishelf/pkg/errcodes"
	"github.com/yomishelf/yomishelf/pkg/models"
)

// PartIterator yields the files of one multi-file upload in arrival order.
// Next returns io.EOF after the last part. The returned reader is only valid
// until the following Next call, mirroring multipart.Reader.
type PartIterator interface {
	Next() (relPath string, r io.ReadCloser, err error)
}

// Result is the outcome of one upload request.
type Result struct {
	Processed int `json:"processed"`
	Skipped   int `json:"skipped"`
}

// groupKey identifies one uploaded volume within a request. A typed composite
// key rather than string concatenation, so folder names can never collide
// across the separator.
type groupKey struct {
	Series string
	Volume string
}

// volumeGroup collects the staged files belonging to one uploaded volume. A
// group with no index file is invalid and is discarded at commit time.
type volumeGroup struct {
	key   groupKey
	index *StagedFile
	pages []StagedFile
}

// batch is everything pass 1 (classify and stage) hands to pass 2 (commit).
type batch struct {
	staging *Staging
	// groups in discovery order
	order    []groupKey
	groups   map[groupKey]*volumeGroup
	covers   map[string]StagedFile
	metadata map[string]StagedFile
}

// Ingestor runs the upload ingestion pipeline: classify and stage every part,
// then reconcile the staged volumes against library state and commit them into
// permanent storage.
type Ingestor struct {
	svc        *Service
	files      *FileStore
	scratchDir string
}

func NewIngestor(svc *Service, files *FileStore, cfg *config.Config) *Ingestor {
	return &Ingestor{
		svc:        svc,
		files:      files,
		scratchDir: cfg.UploadScratchDir(),
	}
}

// Ingest consumes the upload's parts and commits them for the given owner.
// The staging directory is torn down on every exit path.
func (ing *Ingestor) Ingest(ctx context.Context, ownerID int, parts PartIterator) (Result, error) {
	log := logger.FromContext(ctx)

	staging, err := OpenStaging(ing.scratchDir)
	if err != nil {
		return Result{}, err
	}
	defer func() {
		if err := staging.Teardown(); err != nil {
			log.Err(err).Error("staging teardown failed")
		}
	}()

	b, err := ing.classifyAndStage(ctx, staging, parts)
	if err != nil {
		return Result{}, err
	}

	cache := buildMetadataCache(ctx, b.metadata)

	return ing.commit(ctx, ownerID, b, cache)
}

// classifyAndStage is pass 1: a single streaming loop that never holds more
// than one part's bytes in memory. Ignored parts are fully drained so the
// underlying connection does not stall.
func (ing *Ingestor) classifyAndStage(ctx context.Context, staging *Staging, parts PartIterator) (*batch, error) {
	log := logger.FromContext(ctx)

	b := &batch{
		staging:  staging,
		groups:   map[groupKey]*volumeGroup{},
		covers:   map[string]StagedFile{},
		metadata: map[string]StagedFile{},
	}

	for {
		relPath, r, err := parts.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, errors.WithStack(err)
		}

		part := Classify(relPath)
		if part.Role == RoleIgnored {
			_, err = io.Copy(io.Discard, r)
			if closeErr := r.Close(); err == nil {
				err = closeErr
			}
			if err != nil {
				return nil, errors.WithStack(err)
			}
			continue
		}

		staged, err := staging.Stage(part, relPath, r)
		if closeErr := r.Close(); err == nil && closeErr != nil {
			err = errors.WithStack(closeErr)
		}
		if err != nil {
			return nil, err
		}

		switch part.Role {
		case RoleSeriesMetadata:
			// Last-wins within the request when two metadata parts map to
			// the same series key.
			b.metadata[part.SeriesKey] = staged
		case RoleSeriesCover:
			b.covers[part.SeriesKey] = staged
		case RoleVolumeIndex, RoleVolumePage:
			key := groupKey{Series: part.SeriesKey, Volume: part.VolumeKey}
			group, ok := b.groups[key]
			if !ok {
				group = &volumeGroup{key: key}
				b.groups[key] = group
				b.order = append(b.order, key)
			}
			if part.Role == RoleVolumeIndex {
				group.index = &staged
			} else {
				group.pages = append(group.pages, staged)
			}
		}
	}

	log.Info("upload staged", logger.Data{
		"volumes":        len(b.groups),
		"covers":         len(b.covers),
		"metadata_files": len(b.metadata),
	})

	return b, nil
}

// commit is pass 2: iterate the grouped staged volumes and, per group, decide
// create-or-reuse series, accept-or-reject volume, assign covers, and move the
// staged files into permanent storage.
func (ing *Ingestor) commit(ctx context.Context, ownerID int, b *batch, cache map[string]*SeriesMetadataDocument) (Result, error) {
	log := logger.FromContext(ctx)
	result := Result{}

	for _, key := range b.order {
		group := b.groups[key]
		log := log.Data(logger.Data{"series": key.Series, "volume": key.Volume})

		// Page images with no index file are orphans; they never reach
		// permanent storage.
		if group.index == nil {
			log.Warn("skipping volume with no index file", logger.Data{"pages": len(group.pages)})
			if err := os.RemoveAll(b.staging.VolumeDir(key.Series, key.Volume)); err != nil {
				return result, errors.WithStack(err)
			}
			result.Skipped++
			continue
		}

		doc := cache[key.Series]
		var seriesTitle *string
		if doc != nil {
			seriesTitle = doc.Series.Title
		}

		series, err := ing.svc.FindOrCreateSeries(ctx, ownerID, key.Series, seriesTitle)
		if err != nil {
			return result, err
		}

		if err := ing.resolveCover(ctx, series, b); err != nil {
			return result, err
		}

		// Uploads are idempotent with respect to already-ingested volumes.
		existing, err := ing.svc.RetrieveVolume(ctx, RetrieveVolumeOptions{
			SeriesID:   &series.ID,
			FolderName: &key.Volume,
		})
		if err != nil && !errors.Is(err, errcodes.NotFound("Volume")) {
			return result, err
		}
		if existing != nil {
			log.Info("volume already exists", logger.Data{"volume_id": existing.ID})
			if err := os.RemoveAll(b.staging.VolumeDir(key.Series, key.Volume)); err != nil {
				return result, errors.WithStack(err)
			}
			result.Skipped++
			continue
		}

		volume, err := ing.commitVolume(ownerID, series, group, b.staging)
		if err != nil {
			return result, err
		}
		volume.Title = doc.VolumeTitle(key.Volume)

		if err := ing.svc.CreateVolume(ctx, volume); err != nil {
			return result, err
		}

		log.Info("volume committed", logger.Data{"volume_id": volume.ID, "page_count": volume.PageCount})
		result.Processed++
	}

	return result, nil
}

// resolveCover moves a staged series cover into the series' permanent
// directory and records its path, skipping the repository write when nothing
// changed. The staged entry is consumed so other volumes sharing the series
// key don't reprocess it.
func (ing *Ingestor) resolveCover(ctx context.Context, series *models.Series, b *batch) error {
	log := logger.FromContext(ctx)

	staged, ok := b.covers[series.FolderName]
	if !ok {
		return nil
	}
	delete(b.covers, series.FolderName)

	mtype, err := mimetype.DetectFile(staged.StagedPath)
	if err != nil || !strings.HasPrefix(mtype.String(), "image/") {
		log.Warn("discarding series cover that is not an image", logger.Data{
			"path": staged.OriginalPath,
		})
		return nil
	}

	return SetSeriesCover(ctx, ing.svc, ing.files, series, staged.StagedPath, staged.OriginalPath)
}

// commitVolume moves one staged volume into permanent storage: the index file
// is renamed first, then the staged page directory is renamed into place as a
// single same-filesystem move, so pages appear all at once. The DB row is
// written by the caller only after both renames succeed.
func (ing *Ingestor) commitVolume(ownerID int, series *models.Series, group *volumeGroup, staging *Staging) (*models.Volume, error) {
	seriesDir := ing.files.SeriesDir(ownerID, series.FolderName)
	if err := os.MkdirAll(seriesDir, 0o755); err != nil {
		return nil, errors.WithStack(err)
	}

	indexName := group.key.Volume + IndexFileExt
	if err := os.Rename(group.index.StagedPath, filepath.Join(seriesDir, indexName)); err != nil {
		return nil, errors.WithStack(err)
	}

	pageCount := len(group.pages)
	volumeDir := filepath.Join(seriesDir, group.key.Volume)
	stagedDir := staging.VolumeDir(group.key.Series, group.key.Volume)
	if pageCount > 0 {
		// A directory already present here is a leftover from a crashed
		// commit: duplicate detection proved there is no row for it.
		if err := os.RemoveAll(volumeDir); err != nil {
			return nil, errors.WithStack(err)
		}
		if err := os.Rename(stagedDir, volumeDir); err != nil {
			return nil, errors.WithStack(err)
		}
	}

	return &models.Volume{
		SeriesID:       series.ID,
		FolderName:     group.key.Volume,
		PageCount:      pageCount,
		FilePath:       seriesRel(ownerID, series.FolderName, group.key.Volume),
		IndexFilePath:  seriesRel(ownerID, series.FolderName, indexName),
		CoverImageName: coverImageName(group.pages),
	}, nil
}

// coverImageName selects the page whose original relative path sorts
// lexicographically smallest, independent of arrival order, and returns its
// base file name.
func coverImageName(pages []StagedFile) string {
	name := ""
	for _, page := range pages {
		if name == "" || page.OriginalPath < name {
			name = page.OriginalPath
		}
	}
	if name == "" {
		return ""
	}
	return path.Base(name)
}
