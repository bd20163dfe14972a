package library

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/uptrace/bun"
	"github.com/yomishelf/yomishelf/pkg/errcodes"
	"github.com/yomishelf/yomishelf/pkg/models"
)

type RetrieveSeriesOptions struct {
	ID *int
	// OwnerID and FolderName look a series up by its composite key. Every
	// lookup that can cross an owner boundary must set OwnerID.
	OwnerID    *int
	FolderName *string
}

type RetrieveVolumeOptions struct {
	ID         *int
	SeriesID   *int
	FolderName *string
}

type UpdateSeriesOptions struct {
	Columns []string
}

type UpdateVolumeOptions struct {
	Columns []string
}

// Service is the persistence adapter for series and volumes. The ingestion
// pipeline consumes it as a narrow repository; it never reaches into bun
// directly.
type Service struct {
	db *bun.DB
}

func NewService(db *bun.DB) *Service {
	return &Service{db}
}

func (svc *Service) CreateSeries(ctx context.Context, series *models.Series) error {
	now := time.Now()
	if series.CreatedAt.IsZero() {
		series.CreatedAt = now
	}
	series.UpdatedAt = series.CreatedAt

	_, err := svc.db.
		NewInsert().
		Model(series).
		Returning("*").
		Exec(ctx)
	return errors.WithStack(err)
}

func (svc *Service) RetrieveSeries(ctx context.Context, opts RetrieveSeriesOptions) (*models.Series, error) {
	series := &models.Series{}

	q := svc.db.
		NewSelect().
		Model(series)

	if opts.ID != nil {
		q = q.Where("s.id = ?", *opts.ID)
	}
	if opts.OwnerID != nil {
		q = q.Where("s.owner_id = ?", *opts.OwnerID)
	}
	if opts.FolderName != nil {
		q = q.Where("s.folder_name = ?", *opts.FolderName)
	}

	err := q.Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errcodes.NotFound("Series")
		}
		return nil, errors.WithStack(err)
	}

	return series, nil
}

// FindOrCreateSeries resolves a series by (owner, folder), creating it with
// the given title when absent. Two concurrent uploads creating the same new
// series race on the unique index; the loser retries the lookup.
func (svc *Service) FindOrCreateSeries(ctx context.Context, ownerID int, folderName string, title *string) (*models.Series, error) {
	series, err := svc.RetrieveSeries(ctx, RetrieveSeriesOptions{
		OwnerID:    &ownerID,
		FolderName: &folderName,
	})
	if err == nil {
		return series, nil
	}
	if !errors.Is(err, errcodes.NotFound("Series")) {
		return nil, err
	}

	series = &models.Series{
		OwnerID:    ownerID,
		FolderName: folderName,
		Title:      title,
	}
	err = svc.CreateSeries(ctx, series)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint") {
			return svc.RetrieveSeries(ctx, RetrieveSeriesOptions{
				OwnerID:    &ownerID,
				FolderName: &folderName,
			})
		}
		return nil, err
	}
	return series, nil
}

// ListSeries returns all series owned by a user, volumes included, ordered by
// display title.
func (svc *Service) ListSeries(ctx context.Context, ownerID int) ([]*models.Series, error) {
	var series []*models.Series

	err := svc.db.
		NewSelect().
		Model(&series).
		Relation("Volumes", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Order("v.title ASC", "v.folder_name ASC")
		}).
		Where("s.owner_id = ?", ownerID).
		Order("s.title ASC", "s.folder_name ASC").
		Scan(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	return series, nil
}

func (svc *Service) UpdateSeries(ctx context.Context, series *models.Series, opts UpdateSeriesOptions) error {
	if len(opts.Columns) == 0 {
		return nil
	}

	series.UpdatedAt = time.Now()
	columns := append(opts.Columns, "updated_at")

	_, err := svc.db.
		NewUpdate().
		Model(series).
		Column(columns...).
		WherePK().
		Exec(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return errcodes.NotFound("Series")
		}
		return errors.WithStack(err)
	}
	return nil
}

// DeleteSeries removes a series row plus all of its volume rows.
func (svc *Service) DeleteSeries(ctx context.Context, seriesID int) error {
	return svc.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		_, err := tx.NewDelete().
			Model((*models.Volume)(nil)).
			Where("series_id = ?", seriesID).
			Exec(ctx)
		if err != nil {
			return errors.WithStack(err)
		}

		_, err = tx.NewDelete().
			Model((*models.Series)(nil)).
			Where("id = ?", seriesID).
			Exec(ctx)
		return errors.WithStack(err)
	})
}

func (svc *Service) CreateVolume(ctx context.Context, volume *models.Volume) error {
	now := time.Now()
	if volume.CreatedAt.IsZero() {
		volume.CreatedAt = now
	}
	volume.UpdatedAt = volume.CreatedAt

	_, err := svc.db.
		NewInsert().
		Model(volume).
		Returning("*").
		Exec(ctx)
	return errors.WithStack(err)
}

func (svc *Service) RetrieveVolume(ctx context.Context, opts RetrieveVolumeOptions) (*models.Volume, error) {
	volume := &models.Volume{}

	q := svc.db.
		NewSelect().
		Model(volume).
		Relation("Series")

	if opts.ID != nil {
		q = q.Where("v.id = ?", *opts.ID)
	}
	if opts.SeriesID != nil {
		q = q.Where("v.series_id = ?", *opts.SeriesID)
	}
	if opts.FolderName != nil {
		q = q.Where("v.folder_name = ?", *opts.FolderName)
	}

	err := q.Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errcodes.NotFound("Volume")
		}
		return nil, errors.WithStack(err)
	}

	return volume, nil
}

func (svc *Service) UpdateVolume(ctx context.Context, volume *models.Volume, opts UpdateVolumeOptions) error {
	if len(opts.Columns) == 0 {
		return nil
	}

	volume.UpdatedAt = time.Now()
	columns := append(opts.Columns, "updated_at")

	_, err := svc.db.
		NewUpdate().
		Model(volume).
		Column(columns...).
		WherePK().
		Exec(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return errcodes.NotFound("Volume")
		}
		return errors.WithStack(err)
	}
	return nil
}

func (svc *Service) DeleteVolume(ctx context.Context, volumeID int) error {
	_, err := svc.db.NewDelete().
		Model((*models.Volume)(nil)).
		Where("id = ?", volumeID).
		Exec(ctx)
	return errors.WithStack(err)
}

// CountVolumesInSeries returns the number of volumes left in a series.
func (svc *Service) CountVolumesInSeries(ctx context.Context, seriesID int) (int, error) {
	count, err := svc.db.NewSelect().
		Model((*models.Volume)(nil)).
		Where("series_id = ?", seriesID).
		Count(ctx)
	return count, errors.WithStack(err)
}
