package library

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yomishelf/yomishelf/pkg/errcodes"
)

func TestDeleteVolumeRemovesEmptySeriesDir(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ing, svc, cfg := newTestIngestor(t, db)
	ctx := context.Background()
	user := createTestUser(t, db, "reader")

	_, err := ing.Ingest(ctx, user.ID, &slicePartIterator{files: []fakeFile{
		{"Yotsuba/Volume 01.mokuro", "{}"},
		{"Yotsuba/Volume 01/001.jpg", "page one"},
	}})
	require.NoError(t, err)

	files := NewFileStore(cfg)
	series, err := svc.RetrieveSeries(ctx, RetrieveSeriesOptions{OwnerID: &user.ID, FolderName: strptr("Yotsuba")})
	require.NoError(t, err)
	volume, err := svc.RetrieveVolume(ctx, RetrieveVolumeOptions{SeriesID: &series.ID, FolderName: strptr("Volume 01")})
	require.NoError(t, err)

	require.NoError(t, DeleteVolume(ctx, svc, files, series, volume))

	_, err = svc.RetrieveVolume(ctx, RetrieveVolumeOptions{ID: &volume.ID})
	assert.ErrorIs(t, err, errcodes.NotFound("Volume"))

	// the last volume takes the empty series directory with it, but the series
	// row stays so a later upload reuses it
	assert.NoDirExists(t, files.SeriesDir(user.ID, "Yotsuba"))
	_, err = svc.RetrieveSeries(ctx, RetrieveSeriesOptions{ID: &series.ID})
	assert.NoError(t, err)
}

func TestDeleteVolumeKeepsSeriesDirWithCover(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ing, svc, cfg := newTestIngestor(t, db)
	ctx := context.Background()
	user := createTestUser(t, db, "reader")

	_, err := ing.Ingest(ctx, user.ID, &slicePartIterator{files: []fakeFile{
		{"Yotsuba/Yotsuba.png", pngData},
		{"Yotsuba/Volume 01.mokuro", "{}"},
		{"Yotsuba/Volume 01/001.jpg", "page one"},
	}})
	require.NoError(t, err)

	files := NewFileStore(cfg)
	series, err := svc.RetrieveSeries(ctx, RetrieveSeriesOptions{OwnerID: &user.ID, FolderName: strptr("Yotsuba")})
	require.NoError(t, err)
	volume, err := svc.RetrieveVolume(ctx, RetrieveVolumeOptions{SeriesID: &series.ID, FolderName: strptr("Volume 01")})
	require.NoError(t, err)

	require.NoError(t, DeleteVolume(ctx, svc, files, series, volume))

	require.NotNil(t, series.CoverPath)
	assert.FileExists(t, files.Abs(*series.CoverPath))
	assert.NoFileExists(t, files.Abs(volume.IndexFilePath))
	assert.NoDirExists(t, files.Abs(volume.FilePath))
}

func TestDeleteVolumeKeepsSiblingVolumes(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ing, svc, cfg := newTestIngestor(t, db)
	ctx := context.Background()
	user := createTestUser(t, db, "reader")

	_, err := ing.Ingest(ctx, user.ID, &slicePartIterator{files: []fakeFile{
		{"Yotsuba/Volume 01.mokuro", "{}"},
		{"Yotsuba/Volume 01/001.jpg", "page one"},
		{"Yotsuba/Volume 02.mokuro", "{}"},
		{"Yotsuba/Volume 02/001.jpg", "page one"},
	}})
	require.NoError(t, err)

	files := NewFileStore(cfg)
	series, err := svc.RetrieveSeries(ctx, RetrieveSeriesOptions{OwnerID: &user.ID, FolderName: strptr("Yotsuba")})
	require.NoError(t, err)
	first, err := svc.RetrieveVolume(ctx, RetrieveVolumeOptions{SeriesID: &series.ID, FolderName: strptr("Volume 01")})
	require.NoError(t, err)
	second, err := svc.RetrieveVolume(ctx, RetrieveVolumeOptions{SeriesID: &series.ID, FolderName: strptr("Volume 02")})
	require.NoError(t, err)

	require.NoError(t, DeleteVolume(ctx, svc, files, series, first))

	assert.FileExists(t, files.Abs(second.IndexFilePath))
	assert.DirExists(t, filepath.Join(files.Abs(second.FilePath)))

	count, err := svc.CountVolumesInSeries(ctx, series.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestDeleteSeriesRemovesEverything(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ing, svc, cfg := newTestIngestor(t, db)
	ctx := context.Background()
	user := createTestUser(t, db, "reader")

	_, err := ing.Ingest(ctx, user.ID, &slicePartIterator{files: []fakeFile{
		{"Yotsuba/Yotsuba.png", pngData},
		{"Yotsuba/Volume 01.mokuro", "{}"},
		{"Yotsuba/Volume 01/001.jpg", "page one"},
	}})
	require.NoError(t, err)

	files := NewFileStore(cfg)
	series, err := svc.RetrieveSeries(ctx, RetrieveSeriesOptions{OwnerID: &user.ID, FolderName: strptr("Yotsuba")})
	require.NoError(t, err)

	require.NoError(t, DeleteSeries(ctx, svc, files, series))

	assert.NoDirExists(t, files.SeriesDir(user.ID, "Yotsuba"))
	_, err = svc.RetrieveSeries(ctx, RetrieveSeriesOptions{ID: &series.ID})
	assert.ErrorIs(t, err, errcodes.NotFound("Series"))
}
