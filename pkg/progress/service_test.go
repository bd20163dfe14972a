package progress

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
	"github.com/yomishelf/yomishelf/pkg/errcodes"
	"github.com/yomishelf/yomishelf/pkg/library"
	"github.com/yomishelf/yomishelf/pkg/migrations"
	"github.com/yomishelf/yomishelf/pkg/models"
)

func newTestDB(t *testing.T) *bun.DB {
	t.Helper()

	sqldb, err := sql.Open(sqliteshim.ShimName, ":memory:")
	require.NoError(t, err)
	sqldb.SetMaxOpenConns(1)

	db := bun.NewDB(sqldb, sqlitedialect.New())

	// progress rows reference volumes, so the constraint has to be live
	_, err = db.Exec("PRAGMA foreign_keys = ON")
	require.NoError(t, err)

	_, err = migrations.BringUpToDate(context.Background(), db)
	require.NoError(t, err)

	t.Cleanup(func() {
		db.Close()
	})

	return db
}

func createTestVolume(t *testing.T, db *bun.DB) (*models.User, *models.Volume) {
	t.Helper()
	ctx := context.Background()

	now := time.Now()
	user := &models.User{CreatedAt: now, UpdatedAt: now, Username: "reader", PasswordHash: "x"}
	_, err := db.NewInsert().Model(user).Exec(ctx)
	require.NoError(t, err)

	svc := library.NewService(db)
	series, err := svc.FindOrCreateSeries(ctx, user.ID, "Yotsuba", nil)
	require.NoError(t, err)

	volume := &models.Volume{
		SeriesID:       series.ID,
		FolderName:     "Volume 01",
		PageCount:      10,
		FilePath:       "uploads/1/Yotsuba/Volume 01",
		IndexFilePath:  "uploads/1/Yotsuba/Volume 01.mokuro",
		CoverImageName: "001.jpg",
	}
	require.NoError(t, svc.CreateVolume(ctx, volume))

	return user, volume
}

func TestRetrieveProgressDefaults(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := NewService(db)
	ctx := context.Background()
	user, volume := createTestVolume(t, db)

	p, err := svc.RetrieveProgress(ctx, user.ID, volume.ID)
	require.NoError(t, err)

	assert.Equal(t, 1, p.Page)
	assert.Zero(t, p.TimeRead)
	assert.Zero(t, p.CharsRead)
	assert.False(t, p.Completed)
}

func TestSaveProgressUpserts(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := NewService(db)
	ctx := context.Background()
	user, volume := createTestVolume(t, db)

	err := svc.SaveProgress(ctx, &models.UserProgress{
		UserID:   user.ID,
		VolumeID: volume.ID,
		Page:     4,
		TimeRead: 60,
	})
	require.NoError(t, err)

	err = svc.SaveProgress(ctx, &models.UserProgress{
		UserID:    user.ID,
		VolumeID:  volume.ID,
		Page:      10,
		TimeRead:  180,
		CharsRead: 900,
		Completed: true,
	})
	require.NoError(t, err)

	p, err := svc.RetrieveProgress(ctx, user.ID, volume.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, p.Page)
	assert.Equal(t, 180, p.TimeRead)
	assert.Equal(t, 900, p.CharsRead)
	assert.True(t, p.Completed)

	count, err := db.NewSelect().Model((*models.UserProgress)(nil)).Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestSaveProgressMissingVolume(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := NewService(db)
	ctx := context.Background()
	user, _ := createTestVolume(t, db)

	err := svc.SaveProgress(ctx, &models.UserProgress{
		UserID:   user.ID,
		VolumeID: 9999,
		Page:     2,
	})
	assert.ErrorIs(t, err, errcodes.NotFound("Volume"))
}
