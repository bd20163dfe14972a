package settings

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
	"github.com/yomishelf/yomishelf/pkg/migrations"
	"github.com/yomishelf/yomishelf/pkg/models"
)

func newTestDB(t *testing.T) *bun.DB {
	t.Helper()

	sqldb, err := sql.Open(sqliteshim.ShimName, ":memory:")
	require.NoError(t, err)
	sqldb.SetMaxOpenConns(1)

	db := bun.NewDB(sqldb, sqlitedialect.New())

	_, err = migrations.BringUpToDate(context.Background(), db)
	require.NoError(t, err)

	t.Cleanup(func() {
		db.Close()
	})

	return db
}

func createTestUser(t *testing.T, db *bun.DB) *models.User {
	t.Helper()

	now := time.Now()
	user := &models.User{CreatedAt: now, UpdatedAt: now, Username: "reader", PasswordHash: "x"}
	_, err := db.NewInsert().Model(user).Exec(context.Background())
	require.NoError(t, err)

	return user
}

func TestGetReaderSettingsDefaults(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := NewService(db)
	ctx := context.Background()
	user := createTestUser(t, db)

	settings, err := svc.GetReaderSettings(ctx, user.ID)
	require.NoError(t, err)

	assert.Equal(t, 3, settings.ReaderPreloadCount)
	assert.Equal(t, models.FitModeHeight, settings.ReaderFitMode)
	assert.Equal(t, models.DirectionRTL, settings.ReaderDirection)
}

func TestUpdateReaderSettingsUpserts(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := NewService(db)
	ctx := context.Background()
	user := createTestUser(t, db)

	_, err := svc.UpdateReaderSettings(ctx, user.ID, 5, models.FitModeWidth, models.DirectionLTR)
	require.NoError(t, err)

	updated, err := svc.UpdateReaderSettings(ctx, user.ID, 2, models.FitModeOriginal, models.DirectionRTL)
	require.NoError(t, err)
	assert.Equal(t, 2, updated.ReaderPreloadCount)
	assert.Equal(t, models.FitModeOriginal, updated.ReaderFitMode)
	assert.Equal(t, models.DirectionRTL, updated.ReaderDirection)

	stored, err := svc.GetReaderSettings(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, stored.ReaderPreloadCount)

	count, err := db.NewSelect().Model((*models.UserSettings)(nil)).Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}
