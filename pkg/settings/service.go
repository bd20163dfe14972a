package settings

import (
	"context"
	"database/sql"
	"time"

	"github.com/pkg/errors"
	"github.com/uptrace/bun"
	"github.com/yomishelf/yomishelf/pkg/models"
)

type Service struct {
	db *bun.DB
}

func NewService(db *bun.DB) *Service {
	return &Service{db: db}
}

// GetReaderSettings retrieves reader settings for a user, returning defaults
// if none exist.
func (svc *Service) GetReaderSettings(ctx context.Context, userID int) (*models.UserSettings, error) {
	settings := &models.UserSettings{}
	err := svc.db.NewSelect().
		Model(settings).
		Where("user_id = ?", userID).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			defaults := models.DefaultUserSettings()
			defaults.UserID = userID
			return defaults, nil
		}
		return nil, errors.WithStack(err)
	}

	return settings, nil
}

// UpdateReaderSettings updates reader settings for a user, creating the row if
// it doesn't exist yet.
func (svc *Service) UpdateReaderSettings(ctx context.Context, userID, preloadCount int, fitMode, direction string) (*models.UserSettings, error) {
	now := time.Now()

	settings := &models.UserSettings{
		CreatedAt:          now,
		UpdatedAt:          now,
		UserID:             userID,
		ReaderPreloadCount: preloadCount,
		ReaderFitMode:      fitMode,
		ReaderDirection:    direction,
	}

	_, err := svc.db.NewInsert().
		Model(settings).
		On("CONFLICT (user_id) DO UPDATE").
		Set("updated_at = EXCLUDED.updated_at").
		Set("reader_preload_count = EXCLUDED.reader_preload_count").
		Set("reader_fit_mode = EXCLUDED.reader_fit_mode").
		Set("reader_direction = EXCLUDED.reader_direction").
		Returning("*").
		Exec(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	return settings, nil
}
