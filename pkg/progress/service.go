package progress

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

// Service is the persistence adapter for per-user reading progress.
type Service struct {
	db *bun.DB
}

func NewService(db *bun.DB) *Service {
	return &Service{db}
}

// RetrieveProgress returns the stored progress for (user, volume), or the
// defaults when the user has never opened the volume.
func (svc *Service) RetrieveProgress(ctx context.Context, userID, volumeID int) (*models.UserProgress, error) {
	p := &models.UserProgress{}

	err := svc.db.
		NewSelect().
		Model(p).
		Where("up.user_id = ?", userID).
		Where("up.volume_id = ?", volumeID).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.DefaultUserProgress(), nil
		}
		return nil, errors.WithStack(err)
	}

	return p, nil
}

// SaveProgress upserts on (user_id, volume_id). A foreign key failure means
// the volume row is gone, for example when a delete raced this write, and is
// reported as a missing volume.
func (svc *Service) SaveProgress(ctx context.Context, p *models.UserProgress) error {
	now := time.Now()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now

	_, err := svc.db.
		NewInsert().
		Model(p).
		On("CONFLICT (user_id, volume_id) DO UPDATE").
		Set("page = EXCLUDED.page").
		Set("time_read = EXCLUDED.time_read").
		Set("chars_read = EXCLUDED.chars_read").
		Set("completed = EXCLUDED.completed").
		Set("updated_at = EXCLUDED.updated_at").
		Returning("*").
		Exec(ctx)
	if err != nil {
		if strings.Contains(err.Error(), "FOREIGN KEY constraint") {
			return errcodes.NotFound("Volume")
		}
		return errors.WithStack(err)
	}
	return nil
}
