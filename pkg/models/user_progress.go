package models

import (
	"time"

	"github.com/uptrace/bun"
)

// UserProgress tracks per-user reading position within a volume.
// (user_id, volume_id) is unique.
type UserProgress struct {
	bun.BaseModel `bun:"table:user_progress,alias:up"`

	ID        int       `bun:",pk,nullzero" json:"-"`
	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`
	UserID    int       `bun:",notnull" json:"-"`
	VolumeID  int       `bun:",notnull" json:"-"`
	Page      int       `bun:",notnull,default:1" json:"page"`
	TimeRead  int       `bun:",notnull,default:0" json:"time_read"`
	CharsRead int       `bun:",notnull,default:0" json:"chars_read"`
	Completed bool      `bun:",notnull,default:false" json:"completed"`
}

// DefaultUserProgress returns the progress reported for a volume the user has
// never opened.
func DefaultUserProgress() *UserProgress {
	return &UserProgress{Page: 1}
}
