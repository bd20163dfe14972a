package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Series is a named collection of volumes owned by a single user.
// (owner_id, folder_name) uniquely identifies a series.
type Series struct {
	bun.BaseModel `bun:"table:series,alias:s"`

	ID        int       `bun:",pk,nullzero" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	OwnerID   int       `bun:",nullzero" json:"owner_id"`
	Owner     *User     `bun:"rel:belongs-to,join:owner_id=id" json:"-"`
	// FolderName is the series directory name as uploaded, used as the
	// grouping key for ingestion and as the on-disk directory name.
	FolderName string    `bun:",nullzero" json:"folder_name"`
	Title      *string   `json:"title"`
	CoverPath  *string   `json:"cover_path"`
	Volumes    []*Volume `bun:"rel:has-many,join:id=series_id" json:"volumes,omitempty"`
}

// DisplayTitle falls back to the folder name when no title was ever resolved
// from series metadata or a manual rename.
func (s *Series) DisplayTitle() string {
	if s.Title != nil && *s.Title != "" {
		return *s.Title
	}
	return s.FolderName
}
