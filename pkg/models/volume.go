package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Volume is one ingested unit: a mokuro index file plus its page images.
// (series_id, folder_name) uniquely identifies a volume.
type Volume struct {
	bun.BaseModel `bun:"table:volumes,alias:v"`

	ID         int       `bun:",pk,nullzero" json:"id"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
	SeriesID   int       `bun:",nullzero" json:"series_id"`
	Series     *Series   `bun:"rel:belongs-to,join:series_id=id" json:"-"`
	FolderName string    `bun:",nullzero" json:"folder_name"`
	Title      *string   `json:"title"`
	// PageCount equals the number of page images moved at commit time.
	PageCount int `json:"page_count"`
	// FilePath and IndexFilePath are forward-slash paths relative to the
	// storage root.
	FilePath       string `bun:",nullzero" json:"file_path"`
	IndexFilePath  string `bun:",nullzero" json:"index_file_path"`
	CoverImageName string `json:"cover_image_name"`
}

// DisplayTitle falls back to the folder name at read time, not at write time.
func (v *Volume) DisplayTitle() string {
	if v.Title != nil && *v.Title != "" {
		return *v.Title
	}
	return v.FolderName
}
