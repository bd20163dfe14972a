package models

import (
	"time"

	"github.com/uptrace/bun"
)

const (
	FitModeHeight   = "fit-height"
	FitModeWidth    = "fit-width"
	FitModeOriginal = "original"

	DirectionRTL = "rtl"
	DirectionLTR = "ltr"
)

type UserSettings struct {
	bun.BaseModel `bun:"table:user_settings,alias:us"`

	ID                 int       `bun:",pk,autoincrement" json:"id"`
	CreatedAt          time.Time `bun:",nullzero,notnull,default:current_timestamp" json:"created_at"`
	UpdatedAt          time.Time `bun:",nullzero,notnull,default:current_timestamp" json:"updated_at"`
	UserID             int       `bun:",notnull,unique" json:"user_id"`
	ReaderPreloadCount int       `bun:",notnull,default:3" json:"reader_preload_count"`
	ReaderFitMode      string    `bun:",notnull,default:'fit-height'" json:"reader_fit_mode"`
	ReaderDirection    string    `bun:",notnull,default:'rtl'" json:"reader_direction"`
}

// DefaultUserSettings returns a UserSettings with default values.
func DefaultUserSettings() *UserSettings {
	return &UserSettings{
		ReaderPreloadCount: 3,
		ReaderFitMode:      FitModeHeight,
		ReaderDirection:    DirectionRTL,
	}
}
