package migrations

import (
	"context"

	"github.com/pkg/errors"
	"github.com/uptrace/bun"
)

func init() {
	up := func(_ context.Context, db *bun.DB) error {
		_, err := db.Exec(`
			CREATE TABLE users (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
				updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
				username TEXT NOT NULL,
				password_hash TEXT NOT NULL
			)
`)
		if err != nil {
			return errors.WithStack(err)
		}
		_, err = db.Exec(`CREATE UNIQUE INDEX ux_users_username ON users (username COLLATE NOCASE)`)
		if err != nil {
			return errors.WithStack(err)
		}
		_, err = db.Exec(`
			CREATE TABLE series (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
				updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
				owner_id INTEGER REFERENCES users (id) NOT NULL,
				folder_name TEXT NOT NULL,
				title TEXT,
				cover_path TEXT
			)
`)
		if err != nil {
			return errors.WithStack(err)
		}
		// Concurrent uploads for the same new series rely on this constraint
		// plus retry-on-conflict.
		_, err = db.Exec(`CREATE UNIQUE INDEX ux_series_owner_id_folder_name ON series (owner_id, folder_name)`)
		if err != nil {
			return errors.WithStack(err)
		}
		_, err = db.Exec(`CREATE INDEX ix_series_owner_id ON series (owner_id)`)
		if err != nil {
			return errors.WithStack(err)
		}
		_, err = db.Exec(`
			CREATE TABLE volumes (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
				updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
				series_id INTEGER REFERENCES series (id) NOT NULL,
				folder_name TEXT NOT NULL,
				title TEXT,
				page_count INTEGER NOT NULL,
				file_path TEXT NOT NULL,
				index_file_path TEXT NOT NULL,
				cover_image_name TEXT NOT NULL
			)
`)
		if err != nil {
			return errors.WithStack(err)
		}
		_, err = db.Exec(`CREATE UNIQUE INDEX ux_volumes_series_id_folder_name ON volumes (series_id, folder_name)`)
		if err != nil {
			return errors.WithStack(err)
		}
		_, err = db.Exec(`CREATE INDEX ix_volumes_series_id ON volumes (series_id)`)
		if err != nil {
			return errors.WithStack(err)
		}
		_, err = db.Exec(`
			CREATE TABLE user_progress (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
				updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
				user_id INTEGER REFERENCES users (id) NOT NULL,
				volume_id INTEGER REFERENCES volumes (id) NOT NULL,
				page INTEGER NOT NULL DEFAULT 1,
				time_read INTEGER NOT NULL DEFAULT 0,
				chars_read INTEGER NOT NULL DEFAULT 0,
				completed BOOLEAN NOT NULL DEFAULT FALSE
			)
`)
		if err != nil {
			return errors.WithStack(err)
		}
		_, err = db.Exec(`CREATE UNIQUE INDEX ux_user_progress_user_id_volume_id ON user_progress (user_id, volume_id)`)
		if err != nil {
			return errors.WithStack(err)
		}
		_, err = db.Exec(`
			CREATE TABLE user_settings (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
				updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
				user_id INTEGER NOT NULL UNIQUE REFERENCES users (id),
				reader_preload_count INTEGER NOT NULL DEFAULT 3,
				reader_fit_mode TEXT NOT NULL DEFAULT 'fit-height',
				reader_direction TEXT NOT NULL DEFAULT 'rtl'
			)
`)
		return errors.WithStack(err)
	}

	down := func(_ context.Context, db *bun.DB) error {
		for _, table := range []string{"user_settings", "user_progress", "volumes", "series", "users"} {
			_, err := db.Exec("DROP TABLE IF EXISTS " + table)
			if err != nil {
				return errors.WithStack(err)
			}
		}
		return nil
	}

	Migrations.MustRegister(up, down)
}
