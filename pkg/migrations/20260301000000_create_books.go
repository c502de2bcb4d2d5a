package migrations

import (
	"context"

	"github.com/pkg/errors"
	"github.com/uptrace/bun"
)

func init() {
	up := func(_ context.Context, db *bun.DB) error {
		_, err := db.Exec(`
			CREATE TABLE books (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
				title TEXT NOT NULL,
				author TEXT NOT NULL,
				category TEXT NOT NULL,
				year INTEGER NOT NULL,
				status TEXT NOT NULL,
				cover_url TEXT NOT NULL,
				file_url TEXT,
				extracted_content TEXT,
				notes TEXT,
				quote TEXT,
				last_read_page INTEGER NOT NULL DEFAULT 1,
				total_pages INTEGER NOT NULL DEFAULT 0,
				last_opened_at TIMESTAMPTZ,
				rating INTEGER NOT NULL DEFAULT 0,
				is_favorite INTEGER NOT NULL DEFAULT 0,
				tags TEXT
			)
`)
		if err != nil {
			return errors.WithStack(err)
		}
		_, err = db.Exec(`CREATE INDEX ix_books_category ON books (category)`)
		if err != nil {
			return errors.WithStack(err)
		}
		_, err = db.Exec(`CREATE INDEX ix_books_author ON books (author)`)
		if err != nil {
			return errors.WithStack(err)
		}
		_, err = db.Exec(`CREATE INDEX ix_books_last_opened_at ON books (last_opened_at)`)
		return errors.WithStack(err)
	}

	down := func(_ context.Context, db *bun.DB) error {
		_, err := db.Exec(`DROP TABLE IF EXISTS books`)
		return errors.WithStack(err)
	}

	Migrations.MustRegister(up, down)
}
