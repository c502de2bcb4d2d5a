// Package sqlstore persists books in SQLite through bun.
package sqlstore

import (
	"context"
	"database/sql"
	"time"

	"github.com/maktabaapp/maktaba/pkg/errcodes"
	"github.com/maktabaapp/maktaba/pkg/models"
	"github.com/maktabaapp/maktaba/pkg/store"
	"github.com/maktabaapp/maktaba/pkg/textcrypt"
	"github.com/pkg/errors"
	"github.com/uptrace/bun"
)

type Store struct {
	db     *bun.DB
	cipher *textcrypt.Cipher
}

var _ store.Store = (*Store)(nil)

// New returns a Store over db. extracted_content is encrypted with cipher
// when it is non-nil.
func New(db *bun.DB, cipher *textcrypt.Cipher) *Store {
	return &Store{db: db, cipher: cipher}
}

func (s *Store) ListBooks(ctx context.Context, opts store.ListOptions) ([]*models.Book, error) {
	var books []*models.Book

	q := s.db.NewSelect().
		Model(&books).
		Order("b.created_at DESC", "b.id DESC")

	if opts.Status != nil && *opts.Status != "" {
		if *opts.Status == models.BookStatusHistory {
			q = q.Where("b.last_opened_at IS NOT NULL")
		} else {
			q = q.Where("b.status = ?", *opts.Status)
		}
	}
	if opts.Category != nil && *opts.Category != "" {
		q = q.Where("b.category = ?", *opts.Category)
	}
	if opts.Author != nil && *opts.Author != "" {
		q = q.Where("b.author = ?", *opts.Author)
	}
	if opts.IsFavorite != nil {
		fav := 0
		if *opts.IsFavorite {
			fav = 1
		}
		q = q.Where("b.is_favorite = ?", fav)
	}
	if opts.MinRating != nil && *opts.MinRating > 0 {
		q = q.Where("b.rating >= ?", *opts.MinRating)
	}

	err := q.Scan(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	// Search and tag matching need decrypted content and Unicode-aware case
	// folding, so they run after the query.
	out := make([]*models.Book, 0, len(books))
	for _, b := range books {
		s.decrypt(b)
		if store.Matches(b, opts) {
			out = append(out, b)
		}
	}
	store.Sort(out, opts)

	return out, nil
}

func (s *Store) RetrieveBook(ctx context.Context, id int) (*models.Book, error) {
	book := &models.Book{}
	err := s.db.NewSelect().
		Model(book).
		Where("b.id = ?", id).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errcodes.NotFound("Book")
		}
		return nil, errors.WithStack(err)
	}
	s.decrypt(book)
	return book, nil
}

func (s *Store) CreateBook(ctx context.Context, book *models.Book) error {
	if book.CreatedAt.IsZero() {
		book.CreatedAt = time.Now().UTC()
	}

	row, err := s.encrypted(book)
	if err != nil {
		return err
	}

	_, err = s.db.NewInsert().
		Model(row).
		Exec(ctx)
	if err != nil {
		return errors.WithStack(err)
	}

	book.ID = row.ID
	return nil
}

func (s *Store) UpdateBook(ctx context.Context, book *models.Book, columns []string) error {
	row, err := s.encrypted(book)
	if err != nil {
		return err
	}

	q := s.db.NewUpdate().
		Model(row).
		WherePK()
	if len(columns) > 0 {
		q = q.Column(columns...)
	} else {
		q = q.ExcludeColumn("id", "created_at")
	}

	res, err := q.Exec(ctx)
	if err != nil {
		return errors.WithStack(err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return errcodes.NotFound("Book")
	}
	return nil
}

func (s *Store) DeleteBook(ctx context.Context, id int) error {
	_, err := s.db.NewDelete().
		Model((*models.Book)(nil)).
		Where("id = ?", id).
		Exec(ctx)
	return errors.WithStack(err)
}

func (s *Store) ListCategories(ctx context.Context) ([]*models.NameCount, error) {
	return s.countBy(ctx, "category")
}

func (s *Store) ListAuthors(ctx context.Context) ([]*models.NameCount, error) {
	return s.countBy(ctx, "author")
}

func (s *Store) countBy(ctx context.Context, column string) ([]*models.NameCount, error) {
	var counts []*models.NameCount
	err := s.db.NewSelect().
		Model((*models.Book)(nil)).
		ColumnExpr("b.? AS name", bun.Ident(column)).
		ColumnExpr("COUNT(*) AS count").
		GroupExpr("b.?", bun.Ident(column)).
		OrderExpr("name ASC").
		Scan(ctx, &counts)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return counts, nil
}

func (s *Store) Close() error {
	return errors.WithStack(s.db.Close())
}

// encrypted returns a copy of book ready to be written.
func (s *Store) encrypted(book *models.Book) (*models.Book, error) {
	row := book.Clone()
	enc, err := s.cipher.EncryptPtr(row.ExtractedContent)
	if err != nil {
		return nil, err
	}
	row.ExtractedContent = enc
	return row, nil
}

func (s *Store) decrypt(book *models.Book) {
	book.ExtractedContent = s.cipher.DecryptPtr(book.ExtractedContent)
}
