package books

import (
	"context"

	"github.com/maktabaapp/maktaba/pkg/models"
	"github.com/maktabaapp/maktaba/pkg/organizer"
	"github.com/maktabaapp/maktaba/pkg/store"
	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"
)

type UpdateBookOptions struct {
	Columns []string
	// Organize re-files the book's file even when none of its location
	// columns changed.
	Organize bool
}

type Service struct {
	store     store.Store
	organizer *organizer.Organizer
}

func NewService(s store.Store, o *organizer.Organizer) *Service {
	return &Service{store: s, organizer: o}
}

func (svc *Service) ListBooks(ctx context.Context, opts store.ListOptions) ([]*models.Book, error) {
	books, err := svc.store.ListBooks(ctx, opts)
	return books, errors.WithStack(err)
}

func (svc *Service) RetrieveBook(ctx context.Context, id int) (*models.Book, error) {
	book, err := svc.store.RetrieveBook(ctx, id)
	return book, errors.WithStack(err)
}

// CreateBook files the book's upload under its category and author folder and
// then persists the book.
func (svc *Service) CreateBook(ctx context.Context, book *models.Book) error {
	store.ApplyDefaults(book)
	svc.place(ctx, book)
	return errors.WithStack(svc.store.CreateBook(ctx, book))
}

// UpdateBook persists opts.Columns. A change to fileUrl, category or author
// moves the file to the folder it now belongs in. Nothing is written when no
// column changed.
func (svc *Service) UpdateBook(ctx context.Context, book *models.Book, opts UpdateBookOptions) error {
	columns := append([]string(nil), opts.Columns...)
	if opts.Organize || touches(columns, store.ColumnFileURL, store.ColumnCategory, store.ColumnAuthor) {
		before := book.FileURL
		svc.place(ctx, book)
		if !sameURL(before, book.FileURL) && !touches(columns, store.ColumnFileURL) {
			columns = append(columns, store.ColumnFileURL)
		}
	}
	if len(columns) == 0 {
		return nil
	}
	return errors.WithStack(svc.store.UpdateBook(ctx, book, columns))
}

// DeleteBook removes the record only. The book's files stay on disk.
func (svc *Service) DeleteBook(ctx context.Context, id int) error {
	if _, err := svc.store.RetrieveBook(ctx, id); err != nil {
		return errors.WithStack(err)
	}
	return errors.WithStack(svc.store.DeleteBook(ctx, id))
}

// place moves the book's file into place. A failed move is logged and the
// book keeps its current fileUrl.
func (svc *Service) place(ctx context.Context, book *models.Book) {
	if book.FileURL == nil || *book.FileURL == "" {
		return
	}
	placed, err := svc.organizer.Place(ctx, *book.FileURL, book.Category, book.Author)
	if err != nil {
		logger.FromContext(ctx).Err(err).Error("failed to organize book file", logger.Data{
			"book_id":  book.ID,
			"file_url": *book.FileURL,
		})
		return
	}
	book.FileURL = &placed
}

func touches(columns []string, names ...string) bool {
	for _, c := range columns {
		for _, n := range names {
			if c == n {
				return true
			}
		}
	}
	return false
}

func sameURL(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
