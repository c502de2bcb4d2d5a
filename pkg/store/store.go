// Package store defines the persistence contract for books. Two backends
// implement it: sqlstore (SQLite through bun) and jsonstore (a flat db.json
// file). Both return identical Book shapes.
package store

import (
	"context"
	"sort"
	"strings"

	"github.com/maktabaapp/maktaba/pkg/fileutils"
	"github.com/maktabaapp/maktaba/pkg/models"
)

type Store interface {
	ListBooks(ctx context.Context, opts ListOptions) ([]*models.Book, error)
	RetrieveBook(ctx context.Context, id int) (*models.Book, error)
	CreateBook(ctx context.Context, book *models.Book) error
	// UpdateBook persists the given columns of book. An empty list writes
	// every column.
	UpdateBook(ctx context.Context, book *models.Book, columns []string) error
	DeleteBook(ctx context.Context, id int) error

	ListCategories(ctx context.Context) ([]*models.NameCount, error)
	ListAuthors(ctx context.Context) ([]*models.NameCount, error)

	Close() error
}

type ListOptions struct {
	Search     *string
	Status     *string
	Category   *string
	Author     *string
	IsFavorite *bool
	MinRating  *int
	Tag        *string
}

// Column names accepted by UpdateBook.
const (
	ColumnTitle            = "title"
	ColumnAuthor           = "author"
	ColumnCategory         = "category"
	ColumnYear             = "year"
	ColumnStatus           = "status"
	ColumnCoverURL         = "cover_url"
	ColumnFileURL          = "file_url"
	ColumnExtractedContent = "extracted_content"
	ColumnNotes            = "notes"
	ColumnQuote            = "quote"
	ColumnLastReadPage     = "last_read_page"
	ColumnTotalPages       = "total_pages"
	ColumnLastOpenedAt     = "last_opened_at"
	ColumnRating           = "rating"
	ColumnIsFavorite       = "is_favorite"
	ColumnTags             = "tags"
)

// ApplyDefaults fills the defaults a freshly created book gets.
func ApplyDefaults(b *models.Book) {
	if b.LastReadPage == 0 {
		b.LastReadPage = 1
	}
	if b.Category == "" {
		b.Category = models.DefaultCategory
	}
	if b.Author == "" {
		b.Author = models.DefaultAuthor
	}
}

// Matches reports whether a decrypted book passes every filter in opts.
func Matches(b *models.Book, opts ListOptions) bool {
	if opts.Status != nil && *opts.Status != "" {
		if *opts.Status == models.BookStatusHistory {
			if b.LastOpenedAt == nil {
				return false
			}
		} else if b.Status != *opts.Status {
			return false
		}
	}
	if opts.Category != nil && *opts.Category != "" && b.Category != *opts.Category {
		return false
	}
	if opts.Author != nil && *opts.Author != "" && b.Author != *opts.Author {
		return false
	}
	if opts.IsFavorite != nil {
		fav := 0
		if *opts.IsFavorite {
			fav = 1
		}
		if b.IsFavorite != fav {
			return false
		}
	}
	if opts.MinRating != nil && *opts.MinRating > 0 && b.Rating < *opts.MinRating {
		return false
	}
	if opts.Tag != nil && *opts.Tag != "" && !hasTag(b, *opts.Tag) {
		return false
	}
	if opts.Search != nil && *opts.Search != "" && !MatchesSearch(b, *opts.Search) {
		return false
	}
	return true
}

// MatchesSearch is a case-insensitive substring match over title, author,
// tags and extracted content.
func MatchesSearch(b *models.Book, search string) bool {
	search = strings.ToLower(search)
	fields := []string{b.Title, b.Author}
	if b.Tags != nil {
		fields = append(fields, *b.Tags)
	}
	if b.ExtractedContent != nil {
		fields = append(fields, *b.ExtractedContent)
	}
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), search) {
			return true
		}
	}
	return false
}

func hasTag(b *models.Book, tag string) bool {
	if b.Tags == nil {
		return false
	}
	tag = strings.ToLower(tag)
	for _, t := range fileutils.SplitNames(*b.Tags) {
		if strings.Contains(strings.ToLower(t), tag) {
			return true
		}
	}
	return false
}

// Sort orders books newest first, or by most recently opened for the
// history pseudo-status.
func Sort(books []*models.Book, opts ListOptions) {
	if opts.Status != nil && *opts.Status == models.BookStatusHistory {
		sort.SliceStable(books, func(i, j int) bool {
			return books[i].LastOpenedAt.After(*books[j].LastOpenedAt)
		})
		return
	}
	sort.SliceStable(books, func(i, j int) bool {
		if books[i].CreatedAt.Equal(books[j].CreatedAt) {
			return books[i].ID > books[j].ID
		}
		return books[i].CreatedAt.After(books[j].CreatedAt)
	})
}

// CountNames groups books by the name key returns, sorted by name.
func CountNames(books []*models.Book, key func(*models.Book) string) []*models.NameCount {
	counts := map[string]int{}
	for _, b := range books {
		counts[key(b)]++
	}
	out := make([]*models.NameCount, 0, len(counts))
	for name, count := range counts {
		out = append(out, &models.NameCount{Name: name, Count: count})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
