// Package storetest holds the behaviour every store.Store backend must share.
package storetest

import (
	"context"
	"testing"
	"time"

	"github.com/maktabaapp/maktaba/pkg/errcodes"
	"github.com/maktabaapp/maktaba/pkg/models"
	"github.com/maktabaapp/maktaba/pkg/store"
	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/pointerutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// NewBook returns a valid book created at the given day of January 2025.
func NewBook(title string, day int) *models.Book {
	return &models.Book{
		Title:     title,
		Author:    "Jane Doe",
		Category:  "History",
		Year:      2001,
		Status:    models.BookStatusPlanned,
		CoverURL:  "/covers/default.jpg",
		CreatedAt: time.Date(2025, time.January, day, 12, 0, 0, 0, time.UTC),
	}
}

// Run exercises s through the whole store contract. newStore must return an
// empty store each time it is called.
func Run(t *testing.T, newStore func(t *testing.T) store.Store) {
	t.Run("create and retrieve", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		b := NewBook("The Muqaddimah", 1)
		b.FileURL = pointerutil.String("/books/History/Jane%20Doe/muqaddimah.pdf")
		b.ExtractedContent = pointerutil.String("asabiyyah and the cycle of dynasties")
		require.NoError(t, s.CreateBook(ctx, b))
		assert.NotZero(t, b.ID)

		got, err := s.RetrieveBook(ctx, b.ID)
		require.NoError(t, err)
		assert.Equal(t, b.ID, got.ID)
		assert.Equal(t, "The Muqaddimah", got.Title)
		assert.Equal(t, "Jane Doe", got.Author)
		assert.Equal(t, "History", got.Category)
		assert.Equal(t, 2001, got.Year)
		assert.Equal(t, models.BookStatusPlanned, got.Status)
		assert.Equal(t, "/covers/default.jpg", got.CoverURL)
		require.NotNil(t, got.FileURL)
		assert.Equal(t, *b.FileURL, *got.FileURL)
		require.NotNil(t, got.ExtractedContent)
		assert.Equal(t, "asabiyyah and the cycle of dynasties", *got.ExtractedContent)
		assert.Nil(t, got.Notes)
		assert.Nil(t, got.LastOpenedAt)
		assert.True(t, b.CreatedAt.Equal(got.CreatedAt))

		// The caller's copy keeps its plaintext.
		assert.Equal(t, "asabiyyah and the cycle of dynasties", *b.ExtractedContent)
	})

	t.Run("ids are unique", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		a, b := NewBook("A", 1), NewBook("B", 2)
		require.NoError(t, s.CreateBook(ctx, a))
		require.NoError(t, s.CreateBook(ctx, b))
		assert.NotEqual(t, a.ID, b.ID)
	})

	t.Run("retrieve missing", func(t *testing.T) {
		s := newStore(t)
		_, err := s.RetrieveBook(context.Background(), 999)
		assert.True(t, errors.Is(err, errcodes.NotFound("Book")))
	})

	t.Run("update selected columns", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		b := NewBook("Original", 1)
		require.NoError(t, s.CreateBook(ctx, b))

		b.Title = "Not written"
		b.Rating = 4
		b.Notes = pointerutil.String("<p>note</p>")
		require.NoError(t, s.UpdateBook(ctx, b, []string{store.ColumnRating, store.ColumnNotes}))

		got, err := s.RetrieveBook(ctx, b.ID)
		require.NoError(t, err)
		assert.Equal(t, "Original", got.Title)
		assert.Equal(t, 4, got.Rating)
		require.NotNil(t, got.Notes)
		assert.Equal(t, "<p>note</p>", *got.Notes)
	})

	t.Run("update all columns", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		b := NewBook("Original", 1)
		require.NoError(t, s.CreateBook(ctx, b))

		opened := time.Date(2025, time.March, 3, 9, 0, 0, 0, time.UTC)
		b.Title = "Renamed"
		b.LastOpenedAt = &opened
		b.ExtractedContent = pointerutil.String("new content")
		require.NoError(t, s.UpdateBook(ctx, b, nil))

		got, err := s.RetrieveBook(ctx, b.ID)
		require.NoError(t, err)
		assert.Equal(t, "Renamed", got.Title)
		require.NotNil(t, got.LastOpenedAt)
		assert.True(t, opened.Equal(*got.LastOpenedAt))
		require.NotNil(t, got.ExtractedContent)
		assert.Equal(t, "new content", *got.ExtractedContent)
		assert.True(t, b.CreatedAt.Equal(got.CreatedAt))
	})

	t.Run("update missing", func(t *testing.T) {
		s := newStore(t)
		b := NewBook("Ghost", 1)
		b.ID = 999
		err := s.UpdateBook(context.Background(), b, nil)
		assert.True(t, errors.Is(err, errcodes.NotFound("Book")))
	})

	t.Run("delete", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		b := NewBook("Doomed", 1)
		require.NoError(t, s.CreateBook(ctx, b))
		require.NoError(t, s.DeleteBook(ctx, b.ID))

		_, err := s.RetrieveBook(ctx, b.ID)
		assert.True(t, errors.Is(err, errcodes.NotFound("Book")))
		assert.NoError(t, s.DeleteBook(ctx, b.ID))
	})

	t.Run("list filters and order", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		old := NewBook("Old history", 1)
		old.Tags = pointerutil.String("classic, maghreb")
		old.Rating = 5
		old.IsFavorite = 1

		mid := NewBook("Poems", 2)
		mid.Category = "Poetry"
		mid.Author = "Al-Mutanabbi"
		mid.Status = models.BookStatusReading
		mid.Rating = 3
		mid.ExtractedContent = pointerutil.String("The desert knows me")

		recent := NewBook("Recent history", 3)
		recent.Status = models.BookStatusCompleted
		recent.Tags = pointerutil.String("modern")

		for _, b := range []*models.Book{old, mid, recent} {
			require.NoError(t, s.CreateBook(ctx, b))
		}

		titles := func(opts store.ListOptions) []string {
			books, err := s.ListBooks(ctx, opts)
			require.NoError(t, err)
			out := make([]string, 0, len(books))
			for _, b := range books {
				out = append(out, b.Title)
			}
			return out
		}

		assert.Equal(t, []string{"Recent history", "Poems", "Old history"}, titles(store.ListOptions{}))
		assert.Equal(t, []string{"Poems"}, titles(store.ListOptions{Status: pointerutil.String(models.BookStatusReading)}))
		assert.Equal(t, []string{"Poems"}, titles(store.ListOptions{Category: pointerutil.String("Poetry")}))
		assert.Equal(t, []string{"Poems"}, titles(store.ListOptions{Author: pointerutil.String("Al-Mutanabbi")}))
		assert.Equal(t, []string{"Old history"}, titles(store.ListOptions{IsFavorite: boolPtr(true)}))
		assert.Equal(t, []string{"Recent history", "Poems"}, titles(store.ListOptions{IsFavorite: boolPtr(false)}))
		assert.Equal(t, []string{"Old history"}, titles(store.ListOptions{MinRating: pointerutil.Int(4)}))
		assert.Equal(t, []string{"Old history"}, titles(store.ListOptions{Tag: pointerutil.String("MAGHREB")}))
		assert.Equal(t, []string{"Recent history", "Old history"}, titles(store.ListOptions{Search: pointerutil.String("HISTORY")}))
		assert.Equal(t, []string{"Poems"}, titles(store.ListOptions{Search: pointerutil.String("desert")}))
		assert.Equal(t, []string{"Old history"}, titles(store.ListOptions{Search: pointerutil.String("classic")}))
		assert.Empty(t, titles(store.ListOptions{Search: pointerutil.String("nothing matches")}))

		// History lists opened books only, most recently opened first.
		assert.Empty(t, titles(store.ListOptions{Status: pointerutil.String(models.BookStatusHistory)}))

		first := time.Date(2025, time.February, 1, 0, 0, 0, 0, time.UTC)
		second := first.Add(24 * time.Hour)
		old.LastOpenedAt = &second
		mid.LastOpenedAt = &first
		require.NoError(t, s.UpdateBook(ctx, old, []string{store.ColumnLastOpenedAt}))
		require.NoError(t, s.UpdateBook(ctx, mid, []string{store.ColumnLastOpenedAt}))

		assert.Equal(t, []string{"Old history", "Poems"}, titles(store.ListOptions{Status: pointerutil.String(models.BookStatusHistory)}))
	})

	t.Run("name counts", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		a := NewBook("A", 1)
		b := NewBook("B", 2)
		c := NewBook("C", 3)
		c.Category = "Poetry"
		c.Author = "Al-Mutanabbi"
		for _, book := range []*models.Book{a, b, c} {
			require.NoError(t, s.CreateBook(ctx, book))
		}

		categories, err := s.ListCategories(ctx)
		require.NoError(t, err)
		assert.Equal(t, []*models.NameCount{
			{Name: "History", Count: 2},
			{Name: "Poetry", Count: 1},
		}, categories)

		authors, err := s.ListAuthors(ctx)
		require.NoError(t, err)
		assert.Equal(t, []*models.NameCount{
			{Name: "Al-Mutanabbi", Count: 1},
			{Name: "Jane Doe", Count: 2},
		}, authors)

		books, err := s.ListBooks(ctx, store.ListOptions{})
		require.NoError(t, err)
		for _, b := range books {
			require.NoError(t, s.DeleteBook(ctx, b.ID))
		}

		categories, err = s.ListCategories(ctx)
		require.NoError(t, err)
		assert.Empty(t, categories)
	})
}

func boolPtr(b bool) *bool {
	return &b
}
