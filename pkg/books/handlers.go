package books

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/maktabaapp/maktaba/pkg/errcodes"
	"github.com/maktabaapp/maktaba/pkg/models"
	"github.com/maktabaapp/maktaba/pkg/store"
	"github.com/pkg/errors"
)

type handler struct {
	bookService *Service
}

func (h *handler) list(c echo.Context) error {
	ctx := c.Request().Context()

	params := ListBooksQuery{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	books, err := h.bookService.ListBooks(ctx, store.ListOptions{
		Search:     params.Search,
		Status:     params.Status,
		Category:   params.Category,
		Author:     params.Author,
		IsFavorite: params.IsFavorite,
		MinRating:  params.MinRating,
		Tag:        params.Tag,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, books))
}

func (h *handler) retrieve(c echo.Context) error {
	ctx := c.Request().Context()
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errcodes.NotFound("Book")
	}

	book, err := h.bookService.RetrieveBook(ctx, id)
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, book))
}

func (h *handler) create(c echo.Context) error {
	ctx := c.Request().Context()

	params := CreateBookPayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	book := &models.Book{
		Title:            params.Title,
		Author:           params.Author,
		Category:         params.Category,
		Year:             params.Year,
		Status:           params.Status,
		CoverURL:         params.CoverURL,
		FileURL:          params.FileURL,
		ExtractedContent: params.ExtractedContent,
		Notes:            params.Notes,
		Quote:            params.Quote,
		LastReadPage:     params.LastReadPage,
		TotalPages:       params.TotalPages,
		LastOpenedAt:     params.LastOpenedAt,
		Rating:           params.Rating,
		IsFavorite:       params.IsFavorite,
		Tags:             params.Tags,
	}
	if params.CreatedAt != nil {
		book.CreatedAt = params.CreatedAt.UTC()
	}

	if err := h.bookService.CreateBook(ctx, book); err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusCreated, book))
}

func (h *handler) update(c echo.Context) error {
	ctx := c.Request().Context()
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errcodes.NotFound("Book")
	}

	// Bind params.
	params := UpdateBookPayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	// Fetch the book.
	book, err := h.bookService.RetrieveBook(ctx, id)
	if err != nil {
		return errors.WithStack(err)
	}

	// Keep track of what's been changed.
	opts := UpdateBookOptions{Columns: []string{}}
	change := func(column string) {
		opts.Columns = append(opts.Columns, column)
	}

	if params.Title != nil && *params.Title != book.Title {
		book.Title = *params.Title
		change(store.ColumnTitle)
	}
	if params.Author != nil && *params.Author != book.Author {
		book.Author = orDefault(*params.Author, models.DefaultAuthor)
		change(store.ColumnAuthor)
	}
	if params.Category != nil && *params.Category != book.Category {
		book.Category = orDefault(*params.Category, models.DefaultCategory)
		change(store.ColumnCategory)
	}
	if params.Year != nil && *params.Year != book.Year {
		book.Year = *params.Year
		change(store.ColumnYear)
	}
	if params.Status != nil && *params.Status != book.Status {
		book.Status = *params.Status
		change(store.ColumnStatus)
	}
	if params.CoverURL != nil && *params.CoverURL != book.CoverURL {
		book.CoverURL = *params.CoverURL
		change(store.ColumnCoverURL)
	}
	if params.FileURL != nil {
		// Always re-file on an explicit fileUrl so a book moved by hand is
		// put back where it belongs.
		book.FileURL = params.FileURL
		opts.Organize = true
		change(store.ColumnFileURL)
	}
	if params.ExtractedContent != nil {
		book.ExtractedContent = params.ExtractedContent
		change(store.ColumnExtractedContent)
	}
	if params.Notes != nil {
		book.Notes = params.Notes
		change(store.ColumnNotes)
	}
	if params.Quote != nil {
		book.Quote = params.Quote
		change(store.ColumnQuote)
	}
	if params.LastReadPage != nil && *params.LastReadPage != book.LastReadPage {
		book.LastReadPage = *params.LastReadPage
		change(store.ColumnLastReadPage)
	}
	if params.TotalPages != nil && *params.TotalPages != book.TotalPages {
		book.TotalPages = *params.TotalPages
		change(store.ColumnTotalPages)
	}
	if params.LastOpenedAt != nil {
		t := params.LastOpenedAt.UTC().Truncate(time.Millisecond)
		book.LastOpenedAt = &t
		change(store.ColumnLastOpenedAt)
	}
	if params.Rating != nil && *params.Rating != book.Rating {
		book.Rating = *params.Rating
		change(store.ColumnRating)
	}
	if params.IsFavorite != nil && *params.IsFavorite != book.IsFavorite {
		book.IsFavorite = *params.IsFavorite
		change(store.ColumnIsFavorite)
	}
	if params.Tags != nil {
		book.Tags = params.Tags
		change(store.ColumnTags)
	}

	// Update the model.
	if err := h.bookService.UpdateBook(ctx, book, opts); err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, book))
}

func (h *handler) delete(c echo.Context) error {
	ctx := c.Request().Context()
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errcodes.NotFound("Book")
	}

	if err := h.bookService.DeleteBook(ctx, id); err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.NoContent(http.StatusNoContent))
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
