package categories

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/maktabaapp/maktaba/pkg/binder"
	"github.com/maktabaapp/maktaba/pkg/errcodes"
	"github.com/maktabaapp/maktaba/pkg/models"
	"github.com/maktabaapp/maktaba/pkg/organizer"
	"github.com/maktabaapp/maktaba/pkg/sandbox"
	"github.com/maktabaapp/maktaba/pkg/store"
	"github.com/maktabaapp/maktaba/pkg/store/jsonstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	roots sandbox.Roots
	store store.Store
	org   *organizer.Organizer
	echo  *echo.Echo
}

func setup(t *testing.T) *fixture {
	t.Helper()
	base := t.TempDir()
	books := filepath.Join(base, "Books")
	roots := sandbox.Roots{
		DataRoot:          filepath.Join(base, "app"),
		BooksDir:          books,
		CoversDir:         filepath.Join(books, "cover"),
		AttachedAssetsDir: filepath.Join(base, "app", "attached_assets"),
	}
	s, err := jsonstore.Open(filepath.Join(roots.DataRoot, "db.json"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	o := organizer.New(roots)
	e := echo.New()
	b, err := binder.New()
	require.NoError(t, err)
	e.Binder = b
	e.HTTPErrorHandler = errcodes.NewHandler().Handle
	RegisterRoutesWithGroup(e.Group("/api/categories"), s, organizer.NewMaintainer(s, o))

	return &fixture{roots: roots, store: s, org: o, echo: e}
}

func (f *fixture) addBook(t *testing.T, title, category, author string) *models.Book {
	t.Helper()
	abs := filepath.Join(f.roots.BooksDir, category, author, title+".pdf")
	require.NoError(t, os.MkdirAll(filepath.Dir(abs), 0755))
	require.NoError(t, os.WriteFile(abs, []byte(title), 0644))
	u, err := f.org.BookURL(abs)
	require.NoError(t, err)

	b := &models.Book{Title: title, Category: category, Author: author, Status: models.BookStatusPlanned, FileURL: &u}
	require.NoError(t, f.store.CreateBook(context.Background(), b))
	return b
}

func (f *fixture) do(method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	f.echo.ServeHTTP(rec, req)
	return rec
}

func TestList(t *testing.T) {
	f := setup(t)
	f.addBook(t, "a", "History", "Jane")
	f.addBook(t, "b", "History", "John")
	f.addBook(t, "c", "Poetry", "Jane")

	rec := f.do(http.MethodGet, "/api/categories", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var names []models.NameCount
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &names))
	assert.Equal(t, []models.NameCount{{Name: "History", Count: 2}, {Name: "Poetry", Count: 1}}, names)
}

func TestRename(t *testing.T) {
	f := setup(t)
	book := f.addBook(t, "a", "History", "Jane Doe")

	rec := f.do(http.MethodPut, "/api/categories", `{"oldName":"History","newName":"Heritage"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var result organizer.Result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.True(t, result.Success)
	assert.Equal(t, 1, result.Books)

	got, err := f.store.RetrieveBook(context.Background(), book.ID)
	require.NoError(t, err)
	assert.Equal(t, "Heritage", got.Category)
	assert.Equal(t, "/books/Heritage/Jane%20Doe/a.pdf", *got.FileURL)
	assert.FileExists(t, filepath.Join(f.roots.BooksDir, "Heritage", "Jane Doe", "a.pdf"))
}

func TestRename_Validation(t *testing.T) {
	f := setup(t)

	rec := f.do(http.MethodPut, "/api/categories", `{"oldName":"History"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = f.do(http.MethodPut, "/api/categories", `{"oldName":"History","newName":"cover"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestDelete(t *testing.T) {
	f := setup(t)
	f.addBook(t, "a", "History", "Jane")
	keep := f.addBook(t, "b", "Poetry", "Jane")

	rec := f.do(http.MethodDelete, "/api/categories?name=History", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	books, err := f.store.ListBooks(context.Background(), store.ListOptions{})
	require.NoError(t, err)
	require.Len(t, books, 1)
	assert.Equal(t, keep.ID, books[0].ID)

	_, err = os.Stat(filepath.Join(f.roots.BooksDir, "History"))
	assert.True(t, os.IsNotExist(err))

	rec = f.do(http.MethodDelete, "/api/categories", "")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}
