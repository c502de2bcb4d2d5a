package jsonstore

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/maktabaapp/maktaba/pkg/store"
	"github.com/maktabaapp/maktaba/pkg/store/storetest"
	"github.com/maktabaapp/maktaba/pkg/textcrypt"
	"github.com/robinjoseph08/golib/pointerutil"
	"github.com/segmentio/encoding/json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T, path string) *Store {
	t.Helper()
	s, err := Open(path, textcrypt.New("test-secret"))
	require.NoError(t, err)
	t.Cleanup(func() {
		s.Close()
	})
	return s
}

func TestStoreContract(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Store {
		return openTestStore(t, filepath.Join(t.TempDir(), "db.json"))
	})
}

func TestFileFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "db.json")
	s := openTestStore(t, path)
	ctx := context.Background()

	b := storetest.NewBook("Kalila wa Dimna", 1)
	b.ExtractedContent = pointerutil.String("the lion and the bull")
	require.NoError(t, s.CreateBook(ctx, b))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var raw struct {
		Books     [][]json.RawMessage `json:"books"`
		CurrentID int                 `json:"currentId"`
	}
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Equal(t, 2, raw.CurrentID)
	require.Len(t, raw.Books, 1)
	require.Len(t, raw.Books[0], 2)
	assert.Equal(t, "1", string(raw.Books[0][0]))

	var book map[string]interface{}
	require.NoError(t, json.Unmarshal(raw.Books[0][1], &book))
	assert.Equal(t, "Kalila wa Dimna", book["title"])
	assert.Equal(t, "/covers/default.jpg", book["coverUrl"])

	content, ok := book["extractedContent"].(string)
	require.True(t, ok)
	assert.NotContains(t, content, "the lion")
	assert.Len(t, strings.Split(content, ":"), 4)

	// No temp files are left behind.
	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	for _, e := range entries {
		assert.False(t, strings.HasPrefix(e.Name(), ".db-"), e.Name())
	}
}

func TestReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "db.json")
	ctx := context.Background()

	s, err := Open(path, textcrypt.New("test-secret"))
	require.NoError(t, err)
	first := storetest.NewBook("First", 1)
	require.NoError(t, s.CreateBook(ctx, first))
	require.NoError(t, s.DeleteBook(ctx, first.ID))
	second := storetest.NewBook("Second", 2)
	require.NoError(t, s.CreateBook(ctx, second))
	require.NoError(t, s.Close())

	reopened := openTestStore(t, path)
	got, err := reopened.RetrieveBook(ctx, second.ID)
	require.NoError(t, err)
	assert.Equal(t, "Second", got.Title)

	// Ids are never reused, even for deleted books.
	third := storetest.NewBook("Third", 3)
	require.NoError(t, reopened.CreateBook(ctx, third))
	assert.Equal(t, 3, third.ID)
}

func TestLoadsLegacyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "db.json")
	legacy := `{
  "books": [
    [7, {"id": 7, "title": "Legacy", "author": "A", "category": "C", "year": 1990,
         "status": "completed", "coverUrl": "/covers/x.jpg", "fileUrl": null,
         "extractedContent": "stored before encryption", "lastReadPage": 1,
         "totalPages": 0, "rating": 0, "isFavorite": 0, "tags": null,
         "createdAt": "2024-05-01T10:00:00.000Z", "lastOpenedAt": null}]
  ],
  "currentId": 8
}`
	require.NoError(t, os.WriteFile(path, []byte(legacy), 0644))

	s := openTestStore(t, path)
	got, err := s.RetrieveBook(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, "Legacy", got.Title)
	require.NotNil(t, got.ExtractedContent)
	assert.Equal(t, "stored before encryption", *got.ExtractedContent)

	b := storetest.NewBook("Next", 1)
	require.NoError(t, s.CreateBook(context.Background(), b))
	assert.Equal(t, 8, b.ID)
}

func TestCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "db.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0644))

	_, err := Open(path, nil)
	require.Error(t, err)
	assert.NotContains(t, err.Error(), filepath.Dir(path))
}

func TestCorruptedByAnotherWriterKeepsMemory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "db.json")
	s := openTestStore(t, path)
	ctx := context.Background()

	b := storetest.NewBook("Muqaddimah", 1)
	require.NoError(t, s.CreateBook(ctx, b))

	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0644))

	err := s.CreateBook(ctx, storetest.NewBook("Second", 1))
	require.Error(t, err)

	got, err := s.RetrieveBook(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, "Muqaddimah", got.Title)

	books, err := s.ListBooks(ctx, store.ListOptions{})
	require.NoError(t, err)
	assert.Len(t, books, 1)
}

func TestUnknownColumn(t *testing.T) {
	s := openTestStore(t, filepath.Join(t.TempDir(), "db.json"))
	ctx := context.Background()
	b := storetest.NewBook("A", 1)
	require.NoError(t, s.CreateBook(ctx, b))

	err := s.UpdateBook(ctx, b, []string{"nope"})
	assert.Error(t, err)
}
