package sqlstore

import (
	"context"
	"database/sql"
	"strings"
	"testing"

	"github.com/maktabaapp/maktaba/pkg/migrations"
	"github.com/maktabaapp/maktaba/pkg/models"
	"github.com/maktabaapp/maktaba/pkg/store"
	"github.com/maktabaapp/maktaba/pkg/store/storetest"
	"github.com/maktabaapp/maktaba/pkg/textcrypt"
	"github.com/robinjoseph08/golib/pointerutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

func setupTestDB(t *testing.T) *bun.DB {
	t.Helper()

	sqldb, err := sql.Open(sqliteshim.ShimName, ":memory:")
	require.NoError(t, err)
	// Every connection to :memory: is its own database.
	sqldb.SetMaxOpenConns(1)

	db := bun.NewDB(sqldb, sqlitedialect.New())

	_, err = migrations.BringUpToDate(context.Background(), db)
	require.NoError(t, err)

	t.Cleanup(func() {
		db.Close()
	})

	return db
}

func TestStoreContract(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Store {
		return New(setupTestDB(t), textcrypt.New("test-secret"))
	})
}

func TestExtractedContentEncryptedAtRest(t *testing.T) {
	db := setupTestDB(t)
	s := New(db, textcrypt.New("test-secret"))
	ctx := context.Background()

	b := storetest.NewBook("Secret", 1)
	b.ExtractedContent = pointerutil.String("plain words")
	require.NoError(t, s.CreateBook(ctx, b))

	var raw string
	err := db.NewSelect().
		Model((*models.Book)(nil)).
		Column("extracted_content").
		Where("id = ?", b.ID).
		Scan(ctx, &raw)
	require.NoError(t, err)

	assert.NotContains(t, raw, "plain words")
	assert.Len(t, strings.Split(raw, ":"), 4)
}

func TestWithoutCipherStoresPlainText(t *testing.T) {
	db := setupTestDB(t)
	s := New(db, nil)
	ctx := context.Background()

	b := storetest.NewBook("Plain", 1)
	b.ExtractedContent = pointerutil.String("plain words")
	require.NoError(t, s.CreateBook(ctx, b))

	got, err := s.RetrieveBook(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, "plain words", *got.ExtractedContent)
}
