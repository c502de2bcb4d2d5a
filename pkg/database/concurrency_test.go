package database

import (
	"context"
	"path/filepath"
	"sync"
	"testing"

	"github.com/maktabaapp/maktaba/pkg/config"
	"github.com/maktabaapp/maktaba/pkg/migrations"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFileConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	cfg := config.NewForTest(dir)
	cfg.DatabaseFilePath = filepath.Join(dir, "library.sqlite")
	cfg.DatabaseMaxRetries = 0
	return cfg
}

func TestNew_Migrates(t *testing.T) {
	db, err := New(newFileConfig(t))
	require.NoError(t, err)
	defer db.Close()

	_, err = migrations.BringUpToDate(context.Background(), db)
	require.NoError(t, err)

	var mode string
	require.NoError(t, db.QueryRow("PRAGMA journal_mode").Scan(&mode))
	assert.Equal(t, "wal", mode)

	var count int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM books").Scan(&count))
	assert.Equal(t, 0, count)
}

func TestNew_ConcurrentWrites(t *testing.T) {
	db, err := New(newFileConfig(t))
	require.NoError(t, err)
	defer db.Close()

	_, err = db.Exec(`CREATE TABLE writes (id INTEGER PRIMARY KEY AUTOINCREMENT, worker INTEGER NOT NULL)`)
	require.NoError(t, err)

	const workers = 10
	const perWorker = 25

	var wg sync.WaitGroup
	errs := make(chan error, workers*perWorker)
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				if _, err := db.Exec("INSERT INTO writes (worker) VALUES (?)", worker); err != nil {
					errs <- err
				}
			}
		}(w)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		assert.NoError(t, err)
	}

	var count int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM writes").Scan(&count))
	assert.Equal(t, workers*perWorker, count)
}
