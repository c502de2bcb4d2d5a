package server

import (
	"context"
	"os"

	"github.com/maktabaapp/maktaba/pkg/books"
	"github.com/maktabaapp/maktaba/pkg/config"
	"github.com/maktabaapp/maktaba/pkg/database"
	"github.com/maktabaapp/maktaba/pkg/migrations"
	"github.com/maktabaapp/maktaba/pkg/organizer"
	"github.com/maktabaapp/maktaba/pkg/sandbox"
	"github.com/maktabaapp/maktaba/pkg/store"
	"github.com/maktabaapp/maktaba/pkg/store/jsonstore"
	"github.com/maktabaapp/maktaba/pkg/store/sqlstore"
	"github.com/maktabaapp/maktaba/pkg/textcrypt"
	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"
)

// OpenStore opens the configured book store. The SQLite backend is migrated
// before it is returned.
func OpenStore(ctx context.Context, cfg *config.Config) (store.Store, error) {
	log := logger.FromContext(ctx)
	cipher := textcrypt.New(cfg.EncryptionKey)

	if cfg.StorageBackend == config.StorageBackendJSON {
		s, err := jsonstore.Open(cfg.JSONFilePath, cipher)
		if err != nil {
			return nil, err
		}
		log.Info("opened json store", logger.Data{"path": cfg.JSONFilePath})
		return s, nil
	}

	db, err := database.New(cfg)
	if err != nil {
		return nil, err
	}

	group, err := migrations.BringUpToDate(ctx, db)
	if err != nil {
		db.Close()
		return nil, err
	}
	if group.ID == 0 {
		log.Info("no new migrations to run")
	} else {
		log.Info("migrated to new group", logger.Data{"group_id": group.ID, "migration_names": group.Migrations.String()})
	}

	return sqlstore.New(db, cipher), nil
}

// PrepareDirs creates every root directory so the first upload or move does
// not have to.
func PrepareDirs(roots sandbox.Roots) error {
	for _, dir := range roots.List() {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return errors.Wrapf(err, "failed to create directory: %s", dir)
		}
	}
	return nil
}

// Seed fills an empty library with the sample books when enabled.
func Seed(ctx context.Context, cfg *config.Config, s store.Store) error {
	if !cfg.SeedSampleBooks {
		return nil
	}
	svc := books.NewService(s, organizer.New(sandbox.RootsFromConfig(cfg)))
	n, err := svc.SeedSampleBooks(ctx)
	if err != nil {
		return err
	}
	if n > 0 {
		logger.FromContext(ctx).Info("seeded sample books", logger.Data{"count": n})
	}
	return nil
}
