package main

import (
	"context"
	"net"
	"net/http"

	"github.com/maktabaapp/maktaba/pkg/config"
	"github.com/maktabaapp/maktaba/pkg/sandbox"
	"github.com/maktabaapp/maktaba/pkg/server"
	"github.com/maktabaapp/maktaba/pkg/version"
	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"
	"github.com/robinjoseph08/golib/signals"
)

func main() {
	ctx := context.Background()
	log := logger.New()
	ctx = log.WithContext(ctx)

	log.Info("starting maktaba", logger.Data{"version": version.String()})

	cfg, err := config.New()
	if err != nil {
		log.Err(err).Fatal("config error")
	}

	roots := sandbox.RootsFromConfig(cfg)
	if err := server.PrepareDirs(roots); err != nil {
		log.Err(err).Fatal("directory error")
	}
	log.Info("library directories ready", logger.Data{
		"data_root":  roots.DataRoot,
		"books_dir":  roots.BooksDir,
		"covers_dir": roots.CoversDir,
	})

	s, err := server.OpenStore(ctx, cfg)
	if err != nil {
		log.Err(err).Fatal("store error")
	}

	if err := server.Seed(ctx, cfg, s); err != nil {
		log.Err(err).Error("seed error")
	}

	srv, err := server.New(cfg, s)
	if err != nil {
		log.Err(err).Fatal("server error")
	}

	graceful := signals.Setup()

	go func() {
		lc := net.ListenConfig{}
		listener, err := lc.Listen(ctx, "tcp", srv.Addr)
		if err != nil {
			log.Err(err).Fatal("failed to bind port")
		}
		log.Info("server started", logger.Data{"addr": listener.Addr().String()})

		err = srv.Serve(listener)
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Err(err).Fatal("server stopped")
		}
		log.Info("server stopped")
	}()

	<-graceful
	log.Info("starting graceful shutdown")

	err = srv.Shutdown(ctx)
	if err != nil {
		log.Err(err).Error("server shutdown error")
	}
	log.Info("server shutdown")

	err = s.Close()
	if err != nil {
		log.Err(err).Error("store close error")
	}
	log.Info("store closed")
}
