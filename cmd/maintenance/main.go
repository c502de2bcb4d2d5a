package main

import (
	"fmt"
	"os"

	"github.com/maktabaapp/maktaba/pkg/books"
	"github.com/maktabaapp/maktaba/pkg/config"
	"github.com/maktabaapp/maktaba/pkg/organizer"
	"github.com/maktabaapp/maktaba/pkg/sandbox"
	"github.com/maktabaapp/maktaba/pkg/server"
	"github.com/maktabaapp/maktaba/pkg/store"
	"github.com/maktabaapp/maktaba/pkg/version"
	"github.com/robinjoseph08/golib/logger"
	"github.com/urfave/cli/v2"
)

func main() {
	log := logger.New()

	cfg, err := config.New()
	if err != nil {
		log.Err(err).Fatal("config error")
	}
	roots := sandbox.RootsFromConfig(cfg)

	withStore := func(c *cli.Context, fn func(s store.Store) error) error {
		ctx := log.WithContext(c.Context)
		if err := server.PrepareDirs(roots); err != nil {
			return err
		}
		s, err := server.OpenStore(ctx, cfg)
		if err != nil {
			return err
		}
		defer s.Close()
		c.Context = ctx
		return fn(s)
	}

	app := &cli.App{
		Name:    "maintenance",
		Usage:   "repair and inspect the library on disk",
		Version: version.String(),
		Commands: []*cli.Command{
			{
				Name:  "reorganize",
				Usage: "move every book file back under Books/<Category>/<Author>",
				Action: func(c *cli.Context) error {
					return withStore(c, func(s store.Store) error {
						m := organizer.NewMaintainer(s, organizer.New(roots))
						result, err := m.Reorganize(c.Context)
						if err != nil {
							return err
						}
						printResult(result)
						if !result.Success {
							return cli.Exit("some books could not be moved", 1)
						}
						return nil
					})
				},
			},
			{
				Name:  "seed",
				Usage: "add the sample books to an empty library",
				Action: func(c *cli.Context) error {
					return withStore(c, func(s store.Store) error {
						svc := books.NewService(s, organizer.New(roots))
						n, err := svc.SeedSampleBooks(c.Context)
						if err != nil {
							return err
						}
						fmt.Printf("Added %d sample books\n", n)
						return nil
					})
				},
			},
		},
	}
	if err := app.Run(os.Args); err != nil {
		log.Err(err).Fatal("app run error")
	}
}

func printResult(r *organizer.Result) {
	fmt.Printf("Updated %d books\n", r.Books)
	for _, item := range r.Items {
		line := fmt.Sprintf("  [%s] %s", item.Status, item.Source)
		if item.Target != "" {
			line += " -> " + item.Target
		}
		if item.Error != "" {
			line += ": " + item.Error
		}
		fmt.Println(line)
	}
}
