// This is the main entry point of the Foodgram API.
// It is a small command line application with three commands:
//
//	serve             (default) run the HTTP API
//	migrate           apply database migrations and exit
//	load-ingredients  bulk-load the reference ingredient list from a .json or .csv file
//
// Every command reads the same environment configuration (see the config package);
// a .env file in the working directory is loaded first when present.
//
// @title Foodgram API
// @version 1.0
// @description Recipes, favorites, shopping carts and subscriptions.
// @contact.name API Support
// @license.name MIT
// @license.url https://opensource.org/licenses/MIT
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type 'Bearer YOUR_JWT_TOKEN' to authorize
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/urfave/cli/v2"

	"github.com/user/foodgram-go/catalog"
	"github.com/user/foodgram-go/config"
	"github.com/user/foodgram-go/db"
	"github.com/user/foodgram-go/logging"
)

func main() {
	// Load .env file
	// In production, variables are usually set directly and the file is absent.
	envErr := godotenv.Load()

	app := &cli.App{
		Name:   "foodgram",
		Usage:  "recipe sharing API",
		Action: serveCommand,
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "run the HTTP API",
				Action: serveCommand,
			},
			{
				Name:   "migrate",
				Usage:  "apply pending database migrations",
				Action: migrateCommand,
			},
			{
				Name:  "load-ingredients",
				Usage: "insert reference ingredients, skipping ones that already exist",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "file",
						Aliases:  []string{"f"},
						Usage:    "path to a .json or .csv ingredient file",
						Required: true,
					},
				},
				Action: loadIngredientsCommand,
			},
		},
		Before: func(c *cli.Context) error {
			if envErr != nil && !os.IsNotExist(envErr) {
				return fmt.Errorf("failed to load .env: %w", envErr)
			}
			return nil
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// bootstrap loads configuration and builds the process logger.
func bootstrap() (*config.AppConfig, zerolog.Logger, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, zerolog.Nop(), err
	}
	logger := logging.New(cfg.Log.Level, cfg.Log.Format, os.Stderr)
	return cfg, logger, nil
}

func serveCommand(c *cli.Context) error {
	cfg, logger, err := bootstrap()
	if err != nil {
		return err
	}

	// `signal.NotifyContext` cancels ctx on Ctrl+C or SIGTERM; the server shuts down
	// gracefully when that happens.
	ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return runServer(ctx, cfg, logger)
}

func migrateCommand(_ *cli.Context) error {
	cfg, logger, err := bootstrap()
	if err != nil {
		return err
	}
	return db.RunMigrations(db.DSN(cfg.DBPools.ImportPool), cfg.App.MigrationsPath, logger)
}

func loadIngredientsCommand(c *cli.Context) error {
	cfg, logger, err := bootstrap()
	if err != nil {
		return err
	}

	path := c.String("file")
	items, err := catalog.ReadIngredientsFile(path)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(c.Context)
	defer cancel()

	// Reference data goes through the import pool's DSN with a small dedicated pool.
	pool, err := db.NewPool(ctx, db.DSN(cfg.DBPools.ImportPool))
	if err != nil {
		return err
	}
	defer pool.Close()

	service := catalog.NewService(catalog.NewPgStore(pool), nil)
	inserted, err := service.LoadIngredients(ctx, items)
	if err != nil {
		return err
	}
	logger.Info().
		Str("file", path).
		Int("read", len(items)).
		Int64("inserted", inserted).
		Msg("ingredients loaded")
	return nil
}
