package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"os"

	"bookreviews/internal/platform/logger"
	"bookreviews/internal/platform/postgres"

	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/rs/zerolog"
)

var errUsage = errors.New("usage: migrate -command up|down|status|version|create [-name NAME]")

func main() {
	loadEnvFiles()
	log := logger.New(os.Getenv("APP_ENV"), os.Getenv("LOG_LEVEL"))

	if err := run(log.WithContext(context.Background()), os.Args[1:]); err != nil {
		log.Fatal().Err(err).Msg("migrate failed")
	}
}

func run(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("migrate", flag.ContinueOnError)
	command := fs.String("command", "up", "Migration command: up, down, status, version, create")
	name := fs.String("name", "", "Name for 'create' command")
	if err := fs.Parse(args); err != nil {
		return err
	}

	dir := migrationsDir()
	log := zerolog.Ctx(ctx).With().Str("dir", dir).Str("command", *command).Logger()

	if *command == "create" {
		if *name == "" {
			return fmt.Errorf("name is required for 'create': %w", errUsage)
		}
		if err := goose.Create(nil, dir, *name, "sql"); err != nil {
			return fmt.Errorf("create migration: %w", err)
		}
		log.Info().Str("name", *name).Msg("migration created")
		return nil
	}

	migrate, ok := commands[*command]
	if !ok {
		return fmt.Errorf("unknown command %q: %w", *command, errUsage)
	}

	pool, err := postgres.Open(ctx, databaseDSN())
	if err != nil {
		return err
	}
	defer pool.Close()

	db := stdlib.OpenDBFromPool(pool)
	defer db.Close()

	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}
	if err := migrate(ctx, db, dir); err != nil {
		return fmt.Errorf("%s: %w", *command, err)
	}
	log.Info().Msg("done")
	return nil
}

var commands = map[string]func(ctx context.Context, db *sql.DB, dir string) error{
	"up": func(ctx context.Context, db *sql.DB, dir string) error {
		return goose.UpContext(ctx, db, dir)
	},
	"down": func(ctx context.Context, db *sql.DB, dir string) error {
		return goose.DownContext(ctx, db, dir)
	},
	"status": func(ctx context.Context, db *sql.DB, dir string) error {
		return goose.StatusContext(ctx, db, dir)
	},
	"version": func(ctx context.Context, db *sql.DB, dir string) error {
		return goose.VersionContext(ctx, db, dir)
	},
}
