// Command musiclist-admin prepares the database and manages administrator accounts.
//
// Usage:
//
//	musiclist-admin initdb [-drop]
//	musiclist-admin admin -username NAME -password SECRET
package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/lib/pq"

	"musiclist/internal/app/users"
	"musiclist/internal/auth"
	"musiclist/internal/config"
	"musiclist/internal/logging"
	"musiclist/internal/migrations"
	"musiclist/internal/store"
)

func main() {
	cfg, err := config.LoadAdmin()
	if err != nil {
		logging.Fatal(err, "load configuration")
	}
	logging.SetGlobalLogger(logging.New(logging.Config{Level: cfg.Logging.Level, Format: cfg.Logging.Format}))

	if err := run(context.Background(), cfg, os.Args[1:], os.Stderr); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(2)
		}
		logging.Fatal(err, "musiclist-admin failed")
	}
}

func run(ctx context.Context, cfg *config.Config, args []string, stderr io.Writer) error {
	if len(args) == 0 {
		usage(stderr)
		return flag.ErrHelp
	}
	if cfg.Storage != config.StoragePostgres {
		return fmt.Errorf("admin commands need STORAGE_DRIVER=%s, got %q", config.StoragePostgres, cfg.Storage)
	}

	switch args[0] {
	case "initdb":
		return initDB(ctx, cfg, args[1:], stderr)
	case "admin":
		return createAdmin(ctx, cfg, args[1:], stderr)
	default:
		usage(stderr)
		return fmt.Errorf("unknown command %q", args[0])
	}
}

func usage(w io.Writer) {
	fmt.Fprintln(w, "usage: musiclist-admin initdb [-drop]")
	fmt.Fprintln(w, "       musiclist-admin admin -username NAME -password SECRET")
}

func initDB(ctx context.Context, cfg *config.Config, args []string, stderr io.Writer) error {
	fs := flag.NewFlagSet("initdb", flag.ContinueOnError)
	fs.SetOutput(stderr)
	drop := fs.Bool("drop", false, "drop every table before migrating")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if err := migrations.Init(cfg.Database.Driver, cfg.Database.URL, *drop); err != nil {
		return err
	}
	version, _, err := migrations.Version(cfg.Database.Driver, cfg.Database.URL)
	if err != nil {
		return err
	}
	logging.WithContext(ctx).Info().Bool("dropped", *drop).Uint("version", version).Msg("database initialized")
	return nil
}

func createAdmin(ctx context.Context, cfg *config.Config, args []string, stderr io.Writer) error {
	fs := flag.NewFlagSet("admin", flag.ContinueOnError)
	fs.SetOutput(stderr)
	username := fs.String("username", "", "administrator username")
	password := fs.String("password", "", "administrator password")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *username == "" || *password == "" {
		fs.Usage()
		return errors.New("both -username and -password are required")
	}

	db, err := sql.Open(cfg.Database.Driver, cfg.Database.URL)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	svc := users.New(store.New(db), auth.NewBcryptHasher(cfg.Security.BcryptCost))
	id, err := svc.CreateAdmin(ctx, *username, *password)
	if err != nil {
		return fmt.Errorf("create admin %q: %w", *username, err)
	}
	logging.WithContext(ctx).Info().Int64("user_id", id).Str("username", *username).Msg("administrator created")
	return nil
}
