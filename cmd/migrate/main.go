package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"hirehub.dev/internal/migrate"
	"hirehub.dev/internal/obs"
)

const usage = "usage: migrate [flags] up|down|seed|status"

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "hirehub-migrate: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	_ = godotenv.Load()

	fs := flag.NewFlagSet("migrate", flag.ContinueOnError)
	dsn := fs.String("dsn", os.Getenv("HIREHUB_PG_DSN"), "PostgreSQL DSN (default $HIREHUB_PG_DSN)")
	migrationsDir := fs.String("migrations", "", "directory of *.up.sql / *.down.sql files; the embedded schema when empty")
	seedsDir := fs.String("seeds", "", "directory of *.sql seed files")
	timeout := fs.Duration("timeout", 30*time.Second, "overall deadline")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *dsn == "" {
		return errors.New("missing DSN: provide via -dsn or HIREHUB_PG_DSN")
	}
	if fs.NArg() != 1 {
		return errors.New(usage)
	}
	cmd := fs.Arg(0)

	logger, err := obs.NewLogger(os.Getenv("HIREHUB_LOG_LEVEL"), "console")
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	db, err := sql.Open("pgx", *dsn)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer db.Close()

	var opts []migrate.Option
	if *migrationsDir != "" {
		opts = append(opts, migrate.WithMigrations(os.DirFS(*migrationsDir)))
	}
	if *seedsDir != "" {
		opts = append(opts, migrate.WithSeeds(os.DirFS(*seedsDir)))
	}
	mgr := migrate.NewManager(db, opts...)

	switch cmd {
	case "up":
		err = mgr.Up(ctx)
	case "down":
		err = mgr.Down(ctx)
		if errors.Is(err, migrate.ErrNothingApplied) {
			logger.Info("nothing to roll back")
			return nil
		}
	case "seed":
		err = mgr.Seed(ctx)
	case "status":
		history, serr := mgr.Status(ctx)
		if serr != nil {
			return fmt.Errorf("status: %w", serr)
		}
		for _, name := range history {
			fmt.Println(name)
		}
		return nil
	default:
		return fmt.Errorf("unknown command %q; %s", cmd, usage)
	}
	if err != nil {
		return fmt.Errorf("%s: %w", cmd, err)
	}
	logger.Info("migrate finished", zap.String("command", cmd))
	return nil
}
