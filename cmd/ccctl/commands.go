package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"

	"github.com/atharvakonge/cash-or-crash/internal/auth"
	"github.com/atharvakonge/cash-or-crash/internal/db"
	"github.com/atharvakonge/cash-or-crash/internal/models"
	"github.com/atharvakonge/cash-or-crash/internal/storage"
)

var errNoDSN = errors.New("no database: set DATABASE_URL or pass -database")

// openPostgres opens the store behind dsn. The caller closes it.
func openPostgres(ctx context.Context, dsn string) (*storage.PostgresStore, error) {
	if dsn == "" {
		return nil, errNoDSN
	}
	conn, err := db.Open(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return storage.NewPostgresStore(conn), nil
}

type migrateCmd struct {
	dsn string
}

func (*migrateCmd) Name() string     { return "migrate" }
func (*migrateCmd) Synopsis() string { return "apply or revert the database schema" }
func (*migrateCmd) Usage() string {
	return `ccctl migrate [-database <url>] up|down

  "up" applies every pending migration. "down" drops the whole schema,
  ledger included.
`
}

func (c *migrateCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.dsn, "database", c.dsn, "PostgreSQL connection URL (defaults to DATABASE_URL).")
}

func (c *migrateCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		f.Usage()
		return subcommands.ExitUsageError
	}
	if c.dsn == "" {
		fmt.Fprintln(os.Stderr, errNoDSN)
		return subcommands.ExitFailure
	}

	var err error
	switch f.Arg(0) {
	case "up":
		err = storage.MigrateUp(c.dsn)
	case "down":
		err = storage.MigrateDown(c.dsn)
	default:
		fmt.Fprintf(os.Stderr, "unknown direction %q, want up or down\n", f.Arg(0))
		return subcommands.ExitUsageError
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	fmt.Printf("migrate %s: done\n", f.Arg(0))
	return subcommands.ExitSuccess
}

type seedCmd struct {
	dsn string
}

func (*seedCmd) Name() string     { return "seed" }
func (*seedCmd) Synopsis() string { return "insert the starting companies, currencies and teams" }
func (*seedCmd) Usage() string {
	return `ccctl seed [-database <url>]

  Inserts the default market and team roster. Rows that already exist are
  left alone, so seed can be rerun safely.
`
}

func (c *seedCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.dsn, "database", c.dsn, "PostgreSQL connection URL (defaults to DATABASE_URL).")
}

func (c *seedCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	store, err := openPostgres(ctx, c.dsn)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	defer store.Close()

	if err := storage.Seed(ctx, store); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	teams, err := store.ListTeams(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	fmt.Printf("seed: done, %d teams\n", len(teams))
	return subcommands.ExitSuccess
}

type adminPasswordCmd struct {
	dsn      string
	fallback string
}

func (*adminPasswordCmd) Name() string     { return "set-admin-password" }
func (*adminPasswordCmd) Synopsis() string { return "store a new admin password" }
func (*adminPasswordCmd) Usage() string {
	return `ccctl set-admin-password [-database <url>] <password>

  Stores the bcrypt hash of <password> in the settings table. It takes
  precedence over ADMIN_PASSWORD on every server sharing the database.
`
}

func (c *adminPasswordCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.dsn, "database", c.dsn, "PostgreSQL connection URL (defaults to DATABASE_URL).")
}

func (c *adminPasswordCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		f.Usage()
		return subcommands.ExitUsageError
	}
	store, err := openPostgres(ctx, c.dsn)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	defer store.Close()

	if err := auth.NewService(store, c.fallback).UpdateAdminPassword(ctx, f.Arg(0)); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	// UpdateAdminPassword only logs a failed write.
	if _, ok, err := store.GetSetting(ctx, models.SettingAdminPassword); err != nil || !ok {
		fmt.Fprintln(os.Stderr, "admin password was not persisted:", err)
		return subcommands.ExitFailure
	}
	fmt.Println("admin password updated")
	return subcommands.ExitSuccess
}
