// Command ccctl runs operator tasks against the game database.
package main

import (
	"context"
	"flag"
	"os"
	"path"

	"github.com/google/subcommands"

	"github.com/atharvakonge/cash-or-crash/internal/config"
	"github.com/atharvakonge/cash-or-crash/internal/logger"
)

func main() {
	cfg, _ := config.Load()
	if err := logger.Init("ccctl", cfg.LogLevel); err != nil {
		os.Exit(int(subcommands.ExitFailure))
	}
	defer logger.Sync()

	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))
	commander.Register(commander.HelpCommand(), "")
	commander.Register(commander.FlagsCommand(), "")
	commander.Register(&migrateCmd{dsn: cfg.DatabaseURL}, "database")
	commander.Register(&seedCmd{dsn: cfg.DatabaseURL}, "database")
	commander.Register(&adminPasswordCmd{dsn: cfg.DatabaseURL, fallback: cfg.AdminPassword}, "auth")

	flag.Parse()
	status := commander.Execute(context.Background())
	logger.Sync()
	os.Exit(int(status))
}
