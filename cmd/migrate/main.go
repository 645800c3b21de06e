// Command migrate drives Goose schema migrations against the configured
// database. It also supports offline commands (create, validate) that
// never touch a connection.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/sibusisodev/campusmart-backend/pkg/config"
	"github.com/sibusisodev/campusmart-backend/pkg/db"
	"github.com/sibusisodev/campusmart-backend/pkg/logger"
	"github.com/sibusisodev/campusmart-backend/pkg/migrate"
)

type migrateFlags struct {
	cmd     string
	dir     string
	name    string
	version string
}

func main() {
	var flags migrateFlags
	flag.StringVar(&flags.cmd, "cmd", "up", "migration command: up|down|status|version|create|validate")
	flag.StringVar(&flags.dir, "dir", migrate.DefaultDir, "goose migrations directory")
	flag.StringVar(&flags.name, "name", "", "migration name (for create)")
	flag.StringVar(&flags.version, "version", "", "target version (YYYYMMDDHHMMSS) for -cmd=version")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fatalf("loading config: %v", err)
	}

	logg := logger.New(logger.Options{
		ServiceName: "migrate",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env": cfg.App.Env,
		"cmd": flags.cmd,
		"dir": flags.dir,
	})

	if runOffline(flags) {
		return
	}

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		logg.Error(ctx, "connecting to database", err)
		os.Exit(1)
	}
	defer dbClient.Close()

	sqlDB, err := dbClient.DB().DB()
	if err != nil {
		logg.Error(ctx, "unwrapping sql.DB", err)
		os.Exit(1)
	}

	logg.Info(ctx, "migrate ready")

	switch flags.cmd {
	case "up", "down", "status":
		if err := migrate.Run(ctx, sqlDB, flags.dir, flags.cmd); err != nil {
			fatalf("goose %s failed: %v", flags.cmd, err)
		}
	case "version":
		if flags.version == "" {
			fatalf("missing -version for version command")
		}
		if err := migrate.MigrateToVersion(ctx, sqlDB, flags.dir, flags.version); err != nil {
			fatalf("goose version migrate failed: %v", err)
		}
	default:
		fatalf("unknown -cmd value: %s", flags.cmd)
	}
}

// runOffline handles the commands that operate purely on the migrations
// directory. Returns true when the command was handled.
func runOffline(flags migrateFlags) bool {
	switch flags.cmd {
	case "create":
		if flags.name == "" {
			fatalf("missing -name for create")
		}
		path, err := migrate.CreateSQLMigration(flags.dir, flags.name)
		if err != nil {
			fatalf("failed to create migration: %v", err)
		}
		fmt.Println("created migration:", path)
		return true
	case "validate":
		if err := migrate.ValidateDir(flags.dir); err != nil {
			fatalf("migration validation failed: %v", err)
		}
		fmt.Println("migration validation passed")
		return true
	}
	return false
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
