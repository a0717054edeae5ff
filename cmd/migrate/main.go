package main

import (
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"

	_ "github.com/lib/pq"
	"github.com/retreat/backend/internal/infrastructure/config"
	"github.com/retreat/backend/internal/infrastructure/logger"
	"github.com/retreat/backend/internal/infrastructure/migration"
	"github.com/retreat/backend/migrations"
	"go.uber.org/zap"
)

func main() {
	var (
		migrationsDir string
		logLevel      string
	)

	flag.StringVar(&migrationsDir, "path", "", "Read migrations from this directory instead of the embedded set")
	flag.StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	flag.Parse()

	cmd, err := migration.ParseCommand(flag.Args())
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		printUsage()
		os.Exit(2)
	}

	log, err := logger.New(logger.Config{
		Level:      logLevel,
		Format:     "console",
		Output:     "stdout",
		TimeFormat: "2006-01-02 15:04:05",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = log.Sync()
	}()

	var fsys fs.FS = migrations.FS
	opts := []migration.Option{migration.WithLogger(log)}
	if migrationsDir != "" {
		fsys = os.DirFS(migrationsDir)
		opts = append(opts, migration.WithDir(migrationsDir))
	}

	log.Info("Migration CLI started",
		zap.String("command", cmd.Name),
		zap.String("migrations_path", migrationsDir),
	)

	if !cmd.NeedsDatabase() {
		versions, err := migration.Versions(fsys)
		if err != nil {
			log.Fatal("Failed to list migrations", zap.Error(err))
		}
		for _, v := range versions {
			fmt.Println("  -", v)
		}
		return
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration", zap.Error(err))
	}
	if cfg.Database.Driver == "sqlite" {
		log.Fatal("SQL migrations target postgres; sqlite databases are created by the server on startup")
	}

	db, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		log.Fatal("Failed to ping database", zap.Error(err))
	}

	m, err := migration.New(db, opts...)
	if err != nil {
		log.Fatal("Failed to create migrator", zap.Error(err))
	}
	defer m.Close()

	if err := cmd.Run(m); err != nil {
		if errors.Is(err, migration.ErrUsage) {
			printUsage()
		}
		log.Fatal("Migration failed", zap.String("command", cmd.Name), zap.Error(err))
	}
}

func printUsage() {
	fmt.Println(`Retreat ledger database migration tool

Usage:
  migrate [flags] <command> [arguments]

Commands:
  up                Apply all pending migrations
  down              Roll back all migrations
  steps <n>         Apply n migrations (positive=up, negative=down)
  version           Show current migration version
  force <version>   Force set migration version after fixing a dirty state
  list              List available migration versions

Flags:
  -path string        Read migrations from a directory (default: embedded)
  -log-level string   Log level: debug, info, warn, error (default: info)

Environment Variables:
  RETREAT_DATABASE_HOST, RETREAT_DATABASE_PORT, RETREAT_DATABASE_USER,
  RETREAT_DATABASE_PASSWORD, RETREAT_DATABASE_DBNAME, RETREAT_DATABASE_SSLMODE`)
}
