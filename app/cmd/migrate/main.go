package main

import (
	"context"
	"embed"
	"flag"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/sua-a1/cram-app-sub001/app/config"
	"github.com/sua-a1/cram-app-sub001/app/utils/database"
	"github.com/sua-a1/cram-app-sub001/app/utils/logger"
	"github.com/sua-a1/cram-app-sub001/app/utils/migration"
)

//go:embed migrations
var migrationsFS embed.FS

func main() {
	var (
		command = flag.String("command", "up", "Migration command (up, down, status)")
		steps   = flag.String("steps", "0", "Number of steps for down migration")
		verbose = flag.Bool("verbose", false, "Enable verbose logging")
	)
	flag.Parse()

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		slog.Warn("Could not load .env file", "error", err)
	}

	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "info"
	}
	if *verbose {
		logLevel = "debug"
	}

	appLogger, err := logger.New(logLevel)
	if err != nil {
		slog.Error("Failed to initialize logger", "error", err)
		os.Exit(1)
	}

	dbCfg, err := config.LoadDatabase()
	if err != nil {
		appLogger.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbConn, err := database.NewConnection(ctx, dbCfg, appLogger)
	if err != nil {
		appLogger.Error("Failed to create database connection", "error", err)
		os.Exit(1)
	}
	defer dbConn.Close()

	sub, err := fs.Sub(migrationsFS, "migrations")
	if err != nil {
		appLogger.Error("Failed to open embedded migrations", "error", err)
		os.Exit(1)
	}
	migrator := migration.NewMigrator(dbConn.DB(), appLogger, sub)

	if err := run(ctx, migrator, appLogger, *command, *steps); err != nil {
		appLogger.Error("Migration failed", "command", *command, "error", err)
		dbConn.Close()
		os.Exit(1)
	}
}

func run(ctx context.Context, migrator *migration.Migrator, log *slog.Logger, command, steps string) error {
	switch command {
	case "up":
		if err := migrator.Up(ctx); err != nil {
			return err
		}
		log.Info("All migrations applied successfully")

	case "down":
		stepCount, err := strconv.Atoi(steps)
		if err != nil {
			return fmt.Errorf("invalid steps value %q: %w", steps, err)
		}
		if stepCount <= 0 {
			stepCount = 1
		}
		for i := 0; i < stepCount; i++ {
			if err := migrator.Down(ctx); err != nil {
				return fmt.Errorf("step %d: %w", i+1, err)
			}
		}
		log.Info("Migrations rolled back successfully", "steps", stepCount)

	case "status":
		states, err := migrator.Status(ctx)
		if err != nil {
			return err
		}
		for _, s := range states {
			if s.Applied {
				log.Info("Migration applied", "version", s.Version, "name", s.Name, "applied_at", s.Timestamp.Format(time.RFC3339))
			} else {
				log.Info("Migration pending", "version", s.Version, "name", s.Name)
			}
		}

	default:
		fmt.Println("Available commands: up, down, status")
		return fmt.Errorf("unknown command: %s", command)
	}
	return nil
}
