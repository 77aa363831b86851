package main

import (
	"context"
	"os"
	"time"

	"github.com/AlxM1/aelo/internal/config"
	"github.com/AlxM1/aelo/internal/repository"
	"github.com/AlxM1/aelo/pkg/logger"
)

func main() {
	log := logger.New(logger.Config{Level: "info", Format: "text", Component: "seed", Output: os.Stdout})

	cfg, err := config.LoadDatabase()
	if err != nil {
		logger.Fatal(log, "invalid configuration", "error", err)
	}

	creds := &repository.Credentials{
		Driver:            cfg.DBDriver,
		Host:              cfg.DBHost,
		Port:              cfg.DBPort,
		User:              cfg.DBUser,
		Password:          cfg.DBPassword,
		DBName:            cfg.DBName,
		Path:              cfg.DBPath,
		MigrationsDirPath: cfg.MigrationsPath,
	}
	repo, err := repository.NewRepository(creds)
	if err != nil {
		logger.Fatal(log, "failed to connect to database", "error", err)
	}
	defer repo.Close()

	if err := repo.RunMigrations(creds); err != nil {
		logger.Fatal(log, "failed to run migrations", "error", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	log.Info("starting seed...")
	if err := seed(ctx, repo, log); err != nil {
		logger.Fatal(log, "seed failed", "error", err)
	}
	log.Info("seed completed successfully")
}
