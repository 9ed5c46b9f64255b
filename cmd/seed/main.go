package main

import (
	"context"
	"flag"
	"log"
	"os"
	"time"

	"aguas-del-valle/internal/app"
	"aguas-del-valle/internal/config"
	"aguas-del-valle/internal/db"
	"aguas-del-valle/internal/seed"
)

func main() {
	var file string
	flag.StringVar(&file, "file", "", "YAML fixtures to load instead of the built-in sample data")
	flag.Parse()

	logger := log.New(os.Stdout, "[seed] ", log.LstdFlags|log.LUTC|log.Lshortfile)
	if err := config.LoadDotEnv(); err != nil {
		logger.Fatalf("load .env: %v", err)
	}
	cfg := config.FromEnv()

	fixtures, err := loadFixtures(file)
	if err != nil {
		logger.Fatalf("load fixtures: %v", err)
	}

	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg.DBConnString, cfg.DBMaxConns)
	if err != nil {
		logger.Fatalf("connect db: %v", err)
	}
	defer pool.Close()

	services, err := app.Build(pool, cfg, logger)
	if err != nil {
		logger.Fatalf("init services: %v", err)
	}

	res, err := seed.Apply(ctx, seed.Services{
		Customers: services.Customers,
		Readings:  services.Readings,
		Invoices:  services.Invoices,
		Notices:   services.Notices,
	}, fixtures, time.Now(), logger)
	if err != nil {
		logger.Fatalf("seed apply: %v", err)
	}

	logger.Printf("seed applied: %d customers (%d skipped), %d readings, %d invoices, %d notices",
		res.Customers, res.Skipped, res.Readings, res.Invoices, res.Notices)
}

func loadFixtures(path string) (*seed.Fixtures, error) {
	if path == "" {
		return seed.Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return seed.Parse(data)
}
