package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"aguas-del-valle/internal/app"
	"aguas-del-valle/internal/config"
	"aguas-del-valle/internal/db"
	"aguas-del-valle/internal/importer"
)

func main() {
	var filePath string
	flag.StringVar(&filePath, "file", "", "Path to a readings CSV (email,date,previous,current,consumption,notes)")
	flag.Parse()

	if filePath == "" {
		flag.Usage()
		os.Exit(2)
	}

	logger := log.New(os.Stderr, "[importer] ", log.LstdFlags|log.LUTC|log.Lshortfile)
	if err := config.LoadDotEnv(); err != nil {
		logger.Fatalf("load .env: %v", err)
	}
	cfg := config.FromEnv()
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

	f, err := os.Open(filePath)
	if err != nil {
		logger.Fatalf("open file: %v", err)
	}
	defer f.Close()

	imp := importer.NewCSVImporter(f, services.Customers, services.Readings)

	start := time.Now()
	rep, err := imp.Run(ctx)
	if err != nil {
		logger.Fatalf("import failed after %d rows: %v", rep.Imported, err)
	}

	for _, skipped := range rep.Skipped {
		fmt.Printf("skipped %s\n", skipped)
	}
	fmt.Printf("Imported %d readings (%d skipped) in %s\n", rep.Imported, len(rep.Skipped), time.Since(start).Truncate(time.Millisecond))
}
