package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/snackwatch/konbini-crawler/internal/config"
	"github.com/snackwatch/konbini-crawler/internal/database"
)

// Ad hoc database inspection: per-brand product counts and recent crawl
// history. Read-only.
func main() {
	runLimit := flag.Int("runs", 5, "recent runs to show per brand")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := database.New(ctx, database.Config{
		Host:     cfg.Database.Host,
		Port:     cfg.Database.Port,
		User:     cfg.Database.User,
		Password: cfg.Database.Password,
		Database: cfg.Database.Name,
		MaxConns: cfg.Database.MaxConns,
		MinConns: cfg.Database.MinConns,
	})
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	brands, err := db.ListBrands(ctx)
	if err != nil {
		logger.Error("failed to list brands", "error", err)
		os.Exit(1)
	}

	fmt.Printf("%d brands configured\n\n", len(brands))

	for _, brand := range brands {
		count, err := db.CountProductsByBrand(ctx, brand.ID)
		if err != nil {
			logger.Error("failed to count products", "error", err, "brand", brand.Slug)
			continue
		}

		fmt.Printf("%s (%s): %d products\n", brand.Name, brand.Slug, count)

		runs, err := db.GetRecentRuns(ctx, brand.ID, *runLimit)
		if err != nil {
			logger.Error("failed to load runs", "error", err, "brand", brand.Slug)
			continue
		}

		for _, run := range runs {
			status := "ok"
			if !run.Success {
				status = "FAILED: " + run.Error
			}
			fmt.Printf("  %s  %3d products  %5dms  %s\n",
				run.ScrapedAt.Format(time.RFC3339), run.ProductsCount, run.ExecutionTimeMs, status)
		}
		fmt.Println()
	}
}
