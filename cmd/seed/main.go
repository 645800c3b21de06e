package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"gorm.io/gorm"

	"github.com/sibusisodev/campusmart-backend/pkg/config"
	"github.com/sibusisodev/campusmart-backend/pkg/db"
	"github.com/sibusisodev/campusmart-backend/pkg/db/models"
	"github.com/sibusisodev/campusmart-backend/pkg/logger"
	"github.com/sibusisodev/campusmart-backend/pkg/migrate"
)

// initialCategories is the browse taxonomy every environment starts with.
// Seeding is idempotent: rows are matched by name and never duplicated.
var initialCategories = []models.Category{
	{Name: "textbooks", Description: "Academic textbooks and course materials"},
	{Name: "books", Description: "General books and literature"},
	{Name: "electronics", Description: "Laptops, phones, tablets, and electronic devices"},
	{Name: "furniture", Description: "Dorm and apartment furniture"},
	{Name: "study_materials", Description: "Notes, study guides, and academic resources"},
	{Name: "other", Description: "Other miscellaneous items"},
}

func main() {
	ctx := context.Background()
	logg := logger.New(logger.Options{ServiceName: "seed"})

	_ = godotenv.Load()

	cfg, err := config.Load()
	requireResource(ctx, logg, "config", err)

	logg = logger.New(logger.Options{
		ServiceName: "seed",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	requireResource(ctx, logg, "database", err)
	defer dbClient.Close()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(ctx, "failed to run dev migrations", err)
		os.Exit(1)
	}

	ctx = logg.WithFields(ctx, map[string]any{"env": cfg.App.Env})

	created := 0
	err = dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		for _, category := range initialCategories {
			category.IsActive = true
			result := tx.Where("name = ?", category.Name).FirstOrCreate(&category)
			if result.Error != nil {
				return fmt.Errorf("seed category %s: %w", category.Name, result.Error)
			}
			created += int(result.RowsAffected)
		}
		return nil
	})
	if err != nil {
		logg.Error(ctx, "category seed failed", err)
		os.Exit(1)
	}

	logg.Info(logg.WithFields(ctx, map[string]any{
		"created":  created,
		"existing": len(initialCategories) - created,
	}), "category seed complete")
}

func requireResource(ctx context.Context, logg *logger.Logger, resource string, err error) {
	if err == nil {
		return
	}
	logg.Error(ctx, fmt.Sprintf("resource not working: %s", resource), err)
	os.Exit(1)
}
