package migrate_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestItemPhotosMigrationContainsConstraints(t *testing.T) {
	matches, err := filepath.Glob(filepath.Join("migrations", "*_create_item_photos.sql"))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) == 0 {
		t.Fatalf("no item photos migration file found")
	}

	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}
	content := string(data)

	checks := []string{
		"CREATE TABLE IF NOT EXISTS item_photos",
		"FOREIGN KEY (item_id) REFERENCES items(id) ON DELETE CASCADE",
		"FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE",
		"CHECK ((item_id IS NULL) <> (user_id IS NULL))",
		"DROP TABLE IF EXISTS item_photos",
	}
	for _, check := range checks {
		if !strings.Contains(content, check) {
			t.Fatalf("item photos migration missing %q", check)
		}
	}
}

func TestMigrationsHaveGooseHeaders(t *testing.T) {
	matches, err := filepath.Glob(filepath.Join("migrations", "*.sql"))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) == 0 {
		t.Fatalf("no migration files found")
	}
	for _, path := range matches {
		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("read %s: %v", path, err)
		}
		content := string(data)
		if !strings.Contains(content, "-- +goose Up") || !strings.Contains(content, "-- +goose Down") {
			t.Fatalf("%s missing goose headers", path)
		}
	}
}
