package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"avvatracker/internal/model"
)

func TestLoad_Defaults(t *testing.T) {
	for _, k := range []string{"SCRAPE_DELAY", "PRICE_DROP_THRESHOLD", "NOTIFY_PRICE_DROPS", "NOTIFY_NEW_PRODUCTS", "SOURCE_MAX_RETRIES"} {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}

	cfg := Load()
	if cfg.Source.RequestDelay != 1500*time.Millisecond {
		t.Fatalf("want 1500ms delay, got %v", cfg.Source.RequestDelay)
	}
	if cfg.Source.MaxRetries != 3 {
		t.Fatalf("want 3 retries, got %d", cfg.Source.MaxRetries)
	}
	if cfg.Scrape.PriceDropThreshold != 5 {
		t.Fatalf("want threshold 5, got %v", cfg.Scrape.PriceDropThreshold)
	}
	if !cfg.Scrape.NotifyPriceDrops || cfg.Scrape.NotifyNewProducts || cfg.Scrape.NotifyPriceIncreases {
		t.Fatalf("unexpected notify defaults: %+v", cfg.Scrape)
	}
}

func TestGetEnvDuration(t *testing.T) {
	t.Setenv("X_DELAY", "250")
	if got := getEnvDuration("X_DELAY", time.Second); got != 250*time.Millisecond {
		t.Fatalf("want 250ms, got %v", got)
	}
	t.Setenv("X_DELAY", "2s")
	if got := getEnvDuration("X_DELAY", time.Second); got != 2*time.Second {
		t.Fatalf("want 2s, got %v", got)
	}
	t.Setenv("X_DELAY", "garbage")
	if got := getEnvDuration("X_DELAY", time.Second); got != time.Second {
		t.Fatalf("want fallback, got %v", got)
	}
}

func TestLoadCategories(t *testing.T) {
	path := filepath.Join(t.TempDir(), "categories.json")
	data := `[{"categoryId":1154,"slug":"erkek-t-shirt","name":"T-Shirt"},{"categoryId":0,"slug":"broken"},{"categoryId":77}]`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	cats, err := LoadCategories(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(cats) != 2 {
		t.Fatalf("want 2 categories, got %d", len(cats))
	}
	if cats[1].Slug != "category-77" {
		t.Fatalf("want placeholder slug, got %q", cats[1].Slug)
	}
}

func TestFilterCategories(t *testing.T) {
	var all []model.CategoryRef
	for i := int64(1); i <= 8; i++ {
		all = append(all, model.CategoryRef{CategoryID: i})
	}

	if got := FilterCategories(all, 3, true); len(got) != 1 || got[0].CategoryID != 3 {
		t.Fatalf("id filter: got %+v", got)
	}
	if got := FilterCategories(all, 0, true); len(got) != 5 {
		t.Fatalf("quick: want 5, got %d", len(got))
	}
	if got := FilterCategories(all, 99, false); len(got) != 0 {
		t.Fatalf("unknown id: want none, got %d", len(got))
	}
}
