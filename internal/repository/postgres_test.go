package repository

import (
	"context"
	"os"
	"testing"
	"time"

	"avvatracker/internal/db"
	"avvatracker/internal/model"
)

// Runs against a disposable database named by TEST_DATABASE_URL.
func newTestPostgres(t *testing.T) *PostgresRepository {
	t.Helper()
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	ctx := context.Background()

	sqlDB, err := db.New(url)
	if err != nil {
		t.Fatal(err)
	}
	defer sqlDB.Close()
	if _, err := Migrate(ctx, sqlDB); err != nil {
		t.Fatal(err)
	}
	if _, err := sqlDB.ExecContext(ctx, `TRUNCATE scrape_logs, variant_stocks, stock_history, price_history, products, categories RESTART IDENTITY CASCADE`); err != nil {
		t.Fatal(err)
	}

	pool, err := db.NewPool(ctx, url)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(pool.Close)
	return &PostgresRepository{DB: pool}
}

func TestPostgres_UpsertAndHistory(t *testing.T) {
	repo := newTestPostgres(t)
	ctx := context.Background()
	t0 := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	cat, err := repo.UpsertCategory(ctx, model.Category{ExternalID: 1154, Slug: "gomlek", Name: "Gömlek", IsActive: true})
	if err != nil {
		t.Fatal(err)
	}

	price := 499.99
	p := model.Product{ExternalID: 10, Name: "Oxford", Brand: "AVVA", CategoryID: cat.ID, CurrentPrice: &price, OriginalPrice: 599.99, InStock: true, TotalStock: 4, FirstSeenAt: t0, LastSeenAt: t0}
	stored, prev, err := repo.UpsertProduct(ctx, p)
	if err != nil {
		t.Fatal(err)
	}
	if prev != nil {
		t.Fatalf("want nil previous, got %+v", prev)
	}

	lower := 449.99
	p.CurrentPrice = &lower
	p.FirstSeenAt, p.LastSeenAt = t0.Add(time.Hour), t0.Add(time.Hour)
	again, prev, err := repo.UpsertProduct(ctx, p)
	if err != nil {
		t.Fatal(err)
	}
	if prev == nil || prev.Price() != 499.99 {
		t.Fatalf("previous: %+v", prev)
	}
	if again.ID != stored.ID || !again.FirstSeenAt.Equal(t0) {
		t.Fatalf("upsert changed identity: %+v", again)
	}

	if _, err := repo.AppendPriceSample(ctx, model.PriceSample{ProductID: stored.ID, Price: 449.99, RecordedAt: t0}); err != nil {
		t.Fatal(err)
	}
	last, err := repo.LastPriceSample(ctx, stored.ID)
	if err != nil || last == nil || last.Price != 449.99 {
		t.Fatalf("last price sample: %+v, %v", last, err)
	}

	run, err := repo.CreateScrapeRun(ctx, 1154, t0)
	if err != nil {
		t.Fatal(err)
	}
	done := t0.Add(time.Minute)
	run.Status, run.CompletedAt = model.RunStatusSuccess, &done
	if err := repo.FinalizeScrapeRun(ctx, run); err != nil {
		t.Fatal(err)
	}
	if err := repo.FinalizeScrapeRun(ctx, run); err != ErrRunNotRunning {
		t.Fatalf("want ErrRunNotRunning, got %v", err)
	}

	stats, err := repo.GetStats(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if stats.TotalProducts != 1 || stats.TotalCategories != 1 || stats.TotalPriceRecords != 1 {
		t.Fatalf("stats %+v", stats)
	}
}
