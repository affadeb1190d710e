package reconcile

import (
	"context"
	"time"

	"avvatracker/internal/model"
)

// Repository is the persistence the engine needs. Upserts are idempotent;
// appends are not and rely on the recorder's dedup check.
type Repository interface {
	HistoryStore

	FindByExternalID(ctx context.Context, externalID int64) (*model.Product, error)
	// UpsertProduct inserts or updates by ExternalID and returns the stored
	// row together with the row as it was before the call (nil if new).
	UpsertProduct(ctx context.Context, p model.Product) (stored model.Product, previous *model.Product, err error)
	UpsertCategory(ctx context.Context, c model.Category) (model.Category, error)
	CreateScrapeRun(ctx context.Context, categoryID int64, startedAt time.Time) (model.ScrapeRun, error)
	FinalizeScrapeRun(ctx context.Context, run model.ScrapeRun) error
	GetStats(ctx context.Context) (model.Stats, error)
}

// HistoryStore is the subset used by HistoryRecorder.
type HistoryStore interface {
	LastPriceSample(ctx context.Context, productID int64) (*model.PriceSample, error)
	AppendPriceSample(ctx context.Context, s model.PriceSample) (model.PriceSample, error)
	LastStockSample(ctx context.Context, productID int64) (*model.StockSample, error)
	AppendStockSample(ctx context.Context, s model.StockSample) (model.StockSample, error)
	ReplaceVariantStock(ctx context.Context, productID int64, rows []model.VariantStock) error
}

// Notifier delivers events on a best-effort basis. SendEvent reports
// success and never fails the caller.
type Notifier interface {
	IsEnabled() bool
	SendEvent(ctx context.Context, ev model.Event) bool
}

// Source yields a category's listing page by page, in order.
type Source interface {
	FetchAllPages(ctx context.Context, categoryID int64, fn func(p model.Page) error) error
}
