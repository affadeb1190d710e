package reconcile

import (
	"context"
	"testing"
	"time"

	"avvatracker/internal/model"
	"avvatracker/internal/repository"
)

func newTestRecorder() (*HistoryRecorder, *repository.Memory) {
	mem := repository.NewMemory()
	r := NewHistoryRecorder(mem)
	r.Now = func() time.Time { return time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC) }
	return r, mem
}

func TestRecordPrice_DedupAtCentPrecision(t *testing.T) {
	ctx := context.Background()
	r, mem := newTestRecorder()

	steps := []struct {
		price   float64
		written bool
	}{
		{100, true},
		{100, false},
		{100.004, false},
		{100.006, true},
		{90, true},
		{90, false},
	}
	for i, s := range steps {
		got, err := r.RecordPrice(ctx, 1, s.price, 120, 10)
		if err != nil {
			t.Fatal(err)
		}
		if (got != nil) != s.written {
			t.Fatalf("step %d price %v: written=%v, want %v", i, s.price, got != nil, s.written)
		}
	}

	h := mem.PriceHistory(1)
	if len(h) != 3 {
		t.Fatalf("want 3 samples, got %d", len(h))
	}
	if h[0].OriginalPrice != 120 || h[0].DiscountRate != 10 {
		t.Fatalf("sample fields: %+v", h[0])
	}
}

func TestRecordStock_DedupOnPair(t *testing.T) {
	ctx := context.Background()
	r, mem := newTestRecorder()

	r.RecordStock(ctx, 1, 5, true)
	r.RecordStock(ctx, 1, 5, true)
	r.RecordStock(ctx, 1, 4, true)
	r.RecordStock(ctx, 1, 0, false)
	r.RecordStock(ctx, 1, 0, false)

	if got := len(mem.StockHistory(1)); got != 3 {
		t.Fatalf("want 3 samples, got %d", got)
	}
}

func TestRecordVariants_ColorFromStockCode(t *testing.T) {
	ctx := context.Background()
	r, mem := newTestRecorder()

	err := r.RecordVariants(ctx, 1, "A31Y2001-LACIVERT-52", []model.Variant{
		{Group: "Renk", Size: "M", StockAmount: 2},
		{Group: "Renk", Size: "L", StockAmount: 0},
	})
	if err != nil {
		t.Fatal(err)
	}

	rows := mem.VariantStock(1)
	if len(rows) != 2 {
		t.Fatalf("want 2 rows, got %d", len(rows))
	}
	for _, row := range rows {
		if row.Color != "LACIVERT" {
			t.Fatalf("want color LACIVERT, got %q", row.Color)
		}
	}
	if rows[0].Size != "M" || rows[0].StockAmount != 2 {
		t.Fatalf("row 0: %+v", rows[0])
	}
}
