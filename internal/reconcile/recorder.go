package reconcile

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"avvatracker/internal/model"
)

// HistoryRecorder appends price and stock samples only on transitions and
// replaces the variant stock snapshot.
type HistoryRecorder struct {
	Store HistoryStore
	Now   func() time.Time
}

func NewHistoryRecorder(store HistoryStore) *HistoryRecorder {
	return &HistoryRecorder{Store: store, Now: time.Now}
}

// RecordPrice appends a sample unless the latest one has the same price at
// cent precision. It returns nil when nothing was written.
func (r *HistoryRecorder) RecordPrice(ctx context.Context, productID int64, price, originalPrice float64, discountRate int) (*model.PriceSample, error) {
	last, err := r.Store.LastPriceSample(ctx, productID)
	if err != nil {
		return nil, err
	}
	if last != nil && samePrice(last.Price, price) {
		return nil, nil
	}

	s, err := r.Store.AppendPriceSample(ctx, model.PriceSample{
		ProductID:     productID,
		Price:         price,
		OriginalPrice: originalPrice,
		DiscountRate:  float64(discountRate),
		RecordedAt:    r.Now(),
	})
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// RecordStock appends a sample unless the latest one has the same
// (totalStock, inStock) pair.
func (r *HistoryRecorder) RecordStock(ctx context.Context, productID int64, totalStock int, inStock bool) (*model.StockSample, error) {
	last, err := r.Store.LastStockSample(ctx, productID)
	if err != nil {
		return nil, err
	}
	if last != nil && last.TotalStock == totalStock && last.InStock == inStock {
		return nil, nil
	}

	s, err := r.Store.AppendStockSample(ctx, model.StockSample{
		ProductID:  productID,
		TotalStock: totalStock,
		InStock:    inStock,
		RecordedAt: r.Now(),
	})
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// RecordVariants replaces the product's variant stock rows. The color key
// comes from the stock code, not from the variant group label.
func (r *HistoryRecorder) RecordVariants(ctx context.Context, productID int64, stockCode string, variants []model.Variant) error {
	color := model.ColorCode(stockCode)
	now := r.Now()

	rows := make([]model.VariantStock, 0, len(variants))
	for _, v := range variants {
		rows = append(rows, model.VariantStock{
			ProductID:   productID,
			Color:       color,
			Size:        v.Size,
			StockAmount: v.StockAmount,
			RecordedAt:  now,
		})
	}
	return r.Store.ReplaceVariantStock(ctx, productID, rows)
}

func samePrice(a, b float64) bool {
	return decimal.NewFromFloat(a).Round(2).Equal(decimal.NewFromFloat(b).Round(2))
}
