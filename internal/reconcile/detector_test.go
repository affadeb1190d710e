package reconcile

import (
	"testing"

	"avvatracker/internal/model"
)

func stored(price float64, inStock bool, total int) *model.Product {
	return &model.Product{ExternalID: 1, CurrentPrice: &price, InStock: inStock, TotalStock: total}
}

func TestDetect_NewItem(t *testing.T) {
	d := Detect(model.CatalogItem{ExternalID: 1, SellPrice: 100, InStock: true}, nil)
	if !d.IsNew {
		t.Fatal("want IsNew")
	}
	if d.PriceChanged || d.Stock != StockUnchanged {
		t.Fatalf("a new item has no transitions, got %+v", d)
	}
}

func TestDetect_PriceTolerance(t *testing.T) {
	cases := []struct {
		name     string
		old, new float64
		changed  bool
	}{
		{"equal", 100, 100, false},
		{"exactly one cent", 100, 100.01, false},
		{"just over one cent", 100, 100.011, true},
		{"drop", 100, 80, true},
		{"increase", 80, 99.9, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			d := Detect(model.CatalogItem{SellPrice: tc.new, InStock: true}, stored(tc.old, true, 1))
			if d.PriceChanged != tc.changed {
				t.Fatalf("PriceChanged: want %v, got %v", tc.changed, d.PriceChanged)
			}
			if d.OldPrice != tc.old || d.NewPrice != tc.new {
				t.Fatalf("prices: got old=%v new=%v", d.OldPrice, d.NewPrice)
			}
		})
	}
}

func TestDetect_NilStoredPriceIsNoChange(t *testing.T) {
	prev := &model.Product{ExternalID: 1, InStock: true}
	d := Detect(model.CatalogItem{SellPrice: 50, InStock: true}, prev)
	if d.PriceChanged {
		t.Fatal("no stored price must not count as a change")
	}
}

func TestDetect_StockTransitions(t *testing.T) {
	cases := []struct {
		prev, cur bool
		want      StockTransition
	}{
		{true, true, StockUnchanged},
		{false, false, StockUnchanged},
		{true, false, StockBecameOutOfStock},
		{false, true, StockBecameInStock},
	}
	for _, tc := range cases {
		d := Detect(model.CatalogItem{SellPrice: 10, InStock: tc.cur}, stored(10, tc.prev, 3))
		if d.Stock != tc.want {
			t.Errorf("%v -> %v: want %s, got %s", tc.prev, tc.cur, tc.want, d.Stock)
		}
		if d.PrevTotalStock != 3 {
			t.Errorf("PrevTotalStock: want 3, got %d", d.PrevTotalStock)
		}
	}
}

func TestDetection_Delta(t *testing.T) {
	d := Detection{PriceChanged: true, OldPrice: 100, NewPrice: 79.99}
	if got := d.Delta(); got != -20.01 {
		t.Fatalf("want -20.01, got %v", got)
	}
	if !d.PriceDecreased() || d.PriceIncreased() {
		t.Fatal("direction")
	}
}

func TestDiscountPercent(t *testing.T) {
	cases := []struct {
		original, current float64
		want              int
	}{
		{200, 150, 25},
		{100, 66.67, 33},
		{100, 100, 0},
		{100, 120, 0},
		{0, 50, 0},
		{300, 199.99, 33},
		{90, 59.85, 34},
	}
	for _, tc := range cases {
		if got := DiscountPercent(tc.original, tc.current); got != tc.want {
			t.Errorf("DiscountPercent(%v, %v): want %d, got %d", tc.original, tc.current, tc.want, got)
		}
	}
}
