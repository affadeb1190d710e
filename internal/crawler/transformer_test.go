package crawler

import (
	"errors"
	"testing"
)

func TestToCatalogItem_Defaults(t *testing.T) {
	item, err := ToCatalogItem(AvvaProduct{
		ProductID:        42,
		StockCode:        " A41Y2087-BLK ",
		Name:             "Polo Yaka",
		ProductCartPrice: 799.9,
		TotalStockAmount: -3,
		VariantTypeValues: []AvvaVariantGroup{
			{Name: "Siyah", SubVariantValues: []AvvaSubVariant{{Name: "M", StockAmount: 4}, {Name: "L"}}},
		},
	}, "AVVA")
	if err != nil {
		t.Fatal(err)
	}

	if item.Brand != "AVVA" {
		t.Errorf("want default brand, got %q", item.Brand)
	}
	if item.ListPrice != 799.9 {
		t.Errorf("want list price to fall back to sell price, got %v", item.ListPrice)
	}
	if item.TotalStock != 0 {
		t.Errorf("want negative stock clamped, got %d", item.TotalStock)
	}
	if item.StockCode != "A41Y2087-BLK" {
		t.Errorf("want trimmed stock code, got %q", item.StockCode)
	}
	if len(item.Variants) != 2 || item.Variants[0].Size != "M" || item.Variants[0].StockAmount != 4 {
		t.Errorf("unexpected variants %+v", item.Variants)
	}
}

func TestToCatalogItem_Rejects(t *testing.T) {
	cases := []AvvaProduct{
		{ProductID: 0, ProductCartPrice: 10},
		{ProductID: 3, ProductCartPrice: -1},
	}
	for _, p := range cases {
		if _, err := ToCatalogItem(p, "AVVA"); !errors.Is(err, ErrInvalidItem) {
			t.Errorf("%+v: want ErrInvalidItem, got %v", p, err)
		}
	}
}
