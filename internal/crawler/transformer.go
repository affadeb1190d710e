package crawler

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"avvatracker/internal/model"
)

var ErrInvalidItem = errors.New("invalid catalog item")

// ToCatalogItem maps a wire product onto the typed CatalogItem. Products
// without an id or a usable price are rejected; other missing fields default.
func ToCatalogItem(p AvvaProduct, defaultBrand string) (model.CatalogItem, error) {
	if p.ProductID <= 0 {
		return model.CatalogItem{}, fmt.Errorf("%w: missing productId (stockCode=%q)", ErrInvalidItem, p.StockCode)
	}
	if p.ProductCartPrice < 0 || math.IsNaN(p.ProductCartPrice) {
		return model.CatalogItem{}, fmt.Errorf("%w: product %d has price %v", ErrInvalidItem, p.ProductID, p.ProductCartPrice)
	}

	brand := strings.TrimSpace(p.Brand)
	if brand == "" {
		brand = defaultBrand
	}

	list := p.ProductPriceOriginal
	if list <= 0 {
		list = p.ProductCartPrice
	}

	item := model.CatalogItem{
		ExternalID:   p.ProductID,
		StockCode:    strings.TrimSpace(p.StockCode),
		Barcode:      strings.TrimSpace(p.Barcode),
		Name:         strings.TrimSpace(p.Name),
		Brand:        brand,
		URL:          p.URL,
		ImageURL:     p.ImageThumbPath,
		ListPrice:    list,
		SellPrice:    p.ProductCartPrice,
		DiscountRate: math.Max(p.DiscountRate, 0),
		InStock:      p.InStock,
		TotalStock:   nonNegative(p.TotalStockAmount),
		VariantCount: max(p.VariantCount, 0),
	}

	for _, group := range p.VariantTypeValues {
		for _, sub := range group.SubVariantValues {
			item.Variants = append(item.Variants, model.Variant{
				Group:       group.Name,
				Size:        sub.Name,
				StockAmount: nonNegative(sub.StockAmount),
			})
		}
	}

	return item, nil
}

func nonNegative(v float64) int {
	if v <= 0 || math.IsNaN(v) {
		return 0
	}
	return int(v)
}
