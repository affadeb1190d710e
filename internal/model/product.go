package model

import "time"

type Category struct {
	ID         int64
	ExternalID int64
	Slug       string
	Name       string
	URL        string
	IsActive   bool
}

// Product is the persisted snapshot of a catalog item, one row per ExternalID.
type Product struct {
	ID            int64
	ExternalID    int64
	StockCode     string
	Barcode       string
	Name          string
	Brand         string
	CategoryID    int64
	URL           string
	ImageURL      string
	CurrentPrice  *float64
	OriginalPrice float64
	DiscountRate  float64
	InStock       bool
	TotalStock    int
	VariantCount  int
	FirstSeenAt   time.Time
	LastSeenAt    time.Time
}

// Price returns the current price, or 0 when it was never recorded.
func (p *Product) Price() float64 {
	if p == nil || p.CurrentPrice == nil {
		return 0
	}
	return *p.CurrentPrice
}

type PriceSample struct {
	ID            int64
	ProductID     int64
	Price         float64
	OriginalPrice float64
	DiscountRate  float64
	RecordedAt    time.Time
}

type StockSample struct {
	ID         int64
	ProductID  int64
	TotalStock int
	InStock    bool
	RecordedAt time.Time
}

type VariantStock struct {
	ProductID   int64
	Color       string
	Size        string
	StockAmount int
	RecordedAt  time.Time
}

// Stats is the repository-wide summary.
type Stats struct {
	TotalProducts     int64 `json:"totalProducts"`
	TotalCategories   int64 `json:"totalCategories"`
	TotalPriceRecords int64 `json:"totalPriceRecords"`
}

// NewProduct maps a fetched item onto the persisted record. FirstSeenAt and
// LastSeenAt are both seenAt; the repository keeps the stored FirstSeenAt on
// update.
func NewProduct(item CatalogItem, categoryID int64, discountRate float64, seenAt time.Time) Product {
	price := item.SellPrice
	return Product{
		ExternalID:    item.ExternalID,
		StockCode:     item.StockCode,
		Barcode:       item.Barcode,
		Name:          item.Name,
		Brand:         item.Brand,
		CategoryID:    categoryID,
		URL:           item.URL,
		ImageURL:      item.ImageURL,
		CurrentPrice:  &price,
		OriginalPrice: item.ListPrice,
		DiscountRate:  discountRate,
		InStock:       item.InStock,
		TotalStock:    item.TotalStock,
		VariantCount:  item.VariantCount,
		FirstSeenAt:   seenAt,
		LastSeenAt:    seenAt,
	}
}
