package model

import "strings"

// CatalogItem is one product as returned by the source listing API. Items are
// built fresh on every fetch and never mutated afterwards.
type CatalogItem struct {
	ExternalID   int64
	StockCode    string
	Barcode      string
	Name         string
	Brand        string
	URL          string
	ImageURL     string
	ListPrice    float64
	SellPrice    float64
	DiscountRate float64
	InStock      bool
	TotalStock   int
	VariantCount int
	Variants     []Variant
}

// Variant is a single size/stock cell of a product's variant breakdown. Group
// is the source's variant group label; it is informational only.
type Variant struct {
	Group       string
	Size        string
	StockAmount int
}

// ColorCode returns the second segment of a "BASE-COLOR-..." stock code, or ""
// when the code carries no color segment.
func ColorCode(stockCode string) string {
	parts := strings.Split(stockCode, "-")
	if len(parts) < 2 {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// Page is one listing page as fetched. Rejected holds the products the
// source returned that could not be mapped to a CatalogItem.
type Page struct {
	Number   int
	Items    []CatalogItem
	Rejected []ItemError
}

// Empty reports whether the source returned no products at all. A page whose
// products were all rejected is not empty.
func (p Page) Empty() bool {
	return len(p.Items) == 0 && len(p.Rejected) == 0
}

// CategoryRef identifies a category to sweep.
type CategoryRef struct {
	CategoryID int64  `json:"categoryId"`
	Slug       string `json:"slug"`
	Name       string `json:"name"`
}

// DisplayName falls back to the slug when the category has no name.
func (c CategoryRef) DisplayName() string {
	if c.Name != "" {
		return c.Name
	}
	return c.Slug
}
