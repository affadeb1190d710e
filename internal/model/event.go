package model

import "time"

type EventKind string

const (
	EventNewProduct    EventKind = "new_product"
	EventPriceDrop     EventKind = "price_drop"
	EventPriceIncrease EventKind = "price_increase"
	EventBackInStock   EventKind = "back_in_stock"
	EventOutOfStock    EventKind = "out_of_stock"
	EventLowStock      EventKind = "low_stock"
	EventScrapeSummary EventKind = "scrape_summary"
	EventTopPriceDrops EventKind = "top_price_drops"
)

// Event is a notification handed to the Notifier. Item events fill the
// product fields; summary events carry Report or Drops instead.
type Event struct {
	Kind       EventKind
	ExternalID int64
	Name       string
	URL        string
	OldPrice   float64
	NewPrice   float64
	TotalStock int
	Report     *Report
	Drops      []PriceChange
}

// PriceChange is recorded for every non-new item whose price moved beyond
// the tolerance.
type PriceChange struct {
	ProductID int64   `json:"productId"`
	Name      string  `json:"name"`
	OldPrice  float64 `json:"oldPrice"`
	NewPrice  float64 `json:"newPrice"`
	Change    float64 `json:"change"`
}

// ItemError is a per-item or per-category failure kept in the report.
// Exactly one of ProductID or CategoryID is set.
type ItemError struct {
	ProductID  int64  `json:"productId,omitempty"`
	CategoryID int64  `json:"categoryId,omitempty"`
	Error      string `json:"error"`
}

// Report is the merged outcome of a ScrapeAll call.
type Report struct {
	RunID               string        `json:"runId"`
	StartedAt           time.Time     `json:"startedAt"`
	Duration            time.Duration `json:"duration"`
	CategoriesProcessed int           `json:"categoriesProcessed"`
	ProductsFound       int           `json:"productsFound"`
	ProductsNew         int           `json:"productsNew"`
	ProductsUpdated     int           `json:"productsUpdated"`
	PriceChanges        []PriceChange `json:"priceChanges"`
	Errors              []ItemError   `json:"errors"`
}

// Drops and Increases count the price changes by direction.
func (r *Report) Drops() int {
	n := 0
	for _, c := range r.PriceChanges {
		if c.Change < 0 {
			n++
		}
	}
	return n
}

func (r *Report) Increases() int {
	n := 0
	for _, c := range r.PriceChanges {
		if c.Change > 0 {
			n++
		}
	}
	return n
}
