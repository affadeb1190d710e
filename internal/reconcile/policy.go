package reconcile

import (
	"github.com/shopspring/decimal"

	"avvatracker/internal/config"
	"avvatracker/internal/model"
)

// Policy decides which notifications an item's reconciliation produces.
type Policy struct {
	NotifyNewProducts    bool
	NotifyPriceDrops     bool
	NotifyPriceIncreases bool
	NotifyStockChanges   bool
	// PriceDropThreshold is the minimum drop, in percent, for a PriceDrop.
	PriceDropThreshold float64
	// LowStockThreshold enables LowStock alerts when positive.
	LowStockThreshold int
}

func DefaultPolicy() Policy {
	return Policy{
		NotifyPriceDrops:   true,
		NotifyStockChanges: true,
		PriceDropThreshold: 5,
	}
}

func PolicyFromConfig(cfg config.ScrapeConfig) Policy {
	return Policy{
		NotifyNewProducts:    cfg.NotifyNewProducts,
		NotifyPriceDrops:     cfg.NotifyPriceDrops,
		NotifyPriceIncreases: cfg.NotifyPriceIncreases,
		NotifyStockChanges:   cfg.NotifyStockChanges,
		PriceDropThreshold:   cfg.PriceDropThreshold,
		LowStockThreshold:    cfg.LowStockThreshold,
	}
}

// Decide returns the events for one item in dispatch order: new product,
// price event, stock event, low stock.
func (p Policy) Decide(item model.CatalogItem, d Detection) []model.Event {
	var events []model.Event
	base := model.Event{
		ExternalID: item.ExternalID,
		Name:       item.Name,
		URL:        item.URL,
		OldPrice:   d.OldPrice,
		NewPrice:   d.NewPrice,
		TotalStock: item.TotalStock,
	}
	with := func(kind model.EventKind) model.Event {
		ev := base
		ev.Kind = kind
		return ev
	}

	if d.IsNew {
		if p.NotifyNewProducts {
			events = append(events, with(model.EventNewProduct))
		}
		return events
	}

	switch {
	case d.PriceDecreased():
		if p.NotifyPriceDrops && DropPercent(d.OldPrice, d.NewPrice).GreaterThanOrEqual(decimal.NewFromFloat(p.PriceDropThreshold)) {
			events = append(events, with(model.EventPriceDrop))
		}
	case d.PriceIncreased():
		if p.NotifyPriceIncreases {
			events = append(events, with(model.EventPriceIncrease))
		}
	}

	if p.NotifyStockChanges {
		switch d.Stock {
		case StockBecameInStock:
			events = append(events, with(model.EventBackInStock))
		case StockBecameOutOfStock:
			events = append(events, with(model.EventOutOfStock))
		}
	}

	if p.LowStockThreshold > 0 && item.InStock &&
		item.TotalStock <= p.LowStockThreshold && d.PrevTotalStock > p.LowStockThreshold {
		events = append(events, with(model.EventLowStock))
	}

	return events
}

// DropPercent is (old-new)/old*100, or zero when old is not positive.
func DropPercent(oldPrice, newPrice float64) decimal.Decimal {
	if oldPrice <= 0 {
		return decimal.Zero
	}
	o := decimal.NewFromFloat(oldPrice)
	return o.Sub(decimal.NewFromFloat(newPrice)).Div(o).Mul(decimal.NewFromInt(100))
}
