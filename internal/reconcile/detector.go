package reconcile

import (
	"github.com/shopspring/decimal"

	"avvatracker/internal/model"
)

type StockTransition int

const (
	StockUnchanged StockTransition = iota
	StockBecameInStock
	StockBecameOutOfStock
)

func (s StockTransition) String() string {
	switch s {
	case StockBecameInStock:
		return "became_in_stock"
	case StockBecameOutOfStock:
		return "became_out_of_stock"
	default:
		return "none"
	}
}

// priceTolerance is absolute, in currency units.
var priceTolerance = decimal.New(1, -2)

// Detection is the change verdict for one item against its stored snapshot.
type Detection struct {
	IsNew           bool
	PriceChanged    bool
	OldPrice        float64
	NewPrice        float64
	Stock           StockTransition
	PrevTotalStock  int
	DiscountPercent int
}

// PriceDecreased is true for a detected change to a lower price.
func (d Detection) PriceDecreased() bool {
	return d.PriceChanged && d.NewPrice < d.OldPrice
}

func (d Detection) PriceIncreased() bool {
	return d.PriceChanged && d.NewPrice > d.OldPrice
}

// Delta is NewPrice - OldPrice rounded to cents.
func (d Detection) Delta() float64 {
	return decimal.NewFromFloat(d.NewPrice).Sub(decimal.NewFromFloat(d.OldPrice)).Round(2).InexactFloat64()
}

// Detect compares incoming with the snapshot taken before the upsert.
// previous is nil for an item never seen before.
func Detect(incoming model.CatalogItem, previous *model.Product) Detection {
	d := Detection{
		IsNew:           previous == nil,
		NewPrice:        incoming.SellPrice,
		DiscountPercent: DiscountPercent(incoming.ListPrice, incoming.SellPrice),
	}
	if d.IsNew {
		return d
	}

	d.PrevTotalStock = previous.TotalStock
	if previous.CurrentPrice != nil {
		d.OldPrice = *previous.CurrentPrice
		diff := decimal.NewFromFloat(d.OldPrice).Sub(decimal.NewFromFloat(d.NewPrice)).Abs()
		d.PriceChanged = diff.GreaterThan(priceTolerance)
	}

	switch {
	case !previous.InStock && incoming.InStock:
		d.Stock = StockBecameInStock
	case previous.InStock && !incoming.InStock:
		d.Stock = StockBecameOutOfStock
	}
	return d
}

// DiscountPercent is the rounded percentage off the original price, 0 when
// there is no original price or no discount. It is the single source of the
// discount rate shown and stored; the API's own discount field is ignored.
func DiscountPercent(original, current float64) int {
	if original <= 0 || original <= current {
		return 0
	}
	o := decimal.NewFromFloat(original)
	pct := o.Sub(decimal.NewFromFloat(current)).Div(o).Mul(decimal.NewFromInt(100))
	return int(pct.Round(0).IntPart())
}
