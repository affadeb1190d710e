package reconcile

import (
	"slices"

	"avvatracker/internal/model"
)

// TopPriceDrops returns up to n changes with the most negative Change,
// keeping report order between equal changes.
func TopPriceDrops(changes []model.PriceChange, n int) []model.PriceChange {
	if n <= 0 {
		return nil
	}
	var drops []model.PriceChange
	for _, c := range changes {
		if c.Change < 0 {
			drops = append(drops, c)
		}
	}
	slices.SortStableFunc(drops, func(a, b model.PriceChange) int {
		switch {
		case a.Change < b.Change:
			return -1
		case a.Change > b.Change:
			return 1
		}
		return 0
	})
	if len(drops) > n {
		drops = drops[:n]
	}
	return drops
}
