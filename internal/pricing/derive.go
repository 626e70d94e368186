package pricing

import "math"

// RoundToStep rounds x to the nearest multiple of step. step <= 0 leaves x
// untouched. Applying it twice is a no-op.
func RoundToStep(x, step float64) float64 {
	if step <= 0 {
		return x
	}
	return math.Round(x/step) * step
}

// ListPrice derives an asking price from a market value: pctAbove percent on
// top of market, rounded to the nearest multiple of step.
func ListPrice(market, pctAbove, step float64) float64 {
	return RoundToStep(market*(1+pctAbove/100), step)
}

// Reserve strategies.
const (
	ReserveMatch      = "match"      // reserve tracks market value
	ReservePercentage = "percentage" // reserve is pct percent of market value
)

// Reserve derives a reserve price from a market value under the given
// strategy, rounded to the nearest multiple of step. Unknown strategies fall
// back to match.
func Reserve(market float64, strategy string, pct, step float64) float64 {
	switch strategy {
	case ReservePercentage:
		return RoundToStep(market*pct/100, step)
	default:
		return RoundToStep(market, step)
	}
}

// PriceGroup is a set of asset ids that derived to the same list price.
type PriceGroup struct {
	Price    float64
	AssetIDs []string
}

// GroupByPrice buckets assets by identical derived list price so batch adds
// issue one storage write per distinct price. Group order follows first
// appearance, ids keep their input order.
func GroupByPrice(marketByAsset map[string]float64, order []string, pctAbove, step float64) []PriceGroup {
	var groups []PriceGroup
	index := map[float64]int{}
	for _, id := range order {
		p := ListPrice(marketByAsset[id], pctAbove, step)
		i, ok := index[p]
		if !ok {
			i = len(groups)
			index[p] = i
			groups = append(groups, PriceGroup{Price: p})
		}
		groups[i].AssetIDs = append(groups[i].AssetIDs, id)
	}
	return groups
}
