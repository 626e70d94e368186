package pricing_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"gradedesk/internal/pricing"
)

func TestRoundToStep(t *testing.T) {
	assert.Equal(t, 55.0, pricing.RoundToStep(56.68, 5))
	assert.Equal(t, 60.0, pricing.RoundToStep(57.5, 5))
	assert.Equal(t, 47.23, pricing.RoundToStep(47.23, 0), "step 0 leaves the value alone")
	assert.Equal(t, 47.23, pricing.RoundToStep(47.23, -1))
}

func TestRoundToStepIdempotent(t *testing.T) {
	cases := []struct{ x, step float64 }{
		{56.68, 5}, {47.23, 1}, {0, 5}, {99.999, 0.25}, {12.5, 10},
	}
	for _, tc := range cases {
		once := pricing.RoundToStep(tc.x, tc.step)
		twice := pricing.RoundToStep(once, tc.step)
		assert.Equal(t, once, twice, "round(round(%v,%v)) must equal round(%v,%v)", tc.x, tc.step, tc.x, tc.step)
	}
}

func TestListPrice(t *testing.T) {
	// $47.23 market, 20% above, $5 step: raw 56.676 rounds to 55.
	assert.Equal(t, 55.0, pricing.ListPrice(47.23, 20, 5))
	assert.Equal(t, 0.0, pricing.ListPrice(0, 20, 5))
}

func TestReserve(t *testing.T) {
	assert.Equal(t, 45.0, pricing.Reserve(47.23, pricing.ReserveMatch, 0, 5))
	assert.Equal(t, 25.0, pricing.Reserve(47.23, pricing.ReservePercentage, 50, 5))
	// Unknown strategy falls back to match.
	assert.Equal(t, 45.0, pricing.Reserve(47.23, "whatever", 50, 5))
}

func TestGroupByPrice(t *testing.T) {
	market := map[string]float64{
		"a": 47.23, // -> 55
		"b": 46.00, // -> 55
		"c": 80.00, // -> 95
		"d": 45.90, // -> 55
	}
	groups := pricing.GroupByPrice(market, []string{"a", "b", "c", "d"}, 20, 5)

	assert.Len(t, groups, 2)
	assert.Equal(t, 55.0, groups[0].Price)
	assert.Equal(t, []string{"a", "b", "d"}, groups[0].AssetIDs)
	assert.Equal(t, 95.0, groups[1].Price)
	assert.Equal(t, []string{"c"}, groups[1].AssetIDs)
}
