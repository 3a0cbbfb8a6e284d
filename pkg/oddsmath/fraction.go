// Package oddsmath converts exchange decimal prices into the
// conventional fractional notation used on printed racecards.
package oddsmath

// fraction pairs a winnings-per-unit-stake value with its label.
type fraction struct {
	value float64
	label string
}

// fractionTable is the fixed ladder of conventional prices, shortest to
// longest. EVS sits at the centre and doubles as the degenerate-price
// fallback.
var fractionTable = []fraction{
	{0.2, "1/5"}, {0.25, "1/4"}, {0.33, "1/3"}, {0.4, "2/5"}, {0.5, "1/2"}, {0.67, "2/3"},
	{0.75, "3/4"}, {0.8, "4/5"}, {1, "EVS"}, {1.25, "5/4"}, {1.5, "6/4"}, {1.75, "7/4"},
	{2, "2/1"}, {2.5, "5/2"}, {3, "3/1"}, {3.5, "7/2"}, {4, "4/1"}, {4.5, "9/2"},
	{5, "5/1"}, {6, "6/1"}, {7, "7/1"}, {8, "8/1"}, {9, "9/1"}, {10, "10/1"},
	{12, "12/1"}, {14, "14/1"}, {16, "16/1"}, {20, "20/1"}, {25, "25/1"},
	{33, "33/1"}, {40, "40/1"}, {50, "50/1"}, {66, "66/1"}, {100, "100/1"},
}

// DecimalToFraction maps a decimal price to the nearest conventional
// fractional label. Prices at or below 1.0 carry no winnings and come
// back as "EVS". Ties resolve to the earlier table entry, keeping the
// mapping deterministic.
func DecimalToFraction(decimal float64) string {
	if decimal <= 1 {
		return "EVS"
	}

	n := decimal - 1
	best := fractionTable[0]
	minDiff := abs(n - best.value)
	for _, f := range fractionTable[1:] {
		if d := abs(n - f.value); d < minDiff {
			minDiff = d
			best = f
		}
	}
	return best.label
}

func abs(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}
