package core

import "sort"

// CategoryAmount represents an amount aggregated by category name.
type CategoryAmount struct {
	Name   string
	Amount Money
}

// MonthAmount is the total of one calendar month (Month is YYYY-MM).
type MonthAmount struct {
	Month  string
	Amount Money
}

// Summary is the headline view over the whole store.
type Summary struct {
	Total    Money
	Count    int64
	Average  Money
	Earliest Date // zero when the store is empty
	Latest   Date
}

// SortedCategories flattens a totals map into a slice ordered by name.
func SortedCategories(totals map[string]Money) []CategoryAmount {
	out := make([]CategoryAmount, 0, len(totals))
	for name, amt := range totals {
		out = append(out, CategoryAmount{Name: name, Amount: amt})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Share returns the percentage of total carried by part, 0 when total is 0.
func Share(part, total Money) float64 {
	if total.Cents == 0 {
		return 0
	}
	return float64(part.Cents) * 100 / float64(total.Cents)
}
