// Package query implements the list view pipeline over the in-memory record
// set: search and category filtering, sorting, pagination, the view state
// that ties them together and the CSV export.
//
// Every function is pure. Inputs are never modified; results are new slices.
package query

import (
	"strings"

	"oro/internal/core"
)

// CategoryFilter restricts the list to one category, or none for All.
type CategoryFilter string

const All CategoryFilter = "all"

// ParseCategoryFilter maps "Gold"/"Silver" (any case) to a filter; anything
// else means All.
func ParseCategoryFilter(s string) CategoryFilter {
	if c, err := core.ParseCategory(s); err == nil {
		return CategoryFilter(c)
	}
	return All
}

func (f CategoryFilter) matches(c core.Category) bool {
	return f == All || f == "" || core.Category(f) == c
}

// Filter keeps the records matching both the search term and the category
// filter, preserving input order.
//
// A record matches the search when the term is empty, or is a
// case-insensitive substring of the notes or the category, or a substring of
// the amount's decimal representation.
func Filter(records []core.Investment, search string, category CategoryFilter) []core.Investment {
	out := make([]core.Investment, 0, len(records))
	term := strings.ToLower(search)
	for _, r := range records {
		if !category.matches(r.Category) {
			continue
		}
		if term != "" && !matchesSearch(r, search, term) {
			continue
		}
		out = append(out, r)
	}
	return out
}

func matchesSearch(r core.Investment, raw, lower string) bool {
	return strings.Contains(strings.ToLower(r.Notes), lower) ||
		strings.Contains(r.Amount.String(), raw) ||
		strings.Contains(strings.ToLower(string(r.Category)), lower)
}
