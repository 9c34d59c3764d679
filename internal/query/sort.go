package query

import (
	"slices"
	"strings"

	"oro/internal/core"
)

type SortKey string

const (
	SortDate     SortKey = "date"
	SortAmount   SortKey = "amount"
	SortCategory SortKey = "category"
)

type Direction string

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

// ParseSortKey accepts date, amount and category ("currency" is an alias).
func ParseSortKey(s string) (SortKey, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "date":
		return SortDate, true
	case "amount":
		return SortAmount, true
	case "category", "currency":
		return SortCategory, true
	}
	return "", false
}

func ParseDirection(s string) (Direction, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "asc":
		return Asc, true
	case "desc":
		return Desc, true
	}
	return "", false
}

// SortOption is one entry of the sort selector.
type SortOption struct {
	Key   SortKey
	Dir   Direction
	Label string
}

// Value is the combined "key-dir" form value.
func (o SortOption) Value() string { return string(o.Key) + "-" + string(o.Dir) }

// SortOptions lists the selectable orderings.
func SortOptions() []SortOption {
	return []SortOption{
		{SortDate, Desc, "Newest First"},
		{SortDate, Asc, "Oldest First"},
		{SortAmount, Desc, "Highest Amount"},
		{SortAmount, Asc, "Lowest Amount"},
		{SortCategory, Asc, "Currency (A-Z)"},
		{SortCategory, Desc, "Currency (Z-A)"},
	}
}

// ParseSortOption splits a "key-dir" value such as "amount-desc".
func ParseSortOption(v string) (SortKey, Direction, bool) {
	i := strings.LastIndex(v, "-")
	if i < 0 {
		return "", "", false
	}
	key, ok := ParseSortKey(v[:i])
	if !ok {
		return "", "", false
	}
	dir, ok := ParseDirection(v[i+1:])
	if !ok {
		return "", "", false
	}
	return key, dir, true
}

// Sort returns a sorted copy of records. The sort is stable: records whose
// keys compare equal keep their input order.
func Sort(records []core.Investment, key SortKey, dir Direction) []core.Investment {
	out := slices.Clone(records)
	cmp := comparator(key)
	if dir == Desc {
		asc := cmp
		cmp = func(a, b core.Investment) int { return -asc(a, b) }
	}
	slices.SortStableFunc(out, cmp)
	return out
}

func comparator(key SortKey) func(a, b core.Investment) int {
	switch key {
	case SortAmount:
		return func(a, b core.Investment) int { return a.Amount.Cmp(b.Amount) }
	case SortCategory:
		return func(a, b core.Investment) int { return strings.Compare(string(a.Category), string(b.Category)) }
	default:
		return func(a, b core.Investment) int { return a.CreatedAt.Compare(b.CreatedAt) }
	}
}
