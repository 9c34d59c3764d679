package query

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"oro/internal/core"
)

// State is the list view's input: what the user searched, filtered and sorted
// by, which page they are on, and the record set version the page refers to.
type State struct {
	Search   string
	Category CategoryFilter
	SortKey  SortKey
	SortDir  Direction
	Page     int
	PageSize int
	Version  uint64
}

// NewState returns the initial view: everything, newest first, page 1.
func NewState() State {
	return State{
		Category: All,
		SortKey:  SortDate,
		SortDir:  Desc,
		Page:     1,
		PageSize: PageSize,
	}
}

func (s *State) SetSearch(term string) {
	s.Search = term
	s.Page = 1
}

func (s *State) SetCategory(c CategoryFilter) {
	s.Category = c
	s.Page = 1
}

func (s *State) SetSort(key SortKey, dir Direction) {
	s.SortKey = key
	s.SortDir = dir
	s.Page = 1
}

func (s *State) SetPage(page int) {
	s.Page = max(page, 1)
}

// SetRecords records that the view now shows record set version v. A
// different version means the data changed under the user, so the page
// resets.
func (s *State) SetRecords(v uint64) {
	if s.Version != v {
		s.Version = v
		s.Page = 1
	}
}

// Filtered reports whether a search or category filter is active.
func (s State) Filtered() bool {
	return s.Search != "" || (s.Category != All && s.Category != "")
}

// SortValue is the combined sort selector value, e.g. "date-desc".
func (s State) SortValue() string {
	return string(s.SortKey) + "-" + string(s.SortDir)
}

// Result is everything the list view renders.
type Result struct {
	State         State
	Page          Page[core.Investment]
	TotalRecords  int
	FilteredCount int
	// Total is the sum over the full record set, not the filtered view.
	Total decimal.Decimal
	// Empty means the store has no records at all. NoResults means there are
	// records but none match the filters.
	Empty     bool
	NoResults bool
}

// Apply runs filter, sort and paginate over records. The returned State has
// its page clamped to the available range.
func (s State) Apply(records []core.Investment) Result {
	filtered := Filter(records, s.Search, s.Category)
	sorted := Sort(filtered, s.SortKey, s.SortDir)
	page := Paginate(sorted, s.Page, s.PageSize)

	s.Page = page.Number
	return Result{
		State:         s,
		Page:          page,
		TotalRecords:  len(records),
		FilteredCount: len(filtered),
		Total:         core.Total(records),
		Empty:         len(records) == 0,
		NoResults:     len(records) > 0 && len(filtered) == 0,
	}
}

// Values encodes the state as query parameters. Defaults are omitted.
func (s State) Values() url.Values {
	v := url.Values{}
	if s.Search != "" {
		v.Set("q", s.Search)
	}
	if s.Category != All && s.Category != "" {
		v.Set("category", string(s.Category))
	}
	if s.SortKey != SortDate || s.SortDir != Desc {
		v.Set("sort", s.SortValue())
	}
	if s.Page > 1 {
		v.Set("page", strconv.Itoa(s.Page))
	}
	v.Set("v", strconv.FormatUint(s.Version, 10))
	return v
}

// PageValues is Values with the page replaced, for pagination links.
func (s State) PageValues(page int) string {
	s.SetPage(page)
	return s.Values().Encode()
}

// StateFromValues decodes query parameters into a State for record set
// version current. The page is honoured only when the request refers to the
// current version; a stale or missing "v" lands on page 1.
func StateFromValues(v url.Values, current uint64) State {
	s := NewState()
	s.SetSearch(strings.TrimSpace(v.Get("q")))
	s.SetCategory(ParseCategoryFilter(v.Get("category")))
	if key, dir, ok := ParseSortOption(v.Get("sort")); ok {
		s.SetSort(key, dir)
	}

	if ver, err := strconv.ParseUint(v.Get("v"), 10, 64); err == nil {
		s.Version = ver
	}
	if p, err := strconv.Atoi(v.Get("page")); err == nil {
		s.SetPage(p)
	}
	s.SetRecords(current)
	return s
}
