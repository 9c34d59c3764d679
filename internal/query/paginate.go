package query

// PageSize is the number of rows shown per page.
const PageSize = 10

// Page is one slice of a paginated list.
type Page[T any] struct {
	Items      []T
	Number     int // 1-based, clamped to [1, TotalPages]
	TotalPages int
	TotalItems int
	// From and To are the 1-based positions shown, 0 when empty.
	From int
	To   int
}

func (p Page[T]) HasPrev() bool { return p.Number > 1 }
func (p Page[T]) HasNext() bool { return p.Number < p.TotalPages }
func (p Page[T]) Prev() int     { return p.Number - 1 }
func (p Page[T]) Next() int     { return p.Number + 1 }

// Numbers lists every page number, for the page links.
func (p Page[T]) Numbers() []int {
	out := make([]int, p.TotalPages)
	for i := range out {
		out[i] = i + 1
	}
	return out
}

// Paginate returns page number page of items. Pages below 1 clamp to 1 and
// pages past the end clamp to the last page. TotalPages is 0 for no items.
func Paginate[T any](items []T, page, size int) Page[T] {
	if size < 1 {
		size = PageSize
	}
	n := len(items)
	p := Page[T]{TotalItems: n, TotalPages: (n + size - 1) / size}
	if n == 0 {
		p.Number = 1
		return p
	}
	if page < 1 {
		page = 1
	}
	if page > p.TotalPages {
		page = p.TotalPages
	}
	start := (page - 1) * size
	end := min(start+size, n)

	p.Number = page
	p.Items = items[start:end:end]
	p.From = start + 1
	p.To = end
	return p
}
