package listing

// ItemKind distinguishes page numbers from gaps in the page-number row.
type ItemKind int

const (
	ItemPage ItemKind = iota
	ItemEllipsis
)

// PageItem is one entry in the page-number row.
type PageItem struct {
	Kind   ItemKind
	Number int
	Active bool
}

// maxPlainPages is the largest page count shown without ellipses.
const maxPlainPages = 5

// PageItems returns the page-number row for page out of total pages.
//
// Up to five pages are listed in full. Beyond that the row is the first
// page, a gap when page > 3, the window page-1..page+1 clipped to
// [2, total-1], a gap when page < total-2, and the last page.
func PageItems(page, total int) []PageItem {
	if total <= 0 {
		return nil
	}
	num := func(n int) PageItem {
		return PageItem{Kind: ItemPage, Number: n, Active: n == page}
	}

	if total <= maxPlainPages {
		items := make([]PageItem, 0, total)
		for n := 1; n <= total; n++ {
			items = append(items, num(n))
		}
		return items
	}

	items := []PageItem{num(1)}
	if page > 3 {
		items = append(items, PageItem{Kind: ItemEllipsis})
	}
	for n := max(2, page-1); n <= min(total-1, page+1); n++ {
		items = append(items, num(n))
	}
	if page < total-2 {
		items = append(items, PageItem{Kind: ItemEllipsis})
	}
	return append(items, num(total))
}

// Pager is the render model of the pagination control.
type Pager struct {
	Page       int
	TotalPages int
	Items      []PageItem
	HasPrev    bool
	HasNext    bool
}

// NewPager builds the pagination model for page out of total.
func NewPager(page, total int) Pager {
	return Pager{
		Page:       page,
		TotalPages: total,
		Items:      PageItems(page, total),
		HasPrev:    page > 1,
		HasNext:    page < total,
	}
}

// Visible reports whether the control is shown at all.
func (p Pager) Visible() bool {
	return p.TotalPages > 1
}
