// Package pagination computes page bounds from a count query and runs the
// row query with the matching limit/offset, plus the link-window model the
// templates render.
package pagination

import "gorm.io/gorm"

// window is how many pages are shown on each side of the current page.
const window = 2

// Link is one entry of the rendered pagination nav: either a page number
// (possibly the current one) or an ellipsis for a collapsed gap.
type Link struct {
	Page     int
	Current  bool
	Ellipsis bool
}

// Page bundles one page of rows with the computed pagination state.
type Page[T any] struct {
	Rows       []T
	Number     int
	TotalPages int
	Total      int64
}

// Paginate executes countQuery for the total, clamps the requested page,
// then executes rowQuery with limit/offset appended. Requesting a page past
// the end yields the last page rather than an empty one.
func Paginate[T any](countQuery, rowQuery *gorm.DB, page, perPage int) (*Page[T], error) {
	var total int64
	if err := countQuery.Count(&total).Error; err != nil {
		return nil, err
	}

	number, totalPages := Clamp(total, page, perPage)
	offset := (number - 1) * perPage

	var rows []T
	if err := rowQuery.Limit(perPage).Offset(offset).Find(&rows).Error; err != nil {
		return nil, err
	}

	return &Page[T]{
		Rows:       rows,
		Number:     number,
		TotalPages: totalPages,
		Total:      total,
	}, nil
}

// Clamp computes totalPages = max(1, ceil(total/perPage)) and clamps page
// into [1, totalPages].
func Clamp(total int64, page, perPage int) (clamped, totalPages int) {
	totalPages = int((total + int64(perPage) - 1) / int64(perPage))
	if totalPages < 1 {
		totalPages = 1
	}
	if page > totalPages {
		page = totalPages
	}
	if page < 1 {
		page = 1
	}
	return page, totalPages
}

func (p *Page[T]) HasPrev() bool { return p.Number > 1 }
func (p *Page[T]) HasNext() bool { return p.Number < p.TotalPages }
func (p *Page[T]) Prev() int     { return p.Number - 1 }
func (p *Page[T]) Next() int     { return p.Number + 1 }

// Links builds the nav entries: first and last page always, up to two pages
// around the current one, one ellipsis per collapsed gap.
func (p *Page[T]) Links() []Link {
	return BuildLinks(p.Number, p.TotalPages)
}

// BuildLinks is the pure link-window computation behind Links.
func BuildLinks(page, totalPages int) []Link {
	start := page - window
	if start < 1 {
		start = 1
	}
	end := page + window
	if end > totalPages {
		end = totalPages
	}

	links := []Link{{Page: 1, Current: page == 1}}

	if start > 2 {
		links = append(links, Link{Ellipsis: true})
	}

	midStart := start
	if midStart < 2 {
		midStart = 2
	}
	midEnd := end
	if midEnd > totalPages-1 {
		midEnd = totalPages - 1
	}
	for n := midStart; n <= midEnd; n++ {
		links = append(links, Link{Page: n, Current: n == page})
	}

	if end < totalPages-1 {
		links = append(links, Link{Ellipsis: true})
	}

	if totalPages > 1 {
		links = append(links, Link{Page: totalPages, Current: page == totalPages})
	}

	return links
}
