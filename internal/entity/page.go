package entity

import "math"

// PageRequest selects a window of a paginated listing. Page is 1-based.
type PageRequest struct {
	Page    int
	PerPage int
}

// Offset returns the number of items preceding the requested page. It saturates
// at math.MaxInt instead of overflowing for very large page numbers.
func (p PageRequest) Offset() int {
	if p.Page <= 1 || p.PerPage <= 0 {
		return 0
	}
	if p.Page-1 > math.MaxInt/p.PerPage {
		return math.MaxInt
	}
	return (p.Page - 1) * p.PerPage
}

// Page holds one window of a user's bookmarks together with the total count.
type Page struct {
	Items   []Bookmark
	Page    int
	PerPage int
	Total   int64
}

// Pages returns the total number of pages, zero when there are no items.
func (p *Page) Pages() int {
	if p.PerPage <= 0 || p.Total == 0 {
		return 0
	}
	return int((p.Total + int64(p.PerPage) - 1) / int64(p.PerPage))
}

func (p *Page) HasNext() bool {
	return p.Page < p.Pages()
}

func (p *Page) HasPrev() bool {
	return p.Page > 1
}

// NextPage returns the next page number or nil if there is none.
func (p *Page) NextPage() *int {
	if !p.HasNext() {
		return nil
	}
	n := p.Page + 1
	return &n
}

// PrevPage returns the previous page number or nil if there is none.
func (p *Page) PrevPage() *int {
	if !p.HasPrev() {
		return nil
	}
	n := p.Page - 1
	return &n
}
