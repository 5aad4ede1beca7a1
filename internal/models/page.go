package models

// Page is one page of a newest-first listing feed.
type Page struct {
	Items   []Listing `json:"items"`
	Page    int       `json:"page"`
	PerPage int       `json:"per_page"`
	Total   int       `json:"total"`
	Pages   int       `json:"pages"`
	HasPrev bool      `json:"has_prev"`
	HasNext bool      `json:"has_next"`
}

// NewPage fills the derived pagination fields.
func NewPage(items []Listing, page, perPage, total int) Page {
	pages := 0
	if perPage > 0 {
		pages = (total + perPage - 1) / perPage
	}
	if items == nil {
		items = []Listing{}
	}
	return Page{
		Items:   items,
		Page:    page,
		PerPage: perPage,
		Total:   total,
		Pages:   pages,
		HasPrev: page > 1,
		HasNext: page < pages,
	}
}
