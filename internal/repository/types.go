package repository

// Pagination carries page-based query bounds.
type Pagination struct {
	Page     int
	PageSize int
}

// Normalize clamps the bounds to sane values.
func (p *Pagination) Normalize() {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PageSize < 1 {
		p.PageSize = 20
	}
	if p.PageSize > 100 {
		p.PageSize = 100
	}
}

// Offset returns the row offset for the current page.
func (p Pagination) Offset() int {
	return (p.Page - 1) * p.PageSize
}

// ProductFilter narrows product listings.
type ProductFilter struct {
	Kind       string
	Keyword    string
	OnlyActive bool
	InStock    bool
}

// OrderFilter narrows order listings.
type OrderFilter struct {
	Status    string
	UserID    uint
	Email     string
	Reference string
}
