// Package paginate derives the visible page of a client-held record list.
package paginate

import (
	"slices"

	"github.com/rotisserie/eris"
)

// ErrInvalidPageSize is returned for a page size outside the allowed choices.
var ErrInvalidPageSize = eris.New("paginate: invalid page size")

// DefaultPageSizes are the page sizes offered to the user.
var DefaultPageSizes = []int{10, 25, 50, 100, 200}

// Slice returns items[(page-1)*size : page*size] clipped to the bounds of
// items. Pages are 1-based; a page before the first, past the last, or a
// non-positive size yields an empty slice. The result shares no memory with
// items.
func Slice[T any](items []T, page, size int) []T {
	if len(items) == 0 || page < 1 || size < 1 || page > PageCount(len(items), size) {
		return []T{}
	}
	start := (page - 1) * size
	end := start + min(size, len(items)-start)
	return slices.Clone(items[start:end])
}

// PageCount returns ceil(total/size), or 0 when total or size is not positive.
func PageCount(total, size int) int {
	if total <= 0 || size <= 0 {
		return 0
	}
	return (total-1)/size + 1
}

// Pager tracks the current page and page size for a record set.
type Pager struct {
	page    int
	size    int
	allowed []int
}

// NewPager creates a pager on page 1. allowed lists the page sizes SetSize
// accepts; an empty list allows any positive size.
func NewPager(size int, allowed []int) (*Pager, error) {
	p := &Pager{page: 1, allowed: slices.Clone(allowed)}
	if err := p.validate(size); err != nil {
		return nil, err
	}
	p.size = size
	return p, nil
}

func (p *Pager) validate(size int) error {
	if size < 1 {
		return eris.Wrapf(ErrInvalidPageSize, "%d", size)
	}
	if len(p.allowed) > 0 && !slices.Contains(p.allowed, size) {
		return eris.Wrapf(ErrInvalidPageSize, "%d not in %v", size, p.allowed)
	}
	return nil
}

// Page returns the 1-based current page.
func (p *Pager) Page() int { return p.page }

// Size returns the page size.
func (p *Pager) Size() int { return p.size }

// Allowed returns the accepted page sizes.
func (p *Pager) Allowed() []int { return slices.Clone(p.allowed) }

// SetSize changes the page size and always resets to page 1.
func (p *Pager) SetSize(size int) error {
	if err := p.validate(size); err != nil {
		return err
	}
	p.size = size
	p.page = 1
	return nil
}

// SetPage moves to page, clamped to [1, max(1, PageCount(total))].
func (p *Pager) SetPage(page, total int) {
	last := max(1, PageCount(total, p.size))
	p.page = min(max(page, 1), last)
}

// Reset returns to page 1.
func (p *Pager) Reset() { p.page = 1 }

// HasPrev reports whether a previous page exists.
func (p *Pager) HasPrev(total int) bool {
	return total > 0 && p.page > 1
}

// HasNext reports whether a next page exists.
func (p *Pager) HasNext(total int) bool {
	return p.page < PageCount(total, p.size)
}

// Prev moves back one page when possible.
func (p *Pager) Prev(total int) {
	if p.HasPrev(total) {
		p.page--
	}
}

// Next moves forward one page when possible.
func (p *Pager) Next(total int) {
	if p.HasNext(total) {
		p.page++
	}
}
