package browse

import "bookshelf/internal/types"

// DefaultPageSize is how many previews a single page reveals
const DefaultPageSize = 36

// Cursor tracks how many pages of matches have been revealed. Page is 1-indexed.
type Cursor struct {
	Page     int
	PageSize int
}

func NewCursor(pageSize int) Cursor {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}

	return Cursor{Page: 1, PageSize: pageSize}
}

// normalized treats a non-positive page size as the default and a page below 1 as the first
func (c Cursor) normalized() Cursor {
	if c.PageSize <= 0 {
		c.PageSize = DefaultPageSize
	}
	c.Page = max(c.Page, 1)

	return c
}

func (c Cursor) shown() int {
	c = c.normalized()
	return c.Page * c.PageSize
}

// Visible returns the revealed prefix of matches
func (c Cursor) Visible(matches []*types.Book) []*types.Book {
	return matches[:min(len(matches), c.shown())]
}

// Next returns the books the following Advance would reveal
func (c Cursor) Next(matches []*types.Book) []*types.Book {
	c = c.normalized()
	from := min(len(matches), c.shown())
	return matches[from:min(len(matches), from+c.PageSize)]
}

// Remaining is never negative
func (c Cursor) Remaining(matches []*types.Book) int {
	return max(0, len(matches)-c.shown())
}

// Advance reveals one more page. It reports false and keeps the cursor as is when
// nothing remains to reveal.
func (c Cursor) Advance(matches []*types.Book) (Cursor, bool) {
	if c.Remaining(matches) == 0 {
		return c, false
	}

	c = c.normalized()
	c.Page++
	return c, true
}

func (c Cursor) Reset() Cursor {
	c = c.normalized()
	c.Page = 1
	return c
}

// Clamp keeps the page within [1, last page that has content]
func (c Cursor) Clamp(matches []*types.Book) Cursor {
	c = c.normalized()
	last := 1
	if len(matches) > 0 {
		last = (len(matches) + c.PageSize - 1) / c.PageSize
	}

	c.Page = max(1, min(c.Page, last))
	return c
}
