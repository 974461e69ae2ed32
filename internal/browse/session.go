package browse

import (
	"bookshelf/internal/catalog"
	"bookshelf/internal/theme"
	"bookshelf/internal/types"
)

// Session is the whole browsing state. It is a value: Update returns a new one.
type Session struct {
	Criteria catalog.Criteria
	Cursor   Cursor
	Matches  []*types.Book
	Active   *types.Book
	Theme    theme.Name
}

// NewSession starts with the whole catalog matching
func NewSession(c *catalog.Catalog, pageSize int, th theme.Name) Session {
	return Session{
		Criteria: catalog.Criteria{Author: catalog.AnyId, Genre: catalog.AnyId},
		Cursor:   NewCursor(pageSize),
		Matches:  c.Books(),
		Theme:    th,
	}
}

type Event interface {
	apply(c *catalog.Catalog, s Session) Session
}

type SubmitFilter struct {
	Criteria catalog.Criteria
}

type ShowMore struct{}

type SelectBook struct {
	Id string
}

type CloseDetail struct{}

type ChangeTheme struct {
	Theme theme.Name
}

func (e SubmitFilter) apply(c *catalog.Catalog, s Session) Session {
	s.Criteria = e.Criteria
	s.Matches = catalog.Filter(c.Books(), e.Criteria)
	s.Cursor = s.Cursor.Reset()
	s.Active = nil
	return s
}

func (ShowMore) apply(_ *catalog.Catalog, s Session) Session {
	s.Cursor, _ = s.Cursor.Advance(s.Matches)
	return s
}

func (e SelectBook) apply(c *catalog.Catalog, s Session) Session {
	s.Active, _ = c.Book(e.Id)
	return s
}

func (CloseDetail) apply(_ *catalog.Catalog, s Session) Session {
	s.Active = nil
	return s
}

func (e ChangeTheme) apply(_ *catalog.Catalog, s Session) Session {
	s.Theme = e.Theme
	return s
}

// Update is the reducer: it handles one event to completion and returns the next state
func Update(c *catalog.Catalog, s Session, ev Event) Session {
	if ev == nil {
		return s
	}

	return ev.apply(c, s)
}

// Visible is the revealed slice of matches
func (s Session) Visible() []*types.Book {
	return s.Cursor.Visible(s.Matches)
}

func (s Session) Remaining() int {
	return s.Cursor.Remaining(s.Matches)
}
