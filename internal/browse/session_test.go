package browse

import (
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bookshelf/internal/catalog"
	"bookshelf/internal/theme"
	"bookshelf/internal/types"
)

func fixture(t *testing.T) *catalog.Catalog {
	t.Helper()

	bs := []*types.Book{
		{Id: "dune", Title: "Dune", Author: "herbert", Genres: []string{"sci-fi"}, Image: "dune.jpg",
			Published: time.Date(1965, 8, 1, 0, 0, 0, 0, time.UTC), Description: "Spice."},
		{Id: "messiah", Title: "Dune Messiah", Author: "herbert", Genres: []string{"sci-fi"}},
		{Id: "foundation", Title: "Foundation", Author: "asimov", Genres: []string{"sci-fi"}},
	}
	for i := 0; i < 4; i++ {
		bs = append(bs, &types.Book{
			Id:     "earthsea-" + strconv.Itoa(i),
			Title:  "Earthsea " + strconv.Itoa(i),
			Author: "le-guin",
			Genres: []string{"fantasy"},
		})
	}

	c, err := catalog.New(
		[]*types.Author{
			{Id: "herbert", Name: "Frank Herbert"},
			{Id: "asimov", Name: "Isaac Asimov"},
			{Id: "le-guin", Name: "Ursula K. Le Guin"},
		},
		[]*types.Genre{{Id: "sci-fi", Name: "Science Fiction"}, {Id: "fantasy", Name: "Fantasy"}},
		bs,
	)
	require.NoError(t, err)

	return c
}

func TestNewSession(t *testing.T) {
	c := fixture(t)
	s := NewSession(c, 2, theme.Night)

	assert.True(t, s.Criteria.IsAny())
	assert.Equal(t, 1, s.Cursor.Page)
	assert.Len(t, s.Visible(), 2)
	assert.Equal(t, 5, s.Remaining())
	assert.Nil(t, s.Active)
	assert.Equal(t, theme.Night, s.Theme)
}

func TestUpdate_FilterResetsPage(t *testing.T) {
	c := fixture(t)
	s := NewSession(c, 2, theme.Day)

	s = Update(c, s, ShowMore{})
	s = Update(c, s, SelectBook{Id: "dune"})
	require.Equal(t, 2, s.Cursor.Page)
	require.NotNil(t, s.Active)

	s = Update(c, s, SubmitFilter{Criteria: catalog.Criteria{Genre: "fantasy"}})
	assert.Equal(t, 1, s.Cursor.Page)
	assert.Nil(t, s.Active)
	assert.Len(t, s.Matches, 4)
	assert.Equal(t, 2, s.Remaining())
}

func TestUpdate_ShowMoreStopsAtEnd(t *testing.T) {
	c := fixture(t)
	s := Update(c, NewSession(c, 2, theme.Day), SubmitFilter{Criteria: catalog.Criteria{Title: "dune"}})

	require.Len(t, s.Visible(), 2)
	s = Update(c, s, ShowMore{})
	assert.Equal(t, 1, s.Cursor.Page)
	assert.Len(t, s.Visible(), 2)
	assert.Equal(t, 0, s.Remaining())
}

func TestUpdate_DoesNotMutatePrevious(t *testing.T) {
	c := fixture(t)
	before := NewSession(c, 2, theme.Day)

	after := Update(c, before, ShowMore{})
	after = Update(c, after, ChangeTheme{Theme: theme.Night})

	assert.Equal(t, 1, before.Cursor.Page)
	assert.Equal(t, theme.Day, before.Theme)
	assert.Equal(t, 2, after.Cursor.Page)
	assert.Equal(t, theme.Night, after.Theme)
	assert.Equal(t, before, Update(c, before, nil))
}

func TestUpdate_SelectMissIsAbsent(t *testing.T) {
	c := fixture(t)
	s := NewSession(c, 2, theme.Day)

	s = Update(c, s, SelectBook{Id: "dune"})
	require.NotNil(t, s.Active)

	s = Update(c, s, SelectBook{Id: "no-such-book"})
	assert.Nil(t, s.Active)

	s = Update(c, s, SelectBook{Id: "dune"})
	s = Update(c, s, CloseDetail{})
	assert.Nil(t, s.Active)
}

func TestSession_View(t *testing.T) {
	c := fixture(t)
	s := NewSession(c, 2, theme.Night)
	s = Update(c, s, SelectBook{Id: "dune"})

	v := s.View(c)
	assert.Equal(t, []Preview{
		{Id: "dune", Title: "Dune", Author: "Frank Herbert", Image: "dune.jpg"},
		{Id: "messiah", Title: "Dune Messiah", Author: "Frank Herbert"},
	}, v.Books)
	assert.Equal(t, 5, v.Remaining)
	assert.False(t, v.Empty)
	assert.Equal(t, &Detail{
		Id:          "dune",
		Title:       "Dune",
		Subtitle:    "Frank Herbert (1965)",
		Image:       "dune.jpg",
		Description: "Spice.",
	}, v.Active)
	assert.Equal(t, theme.Night, v.Theme.Name)
	assert.Equal(t, "10, 10, 20", v.Theme.CSS["--color-light"])

	empty := Update(c, s, SubmitFilter{Criteria: catalog.Criteria{Title: "nothing like this"}}).View(c)
	assert.True(t, empty.Empty)
	assert.Empty(t, empty.Books)
	assert.Nil(t, empty.Active)
}

func TestDetailOf_NoPublishedDate(t *testing.T) {
	c := fixture(t)
	b, _ := c.Book("foundation")

	assert.Equal(t, "Isaac Asimov", DetailOf(c, b).Subtitle)
	assert.Nil(t, DetailOf(c, nil))
}

func TestSession_ZeroCursorShowMore(t *testing.T) {
	matches := books(DefaultPageSize + 1)
	s := Session{Matches: matches}

	assert.Len(t, s.Visible(), DefaultPageSize)

	s = Update(nil, s, ShowMore{})
	assert.Len(t, s.Visible(), DefaultPageSize+1)
	assert.Equal(t, 0, s.Remaining())
}
