package browse

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bookshelf/internal/catalog"
	"bookshelf/internal/theme"
	"bookshelf/internal/types"
)

func TestRestore_Empty(t *testing.T) {
	c := fixture(t)

	s, err := Restore(c, "", 2, theme.Night)
	require.NoError(t, err)
	assert.Equal(t, NewSession(c, 2, theme.Night), s)
}

func TestRestore_ReproducesView(t *testing.T) {
	c := fixture(t)

	s := NewSession(c, 2, theme.Day)
	s = Update(c, s, SubmitFilter{Criteria: catalog.Criteria{Author: "le-guin", Genre: "fantasy"}})
	s = Update(c, s, ShowMore{})
	s = Update(c, s, SelectBook{Id: "earthsea-3"})
	s = Update(c, s, ChangeTheme{Theme: theme.Night})

	restored, err := Restore(c, EncodeToken(s), 2, theme.Day)
	require.NoError(t, err)

	assert.Equal(t, s.View(c), restored.View(c))
	assert.Equal(t, s.Criteria, restored.Criteria)
	assert.Equal(t, 2, restored.Cursor.Page)
}

func TestRestore_ClampsPageAndDropsUnknownActive(t *testing.T) {
	c := fixture(t)

	s := NewSession(c, 2, theme.Day)
	s = Update(c, s, SubmitFilter{Criteria: catalog.Criteria{Title: "dune"}})
	s.Cursor.Page = 40

	restored, err := Restore(c, EncodeToken(s), 2, theme.Day)
	require.NoError(t, err)
	assert.Equal(t, 1, restored.Cursor.Page)

	tokenWithGhost := EncodeToken(Session{Active: &types.Book{Id: "ghost"}, Cursor: Cursor{Page: 1}})
	restored, err = Restore(c, tokenWithGhost, 2, theme.Day)
	require.NoError(t, err)
	assert.Nil(t, restored.Active)
	assert.Equal(t, theme.Day, restored.Theme)
}

func TestRestore_Invalid(t *testing.T) {
	c := fixture(t)

	_, err := Restore(c, "%%%not-base64", 2, theme.Day)
	assert.ErrorIs(t, err, ErrInvalidToken)

	// "bm90IGpzb24" is "not json"
	_, err = Restore(c, "bm90IGpzb24", 2, theme.Day)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
