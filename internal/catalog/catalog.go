package catalog

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"bookshelf/internal/types"
)

// AnyId is the criteria value which matches every author or genre
const AnyId = "any"

var (
	ErrDuplicateId   = errors.New("duplicate id")
	ErrUnknownAuthor = errors.New("unknown author")
	ErrUnknownGenre  = errors.New("unknown genre")
	ErrNoGenres      = errors.New("book has no genres")
)

// Catalog is the read-only collection of authors, genres and books.
// It is built once by New and never mutated afterwards, so it is safe to share.
type Catalog struct {
	authors []*types.Author
	genres  []*types.Genre
	books   []*types.Book

	authorById map[string]*types.Author
	genreById  map[string]*types.Genre
	bookById   map[string]*types.Book
}

// New validates the records and builds the catalog. Authors and genres are kept sorted by name,
// books keep the given order.
func New(authors []*types.Author, genres []*types.Genre, books []*types.Book) (*Catalog, error) {
	c := &Catalog{
		authorById: make(map[string]*types.Author, len(authors)),
		genreById:  make(map[string]*types.Genre, len(genres)),
		bookById:   make(map[string]*types.Book, len(books)),
	}

	for _, a := range authors {
		if _, ok := c.authorById[a.Id]; ok {
			return nil, fmt.Errorf("author %q: %w", a.Id, ErrDuplicateId)
		}
		c.authorById[a.Id] = a
		c.authors = append(c.authors, a)
	}

	for _, g := range genres {
		if _, ok := c.genreById[g.Id]; ok {
			return nil, fmt.Errorf("genre %q: %w", g.Id, ErrDuplicateId)
		}
		c.genreById[g.Id] = g
		c.genres = append(c.genres, g)
	}

	for _, b := range books {
		if _, ok := c.bookById[b.Id]; ok {
			return nil, fmt.Errorf("book %q: %w", b.Id, ErrDuplicateId)
		}
		if _, ok := c.authorById[b.Author]; !ok {
			return nil, fmt.Errorf("book %q references author %q: %w", b.Id, b.Author, ErrUnknownAuthor)
		}
		if len(b.Genres) == 0 {
			return nil, fmt.Errorf("book %q: %w", b.Id, ErrNoGenres)
		}
		for _, g := range b.Genres {
			if _, ok := c.genreById[g]; !ok {
				return nil, fmt.Errorf("book %q references genre %q: %w", b.Id, g, ErrUnknownGenre)
			}
		}

		c.bookById[b.Id] = b
		c.books = append(c.books, b)
	}

	sort.SliceStable(c.authors, func(i, j int) bool {
		return strings.ToLower(c.authors[i].Name) < strings.ToLower(c.authors[j].Name)
	})
	sort.SliceStable(c.genres, func(i, j int) bool {
		return strings.ToLower(c.genres[i].Name) < strings.ToLower(c.genres[j].Name)
	})

	return c, nil
}

// Books returns all books in catalog order. The slice must not be modified.
func (c *Catalog) Books() []*types.Book {
	return c.books
}

func (c *Catalog) Authors() []*types.Author {
	return c.authors
}

func (c *Catalog) Genres() []*types.Genre {
	return c.genres
}

// Author returns nil on miss
func (c *Catalog) Author(id string) *types.Author {
	return c.authorById[id]
}

// Genre returns nil on miss
func (c *Catalog) Genre(id string) *types.Genre {
	return c.genreById[id]
}

// Book is FindById backed by the id index
func (c *Catalog) Book(id string) (*types.Book, bool) {
	b, ok := c.bookById[id]
	return b, ok
}

// AuthorName resolves the author's display name, empty when the id is unknown
func (c *Catalog) AuthorName(id string) string {
	if a := c.authorById[id]; a != nil {
		return a.Name
	}

	return ""
}
