package catalog

import (
	"strings"

	"bookshelf/internal/types"
)

// Criteria is a filter request. Empty Author or Genre is the same as AnyId.
type Criteria struct {
	Title  string `json:"title"`
	Author string `json:"author"`
	Genre  string `json:"genre"`
}

// IsAny reports whether the criteria match every book
func (c Criteria) IsAny() bool {
	return strings.TrimSpace(c.Title) == "" && isAny(c.Author) && isAny(c.Genre)
}

func (c Criteria) Match(b *types.Book) bool {
	if !isAny(c.Genre) && !b.HasGenre(c.Genre) {
		return false
	}

	if !isAny(c.Author) && b.Author != c.Author {
		return false
	}

	if strings.TrimSpace(c.Title) == "" {
		return true
	}

	return strings.Contains(strings.ToLower(b.Title), strings.ToLower(c.Title))
}

// Filter returns the books matching the criteria in their original order.
// Unknown author or genre ids simply match nothing.
func Filter(books []*types.Book, criteria Criteria) []*types.Book {
	ret := make([]*types.Book, 0, len(books))
	for _, b := range books {
		if criteria.Match(b) {
			ret = append(ret, b)
		}
	}

	return ret
}

// FindById returns false when no book has the id
func FindById(books []*types.Book, id string) (*types.Book, bool) {
	for _, b := range books {
		if b.Id == id {
			return b, true
		}
	}

	return nil, false
}

func isAny(id string) bool {
	id = strings.TrimSpace(id)
	return id == "" || id == AnyId
}
