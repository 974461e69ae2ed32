package types

import "time"

type Author struct {
	Id   string `json:"id"`
	Name string `json:"name"`
}

type Genre struct {
	Id   string `json:"id"`
	Name string `json:"name"`
}

type Book struct {
	Id          string    `json:"id"`
	Title       string    `json:"title"`
	Author      string    `json:"author"`
	Image       string    `json:"image"`
	Genres      []string  `json:"genres"`
	Published   time.Time `json:"published"`
	Description string    `json:"description"`
}

// HasGenre reports whether genreId is one of the book's genres
func (b *Book) HasGenre(genreId string) bool {
	for _, g := range b.Genres {
		if g == genreId {
			return true
		}
	}

	return false
}
