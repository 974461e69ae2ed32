package crawler

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"bookshelf/internal/catalog"
	"bookshelf/internal/storage/authors"
	"bookshelf/internal/storage/books"
	"bookshelf/internal/storage/genres"
	"bookshelf/internal/types"
)

// Consumer receives crawled records. Authors and genres always arrive before the books
// referencing them.
type Consumer interface {
	ConsumeAuthor(ctx context.Context, author *types.Author) error
	ConsumeGenre(ctx context.Context, genre *types.Genre) error
	ConsumeBooks(ctx context.Context, books []*types.Book) error
}

// IgnoreError returned by a consumer skips the record without aborting the crawl
type IgnoreError struct {
	Reason string
}

func (e IgnoreError) Error() string {
	return "ignored: " + e.Reason
}

type LoggerConsumer struct {
	Logger *slog.Logger
}

func (c *LoggerConsumer) ConsumeAuthor(_ context.Context, author *types.Author) error {
	c.Logger.Info("Consumed author " + author.Id + " (" + author.Name + ")")
	return nil
}

func (c *LoggerConsumer) ConsumeGenre(_ context.Context, genre *types.Genre) error {
	c.Logger.Info("Consumed genre " + genre.Id + " (" + genre.Name + ")")
	return nil
}

func (c *LoggerConsumer) ConsumeBooks(_ context.Context, books []*types.Book) error {
	for _, b := range books {
		c.Logger.Info("Consumed book " + b.Id + " (" + b.Title + ") by author " + b.Author +
			" in genres " + strings.Join(b.Genres, ", "))
	}

	return nil
}

// Collector keeps everything in memory to build a catalog once the crawl is over
type Collector struct {
	Logger *slog.Logger

	authors []*types.Author
	genres  []*types.Genre
	books   []*types.Book
	seen    map[string]struct{}
}

func (c *Collector) mark(kind, id string) bool {
	if c.seen == nil {
		c.seen = make(map[string]struct{})
	}

	key := kind + "\x00" + id
	if _, ok := c.seen[key]; ok {
		return false
	}

	c.seen[key] = struct{}{}
	return true
}

func (c *Collector) ConsumeAuthor(_ context.Context, author *types.Author) error {
	if !c.mark("author", author.Id) {
		return IgnoreError{Reason: "duplicate author " + author.Id}
	}

	c.authors = append(c.authors, author)
	return nil
}

func (c *Collector) ConsumeGenre(_ context.Context, genre *types.Genre) error {
	if !c.mark("genre", genre.Id) {
		return IgnoreError{Reason: "duplicate genre " + genre.Id}
	}

	c.genres = append(c.genres, genre)
	return nil
}

func (c *Collector) ConsumeBooks(_ context.Context, books []*types.Book) error {
	for _, b := range books {
		if !c.mark("book", b.Id) {
			if c.Logger != nil {
				c.Logger.Warn("Skip book seen on another page " + b.Id)
			}
			continue
		}

		c.books = append(c.books, b)
	}

	return nil
}

func (c *Collector) Catalog() (*catalog.Catalog, error) {
	return catalog.New(c.authors, c.genres, c.books)
}

type StoringConsumer struct {
	Logger  *slog.Logger
	Books   books.Repository
	Authors authors.Repository
	Genres  genres.Repository
}

func (s *StoringConsumer) ConsumeAuthor(ctx context.Context, author *types.Author) error {
	if err := s.Authors.Save(ctx, author); err != nil {
		return fmt.Errorf("saving author: %w", err)
	}

	return nil
}

func (s *StoringConsumer) ConsumeGenre(ctx context.Context, genre *types.Genre) error {
	if err := s.Genres.Save(ctx, genre); err != nil {
		return fmt.Errorf("saving genre: %w", err)
	}

	return nil
}

func (s *StoringConsumer) ConsumeBooks(ctx context.Context, books []*types.Book) error {
	// one page, one transaction: books never land without their genres
	err := s.Books.Save(ctx, books...)
	if err != nil {
		return fmt.Errorf("saving books: %w", err)
	}

	s.Logger.Info("Stored books", slog.Int("count", len(books)))
	return nil
}
