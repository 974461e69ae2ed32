// Package source builds the catalog once at startup from one of the supported origins.
package source

import (
	"context"
	_ "embed"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"time"

	jsoniter "github.com/json-iterator/go"

	"bookshelf/internal/catalog"
	"bookshelf/internal/crawler"
	"bookshelf/internal/storage/authors"
	"bookshelf/internal/storage/books"
	"bookshelf/internal/storage/genres"
	"bookshelf/internal/types"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

//go:embed data/catalog.json
var defaultCatalog []byte

type Loader interface {
	Load(ctx context.Context) (*catalog.Catalog, error)
}

// File reads a JSON catalog, the embedded default one when Path is empty
type File struct {
	Path string
}

type fileBook struct {
	Id          string    `json:"id"`
	Title       string    `json:"title"`
	Author      string    `json:"author"`
	Image       string    `json:"image"`
	Genres      []string  `json:"genres"`
	Published   time.Time `json:"published"`
	Description string    `json:"description"`
}

type fileCatalog struct {
	Authors map[string]string `json:"authors"`
	Genres  map[string]string `json:"genres"`
	Books   []fileBook        `json:"books"`
}

func (f File) Load(_ context.Context) (*catalog.Catalog, error) {
	bs := defaultCatalog
	if f.Path != "" {
		var err error
		bs, err = os.ReadFile(f.Path)
		if err != nil {
			return nil, fmt.Errorf("reading catalog file: %w", err)
		}
	}

	return Parse(bs)
}

// Parse decodes the JSON catalog format and validates it
func Parse(bs []byte) (*catalog.Catalog, error) {
	var fc fileCatalog
	err := json.Unmarshal(bs, &fc)
	if err != nil {
		return nil, fmt.Errorf("decoding catalog: %w", err)
	}

	as := make([]*types.Author, 0, len(fc.Authors))
	for id, name := range fc.Authors {
		as = append(as, &types.Author{Id: id, Name: name})
	}

	gs := make([]*types.Genre, 0, len(fc.Genres))
	for id, name := range fc.Genres {
		gs = append(gs, &types.Genre{Id: id, Name: name})
	}

	bks := make([]*types.Book, 0, len(fc.Books))
	for _, b := range fc.Books {
		bks = append(bks, &types.Book{
			Id:          b.Id,
			Title:       b.Title,
			Author:      b.Author,
			Image:       b.Image,
			Genres:      b.Genres,
			Published:   b.Published.UTC(),
			Description: b.Description,
		})
	}

	c, err := catalog.New(as, gs, bks)
	if err != nil {
		return nil, fmt.Errorf("validating catalog: %w", err)
	}

	return c, nil
}

type Postgres struct {
	Authors authors.Repository
	Genres  genres.Repository
	Books   books.Repository
}

func (p Postgres) Load(ctx context.Context) (*catalog.Catalog, error) {
	as, err := p.Authors.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading authors: %w", err)
	}

	gs, err := p.Genres.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading genres: %w", err)
	}

	bks, err := p.Books.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading books: %w", err)
	}

	c, err := catalog.New(as, gs, bks)
	if err != nil {
		return nil, fmt.Errorf("validating catalog: %w", err)
	}

	return c, nil
}

type OPDS struct {
	Feed    *url.URL
	Crawler crawler.Crawler
	Logger  *slog.Logger
}

func (o OPDS) Load(ctx context.Context) (*catalog.Catalog, error) {
	col := &crawler.Collector{Logger: o.Logger}

	err := o.Crawler.Crawl(ctx, o.Feed, col)
	if err != nil {
		return nil, fmt.Errorf("crawling %s: %w", o.Feed, err)
	}

	c, err := col.Catalog()
	if err != nil {
		return nil, fmt.Errorf("validating catalog: %w", err)
	}

	return c, nil
}

// Describe is a short loader description for startup logs
func Describe(l Loader) string {
	switch s := l.(type) {
	case File:
		if s.Path == "" {
			return "embedded catalog"
		}
		return "file " + s.Path
	case Postgres:
		return "postgres"
	case OPDS:
		return "opds feed " + s.Feed.String()
	}

	return fmt.Sprintf("%T", l)
}
