package source

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"bookshelf/internal/crawler"
	"bookshelf/internal/logger"
	"bookshelf/internal/storage/authors"
	"bookshelf/internal/storage/books"
	"bookshelf/internal/storage/genres"
)

const (
	KindFile     = "file"
	KindPostgres = "postgres"
	KindOPDS     = "opds"
)

// Config mirrors the CATALOG_SOURCE, CATALOG_FILE, CATALOG_FEED and DATABASE_URL settings
type Config struct {
	Kind        string
	File        string
	Feed        string
	DatabaseUrl string
}

// Loader picks the catalog origin. The postgres pool it opens lives as long as the process.
func (cfg Config) Loader(ctx context.Context, l *slog.Logger) (Loader, error) {
	if l == nil {
		l = slog.Default()
	}

	switch strings.ToLower(strings.TrimSpace(cfg.Kind)) {
	case KindFile, "":
		return File{Path: cfg.File}, nil
	case KindPostgres:
		pc, err := pgxpool.ParseConfig(cfg.DatabaseUrl)
		if err != nil {
			return nil, fmt.Errorf("parsing DATABASE_URL: %w", err)
		}

		pc.ConnConfig.Tracer = logger.NewPGXTracer(l)

		pg, err := pgxpool.NewWithConfig(ctx, pc)
		if err != nil {
			return nil, fmt.Errorf("creating postgres pool: %w", err)
		}

		return Postgres{
			Authors: authors.NewPGXRepository(pg, l),
			Genres:  genres.NewPGXRepository(pg, l),
			Books:   books.NewPGXRepository(pg, l),
		}, nil
	case KindOPDS:
		if strings.TrimSpace(cfg.Feed) == "" {
			return nil, fmt.Errorf("CATALOG_FEED is required for the opds source")
		}

		feed, err := url.Parse(cfg.Feed)
		if err != nil {
			return nil, fmt.Errorf("parsing CATALOG_FEED: %w", err)
		}
		if feed.Scheme != "http" && feed.Scheme != "https" {
			return nil, fmt.Errorf("CATALOG_FEED must be an http(s) URL, got %q", cfg.Feed)
		}

		return OPDS{
			Feed:    feed,
			Crawler: &crawler.OPDS{Client: http.DefaultClient, Logger: l},
			Logger:  l,
		}, nil
	}

	return nil, fmt.Errorf("CATALOG_SOURCE must be one of %s, %s or %s, got %q",
		KindFile, KindPostgres, KindOPDS, cfg.Kind)
}
