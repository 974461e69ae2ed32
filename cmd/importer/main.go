package main

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"path"
	"runtime"
	"strings"

	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/joho/godotenv/autoload"

	"bookshelf/internal/crawler"
	"bookshelf/internal/logger"
	"bookshelf/internal/storage"
	"bookshelf/internal/storage/authors"
	"bookshelf/internal/storage/books"
	"bookshelf/internal/storage/genres"
)

func getEnvOrDefault(key, default_ string) string {
	if val := strings.TrimSpace(os.Getenv(key)); val != "" {
		return val
	}

	return default_
}

func getBoolEnv(key string) bool {
	if val := strings.ToLower(os.Getenv(key)); val == "yes" || val == "on" || val == "true" {
		return true
	}

	return false
}

var (
	catalogFeed = os.Getenv("CATALOG_FEED")
	logLevel    = strings.ToLower(getEnvOrDefault("LOG_LEVEL", "debug"))
	logFormat   = strings.ToLower(getEnvOrDefault("LOG_FORMAT", "text"))
	dbConnStr   = os.Getenv("DATABASE_URL")
	dryRun      = getBoolEnv("IMPORT_DRY_RUN")
)

func main() {
	_, thisFile, _, _ := runtime.Caller(0)

	lvl, lvlOk := logger.ParseLevel(logLevel)
	err := logger.SetupSLog(os.Stderr, logFormat, lvl, path.Dir(path.Dir(path.Dir(thisFile))), struct{}{})
	if err != nil {
		slog.Error("Failed to set up logging: " + err.Error())
		os.Exit(1)
	}

	if !lvlOk {
		slog.Error("Invalid log level specified in LOG_LEVEL, one of debug, info, warn or error expected")
		os.Exit(1)
	}

	if catalogFeed == "" {
		slog.Error("You need to specify CATALOG_FEED env var")
		os.Exit(1)
	}

	feed, err := url.Parse(catalogFeed)
	if err != nil {
		slog.Error("Invalid URL in CATALOG_FEED: " + err.Error())
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	var consumer crawler.Consumer = &crawler.LoggerConsumer{Logger: slog.Default()}
	if !dryRun {
		err = storage.Migrate(dbConnStr)
		if err != nil {
			slog.Error("Failed to migrate database: " + err.Error())
			os.Exit(1)
		}

		cfg, err := pgxpool.ParseConfig(dbConnStr)
		if err != nil {
			slog.Error("Failed to parse DATABASE_URL: " + err.Error())
			os.Exit(1)
		}

		cfg.ConnConfig.Tracer = logger.NewPGXTracer(slog.Default())

		pg, err := pgxpool.NewWithConfig(ctx, cfg)
		if err != nil {
			slog.Error("failed to create postgres pool: " + err.Error())
			os.Exit(1)
		}
		defer pg.Close()

		consumer = &crawler.StoringConsumer{
			Logger:  slog.Default(),
			Books:   books.NewPGXRepository(pg, slog.Default()),
			Authors: authors.NewPGXRepository(pg, slog.Default()),
			Genres:  genres.NewPGXRepository(pg, slog.Default()),
		}
	}

	cr := crawler.OPDS{Client: http.DefaultClient, Logger: slog.Default()}

	err = cr.Crawl(ctx, feed, consumer)
	if err != nil {
		slog.Error("Crawl failed: " + err.Error())
		os.Exit(1)
	}

	slog.Info("Import finished", slog.String("feed", feed.String()), slog.Bool("dry_run", dryRun))
}
