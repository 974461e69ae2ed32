package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"path"
	"runtime"
	"strconv"
	"strings"

	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	_ "github.com/joho/godotenv/autoload"

	"bookshelf/internal/browse"
	"bookshelf/internal/logger"
	"bookshelf/internal/response"
	"bookshelf/internal/server"
	"bookshelf/internal/source"
	"bookshelf/internal/theme"
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
	logLevel      = strings.ToLower(getEnvOrDefault("LOG_LEVEL", "debug"))
	logFormat     = strings.ToLower(getEnvOrDefault("LOG_FORMAT", "text"))
	dbConnStr     = os.Getenv("DATABASE_URL")
	bindAddr      = getEnvOrDefault("BIND_ADDR", ":8080")
	debugMode     = getBoolEnv("DEBUG_MODE")
	catalogSource = strings.ToLower(getEnvOrDefault("CATALOG_SOURCE", "file"))
	catalogFile   = os.Getenv("CATALOG_FILE")
	catalogFeed   = os.Getenv("CATALOG_FEED")
	pageSize      = getEnvOrDefault("PAGE_SIZE", strconv.Itoa(browse.DefaultPageSize))
	defaultTheme  = getEnvOrDefault("THEME", string(theme.Day))
)

func main() {
	_, thisFile, _, _ := runtime.Caller(0)

	lvl, lvlOk := logger.ParseLevel(logLevel)
	err := logger.SetupSLog(os.Stderr, logFormat, lvl, path.Dir(path.Dir(path.Dir(thisFile))), middleware.RequestIDKey)
	if err != nil {
		slog.Error("Failed to set up logging: " + err.Error())
		os.Exit(1)
	}

	if !lvlOk {
		slog.Error("Invalid log level specified in LOG_LEVEL, one of debug, info, warn or error expected")
		os.Exit(1)
	}

	size, err := strconv.Atoi(pageSize)
	if err != nil || size <= 0 {
		slog.Error("Invalid PAGE_SIZE, positive integer expected")
		os.Exit(1)
	}

	th, ok := theme.Parse(defaultTheme)
	if !ok {
		slog.Error("Invalid THEME, one of day or night expected")
		os.Exit(1)
	}

	loader, err := source.Config{
		Kind:        catalogSource,
		File:        catalogFile,
		Feed:        catalogFeed,
		DatabaseUrl: dbConnStr,
	}.Loader(context.Background(), slog.Default())
	if err != nil {
		slog.Error("Invalid catalog source configuration: " + err.Error())
		os.Exit(1)
	}

	c, err := loader.Load(context.Background())
	if err != nil {
		slog.Error("Failed to load catalog: " + err.Error())
		os.Exit(1)
	}

	slog.Info("Catalog loaded from "+source.Describe(loader),
		slog.Int("books", len(c.Books())),
		slog.Int("authors", len(c.Authors())),
		slog.Int("genres", len(c.Genres())))

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Mount("/api", server.Handler(c, size, th, &response.Responder{DebugMode: debugMode}))

	slog.Info("Listening on " + bindAddr)
	slog.Error("aborting: " + http.ListenAndServe(bindAddr, r).Error())
	os.Exit(1)
}
