package main

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path"
	"runtime"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	_ "github.com/joho/godotenv/autoload"

	"bookshelf/internal/browse"
	"bookshelf/internal/logger"
	"bookshelf/internal/source"
	"bookshelf/internal/tui"
)

func getEnvOrDefault(key, default_ string) string {
	if val := strings.TrimSpace(os.Getenv(key)); val != "" {
		return val
	}

	return default_
}

var (
	logLevel      = strings.ToLower(getEnvOrDefault("LOG_LEVEL", "debug"))
	logFormat     = strings.ToLower(getEnvOrDefault("LOG_FORMAT", "text"))
	logFile       = os.Getenv("LOG_FILE")
	catalogSource = strings.ToLower(getEnvOrDefault("CATALOG_SOURCE", source.KindFile))
	catalogFile   = os.Getenv("CATALOG_FILE")
	catalogFeed   = os.Getenv("CATALOG_FEED")
	dbConnStr     = os.Getenv("DATABASE_URL")
	pageSize      = getEnvOrDefault("PAGE_SIZE", strconv.Itoa(browse.DefaultPageSize))
	themeName     = os.Getenv("THEME")
	colorFgBg     = os.Getenv("COLORFGBG")
)

func main() {
	_, thisFile, _, _ := runtime.Caller(0)

	// The terminal belongs to the UI, logs go to a file or nowhere
	var w io.Writer = io.Discard
	if logFile != "" {
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			_, _ = io.WriteString(os.Stderr, "Failed to open LOG_FILE: "+err.Error()+"\n")
			os.Exit(1)
		}
		defer f.Close()
		w = f
	}

	lvl, lvlOk := logger.ParseLevel(logLevel)
	err := logger.SetupSLog(w, logFormat, lvl, path.Dir(path.Dir(path.Dir(thisFile))), struct{}{})
	if err != nil {
		_, _ = io.WriteString(os.Stderr, "Failed to set up logging: "+err.Error()+"\n")
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

	loader, err := source.Config{
		Kind:        catalogSource,
		File:        catalogFile,
		Feed:        catalogFeed,
		DatabaseUrl: dbConnStr,
	}.Loader(context.Background(), slog.Default())
	if err != nil {
		slog.Error("Invalid catalog source configuration: " + err.Error())
		_, _ = io.WriteString(os.Stderr, "Invalid catalog source configuration: "+err.Error()+"\n")
		os.Exit(1)
	}

	c, err := loader.Load(context.Background())
	if err != nil {
		slog.Error("Failed to load catalog: " + err.Error())
		_, _ = io.WriteString(os.Stderr, "Failed to load catalog: "+err.Error()+"\n")
		os.Exit(1)
	}

	slog.Info("Catalog loaded from "+source.Describe(loader), slog.Int("books", len(c.Books())))

	s := browse.NewSession(c, size, tui.DetectTheme(themeName, colorFgBg))

	_, err = tea.NewProgram(tui.New(c, s), tea.WithAltScreen()).Run()
	if err != nil {
		slog.Error("UI failed: " + err.Error())
		os.Exit(1)
	}
}
