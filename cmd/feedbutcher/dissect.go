package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	cli "github.com/urfave/cli/v3"

	"feedbutcher/internal/adapter/fetcher"
	"feedbutcher/internal/adapter/parser"
	"feedbutcher/internal/app"
	"feedbutcher/internal/config"
	"feedbutcher/internal/domain"
	"feedbutcher/internal/logger"
)

const separator = "--------------------------------------------------------------------------------"

func runDissect(ctx context.Context, cmd *cli.Command) error {
	if cmd.NArg() != 1 {
		return errors.New("dissect expects exactly one SOURCE")
	}
	cfg, err := loadConfig(cmd, false)
	if err != nil {
		return err
	}
	cfg.App.Sanitize = cfg.App.Sanitize || cmd.Bool("sanitize")
	// Вывод команды идет в stdout, поэтому все логи направляются в stderr.
	log := slog.New(logger.NewLevelDispatcherHandler(os.Stderr, os.Stderr, &slog.HandlerOptions{
		Level: logger.ParseLevel(cfg.Logger.Level),
	}))

	source := cmd.Args().First()
	base := cmd.String("base")
	r, err := openSource(ctx, source, cfg, log)
	if err != nil {
		return err
	}
	defer r.Close()
	if base == "" && isURL(source) {
		base = source
	}

	feed, err := parser.NewXMLParser(log, app.NewRepairer(cfg.App)).Parse(ctx, r, base)
	if err != nil {
		return fmt.Errorf("could not dissect %s: %w", source, err)
	}
	if cmd.Bool("json") {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(feed)
	}
	return printFeed(os.Stdout, feed)
}

func isURL(source string) bool {
	return strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://")
}

// openSource открывает локальный файл или загружает документ по http(s).
func openSource(ctx context.Context, source string, cfg *config.Config, log *slog.Logger) (io.ReadCloser, error) {
	if isURL(source) {
		return fetcher.NewHTTPFetcher(log, cfg.App.UserAgent, cfg.App.Timeout()).Fetch(ctx, source)
	}
	f, err := os.Open(source)
	if err != nil {
		return nil, fmt.Errorf("could not open source: %w", err)
	}
	return f, nil
}

// printFeed печатает для каждой записи заголовок с числом изображений,
// строку-разделитель и описание.
func printFeed(w io.Writer, feed *domain.Feed) error {
	for _, entry := range feed.Entries {
		if _, err := fmt.Fprintf(w, "%s (%d images)\n%s\n%s\n",
			strings.TrimSpace(entry.Title), len(entry.Images), separator, entry.Description); err != nil {
			return err
		}
	}
	return nil
}
