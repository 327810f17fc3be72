package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"
)

// FeedProcessingUseCase координирует загрузку, разбор и сохранение ленты.
type FeedProcessingUseCase struct {
	fetcher   FeedFetcher
	parser    FeedParser
	storage   FeedStorage
	log       *slog.Logger
	feedNames map[string]string
}

// NewFeedProcessingUseCase создает новый экземпляр UseCase для обработки лент.
// feedNames сопоставляет URL ленты ее читаемому имени для логов и ошибок.
func NewFeedProcessingUseCase(
	fetcher FeedFetcher,
	parser FeedParser,
	storage FeedStorage,
	log *slog.Logger,
	feedNames map[string]string,
) *FeedProcessingUseCase {
	return &FeedProcessingUseCase{
		fetcher:   fetcher,
		parser:    parser,
		storage:   storage,
		log:       log,
		feedNames: feedNames,
	}
}

// ProcessFeed выполняет полный цикл обработки ленты: загрузку, разбор и сохранение.
// URL ленты служит базовым адресом для относительных ссылок и резервных GUID.
// Возвращает ошибку в случае сбоя любого из этапов.
func (uc *FeedProcessingUseCase) ProcessFeed(ctx context.Context, feedURL string) error {
	start := time.Now()
	feedName := uc.FeedName(feedURL)
	log := uc.log.With(
		slog.String("component", "feed-processor"),
		slog.String("feed", feedName),
		slog.String("url", feedURL),
	)

	log.Info("Processing feed started")

	reader, err := uc.fetcher.Fetch(ctx, feedURL)
	if err != nil {
		log.Error("Feed fetch failed", slog.String("stage", "fetch"), slog.Any("error", err))
		return fmt.Errorf("fetch failed for %s: %w", feedName, err)
	}
	defer reader.Close()

	log.Debug("Feed fetched successfully", slog.String("stage", "fetch"))

	feed, err := uc.parser.Parse(ctx, reader, feedURL)
	if err != nil {
		log.Error("Feed parsing failed", slog.String("stage", "parse"), slog.Any("error", err))
		return fmt.Errorf("parse failed for %s: %w", feedName, err)
	}

	images := 0
	for _, e := range feed.Entries {
		images += len(e.Images)
	}
	log.Debug("Feed parsed successfully",
		slog.String("stage", "parse"),
		slog.Int("items_parsed", len(feed.Entries)),
		slog.Int("images_found", images),
	)

	savedCount, err := uc.storage.SaveFeed(ctx, feed)
	if err != nil {
		log.Error("Feed save failed", slog.String("stage", "save"), slog.Any("error", err))
		return fmt.Errorf("save failed for %s: %w", feedName, err)
	}

	log.Info("Feed processing completed successfully",
		slog.Int("items_found", len(feed.Entries)),
		slog.Int("items_saved", savedCount),
		slog.Duration("duration", time.Since(start)),
	)
	return nil
}

// FeedName возвращает читаемое имя ленты: из конфигурации или по домену URL.
func (uc *FeedProcessingUseCase) FeedName(feedURL string) string {
	if name, ok := uc.feedNames[feedURL]; ok {
		return name
	}
	u, err := url.Parse(feedURL)
	if err != nil || u.Hostname() == "" {
		return "Unknown"
	}
	return strings.TrimPrefix(u.Hostname(), "www.")
}
