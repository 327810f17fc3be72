package usecase

import (
	"context"
	"io"

	"feedbutcher/internal/domain"
)

// FeedFetcher определяет интерфейс для загрузки документов лент из внешних источников.
// Возвращает io.ReadCloser, который должен быть закрыт после использования.
type FeedFetcher interface {
	Fetch(ctx context.Context, url string) (io.ReadCloser, error)
}

// FeedParser определяет интерфейс для разбора документа ленты в доменную модель.
// baseURL используется для разрешения относительных адресов внутри записей.
type FeedParser interface {
	Parse(ctx context.Context, reader io.Reader, baseURL string) (*domain.Feed, error)
}

// FeedStorage определяет интерфейс для сохранения разобранной ленты.
// Возвращает количество сохраненных записей.
type FeedStorage interface {
	SaveFeed(ctx context.Context, feed *domain.Feed) (int, error)
}
