package storage

import (
	"context"

	"feedbutcher/internal/domain"
)

// Storage определяет общий интерфейс хранилища разобранных лент.
// Объединяет сохранение ленты, выборку последних записей и закрытие соединения.
type Storage interface {
	SaveFeed(ctx context.Context, feed *domain.Feed) (int, error)
	GetEntries(ctx context.Context, limit int) ([]domain.Entry, error)
	Close()
}
