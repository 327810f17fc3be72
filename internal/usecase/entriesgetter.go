package usecase

import (
	"context"

	"feedbutcher/internal/domain"
)

// EntriesStorage определяет интерфейс для получения сохраненных записей.
type EntriesStorage interface {
	GetEntries(ctx context.Context, limit int) ([]domain.Entry, error)
}

// EntriesGetterUseCase предоставляет сохраненные записи для API.
type EntriesGetterUseCase struct {
	storage EntriesStorage
}

// NewEntriesGetterUseCase создает новый экземпляр UseCase для получения записей.
func NewEntriesGetterUseCase(s EntriesStorage) *EntriesGetterUseCase {
	return &EntriesGetterUseCase{storage: s}
}

// GetEntries возвращает последние записи с ограничением по количеству.
func (uc *EntriesGetterUseCase) GetEntries(ctx context.Context, limit int) ([]domain.Entry, error) {
	return uc.storage.GetEntries(ctx, limit)
}
