package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"feedbutcher/internal/config"
	"feedbutcher/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var imageColumns = []string{"entry_id", "position", "src", "width", "height"}

type PostgresFeedDB struct {
	pool              *pgxpool.Pool
	log               *slog.Logger
	defaultEntryLimit int
}

func NewPostgresFeedDB(pool *pgxpool.Pool, appCfg config.AppConfig, log *slog.Logger) *PostgresFeedDB {
	log.Info("Initializing Postgres feed storage")
	return &PostgresFeedDB{
		pool:              pool,
		log:               log.With(slog.String("component", "storage")),
		defaultEntryLimit: appCfg.DefaultEntryLimit,
	}
}

func (db *PostgresFeedDB) Close() {
	db.log.Info("Closing database connection pool")
	db.pool.Close()
}

// SaveFeed сохраняет ленту в одной транзакции: обновляет строку ленты,
// вставляет или обновляет записи по (feed_url, guid) и заменяет их изображения.
func (db *PostgresFeedDB) SaveFeed(ctx context.Context, feed *domain.Feed) (saved int, err error) {
	const op = "storage.postgres.SaveFeed"
	log := db.log.With(slog.String("op", op), slog.String("url", feed.URL))

	tx, err := db.pool.Begin(ctx)
	if err != nil {
		log.Error("Failed to begin transaction", slog.Any("error", err))
		return 0, fmt.Errorf("%s: failed to begin transaction: %w", op, err)
	}
	defer func() {
		if err == nil {
			return
		}
		if rollbackErr := tx.Rollback(context.Background()); rollbackErr != nil && !errors.Is(rollbackErr, pgx.ErrTxClosed) {
			log.Error("Failed to rollback transaction", slog.Any("error", rollbackErr))
		}
	}()

	batch := &pgx.Batch{}
	batch.Queue(`
	INSERT INTO feeds (url, title, description, date, updated_at)
	VALUES ($1, $2, $3, $4, now())
	ON CONFLICT (url) DO UPDATE
	SET title = EXCLUDED.title, description = EXCLUDED.description,
	    date = EXCLUDED.date, updated_at = now();
	`, feed.URL, feed.Title, feed.Description, feed.Date)
	for i, entry := range feed.Entries {
		batch.Queue(`
		INSERT INTO entries (feed_url, guid, title, description, pubdate, link, position)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (feed_url, guid) DO UPDATE
		SET title = EXCLUDED.title, description = EXCLUDED.description,
		    pubdate = EXCLUDED.pubdate, link = EXCLUDED.link, position = EXCLUDED.position
		RETURNING id;
		`, feed.URL, entry.GUID, entry.Title, entry.Description, entry.PubDate, entry.Link, i)
	}

	ids, err := db.sendEntriesBatch(ctx, tx, batch, len(feed.Entries))
	if err != nil {
		log.Error("Failed to execute batch", slog.Any("error", err))
		return 0, fmt.Errorf("%s: failed to execute batch: %w", op, err)
	}

	if len(ids) > 0 {
		if _, err = tx.Exec(ctx, "DELETE FROM entry_images WHERE entry_id = ANY($1)", ids); err != nil {
			log.Error("Failed to delete old images", slog.Any("error", err))
			return 0, fmt.Errorf("%s: failed to delete images: %w", op, err)
		}
	}
	if rows := imageRows(ids, feed.Entries); len(rows) > 0 {
		if _, err = tx.CopyFrom(ctx, pgx.Identifier{"entry_images"}, imageColumns, pgx.CopyFromRows(rows)); err != nil {
			log.Error("Failed to copy images", slog.Any("error", err))
			return 0, fmt.Errorf("%s: failed to insert images: %w", op, err)
		}
	}

	if err = tx.Commit(ctx); err != nil {
		log.Error("Failed to commit transaction", slog.Any("error", err))
		return 0, fmt.Errorf("%s: failed to commit transaction: %w", op, err)
	}
	log.Debug("Feed saved", slog.Int("entries", len(ids)))
	return len(ids), nil
}

// sendEntriesBatch выполняет пакет и возвращает идентификаторы записей
// в порядке следования записей ленты.
func (db *PostgresFeedDB) sendEntriesBatch(ctx context.Context, tx pgx.Tx, batch *pgx.Batch, entries int) ([]int64, error) {
	results := tx.SendBatch(ctx, batch)
	if _, err := results.Exec(); err != nil {
		results.Close()
		return nil, fmt.Errorf("upsert feed: %w", err)
	}
	ids := make([]int64, 0, entries)
	for i := 0; i < entries; i++ {
		var id int64
		if err := results.QueryRow().Scan(&id); err != nil {
			results.Close()
			return nil, fmt.Errorf("upsert entry %d: %w", i, err)
		}
		ids = append(ids, id)
	}
	if err := results.Close(); err != nil {
		return nil, err
	}
	return ids, nil
}

// imageRows строит строки для COPY в entry_images. ids соответствуют entries
// по индексу. Записи с одинаковым GUID получают один id; изображения берутся
// у последней из них, как и остальные поля строки после upsert.
func imageRows(ids []int64, entries []domain.Entry) [][]any {
	last := make(map[int64]int, len(ids))
	for i, id := range ids {
		if i < len(entries) {
			last[id] = i
		}
	}
	var rows [][]any
	for i, id := range ids {
		if i >= len(entries) {
			break
		}
		if last[id] != i {
			continue
		}
		for pos, img := range entries[i].Images {
			rows = append(rows, []any{id, pos, img.Src, img.Width, img.Height})
		}
	}
	return rows
}

// GetEntries возвращает последние сохраненные записи вместе с изображениями.
// При limit <= 0 используется лимит из конфигурации.
func (db *PostgresFeedDB) GetEntries(ctx context.Context, limit int) ([]domain.Entry, error) {
	if limit <= 0 {
		limit = db.defaultEntryLimit
	}
	const op = "storage.postgres.GetEntries"
	log := db.log.With(slog.String("op", op), slog.Int("limit", limit))
	query := `
	SELECT id, feed_url, guid, title, description, pubdate, link
	FROM entries
	ORDER BY created_at DESC, position ASC
	LIMIT $1;
	`
	rows, err := db.pool.Query(ctx, query, limit)
	if err != nil {
		log.Error("Database query failed", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to execute query: %w", op, err)
	}
	var ids []int64
	entries, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Entry, error) {
		var entry domain.Entry
		var id int64
		err := row.Scan(
			&id,
			&entry.URL,
			&entry.GUID,
			&entry.Title,
			&entry.Description,
			&entry.PubDate,
			&entry.Link,
		)
		ids = append(ids, id)
		return entry, err
	})
	if err != nil {
		log.Error("Failed to collect rows", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to scan row: %w", op, err)
	}
	if len(entries) == 0 {
		return entries, nil
	}

	images, err := db.loadImages(ctx, ids)
	if err != nil {
		log.Error("Failed to load images", slog.Any("error", err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	attachImages(entries, ids, images)
	log.Info("Successfully retrieved entries", slog.Int("count", len(entries)))
	return entries, nil
}

type imageRow struct {
	entryID int64
	image   domain.Image
}

func (db *PostgresFeedDB) loadImages(ctx context.Context, ids []int64) ([]imageRow, error) {
	rows, err := db.pool.Query(ctx, `
	SELECT entry_id, src, width, height
	FROM entry_images
	WHERE entry_id = ANY($1)
	ORDER BY entry_id, position;
	`, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to query images: %w", err)
	}
	images, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (imageRow, error) {
		var r imageRow
		err := row.Scan(&r.entryID, &r.image.Src, &r.image.Width, &r.image.Height)
		return r, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan image: %w", err)
	}
	return images, nil
}

// attachImages раскладывает изображения по записям. У каждой записи
// список изображений не nil, даже если он пуст.
func attachImages(entries []domain.Entry, ids []int64, images []imageRow) {
	byID := make(map[int64]int, len(ids))
	for i, id := range ids {
		byID[id] = i
		entries[i].Images = []domain.Image{}
	}
	for _, r := range images {
		if i, ok := byID[r.entryID]; ok {
			entries[i].Images = append(entries[i].Images, r.image)
		}
	}
}
