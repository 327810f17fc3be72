package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"feedbutcher/internal/adapter/fetcher"
	"feedbutcher/internal/adapter/htmlrepair"
	"feedbutcher/internal/adapter/parser"
	"feedbutcher/internal/config"
	"feedbutcher/internal/logger"
	"feedbutcher/internal/migrations"
	server "feedbutcher/internal/transport/http"
	"feedbutcher/internal/usecase"
	"feedbutcher/internal/worker"
	"feedbutcher/storage"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/multierr"
)

const shutdownTimeout = 10 * time.Second

// App представляет сервис feedbutcher.
// Координирует HTTP-сервер, воркер обработки лент и хранилище.
type App struct {
	config   *config.Config
	logger   *slog.Logger
	server   *http.Server
	worker   *worker.Worker
	storage  storage.Storage
	closeLog func() error
	serveErr chan error
	wg       sync.WaitGroup
}

// New создает и инициализирует приложение: логгер, подключение к базе данных,
// миграции и все зависимости.
func New(cfg *config.Config) (*App, error) {
	appLogger, closeLog, err := logger.New(cfg.Logger)
	if err != nil {
		return nil, fmt.Errorf("failed to setup logger: %w", err)
	}
	slog.SetDefault(appLogger)

	ctx := context.Background()
	dbPool, err := pgxpool.New(ctx, cfg.Database.DSN())
	if err != nil {
		return nil, multierr.Append(fmt.Errorf("failed to connect to database: %w", err), closeLog())
	}
	if err := dbPool.Ping(ctx); err != nil {
		dbPool.Close()
		return nil, multierr.Append(fmt.Errorf("database ping failed: %w", err), closeLog())
	}
	if err := migrations.Apply(ctx, appLogger, dbPool); err != nil {
		dbPool.Close()
		return nil, multierr.Append(fmt.Errorf("migrations failed: %w", err), closeLog())
	}

	feedNames := make(map[string]string)
	urls := make([]string, 0, len(cfg.App.Feeds))
	for _, feed := range cfg.App.Feeds {
		feedNames[feed.URL] = feed.Name
		urls = append(urls, feed.URL)
	}

	dbStorage := storage.NewPostgresFeedDB(dbPool, cfg.App, appLogger)
	httpFetcher := fetcher.NewHTTPFetcher(appLogger, cfg.App.UserAgent, cfg.App.Timeout())
	xmlParser := parser.NewXMLParser(appLogger, NewRepairer(cfg.App))

	feedProcessor := usecase.NewFeedProcessingUseCase(httpFetcher, xmlParser, dbStorage, appLogger, feedNames)
	entriesGetter := usecase.NewEntriesGetterUseCase(dbStorage)

	handler := server.NewHandler(appLogger, entriesGetter, xmlParser, cfg.App.DefaultEntryLimit)
	router := server.NewServer(appLogger, handler)

	return &App{
		config:  cfg,
		logger:  appLogger,
		worker:  worker.New(feedProcessor, urls, cfg.App.Interval(), cfg.App.Timeout(), appLogger),
		storage: dbStorage,
		server: &http.Server{
			Addr:              cfg.Server.Address,
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
		closeLog: closeLog,
		serveErr: make(chan error, 1),
	}, nil
}

// NewRepairer выбирает восстановитель HTML по конфигурации: при включенной
// санитизации результат Tidy дополнительно очищается политикой bluemonday.
func NewRepairer(cfg config.AppConfig) htmlrepair.Repairer {
	tidy := htmlrepair.NewTidy()
	if cfg.Sanitize {
		return htmlrepair.NewSanitizing(tidy)
	}
	return tidy
}

// Run запускает воркер и HTTP-сервер и блокируется до отмены ctx
// (сигнал завершения) или падения сервера.
func (a *App) Run(ctx context.Context) error {
	a.logger.Info("Starting feedbutcher",
		slog.String("component", "app"),
		slog.Int("feed_count", len(a.worker.URLs())),
		slog.String("processing_interval", a.worker.Interval().String()),
	)
	listener, err := net.Listen("tcp", a.server.Addr)
	if err != nil {
		return multierr.Append(fmt.Errorf("failed to create listener: %w", err), a.release())
	}
	a.worker.Start()
	a.logger.Info("HTTP server ready",
		slog.String("component", "server"),
		slog.String("address", listener.Addr().String()),
	)
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		if err := a.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error("HTTP server failed", slog.Any("error", err))
			a.serveErr <- fmt.Errorf("http server: %w", err)
		}
	}()

	var runErr error
	select {
	case <-ctx.Done():
		a.logger.Info("Shutdown signal received",
			slog.String("component", "app"),
			slog.Any("cause", context.Cause(ctx)),
		)
	case runErr = <-a.serveErr:
	}
	return multierr.Append(runErr, a.Shutdown())
}

// Shutdown останавливает воркер, HTTP-сервер, хранилище и закрывает файлы
// логов. Ошибки всех этапов объединяются.
func (a *App) Shutdown() error {
	a.logger.Info("Starting graceful shutdown", slog.String("component", "app"))
	if a.worker != nil {
		a.worker.Stop()
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	var err error
	if shutdownErr := a.server.Shutdown(shutdownCtx); shutdownErr != nil {
		a.logger.Error("HTTP server shutdown failed", slog.Any("error", shutdownErr))
		err = fmt.Errorf("http server shutdown: %w", shutdownErr)
	}
	a.wg.Wait()
	a.logger.Info("Application stopped gracefully", slog.String("component", "app"))
	return multierr.Append(err, a.release())
}

// release закрывает хранилище и файлы логов. Повторный вызов ничего не делает.
func (a *App) release() error {
	if a.storage != nil {
		a.storage.Close()
		a.storage = nil
	}
	if a.closeLog == nil {
		return nil
	}
	closeLog := a.closeLog
	a.closeLog = nil
	if err := closeLog(); err != nil {
		return fmt.Errorf("close log files: %w", err)
	}
	return nil
}
