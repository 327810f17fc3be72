package worker

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// FeedProcessor определяет интерфейс для обработки отдельной ленты.
type FeedProcessor interface {
	ProcessFeed(ctx context.Context, url string) error
}

// CycleStats - итог одного цикла обработки.
type CycleStats struct {
	Successful int
	Errors     int
	Duration   time.Duration
}

// Worker периодически обрабатывает все сконфигурированные ленты.
// Каждая лента обрабатывается в отдельной горутине со своим таймаутом.
type Worker struct {
	processor FeedProcessor
	urls      []string
	interval  time.Duration
	timeout   time.Duration
	log       *slog.Logger
	cancel    context.CancelFunc
	done      chan struct{}
}

// New создает нового воркера. timeout ограничивает обработку одной ленты.
func New(processor FeedProcessor, urls []string, interval, timeout time.Duration, log *slog.Logger) *Worker {
	return &Worker{
		processor: processor,
		urls:      urls,
		interval:  interval,
		timeout:   timeout,
		log:       log.With(slog.String("component", "worker")),
	}
}

// Start запускает воркер в отдельной горутине. Первый цикл выполняется сразу.
func (w *Worker) Start() {
	var ctx context.Context
	ctx, w.cancel = context.WithCancel(context.Background())
	w.done = make(chan struct{})
	go w.run(ctx)
}

// Stop отменяет текущие операции и ожидает завершения воркера.
func (w *Worker) Stop() {
	if w.cancel == nil {
		return
	}
	w.cancel()
	<-w.done
}

func (w *Worker) run(ctx context.Context) {
	defer close(w.done)
	w.log.Info("Feed processing worker started",
		slog.String("interval", w.interval.String()),
		slog.Int("feed_count", len(w.urls)),
	)
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	w.RunOnce(ctx)
	for {
		select {
		case <-ticker.C:
			w.RunOnce(ctx)
		case <-ctx.Done():
			w.log.Info("Worker stopping")
			return
		}
	}
}

// RunOnce обрабатывает все ленты параллельно и возвращает статистику цикла.
func (w *Worker) RunOnce(ctx context.Context) CycleStats {
	start := time.Now()
	w.log.Info("Feed processing cycle started", slog.Int("feeds_to_process", len(w.urls)))
	var wg sync.WaitGroup
	var successCount, errorCount atomic.Int64
	for _, url := range w.urls {
		wg.Add(1)
		go func(u string) {
			defer wg.Done()
			if ctx.Err() != nil {
				return
			}
			opCtx, opCancel := context.WithTimeout(ctx, w.timeout)
			defer opCancel()
			if err := w.processor.ProcessFeed(opCtx, u); err != nil {
				errorCount.Add(1)
				w.log.Error("Feed processing failed", slog.String("url", u), slog.Any("error", err))
				return
			}
			successCount.Add(1)
		}(url)
	}
	wg.Wait()
	stats := CycleStats{
		Successful: int(successCount.Load()),
		Errors:     int(errorCount.Load()),
		Duration:   time.Since(start),
	}
	w.log.Info("Feed processing cycle completed",
		slog.Int("successful", stats.Successful),
		slog.Int("errors", stats.Errors),
		slog.Int("total", len(w.urls)),
		slog.Duration("duration", stats.Duration),
	)
	return stats
}

// URLs возвращает список лент, которые обрабатывает воркер.
func (w *Worker) URLs() []string { return w.urls }

// Interval возвращает интервал обработки лент.
func (w *Worker) Interval() time.Duration { return w.interval }
