package worker

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type recordingProcessor struct {
	mu    sync.Mutex
	calls map[string]int
	fail  map[string]bool
}

func newRecordingProcessor(fail ...string) *recordingProcessor {
	p := &recordingProcessor{calls: map[string]int{}, fail: map[string]bool{}}
	for _, u := range fail {
		p.fail[u] = true
	}
	return p
}

func (p *recordingProcessor) ProcessFeed(ctx context.Context, url string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls[url]++
	if _, ok := ctx.Deadline(); !ok {
		return errors.New("no deadline")
	}
	if p.fail[url] {
		return errors.New("failed")
	}
	return nil
}

func (p *recordingProcessor) count(url string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls[url]
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestWorker_RunOnce(t *testing.T) {
	p := newRecordingProcessor("http://b.test/rss")
	w := New(p, []string{"http://a.test/rss", "http://b.test/rss", "http://c.test/rss"}, time.Hour, time.Second, testLogger())

	stats := w.RunOnce(context.Background())

	assert.Equal(t, 2, stats.Successful)
	assert.Equal(t, 1, stats.Errors)
	assert.Equal(t, 1, p.count("http://a.test/rss"))
	assert.Equal(t, 1, p.count("http://b.test/rss"))
}

func TestWorker_RunOnce_CancelledContext(t *testing.T) {
	p := newRecordingProcessor()
	w := New(p, []string{"http://a.test/rss"}, time.Hour, time.Second, testLogger())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	stats := w.RunOnce(ctx)

	assert.Zero(t, stats.Successful)
	assert.Zero(t, p.count("http://a.test/rss"))
}

func TestWorker_StartStop(t *testing.T) {
	p := newRecordingProcessor()
	w := New(p, []string{"http://a.test/rss"}, 10*time.Millisecond, time.Second, testLogger())

	w.Start()
	assert.Eventually(t, func() bool { return p.count("http://a.test/rss") >= 2 }, time.Second, 5*time.Millisecond)
	w.Stop()

	n := p.count("http://a.test/rss")
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, n, p.count("http://a.test/rss"))
	assert.Equal(t, 10*time.Millisecond, w.Interval())
	assert.Equal(t, []string{"http://a.test/rss"}, w.URLs())
}

func TestWorker_StopWithoutStart(t *testing.T) {
	w := New(newRecordingProcessor(), nil, time.Hour, time.Second, testLogger())
	assert.NotPanics(t, w.Stop)
}
