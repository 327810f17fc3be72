package usecase

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"feedbutcher/internal/adapter/parser"
	"feedbutcher/internal/domain"
)

const testFeedURL = "https://www.example.com/feed/"

const testRSS = `<rss><channel><title>Example</title>
<item><title>One</title><description>&lt;img src="a.png"&gt;</description><guid>1</guid></item>
<item><title>Two</title><guid>2</guid></item>
</channel></rss>`

type stubFetcher struct {
	body string
	err  error
	url  string
}

func (f *stubFetcher) Fetch(_ context.Context, url string) (io.ReadCloser, error) {
	f.url = url
	if f.err != nil {
		return nil, f.err
	}
	return io.NopCloser(strings.NewReader(f.body)), nil
}

type stubStorage struct {
	saved *domain.Feed
	err   error
}

func (s *stubStorage) SaveFeed(_ context.Context, feed *domain.Feed) (int, error) {
	if s.err != nil {
		return 0, s.err
	}
	s.saved = feed
	return len(feed.Entries), nil
}

func newUseCase(f FeedFetcher, s FeedStorage) *FeedProcessingUseCase {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewFeedProcessingUseCase(f, parser.NewXMLParser(logger, nil), s, logger, map[string]string{
		"https://named.test/rss": "Named",
	})
}

func TestFeedProcessingUseCase_ProcessFeed(t *testing.T) {
	fetcher := &stubFetcher{body: testRSS}
	storage := &stubStorage{}

	err := newUseCase(fetcher, storage).ProcessFeed(context.Background(), testFeedURL)
	require.NoError(t, err)

	assert.Equal(t, testFeedURL, fetcher.url)
	require.NotNil(t, storage.saved)
	assert.Equal(t, "Example", storage.saved.Title)
	assert.Equal(t, testFeedURL, storage.saved.URL)
	require.Len(t, storage.saved.Entries, 2)
	require.Len(t, storage.saved.Entries[0].Images, 1)
	assert.Equal(t, "https://www.example.com/feed/a.png", storage.saved.Entries[0].Images[0].Src)
}

func TestFeedProcessingUseCase_ProcessFeed_Errors(t *testing.T) {
	boom := errors.New("boom")
	tests := []struct {
		name    string
		fetcher *stubFetcher
		storage *stubStorage
		msg     string
	}{
		{"fetch", &stubFetcher{err: boom}, &stubStorage{}, "fetch failed for example.com"},
		{"parse", &stubFetcher{body: "<foo/>"}, &stubStorage{}, "parse failed for example.com"},
		{"save", &stubFetcher{body: testRSS}, &stubStorage{err: boom}, "save failed for example.com"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := newUseCase(tt.fetcher, tt.storage).ProcessFeed(context.Background(), testFeedURL)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.msg)
		})
	}
}

func TestFeedProcessingUseCase_ParseErrorIsTyped(t *testing.T) {
	err := newUseCase(&stubFetcher{body: "<rss>"}, &stubStorage{}).ProcessFeed(context.Background(), testFeedURL)
	var parseErr *parser.ParseError
	assert.True(t, errors.As(err, &parseErr))
}

func TestFeedProcessingUseCase_FeedName(t *testing.T) {
	uc := newUseCase(&stubFetcher{}, &stubStorage{})
	assert.Equal(t, "Named", uc.FeedName("https://named.test/rss"))
	assert.Equal(t, "example.com", uc.FeedName("https://www.example.com/rss"))
	assert.Equal(t, "Unknown", uc.FeedName("not a url"))
}

type stubEntries struct {
	limit int
}

func (s *stubEntries) GetEntries(_ context.Context, limit int) ([]domain.Entry, error) {
	s.limit = limit
	return []domain.Entry{{GUID: "1"}}, nil
}

func TestEntriesGetterUseCase_GetEntries(t *testing.T) {
	storage := &stubEntries{}
	entries, err := NewEntriesGetterUseCase(storage).GetEntries(context.Background(), 7)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
	assert.Equal(t, 7, storage.limit)
}
