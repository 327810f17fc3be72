package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"feedbutcher/internal/adapter/parser"
	"feedbutcher/internal/domain"
)

type stubGetter struct {
	entries []domain.Entry
	err     error
	limit   int
}

func (s *stubGetter) GetEntries(_ context.Context, limit int) ([]domain.Entry, error) {
	s.limit = limit
	return s.entries, s.err
}

func newTestRouter(getter *stubGetter) http.Handler {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := NewHandler(logger, getter, parser.NewXMLParser(logger, nil), 20)
	return NewServer(logger, h)
}

func serve(t *testing.T, router http.Handler, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestGetEntries(t *testing.T) {
	getter := &stubGetter{entries: []domain.Entry{{Title: "One", GUID: "1", Images: []domain.Image{}}}}
	router := newTestRouter(getter)

	rec := serve(t, router, httptest.NewRequest(http.MethodGet, "/api/entries?limit=5", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Equal(t, 5, getter.limit)
	var got []domain.Entry
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Len(t, got, 1)
	assert.Equal(t, "One", got[0].Title)
}

func TestGetEntries_DefaultLimitAndEmpty(t *testing.T) {
	getter := &stubGetter{}
	rec := serve(t, newTestRouter(getter), httptest.NewRequest(http.MethodGet, "/api/entries", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 20, getter.limit)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestGetEntries_BadLimit(t *testing.T) {
	for _, limit := range []string{"abc", "0", "-3"} {
		t.Run(limit, func(t *testing.T) {
			rec := serve(t, newTestRouter(&stubGetter{}), httptest.NewRequest(http.MethodGet, "/api/entries?limit="+limit, nil))
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestGetEntries_StorageError(t *testing.T) {
	rec := serve(t, newTestRouter(&stubGetter{err: errors.New("db down")}), httptest.NewRequest(http.MethodGet, "/api/entries", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "db down")
}

func TestGetEntries_MethodNotAllowed(t *testing.T) {
	rec := serve(t, newTestRouter(&stubGetter{}), httptest.NewRequest(http.MethodDelete, "/api/entries", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestDissect(t *testing.T) {
	body := `<rss><channel><title>T</title><item><title>A</title><description>&lt;img src="a.png" width="10"&gt;</description></item></channel></rss>`
	req := httptest.NewRequest(http.MethodPost, "/api/dissect?base=http://x.test/feed/", strings.NewReader(body))

	rec := serve(t, newTestRouter(&stubGetter{}), req)

	require.Equal(t, http.StatusOK, rec.Code)
	var feed domain.Feed
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &feed))
	assert.Equal(t, "T", feed.Title)
	assert.Equal(t, "http://x.test/feed/", feed.URL)
	require.Len(t, feed.Entries, 1)
	require.Len(t, feed.Entries[0].Images, 1)
	assert.Equal(t, "http://x.test/feed/a.png", feed.Entries[0].Images[0].Src)
	require.NotNil(t, feed.Entries[0].Images[0].Width)
	assert.Equal(t, 10, *feed.Entries[0].Images[0].Width)
}

func TestDissect_Errors(t *testing.T) {
	tests := []struct {
		name string
		body string
		code int
	}{
		{"not well-formed", "<rss><channel>", http.StatusUnprocessableEntity},
		{"unknown root", "<foo/>", http.StatusUnsupportedMediaType},
		{"too large", "<rss>" + strings.Repeat(" ", maxDocumentSize) + "</rss>", http.StatusRequestEntityTooLarge},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/dissect", strings.NewReader(tt.body))
			rec := serve(t, newTestRouter(&stubGetter{}), req)
			assert.Equal(t, tt.code, rec.Code)
			assert.Contains(t, rec.Body.String(), `"error"`)
		})
	}
}

func TestHealthCheck(t *testing.T) {
	rec := serve(t, newTestRouter(&stubGetter{}), httptest.NewRequest(http.MethodGet, "/api/health", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestMiddleware_CORSPreflight(t *testing.T) {
	rec := serve(t, newTestRouter(&stubGetter{}), httptest.NewRequest(http.MethodOptions, "/api/dissect", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestMiddleware_RequestID(t *testing.T) {
	router := newTestRouter(&stubGetter{})

	rec := serve(t, router, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	assert.Len(t, rec.Header().Get(requestIDHeader), 36)

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	req.Header.Set(requestIDHeader, "given-id")
	rec = serve(t, router, req)
	assert.Equal(t, "given-id", rec.Header().Get(requestIDHeader))
}
