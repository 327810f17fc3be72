package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"feedbutcher/internal/adapter/parser"
	"feedbutcher/internal/domain"
)

// maxDocumentSize ограничивает размер документа, принимаемого /api/dissect.
const maxDocumentSize = 10 << 20

type entriesGetter interface {
	GetEntries(ctx context.Context, limit int) ([]domain.Entry, error)
}

type dissector interface {
	Parse(ctx context.Context, reader io.Reader, baseURL string) (*domain.Feed, error)
}

type Handler struct {
	log           *slog.Logger
	entriesGetter entriesGetter
	dissector     dissector
	defaultLimit  int
}

func NewHandler(log *slog.Logger, getter entriesGetter, d dissector, defaultLimit int) *Handler {
	return &Handler{
		log:           log,
		entriesGetter: getter,
		dissector:     d,
		defaultLimit:  defaultLimit,
	}
}

// getEntries - хендлер для эндпоинта GET /api/entries
func (h *Handler) getEntries(w http.ResponseWriter, r *http.Request) {
	const op = "transport.http/getEntries"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", getRequestID(r.Context())),
	)
	limitStr := r.URL.Query().Get("limit")
	limit := h.defaultLimit
	if limitStr != "" {
		var err error
		limit, err = strconv.Atoi(limitStr)
		if err != nil || limit <= 0 {
			log.Warn("invalid limit parameter", slog.String("limit", limitStr))
			respondWithError(w, http.StatusBadRequest, "Invalid 'limit' parameter")
			return
		}
	}

	entries, err := h.entriesGetter.GetEntries(r.Context(), limit)
	if err != nil {
		log.Error("Failed to get entries", slog.Any("error", err))
		respondWithError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}
	if entries == nil {
		entries = []domain.Entry{}
	}
	respondWithJSON(w, http.StatusOK, entries)
}

// dissect - хендлер для эндпоинта POST /api/dissect?base=URL.
// Тело запроса - документ ленты, ответ - разобранная лента.
func (h *Handler) dissect(w http.ResponseWriter, r *http.Request) {
	const op = "transport.http/dissect"
	base := r.URL.Query().Get("base")
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", getRequestID(r.Context())),
		slog.String("base", base),
	)
	body := http.MaxBytesReader(w, r.Body, maxDocumentSize)
	defer body.Close()

	feed, err := h.dissector.Parse(r.Context(), body, base)
	if err != nil {
		var (
			parseErr       *parser.ParseError
			unsupportedErr *parser.UnsupportedFormatError
			tooLargeErr    *http.MaxBytesError
		)
		switch {
		case errors.As(err, &tooLargeErr):
			log.Warn("document too large", slog.Int64("limit", tooLargeErr.Limit))
			respondWithError(w, http.StatusRequestEntityTooLarge, "Document too large")
		case errors.As(err, &parseErr):
			log.Warn("document is not well-formed", slog.Any("error", err))
			respondWithError(w, http.StatusUnprocessableEntity, err.Error())
		case errors.As(err, &unsupportedErr):
			log.Warn("unsupported feed format", slog.String("tag", unsupportedErr.Tag))
			respondWithError(w, http.StatusUnsupportedMediaType, err.Error())
		default:
			log.Error("Failed to dissect document", slog.Any("error", err))
			respondWithError(w, http.StatusInternalServerError, "Internal Server Error")
		}
		return
	}
	respondWithJSON(w, http.StatusOK, feed)
}

// healthCheck - хендлер для проверки состояния сервиса
func (h *Handler) healthCheck(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Вспомогательные функции для ответов
func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, map[string]string{"error": message})
}

func respondWithJSON(w http.ResponseWriter, code int, payload any) {
	response, err := json.Marshal(payload)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error": "Failed to marshal JSON response"}`))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}
