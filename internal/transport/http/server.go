package http

import (
	"log/slog"
	"net/http"
)

// NewServer создает HTTP-роутер API с middleware для CORS, идентификаторов
// запросов и логирования.
func NewServer(log *slog.Logger, h *Handler) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/entries", h.getEntries)
	mux.HandleFunc("POST /api/dissect", h.dissect)
	mux.HandleFunc("GET /api/health", h.healthCheck)
	var handler http.Handler = mux
	handler = loggingMiddleware(log)(handler)
	handler = requestIDMiddleware()(handler)
	handler = corsMiddleware()(handler)
	return handler
}
