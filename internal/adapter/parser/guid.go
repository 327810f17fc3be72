package parser

import (
	"strings"

	"github.com/google/uuid"
)

// resolveGUID возвращает явный идентификатор записи без изменений, если он
// содержит что-то кроме пробелов.
// Иначе строит UUID версии 5 из базового URL, нормализованного заголовка
// и сырой даты публикации, чтобы повторный разбор давал тот же GUID.
func resolveGUID(explicit, baseURL, title, pubDate string) string {
	if strings.TrimSpace(explicit) != "" {
		return explicit
	}
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(baseURL+title+pubDate)).String()
}
