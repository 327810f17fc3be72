package htmlrepair

import (
	"regexp"

	"github.com/microcosm-cc/bluemonday"
)

// Sanitizing очищает HTML политикой bluemonday перед передачей во вложенный
// Repairer. Удаляет скрипты, обработчики событий и небезопасные URL, но
// сохраняет атрибуты и inline-стили изображений, нужные для определения размеров.
type Sanitizing struct {
	next   Repairer
	policy *bluemonday.Policy
}

// NewSanitizing создает Repairer, который очищает вход и делегирует next.
func NewSanitizing(next Repairer) *Sanitizing {
	p := bluemonday.UGCPolicy()
	p.AllowStyles("width", "height").
		Matching(regexp.MustCompile(`(?i)^\s*\d+\s*(px|%)?\s*$`)).
		OnElements("img")
	return &Sanitizing{
		next:   next,
		policy: p,
	}
}

// Repair реализует Repairer.
func (s *Sanitizing) Repair(text string) string {
	return s.next.Repair(s.policy.Sanitize(text))
}
