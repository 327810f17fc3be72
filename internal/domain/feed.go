package domain

import (
	"strconv"

	"github.com/beevik/etree"
)

// Image представляет изображение, найденное в описании записи.
// Src всегда абсолютный URL; Width и Height равны nil, если размер неизвестен.
type Image struct {
	Src    string `json:"src"`
	Width  *int   `json:"width,omitempty"`
	Height *int   `json:"height,omitempty"`
}

// Markup возвращает изображение в виде самозакрывающегося элемента <img/>.
// Неизвестные размеры в разметку не попадают.
func (img Image) Markup() string {
	doc := etree.NewDocument()
	el := doc.CreateElement("img")
	el.CreateAttr("src", img.Src)
	if img.Width != nil {
		el.CreateAttr("width", strconv.Itoa(*img.Width))
	}
	if img.Height != nil {
		el.CreateAttr("height", strconv.Itoa(*img.Height))
	}
	out, err := doc.WriteToString()
	if err != nil {
		return ""
	}
	return out
}

// Entry представляет отдельную запись ленты в едином для всех диалектов виде.
// GUID никогда не бывает пустым.
type Entry struct {
	Title       string  `json:"title"`
	PubDate     string  `json:"pubdate"`
	Description string  `json:"description"`
	GUID        string  `json:"guid"`
	URL         string  `json:"url"`
	Link        string  `json:"link,omitempty"`
	Images      []Image `json:"images"`
}

// Feed представляет разобранную ленту с метаданными и записями в порядке документа.
type Feed struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Date        string  `json:"date"`
	URL         string  `json:"url"`
	Entries     []Entry `json:"entries"`
}
