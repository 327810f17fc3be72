package parser

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"

	"github.com/beevik/etree"
	"golang.org/x/net/html/charset"

	"feedbutcher/internal/adapter/htmlrepair"
	"feedbutcher/internal/domain"
)

// XMLParser разбирает ленты RSS 1.0 (RDF), RSS 2.0 и Atom в единую доменную
// модель. Не хранит состояния между вызовами и безопасен для конкурентного
// использования.
type XMLParser struct {
	log      *slog.Logger
	repairer htmlrepair.Repairer
}

// NewXMLParser создает парсер. Если repairer равен nil, используется htmlrepair.Tidy.
func NewXMLParser(log *slog.Logger, repairer htmlrepair.Repairer) *XMLParser {
	if repairer == nil {
		repairer = htmlrepair.NewTidy()
	}
	return &XMLParser{
		log:      log,
		repairer: repairer,
	}
}

// Dissect разбирает ленту из r с настройками по умолчанию. baseURL
// используется для разрешения относительных адресов изображений и
// построения резервных идентификаторов.
func Dissect(r io.Reader, baseURL string) (*domain.Feed, error) {
	p := NewXMLParser(slog.New(slog.DiscardHandler), nil)
	return p.Parse(context.Background(), r, baseURL)
}

// Parse реализует метод интерфейса FeedParser.
// Возвращает *ParseError для некорректного XML и *UnsupportedFormatError для
// неизвестного корневого элемента. Ошибки отдельных записей не прерывают разбор.
func (p *XMLParser) Parse(ctx context.Context, reader io.Reader, baseURL string) (*domain.Feed, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	log := p.log.With(slog.String("component", "parser"), slog.String("url", baseURL))

	root, err := loadTree(reader)
	if err != nil {
		log.Error("Error decoding XML", slog.Any("error", err))
		return nil, err
	}
	dialect, err := detectDialect(root)
	if err != nil {
		log.Error("Unsupported feed format", slog.Any("error", err))
		return nil, err
	}
	ex := dialect.extractor()

	channel := ex.channel(root)
	raw := ex.entries(root)
	feed := domain.Feed{
		Title:       channel.title,
		Description: channel.description,
		Date:        channel.date,
		URL:         baseURL,
		Entries:     make([]domain.Entry, 0, len(raw)),
	}
	for _, fields := range raw {
		entry := p.buildEntry(fields, baseURL)
		if strings.TrimSpace(fields.body) != "" && entry.Description == "" {
			log.Warn("entry description could not be repaired, using empty fragment",
				slog.String("guid", entry.GUID),
			)
		}
		feed.Entries = append(feed.Entries, entry)
	}
	log.Debug("Feed dissected",
		slog.String("dialect", dialect.String()),
		slog.Int("items_found", len(feed.Entries)),
	)
	return &feed, nil
}

// buildEntry нормализует поля записи и собирает domain.Entry.
func (p *XMLParser) buildEntry(fields entryFields, baseURL string) domain.Entry {
	title := p.repairer.Repair(fields.title)
	description := p.repairer.Repair(fields.body)
	link := ""
	if l := strings.TrimSpace(fields.link); l != "" {
		link = resolveURL(baseURL, l)
	}
	return domain.Entry{
		Title:       title,
		PubDate:     fields.date,
		Description: description,
		GUID:        resolveGUID(fields.guid, baseURL, title, fields.date),
		URL:         baseURL,
		Link:        link,
		Images:      extractImages(description, baseURL),
	}
}

// loadTree читает весь поток и возвращает корневой элемент документа.
func loadTree(r io.Reader) (*etree.Element, error) {
	doc := etree.NewDocument()
	doc.ReadSettings = etree.ReadSettings{
		CharsetReader: charset.NewReaderLabel,
		ValidateInput: true,
	}
	if _, err := doc.ReadFrom(r); err != nil {
		return nil, &ParseError{Err: err}
	}
	root := doc.Root()
	if root == nil {
		return nil, &ParseError{Err: errors.New("no root element")}
	}
	return root, nil
}
