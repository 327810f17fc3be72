package parser

import (
	"github.com/beevik/etree"
)

// Пространства имен, используемые поддерживаемыми диалектами.
const (
	nsRDF     = "http://www.w3.org/1999/02/22-rdf-syntax-ns#"
	nsRSS     = "http://purl.org/rss/1.0/"
	nsAtom    = "http://www.w3.org/2005/Atom"
	nsDC      = "http://purl.org/dc/elements/1.1/"
	nsContent = "http://purl.org/rss/1.0/modules/content/"
)

// Dialect обозначает формат документа ленты.
type Dialect int

const (
	DialectRDF Dialect = iota + 1
	DialectRSS
	DialectAtom
)

func (d Dialect) String() string {
	switch d {
	case DialectRDF:
		return "rdf"
	case DialectRSS:
		return "rss"
	case DialectAtom:
		return "atom"
	default:
		return "unknown"
	}
}

// channelFields - метаданные ленты в том виде, в каком они записаны в документе.
type channelFields struct {
	title       string
	description string
	date        string
}

// entryFields - сырые поля записи до нормализации.
type entryFields struct {
	title string
	body  string
	date  string
	guid  string
	link  string
}

// extractor извлекает поля ленты и ее записей для конкретного диалекта.
type extractor interface {
	channel(root *etree.Element) channelFields
	entries(root *etree.Element) []entryFields
}

// detectDialect определяет диалект по корневому элементу документа.
func detectDialect(root *etree.Element) (Dialect, error) {
	ns := root.NamespaceURI()
	switch {
	case root.Tag == "RDF" && ns == nsRDF:
		return DialectRDF, nil
	case root.Tag == "rss" && ns == "":
		return DialectRSS, nil
	case root.Tag == "feed" && ns == nsAtom:
		return DialectAtom, nil
	}
	tag := root.Tag
	if ns != "" {
		tag = "{" + ns + "}" + tag
	}
	return 0, &UnsupportedFormatError{Tag: tag}
}

func (d Dialect) extractor() extractor {
	switch d {
	case DialectRDF:
		return rdfExtractor{}
	case DialectRSS:
		return rssExtractor{}
	default:
		return atomExtractor{}
	}
}

type rdfExtractor struct{}

func (rdfExtractor) channel(root *etree.Element) channelFields {
	channel := child(root, nsRSS, "channel")
	return channelFields{
		title:       childText(channel, nsRSS, "title"),
		description: childText(channel, nsRSS, "description"),
		date:        childText(channel, nsDC, "date"),
	}
}

func (rdfExtractor) entries(root *etree.Element) []entryFields {
	items := children(root, nsRSS, "item")
	out := make([]entryFields, 0, len(items))
	for _, item := range items {
		out = append(out, entryFields{
			title: childText(item, nsRSS, "title"),
			body:  childText(item, nsRSS, "description"),
			date:  childText(item, nsDC, "date"),
			link:  childText(item, nsRSS, "link"),
		})
	}
	return out
}

type rssExtractor struct{}

func (rssExtractor) channel(root *etree.Element) channelFields {
	channel := child(root, "", "channel")
	return channelFields{
		title:       childText(channel, "", "title"),
		description: childText(channel, "", "description"),
		date:        childText(channel, "", "pubDate"),
	}
}

func (rssExtractor) entries(root *etree.Element) []entryFields {
	items := children(child(root, "", "channel"), "", "item")
	out := make([]entryFields, 0, len(items))
	for _, item := range items {
		body := childText(item, "", "description")
		if encoded := child(item, nsContent, "encoded"); encoded != nil {
			body = encoded.Text()
		}
		out = append(out, entryFields{
			title: childText(item, "", "title"),
			body:  body,
			date:  childText(item, "", "pubDate"),
			guid:  childText(item, "", "guid"),
			link:  childText(item, "", "link"),
		})
	}
	return out
}

type atomExtractor struct{}

func (atomExtractor) channel(root *etree.Element) channelFields {
	date := childText(root, "", "updated")
	if child(root, "", "updated") == nil {
		date = childText(root, nsAtom, "updated")
	}
	return channelFields{
		title: childText(root, nsAtom, "title"),
		date:  date,
	}
}

func (atomExtractor) entries(root *etree.Element) []entryFields {
	items := children(root, nsAtom, "entry")
	out := make([]entryFields, 0, len(items))
	for _, item := range items {
		body := childText(item, nsAtom, "summary")
		if content := child(item, nsAtom, "content"); content != nil {
			body = content.Text()
		}
		out = append(out, entryFields{
			title: childText(item, nsAtom, "title"),
			body:  body,
			date:  childText(item, nsAtom, "updated"),
			guid:  childText(item, nsAtom, "id"),
			link:  atomLink(item),
		})
	}
	return out
}

// atomLink возвращает href первой ссылки rel="alternate" (или без rel).
func atomLink(entry *etree.Element) string {
	for _, link := range children(entry, nsAtom, "link") {
		if rel := link.SelectAttrValue("rel", "alternate"); rel == "alternate" {
			return link.SelectAttrValue("href", "")
		}
	}
	return ""
}

// child возвращает первый дочерний элемент с заданным пространством имен
// и локальным именем. Безопасен для nil.
func child(el *etree.Element, ns, local string) *etree.Element {
	if el == nil {
		return nil
	}
	for _, c := range el.ChildElements() {
		if c.Tag == local && c.NamespaceURI() == ns {
			return c
		}
	}
	return nil
}

func children(el *etree.Element, ns, local string) []*etree.Element {
	if el == nil {
		return nil
	}
	var out []*etree.Element
	for _, c := range el.ChildElements() {
		if c.Tag == local && c.NamespaceURI() == ns {
			out = append(out, c)
		}
	}
	return out
}

// childText возвращает текст дочернего элемента или пустую строку, если
// элемента нет.
func childText(el *etree.Element, ns, local string) string {
	if c := child(el, ns, local); c != nil {
		return c.Text()
	}
	return ""
}
