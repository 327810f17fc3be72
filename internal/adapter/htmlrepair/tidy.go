package htmlrepair

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/beevik/etree"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Repairer определяет интерфейс восстановления произвольного HTML/текста
// в корректно сформированный XHTML-фрагмент (только содержимое body).
// Реализации никогда не возвращают ошибку: в худшем случае результат пустой.
type Repairer interface {
	Repair(text string) string
}

// RepairFunc позволяет использовать обычную функцию как Repairer.
type RepairFunc func(text string) string

// Repair реализует Repairer.
func (f RepairFunc) Repair(text string) string { return f(text) }

var xmlName = regexp.MustCompile(`^[A-Za-z_][-A-Za-z0-9._]*$`)

// Tidy восстанавливает HTML-фрагменты с помощью парсера golang.org/x/net/html.
// Не содержит состояния и безопасен для конкурентного использования.
type Tidy struct{}

// NewTidy создает новый экземпляр Tidy.
func NewTidy() *Tidy {
	return &Tidy{}
}

// Repair разбирает text как фрагмент внутри <body>, удаляет узлы, которые
// невозможно сохранить в виде XML, и сериализует результат. Все символы вне
// ASCII заменяются числовыми ссылками. Если итог не является корректным XML,
// возвращается пустая строка.
func (t *Tidy) Repair(text string) (out string) {
	if strings.TrimSpace(text) == "" {
		return ""
	}
	defer func() {
		if r := recover(); r != nil {
			out = ""
		}
	}()
	body := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	nodes, err := html.ParseFragmentWithOptions(strings.NewReader(text), body, html.ParseOptionEnableScripting(false))
	if err != nil {
		return ""
	}
	// Узлы фрагмента собираются под временным body, чтобы чистка могла
	// заменять и удалять узлы верхнего уровня так же, как вложенные.
	for _, n := range nodes {
		body.AppendChild(n)
	}
	clean(body)

	var sb strings.Builder
	for c := body.FirstChild; c != nil; c = c.NextSibling {
		if err := html.Render(&sb, c); err != nil {
			return ""
		}
	}
	out = escapeNonASCII(sb.String())
	if !WellFormed(out) {
		return ""
	}
	return out
}

// WellFormed сообщает, разбирается ли fragment как XML, будучи обернутым в
// один корневой элемент.
func WellFormed(fragment string) bool {
	_, err := ParseFragment(fragment)
	return err == nil
}

// ParseFragment разбирает нормализованный фрагмент в дерево etree и
// возвращает искусственный корневой элемент, содержащий фрагмент.
func ParseFragment(fragment string) (*etree.Element, error) {
	doc := etree.NewDocument()
	doc.ReadSettings.ValidateInput = true
	if err := doc.ReadFromString("<fragment>" + fragment + "</fragment>"); err != nil {
		return nil, fmt.Errorf("fragment is not well-formed: %w", err)
	}
	root := doc.Root()
	if root == nil {
		return nil, fmt.Errorf("fragment is not well-formed: no root element")
	}
	return root, nil
}

// clean рекурсивно удаляет из дерева все, что html.Render выводит без
// экранирования или что не может быть именем XML.
func clean(n *html.Node) {
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		switch c.Type {
		case html.CommentNode, html.DoctypeNode:
			n.RemoveChild(c)
		case html.ElementNode:
			switch c.Data {
			case "script", "style", "xmp", "plaintext", "noembed", "noframes", "template":
				n.RemoveChild(c)
			case "noscript":
				next = unwrap(n, c)
			case "iframe":
				for gc := c.FirstChild; gc != nil; {
					gnext := gc.NextSibling
					c.RemoveChild(gc)
					gc = gnext
				}
				c.Attr = cleanAttrs(c.Attr)
			default:
				if !xmlName.MatchString(c.Data) {
					next = unwrap(n, c)
					break
				}
				c.Attr = cleanAttrs(c.Attr)
				clean(c)
			}
		}
		c = next
	}
}

// unwrap заменяет c его дочерними узлами и возвращает первый из них,
// чтобы обход продолжился с перенесенных узлов.
func unwrap(parent, c *html.Node) *html.Node {
	first := c.FirstChild
	for gc := c.FirstChild; gc != nil; {
		gnext := gc.NextSibling
		c.RemoveChild(gc)
		parent.InsertBefore(gc, c)
		gc = gnext
	}
	next := c.NextSibling
	parent.RemoveChild(c)
	if first != nil {
		return first
	}
	return next
}

func cleanAttrs(attrs []html.Attribute) []html.Attribute {
	if len(attrs) == 0 {
		return attrs
	}
	seen := make(map[string]bool, len(attrs))
	kept := attrs[:0]
	for _, a := range attrs {
		if !xmlName.MatchString(a.Key) || (a.Namespace != "" && !xmlName.MatchString(a.Namespace)) {
			continue
		}
		key := a.Namespace + ":" + a.Key
		if seen[key] {
			continue
		}
		seen[key] = true
		kept = append(kept, a)
	}
	return kept
}

// escapeNonASCII заменяет символы вне ASCII числовыми ссылками и отбрасывает
// символы, недопустимые в XML 1.0.
func escapeNonASCII(s string) string {
	var sb strings.Builder
	sb.Grow(len(s))
	for _, r := range s {
		switch {
		case r == '\t' || r == '\n' || r == '\r':
			sb.WriteRune(r)
		case r < 0x20:
		case r < 0x80:
			sb.WriteRune(r)
		case (r >= 0xD800 && r <= 0xDFFF) || r == 0xFFFE || r == 0xFFFF:
		default:
			fmt.Fprintf(&sb, "&#%d;", r)
		}
	}
	return sb.String()
}
