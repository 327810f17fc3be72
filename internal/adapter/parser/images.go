package parser

import (
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/beevik/etree"

	"feedbutcher/internal/adapter/htmlrepair"
	"feedbutcher/internal/domain"
)

var (
	styleWidthRe  = regexp.MustCompile(`(?i)(?:^|[;\s])width\s*:\s*(\d+)\s*(?:px|%)?`)
	styleHeightRe = regexp.MustCompile(`(?i)(?:^|[;\s])height\s*:\s*(\d+)\s*(?:px|%)?`)
	leadingNumRe  = regexp.MustCompile(`^\s*(\d+)`)
)

// extractImages находит все элементы <img> в нормализованном фрагменте в
// порядке документа. Размеры из inline-стиля важнее атрибутов width/height.
// Если фрагмент не разбирается, изображений нет.
func extractImages(fragment, baseURL string) []domain.Image {
	images := make([]domain.Image, 0)
	if fragment == "" {
		return images
	}
	root, err := htmlrepair.ParseFragment(fragment)
	if err != nil {
		return images
	}
	for _, img := range collectImages(root, nil) {
		width := parseDimension(leadingNumRe, img.SelectAttrValue("width", ""))
		height := parseDimension(leadingNumRe, img.SelectAttrValue("height", ""))
		style := img.SelectAttrValue("style", "")
		if w := parseDimension(styleWidthRe, style); w != nil {
			width = w
		}
		if h := parseDimension(styleHeightRe, style); h != nil {
			height = h
		}
		images = append(images, domain.Image{
			Src:    resolveURL(baseURL, img.SelectAttrValue("src", "")),
			Width:  width,
			Height: height,
		})
	}
	return images
}

// collectImages обходит дерево в прямом порядке и собирает элементы <img>
// в порядке их появления в документе.
func collectImages(el *etree.Element, acc []*etree.Element) []*etree.Element {
	for _, c := range el.ChildElements() {
		if strings.EqualFold(c.Tag, "img") {
			acc = append(acc, c)
		}
		acc = collectImages(c, acc)
	}
	return acc
}

// parseDimension возвращает число из первой группы re или nil.
func parseDimension(re *regexp.Regexp, s string) *int {
	if s == "" {
		return nil
	}
	m := re.FindStringSubmatch(s)
	if m == nil {
		return nil
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return nil
	}
	return &n
}

// resolveURL разрешает ref относительно base по правилам RFC 3986.
// Пустой ref дает base. Если один из адресов не разбирается, ref
// возвращается как есть.
func resolveURL(base, ref string) string {
	ref = strings.TrimSpace(ref)
	b, err := url.Parse(base)
	if err != nil {
		return ref
	}
	r, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return b.ResolveReference(r).String()
}
