package parser

import "fmt"

// ParseError возвращается, когда входной поток не является корректным XML.
// Исходная диагностика парсера доступна через errors.Unwrap.
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("failed to decode XML: %v", e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// UnsupportedFormatError возвращается, когда корневой элемент документа не
// соответствует ни одному из поддерживаемых диалектов.
type UnsupportedFormatError struct {
	Tag string
}

func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("unknown feed: %q", e.Tag)
}
