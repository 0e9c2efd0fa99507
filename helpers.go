package vesper

import (
	"fmt"
	"unicode/utf8"

	"golang.org/x/text/collate"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/language"
)

// decodeText validates raw file bytes as UTF-8 and drops a leading byte order mark.
func decodeText(raw []byte) (string, error) {
	if !utf8.Valid(raw) {
		return "", ErrNotText
	}

	text, err := unicode.UTF8BOM.NewDecoder().Bytes(raw)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrNotText, err)
	}
	return string(text), nil
}

// newNameCollator orders names case-insensitively, comparing runs of digits by value
// so that "file2" sorts before "file10". Collators are not safe for concurrent use.
func newNameCollator() *collate.Collator {
	return collate.New(language.Und, collate.IgnoreCase, collate.Numeric)
}
