package machine

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// ErrInvalidLetter is returned for ciphertext characters outside A-Z.
var ErrInvalidLetter = errors.New("invalid letter")

// Unknown marks a crib position whose plaintext letter is not known.
const Unknown = -1

// spaceSymbol is the letter typed for a word space (Z).
const spaceSymbol = 25

// Fold uppercases text and strips diacritics, so "Café" becomes "CAFE".
func Fold(text string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, text)
	if err != nil {
		folded = text
	}
	return strings.ToUpper(folded)
}

// PlaintextSymbols converts plaintext to symbols for encryption: letters map
// to 0-25, spaces to Z, and anything else is dropped.
func PlaintextSymbols(text string) []int {
	folded := Fold(text)
	out := make([]int, 0, len(folded))
	for _, r := range folded {
		switch {
		case r >= 'A' && r <= 'Z':
			out = append(out, int(r-'A'))
		case r == ' ':
			out = append(out, spaceSymbol)
		}
	}
	return out
}

// CiphertextSymbols converts ciphertext to symbols. Whitespace (five-letter
// grouping, line breaks) is ignored; any other non-letter is an error.
func CiphertextSymbols(text string) ([]int, error) {
	out := make([]int, 0, len(text))
	for i, r := range text {
		switch {
		case unicode.IsSpace(r):
		case r >= 'A' && r <= 'Z':
			out = append(out, int(r-'A'))
		case r >= 'a' && r <= 'z':
			out = append(out, int(r-'a'))
		default:
			return nil, fmt.Errorf("%w %q at offset %d", ErrInvalidLetter, r, i)
		}
	}
	return out, nil
}

// CribSymbols converts a crib: letters map to 0-25, a space to Z and any
// other character to Unknown.
func CribSymbols(text string) []int {
	folded := Fold(text)
	out := make([]int, 0, len(folded))
	for _, r := range folded {
		switch {
		case r >= 'A' && r <= 'Z':
			out = append(out, int(r-'A'))
		case r == ' ':
			out = append(out, spaceSymbol)
		default:
			out = append(out, Unknown)
		}
	}
	return out
}

// SymbolsText renders symbols as letters. With spaces set, Z is shown as a
// word space. Unknown is shown as '?'.
func SymbolsText(symbols []int, spaces bool) string {
	var b strings.Builder
	b.Grow(len(symbols))
	for _, s := range symbols {
		switch {
		case s == Unknown:
			b.WriteByte('?')
		case spaces && s == spaceSymbol:
			b.WriteByte(' ')
		default:
			b.WriteByte(byte('A' + s))
		}
	}
	return b.String()
}

// Group splits letters into space-separated groups of size n.
func Group(text string, n int) string {
	if n <= 0 {
		return text
	}
	var b strings.Builder
	for i := 0; i < len(text); i++ {
		if i > 0 && i%n == 0 {
			b.WriteByte(' ')
		}
		b.WriteByte(text[i])
	}
	return b.String()
}
