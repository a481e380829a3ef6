// Package match implements guess text normalization and answer matching
// for emojirade rounds.
package match

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// stripMarks decomposes characters and removes combining marks,
// so "café" and "cafe" normalize to the same form.
var stripMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// translitMap folds non-Latin shapes that survive mark stripping to their
// closest Latin approximation. Keys are lowercase only; input runes are
// lowercased before lookup so the fold is case-agnostic.
var translitMap = map[rune]string{
	'ß': "ss",
	'æ': "ae",
	'œ': "oe",
	'ø': "o",
	'đ': "d",
	'ð': "d",
	'þ': "th",
	'ł': "l",
	'ı': "i",
	// Cyrillic lookalikes
	'а': "a", 'е': "e", 'о': "o", 'р': "p", 'с': "c", 'у': "y", 'х': "x",
	'т': "t", 'н': "h",
}

const asciiPunct = "!\"#$%&'()*+,-./:;<=>?@[\\]^_`{|}~"

// Normalize folds text to the canonical form used for guess comparison:
// diacritics stripped, transliterated to Latin where a mapping exists,
// lowercased, ASCII punctuation removed, whitespace collapsed and trimmed.
// The function is idempotent: Normalize(Normalize(s)) == Normalize(s).
func Normalize(text string) string {
	folded, _, err := transform.String(stripMarks, text)
	if err != nil {
		// Malformed input falls back to the original bytes.
		folded = text
	}

	var b strings.Builder
	b.Grow(len(folded))
	for _, r := range folded {
		// Lowercase before the transliteration lookup: the fold must be
		// case-agnostic or a second pass could fold further, breaking
		// idempotence.
		r = unicode.ToLower(r)
		if mapped, ok := translitMap[r]; ok {
			b.WriteString(mapped)
			continue
		}
		b.WriteRune(r)
	}

	cleaned := strings.Map(func(r rune) rune {
		if strings.ContainsRune(asciiPunct, r) {
			return -1
		}
		return r
	}, b.String())

	return strings.Join(strings.Fields(cleaned), " ")
}
