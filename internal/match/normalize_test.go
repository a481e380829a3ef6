package match

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"lowercases", "HELLO World", "hello world"},
		{"strips punctuation", "it's a trap!", "its a trap"},
		{"strips diacritics", "café crème brûlée", "cafe creme brulee"},
		{"transliterates eszett", "straße", "strasse"},
		{"transliterates o-slash", "smørrebrød", "smorrebrod"},
		{"collapses whitespace", "  foo \t bar\n\nbaz  ", "foo bar baz"},
		{"vertical tab and newlines", "a\vb\nc", "a b c"},
		{"cyrillic lookalikes", "сат", "cat"},
		{"cyrillic lookalikes uppercase", "УХО", "yxo"},
		{"transliterates eszett capital", "STRAẞE", "strasse"},
		{"mixed", "  The Quick, Brown FOX!  ", "the quick brown fox"},
		{"empty", "", ""},
		{"punctuation only", "?!...", ""},
		{"digits kept", "Route 66", "route 66"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Normalize(tt.input))
		})
	}
}

// TestNormalizeCaseAgnosticTransliteration checks that transliteration folds
// uppercase and lowercase forms to the same output, and that the folded
// output is itself a fixpoint. A case-sensitive fold would let an uppercase
// variant normalize differently from the identical lowercase guess.
func TestNormalizeCaseAgnosticTransliteration(t *testing.T) {
	inputs := []string{"У", "Х", "УХО", "ухо", "Straße", "SMØRREBRØD", "ÆÐÞ"}
	for _, s := range inputs {
		once := Normalize(s)
		assert.Equal(t, once, Normalize(once), "Normalize must be a fixpoint for %q", s)
		assert.Equal(t, Normalize(strings.ToLower(s)), once,
			"upper and lower case of %q must normalize identically", s)
	}
}

// TestNormalizeIdempotentProperty checks that normalization is a fixpoint:
// for any string s, Normalize(Normalize(s)) == Normalize(s).
func TestNormalizeIdempotentProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		s := rapid.String().Draw(t, "s")

		once := Normalize(s)
		twice := Normalize(once)

		if once != twice {
			t.Fatalf("Normalize not idempotent: %q -> %q -> %q", s, once, twice)
		}
	})
}

// TestNormalizeNoSurroundingSpaceProperty checks that normalized output never
// starts or ends with whitespace and never contains runs of spaces.
func TestNormalizeNoSurroundingSpaceProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		s := rapid.String().Draw(t, "s")

		n := Normalize(s)
		if n == "" {
			return
		}
		if n[0] == ' ' || n[len(n)-1] == ' ' {
			t.Fatalf("Normalized output has surrounding space: %q", n)
		}
		for i := 1; i < len(n); i++ {
			if n[i] == ' ' && n[i-1] == ' ' {
				t.Fatalf("Normalized output has a space run: %q", n)
			}
		}
	})
}

// TestNormalizeNoASCIIPunctuationProperty checks that no ASCII punctuation
// survives normalization.
func TestNormalizeNoASCIIPunctuationProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		s := rapid.String().Draw(t, "s")

		n := Normalize(s)
		for _, r := range n {
			for _, p := range asciiPunct {
				if r == p {
					t.Fatalf("Punctuation %q survived normalization of %q: %q", string(p), s, n)
				}
			}
		}
	})
}
