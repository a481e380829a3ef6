package match

import (
	"strings"
	"unicode/utf8"
)

const (
	// DefaultScottFactor bounds how much longer a guess may be than the
	// longest accepted answer before it is rejected outright.
	DefaultScottFactor = 2

	// VariantDelimiter separates alternative answers in a submitted phrase.
	VariantDelimiter = "|"
)

// Outcome is the result of evaluating a guess against the accepted answers.
type Outcome int

const (
	// OutcomeNoMatch means the guess does not contain any accepted answer.
	OutcomeNoMatch Outcome = iota

	// OutcomeMatch means the guess contains an accepted answer bounded by
	// word boundaries.
	OutcomeMatch

	// OutcomeTooLong means the guess exceeded the Scott Factor length bound
	// and was rejected without being compared. Callers treat this as a
	// non-match for game flow but may log it distinctly.
	OutcomeTooLong
)

// String returns a short label for logging.
func (o Outcome) String() string {
	switch o {
	case OutcomeMatch:
		return "match"
	case OutcomeTooLong:
		return "too_long"
	default:
		return "no_match"
	}
}

// ParseVariants splits a submitted phrase on the variant delimiter and
// returns the raw (trimmed) and normalized alternatives in parallel order.
// Empty alternatives from stray delimiters are discarded.
func ParseVariants(phrase string) (raw, normalized []string) {
	for _, part := range strings.Split(phrase, VariantDelimiter) {
		trimmed := strings.TrimSpace(part)
		if trimmed == "" {
			continue
		}
		n := Normalize(trimmed)
		if n == "" {
			continue
		}
		raw = append(raw, trimmed)
		normalized = append(normalized, n)
	}
	return raw, normalized
}

// Evaluate decides whether a guess matches any of the accepted answer
// variants. Both the guess and the variants must already be normalized.
//
// A guess longer than scottFactor times the longest variant is rejected as
// OutcomeTooLong regardless of content. Otherwise variants are tested in
// order and the first one occurring in the guess as a whole word (or word
// sequence) wins: "the cat sat" matches variant "cat", "catastrophe" does
// not.
func Evaluate(guess string, variants []string, scottFactor int) Outcome {
	if len(variants) == 0 || guess == "" {
		return OutcomeNoMatch
	}
	if scottFactor <= 0 {
		scottFactor = DefaultScottFactor
	}

	longest := 0
	for _, v := range variants {
		if n := utf8.RuneCountInString(v); n > longest {
			longest = n
		}
	}
	if utf8.RuneCountInString(guess) > longest*scottFactor {
		return OutcomeTooLong
	}

	padded := " " + guess + " "
	for _, v := range variants {
		if strings.Contains(padded, " "+v+" ") {
			return OutcomeMatch
		}
	}
	return OutcomeNoMatch
}
