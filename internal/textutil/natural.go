package textutil

import (
	"cmp"
	"slices"
	"strings"

	"golang.org/x/text/cases"
)

// NaturalCompare orders identifiers the way people read them. Both values are
// split into alternating digit and non-digit runs; digit runs compare by
// numeric value and other runs compare case-insensitively, so "frame2" sorts
// before "frame10". Digit runs of equal value order by raw length, fewer
// leading zeros first. A digit run sorts before a text run at the same position.
// Values whose keys are equal fall back to a plain byte comparison so the
// order is total.
func NaturalCompare(a, b string) int {
	// Casers carry state, so each comparison gets its own.
	fold := cases.Fold()
	ta, tb := naturalTokens(a, fold), naturalTokens(b, fold)
	for i := 0; i < len(ta) && i < len(tb); i++ {
		if c := compareTokens(ta[i], tb[i]); c != 0 {
			return c
		}
	}
	if c := cmp.Compare(len(ta), len(tb)); c != 0 {
		return c
	}
	return strings.Compare(a, b)
}

// SortNatural sorts values in place using NaturalCompare.
func SortNatural(values []string) {
	slices.SortStableFunc(values, NaturalCompare)
}

type naturalToken struct {
	text    string
	numeric bool
}

func naturalTokens(value string, fold cases.Caser) []naturalToken {
	var tokens []naturalToken
	start := 0
	for i := 1; i <= len(value); i++ {
		if i < len(value) && isDigit(value[i]) == isDigit(value[start]) {
			continue
		}
		token := naturalToken{text: value[start:i], numeric: isDigit(value[start])}
		if !token.numeric {
			token.text = fold.String(token.text)
		}
		tokens = append(tokens, token)
		start = i
	}
	return tokens
}

func compareTokens(a, b naturalToken) int {
	switch {
	case a.numeric && b.numeric:
		return compareDigits(a.text, b.text)
	case a.numeric:
		return -1
	case b.numeric:
		return 1
	default:
		return strings.Compare(a.text, b.text)
	}
}

// compareDigits compares decimal runs of any length without overflowing.
// Runs of equal value order by raw length, so "7" sorts before "007".
func compareDigits(a, b string) int {
	ta := strings.TrimLeft(a, "0")
	tb := strings.TrimLeft(b, "0")
	if c := cmp.Compare(len(ta), len(tb)); c != 0 {
		return c
	}
	if c := strings.Compare(ta, tb); c != 0 {
		return c
	}
	return cmp.Compare(len(a), len(b))
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}
