// Package natsort orders strings the way people expect embedded numbers to sort.
//
// "file_2" sorts before "file_10", and decimal, exponent and signed forms
// ("file_-3.0", "file_1.0e2") compare by numeric value.
package natsort

import (
	"regexp"
	"slices"
	"strconv"
	"strings"
)

// numberPattern is the numeric token grammar shared by Key and IsNumber.
const numberPattern = `(?:\d+(?:\.\d*)?|\.\d+)(?:[eE][-+]?\d+)?`

var (
	signedRe   = regexp.MustCompile(`[-+]?` + numberPattern)
	unsignedRe = regexp.MustCompile(numberPattern)
	exactRe    = regexp.MustCompile(`^[-+]?` + numberPattern + `$`)
)

// Token is one segment of a Key: either text or a parsed number.
type Token struct {
	Text   string
	Num    float64
	Number bool
}

// Key is the comparable form of a string. Tokens alternate text and number,
// starting with a (possibly empty) text token, so kinds line up by position.
type Key []Token

// KeyOf splits s into text and signed numeric tokens.
func KeyOf(s string) Key {
	return split(s, signedRe)
}

// UnsignedKey splits s like KeyOf but never treats a leading sign as part of
// a number, so "a-1" tokenizes as "a-", 1.
func UnsignedKey(s string) Key {
	return split(s, unsignedRe)
}

func split(s string, re *regexp.Regexp) Key {
	locs := re.FindAllStringIndex(s, -1)
	key := make(Key, 0, 2*len(locs)+1)
	last := 0
	for _, loc := range locs {
		key = append(key, Token{Text: s[last:loc[0]]})
		lit := s[loc[0]:loc[1]]
		// The grammar only admits literals ParseFloat accepts; overflow
		// yields ±Inf, which still orders correctly.
		f, _ := strconv.ParseFloat(lit, 64)
		key = append(key, Token{Text: lit, Num: f, Number: true})
		last = loc[1]
	}
	return append(key, Token{Text: s[last:]})
}

// Compare returns -1, 0 or +1 comparing a and b token by token.
// When one key is a prefix of the other, the shorter sorts first.
func Compare(a, b Key) int {
	n := min(len(a), len(b))
	for i := 0; i < n; i++ {
		if c := compareToken(a[i], b[i]); c != 0 {
			return c
		}
	}
	switch {
	case len(a) < len(b):
		return -1
	case len(a) > len(b):
		return 1
	}
	return 0
}

func compareToken(a, b Token) int {
	switch {
	case a.Number && b.Number:
		switch {
		case a.Num < b.Num:
			return -1
		case a.Num > b.Num:
			return 1
		}
		return 0
	case a.Number != b.Number:
		// Unreachable for keys built by this package; numbers first keeps
		// the order total for hand-built keys.
		if a.Number {
			return -1
		}
		return 1
	}
	return strings.Compare(a.Text, b.Text)
}

// CompareStrings compares a and b under the natural order.
func CompareStrings(a, b string) int {
	return Compare(KeyOf(a), KeyOf(b))
}

// Less reports whether a sorts before b.
func Less(a, b string) bool {
	return CompareStrings(a, b) < 0
}

// Sort returns a naturally ordered copy of xs. Strings with equal keys keep
// their input order. xs is not modified.
func Sort(xs []string) []string {
	type keyed struct {
		s   string
		key Key
	}
	items := make([]keyed, len(xs))
	for i, s := range xs {
		items[i] = keyed{s: s, key: KeyOf(s)}
	}
	slices.SortStableFunc(items, func(a, b keyed) int {
		return Compare(a.key, b.key)
	})

	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.s
	}
	return out
}

// IsNumber reports whether s is exactly one signed numeric token.
func IsNumber(s string) bool {
	return exactRe.MatchString(s)
}
