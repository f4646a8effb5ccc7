// Package phrase holds the word-boundary text matching shared by the
// classifier, resolver and responder. All inputs are expected to be
// lower-cased already.
package phrase

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

func isWord(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

// Contains reports whether p occurs in text on word boundaries. A boundary
// is only required on a side where p itself starts or ends with a word
// character, so "books by " matches anywhere it appears verbatim.
func Contains(text, p string) bool {
	return Index(text, p) >= 0
}

// Index is like strings.Index but honours the boundary rule of Contains.
func Index(text, p string) int {
	if p == "" {
		return -1
	}
	first, _ := utf8.DecodeRuneInString(p)
	last, _ := utf8.DecodeLastRuneInString(p)
	needLeft, needRight := isWord(first), isWord(last)

	offset := 0
	for {
		i := strings.Index(text[offset:], p)
		if i < 0 {
			return -1
		}
		start := offset + i
		end := start + len(p)
		ok := true
		if needLeft && start > 0 {
			r, _ := utf8.DecodeLastRuneInString(text[:start])
			ok = !isWord(r)
		}
		if ok && needRight && end < len(text) {
			r, _ := utf8.DecodeRuneInString(text[end:])
			ok = !isWord(r)
		}
		if ok {
			return start
		}
		offset = start + 1
	}
}

// Any reports whether text contains at least one of ps.
func Any(text string, ps ...string) bool {
	for _, p := range ps {
		if Contains(text, p) {
			return true
		}
	}
	return false
}

// First returns the first of ps found in text, in the order given.
func First(text string, ps ...string) (string, bool) {
	for _, p := range ps {
		if Contains(text, p) {
			return p, true
		}
	}
	return "", false
}

// After returns the text following the first occurrence of trigger.
func After(text, trigger string) (string, bool) {
	i := Index(text, trigger)
	if i < 0 {
		return "", false
	}
	return text[i+len(trigger):], true
}

// Normalize lower-cases and trims s and folds typographic apostrophes.
func Normalize(s string) string {
	s = strings.ReplaceAll(s, "’", "'")
	return strings.ToLower(strings.TrimSpace(s))
}

// Tokens splits s on whitespace and strips surrounding punctuation from
// each token, dropping tokens that end up empty.
func Tokens(s string) []string {
	fields := strings.Fields(s)
	out := fields[:0]
	for _, f := range fields {
		f = strings.TrimFunc(f, func(r rune) bool { return !isWord(r) })
		if f != "" {
			out = append(out, f)
		}
	}
	return out
}

// TrimPunct removes trailing and leading sentence punctuation.
func TrimPunct(s string) string {
	return strings.TrimSpace(strings.Trim(strings.TrimSpace(s), "?!.,;:\"'"))
}
