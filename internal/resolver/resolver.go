// Package resolver matches free text against catalog entries.
package resolver

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/quinta-thw/librarymanager-ist4070/internal/catalog"
	"github.com/quinta-thw/librarymanager-ist4070/internal/phrase"
)

// Resolve returns the entries that searchPhrase refers to, in catalog
// order. An entry is included when any of these holds, case-insensitively:
// the phrase equals its title or author; the phrase is a substring of its
// title, author or genre; the author's last name is one of the phrase's
// words; or, for multi-word titles, a title word longer than three
// characters and the phrase contain one another.
//
// When searchPhrase is blank, a title or author named verbatim in
// utterance is used instead. A blank phrase with no such name resolves to
// nothing.
func Resolve(searchPhrase, utterance string, entries []catalog.Entry) []catalog.Entry {
	p := phrase.Normalize(searchPhrase)
	if p == "" {
		p = recognize(phrase.Normalize(utterance), entries)
		if p == "" {
			return nil
		}
	}
	pTokens := phrase.Tokens(p)

	var out []catalog.Entry
	for _, e := range entries {
		if matches(e, p, pTokens) {
			out = append(out, e)
		}
	}
	return out
}

func recognize(text string, entries []catalog.Entry) string {
	if text == "" {
		return ""
	}
	if e, ok := FindTitle(text, entries); ok {
		return strings.ToLower(e.Title)
	}
	if e, ok := FindAuthor(text, entries); ok {
		return strings.ToLower(e.Author)
	}
	return ""
}

func matches(e catalog.Entry, p string, pTokens []string) bool {
	title := strings.ToLower(e.Title)
	author := strings.ToLower(e.Author)
	genre := strings.ToLower(e.Genre)

	switch {
	case title == p, author == p:
		return true
	case strings.Contains(title, p), strings.Contains(author, p):
		return true
	case genre != "" && strings.Contains(genre, p):
		return true
	}

	if aTokens := strings.Fields(author); len(aTokens) > 0 {
		last := strings.Trim(aTokens[len(aTokens)-1], ".,")
		for _, t := range pTokens {
			if t == last {
				return true
			}
		}
	}

	tTokens := phrase.Tokens(title)
	if len(tTokens) > 1 {
		for _, t := range tTokens {
			if utf8.RuneCountInString(t) <= 3 {
				continue
			}
			if strings.Contains(p, t) || strings.Contains(t, p) {
				return true
			}
		}
	}
	return false
}

// LooksLikeAuthorName reports whether term reads like a person's name:
// two or more words, or one word longer than three characters starting
// with an upper-case letter.
func LooksLikeAuthorName(term string) bool {
	fields := strings.Fields(term)
	switch len(fields) {
	case 0:
		return false
	case 1:
		r, _ := utf8.DecodeRuneInString(fields[0])
		return utf8.RuneCountInString(fields[0]) > 3 && unicode.IsUpper(r)
	}
	return true
}

// OriginalCase returns term as it was written in utterance, or term itself
// when it cannot be located.
func OriginalCase(term, utterance string) string {
	lower := strings.ToLower(utterance)
	if term == "" || len(lower) != len(utterance) {
		return term
	}
	i := strings.Index(lower, strings.ToLower(term))
	if i < 0 {
		return term
	}
	return utterance[i : i+len(term)]
}
